// Package validation содержит функции валидации входных данных целей и займов.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrValidation объединяет все ошибки валидации: errors.Is(err, ErrValidation).
var ErrValidation = errors.New("validation failed")

// Формат даты из полей формы.
const dateLayout = "2006-01-02"

// ValidationError описывает ошибку конкретного поля.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is позволяет сопоставлять любую ошибку поля с ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Fields возвращает ошибки полей из err, включая объединённые через errors.Join.
func Fields(err error) []*ValidationError {
	if err == nil {
		return nil
	}
	var res []*ValidationError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			res = append(res, Fields(e)...)
		}
		return res
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		res = append(res, ve)
	}
	return res
}

func fieldError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ParseAmount разбирает денежную сумму. NaN, бесконечность и пустая строка отклоняются.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errors.New("amount is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}

// ParseDate разбирает дату в формате 2006-01-02 (в поясе loc) или RFC 3339.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("date is required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func positiveAmount(field, raw string) (decimal.Decimal, error) {
	amount, err := ParseAmount(raw)
	if err != nil {
		return decimal.Zero, fieldError(field, "must be a number")
	}
	if !amount.IsPositive() {
		return decimal.Zero, fieldError(field, "must be greater than 0")
	}
	return amount, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
