// Package engine реализует доменную логику целей и займов: команды изменения коллекций,
// производные метрики и выборки. Все функции чистые: состояние передаётся и возвращается,
// входные срезы не изменяются. Сериализацию доступа к общей коллекции обеспечивает вызывающий.
package engine

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrAmountInvalid возвращается для неположительной суммы пополнения или платежа.
	ErrAmountInvalid = errors.New("amount must be greater than zero")
	// ErrPaymentExceedsBalance возвращается, если платёж больше остатка долга.
	ErrPaymentExceedsBalance = errors.New("payment exceeds outstanding balance")
)

// Engine выполняет команды над коллекциями. Часы и генератор идентификаторов внедряются,
// чтобы результат был детерминированным в тестах.
type Engine struct {
	now   func() time.Time
	newID func() string
}

// Option настраивает Engine.
type Option func(*Engine)

// WithClock задаёт источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator задаёт генератор идентификаторов записей.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		e.newID = newID
	}
}

// New создаёт Engine с системными часами и UUID-идентификаторами.
func New(opts ...Option) *Engine {
	e := &Engine{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now возвращает текущее время по часам движка в UTC.
func (e *Engine) Now() time.Time {
	return e.now().UTC()
}
