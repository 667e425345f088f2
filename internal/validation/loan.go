package validation

import (
	"errors"
	"strings"
	"time"

	"github.com/mmeshcher/eltiw/internal/model"
)

// LoanInput содержит сырые поля формы займа.
type LoanInput struct {
	BorrowerName     string
	Amount           string
	Deadline         string
	Category         string
	Notes            string
	FollowupNotes    string
	NextFollowupDate string
}

// LoanPatchInput содержит сырые поля изменения займа.
type LoanPatchInput struct {
	BorrowerName     *string
	Amount           *string
	Deadline         *string
	Category         *string
	Notes            *string
	FollowupNotes    *string
	NextFollowupDate *string
	IsRepaid         *bool
}

// ValidateLoanInput проверяет новый займ. Срок может быть в прошлом: от него зависит просрочка.
func ValidateLoanInput(in LoanInput, loc *time.Location) (model.LoanDraft, error) {
	var errs []error
	draft := model.LoanDraft{
		BorrowerName:  strings.TrimSpace(in.BorrowerName),
		Notes:         strings.TrimSpace(in.Notes),
		FollowupNotes: strings.TrimSpace(in.FollowupNotes),
	}

	if draft.BorrowerName == "" {
		errs = append(errs, fieldError("borrowerName", "is required"))
	}

	amount, err := positiveAmount("amount", in.Amount)
	if err != nil {
		errs = append(errs, err)
	}
	draft.Amount = amount

	deadline, err := ParseDate(in.Deadline, loc)
	if err != nil {
		errs = append(errs, fieldError("deadline", "must be a valid date"))
	}
	draft.Deadline = deadline

	category, err := loanCategory(in.Category)
	if err != nil {
		errs = append(errs, err)
	}
	draft.Category = category

	if strings.TrimSpace(in.NextFollowupDate) != "" {
		followup, err := ParseDate(in.NextFollowupDate, loc)
		if err != nil {
			errs = append(errs, fieldError("nextFollowupDate", "must be a valid date"))
		} else {
			draft.NextFollowupDate = &followup
		}
	}

	if len(errs) > 0 {
		return model.LoanDraft{}, errors.Join(errs...)
	}
	return draft, nil
}

// ValidateLoanPatch проверяет только переданные поля займа.
func ValidateLoanPatch(in LoanPatchInput, loc *time.Location) (model.LoanPatch, error) {
	var (
		errs  []error
		patch model.LoanPatch
	)

	if in.BorrowerName != nil {
		name := strings.TrimSpace(*in.BorrowerName)
		if name == "" {
			errs = append(errs, fieldError("borrowerName", "is required"))
		}
		patch.BorrowerName = &name
	}
	if in.Amount != nil {
		amount, err := positiveAmount("amount", *in.Amount)
		if err != nil {
			errs = append(errs, err)
		}
		patch.Amount = &amount
	}
	if in.Deadline != nil {
		deadline, err := ParseDate(*in.Deadline, loc)
		if err != nil {
			errs = append(errs, fieldError("deadline", "must be a valid date"))
		}
		patch.Deadline = &deadline
	}
	if in.Category != nil {
		category, err := loanCategory(*in.Category)
		if err != nil {
			errs = append(errs, err)
		}
		patch.Category = &category
	}
	if in.Notes != nil {
		notes := strings.TrimSpace(*in.Notes)
		patch.Notes = &notes
	}
	if in.FollowupNotes != nil {
		notes := strings.TrimSpace(*in.FollowupNotes)
		patch.FollowupNotes = &notes
	}
	if in.NextFollowupDate != nil {
		followup, err := ParseDate(*in.NextFollowupDate, loc)
		if err != nil {
			errs = append(errs, fieldError("nextFollowupDate", "must be a valid date"))
		}
		patch.NextFollowupDate = &followup
	}
	patch.IsRepaid = in.IsRepaid

	if len(errs) > 0 {
		return model.LoanPatch{}, errors.Join(errs...)
	}
	return patch, nil
}

func loanCategory(raw string) (model.LoanCategory, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return model.LoanCategoryOther, nil
	}
	c := model.LoanCategory(raw)
	if !c.Valid() {
		return model.LoanCategoryOther, fieldError("category", "unknown category "+raw)
	}
	return c, nil
}
