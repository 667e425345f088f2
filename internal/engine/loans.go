package engine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/eltiw/internal/model"
)

// PaymentInput содержит данные нового платежа по займу.
type PaymentInput struct {
	Amount decimal.Decimal
	Note   string
	Method string
}

// AddLoan создаёт займ из проверенного черновика и добавляет его в начало коллекции.
func (e *Engine) AddLoan(loans []model.Loan, draft model.LoanDraft) []model.Loan {
	now := e.Now()
	category := draft.Category
	if category == "" {
		category = model.LoanCategoryOther
	}

	loan := model.Loan{
		ID:               e.newID(),
		BorrowerName:     draft.BorrowerName,
		Amount:           draft.Amount,
		AmountPaid:       decimal.Zero,
		Deadline:         draft.Deadline,
		IsRepaid:         false,
		Category:         category,
		Notes:            draft.Notes,
		FollowupNotes:    draft.FollowupNotes,
		NextFollowupDate: draft.NextFollowupDate,
		PaymentHistory:   []model.PaymentRecord{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	res := make([]model.Loan, 0, len(loans)+1)
	res = append(res, loan)
	return append(res, loans...)
}

// UpdateLoan применяет изменения к займу. Неизвестный id не считается ошибкой.
func (e *Engine) UpdateLoan(loans []model.Loan, id string, patch model.LoanPatch) []model.Loan {
	return e.mutateLoan(loans, id, func(l *model.Loan) {
		if patch.BorrowerName != nil {
			l.BorrowerName = *patch.BorrowerName
		}
		if patch.Amount != nil {
			l.Amount = *patch.Amount
		}
		if patch.Deadline != nil {
			l.Deadline = *patch.Deadline
		}
		if patch.Category != nil {
			l.Category = *patch.Category
		}
		if patch.Notes != nil {
			l.Notes = *patch.Notes
		}
		if patch.FollowupNotes != nil {
			l.FollowupNotes = *patch.FollowupNotes
		}
		if patch.NextFollowupDate != nil {
			d := *patch.NextFollowupDate
			l.NextFollowupDate = &d
		}
		switch {
		case patch.IsRepaid != nil:
			l.IsRepaid = *patch.IsRepaid
		case patch.Amount != nil:
			// новая сумма могла оказаться не больше уже выплаченного
			l.IsRepaid = l.AmountPaid.GreaterThanOrEqual(l.Amount)
		}
	})
}

// DeleteLoan удаляет займ. Отсутствующий id игнорируется.
func (e *Engine) DeleteLoan(loans []model.Loan, id string) []model.Loan {
	if indexLoan(loans, id) < 0 {
		return loans
	}
	return slices.DeleteFunc(slices.Clone(loans), func(l model.Loan) bool {
		return l.ID == id
	})
}

// AddPayment записывает платёж. Сумма должна быть положительной и не больше остатка долга;
// займ считается погашенным, когда выплачено не меньше суммы займа.
func (e *Engine) AddPayment(loans []model.Loan, loanID string, in PaymentInput) ([]model.Loan, error) {
	if !in.Amount.IsPositive() {
		return loans, fmt.Errorf("%w: %s", ErrAmountInvalid, in.Amount)
	}

	i := indexLoan(loans, loanID)
	if i < 0 {
		return loans, nil
	}

	remaining := loans[i].Amount.Sub(loans[i].AmountPaid)
	if in.Amount.GreaterThan(remaining) {
		return loans, fmt.Errorf("%w: remaining %s", ErrPaymentExceedsBalance, remaining)
	}

	method := strings.TrimSpace(in.Method)
	if method == "" {
		method = model.PaymentMethodMPesa
	}

	return e.mutateLoan(loans, loanID, func(l *model.Loan) {
		l.PaymentHistory = append(l.PaymentHistory, model.PaymentRecord{
			ID:     e.newID(),
			Amount: in.Amount,
			Date:   e.Now(),
			Note:   in.Note,
			Method: method,
		})
		l.AmountPaid = l.AmountPaid.Add(in.Amount)
		l.IsRepaid = l.AmountPaid.GreaterThanOrEqual(l.Amount)
	}), nil
}

// ToggleLoanRepaid вручную переключает отметку погашения.
func (e *Engine) ToggleLoanRepaid(loans []model.Loan, id string) []model.Loan {
	return e.mutateLoan(loans, id, func(l *model.Loan) {
		l.IsRepaid = !l.IsRepaid
	})
}

// ClearLoans возвращает пустую коллекцию займов.
func (e *Engine) ClearLoans() []model.Loan {
	return []model.Loan{}
}

// LoanByID ищет займ по идентификатору.
func LoanByID(loans []model.Loan, id string) (model.Loan, bool) {
	i := indexLoan(loans, id)
	if i < 0 {
		return model.Loan{}, false
	}
	return loans[i], true
}

func (e *Engine) mutateLoan(loans []model.Loan, id string, fn func(l *model.Loan)) []model.Loan {
	i := indexLoan(loans, id)
	if i < 0 {
		return loans
	}

	res := slices.Clone(loans)
	l := res[i].Clone()
	fn(&l)
	l.UpdatedAt = e.Now()
	res[i] = l
	return res
}

func indexLoan(loans []model.Loan, id string) int {
	return slices.IndexFunc(loans, func(l model.Loan) bool {
		return l.ID == id
	})
}
