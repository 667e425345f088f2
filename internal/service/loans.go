package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmeshcher/eltiw/internal/engine"
	"github.com/mmeshcher/eltiw/internal/model"
	"github.com/mmeshcher/eltiw/internal/validation"
)

// PaymentRequest содержит сырые поля платежа по займу.
type PaymentRequest struct {
	Amount string
	Note   string
	Method string
}

// AddLoan проверяет и добавляет займ. Новый займ становится первым в коллекции.
func (s *Service) AddLoan(ctx context.Context, boardID string, in validation.LoanInput) (model.Loan, error) {
	draft, err := validation.ValidateLoanInput(in, s.engine.Now().Location())
	if err != nil {
		return model.Loan{}, err
	}

	state, err := s.update(ctx, boardID, func(st model.State) (model.State, error) {
		st.Loans = s.engine.AddLoan(st.Loans, draft)
		return st, nil
	})
	if err != nil {
		return model.Loan{}, err
	}
	return state.Loans[0], nil
}

// UpdateLoan применяет к займу переданные поля.
func (s *Service) UpdateLoan(ctx context.Context, boardID, loanID string, in validation.LoanPatchInput) (model.Loan, error) {
	patch, err := validation.ValidateLoanPatch(in, s.engine.Now().Location())
	if err != nil {
		return model.Loan{}, err
	}

	return s.updateLoan(ctx, boardID, loanID, func(loans []model.Loan) ([]model.Loan, error) {
		return s.engine.UpdateLoan(loans, loanID, patch), nil
	})
}

// DeleteLoan удаляет займ. Повторное удаление ничего не меняет и не считается ошибкой.
func (s *Service) DeleteLoan(ctx context.Context, boardID, loanID string) error {
	_, err := s.update(ctx, boardID, func(st model.State) (model.State, error) {
		if _, ok := engine.LoanByID(st.Loans, loanID); !ok {
			return st, errUnchanged
		}
		st.Loans = s.engine.DeleteLoan(st.Loans, loanID)
		return st, nil
	})
	return err
}

// AddPayment записывает платёж по займу. Сумма должна быть положительной и не больше остатка.
func (s *Service) AddPayment(ctx context.Context, boardID, loanID string, in PaymentRequest) (model.Loan, error) {
	value, err := validation.ParseAmount(in.Amount)
	if err != nil {
		return model.Loan{}, fmt.Errorf("%w: %v", engine.ErrAmountInvalid, err)
	}

	payment := engine.PaymentInput{
		Amount: value,
		Note:   strings.TrimSpace(in.Note),
		Method: strings.TrimSpace(in.Method),
	}
	return s.updateLoan(ctx, boardID, loanID, func(loans []model.Loan) ([]model.Loan, error) {
		return s.engine.AddPayment(loans, loanID, payment)
	})
}

// ToggleLoanRepaid вручную переключает признак погашения займа.
func (s *Service) ToggleLoanRepaid(ctx context.Context, boardID, loanID string) (model.Loan, error) {
	return s.updateLoan(ctx, boardID, loanID, func(loans []model.Loan) ([]model.Loan, error) {
		return s.engine.ToggleLoanRepaid(loans, loanID), nil
	})
}

// Loan возвращает займ по идентификатору вместе с расчётами.
func (s *Service) Loan(ctx context.Context, boardID, loanID string) (LoanView, error) {
	state, err := s.load(ctx, boardID)
	if err != nil {
		return LoanView{}, err
	}
	l, ok := engine.LoanByID(state.Loans, loanID)
	if !ok {
		return LoanView{}, fmt.Errorf("%w: loan %s", ErrRecordNotFound, loanID)
	}
	return NewLoanView(l, s.engine.Now()), nil
}

func (s *Service) updateLoan(ctx context.Context, boardID, loanID string, fn func([]model.Loan) ([]model.Loan, error)) (model.Loan, error) {
	state, err := s.update(ctx, boardID, func(st model.State) (model.State, error) {
		if _, ok := engine.LoanByID(st.Loans, loanID); !ok {
			return st, fmt.Errorf("%w: loan %s", ErrRecordNotFound, loanID)
		}
		loans, err := fn(st.Loans)
		if err != nil {
			return st, err
		}
		st.Loans = loans
		return st, nil
	})
	if err != nil {
		return model.Loan{}, err
	}

	l, _ := engine.LoanByID(state.Loans, loanID)
	return l, nil
}
