package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan описывает сумму, выданную заёмщику, и историю её возврата.
type Loan struct {
	ID               string          `json:"id"`
	BorrowerName     string          `json:"borrowerName"`
	Amount           decimal.Decimal `json:"amount"`
	AmountPaid       decimal.Decimal `json:"amountPaid"`
	Deadline         time.Time       `json:"deadline"`
	IsRepaid         bool            `json:"isRepaid"`
	Category         LoanCategory    `json:"category"`
	Notes            string          `json:"notes,omitempty"`
	FollowupNotes    string          `json:"followupNotes,omitempty"`
	NextFollowupDate *time.Time      `json:"nextFollowupDate,omitempty"`
	PaymentHistory   []PaymentRecord `json:"paymentHistory"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// PaymentRecord описывает один платёж по займу.
type PaymentRecord struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
	Note   string          `json:"note,omitempty"`
	Method string          `json:"method,omitempty"`
}

// LoanDraft содержит проверенные поля нового займа.
type LoanDraft struct {
	BorrowerName     string
	Amount           decimal.Decimal
	Deadline         time.Time
	Category         LoanCategory
	Notes            string
	FollowupNotes    string
	NextFollowupDate *time.Time
}

// LoanPatch содержит изменяемые поля займа. Nil означает «не менять».
type LoanPatch struct {
	BorrowerName     *string
	Amount           *decimal.Decimal
	Deadline         *time.Time
	Category         *LoanCategory
	Notes            *string
	FollowupNotes    *string
	NextFollowupDate *time.Time
	IsRepaid         *bool
}

// Clone возвращает копию займа с независимой историей платежей.
func (l Loan) Clone() Loan {
	c := l
	c.PaymentHistory = make([]PaymentRecord, len(l.PaymentHistory))
	copy(c.PaymentHistory, l.PaymentHistory)
	if l.NextFollowupDate != nil {
		d := *l.NextFollowupDate
		c.NextFollowupDate = &d
	}
	return c
}
