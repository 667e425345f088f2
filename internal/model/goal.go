package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goal описывает накопительную цель с историей пополнений.
type Goal struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Cost        decimal.Decimal `json:"cost"`
	TargetDate  time.Time       `json:"targetDate"`
	Category    GoalCategory    `json:"category"`
	IsCompleted bool            `json:"isCompleted"`
	Progress    []ProgressEntry `json:"progress"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ProgressEntry описывает одно пополнение цели. Дата выставляется при создании.
type ProgressEntry struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note,omitempty"`
	Date   time.Time       `json:"date"`
}

// GoalDraft содержит проверенные поля новой цели.
type GoalDraft struct {
	Name        string
	Description string
	Cost        decimal.Decimal
	TargetDate  time.Time
	Category    GoalCategory
}

// GoalPatch содержит изменяемые поля цели. Nil означает «не менять».
type GoalPatch struct {
	Name        *string
	Description *string
	Cost        *decimal.Decimal
	TargetDate  *time.Time
	Category    *GoalCategory
	IsCompleted *bool
}

// Clone возвращает копию цели с независимым срезом пополнений.
func (g Goal) Clone() Goal {
	c := g
	c.Progress = make([]ProgressEntry, len(g.Progress))
	copy(c.Progress, g.Progress)
	return c
}
