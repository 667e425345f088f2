package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/eltiw/internal/engine"
	"github.com/mmeshcher/eltiw/internal/model"
)

// GoalView содержит цель вместе с производными показателями.
type GoalView struct {
	model.Goal
	Calculations engine.GoalCalculations `json:"calculations"`
	IsUrgent     bool                    `json:"isUrgent"`
}

// NewGoalView рассчитывает показатели цели на момент now.
func NewGoalView(g model.Goal, now time.Time) GoalView {
	return GoalView{
		Goal:         g,
		Calculations: engine.Calculate(g, now),
		IsUrgent:     engine.IsUrgent(g, now, engine.DefaultUrgentThresholdDays),
	}
}

// LoanView содержит займ вместе с производными показателями.
type LoanView struct {
	model.Loan
	Outstanding     decimal.Decimal   `json:"outstanding"`
	ProgressPercent float64           `json:"progressPercent"`
	DaysRemaining   int               `json:"daysRemaining"`
	IsOverdue       bool              `json:"isOverdue"`
	Status          engine.LoanStatus `json:"status"`
}

// NewLoanView рассчитывает показатели займа на момент now.
func NewLoanView(l model.Loan, now time.Time) LoanView {
	return LoanView{
		Loan:            l,
		Outstanding:     engine.Outstanding(l),
		ProgressPercent: engine.PaymentProgressPercent(l),
		DaysRemaining:   engine.LoanDaysRemaining(l, now),
		IsOverdue:       engine.IsLoanOverdue(l, now),
		Status:          engine.Status(l, now),
	}
}

// Dashboard содержит сводку для главной страницы.
type Dashboard struct {
	Goals          engine.GoalStats  `json:"goals"`
	Loans          engine.LoanStats  `json:"loans"`
	RecentActivity []engine.Activity `json:"recentActivity"`
	UrgentGoals    []GoalView        `json:"urgentGoals"`
}

// QueryGoals возвращает отфильтрованные и отсортированные цели доски.
func (s *Service) QueryGoals(ctx context.Context, boardID string, q engine.GoalQuery) ([]GoalView, error) {
	state, err := s.load(ctx, boardID)
	if err != nil {
		return nil, err
	}
	now := s.engine.Now()
	return goalViews(engine.QueryGoals(state.Goals, q, now), now), nil
}

// QueryLoans возвращает отфильтрованные и отсортированные займы доски.
func (s *Service) QueryLoans(ctx context.Context, boardID string, q engine.LoanQuery) ([]LoanView, error) {
	state, err := s.load(ctx, boardID)
	if err != nil {
		return nil, err
	}
	now := s.engine.Now()

	loans := engine.QueryLoans(state.Loans, q, now)
	res := make([]LoanView, 0, len(loans))
	for _, l := range loans {
		res = append(res, NewLoanView(l, now))
	}
	return res, nil
}

// GoalStats возвращает сводку по целям доски.
func (s *Service) GoalStats(ctx context.Context, boardID string) (engine.GoalStats, error) {
	state, err := s.load(ctx, boardID)
	if err != nil {
		return engine.GoalStats{}, err
	}
	return engine.Stats(state.Goals, s.engine.Now()), nil
}

// LoanStats возвращает сводку по займам доски.
func (s *Service) LoanStats(ctx context.Context, boardID string) (engine.LoanStats, error) {
	state, err := s.load(ctx, boardID)
	if err != nil {
		return engine.LoanStats{}, err
	}
	return engine.LoanStatistics(state.Loans, s.engine.Now()), nil
}

// Dashboard собирает сводку по целям и займам, последние пополнения и ближайшие срочные цели.
func (s *Service) Dashboard(ctx context.Context, boardID string) (Dashboard, error) {
	state, err := s.load(ctx, boardID)
	if err != nil {
		return Dashboard{}, err
	}
	now := s.engine.Now()

	urgent := engine.UrgentGoals(state.Goals, now, engine.DefaultUrgentThresholdDays)
	if len(urgent) > DashboardUrgentLimit {
		urgent = urgent[:DashboardUrgentLimit]
	}

	activity := engine.RecentActivity(state.Goals, engine.DefaultRecentActivityLimit)
	if activity == nil {
		activity = []engine.Activity{}
	}

	return Dashboard{
		Goals:          engine.Stats(state.Goals, now),
		Loans:          engine.LoanStatistics(state.Loans, now),
		RecentActivity: activity,
		UrgentGoals:    goalViews(urgent, now),
	}, nil
}

func goalViews(goals []model.Goal, now time.Time) []GoalView {
	res := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		res = append(res, NewGoalView(g, now))
	}
	return res
}
