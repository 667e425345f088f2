package engine

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mmeshcher/eltiw/internal/model"
)

// SortOrder задаёт направление сортировки. Пустое значение означает порядок по умолчанию для ключа.
type SortOrder string

const (
	SortDefault SortOrder = ""
	SortAsc     SortOrder = "asc"
	SortDesc    SortOrder = "desc"
)

// CategoryAll отключает фильтр по категории.
const CategoryAll = "all"

// GoalStatus фильтрует цели по состоянию.
type GoalStatus string

const (
	GoalStatusAll       GoalStatus = "all"
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusOverdue   GoalStatus = "overdue"
	GoalStatusUrgent    GoalStatus = "urgent"
)

// GoalSortKey задаёт ключ сортировки целей.
type GoalSortKey string

const (
	GoalSortNone     GoalSortKey = ""
	GoalSortName     GoalSortKey = "name"
	GoalSortDeadline GoalSortKey = "deadline"
	GoalSortProgress GoalSortKey = "progress"
	GoalSortCost     GoalSortKey = "cost"
	GoalSortCreated  GoalSortKey = "created"
)

// LoanFilterStatus фильтрует займы по состоянию.
type LoanFilterStatus string

const (
	LoanFilterAll         LoanFilterStatus = "all"
	LoanFilterOutstanding LoanFilterStatus = "outstanding"
	LoanFilterRepaid      LoanFilterStatus = "repaid"
	LoanFilterOverdue     LoanFilterStatus = "overdue"
)

// LoanSortKey задаёт ключ сортировки займов.
type LoanSortKey string

const (
	LoanSortNone        LoanSortKey = ""
	LoanSortBorrower    LoanSortKey = "borrower"
	LoanSortDeadline    LoanSortKey = "deadline"
	LoanSortAmount      LoanSortKey = "amount"
	LoanSortOutstanding LoanSortKey = "outstanding"
	LoanSortProgress    LoanSortKey = "progress"
	LoanSortCreated     LoanSortKey = "created"
)

// GoalQuery содержит параметры выборки целей.
type GoalQuery struct {
	Search              string
	Category            string
	Status              GoalStatus
	SortBy              GoalSortKey
	SortOrder           SortOrder
	UrgentThresholdDays int
}

// LoanQuery содержит параметры выборки займов.
type LoanQuery struct {
	Search    string
	Category  string
	Status    LoanFilterStatus
	SortBy    LoanSortKey
	SortOrder SortOrder
}

var goalSortAliases = map[string]GoalSortKey{
	"":           GoalSortNone,
	"name":       GoalSortName,
	"deadline":   GoalSortDeadline,
	"targetdate": GoalSortDeadline,
	"progress":   GoalSortProgress,
	"cost":       GoalSortCost,
	"amount":     GoalSortCost,
	"created":    GoalSortCreated,
	"createdat":  GoalSortCreated,
}

var loanSortAliases = map[string]LoanSortKey{
	"":             LoanSortNone,
	"borrower":     LoanSortBorrower,
	"borrowername": LoanSortBorrower,
	"name":         LoanSortBorrower,
	"deadline":     LoanSortDeadline,
	"amount":       LoanSortAmount,
	"outstanding":  LoanSortOutstanding,
	"progress":     LoanSortProgress,
	"created":      LoanSortCreated,
	"createdat":    LoanSortCreated,
}

// ParseGoalQuery нормализует пользовательские параметры выборки целей.
func ParseGoalQuery(search, category, status, sortBy, order string) (GoalQuery, error) {
	q := GoalQuery{
		Search:              strings.TrimSpace(search),
		Category:            strings.ToLower(strings.TrimSpace(category)),
		UrgentThresholdDays: DefaultUrgentThresholdDays,
	}

	if q.Category != "" && q.Category != CategoryAll && !model.GoalCategory(q.Category).Valid() {
		return GoalQuery{}, fmt.Errorf("unknown goal category %q", category)
	}

	switch s := GoalStatus(strings.ToLower(strings.TrimSpace(status))); s {
	case "", GoalStatusAll:
		q.Status = GoalStatusAll
	case GoalStatusActive, GoalStatusCompleted, GoalStatusOverdue, GoalStatusUrgent:
		q.Status = s
	default:
		return GoalQuery{}, fmt.Errorf("unknown goal status %q", status)
	}

	key, ok := goalSortAliases[strings.ToLower(strings.TrimSpace(sortBy))]
	if !ok {
		return GoalQuery{}, fmt.Errorf("unknown goal sort key %q", sortBy)
	}
	q.SortBy = key

	o, err := parseSortOrder(order)
	if err != nil {
		return GoalQuery{}, err
	}
	q.SortOrder = o

	return q, nil
}

// ParseLoanQuery нормализует пользовательские параметры выборки займов.
func ParseLoanQuery(search, category, status, sortBy, order string) (LoanQuery, error) {
	q := LoanQuery{
		Search:   strings.TrimSpace(search),
		Category: strings.ToLower(strings.TrimSpace(category)),
	}

	if q.Category != "" && q.Category != CategoryAll && !model.LoanCategory(q.Category).Valid() {
		return LoanQuery{}, fmt.Errorf("unknown loan category %q", category)
	}

	switch s := LoanFilterStatus(strings.ToLower(strings.TrimSpace(status))); s {
	case "", LoanFilterAll:
		q.Status = LoanFilterAll
	case LoanFilterOutstanding, LoanFilterRepaid, LoanFilterOverdue:
		q.Status = s
	default:
		return LoanQuery{}, fmt.Errorf("unknown loan status %q", status)
	}

	key, ok := loanSortAliases[strings.ToLower(strings.TrimSpace(sortBy))]
	if !ok {
		return LoanQuery{}, fmt.Errorf("unknown loan sort key %q", sortBy)
	}
	q.SortBy = key

	o, err := parseSortOrder(order)
	if err != nil {
		return LoanQuery{}, err
	}
	q.SortOrder = o

	return q, nil
}

func parseSortOrder(order string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(order))); o {
	case SortDefault, SortAsc, SortDesc:
		return o, nil
	default:
		return SortDefault, fmt.Errorf("unknown sort order %q", order)
	}
}

// QueryGoals фильтрует и сортирует цели. Входной срез не изменяется, сортировка устойчивая.
func QueryGoals(goals []model.Goal, q GoalQuery, now time.Time) []model.Goal {
	search := strings.ToLower(q.Search)
	threshold := q.UrgentThresholdDays
	if threshold <= 0 {
		threshold = DefaultUrgentThresholdDays
	}

	res := filterGoals(goals, func(g model.Goal) bool {
		if search != "" &&
			!strings.Contains(strings.ToLower(g.Name), search) &&
			!strings.Contains(strings.ToLower(g.Description), search) {
			return false
		}
		if q.Category != "" && q.Category != CategoryAll && string(g.Category) != q.Category {
			return false
		}
		switch q.Status {
		case GoalStatusActive:
			return !g.IsCompleted
		case GoalStatusCompleted:
			return g.IsCompleted
		case GoalStatusOverdue:
			return IsOverdue(g, now)
		case GoalStatusUrgent:
			return IsUrgent(g, now, threshold)
		}
		return true
	})

	cmp, descByDefault := goalComparator(q.SortBy)
	if cmp == nil {
		return res
	}
	if desc(q.SortOrder, descByDefault) {
		asc := cmp
		cmp = func(a, b model.Goal) int { return asc(b, a) }
	}
	slices.SortStableFunc(res, cmp)
	return res
}

func goalComparator(key GoalSortKey) (func(a, b model.Goal) int, bool) {
	switch key {
	case GoalSortName:
		return func(a, b model.Goal) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}, false
	case GoalSortDeadline:
		return func(a, b model.Goal) int {
			return a.TargetDate.Compare(b.TargetDate)
		}, false
	case GoalSortProgress:
		return func(a, b model.Goal) int {
			return compareFloat(ProgressPercent(a), ProgressPercent(b))
		}, true
	case GoalSortCost:
		return func(a, b model.Goal) int {
			return a.Cost.Cmp(b.Cost)
		}, true
	case GoalSortCreated:
		return func(a, b model.Goal) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		}, false
	}
	return nil, false
}

// QueryLoans фильтрует и сортирует займы.
func QueryLoans(loans []model.Loan, q LoanQuery, now time.Time) []model.Loan {
	search := strings.ToLower(q.Search)

	res := make([]model.Loan, 0, len(loans))
	for _, l := range loans {
		if search != "" &&
			!strings.Contains(strings.ToLower(l.BorrowerName), search) &&
			!strings.Contains(strings.ToLower(l.Notes), search) &&
			!strings.Contains(strings.ToLower(l.FollowupNotes), search) {
			continue
		}
		if q.Category != "" && q.Category != CategoryAll && string(l.Category) != q.Category {
			continue
		}
		switch q.Status {
		case LoanFilterOutstanding:
			if l.IsRepaid {
				continue
			}
		case LoanFilterRepaid:
			if !l.IsRepaid {
				continue
			}
		case LoanFilterOverdue:
			if !IsLoanOverdue(l, now) {
				continue
			}
		}
		res = append(res, l)
	}

	cmp, descByDefault := loanComparator(q.SortBy)
	if cmp == nil {
		return res
	}
	if desc(q.SortOrder, descByDefault) {
		asc := cmp
		cmp = func(a, b model.Loan) int { return asc(b, a) }
	}
	slices.SortStableFunc(res, cmp)
	return res
}

func loanComparator(key LoanSortKey) (func(a, b model.Loan) int, bool) {
	switch key {
	case LoanSortBorrower:
		return func(a, b model.Loan) int {
			return strings.Compare(strings.ToLower(a.BorrowerName), strings.ToLower(b.BorrowerName))
		}, false
	case LoanSortDeadline:
		return func(a, b model.Loan) int {
			return a.Deadline.Compare(b.Deadline)
		}, false
	case LoanSortAmount:
		return func(a, b model.Loan) int {
			return a.Amount.Cmp(b.Amount)
		}, true
	case LoanSortOutstanding:
		return func(a, b model.Loan) int {
			return Outstanding(a).Cmp(Outstanding(b))
		}, true
	case LoanSortProgress:
		return func(a, b model.Loan) int {
			return compareFloat(PaymentProgressPercent(a), PaymentProgressPercent(b))
		}, true
	case LoanSortCreated:
		return func(a, b model.Loan) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		}, false
	}
	return nil, false
}

func desc(order SortOrder, descByDefault bool) bool {
	switch order {
	case SortAsc:
		return false
	case SortDesc:
		return true
	}
	return descByDefault
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
