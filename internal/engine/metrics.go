package engine

import (
	"math"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/eltiw/internal/model"
)

const (
	day = 24 * time.Hour
	// Средняя длина месяца, 30.44 дня.
	averageMonth = time.Duration(30.44 * float64(day))

	// DefaultUrgentThresholdDays задаёт горизонт «срочных» целей по умолчанию.
	DefaultUrgentThresholdDays = 30
	// DefaultRecentActivityLimit ограничивает число последних пополнений на дашборде.
	DefaultRecentActivityLimit = 5
)

var hundred = decimal.NewFromInt(100)

// GoalCalculations содержит производные показатели одной цели.
type GoalCalculations struct {
	TotalSaved         decimal.Decimal `json:"totalSaved"`
	RemainingAmount    decimal.Decimal `json:"remainingAmount"`
	ProgressPercentage float64         `json:"progressPercentage"`
	MonthsRemaining    int             `json:"monthsRemaining"`
	MonthlyNeeded      decimal.Decimal `json:"monthlyNeeded"`
	IsOverdue          bool            `json:"isOverdue"`
	DaysRemaining      int             `json:"daysRemaining"`
}

// GoalStats содержит сводку по коллекции целей.
type GoalStats struct {
	TotalGoals           int             `json:"totalGoals"`
	CompletedGoals       int             `json:"completedGoals"`
	OverdueGoals         int             `json:"overdueGoals"`
	TotalTargetAmount    decimal.Decimal `json:"totalTargetAmount"`
	TotalSaved           decimal.Decimal `json:"totalSaved"`
	RemainingAmount      decimal.Decimal `json:"remainingAmount"`
	OverallProgress      float64         `json:"overallProgress"`
	MonthlySavingsNeeded decimal.Decimal `json:"monthlySavingsNeeded"`
}

// Activity описывает пополнение цели в ленте последних действий.
type Activity struct {
	model.ProgressEntry
	GoalID    string `json:"goalId"`
	GoalTitle string `json:"goalTitle"`
}

// TotalSaved возвращает сумму всех пополнений цели.
func TotalSaved(g model.Goal) decimal.Decimal {
	total := decimal.Zero
	for _, p := range g.Progress {
		total = total.Add(p.Amount)
	}
	return total
}

// ProgressPercent возвращает процент накопленного от стоимости (0 при нулевой стоимости).
func ProgressPercent(g model.Goal) float64 {
	return percent(TotalSaved(g), g.Cost)
}

// Remaining возвращает сколько осталось накопить, не меньше нуля.
func Remaining(g model.Goal) decimal.Decimal {
	return decimal.Max(decimal.Zero, g.Cost.Sub(TotalSaved(g)))
}

// DaysRemaining возвращает число дней до срока с округлением вверх. Отрицательное значение означает просрочку.
func DaysRemaining(g model.Goal, now time.Time) int {
	return ceilDays(g.TargetDate.Sub(now))
}

// IsOverdue сообщает, что цель не выполнена и срок прошёл.
func IsOverdue(g model.Goal, now time.Time) bool {
	return !g.IsCompleted && now.After(g.TargetDate)
}

// MonthsRemaining возвращает число месяцев до срока, не меньше одного, чтобы ежемесячный
// взнос для просроченной цели был равен всему остатку.
func MonthsRemaining(g model.Goal, now time.Time) int {
	months := int(math.Ceil(float64(g.TargetDate.Sub(now)) / float64(averageMonth)))
	return max(1, months)
}

// MonthlyNeeded возвращает ежемесячный взнос для достижения цели к сроку.
func MonthlyNeeded(g model.Goal, now time.Time) decimal.Decimal {
	if g.IsCompleted {
		return decimal.Zero
	}
	months := decimal.NewFromInt(int64(MonthsRemaining(g, now)))
	return Remaining(g).DivRound(months, 2)
}

// Calculate собирает все производные показатели цели.
func Calculate(g model.Goal, now time.Time) GoalCalculations {
	return GoalCalculations{
		TotalSaved:         TotalSaved(g),
		RemainingAmount:    Remaining(g),
		ProgressPercentage: ProgressPercent(g),
		MonthsRemaining:    MonthsRemaining(g, now),
		MonthlyNeeded:      MonthlyNeeded(g, now),
		IsOverdue:          IsOverdue(g, now),
		DaysRemaining:      DaysRemaining(g, now),
	}
}

// TotalSavedAll возвращает накопленное по всем целям.
func TotalSavedAll(goals []model.Goal) decimal.Decimal {
	total := decimal.Zero
	for _, g := range goals {
		total = total.Add(TotalSaved(g))
	}
	return total
}

// TotalTargetAll возвращает сумму стоимостей всех целей.
func TotalTargetAll(goals []model.Goal) decimal.Decimal {
	total := decimal.Zero
	for _, g := range goals {
		total = total.Add(g.Cost)
	}
	return total
}

// OverallProgress возвращает общий процент накопления; 0 для пустой коллекции.
func OverallProgress(goals []model.Goal) float64 {
	return percent(TotalSavedAll(goals), TotalTargetAll(goals))
}

// CompletedGoals возвращает выполненные цели.
func CompletedGoals(goals []model.Goal) []model.Goal {
	return filterGoals(goals, func(g model.Goal) bool { return g.IsCompleted })
}

// OverdueGoals возвращает просроченные цели.
func OverdueGoals(goals []model.Goal, now time.Time) []model.Goal {
	return filterGoals(goals, func(g model.Goal) bool { return IsOverdue(g, now) })
}

// IsUrgent сообщает, что до срока невыполненной цели осталось от 1 до thresholdDays дней.
func IsUrgent(g model.Goal, now time.Time, thresholdDays int) bool {
	if g.IsCompleted {
		return false
	}
	days := DaysRemaining(g, now)
	return days > 0 && days <= thresholdDays
}

// UrgentGoals возвращает срочные цели, отсортированные по сроку.
func UrgentGoals(goals []model.Goal, now time.Time, thresholdDays int) []model.Goal {
	res := filterGoals(goals, func(g model.Goal) bool { return IsUrgent(g, now, thresholdDays) })
	slices.SortStableFunc(res, func(a, b model.Goal) int {
		return a.TargetDate.Compare(b.TargetDate)
	})
	return res
}

// MonthlySavingsNeeded суммирует ежемесячные взносы по активным целям.
func MonthlySavingsNeeded(goals []model.Goal, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, g := range goals {
		total = total.Add(MonthlyNeeded(g, now))
	}
	return total
}

// Stats собирает сводку по коллекции целей.
func Stats(goals []model.Goal, now time.Time) GoalStats {
	saved := TotalSavedAll(goals)
	target := TotalTargetAll(goals)
	return GoalStats{
		TotalGoals:           len(goals),
		CompletedGoals:       len(CompletedGoals(goals)),
		OverdueGoals:         len(OverdueGoals(goals, now)),
		TotalTargetAmount:    target,
		TotalSaved:           saved,
		RemainingAmount:      decimal.Max(decimal.Zero, target.Sub(saved)),
		OverallProgress:      percent(saved, target),
		MonthlySavingsNeeded: MonthlySavingsNeeded(goals, now),
	}
}

// RecentActivity возвращает последние limit пополнений по всем целям, новые первыми.
func RecentActivity(goals []model.Goal, limit int) []Activity {
	var res []Activity
	for _, g := range goals {
		for _, p := range g.Progress {
			res = append(res, Activity{ProgressEntry: p, GoalID: g.ID, GoalTitle: g.Name})
		}
	}
	slices.SortStableFunc(res, func(a, b Activity) int {
		return b.Date.Compare(a.Date)
	})
	if limit >= 0 && len(res) > limit {
		res = res[:limit]
	}
	return res
}

func filterGoals(goals []model.Goal, keep func(model.Goal) bool) []model.Goal {
	res := make([]model.Goal, 0, len(goals))
	for _, g := range goals {
		if keep(g) {
			res = append(res, g)
		}
	}
	return res
}

func percent(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Mul(hundred).Div(whole).InexactFloat64()
}

func ceilDays(d time.Duration) int {
	return int(math.Ceil(d.Hours() / 24))
}
