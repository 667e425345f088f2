package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/eltiw/internal/model"
)

// UpcomingWindowDays задаёт горизонт «ближайших» сроков и напоминаний по займам.
const UpcomingWindowDays = 7

// LoanStatus описывает состояние займа для отображения.
type LoanStatus string

const (
	LoanStatusRepaid      LoanStatus = "repaid"
	LoanStatusOverdue     LoanStatus = "overdue"
	LoanStatusPartial     LoanStatus = "partial"
	LoanStatusOutstanding LoanStatus = "outstanding"
)

// LoanStats содержит сводку по коллекции займов.
type LoanStats struct {
	TotalLoans        int             `json:"totalLoans"`
	TotalLoaned       decimal.Decimal `json:"totalLoaned"`
	TotalRepaid       decimal.Decimal `json:"totalRepaid"`
	TotalOutstanding  decimal.Decimal `json:"totalOutstanding"`
	OverdueLoans      int             `json:"overdueLoans"`
	UpcomingDeadlines int             `json:"upcomingDeadlines"`
	AverageLoanAmount decimal.Decimal `json:"averageLoanAmount"`
	UpcomingFollowups int             `json:"upcomingFollowups"`
}

// Outstanding возвращает остаток долга, не меньше нуля.
func Outstanding(l model.Loan) decimal.Decimal {
	return decimal.Max(decimal.Zero, l.Amount.Sub(l.AmountPaid))
}

// PaymentProgressPercent возвращает процент выплаченного.
func PaymentProgressPercent(l model.Loan) float64 {
	return percent(l.AmountPaid, l.Amount)
}

// IsLoanOverdue сообщает, что займ не погашен и срок прошёл.
func IsLoanOverdue(l model.Loan, now time.Time) bool {
	return !l.IsRepaid && now.After(l.Deadline)
}

// LoanDaysRemaining возвращает дни до срока возврата. Отрицательное значение означает просрочку.
func LoanDaysRemaining(l model.Loan, now time.Time) int {
	return ceilDays(l.Deadline.Sub(now))
}

// Status определяет состояние займа: погашен, просрочен, частично выплачен или не выплачен.
func Status(l model.Loan, now time.Time) LoanStatus {
	switch {
	case l.IsRepaid:
		return LoanStatusRepaid
	case IsLoanOverdue(l, now):
		return LoanStatusOverdue
	case l.AmountPaid.IsPositive():
		return LoanStatusPartial
	default:
		return LoanStatusOutstanding
	}
}

// repaidAmount учитывает ручную отметку погашения: такой займ засчитывается полностью.
func repaidAmount(l model.Loan) decimal.Decimal {
	if l.IsRepaid {
		return decimal.Max(l.Amount, l.AmountPaid)
	}
	return l.AmountPaid
}

// LoanStatistics собирает сводку по займам.
func LoanStatistics(loans []model.Loan, now time.Time) LoanStats {
	stats := LoanStats{
		TotalLoans:        len(loans),
		TotalLoaned:       decimal.Zero,
		TotalRepaid:       decimal.Zero,
		TotalOutstanding:  decimal.Zero,
		AverageLoanAmount: decimal.Zero,
	}
	horizon := now.Add(UpcomingWindowDays * day)

	for _, l := range loans {
		stats.TotalLoaned = stats.TotalLoaned.Add(l.Amount)
		stats.TotalRepaid = stats.TotalRepaid.Add(repaidAmount(l))

		if l.IsRepaid {
			continue
		}
		if IsLoanOverdue(l, now) {
			stats.OverdueLoans++
		} else if !l.Deadline.After(horizon) {
			stats.UpcomingDeadlines++
		}
		if l.NextFollowupDate != nil && !l.NextFollowupDate.After(horizon) {
			stats.UpcomingFollowups++
		}
	}

	stats.TotalOutstanding = decimal.Max(decimal.Zero, stats.TotalLoaned.Sub(stats.TotalRepaid))
	if len(loans) > 0 {
		stats.AverageLoanAmount = stats.TotalLoaned.DivRound(decimal.NewFromInt(int64(len(loans))), 2)
	}
	return stats
}
