// Package sample содержит демонстрационные цели и займы.
// Даты задаются относительно текущего момента, чтобы дашборд выглядел живым.
package sample

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/eltiw/internal/model"
)

type goalSeed struct {
	name        string
	description string
	cost        int64
	days        int
	category    model.GoalCategory
	saved       int64
	savedNote   string
}

var goalSeeds = []goalSeed{
	{name: "Fridge", description: "New refrigerator for the home", cost: 30000, days: 180, category: model.GoalCategoryHome},
	{name: "Microwave", description: "Kitchen microwave oven", cost: 8000, days: 90, category: model.GoalCategoryHome},
	{name: "TV", description: "New television for entertainment", cost: 25000, days: 240, category: model.GoalCategoryEntertainment},
	{name: "Coffee Table", description: "Living room coffee table", cost: 10000, days: 120, category: model.GoalCategoryHome},
	{name: "Boxer shorts", description: "New underwear", cost: 2000, days: 14, category: model.GoalCategoryFashion},
	{name: "Beat license uko moyoni", description: "Music production license", cost: 6000, days: 60, category: model.GoalCategoryEntertainment},
	{name: "Monitor", description: "Computer monitor for work", cost: 10000, days: 150, category: model.GoalCategoryElectronics},
	{name: "New clothes", description: "Wardrobe refresh", cost: 10000, days: 105, category: model.GoalCategoryFashion},
	{name: "Microphone", description: "Professional microphone for recording", cost: 5000, days: 75, category: model.GoalCategoryEntertainment},
	{name: "Music audio + Promo", description: "Music production and promotion materials", cost: 30000, days: 270, category: model.GoalCategoryEntertainment},
	{name: "Thermos", description: "Insulated water bottle", cost: 2000, days: 45, category: model.GoalCategoryHome},
	{name: "Powerbank", description: "Portable phone charger", cost: 2000, days: 45, category: model.GoalCategoryElectronics},
	{name: "Tripod", description: "Camera/phone tripod stand", cost: 1000, days: 25, category: model.GoalCategoryElectronics},
	{name: "JBL Tune 510 BT", description: "Wireless Bluetooth headphones", cost: 3000, days: 60, category: model.GoalCategoryElectronics},
	{name: "First car", description: "My first car purchase", cost: 500000, days: 720, category: model.GoalCategorySavings, saved: 37000, savedNote: "Initial car savings"},
}

type paymentSeed struct {
	amount  int64
	daysAgo int
	note    string
	method  string
}

type loanSeed struct {
	borrower     string
	amount       int64
	deadlineDays int
	followupDays int
	category     model.LoanCategory
	notes        string
	followup     string
	createdAgo   int
	payments     []paymentSeed
	repaid       bool
}

var loanSeeds = []loanSeed{
	{
		borrower: "Alex Johnson", amount: 15000, deadlineDays: 60, followupDays: 3, createdAgo: 40,
		category: model.LoanCategoryPersonal, notes: "For emergency car repairs",
		followup: "Promised to pay 5K by end of month. Very reliable.",
		payments: []paymentSeed{{amount: 5000, daysAgo: 25, note: "First payment - on time", method: model.PaymentMethodMPesa}},
	},
	{
		borrower: "Sarah Mwangi", amount: 25000, deadlineDays: 85, followupDays: 30, createdAgo: 30,
		category: model.LoanCategoryPressing, notes: "Business loan for shop inventory",
		followup: "Check progress mid-March. Business doing well.",
	},
	{
		borrower: "Mike Ochieng", amount: 8000, deadlineDays: -10, createdAgo: 35, repaid: true,
		category: model.LoanCategoryPersonal, notes: "School fees for daughter",
		followup: "Fully repaid ahead of schedule! 🎉",
		payments: []paymentSeed{
			{amount: 3000, daysAgo: 20, note: "Partial payment", method: model.PaymentMethodBankTransfer},
			{amount: 5000, daysAgo: 15, note: "Full settlement - early!", method: model.PaymentMethodCash},
		},
	},
	{
		borrower: "Grace Njeri", amount: 12000, deadlineDays: 125, followupDays: 14, createdAgo: 33,
		category: model.LoanCategoryOther, notes: "Medical bills for mother",
		followup: "Making steady payments. Very grateful.",
		payments: []paymentSeed{
			{amount: 2000, daysAgo: 27, note: "First installment", method: model.PaymentMethodMPesa},
			{amount: 2000, daysAgo: 9, note: "Monthly payment", method: model.PaymentMethodMPesa},
		},
	},
	{
		borrower: "Kevin Mutua", amount: 30000, deadlineDays: 165, followupDays: 18, createdAgo: 45,
		category: model.LoanCategoryPressing, notes: "Business expansion loan - high priority",
		followup: "Business growing well. Agreed on 10K monthly payments.",
		payments: []paymentSeed{{amount: 10000, daysAgo: 13, note: "First monthly payment", method: model.PaymentMethodBankTransfer}},
	},
	{
		borrower: "Lucy Wanjiku", amount: 6000, deadlineDays: 5, followupDays: -2, createdAgo: 25,
		category: model.LoanCategoryPersonal, notes: "Birthday party expenses",
		followup: "Casual friend - follow up gently.",
		payments: []paymentSeed{{amount: 1500, daysAgo: 4, note: "Small payment", method: model.PaymentMethodCash}},
	},
	{
		borrower: "David Kiprotich", amount: 50000, deadlineDays: 210, followupDays: 45, createdAgo: 20,
		category: model.LoanCategoryPressing, notes: "Major equipment purchase for farm",
		followup: "Harvest season in July. Payment expected then.",
	},
}

// Goals возвращает демонстрационные цели относительно момента now.
func Goals(now time.Time) []model.Goal {
	now = now.UTC()
	created := now.AddDate(0, 0, -30)
	today := startOfDay(now)

	goals := make([]model.Goal, 0, len(goalSeeds))
	for i, s := range goalSeeds {
		g := model.Goal{
			ID:          fmt.Sprintf("goal-%d", i+1),
			Name:        s.name,
			Description: s.description,
			Cost:        decimal.NewFromInt(s.cost),
			TargetDate:  today.AddDate(0, 0, s.days),
			Category:    s.category,
			Progress:    []model.ProgressEntry{},
			CreatedAt:   created,
			UpdatedAt:   created,
		}
		if s.saved > 0 {
			g.Progress = append(g.Progress, model.ProgressEntry{
				ID:     fmt.Sprintf("progress-goal-%d-1", i+1),
				Amount: decimal.NewFromInt(s.saved),
				Note:   s.savedNote,
				Date:   created,
			})
		}
		goals = append(goals, g)
	}
	return goals
}

// Loans возвращает демонстрационные займы относительно момента now.
func Loans(now time.Time) []model.Loan {
	now = now.UTC()
	today := startOfDay(now)

	loans := make([]model.Loan, 0, len(loanSeeds))
	for i, s := range loanSeeds {
		created := now.AddDate(0, 0, -s.createdAgo)
		l := model.Loan{
			ID:             fmt.Sprintf("loan-%d", i+1),
			BorrowerName:   s.borrower,
			Amount:         decimal.NewFromInt(s.amount),
			AmountPaid:     decimal.Zero,
			Deadline:       today.AddDate(0, 0, s.deadlineDays),
			Category:       s.category,
			Notes:          s.notes,
			FollowupNotes:  s.followup,
			PaymentHistory: []model.PaymentRecord{},
			CreatedAt:      created,
			UpdatedAt:      created,
		}
		if s.followupDays != 0 && !s.repaid {
			next := today.AddDate(0, 0, s.followupDays)
			l.NextFollowupDate = &next
		}
		for j, p := range s.payments {
			date := now.AddDate(0, 0, -p.daysAgo)
			l.PaymentHistory = append(l.PaymentHistory, model.PaymentRecord{
				ID:     fmt.Sprintf("payment-loan-%d-%d", i+1, j+1),
				Amount: decimal.NewFromInt(p.amount),
				Date:   date,
				Note:   p.note,
				Method: p.method,
			})
			l.AmountPaid = l.AmountPaid.Add(decimal.NewFromInt(p.amount))
			l.UpdatedAt = date
		}
		l.IsRepaid = s.repaid || l.AmountPaid.GreaterThanOrEqual(l.Amount)
		loans = append(loans, l)
	}
	return loans
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
