package model

import "maps"

// GoalCategory задаёт категорию цели из закрытого перечня.
type GoalCategory string

const (
	GoalCategoryElectronics   GoalCategory = "electronics"
	GoalCategoryHome          GoalCategory = "home"
	GoalCategoryTravel        GoalCategory = "travel"
	GoalCategoryEducation     GoalCategory = "education"
	GoalCategoryHealth        GoalCategory = "health"
	GoalCategoryEntertainment GoalCategory = "entertainment"
	GoalCategoryFashion       GoalCategory = "fashion"
	GoalCategorySavings       GoalCategory = "savings"
	GoalCategoryOther         GoalCategory = "other"
)

// LoanCategory задаёт категорию займа.
type LoanCategory string

const (
	LoanCategoryPressing LoanCategory = "pressing"
	LoanCategoryPersonal LoanCategory = "personal"
	LoanCategoryOther    LoanCategory = "other"
)

// Способы оплаты, предлагаемые формой платежа.
const (
	PaymentMethodCash         = "Cash"
	PaymentMethodMPesa        = "M-Pesa"
	PaymentMethodBankTransfer = "Bank Transfer"
	PaymentMethodCheque       = "Cheque"
	PaymentMethodOther        = "Other"
)

// CategoryInfo содержит данные категории для отображения.
type CategoryInfo struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

var goalCategories = map[GoalCategory]CategoryInfo{
	GoalCategoryElectronics:   {Label: "Electronics", Icon: "💻"},
	GoalCategoryHome:          {Label: "Home & Garden", Icon: "🏠"},
	GoalCategoryTravel:        {Label: "Travel", Icon: "✈️"},
	GoalCategoryEducation:     {Label: "Education", Icon: "📚"},
	GoalCategoryHealth:        {Label: "Health & Fitness", Icon: "🏥"},
	GoalCategoryEntertainment: {Label: "Entertainment", Icon: "🎮"},
	GoalCategoryFashion:       {Label: "Fashion", Icon: "👕"},
	GoalCategorySavings:       {Label: "Savings", Icon: "💰"},
	GoalCategoryOther:         {Label: "Other", Icon: "📦"},
}

var loanCategories = map[LoanCategory]CategoryInfo{
	LoanCategoryPressing: {Label: "Pressing Loans", Icon: "🚨"},
	LoanCategoryPersonal: {Label: "Personal Loans", Icon: "👤"},
	LoanCategoryOther:    {Label: "Other Loans", Icon: "📋"},
}

// PaymentMethods возвращает способы оплаты в порядке отображения.
func PaymentMethods() []string {
	return []string{
		PaymentMethodCash,
		PaymentMethodMPesa,
		PaymentMethodBankTransfer,
		PaymentMethodCheque,
		PaymentMethodOther,
	}
}

// Valid сообщает, входит ли категория в закрытый перечень.
func (c GoalCategory) Valid() bool {
	_, ok := goalCategories[c]
	return ok
}

// Valid сообщает, входит ли категория в закрытый перечень.
func (c LoanCategory) Valid() bool {
	_, ok := loanCategories[c]
	return ok
}

// GoalCategoryInfo возвращает подпись и иконку категории цели.
func GoalCategoryInfo(c GoalCategory) (CategoryInfo, bool) {
	info, ok := goalCategories[c]
	return info, ok
}

// LoanCategoryInfo возвращает подпись и иконку категории займа.
func LoanCategoryInfo(c LoanCategory) (CategoryInfo, bool) {
	info, ok := loanCategories[c]
	return info, ok
}

// GoalCategories возвращает копию таблицы категорий целей.
func GoalCategories() map[GoalCategory]CategoryInfo {
	return maps.Clone(goalCategories)
}

// LoanCategories возвращает копию таблицы категорий займов.
func LoanCategories() map[LoanCategory]CategoryInfo {
	return maps.Clone(loanCategories)
}
