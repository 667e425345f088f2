package migration

import (
	"github.com/mmeshcher/eltiw/internal/model"
)

// Import разбирает состояние из внешнего источника, например ссылки. Шаги миграции
// выполняются все, независимо от заявленной версии. Цели с неположительной стоимостью
// и займы с неположительной суммой отбрасываются, повторяющиеся идентификаторы заменяются.
func (m *Migrator) Import(raw []byte) (model.State, error) {
	doc, _, err := parse(raw)
	if err != nil {
		return model.State{}, err
	}
	state, err := m.run(doc, 0)
	if err != nil {
		return model.State{}, err
	}

	seen := make(map[string]bool)
	goals := make([]model.Goal, 0, len(state.Goals))
	for _, g := range state.Goals {
		if !g.Cost.IsPositive() {
			continue
		}
		g.ID = m.uniqueID(seen, g.ID)
		entries := make(map[string]bool)
		for i := range g.Progress {
			g.Progress[i].ID = m.uniqueID(entries, g.Progress[i].ID)
		}
		goals = append(goals, g)
	}
	state.Goals = goals

	seen = make(map[string]bool)
	loans := make([]model.Loan, 0, len(state.Loans))
	for _, l := range state.Loans {
		if !l.Amount.IsPositive() {
			continue
		}
		l.ID = m.uniqueID(seen, l.ID)
		entries := make(map[string]bool)
		for i := range l.PaymentHistory {
			l.PaymentHistory[i].ID = m.uniqueID(entries, l.PaymentHistory[i].ID)
		}
		loans = append(loans, l)
	}
	state.Loans = loans

	return state, nil
}

// uniqueID возвращает id, если он ещё не встречался, иначе новый идентификатор.
func (m *Migrator) uniqueID(seen map[string]bool, id string) string {
	for id == "" || seen[id] {
		id = m.newID()
	}
	seen[id] = true
	return id
}
