package engine

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/eltiw/internal/model"
)

// ProgressInput содержит данные нового пополнения цели.
type ProgressInput struct {
	Amount decimal.Decimal
	Note   string
}

// AddGoal создаёт цель из проверенного черновика и добавляет её в начало коллекции.
func (e *Engine) AddGoal(goals []model.Goal, draft model.GoalDraft) []model.Goal {
	now := e.Now()
	category := draft.Category
	if category == "" {
		category = model.GoalCategoryOther
	}

	goal := model.Goal{
		ID:          e.newID(),
		Name:        draft.Name,
		Description: draft.Description,
		Cost:        draft.Cost,
		TargetDate:  draft.TargetDate,
		Category:    category,
		IsCompleted: false,
		Progress:    []model.ProgressEntry{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	res := make([]model.Goal, 0, len(goals)+1)
	res = append(res, goal)
	return append(res, goals...)
}

// UpdateGoal применяет изменения к цели с указанным id. Неизвестный id не считается ошибкой,
// коллекция возвращается без изменений.
func (e *Engine) UpdateGoal(goals []model.Goal, id string, patch model.GoalPatch) []model.Goal {
	return e.mutateGoal(goals, id, func(g *model.Goal) {
		if patch.Name != nil {
			g.Name = *patch.Name
		}
		if patch.Description != nil {
			g.Description = *patch.Description
		}
		if patch.Cost != nil {
			g.Cost = *patch.Cost
		}
		if patch.TargetDate != nil {
			g.TargetDate = *patch.TargetDate
		}
		if patch.Category != nil {
			g.Category = *patch.Category
		}
		if patch.IsCompleted != nil {
			g.IsCompleted = *patch.IsCompleted
		}
	})
}

// DeleteGoal удаляет цель. Отсутствующий id игнорируется.
func (e *Engine) DeleteGoal(goals []model.Goal, id string) []model.Goal {
	if indexGoal(goals, id) < 0 {
		return goals
	}
	return slices.DeleteFunc(slices.Clone(goals), func(g model.Goal) bool {
		return g.ID == id
	})
}

// AddProgress добавляет пополнение к цели и отмечает её выполненной, когда накоплено
// не меньше стоимости. Автоматически отметка не снимается.
func (e *Engine) AddProgress(goals []model.Goal, goalID string, in ProgressInput) ([]model.Goal, error) {
	if !in.Amount.IsPositive() {
		return goals, fmt.Errorf("%w: %s", ErrAmountInvalid, in.Amount)
	}

	return e.mutateGoal(goals, goalID, func(g *model.Goal) {
		g.Progress = append(g.Progress, model.ProgressEntry{
			ID:     e.newID(),
			Amount: in.Amount,
			Note:   in.Note,
			Date:   e.Now(),
		})
		if !g.IsCompleted && TotalSaved(*g).GreaterThanOrEqual(g.Cost) {
			g.IsCompleted = true
		}
	}), nil
}

// ToggleGoalCompletion вручную переключает отметку выполнения независимо от накопленной суммы.
func (e *Engine) ToggleGoalCompletion(goals []model.Goal, id string) []model.Goal {
	return e.mutateGoal(goals, id, func(g *model.Goal) {
		g.IsCompleted = !g.IsCompleted
	})
}

// ClearGoals возвращает пустую коллекцию целей.
func (e *Engine) ClearGoals() []model.Goal {
	return []model.Goal{}
}

// GoalByID ищет цель по идентификатору.
func GoalByID(goals []model.Goal, id string) (model.Goal, bool) {
	i := indexGoal(goals, id)
	if i < 0 {
		return model.Goal{}, false
	}
	return goals[i], true
}

func (e *Engine) mutateGoal(goals []model.Goal, id string, fn func(g *model.Goal)) []model.Goal {
	i := indexGoal(goals, id)
	if i < 0 {
		return goals
	}

	res := slices.Clone(goals)
	g := res[i].Clone()
	fn(&g)
	g.UpdatedAt = e.Now()
	res[i] = g
	return res
}

func indexGoal(goals []model.Goal, id string) int {
	return slices.IndexFunc(goals, func(g model.Goal) bool {
		return g.ID == id
	})
}
