package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmeshcher/eltiw/internal/engine"
	"github.com/mmeshcher/eltiw/internal/model"
	"github.com/mmeshcher/eltiw/internal/validation"
)

// AddGoal проверяет и добавляет цель. Новая цель становится первой в коллекции.
func (s *Service) AddGoal(ctx context.Context, boardID string, in validation.GoalInput) (model.Goal, error) {
	draft, err := validation.ValidateGoalInput(in, s.engine.Now())
	if err != nil {
		return model.Goal{}, err
	}

	state, err := s.update(ctx, boardID, func(st model.State) (model.State, error) {
		st.Goals = s.engine.AddGoal(st.Goals, draft)
		return st, nil
	})
	if err != nil {
		return model.Goal{}, err
	}
	return state.Goals[0], nil
}

// UpdateGoal применяет к цели переданные поля.
func (s *Service) UpdateGoal(ctx context.Context, boardID, goalID string, in validation.GoalPatchInput) (model.Goal, error) {
	patch, err := validation.ValidateGoalPatch(in, s.engine.Now().Location())
	if err != nil {
		return model.Goal{}, err
	}

	return s.updateGoal(ctx, boardID, goalID, func(goals []model.Goal) ([]model.Goal, error) {
		return s.engine.UpdateGoal(goals, goalID, patch), nil
	})
}

// DeleteGoal удаляет цель. Повторное удаление ничего не меняет и не считается ошибкой.
func (s *Service) DeleteGoal(ctx context.Context, boardID, goalID string) error {
	_, err := s.update(ctx, boardID, func(st model.State) (model.State, error) {
		if _, ok := engine.GoalByID(st.Goals, goalID); !ok {
			return st, errUnchanged
		}
		st.Goals = s.engine.DeleteGoal(st.Goals, goalID)
		return st, nil
	})
	return err
}

// AddProgress пополняет цель на amount. Цель отмечается выполненной, когда накоплено не меньше стоимости.
func (s *Service) AddProgress(ctx context.Context, boardID, goalID, amount, note string) (model.Goal, error) {
	value, err := validation.ParseAmount(amount)
	if err != nil {
		return model.Goal{}, fmt.Errorf("%w: %v", engine.ErrAmountInvalid, err)
	}

	in := engine.ProgressInput{Amount: value, Note: strings.TrimSpace(note)}
	return s.updateGoal(ctx, boardID, goalID, func(goals []model.Goal) ([]model.Goal, error) {
		return s.engine.AddProgress(goals, goalID, in)
	})
}

// ToggleGoalCompletion вручную переключает признак выполнения цели.
func (s *Service) ToggleGoalCompletion(ctx context.Context, boardID, goalID string) (model.Goal, error) {
	return s.updateGoal(ctx, boardID, goalID, func(goals []model.Goal) ([]model.Goal, error) {
		return s.engine.ToggleGoalCompletion(goals, goalID), nil
	})
}

// Goal возвращает цель по идентификатору вместе с расчётами.
func (s *Service) Goal(ctx context.Context, boardID, goalID string) (GoalView, error) {
	state, err := s.load(ctx, boardID)
	if err != nil {
		return GoalView{}, err
	}
	g, ok := engine.GoalByID(state.Goals, goalID)
	if !ok {
		return GoalView{}, fmt.Errorf("%w: goal %s", ErrRecordNotFound, goalID)
	}
	return NewGoalView(g, s.engine.Now()), nil
}

func (s *Service) updateGoal(ctx context.Context, boardID, goalID string, fn func([]model.Goal) ([]model.Goal, error)) (model.Goal, error) {
	state, err := s.update(ctx, boardID, func(st model.State) (model.State, error) {
		if _, ok := engine.GoalByID(st.Goals, goalID); !ok {
			return st, fmt.Errorf("%w: goal %s", ErrRecordNotFound, goalID)
		}
		goals, err := fn(st.Goals)
		if err != nil {
			return st, err
		}
		st.Goals = goals
		return st, nil
	})
	if err != nil {
		return model.Goal{}, err
	}

	g, _ := engine.GoalByID(state.Goals, goalID)
	return g, nil
}
