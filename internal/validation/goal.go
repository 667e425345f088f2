package validation

import (
	"errors"
	"strings"
	"time"

	"github.com/mmeshcher/eltiw/internal/model"
)

// GoalInput содержит сырые поля формы цели.
type GoalInput struct {
	Name        string
	Description string
	Cost        string
	TargetDate  string
	Category    string
}

// GoalPatchInput содержит сырые поля изменения цели. Nil означает «поле не передано».
type GoalPatchInput struct {
	Name        *string
	Description *string
	Cost        *string
	TargetDate  *string
	Category    *string
	IsCompleted *bool
}

// ValidateGoalInput проверяет новую цель. Срок должен быть не раньше завтрашнего дня
// относительно now; неизвестная категория отклоняется, пустая заменяется на other.
func ValidateGoalInput(in GoalInput, now time.Time) (model.GoalDraft, error) {
	var errs []error
	draft := model.GoalDraft{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
	}

	if draft.Name == "" {
		errs = append(errs, fieldError("name", "is required"))
	}

	cost, err := positiveAmount("cost", in.Cost)
	if err != nil {
		errs = append(errs, err)
	}
	draft.Cost = cost

	target, err := ParseDate(in.TargetDate, now.Location())
	switch {
	case err != nil:
		errs = append(errs, fieldError("targetDate", "must be a valid date"))
	case !startOfDay(target.In(now.Location())).After(startOfDay(now)):
		errs = append(errs, fieldError("targetDate", "must be tomorrow or later"))
	}
	draft.TargetDate = target

	category, err := goalCategory(in.Category)
	if err != nil {
		errs = append(errs, err)
	}
	draft.Category = category

	if len(errs) > 0 {
		return model.GoalDraft{}, errors.Join(errs...)
	}
	return draft, nil
}

// ValidateGoalPatch проверяет только переданные поля. Срок в изменении должен лишь разбираться.
func ValidateGoalPatch(in GoalPatchInput, loc *time.Location) (model.GoalPatch, error) {
	var (
		errs  []error
		patch model.GoalPatch
	)

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			errs = append(errs, fieldError("name", "is required"))
		}
		patch.Name = &name
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		patch.Description = &desc
	}
	if in.Cost != nil {
		cost, err := positiveAmount("cost", *in.Cost)
		if err != nil {
			errs = append(errs, err)
		}
		patch.Cost = &cost
	}
	if in.TargetDate != nil {
		target, err := ParseDate(*in.TargetDate, loc)
		if err != nil {
			errs = append(errs, fieldError("targetDate", "must be a valid date"))
		}
		patch.TargetDate = &target
	}
	if in.Category != nil {
		category, err := goalCategory(*in.Category)
		if err != nil {
			errs = append(errs, err)
		}
		patch.Category = &category
	}
	patch.IsCompleted = in.IsCompleted

	if len(errs) > 0 {
		return model.GoalPatch{}, errors.Join(errs...)
	}
	return patch, nil
}

func goalCategory(raw string) (model.GoalCategory, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return model.GoalCategoryOther, nil
	}
	c := model.GoalCategory(raw)
	if !c.Valid() {
		return model.GoalCategoryOther, fieldError("category", "unknown category "+raw)
	}
	return c, nil
}
