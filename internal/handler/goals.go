package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/eltiw/internal/engine"
	"github.com/mmeshcher/eltiw/internal/service"
	"github.com/mmeshcher/eltiw/internal/validation"
)

type goalRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Cost        amount `json:"cost"`
	TargetDate  string `json:"targetDate"`
	Category    string `json:"category"`
}

type goalPatchRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Cost        *amount `json:"cost"`
	TargetDate  *string `json:"targetDate"`
	Category    *string `json:"category"`
	IsCompleted *bool   `json:"isCompleted"`
}

type progressRequest struct {
	Amount amount `json:"amount"`
	Note   string `json:"note"`
}

// ListGoals возвращает цели доски с фильтрами search, category, status и сортировкой sortBy/order.
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	query, err := engine.ParseGoalQuery(q.Get("search"), q.Get("category"), q.Get("status"), q.Get("sortBy"), q.Get("order"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	goals, err := h.service.QueryGoals(r.Context(), boardID, query)
	if err != nil {
		h.writeError(w, r, "list goals", err)
		return
	}

	writeJSON(w, http.StatusOK, goals)
}

// CreateGoal добавляет цель.
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	var req goalRequest
	if !decodeBody(w, r, &req) {
		return
	}

	g, err := h.service.AddGoal(r.Context(), boardID, validation.GoalInput{
		Name:        req.Name,
		Description: req.Description,
		Cost:        string(req.Cost),
		TargetDate:  req.TargetDate,
		Category:    req.Category,
	})
	if err != nil {
		h.writeError(w, r, "create goal", err)
		return
	}

	writeJSON(w, http.StatusCreated, service.NewGoalView(g, h.now()))
}

// GetGoal возвращает цель с расчётами.
func (h *Handler) GetGoal(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	g, err := h.service.Goal(r.Context(), boardID, chi.URLParam(r, "goalID"))
	if err != nil {
		h.writeError(w, r, "get goal", err)
		return
	}

	writeJSON(w, http.StatusOK, g)
}

// UpdateGoal изменяет переданные поля цели.
func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	var req goalPatchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	g, err := h.service.UpdateGoal(r.Context(), boardID, chi.URLParam(r, "goalID"), validation.GoalPatchInput{
		Name:        req.Name,
		Description: req.Description,
		Cost:        req.Cost.ptr(),
		TargetDate:  req.TargetDate,
		Category:    req.Category,
		IsCompleted: req.IsCompleted,
	})
	if err != nil {
		h.writeError(w, r, "update goal", err)
		return
	}

	writeJSON(w, http.StatusOK, service.NewGoalView(g, h.now()))
}

// DeleteGoal удаляет цель.
func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteGoal(r.Context(), boardID, chi.URLParam(r, "goalID")); err != nil {
		h.writeError(w, r, "delete goal", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddProgress пополняет цель.
func (h *Handler) AddProgress(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	var req progressRequest
	if !decodeBody(w, r, &req) {
		return
	}

	g, err := h.service.AddProgress(r.Context(), boardID, chi.URLParam(r, "goalID"), string(req.Amount), req.Note)
	if err != nil {
		h.writeError(w, r, "add progress", err)
		return
	}

	writeJSON(w, http.StatusOK, service.NewGoalView(g, h.now()))
}

// ToggleGoal переключает признак выполнения цели.
func (h *Handler) ToggleGoal(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	g, err := h.service.ToggleGoalCompletion(r.Context(), boardID, chi.URLParam(r, "goalID"))
	if err != nil {
		h.writeError(w, r, "toggle goal", err)
		return
	}

	writeJSON(w, http.StatusOK, service.NewGoalView(g, h.now()))
}

// GetGoalStats возвращает сводку по целям.
func (h *Handler) GetGoalStats(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	stats, err := h.service.GoalStats(r.Context(), boardID)
	if err != nil {
		h.writeError(w, r, "goal stats", err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
