package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/eltiw/internal/engine"
	"github.com/mmeshcher/eltiw/internal/service"
	"github.com/mmeshcher/eltiw/internal/validation"
)

type loanRequest struct {
	BorrowerName     string `json:"borrowerName"`
	Amount           amount `json:"amount"`
	Deadline         string `json:"deadline"`
	Category         string `json:"category"`
	Notes            string `json:"notes"`
	FollowupNotes    string `json:"followupNotes"`
	NextFollowupDate string `json:"nextFollowupDate"`
}

type loanPatchRequest struct {
	BorrowerName     *string `json:"borrowerName"`
	Amount           *amount `json:"amount"`
	Deadline         *string `json:"deadline"`
	Category         *string `json:"category"`
	Notes            *string `json:"notes"`
	FollowupNotes    *string `json:"followupNotes"`
	NextFollowupDate *string `json:"nextFollowupDate"`
	IsRepaid         *bool   `json:"isRepaid"`
}

type paymentRequest struct {
	Amount amount `json:"amount"`
	Note   string `json:"note"`
	Method string `json:"method"`
}

// ListLoans возвращает займы доски с фильтрами search, category, status и сортировкой sortBy/order.
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	query, err := engine.ParseLoanQuery(q.Get("search"), q.Get("category"), q.Get("status"), q.Get("sortBy"), q.Get("order"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	loans, err := h.service.QueryLoans(r.Context(), boardID, query)
	if err != nil {
		h.writeError(w, r, "list loans", err)
		return
	}

	writeJSON(w, http.StatusOK, loans)
}

// CreateLoan добавляет займ.
func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	var req loanRequest
	if !decodeBody(w, r, &req) {
		return
	}

	l, err := h.service.AddLoan(r.Context(), boardID, validation.LoanInput{
		BorrowerName:     req.BorrowerName,
		Amount:           string(req.Amount),
		Deadline:         req.Deadline,
		Category:         req.Category,
		Notes:            req.Notes,
		FollowupNotes:    req.FollowupNotes,
		NextFollowupDate: req.NextFollowupDate,
	})
	if err != nil {
		h.writeError(w, r, "create loan", err)
		return
	}

	writeJSON(w, http.StatusCreated, service.NewLoanView(l, h.now()))
}

// GetLoan возвращает займ с расчётами.
func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	l, err := h.service.Loan(r.Context(), boardID, chi.URLParam(r, "loanID"))
	if err != nil {
		h.writeError(w, r, "get loan", err)
		return
	}

	writeJSON(w, http.StatusOK, l)
}

// UpdateLoan изменяет переданные поля займа.
func (h *Handler) UpdateLoan(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	var req loanPatchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	l, err := h.service.UpdateLoan(r.Context(), boardID, chi.URLParam(r, "loanID"), validation.LoanPatchInput{
		BorrowerName:     req.BorrowerName,
		Amount:           req.Amount.ptr(),
		Deadline:         req.Deadline,
		Category:         req.Category,
		Notes:            req.Notes,
		FollowupNotes:    req.FollowupNotes,
		NextFollowupDate: req.NextFollowupDate,
		IsRepaid:         req.IsRepaid,
	})
	if err != nil {
		h.writeError(w, r, "update loan", err)
		return
	}

	writeJSON(w, http.StatusOK, service.NewLoanView(l, h.now()))
}

// DeleteLoan удаляет займ.
func (h *Handler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteLoan(r.Context(), boardID, chi.URLParam(r, "loanID")); err != nil {
		h.writeError(w, r, "delete loan", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddPayment записывает платёж по займу.
func (h *Handler) AddPayment(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	var req paymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	l, err := h.service.AddPayment(r.Context(), boardID, chi.URLParam(r, "loanID"), service.PaymentRequest{
		Amount: string(req.Amount),
		Note:   req.Note,
		Method: req.Method,
	})
	if err != nil {
		h.writeError(w, r, "add payment", err)
		return
	}

	writeJSON(w, http.StatusOK, service.NewLoanView(l, h.now()))
}

// ToggleLoan переключает признак погашения займа.
func (h *Handler) ToggleLoan(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	l, err := h.service.ToggleLoanRepaid(r.Context(), boardID, chi.URLParam(r, "loanID"))
	if err != nil {
		h.writeError(w, r, "toggle loan", err)
		return
	}

	writeJSON(w, http.StatusOK, service.NewLoanView(l, h.now()))
}

// GetLoanStats возвращает сводку по займам.
func (h *Handler) GetLoanStats(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	stats, err := h.service.LoanStats(r.Context(), boardID)
	if err != nil {
		h.writeError(w, r, "loan stats", err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
