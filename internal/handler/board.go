package handler

import (
	"errors"
	"net/http"

	"github.com/mmeshcher/eltiw/internal/migration"
	"github.com/mmeshcher/eltiw/internal/model"
	"github.com/mmeshcher/eltiw/internal/statecodec"
)

type boardResponse struct {
	BoardID string `json:"boardId"`
}

// CreateBoard создаёт доску и выдаёт cookie доступа к ней.
func (h *Handler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	id, err := h.service.CreateBoard(r.Context())
	if err != nil {
		h.writeError(w, r, "create board", err)
		return
	}

	h.authMiddleware.SetBoardCookie(w, id)
	writeJSON(w, http.StatusCreated, boardResponse{BoardID: id})
}

// DeleteBoard удаляет текущую доску и сбрасывает cookie.
func (h *Handler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteBoard(r.Context(), boardID); err != nil {
		h.writeError(w, r, "delete board", err)
		return
	}

	h.authMiddleware.ClearBoardCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// GetBoard возвращает полное состояние текущей доски.
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	state, err := h.service.State(r.Context(), boardID)
	if err != nil {
		h.writeError(w, r, "get board", err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// ClearData удаляет все цели и займы текущей доски.
func (h *Handler) ClearData(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	state, err := h.service.ClearData(r.Context(), boardID)
	if err != nil {
		h.writeError(w, r, "clear data", err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// LoadSampleData заполняет пустые коллекции доски демонстрационными записями.
func (h *Handler) LoadSampleData(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	state, err := h.service.LoadSampleData(r.Context(), boardID)
	if err != nil {
		h.writeError(w, r, "load sample data", err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// GetDashboard возвращает сводку по доске.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	d, err := h.service.Dashboard(r.Context(), boardID)
	if err != nil {
		h.writeError(w, r, "get dashboard", err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// GetShareLink возвращает ссылку со снимком доски.
func (h *Handler) GetShareLink(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	share, err := h.service.ShareLink(r.Context(), boardID)
	if err != nil {
		h.writeError(w, r, "share link", err)
		return
	}

	writeJSON(w, http.StatusOK, share)
}

type importRequest struct {
	Slug string `json:"slug"`
}

type importResponse struct {
	BoardID string      `json:"boardId"`
	State   model.State `json:"state"`
}

// ImportBoard создаёт новую доску из ссылки и выдаёт cookie доступа к ней.
func (h *Handler) ImportBoard(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Slug == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	id, state, err := h.service.ImportSlug(r.Context(), req.Slug)
	if err != nil {
		if errors.Is(err, statecodec.ErrCorrupted) ||
			errors.Is(err, statecodec.ErrDecrypt) ||
			errors.Is(err, statecodec.ErrPassphraseRequired) ||
			errors.Is(err, migration.ErrMigrationFailed) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		h.writeError(w, r, "import board", err)
		return
	}

	h.authMiddleware.SetBoardCookie(w, id)
	writeJSON(w, http.StatusCreated, importResponse{BoardID: id, State: state})
}

type snapshotRequest struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

type snapshotResponse struct {
	Success bool   `json:"success"`
	EmailID string `json:"emailId"`
	Message string `json:"message"`
}

// SendSnapshot отправляет ссылку на доску по почте.
func (h *Handler) SendSnapshot(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.boardID(w, r)
	if !ok {
		return
	}

	var req snapshotRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.service.SendSnapshot(r.Context(), boardID, req.Email, req.Message)
	if err != nil {
		h.writeError(w, r, "send snapshot", err)
		return
	}

	writeJSON(w, http.StatusOK, snapshotResponse{
		Success: true,
		EmailID: id,
		Message: "Goals snapshot sent successfully!",
	})
}
