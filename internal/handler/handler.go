// Package handler содержит HTTP-обработчики API досок целей и займов.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/eltiw/internal/engine"
	"github.com/mmeshcher/eltiw/internal/middleware"
	"github.com/mmeshcher/eltiw/internal/model"
	"github.com/mmeshcher/eltiw/internal/notify"
	"github.com/mmeshcher/eltiw/internal/repository"
	"github.com/mmeshcher/eltiw/internal/service"
	"github.com/mmeshcher/eltiw/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Now() time.Time

	CreateBoard(ctx context.Context) (string, error)
	DeleteBoard(ctx context.Context, boardID string) error
	State(ctx context.Context, boardID string) (model.State, error)
	ClearData(ctx context.Context, boardID string) (model.State, error)
	LoadSampleData(ctx context.Context, boardID string) (model.State, error)

	AddGoal(ctx context.Context, boardID string, in validation.GoalInput) (model.Goal, error)
	UpdateGoal(ctx context.Context, boardID, goalID string, in validation.GoalPatchInput) (model.Goal, error)
	DeleteGoal(ctx context.Context, boardID, goalID string) error
	AddProgress(ctx context.Context, boardID, goalID, amount, note string) (model.Goal, error)
	ToggleGoalCompletion(ctx context.Context, boardID, goalID string) (model.Goal, error)
	Goal(ctx context.Context, boardID, goalID string) (service.GoalView, error)
	QueryGoals(ctx context.Context, boardID string, q engine.GoalQuery) ([]service.GoalView, error)
	GoalStats(ctx context.Context, boardID string) (engine.GoalStats, error)

	AddLoan(ctx context.Context, boardID string, in validation.LoanInput) (model.Loan, error)
	UpdateLoan(ctx context.Context, boardID, loanID string, in validation.LoanPatchInput) (model.Loan, error)
	DeleteLoan(ctx context.Context, boardID, loanID string) error
	AddPayment(ctx context.Context, boardID, loanID string, in service.PaymentRequest) (model.Loan, error)
	ToggleLoanRepaid(ctx context.Context, boardID, loanID string) (model.Loan, error)
	Loan(ctx context.Context, boardID, loanID string) (service.LoanView, error)
	QueryLoans(ctx context.Context, boardID string, q engine.LoanQuery) ([]service.LoanView, error)
	LoanStats(ctx context.Context, boardID string) (engine.LoanStats, error)

	Dashboard(ctx context.Context, boardID string) (service.Dashboard, error)
	ShareLink(ctx context.Context, boardID string) (service.Share, error)
	ImportSlug(ctx context.Context, slug string) (string, model.State, error)
	SendSnapshot(ctx context.Context, boardID, recipient, message string) (string, error)
}

// Handler реализует HTTP-обработчики API.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError отвечает кодом, соответствующим ошибке. Неизвестные ошибки журналируются как 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, validation.ErrValidation):
		resp := errorResponse{Error: validation.ErrValidation.Error(), Fields: make(map[string]string)}
		for _, f := range validation.Fields(err) {
			resp.Fields[f.Field] = f.Message
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, engine.ErrAmountInvalid):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, engine.ErrPaymentExceedsBalance):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrRecordNotFound), errors.Is(err, repository.ErrBoardNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, notify.ErrNotConfigured):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error: "Email service not configured. Please set RESEND_API_KEY environment variable.",
		})
	case errors.Is(err, notify.ErrInvalidSnapshot):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, context.Canceled):
		// Клиент ушёл, отвечать некому.
	default:
		boardID, _ := middleware.GetBoardIDFromContext(r.Context())
		h.logger.Error(op+" error", zap.Error(err), zap.String("board", boardID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) now() time.Time {
	return h.service.Now()
}

// boardID достаёт идентификатор доски, положенный AuthMiddleware.
func (h *Handler) boardID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.GetBoardIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	}
	return id, ok
}

// maxBodySize ограничивает тело запроса. Ссылка импорта с максимальным состоянием в него помещается.
const maxBodySize = 16 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
			return false
		}
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}
	return true
}

// amount принимает сумму как JSON-число или строку.
type amount string

func (a *amount) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*a = amount(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*a = amount(s)
	return nil
}

func (a *amount) ptr() *string {
	if a == nil {
		return nil
	}
	s := string(*a)
	return &s
}

type metaResponse struct {
	GoalCategories map[model.GoalCategory]model.CategoryInfo `json:"goalCategories"`
	LoanCategories map[model.LoanCategory]model.CategoryInfo `json:"loanCategories"`
	PaymentMethods []string                                  `json:"paymentMethods"`
}

// Meta возвращает справочники категорий и способов оплаты.
func (h *Handler) Meta(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metaResponse{
		GoalCategories: model.GoalCategories(),
		LoanCategories: model.LoanCategories(),
		PaymentMethods: model.PaymentMethods(),
	})
}
