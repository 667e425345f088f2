package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/eltiw/internal/engine"
	"github.com/mmeshcher/eltiw/internal/middleware"
	"github.com/mmeshcher/eltiw/internal/migration"
	"github.com/mmeshcher/eltiw/internal/model"
	"github.com/mmeshcher/eltiw/internal/notify"
	"github.com/mmeshcher/eltiw/internal/repository"
	"github.com/mmeshcher/eltiw/internal/service"
	"github.com/mmeshcher/eltiw/internal/statecodec"
)

var testNow = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

type memoryRepo struct {
	mu     sync.Mutex
	boards map[string][]byte
}

func (m *memoryRepo) Close() error { return nil }

func (m *memoryRepo) CreateBoard(ctx context.Context, id string, state []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boards[id] = state
	return nil
}

func (m *memoryRepo) LoadBoard(ctx context.Context, id string) (*repository.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.boards[id]
	if !ok {
		return nil, repository.ErrBoardNotFound
	}
	return &repository.Board{ID: id, State: state}, nil
}

func (m *memoryRepo) SaveBoard(ctx context.Context, id string, state []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.boards[id]; !ok {
		return repository.ErrBoardNotFound
	}
	m.boards[id] = state
	return nil
}

func (m *memoryRepo) DeleteBoard(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.boards[id]; !ok {
		return repository.ErrBoardNotFound
	}
	delete(m.boards, id)
	return nil
}

type stubNotifier struct {
	err error
}

func (s *stubNotifier) SendSnapshot(ctx context.Context, snap notify.Snapshot) (string, error) {
	return "email-1", s.err
}

// failingService отвечает ошибкой на чтение доски.
type failingService struct {
	Service
	err error
}

func (f *failingService) State(ctx context.Context, boardID string) (model.State, error) {
	return model.State{}, f.err
}

func newTestService(t *testing.T, notifier service.Notifier) *service.Service {
	t.Helper()

	clock := func() time.Time { return testNow }
	n := 0
	eng := engine.New(
		engine.WithClock(clock),
		engine.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	codec, err := statecodec.New(statecodec.Options{}, migration.New(migration.WithClock(clock)))
	require.NoError(t, err)

	opts := []service.Option{service.WithEngine(eng), service.WithPublicURL("https://eltiw.test")}
	if notifier != nil {
		opts = append(opts, service.WithNotifier(notifier))
	}
	return service.NewService(&memoryRepo{boards: make(map[string][]byte)}, codec, opts...)
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	auth := middleware.NewAuthMiddleware("test-secret")

	return NewHandler(svc, logger, auth)
}

type client struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		c.cookies = cookies
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func newBoardClient(t *testing.T, notifier service.Notifier) *client {
	t.Helper()
	h := newTestHandler(t, newTestService(t, notifier))
	c := &client{t: t, handler: h.SetupRouter()}

	rec := c.do(http.MethodPost, "/api/boards", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create board status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if len(c.cookies) == 0 {
		t.Fatalf("create board did not set a cookie")
	}
	return c
}

func TestProtectedRoutesRequireCookie(t *testing.T) {
	h := newTestHandler(t, newTestService(t, nil))
	c := &client{t: t, handler: h.SetupRouter()}

	for _, path := range []string{"/api/board", "/api/goals", "/api/loans/stats", "/api/dashboard"} {
		if rec := c.do(http.MethodGet, path, nil); rec.Code != http.StatusUnauthorized {
			t.Fatalf("GET %s status = %d, want %d", path, rec.Code, http.StatusUnauthorized)
		}
	}
}

func TestGoalLifecycle(t *testing.T) {
	c := newBoardClient(t, nil)

	rec := c.do(http.MethodPost, "/api/goals", map[string]any{
		"name": "Fridge", "cost": 30000, "targetDate": "2027-01-15", "category": "home",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	goal := decode[service.GoalView](t, rec)
	assert.Equal(t, "Fridge", goal.Name)
	assert.Equal(t, 4, goal.Calculations.MonthsRemaining)

	rec = c.do(http.MethodPost, "/api/goals/"+goal.ID+"/progress", map[string]any{"amount": "10000", "note": "first"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	goal = decode[service.GoalView](t, rec)
	assert.InDelta(t, 33.33, goal.Calculations.ProgressPercentage, 0.01)

	rec = c.do(http.MethodPatch, "/api/goals/"+goal.ID, map[string]any{"name": "Big fridge"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Big fridge", decode[service.GoalView](t, rec).Name)

	rec = c.do(http.MethodPost, "/api/goals/"+goal.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[service.GoalView](t, rec).IsCompleted)

	rec = c.do(http.MethodGet, "/api/goals?status=completed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]service.GoalView](t, rec), 1)

	rec = c.do(http.MethodGet, "/api/goals/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[engine.GoalStats](t, rec).CompletedGoals)

	rec = c.do(http.MethodDelete, "/api/goals/"+goal.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = c.do(http.MethodDelete, "/api/goals/"+goal.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = c.do(http.MethodGet, "/api/goals/"+goal.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateGoal_ValidationErrors(t *testing.T) {
	c := newBoardClient(t, nil)

	rec := c.do(http.MethodPost, "/api/goals", map[string]any{
		"name": "", "cost": "abc", "targetDate": "2026-10-15", "category": "cars",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decode[errorResponse](t, rec)
	assert.Contains(t, resp.Fields, "name")
	assert.Contains(t, resp.Fields, "cost")
	assert.Contains(t, resp.Fields, "targetDate")
	assert.Contains(t, resp.Fields, "category")
}

func TestBadRequests(t *testing.T) {
	c := newBoardClient(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{name: "malformed json", method: http.MethodPost, path: "/api/goals", body: "{", want: http.StatusBadRequest},
		{name: "unknown sort key", method: http.MethodGet, path: "/api/goals?sortBy=color", want: http.StatusBadRequest},
		{name: "unknown loan status", method: http.MethodGet, path: "/api/loans?status=lost", want: http.StatusBadRequest},
		{name: "progress on unknown goal", method: http.MethodPost, path: "/api/goals/nope/progress", body: map[string]any{"amount": 1}, want: http.StatusNotFound},
		{name: "unknown route", method: http.MethodGet, path: "/api/nothing", want: http.StatusNotFound},
		{name: "wrong method", method: http.MethodPut, path: "/api/board", want: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.do(tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestLoanPayments(t *testing.T) {
	c := newBoardClient(t, nil)

	rec := c.do(http.MethodPost, "/api/loans", map[string]any{
		"borrowerName": "Alex Johnson", "amount": 15000, "deadline": "2027-03-15", "category": "personal",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	loan := decode[service.LoanView](t, rec)
	assert.Equal(t, engine.LoanStatusOutstanding, loan.Status)

	rec = c.do(http.MethodPost, "/api/loans/"+loan.ID+"/payments", map[string]any{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPost, "/api/loans/"+loan.ID+"/payments", map[string]any{"amount": 20000})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = c.do(http.MethodPost, "/api/loans/"+loan.ID+"/payments", map[string]any{"amount": 5000, "method": "Cash"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	loan = decode[service.LoanView](t, rec)
	assert.Equal(t, engine.LoanStatusPartial, loan.Status)
	require.Len(t, loan.PaymentHistory, 1)
	assert.Equal(t, "Cash", loan.PaymentHistory[0].Method)

	rec = c.do(http.MethodGet, "/api/loans/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[engine.LoanStats](t, rec)
	assert.Equal(t, 1, stats.TotalLoans)
	assert.Equal(t, "10000", stats.TotalOutstanding.String())

	rec = c.do(http.MethodPost, "/api/loans/"+loan.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[service.LoanView](t, rec).IsRepaid)
}

func TestSampleDashboardAndClear(t *testing.T) {
	c := newBoardClient(t, nil)

	rec := c.do(http.MethodPost, "/api/board/sample", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	d := decode[service.Dashboard](t, rec)
	assert.Equal(t, 15, d.Goals.TotalGoals)
	assert.Equal(t, 7, d.Loans.TotalLoans)

	rec = c.do(http.MethodDelete, "/api/board/data", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[model.State](t, rec)
	assert.Empty(t, state.Goals)
	assert.Empty(t, state.Loans)
}

func TestShareAndImport(t *testing.T) {
	c := newBoardClient(t, nil)
	rec := c.do(http.MethodPost, "/api/goals", map[string]any{"name": "TV", "cost": 25000, "targetDate": "2027-01-15"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = c.do(http.MethodGet, "/api/share", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	share := decode[service.Share](t, rec)
	assert.Equal(t, 1, share.GoalCount)

	other := &client{t: t, handler: c.handler}
	rec = other.do(http.MethodPost, "/api/import", map[string]any{"slug": share.Slug})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotEmpty(t, other.cookies)

	rec = other.do(http.MethodGet, "/api/board", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[model.State](t, rec)
	require.Len(t, state.Goals, 1)
	assert.Equal(t, "TV", state.Goals[0].Name)

	rec = other.do(http.MethodPost, "/api/import", map[string]any{"slug": "!!!"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendSnapshot(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		c := newBoardClient(t, nil)
		rec := c.do(http.MethodPost, "/api/share/email", map[string]any{"email": "me@example.com"})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("invalid address", func(t *testing.T) {
		c := newBoardClient(t, &stubNotifier{})
		rec := c.do(http.MethodPost, "/api/share/email", map[string]any{"email": "nope"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("sent", func(t *testing.T) {
		c := newBoardClient(t, &stubNotifier{})
		rec := c.do(http.MethodPost, "/api/share/email", map[string]any{"email": "me@example.com", "message": "hi"})
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[snapshotResponse](t, rec)
		assert.True(t, resp.Success)
		assert.Equal(t, "email-1", resp.EmailID)
	})

	t.Run("delivery failure", func(t *testing.T) {
		c := newBoardClient(t, &stubNotifier{err: notify.ErrDeliveryFailed})
		rec := c.do(http.MethodPost, "/api/share/email", map[string]any{"email": "me@example.com"})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestDeleteBoard(t *testing.T) {
	c := newBoardClient(t, nil)

	rec := c.do(http.MethodDelete, "/api/board", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = c.do(http.MethodGet, "/api/board", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetBoard_InternalError(t *testing.T) {
	h := newTestHandler(t, &failingService{err: errors.New("boom")})

	req := httptest.NewRequest(http.MethodGet, "/api/board", nil)
	rec := httptest.NewRecorder()
	h.authMiddleware.SetBoardCookie(rec, "board-1")
	req.AddCookie(rec.Result().Cookies()[0])

	rec = httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestMeta(t *testing.T) {
	h := newTestHandler(t, newTestService(t, nil))
	rec := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/meta", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	meta := decode[metaResponse](t, rec)
	assert.Len(t, meta.GoalCategories, 9)
	assert.Len(t, meta.LoanCategories, 3)
	assert.Contains(t, meta.PaymentMethods, model.PaymentMethodMPesa)
}

func TestImportBoard_BodyTooLarge(t *testing.T) {
	h := newTestHandler(t, newTestService(t, nil))
	c := &client{t: t, handler: h.SetupRouter()}

	body := `{"slug":"` + strings.Repeat("A", maxBodySize) + `"}`
	rec := c.do(http.MethodPost, "/api/import", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, c.cookies)
}
