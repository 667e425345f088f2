package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

const testBoardID = "7f0c2a9e-4b1d-4c53-9a7e-2d1f0b6c8e11"

func TestAuthMiddleware_WithValidCookie(t *testing.T) {
	m := NewAuthMiddleware("test-secret")

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		id, ok := GetBoardIDFromContext(r.Context())
		if !ok {
			t.Fatalf("board id not in context")
		}
		if id != testBoardID {
			t.Fatalf("board id from context = %s, want %s", id, testBoardID)
		}
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/board", nil)

	m.SetBoardCookie(w, testBoardID)
	res := w.Result()
	resCookies := res.Cookies()
	if len(resCookies) == 0 {
		t.Fatalf("no cookies set by SetBoardCookie")
	}

	r.AddCookie(resCookies[0])

	handler := m.Middleware(next)
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestAuthMiddleware_WithoutCookie(t *testing.T) {
	m := NewAuthMiddleware("test-secret")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/board", nil)

	handler := m.Middleware(next)
	handler.ServeHTTP(w, r)

	res := w.Result()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_RejectsForgedCookie(t *testing.T) {
	signer := NewAuthMiddleware("other-secret")
	m := NewAuthMiddleware("test-secret")

	w := httptest.NewRecorder()
	signer.SetBoardCookie(w, testBoardID)
	forged := w.Result().Cookies()[0]

	tests := []struct {
		name  string
		value string
	}{
		{name: "foreign signature", value: forged.Value},
		{name: "no signature", value: testBoardID},
		{name: "empty board id", value: "." + "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatalf("next handler should not be called")
			})

			r := httptest.NewRequest(http.MethodGet, "/api/board", nil)
			r.AddCookie(&http.Cookie{Name: boardCookieName, Value: tt.value})
			rec := httptest.NewRecorder()

			m.Middleware(next).ServeHTTP(rec, r)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}
