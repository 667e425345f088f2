// Package middleware содержит HTTP middleware сервиса: доступ к доске по cookie, сжатие, журнал запросов.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"
)

type contextKey string

const boardIDKey contextKey = "boardID"

const (
	boardCookieName = "eltiw_board"
	boardCookieTTL  = 365 * 24 * time.Hour
)

// AuthMiddleware проверяет подписанный cookie с идентификатором доски.
type AuthMiddleware struct {
	secretKey []byte
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware с указанным секретным ключом.
// Без ключа генерируется случайный: cookie перестанут действовать после перезапуска.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &AuthMiddleware{
		secretKey: key,
	}
}

// Middleware проверяет cookie доски и добавляет её идентификатор в контекст запроса.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(boardCookieName)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		boardID, ok := a.parseCookie(cookie.Value)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), boardIDKey, boardID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetBoardCookie устанавливает cookie доступа к доске.
func (a *AuthMiddleware) SetBoardCookie(w http.ResponseWriter, boardID string) {
	cookie := &http.Cookie{
		Name:     boardCookieName,
		Value:    boardID + "." + a.sign(boardID),
		Path:     "/",
		Expires:  time.Now().Add(boardCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)
}

// ClearBoardCookie удаляет cookie доски.
func (a *AuthMiddleware) ClearBoardCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     boardCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *AuthMiddleware) sign(boardID string) string {
	mac := hmac.New(sha256.New, a.secretKey)
	mac.Write([]byte(boardID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *AuthMiddleware) parseCookie(cookieValue string) (string, bool) {
	i := strings.LastIndex(cookieValue, ".")
	if i <= 0 {
		return "", false
	}

	boardID, signature := cookieValue[:i], cookieValue[i+1:]
	if !hmac.Equal([]byte(signature), []byte(a.sign(boardID))) {
		return "", false
	}

	return boardID, true
}

// GetBoardIDFromContext извлекает идентификатор доски из контекста запроса.
func GetBoardIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(boardIDKey).(string)
	return id, ok && id != ""
}
