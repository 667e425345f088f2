// Package notify отправляет снимок целей по электронной почте через Resend.
package notify

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// DefaultBaseURL задаёт адрес API Resend.
const DefaultBaseURL = "https://api.resend.com"

// DefaultFrom задаёт отправителя по умолчанию.
const DefaultFrom = "ELTIW <noreply@yourdomain.com>"

var (
	// ErrNotConfigured возвращается, если не задан ключ API.
	ErrNotConfigured = errors.New("email service not configured")
	// ErrInvalidSnapshot возвращается, если не указан получатель или ссылка.
	ErrInvalidSnapshot = errors.New("email and share URL are required")
	// ErrDeliveryFailed возвращается, если Resend отклонил письмо.
	ErrDeliveryFailed = errors.New("failed to send email")
)

//go:embed snapshot.html.tmpl
var snapshotTemplate string

var snapshotTmpl = template.Must(template.New("snapshot").Parse(snapshotTemplate))

// Config задаёт параметры клиента.
type Config struct {
	APIKey  string
	BaseURL string
	From    string
}

// Snapshot описывает письмо со ссылкой на доску.
type Snapshot struct {
	Recipient string
	ShareURL  string
	GoalCount int
	Message   string
}

// Client инкапсулирует HTTP-взаимодействие с Resend.
type Client struct {
	apiKey  string
	baseURL string
	from    string
	http    *retryablehttp.Client
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// NewClient создаёт клиент. Без ключа API клиент создаётся, но SendSnapshot возвращает ErrNotConfigured.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.From == "" {
		cfg.From = DefaultFrom
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	hc := retryablehttp.NewClient()
	hc.RetryMax = 3
	hc.RetryWaitMin = 200 * time.Millisecond
	hc.RetryWaitMax = 2 * time.Second
	hc.HTTPClient.Timeout = 10 * time.Second
	hc.Logger = leveledLogger{logger.Sugar()}
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		from:    cfg.From,
		http:    hc,
	}
}

// Configured сообщает, задан ли ключ API.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Subject возвращает тему письма для количества целей n.
func Subject(n int) string {
	return fmt.Sprintf("🎯 Your ELTIW Goals Snapshot (%d goals)", n)
}

// RenderSnapshot формирует HTML-тело письма. Сообщение пользователя экранируется.
func RenderSnapshot(s Snapshot) (string, error) {
	var buf bytes.Buffer
	if err := snapshotTmpl.Execute(&buf, s); err != nil {
		return "", fmt.Errorf("render snapshot: %w", err)
	}
	return buf.String(), nil
}

// SendSnapshot отправляет письмо и возвращает идентификатор доставки.
func (c *Client) SendSnapshot(ctx context.Context, s Snapshot) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	if strings.TrimSpace(s.Recipient) == "" || strings.TrimSpace(s.ShareURL) == "" {
		return "", ErrInvalidSnapshot
	}

	html, err := RenderSnapshot(s)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      []string{s.Recipient},
		Subject: Subject(s.GoalCount),
		HTML:    html,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrDeliveryFailed, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var result sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return result.ID, nil
}

// leveledLogger направляет журнал retryablehttp в zap.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
