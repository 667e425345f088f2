package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(baseURL string) *Client {
	c := NewClient(Config{APIKey: "re_test", BaseURL: baseURL, From: "ELTIW <test@example.com>"}, nil)
	c.http.RetryWaitMin = time.Millisecond
	c.http.RetryWaitMax = time.Millisecond
	return c
}

func TestSendSnapshot_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/emails" {
			t.Fatalf("path = %s, want /emails", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer re_test" {
			t.Fatalf("Authorization = %q", got)
		}

		var req sendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(req.To) != 1 || req.To[0] != "me@example.com" {
			t.Fatalf("unexpected recipients: %v", req.To)
		}
		if req.Subject != Subject(3) {
			t.Fatalf("subject = %q", req.Subject)
		}
		if !strings.Contains(req.HTML, "https://eltiw.test/#abc") {
			t.Fatalf("html does not contain share url: %s", req.HTML)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	id, err := newTestClient(ts.URL).SendSnapshot(ctx, Snapshot{
		Recipient: "me@example.com",
		ShareURL:  "https://eltiw.test/#abc",
		GoalCount: 3,
	})
	if err != nil {
		t.Fatalf("SendSnapshot error: %v", err)
	}
	if id != "email-1" {
		t.Fatalf("id = %q, want email-1", id)
	}
}

func TestSendSnapshot_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":"email-2"}`))
	}))
	defer ts.Close()

	id, err := newTestClient(ts.URL).SendSnapshot(context.Background(), Snapshot{
		Recipient: "me@example.com",
		ShareURL:  "https://eltiw.test/#abc",
	})
	if err != nil {
		t.Fatalf("SendSnapshot error: %v", err)
	}
	if id != "email-2" || calls.Load() != 3 {
		t.Fatalf("id = %q, calls = %d", id, calls.Load())
	}
}

func TestSendSnapshot_Rejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from"}`))
	}))
	defer ts.Close()

	_, err := newTestClient(ts.URL).SendSnapshot(context.Background(), Snapshot{
		Recipient: "me@example.com",
		ShareURL:  "https://eltiw.test/#abc",
	})
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("err = %v, want ErrDeliveryFailed", err)
	}
}

func TestSendSnapshot_NotConfigured(t *testing.T) {
	c := NewClient(Config{}, nil)

	_, err := c.SendSnapshot(context.Background(), Snapshot{Recipient: "me@example.com", ShareURL: "x"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestSendSnapshot_RequiresRecipientAndLink(t *testing.T) {
	c := newTestClient("http://127.0.0.1:0")

	_, err := c.SendSnapshot(context.Background(), Snapshot{ShareURL: "x"})
	if !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("err = %v, want ErrInvalidSnapshot", err)
	}
}

func TestRenderSnapshot(t *testing.T) {
	html, err := RenderSnapshot(Snapshot{
		ShareURL:  "https://eltiw.test/#abc",
		GoalCount: 1,
		Message:   "<script>alert(1)</script>",
	})
	if err != nil {
		t.Fatalf("RenderSnapshot error: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("message is not escaped: %s", html)
	}
	if !strings.Contains(html, "1 goal</strong>") {
		t.Fatalf("singular form expected: %s", html)
	}

	html, err = RenderSnapshot(Snapshot{ShareURL: "x", GoalCount: 2})
	if err != nil {
		t.Fatalf("RenderSnapshot error: %v", err)
	}
	if strings.Contains(html, "Personal Note") {
		t.Fatalf("empty message must not render note block")
	}
	if !strings.Contains(html, "2 goals</strong>") {
		t.Fatalf("plural form expected: %s", html)
	}
}
