package middleware

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func echoHandler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	defer r.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"received":` + string(body) + `}`))
}

func gzipBytes(t *testing.T, s string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(s)); err != nil {
		t.Fatalf("write gzip: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return &buf
}

func TestGzipMiddleware(t *testing.T) {
	type want struct {
		statusCode      int
		contentEncoding string
		body            string
	}

	tests := []struct {
		name           string
		body           func(t *testing.T) io.Reader
		acceptGzip     bool
		compressedBody bool
		want           want
	}{
		{
			name:       "response compressed when accepted",
			body:       func(t *testing.T) io.Reader { return strings.NewReader(`{"name":"Fridge"}`) },
			acceptGzip: true,
			want: want{
				statusCode:      http.StatusOK,
				contentEncoding: "gzip",
				body:            `{"received":{"name":"Fridge"}}`,
			},
		},
		{
			name: "plain response without accept-encoding",
			body: func(t *testing.T) io.Reader { return strings.NewReader(`1`) },
			want: want{
				statusCode: http.StatusOK,
				body:       `{"received":1}`,
			},
		},
		{
			name:           "compressed request body",
			body:           func(t *testing.T) io.Reader { return gzipBytes(t, `{"amount":"500"}`) },
			compressedBody: true,
			acceptGzip:     true,
			want: want{
				statusCode:      http.StatusOK,
				contentEncoding: "gzip",
				body:            `{"received":{"amount":"500"}}`,
			},
		},
		{
			name:           "broken compressed request body",
			body:           func(t *testing.T) io.Reader { return strings.NewReader("not gzip") },
			compressedBody: true,
			want: want{
				statusCode: http.StatusBadRequest,
				body:       http.StatusText(http.StatusBadRequest),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/goals", tt.body(t))
			req.Header.Set("Content-Type", "application/json")
			if tt.compressedBody {
				req.Header.Set("Content-Encoding", "gzip")
			}
			if tt.acceptGzip {
				req.Header.Set("Accept-Encoding", "gzip")
			}

			w := httptest.NewRecorder()
			GzipMiddleware(http.HandlerFunc(echoHandler)).ServeHTTP(w, req)

			res := w.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.want.statusCode {
				t.Fatalf("status: got %d want %d", res.StatusCode, tt.want.statusCode)
			}
			if ce := res.Header.Get("Content-Encoding"); ce != tt.want.contentEncoding {
				t.Fatalf("content-encoding: got %q want %q", ce, tt.want.contentEncoding)
			}

			var reader io.Reader = res.Body
			if tt.want.contentEncoding == "gzip" {
				gr, err := gzip.NewReader(res.Body)
				if err != nil {
					t.Fatalf("new gzip reader: %v", err)
				}
				defer gr.Close()
				reader = gr
			}
			body, err := io.ReadAll(reader)
			if err != nil {
				t.Fatalf("read body: %v", err)
			}

			if got := strings.TrimSpace(string(body)); got != tt.want.body {
				t.Fatalf("body: got %q want %q", got, tt.want.body)
			}
		})
	}
}

func TestGzipMiddleware_NoContent(t *testing.T) {
	h := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodDelete, "/api/goals/g1", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status: got %d want %d", w.Code, http.StatusNoContent)
	}
	if ce := w.Header().Get("Content-Encoding"); ce != "" {
		t.Fatalf("content-encoding: got %q want empty", ce)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("body: got %d bytes want 0", w.Body.Len())
	}
}

func TestGzipMiddleware_DecompressedBodyLimit(t *testing.T) {
	var readErr error
	h := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/import", gzipBytes(t, strings.Repeat("0", MaxDecompressedBody+1)))
	req.Header.Set("Content-Encoding", "gzip")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var tooLarge *http.MaxBytesError
	if !errors.As(readErr, &tooLarge) {
		t.Fatalf("read error: got %v want *http.MaxBytesError", readErr)
	}
}
