package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// captureLogs テスト中のslog出力を取得
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return buf
}

func TestCORS(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		method     string
		wantStatus int
	}{
		{name: "正常系: OPTIONSはNoContent", method: http.MethodOptions, wantStatus: http.StatusNoContent},
		{name: "正常系: GETは通過", method: http.MethodGet, wantStatus: http.StatusOK},
		{name: "正常系: POSTは通過", method: http.MethodPost, wantStatus: http.StatusOK},
		{name: "正常系: DELETEは通過", method: http.MethodDelete, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/comparisons", nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
				t.Error("Access-Control-Allow-Origin header not set correctly")
			}
			if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "DELETE") {
				t.Error("Access-Control-Allow-Methods does not contain DELETE")
			}
			if !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "Content-Type") {
				t.Error("Access-Control-Allow-Headers does not contain Content-Type")
			}
			if maxAge := rec.Header().Get("Access-Control-Max-Age"); maxAge != "3600" {
				t.Errorf("Access-Control-Max-Age = %s, want 3600", maxAge)
			}
		})
	}
}

func TestCORS_PreflightRequest(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called for OPTIONS request")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/comparisons", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		statusCode int
		body       string
		wantLevel  string
	}{
		{name: "正常系: 200はINFO", method: http.MethodPost, path: "/api/v1/comparisons", statusCode: http.StatusOK, body: "ok", wantLevel: "level=INFO"},
		{name: "異常系: 404はWARN", method: http.MethodGet, path: "/api/v1/comparisons/x", statusCode: http.StatusNotFound, body: "not found", wantLevel: "level=WARN"},
		{name: "異常系: 500はERROR", method: http.MethodPost, path: "/api/v1/comparisons", statusCode: http.StatusInternalServerError, body: "error", wantLevel: "level=ERROR"},
		{name: "境界値: 空のレスポンス", method: http.MethodGet, path: "/empty", statusCode: http.StatusOK, body: "", wantLevel: "level=INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)

			handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))

			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.statusCode {
				t.Errorf("status code = %d, want %d", rec.Code, tt.statusCode)
			}
			if rec.Body.String() != tt.body {
				t.Errorf("response body = %s, want %s", rec.Body.String(), tt.body)
			}

			out := logs.String()
			if !strings.Contains(out, tt.wantLevel) || !strings.Contains(out, "path="+tt.path) {
				t.Errorf("log output = %q, want %s with path", out, tt.wantLevel)
			}
		})
	}
}

func TestLoggerWithHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		statusCode int
		wantLog    string
	}{
		{name: "正常系: 正常な/healthはログなし", path: "/health", statusCode: http.StatusOK, wantLog: ""},
		{name: "異常系: 異常な/healthはエラーログ", path: "/health", statusCode: http.StatusServiceUnavailable, wantLog: "Health check failed"},
		{name: "正常系: APIは通常ログ", path: "/api/v1/comparisons", statusCode: http.StatusOK, wantLog: "HTTP request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)

			handler := LoggerWithHealthCheck(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.statusCode {
				t.Errorf("status code = %d, want %d", rec.Code, tt.statusCode)
			}

			out := logs.String()
			if tt.wantLog == "" {
				if out != "" {
					t.Errorf("expected no log, got %q", out)
				}
				return
			}
			if !strings.Contains(out, tt.wantLog) {
				t.Errorf("log output = %q, want %q", out, tt.wantLog)
			}
		})
	}
}

func TestResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	if rw.statusCode != http.StatusOK {
		t.Errorf("default statusCode = %d, want %d", rw.statusCode, http.StatusOK)
	}

	rw.WriteHeader(http.StatusCreated)
	for _, chunk := range []string{"Hello", " ", "World"} {
		if _, err := rw.Write([]byte(chunk)); err != nil {
			t.Errorf("Write() error = %v", err)
		}
	}

	if rw.statusCode != http.StatusCreated || rec.Code != http.StatusCreated {
		t.Errorf("statusCode = %d / %d, want %d", rw.statusCode, rec.Code, http.StatusCreated)
	}
	if rw.written != int64(len("Hello World")) {
		t.Errorf("written = %d, want %d", rw.written, len("Hello World"))
	}
	if rec.Body.String() != "Hello World" {
		t.Errorf("body = %s, want 'Hello World'", rec.Body.String())
	}
}

func TestRecovery(t *testing.T) {
	tests := []struct {
		name       string
		panicValue interface{}
	}{
		{name: "異常系: 文字列のpanic", panicValue: "test panic"},
		{name: "異常系: errorのpanic", panicValue: http.ErrAbortHandler},
		{name: "異常系: nilのpanic", panicValue: nil},
		{name: "異常系: 整数のpanic", panicValue: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)

			handler := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(tt.panicValue)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/comparisons", nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusInternalServerError {
				t.Errorf("status code = %d, want %d", rec.Code, http.StatusInternalServerError)
			}

			var response ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if response.Success {
				t.Error("Expected Success to be false")
			}
			if response.Error != "Internal server error" {
				t.Errorf("Error message = %s, want 'Internal server error'", response.Error)
			}
			if contentType := rec.Header().Get("Content-Type"); contentType != "application/json" {
				t.Errorf("Content-Type = %s, want application/json", contentType)
			}
			if !strings.Contains(logs.String(), "Panic recovered") {
				t.Error("panic should be logged")
			}
		})
	}
}

func TestRecovery_NoPanic(t *testing.T) {
	handler := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("success"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "success" {
		t.Errorf("got %d %q, want 200 success", rec.Code, rec.Body.String())
	}
}

func TestMiddlewareChain_WithPanic(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic in chain")
	})

	// ルーターと同じ順序: CORS -> LoggerWithHealthCheck -> Recovery -> Handler
	chain := CORS(LoggerWithHealthCheck(Recovery(handler)))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/comparisons", nil)
	rec := httptest.NewRecorder()

	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header not set in middleware chain")
	}
}
