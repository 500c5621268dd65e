package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

const healthPath = "/health"

// responseWriter ステータスコードと書き込みバイト数を記録する
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Logger ロギングミドルウェア
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)

		next.ServeHTTP(rw, r)

		logRequest(r, rw, time.Since(start))
	})
}

// LoggerWithHealthCheck 正常なヘルスチェックを除外するロギングミドルウェア
func LoggerWithHealthCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)

		next.ServeHTTP(rw, r)

		if r.URL.Path == healthPath {
			// 異常時のみログ出力
			if rw.statusCode != http.StatusOK {
				slog.Error("Health check failed", "status", rw.statusCode)
			}
			return
		}

		logRequest(r, rw, time.Since(start))
	})
}

// logRequest ステータスに応じたレベルでリクエストを記録
func logRequest(r *http.Request, rw *responseWriter, duration time.Duration) {
	level := slog.LevelInfo
	switch {
	case rw.statusCode >= http.StatusInternalServerError:
		level = slog.LevelError
	case rw.statusCode >= http.StatusBadRequest:
		level = slog.LevelWarn
	}

	slog.Log(r.Context(), level, "HTTP request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", rw.statusCode,
		"bytes", rw.written,
		"duration", duration,
	)
}
