package router

import (
	"net/http"

	"doc-compare-app/internal/presentation/di"
	"doc-compare-app/internal/presentation/http/middleware"
)

// NewRouter 新しいルーターを作成
func NewRouter(container *di.Container) http.Handler {
	mux := http.NewServeMux()

	// Comparison API ハンドラー
	comparisonHandler := container.ComparisonHandler()
	mux.HandleFunc("/api/v1/comparisons", comparisonHandler.HandleComparisons)
	mux.HandleFunc("/api/v1/comparisons/upload", comparisonHandler.HandleUpload)
	mux.HandleFunc("/api/v1/comparisons/", comparisonHandler.HandleComparison)

	// Health check
	mux.Handle("/health", container.HealthHandler())

	// ミドルウェアの適用
	var h http.Handler = mux
	h = middleware.Recovery(h)
	h = middleware.LoggerWithHealthCheck(h)
	h = middleware.CORS(h)

	return h
}
