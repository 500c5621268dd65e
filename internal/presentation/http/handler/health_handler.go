package handler

import (
	"encoding/json"
	"net/http"
)

// Version アプリケーションのバージョン
const Version = "1.0.0"

// HealthHandler ヘルスチェックのハンドラー
type HealthHandler struct {
	components map[string]bool
}

// NewHealthHandler 新しいHealthHandlerを作成
//
// components には任意の依存コンポーネントの有効/無効を渡す（例: "storage", "cache"）。
func NewHealthHandler(components map[string]bool) *HealthHandler {
	return &HealthHandler{components: components}
}

// HealthResponse ヘルスチェックのレスポンス
type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components,omitempty"`
}

// ServeHTTP ヘルスチェックを処理
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "ok",
		Version: Version,
	}

	// 任意コンポーネントの無効化は劣化運転であり異常ではない
	if len(h.components) > 0 {
		response.Components = make(map[string]string, len(h.components))
		for name, enabled := range h.components {
			if enabled {
				response.Components[name] = "enabled"
			} else {
				response.Components[name] = "disabled"
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
