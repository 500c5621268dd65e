package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		components     map[string]bool
		wantStatusCode int
		wantComponents map[string]string
	}{
		{
			name:           "正常系: GET",
			method:         http.MethodGet,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "正常系: 無効なコンポーネントがあってもok",
			method:         http.MethodGet,
			components:     map[string]bool{"storage": false, "cache": true},
			wantStatusCode: http.StatusOK,
			wantComponents: map[string]string{"storage": "disabled", "cache": "enabled"},
		},
		{
			name:           "異常系: POST",
			method:         http.MethodPost,
			wantStatusCode: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.components)
			req := httptest.NewRequest(tt.method, "/health", nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatusCode {
				t.Fatalf("status code = %d, want %d", rec.Code, tt.wantStatusCode)
			}
			if tt.wantStatusCode != http.StatusOK {
				return
			}

			var response HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}

			if response.Status != "ok" {
				t.Errorf("status = %s, want ok", response.Status)
			}
			if response.Version != Version {
				t.Errorf("version = %s, want %s", response.Version, Version)
			}
			if len(response.Components) != len(tt.wantComponents) {
				t.Fatalf("components = %v, want %v", response.Components, tt.wantComponents)
			}
			for name, want := range tt.wantComponents {
				if response.Components[name] != want {
					t.Errorf("components[%s] = %s, want %s", name, response.Components[name], want)
				}
			}
		})
	}
}
