package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"doc-compare-app/internal/modules/comparison/domain"
	"doc-compare-app/internal/modules/comparison/usecase"
)

const (
	// MaxUploadBytes マルチパート・JSONリクエストの上限（20MB）
	MaxUploadBytes = 20 << 20

	comparisonsPath = "/api/v1/comparisons"
)

// ComparisonHandler 文書比較APIのハンドラー
type ComparisonHandler struct {
	comparisonUseCase ComparisonUseCaseInterface
}

// NewComparisonHandler 新しいComparisonHandlerを作成
func NewComparisonHandler(comparisonUseCase ComparisonUseCaseInterface) *ComparisonHandler {
	return &ComparisonHandler{
		comparisonUseCase: comparisonUseCase,
	}
}

// CompareRequest テキスト比較リクエスト
type CompareRequest struct {
	OriginalText   string   `json:"original_text"`
	ComparisonText string   `json:"comparison_text"`
	Modes          []string `json:"modes,omitempty"`
}

// ComparisonResponse 比較結果のレスポンス
type ComparisonResponse struct {
	Success    bool                     `json:"success"`
	Comparison *domain.ComparisonResult `json:"comparison,omitempty"`
	Error      string                   `json:"error,omitempty"`
}

// ComparisonListResponse 比較結果一覧のレスポンス
type ComparisonListResponse struct {
	Success     bool                       `json:"success"`
	Comparisons []*domain.ComparisonResult `json:"comparisons"`
	Limit       int                        `json:"limit"`
	Offset      int                        `json:"offset"`
}

// HandleComparisons POST: テキスト比較 / GET: 一覧
func (h *ComparisonHandler) HandleComparisons(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCompare(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		h.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleUpload アップロードされた2文書を比較
func (h *ComparisonHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.sendError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.sendError(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	original, err := readFormFile(r, "original")
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	comparison, err := readFormFile(r, "comparison")
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	modes, err := parseModes(r.MultipartForm.Value["modes"])
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.comparisonUseCase.CompareUploads(r.Context(), original, comparison, modes...)
	if err != nil {
		h.sendUseCaseError(w, "Comparison failed", err)
		return
	}

	h.sendJSON(w, http.StatusOK, ComparisonResponse{Success: true, Comparison: result})
}

// HandleComparison GET: 1件取得 / DELETE: 削除
func (h *ComparisonHandler) HandleComparison(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, comparisonsPath), "/")
	if id == "" || strings.Contains(id, "/") {
		h.sendError(w, "Comparison id is required", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		result, err := h.comparisonUseCase.GetComparison(r.Context(), id)
		if err != nil {
			h.sendUseCaseError(w, "Failed to get comparison", err)
			return
		}
		h.sendJSON(w, http.StatusOK, ComparisonResponse{Success: true, Comparison: result})
	case http.MethodDelete:
		if err := h.comparisonUseCase.DeleteComparison(r.Context(), id); err != nil {
			h.sendUseCaseError(w, "Failed to delete comparison", err)
			return
		}
		h.sendJSON(w, http.StatusOK, ComparisonResponse{Success: true})
	default:
		h.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ComparisonHandler) handleCompare(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.sendError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	modes, err := parseModes(req.Modes)
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.comparisonUseCase.CompareTexts(r.Context(), req.OriginalText, req.ComparisonText, modes...)
	if err != nil {
		h.sendUseCaseError(w, "Comparison failed", err)
		return
	}

	h.sendJSON(w, http.StatusOK, ComparisonResponse{Success: true, Comparison: result})
}

func (h *ComparisonHandler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	results, err := h.comparisonUseCase.ListComparisons(r.Context(), limit, offset)
	if err != nil {
		h.sendUseCaseError(w, "Failed to list comparisons", err)
		return
	}
	if results == nil {
		results = []*domain.ComparisonResult{}
	}

	h.sendJSON(w, http.StatusOK, ComparisonListResponse{
		Success:     true,
		Comparisons: results,
		Limit:       limit,
		Offset:      offset,
	})
}

// readFormFile マルチパートのファイルを読み込む
func readFormFile(r *http.Request, field string) (usecase.Document, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return usecase.Document{}, fmt.Errorf("%s file is required", field)
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		return usecase.Document{}, fmt.Errorf("failed to read %s file", field)
	}

	return usecase.Document{Filename: header.Filename, Data: data}, nil
}

// parseModes "line,sentence" 形式も受け付ける
func parseModes(values []string) ([]domain.Mode, error) {
	var modes []domain.Mode
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(strings.ToLower(part))
			if part == "" {
				continue
			}
			mode, ok := domain.ParseMode(part)
			if !ok {
				return nil, fmt.Errorf("unknown mode %q", part)
			}
			modes = append(modes, mode)
		}
	}
	return modes, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return n, nil
}

// statusForError ドメインエラーをHTTPステータスに変換
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrComparisonNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrTextTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrInvalidEncoding):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrStorageDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// sendUseCaseError ユースケースのエラーを返す
func (h *ComparisonHandler) sendUseCaseError(w http.ResponseWriter, message string, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		slog.Error(message, "error", err)
	}
	h.sendError(w, fmt.Sprintf("%s: %v", message, err), status)
}

// sendJSON JSONレスポンスを返す
func (h *ComparisonHandler) sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// sendError エラーレスポンスを返す
func (h *ComparisonHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, statusCode, ComparisonResponse{
		Success: false,
		Error:   message,
	})
}
