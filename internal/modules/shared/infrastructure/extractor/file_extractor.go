package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"doc-compare-app/internal/config"
	"doc-compare-app/internal/modules/comparison/domain"
)

// FileExtractor 文書ファイルからテキストを抽出する
//
// プレーンテキストはそのまま読み込み、PDF・Word文書は外部の抽出サービスへ送る。
type FileExtractor struct {
	serviceURL string
	client     *http.Client
}

// parseResponse 抽出サービスのレスポンス
type parseResponse struct {
	Text  string `json:"text"`
	Pages int    `json:"pages"`
	Error string `json:"error,omitempty"`
}

// NewFileExtractor 新しいFileExtractorを作成
func NewFileExtractor(cfg *config.ExtractionConfig) *FileExtractor {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &FileExtractor{
		serviceURL: strings.TrimRight(cfg.ServiceURL, "/"),
		client:     &http.Client{Timeout: timeout},
	}
}

// Extract パスのファイルからテキストを抽出
func (e *FileExtractor) Extract(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return e.ExtractBytes(ctx, data, filepath.Base(path))
}

// ExtractBytes データからテキストを抽出
func (e *FileExtractor) ExtractBytes(ctx context.Context, data []byte, filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".text", ".md":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %s", domain.ErrInvalidEncoding, filename)
		}
		return string(data), nil
	case ".pdf", ".docx", ".doc":
		return e.parseRemote(ctx, data, filename)
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filename)
	}
}

// parseRemote 抽出サービスでバイナリ文書をテキスト化
func (e *FileExtractor) parseRemote(ctx context.Context, data []byte, filename string) (string, error) {
	if e.serviceURL == "" {
		return "", fmt.Errorf("extraction service url is not configured for %s", filename)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.serviceURL+"/parse", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Filename", filename)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call extraction service: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var result parseResponse
	if err := json.Unmarshal(body, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("extraction service error (status %d): %s", resp.StatusCode, string(body))
		}
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if result.Error != "" {
		return "", fmt.Errorf("extraction failed for %s: %s", filename, result.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("extraction service error (status %d)", resp.StatusCode)
	}

	return result.Text, nil
}
