package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"doc-compare-app/internal/config"
	"doc-compare-app/internal/modules/comparison/domain"
)

// ProviderGemini Geminiのプロバイダー名
const ProviderGemini = "gemini"

// contentGenerator テスト用に差し替え可能な生成モデル
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiRepository Gemini APIによる解説生成
type GeminiRepository struct {
	client    *genai.Client
	model     contentGenerator
	modelName string
}

// NewGeminiRepository 新しいGeminiRepositoryを作成
func NewGeminiRepository(ctx context.Context, cfg *config.GeminiConfig) (*GeminiRepository, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.SetMaxOutputTokens(cfg.MaxOutputTokens)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPromptNarrative)},
	}

	return &GeminiRepository{
		client:    client,
		model:     model,
		modelName: cfg.Model,
	}, nil
}

// Analyze 差分の解説を生成
func (r *GeminiRepository) Analyze(ctx context.Context, changes []domain.NarrativeChange) (*domain.NarrativeAnalysis, error) {
	prompt, err := buildNarrativePrompt(changes)
	if err != nil {
		return nil, err
	}

	resp, err := r.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates")
	}

	var raw strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			raw.WriteString(string(txt))
		}
	}

	return parseNarrativeResponse(raw.String())
}

// ProviderName プロバイダー名を返す
func (r *GeminiRepository) ProviderName() string {
	return ProviderGemini
}

// Close クライアントを閉じる
func (r *GeminiRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
