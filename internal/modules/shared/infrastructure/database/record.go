package database

import (
	"encoding/json"
	"fmt"

	"doc-compare-app/internal/modules/comparison/domain"
)

// resultPayload 比較結果のうちJSONカラムに保存する部分
type resultPayload struct {
	Line     *domain.ModeResult        `json:"line,omitempty"`
	Sentence *domain.ModeResult        `json:"sentence,omitempty"`
	Analysis *domain.NarrativeAnalysis `json:"analysis"`
}

func encodePayload(result *domain.ComparisonResult) ([]byte, error) {
	data, err := json.Marshal(resultPayload{
		Line:     result.Line,
		Sentence: result.Sentence,
		Analysis: result.Analysis,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal comparison result: %w", err)
	}
	return data, nil
}

func decodePayload(data []byte, result *domain.ComparisonResult) error {
	var payload resultPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal comparison result: %w", err)
	}
	result.Line = payload.Line
	result.Sentence = payload.Sentence
	result.Analysis = payload.Analysis
	return nil
}

// summaryColumns 一覧表示・検索用に正規化して保存する値
func summaryColumns(result *domain.ComparisonResult) (changePercentage int, significance string) {
	if primary := result.Primary(); primary != nil {
		changePercentage = primary.Statistics.ChangePercentage
	}
	if result.Analysis != nil {
		significance = string(result.Analysis.Significance)
	}
	return changePercentage, significance
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", domain.ErrComparisonNotFound, id)
}
