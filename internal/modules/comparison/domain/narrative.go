package domain

import (
	"context"
	"strings"
)

// Significance 変更の重要度
type Significance string

const (
	SignificanceHigh   Significance = "high"
	SignificanceMedium Significance = "medium"
	SignificanceLow    Significance = "low"
)

// ParseSignificance 外部AIの出力を重要度に変換
func ParseSignificance(s string) (Significance, bool) {
	switch Significance(strings.ToLower(strings.TrimSpace(s))) {
	case SignificanceHigh:
		return SignificanceHigh, true
	case SignificanceMedium:
		return SignificanceMedium, true
	case SignificanceLow:
		return SignificanceLow, true
	}
	return "", false
}

// NarrativeChange 解説生成に渡す差分（type と text のみ）
type NarrativeChange struct {
	Type     ChangeType `json:"type"`
	Text     string     `json:"text"`
	Previous string     `json:"previous,omitempty"`
}

// NarrativeAnalysis 差分の解説
type NarrativeAnalysis struct {
	Summary           string       `json:"summary"`
	Significance      Significance `json:"significance"`
	KeyChanges        []string     `json:"key_changes"`
	Recommendations   []string     `json:"recommendations"`
	OverallAssessment string       `json:"overall_assessment"`
}

// NarrativeAnalyzer 差分から解説を生成する外部コラボレータ
type NarrativeAnalyzer interface {
	// Analyze 解説を生成（失敗時はエラー、呼び出し側でフォールバック）
	Analyze(ctx context.Context, changes []NarrativeChange) (*NarrativeAnalysis, error)

	// ProviderName プロバイダー名を返す
	ProviderName() string
}

// ToNarrativeChanges 変更系エントリを先頭から最大limit件だけ解説用に変換
func ToNarrativeChanges(changes []Change, limit int) []NarrativeChange {
	out := make([]NarrativeChange, 0, limit)
	for _, c := range changes {
		if len(out) >= limit {
			break
		}
		if !c.IsChange() {
			continue
		}
		nc := NarrativeChange{Type: c.Type, Text: c.Text()}
		if c.Type == ChangeModified {
			nc.Previous = c.Original()
		}
		out = append(out, nc)
	}
	return out
}
