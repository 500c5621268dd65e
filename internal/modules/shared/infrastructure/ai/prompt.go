package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"doc-compare-app/internal/modules/comparison/domain"
)

// systemPromptNarrative 差分解説用プロンプト
const systemPromptNarrative = `You are a legal analyst reviewing the differences between two versions of a contract.
You receive a JSON list of changes. Each change has:
- type: "added", "removed" or "modified"
- text: the new text (for removed changes, the deleted text)
- previous: the old text (modified changes only)

Assess what the changes mean for the parties.

Rules:
1. Judge significance by legal effect, not by the amount of text changed
2. Mention concrete amounts, dates and obligations when they change
3. Keep key_changes and recommendations short (one sentence each)
4. Return JSON only, without explanations or code fences

Output format:
{
  "summary": "one paragraph summary",
  "significance": "high" | "medium" | "low",
  "key_changes": ["..."],
  "recommendations": ["..."],
  "overall_assessment": "one sentence"
}`

// buildNarrativePrompt 差分リストからユーザープロンプトを作成
func buildNarrativePrompt(changes []domain.NarrativeChange) (string, error) {
	data, err := json.MarshalIndent(changes, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal changes: %w", err)
	}
	return "Analyze these document changes:\n\n" + string(data), nil
}

// parseNarrativeResponse AIの応答を解説に変換
//
// 不明な significance は空文字にする（呼び出し側で統計値から補完）。
func parseNarrativeResponse(raw string) (*domain.NarrativeAnalysis, error) {
	block := extractJSONBlock(stripCodeFence(raw))
	if block == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var parsed struct {
		Summary           string   `json:"summary"`
		Significance      string   `json:"significance"`
		KeyChanges        []string `json:"key_changes"`
		Recommendations   []string `json:"recommendations"`
		OverallAssessment string   `json:"overall_assessment"`
	}
	if err := json.Unmarshal([]byte(block), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	if strings.TrimSpace(parsed.Summary) == "" {
		return nil, fmt.Errorf("response has empty summary")
	}

	significance, _ := domain.ParseSignificance(parsed.Significance)

	analysis := &domain.NarrativeAnalysis{
		Summary:           strings.TrimSpace(parsed.Summary),
		Significance:      significance,
		KeyChanges:        parsed.KeyChanges,
		Recommendations:   parsed.Recommendations,
		OverallAssessment: strings.TrimSpace(parsed.OverallAssessment),
	}
	if analysis.KeyChanges == nil {
		analysis.KeyChanges = []string{}
	}
	if analysis.Recommendations == nil {
		analysis.Recommendations = []string{}
	}
	return analysis, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func extractJSONBlock(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
