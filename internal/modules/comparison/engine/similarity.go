package engine

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"doc-compare-app/internal/modules/comparison/domain"
)

var nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)

// matchKey 等価判定用に前計算した単位の表現
type matchKey struct {
	empty     bool
	canonical string // 小文字化・記号除去・空白圧縮
	compact   string // 空白のみ圧縮（大文字小文字は保持）
	length    int
	tokens    map[string]struct{}
}

func newMatchKey(text string) matchKey {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return matchKey{empty: true}
	}

	canonical := canonicalize(trimmed)
	fields := strings.Fields(canonical)
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}

	return matchKey{
		canonical: canonical,
		compact:   strings.Join(strings.Fields(trimmed), " "),
		length:    utf8.RuneCountInString(trimmed),
		tokens:    tokens,
	}
}

func canonicalize(text string) string {
	lowered := strings.ToLower(text)
	stripped := nonWordPattern.ReplaceAllString(lowered, "")
	return strings.Join(strings.Fields(stripped), " ")
}

// Oracle アライメント用の等価判定
type Oracle struct {
	// Threshold これを超えるJaccard類似度で等価とみなす
	Threshold float64
	// ShortLength これ未満の長さの単位は完全一致のみ
	ShortLength int
}

// NewOracle 新しいOracleを作成
func NewOracle(threshold float64, shortLength int) *Oracle {
	return &Oracle{Threshold: threshold, ShortLength: shortLength}
}

// AreEquivalent 2つの単位がアライメント上同一かを判定
//
// 空（空白のみ）の単位は null と同じ扱い。
func (o *Oracle) AreEquivalent(a, b domain.Unit) bool {
	return o.equivalent(newMatchKey(a.Text), newMatchKey(b.Text))
}

func (o *Oracle) equivalent(a, b matchKey) bool {
	if a.empty && b.empty {
		return true
	}
	if a.empty || b.empty {
		return false
	}

	if a.canonical == b.canonical {
		return true
	}
	if a.compact == b.compact {
		return true
	}

	// 見出しやラベルなどの短い断片は曖昧一致させない
	if a.length < o.ShortLength || b.length < o.ShortLength {
		return false
	}

	return jaccard(a.tokens, b.tokens) > o.Threshold
}

// Similarity 単語集合のJaccard類似度（0〜1）
func Similarity(a, b string) float64 {
	return jaccard(newMatchKey(a).tokens, newMatchKey(b).tokens)
}

func jaccard(a, b map[string]struct{}) float64 {
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
