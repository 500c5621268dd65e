package domain

import "time"

// ChangeType 差分エントリの種別
type ChangeType string

const (
	ChangeUnchanged ChangeType = "unchanged"
	ChangeAdded     ChangeType = "added"
	ChangeRemoved   ChangeType = "removed"
	ChangeModified  ChangeType = "modified"
)

// Mode 比較単位（行 / 文）
type Mode string

const (
	ModeLine     Mode = "line"
	ModeSentence Mode = "sentence"
)

// ParseMode 文字列から比較モードを判定
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeLine:
		return ModeLine, true
	case ModeSentence:
		return ModeSentence, true
	}
	return "", false
}

// Unit 比較対象となるテキストの単位（文または行）
type Unit struct {
	Text  string
	Index int
}

// インライン差分の操作
const (
	InlineEqual  = "equal"
	InlineInsert = "insert"
	InlineDelete = "delete"
)

// InlineSegment 変更エントリ内の文字レベル差分
type InlineSegment struct {
	Op   string `json:"op"`
	Text string `json:"text"`
}

// Change 差分の1エントリ
type Change struct {
	Type            ChangeType      `json:"type"`
	OriginalText    *string         `json:"original_text"`
	ComparisonText  *string         `json:"comparison_text"`
	OriginalIndex   *int            `json:"original_index"`
	ComparisonIndex *int            `json:"comparison_index"`
	Similarity      *float64        `json:"similarity,omitempty"`
	InlineDiff      []InlineSegment `json:"inline_diff,omitempty"`
}

// NewUnchanged 両文書で一致したエントリを作成
func NewUnchanged(a, b Unit) Change {
	return Change{
		Type:            ChangeUnchanged,
		OriginalText:    strPtr(a.Text),
		ComparisonText:  strPtr(b.Text),
		OriginalIndex:   intPtr(a.Index),
		ComparisonIndex: intPtr(b.Index),
	}
}

// NewAdded 比較文書のみに存在するエントリを作成
func NewAdded(b Unit) Change {
	return Change{
		Type:            ChangeAdded,
		ComparisonText:  strPtr(b.Text),
		ComparisonIndex: intPtr(b.Index),
	}
}

// NewRemoved 元文書のみに存在するエントリを作成
func NewRemoved(a Unit) Change {
	return Change{
		Type:          ChangeRemoved,
		OriginalText:  strPtr(a.Text),
		OriginalIndex: intPtr(a.Index),
	}
}

// NewModified 削除と追加の組を変更エントリにまとめる
func NewModified(removed, added Change, similarity float64) Change {
	return Change{
		Type:            ChangeModified,
		OriginalText:    removed.OriginalText,
		ComparisonText:  added.ComparisonText,
		OriginalIndex:   removed.OriginalIndex,
		ComparisonIndex: added.ComparisonIndex,
		Similarity:      &similarity,
	}
}

// Original 元文書側のテキスト（存在しない場合は空文字）
func (c Change) Original() string {
	if c.OriginalText == nil {
		return ""
	}
	return *c.OriginalText
}

// Comparison 比較文書側のテキスト（存在しない場合は空文字）
func (c Change) Comparison() string {
	if c.ComparisonText == nil {
		return ""
	}
	return *c.ComparisonText
}

// Text エントリを代表するテキスト
func (c Change) Text() string {
	if c.Type == ChangeRemoved {
		return c.Original()
	}
	return c.Comparison()
}

// IsChange 変更系のエントリかどうか
func (c Change) IsChange() bool {
	return c.Type != ChangeUnchanged
}

// Statistics 差分の集計値
type Statistics struct {
	Total            int `json:"total"`
	Unchanged        int `json:"unchanged"`
	Added            int `json:"added"`
	Removed          int `json:"removed"`
	Modified         int `json:"modified"`
	ChangePercentage int `json:"change_percentage"`
}

// Changed 変更系エントリの件数
func (s Statistics) Changed() int {
	return s.Added + s.Removed + s.Modified
}

// Significance 変更率から重要度を判定
func (s Statistics) Significance() Significance {
	switch {
	case s.ChangePercentage > 30:
		return SignificanceHigh
	case s.ChangePercentage > 10:
		return SignificanceMedium
	default:
		return SignificanceLow
	}
}

// ModeResult 1つの比較モードの結果
type ModeResult struct {
	Mode       Mode       `json:"mode"`
	Changes    []Change   `json:"changes"`
	Statistics Statistics `json:"statistics"`
}

// ComparisonResult 比較結果全体
type ComparisonResult struct {
	ID             string             `json:"id"`
	OriginalText   string             `json:"original_text"`
	ComparisonText string             `json:"comparison_text"`
	Line           *ModeResult        `json:"line,omitempty"`
	Sentence       *ModeResult        `json:"sentence,omitempty"`
	Analysis       *NarrativeAnalysis `json:"analysis"`
	AnalysisSource string             `json:"analysis_source"`
	CreatedAt      time.Time          `json:"created_at"`
}

// Primary 表示用の主結果（行モード優先）
func (r *ComparisonResult) Primary() *ModeResult {
	if r.Line != nil {
		return r.Line
	}
	return r.Sentence
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
