package engine

import (
	"fmt"

	"doc-compare-app/internal/config"
	"doc-compare-app/internal/modules/comparison/domain"
)

// 既定のしきい値
const (
	DefaultAlignmentThreshold    = 0.95
	DefaultModificationThreshold = 0.4
	DefaultMinSentenceLength     = 10
	DefaultShortUnitLength       = 20
	DefaultWarnAlignmentCells    = 4_000_000
	DefaultMaxAlignmentCells     = 16_000_000
)

// Engine 正規化済みテキストの比較パイプライン
type Engine struct {
	cfg    config.ComparisonConfig
	oracle *Oracle
}

// New 新しいEngineを作成（0以下の項目は既定値で補完）
func New(cfg config.ComparisonConfig) *Engine {
	if cfg.AlignmentThreshold <= 0 {
		cfg.AlignmentThreshold = DefaultAlignmentThreshold
	}
	if cfg.ModificationThreshold <= 0 {
		cfg.ModificationThreshold = DefaultModificationThreshold
	}
	if cfg.MinSentenceLength <= 0 {
		cfg.MinSentenceLength = DefaultMinSentenceLength
	}
	if cfg.ShortUnitLength <= 0 {
		cfg.ShortUnitLength = DefaultShortUnitLength
	}
	if cfg.WarnAlignmentCells <= 0 {
		cfg.WarnAlignmentCells = DefaultWarnAlignmentCells
	}
	if cfg.MaxAlignmentCells <= 0 {
		cfg.MaxAlignmentCells = DefaultMaxAlignmentCells
	}

	return &Engine{
		cfg:    cfg,
		oracle: NewOracle(cfg.AlignmentThreshold, cfg.ShortUnitLength),
	}
}

// Oracle エンジンが使用する等価判定
func (e *Engine) Oracle() *Oracle {
	return e.oracle
}

// Segment モードに応じて単位列に分割する
func (e *Engine) Segment(mode domain.Mode, text string) []domain.Unit {
	if mode == domain.ModeSentence {
		return segmentSentences(text, e.cfg.MinSentenceLength)
	}
	return SegmentLines(text)
}

// Compare 正規化済みの2テキストを指定モードで比較する
//
// 単位数の積が MaxAlignmentCells を超える場合はアライメント表を確保せず
// domain.ErrTextTooLarge を返す。
func (e *Engine) Compare(mode domain.Mode, original, comparison string) (*domain.ModeResult, error) {
	a := e.Segment(mode, original)
	b := e.Segment(mode, comparison)

	if cells := len(a) * len(b); cells > e.cfg.MaxAlignmentCells {
		return nil, fmt.Errorf("%w: %s mode needs %d alignment cells (max %d)",
			domain.ErrTextTooLarge, mode, cells, e.cfg.MaxAlignmentCells)
	}

	changes := e.Refine(e.Align(a, b))

	return &domain.ModeResult{
		Mode:       mode,
		Changes:    changes,
		Statistics: ComputeStatistics(changes),
	}, nil
}
