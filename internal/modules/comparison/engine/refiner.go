package engine

import (
	"github.com/sergi/go-diff/diffmatchpatch"

	"doc-compare-app/internal/modules/comparison/domain"
)

// Refine 隣接する Removed → Added の組を類似度に応じて Modified に統合する
func (e *Engine) Refine(changes []domain.Change) []domain.Change {
	refined := make([]domain.Change, 0, len(changes))

	for i := 0; i < len(changes); i++ {
		current := changes[i]
		if current.Type == domain.ChangeRemoved && i+1 < len(changes) && changes[i+1].Type == domain.ChangeAdded {
			next := changes[i+1]
			similarity := Similarity(current.Original(), next.Comparison())
			if similarity > e.cfg.ModificationThreshold {
				modified := domain.NewModified(current, next, similarity)
				modified.InlineDiff = InlineDiff(current.Original(), next.Comparison())
				refined = append(refined, modified)
				i++
				continue
			}
		}
		refined = append(refined, current)
	}

	return refined
}

// InlineDiff 文字単位の差分を返す（equal / insert / delete）
func InlineDiff(original, comparison string) []domain.InlineSegment {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(original, comparison, false))

	segments := make([]domain.InlineSegment, 0, len(diffs))
	for _, d := range diffs {
		op := domain.InlineEqual
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = domain.InlineInsert
		case diffmatchpatch.DiffDelete:
			op = domain.InlineDelete
		}
		segments = append(segments, domain.InlineSegment{Op: op, Text: d.Text})
	}
	return segments
}
