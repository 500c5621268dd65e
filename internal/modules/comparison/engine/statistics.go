package engine

import (
	"math"

	"doc-compare-app/internal/modules/comparison/domain"
)

// ComputeStatistics 変更リストから件数と変更率を集計する
func ComputeStatistics(changes []domain.Change) domain.Statistics {
	stats := domain.Statistics{Total: len(changes)}

	for _, c := range changes {
		switch c.Type {
		case domain.ChangeUnchanged:
			stats.Unchanged++
		case domain.ChangeAdded:
			stats.Added++
		case domain.ChangeRemoved:
			stats.Removed++
		case domain.ChangeModified:
			stats.Modified++
		}
	}

	if stats.Total > 0 {
		stats.ChangePercentage = int(math.Round(100 * float64(stats.Changed()) / float64(stats.Total)))
	}
	return stats
}
