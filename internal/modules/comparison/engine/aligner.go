package engine

import (
	"log/slog"

	"doc-compare-app/internal/modules/comparison/domain"
)

// Align LCSで2つの単位列を対応付け、変更リストを返す
//
// 結果は元テキスト・比較テキストそれぞれの順序を保ち、
// 各単位はちょうど1回ずつ現れる。
func (e *Engine) Align(a, b []domain.Unit) []domain.Change {
	m, n := len(a), len(b)
	if m*n > e.cfg.WarnAlignmentCells {
		slog.Warn("Large alignment table",
			"original_units", m,
			"comparison_units", n,
			"cells", m*n,
		)
	}

	ka := make([]matchKey, m)
	for i, u := range a {
		ka[i] = newMatchKey(u.Text)
	}
	kb := make([]matchKey, n)
	for j, u := range b {
		kb[j] = newMatchKey(u.Text)
	}

	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			switch {
			case e.oracle.equivalent(ka[i-1], kb[j-1]):
				dp[i][j] = dp[i-1][j-1] + 1
			case dp[i-1][j] >= dp[i][j-1]:
				dp[i][j] = dp[i-1][j]
			default:
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	// 末尾から辿り、最後に反転する
	changes := make([]domain.Change, 0, m+n)
	i, j := m, n
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && e.oracle.equivalent(ka[i-1], kb[j-1]):
			changes = append(changes, domain.NewUnchanged(a[i-1], b[j-1]))
			i--
			j--
		case j > 0 && (i == 0 || dp[i][j-1] >= dp[i-1][j]):
			changes = append(changes, domain.NewAdded(b[j-1]))
			j--
		default:
			changes = append(changes, domain.NewRemoved(a[i-1]))
			i--
		}
	}

	for l, r := 0, len(changes)-1; l < r; l, r = l+1, r-1 {
		changes[l], changes[r] = changes[r], changes[l]
	}
	return changes
}
