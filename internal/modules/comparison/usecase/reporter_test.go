package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"doc-compare-app/internal/config"
	"doc-compare-app/internal/modules/comparison/domain"
)

func sampleModeResult() *domain.ModeResult {
	changes := []domain.Change{
		domain.NewUnchanged(domain.Unit{Text: "Clause 2: Term is one year."}, domain.Unit{Text: "Clause 2: Term is one year."}),
		domain.NewRemoved(domain.Unit{Text: "Clause 3: Old warranty.", Index: 1}),
		domain.NewAdded(domain.Unit{Text: "Clause 4: New indemnity.", Index: 1}),
	}
	return &domain.ModeResult{
		Mode:    domain.ModeSentence,
		Changes: changes,
		Statistics: domain.Statistics{
			Total: 3, Unchanged: 1, Added: 1, Removed: 1, ChangePercentage: 67,
		},
	}
}

func TestRuleBasedAnalysis(t *testing.T) {
	tests := []struct {
		name                string
		stats               domain.Statistics
		changes             []domain.Change
		wantSignificance    domain.Significance
		wantKeyChanges      int
		wantRecommendations []string
	}{
		{
			name:                "正常系: 変更なし",
			stats:               domain.Statistics{Total: 2, Unchanged: 2},
			wantSignificance:    domain.SignificanceLow,
			wantKeyChanges:      0,
			wantRecommendations: []string{"No action required"},
		},
		{
			name:                "正常系: 追加と削除",
			stats:               sampleModeResult().Statistics,
			changes:             sampleModeResult().Changes,
			wantSignificance:    domain.SignificanceHigh,
			wantKeyChanges:      2,
			wantRecommendations: []string{"removed provisions", "newly added", "full legal review"},
		},
		{
			name: "境界値: 変更率15%は medium",
			stats: domain.Statistics{
				Total: 20, Unchanged: 17, Modified: 3, ChangePercentage: 15,
			},
			wantSignificance:    domain.SignificanceMedium,
			wantRecommendations: []string{"modified clauses"},
		},
		{
			name:             "境界値: 空の統計",
			stats:            domain.Statistics{},
			wantSignificance: domain.SignificanceLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RuleBasedAnalysis(tt.stats, tt.changes)

			if got.Summary == "" || got.OverallAssessment == "" {
				t.Error("summary and overall assessment must be populated")
			}
			if got.KeyChanges == nil || got.Recommendations == nil {
				t.Error("slices must be non-nil")
			}
			if got.Significance != tt.wantSignificance {
				t.Errorf("Significance = %s, want %s", got.Significance, tt.wantSignificance)
			}
			if len(got.KeyChanges) != tt.wantKeyChanges {
				t.Errorf("len(KeyChanges) = %d, want %d", len(got.KeyChanges), tt.wantKeyChanges)
			}

			joined := strings.Join(got.Recommendations, "\n")
			for _, want := range tt.wantRecommendations {
				if !strings.Contains(joined, want) {
					t.Errorf("recommendations %q missing %q", got.Recommendations, want)
				}
			}
		})
	}
}

func TestRuleBasedAnalysis_KeyChangesCapped(t *testing.T) {
	var changes []domain.Change
	for i := 0; i < 8; i++ {
		changes = append(changes, domain.NewAdded(domain.Unit{Text: strings.Repeat("x", 200), Index: i}))
	}

	got := RuleBasedAnalysis(domain.Statistics{Total: 8, Added: 8, ChangePercentage: 100}, changes)
	if len(got.KeyChanges) != keyChangeLimit {
		t.Fatalf("len(KeyChanges) = %d, want %d", len(got.KeyChanges), keyChangeLimit)
	}
	if !strings.HasSuffix(got.KeyChanges[0], "...") {
		t.Errorf("long text should be truncated, got %q", got.KeyChanges[0])
	}
}

func TestReporter_Analyze(t *testing.T) {
	t.Run("正常系: 解説器なしはルールベース", func(t *testing.T) {
		r := NewReporter(nil, nil, config.NarrativeConfig{})

		analysis, source := r.Analyze(context.Background(), sampleModeResult())
		if source != SourceRuleBased {
			t.Errorf("source = %s, want %s", source, SourceRuleBased)
		}
		if analysis.Significance != domain.SignificanceHigh {
			t.Errorf("Significance = %s, want high", analysis.Significance)
		}
	})

	t.Run("正常系: エラー時はフォールバック", func(t *testing.T) {
		analyzer := &MockNarrativeAnalyzer{
			AnalyzeFunc: func(ctx context.Context, changes []domain.NarrativeChange) (*domain.NarrativeAnalysis, error) {
				return nil, errors.New("api unavailable")
			},
		}
		r := NewReporter(analyzer, nil, config.NarrativeConfig{})

		analysis, source := r.Analyze(context.Background(), sampleModeResult())
		if source != SourceRuleBased || analysis == nil {
			t.Errorf("source = %s, want fallback", source)
		}
	})

	t.Run("正常系: タイムアウト時はフォールバック", func(t *testing.T) {
		analyzer := &MockNarrativeAnalyzer{
			AnalyzeFunc: func(ctx context.Context, changes []domain.NarrativeChange) (*domain.NarrativeAnalysis, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}
		r := NewReporter(analyzer, nil, config.NarrativeConfig{})
		r.timeout = 20 * time.Millisecond

		start := time.Now()
		_, source := r.Analyze(context.Background(), sampleModeResult())
		if source != SourceRuleBased {
			t.Errorf("source = %s, want fallback", source)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("Analyze took %v, timeout not applied", elapsed)
		}
	})

	t.Run("正常系: 空の要約はフォールバック", func(t *testing.T) {
		analyzer := &MockNarrativeAnalyzer{
			AnalyzeFunc: func(ctx context.Context, changes []domain.NarrativeChange) (*domain.NarrativeAnalysis, error) {
				return &domain.NarrativeAnalysis{}, nil
			},
		}
		r := NewReporter(analyzer, nil, config.NarrativeConfig{})

		if _, source := r.Analyze(context.Background(), sampleModeResult()); source != SourceRuleBased {
			t.Errorf("source = %s, want fallback", source)
		}
	})

	t.Run("正常系: 不明な重要度は統計値で補正", func(t *testing.T) {
		analyzer := &MockNarrativeAnalyzer{
			AnalyzeFunc: func(ctx context.Context, changes []domain.NarrativeChange) (*domain.NarrativeAnalysis, error) {
				return &domain.NarrativeAnalysis{Summary: "changed", Significance: "critical"}, nil
			},
		}
		r := NewReporter(analyzer, nil, config.NarrativeConfig{})

		analysis, source := r.Analyze(context.Background(), sampleModeResult())
		if source != "mock" {
			t.Errorf("source = %s, want mock", source)
		}
		if analysis.Significance != domain.SignificanceHigh {
			t.Errorf("Significance = %s, want high", analysis.Significance)
		}
		if analysis.KeyChanges == nil || analysis.Recommendations == nil || analysis.OverallAssessment == "" {
			t.Errorf("analysis not fully populated: %+v", analysis)
		}
	})

	t.Run("正常系: 変更なしでは解説器を呼ばない", func(t *testing.T) {
		called := false
		analyzer := &MockNarrativeAnalyzer{
			AnalyzeFunc: func(ctx context.Context, changes []domain.NarrativeChange) (*domain.NarrativeAnalysis, error) {
				called = true
				return nil, nil
			},
		}
		r := NewReporter(analyzer, nil, config.NarrativeConfig{})

		unchanged := &domain.ModeResult{Changes: []domain.Change{}}
		if _, source := r.Analyze(context.Background(), unchanged); source != SourceRuleBased {
			t.Errorf("source = %s, want rule_based", source)
		}
		if called {
			t.Error("analyzer should not be called without changes")
		}
	})

	t.Run("正常系: 入力は最大件数で切り詰め", func(t *testing.T) {
		var got int
		analyzer := &MockNarrativeAnalyzer{
			AnalyzeFunc: func(ctx context.Context, changes []domain.NarrativeChange) (*domain.NarrativeAnalysis, error) {
				got = len(changes)
				return &domain.NarrativeAnalysis{Summary: "ok", Significance: "low"}, nil
			},
		}
		r := NewReporter(analyzer, nil, config.NarrativeConfig{MaxEntries: 10})

		var changes []domain.Change
		for i := 0; i < 25; i++ {
			changes = append(changes, domain.NewAdded(domain.Unit{Text: "new clause", Index: i}))
		}
		r.Analyze(context.Background(), &domain.ModeResult{Changes: changes})

		if got != 10 {
			t.Errorf("analyzer received %d entries, want 10", got)
		}
	})
}

func TestReporter_Analyze_Cache(t *testing.T) {
	calls := 0
	analyzer := &MockNarrativeAnalyzer{
		AnalyzeFunc: func(ctx context.Context, changes []domain.NarrativeChange) (*domain.NarrativeAnalysis, error) {
			calls++
			return &domain.NarrativeAnalysis{Summary: "cached summary", Significance: "medium"}, nil
		},
	}
	cache := NewMockCacheRepository()
	r := NewReporter(analyzer, cache, config.NarrativeConfig{})

	first, _ := r.Analyze(context.Background(), sampleModeResult())
	second, source := r.Analyze(context.Background(), sampleModeResult())

	if calls != 1 {
		t.Errorf("analyzer called %d times, want 1", calls)
	}
	if source != "mock" {
		t.Errorf("source = %s, want mock", source)
	}
	if second.Summary != first.Summary {
		t.Errorf("cached Summary = %q, want %q", second.Summary, first.Summary)
	}

	var keys []string
	for k := range cache.data {
		keys = append(keys, k)
	}
	if len(keys) != 1 || !strings.HasPrefix(keys[0], "comparison:narrative:mock:") {
		t.Errorf("cache keys = %v, want one comparison:narrative:mock:* key", keys)
	}
}

func TestReporter_BuildResult(t *testing.T) {
	r := NewReporter(nil, nil, config.NarrativeConfig{})
	line := sampleModeResult()
	line.Mode = domain.ModeLine

	result := r.BuildResult(context.Background(), "a", "b", line, nil)
	if result.Primary() != line {
		t.Error("line result should be primary")
	}
	if result.Analysis == nil || result.AnalysisSource != SourceRuleBased {
		t.Errorf("analysis = %+v, source = %s", result.Analysis, result.AnalysisSource)
	}
	if result.OriginalText != "a" || result.ComparisonText != "b" {
		t.Error("input texts should be kept on the result")
	}
}
