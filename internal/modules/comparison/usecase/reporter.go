package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"doc-compare-app/internal/config"
	"doc-compare-app/internal/modules/comparison/domain"
)

// SourceRuleBased 統計から生成した解説であることを示す
const SourceRuleBased = "rule_based"

const (
	keyChangeLimit   = 5
	keyChangeExcerpt = 80
)

// Reporter 比較結果の組み立てと解説生成（外部AI → ルールベースの2段構成）
type Reporter struct {
	analyzer   domain.NarrativeAnalyzer
	cacheRepo  domain.CacheRepository
	timeout    time.Duration
	maxEntries int
	cacheTTL   time.Duration
}

// NewReporter 新しいReporterを作成
//
// analyzer が nil の場合は常にルールベースの解説を使う。
// cacheRepo が nil の場合はキャッシュしない。
func NewReporter(analyzer domain.NarrativeAnalyzer, cacheRepo domain.CacheRepository, cfg config.NarrativeConfig) *Reporter {
	r := &Reporter{
		analyzer:   analyzer,
		cacheRepo:  cacheRepo,
		timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
		maxEntries: cfg.MaxEntries,
		cacheTTL:   time.Duration(cfg.CacheTTLHours) * time.Hour,
	}
	if r.timeout <= 0 {
		r.timeout = 30 * time.Second
	}
	if r.maxEntries <= 0 {
		r.maxEntries = 10
	}
	if r.cacheTTL <= 0 {
		r.cacheTTL = 24 * time.Hour
	}
	return r
}

// BuildResult モード別の結果と解説をまとめて比較結果を作成
func (r *Reporter) BuildResult(ctx context.Context, originalText, comparisonText string, line, sentence *domain.ModeResult) *domain.ComparisonResult {
	result := &domain.ComparisonResult{
		OriginalText:   originalText,
		ComparisonText: comparisonText,
		Line:           line,
		Sentence:       sentence,
	}
	result.Analysis, result.AnalysisSource = r.Analyze(ctx, result.Primary())
	return result
}

// Analyze 主結果から解説を生成する
//
// 外部AIが未設定・失敗・タイムアウト・不正な応答の場合はルールベースの解説を返す。
// エラーは呼び出し側に伝播しない。
func (r *Reporter) Analyze(ctx context.Context, primary *domain.ModeResult) (*domain.NarrativeAnalysis, string) {
	if primary == nil {
		primary = &domain.ModeResult{Changes: []domain.Change{}}
	}
	fallback := RuleBasedAnalysis(primary.Statistics, primary.Changes)

	if r.analyzer == nil {
		return fallback, SourceRuleBased
	}

	changes := domain.ToNarrativeChanges(primary.Changes, r.maxEntries)
	if len(changes) == 0 {
		return fallback, SourceRuleBased
	}

	provider := r.analyzer.ProviderName()
	cacheKey, keyErr := r.generateCacheKey(provider, changes)

	// キャッシュチェック
	if r.cacheRepo != nil && keyErr == nil {
		if cached, err := r.cacheRepo.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			var analysis domain.NarrativeAnalysis
			if err := json.Unmarshal(cached, &analysis); err == nil && analysis.Summary != "" {
				return &analysis, provider
			}
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	analysis, err := r.analyzer.Analyze(callCtx, changes)
	if err == nil && (analysis == nil || analysis.Summary == "") {
		err = fmt.Errorf("empty analysis returned")
	}
	if err != nil {
		slog.Warn("Narrative analysis failed, using rule-based analysis",
			"provider", provider,
			"error", err,
		)
		return fallback, SourceRuleBased
	}

	coerceAnalysis(analysis, fallback)

	// キャッシュに保存（失敗は無視）
	if r.cacheRepo != nil && keyErr == nil {
		if data, err := json.Marshal(analysis); err == nil {
			if err := r.cacheRepo.Set(ctx, cacheKey, data, r.cacheTTL); err != nil {
				slog.Warn("Failed to cache narrative analysis", "error", err)
			}
		}
	}

	return analysis, provider
}

// coerceAnalysis 外部AIの出力を結果の形に合わせて補正
func coerceAnalysis(analysis, fallback *domain.NarrativeAnalysis) {
	if s, ok := domain.ParseSignificance(string(analysis.Significance)); ok {
		analysis.Significance = s
	} else {
		analysis.Significance = fallback.Significance
	}
	if analysis.KeyChanges == nil {
		analysis.KeyChanges = []string{}
	}
	if analysis.Recommendations == nil {
		analysis.Recommendations = []string{}
	}
	if analysis.OverallAssessment == "" {
		analysis.OverallAssessment = fallback.OverallAssessment
	}
}

// generateCacheKey 解説入力のハッシュからキャッシュキーを生成
func (r *Reporter) generateCacheKey(provider string, changes []domain.NarrativeChange) (string, error) {
	data, err := json.Marshal(changes)
	if err != nil {
		return "", fmt.Errorf("failed to marshal narrative input: %w", err)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("comparison:narrative:%s:%x", provider, hash), nil
}

// RuleBasedAnalysis 統計のみから決定的に解説を組み立てる
func RuleBasedAnalysis(stats domain.Statistics, changes []domain.Change) *domain.NarrativeAnalysis {
	significance := stats.Significance()

	summary := "No differences were found between the two documents."
	if stats.Changed() > 0 {
		summary = fmt.Sprintf("%d of %d units differ (%d%%): %d added, %d removed, %d modified.",
			stats.Changed(), stats.Total, stats.ChangePercentage,
			stats.Added, stats.Removed, stats.Modified)
	}

	keyChanges := []string{}
	for _, c := range changes {
		if len(keyChanges) >= keyChangeLimit {
			break
		}
		switch c.Type {
		case domain.ChangeAdded:
			keyChanges = append(keyChanges, "Added: "+excerpt(c.Comparison()))
		case domain.ChangeRemoved:
			keyChanges = append(keyChanges, "Removed: "+excerpt(c.Original()))
		case domain.ChangeModified:
			keyChanges = append(keyChanges, "Modified: "+excerpt(c.Comparison()))
		}
	}

	recommendations := []string{}
	if stats.Removed > 0 {
		recommendations = append(recommendations, "Review removed provisions to confirm no required obligations were dropped.")
	}
	if stats.Added > 0 {
		recommendations = append(recommendations, "Review newly added provisions for new obligations or liabilities.")
	}
	if stats.Modified > 0 {
		recommendations = append(recommendations, "Check modified clauses for changed amounts and deadlines.")
	}
	if stats.ChangePercentage > 20 {
		recommendations = append(recommendations, "Changes are substantial. A full legal review is recommended.")
	}
	if len(recommendations) == 0 {
		recommendations = append(recommendations, "No action required. The documents are equivalent.")
	}

	var assessment string
	switch significance {
	case domain.SignificanceHigh:
		assessment = "The revision substantially changes the document."
	case domain.SignificanceMedium:
		assessment = "The revision makes moderate changes to the document."
	default:
		assessment = "The revision makes minor or no changes to the document."
	}

	return &domain.NarrativeAnalysis{
		Summary:           summary,
		Significance:      significance,
		KeyChanges:        keyChanges,
		Recommendations:   recommendations,
		OverallAssessment: assessment,
	}
}

func excerpt(text string) string {
	if utf8.RuneCountInString(text) <= keyChangeExcerpt {
		return text
	}
	runes := []rune(text)
	return string(runes[:keyChangeExcerpt]) + "..."
}
