package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"doc-compare-app/internal/modules/comparison/domain"
	"doc-compare-app/internal/modules/comparison/engine"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Document アップロードされた文書
type Document struct {
	Filename string
	Data     []byte
}

// ComparisonUseCase 文書比較のユースケース
type ComparisonUseCase struct {
	engine         *engine.Engine
	reporter       *Reporter
	comparisonRepo domain.ComparisonRepository
	extractor      domain.TextExtractor
	maxTextBytes   int
}

// NewComparisonUseCase 新しいComparisonUseCaseを作成
//
// comparisonRepo と extractor は nil でもよい（永続化・ファイル比較が無効になる）。
func NewComparisonUseCase(
	eng *engine.Engine,
	reporter *Reporter,
	comparisonRepo domain.ComparisonRepository,
	extractor domain.TextExtractor,
	maxTextBytes int,
) *ComparisonUseCase {
	return &ComparisonUseCase{
		engine:         eng,
		reporter:       reporter,
		comparisonRepo: comparisonRepo,
		extractor:      extractor,
		maxTextBytes:   maxTextBytes,
	}
}

// CompareTexts 2つのテキストを比較して結果を返す
//
// modes を省略した場合は行・文の両モードで比較する。
func (uc *ComparisonUseCase) CompareTexts(ctx context.Context, original, comparison string, modes ...domain.Mode) (*domain.ComparisonResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 入力検証
	if err := domain.ValidateDocumentText(original, uc.maxTextBytes); err != nil {
		return nil, fmt.Errorf("invalid original text: %w", err)
	}
	if err := domain.ValidateDocumentText(comparison, uc.maxTextBytes); err != nil {
		return nil, fmt.Errorf("invalid comparison text: %w", err)
	}

	normalizedA := engine.Normalize(original)
	normalizedB := engine.Normalize(comparison)

	var line, sentence *domain.ModeResult
	for _, mode := range resolveModes(modes) {
		mr, err := uc.engine.Compare(mode, normalizedA, normalizedB)
		if err != nil {
			return nil, fmt.Errorf("failed to compare texts: %w", err)
		}
		switch mode {
		case domain.ModeLine:
			line = mr
		case domain.ModeSentence:
			sentence = mr
		}
	}

	// 結果のインデックスは正規化後のテキストを指す
	result := uc.reporter.BuildResult(ctx, normalizedA, normalizedB, line, sentence)
	result.ID = uuid.NewString()
	result.CreatedAt = time.Now().UTC()

	// 保存の失敗で比較自体は失敗させない
	if uc.comparisonRepo != nil {
		if err := uc.comparisonRepo.Create(ctx, result); err != nil {
			slog.Warn("Failed to save comparison", "id", result.ID, "error", err)
		}
	}

	return result, nil
}

// CompareDocuments 2つのファイルからテキストを抽出して比較する
func (uc *ComparisonUseCase) CompareDocuments(ctx context.Context, pathA, pathB string, modes ...domain.Mode) (*domain.ComparisonResult, error) {
	if uc.extractor == nil {
		return nil, fmt.Errorf("text extractor is not configured")
	}

	var textA, textB string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := uc.extractor.Extract(gctx, pathA)
		if err != nil {
			return fmt.Errorf("failed to extract %s: %w", pathA, err)
		}
		textA = text
		return nil
	})
	g.Go(func() error {
		text, err := uc.extractor.Extract(gctx, pathB)
		if err != nil {
			return fmt.Errorf("failed to extract %s: %w", pathB, err)
		}
		textB = text
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return uc.CompareTexts(ctx, textA, textB, modes...)
}

// CompareUploads アップロードされた2文書を比較する
func (uc *ComparisonUseCase) CompareUploads(ctx context.Context, original, comparison Document, modes ...domain.Mode) (*domain.ComparisonResult, error) {
	if uc.extractor == nil {
		return nil, fmt.Errorf("text extractor is not configured")
	}

	for _, doc := range []Document{original, comparison} {
		if err := domain.ValidateUpload(doc.Data, doc.Filename, uc.maxTextBytes); err != nil {
			return nil, fmt.Errorf("invalid upload %q: %w", doc.Filename, err)
		}
	}

	var textA, textB string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := uc.extractor.ExtractBytes(gctx, original.Data, original.Filename)
		if err != nil {
			return fmt.Errorf("failed to extract %s: %w", original.Filename, err)
		}
		textA = text
		return nil
	})
	g.Go(func() error {
		text, err := uc.extractor.ExtractBytes(gctx, comparison.Data, comparison.Filename)
		if err != nil {
			return fmt.Errorf("failed to extract %s: %w", comparison.Filename, err)
		}
		textB = text
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return uc.CompareTexts(ctx, textA, textB, modes...)
}

// GetComparison 保存済みの比較結果を取得
func (uc *ComparisonUseCase) GetComparison(ctx context.Context, id string) (*domain.ComparisonResult, error) {
	if uc.comparisonRepo == nil {
		return nil, domain.ErrStorageDisabled
	}
	return uc.comparisonRepo.FindByID(ctx, id)
}

// ListComparisons 保存済みの比較結果を新しい順に取得
func (uc *ComparisonUseCase) ListComparisons(ctx context.Context, limit, offset int) ([]*domain.ComparisonResult, error) {
	if uc.comparisonRepo == nil {
		return nil, domain.ErrStorageDisabled
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return uc.comparisonRepo.FindAll(ctx, limit, offset)
}

// DeleteComparison 保存済みの比較結果を削除
func (uc *ComparisonUseCase) DeleteComparison(ctx context.Context, id string) error {
	if uc.comparisonRepo == nil {
		return domain.ErrStorageDisabled
	}
	return uc.comparisonRepo.Delete(ctx, id)
}

// GetProviderName 解説プロバイダー名を取得
func (uc *ComparisonUseCase) GetProviderName() string {
	if uc.reporter.analyzer == nil {
		return SourceRuleBased
	}
	return uc.reporter.analyzer.ProviderName()
}

// resolveModes 重複を除いた比較モード（省略時は両方）
func resolveModes(modes []domain.Mode) []domain.Mode {
	if len(modes) == 0 {
		return []domain.Mode{domain.ModeLine, domain.ModeSentence}
	}

	seen := make(map[domain.Mode]bool, len(modes))
	resolved := make([]domain.Mode, 0, len(modes))
	for _, m := range modes {
		if seen[m] {
			continue
		}
		if _, ok := domain.ParseMode(string(m)); !ok {
			continue
		}
		seen[m] = true
		resolved = append(resolved, m)
	}
	if len(resolved) == 0 {
		return []domain.Mode{domain.ModeLine, domain.ModeSentence}
	}
	return resolved
}
