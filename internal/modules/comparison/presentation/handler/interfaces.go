package handler

import (
	"context"

	"doc-compare-app/internal/modules/comparison/domain"
	"doc-compare-app/internal/modules/comparison/usecase"
)

// ComparisonUseCaseInterface は比較ユースケースのインターフェース
type ComparisonUseCaseInterface interface {
	CompareTexts(ctx context.Context, original, comparison string, modes ...domain.Mode) (*domain.ComparisonResult, error)
	CompareUploads(ctx context.Context, original, comparison usecase.Document, modes ...domain.Mode) (*domain.ComparisonResult, error)
	GetComparison(ctx context.Context, id string) (*domain.ComparisonResult, error)
	ListComparisons(ctx context.Context, limit, offset int) ([]*domain.ComparisonResult, error)
	DeleteComparison(ctx context.Context, id string) error
}
