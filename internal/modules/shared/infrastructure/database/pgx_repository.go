package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"doc-compare-app/internal/config"
	"doc-compare-app/internal/modules/comparison/domain"
)

const pgxSchema = `
CREATE TABLE IF NOT EXISTS comparisons (
	id                TEXT PRIMARY KEY,
	original_text     TEXT NOT NULL,
	comparison_text   TEXT NOT NULL,
	change_percentage INTEGER NOT NULL DEFAULT 0,
	significance      TEXT NOT NULL DEFAULT '',
	analysis_source   TEXT NOT NULL DEFAULT '',
	result            JSONB NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_comparisons_created_at ON comparisons(created_at DESC);
`

// PgxComparisonRepository pgx実装（PostgreSQL）
type PgxComparisonRepository struct {
	pool *pgxpool.Pool
}

// NewPgxComparisonRepository 新しいPgxComparisonRepositoryを作成
func NewPgxComparisonRepository(ctx context.Context, cfg *config.PostgresConfig) (*PgxComparisonRepository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PgxComparisonRepository{pool: pool}, nil
}

// NewPgxComparisonRepositoryWithPool プールから作成（テスト用）
func NewPgxComparisonRepositoryWithPool(pool *pgxpool.Pool) *PgxComparisonRepository {
	return &PgxComparisonRepository{pool: pool}
}

// EnsureSchema テーブルとインデックスを作成
func (r *PgxComparisonRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, pgxSchema); err != nil {
		return fmt.Errorf("failed to create comparisons schema: %w", err)
	}
	return nil
}

// Create 比較結果を保存（同じIDは上書き）
func (r *PgxComparisonRepository) Create(ctx context.Context, result *domain.ComparisonResult) error {
	payload, err := encodePayload(result)
	if err != nil {
		return err
	}
	changePercentage, significance := summaryColumns(result)

	_, err = r.pool.Exec(ctx, `
		INSERT INTO comparisons
			(id, original_text, comparison_text, change_percentage, significance, analysis_source, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			original_text     = EXCLUDED.original_text,
			comparison_text   = EXCLUDED.comparison_text,
			change_percentage = EXCLUDED.change_percentage,
			significance      = EXCLUDED.significance,
			analysis_source   = EXCLUDED.analysis_source,
			result            = EXCLUDED.result`,
		result.ID, result.OriginalText, result.ComparisonText,
		changePercentage, significance, result.AnalysisSource,
		string(payload), result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create comparison: %w", err)
	}
	return nil
}

// FindByID IDで比較結果を検索
func (r *PgxComparisonRepository) FindByID(ctx context.Context, id string) (*domain.ComparisonResult, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, original_text, comparison_text, analysis_source, result, created_at
		FROM comparisons WHERE id = $1`, id)

	result, err := scanComparison(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find comparison: %w", err)
	}
	return result, nil
}

// FindAll 比較結果を新しい順に取得
func (r *PgxComparisonRepository) FindAll(ctx context.Context, limit, offset int) ([]*domain.ComparisonResult, error) {
	query := `
		SELECT id, original_text, comparison_text, analysis_source, result, created_at
		FROM comparisons
		ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find comparisons: %w", err)
	}
	defer rows.Close()

	results := []*domain.ComparisonResult{}
	for rows.Next() {
		result, err := scanComparison(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comparison: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comparisons: %w", err)
	}
	return results, nil
}

// Delete 比較結果を削除
func (r *PgxComparisonRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comparisons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comparison: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

// Close 接続プールを閉じる
func (r *PgxComparisonRepository) Close() error {
	r.pool.Close()
	return nil
}

func scanComparison(row pgx.Row) (*domain.ComparisonResult, error) {
	result := &domain.ComparisonResult{}
	var payload []byte
	if err := row.Scan(
		&result.ID,
		&result.OriginalText,
		&result.ComparisonText,
		&result.AnalysisSource,
		&payload,
		&result.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := decodePayload(payload, result); err != nil {
		return nil, err
	}
	return result, nil
}
