package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"

	_ "github.com/go-sql-driver/mysql"

	"doc-compare-app/internal/config"
	"doc-compare-app/internal/modules/comparison/domain"
)

// Comparison BUNモデル
type Comparison struct {
	bun.BaseModel `bun:"table:comparisons"`

	ID               string    `bun:"id,pk,type:varchar(36)"`
	OriginalText     string    `bun:"original_text,type:longtext,notnull"`
	ComparisonText   string    `bun:"comparison_text,type:longtext,notnull"`
	ChangePercentage int       `bun:"change_percentage,notnull,default:0"`
	Significance     string    `bun:"significance,type:varchar(10),default:''"`
	AnalysisSource   string    `bun:"analysis_source,type:varchar(50),default:''"`
	Result           string    `bun:"result,type:json,notnull"`
	CreatedAt        time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// BunComparisonRepository BUN実装（MySQL）
type BunComparisonRepository struct {
	db *bun.DB
}

// NewBunComparisonRepository 新しいBunComparisonRepositoryを作成
func NewBunComparisonRepository(cfg *config.MySQLConfig) (*BunComparisonRepository, error) {
	sqldb, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := bun.NewDB(sqldb, mysqldialect.New())

	// 接続確認
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &BunComparisonRepository{db: db}, nil
}

// NewBunComparisonRepositoryWithDB DBインスタンスから作成（テスト用）
func NewBunComparisonRepositoryWithDB(db *bun.DB) *BunComparisonRepository {
	return &BunComparisonRepository{db: db}
}

// Migrate テーブルを作成
func (r *BunComparisonRepository) Migrate(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*Comparison)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create comparisons table: %w", err)
	}
	return nil
}

// Create 比較結果を保存
func (r *BunComparisonRepository) Create(ctx context.Context, result *domain.ComparisonResult) error {
	model, err := r.toModel(result)
	if err != nil {
		return err
	}

	if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create comparison: %w", err)
	}
	return nil
}

// FindByID IDで比較結果を検索
func (r *BunComparisonRepository) FindByID(ctx context.Context, id string) (*domain.ComparisonResult, error) {
	model := &Comparison{}
	err := r.db.NewSelect().
		Model(model).
		Where("id = ?", id).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find comparison: %w", err)
	}

	return r.toEntity(model)
}

// FindAll 比較結果を新しい順に取得
func (r *BunComparisonRepository) FindAll(ctx context.Context, limit, offset int) ([]*domain.ComparisonResult, error) {
	var models []Comparison
	query := r.db.NewSelect().
		Model(&models).
		Order("created_at DESC", "id DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to find comparisons: %w", err)
	}

	results := make([]*domain.ComparisonResult, 0, len(models))
	for i := range models {
		result, err := r.toEntity(&models[i])
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// Delete 比較結果を削除
func (r *BunComparisonRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().
		Model((*Comparison)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete comparison: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(id)
	}
	return nil
}

// Close データベース接続を閉じる
func (r *BunComparisonRepository) Close() error {
	return r.db.Close()
}

// toModel エンティティをモデルに変換
func (r *BunComparisonRepository) toModel(result *domain.ComparisonResult) (*Comparison, error) {
	payload, err := encodePayload(result)
	if err != nil {
		return nil, err
	}
	changePercentage, significance := summaryColumns(result)

	return &Comparison{
		ID:               result.ID,
		OriginalText:     result.OriginalText,
		ComparisonText:   result.ComparisonText,
		ChangePercentage: changePercentage,
		Significance:     significance,
		AnalysisSource:   result.AnalysisSource,
		Result:           string(payload),
		CreatedAt:        result.CreatedAt,
	}, nil
}

// toEntity モデルをエンティティに変換
func (r *BunComparisonRepository) toEntity(model *Comparison) (*domain.ComparisonResult, error) {
	result := &domain.ComparisonResult{
		ID:             model.ID,
		OriginalText:   model.OriginalText,
		ComparisonText: model.ComparisonText,
		AnalysisSource: model.AnalysisSource,
		CreatedAt:      model.CreatedAt,
	}
	if err := decodePayload([]byte(model.Result), result); err != nil {
		return nil, err
	}
	return result, nil
}
