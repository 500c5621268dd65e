package di

import (
	"context"
	"fmt"
	"log/slog"

	"doc-compare-app/internal/config"
	comparisonDomain "doc-compare-app/internal/modules/comparison/domain"
	"doc-compare-app/internal/modules/comparison/engine"
	comparisonHandler "doc-compare-app/internal/modules/comparison/presentation/handler"
	comparisonUsecase "doc-compare-app/internal/modules/comparison/usecase"
	sharedAI "doc-compare-app/internal/modules/shared/infrastructure/ai"
	sharedCache "doc-compare-app/internal/modules/shared/infrastructure/cache"
	sharedDB "doc-compare-app/internal/modules/shared/infrastructure/database"
	"doc-compare-app/internal/modules/shared/infrastructure/extractor"
	"doc-compare-app/internal/presentation/http/handler"
)

// Container DIコンテナ
type Container struct {
	// Shared Infrastructure
	geminiRepo *sharedAI.GeminiRepository
	analyzer   comparisonDomain.NarrativeAnalyzer
	cacheRepo  *sharedCache.RedisRepository
	bunRepo    *sharedDB.BunComparisonRepository
	pgxRepo    *sharedDB.PgxComparisonRepository
	extractor  *extractor.FileExtractor

	// Comparison Module
	comparisonUseCase *comparisonUsecase.ComparisonUseCase
	comparisonHandler *comparisonHandler.ComparisonHandler

	healthHandler *handler.HealthHandler
}

// NewContainer 新しいContainerを作成
//
// Redisとデータベースの初期化に失敗した場合はログを出して無効化する。
// 比較処理そのものは外部サービスなしで動作する。
func NewContainer(cfg *config.Config) (*Container, error) {
	ctx := context.Background()
	container := &Container{}

	// Shared Infrastructure: Narrative Analyzer
	if err := container.initAnalyzer(ctx, cfg); err != nil {
		return nil, err
	}

	// Shared Infrastructure: Cache Repository
	if cfg.Redis.Enabled {
		cacheRepo, err := sharedCache.NewRedisRepository(&cfg.Redis)
		if err != nil {
			slog.Warn("Redis unavailable, narrative cache disabled", "error", err)
		} else {
			container.cacheRepo = cacheRepo
		}
	}

	// Shared Infrastructure: Comparison Repository
	if err := container.initStorage(ctx, cfg); err != nil {
		return nil, err
	}

	// Shared Infrastructure: Text Extractor
	container.extractor = extractor.NewFileExtractor(&cfg.Extraction)

	// Comparison Module: UseCase
	var cache comparisonDomain.CacheRepository
	if container.cacheRepo != nil {
		cache = container.cacheRepo
	}
	reporter := comparisonUsecase.NewReporter(container.analyzer, cache, cfg.Narrative)
	container.comparisonUseCase = comparisonUsecase.NewComparisonUseCase(
		engine.New(cfg.Comparison),
		reporter,
		container.comparisonRepository(),
		container.extractor,
		cfg.Comparison.MaxTextBytes,
	)

	// Comparison Module: Handler
	container.comparisonHandler = comparisonHandler.NewComparisonHandler(container.comparisonUseCase)
	container.healthHandler = handler.NewHealthHandler(map[string]bool{
		"storage":   container.StorageEnabled(),
		"cache":     container.CacheEnabled(),
		"narrative": container.analyzer != nil,
	})

	return container, nil
}

// initAnalyzer 解説プロバイダーを初期化
func (c *Container) initAnalyzer(ctx context.Context, cfg *config.Config) error {
	switch cfg.Narrative.Provider {
	case sharedAI.ProviderGemini:
		geminiRepo, err := sharedAI.NewGeminiRepository(ctx, &cfg.Gemini)
		if err != nil {
			slog.Warn("Gemini unavailable, using rule-based analysis", "error", err)
			return nil
		}
		c.geminiRepo = geminiRepo
		c.analyzer = geminiRepo
	case sharedAI.ProviderAnthropic:
		c.analyzer = sharedAI.NewClaudeRepository(&cfg.Anthropic)
	case "none", "":
	default:
		return fmt.Errorf("unknown narrative provider: %q", cfg.Narrative.Provider)
	}
	return nil
}

// initStorage 比較結果の保存先を初期化
func (c *Container) initStorage(ctx context.Context, cfg *config.Config) error {
	switch cfg.Storage.Driver {
	case "mysql":
		repo, err := sharedDB.NewBunComparisonRepository(&cfg.MySQL)
		if err != nil {
			slog.Warn("MySQL unavailable, comparison storage disabled", "error", err)
			return nil
		}
		if err := repo.Migrate(ctx); err != nil {
			_ = repo.Close()
			slog.Warn("MySQL migration failed, comparison storage disabled", "error", err)
			return nil
		}
		c.bunRepo = repo
	case "postgres":
		repo, err := sharedDB.NewPgxComparisonRepository(ctx, &cfg.Postgres)
		if err != nil {
			slog.Warn("PostgreSQL unavailable, comparison storage disabled", "error", err)
			return nil
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = repo.Close()
			slog.Warn("PostgreSQL schema setup failed, comparison storage disabled", "error", err)
			return nil
		}
		c.pgxRepo = repo
	case "none", "":
	default:
		return fmt.Errorf("unknown storage driver: %q", cfg.Storage.Driver)
	}
	return nil
}

// comparisonRepository 有効なリポジトリ（無効ならnil）
func (c *Container) comparisonRepository() comparisonDomain.ComparisonRepository {
	switch {
	case c.bunRepo != nil:
		return c.bunRepo
	case c.pgxRepo != nil:
		return c.pgxRepo
	default:
		return nil
	}
}

// ComparisonUseCase 比較ユースケースを取得
func (c *Container) ComparisonUseCase() *comparisonUsecase.ComparisonUseCase {
	return c.comparisonUseCase
}

// ComparisonHandler 比較APIハンドラーを取得
func (c *Container) ComparisonHandler() *comparisonHandler.ComparisonHandler {
	return c.comparisonHandler
}

// HealthHandler ヘルスチェックハンドラーを取得
func (c *Container) HealthHandler() *handler.HealthHandler {
	return c.healthHandler
}

// StorageEnabled 比較結果の保存が有効か
func (c *Container) StorageEnabled() bool {
	return c.comparisonRepository() != nil
}

// CacheEnabled 解説キャッシュが有効か
func (c *Container) CacheEnabled() bool {
	return c.cacheRepo != nil
}

// Close リソースをクローズ（2回目以降は何もしない）
func (c *Container) Close() error {
	if c.geminiRepo != nil {
		err := c.geminiRepo.Close()
		c.geminiRepo = nil
		if err != nil {
			return fmt.Errorf("failed to close gemini client: %w", err)
		}
	}

	if c.cacheRepo != nil {
		err := c.cacheRepo.Close()
		c.cacheRepo = nil
		if err != nil {
			return fmt.Errorf("failed to close cache repository: %w", err)
		}
	}

	if c.bunRepo != nil {
		err := c.bunRepo.Close()
		c.bunRepo = nil
		if err != nil {
			return fmt.Errorf("failed to close comparison repository: %w", err)
		}
	}

	if c.pgxRepo != nil {
		err := c.pgxRepo.Close()
		c.pgxRepo = nil
		if err != nil {
			return fmt.Errorf("failed to close comparison repository: %w", err)
		}
	}

	return nil
}
