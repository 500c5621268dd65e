package di

import (
	"context"
	"strconv"
	"testing"

	"doc-compare-app/internal/config"
	"doc-compare-app/internal/modules/comparison/usecase"
	"doc-compare-app/internal/modules/shared/infrastructure/ai"
	"doc-compare-app/internal/modules/shared/infrastructure/testcontainer"
)

// offlineConfig 外部サービスを使わない設定
func offlineConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	return config.DefaultConfig()
}

func TestNewContainer(t *testing.T) {
	tests := []struct {
		name         string
		modify       func(cfg *config.Config)
		wantErr      bool
		wantProvider string
		wantStorage  bool
		wantCache    bool
	}{
		{
			name:         "正常系: デフォルト設定（APIキーなしはルールベース）",
			modify:       func(cfg *config.Config) {},
			wantProvider: usecase.SourceRuleBased,
		},
		{
			name: "正常系: Anthropicプロバイダー",
			modify: func(cfg *config.Config) {
				cfg.Narrative.Provider = ai.ProviderAnthropic
				cfg.Anthropic.APIKey = "test-api-key"
			},
			wantProvider: ai.ProviderAnthropic,
		},
		{
			name: "正常系: プロバイダーなし",
			modify: func(cfg *config.Config) {
				cfg.Narrative.Provider = "none"
			},
			wantProvider: usecase.SourceRuleBased,
		},
		{
			name: "正常系: Redis接続失敗はキャッシュ無効で継続",
			modify: func(cfg *config.Config) {
				cfg.Redis.Enabled = true
				cfg.Redis.Host = "127.0.0.1"
				cfg.Redis.Port = 1
			},
			wantProvider: usecase.SourceRuleBased,
		},
		{
			name: "正常系: MySQL接続失敗は保存無効で継続",
			modify: func(cfg *config.Config) {
				cfg.Storage.Driver = "mysql"
				cfg.MySQL.Host = "127.0.0.1"
				cfg.MySQL.Port = 1
			},
			wantProvider: usecase.SourceRuleBased,
		},
		{
			name: "正常系: PostgreSQL接続失敗は保存無効で継続",
			modify: func(cfg *config.Config) {
				cfg.Storage.Driver = "postgres"
				cfg.Postgres.Host = "127.0.0.1"
				cfg.Postgres.Port = 1
			},
			wantProvider: usecase.SourceRuleBased,
		},
		{
			name: "異常系: 未知のプロバイダー",
			modify: func(cfg *config.Config) {
				cfg.Narrative.Provider = "openai"
			},
			wantErr: true,
		},
		{
			name: "異常系: 未知のストレージ",
			modify: func(cfg *config.Config) {
				cfg.Storage.Driver = "sqlite"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := offlineConfig(t)
			tt.modify(cfg)

			container, err := NewContainer(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewContainer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer func() { _ = container.Close() }()

			if container.ComparisonUseCase() == nil {
				t.Error("ComparisonUseCase() returned nil")
			}
			if container.ComparisonHandler() == nil {
				t.Error("ComparisonHandler() returned nil")
			}
			if container.HealthHandler() == nil {
				t.Error("HealthHandler() returned nil")
			}
			if got := container.ComparisonUseCase().GetProviderName(); got != tt.wantProvider {
				t.Errorf("provider = %s, want %s", got, tt.wantProvider)
			}
			if container.StorageEnabled() != tt.wantStorage {
				t.Errorf("StorageEnabled() = %v, want %v", container.StorageEnabled(), tt.wantStorage)
			}
			if container.CacheEnabled() != tt.wantCache {
				t.Errorf("CacheEnabled() = %v, want %v", container.CacheEnabled(), tt.wantCache)
			}
		})
	}
}

func TestContainer_CompareWithoutBackends(t *testing.T) {
	container, err := NewContainer(offlineConfig(t))
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}
	defer func() { _ = container.Close() }()

	result, err := container.ComparisonUseCase().CompareTexts(context.Background(),
		"Clause 1: Payment due in 30 days.",
		"Clause 1: Payment due in 45 days.",
	)
	if err != nil {
		t.Fatalf("CompareTexts() error = %v", err)
	}
	if result.AnalysisSource != usecase.SourceRuleBased {
		t.Errorf("AnalysisSource = %s, want %s", result.AnalysisSource, usecase.SourceRuleBased)
	}
}

func TestContainer_Close(t *testing.T) {
	container, err := NewContainer(offlineConfig(t))
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}

	if err := container.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	// 2回目のCloseも問題なく実行できることを確認
	if err := container.Close(); err != nil {
		t.Errorf("Second Close() error = %v", err)
	}
}

func TestNewContainer_WithBackends(t *testing.T) {
	ctx := context.Background()

	redisContainer, err := testcontainer.StartRedis(ctx, t)
	if err != nil {
		t.Fatalf("Failed to start redis container: %v", err)
	}
	defer func() { _ = redisContainer.Close(ctx) }()

	pgContainer, err := testcontainer.StartPostgres(ctx, t)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	defer func() { _ = pgContainer.Close(ctx) }()

	cfg := offlineConfig(t)
	cfg.Redis.Enabled = true
	cfg.Redis.Host = redisContainer.Host
	cfg.Redis.Port = mustAtoi(t, redisContainer.Port)
	cfg.Storage.Driver = "postgres"
	cfg.Postgres.Host = pgContainer.Host
	cfg.Postgres.Port = mustAtoi(t, pgContainer.Port)
	cfg.Postgres.User = pgContainer.User
	cfg.Postgres.Password = pgContainer.Password
	cfg.Postgres.Database = pgContainer.Database

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}
	defer func() { _ = container.Close() }()

	if !container.StorageEnabled() || !container.CacheEnabled() {
		t.Fatalf("storage=%v cache=%v, want both enabled", container.StorageEnabled(), container.CacheEnabled())
	}

	uc := container.ComparisonUseCase()
	result, err := uc.CompareTexts(ctx, "Section 1\nThe term is one year.", "Section 1\nThe term is two years.")
	if err != nil {
		t.Fatalf("CompareTexts() error = %v", err)
	}

	saved, err := uc.GetComparison(ctx, result.ID)
	if err != nil {
		t.Fatalf("GetComparison() error = %v", err)
	}
	if saved.ComparisonText != result.ComparisonText {
		t.Errorf("saved ComparisonText = %q", saved.ComparisonText)
	}
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	if err != nil {
		t.Fatalf("Atoi(%q) error = %v", s, err)
	}
	return n
}
