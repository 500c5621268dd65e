package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"doc-compare-app/internal/config"
	"doc-compare-app/internal/presentation/di"
	"doc-compare-app/internal/presentation/http/router"
)

const defaultPort = "8080"

// AppConfig アプリケーション設定
type AppConfig struct {
	ConfigPath string
	Port       string
}

// ServerInterface サーバーインターフェース（Seam化）
type ServerInterface interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// App アプリケーション構造体（Seamパターン）
type App struct {
	config     *AppConfig
	container  *di.Container
	server     *http.Server
	serverSeam ServerInterface // テスト用のSeam
}

// NewApp 新しいAppを作成
func NewApp(appCfg *AppConfig) (*App, error) {
	// ポートのデフォルト値設定
	if appCfg.Port == "" {
		appCfg.Port = defaultPort
	}

	// 設定の読み込み
	cfg, err := config.Load(appCfg.ConfigPath)
	if err != nil {
		log.Printf("Failed to load config: %v. Using defaults.", err)
		cfg = config.DefaultConfig()
	}

	// DIコンテナの初期化
	container, err := di.NewContainer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DI container: %w", err)
	}

	// ルーターの作成
	handler := router.NewRouter(container)

	// サーバーの設定（アップロードと解説生成を考慮したタイムアウト）
	server := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Appの作成
	app := &App{
		config:    appCfg,
		container: container,
		server:    server,
	}
	app.serverSeam = server

	return app, nil
}

// Start サーバーを起動
func (a *App) Start() error {
	// 起動メッセージ
	a.printStartupMessage()

	// サーバー起動（Seamを使用）
	return a.serverSeam.ListenAndServe()
}

// printStartupMessage 起動メッセージを出力
func (a *App) printStartupMessage() {
	fmt.Println("=== Document Comparison Server ===")
	fmt.Printf("Narrative provider: %s\n", a.container.ComparisonUseCase().GetProviderName())
	fmt.Printf("Storage: %s / Cache: %s\n", enabledLabel(a.container.StorageEnabled()), enabledLabel(a.container.CacheEnabled()))
	fmt.Printf("Server listening on http://0.0.0.0:%s\n", a.config.Port)
	fmt.Println()
	fmt.Println("Endpoints:")
	fmt.Println("  GET    /health                      - Health check")
	fmt.Println("  POST   /api/v1/comparisons          - Compare two texts")
	fmt.Println("  POST   /api/v1/comparisons/upload   - Compare two uploaded documents")
	fmt.Println("  GET    /api/v1/comparisons          - List stored comparisons")
	fmt.Println("  GET    /api/v1/comparisons/{id}     - Get a stored comparison")
	fmt.Println("  DELETE /api/v1/comparisons/{id}     - Delete a stored comparison")
	fmt.Println()
}

// enabledLabel 有効/無効の表示
func enabledLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

// Shutdown サーバーをシャットダウン
func (a *App) Shutdown(ctx context.Context) error {
	log.Println("Shutting down server...")

	// サーバーのシャットダウン（Seamを使用）
	if err := a.serverSeam.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// コンテナのクローズ
	if err := a.container.Close(); err != nil {
		return fmt.Errorf("container close failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Run アプリケーションを実行（グレースフルシャットダウン付き）
func (a *App) Run() error {
	// サーバー起動（goroutine）
	serverErr := make(chan error, 1)
	go func() {
		if err := a.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// シグナルの待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
		// グレースフルシャットダウン
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return a.Shutdown(ctx)
	}
}

// appConfigFromEnv 環境変数とホームディレクトリから起動設定を組み立てる
func appConfigFromEnv() *AppConfig {
	// ホームディレクトリの取得
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Failed to get home directory: %v. Using current directory.", err)
		homeDir = "."
	}

	// ポート番号の取得
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	return &AppConfig{
		ConfigPath: filepath.Join(homeDir, ".doc-compare-app", "config.yaml"),
		Port:       port,
	}
}

// realMain 実際のmain処理（テスト可能にするため分離）
func realMain() error {
	// アプリケーションの作成と実行
	app, err := NewApp(appConfigFromEnv())
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}
	return app.Run()
}

func main() {
	if err := realMain(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}
