package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrComparisonNotFound 比較結果が存在しない
	ErrComparisonNotFound = errors.New("comparison not found")
	// ErrEmptyInput 入力が空
	ErrEmptyInput = errors.New("input is empty")
	// ErrTextTooLarge 入力サイズ超過
	ErrTextTooLarge = errors.New("text exceeds size limit")
	// ErrUnsupportedFormat 未対応のファイル形式
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrInvalidEncoding UTF-8として不正
	ErrInvalidEncoding = errors.New("text is not valid UTF-8")
	// ErrStorageDisabled 永続化が無効
	ErrStorageDisabled = errors.New("comparison storage is disabled")
)

// ComparisonRepository 比較結果リポジトリのインターフェース
type ComparisonRepository interface {
	Create(ctx context.Context, result *ComparisonResult) error
	FindByID(ctx context.Context, id string) (*ComparisonResult, error)
	FindAll(ctx context.Context, limit, offset int) ([]*ComparisonResult, error)
	Delete(ctx context.Context, id string) error
}

// CacheRepository キャッシュリポジトリのインターフェース
type CacheRepository interface {
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// TextExtractor 文書ファイルからテキストを抽出する外部コラボレータ
type TextExtractor interface {
	// Extract パスのファイルからテキストを抽出
	Extract(ctx context.Context, path string) (string, error)

	// ExtractBytes アップロードされたデータからテキストを抽出
	ExtractBytes(ctx context.Context, data []byte, filename string) (string, error)
}
