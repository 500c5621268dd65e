package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config アプリケーション全体の設定
type Config struct {
	Narrative  NarrativeConfig  `yaml:"narrative"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	Comparison ComparisonConfig `yaml:"comparison"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Storage    StorageConfig    `yaml:"storage"`
	Redis      RedisConfig      `yaml:"redis"`
	MySQL      MySQLConfig      `yaml:"mysql"`
	Postgres   PostgresConfig   `yaml:"postgres"`
}

// NarrativeConfig 差分の解説生成（外部AI）の設定
type NarrativeConfig struct {
	// Provider gemini / anthropic / none
	Provider       string `yaml:"provider"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxEntries     int    `yaml:"max_entries"`
	CacheTTLHours  int    `yaml:"cache_ttl_hours"`
}

// GeminiConfig Gemini APIの設定
type GeminiConfig struct {
	APIKey          string  `yaml:"api_key"`
	Model           string  `yaml:"model"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
	Temperature     float32 `yaml:"temperature"`
}

// AnthropicConfig Anthropic APIの設定
type AnthropicConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// ComparisonConfig 比較エンジンの設定
//
// 0以下の値は未設定とみなして既定値で補完する。そのため各しきい値に0は指定できない
// （0.95 / 0.4 / 10 / 20 / 4,000,000 / 16,000,000 / 5MiB）。
type ComparisonConfig struct {
	AlignmentThreshold    float64 `yaml:"alignment_threshold"`
	ModificationThreshold float64 `yaml:"modification_threshold"`
	MinSentenceLength     int     `yaml:"min_sentence_length"`
	ShortUnitLength       int     `yaml:"short_unit_length"`
	WarnAlignmentCells    int     `yaml:"warn_alignment_cells"`
	// MaxAlignmentCells 1モードあたりのアライメント表の上限（超過は入力サイズ超過）
	MaxAlignmentCells     int     `yaml:"max_alignment_cells"`
	MaxTextBytes          int     `yaml:"max_text_bytes"`
}

// ExtractionConfig テキスト抽出サービスの設定
type ExtractionConfig struct {
	ServiceURL     string `yaml:"service_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// StorageConfig 比較結果の保存先
type StorageConfig struct {
	// Driver mysql / postgres / none
	Driver string `yaml:"driver"`
}

// RedisConfig Redisの設定
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MySQLConfig MySQLの設定
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig PostgreSQLの設定
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN pgx用の接続文字列を返す
func (c PostgresConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslMode)
}

// DSN MySQL用の接続文字列を返す
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Load 設定ファイルを読み込む
func Load(configPath string) (*Config, error) {
	// 設定ファイルが存在しない場合はデフォルト設定を返す
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 環境変数の展開
	dataStr := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(dataStr), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()

	return cfg, nil
}

// DefaultConfig デフォルト設定を返す
func DefaultConfig() *Config {
	// Redis/DBのホストはテスト環境では localhost を使用
	redisHost := "redis"
	mysqlHost := "mysql"
	postgresHost := "postgres"
	if os.Getenv("GO_ENV") == "test" {
		redisHost = "localhost"
		mysqlHost = "localhost"
		postgresHost = "localhost"
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		geminiKey = os.Getenv("GOOGLE_API_KEY")
	}

	return &Config{
		Narrative: NarrativeConfig{
			Provider:       "gemini",
			TimeoutSeconds: 30,
			MaxEntries:     10,
			CacheTTLHours:  24,
		},
		Gemini: GeminiConfig{
			APIKey:          geminiKey,
			Model:           "gemini-2.5-flash",
			MaxOutputTokens: 2048,
			Temperature:     0.2,
		},
		Anthropic: AnthropicConfig{
			APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
			Model:     "claude-haiku-4-5-20251001",
			MaxTokens: 2048,
		},
		Comparison: ComparisonConfig{
			AlignmentThreshold:    0.95,
			ModificationThreshold: 0.4,
			MinSentenceLength:     10,
			ShortUnitLength:       20,
			WarnAlignmentCells:    4_000_000,
			MaxAlignmentCells:     16_000_000,
			MaxTextBytes:          5 << 20,
		},
		Extraction: ExtractionConfig{
			ServiceURL:     os.Getenv("EXTRACTION_SERVICE_URL"),
			TimeoutSeconds: 60,
		},
		Storage: StorageConfig{
			Driver: "none",
		},
		Redis: RedisConfig{
			Enabled:  false,
			Host:     redisHost,
			Port:     6379,
			Password: "",
			DB:       0,
		},
		MySQL: MySQLConfig{
			Host:     mysqlHost,
			Port:     3306,
			User:     "root",
			Password: os.Getenv("MYSQL_PASSWORD"),
			Database: "doc_compare",
		},
		Postgres: PostgresConfig{
			Host:     postgresHost,
			Port:     5432,
			User:     "postgres",
			Password: os.Getenv("POSTGRES_PASSWORD"),
			Database: "doc_compare",
			SSLMode:  "disable",
		},
	}
}

// applyDefaults 設定ファイルで0にされた値をデフォルトで補完
func (c *Config) applyDefaults() {
	def := DefaultConfig()

	if c.Narrative.Provider == "" {
		c.Narrative.Provider = def.Narrative.Provider
	}
	if c.Narrative.TimeoutSeconds <= 0 {
		c.Narrative.TimeoutSeconds = def.Narrative.TimeoutSeconds
	}
	if c.Narrative.MaxEntries <= 0 {
		c.Narrative.MaxEntries = def.Narrative.MaxEntries
	}
	if c.Narrative.CacheTTLHours <= 0 {
		c.Narrative.CacheTTLHours = def.Narrative.CacheTTLHours
	}
	if c.Comparison.AlignmentThreshold <= 0 {
		c.Comparison.AlignmentThreshold = def.Comparison.AlignmentThreshold
	}
	if c.Comparison.ModificationThreshold <= 0 {
		c.Comparison.ModificationThreshold = def.Comparison.ModificationThreshold
	}
	if c.Comparison.MinSentenceLength <= 0 {
		c.Comparison.MinSentenceLength = def.Comparison.MinSentenceLength
	}
	if c.Comparison.ShortUnitLength <= 0 {
		c.Comparison.ShortUnitLength = def.Comparison.ShortUnitLength
	}
	if c.Comparison.WarnAlignmentCells <= 0 {
		c.Comparison.WarnAlignmentCells = def.Comparison.WarnAlignmentCells
	}
	if c.Comparison.MaxAlignmentCells <= 0 {
		c.Comparison.MaxAlignmentCells = def.Comparison.MaxAlignmentCells
	}
	if c.Comparison.MaxTextBytes <= 0 {
		c.Comparison.MaxTextBytes = def.Comparison.MaxTextBytes
	}
	if c.Extraction.TimeoutSeconds <= 0 {
		c.Extraction.TimeoutSeconds = def.Extraction.TimeoutSeconds
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = def.Storage.Driver
	}
}

// Save 設定をファイルに保存する
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
