package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shouni/go-utils/envutil"
	"gopkg.in/yaml.v3"

	"github.com/shouni/go-comicflow/pkg/asset"
	"github.com/shouni/go-comicflow/pkg/store"
	"github.com/shouni/go-comicflow/pkg/workflow"
)

// デフォルト値の定義なのだ
const (
	DefaultAddr         = ":8000"
	DefaultStoreBackend = store.BackendFile
)

// Config はアプリケーション全体の環境設定を保持する構造体なのだ。
type Config struct {
	Addr string `yaml:"addr"`

	// --- AI ---
	GeminiAPIKey      string  `yaml:"gemini_api_key"`
	GeminiModel       string  `yaml:"gemini_model"`
	GeminiImageModel  string  `yaml:"image_gemini_model"`
	Temperature       float32 `yaml:"temperature"`
	ImagePromptSuffix string  `yaml:"image_prompt_suffix"`

	// --- 保護 ---
	GenerationTimeout time.Duration `yaml:"generation_timeout"`
	RateInterval      time.Duration `yaml:"rate_interval"`
	RateBurst         int           `yaml:"rate_burst"`
	BreakerFailures   uint32        `yaml:"breaker_failures"`
	BreakerCooldown   time.Duration `yaml:"breaker_cooldown"`
	SuggestionTTL     time.Duration `yaml:"suggestion_ttl"`

	// --- 保存先 ---
	StoreBackend string `yaml:"store"`
	StoryDir     string `yaml:"story_dir"`
	SQLitePath   string `yaml:"sqlite_path"`
	ImageDir     string `yaml:"image_dir"`
	StaticPrefix string `yaml:"static_prefix"`
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
// 未設定のキーは既定値になります。
func LoadConfig() *Config {
	cfg := &Config{
		Addr:              envutil.GetEnv("COMICFLOW_ADDR", DefaultAddr),
		GeminiAPIKey:      envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:       envutil.GetEnv("GEMINI_MODEL", workflow.DefaultGeminiModel),
		GeminiImageModel:  envutil.GetEnv("IMAGE_GEMINI_MODEL", workflow.DefaultImageModel),
		Temperature:       workflow.DefaultTemperature,
		ImagePromptSuffix: envutil.GetEnv("IMAGE_PROMPT_SUFFIX", ""),

		GenerationTimeout: getDuration("COMICFLOW_GENERATION_TIMEOUT", workflow.DefaultGenerationTimeout),
		RateInterval:      getDuration("COMICFLOW_RATE_INTERVAL", workflow.DefaultRateInterval),
		RateBurst:         getInt("COMICFLOW_RATE_BURST", workflow.DefaultRateBurst),
		BreakerFailures:   uint32(getInt("COMICFLOW_BREAKER_FAILURES", workflow.DefaultBreakerFailures)),
		BreakerCooldown:   getDuration("COMICFLOW_BREAKER_COOLDOWN", workflow.DefaultBreakerCooldown),
		SuggestionTTL:     getDuration("COMICFLOW_SUGGESTION_TTL", workflow.DefaultSuggestionTTL),

		StoreBackend: envutil.GetEnv("COMICFLOW_STORE", DefaultStoreBackend),
		StoryDir:     envutil.GetEnv("COMICFLOW_STORY_DIR", store.DefaultStoryDir),
		SQLitePath:   envutil.GetEnv("COMICFLOW_SQLITE_PATH", store.DefaultSQLitePath),
		ImageDir:     envutil.GetEnv("COMICFLOW_IMAGE_DIR", asset.DefaultImageDir),
		StaticPrefix: envutil.GetEnv("COMICFLOW_STATIC_PREFIX", asset.DefaultStaticPrefix),
	}
	return cfg
}

// LoadFile は YAML ファイルの値で設定を上書きします。ファイルに無いキーは変更しません。
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("設定ファイルの読み込みに失敗しました (%s): %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("設定ファイルの解析に失敗しました (%s): %w", path, err)
	}
	return nil
}

// Validate は設定の整合性を検証します。requireAPIKey が true なら API キーの欠落もエラーにします。
func (c *Config) Validate(requireAPIKey bool) error {
	var errs []error
	if requireAPIKey && c.GeminiAPIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY が設定されていません"))
	}
	if c.StoreBackend != store.BackendFile && c.StoreBackend != store.BackendSQLite {
		errs = append(errs, fmt.Errorf("未対応のストアバックエンドです: %q", c.StoreBackend))
	}
	if c.GenerationTimeout <= 0 {
		errs = append(errs, fmt.Errorf("generation_timeout は正の値である必要があります: %s", c.GenerationTimeout))
	}
	if c.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("rate_burst は 1 以上である必要があります: %d", c.RateBurst))
	}
	if c.SuggestionTTL < 0 {
		errs = append(errs, fmt.Errorf("suggestion_ttl は 0 以上である必要があります: %s", c.SuggestionTTL))
	}
	return errors.Join(errs...)
}

// WorkflowConfig は Manager 向けの設定に変換します。
func (c *Config) WorkflowConfig() workflow.Config {
	return workflow.Config{
		GeminiAPIKey:      c.GeminiAPIKey,
		GeminiModel:       c.GeminiModel,
		ImageModel:        c.GeminiImageModel,
		Temperature:       c.Temperature,
		StyleSuffix:       c.ImagePromptSuffix,
		RateInterval:      c.RateInterval,
		RateBurst:         c.RateBurst,
		BreakerFailures:   c.BreakerFailures,
		BreakerCooldown:   c.BreakerCooldown,
		GenerationTimeout: c.GenerationTimeout,
		SuggestionTTL:     c.SuggestionTTL,
		StaticPrefix:      c.StaticPrefix,
	}
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("環境変数の値が不正なため既定値を使います", "key", key, "value", raw, "default", def)
		return def
	}
	return d
}

// getInt は envutil.GetEnvAsInt で読み、負の値は既定値に戻します。
func getInt(key string, def int) int {
	n := envutil.GetEnvAsInt(key, def)
	if n < 0 {
		slog.Warn("環境変数の値が負のため既定値を使います", "key", key, "value", n, "default", def)
		return def
	}
	return n
}
