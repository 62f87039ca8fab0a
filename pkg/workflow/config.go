package workflow

import (
	"time"
)

// デフォルト値の定義なのだ
const (
	DefaultGeminiModel       = "gemini-3-flash-preview"
	DefaultImageModel        = "gemini-3-pro-image-preview"
	DefaultTemperature       = float32(0.8)
	DefaultRateInterval      = 2 * time.Second
	DefaultRateBurst         = 2
	DefaultBreakerFailures   = 5
	DefaultBreakerCooldown   = 30 * time.Second
	DefaultGenerationTimeout = 2 * time.Minute
	DefaultSuggestionTTL     = time.Duration(0)
)

// Config は Manager が各 Runner を組み立てるための基本設定なのだ。
type Config struct {
	// --- AI Model Settings ---
	GeminiAPIKey string
	GeminiModel  string
	ImageModel   string
	Temperature  float32

	// --- Generation Settings ---
	StyleSuffix       string
	RateInterval      time.Duration
	RateBurst         int
	BreakerFailures   uint32
	BreakerCooldown   time.Duration
	GenerationTimeout time.Duration
	SuggestionTTL     time.Duration

	// --- Output Settings ---
	StaticPrefix string
}

// DefaultConfig は既定値を埋めた Config を返します。
func DefaultConfig() Config {
	return Config{
		GeminiModel:       DefaultGeminiModel,
		ImageModel:        DefaultImageModel,
		Temperature:       DefaultTemperature,
		RateInterval:      DefaultRateInterval,
		RateBurst:         DefaultRateBurst,
		BreakerFailures:   DefaultBreakerFailures,
		BreakerCooldown:   DefaultBreakerCooldown,
		GenerationTimeout: DefaultGenerationTimeout,
		SuggestionTTL:     DefaultSuggestionTTL,
	}
}
