package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tatianab/chronicle/internal/engine"
)

// Config holds the application configuration.
type Config struct {
	GeminiAPIKey      string
	Model             string
	ImageModel        string
	Mock              bool
	GenerateWorld     bool // ask the generator for the opening world
	RequestTimeout    time.Duration
	AdvanceDelay      time.Duration
	FallbackDelay     time.Duration
	RequestsPerMinute int
	LogLevel          slog.Level
	TranscriptDir     string
}

const EnvPrefix = "CHRONICLE"

// New returns a viper instance with every key defaulted and bound to the
// environment. GEMINI_API_KEY is honoured as well as CHRONICLE_GEMINI_API_KEY.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("model", engine.DefaultModel)
	v.SetDefault("image_model", engine.DefaultImageModel)
	v.SetDefault("mock", false)
	v.SetDefault("generate_world", false)
	v.SetDefault("request_timeout", 90*time.Second)
	v.SetDefault("advance_delay", 2*time.Second)
	v.SetDefault("fallback_delay", time.Second)
	v.SetDefault("requests_per_minute", 10)
	v.SetDefault("log_level", "info")
	v.SetDefault("transcript_dir", "transcripts")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("gemini_api_key", EnvPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY")

	v.SetConfigName("chronicle")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/chronicle")
	return v
}

// Load reads the optional chronicle.yaml into v and decodes the result.
// Without an API key the game runs in mock mode.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}

	cfg := &Config{
		GeminiAPIKey:      v.GetString("gemini_api_key"),
		Model:             v.GetString("model"),
		ImageModel:        v.GetString("image_model"),
		Mock:              v.GetBool("mock"),
		GenerateWorld:     v.GetBool("generate_world"),
		RequestTimeout:    v.GetDuration("request_timeout"),
		AdvanceDelay:      v.GetDuration("advance_delay"),
		FallbackDelay:     v.GetDuration("fallback_delay"),
		RequestsPerMinute: v.GetInt("requests_per_minute"),
		LogLevel:          level,
		TranscriptDir:     v.GetString("transcript_dir"),
	}
	if cfg.RequestTimeout < 0 || cfg.AdvanceDelay < 0 || cfg.FallbackDelay < 0 {
		return nil, errors.New("durations must not be negative")
	}
	if !cfg.Mock && cfg.GeminiAPIKey == "" {
		slog.Warn("GEMINI_API_KEY is not set; playing with offline data")
		cfg.Mock = true
	}
	return cfg, nil
}
