// Package config reads the server configuration from the environment and,
// optionally, secrets from SSM Parameter Store.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPort            = "8080"
	DefaultMigrationsPath  = "migrations"
	DefaultChatModel       = "gpt-4o-mini"
	DefaultEvalModel       = "gpt-4o"
	DefaultVoiceID         = "21m00Tcm4TlvDq8ikWAM"
	DefaultSummaryCacheTTL = 24 * time.Hour
)

type Config struct {
	Port           string
	DatabaseURL    string
	MigrationsPath string
	LogLevel       string

	OpenAIAPIKey string
	ChatModel    string
	EvalModel    string

	ElevenLabsAPIKey string
	DefaultVoiceID   string

	SupabaseURL string
	SupabaseKey string

	RedisURL        string
	SummaryCacheTTL time.Duration

	TelegramBotToken string
	InstructorChatID int64
	ReportFontPath   string

	// ParamPrefix enables loading missing secrets from SSM when set.
	ParamPrefix string
}

// Getter reads a single named parameter.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// FromEnv reads the configuration from environment variables, applying defaults.
func FromEnv() Config {
	return Config{
		Port:             envOr("PORT", DefaultPort),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		MigrationsPath:   envOr("MIGRATIONS_PATH", DefaultMigrationsPath),
		LogLevel:         envOr("LOG_LEVEL", "info"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		ChatModel:        envOr("OPENAI_CHAT_MODEL", DefaultChatModel),
		EvalModel:        envOr("OPENAI_EVAL_MODEL", DefaultEvalModel),
		ElevenLabsAPIKey: os.Getenv("ELEVENLABS_API_KEY"),
		DefaultVoiceID:   envOr("DEFAULT_VOICE_ID", DefaultVoiceID),
		SupabaseURL:      strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
		SupabaseKey:      os.Getenv("SUPABASE_KEY"),
		RedisURL:         os.Getenv("REDIS_URL"),
		SummaryCacheTTL:  envDuration("SUMMARY_CACHE_TTL", DefaultSummaryCacheTTL),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		InstructorChatID: envInt64("INSTRUCTOR_CHAT_ID", 0),
		ReportFontPath:   os.Getenv("REPORT_FONT_PATH"),
		ParamPrefix:      strings.TrimRight(strings.TrimSpace(os.Getenv("PARAM_PREFIX")), "/"),
	}
}

// LoadSecrets fills empty secret fields from the parameter store under
// ParamPrefix. Values already set in the environment win.
func (c *Config) LoadSecrets(ctx context.Context, getter Getter) error {
	if c.ParamPrefix == "" {
		return nil
	}
	if getter == nil {
		return errors.New("config: PARAM_PREFIX set but no parameter getter")
	}

	secrets := []struct {
		name string
		dst  *string
	}{
		{"openai_api_key", &c.OpenAIAPIKey},
		{"elevenlabs_api_key", &c.ElevenLabsAPIKey},
		{"supabase_key", &c.SupabaseKey},
		{"telegram_bot_token", &c.TelegramBotToken},
	}
	for _, s := range secrets {
		if *s.dst != "" {
			continue
		}
		v, err := getter.GetParameter(ctx, c.ParamPrefix+"/"+s.name)
		if err != nil {
			return fmt.Errorf("config: load %s: %w", s.name, err)
		}
		*s.dst = strings.TrimSpace(v)
	}
	return nil
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.SupabaseURL == "" {
		errs = append(errs, errors.New("SUPABASE_URL is required"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	return errors.Join(errs...)
}

// ReportDeliveryEnabled reports whether evaluations are sent to the instructor chat.
func (c Config) ReportDeliveryEnabled() bool {
	return c.TelegramBotToken != "" && c.InstructorChatID != 0
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
