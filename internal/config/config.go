package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AI provider names accepted by AI_PROVIDER.
const (
	ProviderDeterministic = "deterministic"
	ProviderMock          = "mock"
	ProviderOpenAI        = "openai"
	ProviderAnthropic     = "anthropic"
)

const devJWTSecret = "dev-secret-change-me"

type Config struct {
	Port            string        `mapstructure:"PORT"`
	Env             string        `mapstructure:"ENV"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32         `mapstructure:"DB_MIN_CONNS"`
	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	AccessTokenTTL  time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	CORSOrigins     []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS    float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int           `mapstructure:"RATE_LIMIT_BURST"`
	AIProvider      string        `mapstructure:"AI_PROVIDER"`
	OpenAIAPIKey    string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel     string        `mapstructure:"OPENAI_MODEL"`
	AnthropicAPIKey string        `mapstructure:"ANTHROPIC_API_KEY"`
	AnthropicModel  string        `mapstructure:"ANTHROPIC_MODEL"`
	AITimeout       time.Duration `mapstructure:"AI_TIMEOUT"`
	RedisURL        string        `mapstructure:"REDIS_URL"`
	SummaryCacheTTL time.Duration `mapstructure:"SUMMARY_CACHE_TTL"`
	OTelEnabled     bool          `mapstructure:"OTEL_ENABLED"`
	OTelEndpoint    string        `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

var keys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"JWT_SECRET", "ACCESS_TOKEN_TTL", "CORS_ORIGINS",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"AI_PROVIDER", "OPENAI_API_KEY", "OPENAI_MODEL",
	"ANTHROPIC_API_KEY", "ANTHROPIC_MODEL", "AI_TIMEOUT",
	"REDIS_URL", "SUMMARY_CACHE_TTL",
	"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT",
}

// Load reads configuration from .env (when present) and the environment.
// DATABASE_URL is required; everything else has a default.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

// LoadOffline is Load without the database requirement, for commands that
// never open a connection.
func LoadOffline() (*Config, error) {
	return load()
}

func load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("ACCESS_TOKEN_TTL", "30m")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("AI_PROVIDER", ProviderDeterministic)
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("ANTHROPIC_MODEL", "claude-sonnet-4-20250514")
	v.SetDefault("AI_TIMEOUT", "30s")
	v.SetDefault("SUMMARY_CACHE_TTL", "24h")
	v.SetDefault("OTEL_ENABLED", false)

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Missing .env is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	for i := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(cfg.CORSOrigins[i])
	}
	cfg.AIProvider = strings.ToLower(strings.TrimSpace(cfg.AIProvider))

	if cfg.JWTSecret == "" && cfg.IsDev() {
		cfg.JWTSecret = devJWTSecret
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// a real JWT secret is required, and AI_PROVIDER must name a known backend.
func (c *Config) Validate() error {
	if !c.IsDev() && (c.JWTSecret == "" || c.JWTSecret == devJWTSecret) {
		return fmt.Errorf("JWT_SECRET must be set when ENV=%q", c.Env)
	}
	switch c.AIProvider {
	case ProviderDeterministic, ProviderMock, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("AI_PROVIDER must be one of deterministic, mock, openai, anthropic; got %q", c.AIProvider)
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive, got %s", c.AccessTokenTTL)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}

// AIKeyMissing reports whether a network provider was selected without its
// API key. The server logs this and keeps running on the deterministic
// summarizer.
func (c *Config) AIKeyMissing() bool {
	switch c.AIProvider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey == ""
	case ProviderAnthropic:
		return c.AnthropicAPIKey == ""
	}
	return false
}
