package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	JWTSecret         string
	EventsChannel     string
	ScoreCacheTTL     time.Duration
	AnalyticsCacheTTL time.Duration
	ScoringRateLimit  int
	AutoMigrate       bool
	SeedEnabled       bool
	SeedToken         string
	CORSAllowOrigins  string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "production")
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("APPRAISAL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Appraisal API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("events.channel", "appraisal")
	v.SetDefault("score.cache_ttl", "10m")
	v.SetDefault("analytics.cache_ttl", "5m")
	v.SetDefault("scoring.rate_limit", 30)
	v.SetDefault("auto_migrate", true)
	v.SetDefault("seed.enabled", false)
	v.SetDefault("cors.allow_origins", "*")

	ttlString := v.GetString("score.cache_ttl")
	if ttlString == "" {
		ttlString = "10m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid score cache ttl: %w", err)
	}

	analyticsTTL, err := time.ParseDuration(v.GetString("analytics.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid analytics cache ttl: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		JWTSecret:         v.GetString("jwt.secret"),
		EventsChannel:     strings.TrimSpace(v.GetString("events.channel")),
		ScoreCacheTTL:     ttl,
		AnalyticsCacheTTL: analyticsTTL,
		ScoringRateLimit:  v.GetInt("scoring.rate_limit"),
		AutoMigrate:       v.GetBool("auto_migrate"),
		SeedEnabled:       v.GetBool("seed.enabled"),
		SeedToken:         v.GetString("seed.token"),
		CORSAllowOrigins:  v.GetString("cors.allow_origins"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.ScoringRateLimit <= 0 {
		cfg.ScoringRateLimit = 30
	}

	return cfg, nil
}
