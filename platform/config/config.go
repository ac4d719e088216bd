// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// StoreConfig provides lead store settings.
type StoreConfig interface {
	GetStoreBackend() string
	GetDatabaseURL() string
	GetRedisURL() string
	GetStoreConditionalWrites() bool
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetHTTPRateLimit() float64
	GetHTTPRateBurst() int
}

// MailConfig provides settings for outbound email sending.
type MailConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetEmailReplyToAddress() string
	GetEmailDryRun() bool
}

// DraftConfig provides settings for the AI email drafter.
type DraftConfig interface {
	GetGenAIAPIKey() string
	GetGenAIModel() string
	IsDraftingEnabled() bool
}

// SchedulerConfig provides settings for the follow-up scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetFollowUpQueue() string
	GetFollowUpConcurrency() int
}

// LifecycleConfig provides settings for the lead lifecycle engine.
type LifecycleConfig interface {
	GetFollowUpDelay() time.Duration
	GetEnrichIdempotent() bool
	GetClassifierRulesPath() string
}

// ProspectConfig provides settings for retailer discovery.
type ProspectConfig interface {
	GetSearchDryRun() bool
	GetScrapeTimeout() time.Duration
	GetScrapeRate() float64
}

// InboundConfig provides settings for raw inbound mail storage.
type InboundConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetInboundBucket() string
	IsInboundStoreEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                    string
	HTTPAddr               string
	StoreBackend           string
	DatabaseURL            string
	RedisURL               string
	StoreConditionalWrites bool
	CORSAllowAll           bool
	CORSOrigins            []string
	HTTPRateLimit          float64
	HTTPRateBurst          int
	SMTPHost               string
	SMTPPort               int
	SMTPUsername           string
	SMTPPassword           string
	EmailFromName          string
	EmailFromAddress       string
	EmailReplyToAddress    string
	EmailDryRun            bool
	GenAIAPIKey            string
	GenAIModel             string
	FollowUpQueue          string
	FollowUpConcurrency    int
	FollowUpDelay          time.Duration
	EnrichIdempotent       bool
	ClassifierRulesPath    string
	SearchDryRun           bool
	ScrapeTimeout          time.Duration
	ScrapeRate             float64
	MinIOEndpoint          string
	MinIOAccessKey         string
	MinIOSecretKey         string
	MinIOUseSSL            bool
	InboundBucket          string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// StoreConfig implementation
func (c *Config) GetStoreBackend() string         { return c.StoreBackend }
func (c *Config) GetDatabaseURL() string          { return c.DatabaseURL }
func (c *Config) GetRedisURL() string             { return c.RedisURL }
func (c *Config) GetStoreConditionalWrites() bool { return c.StoreConditionalWrites }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string       { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool     { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string  { return c.CORSOrigins }
func (c *Config) GetHTTPRateLimit() float64 { return c.HTTPRateLimit }
func (c *Config) GetHTTPRateBurst() int     { return c.HTTPRateBurst }

// MailConfig implementation
func (c *Config) GetSMTPHost() string            { return c.SMTPHost }
func (c *Config) GetSMTPPort() int               { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string        { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string        { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string       { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string    { return c.EmailFromAddress }
func (c *Config) GetEmailReplyToAddress() string { return c.EmailReplyToAddress }
func (c *Config) GetEmailDryRun() bool           { return c.EmailDryRun }

// DraftConfig implementation
func (c *Config) GetGenAIAPIKey() string  { return c.GenAIAPIKey }
func (c *Config) GetGenAIModel() string   { return c.GenAIModel }
func (c *Config) IsDraftingEnabled() bool { return c.GenAIAPIKey != "" }

// SchedulerConfig implementation
func (c *Config) GetFollowUpQueue() string    { return c.FollowUpQueue }
func (c *Config) GetFollowUpConcurrency() int { return c.FollowUpConcurrency }

// LifecycleConfig implementation
func (c *Config) GetFollowUpDelay() time.Duration { return c.FollowUpDelay }
func (c *Config) GetEnrichIdempotent() bool       { return c.EnrichIdempotent }
func (c *Config) GetClassifierRulesPath() string  { return c.ClassifierRulesPath }

// ProspectConfig implementation
func (c *Config) GetSearchDryRun() bool           { return c.SearchDryRun }
func (c *Config) GetScrapeTimeout() time.Duration { return c.ScrapeTimeout }
func (c *Config) GetScrapeRate() float64          { return c.ScrapeRate }

// InboundConfig implementation
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) GetInboundBucket() string  { return c.InboundBucket }
func (c *Config) IsInboundStoreEnabled() bool {
	return c.MinIOEndpoint != "" && c.InboundBucket != ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		StoreBackend:           strings.ToLower(getEnv("STORE_BACKEND", "postgres")),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		RedisURL:               getEnv("REDIS_URL", ""),
		StoreConditionalWrites: getEnvBool("STORE_CONDITIONAL_WRITES", false),
		CORSAllowAll:           getEnvBool("CORS_ALLOW_ALL", false),
		CORSOrigins:            splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		HTTPRateLimit:          getEnvFloat("HTTP_RATE_LIMIT", 25),
		HTTPRateBurst:          getEnvInt("HTTP_RATE_BURST", 50),
		SMTPHost:               getEnv("SMTP_HOST", ""),
		SMTPPort:               getEnvInt("SMTP_PORT", 587),
		SMTPUsername:           getEnv("SMTP_USERNAME", ""),
		SMTPPassword:           getEnv("SMTP_PASSWORD", ""),
		EmailFromName:          getEnv("EMAIL_FROM_NAME", "Outreach"),
		EmailFromAddress:       getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailReplyToAddress:    getEnv("EMAIL_REPLY_TO_ADDRESS", ""),
		EmailDryRun:            getEnvBool("EMAIL_DRY_RUN", true),
		GenAIAPIKey:            getEnv("GEMINI_API_KEY", ""),
		GenAIModel:             getEnv("GENAI_MODEL", "gemini-2.0-flash"),
		FollowUpQueue:          getEnv("FOLLOWUP_QUEUE", "default"),
		FollowUpConcurrency:    getEnvInt("FOLLOWUP_CONCURRENCY", 10),
		FollowUpDelay:          getEnvDuration("FOLLOWUP_DELAY", 4*24*time.Hour),
		EnrichIdempotent:       getEnvBool("ENRICH_IDEMPOTENT", false),
		ClassifierRulesPath:    getEnv("CLASSIFIER_RULES_PATH", ""),
		SearchDryRun:           getEnvBool("SEARCH_DRY_RUN", false),
		ScrapeTimeout:          getEnvDuration("SCRAPE_TIMEOUT", 10*time.Second),
		ScrapeRate:             getEnvFloat("SCRAPE_RATE", 1.25),
		MinIOEndpoint:          getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:         getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:         getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:            getEnvBool("MINIO_USE_SSL", false),
		InboundBucket:          getEnv("INBOUND_MAIL_BUCKET", ""),
	}

	switch cfg.StoreBackend {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when STORE_BACKEND=redis")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q (want postgres or redis)", cfg.StoreBackend)
	}

	if !cfg.EmailDryRun {
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("SMTP_HOST is required when EMAIL_DRY_RUN is off")
		}
		if cfg.EmailFromAddress == "" {
			return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when EMAIL_DRY_RUN is off")
		}
	}

	return cfg, nil
}

// =============================================================================
// Env Helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
