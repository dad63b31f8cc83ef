// Package config loads runtime configuration from the environment.
// A .env file is read when present; DATABASE_URL is the only required key.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Conflict handling for ingested listings that already exist.
const (
	ConflictIgnore = "ignore"
	ConflictUpdate = "update"
)

// How a single-listing lookup combines with the other filters.
const (
	IDFilterOr  = "or"
	IDFilterAnd = "and"
)

type Config struct {
	Port       string
	AppEnv     string
	AdminToken string
	CORSOrigin []string

	DatabaseURL string
	DBLogLevel  string

	RedisURL string
	CacheTTL time.Duration

	ApifyToken          string
	ApifyBaseURL        string
	ApifyUserID         string
	DatasetFetchTimeout time.Duration
	ConflictMode        string

	IDFilterMode          string
	PageSize              int
	PopularLocationsLimit int

	LLMProvider     string
	LLMModel        string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	AIMaxCandidates int

	NATSURL             string
	OTelCollectorURL    string
	MaintenanceSchedule string
}

// Load reads the .env file (if any) and the process environment.
func Load() (*Config, error) {
	// Missing .env is fine in containers; values then come from the environment.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	cfg := &Config{
		Port:       getEnvString("PORT", "8080"),
		AppEnv:     getEnvString("APP_ENV", "production"),
		AdminToken: os.Getenv("ADMIN_TOKEN"),
		CORSOrigin: splitList(os.Getenv("CORS_ORIGINS")),

		DatabaseURL: dbURL,
		DBLogLevel:  getEnvString("DB_LOG_LEVEL", "warn"),

		RedisURL: os.Getenv("REDIS_URL"),
		CacheTTL: getEnvDuration("CACHE_TTL", 10*time.Minute),

		ApifyToken:          os.Getenv("APIFY_TOKEN"),
		ApifyBaseURL:        getEnvString("APIFY_BASE_URL", "https://api.apify.com"),
		ApifyUserID:         os.Getenv("APIFY_USER_ID"),
		DatasetFetchTimeout: getEnvDuration("DATASET_FETCH_TIMEOUT", 30*time.Second),
		ConflictMode:        strings.ToLower(getEnvString("INGEST_CONFLICT_MODE", ConflictIgnore)),

		IDFilterMode:          strings.ToLower(getEnvString("LISTING_ID_FILTER_MODE", IDFilterOr)),
		PageSize:              getEnvInt("PAGE_SIZE", 10),
		PopularLocationsLimit: getEnvInt("POPULAR_LOCATIONS_LIMIT", 100),

		LLMProvider:     strings.ToLower(getEnvString("LLM_PROVIDER", "googleai")),
		LLMModel:        os.Getenv("LLM_MODEL"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AIMaxCandidates: getEnvInt("AI_MAX_CANDIDATES", 100),

		NATSURL:             os.Getenv("NATS_URL"),
		OTelCollectorURL:    os.Getenv("OTEL_COLLECTOR_URL"),
		MaintenanceSchedule: getEnvOptional("MAINTENANCE_SCHEDULE", "@every 1h"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.ConflictMode {
	case ConflictIgnore, ConflictUpdate:
	default:
		return fmt.Errorf("INGEST_CONFLICT_MODE must be %q or %q, got %q", ConflictIgnore, ConflictUpdate, c.ConflictMode)
	}
	switch c.IDFilterMode {
	case IDFilterOr, IDFilterAnd:
	default:
		return fmt.Errorf("LISTING_ID_FILTER_MODE must be %q or %q, got %q", IDFilterOr, IDFilterAnd, c.IDFilterMode)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be a positive integer, got %d", c.PageSize)
	}
	return nil
}

// IsDevelopment reports whether APP_ENV selects the development profile.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development" || c.AppEnv == "dev"
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getEnvOptional keeps an explicitly empty value, so a key can be set to "" to switch a feature off.
func getEnvOptional(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
