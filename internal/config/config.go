package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	LLM       LLMConfig       `yaml:"llm"`
	Places    PlacesConfig    `yaml:"places"`
	Cache     CacheConfig     `yaml:"cache"`
	Enrich    EnrichConfig    `yaml:"enrich"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Auth      AuthConfig      `yaml:"auth"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Timezone  string          `yaml:"timezone"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings (legacy read path)
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
	CitiesCSV   string            `yaml:"cities_csv"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
}

// LLMConfig contains completion service settings
type LLMConfig struct {
	APIKey                string `yaml:"api_key"`
	BaseURL               string `yaml:"base_url"`
	Model                 string `yaml:"model"`
	TimeoutSeconds        int    `yaml:"timeout_seconds"`
	MaxRetries            int    `yaml:"max_retries"`
	RetryDelaySeconds     int    `yaml:"retry_delay_seconds"`
	CoreMaxOutputTokens   int    `yaml:"core_max_output_tokens"`
	DetailMaxOutputTokens int    `yaml:"detail_max_output_tokens"`
	DetailConcurrency     int    `yaml:"detail_concurrency"`
}

// PlacesConfig contains geographic lookup service settings
type PlacesConfig struct {
	APIKey             string   `yaml:"api_key"`
	BaseURL            string   `yaml:"base_url"`
	TimeoutSeconds     int      `yaml:"timeout_seconds"`
	MaxRetries         int      `yaml:"max_retries"`
	RetryDelayMillis   int      `yaml:"retry_delay_millis"`
	MaxInFlight        int      `yaml:"max_in_flight"`
	PhotoMaxWidthPx    int      `yaml:"photo_max_width_px"`
	PhotoMaxHeightPx   int      `yaml:"photo_max_height_px"`
	CriticalTimeoutMS  int      `yaml:"critical_timeout_ms"`
	CommercialTypes    []string `yaml:"commercial_types"`
	CommercialKeywords string   `yaml:"commercial_keywords"`
	ResidentialHints   []string `yaml:"residential_hints"`
}

// CacheConfig selects the place/photo cache backend
type CacheConfig struct {
	Backend    string      `yaml:"backend"` // memory or redis
	TTLSeconds int         `yaml:"ttl_seconds"`
	Redis      RedisConfig `yaml:"redis"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// EnrichConfig contains background enrichment settings
type EnrichConfig struct {
	Enabled             bool   `yaml:"enabled"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	LookupDelayMillis   int    `yaml:"lookup_delay_millis"`
	MaxPlacePhotos      int    `yaml:"max_place_photos"`
	MaxPropertyPhotos   int    `yaml:"max_property_photos"`
	MaintenanceTime     string `yaml:"maintenance_time"` // HH:MM, daily cron
}

// RateLimitConfig contains API rate limiting settings
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
	RequestsPerDay    int  `yaml:"requests_per_day"`
}

// AuthConfig contains JWT settings
type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         string   `yaml:"port"`
	AllowOrigins []string `yaml:"allow_origins"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level        string `yaml:"level"`
	LogRequests  bool   `yaml:"log_requests"`
	LogResponses bool   `yaml:"log_responses"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:               "https://api.openai.com/v1",
			Model:                 "gpt-4o-2024-08-06",
			TimeoutSeconds:        120,
			MaxRetries:            3,
			RetryDelaySeconds:     2,
			CoreMaxOutputTokens:   2500,
			DetailMaxOutputTokens: 6000,
			DetailConcurrency:     2,
		},
		Places: PlacesConfig{
			BaseURL:           "https://places.googleapis.com/v1",
			TimeoutSeconds:    15,
			MaxRetries:        3,
			RetryDelayMillis:  500,
			MaxInFlight:       4,
			PhotoMaxWidthPx:   1200,
			PhotoMaxHeightPx:  800,
			CriticalTimeoutMS: 8000,
			CommercialTypes: []string{
				"bank", "insurance_agency", "real_estate_agency", "storage",
				"accounting", "lawyer", "corporate_office", "store",
				"shopping_mall", "supermarket", "warehouse",
			},
			CommercialKeywords: `(?i)(commercial|retail|office|warehouse|industrial|chamber of commerce|bookkeeping|business(es)?|suite\s*#?\d+|unit\s*\d+|mall|plaza|center|company|inc\b|llc\b)`,
			ResidentialHints:   []string{"premise", "street_address", "subpremise"},
		},
		Cache: CacheConfig{
			Backend:    "memory",
			TTLSeconds: 3600,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Enrich: EnrichConfig{
			Enabled:             true,
			PollIntervalSeconds: 15,
			LookupDelayMillis:   300,
			MaxPlacePhotos:      4,
			MaxPropertyPhotos:   5,
			MaintenanceTime:     "03:30",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 10,
			RequestsPerHour:   120,
			RequestsPerDay:    500,
		},
		Auth: AuthConfig{
			TokenTTLHours: 72,
		},
		Server: ServerConfig{
			Port:         "8086",
			AllowOrigins: []string{"http://localhost:5173"},
		},
		Search: SearchConfig{
			CitiesCSV: "/app/data/uscities.csv",
		},
		Logging: LoggingConfig{
			Level:        "info",
			LogRequests:  true,
			LogResponses: false,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	// Read file
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// GetTimeout returns the LLM call timeout as a duration
func (c *LLMConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetRetryDelay returns the LLM retry delay as a duration
func (c *LLMConfig) GetRetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// GetTimeout returns the lookup call timeout as a duration
func (c *PlacesConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetRetryDelay returns the lookup retry delay as a duration
func (c *PlacesConfig) GetRetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMillis) * time.Millisecond
}

// GetCriticalTimeout returns the per-item budget for critical-path lookups
func (c *PlacesConfig) GetCriticalTimeout() time.Duration {
	return time.Duration(c.CriticalTimeoutMS) * time.Millisecond
}

// GetTTL returns the cache entry lifetime
func (c *CacheConfig) GetTTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// GetPollInterval returns the worker poll interval
func (c *EnrichConfig) GetPollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// GetLookupDelay returns the pause between consecutive lookup calls
func (c *EnrichConfig) GetLookupDelay() time.Duration {
	return time.Duration(c.LookupDelayMillis) * time.Millisecond
}
