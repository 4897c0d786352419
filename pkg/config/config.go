package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Geocoding   GeocodingConfig
	Places      PlacesConfig
	Discovery   DiscoveryConfig
	Search      SearchConfig
	Dataset     DatasetConfig
	OTEL        OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// GeocodingConfig holds the Nominatim client configuration
type GeocodingConfig struct {
	BaseURL      string
	UserAgent    string
	CountryCodes string
	Timeout      time.Duration
	CacheTTL     time.Duration
}

// PlacesConfig holds the Google Places client configuration
type PlacesConfig struct {
	APIKey       string
	BaseURL      string
	Timeout      time.Duration
	// PhotoBaseURL is the keyless photo route handed to clients.
	PhotoBaseURL string
}

// DiscoveryConfig controls nearby discovery, its cache and photo enrichment
type DiscoveryConfig struct {
	CacheTTL            time.Duration
	SweepInterval       time.Duration
	DefaultRadiusMeters int
	MaxRadiusMeters     int
	EnrichWindow        int
	EnrichDelay         time.Duration
}

// SearchConfig holds defaults for the filter controller
type SearchConfig struct {
	DefaultRadiusMiles float64
	Debounce           time.Duration
}

// DatasetConfig points at an optional replacement for the bundled dataset
type DatasetConfig struct {
	Path string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("DB_ENABLED", true),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "breadfindr"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Geocoding: GeocodingConfig{
			BaseURL:      getEnv("GEOCODING_BASE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:    getEnv("GEOCODING_USER_AGENT", "BreadFindr/1.0 (https://breadfindr.com)"),
			CountryCodes: getEnv("GEOCODING_COUNTRY_CODES", "us"),
			Timeout:      getEnvAsDuration("GEOCODING_TIMEOUT", 10*time.Second),
			CacheTTL:     getEnvAsDuration("GEOCODING_CACHE_TTL", 24*time.Hour),
		},
		Places: PlacesConfig{
			APIKey:       getEnv("GOOGLE_PLACES_API_KEY", ""),
			BaseURL:      getEnv("GOOGLE_PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place"),
			Timeout:      getEnvAsDuration("GOOGLE_PLACES_TIMEOUT", 10*time.Second),
			PhotoBaseURL: getEnv("PLACES_PHOTO_BASE_URL", "/api/places/photo"),
		},
		Discovery: DiscoveryConfig{
			CacheTTL:            getEnvAsDuration("DISCOVERY_CACHE_TTL", 30*time.Minute),
			SweepInterval:       getEnvAsDuration("DISCOVERY_SWEEP_INTERVAL", 10*time.Minute),
			DefaultRadiusMeters: getEnvAsInt("DISCOVERY_DEFAULT_RADIUS_METERS", 40000),
			MaxRadiusMeters:     getEnvAsInt("DISCOVERY_MAX_RADIUS_METERS", 50000),
			EnrichWindow:        getEnvAsInt("DISCOVERY_ENRICH_WINDOW", 3),
			EnrichDelay:         getEnvAsDuration("DISCOVERY_ENRICH_DELAY", 200*time.Millisecond),
		},
		Search: SearchConfig{
			DefaultRadiusMiles: getEnvAsFloat("SEARCH_DEFAULT_RADIUS_MILES", 25),
			Debounce:           getEnvAsDuration("SEARCH_LOCATION_DEBOUNCE", 500*time.Millisecond),
		},
		Dataset: DatasetConfig{
			Path: getEnv("DATASET_PATH", ""),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "breadfindr"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with
func (c *Config) Validate() error {
	switch {
	case c.Discovery.CacheTTL <= 0:
		return fmt.Errorf("DISCOVERY_CACHE_TTL must be positive")
	case c.Discovery.DefaultRadiusMeters <= 0:
		return fmt.Errorf("DISCOVERY_DEFAULT_RADIUS_METERS must be positive")
	case c.Discovery.MaxRadiusMeters < c.Discovery.DefaultRadiusMeters:
		return fmt.Errorf("DISCOVERY_MAX_RADIUS_METERS must be >= DISCOVERY_DEFAULT_RADIUS_METERS")
	case c.Discovery.EnrichWindow <= 0:
		return fmt.Errorf("DISCOVERY_ENRICH_WINDOW must be positive")
	case c.Search.DefaultRadiusMiles <= 0:
		return fmt.Errorf("SEARCH_DEFAULT_RADIUS_MILES must be positive")
	}
	return nil
}

// PlacesConfigured reports whether a Places API key is available
func (c *Config) PlacesConfigured() bool {
	return strings.TrimSpace(c.Places.APIKey) != ""
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
