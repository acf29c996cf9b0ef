package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"lgd_site/models"
)

// Config is the runtime configuration of the dashboard service.
type Config struct {
	Port            string        `yaml:"port"`
	LogFormat       string        `yaml:"log_format"`
	LogLevel        string        `yaml:"log_level"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	CORSDebug       bool          `yaml:"cors_debug"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	Data    DataConfig    `yaml:"data"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// DataConfig locates and caches the LGD snapshot.
type DataConfig struct {
	// BaseURL replaces the snapshot host for every tier. Empty keeps the
	// published June 2024 snapshot.
	BaseURL        string `yaml:"base_url"`
	StateURL       string `yaml:"state_url"`
	DistrictURL    string `yaml:"district_url"`
	SubDistrictURL string `yaml:"subdistrict_url"`
	VillageURL     string `yaml:"village_url"`

	CacheTTL        time.Duration `yaml:"cache_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
	Preload         bool          `yaml:"preload"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port:      "8080",
		LogFormat: "text",
		LogLevel:  "info",
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://localhost:8080",
			"http://127.0.0.1:3000",
		},
		ShutdownTimeout: 30 * time.Second,
		Data: DataConfig{
			CacheTTL:        defaultDatasetCacheDuration,
			CleanupInterval: defaultDatasetCleanupInterval,
			FetchTimeout:    2 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "lgd_dashboard",
		},
	}
}

// LoadEnv loads the first .env file found next to the binary or above it,
// or the file named by LGD_ENV. It returns the path it loaded, or "" when no
// file exists; variables already set in the environment win.
func LoadEnv() (string, error) {
	possiblePaths := []string{
		os.Getenv("LGD_ENV"),
		".env",
		"../.env",
	}

	for _, path := range possiblePaths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return path, fmt.Errorf("load %s: %w", path, err)
		}
		return path, nil
	}
	return "", nil
}

// Load builds the configuration from defaults, the optional YAML file named
// by CONFIG_FILE and the environment, in that order.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnvWithDefault("PORT", c.Port)
	c.LogFormat = getEnvWithDefault("LOG_FORMAT", c.LogFormat)
	c.LogLevel = getEnvWithDefault("LOG_LEVEL", c.LogLevel)
	c.AllowedOrigins = getEnvAsList("ALLOWED_ORIGINS", c.AllowedOrigins)
	c.CORSDebug = getEnvAsBool("CORS_DEBUG", c.CORSDebug)
	if secs := getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 0); secs > 0 {
		c.ShutdownTimeout = time.Duration(secs) * time.Second
	}

	c.Data.BaseURL = getEnvWithDefault("DATA_BASE_URL", c.Data.BaseURL)
	c.Data.StateURL = getEnvWithDefault("STATE_CSV_URL", c.Data.StateURL)
	c.Data.DistrictURL = getEnvWithDefault("DISTRICT_CSV_URL", c.Data.DistrictURL)
	c.Data.SubDistrictURL = getEnvWithDefault("SUBDISTRICT_CSV_URL", c.Data.SubDistrictURL)
	c.Data.VillageURL = getEnvWithDefault("VILLAGE_CSV_URL", c.Data.VillageURL)
	c.Data.CacheTTL = getEnvAsDuration("DATASET_CACHE_TTL", c.Data.CacheTTL)
	c.Data.CleanupInterval = getEnvAsDuration("DATASET_CLEANUP_INTERVAL", c.Data.CleanupInterval)
	c.Data.FetchTimeout = getEnvAsDuration("FETCH_TIMEOUT", c.Data.FetchTimeout)
	c.Data.Preload = getEnvAsBool("PRELOAD_DATASETS", c.Data.Preload)

	c.Metrics.Enabled = getEnvAsBool("METRICS_ENABLED", c.Metrics.Enabled)
	c.Metrics.Namespace = getEnvWithDefault("METRICS_NAMESPACE", c.Metrics.Namespace)
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT %q", c.Port)
	}
	if c.Data.CacheTTL <= 0 {
		return fmt.Errorf("dataset cache ttl must be positive, got %s", c.Data.CacheTTL)
	}
	if c.Data.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.Data.FetchTimeout)
	}
	return nil
}

// TierURLs returns the per-tier URL overrides that are set.
func (c *Config) TierURLs() map[models.Tier]string {
	urls := make(map[models.Tier]string)
	for tier, u := range map[models.Tier]string{
		models.TierState:       c.Data.StateURL,
		models.TierDistrict:    c.Data.DistrictURL,
		models.TierSubDistrict: c.Data.SubDistrictURL,
		models.TierVillage:     c.Data.VillageURL,
	} {
		if u != "" {
			urls[tier] = u
		}
	}
	return urls
}

// Helper functions
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
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

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
