package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the edgeq service configuration.
type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Cache         CacheConfig         `yaml:"cache"`
	Engine        EngineConfig        `yaml:"engine"`
	Auth          AuthConfig          `yaml:"auth"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	// CORSAllowedOrigins lists origins allowed cross-origin access; empty allows any.
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// ElasticsearchConfig holds backend connection settings.
type ElasticsearchConfig struct {
	URL               string  `yaml:"url"`
	Index             string  `yaml:"index"`
	TimeoutSec        int     `yaml:"timeout_sec"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
	Burst             int     `yaml:"burst"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"` // 0 = no expiry
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EngineConfig holds query engine settings.
type EngineConfig struct {
	DefaultFormat    string   `yaml:"default_format"` // cube, table, list (default: list)
	TermsSize        int      `yaml:"terms_size"`     // 0 = backend default
	AggsVersions     []string `yaml:"aggs_versions"`
	BatchConcurrency int      `yaml:"batch_concurrency"`
	MaxBatchSize     int      `yaml:"max_batch_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes, defaults and validates a YAML document.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Elasticsearch.TimeoutSec <= 0 {
		c.Elasticsearch.TimeoutSec = 30
	}
	if c.Elasticsearch.Burst <= 0 {
		c.Elasticsearch.Burst = 10
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "valkey"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Engine.DefaultFormat == "" {
		c.Engine.DefaultFormat = "list"
	}
	if c.Engine.BatchConcurrency <= 0 {
		c.Engine.BatchConcurrency = 4
	}
	if c.Engine.MaxBatchSize <= 0 {
		c.Engine.MaxBatchSize = 50
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Elasticsearch.URL == "" {
		return fmt.Errorf("elasticsearch.url is required")
	}
	if c.Elasticsearch.RequestsPerSecond < 0 {
		return fmt.Errorf("elasticsearch.requests_per_second must not be negative, got %g",
			c.Elasticsearch.RequestsPerSecond)
	}
	if c.Cache.Enabled {
		switch c.Cache.Driver {
		case "valkey", "redis":
			// ok
		default:
			return fmt.Errorf("cache.driver must be \"valkey\" or \"redis\", got %q", c.Cache.Driver)
		}
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required when cache is enabled")
		}
	}
	switch c.Engine.DefaultFormat {
	case "cube", "table", "list":
		// ok
	default:
		return fmt.Errorf("engine.default_format must be one of cube, table, list, got %q", c.Engine.DefaultFormat)
	}
	if c.Engine.TermsSize < 0 {
		return fmt.Errorf("engine.terms_size must not be negative, got %d", c.Engine.TermsSize)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
