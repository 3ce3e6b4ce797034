// Package config loads the fusiondex configuration from per-environment
// YAML files with ${VAR} environment expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/coraldata/fusiondex/internal/domain"
)

// Config holds the fusiondex configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Search    SearchConfig    `yaml:"search"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// MongoConfig holds document store connection settings.
type MongoConfig struct {
	URI              string `yaml:"uri"`
	Database         string `yaml:"database"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// SearchConfig holds the hybrid search settings: target collection, index
// and field names, and the per-signal fusion weights. Weights are pointers
// so an explicit 0 (disable a signal) is distinguishable from unset.
type SearchConfig struct {
	Collection   string   `yaml:"collection"`
	VectorIndex  string   `yaml:"vector_index"`
	TextIndex    string   `yaml:"text_index"`
	VectorField  string   `yaml:"vector_field"`
	TextField    string   `yaml:"text_field"`
	VectorWeight *float64 `yaml:"vector_weight"`
	TextWeight   *float64 `yaml:"text_weight"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// CacheConfig holds the optional embedding cache settings. The cache sits
// at the provider boundary; the search engine itself never caches.
type CacheConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Addrs    []string `yaml:"addrs"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
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

// ApplyDefaults fills empty fields with default values. Connection URI and
// the provider API key have no default and stay subject to Validate.
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
	if c.Mongo.Database == "" {
		c.Mongo.Database = "sample_mflix"
	}
	if c.Mongo.ReadinessTimeout <= 0 {
		c.Mongo.ReadinessTimeout = 10
	}
	if c.Search.Collection == "" {
		c.Search.Collection = "movies_embedded_ada"
	}
	if c.Search.VectorIndex == "" {
		c.Search.VectorIndex = "vectorIndex"
	}
	if c.Search.TextIndex == "" {
		c.Search.TextIndex = "searchIndex"
	}
	if c.Search.VectorField == "" {
		c.Search.VectorField = "embedding"
	}
	if c.Search.TextField == "" {
		c.Search.TextField = "text"
	}
	if c.Search.VectorWeight == nil {
		w := domain.DefaultVectorWeight
		c.Search.VectorWeight = &w
	}
	if c.Search.TextWeight == nil {
		w := domain.DefaultTextWeight
		c.Search.TextWeight = &w
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-ada-002"
	}
}

// Validate checks the configuration for correctness. Every missing required
// key is collected and reported in one error.
func (c *Config) Validate() error {
	var missing []string
	for _, f := range []struct {
		key   string
		value string
	}{
		{"mongo.uri", c.Mongo.URI},
		{"mongo.database", c.Mongo.Database},
		{"embedding.api_key", c.Embedding.APIKey},
		{"search.collection", c.Search.Collection},
		{"search.vector_index", c.Search.VectorIndex},
		{"search.text_index", c.Search.TextIndex},
		{"search.vector_field", c.Search.VectorField},
		{"search.text_field", c.Search.TextField},
	} {
		if f.value == "" {
			missing = append(missing, f.key)
		}
	}
	if len(missing) > 0 {
		return &domain.ConfigError{Missing: missing}
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("%w: http.port must be between 1 and 65535, got %d",
			domain.ErrConfiguration, c.HTTP.Port)
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("%w: cache.addrs is required when cache.enabled is set",
			domain.ErrConfiguration)
	}
	return nil
}

// Settings converts the search section into the immutable settings object
// consumed by the engine.
func (c *Config) Settings() domain.Settings {
	return domain.Settings{
		Database:     c.Mongo.Database,
		Collection:   c.Search.Collection,
		VectorIndex:  c.Search.VectorIndex,
		TextIndex:    c.Search.TextIndex,
		VectorField:  c.Search.VectorField,
		TextField:    c.Search.TextField,
		VectorWeight: *c.Search.VectorWeight,
		TextWeight:   *c.Search.TextWeight,
	}
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
