// Package config loads the memegen CLI configuration from a YAML file.
//
// The default location is os.UserConfigDir()/memegen/config.yaml; the
// --config flag overrides it. API keys may be given inline or named via
// an environment variable, which wins when both are set.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

const (
	appDir      = "memegen"
	defaultFile = "config.yaml"
)

// Config is the root CLI configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error. Empty means info.
	LogLevel string `yaml:"log_level"`

	Templates  Templates  `yaml:"templates"`
	Exemplars  Exemplars  `yaml:"exemplars"`
	Embedding  Embedding  `yaml:"embedding"`
	Generation Generation `yaml:"generation"`
	Retrieval  Retrieval  `yaml:"retrieval"`
}

// Templates configures the template collection sources.
type Templates struct {
	// StoreDir is the BadgerDB directory; empty disables the primary
	// store and reads the file only.
	StoreDir string `yaml:"store_dir"`

	// File is the static JSON collection used as fallback.
	File string `yaml:"file"`
}

// Exemplars configures the exemplar corpus directory.
type Exemplars struct {
	Dir string `yaml:"dir"`

	// Aliases maps a template key to a corpus file name when the file
	// does not follow the "<key>.json" convention.
	Aliases map[string]string `yaml:"aliases"`
}

// Embedding configures the embedder.
type Embedding struct {
	// Provider is "openai" or "hash". Empty means openai.
	Provider string `yaml:"provider"`

	APIKey    string `yaml:"api_key"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`

	// CacheDir is the BadgerDB directory for the embedding cache; empty
	// keeps the cache in memory.
	CacheDir string `yaml:"cache_dir"`
}

// Generation configures the caption generator backend.
type Generation struct {
	// Provider is "openai" or "gemini". Empty means openai.
	Provider string `yaml:"provider"`

	APIKey    string `yaml:"api_key"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
}

// Retrieval tunes exemplar retrieval.
type Retrieval struct {
	// TopK caps the retrieved exemplars per request; 0 uses the default.
	TopK int `yaml:"top_k"`
}

// DefaultPath returns the default configuration file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, defaultFile), nil
}

// Load reads the configuration from path. An empty path uses the default
// location; a missing file at the default location yields a zero config
// rather than an error, so commands that need no credentials still run.
func Load(path string) (*Config, error) {
	useDefault := path == ""
	if useDefault {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if useDefault && os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// ResolveKey returns the API key, preferring the named environment
// variable over the inline value.
func ResolveKey(inline, envName string) string {
	if envName != "" {
		if v := os.Getenv(envName); v != "" {
			return v
		}
	}
	return inline
}
