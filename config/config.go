package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/viant/tenant-vec/internal/logging"
	"github.com/viant/tenant-vec/persist"
	"gopkg.in/yaml.v3"
)

// Environment variables overlaid by ApplyEnv.
const (
	EnvIndexDir     = "TENANTVEC_INDEX_DIR"
	EnvDatabase     = "TENANTVEC_DATABASE"
	EnvNormalize    = "TENANTVEC_NORMALIZE"
	EnvCompression  = "TENANTVEC_COMPRESSION"
	EnvEmbedBackend = "TENANTVEC_EMBED_BACKEND"
	EnvEmbedDim     = "TENANTVEC_EMBED_DIM"
	EnvEmbedLang    = "TENANTVEC_EMBED_LANGUAGE"
	EnvLogLevel     = "TENANTVEC_LOG_LEVEL"
	EnvLogFormat    = "TENANTVEC_LOG_FORMAT"
)

// Embed selects the embedding backend.
type Embed struct {
	Backend  string `yaml:"backend"`
	Dim      int    `yaml:"dim"`
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
}

// Config is the process configuration.
type Config struct {
	IndexDir     string `yaml:"indexDir"`
	DatabasePath string `yaml:"database"`
	Normalize    bool   `yaml:"normalize"`
	Compression  string `yaml:"compression"`
	LogLevel     string `yaml:"logLevel"`
	LogFormat    string `yaml:"logFormat"`
	Embed        Embed  `yaml:"embed"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		IndexDir:     "indexes",
		DatabasePath: "tenantvec.db",
		Normalize:    true,
		Compression:  "zstd",
		LogLevel:     "info",
		LogFormat:    "text",
		Embed: Embed{
			Backend:  "hash",
			Dim:      512,
			Model:    "hash-v1",
			Language: "en",
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays the TENANTVEC_* environment variables.
func (c *Config) ApplyEnv() error {
	envString(EnvIndexDir, &c.IndexDir)
	envString(EnvDatabase, &c.DatabasePath)
	envString(EnvCompression, &c.Compression)
	envString(EnvEmbedBackend, &c.Embed.Backend)
	envString(EnvEmbedLang, &c.Embed.Language)
	envString(EnvLogLevel, &c.LogLevel)
	envString(EnvLogFormat, &c.LogFormat)
	if raw, ok := lookup(EnvNormalize); ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvNormalize, err)
		}
		c.Normalize = v
	}
	if raw, ok := lookup(EnvEmbedDim); ok {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvEmbedDim, err)
		}
		c.Embed.Dim = v
	}
	return nil
}

// Validate checks that every field is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.IndexDir == "" {
		errs = append(errs, errors.New("indexDir is required"))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database is required"))
	}
	if _, err := persist.ParseCompression(c.Compression); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if c.Embed.Backend == "" {
		errs = append(errs, errors.New("embed.backend is required"))
	}
	if c.Embed.Dim <= 0 {
		errs = append(errs, fmt.Errorf("embed.dim must be positive, got %d", c.Embed.Dim))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// PersistCompression returns the parsed compression setting.
func (c *Config) PersistCompression() persist.Compression {
	comp, _ := persist.ParseCompression(c.Compression)
	return comp
}

func lookup(key string) (string, bool) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func envString(key string, dst *string) {
	if raw, ok := lookup(key); ok {
		*dst = raw
	}
}
