package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/browsersearch/config.yaml"

// Search operators accepted by SearchConfig.DefaultOperator.
const (
	OperatorAND = "AND"
	OperatorOR  = "OR"
)

// ErrInvalidOperator is returned by Validate for an unknown default operator.
var ErrInvalidOperator = errors.New("invalid search operator")

// Config holds all browsersearch configuration. It is built once per
// invocation and handed to component constructors.
type Config struct {
	Browsers map[string]bool `yaml:"browsers"`
	Search   SearchConfig    `yaml:"search"`
	Fetch    FetchConfig     `yaml:"fetch"`
	Display  DisplayConfig   `yaml:"display"`
	Profiles ProfilesConfig  `yaml:"profiles"`
	Logging  LoggingConfig   `yaml:"logging"`
}

type SearchConfig struct {
	DefaultOperator  string   `yaml:"default_operator"`
	SortRecent       bool     `yaml:"sort_recent"`
	IgnoredDomains   []string `yaml:"ignored_domains"`
	ExcludeSensitive bool     `yaml:"exclude_sensitive"`
	MaxResults       int      `yaml:"max_results"`
}

type FetchConfig struct {
	MaxWorkers    int           `yaml:"max_workers"`
	SourceTimeout time.Duration `yaml:"source_timeout"`
	TempDir       string        `yaml:"temp_dir"`
}

type DisplayConfig struct {
	DateFormat string `yaml:"date_format"`
}

type ProfilesConfig struct {
	AvatarCacheDir string `yaml:"avatar_cache_dir"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read or contains invalid YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise silently misbehave.
func (c *Config) Validate() error {
	switch strings.ToUpper(c.Search.DefaultOperator) {
	case OperatorAND, OperatorOR:
	default:
		return fmt.Errorf("%w: %q (use AND or OR)", ErrInvalidOperator, c.Search.DefaultOperator)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults)
	}
	if c.Fetch.MaxWorkers <= 0 {
		return fmt.Errorf("fetch.max_workers must be positive, got %d", c.Fetch.MaxWorkers)
	}
	return nil
}

// Enabled reports whether the browser kind is switched on.
func (c *Config) Enabled(kind string) bool {
	return c.Browsers[kind]
}

// IgnoredDomainList returns the effective ignore list: configured domains
// plus the sensitive-domain list when ExcludeSensitive is set.
func (c *Config) IgnoredDomainList() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(d string) {
		d = strings.TrimSpace(d)
		if d == "" || seen[d] {
			return
		}
		seen[d] = true
		out = append(out, d)
	}
	for _, d := range c.Search.IgnoredDomains {
		add(d)
	}
	if c.Search.ExcludeSensitive {
		for _, d := range DefaultSensitiveDomains() {
			add(d)
		}
	}
	return out
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := ExpandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}
