package config

import "time"

// DefaultMaxResults is the number of records kept after ranking.
const DefaultMaxResults = 30

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Browsers: map[string]bool{
			"chrome":     true,
			"brave":      false,
			"brave_beta": false,
			"edge":       false,
			"chromium":   false,
			"opera":      false,
			"vivaldi":    false,
			"arc":        false,
			"sidekick":   false,
			"dia":        false,
			"comet":      false,
			"safari":     true,
		},
		Search: SearchConfig{
			DefaultOperator:  OperatorAND,
			SortRecent:       false,
			IgnoredDomains:   []string{},
			ExcludeSensitive: false,
			MaxResults:       DefaultMaxResults,
		},
		Fetch: FetchConfig{
			MaxWorkers:    16,
			SourceTimeout: 5 * time.Second,
			TempDir:       "",
		},
		Display: DisplayConfig{
			DateFormat: "%d. %B %Y",
		},
		Profiles: ProfilesConfig{
			AvatarCacheDir: "",
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}
