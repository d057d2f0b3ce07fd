package config

import (
	"strconv"
	"strings"
)

// LookupFunc has the shape of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Workflow variable names understood by ApplyEnv, in addition to one
// boolean per browser kind (e.g. "chrome", "safari").
const (
	EnvIgnoredDomains  = "ignored_domains"
	EnvSortRecent      = "sort_recent"
	EnvDefaultOperator = "search_operator_default"
	EnvDateFormat      = "date_format"
	EnvAvatarCacheDir  = "alfred_workflow_cache"
)

// ApplyEnv overlays launcher workflow variables on top of cfg. Only keys
// that are present are applied; browser enablement keys are looked up for
// every kind already listed in cfg.Browsers.
func (c *Config) ApplyEnv(lookup LookupFunc) {
	if lookup == nil {
		return
	}
	if c.Browsers == nil {
		c.Browsers = make(map[string]bool)
	}
	for kind := range c.Browsers {
		if v, ok := lookup(kind); ok {
			c.Browsers[kind] = parseBool(v)
		}
	}
	if v, ok := lookup(EnvIgnoredDomains); ok {
		c.Search.IgnoredDomains = ParseDomainList(v)
	}
	if v, ok := lookup(EnvSortRecent); ok {
		c.Search.SortRecent = parseBool(v)
	}
	if v, ok := lookup(EnvDefaultOperator); ok && v != "" {
		// Anything other than OR means AND.
		if strings.EqualFold(strings.TrimSpace(v), OperatorOR) {
			c.Search.DefaultOperator = OperatorOR
		} else {
			c.Search.DefaultOperator = OperatorAND
		}
	}
	if v, ok := lookup(EnvDateFormat); ok && v != "" {
		c.Display.DateFormat = v
	}
	if v, ok := lookup(EnvAvatarCacheDir); ok && v != "" && c.Profiles.AvatarCacheDir == "" {
		c.Profiles.AvatarCacheDir = v
	}
}

// ParseDomainList splits a comma-separated domain list, dropping blanks.
func ParseDomainList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseBool accepts the values launchers use for checkbox variables.
func parseBool(s string) bool {
	s = strings.TrimSpace(s)
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	switch strings.ToLower(s) {
	case "yes", "on":
		return true
	}
	return false
}
