package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/runnerr0/browsersearch/internal/browser"
	"github.com/runnerr0/browsersearch/internal/config"
	"github.com/runnerr0/browsersearch/internal/search"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version         string       `json:"version"`
	ConfigPath      string       `json:"config_path"`
	EnabledBrowsers []string     `json:"enabled_browsers"`
	HistoryStores   []sourceJSON `json:"history_stores"`
	BookmarkStores  []sourceJSON `json:"bookmark_stores"`
	DefaultOperator string       `json:"default_operator"`
	SortRecent      bool         `json:"sort_recent"`
	IgnoredDomains  int          `json:"ignored_domains"`
	MaxResults      int          `json:"max_results"`
	MaxWorkers      int          `json:"max_workers"`
	SourceTimeout   string       `json:"source_timeout"`
}

type sourceJSON struct {
	Browser string `json:"browser"`
	Profile string `json:"profile"`
	Name    string `json:"name"`
	Path    string `json:"path"`
	Size    int64  `json:"size_bytes"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	s, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer s.close()
	return c.run(s, c.configPath())
}

func (c *StatusCommand) configPath() string {
	path := config.DefaultConfigPath
	if c.globals != nil && c.globals.Config != "" {
		path = c.globals.Config
	}
	if expanded, err := config.ExpandPath(path); err == nil {
		return expanded
	}
	return path
}

// statusReport gathers what both output formats print.
type statusReport struct {
	enabled   []browser.Kind
	history   []browser.Source
	bookmarks []browser.Source
}

func (c *StatusCommand) run(s *session, configPath string) error {
	enabled := search.EnabledKinds(s.cfg)
	reg := browser.NewRegistry(s.home, enabled, browser.WithLogger(s.logger.Named("registry")))
	rep := statusReport{
		enabled:   enabled,
		history:   reg.Discover(browser.History),
		bookmarks: reg.Discover(browser.Bookmarks),
	}

	if s.json {
		return c.printStatusJSON(s, configPath, rep)
	}
	c.printStatusHuman(s, configPath, rep)
	return nil
}

func (c *StatusCommand) printStatusHuman(s *session, configPath string, rep statusReport) {
	w := s.out
	cfg := s.cfg

	bold.Fprintln(w, "browsersearch status")
	fmt.Fprintln(w, "====================")
	fmt.Fprintf(w, "Version:       %s\n", c.version)
	fmt.Fprintf(w, "Config:        %s\n", configPath)
	fmt.Fprintf(w, "Browsers:      %s\n", joinKinds(rep.enabled))
	fmt.Fprintf(w, "Operator:      %s\n", strings.ToUpper(cfg.Search.DefaultOperator))
	if cfg.Search.SortRecent {
		fmt.Fprintln(w, "Sort:          last visit")
	} else {
		fmt.Fprintln(w, "Sort:          visit count")
	}
	fmt.Fprintf(w, "Ignored:       %s %s\n", formatNumber(int64(len(cfg.IgnoredDomainList()))), plural(len(cfg.IgnoredDomainList()), "domain"))
	fmt.Fprintf(w, "Max results:   %d\n", cfg.Search.MaxResults)
	fmt.Fprintf(w, "Workers:       %d (timeout %s)\n", cfg.Fetch.MaxWorkers, cfg.Fetch.SourceTimeout)

	printStores(s, "History", rep.history)
	printStores(s, "Bookmarks", rep.bookmarks)
}

func printStores(s *session, heading string, sources []browser.Source) {
	w := s.out
	fmt.Fprintln(w)
	bold.Fprintf(w, "%s stores (%d):\n", heading, len(sources))
	if len(sources) == 0 {
		warn.Fprintln(w, "  none found")
		return
	}
	for _, src := range sources {
		fmt.Fprintf(w, "  %-24s %s\n", profileLabel(src.Kind, src.DisplayName), formatBytes(fileSize(src.StorePath)))
		faint.Fprintf(w, "  %s\n", src.StorePath)
	}
}

func (c *StatusCommand) printStatusJSON(s *session, configPath string, rep statusReport) error {
	cfg := s.cfg
	out := statusJSON{
		Version:         c.version,
		ConfigPath:      configPath,
		EnabledBrowsers: kindNames(rep.enabled),
		HistoryStores:   sourcesJSON(rep.history),
		BookmarkStores:  sourcesJSON(rep.bookmarks),
		DefaultOperator: strings.ToUpper(cfg.Search.DefaultOperator),
		SortRecent:      cfg.Search.SortRecent,
		IgnoredDomains:  len(cfg.IgnoredDomainList()),
		MaxResults:      cfg.Search.MaxResults,
		MaxWorkers:      cfg.Fetch.MaxWorkers,
		SourceTimeout:   cfg.Fetch.SourceTimeout.String(),
	}

	enc := json.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func sourcesJSON(sources []browser.Source) []sourceJSON {
	out := make([]sourceJSON, len(sources))
	for i, src := range sources {
		out[i] = sourceJSON{
			Browser: string(src.Kind),
			Profile: src.ProfileID,
			Name:    src.DisplayName,
			Path:    src.StorePath,
			Size:    fileSize(src.StorePath),
		}
	}
	return out
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
