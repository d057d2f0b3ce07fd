package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
	"go.uber.org/zap"

	"github.com/runnerr0/browsersearch/internal/browser"
	"github.com/runnerr0/browsersearch/internal/config"
	"github.com/runnerr0/browsersearch/internal/logging"
)

// session is what a command needs once flags are parsed: the effective
// config, the home directory browsers are discovered under, a logger and
// the writer command output goes to.
type session struct {
	cfg    *config.Config
	home   string
	logger *zap.Logger
	out    io.Writer
	json   bool
}

// openSession loads the config (creating it with defaults when missing),
// overlays workflow variables from the environment and builds the logger.
func openSession(g *GlobalFlags) (*session, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.Config != "" {
		path, perr := config.ExpandPath(g.Config)
		if perr != nil {
			return nil, perr
		}
		cfg, err = config.LoadOrCreateAt(path)
	} else {
		cfg, err = config.LoadOrCreate()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, g.Verbose)
	if err != nil {
		return nil, err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	return &session{cfg: cfg, home: home, logger: logger, out: os.Stdout, json: g.JSON}, nil
}

func (s *session) close() {
	_ = s.logger.Sync()
}

// commandContext returns a context cancelled on interrupt.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// alfredItem is one row of an Alfred script filter response.
type alfredItem struct {
	UID          string      `json:"uid,omitempty"`
	Title        string      `json:"title"`
	Subtitle     string      `json:"subtitle"`
	Arg          string      `json:"arg,omitempty"`
	Valid        bool        `json:"valid"`
	QuickLookURL string      `json:"quicklookurl,omitempty"`
	Icon         *alfredIcon `json:"icon,omitempty"`
}

type alfredIcon struct {
	Type string `json:"type,omitempty"`
	Path string `json:"path"`
}

type alfredOutput struct {
	Items []alfredItem `json:"items"`
}

func writeAlfred(w io.Writer, items []alfredItem) error {
	if items == nil {
		items = []alfredItem{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(alfredOutput{Items: items})
}

// iconFor returns an image icon for path, or nil when there is none.
func iconFor(path string) *alfredIcon {
	if path == "" {
		return nil
	}
	return &alfredIcon{Path: path}
}

// formatDate renders Unix seconds with a strftime pattern in local time.
func formatDate(unix int64, pattern string) string {
	if unix <= 0 {
		return "unknown"
	}
	if pattern == "" {
		pattern = "%d. %B %Y"
	}
	return strftime.Format(pattern, time.Unix(unix, 0).Local())
}

// displayTitle falls back to the URL host for untitled records.
func displayTitle(title, rawURL string) string {
	if strings.TrimSpace(title) != "" {
		return title
	}
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return u.Host
	}
	return rawURL
}

// shorten cuts s to n runes, marking the cut with "...".
func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// formatNumber formats an int64 with comma separators.
func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
		if len(s) > remainder {
			result.WriteString(",")
		}
	}
	for i := remainder; i < len(s); i += 3 {
		if i > remainder {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// plural picks the singular or plural form of word for n.
func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func kindNames(kinds []browser.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

// joinKinds renders kinds for humans, "none" when empty.
func joinKinds(kinds []browser.Kind) string {
	if len(kinds) == 0 {
		return "none"
	}
	return strings.Join(kindNames(kinds), ", ")
}
