package cli

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/fatih/color"

	"github.com/runnerr0/browsersearch/internal/browser"
	"github.com/runnerr0/browsersearch/internal/record"
	"github.com/runnerr0/browsersearch/internal/search"
)

var (
	bold  = color.New(color.Bold)
	faint = color.New(color.Faint)
	cyan  = color.New(color.FgCyan)
	warn  = color.New(color.FgYellow)
)

// Execute implements the go-flags Commander interface for HistoryCommand.
func (c *HistoryCommand) Execute(args []string) error {
	s, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := commandContext()
	defer cancel()
	return c.run(ctx, s, args)
}

func (c *HistoryCommand) run(ctx context.Context, s *session, args []string) error {
	cfg := *s.cfg
	if c.Recent {
		cfg.Search.SortRecent = true
	}
	if c.Limit > 0 {
		cfg.Search.MaxResults = c.Limit
	}

	q := strings.Join(args, " ")
	res := search.NewFromConfig(&cfg, s.home, nil, s.logger).Search(ctx, q, browser.History)
	return printResult(s, q, browser.History, res)
}

// Execute implements the go-flags Commander interface for BookmarksCommand.
func (c *BookmarksCommand) Execute(args []string) error {
	s, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := commandContext()
	defer cancel()
	return c.run(ctx, s, args)
}

func (c *BookmarksCommand) run(ctx context.Context, s *session, args []string) error {
	cfg := *s.cfg
	if c.Limit > 0 {
		cfg.Search.MaxResults = c.Limit
	}

	q := strings.Join(args, " ")
	res := search.NewFromConfig(&cfg, s.home, nil, s.logger).Search(ctx, q, browser.Bookmarks)
	return printResult(s, q, browser.Bookmarks, res)
}

func printResult(s *session, q string, store browser.StoreType, res search.Result) error {
	if s.json {
		return printResultAlfred(s, q, store, res)
	}
	printResultHuman(s, q, store, res)
	return nil
}

func printResultHuman(s *session, q string, store browser.StoreType, res search.Result) {
	w := s.out
	if res.NoSources() {
		warn.Fprintf(w, "No %s found for the enabled browsers (%s).\n", store, joinKinds(search.EnabledKinds(s.cfg)))
		fmt.Fprintln(w, "Check that the browser is installed or enable another one in the config.")
		return
	}
	if len(res.Records) == 0 {
		if q != "" {
			fmt.Fprintf(w, "No %s matches %q\n", store, q)
		} else {
			fmt.Fprintf(w, "No %s entries\n", store)
		}
		return
	}

	n := len(res.Records)
	if q != "" {
		bold.Fprintf(w, "Found %d %s for %q", n, plural(n, "result"), q)
	} else {
		bold.Fprintf(w, "Found %d %s", n, plural(n, "result"))
	}
	fmt.Fprintf(w, " (%d %s", res.Sources, plural(res.Sources, "source"))
	if res.Failed > 0 {
		fmt.Fprintf(w, ", %d unreadable", res.Failed)
	}
	fmt.Fprint(w, ")\n\n")

	for i, r := range res.Records {
		bold.Fprintf(w, "%d. %s\n", i+1, displayTitle(r.Title, r.URL))
		cyan.Fprintf(w, "   %s\n", r.URL)

		meta := sourceLabel(r)
		if r.Type == record.HistoryEntry {
			meta = fmt.Sprintf("Last visit: %s · Visits: %s · %s",
				formatDate(r.LastVisit, s.cfg.Display.DateFormat), formatNumber(r.VisitCount), meta)
		}
		faint.Fprintf(w, "   %s\n", meta)

		if i < len(res.Records)-1 {
			fmt.Fprintln(w)
		}
	}
}

func printResultAlfred(s *session, q string, store browser.StoreType, res search.Result) error {
	if res.NoSources() {
		title := "Browser History not found!"
		if store == browser.Bookmarks {
			title = "Browser Bookmarks not found!"
		}
		return writeAlfred(s.out, []alfredItem{{
			Title:    title,
			Subtitle: "Ensure Browser is installed or choose available browser(s) in CONFIGURE WORKFLOW",
			Valid:    false,
		}})
	}

	if len(res.Records) == 0 {
		item := alfredItem{
			Title:    "Nothing found in History!",
			Subtitle: fmt.Sprintf("Search %q in Google?", q),
			Arg:      "https://www.google.com/search?q=" + url.QueryEscape(q),
			Valid:    true,
		}
		if store == browser.Bookmarks {
			item.Title = "No Bookmark found!"
			item.Subtitle = fmt.Sprintf("Search %q in Google...", q)
		}
		return writeAlfred(s.out, []alfredItem{item})
	}

	items := make([]alfredItem, 0, len(res.Records))
	for _, r := range res.Records {
		subtitle := shorten(r.URL, 60)
		if r.Type == record.HistoryEntry {
			subtitle = fmt.Sprintf("Last visit: %s (Visits: %d)", formatDate(r.LastVisit, s.cfg.Display.DateFormat), r.VisitCount)
		}
		items = append(items, alfredItem{
			Title:        displayTitle(r.Title, r.URL),
			Subtitle:     subtitle,
			Arg:          r.URL,
			Valid:        true,
			QuickLookURL: r.URL,
			Icon:         iconFor(r.IconHint),
		})
	}
	return writeAlfred(s.out, items)
}

// sourceLabel names the browser and, when it differs, the profile a
// record came from, e.g. "Chrome/Work".
func sourceLabel(r record.Record) string {
	return profileLabel(r.SourceKind, r.SourceDisplayName)
}

func profileLabel(kind browser.Kind, displayName string) string {
	label := kindLabel(kind)
	if displayName != "" && displayName != label {
		label += "/" + displayName
	}
	return label
}
