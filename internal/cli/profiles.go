package cli

import (
	"fmt"

	"github.com/runnerr0/browsersearch/internal/browser"
	"github.com/runnerr0/browsersearch/internal/search"
)

// Execute implements the go-flags Commander interface for ProfilesCommand.
func (c *ProfilesCommand) Execute(args []string) error {
	s, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer s.close()
	return c.run(s)
}

func (c *ProfilesCommand) run(s *session) error {
	profiles := search.NewFromConfig(s.cfg, s.home, nil, s.logger).Profiles()
	if s.json {
		return printProfilesAlfred(s, profiles)
	}

	if len(profiles) == 0 {
		warn.Fprintln(s.out, "No profiles found.")
		fmt.Fprintln(s.out, "No Chromium-family browser is installed, or none is enabled in the config.")
		return nil
	}
	for _, p := range profiles {
		bold.Fprint(s.out, p.DisplayName)
		faint.Fprintf(s.out, "  [%s] %s\n", kindLabel(p.Kind), p.ProfileID)
	}
	return nil
}

func printProfilesAlfred(s *session, profiles []browser.Source) error {
	if len(profiles) == 0 {
		return writeAlfred(s.out, []alfredItem{{
			Title:    "No profiles found!",
			Subtitle: "No browsers installed or enable browsers in workflow settings.",
			Valid:    false,
		}})
	}

	items := make([]alfredItem, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, alfredItem{
			Title:    p.DisplayName,
			Subtitle: fmt.Sprintf("[%s] Switch to %s profile", kindLabel(p.Kind), p.ProfileID),
			Arg:      switchArg(p.Kind, p.ProfileID),
			Valid:    true,
			Icon:     iconFor(p.IconHint),
		})
	}
	return writeAlfred(s.out, items)
}

func kindLabel(k browser.Kind) string {
	if spec, err := browser.Lookup(k); err == nil {
		return spec.Label
	}
	return string(k)
}
