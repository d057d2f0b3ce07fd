package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/runnerr0/browsersearch/internal/browser"
)

// switchArg encodes a profile as the single argument the switch command
// accepts, e.g. "chrome:Profile 1".
func switchArg(kind browser.Kind, profileID string) string {
	return string(kind) + ":" + profileID
}

// parseSwitchArg splits "kind:profile". The profile part may be empty.
func parseSwitchArg(arg string) (browser.Kind, string) {
	kind, profile, _ := strings.Cut(strings.TrimSpace(arg), ":")
	return browser.Kind(strings.ToLower(kind)), profile
}

// Execute implements the go-flags Commander interface for SwitchCommand.
func (c *SwitchCommand) Execute(args []string) error {
	s, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := commandContext()
	defer cancel()
	return c.run(ctx, s, args)
}

func (c *SwitchCommand) run(ctx context.Context, s *session, args []string) error {
	kind, profile := browser.Kind(strings.ToLower(c.Browser)), c.Profile
	if kind == "" {
		if len(args) != 1 {
			return fmt.Errorf("--browser is required (or pass a single kind:profile argument)")
		}
		kind, profile = parseSwitchArg(args[0])
	}

	spec, err := browser.Lookup(kind)
	if err != nil {
		return err
	}
	if profile == "" && spec.Family.MultiProfile() {
		profile = "Default"
	}

	sw := browser.NewSwitcher(nil, c.runner, s.logger.Named("switch"))
	if c.DryRun {
		cmd, err := sw.LaunchCommand(kind, profile)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, strings.Join(quoteArgs(cmd), " "))
		return nil
	}
	return sw.Switch(ctx, kind, profile)
}

func quoteArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t\"'") {
			a = fmt.Sprintf("%q", a)
		}
		out[i] = a
	}
	return out
}
