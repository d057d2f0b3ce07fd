package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	History   *HistoryCommand
	Bookmarks *BookmarksCommand
	Profiles  *ProfilesCommand
	Status    *StatusCommand
	Switch    *SwitchCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "browsersearch"
	parser.LongDescription = "Search history and bookmarks across every installed browser and profile."

	cmds := &commands{
		History:   &HistoryCommand{globals: &globals, version: version},
		Bookmarks: &BookmarksCommand{globals: &globals, version: version},
		Profiles:  &ProfilesCommand{globals: &globals, version: version},
		Status:    &StatusCommand{globals: &globals, version: version},
		Switch:    &SwitchCommand{globals: &globals, version: version},
	}

	parser.AddCommand("history", "Search browser history", "Search the history of all enabled browsers and profiles. Terms are ANDed by default; use & or | to force an operator.", cmds.History)
	parser.AddCommand("bookmarks", "Search bookmarks", "Search the bookmarks of all enabled browsers and profiles.", cmds.Bookmarks)
	parser.AddCommand("profiles", "List browser profiles", "List the profiles of enabled Chromium-family browsers.", cmds.Profiles)
	parser.AddCommand("status", "Show configuration and discovered stores", "Show enabled browsers, discovered history and bookmark stores, and search settings.", cmds.Status)
	parser.AddCommand("switch", "Open a browser profile", "Open or focus a browser profile. Accepts --browser/--profile or a single kind:profile argument.", cmds.Switch)

	return parser, &globals, cmds
}

// Run is the main entry point for the CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("browsersearch %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
