package cli

import "github.com/runnerr0/browsersearch/internal/browser"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output Alfred script filter JSON"`
	Verbose bool   `long:"verbose" description:"Enable debug logging on stderr"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// HistoryCommand searches browser history.
type HistoryCommand struct {
	Recent bool `long:"recent" description:"Sort by last visit instead of visit count"`
	Limit  int  `long:"limit" description:"Maximum results (default from config)"`

	globals *GlobalFlags
	version string
}

// BookmarksCommand searches browser bookmarks.
type BookmarksCommand struct {
	Limit int `long:"limit" description:"Maximum results (default from config)"`

	globals *GlobalFlags
	version string
}

// ProfilesCommand lists the profiles of enabled Chromium-family browsers.
type ProfilesCommand struct {
	globals *GlobalFlags
	version string
}

// StatusCommand shows enabled browsers, discovered stores and settings.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// SwitchCommand opens or focuses a browser profile.
type SwitchCommand struct {
	Browser string `long:"browser" description:"Browser kind, e.g. chrome"`
	Profile string `long:"profile" description:"Profile directory, e.g. \"Profile 1\""`
	DryRun  bool   `long:"dry-run" description:"Print the launch command instead of running it"`

	globals *GlobalFlags
	version string
	runner  browser.CommandRunner // injectable for testing; nil means run for real
}
