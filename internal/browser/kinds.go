// Package browser knows where each supported browser keeps its profiles,
// history and bookmarks, and turns that into a list of Sources.
package browser

import (
	"errors"
	"fmt"
)

// Kind identifies a browser, e.g. "chrome" or "safari".
type Kind string

const (
	Chrome    Kind = "chrome"
	Brave     Kind = "brave"
	BraveBeta Kind = "brave_beta"
	Edge      Kind = "edge"
	Chromium  Kind = "chromium"
	Opera     Kind = "opera"
	Vivaldi   Kind = "vivaldi"
	Arc       Kind = "arc"
	Sidekick  Kind = "sidekick"
	Dia       Kind = "dia"
	Comet     Kind = "comet"
	Safari    Kind = "safari"
)

// Family is the on-disk layout a browser follows.
type Family int

const (
	// FamilyChromium browsers keep one directory per profile with a SQLite
	// History file and a JSON Bookmarks file.
	FamilyChromium Family = iota
	// FamilySafari keeps a single SQLite History.db and a Bookmarks.plist.
	FamilySafari
)

func (f Family) String() string {
	switch f {
	case FamilyChromium:
		return "chromium"
	case FamilySafari:
		return "safari"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// MultiProfile reports whether sources of this family are per-profile.
func (f Family) MultiProfile() bool {
	return f == FamilyChromium
}

// StoreType selects which record store a Source points at.
type StoreType int

const (
	History StoreType = iota
	Bookmarks
)

func (s StoreType) String() string {
	if s == Bookmarks {
		return "bookmarks"
	}
	return "history"
}

// ErrUnknownKind is returned for kinds missing from the browser table.
var ErrUnknownKind = errors.New("unknown browser kind")

// Spec describes one browser kind.
type Spec struct {
	Kind    Kind
	Family  Family
	Label   string // human label, e.g. "Chrome"
	AppName string // macOS application name, e.g. "Google Chrome"
	// DataRoot is relative to the user's home directory.
	DataRoot       string
	HistoryFile    string
	BookmarksFile  string
	LocalStateFile string
}

// StoreFile returns the file name of the given store for this kind.
func (s Spec) StoreFile(store StoreType) string {
	if store == Bookmarks {
		return s.BookmarksFile
	}
	return s.HistoryFile
}

func chromiumSpec(kind Kind, label, app, root string) Spec {
	return Spec{
		Kind:           kind,
		Family:         FamilyChromium,
		Label:          label,
		AppName:        app,
		DataRoot:       root,
		HistoryFile:    "History",
		BookmarksFile:  "Bookmarks",
		LocalStateFile: "Local State",
	}
}

// Table lists every supported browser in discovery order.
var Table = []Spec{
	chromiumSpec(Chrome, "Chrome", "Google Chrome", "Library/Application Support/Google/Chrome"),
	chromiumSpec(Brave, "Brave", "Brave Browser", "Library/Application Support/BraveSoftware/Brave-Browser"),
	chromiumSpec(BraveBeta, "Brave Beta", "Brave Browser Beta", "Library/Application Support/BraveSoftware/Brave-Browser-Beta"),
	chromiumSpec(Edge, "Edge", "Microsoft Edge", "Library/Application Support/Microsoft Edge"),
	chromiumSpec(Chromium, "Chromium", "Chromium", "Library/Application Support/Chromium"),
	chromiumSpec(Opera, "Opera", "Opera", "Library/Application Support/com.operasoftware.Opera"),
	chromiumSpec(Vivaldi, "Vivaldi", "Vivaldi", "Library/Application Support/Vivaldi"),
	chromiumSpec(Arc, "Arc", "Arc", "Library/Application Support/Arc/User Data"),
	chromiumSpec(Sidekick, "Sidekick", "Sidekick", "Library/Application Support/Sidekick"),
	chromiumSpec(Dia, "Dia", "Dia", "Library/Application Support/Dia/User Data"),
	chromiumSpec(Comet, "Comet", "Comet", "Library/Application Support/Comet"),
	{
		Kind:          Safari,
		Family:        FamilySafari,
		Label:         "Safari",
		AppName:       "Safari",
		DataRoot:      "Library/Safari",
		HistoryFile:   "History.db",
		BookmarksFile: "Bookmarks.plist",
	},
}

// Lookup returns the table entry for kind.
func Lookup(kind Kind) (Spec, error) {
	for _, s := range Table {
		if s.Kind == kind {
			return s, nil
		}
	}
	return Spec{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// Kinds returns every supported kind in table order.
func Kinds() []Kind {
	out := make([]Kind, len(Table))
	for i, s := range Table {
		out[i] = s.Kind
	}
	return out
}
