// Package record defines the unit that flows through the search pipeline
// and maps raw store rows onto it.
package record

import (
	"github.com/runnerr0/browsersearch/internal/browser"
)

// Raw is one row as read from a store. LastVisit is Unix seconds (UTC);
// bookmark rows leave VisitCount and LastVisit at zero.
type Raw struct {
	URL        string
	Title      string
	VisitCount int64
	LastVisit  int64
}

// Type tells history entries from bookmarks.
type Type int

const (
	HistoryEntry Type = iota
	Bookmark
)

func (t Type) String() string {
	if t == Bookmark {
		return "bookmark"
	}
	return "history"
}

// Record is a normalized history entry or bookmark with its provenance.
type Record struct {
	URL        string
	Title      string
	VisitCount int64
	LastVisit  int64 // Unix seconds, 0 when unknown
	Type       Type

	SourceKind        browser.Kind
	SourceProfileID   string
	SourceDisplayName string
	IconHint          string
}

// Key is the deduplication identity of a record.
type Key struct {
	Title string
	URL   string
}

// Key returns the (title, url) identity used for deduplication.
func (r Record) Key() Key {
	return Key{Title: r.Title, URL: r.URL}
}

// Normalize converts the rows read from src into Records. Rows without a
// URL are dropped and negative counters clamp to zero.
func Normalize(src browser.Source, rows []Raw) []Record {
	typ := HistoryEntry
	if src.Store == browser.Bookmarks {
		typ = Bookmark
	}

	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		if row.URL == "" {
			continue
		}
		out = append(out, Record{
			URL:               row.URL,
			Title:             row.Title,
			VisitCount:        max(row.VisitCount, 0),
			LastVisit:         max(row.LastVisit, 0),
			Type:              typ,
			SourceKind:        src.Kind,
			SourceProfileID:   src.ProfileID,
			SourceDisplayName: src.DisplayName,
			IconHint:          src.IconHint,
		})
	}
	return out
}
