package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/browsersearch/internal/testutil"
)

const (
	chromeRoot = "Library/Application Support/Google/Chrome"
	safariRoot = "Library/Safari"
)

func seedHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	now := time.Now()

	testutil.ChromiumHistory(t, filepath.Join(home, chromeRoot, "Default", "History"), []testutil.Visit{
		{URL: "https://go.dev/doc", Title: "Go Documentation", VisitCount: 1200, LastVisit: now.Add(-time.Hour)},
		{URL: "https://go.dev/blog", Title: "Go Blog", VisitCount: 3, LastVisit: now},
		{URL: "https://example.com", Title: "Example", VisitCount: 1, LastVisit: now},
	})
	testutil.LocalState(t, filepath.Join(home, chromeRoot), map[string]testutil.ProfileInfo{
		"Default": {Name: "Work"},
	})
	testutil.ChromiumBookmarks(t, filepath.Join(home, chromeRoot, "Default", "Bookmarks"), []testutil.Bookmark{
		{Title: "Go Playground", URL: "https://go.dev/play"},
		{Title: "", URL: "https://tour.golang.org/welcome"},
	})
	testutil.SafariBookmarks(t, filepath.Join(home, safariRoot, "Bookmarks.plist"), []testutil.Bookmark{
		{Title: "Go Packages", URL: "https://pkg.go.dev/some/really/long/path/that/keeps/going/and/going/forever"},
	})
	return home
}

func TestHistory_Human(t *testing.T) {
	s, out := newTestSession(t, seedHome(t), false)
	cmd := &HistoryCommand{}

	require.NoError(t, cmd.run(context.Background(), s, []string{"go"}))

	text := out.String()
	assert.Contains(t, text, `Found 2 results for "go" (1 source)`)
	assert.Contains(t, text, "1. Go Documentation")
	assert.Contains(t, text, "Visits: 1,200")
	assert.Contains(t, text, "Chrome/Work")
	assert.Contains(t, text, "2. Go Blog")
	assert.NotContains(t, text, "Example")
}

func TestHistory_RecentFlagReorders(t *testing.T) {
	s, out := newTestSession(t, seedHome(t), false)
	cmd := &HistoryCommand{Recent: true, Limit: 1}

	require.NoError(t, cmd.run(context.Background(), s, []string{"go"}))
	assert.Contains(t, out.String(), "1. Go Blog")
	assert.NotContains(t, out.String(), "Go Documentation")
}

func TestHistory_NoMatches(t *testing.T) {
	s, out := newTestSession(t, seedHome(t), false)
	require.NoError(t, (&HistoryCommand{}).run(context.Background(), s, []string{"zzz"}))
	assert.Contains(t, out.String(), `No history matches "zzz"`)
}

func TestHistory_NoSourcesMessage(t *testing.T) {
	s, out := newTestSession(t, t.TempDir(), false)
	require.NoError(t, (&HistoryCommand{}).run(context.Background(), s, []string{"go"}))
	assert.Contains(t, out.String(), "No history found for the enabled browsers (chrome, safari)")
}

func decodeAlfred(t *testing.T, data []byte) []alfredItem {
	t.Helper()
	var doc alfredOutput
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc.Items
}

func TestHistory_Alfred(t *testing.T) {
	s, out := newTestSession(t, seedHome(t), true)
	require.NoError(t, (&HistoryCommand{}).run(context.Background(), s, []string{"documentation"}))

	items := decodeAlfred(t, out.Bytes())
	require.Len(t, items, 1)
	assert.Equal(t, "Go Documentation", items[0].Title)
	assert.Equal(t, "https://go.dev/doc", items[0].Arg)
	assert.Equal(t, "https://go.dev/doc", items[0].QuickLookURL)
	assert.Regexp(t, `^Last visit: \d{4}-\d{2}-\d{2} \(Visits: 1200\)$`, items[0].Subtitle)
	assert.True(t, items[0].Valid)
}

func TestHistory_AlfredEmptyAndMissing(t *testing.T) {
	s, out := newTestSession(t, seedHome(t), true)
	require.NoError(t, (&HistoryCommand{}).run(context.Background(), s, []string{"no such thing"}))
	items := decodeAlfred(t, out.Bytes())
	require.Len(t, items, 1)
	assert.Equal(t, "Nothing found in History!", items[0].Title)
	assert.Equal(t, "https://www.google.com/search?q=no+such+thing", items[0].Arg)

	s, out = newTestSession(t, t.TempDir(), true)
	require.NoError(t, (&HistoryCommand{}).run(context.Background(), s, nil))
	items = decodeAlfred(t, out.Bytes())
	require.Len(t, items, 1)
	assert.Equal(t, "Browser History not found!", items[0].Title)
	assert.False(t, items[0].Valid)
}

func TestBookmarks_AlfredAcrossBrowsers(t *testing.T) {
	s, out := newTestSession(t, seedHome(t), true)
	require.NoError(t, (&BookmarksCommand{}).run(context.Background(), s, []string{"go"}))

	items := decodeAlfred(t, out.Bytes())
	require.Len(t, items, 3)
	assert.Equal(t, "tour.golang.org", items[0].Title, "untitled bookmark shows the host")
	assert.Equal(t, "Go Playground", items[1].Title)
	assert.Equal(t, "https://go.dev/play", items[1].Subtitle)
	assert.Equal(t, "Go Packages", items[2].Title)
	assert.Len(t, []rune(items[2].Subtitle), 63, "long URLs are shortened")
}

func TestBookmarks_NoMatchAlfred(t *testing.T) {
	s, out := newTestSession(t, seedHome(t), true)
	require.NoError(t, (&BookmarksCommand{}).run(context.Background(), s, []string{"rust"}))

	items := decodeAlfred(t, out.Bytes())
	require.Len(t, items, 1)
	assert.Equal(t, "No Bookmark found!", items[0].Title)
	assert.Equal(t, `Search "rust" in Google...`, items[0].Subtitle)
}
