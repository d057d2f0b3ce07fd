// Package testutil builds on-disk browser stores for tests: Chromium and
// Safari history databases, bookmark files and Local State documents.
package testutil

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"howett.net/plist"
)

// Offsets between the Unix epoch and the browsers' own epochs, in seconds.
const (
	chromiumEpochOffset = 11644473600 // 1601-01-01
	safariEpochOffset   = 978307200   // 2001-01-01
)

// Visit is one history entry to seed into a fixture database.
type Visit struct {
	URL        string
	Title      string
	VisitCount int
	LastVisit  time.Time
}

// Bookmark is one bookmark to seed into a fixture file.
type Bookmark struct {
	Title string
	URL   string
}

// ChromiumMicros converts t to Chromium's microseconds since 1601-01-01.
func ChromiumMicros(t time.Time) int64 {
	return (t.Unix() + chromiumEpochOffset) * 1_000_000
}

// ChromiumHistory writes a Chromium-style History database at path.
func ChromiumHistory(t *testing.T, path string, visits []Visit) {
	t.Helper()
	stmts := []string{
		`CREATE TABLE urls (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			url             LONGVARCHAR,
			title           LONGVARCHAR,
			visit_count     INTEGER DEFAULT 0 NOT NULL,
			typed_count     INTEGER DEFAULT 0 NOT NULL,
			last_visit_time INTEGER NOT NULL,
			hidden          INTEGER DEFAULT 0 NOT NULL
		)`,
		`CREATE TABLE visits (
			id         INTEGER PRIMARY KEY,
			url        INTEGER NOT NULL,
			visit_time INTEGER NOT NULL
		)`,
		`CREATE TABLE meta (key LONGVARCHAR NOT NULL UNIQUE PRIMARY KEY, value LONGVARCHAR)`,
	}

	db := createDB(t, path, stmts)
	defer db.Close()

	for _, v := range visits {
		micros := ChromiumMicros(v.LastVisit)
		res, err := db.Exec(
			"INSERT INTO urls (url, title, visit_count, last_visit_time) VALUES (?, ?, ?, ?)",
			v.URL, v.Title, v.VisitCount, micros,
		)
		require.NoError(t, err)
		id, err := res.LastInsertId()
		require.NoError(t, err)

		// One visits row per counted visit, so the DISTINCT join is exercised.
		n := v.VisitCount
		if n < 1 {
			n = 1
		}
		for i := 0; i < n; i++ {
			_, err := db.Exec("INSERT INTO visits (url, visit_time) VALUES (?, ?)", id, micros)
			require.NoError(t, err)
		}
	}
}

// SafariHistory writes a Safari-style History.db at path.
func SafariHistory(t *testing.T, path string, visits []Visit) {
	t.Helper()
	stmts := []string{
		`CREATE TABLE history_items (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			url         TEXT NOT NULL UNIQUE,
			domain_expansion TEXT NULL,
			visit_count INTEGER NOT NULL
		)`,
		`CREATE TABLE history_visits (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			history_item INTEGER NOT NULL REFERENCES history_items(id) ON DELETE CASCADE,
			visit_time   REAL NOT NULL,
			title        TEXT NULL
		)`,
	}

	db := createDB(t, path, stmts)
	defer db.Close()

	for _, v := range visits {
		res, err := db.Exec(
			"INSERT INTO history_items (url, visit_count) VALUES (?, ?)",
			v.URL, v.VisitCount,
		)
		require.NoError(t, err)
		id, err := res.LastInsertId()
		require.NoError(t, err)

		seconds := float64(v.LastVisit.Unix()-safariEpochOffset) + 0.25
		_, err = db.Exec(
			"INSERT INTO history_visits (history_item, visit_time, title) VALUES (?, ?, ?)",
			id, seconds, v.Title,
		)
		require.NoError(t, err)
	}
}

func createDB(t *testing.T, path string, stmts []string) *sql.DB {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)

	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, "exec %s", stmt)
	}
	return db
}

// ChromiumBookmarks writes a Chromium-style Bookmarks JSON file at path.
// The first half of the bookmarks goes into the bookmark bar, the rest
// into a nested folder under "other".
func ChromiumBookmarks(t *testing.T, path string, bookmarks []Bookmark) {
	t.Helper()

	node := func(b Bookmark) map[string]any {
		return map[string]any{"type": "url", "name": b.Title, "url": b.URL}
	}
	half := len(bookmarks) / 2
	bar := []any{}
	for _, b := range bookmarks[:half] {
		bar = append(bar, node(b))
	}
	nested := []any{}
	for _, b := range bookmarks[half:] {
		nested = append(nested, node(b))
	}

	doc := map[string]any{
		"checksum": "0",
		"roots": map[string]any{
			"bookmark_bar": map[string]any{
				"type":     "folder",
				"name":     "Bookmarks Bar",
				"children": bar,
			},
			"other": map[string]any{
				"type": "folder",
				"name": "Other Bookmarks",
				"children": []any{
					map[string]any{
						"type":     "folder",
						"name":     "Nested",
						"children": nested,
					},
				},
			},
			"synced": map[string]any{
				"type":     "folder",
				"name":     "Mobile Bookmarks",
				"children": []any{},
			},
		},
		"version": 1,
	}
	writeJSON(t, path, doc)
}

// SafariBookmarks writes a Safari-style Bookmarks.plist at path, in the
// binary format Safari uses. A bookmark with an empty title is written
// without a title key.
func SafariBookmarks(t *testing.T, path string, bookmarks []Bookmark) {
	t.Helper()

	leaves := []any{}
	for _, b := range bookmarks {
		uri := map[string]any{}
		if b.Title != "" {
			uri["title"] = b.Title
		}
		leaves = append(leaves, map[string]any{
			"WebBookmarkType": "WebBookmarkTypeLeaf",
			"URLString":       b.URL,
			"URIDictionary":   uri,
		})
	}
	doc := map[string]any{
		"WebBookmarkType": "WebBookmarkTypeList",
		"Title":           "",
		"Children": []any{
			map[string]any{
				"WebBookmarkType": "WebBookmarkTypeList",
				"Title":           "BookmarksBar",
				"Children":        leaves,
			},
			map[string]any{
				"WebBookmarkType": "WebBookmarkTypeProxy",
				"Title":           "History",
			},
		},
	}

	data, err := plist.Marshal(doc, plist.BinaryFormat)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

// ProfileInfo is one profile.info_cache entry of a Local State file.
type ProfileInfo struct {
	Name     string
	UserName string
	Picture  string
}

// LocalState writes a Chromium "Local State" file under root.
func LocalState(t *testing.T, root string, profiles map[string]ProfileInfo) {
	t.Helper()

	cache := map[string]any{}
	for dir, p := range profiles {
		entry := map[string]any{}
		if p.Name != "" {
			entry["name"] = p.Name
		}
		if p.UserName != "" {
			entry["user_name"] = p.UserName
		}
		if p.Picture != "" {
			entry["gaia_picture_file_name"] = p.Picture
		}
		cache[dir] = entry
	}
	writeJSON(t, filepath.Join(root, "Local State"), map[string]any{
		"profile": map[string]any{"info_cache": cache},
	})
}

// WriteFile writes data at path, creating parent directories.
func WriteFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "   ")
	require.NoError(t, err)
	WriteFile(t, path, data)
}
