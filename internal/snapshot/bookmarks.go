package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"howett.net/plist"

	"github.com/runnerr0/browsersearch/internal/logging"
	"github.com/runnerr0/browsersearch/internal/record"
)

// untitled is used for property-list bookmarks without a title.
const untitled = "Untitled"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bookmarkNode is one node of a Chromium Bookmarks tree. Children are
// decoded one at a time so a malformed node only loses itself.
type bookmarkNode struct {
	Type     string            `json:"type"`
	Name     string            `json:"name"`
	URL      string            `json:"url"`
	Children []json.RawMessage `json:"children"`
}

// readJSONBookmarks walks every root of a Chromium Bookmarks file and
// returns its bookmarks sorted by name.
func readJSONBookmarks(path string, logger *zap.Logger) ([]record.Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrStoreQuery, path, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	var doc struct {
		Roots map[string]json.RawMessage `json:"roots"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMetadataParse, path, err)
	}

	names := make([]string, 0, len(doc.Roots))
	for name := range doc.Roots {
		names = append(names, name)
	}
	sort.Strings(names)

	w := jsonWalker{out: []record.Raw{}}
	for _, name := range names {
		raw := bytes.TrimSpace(doc.Roots[name])
		// Roots may also hold non-node values such as version strings.
		if len(raw) == 0 || raw[0] != '{' {
			continue
		}
		w.walk(raw)
	}
	if w.skipped > 0 {
		logging.OrNop(logger).Debug("malformed bookmark nodes skipped",
			zap.String("path", path),
			zap.Int("count", w.skipped),
		)
	}

	out := w.out
	sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

type jsonWalker struct {
	out     []record.Raw
	skipped int
}

func (w *jsonWalker) walk(raw json.RawMessage) {
	var n bookmarkNode
	if err := json.Unmarshal(raw, &n); err != nil {
		w.skipped++
		return
	}
	switch n.Type {
	case "url":
		w.out = append(w.out, record.Raw{Title: n.Name, URL: n.URL})
	case "folder":
		for _, c := range n.Children {
			w.walk(c)
		}
	}
}

// readPlistBookmarks walks a Safari Bookmarks.plist (binary or XML).
func readPlistBookmarks(path string) ([]record.Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrStoreQuery, path, err)
	}

	var doc any
	if _, err := plist.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMetadataParse, path, err)
	}
	return walkPlist(doc, []record.Raw{}), nil
}

// walkPlist recurses into Children lists and emits every leaf that has a
// URLString and a URIDictionary.
func walkPlist(v any, out []record.Raw) []record.Raw {
	switch n := v.(type) {
	case []any:
		for _, item := range n {
			out = walkPlist(item, out)
		}
	case map[string]any:
		if children, ok := n["Children"]; ok {
			return walkPlist(children, out)
		}
		u, hasURL := n["URLString"].(string)
		uri, hasURI := n["URIDictionary"].(map[string]any)
		if !hasURL || !hasURI {
			return out
		}
		title, ok := uri["title"].(string)
		if !ok {
			title = untitled
		}
		out = append(out, record.Raw{Title: title, URL: u})
	}
	return out
}
