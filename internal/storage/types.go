package storage

import "errors"

// Schema identifies the table layout of a history database.
type Schema int

const (
	SchemaUnknown Schema = iota
	// SchemaChromium has urls and visits tables; times are microseconds
	// since 1601-01-01.
	SchemaChromium
	// SchemaSafari has history_items and history_visits tables; times are
	// seconds since 2001-01-01.
	SchemaSafari
)

func (s Schema) String() string {
	switch s {
	case SchemaChromium:
		return "chromium"
	case SchemaSafari:
		return "safari"
	default:
		return "unknown"
	}
}

// ErrUnknownSchema is returned when a database has neither known layout.
var ErrUnknownSchema = errors.New("unknown history schema")

// Offsets from the browsers' epochs to the Unix epoch, in seconds.
const (
	ChromiumEpochOffset = -11644473600 // 1601-01-01T00:00:00Z
	SafariEpochOffset   = 978307200    // 2001-01-01T00:00:00Z
)

// schemaSignatures maps a schema to the tables that identify it.
var schemaSignatures = []struct {
	schema Schema
	tables []string
}{
	{SchemaChromium, []string{"urls", "visits"}},
	{SchemaSafari, []string{"history_items", "history_visits"}},
}

// detect picks the first schema whose tables are all present.
func detect(tables map[string]bool) Schema {
	for _, sig := range schemaSignatures {
		ok := true
		for _, t := range sig.tables {
			if !tables[t] {
				ok = false
				break
			}
		}
		if ok {
			return sig.schema
		}
	}
	return SchemaUnknown
}
