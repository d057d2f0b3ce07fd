// Package storage reads browser history databases. It only ever opens
// private snapshot copies, read-only.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"

	"github.com/runnerr0/browsersearch/internal/record"
)

// chromiumVisitsQuery lists titled URLs that have at least one visit,
// newest first, with last_visit_time converted to Unix seconds.
const chromiumVisitsQuery = `
	SELECT DISTINCT urls.url, urls.title, urls.visit_count,
	       (urls.last_visit_time / 1000000 + CAST(strftime('%s', '1601-01-01') AS INTEGER))
	FROM urls
	JOIN visits ON urls.id = visits.url
	WHERE urls.title IS NOT NULL AND urls.title <> ''
	ORDER BY urls.last_visit_time DESC
`

// safariVisitsQuery lists every titled visit, newest first, with
// visit_time converted to Unix seconds.
const safariVisitsQuery = `
	SELECT history_items.url, history_visits.title, history_items.visit_count,
	       CAST(history_visits.visit_time + 978307200 AS INTEGER)
	FROM history_items
	INNER JOIN history_visits ON history_visits.history_item = history_items.id
	WHERE history_items.url IS NOT NULL
	  AND history_items.url <> ''
	  AND history_visits.title IS NOT NULL
	ORDER BY history_visits.visit_time DESC
`

// HistoryDB is a read-only handle on a history database file.
type HistoryDB struct {
	db   *sql.DB
	path string
}

// Open opens the database at path read-only. The file is treated as
// immutable: no locks are taken and no journal is consulted, so path must
// be a private copy nobody else writes to.
func Open(path string) (*HistoryDB, error) {
	dsn := (&url.URL{Scheme: "file", Path: path, RawQuery: "mode=ro&immutable=1"}).String()
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &HistoryDB{db: db, path: path}, nil
}

// Schema inspects sqlite_master and reports which layout the file has.
func (h *HistoryDB) Schema(ctx context.Context) (Schema, error) {
	rows, err := h.db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table'")
	if err != nil {
		return SchemaUnknown, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	tables := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return SchemaUnknown, fmt.Errorf("scan table name: %w", err)
		}
		tables[name] = true
	}
	if err := rows.Err(); err != nil {
		return SchemaUnknown, fmt.Errorf("list tables: %w", err)
	}

	return detect(tables), nil
}

// Visits detects the schema and returns every history row it holds.
func (h *HistoryDB) Visits(ctx context.Context) ([]record.Raw, error) {
	schema, err := h.Schema(ctx)
	if err != nil {
		return nil, err
	}

	switch schema {
	case SchemaChromium:
		return h.scanRows(ctx, chromiumVisitsQuery)
	case SchemaSafari:
		return h.scanRows(ctx, safariVisitsQuery)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, h.path)
	}
}

// scanRows executes a query returning (url, title, visit_count, last_visit)
// and scans the result.
func (h *HistoryDB) scanRows(ctx context.Context, query string) ([]record.Raw, error) {
	rows, err := h.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := []record.Raw{}
	for rows.Next() {
		var (
			u, title   sql.NullString
			visits, ts sql.NullInt64
		)
		if err := rows.Scan(&u, &title, &visits, &ts); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		out = append(out, record.Raw{
			URL:        u.String,
			Title:      title.String,
			VisitCount: visits.Int64,
			LastVisit:  ts.Int64,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	return out, nil
}

// Close closes the underlying database.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}
