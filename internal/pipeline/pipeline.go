// Package pipeline turns the merged records of all sources into the final
// result list: filter, dedup, domain removal, sort and truncate.
package pipeline

import (
	"sort"
	"strings"

	"github.com/runnerr0/browsersearch/internal/query"
	"github.com/runnerr0/browsersearch/internal/record"
)

// DefaultLimit applies when Options.Limit is not positive.
const DefaultLimit = 30

// Options configure Run.
type Options struct {
	Query          query.Query
	IgnoredDomains []string
	// SortRecent orders by last visit instead of visit count.
	SortRecent bool
	Limit      int
}

// Run applies every stage in order. The input slice is not modified.
func Run(records []record.Record, opts Options) []record.Record {
	out := Filter(records, opts.Query)
	out = Dedup(out)
	out = RemoveIgnoredDomains(out, opts.IgnoredDomains)
	Sort(out, opts.SortRecent)

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return Truncate(out, limit)
}

// Filter keeps the records that match q.
func Filter(records []record.Record, q query.Query) []record.Record {
	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Dedup keeps the first record of each (title, url) pair.
func Dedup(records []record.Record) []record.Record {
	seen := make(map[record.Key]struct{}, len(records))
	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		k := r.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// RemoveIgnoredDomains drops records whose URL contains any of domains as
// a substring. Blank entries are ignored.
func RemoveIgnoredDomains(records []record.Record, domains []string) []record.Record {
	needles := make([]string, 0, len(domains))
	for _, d := range domains {
		if d = strings.TrimSpace(d); d != "" {
			needles = append(needles, d)
		}
	}

	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		if !containsAny(r.URL, needles) {
			out = append(out, r)
		}
	}
	return out
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// Sort orders records in place, descending by LastVisit when recent is
// set and by VisitCount otherwise. Ties keep their input order.
func Sort(records []record.Record, recent bool) {
	key := func(r record.Record) int64 { return r.VisitCount }
	if recent {
		key = func(r record.Record) int64 { return r.LastVisit }
	}
	sort.SliceStable(records, func(i, j int) bool {
		return key(records[i]) > key(records[j])
	})
}

// Truncate returns at most n records.
func Truncate(records []record.Record, n int) []record.Record {
	if n < 0 {
		n = 0
	}
	if len(records) <= n {
		return records
	}
	return records[:n]
}
