// Package query compiles search strings into boolean term matchers.
package query

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/runnerr0/browsersearch/internal/record"
)

// Operator combines the terms of a Query.
type Operator int

const (
	AND Operator = iota
	OR
)

func (o Operator) String() string {
	if o == OR {
		return "OR"
	}
	return "AND"
}

// ParseOperator maps a configured operator name onto an Operator. Matching
// is case-insensitive and anything other than "OR" is AND.
func ParseOperator(s string) Operator {
	if strings.EqualFold(strings.TrimSpace(s), "OR") {
		return OR
	}
	return AND
}

// Field selects the record attribute a term is matched against.
type Field int

const (
	FieldTitle Field = iota
	FieldURL
	FieldKind
	FieldProfile
)

var defaultFields = []Field{FieldTitle, FieldURL}

// Query is a compiled search string.
type Query struct {
	Terms    []string
	Operator Operator
}

// Compile parses s. An explicit "&" forces AND and splits on it; otherwise
// an explicit "|" forces OR. Without either, terms are whitespace separated
// and combined with defaultOp.
func Compile(s string, defaultOp Operator) Query {
	var (
		parts []string
		op    = defaultOp
	)
	switch {
	case strings.Contains(s, "&"):
		parts, op = strings.Split(s, "&"), AND
	case strings.Contains(s, "|"):
		parts, op = strings.Split(s, "|"), OR
	default:
		parts = strings.Fields(s)
	}

	terms := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		terms = append(terms, fold(p))
	}
	return Query{Terms: terms, Operator: op}
}

// Empty reports whether q has no terms. An empty query matches everything.
func (q Query) Empty() bool { return len(q.Terms) == 0 }

// Matches reports whether r satisfies q over fields (title and URL when
// none are given). A term matches when it is a case-insensitive substring
// of any selected field.
func (q Query) Matches(r record.Record, fields ...Field) bool {
	if q.Empty() {
		return true
	}
	if len(fields) == 0 {
		fields = defaultFields
	}

	haystack := make([]string, len(fields))
	for i, f := range fields {
		haystack[i] = fold(value(r, f))
	}

	for _, term := range q.Terms {
		hit := containsAny(haystack, term)
		if q.Operator == OR && hit {
			return true
		}
		if q.Operator == AND && !hit {
			return false
		}
	}
	return q.Operator == AND
}

func containsAny(haystack []string, term string) bool {
	for _, h := range haystack {
		if strings.Contains(h, term) {
			return true
		}
	}
	return false
}

func value(r record.Record, f Field) string {
	switch f {
	case FieldTitle:
		return r.Title
	case FieldURL:
		return r.URL
	case FieldKind:
		return string(r.SourceKind)
	case FieldProfile:
		return r.SourceDisplayName
	}
	return ""
}

// fold normalizes to NFC and lowercases, so composed and decomposed
// spellings compare equal.
func fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}
