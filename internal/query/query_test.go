package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/runnerr0/browsersearch/internal/browser"
	"github.com/runnerr0/browsersearch/internal/record"
)

func rec(title, url string) record.Record {
	return record.Record{Title: title, URL: url, SourceKind: browser.Chrome, SourceDisplayName: "Work"}
}

func TestParseOperator(t *testing.T) {
	tests := []struct {
		in   string
		want Operator
	}{
		{"AND", AND},
		{"and", AND},
		{"OR", OR},
		{"or", OR},
		{" Or ", OR},
		{"", AND},
		{"XOR", AND},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOperator(tt.in))
		})
	}
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		defaultOp Operator
		want      Query
	}{
		{"whitespace uses default AND", "go  docs", AND, Query{Terms: []string{"go", "docs"}, Operator: AND}},
		{"whitespace uses default OR", "go docs", OR, Query{Terms: []string{"go", "docs"}, Operator: OR}},
		{"ampersand forces AND", "go & docs", OR, Query{Terms: []string{"go", "docs"}, Operator: AND}},
		{"pipe forces OR", "go|docs", AND, Query{Terms: []string{"go", "docs"}, Operator: OR}},
		{"ampersand wins over pipe", "a|b & c", OR, Query{Terms: []string{"a|b", "c"}, Operator: AND}},
		{"phrase kept with explicit operator", "golang docs & tour", AND, Query{Terms: []string{"golang docs", "tour"}, Operator: AND}},
		{"empty terms dropped", "&go&&  &", OR, Query{Terms: []string{"go"}, Operator: AND}},
		{"lowercased", "GitHub", AND, Query{Terms: []string{"github"}, Operator: AND}},
		{"blank", "   ", AND, Query{Terms: []string{}, Operator: AND}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compile(tt.in, tt.defaultOp))
		})
	}
}

func TestMatches_BooleanLaws(t *testing.T) {
	r := rec("Go Documentation", "https://go.dev/doc")

	and := Compile("go doc", AND)
	or := Compile("go rust", OR)

	assert.True(t, and.Matches(r), "every AND term present")
	assert.False(t, Compile("go rust", AND).Matches(r), "one AND term missing")
	assert.True(t, or.Matches(r), "one OR term present")
	assert.False(t, Compile("rust zig", OR).Matches(r), "no OR term present")
}

func TestMatches_ExplicitOperatorOverridesDefault(t *testing.T) {
	r := rec("Go Documentation", "https://go.dev/doc")

	assert.False(t, Compile("go & rust", OR).Matches(r))
	assert.True(t, Compile("go | rust", AND).Matches(r))
}

func TestMatches_EmptyQueryMatchesEverything(t *testing.T) {
	r := rec("anything", "https://example.com")
	for _, op := range []Operator{AND, OR} {
		q := Compile("", op)
		assert.True(t, q.Empty())
		assert.True(t, q.Matches(r), op.String())
	}
}

func TestMatches_CaseInsensitiveAcrossTitleAndURL(t *testing.T) {
	r := rec("Pull Requests", "https://GITHUB.com/pulls")
	assert.True(t, Compile("github pull", AND).Matches(r), "terms may hit different fields")
}

func TestMatches_UnicodeNormalization(t *testing.T) {
	decomposed := rec("Cafe\u0301 Menu", "https://example.com")
	assert.True(t, Compile("caf\u00e9", AND).Matches(decomposed))

	composed := rec("Caf\u00e9 Menu", "https://example.com")
	assert.True(t, Compile("cafe\u0301", AND).Matches(composed))
}

func TestMatches_FieldSubset(t *testing.T) {
	r := rec("Inbox", "https://mail.example.com")

	assert.False(t, Compile("work", AND).Matches(r), "provenance excluded by default")
	assert.True(t, Compile("work", AND).Matches(r, FieldProfile))
	assert.True(t, Compile("chrome", AND).Matches(r, FieldKind))
	assert.False(t, Compile("inbox", AND).Matches(r, FieldURL))
}
