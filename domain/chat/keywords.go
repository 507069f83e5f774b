// Package chat holds the response-selection cascade: keyword lookup,
// knowledge retrieval and semantic keyword matching.
package chat

import "strings"

// Entry is a keyword and its canned response.
type Entry struct {
	keyword  string
	response string
}

// NewEntry creates a new Entry. The keyword is lowercased and trimmed.
func NewEntry(keyword, response string) Entry {
	return Entry{
		keyword:  normalize(keyword),
		response: response,
	}
}

// Keyword returns the normalized keyword.
func (e Entry) Keyword() string { return e.keyword }

// Response returns the canned response.
func (e Entry) Response() string { return e.response }

// KeywordTable is an ordered mapping from keyword to response.
//
// Iteration order is insertion order and decides match priority. Inserting
// a keyword that already exists replaces its response but keeps the
// position of the first insertion. The table is read-only once built.
type KeywordTable struct {
	order     []string
	responses map[string]string
}

// NewKeywordTable builds a table from entries in order. Entries with an
// empty keyword are skipped because they would match every query.
func NewKeywordTable(entries []Entry) KeywordTable {
	t := KeywordTable{
		order:     make([]string, 0, len(entries)),
		responses: make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		if e.keyword == "" {
			continue
		}
		if _, exists := t.responses[e.keyword]; !exists {
			t.order = append(t.order, e.keyword)
		}
		t.responses[e.keyword] = e.response
	}
	return t
}

// Len returns the number of distinct keywords.
func (t KeywordTable) Len() int { return len(t.order) }

// Get returns the response stored for keyword.
func (t KeywordTable) Get(keyword string) (string, bool) {
	r, ok := t.responses[normalize(keyword)]
	return r, ok
}

// Keywords returns the keywords in match order.
func (t KeywordTable) Keywords() []string {
	result := make([]string, len(t.order))
	copy(result, t.order)
	return result
}

// Entries returns the table contents in match order.
func (t KeywordTable) Entries() []Entry {
	result := make([]Entry, len(t.order))
	for i, k := range t.order {
		result[i] = Entry{keyword: k, response: t.responses[k]}
	}
	return result
}

// Match returns the first keyword, in table order, that occurs as a
// substring of the normalized query.
func (t KeywordTable) Match(query string) (Entry, bool) {
	q := normalize(query)
	for _, k := range t.order {
		if strings.Contains(q, k) {
			return Entry{keyword: k, response: t.responses[k]}, true
		}
	}
	return Entry{}, false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
