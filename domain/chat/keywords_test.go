package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordTable_DuplicateKeepsFirstPositionLastResponse(t *testing.T) {
	table := NewKeywordTable([]Entry{
		NewEntry("headache", "first headache"),
		NewEntry("fever", "first fever"),
		NewEntry("headache", "second headache"),
	})

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"headache", "fever"}, table.Keywords())

	got, ok := table.Get("headache")
	require.True(t, ok)
	assert.Equal(t, "second headache", got)
}

func TestKeywordTable_KeysAreNormalized(t *testing.T) {
	table := NewKeywordTable([]Entry{
		NewEntry("  GERD ", "reflux"),
	})

	assert.Equal(t, []string{"gerd"}, table.Keywords())
	got, ok := table.Get("Gerd")
	require.True(t, ok)
	assert.Equal(t, "reflux", got)
}

func TestKeywordTable_SkipsEmptyKeyword(t *testing.T) {
	table := NewKeywordTable([]Entry{
		NewEntry("   ", "matches everything"),
		NewEntry("cough", "cough response"),
	})

	assert.Equal(t, 1, table.Len())
	_, ok := table.Match("no match here")
	assert.False(t, ok)
}

func TestKeywordTable_MatchFirstInOrder(t *testing.T) {
	table := NewKeywordTable([]Entry{
		NewEntry("pain", "generic pain"),
		NewEntry("chest pain", "chest pain response"),
	})

	entry, ok := table.Match("I have chest pain")
	require.True(t, ok)
	assert.Equal(t, "pain", entry.Keyword())
	assert.Equal(t, "generic pain", entry.Response())
}

func TestKeywordTable_MatchIsSubstring(t *testing.T) {
	table := NewKeywordTable([]Entry{
		NewEntry("fever", "fever response"),
	})

	entry, ok := table.Match("  I feel FEVERISH today ")
	require.True(t, ok)
	assert.Equal(t, "fever", entry.Keyword())
}

func TestKeywordTable_NoMatch(t *testing.T) {
	table := NewKeywordTable([]Entry{
		NewEntry("fever", "fever response"),
	})

	_, ok := table.Match("my knee hurts")
	assert.False(t, ok)
}

func TestKeywordTable_EntriesReflectOverwrite(t *testing.T) {
	table := NewKeywordTable([]Entry{
		NewEntry("cough", "old"),
		NewEntry("flu", "flu"),
		NewEntry("cough", "new"),
	})

	entries := table.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "cough", entries[0].Keyword())
	assert.Equal(t, "new", entries[0].Response())
	assert.Equal(t, "flu", entries[1].Keyword())
}
