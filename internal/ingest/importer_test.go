package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWordCell(t *testing.T) {
	tests := []struct {
		raw  string
		word string
		pos  string
	}{
		{"accept", "accept", ""},
		{"3. accept (v.)", "accept", "(v.)"},
		{"12.abroad", "abroad", ""},
		{"ice cream (n.)", "ice cream", "(n.)"},
		{"well-known", "well-known", ""},
		{"  balance  ", "balance", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		word, pos := ParseWordCell(tt.raw)
		assert.Equal(t, tt.word, word, "raw %q", tt.raw)
		assert.Equal(t, tt.pos, pos, "raw %q", tt.raw)
	}
}

func TestCleanIPA(t *testing.T) {
	assert.Equal(t, "əkˈsept", CleanIPA("/əkˈsept/"))
	assert.Equal(t, "əˈbrɔːd", CleanIPA(" /əˈbrɔːd/ "))
	assert.Equal(t, "", CleanIPA(""))
}

func TestDayMarker(t *testing.T) {
	day, ok := DayMarker("Day 3")
	require.True(t, ok)
	assert.Equal(t, 3, day)

	day, ok = DayMarker("DAY12")
	require.True(t, ok)
	assert.Equal(t, 12, day)

	_, ok = DayMarker("Sunday 5")
	assert.False(t, ok, "day inside another word is not a marker")

	_, ok = DayMarker("Day 0")
	assert.False(t, ok)

	_, ok = DayMarker("accept")
	assert.False(t, ok)
}

func TestParseRowsWithMarkerRows(t *testing.T) {
	rows := [][]string{
		{"day", "word", "ipa", "meaning", "example"},
		{"Day 1"},
		{"", "1. accept (v.)", "/əkˈsept/", "agree to receive", "I accept your offer."},
		{"", "2. abroad", "/əˈbrɔːd/", "in a foreign country", ""},
		{"Day 2"},
		{"", "balance", "", "an even distribution of weight", ""},
	}

	result := &ImportResult{}
	words := parseRows(rows, DefaultImportConfig(), result)

	require.Len(t, words, 3)
	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 0, result.Skipped)

	assert.Equal(t, 1, words[0].Day)
	assert.Equal(t, "accept", words[0].Word)
	assert.Equal(t, "(v.)", words[0].PartOfSpeech)
	assert.Equal(t, "əkˈsept", words[0].IPA)
	assert.Equal(t, "agree to receive", words[0].Meaning)
	assert.Equal(t, "I accept your offer.", words[0].Example)

	assert.Equal(t, 1, words[1].Day)
	assert.Equal(t, 2, words[2].Day)
	assert.Equal(t, "balance", words[2].Word)
}

func TestParseRowsWithDayColumn(t *testing.T) {
	rows := [][]string{
		{"day", "word", "ipa", "meaning", "example"},
		{"5", "go", "", "move from one place to another", ""},
		{"", "stay", "", "remain in the same place", ""},
	}

	result := &ImportResult{}
	words := parseRows(rows, DefaultImportConfig(), result)

	require.Len(t, words, 2)
	assert.Equal(t, 5, words[0].Day)
	// A row without a day cell inherits the previous day.
	assert.Equal(t, 5, words[1].Day)
}

func TestParseRowsSkipsBadRows(t *testing.T) {
	rows := [][]string{
		{"day", "word", "ipa", "meaning", "example"},
		{"", "", "", "", ""},
		{"", "word", "", "the header repeated mid-file", ""},
		{"", "accept", "", "", ""},
		{"", "abroad", "", "in a foreign country", ""},
	}

	result := &ImportResult{Errors: make([]string, 0)}
	words := parseRows(rows, DefaultImportConfig(), result)

	require.Len(t, words, 1)
	assert.Equal(t, "abroad", words[0].Word)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "accept")
}

func TestDayIsCapped(t *testing.T) {
	rows := [][]string{
		{"day", "word", "ipa", "meaning", "example"},
		{"99", "accept", "", "agree to receive", ""},
	}

	result := &ImportResult{}
	words := parseRows(rows, DefaultImportConfig(), result)
	require.Len(t, words, 1)
	assert.Equal(t, maxDay, words[0].Day)
}
