package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractKeyValues(t *testing.T) {
	rows := [][]string{
		{"", "Name", "", "Juan"},
		{"", "", "", ""},
		{"Remarks", "", "", ""},
		{"Name", "Pedro", "extra"},
		{"Name", "", "Jose"},
		{"Name_1", "taken"},
	}
	kv := ExtractKeyValues(rows)

	assert.Equal(t, []KeyValue{
		{Key: "Name", Value: "Juan"},
		{Key: "Remarks", Value: ""},
		{Key: "Name_1", Value: "Pedro"},
		{Key: "Name_2", Value: "Jose"},
		{Key: "Name_1_1", Value: "taken"},
	}, kv.Items())
}

func TestExtractKeyValuesKeepsEveryRow(t *testing.T) {
	rows := [][]string{{"a", "1"}, {"a", "2"}, {"a", "3"}, {"", ""}, {"b"}}
	kv := ExtractKeyValues(rows)

	// one pair per row holding at least one cell, with distinct keys
	assert.Equal(t, 4, kv.Len())
	seen := map[string]bool{}
	for _, item := range kv.Items() {
		assert.False(t, seen[item.Key], "duplicate key %q", item.Key)
		seen[item.Key] = true
	}
}

func TestKeyValuesSet(t *testing.T) {
	var kv KeyValues
	kv.Set("a", "1")
	kv.Set("b", "2")
	kv.Set("a", "3")

	assert.Equal(t, []KeyValue{{"a", "3"}, {"b", "2"}}, kv.Items())
	v, ok := kv.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "3", v)
	assert.False(t, kv.Has("c"))

	var nilKV *KeyValues
	assert.Equal(t, 0, nilKV.Len())
	assert.False(t, nilKV.Has("a"))
}

func TestParseSubtable(t *testing.T) {
	g := NewGrid([][]string{
		{"", "", "", "", ""},
		{"Name", "", "Age", "Age", ""},
		{"", "", "", "", ""},
		{"Ana", "", "5", "6", ""},
		{"Ben", "", "", "7", "note"},
	})
	st, err := ParseSubtable(g)
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Age", "Age_1", ""}, st.Headers)
	assert.Equal(t, []string{"Ana", "Ben"}, st.Columns["Name"])
	assert.Equal(t, []string{"5", ""}, st.Columns["Age"])
	assert.Equal(t, []string{"6", "7"}, st.Columns["Age_1"])
	assert.Equal(t, []string{"", "note"}, st.Columns[""])

	col, ok := st.Column("Age")
	assert.True(t, ok)
	assert.Len(t, col, 2)
	_, ok = st.Column("Relationship")
	assert.False(t, ok)
}

func TestParseSubtableUniqueHeaders(t *testing.T) {
	g := NewGrid([][]string{
		{"x", "x", "x_1", "x", ""},
		{"1", "2", "3", "4", "5"},
	})
	st, err := ParseSubtable(g)
	require.NoError(t, err)

	assert.Len(t, st.Columns, len(st.Headers))
	seen := map[string]bool{}
	for _, h := range st.Headers {
		assert.False(t, seen[h], "duplicate header %q", h)
		seen[h] = true
	}
}

func TestParseSubtableEmpty(t *testing.T) {
	_, err := ParseSubtable(NewGrid([][]string{{"a", ""}, {"", ""}}).Slice(1, 2))
	assert.ErrorIs(t, err, ErrEmptySubtable)

	_, err = ParseSubtable(NewGrid(nil))
	assert.ErrorIs(t, err, ErrEmptySubtable)
}
