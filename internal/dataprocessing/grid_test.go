package dataprocessing

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditfile/internal/shared/testutil"
)

func TestNewGrid(t *testing.T) {
	t.Run("drops empty index column", func(t *testing.T) {
		g := NewGrid([][]string{
			{"", "Name:", " Juan "},
			{"", "Age :", "38"},
		})
		assert.Equal(t, 2, g.Rows())
		assert.Equal(t, 2, g.Cols())
		assert.Equal(t, "Name", g.At(0, 0))
		assert.Equal(t, "Juan", g.At(0, 1))
		assert.Equal(t, "Age", g.At(1, 0))
	})

	t.Run("keeps populated first column", func(t *testing.T) {
		g := NewGrid([][]string{{"a", "b"}, {"", "c"}})
		assert.Equal(t, 2, g.Cols())
		assert.Equal(t, "a", g.At(0, 0))
	})

	t.Run("pads ragged rows", func(t *testing.T) {
		g := NewGrid([][]string{{"a"}, {"b", "c", "d"}, nil})
		assert.Equal(t, 3, g.Rows())
		assert.Equal(t, 3, g.Cols())
		for r := 0; r < g.Rows(); r++ {
			assert.Len(t, g.Row(r), 3)
		}
		v, ok := g.Cell(0, 2)
		assert.True(t, ok)
		assert.Empty(t, v)
	})

	t.Run("colon only cells become absent", func(t *testing.T) {
		g := NewGrid([][]string{{"x", " : ", "::"}})
		assert.Empty(t, g.At(0, 1))
		assert.Empty(t, g.At(0, 2))
		assert.False(t, NewGrid([][]string{{"", ":"}}).RowPresent(0))
	})

	t.Run("empty input", func(t *testing.T) {
		g := NewGrid(nil)
		assert.Equal(t, 0, g.Rows())
		assert.Equal(t, 0, g.Cols())
	})
}

func TestGridAccessors(t *testing.T) {
	g := NewGrid([][]string{
		{"Name", "Juan"},
		{"", ""},
		{"AGE", "38"},
	})

	_, ok := g.Cell(3, 0)
	assert.False(t, ok)
	_, ok = g.Cell(0, 2)
	assert.False(t, ok)
	assert.Empty(t, g.At(-1, 0))

	assert.Equal(t, "namejuan", g.Corpus(0))
	assert.Equal(t, "", g.Corpus(1))
	assert.False(t, g.RowPresent(1))
	assert.True(t, g.RowPresent(2))

	s := g.Slice(1, 10)
	assert.Equal(t, 2, s.Rows())
	assert.Equal(t, "AGE", s.At(1, 0))
	assert.Equal(t, 0, g.Slice(2, 1).Rows())
}

func TestLoadWorkbook(t *testing.T) {
	sheet := testutil.SampleReport()
	path := sheet.SaveWorkbook(t, t.TempDir(), "report.xlsx")

	g, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testutil.ReportRows, g.Rows())
	assert.Equal(t, testutil.ReportCols, g.Cols())
	assert.Equal(t, "Name of Applicant", g.At(0, 0))
	assert.Equal(t, "15000", g.At(testutil.IncomeDataRow+2, 24))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	fromStream, err := LoadReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, g.Rows(), fromStream.Rows())
	assert.Equal(t, g.Row(0), fromStream.Row(0))
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile("does-not-exist.xlsx")
	assert.Error(t, err)

	_, err = LoadReader(bytes.NewReader([]byte("not a workbook")))
	assert.Error(t, err)
}
