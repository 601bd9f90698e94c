package dataprocessing

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Grid is a rectangular, immutable table of cell text. The empty string is
// the absent-cell sentinel: loading collapses empty cells to it, so a
// present cell is never empty.
type Grid struct {
	cells [][]string
	cols  int
}

// LoadFile reads the first worksheet of a credit report workbook.
func LoadFile(filePath string) (*Grid, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return loadWorkbook(f)
}

// LoadReader reads the first worksheet of a credit report workbook from a stream.
func LoadReader(r io.Reader) (*Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return loadWorkbook(f)
}

func loadWorkbook(f *excelize.File) (*Grid, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	slog.Debug("Report sheet loaded",
		slog.String("sheet_name", sheets[0]),
		slog.Int("total_rows", len(rows)))

	return NewGrid(rows), nil
}

// NewGrid builds a Grid from raw cell text. Ragged rows are padded, a
// leading index column is dropped when it holds no text, and every cell has
// its colons and surrounding whitespace removed.
func NewGrid(raw [][]string) *Grid {
	cols := 0
	for _, row := range raw {
		if len(row) > cols {
			cols = len(row)
		}
	}

	offset := 0
	if cols > 0 && columnEmpty(raw, 0) {
		offset = 1
	}

	g := &Grid{cells: make([][]string, len(raw)), cols: cols - offset}
	for i, row := range raw {
		cleaned := make([]string, g.cols)
		for j := offset; j < len(row); j++ {
			cleaned[j-offset] = cleanCell(row[j])
		}
		g.cells[i] = cleaned
	}
	return g
}

func columnEmpty(raw [][]string, col int) bool {
	for _, row := range raw {
		if col < len(row) && row[col] != "" {
			return false
		}
	}
	return true
}

// cleanCell strips the label colon and whitespace
func cleanCell(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, ":", ""))
}

// Rows returns the number of rows
func (g *Grid) Rows() int {
	return len(g.cells)
}

// Cols returns the number of columns
func (g *Grid) Cols() int {
	return g.cols
}

// Cell returns the text at (row, col) and whether the position exists in the grid.
func (g *Grid) Cell(row, col int) (string, bool) {
	if row < 0 || row >= len(g.cells) || col < 0 || col >= g.cols {
		return "", false
	}
	return g.cells[row][col], true
}

// At returns the text at (row, col), or "" when absent or out of range.
func (g *Grid) At(row, col int) string {
	s, _ := g.Cell(row, col)
	return s
}

// Row returns a copy of one row
func (g *Grid) Row(row int) []string {
	if row < 0 || row >= len(g.cells) {
		return nil
	}
	out := make([]string, g.cols)
	copy(out, g.cells[row])
	return out
}

// Slice returns the rows [start, end) as a new grid sharing cell storage.
// Bounds are clamped to the grid.
func (g *Grid) Slice(start, end int) *Grid {
	start = clamp(start, 0, len(g.cells))
	end = clamp(end, start, len(g.cells))
	return &Grid{cells: g.cells[start:end], cols: g.cols}
}

// Corpus concatenates the present cells of a row, lowercased.
func (g *Grid) Corpus(row int) string {
	if row < 0 || row >= len(g.cells) {
		return ""
	}
	return strings.ToLower(strings.Join(g.cells[row], ""))
}

// RowPresent reports whether any cell in the row holds text.
func (g *Grid) RowPresent(row int) bool {
	if row < 0 || row >= len(g.cells) {
		return false
	}
	for _, cell := range g.cells[row] {
		if cell != "" {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
