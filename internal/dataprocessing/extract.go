package dataprocessing

// ExtractKeyValues scans rows left to right. The first present cell of a
// row is the key and the second, if any, is the value. Rows without a
// present cell are skipped and repeated keys are suffixed _1, _2, ...
func ExtractKeyValues(rows [][]string) *KeyValues {
	kv := &KeyValues{}
	for _, row := range rows {
		var cells []string
		for _, cell := range row {
			if cell != "" {
				cells = append(cells, cell)
				if len(cells) == 2 {
					break
				}
			}
		}
		if len(cells) == 0 {
			continue
		}

		value := ""
		if len(cells) > 1 {
			value = cells[1]
		}
		kv.Add(cells[0], value)
	}
	return kv
}

// ParseSubtable compresses a tabular block. Empty rows and columns are
// dropped, the first remaining row becomes the headers and every header maps
// to the cells below it.
func ParseSubtable(g *Grid) (*Subtable, error) {
	var rows []int
	for r := 0; r < g.Rows(); r++ {
		if g.RowPresent(r) {
			rows = append(rows, r)
		}
	}

	var cols []int
	for c := 0; c < g.Cols(); c++ {
		for _, r := range rows {
			if g.At(r, c) != "" {
				cols = append(cols, c)
				break
			}
		}
	}

	if len(rows) == 0 || len(cols) == 0 {
		return nil, ErrEmptySubtable
	}

	st := &Subtable{
		Headers: make([]string, 0, len(cols)),
		Columns: make(map[string][]string, len(cols)),
	}
	for _, c := range cols {
		header := uniqueName(g.At(rows[0], c), func(name string) bool {
			_, taken := st.Columns[name]
			return taken
		})

		values := make([]string, 0, len(rows)-1)
		for _, r := range rows[1:] {
			values = append(values, g.At(r, c))
		}
		st.Headers = append(st.Headers, header)
		st.Columns[header] = values
	}
	return st, nil
}

// layout addresses the rows of one section by label. When shifted, every
// label from shiftAt on refers to the physical row before it, so the label
// shiftAt itself does not exist. The first failed lookup is kept in err and
// every later lookup returns the zero value.
type layout struct {
	g       *Grid
	shifted bool
	shiftAt int
	err     error
}

func newLayout(g *Grid) *layout {
	return &layout{g: g}
}

// shift inserts a virtual row at label
func (l *layout) shift(label int) {
	l.shifted = true
	l.shiftAt = label
}

// row resolves a label to a physical row
func (l *layout) row(label int) (int, bool) {
	if l.shifted && label >= l.shiftAt {
		if label == l.shiftAt {
			return 0, false
		}
		label--
	}
	if label < 0 || label >= l.g.Rows() {
		return 0, false
	}
	return label, true
}

// label is the inverse of row
func (l *layout) label(row int) int {
	if l.shifted && row >= l.shiftAt {
		return row + 1
	}
	return row
}

// at returns the cell under a label and column
func (l *layout) at(label, col int) string {
	if l.err != nil {
		return ""
	}
	r, ok := l.row(label)
	if !ok || col < 0 || col >= l.g.Cols() {
		l.err = offsetError(label, col)
		return ""
	}
	return l.g.At(r, col)
}

// anyIn reports whether any cell of the labelled row in the inclusive column
// range holds text. Columns past the grid edge are ignored.
func (l *layout) anyIn(label, from, to int) bool {
	if l.err != nil {
		return false
	}
	r, ok := l.row(label)
	if !ok {
		l.err = offsetError(label, from)
		return false
	}
	for c := from; c <= to && c < l.g.Cols(); c++ {
		if l.g.At(r, c) != "" {
			return true
		}
	}
	return false
}

// requireCols fails the layout unless every column exists
func (l *layout) requireCols(cols ...int) {
	if l.err != nil {
		return
	}
	for _, c := range cols {
		if c < 0 || c >= l.g.Cols() {
			l.err = offsetError(0, c)
			return
		}
	}
}

// project returns the cells of the given physical rows restricted to cols.
// Columns past the grid edge read as absent.
func (l *layout) project(rows []int, cols []int) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = l.g.At(r, c)
		}
		out = append(out, cells)
	}
	return out
}

// rowsBetween lists physical rows whose labels fall in [from, to] that also
// pass keep. A negative to means through the last row.
func (l *layout) rowsBetween(from, to int, keep func(row int) bool) []int {
	var rows []int
	for r := 0; r < l.g.Rows(); r++ {
		lbl := l.label(r)
		if lbl < from || (to >= 0 && lbl > to) {
			continue
		}
		if keep == nil || keep(r) {
			rows = append(rows, r)
		}
	}
	return rows
}

// columnRange lists the columns [from, to] that exist in the grid. A
// negative to means through the last column.
func (l *layout) columnRange(from, to int) []int {
	if to < 0 || to >= l.g.Cols() {
		to = l.g.Cols() - 1
	}
	var cols []int
	for c := from; c <= to; c++ {
		cols = append(cols, c)
	}
	return cols
}
