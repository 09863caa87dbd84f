// Package table models an in-memory snapshot of one spreadsheet tab and the
// row-location and field-merge operations the override proxy performs on it.
package table

// Snapshot is one tab's contents at a point in time. Header holds the column
// names; Rows holds the data rows in sheet order. A data row may be shorter
// than the header; missing trailing cells read as empty string.
type Snapshot struct {
	Header []string
	Rows   [][]string
}

// Empty reports whether the snapshot has no header and no rows, the shape
// ReadTable returns for a tab that does not exist yet.
func (s Snapshot) Empty() bool {
	return len(s.Header) == 0 && len(s.Rows) == 0
}

// ColumnIndex returns the position of name in the header, or -1.
func (s Snapshot) ColumnIndex(name string) int {
	for i, h := range s.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, col), treating missing trailing cells as
// empty string. row indexes into Rows (0-based data rows).
func (s Snapshot) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) || col < 0 {
		return ""
	}
	r := s.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// PadRow extends the given data row with empty cells up to the header length.
func (s *Snapshot) PadRow(row int) {
	for len(s.Rows[row]) < len(s.Header) {
		s.Rows[row] = append(s.Rows[row], "")
	}
}

// AppendColumn adds a column to the header and pads every data row with an
// empty cell for it.
func (s *Snapshot) AppendColumn(name string) {
	s.Header = append(s.Header, name)
	for i := range s.Rows {
		s.PadRow(i)
	}
}

// RowMap converts one data row into a header-keyed map, the shape READ
// responses serialize.
func (s Snapshot) RowMap(row int) map[string]string {
	m := make(map[string]string, len(s.Header))
	for col, name := range s.Header {
		m[name] = s.Cell(row, col)
	}
	return m
}

// Clone returns a deep copy. Merge mutates in place; callers that need the
// before-image (tests, mostly) copy first.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Header: append([]string(nil), s.Header...)}
	out.Rows = make([][]string, len(s.Rows))
	for i, r := range s.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out
}
