package table

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Sentinel errors for row location. ErrColumnMissing means a key column is
// absent from the header, which callers must distinguish from a key value
// that simply is not in the table.
var (
	ErrColumnMissing = eris.New("table: key column missing from header")
	ErrKeyNotFound   = eris.New("table: key not found")
)

// Key identifies a row by one or two columns matched with exact string
// equality. No trimming or case folding happens here; callers pre-normalize.
// Label is the display name the key goes by in user-facing messages.
type Key struct {
	Label   string
	Columns []string
	Values  []string
}

// URLKey builds a single-column key on the url column.
func URLKey(url string) Key {
	return Key{Label: "URL", Columns: []string{"url"}, Values: []string{url}}
}

// DateEntityKey builds the composite key used by risk override tabs.
func DateEntityKey(date, entity string) Key {
	return Key{Label: "date/entity", Columns: []string{"date", "entity"}, Values: []string{date, entity}}
}

// String renders the key values for error messages and cache keys.
func (k Key) String() string {
	return strings.Join(k.Values, " / ")
}

// Locate returns the index (into snap.Rows) of the first data row whose key
// columns all equal the key values. It returns ErrColumnMissing if any key
// column is not in the header, ErrKeyNotFound if no row matches.
func Locate(snap Snapshot, key Key) (int, error) {
	cols := make([]int, len(key.Columns))
	for i, name := range key.Columns {
		idx := snap.ColumnIndex(name)
		if idx < 0 {
			return -1, eris.Wrapf(ErrColumnMissing, "column %q", name)
		}
		cols[i] = idx
	}

	for row := range snap.Rows {
		match := true
		for i, col := range cols {
			if snap.Cell(row, col) != key.Values[i] {
				match = false
				break
			}
		}
		if match {
			return row, nil
		}
	}
	return -1, ErrKeyNotFound
}
