package table

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// EditedSuffix names the provenance column paired with an updatable column:
// sentiment -> sentiment_edited.
const EditedSuffix = "_edited"

// editedMarker is the truthy value written into a provenance cell.
const editedMarker = "true"

// ErrNoUpdatableFields is returned when a merge applied zero fields, e.g.
// every requested column was unknown.
var ErrNoUpdatableFields = eris.New("table: no updatable fields in request")

// FieldUpdate sets one column of the target row to a new value.
type FieldUpdate struct {
	Column string
	Value  string
}

// Merge applies updates to the row at index row, mutating snap in place, and
// returns human-readable change descriptors.
//
// Unknown columns do not abort the merge: the field is skipped and reported
// in the change log, and remaining fields still apply. When trackProvenance
// is set, each applied field also gets its <column>_edited cell set to
// "true", creating the provenance column (and padding every row) the first
// time it is needed. Cells outside the named columns of the target row are
// never touched.
func Merge(snap *Snapshot, row int, updates []FieldUpdate, trackProvenance bool) ([]string, error) {
	if row < 0 || row >= len(snap.Rows) {
		return nil, eris.Errorf("table: row index %d out of range", row)
	}

	var changes []string
	applied := 0

	for _, u := range updates {
		col := snap.ColumnIndex(u.Column)
		if col < 0 {
			changes = append(changes, fmt.Sprintf("skipped unknown column: %s", u.Column))
			continue
		}

		snap.PadRow(row)
		old := snap.Rows[row][col]
		snap.Rows[row][col] = u.Value
		changes = append(changes, fmt.Sprintf("%s: %s → %s", u.Column, old, u.Value))
		applied++

		if trackProvenance {
			edited := u.Column + EditedSuffix
			if snap.ColumnIndex(edited) < 0 {
				snap.AppendColumn(edited)
			}
			snap.PadRow(row)
			snap.Rows[row][snap.ColumnIndex(edited)] = editedMarker
			changes = append(changes, fmt.Sprintf("marked %s", edited))
		}
	}

	if applied == 0 {
		return changes, ErrNoUpdatableFields
	}
	return changes, nil
}
