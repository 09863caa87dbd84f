// Package override holds the editable-field vocabulary of the sentiment
// dashboard, the tagged override value, and the client-side override cache.
package override

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/sentiment-proxy/internal/table"
)

// ResetSentinel is the reserved risk value meaning "drop the manual override
// and fall back to the auto-computed value".
const ResetSentinel = "Auto"

// updatableColumns fixes the order updates are applied and reported in.
var updatableColumns = []string{"sentiment", "controlled", "risk"}

// allowedValues is the closed legal set per updatable column.
var allowedValues = map[string][]string{
	"sentiment":  {"positive", "neutral", "negative"},
	"controlled": {"controlled", "uncontrolled"},
	"risk":       {"Low", "Medium", "High", ResetSentinel},
}

// ValidationError reports a request that fails before any mutation is
// attempted: a missing required field or a value outside its closed set.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidateUpdates checks requested field values against the closed sets and
// returns them in canonical application order. Columns outside the known
// vocabulary pass through unvalidated: the merge layer skips and reports
// them, so a payload mixing one valid and one unknown field still applies
// the valid one.
func ValidateUpdates(req map[string]string) ([]table.FieldUpdate, error) {
	if len(req) == 0 {
		return nil, &ValidationError{Field: "updates", Reason: "at least one field is required"}
	}

	for col, val := range req {
		allowed, known := allowedValues[col]
		if !known {
			continue
		}
		if !contains(allowed, val) {
			return nil, &ValidationError{
				Field:  col,
				Reason: fmt.Sprintf("%q is not one of %s", val, strings.Join(allowed, ", ")),
			}
		}
	}

	var out []table.FieldUpdate
	for _, col := range updatableColumns {
		if val, ok := req[col]; ok {
			out = append(out, table.FieldUpdate{Column: col, Value: val})
		}
	}

	// Unknown columns last, sorted for deterministic change logs.
	var rest []string
	for col := range req {
		if _, known := allowedValues[col]; !known {
			rest = append(rest, col)
		}
	}
	sort.Strings(rest)
	for _, col := range rest {
		out = append(out, table.FieldUpdate{Column: col, Value: req[col]})
	}

	return out, nil
}

func contains(vals []string, v string) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}
