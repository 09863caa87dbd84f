// Package proxy implements the Apps-Script-style override protocol: a READ
// of a whole tab and a merge-update of one row located by its natural key.
package proxy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sentiment-proxy/internal/audit"
	"github.com/sells-group/sentiment-proxy/internal/table"
	"github.com/sells-group/sentiment-proxy/pkg/sheets"
)

// AuditSink receives a record after each successful upsert. Recording is
// advisory: a sink failure is logged, never surfaced to the caller.
type AuditSink interface {
	Record(ctx context.Context, rec audit.Record) error
}

// KeyNotFoundError reports a natural key absent from the tab. The update
// protocol never inserts rows, so this ends the request.
type KeyNotFoundError struct {
	Tab string
	Key table.Key
}

func (e *KeyNotFoundError) Error() string {
	label := e.Key.Label
	if label == "" {
		label = strings.Join(e.Key.Columns, "/")
	}
	return fmt.Sprintf("%s not found in sheet %s: %s", label, e.Tab, e.Key)
}

// UpsertResult is the successful outcome of one merge-update.
type UpsertResult struct {
	Changes []string
	// RowIndex is the 1-based spreadsheet row (header is row 1).
	RowIndex  int
	Timestamp time.Time
}

// Service composes the store adapter with row location and field merging.
//
// Upsert is a plain read-modify-write with no locking: two concurrent calls
// against the same tab race, and the last write wins. Edits are human-paced
// (one click at a time), so this is accepted rather than solved.
type Service struct {
	store   sheets.Client
	auditor AuditSink
}

// NewService builds a Service. auditor may be nil to disable the audit trail.
func NewService(store sheets.Client, auditor AuditSink) *Service {
	return &Service{store: store, auditor: auditor}
}

// Read returns every data row of the tab as a header-keyed object. A tab
// that does not exist reads as zero rows.
func (s *Service) Read(ctx context.Context, tab string) ([]map[string]string, error) {
	snap, err := s.store.ReadTable(ctx, tab)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]string, 0, len(snap.Rows))
	for i := range snap.Rows {
		rows = append(rows, snap.RowMap(i))
	}
	return rows, nil
}

// Upsert locates the row identified by key, merges updates into it and
// writes the full tab back. It never creates rows. The external store is
// either untouched (failure before the write) or fully updated.
func (s *Service) Upsert(ctx context.Context, tab string, key table.Key, updates []table.FieldUpdate, markEdited bool) (*UpsertResult, error) {
	snap, err := s.store.ReadTable(ctx, tab)
	if err != nil {
		return nil, err
	}

	row, err := table.Locate(snap, key)
	if err != nil {
		if eris.Is(err, table.ErrKeyNotFound) {
			return nil, &KeyNotFoundError{Tab: tab, Key: key}
		}
		return nil, err
	}

	changes, err := table.Merge(&snap, row, updates, markEdited)
	if err != nil {
		return nil, err
	}

	if err := s.store.WriteTable(ctx, tab, snap); err != nil {
		return nil, err
	}

	res := &UpsertResult{
		Changes:   changes,
		RowIndex:  row + 2,
		Timestamp: time.Now().UTC(),
	}

	if s.auditor != nil {
		rec := audit.Record{
			Tab:        tab,
			Key:        key.String(),
			Changes:    changes,
			MarkEdited: markEdited,
			AppliedAt:  res.Timestamp,
		}
		if err := s.auditor.Record(ctx, rec); err != nil {
			zap.L().Warn("audit record failed",
				zap.String("tab", tab),
				zap.String("key", key.String()),
				zap.Error(err),
			)
		}
	}

	zap.L().Info("override applied",
		zap.String("tab", tab),
		zap.String("key", key.String()),
		zap.Int("row", res.RowIndex),
		zap.Strings("changes", changes),
	)
	return res, nil
}
