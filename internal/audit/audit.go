// Package audit persists a trail of applied overrides. The spreadsheet stays
// the source of truth; the trail answers "who changed what, when" after the
// sheet has moved on.
package audit

import (
	"context"
	"time"
)

// Record is one applied override.
type Record struct {
	ID         string    `json:"id"`
	Tab        string    `json:"tab"`
	Key        string    `json:"key"`
	Changes    []string  `json:"changes"`
	MarkEdited bool      `json:"mark_edited"`
	AppliedAt  time.Time `json:"applied_at"`
}

// Filter narrows a List call.
type Filter struct {
	Tab   string
	Limit int
}

// Store defines the audit persistence interface.
type Store interface {
	Record(ctx context.Context, rec Record) error
	List(ctx context.Context, filter Filter) ([]Record, error)
	Migrate(ctx context.Context) error
	Close() error
}
