package proxy

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sentiment-proxy/internal/audit"
	"github.com/sells-group/sentiment-proxy/internal/table"
)

// fakeStore is an in-memory sheets.Client.
type fakeStore struct {
	mu       sync.Mutex
	tabs     map[string]table.Snapshot
	readErr  error
	writeErr error
	writes   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{tabs: make(map[string]table.Snapshot)}
}

func (f *fakeStore) ReadTable(_ context.Context, tab string) (table.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return table.Snapshot{}, f.readErr
	}
	return f.tabs[tab].Clone(), nil
}

func (f *fakeStore) WriteTable(_ context.Context, tab string, snap table.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.tabs[tab] = snap.Clone()
	f.writes++
	return nil
}

type recordingSink struct {
	recs []audit.Record
	err  error
}

func (r *recordingSink) Record(_ context.Context, rec audit.Record) error {
	if r.err != nil {
		return r.err
	}
	r.recs = append(r.recs, rec)
	return nil
}

func seededStore() *fakeStore {
	f := newFakeStore()
	f.tabs["articles"] = table.Snapshot{
		Header: []string{"url", "sentiment", "controlled"},
		Rows:   [][]string{{"http://x", "negative", "uncontrolled"}},
	}
	return f
}

func TestService_Upsert(t *testing.T) {
	store := seededStore()
	sink := &recordingSink{}
	svc := NewService(store, sink)

	res, err := svc.Upsert(context.Background(), "articles", table.URLKey("http://x"),
		[]table.FieldUpdate{{Column: "sentiment", Value: "positive"}}, true)
	require.NoError(t, err)

	assert.Equal(t, 2, res.RowIndex)
	assert.Contains(t, res.Changes, "sentiment: negative → positive")
	assert.Contains(t, res.Changes, "marked sentiment_edited")

	got := store.tabs["articles"]
	assert.Equal(t, []string{"url", "sentiment", "controlled", "sentiment_edited"}, got.Header)
	assert.Equal(t, []string{"http://x", "positive", "uncontrolled", "true"}, got.Rows[0])

	require.Len(t, sink.recs, 1)
	assert.Equal(t, "articles", sink.recs[0].Tab)
	assert.Equal(t, "http://x", sink.recs[0].Key)
	assert.True(t, sink.recs[0].MarkEdited)
}

func TestService_Upsert_KeyNotFound(t *testing.T) {
	store := seededStore()
	svc := NewService(store, nil)

	_, err := svc.Upsert(context.Background(), "articles", table.URLKey("http://missing"),
		[]table.FieldUpdate{{Column: "sentiment", Value: "positive"}}, false)

	var knf *KeyNotFoundError
	require.True(t, eris.As(err, &knf))
	assert.Contains(t, err.Error(), "URL not found in sheet")
	assert.Equal(t, 0, store.writes, "no write on a failed lookup")
}

func TestService_Upsert_CompositeKeyNotFound(t *testing.T) {
	store := newFakeStore()
	store.tabs["risk-daily"] = table.Snapshot{
		Header: []string{"date", "entity", "risk"},
		Rows:   [][]string{{"2026-01-15", "Acme", "Low"}},
	}
	svc := NewService(store, nil)

	_, err := svc.Upsert(context.Background(), "risk-daily",
		table.DateEntityKey("2026-01-15", "Globex"),
		[]table.FieldUpdate{{Column: "risk", Value: "High"}}, false)

	assert.Contains(t, err.Error(), "date/entity not found in sheet risk-daily: 2026-01-15 / Globex")
}

func TestService_Upsert_NeverCreatesRows(t *testing.T) {
	store := seededStore()
	svc := NewService(store, nil)

	_, _ = svc.Upsert(context.Background(), "articles", table.URLKey("http://missing"),
		[]table.FieldUpdate{{Column: "sentiment", Value: "positive"}}, false)

	assert.Len(t, store.tabs["articles"].Rows, 1)
}

func TestService_Upsert_WriteFailureSurfaces(t *testing.T) {
	store := seededStore()
	store.writeErr = eris.New("sheets: store unavailable")
	svc := NewService(store, nil)

	_, err := svc.Upsert(context.Background(), "articles", table.URLKey("http://x"),
		[]table.FieldUpdate{{Column: "sentiment", Value: "positive"}}, false)
	assert.Error(t, err)
}

func TestService_Upsert_AuditFailureDoesNotFailRequest(t *testing.T) {
	store := seededStore()
	sink := &recordingSink{err: eris.New("audit db down")}
	svc := NewService(store, sink)

	_, err := svc.Upsert(context.Background(), "articles", table.URLKey("http://x"),
		[]table.FieldUpdate{{Column: "sentiment", Value: "positive"}}, false)
	assert.NoError(t, err)
}

func TestService_Upsert_CompositeKey(t *testing.T) {
	store := newFakeStore()
	store.tabs["risk-daily"] = table.Snapshot{
		Header: []string{"date", "entity", "risk"},
		Rows: [][]string{
			{"2026-01-15", "Acme", "Low"},
			{"2026-01-15", "Globex", "Medium"},
		},
	}
	svc := NewService(store, nil)

	res, err := svc.Upsert(context.Background(), "risk-daily",
		table.DateEntityKey("2026-01-15", "Globex"),
		[]table.FieldUpdate{{Column: "risk", Value: "High"}}, false)
	require.NoError(t, err)

	assert.Equal(t, 3, res.RowIndex)
	assert.Equal(t, "High", store.tabs["risk-daily"].Rows[1][2])
	assert.Equal(t, "Low", store.tabs["risk-daily"].Rows[0][2], "other rows untouched")
}

func TestService_Read_MissingTabIsEmpty(t *testing.T) {
	svc := NewService(newFakeStore(), nil)

	rows, err := svc.Read(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestService_Read(t *testing.T) {
	svc := NewService(seededStore(), nil)

	rows, err := svc.Read(context.Background(), "articles")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]string{
		"url": "http://x", "sentiment": "negative", "controlled": "uncontrolled",
	}, rows[0])
}
