// Package sheets is a thin client for the Google Sheets v4 values API,
// scoped to what the override proxy needs: read a whole tab, replace a whole
// tab, create tabs lazily.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/sentiment-proxy/internal/table"
)

const defaultBaseURL = "https://sheets.googleapis.com/v4"

// Client performs full-table reads and writes against one spreadsheet.
type Client interface {
	// ReadTable returns the tab's contents. A tab that does not exist yet
	// reads as an empty snapshot, not an error.
	ReadTable(ctx context.Context, tab string) (table.Snapshot, error)

	// WriteTable replaces the tab's full contents, creating the tab first if
	// it does not exist. Once WriteTable returns nil the new contents are
	// what other readers see; there is no observable partial-write state.
	WriteTable(ctx context.Context, tab string, snap table.Snapshot) error
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the overall deadline applied to each ReadTable/WriteTable
// call.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.timeout = d
	}
}

// WithRateLimit caps outgoing requests per second (the Sheets API enforces a
// per-minute quota).
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	spreadsheetID string
	token         string
	baseURL       string
	timeout       time.Duration
	http          *http.Client
	limiter       *rate.Limiter
}

// NewClient creates a Sheets client for one spreadsheet. token is the OAuth
// bearer token of the service account; empty disables the Authorization
// header (useful against emulators and tests).
func NewClient(spreadsheetID, token string, opts ...Option) Client {
	c := &httpClient{
		spreadsheetID: spreadsheetID,
		token:         token,
		baseURL:       defaultBaseURL,
		timeout:       30 * time.Second,
		http:          &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type valueRange struct {
	Range          string  `json:"range,omitempty"`
	MajorDimension string  `json:"majorDimension,omitempty"`
	Values         [][]any `json:"values"`
}

func (c *httpClient) ReadTable(ctx context.Context, tab string) (table.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := fmt.Sprintf("%s/spreadsheets/%s/values/%s", c.baseURL, c.spreadsheetID, url.PathEscape(tab))
	status, body, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return table.Snapshot{}, classify(ctx, err, "read %s", tab)
	}

	switch {
	case status == http.StatusOK:
	case missingTabStatus(status, body):
		return table.Snapshot{}, nil
	default:
		return table.Snapshot{}, statusError(status, body, "read %s", tab)
	}

	var vr valueRange
	if err := json.Unmarshal(body, &vr); err != nil {
		return table.Snapshot{}, eris.Wrapf(err, "sheets: decode values for %s", tab)
	}
	return toSnapshot(vr.Values), nil
}

func (c *httpClient) WriteTable(ctx context.Context, tab string, snap table.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	exists, err := c.tabExists(ctx, tab)
	if err != nil {
		return err
	}
	if !exists {
		if err := c.addTab(ctx, tab); err != nil {
			return err
		}
	} else if err := c.clearTab(ctx, tab); err != nil {
		return err
	}

	u := fmt.Sprintf("%s/spreadsheets/%s/values/%s?valueInputOption=RAW",
		c.baseURL, c.spreadsheetID, url.PathEscape(tab))
	status, body, err := c.do(ctx, http.MethodPut, u, valueRange{
		MajorDimension: "ROWS",
		Values:         toValues(snap),
	})
	if err != nil {
		return classify(ctx, err, "write %s", tab)
	}
	if status != http.StatusOK {
		return statusError(status, body, "write %s", tab)
	}
	return nil
}

func (c *httpClient) tabExists(ctx context.Context, tab string) (bool, error) {
	u := fmt.Sprintf("%s/spreadsheets/%s?fields=sheets.properties.title", c.baseURL, c.spreadsheetID)
	status, body, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, classify(ctx, err, "get spreadsheet")
	}
	if status != http.StatusOK {
		return false, statusError(status, body, "get spreadsheet")
	}

	var meta struct {
		Sheets []struct {
			Properties struct {
				Title string `json:"title"`
			} `json:"properties"`
		} `json:"sheets"`
	}
	if err := json.Unmarshal(body, &meta); err != nil {
		return false, eris.Wrap(err, "sheets: decode spreadsheet metadata")
	}
	for _, s := range meta.Sheets {
		if s.Properties.Title == tab {
			return true, nil
		}
	}
	return false, nil
}

func (c *httpClient) addTab(ctx context.Context, tab string) error {
	u := fmt.Sprintf("%s/spreadsheets/%s:batchUpdate", c.baseURL, c.spreadsheetID)
	req := map[string]any{
		"requests": []map[string]any{
			{"addSheet": map[string]any{"properties": map[string]any{"title": tab}}},
		},
	}
	status, body, err := c.do(ctx, http.MethodPost, u, req)
	if err != nil {
		return classify(ctx, err, "add tab %s", tab)
	}
	if status != http.StatusOK {
		return statusError(status, body, "add tab %s", tab)
	}
	return nil
}

func (c *httpClient) clearTab(ctx context.Context, tab string) error {
	u := fmt.Sprintf("%s/spreadsheets/%s/values/%s:clear", c.baseURL, c.spreadsheetID, url.PathEscape(tab))
	status, body, err := c.do(ctx, http.MethodPost, u, struct{}{})
	if err != nil {
		return classify(ctx, err, "clear %s", tab)
	}
	if status != http.StatusOK {
		return statusError(status, body, "clear %s", tab)
	}
	return nil
}

func (c *httpClient) do(ctx context.Context, method, u string, payload any) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, err
		}
	}

	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, eris.Wrap(err, "sheets: marshal request")
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return 0, nil, eris.Wrap(err, "sheets: create request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

// missingTabStatus recognizes the API's response for a tab that does not
// exist: 404, or 400 with the range-parse message.
func missingTabStatus(status int, body []byte) bool {
	if status == http.StatusNotFound {
		return true
	}
	return status == http.StatusBadRequest && bytes.Contains(body, []byte("Unable to parse range"))
}

// toSnapshot converts the API's row matrix: row 0 is the header, the rest
// are data rows. Numbers and booleans arrive untyped from JSON and are
// rendered back to their literal form.
func toSnapshot(values [][]any) table.Snapshot {
	if len(values) == 0 {
		return table.Snapshot{}
	}
	snap := table.Snapshot{Header: cellStrings(values[0])}
	for _, row := range values[1:] {
		snap.Rows = append(snap.Rows, cellStrings(row))
	}
	return snap
}

// toValues renders a snapshot for values.update, padding every data row to
// the header length so the written table satisfies the row-length invariant.
func toValues(snap table.Snapshot) [][]any {
	out := make([][]any, 0, len(snap.Rows)+1)
	out = append(out, toAny(snap.Header))
	for _, row := range snap.Rows {
		padded := append([]string(nil), row...)
		for len(padded) < len(snap.Header) {
			padded = append(padded, "")
		}
		out = append(out, toAny(padded))
	}
	return out
}

func toAny(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

func cellStrings(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = cellString(v)
	}
	return out
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
