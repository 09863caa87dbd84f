package sheets

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/rotisserie/eris"
)

// Store I/O failures split into two caller-visible conditions: the call ran
// out of time, or the service answered badly / not at all.
var (
	ErrTimeout     = eris.New("sheets: request timed out")
	ErrUnavailable = eris.New("sheets: store unavailable")
)

// classify maps a transport-level failure onto the taxonomy. Deadline
// expiry (ours or the caller's) surfaces as ErrTimeout; everything else as
// ErrUnavailable with the underlying message preserved.
func classify(ctx context.Context, err error, format string, args ...any) error {
	op := fmt.Sprintf(format, args...)

	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return eris.Wrapf(ErrTimeout, "%s: %v", op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return eris.Wrapf(ErrTimeout, "%s: %v", op, err)
	}
	return eris.Wrapf(ErrUnavailable, "%s: %v", op, err)
}

// statusError maps a non-2xx API response onto the taxonomy. Server-side and
// throttling statuses are unavailability; anything else keeps the raw body
// for debugging.
func statusError(status int, body []byte, format string, args ...any) error {
	op := fmt.Sprintf(format, args...)

	switch status {
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return eris.Wrapf(ErrTimeout, "%s: status %d", op, status)
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable:
		return eris.Wrapf(ErrUnavailable, "%s: status %d: %s", op, status, truncate(body))
	default:
		return eris.Errorf("sheets: %s: unexpected status %d: %s", op, status, truncate(body))
	}
}

func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
