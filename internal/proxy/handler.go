package proxy

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/sentiment-proxy/internal/override"
	"github.com/sells-group/sentiment-proxy/internal/table"
)

// Protocol actions.
const (
	actionRead   = "READ"
	actionUpdate = "UPDATE_SENTIMENT"
)

type request struct {
	Action     string            `json:"action"`
	Table      string            `json:"tableId"`
	URL        string            `json:"url,omitempty"`
	Date       string            `json:"date,omitempty"`
	Entity     string            `json:"entity,omitempty"`
	Updates    map[string]string `json:"updates,omitempty"`
	MarkEdited bool              `json:"markEdited,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type readResponse struct {
	Success bool                `json:"success"`
	Data    []map[string]string `json:"data"`
}

type updateResponse struct {
	Success   bool     `json:"success"`
	Changes   []string `json:"changes"`
	RowIndex  int      `json:"rowIndex"`
	Timestamp string   `json:"timestamp"`
}

// NewRouter wires the protocol endpoints. The dashboard is served from a
// different origin, so CORS is wide open and preflights answer empty 200.
// Protocol-level failures are enveloped as {success:false, error} with HTTP
// 200, matching the Apps-Script origin of the protocol.
func NewRouter(svc *Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("sentiment override proxy is running\n"))
	})

	r.Post("/", func(w http.ResponseWriter, req *http.Request) {
		handlePost(w, req, svc)
	})

	return r
}

func handlePost(w http.ResponseWriter, r *http.Request, svc *Service) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, errorResponse{Error: "invalid JSON body"})
		return
	}

	switch req.Action {
	case actionRead:
		handleRead(w, r, svc, req)
	case actionUpdate:
		handleUpdate(w, r, svc, req)
	default:
		writeJSON(w, errorResponse{Error: "Unknown action"})
	}
}

func handleRead(w http.ResponseWriter, r *http.Request, svc *Service, req request) {
	if req.Table == "" {
		writeJSON(w, errorResponse{Error: "missing required field: tableId"})
		return
	}

	rows, err := svc.Read(r.Context(), req.Table)
	if err != nil {
		zap.L().Error("read failed", zap.String("table", req.Table), zap.Error(err))
		writeJSON(w, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, readResponse{Success: true, Data: rows})
}

func handleUpdate(w http.ResponseWriter, r *http.Request, svc *Service, req request) {
	if req.Table == "" {
		writeJSON(w, errorResponse{Error: "missing required field: tableId"})
		return
	}

	key, errMsg := keyFromRequest(req)
	if errMsg != "" {
		writeJSON(w, errorResponse{Error: errMsg})
		return
	}

	updates, err := override.ValidateUpdates(req.Updates)
	if err != nil {
		writeJSON(w, errorResponse{Error: err.Error()})
		return
	}

	res, err := svc.Upsert(r.Context(), req.Table, key, updates, req.MarkEdited)
	if err != nil {
		zap.L().Error("update failed",
			zap.String("table", req.Table),
			zap.String("key", key.String()),
			zap.Error(err),
		)
		writeJSON(w, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, updateResponse{
		Success:   true,
		Changes:   res.Changes,
		RowIndex:  res.RowIndex,
		Timestamp: res.Timestamp.Format(time.RFC3339),
	})
}

// keyFromRequest builds the natural key from exactly one of the two wire
// forms: url, or date+entity. Mixing forms or sending half a composite key
// is rejected before any store call.
func keyFromRequest(req request) (table.Key, string) {
	hasURL := req.URL != ""
	hasDate := req.Date != ""
	hasEntity := req.Entity != ""

	switch {
	case hasURL && (hasDate || hasEntity):
		return table.Key{}, "ambiguous key: provide url or date+entity, not both"
	case hasURL:
		return table.URLKey(req.URL), ""
	case hasDate && hasEntity:
		return table.DateEntityKey(req.Date, req.Entity), ""
	case hasDate:
		return table.Key{}, "missing required field: entity"
	case hasEntity:
		return table.Key{}, "missing required field: date"
	default:
		return table.Key{}, "missing required field(s): url, or date and entity"
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}
