// handlers/admin_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gewnthar/mncovid/database"
	"github.com/gewnthar/mncovid/metrics"
	"github.com/gewnthar/mncovid/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UpdateRunner is satisfied by *services.Updater.
type UpdateRunner interface {
	Run(ctx context.Context, steps []services.Step) (*services.Report, error)
}

type Handler struct {
	store   *database.Store
	updater UpdateRunner
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New builds the HTTP handlers. updater may be nil, in which case the admin
// update route is not registered.
func New(store *database.Store, updater UpdateRunner, m *metrics.Metrics, logger *slog.Logger) *Handler {
	return &Handler{store: store, updater: updater, metrics: m, logger: logger}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("GET /api/statewide/latest", h.StatewideLatest)
	mux.HandleFunc("GET /api/counties/latest", h.CountiesLatest)
	mux.HandleFunc("GET /api/timeseries/{series}", h.Timeseries)
	if h.updater != nil {
		mux.HandleFunc("POST /api/admin/update", h.TriggerUpdate)
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(h.metrics.Registry, promhttp.HandlerOpts{}))
	return mux
}

func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"Failed to marshal JSON response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.logger.Warn("api error", "status", code, "message", message)
	h.respondWithJSON(w, code, map[string]string{"error": message})
}

// TriggerUpdate runs one scrape synchronously.
// Expects POST /api/admin/update, optionally with ?only=statewide,counties
func (h *Handler) TriggerUpdate(w http.ResponseWriter, r *http.Request) {
	steps, err := services.ParseSteps(r.URL.Query().Get("only"))
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("manual update requested", "steps", steps)
	report, err := h.updater.Run(r.Context(), steps)
	if err != nil {
		h.respondWithJSON(w, http.StatusInternalServerError, map[string]any{
			"report": report,
			"error":  err.Error(),
		})
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]any{"report": report})
}
