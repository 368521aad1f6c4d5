package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/refreshmon/refreshmon/internal/monitor"
	"github.com/refreshmon/refreshmon/internal/reporter"
	"github.com/refreshmon/refreshmon/pkg/display"
)

// SettingsUpdate is the body of PUT /api/settings. Nil global fields are left unchanged.
type SettingsUpdate struct {
	Preferences    map[string]int `json:"preferences"`
	AlertThreshold *int           `json:"alert_threshold,omitempty"`
	AlertSound     *bool          `json:"alert_sound,omitempty"`
}

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Error     string `json:"error"`
	Device    string `json:"device,omitempty"`
	Rate      int    `json:"rate,omitempty"`
	Supported []int  `json:"supported,omitempty"`
}

type Handler struct {
	monitor  *monitor.Monitor
	reporter *reporter.Reporter // nil when history is disabled
	logger   zerolog.Logger
}

func NewHandler(mon *monitor.Monitor, rep *reporter.Reporter, logger zerolog.Logger) *Handler {
	return &Handler{
		monitor:  mon,
		reporter: rep,
		logger:   logger.With().Str("component", "web").Logger(),
	}
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", h.handleStatus)
	mux.HandleFunc("/api/check", h.handleCheck)
	mux.HandleFunc("/api/settings", h.handleSettings)
	mux.HandleFunc("/api/history", h.handleHistory)

	mux.HandleFunc("/health", h.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status, err := h.monitor.Status()
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, status)
}

// handleCheck runs a manual check on POST and returns the latest cycle on GET
func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		last := h.monitor.LastResult()
		if last == nil {
			h.respondJSON(w, http.StatusNotFound, ErrorResponse{Error: "no check has completed yet"})
			return
		}
		h.respondJSON(w, http.StatusOK, last)
		return
	case http.MethodPost:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := h.monitor.CheckNow(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		view, err := h.monitor.OpenSettings()
		if err != nil {
			h.respondError(w, err)
			return
		}
		h.respondJSON(w, http.StatusOK, view)

	case http.MethodPut:
		var update SettingsUpdate
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&update); err != nil {
			h.respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
			return
		}
		if update.AlertThreshold != nil && *update.AlertThreshold <= 0 {
			h.respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "alert_threshold must be positive"})
			return
		}

		if len(update.Preferences) > 0 {
			if err := h.monitor.SetPreferred(update.Preferences); err != nil {
				h.respondError(w, err)
				return
			}
		}

		if update.AlertThreshold != nil || update.AlertSound != nil {
			settings := h.monitor.Preferences().Settings
			if update.AlertThreshold != nil {
				settings.AlertThreshold = *update.AlertThreshold
			}
			if update.AlertSound != nil {
				settings.AlertSound = *update.AlertSound
			}
			if err := h.monitor.UpdateGlobal(settings); err != nil {
				h.respondError(w, err)
				return
			}
		}

		snap := h.monitor.Preferences()
		h.respondJSON(w, http.StatusOK, map[string]interface{}{
			"preferences": snap.Preferences,
			"settings":    snap.Settings,
		})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.reporter == nil {
		h.respondJSON(w, http.StatusNotFound, ErrorResponse{Error: "check history is disabled"})
		return
	}

	query := r.URL.Query()
	limit := 50
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 {
		limit = l
	}

	withErrors, _ := strconv.ParseBool(query.Get("errors"))

	history, err := h.reporter.GenerateHistory(query.Get("period"), limit, withErrors)
	if err != nil {
		h.respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	h.respondJSON(w, http.StatusOK, history)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// respondError maps monitor and display errors to status codes
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var invalid *monitor.InvalidRateError
	switch {
	case errors.As(err, &invalid):
		h.respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:     invalid.Error(),
			Device:    invalid.DeviceID,
			Rate:      invalid.Rate,
			Supported: invalid.Supported,
		})
	case errors.Is(err, monitor.ErrCycleInProgress):
		h.respondJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	case display.IsBackendUnavailable(err):
		h.respondJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error().Err(err).Msg("request failed")
		h.respondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("error encoding JSON")
	}
}

