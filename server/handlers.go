package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"alabs.org/doorbell-bridge/bridge"
	"alabs.org/doorbell-bridge/journal"
	"alabs.org/doorbell-bridge/metrics"
	"alabs.org/doorbell-bridge/status"
)

const maxCommandBody = 4096

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().
			Str("error", err.Error()).
			Str("event", "WriteResponse").
			Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

type dashboardData struct {
	Door       string
	Alert      string
	AlertLabel string
}

func newDashboardData(snapshot status.Snapshot) dashboardData {
	return dashboardData{
		Door:       snapshot.Door.String(),
		Alert:      snapshot.Alert.String(),
		AlertLabel: snapshot.Alert.Label(),
	}
}

func (server *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTemplate.Execute(w, newDashboardData(server.bridge.Snapshot())); err != nil {
		log.Error().
			Str("error", err.Error()).
			Str("event", "RenderDashboard").
			Msg("Failed to render dashboard")
	}
}

type commandRequest struct {
	Command *string `json:"command"`
}

func (server *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if !server.limiter.Allow(r) {
		metrics.CommandsTotal.WithLabelValues("limited").Inc()
		writeError(w, http.StatusTooManyRequests, "too many commands")
		return
	}

	var request commandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBody)).Decode(&request); err != nil {
		metrics.CommandsTotal.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	command := ""
	if request.Command != nil {
		command = *request.Command
	}

	err := server.bridge.SendCommand(r.Context(), command)
	var publishErr *bridge.PublishError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
	case errors.Is(err, bridge.ErrMissingCommand):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &publishErr):
		writeError(w, http.StatusServiceUnavailable, "failed to publish command")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (server *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, server.bridge.Snapshot())
}

func (server *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if server.history == nil {
		writeError(w, http.StatusNotFound, "journal is not enabled")
		return
	}

	limit := journal.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	events, err := server.history.Recent(r.Context(), limit)
	if err != nil {
		log.Error().
			Str("error", err.Error()).
			Str("event", "JournalQuery").
			Msg("Failed to read journal")
		writeError(w, http.StatusInternalServerError, "failed to read journal")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (server *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"broker_connected": server.broker.Connected(),
		"sessions":         server.bridge.Sessions(),
		"uptime":           time.Since(server.startTime).Seconds(),
	})
}
