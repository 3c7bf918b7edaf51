// Package relay implements the webhook alert sink: a small HTTP
// surface that receives alert payloads from the main service and keeps
// the most recent ones in a bounded ring buffer.
package relay

import (
	"encoding/json"
	"net/http"
	"time"

	"schutz/internal/alertlog"
	"schutz/internal/logger"
)

// Handler serves the relay endpoints.
type Handler struct {
	log *alertlog.Log
}

// NewHandler creates a relay handler backed by the given alert log.
func NewHandler(log *alertlog.Log) *Handler {
	return &Handler{log: log}
}

// Register attaches the relay routes to a mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/alert", h.handleReceive)
	mux.HandleFunc("/api/alerts", h.handleList)
}

// handleReceive accepts one alert payload, stamping a timestamp when
// the sender omitted one.
func (h *Handler) handleReceive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var entry alertlog.Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeError(w, http.StatusBadRequest, "request must be JSON")
		return
	}
	// A body of "null" decodes without error but leaves the map nil.
	if entry == nil {
		writeError(w, http.StatusBadRequest, "request must be a JSON object")
		return
	}

	if _, ok := entry["timestamp"]; !ok {
		entry["timestamp"] = time.Now().Format(time.RFC3339)
	}

	h.log.Append(entry)

	log := logger.WithComponent("relay")
	log.Info().
		Interface("alert", entry).
		Int("stored", h.log.Len()).
		Msg("alert received")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "success",
		"message": "Alert received",
	})
}

// handleList returns all stored alerts, oldest first.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.log.All())
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "error",
		"message": message,
	})
}
