package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"schutz/internal/logger"
	"schutz/internal/models"
	"schutz/internal/storage"
)

const maxReadingsLimit = 100

// ReadingsHandler returns recent persisted readings, newest first.
type ReadingsHandler struct {
	store storage.Store
}

// NewReadingsHandler creates the readings query handler.
func NewReadingsHandler(store storage.Store) *ReadingsHandler {
	return &ReadingsHandler{store: store}
}

// ServeHTTP handles GET /api/readings?limit=N.
func (h *ReadingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := maxReadingsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n < limit {
			limit = n
		}
	}

	readings, err := h.store.RecentReadings(r.Context(), limit)
	if err != nil {
		log := logger.WithComponent("handlers")
		log.Error().Err(err).Msg("recent readings query failed")
		writeError(w, http.StatusInternalServerError, "failed to query readings")
		return
	}
	if readings == nil {
		readings = []models.Reading{}
	}
	writeJSON(w, http.StatusOK, readings)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "error",
		"message": message,
	})
}
