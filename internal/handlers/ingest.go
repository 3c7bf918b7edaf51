package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"schutz/internal/ingest"
	"schutz/internal/logger"
	"schutz/internal/models"
)

// IngestHandler accepts sensor reading batches from devices.
type IngestHandler struct {
	coordinator *ingest.Coordinator
	maxBodySize int64
}

// NewIngestHandler creates the ingestion endpoint handler.
func NewIngestHandler(coordinator *ingest.Coordinator) *IngestHandler {
	return &IngestHandler{
		coordinator: coordinator,
		maxBodySize: 1 << 20, // 1MB
	}
}

// ServeHTTP handles POST /api/data.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var batch models.Batch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid data")
		return
	}

	result, err := h.coordinator.Ingest(r.Context(), batch)
	if err != nil {
		if errors.Is(err, ingest.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log := logger.WithComponent("handlers")
		log.Error().Err(err).Msg("ingestion cycle failed")
		writeError(w, http.StatusInternalServerError, "failed to store readings")
		return
	}

	failed := 0
	for _, a := range result.Attempts {
		if !a.Succeeded() {
			failed++
		}
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"status":               "success",
		"readings":             len(result.Readings),
		"notifications":        len(result.Attempts),
		"notifications_failed": failed,
	})
}
