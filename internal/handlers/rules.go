package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"schutz/internal/logger"
	"schutz/internal/models"
	"schutz/internal/storage"
)

// RulesHandler exposes JSON CRUD for alert rules.
type RulesHandler struct {
	store storage.Store
}

// NewRulesHandler creates the rules endpoint handler.
func NewRulesHandler(store storage.Store) *RulesHandler {
	return &RulesHandler{store: store}
}

// ruleInput is the request body for rule creation.
type ruleInput struct {
	Owner      string  `json:"owner"`
	SensorType string  `json:"sensor_type"`
	Threshold  float64 `json:"threshold_value"`
	Channel    string  `json:"channel"`
	Email      string  `json:"email,omitempty"`
	URL        string  `json:"url,omitempty"`
}

// ServeHTTP routes /api/rules and /api/rules/{id}.
func (h *RulesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet:
		h.list(w, r)
	case r.Method == http.MethodPost:
		h.create(w, r)
	case r.Method == http.MethodDelete:
		h.delete(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *RulesHandler) list(w http.ResponseWriter, r *http.Request) {
	rules, err := h.store.ListRules(r.Context())
	if err != nil {
		log := logger.WithComponent("handlers")
		log.Error().Err(err).Msg("list rules failed")
		writeError(w, http.StatusInternalServerError, "failed to list rules")
		return
	}
	if rules == nil {
		rules = []models.AlertRule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

func (h *RulesHandler) create(w http.ResponseWriter, r *http.Request) {
	var in ruleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule payload")
		return
	}

	var (
		rule models.AlertRule
		err  error
	)
	switch models.ChannelType(in.Channel) {
	case models.ChannelEmail:
		rule, err = models.NewEmailRule(in.Owner, models.SensorType(in.SensorType), in.Threshold, in.Email)
	case models.ChannelWebhook:
		rule, err = models.NewWebhookRule(in.Owner, models.SensorType(in.SensorType), in.Threshold, in.URL)
	default:
		writeError(w, http.StatusBadRequest, "channel must be email or url")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.CreateRule(r.Context(), rule); err != nil {
		log := logger.WithComponent("handlers")
		log.Error().Err(err).Msg("create rule failed")
		writeError(w, http.StatusInternalServerError, "failed to create rule")
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (h *RulesHandler) delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/rules/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "rule id required")
		return
	}

	if err := h.store.DeleteRule(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrRuleNotFound) {
			writeError(w, http.StatusNotFound, "rule not found")
			return
		}
		log := logger.WithComponent("handlers")
		log.Error().Err(err).Msg("delete rule failed")
		writeError(w, http.StatusInternalServerError, "failed to delete rule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
