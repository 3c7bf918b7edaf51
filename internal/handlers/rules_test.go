package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"schutz/internal/models"
	"schutz/internal/storage"
)

func TestRulesHandlerCreateAndList(t *testing.T) {
	store := storage.NewMemoryStore(0)
	h := NewRulesHandler(store)

	body := `{"owner":"alice","sensor_type":"DHT11_Temp","threshold_value":45,"channel":"email","email":"alice@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/rules", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var created models.AlertRule
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode created rule: %v", err)
	}
	if created.ID == "" {
		t.Error("created rule has no id")
	}
	if created.Threshold != 45 || created.Channel != models.ChannelEmail {
		t.Errorf("created = %+v", created)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/rules", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	var rules []models.AlertRule
	if err := json.NewDecoder(rec.Body).Decode(&rules); err != nil {
		t.Fatalf("decode rules: %v", err)
	}
	if len(rules) != 1 || rules[0].ID != created.ID {
		t.Errorf("rules = %+v", rules)
	}
}

func TestRulesHandlerListEmptyIsArray(t *testing.T) {
	h := NewRulesHandler(storage.NewMemoryStore(0))

	req := httptest.NewRequest(http.MethodGet, "/api/rules", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestRulesHandlerCreateRejectsBadChannel(t *testing.T) {
	h := NewRulesHandler(storage.NewMemoryStore(0))

	body := `{"owner":"alice","sensor_type":"MQ2","threshold_value":300,"channel":"sms"}`
	req := httptest.NewRequest(http.MethodPost, "/api/rules", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRulesHandlerCreateRejectsBadSensorType(t *testing.T) {
	h := NewRulesHandler(storage.NewMemoryStore(0))

	body := `{"owner":"alice","sensor_type":"bogus","threshold_value":300,"channel":"email","email":"a@b.c"}`
	req := httptest.NewRequest(http.MethodPost, "/api/rules", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRulesHandlerDelete(t *testing.T) {
	store := storage.NewMemoryStore(0)
	rule, err := models.NewWebhookRule("bob", models.SensorGas, 300, "http://hook.example.com")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.CreateRule(context.Background(), rule); err != nil {
		t.Fatal(err)
	}
	h := NewRulesHandler(store)

	req := httptest.NewRequest(http.MethodDelete, "/api/rules/"+rule.ID, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	rules, _ := store.ListRules(context.Background())
	if len(rules) != 0 {
		t.Errorf("rules after delete = %+v", rules)
	}
}

func TestRulesHandlerDeleteUnknownIs404(t *testing.T) {
	h := NewRulesHandler(storage.NewMemoryStore(0))

	req := httptest.NewRequest(http.MethodDelete, "/api/rules/does-not-exist", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
