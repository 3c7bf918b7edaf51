package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"schutz/internal/dispatch"
	"schutz/internal/ingest"
	"schutz/internal/models"
	"schutz/internal/storage"
)

type nopMailer struct{}

func (nopMailer) Send(ctx context.Context, to, subject, htmlBody string) error { return nil }

type nopPoster struct{}

func (nopPoster) Post(ctx context.Context, url string, payload any) error { return nil }

func newTestIngestHandler(store storage.Store) *IngestHandler {
	coordinator := ingest.New(ingest.Config{
		Store: store,
		Dispatcher: dispatch.New(dispatch.Config{
			Mailer:   nopMailer{},
			Webhooks: nopPoster{},
		}),
	})
	return NewIngestHandler(coordinator)
}

func TestIngestHandlerAcceptsBatch(t *testing.T) {
	store := storage.NewMemoryStore(0)
	h := newTestIngestHandler(store)

	body := `{"temperature":60,"humidity":50,"gas_level":100,"co_ppm":10}`
	req := httptest.NewRequest(http.MethodPost, "/api/data", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "success" {
		t.Errorf("status = %v", resp["status"])
	}
	if resp["readings"] != float64(4) {
		t.Errorf("readings = %v, want 4", resp["readings"])
	}

	persisted, _ := store.RecentReadings(context.Background(), 10)
	if len(persisted) != 4 {
		t.Errorf("persisted = %d, want 4", len(persisted))
	}
}

func TestIngestHandlerReportsFailedNotifications(t *testing.T) {
	store := storage.NewMemoryStore(0)
	ctx := context.Background()
	rule, err := models.NewEmailRule("alice", models.SensorTemperature, 55, "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.CreateRule(ctx, rule); err != nil {
		t.Fatal(err)
	}
	h := newTestIngestHandler(store)

	body := `{"temperature":60,"humidity":50,"gas_level":100,"co_ppm":10}`
	req := httptest.NewRequest(http.MethodPost, "/api/data", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["notifications"] != float64(1) {
		t.Errorf("notifications = %v, want 1", resp["notifications"])
	}
	if resp["notifications_failed"] != float64(0) {
		t.Errorf("notifications_failed = %v, want 0", resp["notifications_failed"])
	}
}

func TestIngestHandlerRejectsIncompleteBatch(t *testing.T) {
	store := storage.NewMemoryStore(0)
	h := newTestIngestHandler(store)

	body := `{"temperature":60,"humidity":50,"gas_level":100}`
	req := httptest.NewRequest(http.MethodPost, "/api/data", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp map[string]string
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["status"] != "error" {
		t.Errorf("response = %v", resp)
	}

	persisted, _ := store.RecentReadings(context.Background(), 10)
	if len(persisted) != 0 {
		t.Errorf("persisted = %d, want 0 after rejected batch", len(persisted))
	}
}

func TestIngestHandlerRejectsMalformedJSON(t *testing.T) {
	h := newTestIngestHandler(storage.NewMemoryStore(0))

	req := httptest.NewRequest(http.MethodPost, "/api/data", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestIngestHandlerRejectsWrongMethod(t *testing.T) {
	h := newTestIngestHandler(storage.NewMemoryStore(0))

	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
