package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"schutz/internal/models"
)

func readingAt(st models.SensorType, value float64, ts time.Time) models.Reading {
	return models.Reading{
		SensorType: st,
		Value:      value,
		Unit:       st.Unit(),
		Status:     models.StatusNormal,
		Timestamp:  ts,
	}
}

func TestMemoryStoreAppendAndRecent(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	batch := []models.Reading{
		readingAt(models.SensorTemperature, 21, base),
		readingAt(models.SensorHumidity, 40, base),
	}
	if err := s.AppendReadings(ctx, batch); err != nil {
		t.Fatalf("AppendReadings: %v", err)
	}

	recent, err := s.RecentReadings(ctx, 1)
	if err != nil {
		t.Fatalf("RecentReadings: %v", err)
	}
	if len(recent) != 1 || recent[0].SensorType != models.SensorHumidity {
		t.Errorf("recent = %+v, want newest first", recent)
	}
}

func TestMemoryStoreEvictsOldestAtCapacity(t *testing.T) {
	s := NewMemoryStore(3)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		r := readingAt(models.SensorTemperature, float64(i), base.Add(time.Duration(i)*time.Minute))
		if err := s.AppendReadings(ctx, []models.Reading{r}); err != nil {
			t.Fatal(err)
		}
	}

	all, _ := s.RecentReadings(ctx, 10)
	if len(all) != 3 {
		t.Fatalf("stored = %d, want 3", len(all))
	}
	if all[len(all)-1].Value != 2 {
		t.Errorf("oldest kept value = %v, want 2", all[len(all)-1].Value)
	}
}

func TestMemoryStoreRuleLifecycle(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	rule, err := models.NewEmailRule("alice", models.SensorGas, 300, "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.CreateRule(ctx, rule); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}

	rules, err := s.ListRules(ctx)
	if err != nil {
		t.Fatalf("ListRules: %v", err)
	}
	if len(rules) != 1 || rules[0].ID != rule.ID {
		t.Fatalf("rules = %+v", rules)
	}

	// The snapshot must be independent of later edits.
	if err := s.DeleteRule(ctx, rule.ID); err != nil {
		t.Fatalf("DeleteRule: %v", err)
	}
	if len(rules) != 1 {
		t.Error("earlier snapshot mutated by delete")
	}

	after, _ := s.ListRules(ctx)
	if len(after) != 0 {
		t.Errorf("rules after delete = %+v", after)
	}

	if err := s.DeleteRule(ctx, rule.ID); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("double delete err = %v, want ErrRuleNotFound", err)
	}
}

func TestMemoryStoreCreateRuleValidates(t *testing.T) {
	s := NewMemoryStore(0)
	bad := models.AlertRule{ID: "x", SensorType: "bogus", Channel: models.ChannelEmail, Email: "a@b.c"}
	if err := s.CreateRule(context.Background(), bad); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestMemoryStorePrune(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	old := readingAt(models.SensorCO, 5, base.Add(-25*time.Hour))
	fresh := readingAt(models.SensorCO, 6, base)
	if err := s.AppendReadings(ctx, []models.Reading{old, fresh}); err != nil {
		t.Fatal(err)
	}

	if err := s.PruneReadingsBefore(ctx, base.Add(-24*time.Hour)); err != nil {
		t.Fatalf("PruneReadingsBefore: %v", err)
	}

	remaining, _ := s.RecentReadings(ctx, 10)
	if len(remaining) != 1 || remaining[0].Value != 6 {
		t.Errorf("remaining = %+v, want only the fresh reading", remaining)
	}
}
