package threshold

import (
	"testing"

	"schutz/internal/models"
)

func emailRule(t *testing.T, st models.SensorType, limit float64) models.AlertRule {
	t.Helper()
	r, err := models.NewEmailRule("owner", st, limit, "owner@example.com")
	if err != nil {
		t.Fatalf("NewEmailRule: %v", err)
	}
	return r
}

func TestResolveReturnsDefaultWithoutRules(t *testing.T) {
	for st, want := range Defaults {
		got := Resolve(nil, st)
		if got != want {
			t.Errorf("Resolve(nil, %s) = %v, want %v", st, got, want)
		}
	}
}

func TestResolveIgnoresOtherSensorTypes(t *testing.T) {
	rules := []models.AlertRule{
		emailRule(t, models.SensorHumidity, 10),
		emailRule(t, models.SensorGas, 20),
	}

	got := Resolve(rules, models.SensorTemperature)
	if got != Defaults[models.SensorTemperature] {
		t.Errorf("Resolve = %v, want default %v", got, Defaults[models.SensorTemperature])
	}
}

func TestResolveMinimumWins(t *testing.T) {
	rules := []models.AlertRule{
		emailRule(t, models.SensorTemperature, 5),
		emailRule(t, models.SensorTemperature, 10),
		emailRule(t, models.SensorTemperature, 3),
		emailRule(t, models.SensorHumidity, 1),
	}

	got := Resolve(rules, models.SensorTemperature)
	if got != 3 {
		t.Errorf("Resolve = %v, want 3", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		value      float64
		threshold  float64
		wantStatus models.Status
	}{
		{"below threshold", 40, 50, models.StatusNormal},
		{"equal to threshold", 50, 50, models.StatusNormal},
		{"just above threshold", 50.001, 50, models.StatusCritical},
		{"well above threshold", 60, 50, models.StatusCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, excess := Classify(tt.value, tt.threshold)
			if status != tt.wantStatus {
				t.Errorf("Classify(%v, %v) status = %s, want %s", tt.value, tt.threshold, status, tt.wantStatus)
			}
			if excess != tt.value-tt.threshold {
				t.Errorf("Classify(%v, %v) excess = %v, want %v", tt.value, tt.threshold, excess, tt.value-tt.threshold)
			}
		})
	}
}
