package models

import (
	"errors"
	"testing"
)

func TestNewEmailRule(t *testing.T) {
	r, err := NewEmailRule("alice", SensorTemperature, 45, "alice@example.com")
	if err != nil {
		t.Fatalf("NewEmailRule: %v", err)
	}

	if r.ID == "" {
		t.Error("expected generated rule ID")
	}
	if r.Channel != ChannelEmail {
		t.Errorf("channel = %s, want %s", r.Channel, ChannelEmail)
	}
	if r.Email != "alice@example.com" || r.URL != "" {
		t.Errorf("expected only email payload populated, got email=%q url=%q", r.Email, r.URL)
	}
	if r.Target() != "alice@example.com" {
		t.Errorf("Target() = %q", r.Target())
	}
}

func TestNewWebhookRule(t *testing.T) {
	r, err := NewWebhookRule("bob", SensorGas, 300, "http://relay.local/api/alert")
	if err != nil {
		t.Fatalf("NewWebhookRule: %v", err)
	}

	if r.Channel != ChannelWebhook {
		t.Errorf("channel = %s, want %s", r.Channel, ChannelWebhook)
	}
	if r.URL == "" || r.Email != "" {
		t.Errorf("expected only url payload populated, got email=%q url=%q", r.Email, r.URL)
	}
}

func TestRuleConstructorsReject(t *testing.T) {
	if _, err := NewEmailRule("alice", SensorType("bogus"), 10, "a@b.c"); !errors.Is(err, ErrInvalidSensorType) {
		t.Errorf("invalid sensor type: got %v", err)
	}
	if _, err := NewEmailRule("alice", SensorCO, 10, ""); !errors.Is(err, ErrEmptyEmail) {
		t.Errorf("empty email: got %v", err)
	}
	if _, err := NewWebhookRule("alice", SensorCO, 10, ""); !errors.Is(err, ErrEmptyURL) {
		t.Errorf("empty url: got %v", err)
	}
}

func TestRuleValidateRejectsMixedPayload(t *testing.T) {
	r := AlertRule{
		ID:         "x",
		SensorType: SensorTemperature,
		Threshold:  10,
		Channel:    ChannelEmail,
		Email:      "a@b.c",
		URL:        "http://both.example.com",
	}
	if err := r.Validate(); !errors.Is(err, ErrChannelMismatch) {
		t.Errorf("mixed payload: got %v", err)
	}

	r = AlertRule{ID: "y", SensorType: SensorTemperature, Threshold: 10, Channel: ChannelType("sms")}
	if err := r.Validate(); !errors.Is(err, ErrInvalidChannel) {
		t.Errorf("unknown channel: got %v", err)
	}
}

func TestBatchValidate(t *testing.T) {
	v := func(f float64) *float64 { return &f }

	full := Batch{Temperature: v(20), Humidity: v(40), GasLevel: v(100), COPPM: v(5)}
	if err := full.Validate(); err != nil {
		t.Errorf("complete batch: %v", err)
	}

	missing := Batch{Temperature: v(20), Humidity: v(40), GasLevel: v(100)}
	err := missing.Validate()
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("missing co_ppm: got %v", err)
	}
}

func TestBatchValue(t *testing.T) {
	v := func(f float64) *float64 { return &f }
	b := Batch{Temperature: v(1), Humidity: v(2), GasLevel: v(3), COPPM: v(4)}

	want := map[SensorType]float64{
		SensorTemperature: 1,
		SensorHumidity:    2,
		SensorGas:         3,
		SensorCO:          4,
	}
	for st, w := range want {
		if got := b.Value(st); got != w {
			t.Errorf("Value(%s) = %v, want %v", st, got, w)
		}
	}
}
