package models

import (
	"errors"

	"github.com/google/uuid"
)

// ChannelType tags the notification channel variant of an AlertRule.
type ChannelType string

const (
	ChannelEmail   ChannelType = "email"
	ChannelWebhook ChannelType = "url"
)

// Validation errors
var (
	ErrInvalidSensorType = errors.New("invalid sensor type")
	ErrInvalidChannel    = errors.New("invalid channel type")
	ErrEmptyEmail        = errors.New("email address cannot be empty")
	ErrEmptyURL          = errors.New("webhook url cannot be empty")
	ErrChannelMismatch   = errors.New("channel payload does not match channel type")
)

// AlertRule is a user-configured threshold rule. Exactly one channel
// payload is populated, matching Channel; construct rules through
// NewEmailRule or NewWebhookRule so the invariant holds.
type AlertRule struct {
	ID         string      `json:"id"`
	Owner      string      `json:"owner"`
	SensorType SensorType  `json:"sensor_type"`
	Threshold  float64     `json:"threshold_value"`
	Channel    ChannelType `json:"channel"`
	Email      string      `json:"email,omitempty"`
	URL        string      `json:"url,omitempty"`
}

// NewEmailRule creates a rule that notifies via email.
func NewEmailRule(owner string, st SensorType, threshold float64, email string) (AlertRule, error) {
	r := AlertRule{
		ID:         uuid.New().String(),
		Owner:      owner,
		SensorType: st,
		Threshold:  threshold,
		Channel:    ChannelEmail,
		Email:      email,
	}
	if err := r.Validate(); err != nil {
		return AlertRule{}, err
	}
	return r, nil
}

// NewWebhookRule creates a rule that notifies via HTTP POST to a URL.
func NewWebhookRule(owner string, st SensorType, threshold float64, url string) (AlertRule, error) {
	r := AlertRule{
		ID:         uuid.New().String(),
		Owner:      owner,
		SensorType: st,
		Threshold:  threshold,
		Channel:    ChannelWebhook,
		URL:        url,
	}
	if err := r.Validate(); err != nil {
		return AlertRule{}, err
	}
	return r, nil
}

// Validate enforces the tagged-union invariant: the sensor type is
// known and exactly the payload for the tagged channel is populated.
func (r AlertRule) Validate() error {
	if !r.SensorType.IsValid() {
		return ErrInvalidSensorType
	}

	switch r.Channel {
	case ChannelEmail:
		if r.Email == "" {
			return ErrEmptyEmail
		}
		if r.URL != "" {
			return ErrChannelMismatch
		}
	case ChannelWebhook:
		if r.URL == "" {
			return ErrEmptyURL
		}
		if r.Email != "" {
			return ErrChannelMismatch
		}
	default:
		return ErrInvalidChannel
	}
	return nil
}

// Target returns the channel destination: the address for email rules,
// the URL for webhook rules.
func (r AlertRule) Target() string {
	if r.Channel == ChannelEmail {
		return r.Email
	}
	return r.URL
}
