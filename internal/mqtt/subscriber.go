// Package mqtt is an optional ingestion source: devices publish the
// same JSON readings batch over MQTT instead of HTTP.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"schutz/internal/ingest"
	"schutz/internal/logger"
	"schutz/internal/metrics"
	"schutz/internal/models"
)

// Config holds MQTT source configuration.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
}

// Subscriber feeds readings batches from an MQTT topic into the
// ingestion coordinator.
type Subscriber struct {
	client      mqtt.Client
	topic       string
	coordinator *ingest.Coordinator
}

// NewSubscriber connects to the broker. Ingestion starts with Start.
func NewSubscriber(cfg Config, coordinator *ingest.Coordinator) (*Subscriber, error) {
	log := logger.WithComponent("mqtt")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt connection lost")
	})
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		log.Info().Str("broker", cfg.Broker).Msg("mqtt connected")
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to mqtt broker: %w", token.Error())
	}

	return &Subscriber{
		client:      client,
		topic:       cfg.Topic,
		coordinator: coordinator,
	}, nil
}

// Start subscribes to the readings topic.
func (s *Subscriber) Start() error {
	token := s.client.Subscribe(s.topic, 1, s.handleMessage)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe to %s: %w", s.topic, token.Error())
	}
	log := logger.WithComponent("mqtt")
	log.Info().Str("topic", s.topic).Msg("subscribed to readings topic")
	return nil
}

// handleMessage decodes one readings batch and runs an ingestion cycle.
func (s *Subscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	log := logger.WithComponent("mqtt")

	var batch models.Batch
	if err := json.Unmarshal(msg.Payload(), &batch); err != nil {
		metrics.MQTTMessagesTotal.WithLabelValues("invalid").Inc()
		log.Error().Err(err).Str("topic", msg.Topic()).Msg("invalid readings payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.coordinator.Ingest(ctx, batch); err != nil {
		metrics.MQTTMessagesTotal.WithLabelValues("failed").Inc()
		log.Error().Err(err).Str("topic", msg.Topic()).Msg("ingestion cycle failed")
		return
	}
	metrics.MQTTMessagesTotal.WithLabelValues("ok").Inc()
}

// Close unsubscribes and disconnects.
func (s *Subscriber) Close() {
	if token := s.client.Unsubscribe(s.topic); token.Wait() && token.Error() != nil {
		log := logger.WithComponent("mqtt")
		log.Warn().Err(token.Error()).Msg("mqtt unsubscribe failed")
	}
	s.client.Disconnect(250)
}
