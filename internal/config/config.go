package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration for the monitoring service.
type Config struct {
	// HTTP
	HTTPAddr string
	LogLevel string
	// API key guarding mutating endpoints; empty disables the check
	APIKey string

	// Storage backend: memory or clickhouse
	StorageBackend  string
	ReadingCapacity int

	// ClickHouse
	ClickHouseAddr string
	ClickHouseDB   string
	ClickHouseUser string
	ClickHousePass string

	// Mail transport
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPTimeout  time.Duration

	// Notification dispatch
	WebhookTimeout      time.Duration
	DispatchMaxInFlight int

	// Kafka alert-event mirror (disabled when no brokers configured)
	KafkaBrokers    []string
	KafkaAlertTopic string

	// MQTT ingestion source (disabled when no broker configured)
	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string
	MQTTTopic    string

	// Reading retention
	RetentionWindow time.Duration
	PruneInterval   time.Duration
}

// Load reads configuration from the environment, with .env support.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		APIKey:   getEnv("API_KEY", ""),

		StorageBackend:  getEnv("STORAGE_BACKEND", "memory"),
		ReadingCapacity: getEnvInt("READING_CAPACITY", 10000),

		ClickHouseAddr: getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDB:   getEnv("CLICKHOUSE_DB", "schutz"),
		ClickHouseUser: getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePass: getEnv("CLICKHOUSE_PASS", ""),

		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPTimeout:  getEnvDuration("SMTP_TIMEOUT", 10*time.Second),

		WebhookTimeout:      getEnvDuration("WEBHOOK_TIMEOUT", 10*time.Second),
		DispatchMaxInFlight: getEnvInt("DISPATCH_MAX_INFLIGHT", 8),

		KafkaBrokers:    splitAndTrim(os.Getenv("KAFKA_BROKERS"), ","),
		KafkaAlertTopic: getEnv("KAFKA_ALERT_TOPIC", "sensor.alerts"),

		MQTTBroker:   getEnv("MQTT_BROKER", ""),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "schutz-server"),
		MQTTUsername: getEnv("MQTT_USERNAME", ""),
		MQTTPassword: getEnv("MQTT_PASSWORD", ""),
		MQTTTopic:    getEnv("MQTT_TOPIC", "sensor/readings"),

		RetentionWindow: getEnvDuration("RETENTION_WINDOW", 24*time.Hour),
		PruneInterval:   getEnvDuration("PRUNE_INTERVAL", time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as duration, using default: %v", key, err)
		return defaultValue
	}
	return d
}

func splitAndTrim(s, sep string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
