package models

import (
	"errors"
	"fmt"
	"time"
)

// SensorType identifies one of the monitored environmental sensors.
type SensorType string

const (
	SensorTemperature SensorType = "DHT11_Temp"
	SensorHumidity    SensorType = "DHT11_Humidity"
	SensorGas         SensorType = "MQ2"
	SensorCO          SensorType = "MQ2_CO"
)

// AllSensorTypes is the fixed set evaluated in every ingestion cycle.
var AllSensorTypes = []SensorType{
	SensorTemperature,
	SensorHumidity,
	SensorGas,
	SensorCO,
}

// IsValid checks if the sensor type is one of the monitored sensors
func (s SensorType) IsValid() bool {
	switch s {
	case SensorTemperature, SensorHumidity, SensorGas, SensorCO:
		return true
	default:
		return false
	}
}

// Unit returns the display unit for readings of this sensor type.
func (s SensorType) Unit() string {
	switch s {
	case SensorTemperature:
		return "°C"
	case SensorHumidity:
		return "%"
	default:
		return "ppm"
	}
}

// Status classifies a reading against its effective threshold.
type Status string

const (
	StatusNormal   Status = "normal"
	StatusCritical Status = "critical"
)

// Reading is one persisted sensor measurement. It is immutable once
// created; the timestamp is assigned at ingestion.
type Reading struct {
	SensorType SensorType `json:"sensor_type"`
	Value      float64    `json:"value"`
	Unit       string     `json:"unit"`
	Status     Status     `json:"status"`
	Timestamp  time.Time  `json:"timestamp"`
}

// ErrMissingField indicates an incomplete ingestion payload.
var ErrMissingField = errors.New("missing required field")

// Batch is one inbound readings payload from a device. Pointer fields
// distinguish absent values from zero values.
type Batch struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	GasLevel    *float64 `json:"gas_level"`
	COPPM       *float64 `json:"co_ppm"`
}

// Validate checks that all four sensor fields are present.
func (b *Batch) Validate() error {
	for _, f := range []struct {
		name  string
		value *float64
	}{
		{"temperature", b.Temperature},
		{"humidity", b.Humidity},
		{"gas_level", b.GasLevel},
		{"co_ppm", b.COPPM},
	} {
		if f.value == nil {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	return nil
}

// Value returns the batch value for a sensor type. The batch must have
// been validated first.
func (b *Batch) Value(st SensorType) float64 {
	switch st {
	case SensorTemperature:
		return *b.Temperature
	case SensorHumidity:
		return *b.Humidity
	case SensorGas:
		return *b.GasLevel
	case SensorCO:
		return *b.COPPM
	default:
		return 0
	}
}
