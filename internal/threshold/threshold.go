// Package threshold resolves effective alert thresholds and classifies
// readings against them. Both functions are pure and total.
package threshold

import "schutz/internal/models"

// Defaults are the compiled-in thresholds applied when no user rule
// matches a sensor type.
var Defaults = map[models.SensorType]float64{
	models.SensorTemperature: 50.0,
	models.SensorHumidity:    80.0,
	models.SensorGas:         400.0,
	models.SensorCO:          100.0,
}

// Resolve computes the effective threshold for a sensor type: the
// tightest (minimum) threshold among matching rules wins, since any
// rule with a looser bound would also fire above it. With no matching
// rules the compiled-in default applies.
func Resolve(rules []models.AlertRule, st models.SensorType) float64 {
	var (
		min   float64
		found bool
	)
	for _, r := range rules {
		if r.SensorType != st {
			continue
		}
		if !found || r.Threshold < min {
			min = r.Threshold
			found = true
		}
	}
	if !found {
		return Defaults[st]
	}
	return min
}

// Classify compares a value against a threshold. A value strictly above
// the threshold is critical; a value equal to it is normal. The excess
// is value-threshold and may be zero or negative for normal readings.
func Classify(value, threshold float64) (models.Status, float64) {
	excess := value - threshold
	if value > threshold {
		return models.StatusCritical, excess
	}
	return models.StatusNormal, excess
}
