// Package units provides shared constants and conversions for lengths and speeds.
//
// Trajectory positions are held in centimetres internally and converted to
// metres once before any measurement reads them. Everything that crosses a
// public interface is in metres and seconds.
package units

import "strings"

// Length conversion factors.
const (
	MToCM = 100.0
	CMToM = 1.0 / MToCM
)

// Speed unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// ValidUnits contains all valid speed unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// ConvertSpeed converts a speed from meters per second to the target units.
// Unknown units fall back to m/s.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * 2.2369362920544
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

// SpeedLabel returns the column label used in reports for the given unit.
func SpeedLabel(targetUnits string) string {
	switch targetUnits {
	case MPH:
		return "mph"
	case KMPH, KPH:
		return "km / h"
	default:
		return "m / s"
	}
}

// MetersToCentimeters converts a length in metres to the internal unit.
func MetersToCentimeters(m float64) float64 {
	return m * MToCM
}

// CentimetersToMeters converts an internal length to metres.
func CentimetersToMeters(cm float64) float64 {
	return cm * CMToM
}
