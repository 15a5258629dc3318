// Package units converts the SI values produced by the comparison pipeline
// into display units.
package units

import (
	"fmt"
	"strings"
)

// Speed unit names.
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
	// KT is knots, the usual airspeed unit.
	KT = "kt"
	// FPM is feet per minute, the usual climb-rate unit.
	FPM = "fpm"
)

// Length unit names.
const (
	Meters = "m"
	Feet   = "ft"
)

// MetersToFeet is the factor applied to every altitude shown in feet.
const MetersToFeet = 3.28084

// ValidUnits contains all valid speed unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH, KT, FPM}

// ValidLengthUnits contains all valid length unit values
var ValidLengthUnits = []string{Meters, Feet}

// IsValid checks if the given unit is in the list of valid speed units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// IsValidLength checks if the given unit is a valid length unit
func IsValidLength(unit string) bool {
	return unit == Meters || unit == Feet
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// ConvertSpeed converts a speed from meters per second to the target units.
// Unknown units leave the value in m/s.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * 2.2369362920544
	case KMPH, KPH:
		return speedMPS * 3.6
	case KT:
		return speedMPS * 1.9438444924406
	case FPM:
		return speedMPS * MetersToFeet * 60
	default:
		return speedMPS
	}
}

// ConvertLength converts metres to the target length unit.
func ConvertLength(meters float64, targetUnits string) float64 {
	if targetUnits == Feet {
		return meters * MetersToFeet
	}
	return meters
}

// SpeedLabel returns the short label printed next to a speed value.
func SpeedLabel(unit string) string {
	switch unit {
	case MPH:
		return "mph"
	case KMPH, KPH:
		return "km/h"
	case KT:
		return "kt"
	case FPM:
		return "ft/min"
	default:
		return "m/s"
	}
}

// ValidateSpeedUnit returns an error naming the accepted values.
func ValidateSpeedUnit(unit string) error {
	if !IsValid(unit) {
		return fmt.Errorf("invalid speed unit %q (valid: %s)", unit, GetValidUnitsString())
	}
	return nil
}
