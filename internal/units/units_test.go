package units

import (
	"math"
	"testing"
)

func TestConvertSpeed(t *testing.T) {
	tests := []struct {
		name     string
		speedMPS float64
		units    string
		expected float64
	}{
		{"10 m/s to mph", 10.0, MPH, 22.3694},
		{"10 m/s to kmph", 10.0, KMPH, 36.0},
		{"10 m/s to kph", 10.0, KPH, 36.0},
		{"10 m/s to mps", 10.0, MPS, 10.0},
		{"unknown units default to mps", 10.0, "unknown", 10.0},
		{"walking speed 1.4 m/s to mph", 1.4, MPH, 3.13172},
		{"walking speed 1.3 m/s to kmph", 1.3, KMPH, 4.68},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertSpeed(tt.speedMPS, tt.units)
			if math.Abs(result-tt.expected) > 0.01 {
				t.Errorf("ConvertSpeed(%f, %s) = %f, want %f", tt.speedMPS, tt.units, result, tt.expected)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		unit     string
		expected bool
	}{
		{MPS, true},
		{MPH, true},
		{KMPH, true},
		{KPH, true},
		{"invalid", false},
		{"", false},
		{"MPH", false},
	}
	for _, tt := range tests {
		if got := IsValid(tt.unit); got != tt.expected {
			t.Errorf("IsValid(%q) = %v, want %v", tt.unit, got, tt.expected)
		}
	}
}

func TestGetValidUnitsString(t *testing.T) {
	if got := GetValidUnitsString(); got != "mps, mph, kmph, kph" {
		t.Errorf("GetValidUnitsString() = %q", got)
	}
}

func TestLengthConversionRoundTrip(t *testing.T) {
	for _, m := range []float64{0, 0.125, 1, 2.5, -3.75} {
		cm := MetersToCentimeters(m)
		if math.Abs(cm-m*100) > 1e-9 {
			t.Errorf("MetersToCentimeters(%v) = %v", m, cm)
		}
		if back := CentimetersToMeters(cm); math.Abs(back-m) > 1e-12 {
			t.Errorf("round trip %v -> %v -> %v", m, cm, back)
		}
	}
}

func TestSpeedLabel(t *testing.T) {
	if SpeedLabel(MPS) != "m / s" || SpeedLabel(KPH) != "km / h" || SpeedLabel(MPH) != "mph" {
		t.Errorf("unexpected speed labels")
	}
}
