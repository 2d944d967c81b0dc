// Package util holds small formatting helpers for diagnostics output: an
// SI-prefix value formatter and a pin-voltage printer. AC
// magnitude/phase reporting helpers are not included since frequency-domain
// analysis is out of scope here.
package util

import (
	"fmt"
	"math"
)

// FormatValueFactor renders value with an SI unit prefix scaled to its
// magnitude, e.g. FormatValueFactor(1e-3, "F") -> "1.000 mF".
func FormatValueFactor(value float64, unit string) string {
	absValue := math.Abs(value)
	switch {
	case absValue >= 1:
		return fmt.Sprintf("%.3f %s", value, unit)
	case absValue >= 1e-3:
		return fmt.Sprintf("%.3f m%s", value*1e3, unit)
	case absValue >= 1e-6:
		return fmt.Sprintf("%.3f u%s", value*1e6, unit)
	case absValue >= 1e-9:
		return fmt.Sprintf("%.3f n%s", value*1e9, unit)
	case absValue >= 1e-12:
		return fmt.Sprintf("%.3f p%s", value*1e12, unit)
	default:
		return fmt.Sprintf("%.3e %s", value, unit)
	}
}

// FormatPinVoltage renders a named pin's voltage for console output.
func FormatPinVoltage(name string, volts float64) string {
	return fmt.Sprintf("%s=%s", name, FormatValueFactor(volts, "V"))
}
