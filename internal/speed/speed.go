// Package speed converts a gauge needle angle into a speed reading.
//
// The needle of the reference dial sweeps past its zero-angle wrap point at high
// speed, so the fitted angle jumps from π back to 0. A hysteresis correction
// remembers that the wrap happened and is only cleared once the angle has moved
// clearly back into the high range. Because each reading depends on the
// correction left by the previous one, frames must be mapped in temporal order.
package speed

import "math"

// Calibration holds the constants that relate needle angle to speed.
type Calibration struct {
	// Scale is the speed per degree of needle travel.
	Scale float64

	// Offset is the needle angle, in degrees, that corresponds to zero speed.
	Offset float64

	// WrapCorrection is the correction, in degrees, applied after the needle
	// crosses its zero-angle wrap point.
	WrapCorrection float64

	// ResetAbove is the angle, in radians, above which the correction is cleared.
	ResetAbove float64
}

// DefaultCalibration returns the constants of the reference dial: 315 km/h
// over 225 degrees of travel, with the needle resting at 60 degrees.
func DefaultCalibration() Calibration {
	return Calibration{
		Scale:          1.4,
		Offset:         60,
		WrapCorrection: 180,
		ResetAbove:     3.10669,
	}
}

// Hysteresis is the correction, in degrees, carried from one reading to the next.
type Hysteresis float64

// Step maps theta to a speed given the correction left by the previous reading,
// and returns the correction to carry forward.
//
// An angle of exactly 0 sets the correction to cal.WrapCorrection, an angle above
// cal.ResetAbove clears it, and any other angle keeps it. The speed is
// cal.Scale·((degrees(θ) − cal.Offset) + correction), clamped at 0.
func Step(theta float64, prev Hysteresis, cal Calibration) (float64, Hysteresis) {
	next := prev
	if theta == 0 {
		next = Hysteresis(cal.WrapCorrection)
	} else if theta > cal.ResetAbove {
		next = 0
	}

	degrees := 180 * theta / math.Pi
	speed := cal.Scale * ((degrees - cal.Offset) + float64(next))
	if speed < 0 {
		speed = 0
	}
	return speed, next
}

// Mapper applies Step to successive angles, owning the hysteresis between them.
//
// A Mapper is not safe for concurrent use; readings must be fed in frame order.
type Mapper struct {
	cal        Calibration
	correction Hysteresis
}

// NewMapper creates a Mapper with no correction applied.
func NewMapper(cal Calibration) *Mapper {
	return &Mapper{cal: cal}
}

// Speed maps theta to a speed and updates the stored correction.
func (m *Mapper) Speed(theta float64) float64 {
	speed, next := Step(theta, m.correction, m.cal)
	m.correction = next
	return speed
}

// Correction returns the correction that the next reading will start from.
func (m *Mapper) Correction() Hysteresis {
	return m.correction
}
