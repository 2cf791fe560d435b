package tpms

import (
	"math"
	"time"
)

const (
	// DefaultStaleTimeout is the age after which IsStale reports true.
	DefaultStaleTimeout = 60 * time.Second

	// MaxAge is returned by TimeSinceUpdate before the first decode.
	MaxAge = time.Duration(math.MaxInt64)
)

// TimeSinceUpdate returns the age of the last decoded packet, or MaxAge if
// nothing has been decoded.
func (s *Sensor) TimeSinceUpdate() time.Duration {
	if s.lastUpdate == 0 {
		return MaxAge
	}
	elapsed := s.clock.Millis() - s.lastUpdate
	return time.Duration(elapsed) * time.Millisecond
}

// IsStale is IsStaleAfter(DefaultStaleTimeout).
func (s *Sensor) IsStale() bool {
	return s.IsStaleAfter(DefaultStaleTimeout)
}

// IsStaleAfter reports whether the sensor has no reading or its last reading
// is older than timeout.
func (s *Sensor) IsStaleAfter(timeout time.Duration) bool {
	if !s.valid || s.lastUpdate == 0 {
		return true
	}
	return s.TimeSinceUpdate() > timeout
}
