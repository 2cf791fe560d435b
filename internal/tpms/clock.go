package tpms

import "time"

// Clock is a monotonic millisecond counter. It may wrap around; the sensor
// only ever subtracts two readings with unsigned arithmetic.
type Clock interface {
	Millis() uint32
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() uint32

func (f ClockFunc) Millis() uint32 { return f() }

type monotonicClock struct {
	start time.Time
}

// NewMonotonicClock returns a Clock counting milliseconds since it was
// created, based on Go's monotonic time reading. The counter starts at 1 so
// a decode in the first millisecond is not mistaken for "never updated".
func NewMonotonicClock() Clock {
	return monotonicClock{start: time.Now()}
}

func (c monotonicClock) Millis() uint32 {
	return elapsedMillis(time.Since(c.start))
}

// elapsedMillis maps a duration onto the wrapping counter. 0 is reserved for
// "never updated", so the value that would land on it after a wrap reads 1.
func elapsedMillis(d time.Duration) uint32 {
	ms := uint32(d.Milliseconds()) + 1
	if ms == 0 {
		return 1
	}
	return ms
}
