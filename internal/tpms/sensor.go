// Package tpms decodes DJ TPMS Bluetooth advertisements and keeps the last
// reading of a single tire sensor together with its identity and age.
//
// A Sensor is not safe for concurrent use; callers that share one between
// goroutines must serialize access themselves.
package tpms

import (
	"errors"
	"fmt"

	"tpms-gateway/internal/utils"
)

// Packet layout, relative to the start of the trailing 12-byte region:
//
//	[0]     voltage, tenths of a volt
//	[1]     temperature, degrees Celsius
//	[2:4]   pressure, big-endian, kPa + PressureOffset
//	[4:6]   reserved
//	[6:12]  sensor MAC
//
// Anything in front of that region (framing, company ID) is ignored.
const (
	MinPacketLen = 12
	MaxPacketLen = 255

	offVoltage     = 0
	offTemperature = 1
	offPressure    = 2
	offMAC         = 6
)

var (
	ErrEmptyMAC    = errors.New("tpms: empty MAC")
	ErrInvalidMAC  = errors.New("tpms: invalid MAC")
	ErrShortPacket = errors.New("tpms: packet too short")
	ErrMACMismatch = errors.New("tpms: MAC mismatch")
)

// Sensor is the decoded state of one DJ TPMS sensor.
type Sensor struct {
	clock Clock

	mac           MAC
	macStr        string
	macStrRaw     string
	macConfigured bool
	macLearned    bool

	temperatureRaw uint8
	voltageRaw     uint8
	pressureRaw    uint16
	flags          uint8

	lastUpdate uint32 // Clock.Millis at the last decode, 0 = never
	valid      bool
}

type Option func(*Sensor)

// WithClock replaces the default monotonic clock.
func WithClock(c Clock) Option {
	return func(s *Sensor) {
		if c != nil {
			s.clock = c
		}
	}
}

// New returns a sensor in the reset state: no MAC, no reading, stale.
func New(opts ...Option) *Sensor {
	s := &Sensor{clock: NewMonotonicClock()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reset returns the sensor to its zero state. The clock is kept.
func (s *Sensor) Reset() {
	*s = Sensor{clock: s.clock}
}

// setMAC keeps the formatted strings in sync with s.mac. Every assignment
// of a real address goes through it; ClearMAC blanks all three at once.
func (s *Sensor) setMAC(m MAC) {
	s.mac = m
	s.macStr = m.String()
	s.macStrRaw = m.Raw()
}

// SetMAC binds the sensor to m. Packets from any other address are rejected
// from now on.
func (s *Sensor) SetMAC(m MAC) {
	s.setMAC(m)
	s.macConfigured = true
}

// SetMACString parses text (12 hex digits, separators allowed) and binds the
// sensor to it. An empty string clears the binding and returns ErrEmptyMAC.
// Any other parse failure leaves the sensor untouched.
func (s *Sensor) SetMACString(text string) error {
	m, err := ParseMAC(text)
	if err != nil {
		if errors.Is(err, ErrEmptyMAC) {
			s.ClearMAC()
		}
		return err
	}
	s.SetMAC(m)
	return nil
}

// ClearMAC forgets the bound MAC and puts the sensor back into learning
// mode. Readings and the valid flag are kept.
func (s *Sensor) ClearMAC() {
	s.mac = MAC{}
	s.macStr, s.macStrRaw = "", ""
	s.macConfigured = false
	s.macLearned = false
}

// Update decodes one advertisement payload. On any error the sensor is left
// exactly as it was.
func (s *Sensor) Update(data []byte) error {
	if len(data) < MinPacketLen {
		return fmt.Errorf("%w: %d bytes, want at least %d", ErrShortPacket, len(data), MinPacketLen)
	}

	region := data[len(data)-MinPacketLen:]
	var pktMAC MAC
	copy(pktMAC[:], region[offMAC:])

	// Once a MAC is configured or learned, the sensor is locked to it.
	if s.bound() && pktMAC != s.mac {
		return fmt.Errorf("%w: got %s, bound to %s", ErrMACMismatch, pktMAC, s.mac)
	}

	s.voltageRaw = region[offVoltage]
	s.temperatureRaw = region[offTemperature]
	s.pressureRaw = uint16(region[offPressure])<<8 | uint16(region[offPressure+1])

	if !s.bound() {
		s.setMAC(pktMAC)
		s.macLearned = true
	}

	s.lastUpdate = s.clock.Millis()
	s.valid = true
	return nil
}

// UpdateHex decodes a payload given as hex text. Characters that are not hex
// digits are skipped, so "0A 1B-2C..." is accepted.
func (s *Sensor) UpdateHex(text string) error {
	digits := utils.HexDigitCount(text)
	if digits < MinPacketLen*2 {
		return fmt.Errorf("%w: %d hex digits, want at least %d", ErrShortPacket, digits, MinPacketLen*2)
	}

	var buf [MaxPacketLen]byte
	dst := buf[:]
	if n := digits / 2; n > len(buf) {
		dst = make([]byte, n)
	}
	n := utils.DecodeHexLoose(dst, text)
	return s.Update(dst[:n])
}

func (s *Sensor) bound() bool {
	return s.macConfigured || s.macLearned
}

// MAC returns the bound or learned address; zero if there is none.
func (s *Sensor) MAC() MAC { return s.mac }

// MACString returns the colon-separated MAC, or "" when none is bound.
func (s *Sensor) MACString() string { return s.macStr }

// MACStringRaw returns the compact hex MAC, or "" when none is bound.
func (s *Sensor) MACStringRaw() string { return s.macStrRaw }

// MACConfigured reports whether the MAC was set explicitly rather than
// learned from a packet.
func (s *Sensor) MACConfigured() bool { return s.macConfigured }

// Valid reports whether at least one packet has been decoded since the last
// reset.
func (s *Sensor) Valid() bool { return s.valid }

// Raw holds the undecoded fields of the last accepted packet.
type Raw struct {
	Voltage     uint8  `json:"voltage" cbor:"voltage"`
	Temperature uint8  `json:"temperature" cbor:"temperature"`
	Pressure    uint16 `json:"pressure" cbor:"pressure"`
	Flags       uint8  `json:"flags" cbor:"flags"`
}

func (s *Sensor) Raw() Raw {
	return Raw{
		Voltage:     s.voltageRaw,
		Temperature: s.temperatureRaw,
		Pressure:    s.pressureRaw,
		Flags:       s.flags,
	}
}
