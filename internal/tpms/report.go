package tpms

import (
	"fmt"
	"io"
	"log/slog"
)

// Reading is a point-in-time copy of a sensor's decoded state.
type Reading struct {
	MAC           string  `json:"mac" cbor:"mac"`
	MACConfigured bool    `json:"mac_configured" cbor:"mac_configured"`
	Valid         bool    `json:"valid" cbor:"valid"`
	TemperatureC  float64 `json:"temperature_c" cbor:"temperature_c"`
	PressureKPa   float64 `json:"pressure_kpa" cbor:"pressure_kpa"`
	PressureBar   float64 `json:"pressure_bar" cbor:"pressure_bar"`
	PressurePSI   float64 `json:"pressure_psi" cbor:"pressure_psi"`
	VoltageV      float64 `json:"voltage_v" cbor:"voltage_v"`
	AgeMS         int64   `json:"age_ms" cbor:"age_ms"` // -1 before the first decode
	Raw           Raw     `json:"raw" cbor:"raw"`
}

// Snapshot copies the current state into a Reading.
func (s *Sensor) Snapshot() Reading {
	age := int64(-1)
	if d := s.TimeSinceUpdate(); d != MaxAge {
		age = d.Milliseconds()
	}
	return Reading{
		MAC:           s.macStr,
		MACConfigured: s.macConfigured,
		Valid:         s.valid,
		TemperatureC:  s.Temperature(),
		PressureKPa:   s.PressureKPa(),
		PressureBar:   s.PressureBar(),
		PressurePSI:   s.PressurePSI(),
		VoltageV:      s.Voltage(),
		AgeMS:         age,
		Raw:           s.Raw(),
	}
}

// WriteDebug writes a human-readable dump of the sensor to w.
func (s *Sensor) WriteDebug(w io.Writer) error {
	macSet := "No (auto)"
	if s.macConfigured {
		macSet = "Yes"
	}
	valid := "No"
	if s.valid {
		valid = "Yes"
	}
	age := "never"
	if d := s.TimeSinceUpdate(); d != MaxAge {
		age = fmt.Sprintf("%d ms", d.Milliseconds())
	}

	_, err := fmt.Fprintf(w, "=== DJTPMS ===\n"+
		"MAC:      %s\n"+
		"MAC Set:  %s\n"+
		"Valid:    %s\n"+
		"Temp:     %.1f C (%.1f F)\n"+
		"Pressure: %.1f PSI (%.1f kPa, %.2f bar)\n"+
		"Voltage:  %.2f V\n"+
		"Raw:      V=%d T=%d P=%d\n"+
		"Age:      %s\n"+
		"==============\n",
		s.macStr, macSet, valid,
		s.Temperature(), s.TemperatureF(),
		s.PressurePSI(), s.PressureKPa(), s.PressureBar(),
		s.Voltage(),
		s.voltageRaw, s.temperatureRaw, s.pressureRaw,
		age,
	)
	return err
}

// LogValue implements slog.LogValuer.
func (s *Sensor) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("mac", s.macStr),
		slog.Bool("mac_configured", s.macConfigured),
		slog.Bool("valid", s.valid),
	}
	if s.valid {
		attrs = append(attrs,
			slog.Float64("temperature_c", s.Temperature()),
			slog.Float64("pressure_kpa", s.PressureKPa()),
			slog.Float64("voltage_v", s.Voltage()),
			slog.Duration("age", s.TimeSinceUpdate()),
		)
	}
	return slog.GroupValue(attrs...)
}
