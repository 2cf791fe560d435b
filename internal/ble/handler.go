package ble

import (
	"bytes"
	"log/slog"
	"sync"
	"time"

	"tpms-gateway/internal/mqtt"
	"tpms-gateway/internal/tpms"
	"tpms-gateway/internal/utils"
)

// DJ TPMS sensors repeat the same advertisement many times a second.
const dedupWindow = 10 * time.Second

// Publisher is the part of the MQTT client the handler needs.
type Publisher interface {
	PublishReading(stationID string, telemetry mqtt.Telemetry) error
	PublishStationHealth(health mqtt.StationHealth) error
}

// SensorHandler feeds advertisements into one TPMS decoder and publishes
// what it accepts. The decoder is not goroutine-safe, so every access goes
// through mu: scan callbacks and the health ticker run on different
// goroutines.
type SensorHandler struct {
	publisher Publisher
	stationID string
	logger    *slog.Logger
	now       func() time.Time

	mu            sync.Mutex
	sensor        *tpms.Sensor
	lastPayload   []byte
	lastPublished time.Time
	stale         bool
}

// NewSensorHandler creates a handler around sensor.
func NewSensorHandler(sensor *tpms.Sensor, publisher Publisher, stationID string, logger *slog.Logger) *SensorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SensorHandler{
		publisher: publisher,
		stationID: stationID,
		logger:    logger,
		now:       time.Now,
		sensor:    sensor,
		stale:     true,
	}
}

// HandleMatch decodes one advertisement and publishes the reading unless it
// is a repeat of the previous one inside dedupWindow.
func (h *SensorHandler) HandleMatch(m Match) {
	payload := m.Payload()

	h.mu.Lock()
	if err := h.sensor.Update(payload); err != nil {
		h.mu.Unlock()
		h.logger.Debug("ble: ignore advertisement", "addr", m.Address, "data", utils.BytesToHex(payload), "error", err)
		return
	}
	now := h.now()
	if bytes.Equal(payload, h.lastPayload) && now.Sub(h.lastPublished) < dedupWindow {
		h.mu.Unlock()
		return
	}
	h.lastPayload = payload
	h.lastPublished = now
	reading := h.sensor.Snapshot()
	h.mu.Unlock()

	telemetry := mqtt.Telemetry{
		Timestamp: m.SeenAt,
		Address:   m.Address,
		RSSI:      m.RSSI,
		Reading:   reading,
	}
	if err := h.publisher.PublishReading(h.stationID, telemetry); err != nil {
		h.logger.Warn("ble: failed to publish telemetry", "addr", m.Address, "mac", reading.MAC, "error", err)
		return
	}
	h.logger.Info("ble: tpms reading published",
		"addr", m.Address,
		"mac", reading.MAC,
		"rssi", m.RSSI,
		"T", reading.TemperatureC, "P", reading.PressureKPa, "V", reading.VoltageV,
		"data", utils.BytesToHex(payload),
	)
}

// ReportHealth publishes whether the sensor has been heard from within
// timeout and logs when that state flips.
func (h *SensorHandler) ReportHealth(timeout time.Duration) error {
	h.mu.Lock()
	stale := h.sensor.IsStaleAfter(timeout)
	reading := h.sensor.Snapshot()
	changed := stale != h.stale
	h.stale = stale
	h.mu.Unlock()

	health := mqtt.StationHealth{
		StationID: h.stationID,
		MAC:       reading.MAC,
		AgeMS:     reading.AgeMS,
		Healthy:   !stale,
	}
	if reading.AgeMS >= 0 {
		seen := h.now().Add(-time.Duration(reading.AgeMS) * time.Millisecond)
		health.LastSeen = &seen
	}

	if changed {
		if stale {
			h.logger.Warn("tpms: sensor went stale", "mac", reading.MAC, "age_ms", reading.AgeMS, "timeout", timeout)
		} else {
			h.logger.Info("tpms: sensor is reporting", "mac", reading.MAC)
		}
	}

	return h.publisher.PublishStationHealth(health)
}

// Snapshot returns the current decoder state.
func (h *SensorHandler) Snapshot() tpms.Reading {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sensor.Snapshot()
}
