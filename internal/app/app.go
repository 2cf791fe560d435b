package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tpms-gateway/internal/ble"
	"tpms-gateway/internal/config"
	"tpms-gateway/internal/mqtt"
	"tpms-gateway/internal/tpms"
)

// NewSensor builds the decoder, bound to cfg.TPMSMAC when one is set.
func NewSensor(cfg config.Config) (*tpms.Sensor, error) {
	sensor := tpms.New()
	if cfg.TPMSMAC != "" {
		if err := sensor.SetMACString(cfg.TPMSMAC); err != nil {
			return nil, fmt.Errorf("TPMS_MAC: %w", err)
		}
	}
	return sensor, nil
}

// ErrUnfilteredLearning is returned when the gateway would learn its MAC
// from whatever device it hears first.
var ErrUnfilteredLearning = errors.New("no TPMS_MAC and no BLE filter: set TPMS_MAC, BLE_COMPANY_ID, BLE_DATA_PREFIX or BLE_LOCAL_NAME")

// CheckIdentity rejects a configuration that would let an unrelated
// advertiser bind the decoder. Without TPMS_MAC the first accepted payload
// fixes the sensor identity, so the scan filter must narrow down the source.
func CheckIdentity(cfg config.Config) error {
	if cfg.TPMSMAC == "" && ListenerOptions(cfg).Filter.IsOpen() {
		return ErrUnfilteredLearning
	}
	return nil
}

// ListenerOptions maps the BLE settings onto scan options. The manufacturer
// data must hold at least the TPMS region minus the two company-ID bytes.
func ListenerOptions(cfg config.Config) ble.Options {
	return ble.Options{
		Adapter: cfg.BLEAdapter,
		Filter: ble.Filter{
			LocalName:            cfg.BLELocalName,
			CompanyID:            cfg.BLECompanyID,
			ManufacturerDataPref: cfg.BLEDataPrefix,
			MinDataLen:           tpms.MinPacketLen - 2,
		},
	}
}

func Run(ctx context.Context, cfg config.Config) error {
	logger := slog.Default()
	logger.Info("initializing gateway",
		"mqtt_broker", cfg.MQTTBroker,
		"mqtt_port", cfg.MQTTPort,
		"mqtt_client_id", cfg.MQTTClientID,
		"station_id", cfg.TPMSStationID,
		"tpms_mac", cfg.TPMSMAC,
	)

	if err := CheckIdentity(cfg); err != nil {
		return err
	}
	sensor, err := NewSensor(cfg)
	if err != nil {
		return err
	}
	if !sensor.MACConfigured() {
		logger.Info("no TPMS_MAC set; binding to the first sensor heard")
	}

	mqttClient, err := mqtt.NewClient(cfg, logger)
	if err != nil {
		return err
	}

	go func() {
		// Connect to MQTT broker with retry and backoff
		if err := mqttClient.Connect(ctx); err != nil {
			logger.Error("mqtt connect failed", "error", err)
		}
	}()
	defer mqttClient.Disconnect()

	handler := ble.NewSensorHandler(sensor, mqttClient, cfg.TPMSStationID, logger)
	listener := ble.NewListener(ListenerOptions(cfg), logger)
	go func() {
		if err := listener.Run(ctx, handler.HandleMatch); err != nil {
			logger.Warn("ble listener could not be initialized; gateway continues without BLE",
				"error", err,
			)
		}
	}()

	runHealth(ctx, handler, cfg.HealthInterval, cfg.TPMSStaleTimeout, logger)

	logger.Info("gateway shutting down")
	return nil
}

type healthReporter interface {
	ReportHealth(timeout time.Duration) error
}

// runHealth reports sensor freshness every interval until ctx is done.
func runHealth(ctx context.Context, r healthReporter, interval, staleTimeout time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.ReportHealth(staleTimeout); err != nil {
				logger.Debug("health report skipped", "error", err)
			}
		}
	}
}
