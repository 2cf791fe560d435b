package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"tpms-gateway/internal/utils"
)

type Config struct {
	AppEnv          string
	LogLevel        slog.Level
	MQTTBroker      string
	MQTTPort        int
	MQTTClientID    string
	MQTTTopicPrefix string
	TelemetryFormat string

	BLEAdapter    string
	BLELocalName  string
	BLECompanyID  uint16
	BLEDataPrefix []byte

	TPMSMAC          string
	TPMSStationID    string
	TPMSStaleTimeout time.Duration
	HealthInterval   time.Duration
}

// LoadFromEnv reads the configuration from the environment. If CONFIG_FILE
// names a YAML file, its entries (keyed by variable name) fill in any
// variable that is unset or blank in the environment.
func LoadFromEnv() (Config, error) {
	file := map[string]string{}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		var err error
		file, err = loadFile(path)
		if err != nil {
			return Config{}, err
		}
	}
	get := func(key string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		return strings.TrimSpace(file[key])
	}

	appEnv := get("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := get("LOG_LEVEL")
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	mqttBroker := get("MQTT_BROKER")
	if mqttBroker == "" {
		mqttBroker = "localhost"
	}

	mqttPortStr := get("MQTT_PORT")
	if mqttPortStr == "" {
		mqttPortStr = "1883"
	}
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}
	if mqttPort <= 0 || mqttPort > 65535 {
		return Config{}, fmt.Errorf("MQTT_PORT out of range: %d", mqttPort)
	}

	mqttClientID := get("MQTT_CLIENT_ID")
	if mqttClientID == "" {
		// Unique per process so two gateways on one broker don't kick each other off.
		mqttClientID = "tpms-gateway-" + uuid.NewString()[:8]
	}

	topicPrefix := strings.Trim(get("MQTT_TOPIC_PREFIX"), "/")
	if topicPrefix == "" {
		topicPrefix = "tpms"
	}

	format := strings.ToLower(get("TELEMETRY_FORMAT"))
	if format == "" {
		format = "json"
	}
	switch format {
	case "json", "cbor":
	default:
		return Config{}, fmt.Errorf("invalid TELEMETRY_FORMAT %q (allowed: json, cbor)", format)
	}

	bleAdapter := get("BLE_ADAPTER")
	if bleAdapter == "" {
		bleAdapter = "hci0"
	}

	companyIDStr := get("BLE_COMPANY_ID")
	if companyIDStr == "" {
		companyIDStr = "0"
	}
	companyID, err := strconv.ParseUint(companyIDStr, 0, 16)
	if err != nil {
		return Config{}, fmt.Errorf("invalid BLE_COMPANY_ID %q: %w", companyIDStr, err)
	}

	prefixStr := get("BLE_DATA_PREFIX")
	var dataPrefix []byte
	if prefixStr != "" {
		n := utils.HexDigitCount(prefixStr)
		if n == 0 || n%2 != 0 {
			return Config{}, fmt.Errorf("invalid BLE_DATA_PREFIX %q: want an even number of hex digits", prefixStr)
		}
		dataPrefix = make([]byte, n/2)
		utils.DecodeHexLoose(dataPrefix, prefixStr)
	}

	tpmsMAC := get("TPMS_MAC")
	if tpmsMAC != "" {
		if n := utils.HexDigitCount(tpmsMAC); n != 12 {
			return Config{}, fmt.Errorf("invalid TPMS_MAC %q: %d hex digits, want 12", tpmsMAC, n)
		}
	}

	stationID := get("TPMS_STATION_ID")
	if stationID == "" {
		stationID = "tire"
	}

	staleTimeout, err := parsePositiveDuration("TPMS_STALE_TIMEOUT", get("TPMS_STALE_TIMEOUT"), "60s")
	if err != nil {
		return Config{}, err
	}
	healthInterval, err := parsePositiveDuration("HEALTH_INTERVAL", get("HEALTH_INTERVAL"), "15s")
	if err != nil {
		return Config{}, err
	}

	return Config{
		AppEnv:           appEnv,
		LogLevel:         level,
		MQTTBroker:       mqttBroker,
		MQTTPort:         mqttPort,
		MQTTClientID:     mqttClientID,
		MQTTTopicPrefix:  topicPrefix,
		TelemetryFormat:  format,
		BLEAdapter:       bleAdapter,
		BLELocalName:     get("BLE_LOCAL_NAME"),
		BLECompanyID:     uint16(companyID),
		BLEDataPrefix:    dataPrefix,
		TPMSMAC:          tpmsMAC,
		TPMSStationID:    stationID,
		TPMSStaleTimeout: staleTimeout,
		HealthInterval:   healthInterval,
	}, nil
}

func loadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read CONFIG_FILE: %w", err)
	}
	out := map[string]string{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse CONFIG_FILE %s: %w", path, err)
	}
	return out, nil
}

func parsePositiveDuration(key, s, def string) (time.Duration, error) {
	if s == "" {
		s = def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
