package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tpms-gateway/internal/config"
	"tpms-gateway/internal/tpms"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var ErrNotConnected = errors.New("mqtt client not connected")

const publishTimeout = 5 * time.Second

type Client struct {
	client    mqtt.Client
	cfg       config.Config
	logger    *slog.Logger
	encoder   Encoder
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// Telemetry is one decoded tire reading as published on
// <prefix>/<station>/telemetry.
type Telemetry struct {
	StationID string    `json:"station_id" cbor:"station_id"`
	Timestamp time.Time `json:"timestamp" cbor:"timestamp"`
	Address   string    `json:"addr,omitempty" cbor:"addr,omitempty"`
	RSSI      int16     `json:"rssi,omitempty" cbor:"rssi,omitempty"`
	tpms.Reading
}

// StationHealth is the retained freshness state published on
// <prefix>/<station>/health.
type StationHealth struct {
	StationID string     `json:"station_id" cbor:"station_id"`
	MAC       string     `json:"mac,omitempty" cbor:"mac,omitempty"`
	LastSeen  *time.Time `json:"last_seen,omitempty" cbor:"last_seen,omitempty"`
	AgeMS     int64      `json:"age_ms" cbor:"age_ms"`
	Healthy   bool       `json:"healthy" cbor:"healthy"`
}

func NewClient(cfg config.Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	enc, err := NewEncoder(cfg.TelemetryFormat)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:     cfg,
		logger:  logger,
		encoder: enc,
		stopCh:  make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)

	// Session settings
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	// Keepalive / timeouts
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// A gateway that disappears leaves an unhealthy marker behind.
	will, err := enc.Marshal(StationHealth{StationID: cfg.TPMSStationID, AgeMS: -1})
	if err != nil {
		return nil, fmt.Errorf("marshal will: %w", err)
	}
	opts.SetBinaryWill(c.topic(cfg.TPMSStationID, "health"), will, 1, true)

	// Callbacks keep internal state accurate
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		c.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	c.client = mqtt.NewClient(opts)
	return c, nil
}

// Connect establishes connection to the MQTT broker.
// This function waits for the initial connection, and respects ctx and Disconnect().
func (c *Client) Connect(ctx context.Context) error {
	// Fail fast if already stopped.
	select {
	case <-c.stopCh:
		return fmt.Errorf("client stopped")
	default:
	}

	// Fast path.
	if c.IsConnected() {
		return nil
	}

	// Start connect attempt. With ConnectRetry(true), it may keep retrying internally.
	token := c.client.Connect()

	// Wait in a ctx/stop-aware loop.
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			// OnConnectHandler sets connected=true.
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			return fmt.Errorf("client stopped")
		default:
		}
	}
}

// PublishReading publishes a decoded reading to the station telemetry topic.
func (c *Client) PublishReading(stationID string, telemetry Telemetry) error {
	telemetry.StationID = stationID
	if telemetry.Timestamp.IsZero() {
		telemetry.Timestamp = time.Now()
	}
	topic := c.topic(stationID, "telemetry")
	if err := c.publish(topic, false, telemetry); err != nil {
		return fmt.Errorf("publish telemetry: %w", err)
	}

	c.logger.Debug("published telemetry", "topic", topic, "station_id", stationID, "format", c.encoder.Format())
	return nil
}

// PublishStationHealth publishes the retained freshness state of the sensor.
func (c *Client) PublishStationHealth(health StationHealth) error {
	topic := c.topic(health.StationID, "health")
	if err := c.publish(topic, true, health); err != nil {
		return fmt.Errorf("publish health: %w", err)
	}

	c.logger.Debug("published station health",
		"topic", topic,
		"station_id", health.StationID,
		"age_ms", health.AgeMS,
		"healthy", health.Healthy,
	)
	return nil
}

func (c *Client) publish(topic string, retained bool, v any) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	data, err := c.encoder.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", c.encoder.Format(), err)
	}

	token := c.client.Publish(topic, 1, retained, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		c.logger.Error("mqtt publish failed", "topic", topic, "error", err)
		return err
	}
	return nil
}

func (c *Client) topic(stationID, kind string) string {
	return fmt.Sprintf("%s/%s/%s", c.cfg.MQTTTopicPrefix, stationID, kind)
}

// IsConnected returns whether the client is connected.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()
	return connected && c.client.IsConnected()
}

// Disconnect stops the client and closes the MQTT connection.
// Idempotent and safe to call multiple times.
// After Disconnect, Connect() will return "client stopped".
func (c *Client) Disconnect() {
	// Signal shutdown once (unblocks any Connect loops).
	c.stopOnce.Do(func() { close(c.stopCh) })

	// Paho Disconnect quiesces in-flight work for the given ms.
	if c.client != nil {
		c.client.Disconnect(250)
	}

	c.setConnected(false)
	c.logger.Info("mqtt disconnected")
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}
