package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/yanqian/smart-irrigation/internal/domain/telemetry"
)

const (
	// DefaultTopic matches irrigation/<deviceId>/telemetry.
	DefaultTopic   = "irrigation/+/telemetry"
	connectTimeout = 10 * time.Second
	ingestTimeout  = 5 * time.Second
	qosAtLeastOnce = 1
)

// Config controls the broker connection.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
}

// Ingester accepts device readings.
type Ingester interface {
	Ingest(ctx context.Context, creds telemetry.Credentials, req telemetry.ReadingRequest) (telemetry.Reading, error)
}

// Subscriber forwards MQTT sensor payloads to the telemetry service.
type Subscriber struct {
	cfg      Config
	ingester Ingester
	logger   *slog.Logger
	client   paho.Client
}

// NewSubscriber constructs a subscriber; Start connects it.
func NewSubscriber(cfg Config, ingester Ingester, logger *slog.Logger) *Subscriber {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "smart-irrigation"
	}
	return &Subscriber{
		cfg:      cfg,
		ingester: ingester,
		logger:   logger.With("component", "mqtt.subscriber"),
	}
}

// Start connects to the broker and subscribes. Subscriptions are restored after reconnects.
func (s *Subscriber) Start(ctx context.Context) error {
	if strings.TrimSpace(s.cfg.Broker) == "" {
		return errors.New("mqtt broker is required")
	}
	opts := paho.NewClientOptions().
		AddBroker(s.cfg.Broker).
		SetClientID(s.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(func(c paho.Client) {
			token := c.Subscribe(s.cfg.Topic, qosAtLeastOnce, s.onMessage)
			if token.WaitTimeout(connectTimeout) && token.Error() != nil {
				s.logger.Error("mqtt subscribe failed", "topic", s.cfg.Topic, "error", token.Error())
				return
			}
			s.logger.Info("mqtt subscribed", "topic", s.cfg.Topic)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			s.logger.Warn("mqtt connection lost", "error", err)
		})
	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username)
		opts.SetPassword(s.cfg.Password)
	}

	s.client = paho.NewClient(opts)
	token := s.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// Stop disconnects from the broker.
func (s *Subscriber) Stop() {
	if s.client == nil {
		return
	}
	s.client.Disconnect(250)
	s.logger.Info("mqtt disconnected")
}

func (s *Subscriber) onMessage(_ paho.Client, msg paho.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()
	if err := s.HandleMessage(ctx, msg.Topic(), msg.Payload()); err != nil {
		s.logger.Warn("mqtt reading rejected", "topic", msg.Topic(), "error", err)
	}
}

// HandleMessage decodes one payload and ingests it. The topic names the device.
func (s *Subscriber) HandleMessage(ctx context.Context, topic string, payload []byte) error {
	deviceID, err := deviceFromTopic(topic)
	if err != nil {
		return err
	}
	var req telemetry.ReadingRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if req.DeviceID != "" && req.DeviceID != deviceID {
		return fmt.Errorf("payload device %q does not match topic device %q", req.DeviceID, deviceID)
	}
	req.DeviceID = deviceID
	reading, err := s.ingester.Ingest(ctx, telemetry.Credentials{DeviceID: deviceID, APIKey: req.APIKey}, req)
	if err != nil {
		return err
	}
	s.logger.Debug("mqtt reading stored", "device_id", deviceID, "reading_id", reading.ID)
	return nil
}

func deviceFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "irrigation" || parts[2] != "telemetry" || parts[1] == "" {
		return "", fmt.Errorf("unexpected topic %q", topic)
	}
	return parts[1], nil
}
