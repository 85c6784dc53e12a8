package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/JaimeStill/warden/pkg/lifecycle"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// MQTTSink republishes events as JSON on <prefix>/<owner>/<kind>.
type MQTTSink struct {
	client mqtt.Client
	prefix string
	qos    byte
	logger *slog.Logger
}

// NewMQTTSink builds a sink from cfg. No connection is made until Start.
func NewMQTTSink(cfg *MQTTConfig, logger *slog.Logger) *MQTTSink {
	s := &MQTTSink{
		prefix: cfg.TopicPrefix,
		qos:    byte(cfg.QoS),
		logger: logger.With("system", "mqtt"),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		s.logger.Info("mqtt connected", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.logger.Warn("mqtt connection lost", "error", err)
	})

	s.client = mqtt.NewClient(opts)
	return s
}

// Start connects on startup and disconnects on shutdown. A failed initial
// connect is logged; paho keeps retrying in the background.
func (s *MQTTSink) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup("mqtt", func(context.Context) error {
		token := s.client.Connect()
		if !token.WaitTimeout(connectTimeout) {
			s.logger.Warn("mqtt connect timed out, retrying in background")
			return nil
		}
		if err := token.Error(); err != nil {
			s.logger.Error("mqtt connect failed", "error", err)
		}
		return nil
	})

	lc.OnShutdown("mqtt", func(context.Context) error {
		s.client.Disconnect(250)
		s.logger.Info("mqtt disconnected")
		return nil
	})

	return nil
}

// Topic returns the topic an event for owner is published on.
func (s *MQTTSink) Topic(owner uuid.UUID, kind Kind) string {
	return fmt.Sprintf("%s/%s/%s", s.prefix, owner, kind)
}

// Emit publishes e without blocking the caller.
func (s *MQTTSink) Emit(owner uuid.UUID, e Event) {
	if !s.client.IsConnectionOpen() {
		return
	}

	payload, err := json.Marshal(e)
	if err != nil {
		s.logger.Error("marshal event failed", "error", err)
		return
	}

	topic := s.Topic(owner, e.Kind)
	token := s.client.Publish(topic, s.qos, false, payload)

	go func() {
		if !token.WaitTimeout(publishTimeout) {
			s.logger.Warn("mqtt publish timed out", "topic", topic)
			return
		}
		if err := token.Error(); err != nil {
			s.logger.Error("mqtt publish failed", "topic", topic, "error", err)
		}
	}()
}
