package broadcast

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds throttle, subscriber and sink settings.
type Config struct {
	ThrottleInterval string     `toml:"throttle_interval"`
	SubscriberBuffer int        `toml:"subscriber_buffer"`
	Heartbeat        string     `toml:"heartbeat"`
	MQTT             MQTTConfig `toml:"mqtt"`
}

// MQTTConfig configures the MQTT sink.
type MQTTConfig struct {
	Enabled     bool   `toml:"enabled"`
	Broker      string `toml:"broker"`
	ClientID    string `toml:"client_id"`
	TopicPrefix string `toml:"topic_prefix"`
	QoS         int    `toml:"qos"`
}

// Env maps config fields to environment variable names.
type Env struct {
	ThrottleInterval string
	SubscriberBuffer string
	Heartbeat        string
	MQTTEnabled      string
	MQTTBroker       string
	MQTTClientID     string
	MQTTTopicPrefix  string
	MQTTQoS          string
}

// ThrottleIntervalDuration returns ThrottleInterval as a time.Duration.
func (c *Config) ThrottleIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.ThrottleInterval)
	return d
}

// HeartbeatDuration returns Heartbeat as a time.Duration.
func (c *Config) HeartbeatDuration() time.Duration {
	d, _ := time.ParseDuration(c.Heartbeat)
	return d
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.ThrottleInterval != "" {
		c.ThrottleInterval = overlay.ThrottleInterval
	}
	if overlay.SubscriberBuffer != 0 {
		c.SubscriberBuffer = overlay.SubscriberBuffer
	}
	if overlay.Heartbeat != "" {
		c.Heartbeat = overlay.Heartbeat
	}
	if overlay.MQTT.Enabled {
		c.MQTT.Enabled = true
	}
	if overlay.MQTT.Broker != "" {
		c.MQTT.Broker = overlay.MQTT.Broker
	}
	if overlay.MQTT.ClientID != "" {
		c.MQTT.ClientID = overlay.MQTT.ClientID
	}
	if overlay.MQTT.TopicPrefix != "" {
		c.MQTT.TopicPrefix = overlay.MQTT.TopicPrefix
	}
	if overlay.MQTT.QoS != 0 {
		c.MQTT.QoS = overlay.MQTT.QoS
	}
}

func (c *Config) loadDefaults() {
	if c.ThrottleInterval == "" {
		c.ThrottleInterval = "500ms"
	}
	if c.SubscriberBuffer == 0 {
		c.SubscriberBuffer = 32
	}
	if c.Heartbeat == "" {
		c.Heartbeat = "15s"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "warden"
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "warden/events"
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := lookup(env.ThrottleInterval); v != "" {
		c.ThrottleInterval = v
	}
	if v := lookup(env.SubscriberBuffer); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SubscriberBuffer = n
		}
	}
	if v := lookup(env.Heartbeat); v != "" {
		c.Heartbeat = v
	}
	if v := lookup(env.MQTTEnabled); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.MQTT.Enabled = b
		}
	}
	if v := lookup(env.MQTTBroker); v != "" {
		c.MQTT.Broker = v
	}
	if v := lookup(env.MQTTClientID); v != "" {
		c.MQTT.ClientID = v
	}
	if v := lookup(env.MQTTTopicPrefix); v != "" {
		c.MQTT.TopicPrefix = v
	}
	if v := lookup(env.MQTTQoS); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MQTT.QoS = n
		}
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ThrottleInterval); err != nil {
		return fmt.Errorf("invalid throttle_interval: %w", err)
	}
	if _, err := time.ParseDuration(c.Heartbeat); err != nil {
		return fmt.Errorf("invalid heartbeat: %w", err)
	}
	if c.SubscriberBuffer < 1 {
		return fmt.Errorf("subscriber_buffer must be positive, got %d", c.SubscriberBuffer)
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt broker required when mqtt is enabled")
	}
	return nil
}

func lookup(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
