package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validation errors.
var (
	ErrMissingAccountID = errors.New("account_id is required")
	ErrMissingEndpoint  = errors.New("endpoint.url is required")
)

// Config is the root gateway configuration.
type Config struct {
	// AccountID identifies the supervised account; used for log correlation.
	AccountID string `yaml:"account_id"`

	Endpoint EndpointConfig `yaml:"endpoint"`
	Connect  ConnectConfig  `yaml:"connect"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// EndpointConfig holds push-service transport settings.
type EndpointConfig struct {
	// URL is the websocket endpoint (ws:// or wss://).
	URL string `yaml:"url"`

	// Token is the bearer token sent during the handshake.
	Token string `yaml:"token"`

	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	PingTimeout      time.Duration `yaml:"ping_timeout"`

	// MessageBuffer is the inbound message channel capacity.
	MessageBuffer int `yaml:"message_buffer"`
}

// ConnectConfig holds the supervision budgets and backoff schedule.
type ConnectConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`

	// Jitter is the backoff jitter fraction in [0, 1]. A pointer so that
	// an explicit zero (deterministic backoff) is distinguishable from an
	// unset value.
	Jitter *float64 `yaml:"jitter"`

	// MaxReconnectCycles bounds runtime recovery. Zero means unbounded.
	MaxReconnectCycles int `yaml:"max_reconnect_cycles"`
}

// JitterValue returns the configured jitter, or the default when unset.
func (c ConnectConfig) JitterValue() float64 {
	if c.Jitter == nil {
		return defaultJitter
	}
	return *c.Jitter
}

// MonitorConfig holds liveness monitoring settings.
type MonitorConfig struct {
	CheckInterval time.Duration `yaml:"check_interval"`
	GracePeriod   time.Duration `yaml:"grace_period"`
}

// LoggingConfig holds operational and event logging settings.
type LoggingConfig struct {
	// Level is the slog level: debug, info, warn, error.
	Level string `yaml:"level"`

	// EventLog is the CBOR supervision-event log path; empty disables it.
	EventLog string `yaml:"event_log"`
}

// Defaults applied by applyDefaults.
const (
	defaultMaxAttempts      = 5
	defaultInitialDelay     = 1 * time.Second
	defaultMaxDelay         = 60 * time.Second
	defaultJitter           = 0.25
	defaultCheckInterval    = 5 * time.Second
	defaultGracePeriod      = 3 * time.Second
	defaultHandshakeTimeout = 10 * time.Second
	defaultPingTimeout      = 30 * time.Second
	defaultMessageBuffer    = 256
	defaultLogLevel         = "info"
)

// applyDefaults fills unset fields with defaults.
func (c *Config) applyDefaults() {
	if c.Connect.MaxAttempts == 0 {
		c.Connect.MaxAttempts = defaultMaxAttempts
	}
	if c.Connect.InitialDelay == 0 {
		c.Connect.InitialDelay = defaultInitialDelay
	}
	if c.Connect.MaxDelay == 0 {
		c.Connect.MaxDelay = defaultMaxDelay
	}
	if c.Monitor.CheckInterval == 0 {
		c.Monitor.CheckInterval = defaultCheckInterval
	}
	if c.Monitor.GracePeriod == 0 {
		c.Monitor.GracePeriod = c.Monitor.CheckInterval * 3 / 5
	}
	if c.Endpoint.HandshakeTimeout == 0 {
		c.Endpoint.HandshakeTimeout = defaultHandshakeTimeout
	}
	if c.Endpoint.PingTimeout == 0 {
		c.Endpoint.PingTimeout = defaultPingTimeout
	}
	if c.Endpoint.MessageBuffer == 0 {
		c.Endpoint.MessageBuffer = defaultMessageBuffer
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.AccountID == "" {
		return ErrMissingAccountID
	}
	if c.Endpoint.URL == "" {
		return ErrMissingEndpoint
	}
	if !strings.HasPrefix(c.Endpoint.URL, "ws://") && !strings.HasPrefix(c.Endpoint.URL, "wss://") {
		return fmt.Errorf("endpoint.url must be a ws:// or wss:// URL, got %q", c.Endpoint.URL)
	}

	if c.Connect.MaxAttempts < 1 {
		return fmt.Errorf("connect.max_attempts must be >= 1, got %d", c.Connect.MaxAttempts)
	}
	if c.Connect.MaxReconnectCycles < 0 {
		return fmt.Errorf("connect.max_reconnect_cycles must be >= 0, got %d", c.Connect.MaxReconnectCycles)
	}
	if j := c.Connect.JitterValue(); j < 0 || j > 1 {
		return fmt.Errorf("connect.jitter must be in [0, 1], got %g", j)
	}
	if c.Connect.InitialDelay < 0 || c.Connect.MaxDelay < 0 {
		return fmt.Errorf("connect delays must be >= 0")
	}
	if c.Connect.MaxDelay < c.Connect.InitialDelay {
		return fmt.Errorf("connect.max_delay (%v) must be >= connect.initial_delay (%v)",
			c.Connect.MaxDelay, c.Connect.InitialDelay)
	}

	if c.Monitor.CheckInterval <= 0 {
		return fmt.Errorf("monitor.check_interval must be > 0, got %v", c.Monitor.CheckInterval)
	}
	// The grace window must sit strictly between half an interval and a
	// full interval so the first check after connecting never triggers
	// recovery but the second always can.
	if g, i := c.Monitor.GracePeriod, c.Monitor.CheckInterval; g <= i/2 || g >= i {
		return fmt.Errorf("monitor.grace_period (%v) must be strictly between half and one check_interval (%v)", g, i)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}

	return nil
}
