package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/capture-protocol/capture-go/pkg/discovery"
	"github.com/capture-protocol/capture-go/pkg/remote"
	"github.com/capture-protocol/capture-go/pkg/session"
	"github.com/capture-protocol/capture-go/pkg/sim"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

// File is the root of a configuration file.
type File struct {
	Session SessionConfig `yaml:"session"`
	Remote  RemoteConfig  `yaml:"remote"`
	Service ServiceConfig `yaml:"service"`
	Log     LogConfig     `yaml:"log"`
}

// SessionConfig holds the application identity and session timing.
type SessionConfig struct {
	AppID            string        `yaml:"app_id"`
	DeveloperID      string        `yaml:"developer_id"`
	AppKey           string        `yaml:"app_key"`
	PlaceholderLabel string        `yaml:"placeholder_label"`
	ReceiveTimeout   time.Duration `yaml:"receive_timeout"`
	ReceiveInterval  time.Duration `yaml:"receive_interval"`
}

// RemoteConfig selects the capture service the console talks to.
// An empty Address with Discover unset runs an in-process simulator.
type RemoteConfig struct {
	Address        string        `yaml:"address"`
	Discover       bool          `yaml:"discover"`
	BrowseTimeout  time.Duration `yaml:"browse_timeout"`
	Interface      string        `yaml:"interface"`
	ConnectRetries int           `yaml:"connect_retries"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// ServiceConfig configures the simulated capture service.
type ServiceConfig struct {
	Listen           string `yaml:"listen"`
	WebSocket        bool   `yaml:"websocket"`
	Advertise        bool   `yaml:"advertise"`
	Name             string `yaml:"name"`
	Interface        string `yaml:"interface"`
	ConfirmationMode string `yaml:"confirmation_mode"`
}

// LogConfig controls operational and protocol logging.
type LogConfig struct {
	Level        string `yaml:"level"`
	ProtocolFile string `yaml:"protocol_file"`
}

// Default returns the configuration used when no file is given.
func Default() *File {
	sc := session.DefaultConfig()
	return &File{
		Session: SessionConfig{
			AppID:           "capture-console",
			ReceiveTimeout:  sc.ReceiveTimeout,
			ReceiveInterval: sc.ReceiveInterval,
		},
		Remote: RemoteConfig{
			BrowseTimeout:  discovery.BrowseTimeout,
			ConnectRetries: 3,
			RequestTimeout: 5 * time.Second,
		},
		Service: ServiceConfig{
			Listen:           fmt.Sprintf(":%d", discovery.DefaultPort),
			Advertise:        true,
			Name:             "Capture Simulator",
			ConfirmationMode: wire.ConfirmationModeApp.String(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path yields the defaults
// with overrides applied.
func Load(path string) (*File, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML data over the defaults and validates the result.
func Parse(data []byte) (*File, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv adds the variables in a .env file at path to the environment
// so Load picks up CAPTURE_* overrides from it. Variables already set are
// kept. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// applyEnvOverrides applies CAPTURE_* environment variables.
func applyEnvOverrides(cfg *File) {
	if v := os.Getenv("CAPTURE_APP_ID"); v != "" {
		cfg.Session.AppID = v
	}
	if v := os.Getenv("CAPTURE_ADDRESS"); v != "" {
		cfg.Remote.Address = v
	}
	if v := os.Getenv("CAPTURE_DISCOVER"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Remote.Discover = b
		}
	}
	if v := os.Getenv("CAPTURE_LISTEN"); v != "" {
		cfg.Service.Listen = v
	}
	if v := os.Getenv("CAPTURE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CAPTURE_PROTOCOL_LOG"); v != "" {
		cfg.Log.ProtocolFile = v
	}
}

// Validate reports every invalid setting at once.
func (c *File) Validate() error {
	var errs []string

	if c.Session.AppID == "" {
		errs = append(errs, "session.app_id is required")
	}
	if c.Session.ReceiveTimeout < 0 {
		errs = append(errs, "session.receive_timeout must not be negative")
	}
	if c.Session.ReceiveInterval < 0 {
		errs = append(errs, "session.receive_interval must not be negative")
	}

	if c.Remote.Address != "" && c.Remote.Discover {
		errs = append(errs, "remote.address and remote.discover are mutually exclusive")
	}
	if c.Remote.ConnectRetries < 0 {
		errs = append(errs, "remote.connect_retries must not be negative")
	}
	if c.Remote.BrowseTimeout < 0 {
		errs = append(errs, "remote.browse_timeout must not be negative")
	}
	if c.Remote.RequestTimeout < 0 {
		errs = append(errs, "remote.request_timeout must not be negative")
	}

	if c.Service.Listen == "" {
		errs = append(errs, "service.listen is required")
	}
	if c.Service.Advertise && strings.TrimSpace(c.Service.Name) == "" {
		errs = append(errs, "service.name is required when advertising")
	}
	if _, err := ParseConfirmationMode(c.Service.ConfirmationMode); err != nil {
		errs = append(errs, "service.confirmation_mode: "+err.Error())
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, "log.level: "+err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// SessionConfig returns the session.Config described by c. Loggers are
// left for the caller to set.
func (c *File) SessionConfig() session.Config {
	return session.Config{
		AppInfo: wire.AppInfo{
			AppID:       c.Session.AppID,
			DeveloperID: c.Session.DeveloperID,
			AppKey:      c.Session.AppKey,
		},
		PlaceholderLabel: c.Session.PlaceholderLabel,
		ReceiveTimeout:   c.Session.ReceiveTimeout,
		ReceiveInterval:  c.Session.ReceiveInterval,
	}
}

// RemoteConfig returns the remote.Config for address.
func (c *File) RemoteConfig(address string) remote.Config {
	rc := remote.DefaultConfig(address)
	rc.Retry.Attempts = c.Remote.ConnectRetries + 1
	if c.Remote.RequestTimeout > 0 {
		rc.RequestTimeout = c.Remote.RequestTimeout
	}
	return rc
}

// SimConfig returns the simulator configuration.
func (c *File) SimConfig() sim.Config {
	sc := sim.DefaultConfig()
	if mode, err := ParseConfirmationMode(c.Service.ConfirmationMode); err == nil {
		sc.ConfirmationMode = mode
	}
	return sc
}

// SlogLevel returns the operational log level.
func (c *File) SlogLevel() slog.Level {
	level, _ := ParseLevel(c.Log.Level)
	return level
}

// ParseConfirmationMode parses a data confirmation mode name.
// An empty name selects the application mode.
func ParseConfirmationMode(s string) (wire.DataConfirmationMode, error) {
	switch strings.ToLower(s) {
	case "", "app":
		return wire.ConfirmationModeApp, nil
	case "off":
		return wire.ConfirmationModeOff, nil
	case "device":
		return wire.ConfirmationModeDevice, nil
	case "capture":
		return wire.ConfirmationModeCapture, nil
	}
	return 0, fmt.Errorf("unknown confirmation mode %q", s)
}

// ParseLevel parses a log level name. An empty name selects info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown level %q", s)
}
