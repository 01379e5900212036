package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ngt-labs/coughdx/internal/domain"
)

// DefaultServerURL is the diagnosis server of a local development setup.
const DefaultServerURL = "http://localhost:5000"

// DefaultUploadPath is the upload endpoint on the diagnosis server.
const DefaultUploadPath = "/upload_audio"

// Config holds CLI configuration for coughdx.
type Config struct {
	ServerURL   string
	UploadPath  string
	Theme       string
	HTTPTimeout time.Duration

	SampleRate    int
	Channels      int
	ChunkDuration time.Duration
	InputFile     string
	Realtime      bool

	UserID        string
	HistoryDir    string
	S3Bucket      string
	S3Prefix      string
	S3Region      string
	S3Endpoint    string
	PublicBaseURL string

	LogLevel string
	TempDir  string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ServerURL:     DefaultServerURL,
		UploadPath:    DefaultUploadPath,
		Theme:         "default",
		HTTPTimeout:   60 * time.Second,
		SampleRate:    domain.DefaultFormat.SampleRate,
		Channels:      domain.DefaultFormat.Channels,
		ChunkDuration: 250 * time.Millisecond,
		Realtime:      true,
		S3Prefix:      "cough_audio",
		LogLevel:      "info",
		HistoryDir:    "", // Derived during Validate
	}
}

// DefaultHistoryDir returns ~/.coughdx/history if the home directory is
// accessible.
func DefaultHistoryDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".coughdx", "history")
	}
	return ""
}

// Format returns the capture format the configuration asks for.
func (c *Config) Format() domain.AudioFormat {
	return domain.AudioFormat{SampleRate: c.SampleRate, Channels: c.Channels}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}
	// Ensure no trailing slash
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")

	if c.UploadPath == "" {
		c.UploadPath = DefaultUploadPath
	}
	if !strings.HasPrefix(c.UploadPath, "/") {
		return fmt.Errorf("%w: upload path %q must start with /", domain.ErrInvalidConfig, c.UploadPath)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("%w: http timeout must be positive", domain.ErrInvalidConfig)
	}
	if c.ChunkDuration <= 0 {
		return fmt.Errorf("%w: chunk duration must be positive", domain.ErrInvalidConfig)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive", domain.ErrInvalidConfig)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("%w: channels must be 1 or 2, got %d", domain.ErrInvalidConfig, c.Channels)
	}

	if strings.Contains(c.UserID, "/") {
		return fmt.Errorf("%w: user id %q must not contain /", domain.ErrInvalidConfig, c.UserID)
	}

	if c.HistoryDir == "" {
		c.HistoryDir = DefaultHistoryDir()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
