package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	ServerURL     string `toml:"server_url"`
	UploadPath    string `toml:"upload_path"`
	Theme         string `toml:"theme"`
	HTTPTimeout   string `toml:"http_timeout"`
	SampleRate    int    `toml:"sample_rate"`
	Channels      int    `toml:"channels"`
	ChunkDuration string `toml:"chunk_duration"`
	InputFile     string `toml:"input_file"`
	Realtime      *bool  `toml:"realtime"`
	UserID        string `toml:"user_id"`
	HistoryDir    string `toml:"history_dir"`
	S3Bucket      string `toml:"s3_bucket"`
	S3Prefix      string `toml:"s3_prefix"`
	S3Region      string `toml:"s3_region"`
	S3Endpoint    string `toml:"s3_endpoint"`
	PublicBaseURL string `toml:"public_base_url"`
	LogLevel      string `toml:"log_level"`
	TempDir       string `toml:"temp_dir"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.coughdx/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".coughdx", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("server-url", fc.ServerURL, &cfg.ServerURL)
	s.setString("upload-path", fc.UploadPath, &cfg.UploadPath)
	s.setString("theme", fc.Theme, &cfg.Theme)
	s.setString("input", fc.InputFile, &cfg.InputFile)
	s.setString("user-id", fc.UserID, &cfg.UserID)
	s.setString("history-dir", fc.HistoryDir, &cfg.HistoryDir)
	s.setString("s3-bucket", fc.S3Bucket, &cfg.S3Bucket)
	s.setString("s3-prefix", fc.S3Prefix, &cfg.S3Prefix)
	s.setString("s3-region", fc.S3Region, &cfg.S3Region)
	s.setString("s3-endpoint", fc.S3Endpoint, &cfg.S3Endpoint)
	s.setString("public-base-url", fc.PublicBaseURL, &cfg.PublicBaseURL)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("temp-dir", fc.TempDir, &cfg.TempDir)

	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("chunk", fc.ChunkDuration, &cfg.ChunkDuration); err != nil {
		return err
	}

	s.setInt("sample-rate", fc.SampleRate, &cfg.SampleRate)
	s.setInt("channels", fc.Channels, &cfg.Channels)

	s.setBool("realtime", fc.Realtime, &cfg.Realtime)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
