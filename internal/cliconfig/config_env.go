package cliconfig

import "os"

// EnvPrefix is prepended to every configuration key in the environment.
const EnvPrefix = "COUGHDX_"

// ApplyEnvConfig applies configuration from environment variables (COUGHDX_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("server-url", os.Getenv(EnvPrefix+"SERVER_URL"), &cfg.ServerURL)
	s.setString("upload-path", os.Getenv(EnvPrefix+"UPLOAD_PATH"), &cfg.UploadPath)
	s.setString("theme", os.Getenv(EnvPrefix+"THEME"), &cfg.Theme)
	s.setString("input", os.Getenv(EnvPrefix+"INPUT_FILE"), &cfg.InputFile)
	s.setString("user-id", os.Getenv(EnvPrefix+"USER_ID"), &cfg.UserID)
	s.setString("history-dir", os.Getenv(EnvPrefix+"HISTORY_DIR"), &cfg.HistoryDir)
	s.setString("s3-bucket", os.Getenv(EnvPrefix+"S3_BUCKET"), &cfg.S3Bucket)
	s.setString("s3-prefix", os.Getenv(EnvPrefix+"S3_PREFIX"), &cfg.S3Prefix)
	s.setString("s3-region", os.Getenv(EnvPrefix+"S3_REGION"), &cfg.S3Region)
	s.setString("s3-endpoint", os.Getenv(EnvPrefix+"S3_ENDPOINT"), &cfg.S3Endpoint)
	s.setString("public-base-url", os.Getenv(EnvPrefix+"PUBLIC_BASE_URL"), &cfg.PublicBaseURL)
	s.setString("log-level", os.Getenv(EnvPrefix+"LOG_LEVEL"), &cfg.LogLevel)
	s.setString("temp-dir", os.Getenv(EnvPrefix+"TEMP_DIR"), &cfg.TempDir)

	if err := s.setDuration("timeout", os.Getenv(EnvPrefix+"HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("chunk", os.Getenv(EnvPrefix+"CHUNK_DURATION"), &cfg.ChunkDuration); err != nil {
		return err
	}

	if err := s.setIntFromString("sample-rate", os.Getenv(EnvPrefix+"SAMPLE_RATE"), &cfg.SampleRate); err != nil {
		return err
	}
	if err := s.setIntFromString("channels", os.Getenv(EnvPrefix+"CHANNELS"), &cfg.Channels); err != nil {
		return err
	}

	s.setBoolFromString("realtime", os.Getenv(EnvPrefix+"REALTIME"), &cfg.Realtime)

	return nil
}
