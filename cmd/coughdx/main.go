package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	logAdapter "github.com/ngt-labs/coughdx/internal/adapters/log"
	"github.com/ngt-labs/coughdx/internal/cliconfig"
)

const helpDescription = `
Record a cough, send it to the diagnosis server and read the result.

Highlights:
  - Records from the default input device, or replays a WAV file with --input.
  - Uploads one clip per recording as multipart form data (field audio_data).
  - Keeps a per-user history of diagnoses when --user-id is set.
  - Configure via $HOME/.coughdx/config.toml, COUGHDX_* env (or .env), or flags.

The result is for reference only and is not a medical diagnosis.
`

var exampleUsage = strings.TrimSpace(`
  coughdx record
  coughdx record --input cough.wav --server-url http://10.0.0.5:5000
  coughdx submit recordings/*.wav
  coughdx watch ~/Recordings --user-id alice
  coughdx history list --user-id alice -o yaml
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli carries the resolved configuration to subcommands.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string
	log     zerolog.Logger
}

func newCLI() *cli {
	return &cli{
		cfg: cliconfig.DefaultConfig(),
		log: logAdapter.NewConsoleLogger(os.Stderr, "info"),
	}
}

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	c := newCLI()
	if err := newRootCmd(c).Execute(); err != nil {
		c.log.Error().Err(err).Msg("coughdx")
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "coughdx",
		Short:         "Cough recording and diagnosis client",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig(cmd)
		},
	}

	cfg := &c.cfg
	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.coughdx/config.toml)")
	pf.StringVar(&cfg.ServerURL, "server-url", cfg.ServerURL, "diagnosis server base URL")
	pf.StringVar(&cfg.UploadPath, "upload-path", cfg.UploadPath, "upload endpoint path")
	pf.StringVar(&cfg.Theme, "theme", cfg.Theme, "theme value sent with each upload")
	pf.DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout for one upload")
	pf.StringVar(&cfg.UserID, "user-id", cfg.UserID, "user whose diagnoses are archived")
	pf.StringVar(&cfg.HistoryDir, "history-dir", cfg.HistoryDir, "history database directory (default: $HOME/.coughdx/history)")
	pf.StringVar(&cfg.S3Bucket, "s3-bucket", cfg.S3Bucket, "bucket for archived clips (optional)")
	pf.StringVar(&cfg.S3Prefix, "s3-prefix", cfg.S3Prefix, "key prefix for archived clips")
	pf.StringVar(&cfg.S3Region, "s3-region", cfg.S3Region, "bucket region")
	pf.StringVar(&cfg.S3Endpoint, "s3-endpoint", cfg.S3Endpoint, "S3-compatible endpoint (MinIO, R2)")
	pf.StringVar(&cfg.PublicBaseURL, "public-base-url", cfg.PublicBaseURL, "public URL prefix of archived clips")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&cfg.TempDir, "temp-dir", cfg.TempDir, "spool directory for clip encoding")

	root.AddCommand(
		newRecordCmd(c),
		newSubmitCmd(c),
		newWatchCmd(c),
		newHistoryCmd(c),
	)

	return root
}

// loadConfig resolves flags > env > file > defaults.
func (c *cli) loadConfig(cmd *cobra.Command) error {
	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	// Build set of changed flags
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&c.cfg, fc, changed); err != nil {
			return err
		}
	}

	// Apply environment variables (COUGHDX_*)
	// These override file config but are overridden by flags (checked via changed map)
	if err := cliconfig.ApplyEnvConfig(&c.cfg, changed); err != nil {
		return err
	}

	if err := c.cfg.Validate(); err != nil {
		return err
	}

	c.log = logAdapter.NewConsoleLogger(os.Stderr, c.cfg.LogLevel)
	c.log.Debug().Interface("config", c.cfg).Msg("configuration")
	return nil
}
