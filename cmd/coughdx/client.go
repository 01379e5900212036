package main

import (
	"fmt"

	logAdapter "github.com/ngt-labs/coughdx/internal/adapters/log"
	"github.com/ngt-labs/coughdx/internal/adapters/storage"
	"github.com/ngt-labs/coughdx/internal/ports"
	"github.com/ngt-labs/coughdx/pkg/coughdx"
)

func (c *cli) logger() ports.Logger {
	return logAdapter.NewZerologAdapterWithLogger(c.log)
}

func (c *cli) openHistory() (*storage.BadgerHistory, error) {
	h, err := storage.OpenBadgerHistory(storage.BadgerOptions{
		Dir:    c.cfg.HistoryDir,
		Logger: c.logger(),
	})
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", c.cfg.HistoryDir, err)
	}
	return h, nil
}

// newClient builds a library client from the resolved configuration. The
// returned close function releases the history database.
func (c *cli) newClient(view coughdx.View, extra ...coughdx.Option) (*coughdx.Client, func(), error) {
	cfg := c.cfg
	opts := []coughdx.Option{
		coughdx.WithLogger(c.logger()),
		coughdx.WithView(view),
	}
	closeFn := func() {}

	if cfg.UserID != "" {
		if cfg.S3Bucket != "" {
			client := storage.NewS3Client(storage.S3Options{Region: cfg.S3Region, Endpoint: cfg.S3Endpoint})
			opts = append(opts, coughdx.WithObjectStore(storage.NewS3(client, cfg.S3Bucket, cfg.PublicBaseURL)))
		}
		history, err := c.openHistory()
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, coughdx.WithHistoryStore(history))
		closeFn = func() {
			if err := history.Close(); err != nil {
				c.log.Warn().Err(err).Msg("close history")
			}
		}
	}

	client, err := coughdx.New(coughdx.Config{
		ServerURL:     cfg.ServerURL,
		UploadPath:    cfg.UploadPath,
		Theme:         cfg.Theme,
		HTTPTimeout:   cfg.HTTPTimeout,
		SampleRate:    cfg.SampleRate,
		Channels:      cfg.Channels,
		ChunkDuration: cfg.ChunkDuration,
		InputFile:     cfg.InputFile,
		Realtime:      cfg.Realtime,
		UserID:        cfg.UserID,
		S3Prefix:      cfg.S3Prefix,
		TempDir:       cfg.TempDir,
	}, append(opts, extra...)...)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("create client: %w", err)
	}
	return client, closeFn, nil
}
