package app

import (
	"context"
	"sync"
	"time"

	"github.com/ngt-labs/coughdx/internal/domain"
	"github.com/ngt-labs/coughdx/internal/ports"
)

// Submitter performs one upload and turns the reply into an Outcome.
// Diagnoses are handed to the archiver in the background.
type Submitter struct {
	uploader ports.Uploader
	archiver *Archiver
	logger   ports.Logger

	wg sync.WaitGroup
}

// NewSubmitter creates a submitter. archiver may be nil.
func NewSubmitter(uploader ports.Uploader, archiver *Archiver, logger ports.Logger) *Submitter {
	return &Submitter{
		uploader: uploader,
		archiver: archiver,
		logger:   logger,
	}
}

// Submit uploads the blob exactly once.
func (s *Submitter) Submit(ctx context.Context, blob domain.Blob) domain.Outcome {
	start := time.Now()
	resp, err := s.uploader.Upload(ctx, blob)
	if err != nil {
		s.logger.Warn("upload failed",
			ports.Err(err),
			ports.Int("bytes", blob.Size()),
			ports.Duration("took", time.Since(start)),
		)
		return domain.ConnectionFailure()
	}

	outcome := resp.Outcome()
	s.logger.Info("upload complete",
		ports.String("outcome", outcome.Kind.String()),
		ports.String("label", outcome.Label),
		ports.String("confidence", outcome.Confidence),
		ports.Int("bytes", blob.Size()),
		ports.Duration("clip", blob.Duration),
		ports.Duration("took", time.Since(start)),
	)

	if outcome.OK() && s.archiver != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			// Archiving outlives the caller's context so a quit right after the
			// result is shown still persists it; Wait bounds the process exit.
			if err := s.archiver.Archive(context.WithoutCancel(ctx), blob, resp); err != nil {
				s.logger.Warn("archive failed", ports.Err(err))
			}
		}()
	}
	return outcome
}

// Wait blocks until background archiving has finished.
func (s *Submitter) Wait() {
	s.wg.Wait()
}
