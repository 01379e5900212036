package app

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/ngt-labs/coughdx/internal/domain"
	"github.com/ngt-labs/coughdx/internal/ports"
)

// Archiver hands a (userID, audioURL, result) triple to the optional
// history collaborators.
type Archiver struct {
	userID  string
	prefix  string
	objects ports.ObjectStore
	history ports.HistoryStore
	logger  ports.Logger

	now   func() time.Time
	newID func() string
}

// NewArchiver creates an archiver. Either store may be nil.
func NewArchiver(userID, prefix string, objects ports.ObjectStore, history ports.HistoryStore, logger ports.Logger) *Archiver {
	return &Archiver{
		userID:  userID,
		prefix:  prefix,
		objects: objects,
		history: history,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Archive stores the clip and records the diagnosis. It is a no-op without
// a user or without a diagnosis in resp.
func (a *Archiver) Archive(ctx context.Context, blob domain.Blob, resp domain.UploadResponse) error {
	if a.userID == "" || resp.Diagnosis == nil {
		return nil
	}
	id := a.newID()

	audioURL := resp.Filename
	if a.objects != nil {
		key := path.Join(a.prefix, a.userID, id+".wav")
		url, err := a.objects.Put(ctx, key, bytes.NewReader(blob.Data), int64(blob.Size()), blob.ContentType)
		if err != nil {
			return fmt.Errorf("store clip: %w", err)
		}
		audioURL = url
	}

	if a.history == nil {
		return nil
	}
	rec := domain.HistoryRecord{
		ID:        id,
		UserID:    a.userID,
		AudioURL:  audioURL,
		Result:    *resp.Diagnosis,
		CreatedAt: a.now().UTC(),
	}
	if err := a.history.Save(ctx, rec); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	a.logger.Debug("diagnosis archived",
		ports.String("record", id),
		ports.String("audio_url", audioURL),
	)
	return nil
}
