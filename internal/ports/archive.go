package ports

import (
	"context"
	"io"

	"github.com/ngt-labs/coughdx/internal/domain"
)

// ObjectStore keeps uploaded clips.
type ObjectStore interface {
	// Put stores the object and returns a URL under which it can be fetched.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

// HistoryStore persists diagnosis history per user.
type HistoryStore interface {
	Save(ctx context.Context, rec domain.HistoryRecord) error

	// List returns at most limit records, newest first. limit <= 0 means all.
	List(ctx context.Context, userID string, limit int) ([]domain.HistoryRecord, error)

	// Delete removes one record. Returns domain.ErrRecordNotFound if absent.
	Delete(ctx context.Context, userID, id string) error
}
