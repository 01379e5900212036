package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ngt-labs/coughdx/internal/domain"
	"github.com/ngt-labs/coughdx/internal/ports"
)

const historyPrefix = "history/"

// BadgerOptions configures the history database.
type BadgerOptions struct {
	// Dir is the directory for BadgerDB data files. Required unless InMemory.
	Dir string

	// InMemory runs BadgerDB without disk persistence.
	InMemory bool

	// Logger receives badger warnings and errors. Nil silences badger.
	Logger ports.Logger
}

// BadgerHistory is a ports.HistoryStore backed by BadgerDB. Records are
// msgpack-encoded under history/<user>/<created-nanos>-<id> so a prefix scan
// returns them in creation order.
type BadgerHistory struct {
	db *badger.DB
}

var _ ports.HistoryStore = (*BadgerHistory)(nil)

// OpenBadgerHistory opens or creates the history database.
func OpenBadgerHistory(opts BadgerOptions) (*BadgerHistory, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("storage: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	dbOpts = dbOpts.WithLogger(badgerLogger{opts.Logger})

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("storage: open history: %w", err)
	}
	return &BadgerHistory{db: db}, nil
}

// ErrInvalidUserID is returned for user IDs that would escape their key range.
var ErrInvalidUserID = errors.New("storage: user id must be non-empty and must not contain /")

func checkUser(userID string) error {
	if userID == "" || strings.Contains(userID, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidUserID, userID)
	}
	return nil
}

// keyTimeWidth is the width of the zero-padded creation time in a record key.
const keyTimeWidth = 20

func userPrefix(userID string) []byte {
	return []byte(historyPrefix + userID + "/")
}

func recordKey(rec domain.HistoryRecord) []byte {
	return []byte(fmt.Sprintf("%s%s/%0*d-%s", historyPrefix, rec.UserID, keyTimeWidth, rec.CreatedAt.UnixNano(), rec.ID))
}

func (h *BadgerHistory) Save(_ context.Context, rec domain.HistoryRecord) error {
	if rec.UserID == "" || rec.ID == "" {
		return errors.New("storage: history record needs a user and an id")
	}
	if err := checkUser(rec.UserID); err != nil {
		return err
	}
	val, err := msgpack.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("storage: encode record: %w", err)
	}
	return h.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(rec), val)
	})
}

func (h *BadgerHistory) List(_ context.Context, userID string, limit int) ([]domain.HistoryRecord, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	prefix := userPrefix(userID)
	var out []domain.HistoryRecord

	err := h.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		iterOpts.Reverse = true
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		// Reverse iteration starts at the last key not greater than the seek key.
		seek := append(append([]byte{}, prefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var rec domain.HistoryRecord
			if err := msgpack.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("storage: decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, rec)
			if limit > 0 && len(out) >= limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (h *BadgerHistory) Delete(_ context.Context, userID, id string) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	prefix := userPrefix(userID)

	return h.db.Update(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		iterOpts.PrefetchValues = false
		it := txn.NewIterator(iterOpts)

		var key []byte
		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			// Tail is <created-nanos>-<id>; the id must match whole.
			tail := it.Item().Key()[len(prefix):]
			if len(tail) > keyTimeWidth && tail[keyTimeWidth] == '-' && string(tail[keyTimeWidth+1:]) == id {
				key = it.Item().KeyCopy(nil)
				break
			}
		}
		it.Close()

		if key == nil {
			return fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
		}
		return txn.Delete(key)
	})
}

// Close releases the database.
func (h *BadgerHistory) Close() error {
	return h.db.Close()
}

// badgerLogger forwards badger warnings and errors to a ports.Logger.
type badgerLogger struct {
	l ports.Logger
}

func (b badgerLogger) Errorf(f string, v ...interface{}) {
	if b.l != nil {
		b.l.Error(strings.TrimSpace(fmt.Sprintf(f, v...)), ports.String("component", "badger"))
	}
}

func (b badgerLogger) Warningf(f string, v ...interface{}) {
	if b.l != nil {
		b.l.Warn(strings.TrimSpace(fmt.Sprintf(f, v...)), ports.String("component", "badger"))
	}
}

func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}
