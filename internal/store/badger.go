package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadscout/leadscout/internal/model"
)

const (
	taskKeyPrefix    = "task:"
	historyKeyPrefix = "search_history:"
)

// BadgerStore implements Store on an embedded BadgerDB, for deployments
// without an external database.
type BadgerStore struct {
	db *badger.DB
}

// badgerZapLogger adapts zap to the badger.Logger interface.
type badgerZapLogger struct {
	log *zap.SugaredLogger
}

var _ badger.Logger = (*badgerZapLogger)(nil)

func (l *badgerZapLogger) Errorf(msg string, args ...any)   { l.log.Errorf(msg, args...) }
func (l *badgerZapLogger) Warningf(msg string, args ...any) { l.log.Warnf(msg, args...) }
func (l *badgerZapLogger) Infof(msg string, args ...any)    { l.log.Debugf(msg, args...) }
func (l *badgerZapLogger) Debugf(msg string, args ...any)   { l.log.Debugf(msg, args...) }

// NewBadger opens a BadgerDB database at the given directory. An empty path
// opens an in-memory database.
func NewBadger(path string) (*BadgerStore, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = &badgerZapLogger{log: zap.L().Named("badger").Sugar()}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, eris.Wrapf(err, "badger: open %s", path)
	}
	return &BadgerStore{db: db}, nil
}

// Migrate is a no-op; badger has no schema.
func (s *BadgerStore) Migrate(context.Context) error { return nil }

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) SaveTask(_ context.Context, task model.Task) error {
	now := time.Now().UTC()
	task.UpdatedAt = now

	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(taskKeyPrefix + task.ID)

		// Keep the original creation time across status updates.
		if task.CreatedAt.IsZero() {
			task.CreatedAt = now
			if item, err := txn.Get(key); err == nil {
				var prev model.Task
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &prev)
				}); err == nil && !prev.CreatedAt.IsZero() {
					task.CreatedAt = prev.CreatedAt
				}
			}
		}

		data, err := json.Marshal(task)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	return eris.Wrapf(err, "badger: save task %s", task.ID)
}

func (s *BadgerStore) GetTask(_ context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(taskKeyPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &task)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "badger: get task %s", id)
	}
	return &task, nil
}

func (s *BadgerStore) ListTaskIDs(context.Context) ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(taskKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			ids = append(ids, key[len(taskKeyPrefix):])
		}
		return nil
	})
	return ids, eris.Wrap(err, "badger: list tasks")
}

func (s *BadgerStore) GetHistory(_ context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(historyKeyPrefix + key))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "badger: get history %s", key)
	}
	return payload, nil
}

func (s *BadgerStore) PutHistory(_ context.Context, key string, payload []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(historyKeyPrefix+key), payload)
	})
	return eris.Wrapf(err, "badger: put history %s", key)
}
