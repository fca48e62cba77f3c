// Package store persists task lifecycle state and the resolved-query
// history cache behind a single key-value style interface with pluggable
// backends.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/leadscout/leadscout/internal/model"
)

// ErrTaskNotFound is returned by GetTask for an unknown task ID.
var ErrTaskNotFound = eris.New("store: task not found")

// Store is the persistence contract for tasks and search history.
// Semantics are last-writer-wins per key: SaveTask upserts by task ID and
// PutHistory overwrites the full entry for its key, never appends.
type Store interface {
	// Tasks
	SaveTask(ctx context.Context, task model.Task) error
	GetTask(ctx context.Context, id string) (*model.Task, error)
	ListTaskIDs(ctx context.Context) ([]string, error)

	// Search history. GetHistory returns (nil, nil) on a miss.
	GetHistory(ctx context.Context, key string) ([]byte, error)
	PutHistory(ctx context.Context, key string, payload []byte) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
