// Package storage persists the task collection behind a single capability interface,
// with a SQLite primary store and a legacy JSON file fallback.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harrisonrobin/tempo/pkg/model"
)

// ErrNotFound is returned by Load when the store holds no task collection.
var ErrNotFound = errors.New("no persisted tasks")

// Store persists and retrieves the whole task collection.
type Store interface {
	// Save replaces the persisted collection.
	Save(ctx context.Context, tasks []model.Task) error

	// Load returns the persisted collection, or ErrNotFound.
	Load(ctx context.Context) ([]model.Task, error)

	// Clear deletes the persisted collection. Clearing an empty store is not an error.
	Clear(ctx context.Context) error

	// Name identifies the backend in log messages.
	Name() string
}

// encodeTasks serializes tasks to a JSON array, never null.
func encodeTasks(tasks []model.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []model.Task{}
	}
	b, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tasks: %w", err)
	}
	return b, nil
}

// plainTasks deep-copies tasks through their JSON form so persisted payloads never alias
// caller state. Tasks that cannot be encoded yield an empty collection.
func plainTasks(tasks []model.Task) []model.Task {
	b, err := encodeTasks(tasks)
	if err != nil {
		return []model.Task{}
	}
	var out []model.Task
	if err := json.Unmarshal(b, &out); err != nil {
		return []model.Task{}
	}
	return out
}
