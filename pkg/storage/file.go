package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/harrisonrobin/tempo/pkg/model"
)

// LegacyKey names the flat key the first releases stored tasks under.
const LegacyKey = "time-tracker.v1"

// legacyEnvelope is the on-disk shape of the legacy store.
type legacyEnvelope struct {
	Tasks json.RawMessage `json:"tasks"`
}

// FileStore is the legacy flat store: one JSON file holding {"tasks": [...]}.
type FileStore struct {
	Path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (f *FileStore) Name() string { return "legacy" }

func (f *FileStore) Save(_ context.Context, tasks []model.Task) error {
	b, err := encodeTasks(tasks)
	if err != nil {
		return err
	}
	data, err := json.Marshal(legacyEnvelope{Tasks: b})
	if err != nil {
		return fmt.Errorf("failed to encode legacy envelope: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create legacy store directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write legacy store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write legacy store: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("failed to replace legacy store %s: %w", f.Path, err)
	}
	return nil
}

func (f *FileStore) Load(_ context.Context) ([]model.Task, error) {
	f.mu.Lock()
	data, err := os.ReadFile(f.Path)
	f.mu.Unlock()
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy store %s: %w", f.Path, err)
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}

	var env legacyEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode legacy store: %w", err)
	}
	var tasks []model.Task
	if err := json.Unmarshal(env.Tasks, &tasks); err != nil || tasks == nil {
		// Anything other than an array under "tasks" counts as absent.
		return nil, ErrNotFound
	}
	return tasks, nil
}

func (f *FileStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove legacy store %s: %w", f.Path, err)
	}
	return nil
}
