package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/harrisonrobin/tempo/pkg/model"
)

// Repository applies the two-tier policy: the primary store first, the fallback only when
// the primary fails. Primary may be nil when probing found it unavailable.
type Repository struct {
	Primary  Store
	Fallback Store
}

// Open probes the SQLite database at dbPath and returns a repository backed by it, with the
// legacy file at legacyPath as fallback. When the database cannot be opened the repository
// runs on the legacy store alone.
func Open(dbPath, legacyPath string) *Repository {
	repo := &Repository{Fallback: NewFileStore(legacyPath)}
	primary, err := NewSQLiteStore(dbPath)
	if err != nil {
		log.Printf("Warning: primary store unavailable, using legacy store only: %v", err)
		return repo
	}
	repo.Primary = primary
	return repo
}

// SaveTasks persists tasks, falling back to the legacy store when the primary fails.
// It returns an error only when every available store failed.
func (r *Repository) SaveTasks(ctx context.Context, tasks []model.Task) error {
	payload := plainTasks(tasks)
	var primaryErr error
	if r.Primary != nil {
		if primaryErr = r.Primary.Save(ctx, payload); primaryErr == nil {
			return nil
		}
		log.Printf("Warning: %s save failed, falling back to %s: %v", r.Primary.Name(), r.Fallback.Name(), primaryErr)
	}
	if err := r.Fallback.Save(ctx, payload); err != nil {
		log.Printf("Warning: %s save failed: %v", r.Fallback.Name(), err)
		return errors.Join(primaryErr, fmt.Errorf("save tasks: %w", err))
	}
	return nil
}

// LoadTasks returns the primary collection, else the legacy one, else an empty collection.
// It never fails.
func (r *Repository) LoadTasks(ctx context.Context) []model.Task {
	if r.Primary != nil {
		tasks, err := r.Primary.Load(ctx)
		if err == nil {
			return tasks
		}
		if !errors.Is(err, ErrNotFound) {
			log.Printf("Warning: %s load failed, trying %s: %v", r.Primary.Name(), r.Fallback.Name(), err)
		}
	}
	tasks, err := r.Fallback.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("Warning: %s load failed: %v", r.Fallback.Name(), err)
		}
		return []model.Task{}
	}
	return tasks
}

// ClearTasks deletes the collection from both stores, so a cleared primary cannot let
// stale legacy data reappear on the next load. It fails only when no store was cleared.
func (r *Repository) ClearTasks(ctx context.Context) error {
	var primaryErr error
	if r.Primary != nil {
		if primaryErr = r.Primary.Clear(ctx); primaryErr != nil {
			log.Printf("Warning: %s clear failed, trying %s: %v", r.Primary.Name(), r.Fallback.Name(), primaryErr)
		}
	}
	fallbackErr := r.Fallback.Clear(ctx)
	if fallbackErr == nil || (r.Primary != nil && primaryErr == nil) {
		if fallbackErr != nil {
			log.Printf("Warning: %s clear failed: %v", r.Fallback.Name(), fallbackErr)
		}
		return nil
	}
	return errors.Join(primaryErr, fmt.Errorf("clear tasks: %w", fallbackErr))
}

// Close releases the primary store if it holds resources.
func (r *Repository) Close() error {
	if c, ok := r.Primary.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
