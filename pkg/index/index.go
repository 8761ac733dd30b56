// Package index remembers which calendar event mirrors which log, so sync can patch an event
// without searching the calendar for it.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

const indexFile = "events.json"

// EventIndex maps log keys to event IDs. It is safe for concurrent use.
type EventIndex struct {
	path   string
	mu     sync.RWMutex
	events map[string]string
	dirty  bool
}

// NewEventIndex loads the index kept in dir. A missing file yields an empty index.
func NewEventIndex(dir string) (*EventIndex, error) {
	idx := &EventIndex{
		path:   filepath.Join(dir, indexFile),
		events: make(map[string]string),
	}
	b, err := os.ReadFile(idx.path)
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read event index: %w", err)
	}
	if err := json.Unmarshal(b, &idx.events); err != nil {
		return nil, fmt.Errorf("decode event index %s: %w", idx.path, err)
	}
	return idx, nil
}

// Save writes the index when it changed since the last save. The file is replaced atomically.
func (idx *EventIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}

	b, err := json.MarshalIndent(idx.events, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(idx.path), 0700); err != nil {
		return err
	}
	tmp := idx.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0600); err != nil {
		return fmt.Errorf("write event index: %w", err)
	}
	if err := os.Rename(tmp, idx.path); err != nil {
		return fmt.Errorf("replace event index: %w", err)
	}
	idx.dirty = false
	return nil
}

// Get returns the event ID for logKey, or "" when unknown.
func (idx *EventIndex) Get(logKey string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.events[logKey]
}

func (idx *EventIndex) Set(logKey, eventID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.events[logKey] != eventID {
		idx.events[logKey] = eventID
		idx.dirty = true
	}
}

func (idx *EventIndex) Remove(logKey string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, ok := idx.events[logKey]; ok {
		delete(idx.events, logKey)
		idx.dirty = true
	}
}

// Keys returns every indexed log key, sorted.
func (idx *EventIndex) Keys() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	keys := make([]string, 0, len(idx.events))
	for k := range idx.events {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
