package colors

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	cacheFile = "project_colors.json"

	// NoProjectColor is Graphite, used for tasks without a project.
	NoProjectColor = "8"
	paletteSize    = 11
)

type ProjectState struct {
	ColorID  string    `json:"color_id"`
	LastUsed time.Time `json:"last_used"`
}

// ColorCache hands out Google Calendar color IDs per project, recycling the least
// recently used color once the palette is exhausted.
type ColorCache struct {
	Path     string
	Projects map[string]*ProjectState `json:"projects"`
	dirty    bool
	now      func() time.Time
}

// NewColorCache loads the cache kept in dir. A missing file yields an empty cache.
func NewColorCache(dir string) (*ColorCache, error) {
	cache := &ColorCache{
		Path:     filepath.Join(dir, cacheFile),
		Projects: make(map[string]*ProjectState),
		now:      time.Now,
	}
	b, err := os.ReadFile(cache.Path)
	if os.IsNotExist(err) {
		return cache, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, &cache.Projects); err != nil {
		return nil, fmt.Errorf("decode color cache %s: %w", cache.Path, err)
	}
	return cache, nil
}

// Save writes the cache when an assignment or touch happened since the last save.
func (c *ColorCache) Save() error {
	if !c.dirty {
		return nil
	}
	b, err := json.Marshal(c.Projects)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0700); err != nil {
		log.Printf("Error creating color cache directory: %v", err)
		return err
	}
	tmp := c.Path + ".tmp"
	if err := os.WriteFile(tmp, b, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmp, c.Path); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// GetColorID returns the color ID for a project, assigning one on first use.
func (c *ColorCache) GetColorID(project string) string {
	if project == "" {
		return NoProjectColor
	}
	if state, ok := c.Projects[project]; ok {
		// Touch only; persisted on the next Save.
		state.LastUsed = c.now()
		c.dirty = true
		return state.ColorID
	}
	return c.assignColor(project)
}

func (c *ColorCache) assignColor(project string) string {
	used := make(map[string]bool)
	for _, s := range c.Projects {
		used[s.ColorID] = true
	}

	id := ""
	for i := 1; i <= paletteSize; i++ {
		if candidate := strconv.Itoa(i); !used[candidate] && candidate != NoProjectColor {
			id = candidate
			break
		}
	}

	if id == "" {
		var oldest string
		var oldestTime time.Time
		for p, s := range c.Projects {
			if oldest == "" || s.LastUsed.Before(oldestTime) {
				oldest, oldestTime = p, s.LastUsed
			}
		}
		id = c.Projects[oldest].ColorID
		delete(c.Projects, oldest)
	}

	c.Projects[project] = &ProjectState{ColorID: id, LastUsed: c.now()}
	c.dirty = true
	return id
}
