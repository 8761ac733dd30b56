package taskwarrior

import (
	"fmt"
	"strings"
	"time"
)

// Task statuses as exported by Taskwarrior.
const (
	PENDING   = "pending"
	COMPLETED = "completed"
	WAITING   = "waiting"
	DELETED   = "deleted"
)

// timeLayout is the compact UTC form Taskwarrior uses in JSON export.
const timeLayout = "20060102T150405Z"

// CustomTime decodes Taskwarrior's compact timestamps. Empty values decode to the zero time.
type CustomTime struct {
	time.Time
}

func (ct *CustomTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "0" {
		ct.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return fmt.Errorf("invalid taskwarrior time %q: %w", s, err)
	}
	ct.Time = t
	return nil
}

func (ct CustomTime) MarshalJSON() ([]byte, error) {
	if ct.Time.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + ct.Time.UTC().Format(timeLayout) + `"`), nil
}

// Annotation is a timestamped note on a task.
type Annotation struct {
	Description string      `json:"description"`
	Entry       *CustomTime `json:"entry,omitempty"`
}

// Task holds the exported fields tempo reads. Unknown fields are dropped, so the hook echoes
// tasks through RawTask rather than this struct.
type Task struct {
	UUID        string       `json:"uuid"`
	Description string       `json:"description"`
	Status      string       `json:"status"`
	Project     string       `json:"project,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
	Start       *CustomTime  `json:"start,omitempty"`
	End         *CustomTime  `json:"end,omitempty"`
	// act is a duration UDA in ISO 8601 form (PT1H30M).
	Act string `json:"act,omitempty"`
}
