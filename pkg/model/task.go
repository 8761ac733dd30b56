package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrAlreadyRunning = errors.New("task is already running")
	ErrNotRunning     = errors.New("task is not running")
	ErrClockSkew      = errors.New("stop time precedes running start")
)

// Log is a closed interval of tracked time. Timestamps are milliseconds since the Unix epoch.
type Log struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
	// Ms is a precomputed duration. Legacy records may carry it without a reliable End.
	Ms *int64 `json:"ms,omitempty"`
}

// Duration returns the log length in ms, preferring the precomputed value.
func (l Log) Duration() int64 {
	if l.Ms != nil {
		return *l.Ms
	}
	return max(0, l.End-l.Start)
}

// Activity is either Idle or Running.
type Activity interface {
	activity()
}

type Idle struct{}

// Running is an open interval; its end is whatever "now" the caller supplies.
type Running struct {
	Start int64 `json:"start"`
}

func (Idle) activity()    {}
func (Running) activity() {}

// Task represents a tracked unit of work.
type Task struct {
	ID       string
	Title    string
	Project  string
	Type     string
	Link     string
	Logs     []Log
	Activity Activity
}

// IsRunning reports whether the task holds a running interval.
func (t *Task) IsRunning() bool {
	_, ok := t.Activity.(Running)
	return ok
}

// RunningSince returns the running start and true, or 0 and false when idle.
func (t *Task) RunningSince() (int64, bool) {
	r, ok := t.Activity.(Running)
	return r.Start, ok
}

// Start moves an idle task into the running state at now (ms).
func (t *Task) Start(now int64) error {
	if t.IsRunning() {
		return fmt.Errorf("start %s: %w", t.ID, ErrAlreadyRunning)
	}
	t.Activity = Running{Start: now}
	return nil
}

// Stop closes the running interval at now (ms) and appends it as a Log.
func (t *Task) Stop(now int64) (Log, error) {
	start, ok := t.RunningSince()
	if !ok {
		return Log{}, fmt.Errorf("stop %s: %w", t.ID, ErrNotRunning)
	}
	if now < start {
		return Log{}, fmt.Errorf("stop %s: %w", t.ID, ErrClockSkew)
	}
	ms := now - start
	l := Log{Start: start, End: now, Ms: &ms}
	t.Logs = append(t.Logs, l)
	t.Activity = Idle{}
	return l, nil
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	c := t
	c.Logs = make([]Log, len(t.Logs))
	for i, l := range t.Logs {
		c.Logs[i] = l
		if l.Ms != nil {
			ms := *l.Ms
			c.Logs[i].Ms = &ms
		}
	}
	return c
}

// taskJSON is the persisted record shape, shared with legacy exports.
type taskJSON struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Project string   `json:"project,omitempty"`
	Type    string   `json:"type,omitempty"`
	Link    string   `json:"link,omitempty"`
	Logs    []Log    `json:"logs"`
	Running *Running `json:"running"`
}

// MarshalJSON implements the json.Marshaler interface for Task.
func (t Task) MarshalJSON() ([]byte, error) {
	rec := taskJSON{
		ID:      t.ID,
		Title:   t.Title,
		Project: t.Project,
		Type:    t.Type,
		Link:    t.Link,
		Logs:    t.Logs,
	}
	if rec.Logs == nil {
		rec.Logs = []Log{}
	}
	if start, ok := t.RunningSince(); ok {
		rec.Running = &Running{Start: start}
	}
	return json.Marshal(rec)
}

// UnmarshalJSON implements the json.Unmarshaler interface for Task.
// A missing or null "running" field decodes as Idle.
func (t *Task) UnmarshalJSON(b []byte) error {
	var rec taskJSON
	if err := json.Unmarshal(b, &rec); err != nil {
		return fmt.Errorf("failed to decode task: %w", err)
	}
	*t = Task{
		ID:       rec.ID,
		Title:    rec.Title,
		Project:  rec.Project,
		Type:     rec.Type,
		Link:     rec.Link,
		Logs:     rec.Logs,
		Activity: Idle{},
	}
	if rec.Running != nil {
		t.Activity = *rec.Running
	}
	return nil
}
