// Package tracker is the application state layer: it owns the task collection, applies
// start/stop transitions and hands snapshots to the aggregation and export packages.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harrisonrobin/tempo/pkg/model"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrAmbiguousTask = errors.New("task reference is ambiguous")
	ErrEmptyTitle    = errors.New("task title is empty")
)

// Repository persists the whole collection. *storage.Repository satisfies it.
type Repository interface {
	LoadTasks(ctx context.Context) []model.Task
	SaveTasks(ctx context.Context, tasks []model.Task) error
	ClearTasks(ctx context.Context) error
}

type Tracker struct {
	repo  Repository
	tasks []model.Task
}

// New loads the persisted collection from repo.
func New(ctx context.Context, repo Repository) *Tracker {
	tasks := repo.LoadTasks(ctx)
	for i := range tasks {
		if tasks[i].Activity == nil {
			tasks[i].Activity = model.Idle{}
		}
	}
	return &Tracker{repo: repo, tasks: tasks}
}

// Tasks returns a deep copy of the collection, safe to hand to readers.
func (t *Tracker) Tasks() []model.Task {
	out := make([]model.Task, len(t.tasks))
	for i, task := range t.tasks {
		out[i] = task.Clone()
	}
	return out
}

// Add creates an idle task with a fresh ID.
func (t *Tracker) Add(title, project, typ, link string) (model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Task{}, ErrEmptyTitle
	}
	task := model.Task{
		ID:       uuid.NewString(),
		Title:    title,
		Project:  strings.TrimSpace(project),
		Type:     strings.TrimSpace(typ),
		Link:     strings.TrimSpace(link),
		Activity: model.Idle{},
	}
	t.tasks = append(t.tasks, task)
	return task.Clone(), nil
}

// Import appends tasks whose IDs are not already tracked and reports how many were added.
func (t *Tracker) Import(tasks []model.Task) int {
	seen := make(map[string]bool, len(t.tasks))
	for _, task := range t.tasks {
		seen[task.ID] = true
	}
	added := 0
	for _, task := range tasks {
		if task.ID == "" {
			task.ID = uuid.NewString()
		}
		if seen[task.ID] {
			continue
		}
		if task.Activity == nil {
			task.Activity = model.Idle{}
		}
		seen[task.ID] = true
		t.tasks = append(t.tasks, task.Clone())
		added++
	}
	return added
}

// index resolves a full ID or a unique ID prefix.
func (t *Tracker) index(ref string) (int, error) {
	found := -1
	for i, task := range t.tasks {
		if task.ID == ref {
			return i, nil
		}
		if ref != "" && strings.HasPrefix(task.ID, ref) {
			if found >= 0 {
				return -1, fmt.Errorf("%q: %w", ref, ErrAmbiguousTask)
			}
			found = i
		}
	}
	if found < 0 {
		return -1, fmt.Errorf("%q: %w", ref, ErrTaskNotFound)
	}
	return found, nil
}

func (t *Tracker) Get(ref string) (model.Task, error) {
	i, err := t.index(ref)
	if err != nil {
		return model.Task{}, err
	}
	return t.tasks[i].Clone(), nil
}

func (t *Tracker) Remove(ref string) error {
	i, err := t.index(ref)
	if err != nil {
		return err
	}
	t.tasks = append(t.tasks[:i], t.tasks[i+1:]...)
	return nil
}

func (t *Tracker) Start(ref string, now time.Time) error {
	i, err := t.index(ref)
	if err != nil {
		return err
	}
	return t.tasks[i].Start(now.UnixMilli())
}

// Stop closes the task's running interval and returns the new log.
func (t *Tracker) Stop(ref string, now time.Time) (model.Log, error) {
	i, err := t.index(ref)
	if err != nil {
		return model.Log{}, err
	}
	return t.tasks[i].Stop(now.UnixMilli())
}

// Running returns the tasks that currently hold a running interval.
func (t *Tracker) Running() []model.Task {
	var out []model.Task
	for _, task := range t.tasks {
		if task.IsRunning() {
			out = append(out, task.Clone())
		}
	}
	return out
}

// Projects returns the distinct non-empty project tags, sorted.
func (t *Tracker) Projects() []string {
	return uniq(t.tasks, func(task model.Task) string { return task.Project })
}

// Types returns the distinct non-empty type tags, sorted.
func (t *Tracker) Types() []string {
	return uniq(t.tasks, func(task model.Task) string { return task.Type })
}

func uniq(tasks []model.Task, field func(model.Task) string) []string {
	set := make(map[string]struct{})
	for _, task := range tasks {
		if v := field(task); v != "" {
			set[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (t *Tracker) Save(ctx context.Context) error {
	return t.repo.SaveTasks(ctx, t.tasks)
}

// Clear drops every task, in memory and in the repository.
func (t *Tracker) Clear(ctx context.Context) error {
	if err := t.repo.ClearTasks(ctx); err != nil {
		return err
	}
	t.tasks = nil
	return nil
}
