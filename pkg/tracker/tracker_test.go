package tracker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/harrisonrobin/tempo/pkg/aggregate"
	"github.com/harrisonrobin/tempo/pkg/model"
	"github.com/harrisonrobin/tempo/pkg/storage"
)

func newTestTracker(t *testing.T) (*Tracker, *storage.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo := storage.Open(filepath.Join(dir, "tasks.db"), filepath.Join(dir, "legacy.json"))
	t.Cleanup(func() { repo.Close() })
	return New(context.Background(), repo), repo
}

func TestAddStartStopPersist(t *testing.T) {
	ctx := context.Background()
	tr, repo := newTestTracker(t)

	task, err := tr.Add("  Write docs ", "tempo", "dev", "")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if task.ID == "" || task.Title != "Write docs" {
		t.Errorf("unexpected task %+v", task)
	}

	start := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	if err := tr.Start(task.ID[:8], start); err != nil {
		t.Fatalf("Start by prefix failed: %v", err)
	}
	if err := tr.Start(task.ID, start); !errors.Is(err, model.ErrAlreadyRunning) {
		t.Errorf("Expected ErrAlreadyRunning, got %v", err)
	}
	if len(tr.Running()) != 1 {
		t.Errorf("Expected 1 running task, got %d", len(tr.Running()))
	}

	l, err := tr.Stop(task.ID, start.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if l.Duration() != 90*60000 {
		t.Errorf("Expected 90m log, got %d", l.Duration())
	}
	if err := tr.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded := New(ctx, repo)
	got, err := reloaded.Get(task.ID)
	if err != nil {
		t.Fatalf("Get after reload failed: %v", err)
	}
	if got.IsRunning() || len(got.Logs) != 1 {
		t.Errorf("unexpected reloaded task %+v", got)
	}
	if total := aggregate.TotalForTaskOnDate(&got, start, start.Add(24*time.Hour)); total != 90*60000 {
		t.Errorf("Expected 90m on the day, got %d", total)
	}
}

func TestTasksReturnsCopies(t *testing.T) {
	tr, _ := newTestTracker(t)
	task, _ := tr.Add("A", "", "", "")
	if err := tr.Start(task.ID, time.Unix(100, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Stop(task.ID, time.Unix(200, 0)); err != nil {
		t.Fatal(err)
	}

	snapshot := tr.Tasks()
	snapshot[0].Logs[0].End = 0
	snapshot[0].Title = "changed"

	again, _ := tr.Get(task.ID)
	if again.Title != "A" || again.Logs[0].End != 200000 {
		t.Errorf("Tasks leaked internal state: %+v", again)
	}
}

func TestResolveErrors(t *testing.T) {
	tr, _ := newTestTracker(t)
	tr.Import([]model.Task{{ID: "abc-1", Title: "one"}, {ID: "abc-2", Title: "two"}})

	if _, err := tr.Get("abc"); !errors.Is(err, ErrAmbiguousTask) {
		t.Errorf("Expected ErrAmbiguousTask, got %v", err)
	}
	if _, err := tr.Get("zzz"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Expected ErrTaskNotFound, got %v", err)
	}
	if _, err := tr.Stop("abc-1", time.Now()); !errors.Is(err, model.ErrNotRunning) {
		t.Errorf("Expected ErrNotRunning, got %v", err)
	}
	if _, err := tr.Add("   ", "", "", ""); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("Expected ErrEmptyTitle, got %v", err)
	}
}

func TestImportSkipsKnownIDs(t *testing.T) {
	tr, _ := newTestTracker(t)
	n := tr.Import([]model.Task{{ID: "x", Title: "first"}, {Title: "no id"}})
	if n != 2 {
		t.Errorf("Expected 2 imported, got %d", n)
	}
	n = tr.Import([]model.Task{{ID: "x", Title: "again"}})
	if n != 0 {
		t.Errorf("Expected duplicate to be skipped, got %d", n)
	}
	if got, _ := tr.Get("x"); got.Title != "first" {
		t.Errorf("Expected original title kept, got %q", got.Title)
	}
}

func TestProjectsAndTypes(t *testing.T) {
	tr, _ := newTestTracker(t)
	tr.Add("a", "web", "bug", "")
	tr.Add("b", "api", "bug", "")
	tr.Add("c", "web", "", "")
	tr.Add("d", "", "feature", "")

	projects := tr.Projects()
	if len(projects) != 2 || projects[0] != "api" || projects[1] != "web" {
		t.Errorf("Expected [api web], got %v", projects)
	}
	types := tr.Types()
	if len(types) != 2 || types[0] != "bug" || types[1] != "feature" {
		t.Errorf("Expected [bug feature], got %v", types)
	}
}

func TestRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	tr, repo := newTestTracker(t)
	a, _ := tr.Add("a", "", "", "")
	tr.Add("b", "", "", "")
	if err := tr.Remove(a.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if len(tr.Tasks()) != 1 {
		t.Errorf("Expected 1 task after remove, got %d", len(tr.Tasks()))
	}
	if err := tr.Save(ctx); err != nil {
		t.Fatal(err)
	}
	if err := tr.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if len(tr.Tasks()) != 0 || len(New(ctx, repo).Tasks()) != 0 {
		t.Error("Expected no tasks after Clear")
	}
}
