package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/tempo/pkg/model"
	"github.com/harrisonrobin/tempo/pkg/storage"
	"github.com/harrisonrobin/tempo/pkg/taskwarrior"
	"github.com/harrisonrobin/tempo/pkg/tracker"
)

type memRepo struct{ tasks []model.Task }

func (m *memRepo) LoadTasks(context.Context) []model.Task { return m.tasks }
func (m *memRepo) SaveTasks(_ context.Context, tasks []model.Task) error {
	m.tasks = tasks
	return nil
}
func (m *memRepo) ClearTasks(context.Context) error {
	m.tasks = nil
	return nil
}

func testApp(now time.Time) *app {
	return &app{
		tracker: tracker.New(context.Background(), &memRepo{}),
		now:     now,
		loc:     time.UTC,
	}
}

func TestFollowTaskwarrior(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	a := testApp(now)
	started := &taskwarrior.CustomTime{Time: now}
	tw := taskwarrior.Task{UUID: "u1", Description: "Review", Status: taskwarrior.PENDING, Start: started}

	if err := followTaskwarrior(a, tw); err != nil {
		t.Fatalf("followTaskwarrior failed: %v", err)
	}
	task, err := a.tracker.Get("u1")
	if err != nil {
		t.Fatalf("Expected task to be created: %v", err)
	}
	if s, ok := task.RunningSince(); !ok || s != now.UnixMilli() {
		t.Errorf("Expected running since %d, got %d %v", now.UnixMilli(), s, ok)
	}

	a.now = now.Add(45 * time.Minute)
	tw.Start = nil
	if err := followTaskwarrior(a, tw); err != nil {
		t.Fatalf("followTaskwarrior stop failed: %v", err)
	}
	task, _ = a.tracker.Get("u1")
	if task.IsRunning() || len(task.Logs) != 1 || task.Logs[0].Duration() != (45*time.Minute).Milliseconds() {
		t.Errorf("Expected one 45m log, got %+v", task)
	}
}

func TestFollowTaskwarriorIgnoresIdleUnknownTask(t *testing.T) {
	a := testApp(time.Now())
	tw := taskwarrior.Task{UUID: "u2", Description: "Later", Status: taskwarrior.PENDING}
	if err := followTaskwarrior(a, tw); err != nil {
		t.Fatal(err)
	}
	if len(a.tracker.Tasks()) != 0 {
		t.Errorf("Expected no tasks, got %d", len(a.tracker.Tasks()))
	}
}

const hookInput = `{"uuid":"u1","description":"Review","status":"pending","start":"20240301T090000Z"}
{"uuid":"u1","description":"Review","status":"pending","urgency":4.2}
`

func TestRunHookLogsStopBeforeStart(t *testing.T) {
	dir := t.TempDir()
	repo := storage.Open(filepath.Join(dir, "tasks.db"), filepath.Join(dir, "tasks.json"))
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	a := &app{tracker: tracker.New(context.Background(), repo), repo: repo, now: now, loc: time.UTC}
	a.tracker.Import([]model.Task{{ID: "u1", Title: "Review", Activity: model.Idle{}}})
	if err := a.tracker.Start("u1", now.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	open := func(context.Context) (*app, error) { return a, nil }
	if err := runHook(context.Background(), strings.NewReader(hookInput), &out, open); err != nil {
		t.Fatalf("Expected hook to succeed, got %v", err)
	}
	want := `{"uuid":"u1","description":"Review","status":"pending","urgency":4.2}` + "\n"
	if out.String() != want {
		t.Errorf("Expected modified task echoed unchanged, got %q", out.String())
	}
	task, _ := a.tracker.Get("u1")
	if !task.IsRunning() {
		t.Error("Expected task to stay running after a rejected stop")
	}
}

func TestRunHookEchoesWhenOpenFails(t *testing.T) {
	var out bytes.Buffer
	open := func(context.Context) (*app, error) { return nil, errors.New("error loading config: bad json") }
	if err := runHook(context.Background(), strings.NewReader(hookInput), &out, open); err != nil {
		t.Fatalf("Expected hook to succeed, got %v", err)
	}
	if !strings.Contains(out.String(), `"urgency":4.2`) {
		t.Errorf("Expected modified task on stdout, got %q", out.String())
	}
}

func TestRangeArgs(t *testing.T) {
	from, to, err := rangeArgs("2024-02-01", "2024-02-29", time.UTC)
	if err != nil {
		t.Fatalf("rangeArgs failed: %v", err)
	}
	if from.Day() != 1 || to.Day() != 29 {
		t.Errorf("Expected 1..29, got %d..%d", from.Day(), to.Day())
	}
	if _, _, err := rangeArgs("2024-02-10", "2024-02-01", time.UTC); err == nil {
		t.Error("Expected error for reversed range")
	}
	if _, _, err := rangeArgs("02/01/2024", "2024-02-01", time.UTC); err == nil {
		t.Error("Expected error for malformed date")
	}
}

func TestTags(t *testing.T) {
	if got := tags("", ""); got != "" {
		t.Errorf("Expected empty, got %q", got)
	}
	if got := tags("web", "review"); got != " [web/review]" {
		t.Errorf("Expected ' [web/review]', got %q", got)
	}
}
