package orgmode

import (
	"strings"
	"testing"
	"time"
)

const sample = `#+TITLE: Work
* TODO [#A] Write report :work:docs:
  :PROPERTIES:
  :ID: 3f1c9a2e-1111-2222-3333-444455556666
  :END:
  :LOGBOOK:
  CLOCK: [2024-01-01 Mon 10:00]--[2024-01-01 Mon 12:00] =>  2:00
  CLOCK: [2024-01-02 Tue 09:30]--[2024-01-02 Tue 10:00] =>  0:30
  :END:
* DONE Plan sprint
  :LOGBOOK:
  CLOCK: [2024-01-03 Wed 14:00]
  :END:
** Unclocked note
* Broken
  CLOCK: [2024-01-03 Wed 14:00]--[2024-01-03 Wed 13:00] => -1:00
`

func TestParse(t *testing.T) {
	loc := time.UTC
	tasks, err := Parse(strings.NewReader(sample), "work.org", loc)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}

	report := tasks[0]
	if report.ID != "3f1c9a2e-1111-2222-3333-444455556666" {
		t.Errorf("Expected ID from properties, got %s", report.ID)
	}
	if report.Title != "Write report" || report.Project != "work" {
		t.Errorf("Expected 'Write report' in work, got %q in %q", report.Title, report.Project)
	}
	if len(report.Logs) != 2 {
		t.Fatalf("Expected 2 logs, got %d", len(report.Logs))
	}
	wantStart := time.Date(2024, 1, 1, 10, 0, 0, 0, loc).UnixMilli()
	if report.Logs[0].Start != wantStart || report.Logs[0].Duration() != 2*3600_000 {
		t.Errorf("Unexpected first log %+v", report.Logs[0])
	}
	if report.IsRunning() {
		t.Error("Expected report to be idle")
	}

	plan := tasks[1]
	start, ok := plan.RunningSince()
	if !ok || start != time.Date(2024, 1, 3, 14, 0, 0, 0, loc).UnixMilli() {
		t.Errorf("Expected plan running since 14:00, got %d %v", start, ok)
	}
	if plan.ID == "" {
		t.Error("Expected derived ID")
	}
}

func TestParseStableIDs(t *testing.T) {
	a, _ := Parse(strings.NewReader(sample), "work.org", time.UTC)
	b, _ := Parse(strings.NewReader(sample), "work.org", time.UTC)
	if a[1].ID != b[1].ID {
		t.Errorf("Expected stable derived IDs, got %s and %s", a[1].ID, b[1].ID)
	}
	c, _ := Parse(strings.NewReader(sample), "other.org", time.UTC)
	if a[1].ID == c[1].ID {
		t.Error("Expected different IDs for different sources")
	}
}

func TestFilterTasks(t *testing.T) {
	tasks, _ := Parse(strings.NewReader(sample), "work.org", time.UTC)
	if got := FilterTasks(tasks, "work"); len(got) != 1 {
		t.Errorf("Expected 1 task in work, got %d", len(got))
	}
}
