package taskwarrior

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestParseTasks(t *testing.T) {
	input := `{"uuid":"f45a05b3-c12e-42e5-9c9c-333333333333","description":"Buy milk","status":"pending","start":"20230101T120000Z","project":"Groceries","tags":["buy","food"],"urgency":4.2}
{"uuid":"f45a05b3-c12e-42e5-9c9c-333333333333","description":"Buy milk","status":"completed","end":"20230101T123000Z","annotations":[{"entry":"20230101T120500Z","description":"almond"}]}`

	tasks, err := NewClient().ParseTasks(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseTasks failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}

	first := tasks[0]
	if first.Project != "Groceries" || len(first.Tags) != 2 {
		t.Errorf("Expected Groceries with 2 tags, got %q with %d", first.Project, len(first.Tags))
	}
	expectedStart := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	if first.Start == nil || !first.Start.Equal(expectedStart) {
		t.Errorf("Expected start %v, got %v", expectedStart, first.Start)
	}
	if !strings.Contains(string(first.Raw), `"urgency":4.2`) {
		t.Errorf("Expected raw JSON to keep unknown fields, got %s", first.Raw)
	}

	second := tasks[1]
	if second.Status != COMPLETED || len(second.Annotations) != 1 {
		t.Errorf("Expected completed task with 1 annotation, got %s with %d", second.Status, len(second.Annotations))
	}
}

func TestCustomTimeMarshal(t *testing.T) {
	ct := CustomTime{Time: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)}
	b, err := ct.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"20240506T070809Z"` {
		t.Errorf("Expected compact time, got %s", b)
	}
	var empty CustomTime
	if err := empty.UnmarshalJSON([]byte(`""`)); err != nil || !empty.IsZero() {
		t.Errorf("Expected zero time for empty string, got %v %v", empty.Time, err)
	}
	if err := empty.UnmarshalJSON([]byte(`"2024-05-06"`)); err == nil {
		t.Error("Expected error for unsupported layout")
	}
}

func TestGetTasksMissingBinary(t *testing.T) {
	c := &Client{Bin: "tempo-no-such-task-binary"}
	if _, err := c.GetTasks(context.Background(), nil); err == nil {
		t.Error("Expected error when the task binary is missing")
	}
}
