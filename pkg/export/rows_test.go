package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/harrisonrobin/tempo/pkg/model"
)

var loc = time.FixedZone("UTC-4", -4*3600)

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 9, day, hour, minute, 0, 0, loc)
}

func logBetween(a, b time.Time) model.Log {
	return model.Log{Start: a.UnixMilli(), End: b.UnixMilli()}
}

func TestRowsSingleLogWithinOneDay(t *testing.T) {
	tasks := []model.Task{{
		ID:    "t1",
		Title: "Review",
		Logs:  []model.Log{logBetween(at(10, 9, 0), at(10, 11, 30))},
	}}
	rows := BuildRowsForRange(tasks, at(1, 0, 0), at(30, 0, 0), at(30, 12, 0))
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d: %+v", len(rows), rows)
	}
	if rows[0].Date != "2024-09-10" {
		t.Errorf("Expected date 2024-09-10, got %s", rows[0].Date)
	}
	if rows[0].Ms != tasks[0].Logs[0].Duration() {
		t.Errorf("Expected %d ms, got %d", tasks[0].Logs[0].Duration(), rows[0].Ms)
	}
}

func TestRowsLateEveningStaysOnLocalDay(t *testing.T) {
	// 22:00-23:00 at UTC-4 is the next day in UTC.
	tasks := []model.Task{{ID: "t", Title: "Late", Logs: []model.Log{logBetween(at(10, 22, 0), at(10, 23, 0))}}}
	rows := BuildRowsForRange(tasks, at(10, 0, 0), at(10, 0, 0), at(11, 0, 0))
	if len(rows) != 1 || rows[0].Date != "2024-09-10" {
		t.Errorf("Expected one row on 2024-09-10, got %+v", rows)
	}
}

func TestRowsBucketByOverlapMidpoint(t *testing.T) {
	tasks := []model.Task{{
		ID:    "t",
		Title: "Deploy",
		// 20:00 day 10 to 06:00 day 11: midpoint 01:00 on day 11.
		Logs: []model.Log{logBetween(at(10, 20, 0), at(11, 6, 0))},
	}}
	rows := BuildRowsForRange(tasks, at(10, 0, 0), at(11, 0, 0), at(12, 0, 0))
	if len(rows) != 1 || rows[0].Date != "2024-09-11" || rows[0].Ms != 10*3600000 {
		t.Errorf("Expected one 10h row on 2024-09-11, got %+v", rows)
	}

	// Clamped to day 10 only, the overlap is 20:00-24:00 and lands on day 10.
	rows = BuildRowsForRange(tasks, at(10, 15, 0), at(10, 16, 0), at(12, 0, 0))
	if len(rows) != 1 || rows[0].Date != "2024-09-10" || rows[0].Ms != 4*3600000 {
		t.Errorf("Expected one 4h row on 2024-09-10, got %+v", rows)
	}
}

func TestRowsAccumulateAndSort(t *testing.T) {
	now := at(12, 10, 0)
	tasks := []model.Task{
		{ID: "b", Title: "Бета", Logs: []model.Log{logBetween(at(11, 9, 0), at(11, 10, 0)), logBetween(at(11, 14, 0), at(11, 14, 30))}},
		{ID: "a", Title: "Альфа", Logs: []model.Log{logBetween(at(11, 8, 0), at(11, 8, 15))}},
		{ID: "r", Title: "Running", Activity: model.Running{Start: at(12, 9, 0).UnixMilli()}},
		{ID: "z", Title: "Outside", Logs: []model.Log{logBetween(at(1, 9, 0), at(1, 10, 0))}},
	}
	rows := BuildRowsForRange(tasks, at(11, 0, 0), at(12, 0, 0), now)
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d: %+v", len(rows), rows)
	}
	want := []struct {
		date, id string
		ms       int64
	}{
		{"2024-09-11", "a", 15 * 60000},
		{"2024-09-11", "b", 90 * 60000},
		{"2024-09-12", "r", 60 * 60000},
	}
	for i, w := range want {
		if rows[i].Date != w.date || rows[i].TaskID != w.id || rows[i].Ms != w.ms {
			t.Errorf("row %d: expected %+v, got %+v", i, w, rows[i])
		}
	}
}

func TestTaskTotalsForRange(t *testing.T) {
	now := at(20, 12, 0)
	tasks := []model.Task{
		{ID: "2", Title: "beta", Logs: []model.Log{logBetween(at(15, 9, 0), at(15, 10, 0))}, Activity: model.Running{Start: at(20, 11, 0).UnixMilli()}},
		{ID: "1", Title: "Alpha", Logs: []model.Log{logBetween(at(16, 9, 0), at(16, 9, 30))}},
		{ID: "3", Title: "gone", Logs: []model.Log{logBetween(at(2, 9, 0), at(2, 10, 0))}},
		{ID: "4", Title: "empty"},
	}
	totals := NewBuilder(language.English).TaskTotalsForRange(tasks, at(15, 13, 0), at(20, 8, 0), now)
	if len(totals) != 2 {
		t.Fatalf("Expected 2 totals, got %d: %+v", len(totals), totals)
	}
	if totals[0].TaskID != "1" || totals[0].Ms != 30*60000 {
		t.Errorf("Expected Alpha with 30m first, got %+v", totals[0])
	}
	if totals[1].TaskID != "2" || totals[1].Ms != 2*3600000 {
		t.Errorf("Expected beta with 2h second, got %+v", totals[1])
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	rows := []Row{{Date: "2024-09-10", TaskID: "t", Title: "Review, part 1", Ms: 90 * 60000}}
	if err := WriteRowsCSV(&buf, rows); err != nil {
		t.Fatalf("WriteRowsCSV failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[1] != `2024-09-10,"Review, part 1",,,,01:30,1.50` {
		t.Errorf("unexpected row line: %s", lines[1])
	}

	buf.Reset()
	if err := WriteTotalsCSV(&buf, []TaskTotal{{TaskID: "t", Title: "Review", Project: "ops", Ms: 45 * 60000}}); err != nil {
		t.Fatalf("WriteTotalsCSV failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Review,ops,,,00:45,0.75") {
		t.Errorf("unexpected totals output: %s", buf.String())
	}
}
