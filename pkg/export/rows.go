// Package export flattens task time into per-day and per-task rows.
package export

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/harrisonrobin/tempo/pkg/aggregate"
	"github.com/harrisonrobin/tempo/pkg/interval"
	"github.com/harrisonrobin/tempo/pkg/model"
	"github.com/harrisonrobin/tempo/pkg/timeutil"
)

// DefaultLang orders titles when no locale is configured.
var DefaultLang = language.Ukrainian

// Row is the time one task accumulated on one calendar day.
type Row struct {
	Date    string `json:"date"` // YYYY-MM-DD
	TaskID  string `json:"task_id"`
	Title   string `json:"title"`
	Project string `json:"project"`
	Type    string `json:"type"`
	Link    string `json:"link"`
	Ms      int64  `json:"ms"`
}

// TaskTotal is the time one task accumulated over a whole range.
type TaskTotal struct {
	TaskID  string `json:"task_id"`
	Title   string `json:"title"`
	Link    string `json:"link"`
	Project string `json:"project"`
	Type    string `json:"type"`
	Ms      int64  `json:"ms"`
}

// Builder builds export rows, ordering titles with the collation rules of Lang.
type Builder struct {
	Lang language.Tag
}

func NewBuilder(lang language.Tag) *Builder {
	return &Builder{Lang: lang}
}

func BuildRowsForRange(tasks []model.Task, start, end, now time.Time) []Row {
	return NewBuilder(DefaultLang).RowsForRange(tasks, start, end, now)
}

func BuildTaskTotalsForRange(tasks []model.Task, start, end, now time.Time) []TaskTotal {
	return NewBuilder(DefaultLang).TaskTotalsForRange(tasks, start, end, now)
}

// clamp widens [start, end] to whole calendar days in start's location.
func clamp(start, end time.Time) (int64, int64, *time.Location) {
	loc := start.Location()
	return timeutil.StartOfDay(start).UnixMilli(), timeutil.NextDay(end.In(loc)).UnixMilli(), loc
}

// RowsForRange buckets every log and running overlap with the clamped range onto the
// calendar day of the overlap midpoint, one row per (day, task).
func (b *Builder) RowsForRange(tasks []model.Task, start, end, now time.Time) []Row {
	c0, c1, loc := clamp(start, end)
	nowMs := now.UnixMilli()

	type key struct{ date, taskID string }
	byKey := make(map[key]*Row)
	var rows []*Row

	add := func(t *model.Task, s, e int64) {
		ov := interval.OverlapMs(s, e, c0, c1)
		if ov <= 0 {
			return
		}
		day := timeutil.ISODate(timeutil.FromMillis(interval.MidpointWithin(s, e, c0, c1), loc))
		k := key{day, t.ID}
		row, ok := byKey[k]
		if !ok {
			row = &Row{Date: day, TaskID: t.ID, Title: t.Title, Project: t.Project, Type: t.Type, Link: t.Link}
			byKey[k] = row
			rows = append(rows, row)
		}
		row.Ms += ov
	}

	for i := range tasks {
		t := &tasks[i]
		for _, l := range t.Logs {
			add(t, l.Start, l.End)
		}
		if s, ok := t.RunningSince(); ok {
			add(t, s, nowMs)
		}
	}

	col := collate.New(b.Lang)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		return col.CompareString(rows[i].Title, rows[j].Title) < 0
	})

	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = *r
	}
	return out
}

// TaskTotalsForRange totals each task over the clamped range, dropping tasks with no time.
func (b *Builder) TaskTotalsForRange(tasks []model.Task, start, end, now time.Time) []TaskTotal {
	c0, c1, _ := clamp(start, end)

	var totals []TaskTotal
	for i := range tasks {
		t := &tasks[i]
		ms := aggregate.TotalForTaskInRange(t, c0, c1, now)
		if ms <= 0 {
			continue
		}
		totals = append(totals, TaskTotal{
			TaskID:  t.ID,
			Title:   t.Title,
			Link:    t.Link,
			Project: t.Project,
			Type:    t.Type,
			Ms:      ms,
		})
	}

	col := collate.New(b.Lang)
	sort.SliceStable(totals, func(i, j int) bool {
		return col.CompareString(totals[i].Title, totals[j].Title) < 0
	})
	return totals
}
