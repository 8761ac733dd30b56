// Package aggregate derives tracked-time totals from tasks.
//
// All totals are milliseconds. Functions that consider running intervals take an explicit
// now, so repeated calls over the same snapshot agree. Day and month windows are evaluated
// as [start, nextStart): adjacent windows partition a log exactly.
package aggregate

import (
	"errors"
	"fmt"
	"time"

	"github.com/harrisonrobin/tempo/pkg/interval"
	"github.com/harrisonrobin/tempo/pkg/model"
	"github.com/harrisonrobin/tempo/pkg/timeutil"
)

// SkewError reports a running interval that starts after the reference instant.
type SkewError struct {
	TaskID string
	Start  int64
	Now    int64
}

func (e *SkewError) Error() string {
	return fmt.Sprintf("task %s: running since %d, which is %dms after now", e.TaskID, e.Start, e.Start-e.Now)
}

func (e *SkewError) Unwrap() error { return model.ErrClockSkew }

// DayWindow returns the [start, nextStart) bounds of date's calendar day in ms.
func DayWindow(date time.Time) (int64, int64) {
	return timeutil.StartOfDay(date).UnixMilli(), timeutil.NextDay(date).UnixMilli()
}

// MonthWindow returns the [start, nextStart) bounds of month's calendar month in ms.
func MonthWindow(month time.Time) (int64, int64) {
	return timeutil.FirstDayOfMonth(month).UnixMilli(), timeutil.NextMonth(month).UnixMilli()
}

// TaskTotalInRange sums the overlap of the task's closed logs with [r0, r1].
// The running interval is not included.
func TaskTotalInRange(task *model.Task, r0, r1 int64) int64 {
	var sum int64
	for _, l := range task.Logs {
		sum += interval.OverlapMs(l.Start, l.End, r0, r1)
	}
	return sum
}

// RunningOverlapInRange sums, over running tasks, the overlap of start..now with [r0, r1].
func RunningOverlapInRange(tasks []model.Task, r0, r1 int64, now time.Time) int64 {
	var sum int64
	for i := range tasks {
		sum += runningOverlap(&tasks[i], r0, r1, now.UnixMilli())
	}
	return sum
}

func runningOverlap(task *model.Task, r0, r1, nowMs int64) int64 {
	start, ok := task.RunningSince()
	if !ok {
		return 0
	}
	return interval.OverlapMs(start, nowMs, r0, r1)
}

func totalForWindow(tasks []model.Task, r0, r1 int64, now time.Time) int64 {
	var sum int64
	for i := range tasks {
		sum += TaskTotalInRange(&tasks[i], r0, r1)
	}
	return sum + RunningOverlapInRange(tasks, r0, r1, now)
}

func TotalForDate(tasks []model.Task, date, now time.Time) int64 {
	d0, d1 := DayWindow(date)
	return totalForWindow(tasks, d0, d1, now)
}

func TotalForMonth(tasks []model.Task, month, now time.Time) int64 {
	m0, m1 := MonthWindow(month)
	return totalForWindow(tasks, m0, m1, now)
}

// TotalForTaskInRange is the log total plus the running overlap for one task.
func TotalForTaskInRange(task *model.Task, r0, r1 int64, now time.Time) int64 {
	return TaskTotalInRange(task, r0, r1) + runningOverlap(task, r0, r1, now.UnixMilli())
}

func TotalForTaskOnDate(task *model.Task, date, now time.Time) int64 {
	d0, d1 := DayWindow(date)
	return TotalForTaskInRange(task, d0, d1, now)
}

func TotalForTaskInMonth(task *model.Task, month, now time.Time) int64 {
	m0, m1 := MonthWindow(month)
	return TotalForTaskInRange(task, m0, m1, now)
}

// TotalForTaskOverall sums every log duration plus the elapsed running time.
// Elapsed time is clamped at zero; use CheckClock to detect the skew itself.
func TotalForTaskOverall(task *model.Task, now time.Time) int64 {
	var sum int64
	for _, l := range task.Logs {
		sum += l.Duration()
	}
	if start, ok := task.RunningSince(); ok {
		sum += max(0, now.UnixMilli()-start)
	}
	return sum
}

// CheckClock returns a *SkewError for every running task whose start lies after now,
// joined into one error, or nil when the snapshot is consistent.
func CheckClock(tasks []model.Task, now time.Time) error {
	nowMs := now.UnixMilli()
	var errs []error
	for i := range tasks {
		if start, ok := tasks[i].RunningSince(); ok && start > nowMs {
			errs = append(errs, &SkewError{TaskID: tasks[i].ID, Start: start, Now: nowMs})
		}
	}
	return errors.Join(errs...)
}
