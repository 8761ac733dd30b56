package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/harrisonrobin/tempo/pkg/model"
	"github.com/harrisonrobin/tempo/pkg/timeutil"
	"google.golang.org/api/calendar/v3"
)

// LogIDProperty is the private extended property that ties a calendar event to a log.
const LogIDProperty = "tempo_log_id"

var durationRe = regexp.MustCompile(`(\d+)([HMS])`)

// ParseDuration parses ISO 8601 duration format (PT1H30M) from Taskwarrior JSON export
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	if len(s) < 2 || s[0] != 'P' {
		return 0, fmt.Errorf("invalid ISO 8601 duration format: %s", s)
	}
	s = s[1:]
	if len(s) == 0 || s[0] != 'T' {
		return 0, fmt.Errorf("invalid ISO 8601 duration (missing T): P%s", s)
	}
	s = s[1:]

	var total time.Duration
	for _, match := range durationRe.FindAllStringSubmatch(s, -1) {
		value, _ := strconv.Atoi(match[1])
		switch match[2] {
		case "H":
			total += time.Duration(value) * time.Hour
		case "M":
			total += time.Duration(value) * time.Minute
		case "S":
			total += time.Duration(value) * time.Second
		}
	}
	if total == 0 {
		return 0, fmt.Errorf("invalid ISO 8601 duration: PT%s", s)
	}
	return total, nil
}

// LogKey identifies a log of a task. Logs never share a start within one task.
func LogKey(taskID string, startMs int64) string {
	return fmt.Sprintf("%s:%d", taskID, startMs)
}

// logBounds returns the interval a log covers. Legacy logs that only carry a duration are
// anchored at their start.
func logBounds(l model.Log) (int64, int64) {
	if l.Ms != nil && l.End-l.Start != *l.Ms {
		return l.Start, l.Start + *l.Ms
	}
	return l.Start, l.End
}

// ConvertLogToCalendarEvent builds the calendar event for one log of task.
// A running log is marked with a "‣" prefix.
func ConvertLogToCalendarEvent(task *model.Task, l model.Log, colorID string, running bool) (*calendar.Event, error) {
	if task == nil {
		return nil, fmt.Errorf("could not convert log of nil Task")
	}
	if l.Start <= 0 {
		return nil, fmt.Errorf("log of task %s has no start", task.ID)
	}
	start, end := logBounds(l)
	if end < start {
		return nil, fmt.Errorf("log of task %s ends before it starts", task.ID)
	}

	summary := task.Title
	if running {
		summary = fmt.Sprintf("‣ %s", task.Title)
	}

	var desc strings.Builder
	if task.Project != "" {
		desc.WriteString(fmt.Sprintf("Project: %s\n", task.Project))
	}
	if task.Type != "" {
		desc.WriteString(fmt.Sprintf("Type: %s\n", task.Type))
	}
	if task.Link != "" {
		desc.WriteString(fmt.Sprintf("Link: %s\n", task.Link))
	}
	desc.WriteString(fmt.Sprintf("ID: %s\n", task.ID))
	desc.WriteString("\nAccounting:\n")
	desc.WriteString(fmt.Sprintf("• spent: %s\n", timeutil.FormatMsS(end-start)))

	event := &calendar.Event{
		Summary: summary,
		ColorId: colorID,
		Start: &calendar.EventDateTime{
			DateTime: time.UnixMilli(start).UTC().Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: time.UnixMilli(end).UTC().Format(time.RFC3339),
		},
		Description: desc.String(),
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				LogIDProperty: LogKey(task.ID, l.Start),
			},
		},
	}
	return event, nil
}

// EventNeedsUpdate returns a patch event if the fields of the existing event differ from
// the target event, or nil when they already match.
func EventNeedsUpdate(existingEvent *calendar.Event, targetEvent *calendar.Event) (*calendar.Event, error) {
	patch := &calendar.Event{}
	needsUpdate := false

	if existingEvent.Summary != targetEvent.Summary {
		patch.Summary = targetEvent.Summary
		needsUpdate = true
	}
	if existingEvent.Description != targetEvent.Description {
		patch.Description = targetEvent.Description
		needsUpdate = true
	}
	if existingEvent.ColorId != targetEvent.ColorId {
		patch.ColorId = targetEvent.ColorId
		needsUpdate = true
	}

	if existingEvent.Start == nil || existingEvent.End == nil {
		patch.Start = targetEvent.Start
		patch.End = targetEvent.End
		return patch, nil
	}
	existingStartTime, err := time.Parse(time.RFC3339, existingEvent.Start.DateTime)
	if err != nil {
		return nil, err
	}
	targetStartTime, err := time.Parse(time.RFC3339, targetEvent.Start.DateTime)
	if err != nil {
		return nil, err
	}
	existingEndTime, err := time.Parse(time.RFC3339, existingEvent.End.DateTime)
	if err != nil {
		return nil, err
	}
	targetEndTime, err := time.Parse(time.RFC3339, targetEvent.End.DateTime)
	if err != nil {
		return nil, err
	}
	if !existingStartTime.Equal(targetStartTime) || !existingEndTime.Equal(targetEndTime) {
		patch.Start = targetEvent.Start
		patch.End = targetEvent.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch, nil
	}
	return nil, nil
}
