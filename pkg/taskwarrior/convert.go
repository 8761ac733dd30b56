package taskwarrior

import (
	"log"
	"strings"

	"github.com/harrisonrobin/tempo/pkg/model"
	"github.com/harrisonrobin/tempo/pkg/util"
)

// ToModel converts exported Taskwarrior tasks into tracked tasks. Deleted tasks and tasks
// carrying no time at all are skipped.
//
// A started pending task becomes running. A task with start and end becomes a log, using the
// act UDA as its duration when present. A task with only act and end is anchored act before end.
func ToModel(tasks []Task) []model.Task {
	var out []model.Task
	for _, twTask := range tasks {
		if twTask.Status == DELETED {
			continue
		}
		task, ok := convert(twTask)
		if !ok {
			continue
		}
		out = append(out, task)
	}
	return out
}

// Meta returns the tracked-task fields of twTask, idle and without logs.
func Meta(twTask Task) model.Task {
	task := model.Task{
		ID:       twTask.UUID,
		Title:    twTask.Description,
		Project:  twTask.Project,
		Activity: model.Idle{},
	}
	if len(twTask.Tags) > 0 {
		task.Type = twTask.Tags[0]
	}
	for _, a := range twTask.Annotations {
		if strings.HasPrefix(a.Description, "http://") || strings.HasPrefix(a.Description, "https://") {
			task.Link = a.Description
			break
		}
	}
	return task
}

// IsActive reports whether Taskwarrior considers twTask started.
func IsActive(twTask Task) bool {
	return twTask.Status == PENDING && twTask.Start != nil && !twTask.Start.IsZero()
}

func convert(twTask Task) (model.Task, bool) {
	task := Meta(twTask)

	act, err := util.ParseDuration(twTask.Act)
	if err != nil {
		log.Printf("Warning: task %s: ignoring act %q: %v", twTask.UUID, twTask.Act, err)
		act = 0
	}
	actMs := act.Milliseconds()

	hasStart := twTask.Start != nil && !twTask.Start.IsZero()
	hasEnd := twTask.End != nil && !twTask.End.IsZero()

	switch {
	case IsActive(twTask):
		task.Activity = model.Running{Start: twTask.Start.UnixMilli()}
	case hasStart && hasEnd:
		l := model.Log{Start: twTask.Start.UnixMilli(), End: twTask.End.UnixMilli()}
		if actMs > 0 {
			l.Ms = &actMs
		}
		task.Logs = append(task.Logs, l)
	case hasEnd && actMs > 0:
		end := twTask.End.UnixMilli()
		task.Logs = append(task.Logs, model.Log{Start: end - actMs, End: end, Ms: &actMs})
	default:
		return model.Task{}, false
	}
	return task, true
}
