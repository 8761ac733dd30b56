package orgmode

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harrisonrobin/tempo/pkg/model"
)

const clockLayout = "2006-01-02 Mon 15:04"

var (
	headlineRegex = regexp.MustCompile(`^\*+\s+(?:(?:TODO|DONE)\s+)?(?:\[#[A-Z]\]\s*)?(.*?)(?:\s+:([\w@:]+):)?\s*$`)
	idRegex       = regexp.MustCompile(`^:ID:\s+(\S+)`)
	closedClock   = regexp.MustCompile(`^CLOCK:\s+\[([^\]]+)\]--\[([^\]]+)\]`)
	openClock     = regexp.MustCompile(`^CLOCK:\s+\[([^\]]+)\]\s*$`)
)

func parseFile(filePath string, loc *time.Location) ([]model.Task, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(file, filePath, loc)
}

// ParseFiles parses multiple Org-mode files and returns their clocked tasks.
func ParseFiles(filePaths []string, loc *time.Location) ([]model.Task, error) {
	var allTasks []model.Task
	for _, filePath := range filePaths {
		tasks, err := parseFile(filePath, loc)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", filePath, err)
		}
		allTasks = append(allTasks, tasks...)
	}
	return allTasks, nil
}

// Parse reads Org-mode headlines and their CLOCK lines. Clock timestamps are wall times in loc.
// The first tag becomes the project; an open clock makes the task running. Headlines without
// any clock entry are skipped. Tasks lacking an :ID: property get an ID derived from source
// and title, so re-importing the same file yields the same IDs.
func Parse(r io.Reader, source string, loc *time.Location) ([]model.Task, error) {
	log.Printf("parsing file: %s", source)
	scanner := bufio.NewScanner(r)
	var tasks []model.Task
	var current *model.Task

	flush := func() {
		if current == nil {
			return
		}
		if len(current.Logs) > 0 || current.IsRunning() {
			if current.ID == "" {
				current.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(source+"#"+current.Title)).String()
			}
			tasks = append(tasks, *current)
		}
		current = nil
	}

	for lineNo := 1; scanner.Scan(); lineNo++ {
		raw := scanner.Text()
		if strings.HasPrefix(raw, "*") {
			if m := headlineRegex.FindStringSubmatch(raw); m != nil {
				flush()
				current = &model.Task{Title: strings.TrimSpace(m[1]), Activity: model.Idle{}}
				if m[2] != "" {
					current.Project = strings.Split(m[2], ":")[0]
				}
				continue
			}
		}
		if current == nil {
			continue
		}

		line := strings.TrimSpace(raw)
		switch {
		case idRegex.MatchString(line):
			current.ID = idRegex.FindStringSubmatch(line)[1]
		case closedClock.MatchString(line):
			m := closedClock.FindStringSubmatch(line)
			start, err1 := time.ParseInLocation(clockLayout, m[1], loc)
			end, err2 := time.ParseInLocation(clockLayout, m[2], loc)
			if err1 != nil || err2 != nil {
				log.Printf("Warning: %s:%d: unreadable CLOCK entry %q", source, lineNo, line)
				continue
			}
			if end.Before(start) {
				log.Printf("Warning: %s:%d: CLOCK entry ends before it starts, skipping", source, lineNo)
				continue
			}
			current.Logs = append(current.Logs, model.Log{Start: start.UnixMilli(), End: end.UnixMilli()})
		case openClock.MatchString(line):
			start, err := time.ParseInLocation(clockLayout, openClock.FindStringSubmatch(line)[1], loc)
			if err != nil {
				log.Printf("Warning: %s:%d: unreadable CLOCK entry %q", source, lineNo, line)
				continue
			}
			if s, ok := current.RunningSince(); !ok || start.UnixMilli() > s {
				current.Activity = model.Running{Start: start.UnixMilli()}
			}
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// FilterTasks keeps the tasks whose project equals filter.
func FilterTasks(tasks []model.Task, filter string) []model.Task {
	var filteredTasks []model.Task
	for _, task := range tasks {
		if task.Project == filter {
			filteredTasks = append(filteredTasks, task)
		}
	}
	return filteredTasks
}
