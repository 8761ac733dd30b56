package taskwarrior

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// Client runs the Taskwarrior CLI.
type Client struct {
	// Bin is the task executable, "task" by default.
	Bin string
}

func NewClient() *Client {
	return &Client{Bin: "task"}
}

// GetTasks runs `task <filter> export` with hooks disabled, so a tempo hook cannot recurse.
func (c *Client) GetTasks(ctx context.Context, filter []string) ([]Task, error) {
	args := append(append([]string{}, filter...), "export", "rc.hooks=0")
	cmd := exec.CommandContext(ctx, c.Bin, args...)

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("taskwarrior export failed: exit code %d, stderr: %s",
				exitErr.ExitCode(), bytes.TrimSpace(exitErr.Stderr))
		}
		return nil, fmt.Errorf("taskwarrior export failed: %w", err)
	}

	var tasks []Task
	if err := json.Unmarshal(output, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode taskwarrior export: %w", err)
	}
	return tasks, nil
}

// RawTask is a task exactly as Taskwarrior sent it alongside its decoded fields.
type RawTask struct {
	Task
	Raw json.RawMessage
}

// ParseTasks decodes the stream of JSON objects Taskwarrior writes to a hook's stdin.
func (c *Client) ParseTasks(r io.Reader) ([]RawTask, error) {
	var tasks []RawTask
	decoder := json.NewDecoder(r)
	for {
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to decode task json: %w", err)
		}
		var task Task
		if err := json.Unmarshal(raw, &task); err != nil {
			return nil, fmt.Errorf("failed to decode task json: %w", err)
		}
		tasks = append(tasks, RawTask{Task: task, Raw: raw})
	}
	return tasks, nil
}
