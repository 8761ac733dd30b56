package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tempo/pkg/aggregate"
	"github.com/harrisonrobin/tempo/pkg/config"
	"github.com/harrisonrobin/tempo/pkg/storage"
	"github.com/harrisonrobin/tempo/pkg/timeutil"
	"github.com/harrisonrobin/tempo/pkg/tracker"
)

var rootCmd = &cobra.Command{
	Use:           "tempo",
	Short:         "Track time against tasks and report it by day and month",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// app is the state shared by commands that work on the task collection.
type app struct {
	cfg     *config.Config
	repo    *storage.Repository
	tracker *tracker.Tracker
	now     time.Time
	loc     *time.Location
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	repo := storage.Open(cfg.DBPath, cfg.LegacyPath)
	a := &app{
		cfg:     cfg,
		repo:    repo,
		tracker: tracker.New(ctx, repo),
		now:     time.Now(),
		loc:     time.Local,
	}
	if err := aggregate.CheckClock(a.tracker.Tasks(), a.now); err != nil {
		log.Printf("Warning: %v", err)
	}
	return a, nil
}

func (a *app) close() {
	if err := a.repo.Close(); err != nil {
		log.Printf("Warning: failed to close storage: %v", err)
	}
}

// withApp wraps a command body that needs the task collection. When save is set the
// collection is persisted after a successful run.
func withApp(save bool, run func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		if err := run(ctx, a, args); err != nil {
			return err
		}
		if save {
			return a.tracker.Save(ctx)
		}
		return nil
	}
}

var (
	addProject string
	addType    string
	addLink    string
	addStart   bool
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(true, func(_ context.Context, a *app, args []string) error {
		task, err := a.tracker.Add(strings.Join(args, " "), addProject, addType, addLink)
		if err != nil {
			return err
		}
		if addStart {
			if err := a.tracker.Start(task.ID, a.now); err != nil {
				return err
			}
		}
		fmt.Printf("Created task %s: %s\n", shortID(task.ID), task.Title)
		return nil
	}),
}

var startCmd = &cobra.Command{
	Use:   "start <id>",
	Short: "Start tracking a task",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(true, func(_ context.Context, a *app, args []string) error {
		if err := a.tracker.Start(args[0], a.now); err != nil {
			return err
		}
		fmt.Printf("Started %s at %s\n", args[0], a.now.Format("15:04"))
		return nil
	}),
}

var stopCmd = &cobra.Command{
	Use:   "stop [id]",
	Short: "Stop a running task, or every running task when no id is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(true, func(_ context.Context, a *app, args []string) error {
		refs := args
		if len(refs) == 0 {
			for _, task := range a.tracker.Running() {
				refs = append(refs, task.ID)
			}
			if len(refs) == 0 {
				fmt.Println("Nothing is running.")
				return nil
			}
		}
		for _, ref := range refs {
			l, err := a.tracker.Stop(ref, a.now)
			if err != nil {
				return err
			}
			fmt.Printf("Stopped %s after %s\n", shortID(ref), timeutil.FormatMs(l.Duration()))
		}
		return nil
	}),
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks with their overall tracked time",
	Args:  cobra.NoArgs,
	RunE: withApp(false, func(_ context.Context, a *app, _ []string) error {
		tasks := a.tracker.Tasks()
		if len(tasks) == 0 {
			fmt.Println("No tasks.")
			return nil
		}
		for i := range tasks {
			task := &tasks[i]
			marker := " "
			if task.IsRunning() {
				marker = runningStyle.Render("▶")
			}
			fmt.Printf("%s %s  %s  %s%s\n", marker, mutedStyle.Render(fmt.Sprintf("%-8s", shortID(task.ID))),
				durationStyle.Render(fmt.Sprintf("%8s", timeutil.FormatMs(aggregate.TotalForTaskOverall(task, a.now)))),
				task.Title, mutedStyle.Render(tags(task.Project, task.Type)))
		}
		return nil
	}),
}

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete a task and its logs",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(true, func(_ context.Context, a *app, args []string) error {
		if err := a.tracker.Remove(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	}),
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every task from all stores",
	Args:  cobra.NoArgs,
	RunE: withApp(false, func(ctx context.Context, a *app, _ []string) error {
		if err := a.tracker.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("All tasks cleared.")
		return nil
	}),
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List the project and type tags in use",
	Args:  cobra.NoArgs,
	RunE: withApp(false, func(_ context.Context, a *app, _ []string) error {
		fmt.Println(headerStyle.Render("Projects"))
		for _, p := range a.tracker.Projects() {
			fmt.Println("  " + p)
		}
		fmt.Println(headerStyle.Render("Types"))
		for _, t := range a.tracker.Types() {
			fmt.Println("  " + t)
		}
		return nil
	}),
}

var setCalendarCmd = &cobra.Command{
	Use:   "set-calendar <name>",
	Short: "Set the Google Calendar that sync writes to",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if err := config.SetCalendar(args[0]); err != nil {
			return fmt.Errorf("error saving config: %w", err)
		}
		fmt.Printf("Default calendar set to: %s\n", args[0])
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func tags(project, typ string) string {
	var parts []string
	for _, p := range []string{project, typ} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " [" + strings.Join(parts, "/") + "]"
}

func init() {
	addCmd.Flags().StringVarP(&addProject, "project", "p", "", "Project tag")
	addCmd.Flags().StringVarP(&addType, "type", "t", "", "Type tag")
	addCmd.Flags().StringVarP(&addLink, "link", "l", "", "Related URL")
	addCmd.Flags().BoolVarP(&addStart, "start", "s", false, "Start tracking right away")

	rootCmd.AddCommand(addCmd, startCmd, stopCmd, listCmd, projectsCmd, removeCmd, clearCmd, setCalendarCmd)
	rootCmd.AddCommand(reportCmd, exportCmd)
	rootCmd.AddCommand(importCmd, hookCmd, syncCmd, authCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
