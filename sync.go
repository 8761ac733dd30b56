package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tempo/pkg/auth"
	"github.com/harrisonrobin/tempo/pkg/colors"
	"github.com/harrisonrobin/tempo/pkg/config"
	"github.com/harrisonrobin/tempo/pkg/google"
	"github.com/harrisonrobin/tempo/pkg/index"
	"github.com/harrisonrobin/tempo/pkg/model"
	"github.com/harrisonrobin/tempo/pkg/orgmode"
	"github.com/harrisonrobin/tempo/pkg/taskwarrior"
	"github.com/harrisonrobin/tempo/pkg/timeutil"
	"github.com/harrisonrobin/tempo/pkg/tracker"
)

var importProject string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import tracked time from other tools",
}

var importOrgCmd = &cobra.Command{
	Use:   "org <file>...",
	Short: "Import CLOCK entries from Org-mode files",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(true, func(_ context.Context, a *app, args []string) error {
		tasks, err := orgmode.ParseFiles(args, a.loc)
		if err != nil {
			return err
		}
		if importProject != "" {
			tasks = orgmode.FilterTasks(tasks, importProject)
		}
		fmt.Printf("Imported %d of %d tasks\n", a.tracker.Import(tasks), len(tasks))
		return nil
	}),
}

var importTaskwarriorCmd = &cobra.Command{
	Use:   "taskwarrior [filter]...",
	Short: "Import started and completed tasks from `task export`",
	RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
		twTasks, err := taskwarrior.NewClient().GetTasks(ctx, args)
		if err != nil {
			return err
		}
		tasks := taskwarrior.ToModel(twTasks)
		fmt.Printf("Imported %d of %d tasks\n", a.tracker.Import(tasks), len(tasks))
		return nil
	}),
}

// hookCmd is a Taskwarrior on-add/on-modify hook. Taskwarrior passes the original and
// modified task on stdin and reads the task to store back from stdout.
var hookCmd = &cobra.Command{
	Use:    "hook",
	Short:  "Taskwarrior hook: follow task start/stop",
	Args:   cobra.NoArgs,
	Hidden: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runHook(cmd.Context(), os.Stdin, os.Stdout, openApp)
	},
}

// runHook echoes the modified task before touching tempo state. Once the task is echoed
// every failure is only logged: a non-zero exit makes Taskwarrior reject the change.
func runHook(ctx context.Context, in io.Reader, out io.Writer, open func(context.Context) (*app, error)) error {
	twTasks, err := taskwarrior.NewClient().ParseTasks(in)
	if err != nil {
		return fmt.Errorf("error parsing tasks from stdin: %w", err)
	}
	if len(twTasks) == 0 {
		return nil
	}
	modified := twTasks[len(twTasks)-1]
	if _, err := fmt.Fprintf(out, "%s\n", modified.Raw); err != nil {
		return fmt.Errorf("error writing task to stdout: %w", err)
	}

	a, err := open(ctx)
	if err != nil {
		log.Printf("Warning: tempo not updated: %v", err)
		return nil
	}
	defer a.close()
	if err := followTaskwarrior(a, modified.Task); err != nil {
		log.Printf("Warning: could not follow task %s: %v", modified.UUID, err)
		return nil
	}
	if err := a.tracker.Save(ctx); err != nil {
		log.Printf("Warning: failed to save tasks: %v", err)
	}
	return nil
}

// followTaskwarrior mirrors a Taskwarrior start or stop onto the tracked task with the same UUID,
// creating it on first sight.
func followTaskwarrior(a *app, twTask taskwarrior.Task) error {
	if twTask.UUID == "" {
		return nil
	}
	task, err := a.tracker.Get(twTask.UUID)
	if errors.Is(err, tracker.ErrTaskNotFound) {
		if !taskwarrior.IsActive(twTask) {
			return nil
		}
		a.tracker.Import([]model.Task{taskwarrior.Meta(twTask)})
		return a.tracker.Start(twTask.UUID, a.now)
	}
	if err != nil {
		return err
	}
	switch active := taskwarrior.IsActive(twTask); {
	case active && !task.IsRunning():
		return a.tracker.Start(task.ID, a.now)
	case !active && task.IsRunning():
		_, err := a.tracker.Stop(task.ID, a.now)
		return err
	}
	return nil
}

var (
	syncCalendar string
	syncFrom     string
	syncTo       string
	syncSweep    bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror tracked time into Google Calendar (today by default)",
	Args:  cobra.NoArgs,
	RunE: withApp(false, func(ctx context.Context, a *app, _ []string) error {
		calendarName := a.cfg.Calendar
		if syncCalendar != "" {
			calendarName = syncCalendar
		}
		today := timeutil.ISODate(a.now.In(a.loc))
		from, to := today, today
		if syncFrom != "" {
			from = syncFrom
		}
		if syncTo != "" {
			to = syncTo
		}
		start, end, err := rangeArgs(from, to, a.loc)
		if err != nil {
			return err
		}

		dir, err := config.Dir()
		if err != nil {
			return err
		}
		evtIndex, err := index.NewEventIndex(dir)
		if err != nil {
			log.Printf("Warning: failed to initialize event index: %v", err)
		}
		colorCache, err := colors.NewColorCache(dir)
		if err != nil {
			log.Printf("Warning: failed to initialize color cache: %v", err)
		}

		gClient, err := google.NewClient(ctx, dir, calendarName, evtIndex, colorCache)
		if err != nil {
			return fmt.Errorf("error creating Google Calendar client: %w", err)
		}
		defer gClient.Flush()

		tasks := a.tracker.Tasks()
		stats := gClient.SyncRange(tasks, start, end, a.now)
		if syncSweep {
			n, err := gClient.SweepOrphans(ctx, tasks, start)
			if err != nil {
				log.Printf("Warning: orphan sweep stopped: %v", err)
			}
			stats.Pruned += n
		}
		fmt.Printf("Synced %d, pruned %d, skipped %d, failed %d\n", stats.Synced, stats.Pruned, stats.Skipped, stats.Failed)
		if stats.Failed > 0 {
			return fmt.Errorf("%d calendar operations failed", stats.Failed)
		}
		return nil
	}),
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with Google Calendar",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir, err := config.Dir()
		if err != nil {
			return fmt.Errorf("could not find path to configuration directory: %w", err)
		}
		if err := auth.ResetToken(dir); err != nil {
			return err
		}
		if _, err := auth.GetCalendarService(cmd.Context(), dir); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
		log.Printf("Authentication successful! Token saved to %s", auth.TokenFile)
		return nil
	},
}

func init() {
	importCmd.PersistentFlags().StringVarP(&importProject, "project", "p", "", "Only import tasks of this project (org)")
	importCmd.AddCommand(importOrgCmd, importTaskwarriorCmd)

	syncCmd.Flags().StringVar(&syncCalendar, "calendar", "", "Google Calendar name (overrides config)")
	syncCmd.Flags().StringVar(&syncFrom, "from", "", "First day, YYYY-MM-DD")
	syncCmd.Flags().StringVar(&syncTo, "to", "", "Last day, YYYY-MM-DD")
	syncCmd.Flags().BoolVar(&syncSweep, "sweep", false, "Also delete unindexed calendar events of removed logs from --from on")
}
