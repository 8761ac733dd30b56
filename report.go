package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tempo/pkg/aggregate"
	"github.com/harrisonrobin/tempo/pkg/export"
	"github.com/harrisonrobin/tempo/pkg/model"
	"github.com/harrisonrobin/tempo/pkg/timeutil"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show tracked time for a day, a month or a range",
}

var reportDayCmd = &cobra.Command{
	Use:   "day [YYYY-MM-DD]",
	Short: "Per-task totals for one day (today by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(false, func(_ context.Context, a *app, args []string) error {
		date, err := dayArg(args, a)
		if err != nil {
			return err
		}
		tasks := a.tracker.Tasks()
		fmt.Println(headerStyle.Render(timeutil.ISODate(date)))
		printTaskTotals(tasks, func(task *model.Task) int64 {
			return aggregate.TotalForTaskOnDate(task, date, a.now)
		})
		printTotal(aggregate.TotalForDate(tasks, date, a.now))
		return nil
	}),
}

var reportMonthCmd = &cobra.Command{
	Use:   "month [YYYY-MM]",
	Short: "Per-task totals for one month (this month by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(false, func(_ context.Context, a *app, args []string) error {
		month := timeutil.FirstDayOfMonth(a.now.In(a.loc))
		if len(args) == 1 {
			m, err := timeutil.ParseISOMonth(args[0], a.loc)
			if err != nil {
				return err
			}
			month = m
		}
		tasks := a.tracker.Tasks()
		fmt.Println(headerStyle.Render(timeutil.MonthLabel(month, a.cfg.Lang())))
		printTaskTotals(tasks, func(task *model.Task) int64 {
			return aggregate.TotalForTaskInMonth(task, month, a.now)
		})
		printTotal(aggregate.TotalForMonth(tasks, month, a.now))
		return nil
	}),
}

var reportRangeCmd = &cobra.Command{
	Use:   "range <from> <to>",
	Short: "Per-day, per-task breakdown between two dates inclusive",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(false, func(_ context.Context, a *app, args []string) error {
		from, to, err := rangeArgs(args[0], args[1], a.loc)
		if err != nil {
			return err
		}
		rows := export.NewBuilder(a.cfg.Lang()).RowsForRange(a.tracker.Tasks(), from, to, a.now)
		if len(rows) == 0 {
			fmt.Println("No tracked time in range.")
			return nil
		}
		var total int64
		for _, r := range rows {
			fmt.Printf("%s  %s  %s%s\n", mutedStyle.Render(r.Date), durationStyle.Render(fmt.Sprintf("%8s", timeutil.FormatMs(r.Ms))),
				r.Title, mutedStyle.Render(tags(r.Project, r.Type)))
			total += r.Ms
		}
		printTotal(total)
		return nil
	}),
}

var (
	exportFrom string
	exportTo   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write tracked time as CSV to stdout",
}

var exportRowsCmd = &cobra.Command{
	Use:   "rows",
	Short: "One row per day and task",
	Args:  cobra.NoArgs,
	RunE: withApp(false, func(_ context.Context, a *app, _ []string) error {
		from, to, err := exportRange(a)
		if err != nil {
			return err
		}
		rows := export.NewBuilder(a.cfg.Lang()).RowsForRange(a.tracker.Tasks(), from, to, a.now)
		return export.WriteRowsCSV(os.Stdout, rows)
	}),
}

var exportTotalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "One row per task",
	Args:  cobra.NoArgs,
	RunE: withApp(false, func(_ context.Context, a *app, _ []string) error {
		from, to, err := exportRange(a)
		if err != nil {
			return err
		}
		totals := export.NewBuilder(a.cfg.Lang()).TaskTotalsForRange(a.tracker.Tasks(), from, to, a.now)
		return export.WriteTotalsCSV(os.Stdout, totals)
	}),
}

func printTaskTotals(tasks []model.Task, total func(*model.Task) int64) {
	for i := range tasks {
		task := &tasks[i]
		ms := total(task)
		if ms == 0 {
			continue
		}
		fmt.Printf("  %s  %s%s\n", durationStyle.Render(fmt.Sprintf("%8s", timeutil.FormatMs(ms))),
			task.Title, mutedStyle.Render(tags(task.Project, task.Type)))
	}
}

func printTotal(ms int64) {
	fmt.Println(totalStyle.Render("Total: " + timeutil.FormatMs(ms)))
}

func dayArg(args []string, a *app) (time.Time, error) {
	if len(args) == 0 {
		return timeutil.StartOfDay(a.now.In(a.loc)), nil
	}
	return timeutil.ParseISODate(args[0], a.loc)
}

func rangeArgs(fromArg, toArg string, loc *time.Location) (time.Time, time.Time, error) {
	from, err := timeutil.ParseISODate(fromArg, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := timeutil.ParseISODate(toArg, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("range end %s precedes start %s", toArg, fromArg)
	}
	return from, to, nil
}

// exportRange defaults to the current month when no bounds are given.
func exportRange(a *app) (time.Time, time.Time, error) {
	month := timeutil.FirstDayOfMonth(a.now.In(a.loc))
	from, to := timeutil.ISODate(month), timeutil.ISODate(timeutil.LastDayOfMonth(month))
	if exportFrom != "" {
		from = exportFrom
	}
	if exportTo != "" {
		to = exportTo
	}
	return rangeArgs(from, to, a.loc)
}

func init() {
	reportCmd.AddCommand(reportDayCmd, reportMonthCmd, reportRangeCmd)

	exportCmd.PersistentFlags().StringVar(&exportFrom, "from", "", "First day, YYYY-MM-DD (default: first of this month)")
	exportCmd.PersistentFlags().StringVar(&exportTo, "to", "", "Last day, YYYY-MM-DD (default: end of this month)")
	exportCmd.AddCommand(exportRowsCmd, exportTotalsCmd)
}
