package google

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/harrisonrobin/tempo/pkg/interval"
	"github.com/harrisonrobin/tempo/pkg/model"
	"github.com/harrisonrobin/tempo/pkg/timeutil"
	"github.com/harrisonrobin/tempo/pkg/util"
)

// SyncStats summarizes one SyncRange run.
type SyncStats struct {
	Synced  int
	Pruned  int
	Skipped int
	Failed  int
}

// SyncRange mirrors every log overlapping the whole days from start to end, and each
// running interval up to now, into the calendar. Events indexed for logs that no longer
// exist in tasks are deleted.
func (c *CalendarClient) SyncRange(tasks []model.Task, start, end, now time.Time) SyncStats {
	var stats SyncStats
	c0 := timeutil.StartOfDay(start).UnixMilli()
	c1 := timeutil.NextDay(end.In(start.Location())).UnixMilli()
	nowMs := now.UnixMilli()
	live := liveKeys(tasks)

	for i := range tasks {
		t := &tasks[i]
		for _, l := range t.Logs {
			if l.Start <= 0 {
				stats.Skipped++
				continue
			}
			if interval.OverlapMs(l.Start, l.Start+l.Duration(), c0, c1) <= 0 {
				continue
			}
			c.syncOne(t, l, false, &stats)
		}
		if s, ok := t.RunningSince(); ok {
			if s <= nowMs && interval.OverlapMs(s, nowMs, c0, c1) > 0 {
				c.syncOne(t, model.Log{Start: s, End: nowMs}, true, &stats)
			}
		}
	}

	if c.index != nil {
		for _, key := range c.index.Keys() {
			if live[key] {
				continue
			}
			if err := c.DeleteEvent(c.index.Get(key)); err != nil {
				log.Printf("Sync: error deleting event for %s: %v", key, err)
				stats.Failed++
				continue
			}
			c.index.Remove(key)
			stats.Pruned++
		}
	}
	return stats
}

// SweepOrphans deletes calendar events from since onwards that carry a log key no task in
// tasks still has. It catches events the local index lost track of.
func (c *CalendarClient) SweepOrphans(ctx context.Context, tasks []model.Task, since time.Time) (int, error) {
	events, err := c.ListEvents(ctx, since)
	if err != nil {
		return 0, err
	}
	live := liveKeys(tasks)
	deleted := 0
	for _, e := range events {
		if e.ExtendedProperties == nil {
			continue
		}
		key, ok := e.ExtendedProperties.Private[util.LogIDProperty]
		if !ok || live[key] {
			continue
		}
		if err := c.DeleteEvent(e.Id); err != nil {
			return deleted, fmt.Errorf("delete orphan event %s: %w", e.Id, err)
		}
		if c.index != nil {
			c.index.Remove(key)
		}
		deleted++
	}
	return deleted, nil
}

// liveKeys returns the log keys of every log and running interval in tasks.
func liveKeys(tasks []model.Task) map[string]bool {
	live := make(map[string]bool)
	for _, t := range tasks {
		for _, l := range t.Logs {
			live[util.LogKey(t.ID, l.Start)] = true
		}
		if s, ok := t.RunningSince(); ok {
			live[util.LogKey(t.ID, s)] = true
		}
	}
	return live
}

func (c *CalendarClient) syncOne(t *model.Task, l model.Log, running bool, stats *SyncStats) {
	if _, err := c.SyncEvent(t, l, running); err != nil {
		log.Printf("Sync: error syncing log %s: %v", util.LogKey(t.ID, l.Start), err)
		stats.Failed++
		return
	}
	stats.Synced++
}

// Flush persists the index and color cache.
func (c *CalendarClient) Flush() {
	if c.index != nil {
		if err := c.index.Save(); err != nil {
			log.Printf("Warning: failed to save event index: %v", err)
		}
	}
	if c.colors != nil {
		if err := c.colors.Save(); err != nil {
			log.Printf("Warning: failed to save color cache: %v", err)
		}
	}
}
