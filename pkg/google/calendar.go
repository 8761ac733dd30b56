package google

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/harrisonrobin/tempo/pkg/colors"
	"github.com/harrisonrobin/tempo/pkg/index"
	"github.com/harrisonrobin/tempo/pkg/model"
	"github.com/harrisonrobin/tempo/pkg/util"
	"google.golang.org/api/calendar/v3"
)

// EventService is the slice of the Calendar events API the client needs.
type EventService interface {
	Get(eventID string) (*calendar.Event, error)
	Insert(event *calendar.Event) (*calendar.Event, error)
	Patch(eventID string, patch *calendar.Event) (*calendar.Event, error)
	Delete(eventID string) error
	List(ctx context.Context, timeMin time.Time) ([]*calendar.Event, error)
	FindByPrivateProperty(key, value string) ([]*calendar.Event, error)
}

// calendarEvents implements EventService on one calendar of a Calendar service.
type calendarEvents struct {
	srv        *calendar.Service
	calendarID string
}

func (c *calendarEvents) Get(eventID string) (*calendar.Event, error) {
	return c.srv.Events.Get(c.calendarID, eventID).Do()
}

func (c *calendarEvents) Insert(event *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Insert(c.calendarID, event).Do()
}

func (c *calendarEvents) Patch(eventID string, patch *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Patch(c.calendarID, eventID, patch).Do()
}

func (c *calendarEvents) Delete(eventID string) error {
	return c.srv.Events.Delete(c.calendarID, eventID).Do()
}

// List follows nextPageToken until every event from timeMin on has been fetched.
func (c *calendarEvents) List(ctx context.Context, timeMin time.Time) ([]*calendar.Event, error) {
	var items []*calendar.Event
	err := c.srv.Events.List(c.calendarID).TimeMin(timeMin.Format(time.RFC3339)).
		Pages(ctx, func(page *calendar.Events) error {
			items = append(items, page.Items...)
			return nil
		})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (c *calendarEvents) FindByPrivateProperty(key, value string) ([]*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", key, value)).
		Do()
	if err != nil {
		return nil, err
	}
	return events.Items, nil
}

// CalendarClient mirrors task logs into a Google Calendar.
type CalendarClient struct {
	events EventService
	index  *index.EventIndex
	colors *colors.ColorCache
}

// NewCalendarClient creates a client for one calendar. idx and cache may be nil.
func NewCalendarClient(srv *calendar.Service, calendarID string, idx *index.EventIndex, cache *colors.ColorCache) *CalendarClient {
	return newCalendarClient(&calendarEvents{srv: srv, calendarID: calendarID}, idx, cache)
}

func newCalendarClient(events EventService, idx *index.EventIndex, cache *colors.ColorCache) *CalendarClient {
	return &CalendarClient{events: events, index: idx, colors: cache}
}

func (c *CalendarClient) colorFor(project string) string {
	if c.colors == nil {
		return colors.NoProjectColor
	}
	return c.colors.GetColorID(project)
}

// SyncEvent creates the event for a log or patches the existing one.
func (c *CalendarClient) SyncEvent(task *model.Task, l model.Log, running bool) (*calendar.Event, error) {
	event, err := util.ConvertLogToCalendarEvent(task, l, c.colorFor(task.Project), running)
	if err != nil {
		return nil, err
	}
	key := util.LogKey(task.ID, l.Start)

	var existingEvent *calendar.Event
	// 1. Try local index first
	if c.index != nil {
		if eventID := c.index.Get(key); eventID != "" {
			existingEvent, err = c.events.Get(eventID)
			if err != nil || existingEvent.Status == "cancelled" {
				existingEvent = nil
			}
		}
	}

	// 2. Fallback to API search if not found in index or index failed
	if existingEvent == nil {
		existingEvent, err = c.GetEventByLogKey(key)
		if err != nil {
			return nil, fmt.Errorf("error searching for event: %w", err)
		}
	}

	if existingEvent != nil {
		patch, err := util.EventNeedsUpdate(existingEvent, event)
		if err != nil {
			log.Printf("could not compare log %s with its calendar event: %v", key, err)
			return nil, err
		}
		if patch == nil {
			c.remember(key, existingEvent.Id)
			return existingEvent, nil
		}
		updatedEvent, err := c.events.Patch(existingEvent.Id, patch)
		if err != nil {
			return nil, err
		}
		c.remember(key, updatedEvent.Id)
		return updatedEvent, nil
	}

	createdEvent, err := c.events.Insert(event)
	if err != nil {
		return nil, err
	}
	c.remember(key, createdEvent.Id)
	return createdEvent, nil
}

func (c *CalendarClient) remember(key, eventID string) {
	if c.index != nil {
		c.index.Set(key, eventID)
	}
}

// DeleteEvent deletes an event from the calendar.
func (c *CalendarClient) DeleteEvent(eventID string) error {
	return c.events.Delete(eventID)
}

// ListEvents fetches events from the calendar starting at timeMin.
func (c *CalendarClient) ListEvents(ctx context.Context, timeMin time.Time) ([]*calendar.Event, error) {
	events, err := c.events.List(ctx, timeMin)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve events from calendar: %w", err)
	}
	return events, nil
}

// GetEventByLogKey searches for the event carrying the log key in its extended properties.
func (c *CalendarClient) GetEventByLogKey(key string) (*calendar.Event, error) {
	events, err := c.events.FindByPrivateProperty(util.LogIDProperty, key)
	if err != nil {
		return nil, err
	}
	if len(events) > 0 {
		return events[0], nil
	}
	return nil, nil
}
