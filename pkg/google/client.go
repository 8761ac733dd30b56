package google

import (
	"context"
	"fmt"

	"github.com/harrisonrobin/tempo/pkg/auth"
	"github.com/harrisonrobin/tempo/pkg/colors"
	"github.com/harrisonrobin/tempo/pkg/index"
)

// NewClient authenticates and resolves calendarName to a calendar ID.
func NewClient(ctx context.Context, dir, calendarName string, idx *index.EventIndex, cache *colors.ColorCache) (*CalendarClient, error) {
	srv, err := auth.GetCalendarService(ctx, dir)
	if err != nil {
		return nil, err
	}

	calendarList, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve calendar list: %w", err)
	}

	var calendarID string
	for _, item := range calendarList.Items {
		if item.Summary == calendarName {
			calendarID = item.Id
			break
		}
	}
	if calendarID == "" {
		return nil, fmt.Errorf("calendar '%s' not found", calendarName)
	}

	return NewCalendarClient(srv, calendarID, idx, cache), nil
}
