package google

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

func TestCalendarEventsListFollowsPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("pageToken") {
		case "":
			fmt.Fprint(w, `{"items":[{"id":"e1"},{"id":"e2"}],"nextPageToken":"p2"}`)
		case "p2":
			fmt.Fprint(w, `{"items":[{"id":"e3"}]}`)
		default:
			http.Error(w, "unexpected page token", http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	events := &calendarEvents{srv: svc, calendarID: "work"}

	got, err := events.List(ctx, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 3 || got[2].Id != "e3" {
		t.Errorf("Expected 3 events across both pages, got %d", len(got))
	}
}
