package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/harrisonrobin/tempo/pkg/timeutil"
)

var (
	rowsHeader   = []string{"date", "title", "project", "type", "link", "duration", "hours"}
	totalsHeader = []string{"title", "project", "type", "link", "duration", "hours"}
)

func hours(ms int64) string {
	return strconv.FormatFloat(float64(ms)/3600000, 'f', 2, 64)
}

// WriteRowsCSV writes per-day rows with a header line.
func WriteRowsCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rowsHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range rows {
		rec := []string{r.Date, r.Title, r.Project, r.Type, r.Link, timeutil.FormatMs(r.Ms), hours(r.Ms)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write csv row for %s: %w", r.TaskID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTotalsCSV writes per-task totals with a header line.
func WriteTotalsCSV(w io.Writer, totals []TaskTotal) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(totalsHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, t := range totals {
		rec := []string{t.Title, t.Project, t.Type, t.Link, timeutil.FormatMs(t.Ms), hours(t.Ms)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write csv row for %s: %w", t.TaskID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
