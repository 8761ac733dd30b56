// Package timeutil holds calendar boundary and formatting helpers.
//
// The calendar authority is always the location of the time passed in: boundaries and
// ISO strings are computed from the same calendar fields, so a day never shifts between
// bucketing and formatting.
package timeutil

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

const (
	isoDateLayout  = "2006-01-02"
	isoMonthLayout = "2006-01"
)

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// NextDay returns midnight at the start of the following calendar day.
func NextDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

func FirstDayOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// LastDayOfMonth returns 23:59:59.999 on the last day of t's month.
// Day zero of the next month normalizes to the last day of this one.
func LastDayOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m+1, 0, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// NextMonth returns midnight on day 1 of the following month.
func NextMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m+1, 1, 0, 0, 0, 0, t.Location())
}

// PrevMonth returns day 1 of the preceding month, keeping t's clock.
func PrevMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, m-1, 1, h, mi, s, t.Nanosecond(), t.Location())
}

func ISODate(t time.Time) string {
	return t.Format(isoDateLayout)
}

func ISOMonth(t time.Time) string {
	return t.Format(isoMonthLayout)
}

// ParseISODate parses YYYY-MM-DD as midnight in loc.
func ParseISODate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(isoDateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// ParseISOMonth parses YYYY-MM as midnight on day 1 in loc.
func ParseISOMonth(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(isoMonthLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q (want YYYY-MM): %w", s, err)
	}
	return t, nil
}

// FromMillis converts epoch milliseconds to a time in loc.
func FromMillis(ms int64, loc *time.Location) time.Time {
	return time.UnixMilli(ms).In(loc)
}

const ukrainianLabels = 1

var (
	labelTags  = []language.Tag{language.English, language.Ukrainian}
	monthNames = [][12]string{
		{"January", "February", "March", "April", "May", "June",
			"July", "August", "September", "October", "November", "December"},
		{"січень", "лютий", "березень", "квітень", "травень", "червень",
			"липень", "серпень", "вересень", "жовтень", "листопад", "грудень"},
	}
	labelMatcher = language.NewMatcher(labelTags)
)

// MonthLabel renders "Month Year" for display in the closest supported locale.
// It is never used for comparisons.
func MonthLabel(t time.Time, tag language.Tag) string {
	_, idx, _ := labelMatcher.Match(tag)
	name := monthNames[idx][t.Month()-1]
	if idx == ukrainianLabels {
		return fmt.Sprintf("%s %d р.", name, t.Year())
	}
	return fmt.Sprintf("%s %d", name, t.Year())
}

// FormatMs renders ms as [-]HH:MM, truncating toward zero.
func FormatMs(ms int64) string {
	sign, ms := splitSign(ms)
	h, m := ms/3600000, (ms%3600000)/60000
	return fmt.Sprintf("%s%02d:%02d", sign, h, m)
}

// FormatMsS renders ms as [-]HH:MM:SS, truncating toward zero.
func FormatMsS(ms int64) string {
	sign, ms := splitSign(ms)
	h, m, s := ms/3600000, (ms%3600000)/60000, (ms%60000)/1000
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, h, m, s)
}

func splitSign(ms int64) (string, int64) {
	if ms < 0 {
		return "-", -ms
	}
	return "", ms
}
