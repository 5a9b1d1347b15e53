// Package day provides the calendar-day value used as the completion key.
//
// A Day is a count of whole days since 1970-01-01 UTC. Every instant that falls
// on the same UTC calendar date maps to the same Day, so Days can be compared,
// deduplicated and subtracted with plain integer arithmetic.
package day

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Layout is the wire and storage format of a Day.
const Layout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

type Day int64

// Of normalizes t to its UTC calendar date.
func Of(t time.Time) Day {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Day(midnight.Unix() / secondsPerDay)
}

// Today returns the Day containing now.
func Today(now func() time.Time) Day {
	if now == nil {
		now = time.Now
	}
	return Of(now())
}

// Date builds a Day from a UTC year, month and day of month.
func Date(year int, month time.Month, dom int) Day {
	return Of(time.Date(year, month, dom, 0, 0, 0, 0, time.UTC))
}

// Parse accepts either a bare date (2006-01-02) or an RFC 3339 timestamp.
// Timestamps are normalized through Of.
func Parse(s string) (Day, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("parse day: empty value")
	}
	if t, err := time.Parse(Layout, s); err == nil {
		return Of(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, fmt.Errorf("parse day %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return Of(t), nil
}

// Time returns UTC midnight of d.
func (d Day) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

func (d Day) AddDays(n int) Day {
	return d + Day(n)
}

// Sub returns the number of calendar days from o to d.
func (d Day) Sub(o Day) int {
	return int(d - o)
}

func (d Day) Before(o Day) bool { return d < o }
func (d Day) After(o Day) bool  { return d > o }

func (d Day) String() string {
	return d.Time().Format(Layout)
}

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("day must be a string: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores a Day as its YYYY-MM-DD text form.
func (d Day) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *Day) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*d = parsed
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*d = parsed
	case time.Time:
		*d = Of(v)
	default:
		return fmt.Errorf("scan day: unsupported type %T", src)
	}
	return nil
}

// Range is an inclusive window of days.
type Range struct {
	Start Day `json:"start"`
	End   Day `json:"end"`
}

// Trailing returns the window of n days ending at (and including) end.
func Trailing(end Day, n int) Range {
	if n < 1 {
		n = 1
	}
	return Range{Start: end.AddDays(-(n - 1)), End: end}
}

func (r Range) Contains(d Day) bool {
	return d >= r.Start && d <= r.End
}

// Len returns the number of days in r.
func (r Range) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End.Sub(r.Start) + 1
}

// MonthRange returns the window covering every day of the given month.
func MonthRange(year int, month time.Month) Range {
	first := Date(year, month, 1)
	next := Of(first.Time().AddDate(0, 1, 0))
	return Range{Start: first, End: next.AddDays(-1)}
}
