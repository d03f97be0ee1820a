// Package calendar loads the waste-collection ICS file into an in-memory
// date-to-category lookup. The schedule is built once at startup and is
// read-only afterwards; a restart picks up a refreshed calendar file.
package calendar

import (
	"fmt"
	"io"
	"os"
	"time"

	ics "github.com/arran4/golang-ical"
)

// dtstart values come either as a bare date or a full timestamp; only the
// date part matters for collection days.
const dateLayout = "20060102"

// Date is a calendar day, comparable and independent of time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates a time to its calendar day.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Time returns midnight of the day in the given location.
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns the day n days later.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time(time.UTC).AddDate(0, 0, n))
}

// After reports whether d falls after o.
func (d Date) After(o Date) bool {
	if d.Year != o.Year {
		return d.Year > o.Year
	}
	if d.Month != o.Month {
		return d.Month > o.Month
	}
	return d.Day > o.Day
}

func (d Date) String() string {
	return d.Time(time.UTC).Format("02.01.2006")
}

// Schedule is the waste-event map: collection dates in file order with
// their category codes.
type Schedule struct {
	dates []Date
	cans  map[Date]string
}

// Load reads an ICS file and keeps only events whose category code is in
// the selected set.
func Load(path string, selected []string) (*Schedule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open calendar: %w", err)
	}
	defer func() { _ = f.Close() }()

	s, err := Parse(f, selected)
	if err != nil {
		return nil, fmt.Errorf("calendar %s: %w", path, err)
	}
	return s, nil
}

// Parse builds a Schedule from ICS data. The category code of an event is
// the first three characters of its description; events without a
// selected code are dropped. Dates keep the file's chronological order,
// and a repeated date keeps its first position with the later code.
func Parse(r io.Reader, selected []string) (*Schedule, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse ics: %w", err)
	}

	keep := make(map[string]bool, len(selected))
	for _, code := range selected {
		keep[code] = true
	}

	s := &Schedule{cans: make(map[Date]string)}
	for _, event := range cal.Events() {
		desc := event.GetProperty(ics.ComponentPropertyDescription)
		if desc == nil {
			continue
		}
		code := desc.Value
		if len(code) > 3 {
			code = code[:3]
		}
		if !keep[code] {
			continue
		}

		start := event.GetProperty(ics.ComponentPropertyDtStart)
		if start == nil || len(start.Value) < len(dateLayout) {
			continue
		}
		day, err := time.Parse(dateLayout, start.Value[:len(dateLayout)])
		if err != nil {
			return nil, fmt.Errorf("event %q: bad start date %q", code, start.Value)
		}

		d := DateOf(day)
		if _, dup := s.cans[d]; !dup {
			s.dates = append(s.dates, d)
		}
		s.cans[d] = code
	}
	return s, nil
}

// Len returns the number of collection days.
func (s *Schedule) Len() int {
	return len(s.dates)
}

// CanOn returns the category code due on the given day.
func (s *Schedule) CanOn(d Date) (string, bool) {
	code, ok := s.cans[d]
	return code, ok
}

// Last returns the final known collection day, used to detect that the
// calendar data is running out.
func (s *Schedule) Last() (Date, bool) {
	if len(s.dates) == 0 {
		return Date{}, false
	}
	return s.dates[len(s.dates)-1], true
}

// NextAfter returns the first collection day strictly after d.
func (s *Schedule) NextAfter(d Date) (Date, string, bool) {
	for _, day := range s.dates {
		if day.After(d) {
			return day, s.cans[day], true
		}
	}
	return Date{}, "", false
}
