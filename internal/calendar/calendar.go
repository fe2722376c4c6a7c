// Package calendar expands recurring events from the handbook's event
// data into an ICS feed for subscription.
package calendar

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTimezone anchors naive event times.
const DefaultTimezone = "Europe/Berlin"

// EventsFile is the YAML shape of data/events.yml.
type EventsFile struct {
	Timezone string  `yaml:"timezone,omitempty"`
	Events   []Event `yaml:"events"`
}

// Event is one (possibly recurring) calendar entry.
type Event struct {
	Title       string `yaml:"title"`
	Start       string `yaml:"start"`
	End         string `yaml:"end"`
	Location    string `yaml:"location,omitempty"`
	Description string `yaml:"description,omitempty"`
	Color       string `yaml:"color,omitempty"`
	// Recurrence is an RFC 5545 RRULE (FREQ=DAILY/WEEKLY/MONTHLY with
	// INTERVAL, COUNT, UNTIL, and BYDAY for weekly rules).
	Recurrence string `yaml:"recurrence,omitempty"`
}

// Occurrence is a single expanded event instance.
type Occurrence struct {
	Start       time.Time
	End         time.Time
	Title       string
	Location    string
	Description string
}

// LoadEvents reads and parses the events file.
func LoadEvents(path string) (*EventsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading events file: %w", err)
	}

	var ef EventsFile
	if err := yaml.Unmarshal(data, &ef); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &ef, nil
}

// ParseTime accepts "YYYY-MM-DD HH:MM" or RFC 3339 and returns the
// time anchored in loc.
func ParseTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)

	if strings.Contains(value, "T") {
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			// RFC 3339 without offset: anchor in loc.
			t, err = time.ParseInLocation("2006-01-02T15:04:05", value, loc)
			if err != nil {
				return time.Time{}, fmt.Errorf("parsing time %q: %w", value, err)
			}
			return t, nil
		}
		return t.In(loc), nil
	}

	t, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", value, err)
	}
	return t, nil
}

// Expand turns the event list into concrete occurrences, expanding
// recurrence rules up to horizon past each series start. Occurrences
// are sorted by start time.
func Expand(ef *EventsFile, horizon time.Duration) ([]Occurrence, error) {
	tz := ef.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", tz, err)
	}

	var out []Occurrence
	for i, ev := range ef.Events {
		start, err := ParseTime(ev.Start, loc)
		if err != nil {
			return nil, fmt.Errorf("event %d (%s): %w", i+1, ev.Title, err)
		}
		end, err := ParseTime(ev.End, loc)
		if err != nil {
			return nil, fmt.Errorf("event %d (%s): %w", i+1, ev.Title, err)
		}
		duration := end.Sub(start)

		starts := []time.Time{start}
		if ev.Recurrence != "" {
			starts, err = expandRule(ev.Recurrence, start, horizon)
			if err != nil {
				return nil, fmt.Errorf("event %d (%s): %w", i+1, ev.Title, err)
			}
		}

		for _, s := range starts {
			out = append(out, Occurrence{
				Start:       s,
				End:         s.Add(duration),
				Title:       ev.Title,
				Location:    ev.Location,
				Description: ev.Description,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// rule is the supported RRULE subset.
type rule struct {
	freq     string
	interval int
	count    int
	until    time.Time
	byDay    []time.Weekday
}

var weekdayNames = map[string]time.Weekday{
	"MO": time.Monday, "TU": time.Tuesday, "WE": time.Wednesday,
	"TH": time.Thursday, "FR": time.Friday, "SA": time.Saturday, "SU": time.Sunday,
}

func parseRule(raw string, loc *time.Location) (*rule, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "RRULE:")

	r := &rule{interval: 1}
	for _, part := range strings.Split(raw, ";") {
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("malformed rule part %q", part)
		}
		switch strings.ToUpper(name) {
		case "FREQ":
			r.freq = strings.ToUpper(value)
		case "INTERVAL":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("invalid INTERVAL %q", value)
			}
			r.interval = n
		case "COUNT":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("invalid COUNT %q", value)
			}
			r.count = n
		case "UNTIL":
			t, err := parseUntil(value, loc)
			if err != nil {
				return nil, err
			}
			r.until = t
		case "BYDAY":
			for _, d := range strings.Split(value, ",") {
				wd, ok := weekdayNames[strings.ToUpper(strings.TrimSpace(d))]
				if !ok {
					return nil, fmt.Errorf("unsupported BYDAY value %q", d)
				}
				r.byDay = append(r.byDay, wd)
			}
		default:
			// Ignore parts we do not support rather than dropping the
			// whole event.
		}
	}

	switch r.freq {
	case "DAILY", "WEEKLY", "MONTHLY":
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported FREQ %q", r.freq)
	}
}

func parseUntil(value string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{"20060102T150405Z", "20060102T150405", "20060102"} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid UNTIL %q", value)
}

// expandRule generates occurrence starts for a recurrence rule. The
// horizon bounds open-ended rules.
func expandRule(raw string, start time.Time, horizon time.Duration) ([]time.Time, error) {
	r, err := parseRule(raw, start.Location())
	if err != nil {
		return nil, err
	}

	limit := start.Add(horizon)
	if !r.until.IsZero() && r.until.Before(limit) {
		limit = r.until
	}

	var out []time.Time
	emit := func(t time.Time) bool {
		if t.After(limit) {
			return false
		}
		out = append(out, t)
		return r.count == 0 || len(out) < r.count
	}

	switch r.freq {
	case "DAILY":
		for t := start; emit(t); t = t.AddDate(0, 0, r.interval) {
		}
	case "MONTHLY":
		for t := start; emit(t); t = t.AddDate(0, r.interval, 0) {
		}
	case "WEEKLY":
		days := r.byDay
		if len(days) == 0 {
			days = []time.Weekday{start.Weekday()}
		}
		// Walk day by day from the series start, emitting matching
		// weekdays in active weeks.
		weekStart := start.AddDate(0, 0, -mondayOffset(start))
	weekly:
		for week := 0; ; week += r.interval {
			base := weekStart.AddDate(0, 0, 7*week)
			for d := 0; d < 7; d++ {
				t := base.AddDate(0, 0, d)
				if t.Before(start) || !matchesWeekday(t, days) {
					continue
				}
				occ := time.Date(t.Year(), t.Month(), t.Day(),
					start.Hour(), start.Minute(), 0, 0, start.Location())
				if !emit(occ) {
					break weekly
				}
			}
			if base.After(limit) {
				break
			}
		}
	}

	return out, nil
}

func mondayOffset(t time.Time) int {
	// time.Weekday is Sunday-based; ICS weeks start on Monday.
	return (int(t.Weekday()) + 6) % 7
}

func matchesWeekday(t time.Time, days []time.Weekday) bool {
	for _, d := range days {
		if t.Weekday() == d {
			return true
		}
	}
	return false
}
