package billing

import (
	"fmt"
	"time"
)

// =============================================================================
// WEEK - One billing week with its full date sequence
// =============================================================================

// Week is one ordered billing week. Index is 0-based internally; report
// labels use the 1-based index. StartLabel/EndLabel keep the ORIGINAL,
// unparsed date strings because reports must reproduce them verbatim.
type Week struct {
	Index      int
	Start      time.Time
	End        time.Time
	StartLabel string
	EndLabel   string
	Days       []time.Time
}

// Label returns the human-readable week label used in both reports,
// e.g. "Week 1: 10/12/2023 - 17/12/2023".
func (w Week) Label() string {
	return fmt.Sprintf("Week %d: %s - %s", w.Index+1, w.StartLabel, w.EndLabel)
}

// Contains reports whether the date falls within [Start, End].
func (w Week) Contains(date time.Time) bool {
	return !date.Before(w.Start) && !date.After(w.End)
}

// =============================================================================
// CALENDAR - The fixed, ordered set of billing weeks
// =============================================================================

// Calendar is the ordered list of billing weeks. Built once at startup from
// the configured week ranges; immutable thereafter.
type Calendar struct {
	Weeks []Week
}

// dayFirstLayouts are the accepted day-before-month date layouts.
var dayFirstLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
}

// ParseDayFirst parses a date string with day-before-month interpretation.
// Returns ErrInvalidDateFormat (wrapped) if no layout matches.
func ParseDayFirst(s string) (time.Time, error) {
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &InvalidDateError{Input: s}
}

// BuildCalendar converts the configured week ranges into Weeks, each carrying
// the full inclusive sequence of calendar dates it spans. Weeks may be any
// length; pro-rating always divides by 7 (see stay.go), so non-7-day weeks
// produce skewed charges. That matches the reference weekly-charge unit and
// is an accepted policy, not something to correct here.
func BuildCalendar(ranges []WeekRange) (*Calendar, error) {
	weeks := make([]Week, 0, len(ranges))
	for i, r := range ranges {
		start, err := ParseDayFirst(r.Start)
		if err != nil {
			return nil, err
		}
		end, err := ParseDayFirst(r.End)
		if err != nil {
			return nil, err
		}

		week := Week{
			Index:      i,
			Start:      start,
			End:        end,
			StartLabel: r.Start,
			EndLabel:   r.End,
		}
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			week.Days = append(week.Days, d)
		}
		weeks = append(weeks, week)
	}
	return &Calendar{Weeks: weeks}, nil
}

// Len returns the number of billing weeks.
func (c *Calendar) Len() int { return len(c.Weeks) }

// ValidIndex reports whether i is a usable 0-based week index.
func (c *Calendar) ValidIndex(i int) bool { return i >= 0 && i < len(c.Weeks) }
