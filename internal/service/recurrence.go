package service

import (
	"time"

	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
)

// MaxOccurrences caps how many events one recurring request can create.
const MaxOccurrences = 52

// ExpandRecurrence returns the start times of every occurrence of a lunch
// event, beginning with start itself. Calendar arithmetic happens in loc so
// occurrences keep their local wall-clock time; results are UTC.
func ExpandRecurrence(start time.Time, rule *models.RecurrenceRule, loc *time.Location) ([]time.Time, error) {
	if rule == nil {
		return []time.Time{start.UTC()}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	local := start.In(loc)

	limit := MaxOccurrences
	if rule.Occurrences < 0 {
		return nil, invalid("occurrences cannot be negative")
	}
	if rule.Occurrences > 0 && rule.Occurrences < limit {
		limit = rule.Occurrences
	}

	var lastDay time.Time
	if rule.EndDate != nil {
		end := rule.EndDate.In(loc)
		lastDay = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)
		if lastDay.Before(dayOf(local)) {
			return nil, invalid("recurrence end date is before the first occurrence")
		}
	}
	within := func(t time.Time) bool {
		return lastDay.IsZero() || !dayOf(t).After(lastDay)
	}

	out := []time.Time{local.UTC()}
	add := func(t time.Time) bool {
		if !within(t) {
			return false
		}
		out = append(out, t.UTC())
		return len(out) < limit
	}
	if len(out) >= limit {
		return out, nil
	}

	switch rule.Frequency {
	case models.FrequencyWeekly:
		days, err := weekdaySet(rule.Days, local.Weekday())
		if err != nil {
			return nil, err
		}
		for i := 1; i <= 7*MaxOccurrences; i++ {
			t := local.AddDate(0, 0, i)
			if !days[t.Weekday()] {
				continue
			}
			if !add(t) {
				break
			}
		}
	case models.FrequencyMonthly:
		for i := 1; i <= 12*MaxOccurrences; i++ {
			t := sameDay(local, 0, i, loc)
			if t.IsZero() {
				continue
			}
			if !add(t) {
				break
			}
		}
	case models.FrequencyAnnually:
		for i := 1; i <= 4*MaxOccurrences; i++ {
			t := sameDay(local, i, 0, loc)
			if t.IsZero() {
				continue
			}
			if !add(t) {
				break
			}
		}
	default:
		return nil, invalid("unknown recurrence frequency %q", rule.Frequency)
	}
	return out, nil
}

// sameDay moves local by years and months keeping the day of month. It
// returns the zero time when the target month has no such day.
func sameDay(local time.Time, years, months int, loc *time.Location) time.Time {
	first := time.Date(local.Year()+years, local.Month()+time.Month(months), 1, 0, 0, 0, 0, loc)
	t := time.Date(first.Year(), first.Month(), local.Day(), local.Hour(), local.Minute(), local.Second(), 0, loc)
	if t.Month() != first.Month() {
		return time.Time{}
	}
	return t
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func weekdaySet(names []string, fallback time.Weekday) (map[time.Weekday]bool, error) {
	set := map[time.Weekday]bool{}
	for _, n := range names {
		d, ok := models.ParseWeekday(n)
		if !ok {
			return nil, invalid("unknown weekday %q", n)
		}
		set[d] = true
	}
	if len(set) == 0 {
		set[fallback] = true
	}
	return set, nil
}
