// Package recurrence computes occurrence dates for schedule plan patterns.
// Everything here is pure: no clock, no storage, no logging.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"fieldops-scheduler/models"
)

// Search bounds. Exceeding one yields models.ErrRecurrenceExhausted.
const (
	MaxWeeklyScanWeeks = 8
	MaxMonthlySteps    = 24
	MaxExclusionDays   = 731
)

// NextOccurrence returns the first calendar date strictly after fromExclusive
// that matches p and is neither a skip date nor inside a blackout. Dates are
// computed in fromExclusive's location and returned at midnight there.
func NextOccurrence(p models.Pattern, fromExclusive time.Time, skipDates []time.Time, blackouts []models.Blackout) (time.Time, error) {
	if p == nil {
		return time.Time{}, models.NewValidationError("pattern", "pattern is required")
	}
	if err := p.Validate(); err != nil {
		return time.Time{}, err
	}

	from := CalendarDate(fromExclusive, fromExclusive.Location())

	candidate, err := nextMatch(p, from)
	if err != nil {
		return time.Time{}, err
	}

	for i := 0; i <= MaxExclusionDays; i++ {
		if !Excluded(candidate, skipDates, blackouts) {
			return candidate, nil
		}
		// A skipped date rolls forward one day, not to the next pattern match.
		candidate = candidate.AddDate(0, 0, 1)
	}

	return time.Time{}, fmt.Errorf("%w: exclusions cover more than %d days after %s",
		models.ErrRecurrenceExhausted, MaxExclusionDays, from.Format(time.DateOnly))
}

// Preview returns up to n consecutive occurrences after fromExclusive. It
// stops early, without error, when the pattern is exhausted after at least
// one date was found.
func Preview(p models.Pattern, fromExclusive time.Time, n int, skipDates []time.Time, blackouts []models.Blackout) ([]time.Time, error) {
	out := make([]time.Time, 0, n)
	cursor := fromExclusive
	for len(out) < n {
		next, err := NextOccurrence(p, cursor, skipDates, blackouts)
		if err != nil {
			if len(out) > 0 && errors.Is(err, models.ErrRecurrenceExhausted) {
				break
			}
			return nil, err
		}
		out = append(out, next)
		cursor = next
	}
	return out, nil
}

func nextMatch(p models.Pattern, from time.Time) (time.Time, error) {
	switch v := p.(type) {
	case models.WeeklyPattern:
		return nextWeekly(v, from)
	case *models.WeeklyPattern:
		return nextWeekly(*v, from)
	case models.DayOfMonthPattern:
		return nextDayOfMonth(v, from)
	case *models.DayOfMonthPattern:
		return nextDayOfMonth(*v, from)
	case models.NthWeekdayPattern:
		return nextNthWeekday(v, from)
	case *models.NthWeekdayPattern:
		return nextNthWeekday(*v, from)
	case models.YearlyPattern:
		return nextYearly(v, from)
	case *models.YearlyPattern:
		return nextYearly(*v, from)
	}
	return time.Time{}, models.NewValidationError("pattern", fmt.Sprintf("unsupported pattern kind %q", p.Kind()))
}

// nextWeekly scans the Sunday-started week containing from, then every
// Every-th week after it.
func nextWeekly(p models.WeeklyPattern, from time.Time) (time.Time, error) {
	days := make(map[time.Weekday]bool, len(p.DaysOfWeek))
	for _, d := range p.DaysOfWeek {
		days[d] = true
	}

	weekStart := from.AddDate(0, 0, -int(from.Weekday()))
	for i := 0; i < MaxWeeklyScanWeeks; i++ {
		for d := 0; d < 7; d++ {
			day := weekStart.AddDate(0, 0, d)
			if day.After(from) && days[day.Weekday()] {
				return day, nil
			}
		}
		weekStart = weekStart.AddDate(0, 0, 7*p.Every)
	}

	return time.Time{}, fmt.Errorf("%w: weekly pattern matched nothing within %d weeks",
		models.ErrRecurrenceExhausted, MaxWeeklyScanWeeks)
}

func nextDayOfMonth(p models.DayOfMonthPattern, from time.Time) (time.Time, error) {
	loc := from.Location()
	y, m := from.Year(), from.Month()
	for i := 0; i < MaxMonthlySteps; i++ {
		day := min(p.Day, DaysIn(y, m))
		candidate := time.Date(y, m, day, 0, 0, 0, 0, loc)
		if candidate.After(from) {
			return candidate, nil
		}
		y, m = addMonths(y, m, p.Every)
	}

	return time.Time{}, fmt.Errorf("%w: day-of-month pattern matched nothing within %d steps",
		models.ErrRecurrenceExhausted, MaxMonthlySteps)
}

// nextNthWeekday skips months that have no nth weekday (a 5th Friday, say).
func nextNthWeekday(p models.NthWeekdayPattern, from time.Time) (time.Time, error) {
	loc := from.Location()
	y, m := from.Year(), from.Month()
	for i := 0; i < MaxMonthlySteps; i++ {
		first := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		offset := (int(p.Weekday) - int(first.Weekday()) + 7) % 7
		day := 1 + offset + (p.Nth-1)*7
		if day <= DaysIn(y, m) {
			candidate := time.Date(y, m, day, 0, 0, 0, 0, loc)
			if candidate.After(from) {
				return candidate, nil
			}
		}
		y, m = addMonths(y, m, p.Every)
	}

	return time.Time{}, fmt.Errorf("%w: nth-weekday pattern matched nothing within %d months",
		models.ErrRecurrenceExhausted, MaxMonthlySteps)
}

func nextYearly(p models.YearlyPattern, from time.Time) (time.Time, error) {
	loc := from.Location()
	for y := from.Year(); y <= from.Year()+1; y++ {
		day := min(p.Day, DaysIn(y, p.Month))
		candidate := time.Date(y, p.Month, day, 0, 0, 0, 0, loc)
		if candidate.After(from) {
			return candidate, nil
		}
	}
	// unreachable for a validated pattern
	return time.Time{}, fmt.Errorf("%w: yearly pattern", models.ErrRecurrenceExhausted)
}
