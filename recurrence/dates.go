package recurrence

import (
	"time"

	"fieldops-scheduler/models"
)

// CalendarDate reads the year, month and day of t as written and returns
// that day's midnight in loc. Used for values that are dates, not instants
// (start/end dates, skip dates, blackout bounds).
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DayIn converts the instant t into loc and truncates it to midnight.
func DayIn(t time.Time, loc *time.Location) time.Time {
	return CalendarDate(t.In(loc), loc)
}

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// addMonths advances (year, month) by n months without normalising a day.
func addMonths(year int, month time.Month, n int) (int, time.Month) {
	idx := int(month) - 1 + n
	return year + idx/12, time.Month(idx%12 + 1)
}

// Excluded reports whether day falls on a skip date or inside a blackout.
func Excluded(day time.Time, skipDates []time.Time, blackouts []models.Blackout) bool {
	loc := day.Location()
	d := CalendarDate(day, loc)

	for _, s := range skipDates {
		if CalendarDate(s, loc).Equal(d) {
			return true
		}
	}

	for _, b := range blackouts {
		from := CalendarDate(b.From, loc)
		to := from
		if b.To != nil {
			to = CalendarDate(*b.To, loc)
		}
		if !d.Before(from) && !d.After(to) {
			return true
		}
	}

	return false
}
