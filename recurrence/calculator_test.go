package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldops-scheduler/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name    string
		pattern models.Pattern
		from    time.Time
		want    time.Time
	}{
		{
			name:    "weekly mon/wed from sunday",
			pattern: models.WeeklyPattern{Every: 1, DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday}},
			from:    date(2024, time.May, 5),
			want:    date(2024, time.May, 6),
		},
		{
			name:    "weekly mon/wed from monday",
			pattern: models.WeeklyPattern{Every: 1, DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday}},
			from:    date(2024, time.May, 6),
			want:    date(2024, time.May, 8),
		},
		{
			name:    "weekly is strictly after from",
			pattern: models.WeeklyPattern{Every: 1, DaysOfWeek: []time.Weekday{time.Monday}},
			from:    date(2024, time.May, 6),
			want:    date(2024, time.May, 13),
		},
		{
			name:    "biweekly jumps two weeks",
			pattern: models.WeeklyPattern{Every: 2, DaysOfWeek: []time.Weekday{time.Monday}},
			from:    date(2024, time.May, 6),
			want:    date(2024, time.May, 20),
		},
		{
			name:    "day 31 clamps to april 30",
			pattern: models.DayOfMonthPattern{Every: 1, Day: 31},
			from:    date(2024, time.April, 1),
			want:    date(2024, time.April, 30),
		},
		{
			name:    "day 31 clamps to leap february",
			pattern: models.DayOfMonthPattern{Every: 1, Day: 31},
			from:    date(2024, time.January, 31),
			want:    date(2024, time.February, 29),
		},
		{
			name:    "day of month every 3 months",
			pattern: models.DayOfMonthPattern{Every: 3, Day: 15},
			from:    date(2024, time.January, 15),
			want:    date(2024, time.April, 15),
		},
		{
			name:    "second tuesday when month starts on tuesday",
			pattern: models.NthWeekdayPattern{Every: 1, Nth: 2, Weekday: time.Tuesday},
			from:    date(2024, time.September, 30),
			want:    date(2024, time.October, 8),
		},
		{
			name:    "fifth friday skips months without one",
			pattern: models.NthWeekdayPattern{Every: 1, Nth: 5, Weekday: time.Friday},
			from:    date(2024, time.November, 29),
			want:    date(2025, time.January, 31),
		},
		{
			name:    "feb 29 clamps in non-leap year",
			pattern: models.YearlyPattern{Month: time.February, Day: 29},
			from:    date(2025, time.January, 1),
			want:    date(2025, time.February, 28),
		},
		{
			name:    "feb 29 in leap year",
			pattern: models.YearlyPattern{Month: time.February, Day: 29},
			from:    date(2023, time.March, 1),
			want:    date(2024, time.February, 29),
		},
		{
			name:    "yearly rolls to next year",
			pattern: models.YearlyPattern{Month: time.June, Day: 1},
			from:    date(2024, time.June, 1),
			want:    date(2025, time.June, 1),
		},
		{
			name:    "pointer variants are accepted",
			pattern: &models.DayOfMonthPattern{Every: 1, Day: 10},
			from:    date(2024, time.March, 10),
			want:    date(2024, time.April, 10),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextOccurrence(tt.pattern, tt.from, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.After(tt.from))
		})
	}
}

func TestNextOccurrence_SkipDatesAdvanceByDay(t *testing.T) {
	monday := models.WeeklyPattern{Every: 1, DaysOfWeek: []time.Weekday{time.Monday}}

	got, err := NextOccurrence(monday, date(2024, time.May, 5), []time.Time{date(2024, time.May, 6)}, nil)
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.May, 7), got)
}

func TestNextOccurrence_Blackouts(t *testing.T) {
	monday := models.WeeklyPattern{Every: 1, DaysOfWeek: []time.Weekday{time.Monday}}

	t.Run("range is inclusive", func(t *testing.T) {
		blackouts := []models.Blackout{{From: date(2024, time.May, 6), To: ptr(date(2024, time.May, 10))}}
		got, err := NextOccurrence(monday, date(2024, time.May, 5), nil, blackouts)
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.May, 11), got)
	})

	t.Run("open blackout covers one day", func(t *testing.T) {
		blackouts := []models.Blackout{{From: date(2024, time.May, 6)}}
		got, err := NextOccurrence(monday, date(2024, time.May, 5), nil, blackouts)
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.May, 7), got)
	})

	t.Run("skip and blackout chain", func(t *testing.T) {
		blackouts := []models.Blackout{{From: date(2024, time.May, 6)}}
		skips := []time.Time{date(2024, time.May, 7)}
		got, err := NextOccurrence(monday, date(2024, time.May, 5), skips, blackouts)
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.May, 8), got)
	})
}

func TestNextOccurrence_Exhausted(t *testing.T) {
	monday := models.WeeklyPattern{Every: 1, DaysOfWeek: []time.Weekday{time.Monday}}
	blackouts := []models.Blackout{{From: date(2024, time.May, 1), To: ptr(date(2027, time.May, 1))}}

	_, err := NextOccurrence(monday, date(2024, time.May, 5), nil, blackouts)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrRecurrenceExhausted)
}

func TestNextOccurrence_InvalidPattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern models.Pattern
	}{
		{"nil pattern", nil},
		{"weekly without days", models.WeeklyPattern{Every: 1}},
		{"weekly every zero", models.WeeklyPattern{Every: 0, DaysOfWeek: []time.Weekday{time.Monday}}},
		{"day of month 32", models.DayOfMonthPattern{Every: 1, Day: 32}},
		{"sixth weekday", models.NthWeekdayPattern{Every: 1, Nth: 6, Weekday: time.Monday}},
		{"april 31", models.YearlyPattern{Month: time.April, Day: 31}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NextOccurrence(tt.pattern, date(2024, time.May, 5), nil, nil)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestNextOccurrence_UsesFromLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2024-05-06 02:00 UTC is still Sunday evening in New York.
	from := time.Date(2024, time.May, 6, 2, 0, 0, 0, time.UTC).In(loc)
	monday := models.WeeklyPattern{Every: 1, DaysOfWeek: []time.Weekday{time.Monday}}

	got, err := NextOccurrence(monday, from, []time.Time{date(2024, time.May, 13)}, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.May, 6, 0, 0, 0, 0, loc), got)
	assert.Equal(t, loc, got.Location())
}

func TestPreview(t *testing.T) {
	pattern := models.WeeklyPattern{Every: 1, DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday}}

	got, err := Preview(pattern, date(2024, time.May, 5), 4, []time.Time{date(2024, time.May, 8)}, nil)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		date(2024, time.May, 6),
		date(2024, time.May, 9),
		date(2024, time.May, 13),
		date(2024, time.May, 15),
	}, got)
}

func TestPreview_InvalidPattern(t *testing.T) {
	_, err := Preview(models.DayOfMonthPattern{Every: 1, Day: 0}, date(2024, time.May, 5), 3, nil, nil)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestExcluded(t *testing.T) {
	blackouts := []models.Blackout{{From: date(2024, time.December, 24), To: ptr(date(2024, time.December, 26))}}

	assert.True(t, Excluded(date(2024, time.December, 24), nil, blackouts))
	assert.True(t, Excluded(date(2024, time.December, 26), nil, blackouts))
	assert.False(t, Excluded(date(2024, time.December, 27), nil, blackouts))
	assert.True(t, Excluded(date(2024, time.January, 1), []time.Time{date(2024, time.January, 1)}, nil))
}
