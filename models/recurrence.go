package models

import "time"

type PatternKind string

const (
	PatternWeekly     PatternKind = "weekly"
	PatternDayOfMonth PatternKind = "dayOfMonth"
	PatternNthWeekday PatternKind = "nthWeekday"
	PatternYearly     PatternKind = "yearly"
)

// Pattern is an abstract repetition rule. The four variants below are the
// only implementations.
type Pattern interface {
	Kind() PatternKind
	Validate() error
	isPattern()
}

// WeeklyPattern repeats every N weeks on the given weekdays.
type WeeklyPattern struct {
	Every      int            `json:"every" dynamodbav:"every"`
	DaysOfWeek []time.Weekday `json:"daysOfWeek" dynamodbav:"daysOfWeek"`
}

// DayOfMonthPattern repeats every N months on a fixed day, clamped to the
// month's last day.
type DayOfMonthPattern struct {
	Every int `json:"every" dynamodbav:"every"`
	Day   int `json:"day" dynamodbav:"day"`
}

// NthWeekdayPattern repeats every N months on the nth weekday ("2nd Tuesday").
type NthWeekdayPattern struct {
	Every   int          `json:"every" dynamodbav:"every"`
	Nth     int          `json:"nth" dynamodbav:"nth"`
	Weekday time.Weekday `json:"weekday" dynamodbav:"weekday"`
}

// YearlyPattern repeats on a fixed calendar date. Feb 29 falls on Feb 28 in
// non-leap years.
type YearlyPattern struct {
	Month time.Month `json:"month" dynamodbav:"month"`
	Day   int        `json:"day" dynamodbav:"day"`
}

func (WeeklyPattern) Kind() PatternKind     { return PatternWeekly }
func (DayOfMonthPattern) Kind() PatternKind { return PatternDayOfMonth }
func (NthWeekdayPattern) Kind() PatternKind { return PatternNthWeekday }
func (YearlyPattern) Kind() PatternKind     { return PatternYearly }

func (WeeklyPattern) isPattern()     {}
func (DayOfMonthPattern) isPattern() {}
func (NthWeekdayPattern) isPattern() {}
func (YearlyPattern) isPattern()     {}

func (p WeeklyPattern) Validate() error {
	if p.Every < 1 {
		return NewValidationError("pattern.weekly.every", "must be at least 1")
	}
	if len(p.DaysOfWeek) == 0 {
		return NewValidationError("pattern.weekly.daysOfWeek", "at least one weekday is required")
	}
	for _, d := range p.DaysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			return NewValidationError("pattern.weekly.daysOfWeek", "weekdays must be between 0 (Sunday) and 6 (Saturday)")
		}
	}
	return nil
}

func (p DayOfMonthPattern) Validate() error {
	if p.Every < 1 {
		return NewValidationError("pattern.dayOfMonth.every", "must be at least 1")
	}
	if p.Day < 1 || p.Day > 31 {
		return NewValidationError("pattern.dayOfMonth.day", "must be between 1 and 31")
	}
	return nil
}

func (p NthWeekdayPattern) Validate() error {
	if p.Every < 1 {
		return NewValidationError("pattern.nthWeekday.every", "must be at least 1")
	}
	if p.Nth < 1 || p.Nth > 5 {
		return NewValidationError("pattern.nthWeekday.nth", "must be between 1 and 5")
	}
	if p.Weekday < time.Sunday || p.Weekday > time.Saturday {
		return NewValidationError("pattern.nthWeekday.weekday", "must be between 0 (Sunday) and 6 (Saturday)")
	}
	return nil
}

// maxDayInMonth uses a leap year so Feb 29 is accepted.
var maxDayInMonth = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func (p YearlyPattern) Validate() error {
	if p.Month < time.January || p.Month > time.December {
		return NewValidationError("pattern.yearly.month", "must be between 1 and 12")
	}
	if p.Day < 1 || p.Day > maxDayInMonth[p.Month] {
		return NewValidationError("pattern.yearly.day", "day does not exist in the given month")
	}
	return nil
}

// RecurrenceRule is the stored form of a Pattern: exactly one field is set.
type RecurrenceRule struct {
	Weekly     *WeeklyPattern     `json:"weekly,omitempty" dynamodbav:"weekly,omitempty"`
	DayOfMonth *DayOfMonthPattern `json:"dayOfMonth,omitempty" dynamodbav:"dayOfMonth,omitempty"`
	NthWeekday *NthWeekdayPattern `json:"nthWeekday,omitempty" dynamodbav:"nthWeekday,omitempty"`
	Yearly     *YearlyPattern     `json:"yearly,omitempty" dynamodbav:"yearly,omitempty"`
}

// RuleFor wraps a pattern into its stored form.
func RuleFor(p Pattern) RecurrenceRule {
	switch v := p.(type) {
	case WeeklyPattern:
		return RecurrenceRule{Weekly: &v}
	case *WeeklyPattern:
		return RecurrenceRule{Weekly: v}
	case DayOfMonthPattern:
		return RecurrenceRule{DayOfMonth: &v}
	case *DayOfMonthPattern:
		return RecurrenceRule{DayOfMonth: v}
	case NthWeekdayPattern:
		return RecurrenceRule{NthWeekday: &v}
	case *NthWeekdayPattern:
		return RecurrenceRule{NthWeekday: v}
	case YearlyPattern:
		return RecurrenceRule{Yearly: &v}
	case *YearlyPattern:
		return RecurrenceRule{Yearly: v}
	}
	return RecurrenceRule{}
}

// Pattern returns the single populated variant, validated.
func (r RecurrenceRule) Pattern() (Pattern, error) {
	var found []Pattern
	if r.Weekly != nil {
		found = append(found, *r.Weekly)
	}
	if r.DayOfMonth != nil {
		found = append(found, *r.DayOfMonth)
	}
	if r.NthWeekday != nil {
		found = append(found, *r.NthWeekday)
	}
	if r.Yearly != nil {
		found = append(found, *r.Yearly)
	}

	if len(found) != 1 {
		return nil, NewValidationError("pattern", "exactly one pattern variant must be set")
	}
	if err := found[0].Validate(); err != nil {
		return nil, err
	}
	return found[0], nil
}
