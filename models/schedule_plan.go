package models

import (
	"fmt"
	"time"
)

type PlanStatus string

const (
	PlanStatusActive   PlanStatus = "active"
	PlanStatusPaused   PlanStatus = "paused"
	PlanStatusArchived PlanStatus = "archived"
)

// PlanAnchor is the fixed context a plan repeatedly generates work for.
type PlanAnchor struct {
	Apartment ApartmentRef `json:"apartment" dynamodbav:"apartment" validate:"required"`
	Category  CategoryRef  `json:"category,omitempty" dynamodbav:"category,omitempty"`
	Service   ServiceRef   `json:"service,omitempty" dynamodbav:"service,omitempty"`
	Template  TemplateRef  `json:"template,omitempty" dynamodbav:"template,omitempty"`
	Contract  ContractRef  `json:"contract,omitempty" dynamodbav:"contract,omitempty"`
}

// PlanWindow is the time of day work happens on an occurrence date.
// StartTime and EndTime are "HH:MM" in the plan's timezone.
type PlanWindow struct {
	StartTime       string `json:"startTime" dynamodbav:"startTime" validate:"required"`
	EndTime         string `json:"endTime,omitempty" dynamodbav:"endTime,omitempty"`
	DurationMinutes int    `json:"durationMinutes,omitempty" dynamodbav:"durationMinutes,omitempty" validate:"omitempty,min=1,max=1440"`
}

type PlanPolicy struct {
	LeadTimeDays       int           `json:"leadTimeDays" dynamodbav:"leadTimeDays" validate:"min=0,max=365"`
	LockAheadPeriods   int           `json:"lockAheadPeriods" dynamodbav:"lockAheadPeriods" validate:"min=0,max=52"`
	AutoAssign         bool          `json:"autoAssign" dynamodbav:"autoAssign"`
	PreferredEmployees []EmployeeRef `json:"preferredEmployees,omitempty" dynamodbav:"preferredEmployees,omitempty"`
	MinCrewSize        int           `json:"minCrewSize" dynamodbav:"minCrewSize" validate:"min=0"`
	MaxCrewSize        int           `json:"maxCrewSize" dynamodbav:"maxCrewSize" validate:"min=0"`
	SLAMinutes         int           `json:"slaMinutes,omitempty" dynamodbav:"slaMinutes,omitempty" validate:"min=0"`
}

// Blackout forbids occurrences from From through To inclusive. A missing To
// blocks a single day. Both bounds are calendar dates.
type Blackout struct {
	From   time.Time  `json:"from" dynamodbav:"from"`
	To     *time.Time `json:"to,omitempty" dynamodbav:"to,omitempty"`
	Reason string     `json:"reason,omitempty" dynamodbav:"reason,omitempty"`
}

type SchedulePlan struct {
	PlanKey     string         `json:"-" dynamodbav:"planKey"`
	PlanID      string         `json:"planID" dynamodbav:"planID"`
	Tenant      TenantID       `json:"tenant" dynamodbav:"tenant"`
	Code        string         `json:"code" dynamodbav:"code"`
	Title       LocalizedText  `json:"title" dynamodbav:"title"`
	Description LocalizedText  `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Anchor      PlanAnchor     `json:"anchor" dynamodbav:"anchor"`
	Timezone    string         `json:"timezone" dynamodbav:"timezone"`
	Pattern     RecurrenceRule `json:"pattern" dynamodbav:"pattern"`
	Window      PlanWindow     `json:"window" dynamodbav:"window"`
	Policy      PlanPolicy     `json:"policy" dynamodbav:"policy"`
	StartDate   time.Time      `json:"startDate" dynamodbav:"startDate"`
	EndDate     *time.Time     `json:"endDate,omitempty" dynamodbav:"endDate,omitempty"`
	SkipDates   []time.Time    `json:"skipDates,omitempty" dynamodbav:"skipDates,omitempty"`
	Blackouts   []Blackout     `json:"blackouts,omitempty" dynamodbav:"blackouts,omitempty"`
	LastRunAt   *time.Time     `json:"lastRunAt,omitempty" dynamodbav:"lastRunAt,omitempty"`
	NextRunAt   *time.Time     `json:"nextRunAt,omitempty" dynamodbav:"nextRunAt,omitempty"`
	LastJobRef  JobRef         `json:"lastJobRef,omitempty" dynamodbav:"lastJobRef,omitempty"`
	Status      PlanStatus     `json:"status" dynamodbav:"status"`
	Tags        []string       `json:"tags,omitempty" dynamodbav:"tags,omitempty"`
	Version     int            `json:"version" dynamodbav:"version"`
	CreatedAt   time.Time      `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt" dynamodbav:"updatedAt"`
	CreatedBy   string         `json:"createdBy,omitempty" dynamodbav:"createdBy,omitempty"`
	UpdatedBy   string         `json:"updatedBy,omitempty" dynamodbav:"updatedBy,omitempty"`
}

// PlanKey is the storage key that makes plan codes unique per tenant.
func PlanKey(tenant TenantID, code string) string {
	return fmt.Sprintf("%s#%s", tenant, code)
}

// Location resolves the plan's timezone, defaulting to UTC.
func (p *SchedulePlan) Location() (*time.Location, error) {
	if p.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, NewValidationError("timezone", fmt.Sprintf("unknown timezone %q", p.Timezone))
	}
	return loc, nil
}

// EndedBefore reports whether the plan's end date lies before t's calendar
// day in loc. EndDate is a calendar date and is read as written.
func (p *SchedulePlan) EndedBefore(t time.Time, loc *time.Location) bool {
	if p.EndDate == nil {
		return false
	}
	ey, em, ed := p.EndDate.Date()
	ty, tm, td := t.In(loc).Date()
	end := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	day := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return end.Before(day)
}

type CreateSchedulePlanRequest struct {
	Code        string         `json:"code" validate:"required,min=2,max=64"`
	Title       LocalizedText  `json:"title" validate:"required,min=1"`
	Description LocalizedText  `json:"description,omitempty"`
	Anchor      PlanAnchor     `json:"anchor"`
	Timezone    string         `json:"timezone,omitempty"`
	Pattern     RecurrenceRule `json:"pattern"`
	Window      PlanWindow     `json:"window"`
	Policy      PlanPolicy     `json:"policy"`
	StartDate   time.Time      `json:"startDate" validate:"required"`
	EndDate     *time.Time     `json:"endDate,omitempty"`
	SkipDates   []time.Time    `json:"skipDates,omitempty"`
	Blackouts   []Blackout     `json:"blackouts,omitempty"`
	Status      PlanStatus     `json:"status,omitempty" validate:"omitempty,oneof=active paused"`
	Tags        []string       `json:"tags,omitempty"`
}

// UpdateSchedulePlanRequest changes only the fields that are set.
type UpdateSchedulePlanRequest struct {
	Title       LocalizedText   `json:"title,omitempty"`
	Description LocalizedText   `json:"description,omitempty"`
	Pattern     *RecurrenceRule `json:"pattern,omitempty"`
	Window      *PlanWindow     `json:"window,omitempty"`
	Policy      *PlanPolicy     `json:"policy,omitempty"`
	Timezone    *string         `json:"timezone,omitempty"`
	EndDate     *time.Time      `json:"endDate,omitempty"`
	SkipDates   []time.Time     `json:"skipDates,omitempty"`
	Blackouts   []Blackout      `json:"blackouts,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
}

type SetNextRunRequest struct {
	NextRunAt time.Time `json:"nextRunAt" validate:"required"`
}

type SchedulePlanFilter struct {
	Tenant TenantID   `json:"tenant,omitempty"`
	Status PlanStatus `json:"status,omitempty"`
}
