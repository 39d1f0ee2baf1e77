package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fieldops-scheduler/models"
	"fieldops-scheduler/recurrence"
	"fieldops-scheduler/repository"
	"fieldops-scheduler/utils/logger"
)

// MaxPreviewOccurrences caps PreviewOccurrences.
const MaxPreviewOccurrences = 52

type SchedulePlanService struct {
	planRepo repository.SchedulePlanRepositoryInterface
	logger   logger.Logger
	now      func() time.Time
}

func NewSchedulePlanService(planRepo repository.SchedulePlanRepositoryInterface, logger logger.Logger) *SchedulePlanService {
	return &SchedulePlanService{
		planRepo: planRepo,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *SchedulePlanService) CreatePlan(ctx context.Context, tenant models.TenantID, req *models.CreateSchedulePlanRequest, actor string) (*models.SchedulePlan, error) {
	if tenant == "" {
		return nil, models.NewValidationError("tenant", "tenant is required")
	}
	if req == nil {
		return nil, models.NewValidationError("", "plan request is required")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.PlanStatusActive
	}

	plan := &models.SchedulePlan{
		Tenant:      tenant,
		Code:        strings.TrimSpace(req.Code),
		Title:       req.Title,
		Description: req.Description,
		Anchor:      req.Anchor,
		Timezone:    req.Timezone,
		Pattern:     req.Pattern,
		Window:      req.Window,
		Policy:      req.Policy,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		SkipDates:   req.SkipDates,
		Blackouts:   req.Blackouts,
		Status:      status,
		Tags:        req.Tags,
		CreatedBy:   actor,
		UpdatedBy:   actor,
	}

	pattern, loc, err := s.validatePlan(plan)
	if err != nil {
		return nil, err
	}

	if plan.Status == models.PlanStatusActive {
		if err := s.computeNextRun(plan, pattern, loc); err != nil {
			return nil, err
		}
	}

	created, err := s.planRepo.CreatePlan(ctx, plan)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Schedule plan %s/%s created by %s, next run %s", tenant, created.Code, actor, formatRun(created.NextRunAt))
	return created, nil
}

func (s *SchedulePlanService) GetPlan(ctx context.Context, tenant models.TenantID, code string) (*models.SchedulePlan, error) {
	return s.planRepo.GetPlan(ctx, tenant, code)
}

func (s *SchedulePlanService) ListPlans(ctx context.Context, filter *models.SchedulePlanFilter) ([]*models.SchedulePlan, error) {
	if filter == nil || filter.Tenant == "" {
		return nil, models.NewValidationError("tenant", "tenant is required")
	}
	return s.planRepo.ListPlans(ctx, filter)
}

// UpdatePlan applies the set fields. nextRunAt is recomputed only when a
// field that decides the calendar changed, so a manual override survives
// unrelated edits.
func (s *SchedulePlanService) UpdatePlan(ctx context.Context, tenant models.TenantID, code string, req *models.UpdateSchedulePlanRequest, actor string) (*models.SchedulePlan, error) {
	if req == nil {
		return nil, models.NewValidationError("", "plan update is required")
	}

	plan, err := s.editablePlan(ctx, tenant, code)
	if err != nil {
		return nil, err
	}
	expectedVersion := plan.Version

	recompute := false
	if req.Title != nil {
		plan.Title = req.Title
	}
	if req.Description != nil {
		plan.Description = req.Description
	}
	if req.Pattern != nil {
		plan.Pattern = *req.Pattern
		recompute = true
	}
	if req.Window != nil {
		plan.Window = *req.Window
	}
	if req.Policy != nil {
		plan.Policy = *req.Policy
	}
	if req.Timezone != nil {
		plan.Timezone = *req.Timezone
		recompute = true
	}
	if req.EndDate != nil {
		plan.EndDate = req.EndDate
	}
	if req.SkipDates != nil {
		plan.SkipDates = req.SkipDates
		recompute = true
	}
	if req.Blackouts != nil {
		plan.Blackouts = req.Blackouts
		recompute = true
	}
	if req.Tags != nil {
		plan.Tags = req.Tags
	}

	pattern, loc, err := s.validatePlan(plan)
	if err != nil {
		return nil, err
	}

	if plan.Status == models.PlanStatusActive && (recompute || plan.NextRunAt == nil) {
		if err := s.computeNextRun(plan, pattern, loc); err != nil {
			return nil, err
		}
	}
	if plan.NextRunAt != nil && plan.EndedBefore(*plan.NextRunAt, loc) {
		plan.NextRunAt = nil
	}
	plan.UpdatedBy = actor

	updated, err := s.planRepo.UpdatePlan(ctx, plan, expectedVersion)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Schedule plan %s/%s updated by %s, next run %s", tenant, code, actor, formatRun(updated.NextRunAt))
	return updated, nil
}

// PausePlan stops future generation. Jobs already generated are left alone.
func (s *SchedulePlanService) PausePlan(ctx context.Context, tenant models.TenantID, code, actor string) (*models.SchedulePlan, error) {
	plan, err := s.editablePlan(ctx, tenant, code)
	if err != nil {
		return nil, err
	}
	if plan.Status != models.PlanStatusActive {
		return nil, fmt.Errorf("%w: plan %s is %s, only active plans can be paused", models.ErrInvalidTransition, code, plan.Status)
	}

	expectedVersion := plan.Version
	plan.Status = models.PlanStatusPaused
	plan.UpdatedBy = actor

	updated, err := s.planRepo.UpdatePlan(ctx, plan, expectedVersion)
	if err != nil {
		return nil, err
	}
	s.logger.Infof("Schedule plan %s/%s paused by %s", tenant, code, actor)
	return updated, nil
}

// ResumePlan reactivates a paused plan. Occurrences missed while paused are
// not back-filled.
func (s *SchedulePlanService) ResumePlan(ctx context.Context, tenant models.TenantID, code, actor string) (*models.SchedulePlan, error) {
	plan, err := s.editablePlan(ctx, tenant, code)
	if err != nil {
		return nil, err
	}
	if plan.Status != models.PlanStatusPaused {
		return nil, fmt.Errorf("%w: plan %s is %s, only paused plans can be resumed", models.ErrInvalidTransition, code, plan.Status)
	}

	pattern, loc, err := s.validatePlan(plan)
	if err != nil {
		return nil, err
	}

	expectedVersion := plan.Version
	plan.Status = models.PlanStatusActive
	today := recurrence.DayIn(s.now(), loc)
	if plan.NextRunAt == nil || recurrence.DayIn(*plan.NextRunAt, loc).Before(today) {
		if err := s.computeNextRun(plan, pattern, loc); err != nil {
			return nil, err
		}
	}
	plan.UpdatedBy = actor

	updated, err := s.planRepo.UpdatePlan(ctx, plan, expectedVersion)
	if err != nil {
		return nil, err
	}
	s.logger.Infof("Schedule plan %s/%s resumed by %s, next run %s", tenant, code, actor, formatRun(updated.NextRunAt))
	return updated, nil
}

// ArchivePlan is final. Archiving an archived plan is a no-op.
func (s *SchedulePlanService) ArchivePlan(ctx context.Context, tenant models.TenantID, code, actor string) (*models.SchedulePlan, error) {
	plan, err := s.planRepo.GetPlan(ctx, tenant, code)
	if err != nil {
		return nil, err
	}
	if plan.Status == models.PlanStatusArchived {
		return plan, nil
	}

	expectedVersion := plan.Version
	plan.Status = models.PlanStatusArchived
	plan.UpdatedBy = actor

	updated, err := s.planRepo.UpdatePlan(ctx, plan, expectedVersion)
	if err != nil {
		return nil, err
	}
	s.logger.Infof("Schedule plan %s/%s archived by %s", tenant, code, actor)
	return updated, nil
}

// SetNextRun overrides the next occurrence. The date is taken as written in
// the plan's timezone and is honoured by the generator as is.
func (s *SchedulePlanService) SetNextRun(ctx context.Context, tenant models.TenantID, code string, at time.Time, actor string) (*models.SchedulePlan, error) {
	if at.IsZero() {
		return nil, models.NewValidationError("nextRunAt", "is required")
	}

	plan, err := s.editablePlan(ctx, tenant, code)
	if err != nil {
		return nil, err
	}
	loc, err := plan.Location()
	if err != nil {
		return nil, err
	}

	day := recurrence.CalendarDate(at, loc)
	if plan.LastRunAt != nil && !day.After(recurrence.DayIn(*plan.LastRunAt, loc)) {
		return nil, models.NewValidationError("nextRunAt", "must be after the last generated occurrence "+recurrence.DayIn(*plan.LastRunAt, loc).Format(time.DateOnly))
	}
	if recurrence.Excluded(day, plan.SkipDates, plan.Blackouts) {
		return nil, models.NewValidationError("nextRunAt", day.Format(time.DateOnly)+" is a skip date or inside a blackout")
	}
	if plan.EndedBefore(day, loc) {
		return nil, models.NewValidationError("nextRunAt", "must not be after the plan's end date")
	}

	expectedVersion := plan.Version
	plan.NextRunAt = &day
	plan.UpdatedBy = actor

	updated, err := s.planRepo.UpdatePlan(ctx, plan, expectedVersion)
	if err != nil {
		return nil, err
	}
	s.logger.Infof("Schedule plan %s/%s next run set to %s by %s", tenant, code, day.Format(time.DateOnly), actor)
	return updated, nil
}

// PreviewOccurrences lists the next n occurrences starting at nextRunAt
// without touching the plan.
func (s *SchedulePlanService) PreviewOccurrences(ctx context.Context, tenant models.TenantID, code string, n int) ([]time.Time, error) {
	if n < 1 {
		return nil, models.NewValidationError("n", "must be at least 1")
	}
	if n > MaxPreviewOccurrences {
		n = MaxPreviewOccurrences
	}

	plan, err := s.planRepo.GetPlan(ctx, tenant, code)
	if err != nil {
		return nil, err
	}
	if plan.NextRunAt == nil {
		return []time.Time{}, nil
	}

	pattern, loc, err := s.validatePlan(plan)
	if err != nil {
		return nil, err
	}

	first := recurrence.DayIn(*plan.NextRunAt, loc)
	dates := []time.Time{first}
	if n > 1 {
		rest, err := recurrence.Preview(pattern, first, n-1, plan.SkipDates, plan.Blackouts)
		if err != nil && !errors.Is(err, models.ErrRecurrenceExhausted) {
			return nil, err
		}
		dates = append(dates, rest...)
	}

	out := dates[:0]
	for _, d := range dates {
		if plan.EndedBefore(d, loc) {
			break
		}
		out = append(out, d)
	}
	return out, nil
}

// editablePlan loads a plan that is not archived.
func (s *SchedulePlanService) editablePlan(ctx context.Context, tenant models.TenantID, code string) (*models.SchedulePlan, error) {
	plan, err := s.planRepo.GetPlan(ctx, tenant, code)
	if err != nil {
		return nil, err
	}
	if plan.Status == models.PlanStatusArchived {
		return nil, models.NewValidationError("status", fmt.Sprintf("plan %s is archived", code))
	}
	return plan, nil
}

func (s *SchedulePlanService) validatePlan(plan *models.SchedulePlan) (models.Pattern, *time.Location, error) {
	pattern, err := plan.Pattern.Pattern()
	if err != nil {
		return nil, nil, err
	}
	loc, err := plan.Location()
	if err != nil {
		return nil, nil, err
	}
	if plan.Anchor.Apartment == "" {
		return nil, nil, models.NewValidationError("anchor.apartment", "is required")
	}
	if plan.StartDate.IsZero() {
		return nil, nil, models.NewValidationError("startDate", "is required")
	}
	if err := validateWindow(plan.Window); err != nil {
		return nil, nil, err
	}
	if err := validateStruct(&plan.Policy); err != nil {
		return nil, nil, err
	}
	if plan.Policy.MaxCrewSize > 0 && plan.Policy.MaxCrewSize < plan.Policy.MinCrewSize {
		return nil, nil, models.NewValidationError("policy.maxCrewSize", "must not be less than minCrewSize")
	}
	if plan.EndDate != nil && recurrence.CalendarDate(*plan.EndDate, loc).Before(recurrence.CalendarDate(plan.StartDate, loc)) {
		return nil, nil, models.NewValidationError("endDate", "must not be before startDate")
	}
	for i, b := range plan.Blackouts {
		if b.To != nil && recurrence.CalendarDate(*b.To, loc).Before(recurrence.CalendarDate(b.From, loc)) {
			return nil, nil, models.NewValidationError(fmt.Sprintf("blackouts[%d].to", i), "must not be before from")
		}
	}
	return pattern, loc, nil
}

func validateWindow(w models.PlanWindow) error {
	start, err := parseClock("window.startTime", w.StartTime)
	if err != nil {
		return err
	}
	if w.EndTime == "" {
		if w.DurationMinutes <= 0 {
			return models.NewValidationError("window", "endTime or durationMinutes is required")
		}
		return validateStruct(&w)
	}
	end, err := parseClock("window.endTime", w.EndTime)
	if err != nil {
		return err
	}
	if end == start {
		return models.NewValidationError("window.endTime", "must differ from startTime")
	}
	return validateStruct(&w)
}

// computeNextRun sets nextRunAt to the first occurrence after the latest of
// the day before startDate, today and the last generated occurrence. A
// date past endDate leaves the plan without a next run.
func (s *SchedulePlanService) computeNextRun(plan *models.SchedulePlan, pattern models.Pattern, loc *time.Location) error {
	anchor := recurrence.CalendarDate(plan.StartDate, loc).AddDate(0, 0, -1)
	if today := recurrence.DayIn(s.now(), loc); today.After(anchor) {
		anchor = today
	}
	if plan.LastRunAt != nil {
		if last := recurrence.DayIn(*plan.LastRunAt, loc); last.After(anchor) {
			anchor = last
		}
	}

	next, err := recurrence.NextOccurrence(pattern, anchor, plan.SkipDates, plan.Blackouts)
	if err != nil {
		return err
	}
	if plan.EndedBefore(next, loc) {
		plan.NextRunAt = nil
		return nil
	}
	plan.NextRunAt = &next
	return nil
}

func formatRun(t *time.Time) string {
	if t == nil {
		return "none"
	}
	return t.UTC().Format(time.RFC3339)
}
