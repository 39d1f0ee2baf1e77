package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldops-scheduler/models"
	"fieldops-scheduler/recurrence"
	"fieldops-scheduler/repository"
	"fieldops-scheduler/utils/logger"

	"golang.org/x/sync/errgroup"
)

// GeneratorActor is recorded as creator of generated jobs.
const GeneratorActor = "scheduler"

type JobGenerationService struct {
	planRepo    repository.SchedulePlanRepositoryInterface
	jobRepo     repository.OperationJobRepositoryInterface
	directory   EmployeeDirectory
	leaser      PlanLeaser
	parallelism int
	logger      logger.Logger
	now         func() time.Time
}

// NewJobGenerationService wires the generator. A nil leaser disables leasing;
// a nil directory flags every auto-assigned job for manual staffing.
func NewJobGenerationService(
	planRepo repository.SchedulePlanRepositoryInterface,
	jobRepo repository.OperationJobRepositoryInterface,
	directory EmployeeDirectory,
	leaser PlanLeaser,
	parallelism int,
	logger logger.Logger,
) *JobGenerationService {
	if leaser == nil {
		leaser = NoopLeaser{}
	}
	if parallelism < 1 {
		parallelism = 1
	}
	return &JobGenerationService{
		planRepo:    planRepo,
		jobRepo:     jobRepo,
		directory:   directory,
		leaser:      leaser,
		parallelism: parallelism,
		logger:      logger,
		now:         time.Now,
	}
}

// RunDue generates jobs for every active plan whose next occurrence falls
// within its lead time. A failing plan is recorded in the report and does
// not stop the others. The error is non-nil only when plans could not be
// listed or ctx ended.
func (s *JobGenerationService) RunDue(ctx context.Context, now time.Time) (*models.GenerationReport, error) {
	report := &models.GenerationReport{StartedAt: now.UTC()}

	plans, err := s.planRepo.ListActivePlans(ctx)
	if err != nil {
		s.logger.Errorf("Failed to list active plans: %v", err)
		return nil, fmt.Errorf("failed to list active plans: %w", err)
	}
	report.PlansScanned = len(plans)

	var due []*models.SchedulePlan
	for _, p := range plans {
		ok, err := isDue(p, now)
		if err != nil {
			report.Failures = append(report.Failures, models.PlanFailure{Tenant: p.Tenant, PlanCode: p.Code, Error: err.Error()})
			s.logger.Errorf("Plan %s/%s cannot be scheduled: %v", p.Tenant, p.Code, err)
			continue
		}
		if ok {
			due = append(due, p)
		}
	}
	report.PlansDue = len(due)

	outcomes := make([]models.PlanOutcome, len(due))
	var g errgroup.Group
	g.SetLimit(s.parallelism)
	for i, p := range due {
		i, p := i, p
		g.Go(func() error {
			outcomes[i] = s.generateIsolated(ctx, p, now)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		report.Merge(o)
	}
	report.FinishedAt = s.now().UTC()

	s.logger.Infof("Generation run finished: scanned=%d due=%d created=%d duplicates=%d staffing=%d skipped=%d failures=%d",
		report.PlansScanned, report.PlansDue, report.JobsCreated, report.Duplicates,
		report.StaffingFlags, report.PlansSkipped, len(report.Failures))

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// generateIsolated keeps a panic in one plan from taking down the run.
func (s *JobGenerationService) generateIsolated(ctx context.Context, plan *models.SchedulePlan, now time.Time) (outcome models.PlanOutcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("Plan %s/%s panicked during generation: %v", plan.Tenant, plan.Code, r)
			outcome.Failure = &models.PlanFailure{Tenant: plan.Tenant, PlanCode: plan.Code, Error: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return s.GeneratePlan(ctx, plan, now)
}

// GeneratePlan materializes up to lockAheadPeriods occurrences of one plan,
// oldest first. Each occurrence is created with insert-if-absent on its
// deterministic code, then the plan is advanced conditionally on the
// nextRunAt that was read. An occurrence is never skipped: a failed create
// leaves nextRunAt in place for the next run.
func (s *JobGenerationService) GeneratePlan(ctx context.Context, plan *models.SchedulePlan, now time.Time) models.PlanOutcome {
	var outcome models.PlanOutcome
	log := s.logger.WithFields(logger.Fields{"tenant": plan.Tenant.String(), "plan": plan.Code})

	fail := func(occurrence *time.Time, err error) models.PlanOutcome {
		log.Errorf("Generation failed: %v", err)
		outcome.Failure = &models.PlanFailure{Tenant: plan.Tenant, PlanCode: plan.Code, Occurrence: occurrence, Error: err.Error()}
		return outcome
	}

	pattern, err := plan.Pattern.Pattern()
	if err != nil {
		return fail(nil, err)
	}
	loc, err := plan.Location()
	if err != nil {
		return fail(nil, err)
	}

	release, acquired, err := s.leaser.TryAcquire(ctx, models.PlanKey(plan.Tenant, plan.Code))
	switch {
	case err != nil:
		log.Warnf("Plan lease unavailable, continuing without it: %v", err)
	case !acquired:
		log.Info("Plan is leased by another worker, skipping")
		outcome.Skipped = true
		return outcome
	default:
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warnf("Failed to release plan lease: %v", err)
			}
		}()
	}

	periods := plan.Policy.LockAheadPeriods
	if periods < 1 {
		periods = 1
	}

	for i := 0; i < periods; i++ {
		if err := ctx.Err(); err != nil {
			return fail(plan.NextRunAt, err)
		}
		if plan.NextRunAt == nil {
			break
		}

		occurrence := recurrence.DayIn(*plan.NextRunAt, loc)
		if plan.EndedBefore(occurrence, loc) {
			break
		}
		if i == 0 && !withinLeadTime(plan, occurrence, now, loc) {
			break
		}

		job, err := s.buildJob(plan, occurrence, loc)
		if err != nil {
			return fail(&occurrence, err)
		}
		if plan.Policy.AutoAssign {
			if s.staff(ctx, plan, job) {
				outcome.StaffingFlags++
			}
		}
		if err := prepareSave(job); err != nil {
			return fail(&occurrence, err)
		}

		_, err = s.jobRepo.CreateJob(ctx, job)
		switch {
		case errors.Is(err, models.ErrDuplicateGeneration):
			log.Warnf("Occurrence %s already generated as %s", occurrence.Format(time.DateOnly), job.Code)
			outcome.Duplicates++
		case err != nil:
			return fail(&occurrence, err)
		default:
			log.Infof("Generated job %s for %s", job.Code, occurrence.Format(time.DateOnly))
			outcome.Created = append(outcome.Created, models.JobRef(job.Code))
		}

		expected := *plan.NextRunAt
		next, err := recurrence.NextOccurrence(pattern, occurrence, plan.SkipDates, plan.Blackouts)
		switch {
		case errors.Is(err, models.ErrRecurrenceExhausted):
			log.Warnf("No occurrence after %s, plan goes inert: %v", occurrence.Format(time.DateOnly), err)
			plan.NextRunAt = nil
		case err != nil:
			return fail(&occurrence, err)
		case plan.EndedBefore(next, loc):
			log.Infof("Plan reached its end date after %s", occurrence.Format(time.DateOnly))
			plan.NextRunAt = nil
		default:
			plan.NextRunAt = &next
		}
		last := occurrence
		plan.LastRunAt = &last
		plan.LastJobRef = models.JobRef(job.Code)

		err = s.planRepo.AdvancePlan(ctx, plan, &expected)
		if errors.Is(err, models.ErrConflict) {
			log.Warnf("Plan was advanced by another worker, stopping: %v", err)
			break
		}
		if err != nil {
			return fail(&occurrence, err)
		}
	}

	return outcome
}

// buildJob derives the job of one occurrence from the plan's anchor and window.
func (s *JobGenerationService) buildJob(plan *models.SchedulePlan, occurrence time.Time, loc *time.Location) (*models.OperationJob, error) {
	startMin, err := parseClock("window.startTime", plan.Window.StartTime)
	if err != nil {
		return nil, err
	}

	y, m, d := occurrence.Date()
	start := time.Date(y, m, d, startMin/60, startMin%60, 0, 0, loc)

	var end time.Time
	if plan.Window.EndTime != "" {
		endMin, err := parseClock("window.endTime", plan.Window.EndTime)
		if err != nil {
			return nil, err
		}
		end = time.Date(y, m, d, endMin/60, endMin%60, 0, 0, loc)
		if endMin <= startMin {
			end = time.Date(y, m, d+1, endMin/60, endMin%60, 0, 0, loc)
		}
	} else {
		end = start.Add(time.Duration(plan.Window.DurationMinutes) * time.Minute)
	}

	expected := plan.Window.DurationMinutes
	if expected == 0 {
		expected = int(end.Sub(start).Minutes())
	}
	due := end.Add(time.Duration(plan.Policy.SLAMinutes) * time.Minute)

	start, end, due = start.UTC(), end.UTC(), due.UTC()
	code := models.RecurrenceJobCode(plan.Code, occurrence)

	return &models.OperationJob{
		Tenant:        plan.Tenant,
		Code:          code,
		Title:         plan.Title,
		Description:   plan.Description,
		Source:        models.JobSourceRecurrence,
		GenerationKey: models.GenerationKey(plan.Tenant, plan.Code, occurrence),
		PlanCode:      plan.Code,
		Template:      plan.Anchor.Template,
		Service:       plan.Anchor.Service,
		Contract:      plan.Anchor.Contract,
		Apartment:     plan.Anchor.Apartment,
		Category:      plan.Anchor.Category,
		Status:        models.JobStatusDraft,
		Schedule: models.JobSchedule{
			PlannedStart: &start,
			PlannedEnd:   &end,
			DueAt:        &due,
		},
		ExpectedDurationMinutes: expected,
		Assignments:             []models.Assignment{},
		Steps:                   []models.JobStepResult{},
		Materials:               []models.MaterialUsage{},
		Priority:                models.JobPriorityNormal,
		Tags:                    plan.Tags,
		IsActive:                true,
		CreatedBy:               GeneratorActor,
		UpdatedBy:               GeneratorActor,
	}, nil
}

// staff attaches a crew to the job and moves it to scheduled. It reports
// true when the job had to be flagged for manual staffing instead.
func (s *JobGenerationService) staff(ctx context.Context, plan *models.SchedulePlan, job *models.OperationJob) bool {
	flag := func(reason string) bool {
		s.logger.Warnf("Job %s/%s needs manual staffing: %s", job.Tenant, job.Code, reason)
		job.NeedsStaffing = true
		job.StaffingNote = reason
		return true
	}

	if s.directory == nil {
		return flag("no employee directory configured")
	}

	candidates, err := s.directory.SuggestCrew(ctx, models.CrewRequest{
		Tenant:      plan.Tenant,
		Apartment:   plan.Anchor.Apartment,
		WindowStart: *job.Schedule.PlannedStart,
		WindowEnd:   *job.Schedule.PlannedEnd,
		Preferred:   plan.Policy.PreferredEmployees,
		MinSize:     plan.Policy.MinCrewSize,
		MaxSize:     plan.Policy.MaxCrewSize,
	})
	if err != nil {
		return flag(fmt.Sprintf("employee directory unavailable: %v", err))
	}

	assignments, err := SelectCrew(candidates, plan.Policy.MinCrewSize, plan.Policy.MaxCrewSize, job.ExpectedDurationMinutes)
	if err != nil {
		return flag(err.Error())
	}

	job.Assignments = assignments
	job.Status = models.JobStatusScheduled
	return false
}

func isDue(plan *models.SchedulePlan, now time.Time) (bool, error) {
	if plan.Status != models.PlanStatusActive || plan.NextRunAt == nil {
		return false, nil
	}
	loc, err := plan.Location()
	if err != nil {
		return false, err
	}
	occurrence := recurrence.DayIn(*plan.NextRunAt, loc)
	if plan.EndedBefore(occurrence, loc) {
		return false, nil
	}
	return withinLeadTime(plan, occurrence, now, loc), nil
}

func withinLeadTime(plan *models.SchedulePlan, occurrence, now time.Time, loc *time.Location) bool {
	horizon := recurrence.DayIn(now, loc).AddDate(0, 0, plan.Policy.LeadTimeDays)
	return !occurrence.After(horizon)
}

// NoopLeaser grants every lease. Used when no lease store is configured.
type NoopLeaser struct{}

func (NoopLeaser) TryAcquire(ctx context.Context, key string) (func(context.Context) error, bool, error) {
	return func(context.Context) error { return nil }, true, nil
}
