package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fieldops-scheduler/models"
	"fieldops-scheduler/repository"
	"fieldops-scheduler/utils/logger"
)

// maxSaveAttempts bounds retries of data-capture writes that lose a
// compare-and-swap race. Status transitions are never retried.
const maxSaveAttempts = 3

type OperationJobService struct {
	jobRepo repository.OperationJobRepositoryInterface
	logger  logger.Logger
	now     func() time.Time
}

func NewOperationJobService(jobRepo repository.OperationJobRepositoryInterface, logger logger.Logger) *OperationJobService {
	return &OperationJobService{
		jobRepo: jobRepo,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *OperationJobService) CreateJob(ctx context.Context, tenant models.TenantID, req *models.CreateJobRequest, actor string) (*models.OperationJob, error) {
	if err := s.validateCreateJob(tenant, req); err != nil {
		return nil, err
	}

	status := models.JobStatusDraft
	if len(req.Assignments) > 0 {
		status = models.JobStatusScheduled
	}
	priority := req.Priority
	if priority == "" {
		priority = models.JobPriorityNormal
	}

	job := &models.OperationJob{
		Tenant:      tenant,
		Code:        strings.TrimSpace(req.Code),
		Title:       req.Title,
		Description: req.Description,
		Source:      req.Source,
		Template:    req.Template,
		Service:     req.Service,
		Contract:    req.Contract,
		Apartment:   req.Apartment,
		Category:    req.Category,
		Status:      status,
		Schedule: models.JobSchedule{
			PlannedStart: utcPtr(req.PlannedStart),
			PlannedEnd:   utcPtr(req.PlannedEnd),
			DueAt:        utcPtr(req.DueAt),
		},
		ExpectedDurationMinutes: req.ExpectedDurationMinutes,
		Assignments:             orEmpty(req.Assignments),
		Steps:                   orEmpty(req.Steps),
		Materials:               []models.MaterialUsage{},
		Finance:                 req.Finance,
		Priority:                priority,
		Tags:                    req.Tags,
		IsActive:                true,
		CreatedBy:               actor,
		UpdatedBy:               actor,
	}
	if job.Schedule.DueAt == nil {
		job.Schedule.DueAt = job.Schedule.PlannedEnd
	}

	if err := prepareSave(job); err != nil {
		return nil, err
	}

	created, err := s.jobRepo.CreateJob(ctx, job)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Job %s/%s created by %s", tenant, created.Code, actor)
	return created, nil
}

func (s *OperationJobService) validateCreateJob(tenant models.TenantID, req *models.CreateJobRequest) error {
	if tenant == "" {
		return models.NewValidationError("tenant", "tenant is required")
	}
	if req == nil {
		return models.NewValidationError("", "job request is required")
	}
	if err := validateStruct(req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Code) == "" {
		return models.NewValidationError("code", "is required")
	}
	if models.IsRecurrenceJobCode(strings.TrimSpace(req.Code)) {
		return models.NewValidationError("code", "codes ending in -YYYYMMDD are reserved for generated jobs")
	}
	return nil
}

func (s *OperationJobService) GetJob(ctx context.Context, tenant models.TenantID, code string) (*models.OperationJob, error) {
	return s.jobRepo.GetJob(ctx, tenant, code)
}

func (s *OperationJobService) ListJobs(ctx context.Context, filter *models.JobFilter) ([]*models.OperationJob, error) {
	if filter == nil || filter.Tenant == "" {
		return nil, models.NewValidationError("tenant", "tenant is required")
	}
	return s.jobRepo.GetJobsByFilter(ctx, filter)
}

func (s *OperationJobService) Confirm(ctx context.Context, tenant models.TenantID, code, actor string) (*models.OperationJob, error) {
	return s.transition(ctx, tenant, code, models.JobActionConfirm, actor, nil)
}

func (s *OperationJobService) Start(ctx context.Context, tenant models.TenantID, code, actor string) (*models.OperationJob, error) {
	return s.transition(ctx, tenant, code, models.JobActionStart, actor, nil)
}

func (s *OperationJobService) Pause(ctx context.Context, tenant models.TenantID, code, actor string) (*models.OperationJob, error) {
	return s.transition(ctx, tenant, code, models.JobActionPause, actor, nil)
}

func (s *OperationJobService) Resume(ctx context.Context, tenant models.TenantID, code, actor string) (*models.OperationJob, error) {
	return s.transition(ctx, tenant, code, models.JobActionResume, actor, nil)
}

func (s *OperationJobService) Complete(ctx context.Context, tenant models.TenantID, code string, req *models.CompleteJobRequest, actor string) (*models.OperationJob, error) {
	if req != nil {
		if err := validateStruct(req); err != nil {
			return nil, err
		}
	}
	return s.transition(ctx, tenant, code, models.JobActionComplete, actor, func(job *models.OperationJob) {
		if req != nil && req.ActualDurationMinutes != nil {
			minutes := *req.ActualDurationMinutes
			job.ActualDurationMinutes = &minutes
			job.ActualDurationExplicit = true
		}
	})
}

func (s *OperationJobService) Cancel(ctx context.Context, tenant models.TenantID, code, reason, actor string) (*models.OperationJob, error) {
	if len(reason) > 500 {
		return nil, models.NewValidationError("reason", "must be at most 500 characters")
	}
	return s.transition(ctx, tenant, code, models.JobActionCancel, actor, func(job *models.OperationJob) {
		job.CancellationReason = reason
	})
}

// transition applies one lifecycle action with a compare-and-swap on the
// status and version that were read. Losing the race is reported as
// ErrConflict so two concurrent starts cannot both succeed.
func (s *OperationJobService) transition(ctx context.Context, tenant models.TenantID, code string, action models.JobAction, actor string, before func(*models.OperationJob)) (*models.OperationJob, error) {
	job, err := s.jobRepo.GetJob(ctx, tenant, code)
	if err != nil {
		return nil, err
	}

	fromStatus, fromVersion := job.Status, job.Version
	if before != nil && CanApply(job.Status, action) {
		before(job)
	}
	if err := ApplyTransition(job, action, s.now()); err != nil {
		s.logger.Warnf("Rejected %s on job %s/%s: %v", action, tenant, code, err)
		return nil, err
	}
	job.UpdatedBy = actor

	if err := prepareSave(job); err != nil {
		return nil, err
	}

	updated, err := s.jobRepo.UpdateJob(ctx, job, fromStatus, fromVersion)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Job %s/%s: %s -> %s by %s", tenant, code, fromStatus, updated.Status, actor)
	return updated, nil
}

// AssignCrew replaces the job's assignments and clears the staffing flag.
// A draft job with at least one assignment stays draft until confirmed.
func (s *OperationJobService) AssignCrew(ctx context.Context, tenant models.TenantID, code string, assignments []models.Assignment, actor string) (*models.OperationJob, error) {
	req := &models.AssignCrewRequest{Assignments: assignments}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	return s.mutate(ctx, tenant, code, actor, func(job *models.OperationJob) error {
		job.Assignments = append([]models.Assignment(nil), assignments...)
		job.NeedsStaffing = false
		job.StaffingNote = ""
		return nil
	})
}

func (s *OperationJobService) UpdateAssignment(ctx context.Context, tenant models.TenantID, code string, employee models.EmployeeRef, req *models.UpdateAssignmentRequest, actor string) (*models.OperationJob, error) {
	if req == nil {
		return nil, models.NewValidationError("", "assignment update is required")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	return s.mutate(ctx, tenant, code, actor, func(job *models.OperationJob) error {
		for i := range job.Assignments {
			a := &job.Assignments[i]
			if a.Employee != employee {
				continue
			}
			a.ActualMinutes = req.ActualMinutes
			if req.TimeEntryRefs != nil {
				a.TimeEntryRefs = req.TimeEntryRefs
			}
			return nil
		}
		return fmt.Errorf("%w: employee %s is not assigned to job %s", models.ErrNotFound, employee, code)
	})
}

// RecordStep inserts or replaces the step with the same step code.
func (s *OperationJobService) RecordStep(ctx context.Context, tenant models.TenantID, code string, step models.JobStepResult, actor string) (*models.OperationJob, error) {
	if err := validateStruct(&step); err != nil {
		return nil, err
	}

	return s.mutate(ctx, tenant, code, actor, func(job *models.OperationJob) error {
		for i := range job.Steps {
			if job.Steps[i].StepCode == step.StepCode {
				job.Steps[i] = step
				return nil
			}
		}
		job.Steps = append(job.Steps, step)
		return nil
	})
}

func (s *OperationJobService) RecordMaterial(ctx context.Context, tenant models.TenantID, code string, material models.MaterialUsage, actor string) (*models.OperationJob, error) {
	if err := validateStruct(&material); err != nil {
		return nil, err
	}

	return s.mutate(ctx, tenant, code, actor, func(job *models.OperationJob) error {
		job.Materials = append(job.Materials, material)
		return nil
	})
}

func (s *OperationJobService) SetDeliverables(ctx context.Context, tenant models.TenantID, code string, deliverables models.Deliverables, actor string) (*models.OperationJob, error) {
	if err := validateStruct(&deliverables); err != nil {
		return nil, err
	}

	return s.mutate(ctx, tenant, code, actor, func(job *models.OperationJob) error {
		job.Deliverables = deliverables
		return nil
	})
}

func (s *OperationJobService) SetFinance(ctx context.Context, tenant models.TenantID, code string, finance models.FinanceSnapshot, actor string) (*models.OperationJob, error) {
	if err := validateStruct(&finance); err != nil {
		return nil, err
	}

	return s.mutate(ctx, tenant, code, actor, func(job *models.OperationJob) error {
		job.Finance = finance
		return nil
	})
}

// mutate re-reads the job, applies fn and saves with compare-and-swap,
// retrying when another writer got there first. Terminal jobs are read-only.
func (s *OperationJobService) mutate(ctx context.Context, tenant models.TenantID, code, actor string, fn func(*models.OperationJob) error) (*models.OperationJob, error) {
	var lastErr error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		job, err := s.jobRepo.GetJob(ctx, tenant, code)
		if err != nil {
			return nil, err
		}
		if job.Status.Terminal() {
			return nil, models.NewValidationError("status", fmt.Sprintf("job %s is %s and can no longer be changed", code, job.Status))
		}

		fromStatus, fromVersion := job.Status, job.Version
		if err := fn(job); err != nil {
			return nil, err
		}
		job.UpdatedBy = actor
		if err := prepareSave(job); err != nil {
			return nil, err
		}

		updated, err := s.jobRepo.UpdateJob(ctx, job, fromStatus, fromVersion)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, models.ErrConflict) {
			return nil, err
		}
		s.logger.Warnf("Job %s/%s changed concurrently, retrying (%d/%d)", tenant, code, attempt+1, maxSaveAttempts)
		lastErr = err
	}
	return nil, lastErr
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
