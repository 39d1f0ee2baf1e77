package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"fieldops-scheduler/dal"
	"fieldops-scheduler/models"
	"fieldops-scheduler/utils"
	"fieldops-scheduler/utils/logger"
)

type OperationJobRepository struct {
	db     dal.DatabaseClientInterface
	config *models.Config
	logger logger.Logger
}

func NewOperationJobRepository(db dal.DatabaseClientInterface, cfg *models.Config, log logger.Logger) *OperationJobRepository {
	return &OperationJobRepository{
		db:     db,
		config: cfg,
		logger: log,
	}
}

func (r *OperationJobRepository) table() string {
	return r.config.TableName(models.TableOperationJobs)
}

func (r *OperationJobRepository) CreateJob(ctx context.Context, job *models.OperationJob) (*models.OperationJob, error) {
	r.logger.Infof("Creating job: %s/%s", job.Tenant, job.Code)

	now := time.Now().UTC()
	job.JobKey = models.JobKey(job.Tenant, job.Code)
	job.JobID = utils.GenerateUUID()
	job.Version = 1
	job.CreatedAt = now
	job.UpdatedAt = now

	err := r.db.PutItemIfNotExists(ctx, r.table(), "jobKey", job)
	if errors.Is(err, dal.ErrConditionFailed) {
		if job.GenerationKey != "" {
			return nil, r.generationCollision(ctx, job)
		}
		return nil, fmt.Errorf("%w: job code %q already exists", models.ErrConflict, job.Code)
	}
	if err != nil {
		r.logger.Errorf("Failed to create job: %v", err)
		return nil, err
	}

	r.logger.Infof("Job created successfully: %s", job.JobKey)
	return job, nil
}

// generationCollision tells a repeated generation apart from an unrelated job
// that holds the generated code. Only the former is a duplicate.
func (r *OperationJobRepository) generationCollision(ctx context.Context, job *models.OperationJob) error {
	existing, err := r.GetJob(ctx, job.Tenant, job.Code)
	if err != nil {
		return fmt.Errorf("failed to inspect existing job %s: %w", job.Code, err)
	}
	if existing.GenerationKey != job.GenerationKey {
		r.logger.Errorf("Job code %s is held by an unrelated job, occurrence %s not generated", job.Code, job.GenerationKey)
		return fmt.Errorf("%w: job code %q is held by a job outside occurrence %s", models.ErrConflict, job.Code, job.GenerationKey)
	}
	return fmt.Errorf("%w: %s", models.ErrDuplicateGeneration, job.GenerationKey)
}

func (r *OperationJobRepository) GetJob(ctx context.Context, tenant models.TenantID, code string) (*models.OperationJob, error) {
	if tenant == "" || code == "" {
		return nil, models.NewValidationError("code", "tenant and job code are required")
	}

	var job models.OperationJob
	err := r.db.GetItem(ctx, models.QueryConfig{
		TableName:  r.table(),
		KeyName:    "jobKey",
		KeyValue:   models.JobKey(tenant, code),
		Consistent: true,
	}, &job)
	if errors.Is(err, dal.ErrItemNotFound) {
		return nil, fmt.Errorf("%w: job %s", models.ErrNotFound, code)
	}
	if err != nil {
		r.logger.Errorf("Failed to get job %s: %v", code, err)
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

func (r *OperationJobRepository) GetJobsByFilter(ctx context.Context, filter *models.JobFilter) ([]*models.OperationJob, error) {
	if filter == nil || filter.Tenant == "" {
		return nil, models.NewValidationError("tenant", "tenant is required")
	}

	var jobs []*models.OperationJob
	err := r.db.QueryByIndex(ctx, r.table(), "tenant-index", "tenant", string(filter.Tenant), &jobs)
	if err != nil {
		r.logger.Errorf("Failed to get jobs: %v", err)
		return nil, err
	}

	filtered := r.applyAdditionalFilters(jobs, filter)
	sort.Slice(filtered, func(i, j int) bool {
		return plannedStartOf(filtered[i]).Before(plannedStartOf(filtered[j]))
	})

	r.logger.Debugf("Found %d jobs", len(filtered))
	return filtered, nil
}

func (r *OperationJobRepository) UpdateJob(ctx context.Context, job *models.OperationJob, expectedStatus models.JobStatus, expectedVersion int) (*models.OperationJob, error) {
	r.logger.Infof("Updating job: %s/%s", job.Tenant, job.Code)

	job.JobKey = models.JobKey(job.Tenant, job.Code)
	job.Version = expectedVersion + 1
	job.UpdatedAt = time.Now().UTC()

	err := r.db.PutItemIf(ctx, r.table(), job, map[string]interface{}{
		"status":  expectedStatus,
		"version": expectedVersion,
	})
	if errors.Is(err, dal.ErrConditionFailed) {
		return nil, fmt.Errorf("%w: job %s is no longer %s at version %d", models.ErrConflict, job.Code, expectedStatus, expectedVersion)
	}
	if err != nil {
		r.logger.Errorf("Failed to update job: %v", err)
		return nil, err
	}

	r.logger.Infof("Job updated successfully: %s -> %s", job.JobKey, job.Status)
	return job, nil
}

func (r *OperationJobRepository) applyAdditionalFilters(jobs []*models.OperationJob, filter *models.JobFilter) []*models.OperationJob {
	var filtered []*models.OperationJob
	for _, job := range jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if filter.PlanCode != "" && job.PlanCode != filter.PlanCode {
			continue
		}

		start := plannedStartOf(job)
		if !filter.FromDate.IsZero() && start.Before(filter.FromDate) {
			continue
		}
		if !filter.ToDate.IsZero() && start.After(filter.ToDate) {
			continue
		}

		filtered = append(filtered, job)
	}
	return filtered
}

// plannedStartOf falls back to the creation time for unscheduled jobs.
func plannedStartOf(job *models.OperationJob) time.Time {
	if job.Schedule.PlannedStart != nil {
		return *job.Schedule.PlannedStart
	}
	return job.CreatedAt
}
