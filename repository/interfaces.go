package repository

import (
	"context"
	"time"

	"fieldops-scheduler/models"
)

// SchedulePlanRepositoryInterface defines the contract for schedule plan storage
type SchedulePlanRepositoryInterface interface {
	// CreatePlan fails with models.ErrConflict when the tenant already has the code.
	CreatePlan(ctx context.Context, plan *models.SchedulePlan) (*models.SchedulePlan, error)
	GetPlan(ctx context.Context, tenant models.TenantID, code string) (*models.SchedulePlan, error)
	ListPlans(ctx context.Context, filter *models.SchedulePlanFilter) ([]*models.SchedulePlan, error)
	ListActivePlans(ctx context.Context) ([]*models.SchedulePlan, error)
	// UpdatePlan replaces the plan if its stored version is expectedVersion.
	UpdatePlan(ctx context.Context, plan *models.SchedulePlan, expectedVersion int) (*models.SchedulePlan, error)
	// AdvancePlan writes lastRunAt, nextRunAt and lastJobRef if the stored
	// nextRunAt still equals expectedNextRunAt.
	AdvancePlan(ctx context.Context, plan *models.SchedulePlan, expectedNextRunAt *time.Time) error
}

// OperationJobRepositoryInterface defines the contract for operation job storage
type OperationJobRepositoryInterface interface {
	// CreateJob inserts the job if its key is free. A taken key yields
	// models.ErrDuplicateGeneration for recurrence jobs, models.ErrConflict otherwise.
	CreateJob(ctx context.Context, job *models.OperationJob) (*models.OperationJob, error)
	GetJob(ctx context.Context, tenant models.TenantID, code string) (*models.OperationJob, error)
	GetJobsByFilter(ctx context.Context, filter *models.JobFilter) ([]*models.OperationJob, error)
	// UpdateJob replaces the job if the stored status and version still match.
	UpdateJob(ctx context.Context, job *models.OperationJob, expectedStatus models.JobStatus, expectedVersion int) (*models.OperationJob, error)
}

// CrewRepositoryInterface defines the contract for crew storage
type CrewRepositoryInterface interface {
	CreateCrew(ctx context.Context, crew *models.Crew) (*models.Crew, error)
	GetCrew(ctx context.Context, id string) (*models.Crew, error)
	GetCrewsByFilter(ctx context.Context, filter *models.CrewFilter) ([]*models.Crew, error)
	UpdateCrew(ctx context.Context, id string, crew *models.Crew) (*models.Crew, error)
	DeleteCrew(ctx context.Context, id string) error
}

// RepositoryContainerInterface defines the contract for the repository container
type RepositoryContainerInterface interface {
	GetSchedulePlanRepository() SchedulePlanRepositoryInterface
	GetOperationJobRepository() OperationJobRepositoryInterface
	GetCrewRepository() CrewRepositoryInterface
}
