package services

import (
	"context"
	"time"

	"fieldops-scheduler/models"
)

// SchedulePlanServiceInterface defines the contract for the plan lifecycle
type SchedulePlanServiceInterface interface {
	CreatePlan(ctx context.Context, tenant models.TenantID, req *models.CreateSchedulePlanRequest, actor string) (*models.SchedulePlan, error)
	GetPlan(ctx context.Context, tenant models.TenantID, code string) (*models.SchedulePlan, error)
	ListPlans(ctx context.Context, filter *models.SchedulePlanFilter) ([]*models.SchedulePlan, error)
	UpdatePlan(ctx context.Context, tenant models.TenantID, code string, req *models.UpdateSchedulePlanRequest, actor string) (*models.SchedulePlan, error)
	PausePlan(ctx context.Context, tenant models.TenantID, code, actor string) (*models.SchedulePlan, error)
	ResumePlan(ctx context.Context, tenant models.TenantID, code, actor string) (*models.SchedulePlan, error)
	ArchivePlan(ctx context.Context, tenant models.TenantID, code, actor string) (*models.SchedulePlan, error)
	SetNextRun(ctx context.Context, tenant models.TenantID, code string, at time.Time, actor string) (*models.SchedulePlan, error)
	PreviewOccurrences(ctx context.Context, tenant models.TenantID, code string, n int) ([]time.Time, error)
}

// OperationJobServiceInterface defines the contract for the job state machine
// and field data capture
type OperationJobServiceInterface interface {
	CreateJob(ctx context.Context, tenant models.TenantID, req *models.CreateJobRequest, actor string) (*models.OperationJob, error)
	GetJob(ctx context.Context, tenant models.TenantID, code string) (*models.OperationJob, error)
	ListJobs(ctx context.Context, filter *models.JobFilter) ([]*models.OperationJob, error)

	Confirm(ctx context.Context, tenant models.TenantID, code, actor string) (*models.OperationJob, error)
	Start(ctx context.Context, tenant models.TenantID, code, actor string) (*models.OperationJob, error)
	Pause(ctx context.Context, tenant models.TenantID, code, actor string) (*models.OperationJob, error)
	Resume(ctx context.Context, tenant models.TenantID, code, actor string) (*models.OperationJob, error)
	Complete(ctx context.Context, tenant models.TenantID, code string, req *models.CompleteJobRequest, actor string) (*models.OperationJob, error)
	Cancel(ctx context.Context, tenant models.TenantID, code, reason, actor string) (*models.OperationJob, error)

	AssignCrew(ctx context.Context, tenant models.TenantID, code string, assignments []models.Assignment, actor string) (*models.OperationJob, error)
	UpdateAssignment(ctx context.Context, tenant models.TenantID, code string, employee models.EmployeeRef, req *models.UpdateAssignmentRequest, actor string) (*models.OperationJob, error)
	RecordStep(ctx context.Context, tenant models.TenantID, code string, step models.JobStepResult, actor string) (*models.OperationJob, error)
	RecordMaterial(ctx context.Context, tenant models.TenantID, code string, material models.MaterialUsage, actor string) (*models.OperationJob, error)
	SetDeliverables(ctx context.Context, tenant models.TenantID, code string, deliverables models.Deliverables, actor string) (*models.OperationJob, error)
	SetFinance(ctx context.Context, tenant models.TenantID, code string, finance models.FinanceSnapshot, actor string) (*models.OperationJob, error)
}

// JobGenerationServiceInterface materializes due plan occurrences into jobs
type JobGenerationServiceInterface interface {
	RunDue(ctx context.Context, now time.Time) (*models.GenerationReport, error)
	GeneratePlan(ctx context.Context, plan *models.SchedulePlan, now time.Time) models.PlanOutcome
}

// InfrastructureServiceInterface defines the contract for worker health
type InfrastructureServiceInterface interface {
	GetWorkerStatus(ctx context.Context) (*models.ExecutionResult, error)
	IsWorkerHealthy() (bool, string, error)
}

// EmployeeDirectory suggests employees for a job. An empty result is not an error.
type EmployeeDirectory interface {
	SuggestCrew(ctx context.Context, req models.CrewRequest) ([]models.EmployeeRef, error)
}

// PlanLeaser hands out short-lived per-plan leases so replicas do not work
// the same plan at once. Correctness never depends on it.
type PlanLeaser interface {
	TryAcquire(ctx context.Context, key string) (release func(context.Context) error, acquired bool, err error)
}

// ServiceContainerInterface defines the main service container contract
type ServiceContainerInterface interface {
	GetSchedulePlanService() SchedulePlanServiceInterface
	GetOperationJobService() OperationJobServiceInterface
	GetJobGenerationService() JobGenerationServiceInterface
	GetInfrastructureService() InfrastructureServiceInterface
	GetCrewService() CrewServiceInterface
}
