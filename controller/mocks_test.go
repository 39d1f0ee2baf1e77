package controller

import (
	"context"
	"time"

	"fieldops-scheduler/models"
	"fieldops-scheduler/services"

	"github.com/stretchr/testify/mock"
)

// MockPlanService implements SchedulePlanServiceInterface for testing
type MockPlanService struct {
	mock.Mock
}

func (m *MockPlanService) plan(args mock.Arguments) (*models.SchedulePlan, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SchedulePlan), args.Error(1)
}

func (m *MockPlanService) CreatePlan(ctx context.Context, tenant models.TenantID, req *models.CreateSchedulePlanRequest, actor string) (*models.SchedulePlan, error) {
	return m.plan(m.Called(ctx, tenant, req, actor))
}

func (m *MockPlanService) GetPlan(ctx context.Context, tenant models.TenantID, code string) (*models.SchedulePlan, error) {
	return m.plan(m.Called(ctx, tenant, code))
}

func (m *MockPlanService) ListPlans(ctx context.Context, filter *models.SchedulePlanFilter) ([]*models.SchedulePlan, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SchedulePlan), args.Error(1)
}

func (m *MockPlanService) UpdatePlan(ctx context.Context, tenant models.TenantID, code string, req *models.UpdateSchedulePlanRequest, actor string) (*models.SchedulePlan, error) {
	return m.plan(m.Called(ctx, tenant, code, req, actor))
}

func (m *MockPlanService) PausePlan(ctx context.Context, tenant models.TenantID, code, actor string) (*models.SchedulePlan, error) {
	return m.plan(m.Called(ctx, tenant, code, actor))
}

func (m *MockPlanService) ResumePlan(ctx context.Context, tenant models.TenantID, code, actor string) (*models.SchedulePlan, error) {
	return m.plan(m.Called(ctx, tenant, code, actor))
}

func (m *MockPlanService) ArchivePlan(ctx context.Context, tenant models.TenantID, code, actor string) (*models.SchedulePlan, error) {
	return m.plan(m.Called(ctx, tenant, code, actor))
}

func (m *MockPlanService) SetNextRun(ctx context.Context, tenant models.TenantID, code string, at time.Time, actor string) (*models.SchedulePlan, error) {
	return m.plan(m.Called(ctx, tenant, code, at, actor))
}

func (m *MockPlanService) PreviewOccurrences(ctx context.Context, tenant models.TenantID, code string, n int) ([]time.Time, error) {
	args := m.Called(ctx, tenant, code, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]time.Time), args.Error(1)
}

// MockJobService implements OperationJobServiceInterface for testing
type MockJobService struct {
	mock.Mock
}

func (m *MockJobService) job(args mock.Arguments) (*models.OperationJob, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OperationJob), args.Error(1)
}

func (m *MockJobService) CreateJob(ctx context.Context, tenant models.TenantID, req *models.CreateJobRequest, actor string) (*models.OperationJob, error) {
	return m.job(m.Called(ctx, tenant, req, actor))
}

func (m *MockJobService) GetJob(ctx context.Context, tenant models.TenantID, code string) (*models.OperationJob, error) {
	return m.job(m.Called(ctx, tenant, code))
}

func (m *MockJobService) ListJobs(ctx context.Context, filter *models.JobFilter) ([]*models.OperationJob, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.OperationJob), args.Error(1)
}

func (m *MockJobService) Confirm(ctx context.Context, tenant models.TenantID, code, actor string) (*models.OperationJob, error) {
	return m.job(m.Called(ctx, tenant, code, actor))
}

func (m *MockJobService) Start(ctx context.Context, tenant models.TenantID, code, actor string) (*models.OperationJob, error) {
	return m.job(m.Called(ctx, tenant, code, actor))
}

func (m *MockJobService) Pause(ctx context.Context, tenant models.TenantID, code, actor string) (*models.OperationJob, error) {
	return m.job(m.Called(ctx, tenant, code, actor))
}

func (m *MockJobService) Resume(ctx context.Context, tenant models.TenantID, code, actor string) (*models.OperationJob, error) {
	return m.job(m.Called(ctx, tenant, code, actor))
}

func (m *MockJobService) Complete(ctx context.Context, tenant models.TenantID, code string, req *models.CompleteJobRequest, actor string) (*models.OperationJob, error) {
	return m.job(m.Called(ctx, tenant, code, req, actor))
}

func (m *MockJobService) Cancel(ctx context.Context, tenant models.TenantID, code, reason, actor string) (*models.OperationJob, error) {
	return m.job(m.Called(ctx, tenant, code, reason, actor))
}

func (m *MockJobService) AssignCrew(ctx context.Context, tenant models.TenantID, code string, assignments []models.Assignment, actor string) (*models.OperationJob, error) {
	return m.job(m.Called(ctx, tenant, code, assignments, actor))
}

func (m *MockJobService) UpdateAssignment(ctx context.Context, tenant models.TenantID, code string, employee models.EmployeeRef, req *models.UpdateAssignmentRequest, actor string) (*models.OperationJob, error) {
	return m.job(m.Called(ctx, tenant, code, employee, req, actor))
}

func (m *MockJobService) RecordStep(ctx context.Context, tenant models.TenantID, code string, step models.JobStepResult, actor string) (*models.OperationJob, error) {
	return m.job(m.Called(ctx, tenant, code, step, actor))
}

func (m *MockJobService) RecordMaterial(ctx context.Context, tenant models.TenantID, code string, material models.MaterialUsage, actor string) (*models.OperationJob, error) {
	return m.job(m.Called(ctx, tenant, code, material, actor))
}

func (m *MockJobService) SetDeliverables(ctx context.Context, tenant models.TenantID, code string, deliverables models.Deliverables, actor string) (*models.OperationJob, error) {
	return m.job(m.Called(ctx, tenant, code, deliverables, actor))
}

func (m *MockJobService) SetFinance(ctx context.Context, tenant models.TenantID, code string, finance models.FinanceSnapshot, actor string) (*models.OperationJob, error) {
	return m.job(m.Called(ctx, tenant, code, finance, actor))
}

// MockCrewService implements CrewServiceInterface for testing
type MockCrewService struct {
	mock.Mock
}

func (m *MockCrewService) crew(args mock.Arguments) (*models.Crew, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Crew), args.Error(1)
}

func (m *MockCrewService) CreateCrew(ctx context.Context, tenant models.TenantID, req *models.CreateCrewRequest) (*models.Crew, error) {
	return m.crew(m.Called(ctx, tenant, req))
}

func (m *MockCrewService) GetCrews(ctx context.Context, filter *models.CrewFilter) ([]*models.Crew, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Crew), args.Error(1)
}

func (m *MockCrewService) GetCrewByID(ctx context.Context, tenant models.TenantID, id string) (*models.Crew, error) {
	return m.crew(m.Called(ctx, tenant, id))
}

func (m *MockCrewService) UpdateCrew(ctx context.Context, tenant models.TenantID, id string, req *models.UpdateCrewRequest) (*models.Crew, error) {
	return m.crew(m.Called(ctx, tenant, id, req))
}

func (m *MockCrewService) DeleteCrew(ctx context.Context, tenant models.TenantID, id string) error {
	return m.Called(ctx, tenant, id).Error(0)
}

func (m *MockCrewService) AddMemberToCrew(ctx context.Context, tenant models.TenantID, crewID string, member models.EmployeeRef) (*models.Crew, error) {
	return m.crew(m.Called(ctx, tenant, crewID, member))
}

func (m *MockCrewService) RemoveMemberFromCrew(ctx context.Context, tenant models.TenantID, crewID string, member models.EmployeeRef) (*models.Crew, error) {
	return m.crew(m.Called(ctx, tenant, crewID, member))
}

// MockInfraService implements InfrastructureServiceInterface for testing
type MockInfraService struct {
	mock.Mock
}

func (m *MockInfraService) GetWorkerStatus(ctx context.Context) (*models.ExecutionResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExecutionResult), args.Error(1)
}

func (m *MockInfraService) IsWorkerHealthy() (bool, string, error) {
	args := m.Called()
	return args.Bool(0), args.String(1), args.Error(2)
}

// MockRunner implements GenerationRunner for testing
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) RunOnce(ctx context.Context) (*models.GenerationReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GenerationReport), args.Error(1)
}

// mockContainer hands the mocks to NewController.
type mockContainer struct {
	plans *MockPlanService
	jobs  *MockJobService
	crews *MockCrewService
	infra *MockInfraService
}

func (c *mockContainer) GetSchedulePlanService() services.SchedulePlanServiceInterface { return c.plans }

func (c *mockContainer) GetOperationJobService() services.OperationJobServiceInterface { return c.jobs }

func (c *mockContainer) GetJobGenerationService() services.JobGenerationServiceInterface { return nil }

func (c *mockContainer) GetInfrastructureService() services.InfrastructureServiceInterface {
	return c.infra
}

func (c *mockContainer) GetCrewService() services.CrewServiceInterface { return c.crews }
