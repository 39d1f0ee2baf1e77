package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"fieldops-scheduler/models"
	"fieldops-scheduler/utils/logger"

	"github.com/stretchr/testify/mock"
)

// MockLogger implements the logger interface for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(args ...interface{}) {
	m.Called(args...)
}

func (m *MockLogger) Debugf(format string, args ...interface{}) {
	m.Called(format, args)
}

func (m *MockLogger) Info(args ...interface{}) {
	m.Called(args...)
}

func (m *MockLogger) Infof(format string, args ...interface{}) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(args ...interface{}) {
	m.Called(args...)
}

func (m *MockLogger) Warnf(format string, args ...interface{}) {
	m.Called(format, args)
}

func (m *MockLogger) Error(args ...interface{}) {
	m.Called(args...)
}

func (m *MockLogger) Errorf(format string, args ...interface{}) {
	m.Called(format, args)
}

func (m *MockLogger) Fatal(args ...interface{}) {
	m.Called(args...)
}

func (m *MockLogger) Fatalf(format string, args ...interface{}) {
	m.Called(format, args)
}

func (m *MockLogger) WithFields(fields logger.Fields) logger.Logger {
	return m
}

// newMockLogger accepts any log call. Tests that care about a level
// assert on it afterwards.
func newMockLogger() *MockLogger {
	l := new(MockLogger)
	for _, method := range []string{"Debug", "Info", "Warn", "Error"} {
		l.On(method, mock.Anything).Maybe()
		l.On(method, mock.Anything, mock.Anything).Maybe()
		l.On(method+"f", mock.Anything, mock.Anything).Maybe()
	}
	return l
}

// MockEmployeeDirectory implements EmployeeDirectory for testing
type MockEmployeeDirectory struct {
	mock.Mock
}

func (m *MockEmployeeDirectory) SuggestCrew(ctx context.Context, req models.CrewRequest) ([]models.EmployeeRef, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EmployeeRef), args.Error(1)
}

// MockPlanLeaser implements PlanLeaser for testing
type MockPlanLeaser struct {
	mock.Mock
}

func (m *MockPlanLeaser) TryAcquire(ctx context.Context, key string) (func(context.Context) error, bool, error) {
	args := m.Called(ctx, key)
	release, _ := args.Get(0).(func(context.Context) error)
	return release, args.Bool(1), args.Error(2)
}

// clone deep-copies through JSON so callers never share slices with the store.
func clone[T any](v *T) *T {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		panic(err)
	}
	return out
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// fakePlanRepo keeps plans in memory with the same conditional semantics as
// the DynamoDB repository.
type fakePlanRepo struct {
	mu         sync.Mutex
	plans      map[string]*models.SchedulePlan
	listErr    error
	advanceErr error
	advances   int
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: map[string]*models.SchedulePlan{}}
}

func (r *fakePlanRepo) CreatePlan(ctx context.Context, plan *models.SchedulePlan) (*models.SchedulePlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := models.PlanKey(plan.Tenant, plan.Code)
	if _, ok := r.plans[key]; ok {
		return nil, fmt.Errorf("%w: plan code %q already exists", models.ErrConflict, plan.Code)
	}
	plan.PlanKey = key
	plan.Version = 1
	r.plans[key] = clone(plan)
	return plan, nil
}

func (r *fakePlanRepo) GetPlan(ctx context.Context, tenant models.TenantID, code string) (*models.SchedulePlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.plans[models.PlanKey(tenant, code)]
	if !ok {
		return nil, fmt.Errorf("%w: schedule plan %s", models.ErrNotFound, code)
	}
	return clone(p), nil
}

func (r *fakePlanRepo) ListPlans(ctx context.Context, filter *models.SchedulePlanFilter) ([]*models.SchedulePlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.SchedulePlan
	for _, p := range r.plans {
		if p.Tenant == filter.Tenant && (filter.Status == "" || p.Status == filter.Status) {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

func (r *fakePlanRepo) ListActivePlans(ctx context.Context) ([]*models.SchedulePlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*models.SchedulePlan
	for _, p := range r.plans {
		if p.Status == models.PlanStatusActive {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

func (r *fakePlanRepo) UpdatePlan(ctx context.Context, plan *models.SchedulePlan, expectedVersion int) (*models.SchedulePlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := models.PlanKey(plan.Tenant, plan.Code)
	stored, ok := r.plans[key]
	if !ok || stored.Version != expectedVersion {
		return nil, fmt.Errorf("%w: schedule plan %s changed since version %d", models.ErrConflict, plan.Code, expectedVersion)
	}
	plan.Version = expectedVersion + 1
	r.plans[key] = clone(plan)
	return plan, nil
}

func (r *fakePlanRepo) AdvancePlan(ctx context.Context, plan *models.SchedulePlan, expectedNextRunAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.advanceErr != nil {
		return r.advanceErr
	}
	key := models.PlanKey(plan.Tenant, plan.Code)
	stored, ok := r.plans[key]
	if !ok || !sameInstant(stored.NextRunAt, expectedNextRunAt) || stored.Version != plan.Version {
		return fmt.Errorf("%w: schedule plan %s was advanced or edited concurrently", models.ErrConflict, plan.Code)
	}
	stored.LastRunAt = plan.LastRunAt
	stored.NextRunAt = plan.NextRunAt
	stored.LastJobRef = plan.LastJobRef
	stored.Version = plan.Version + 1
	plan.Version++
	r.advances++
	return nil
}

func (r *fakePlanRepo) stored(tenant models.TenantID, code string) *models.SchedulePlan {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clone(r.plans[models.PlanKey(tenant, code)])
}

// fakeJobRepo keeps jobs in memory with insert-if-absent creates and
// compare-and-swap updates.
type fakeJobRepo struct {
	mu        sync.Mutex
	jobs      map[string]*models.OperationJob
	createErr map[string]error
	inserts   int
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{
		jobs:      map[string]*models.OperationJob{},
		createErr: map[string]error{},
	}
}

func (r *fakeJobRepo) CreateJob(ctx context.Context, job *models.OperationJob) (*models.OperationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.createErr[job.Code]; err != nil {
		return nil, err
	}
	key := models.JobKey(job.Tenant, job.Code)
	if existing, ok := r.jobs[key]; ok {
		if job.GenerationKey != "" && existing.GenerationKey != job.GenerationKey {
			return nil, fmt.Errorf("%w: job code %q is held by a job outside occurrence %s", models.ErrConflict, job.Code, job.GenerationKey)
		}
		if job.GenerationKey != "" {
			return nil, fmt.Errorf("%w: %s", models.ErrDuplicateGeneration, job.GenerationKey)
		}
		return nil, fmt.Errorf("%w: job code %q already exists", models.ErrConflict, job.Code)
	}
	job.JobKey = key
	job.Version = 1
	r.jobs[key] = clone(job)
	r.inserts++
	return job, nil
}

func (r *fakeJobRepo) GetJob(ctx context.Context, tenant models.TenantID, code string) (*models.OperationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[models.JobKey(tenant, code)]
	if !ok {
		return nil, fmt.Errorf("%w: job %s", models.ErrNotFound, code)
	}
	return clone(j), nil
}

func (r *fakeJobRepo) GetJobsByFilter(ctx context.Context, filter *models.JobFilter) ([]*models.OperationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.OperationJob
	for _, j := range r.jobs {
		if j.Tenant != filter.Tenant {
			continue
		}
		if filter.PlanCode != "" && j.PlanCode != filter.PlanCode {
			continue
		}
		if filter.Status != "" && j.Status != filter.Status {
			continue
		}
		out = append(out, clone(j))
	}
	return out, nil
}

func (r *fakeJobRepo) UpdateJob(ctx context.Context, job *models.OperationJob, expectedStatus models.JobStatus, expectedVersion int) (*models.OperationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := models.JobKey(job.Tenant, job.Code)
	stored, ok := r.jobs[key]
	if !ok || stored.Status != expectedStatus || stored.Version != expectedVersion {
		return nil, fmt.Errorf("%w: job %s is no longer %s at version %d", models.ErrConflict, job.Code, expectedStatus, expectedVersion)
	}
	job.Version = expectedVersion + 1
	r.jobs[key] = clone(job)
	return job, nil
}

func (r *fakeJobRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// put stores a job as is, bypassing create semantics.
func (r *fakeJobRepo) put(job *models.OperationJob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.Version == 0 {
		job.Version = 1
	}
	r.jobs[models.JobKey(job.Tenant, job.Code)] = clone(job)
}

// fakeCrewRepo keeps crews in memory.
type fakeCrewRepo struct {
	mu     sync.Mutex
	crews  map[string]*models.Crew
	nextID int
	err    error
}

func newFakeCrewRepo() *fakeCrewRepo {
	return &fakeCrewRepo{crews: map[string]*models.Crew{}}
}

func (r *fakeCrewRepo) CreateCrew(ctx context.Context, crew *models.Crew) (*models.Crew, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	crew.CrewID = fmt.Sprintf("crew_%d", r.nextID)
	crew.IsActive = true
	r.crews[crew.CrewID] = clone(crew)
	return crew, nil
}

func (r *fakeCrewRepo) GetCrew(ctx context.Context, id string) (*models.Crew, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.crews[id]
	if !ok {
		return nil, fmt.Errorf("%w: crew %s", models.ErrNotFound, id)
	}
	return clone(c), nil
}

func (r *fakeCrewRepo) GetCrewsByFilter(ctx context.Context, filter *models.CrewFilter) ([]*models.Crew, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	var out []*models.Crew
	for _, id := range sortedCrewIDs(r.crews) {
		c := r.crews[id]
		if c.Tenant != filter.Tenant {
			continue
		}
		if filter.IsActive != nil && c.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, clone(c))
	}
	return out, nil
}

func (r *fakeCrewRepo) UpdateCrew(ctx context.Context, id string, crew *models.Crew) (*models.Crew, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.crews[id]; !ok {
		return nil, fmt.Errorf("%w: crew %s", models.ErrNotFound, id)
	}
	crew.CrewID = id
	r.crews[id] = clone(crew)
	return crew, nil
}

func (r *fakeCrewRepo) DeleteCrew(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.crews, id)
	return nil
}

// sortedCrewIDs orders ids by creation so directory results are stable.
func sortedCrewIDs(crews map[string]*models.Crew) []string {
	ids := make([]string, 0, len(crews))
	for id := range crews {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) < len(ids[j])
		}
		return ids[i] < ids[j]
	})
	return ids
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
