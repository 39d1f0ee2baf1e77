package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldops-scheduler/dal"
	"fieldops-scheduler/models"
	"fieldops-scheduler/utils"
	"fieldops-scheduler/utils/logger"
)

type SchedulePlanRepository struct {
	db     dal.DatabaseClientInterface
	config *models.Config
	logger logger.Logger
}

func NewSchedulePlanRepository(db dal.DatabaseClientInterface, cfg *models.Config, log logger.Logger) *SchedulePlanRepository {
	return &SchedulePlanRepository{
		db:     db,
		config: cfg,
		logger: log,
	}
}

func (r *SchedulePlanRepository) table() string {
	return r.config.TableName(models.TableSchedulePlans)
}

func (r *SchedulePlanRepository) CreatePlan(ctx context.Context, plan *models.SchedulePlan) (*models.SchedulePlan, error) {
	r.logger.Infof("Creating schedule plan: %s/%s", plan.Tenant, plan.Code)

	now := time.Now().UTC()
	plan.PlanKey = models.PlanKey(plan.Tenant, plan.Code)
	plan.PlanID = utils.GenerateUUID()
	plan.Version = 1
	plan.CreatedAt = now
	plan.UpdatedAt = now
	normalizePlanTimes(plan)

	err := r.db.PutItemIfNotExists(ctx, r.table(), "planKey", plan)
	if errors.Is(err, dal.ErrConditionFailed) {
		return nil, fmt.Errorf("%w: plan code %q already exists", models.ErrConflict, plan.Code)
	}
	if err != nil {
		r.logger.Errorf("Failed to create schedule plan: %v", err)
		return nil, err
	}

	r.logger.Infof("Schedule plan created successfully: %s", plan.PlanKey)
	return plan, nil
}

func (r *SchedulePlanRepository) GetPlan(ctx context.Context, tenant models.TenantID, code string) (*models.SchedulePlan, error) {
	if tenant == "" || code == "" {
		return nil, models.NewValidationError("code", "tenant and plan code are required")
	}

	var plan models.SchedulePlan
	err := r.db.GetItem(ctx, models.QueryConfig{
		TableName:  r.table(),
		KeyName:    "planKey",
		KeyValue:   models.PlanKey(tenant, code),
		Consistent: true,
	}, &plan)
	if errors.Is(err, dal.ErrItemNotFound) {
		return nil, fmt.Errorf("%w: schedule plan %s", models.ErrNotFound, code)
	}
	if err != nil {
		r.logger.Errorf("Failed to get schedule plan %s: %v", code, err)
		return nil, fmt.Errorf("failed to get schedule plan: %w", err)
	}

	return &plan, nil
}

func (r *SchedulePlanRepository) ListPlans(ctx context.Context, filter *models.SchedulePlanFilter) ([]*models.SchedulePlan, error) {
	if filter == nil || filter.Tenant == "" {
		return nil, models.NewValidationError("tenant", "tenant is required")
	}

	var plans []*models.SchedulePlan
	err := r.db.QueryByIndex(ctx, r.table(), "tenant-index", "tenant", string(filter.Tenant), &plans)
	if err != nil {
		r.logger.Errorf("Failed to list schedule plans: %v", err)
		return nil, err
	}

	if filter.Status == "" {
		return plans, nil
	}

	filtered := plans[:0]
	for _, p := range plans {
		if p.Status == filter.Status {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// ListActivePlans returns active plans of every tenant. The generator is the
// only caller; tenant isolation holds per plan.
func (r *SchedulePlanRepository) ListActivePlans(ctx context.Context) ([]*models.SchedulePlan, error) {
	var plans []*models.SchedulePlan
	err := r.db.QueryByIndex(ctx, r.table(), "status-index", "status", string(models.PlanStatusActive), &plans)
	if err != nil {
		r.logger.Errorf("Failed to list active schedule plans: %v", err)
		return nil, err
	}

	r.logger.Debugf("Found %d active schedule plans", len(plans))
	return plans, nil
}

func (r *SchedulePlanRepository) UpdatePlan(ctx context.Context, plan *models.SchedulePlan, expectedVersion int) (*models.SchedulePlan, error) {
	r.logger.Infof("Updating schedule plan: %s/%s", plan.Tenant, plan.Code)

	plan.PlanKey = models.PlanKey(plan.Tenant, plan.Code)
	plan.Version = expectedVersion + 1
	plan.UpdatedAt = time.Now().UTC()
	normalizePlanTimes(plan)

	err := r.db.PutItemIf(ctx, r.table(), plan, map[string]interface{}{"version": expectedVersion})
	if errors.Is(err, dal.ErrConditionFailed) {
		return nil, fmt.Errorf("%w: schedule plan %s changed since version %d", models.ErrConflict, plan.Code, expectedVersion)
	}
	if err != nil {
		r.logger.Errorf("Failed to update schedule plan: %v", err)
		return nil, err
	}

	return plan, nil
}

// AdvancePlan records a generated occurrence. It applies only while the stored
// plan still has the nextRunAt and version that were read.
func (r *SchedulePlanRepository) AdvancePlan(ctx context.Context, plan *models.SchedulePlan, expectedNextRunAt *time.Time) error {
	normalizePlanTimes(plan)
	plan.UpdatedAt = time.Now().UTC()

	updates := map[string]interface{}{
		"lastRunAt":  nil,
		"nextRunAt":  nil,
		"lastJobRef": nil,
		"updatedAt":  plan.UpdatedAt,
		"version":    plan.Version + 1,
	}
	if plan.LastRunAt != nil {
		updates["lastRunAt"] = *plan.LastRunAt
	}
	if plan.NextRunAt != nil {
		updates["nextRunAt"] = *plan.NextRunAt
	}
	if plan.LastJobRef != "" {
		updates["lastJobRef"] = plan.LastJobRef
	}

	var expected interface{}
	if expectedNextRunAt != nil {
		expected = expectedNextRunAt.UTC()
	}

	err := r.db.UpdateItemIf(ctx, r.table(), "planKey", models.PlanKey(plan.Tenant, plan.Code), updates,
		map[string]interface{}{"nextRunAt": expected, "version": plan.Version})
	if errors.Is(err, dal.ErrConditionFailed) {
		return fmt.Errorf("%w: schedule plan %s was advanced or edited concurrently", models.ErrConflict, plan.Code)
	}
	if err != nil {
		r.logger.Errorf("Failed to advance schedule plan %s: %v", plan.Code, err)
		return err
	}

	plan.Version++
	return nil
}

// normalizePlanTimes stores instants in UTC so conditional comparisons on
// their string form are exact.
func normalizePlanTimes(plan *models.SchedulePlan) {
	if plan.NextRunAt != nil {
		t := plan.NextRunAt.UTC()
		plan.NextRunAt = &t
	}
	if plan.LastRunAt != nil {
		t := plan.LastRunAt.UTC()
		plan.LastRunAt = &t
	}
}
