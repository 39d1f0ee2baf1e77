package controller

import (
	"context"
	"net/http"
	"strconv"

	"fieldops-scheduler/models"
	"fieldops-scheduler/services"
	"fieldops-scheduler/utils/logger"

	"github.com/gin-gonic/gin"
)

const defaultPreviewCount = 5

type PlanController struct {
	planService services.SchedulePlanServiceInterface
	logger      logger.Logger
}

func NewPlanController(planService services.SchedulePlanServiceInterface, logger logger.Logger) *PlanController {
	return &PlanController{
		planService: planService,
		logger:      logger,
	}
}

// CreatePlan handles POST /plans
// @Summary Create a recurring schedule plan
// @Tags Schedule Plans
// @Param X-Tenant-ID header string true "Tenant"
// @Param request body models.CreateSchedulePlanRequest true "Create plan request"
// @Success 201 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse "Code already taken"
// @Router /plans [post]
func (h *PlanController) CreatePlan(c *gin.Context) {
	var req models.CreateSchedulePlanRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), tenantOf(c), &req, actorOf(c))
	if err != nil {
		respondError(c, h.logger, "Failed to create plan", err)
		return
	}

	respondSuccess(c, http.StatusCreated, "Plan created successfully", plan)
}

// GetPlans handles GET /plans
func (h *PlanController) GetPlans(c *gin.Context) {
	filter := &models.SchedulePlanFilter{
		Tenant: tenantOf(c),
		Status: models.PlanStatus(c.Query("status")),
	}

	plans, err := h.planService.ListPlans(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, "Failed to retrieve plans", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Plans retrieved successfully", plans)
}

// GetPlan handles GET /plans/:code
func (h *PlanController) GetPlan(c *gin.Context) {
	plan, err := h.planService.GetPlan(c.Request.Context(), tenantOf(c), c.Param("code"))
	if err != nil {
		respondError(c, h.logger, "Failed to retrieve plan", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Plan retrieved successfully", plan)
}

// UpdatePlan handles PATCH /plans/:code
// @Summary Edit a plan; pattern, window or exclusion changes recompute nextRunAt
// @Router /plans/{code} [patch]
func (h *PlanController) UpdatePlan(c *gin.Context) {
	var req models.UpdateSchedulePlanRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	plan, err := h.planService.UpdatePlan(c.Request.Context(), tenantOf(c), c.Param("code"), &req, actorOf(c))
	if err != nil {
		respondError(c, h.logger, "Failed to update plan", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Plan updated successfully", plan)
}

type planTransition func(ctx context.Context, tenant models.TenantID, code, actor string) (*models.SchedulePlan, error)

func (h *PlanController) respondTransition(c *gin.Context, message string, apply planTransition) {
	plan, err := apply(c.Request.Context(), tenantOf(c), c.Param("code"), actorOf(c))
	if err != nil {
		respondError(c, h.logger, "Failed to change plan status", err)
		return
	}
	respondSuccess(c, http.StatusOK, message, plan)
}

// PausePlan handles POST /plans/:code/pause
func (h *PlanController) PausePlan(c *gin.Context) {
	h.respondTransition(c, "Plan paused", h.planService.PausePlan)
}

// ResumePlan handles POST /plans/:code/resume
func (h *PlanController) ResumePlan(c *gin.Context) {
	h.respondTransition(c, "Plan resumed", h.planService.ResumePlan)
}

// ArchivePlan handles POST /plans/:code/archive
func (h *PlanController) ArchivePlan(c *gin.Context) {
	h.respondTransition(c, "Plan archived", h.planService.ArchivePlan)
}

// SetNextRun handles PUT /plans/:code/next-run
func (h *PlanController) SetNextRun(c *gin.Context) {
	var req models.SetNextRunRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	plan, err := h.planService.SetNextRun(c.Request.Context(), tenantOf(c), c.Param("code"), req.NextRunAt, actorOf(c))
	if err != nil {
		respondError(c, h.logger, "Failed to set next run", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Next run updated", plan)
}

// PreviewOccurrences handles GET /plans/:code/preview?n=5
func (h *PlanController) PreviewOccurrences(c *gin.Context) {
	n := defaultPreviewCount
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, h.logger, "Invalid query", models.NewValidationError("n", "must be a number"))
			return
		}
		n = parsed
	}

	dates, err := h.planService.PreviewOccurrences(c.Request.Context(), tenantOf(c), c.Param("code"), n)
	if err != nil {
		respondError(c, h.logger, "Failed to preview occurrences", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Upcoming occurrences", dates)
}
