package controller

import (
	"context"
	"net/http"
	"time"

	"fieldops-scheduler/models"
	"fieldops-scheduler/services"
	"fieldops-scheduler/utils/logger"

	"github.com/gin-gonic/gin"
)

type JobController struct {
	jobService services.OperationJobServiceInterface
	logger     logger.Logger
}

func NewJobController(jobService services.OperationJobServiceInterface, logger logger.Logger) *JobController {
	return &JobController{
		jobService: jobService,
		logger:     logger,
	}
}

// CreateJob handles POST /jobs
// @Summary Create a manual, contract or ad-hoc job
// @Tags Operation Jobs
// @Param X-Tenant-ID header string true "Tenant"
// @Param request body models.CreateJobRequest true "Create job request"
// @Success 201 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse "Code already taken"
// @Router /jobs [post]
func (h *JobController) CreateJob(c *gin.Context) {
	var req models.CreateJobRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	job, err := h.jobService.CreateJob(c.Request.Context(), tenantOf(c), &req, actorOf(c))
	if err != nil {
		respondError(c, h.logger, "Failed to create job", err)
		return
	}

	respondSuccess(c, http.StatusCreated, "Job created successfully", job)
}

// GetJobs handles GET /jobs
// @Param status query string false "Filter by status"
// @Param planCode query string false "Filter by originating plan"
// @Param fromDate query string false "Planned start on or after (YYYY-MM-DD)"
// @Param toDate query string false "Planned start before (YYYY-MM-DD)"
// @Router /jobs [get]
func (h *JobController) GetJobs(c *gin.Context) {
	filter := &models.JobFilter{
		Tenant:   tenantOf(c),
		Status:   models.JobStatus(c.Query("status")),
		PlanCode: c.Query("planCode"),
	}

	for param, dst := range map[string]*time.Time{"fromDate": &filter.FromDate, "toDate": &filter.ToDate} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			respondError(c, h.logger, "Invalid query", models.NewValidationError(param, "must be YYYY-MM-DD"))
			return
		}
		*dst = parsed
	}

	jobs, err := h.jobService.ListJobs(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, "Failed to retrieve jobs", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Jobs retrieved successfully", jobs)
}

// GetJob handles GET /jobs/:code
func (h *JobController) GetJob(c *gin.Context) {
	job, err := h.jobService.GetJob(c.Request.Context(), tenantOf(c), c.Param("code"))
	if err != nil {
		respondError(c, h.logger, "Failed to retrieve job", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Job retrieved successfully", job)
}

type jobTransition func(ctx context.Context, tenant models.TenantID, code, actor string) (*models.OperationJob, error)

// respondTransition runs a bodiless lifecycle action.
func (h *JobController) respondTransition(c *gin.Context, message string, apply jobTransition) {
	job, err := apply(c.Request.Context(), tenantOf(c), c.Param("code"), actorOf(c))
	if err != nil {
		respondError(c, h.logger, "Failed to update job status", err)
		return
	}
	respondSuccess(c, http.StatusOK, message, job)
}

// ConfirmJob handles POST /jobs/:code/confirm
func (h *JobController) ConfirmJob(c *gin.Context) {
	h.respondTransition(c, "Job confirmed", h.jobService.Confirm)
}

// StartJob handles POST /jobs/:code/start
func (h *JobController) StartJob(c *gin.Context) {
	h.respondTransition(c, "Job started", h.jobService.Start)
}

// PauseJob handles POST /jobs/:code/pause
func (h *JobController) PauseJob(c *gin.Context) {
	h.respondTransition(c, "Job paused", h.jobService.Pause)
}

// ResumeJob handles POST /jobs/:code/resume
func (h *JobController) ResumeJob(c *gin.Context) {
	h.respondTransition(c, "Job resumed", h.jobService.Resume)
}

// CompleteJob handles POST /jobs/:code/complete. The body is optional.
func (h *JobController) CompleteJob(c *gin.Context) {
	var req models.CompleteJobRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, h.logger, &req) {
		return
	}

	job, err := h.jobService.Complete(c.Request.Context(), tenantOf(c), c.Param("code"), &req, actorOf(c))
	if err != nil {
		respondError(c, h.logger, "Failed to complete job", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Job completed", job)
}

// CancelJob handles POST /jobs/:code/cancel
func (h *JobController) CancelJob(c *gin.Context) {
	var req models.CancelJobRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, h.logger, &req) {
		return
	}

	job, err := h.jobService.Cancel(c.Request.Context(), tenantOf(c), c.Param("code"), req.Reason, actorOf(c))
	if err != nil {
		respondError(c, h.logger, "Failed to cancel job", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Job cancelled", job)
}

// AssignCrew handles PUT /jobs/:code/assignments
func (h *JobController) AssignCrew(c *gin.Context) {
	var req models.AssignCrewRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	job, err := h.jobService.AssignCrew(c.Request.Context(), tenantOf(c), c.Param("code"), req.Assignments, actorOf(c))
	if err != nil {
		respondError(c, h.logger, "Failed to assign crew", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Crew assigned", job)
}

// UpdateAssignment handles PATCH /jobs/:code/assignments/:employee
func (h *JobController) UpdateAssignment(c *gin.Context) {
	var req models.UpdateAssignmentRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	employee := models.EmployeeRef(c.Param("employee"))
	job, err := h.jobService.UpdateAssignment(c.Request.Context(), tenantOf(c), c.Param("code"), employee, &req, actorOf(c))
	if err != nil {
		respondError(c, h.logger, "Failed to update assignment", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Assignment updated", job)
}

// RecordStep handles POST /jobs/:code/steps
func (h *JobController) RecordStep(c *gin.Context) {
	var step models.JobStepResult
	if !bindJSON(c, h.logger, &step) {
		return
	}

	job, err := h.jobService.RecordStep(c.Request.Context(), tenantOf(c), c.Param("code"), step, actorOf(c))
	if err != nil {
		respondError(c, h.logger, "Failed to record step", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Step recorded", job)
}

// RecordMaterial handles POST /jobs/:code/materials
func (h *JobController) RecordMaterial(c *gin.Context) {
	var material models.MaterialUsage
	if !bindJSON(c, h.logger, &material) {
		return
	}

	job, err := h.jobService.RecordMaterial(c.Request.Context(), tenantOf(c), c.Param("code"), material, actorOf(c))
	if err != nil {
		respondError(c, h.logger, "Failed to record material", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Material recorded", job)
}

// SetDeliverables handles PUT /jobs/:code/deliverables
func (h *JobController) SetDeliverables(c *gin.Context) {
	var deliverables models.Deliverables
	if !bindJSON(c, h.logger, &deliverables) {
		return
	}

	job, err := h.jobService.SetDeliverables(c.Request.Context(), tenantOf(c), c.Param("code"), deliverables, actorOf(c))
	if err != nil {
		respondError(c, h.logger, "Failed to set deliverables", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Deliverables updated", job)
}

// SetFinance handles PUT /jobs/:code/finance
func (h *JobController) SetFinance(c *gin.Context) {
	var finance models.FinanceSnapshot
	if !bindJSON(c, h.logger, &finance) {
		return
	}

	job, err := h.jobService.SetFinance(c.Request.Context(), tenantOf(c), c.Param("code"), finance, actorOf(c))
	if err != nil {
		respondError(c, h.logger, "Failed to set finance", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Finance updated", job)
}
