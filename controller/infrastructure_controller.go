package controller

import (
	"context"
	"fmt"
	"net/http"

	"fieldops-scheduler/models"
	"fieldops-scheduler/services"
	"fieldops-scheduler/utils/logger"

	"github.com/gin-gonic/gin"
)

// GenerationRunner triggers one generation pass outside the cron schedule.
type GenerationRunner interface {
	RunOnce(ctx context.Context) (*models.GenerationReport, error)
}

type InfrastructureController struct {
	service services.InfrastructureServiceInterface
	runner  GenerationRunner
	logger  logger.Logger
}

func NewInfrastructureController(service services.InfrastructureServiceInterface, runner GenerationRunner, logger logger.Logger) *InfrastructureController {
	return &InfrastructureController{
		service: service,
		runner:  runner,
		logger:  logger,
	}
}

// GetWorkerStatus handles GET /infrastructure/worker/status
// @Summary Get generation worker status
// @Description Last persisted state of the generation worker including the latest run report
// @Tags Infrastructure
// @Success 200 {object} models.APIResponse "Worker status retrieved successfully"
// @Failure 500 {object} models.APIResponse "Failed to retrieve worker status"
// @Router /infrastructure/worker/status [get]
func (h *InfrastructureController) GetWorkerStatus(c *gin.Context) {
	workerStatus, err := h.service.GetWorkerStatus(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Failed to get worker status: %v", err)
		c.JSON(http.StatusInternalServerError, models.APIResponse{
			Status:  "error",
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve worker status",
			Error: &models.APIError{
				Type:    models.ErrorTypeWorker,
				Details: err.Error(),
			},
		})
		return
	}

	httpStatus, apiStatus := mapWorkerStatusToHTTP(workerStatus)
	c.JSON(httpStatus, models.APIResponse{
		Status:  apiStatus,
		Code:    httpStatus,
		Message: statusMessage(workerStatus),
		Data:    workerStatus,
	})
}

// CheckWorkerHealth handles GET /infrastructure/worker/health
func (h *InfrastructureController) CheckWorkerHealth(c *gin.Context) {
	healthy, reason, err := h.service.IsWorkerHealthy()
	if err != nil {
		h.logger.Errorf("Failed to check worker health: %v", err)
		c.JSON(http.StatusInternalServerError, models.APIResponse{
			Status:  "error",
			Code:    http.StatusInternalServerError,
			Message: "Failed to check worker health",
			Error: &models.APIError{
				Type:    models.ErrorTypeWorker,
				Details: err.Error(),
			},
		})
		return
	}

	healthStatus := "healthy"
	if !healthy {
		healthStatus = "unhealthy"
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: "Worker health check completed",
		Data: map[string]interface{}{
			"healthy": healthy,
			"status":  healthStatus,
			"reason":  reason,
		},
	})
}

// RunGeneration handles POST /infrastructure/generation/run
// @Summary Run job generation now
// @Description Runs one generation pass immediately and returns its report. Safe to call while the scheduled worker runs.
// @Tags Infrastructure
// @Router /infrastructure/generation/run [post]
func (h *InfrastructureController) RunGeneration(c *gin.Context) {
	if h.runner == nil {
		c.JSON(http.StatusServiceUnavailable, models.APIResponse{
			Status:  "error",
			Code:    http.StatusServiceUnavailable,
			Message: "Generation worker is not running",
			Error: &models.APIError{
				Type: models.ErrorTypeWorker,
			},
		})
		return
	}

	report, err := h.runner.RunOnce(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "Generation run failed", err)
		return
	}

	h.logger.Infof("Manual generation run created %d jobs", report.JobsCreated)
	message := "Generation run completed"
	if len(report.Failures) > 0 {
		message = fmt.Sprintf("Generation run completed with %d plan failures", len(report.Failures))
	}
	respondSuccess(c, http.StatusOK, message, report)
}

// mapWorkerStatusToHTTP maps worker execution status to HTTP status codes
func mapWorkerStatusToHTTP(ws *models.ExecutionResult) (int, string) {
	switch ws.Status {
	case models.StatusCompleted:
		return http.StatusOK, "success"
	case models.StatusDegraded:
		return http.StatusOK, "warning"
	case models.StatusRunning:
		return http.StatusAccepted, "in_progress"
	case models.StatusFailed:
		return http.StatusServiceUnavailable, "error"
	default:
		return http.StatusOK, "info"
	}
}

func statusMessage(ws *models.ExecutionResult) string {
	switch ws.Status {
	case models.StatusIdle:
		return "Worker is waiting for its first run"
	case models.StatusRunning:
		return "Generation run in progress"
	case models.StatusCompleted:
		return "Last generation run completed"
	case models.StatusDegraded:
		if ws.LastRun != nil {
			return fmt.Sprintf("Last generation run completed with %d plan failures", len(ws.LastRun.Failures))
		}
		return "Last generation run completed with plan failures"
	case models.StatusFailed:
		return "Last generation run failed"
	default:
		return "Worker status retrieved successfully"
	}
}
