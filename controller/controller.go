package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"fieldops-scheduler/middelware"
	"fieldops-scheduler/models"
	"fieldops-scheduler/services"
	"fieldops-scheduler/utils/logger"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 15 * time.Second

type Controller struct {
	Plan           *PlanController
	Job            *JobController
	Crew           *CrewController
	Infrastructure *InfrastructureController

	logging *middelware.LoggingMiddleware
	tenant  *middelware.TenantMiddleware
	logger  logger.Logger
}

// NewController builds the HTTP handlers over the service container. runner
// may be nil when the generation worker is disabled.
func NewController(svc services.ServiceContainerInterface, runner GenerationRunner, log logger.Logger) *Controller {
	return &Controller{
		Plan:           NewPlanController(svc.GetSchedulePlanService(), log),
		Job:            NewJobController(svc.GetOperationJobService(), log),
		Crew:           NewCrewController(svc.GetCrewService(), log),
		Infrastructure: NewInfrastructureController(svc.GetInfrastructureService(), runner, log),
		logging:        middelware.NewLoggingMiddleware(log, "/health"),
		tenant:         middelware.NewTenantMiddleware(),
		logger:         log,
	}
}

// RegisterRoutes mounts every route under basePath.
func (c *Controller) RegisterRoutes(r *gin.Engine, basePath string) {
	r.Use(c.logging.Recovery(), c.logging.StructuredLogger())

	health := func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "fieldops-scheduler",
		})
	}
	r.GET("/health", health)

	v1 := r.Group(basePath)
	v1.GET("/health", health)

	infra := v1.Group("/infrastructure")
	infra.GET("/worker/status", c.Infrastructure.GetWorkerStatus)
	infra.GET("/worker/health", c.Infrastructure.CheckWorkerHealth)
	infra.POST("/generation/run", c.Infrastructure.RunGeneration)

	scoped := v1.Group("", c.tenant.RequireTenant())

	plans := scoped.Group("/plans")
	plans.POST("", c.Plan.CreatePlan)
	plans.GET("", c.Plan.GetPlans)
	plans.GET("/:code", c.Plan.GetPlan)
	plans.PATCH("/:code", c.Plan.UpdatePlan)
	plans.POST("/:code/pause", c.Plan.PausePlan)
	plans.POST("/:code/resume", c.Plan.ResumePlan)
	plans.POST("/:code/archive", c.Plan.ArchivePlan)
	plans.PUT("/:code/next-run", c.Plan.SetNextRun)
	plans.GET("/:code/preview", c.Plan.PreviewOccurrences)

	jobs := scoped.Group("/jobs")
	jobs.POST("", c.Job.CreateJob)
	jobs.GET("", c.Job.GetJobs)
	jobs.GET("/:code", c.Job.GetJob)
	jobs.POST("/:code/confirm", c.Job.ConfirmJob)
	jobs.POST("/:code/start", c.Job.StartJob)
	jobs.POST("/:code/pause", c.Job.PauseJob)
	jobs.POST("/:code/resume", c.Job.ResumeJob)
	jobs.POST("/:code/complete", c.Job.CompleteJob)
	jobs.POST("/:code/cancel", c.Job.CancelJob)
	jobs.PUT("/:code/assignments", c.Job.AssignCrew)
	jobs.PATCH("/:code/assignments/:employee", c.Job.UpdateAssignment)
	jobs.POST("/:code/steps", c.Job.RecordStep)
	jobs.POST("/:code/materials", c.Job.RecordMaterial)
	jobs.PUT("/:code/deliverables", c.Job.SetDeliverables)
	jobs.PUT("/:code/finance", c.Job.SetFinance)

	crews := scoped.Group("/crews")
	crews.POST("", c.Crew.CreateCrew)
	crews.GET("", c.Crew.GetCrews)
	crews.GET("/:id", c.Crew.GetCrew)
	crews.PATCH("/:id", c.Crew.UpdateCrew)
	crews.DELETE("/:id", c.Crew.DeleteCrew)
	crews.POST("/:id/members", c.Crew.AddMember)
	crews.DELETE("/:id/members/:member", c.Crew.RemoveMember)
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func (c *Controller) Serve(ctx context.Context, config *models.Config, r *gin.Engine) error {
	srv := &http.Server{
		Addr:              config.AppHost + ":" + config.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.logger.Infof("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	c.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
