package worker

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"fieldops-scheduler/dal"
	"fieldops-scheduler/models"
	"fieldops-scheduler/services"
	"fieldops-scheduler/utils/logger"

	"github.com/google/uuid"
	"github.com/robfig/cron"
)

// Worker runs the job generation service on a cron schedule. Each replica
// runs its own Worker; duplicate work across replicas is absorbed by the
// generator's conditional writes.
type Worker struct {
	generator services.JobGenerationServiceInterface
	tables    *InfrastructureSetup
	status    *StatusManager
	cron      *cron.Cron
	config    *models.WorkerConfig
	logger    logger.Logger
	ownerID   string
	now       func() time.Time

	// runMu serializes runs inside this process.
	runMu sync.Mutex

	mu       sync.Mutex
	running  bool
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// NewOwnerID names this process in leases and status files.
func NewOwnerID() string {
	hostname := os.Getenv("HOSTNAME")
	if hostname == "" {
		hostname = "localhost"
	}
	return fmt.Sprintf("worker-%s-%s", hostname, uuid.New().String()[:8])
}

// NewWorker builds a worker. db may be nil when table bootstrap is disabled.
func NewWorker(cfg *models.Config, generator services.JobGenerationServiceInterface, db dal.DatabaseClientInterface, ownerID string, log logger.Logger) (*Worker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator cannot be nil")
	}
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	workerConfig := &models.WorkerConfig{
		CronSchedule:    cfg.SchedulerCron,
		Parallelism:     cfg.SchedulerParallelism,
		LeaseTTL:        cfg.SchedulerLeaseTTL,
		RunTimeout:      cfg.SchedulerRunTimeout,
		StatusFilePath:  cfg.SchedulerStatusPath,
		Environment:     cfg.AppEnv,
		RunOnStart:      cfg.SchedulerRunOnStart,
		BootstrapTables: cfg.SchedulerBootstrapTables,
	}
	if workerConfig.CronSchedule == "" {
		workerConfig.CronSchedule = cronScheduleForEnvironment(cfg.AppEnv)
	}

	if err := validateWorkerConfig(workerConfig); err != nil {
		return nil, fmt.Errorf("invalid worker configuration: %w", err)
	}
	if workerConfig.BootstrapTables && db == nil {
		return nil, fmt.Errorf("table bootstrap requires a database client")
	}

	w := &Worker{
		generator: generator,
		status:    NewStatusManager(workerConfig.StatusFilePath, workerConfig.Environment, ownerID),
		cron:      cron.New(),
		config:    workerConfig,
		logger:    log.WithFields(logger.Fields{"component": "worker", "owner": ownerID}),
		ownerID:   ownerID,
		now:       time.Now,
	}
	if workerConfig.BootstrapTables {
		w.tables = NewInfrastructureSetup(db, cfg, log)
	}
	return w, nil
}

// Start bootstraps tables when configured, then schedules generation runs.
// The cron loop runs until ctx is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("worker is already running")
	}

	if w.tables != nil {
		if _, err := w.tables.EnsureTables(ctx); err != nil {
			if serr := w.status.MarkFailed(err); serr != nil {
				w.logger.Warnf("Failed to write worker status: %v", serr)
			}
			return fmt.Errorf("failed to bootstrap tables: %w", err)
		}
	}

	if err := w.status.MarkIdle(); err != nil {
		w.logger.Warnf("Failed to write worker status: %v", err)
	}

	w.ctx, w.cancel = context.WithCancel(ctx)

	if err := w.cron.AddFunc(w.config.CronSchedule, w.scheduledRun); err != nil {
		w.cancel()
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	w.cron.Start()
	w.running = true

	w.logger.Infof("Generation worker started with schedule %s", w.config.CronSchedule)

	if w.config.RunOnStart {
		go w.scheduledRun()
	}

	go func() {
		<-w.ctx.Done()
		w.Stop()
	}()

	return nil
}

// Stop halts the schedule. A run already in progress finishes on its own
// timeout.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		defer w.mu.Unlock()

		if !w.running {
			return
		}

		w.cron.Stop()
		w.cancel()
		w.running = false
		w.logger.Info("Generation worker stopped")
	})
}

// IsRunning reports whether the schedule is active.
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func validateWorkerConfig(config *models.WorkerConfig) error {
	if config.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if config.RunTimeout <= 0 {
		return fmt.Errorf("run timeout must be positive")
	}
	if config.StatusFilePath == "" {
		return fmt.Errorf("status file path is required")
	}

	cronParser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := cronParser.Parse(config.CronSchedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", config.CronSchedule, err)
	}

	return nil
}

// cronScheduleForEnvironment is the fallback when no schedule is configured.
func cronScheduleForEnvironment(env string) string {
	switch env {
	case "development":
		return "*/30 * * * * *"
	case "production":
		return "0 */5 * * * *"
	default:
		return "0 */10 * * * *"
	}
}
