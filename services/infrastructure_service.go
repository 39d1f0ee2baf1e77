package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"fieldops-scheduler/models"
	"fieldops-scheduler/utils/logger"
)

type InfrastructureService struct {
	logger logger.Logger
	config *models.Config
	now    func() time.Time
}

func NewInfrastructureService(logger logger.Logger, config *models.Config) *InfrastructureService {
	return &InfrastructureService{
		logger: logger,
		config: config,
		now:    time.Now,
	}
}

// getWorkerStatus reads worker status from the status file
func (s *InfrastructureService) getWorkerStatus() (*models.ExecutionResult, error) {
	data, err := os.ReadFile(s.config.SchedulerStatusPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read worker status file: %w", err)
	}

	var result models.ExecutionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal worker status: %w", err)
	}

	return &result, nil
}

// GetWorkerStatus returns the last status the generation worker persisted
func (s *InfrastructureService) GetWorkerStatus(ctx context.Context) (*models.ExecutionResult, error) {
	s.logger.Debug("Getting worker status")
	return s.getWorkerStatus()
}

// IsWorkerHealthy checks if worker is in a healthy state
func (s *InfrastructureService) IsWorkerHealthy() (bool, string, error) {
	workerStatus, err := s.getWorkerStatus()
	if err != nil {
		return false, "Cannot read worker status", err
	}

	switch workerStatus.Status {
	case models.StatusIdle:
		return true, "Worker is waiting for its first run", nil
	case models.StatusCompleted:
		return true, "Last generation run completed", nil
	case models.StatusRunning:
		// A run that outlives its timeout by a margin means a stuck worker.
		if s.config.SchedulerRunTimeout > 0 && s.now().Sub(workerStatus.UpdatedAt) > 2*s.config.SchedulerRunTimeout {
			return false, "Worker running too long", nil
		}
		return true, "Generation run in progress", nil
	case models.StatusDegraded:
		failures := 0
		if workerStatus.LastRun != nil {
			failures = len(workerStatus.LastRun.Failures)
		}
		return false, fmt.Sprintf("Last generation run had %d plan failures", failures), nil
	case models.StatusFailed:
		return false, fmt.Sprintf("Worker failed: %s", workerStatus.ErrorMessage), nil
	default:
		return false, "Worker status unknown", nil
	}
}
