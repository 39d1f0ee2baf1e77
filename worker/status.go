package worker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fieldops-scheduler/models"
)

// StatusManager persists the worker's ExecutionResult to a JSON file that the
// infrastructure endpoints read back.
type StatusManager struct {
	path        string
	environment string
	ownerID     string
	now         func() time.Time

	mu sync.Mutex
}

func NewStatusManager(path, environment, ownerID string) *StatusManager {
	return &StatusManager{
		path:        path,
		environment: environment,
		ownerID:     ownerID,
		now:         time.Now,
	}
}

// SaveStatus writes the status atomically.
func (sm *StatusManager) SaveStatus(result *models.ExecutionResult) error {
	if err := os.MkdirAll(filepath.Dir(sm.path), 0755); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	tempFile := sm.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp status file: %w", err)
	}

	if err := os.Rename(tempFile, sm.path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename status file: %w", err)
	}

	return nil
}

func (sm *StatusManager) LoadStatus() (*models.ExecutionResult, error) {
	data, err := os.ReadFile(sm.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}

	var result models.ExecutionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status: %w", err)
	}

	return &result, nil
}

// update loads the current status, or a fresh one, applies fn and saves it.
func (sm *StatusManager) update(fn func(*models.ExecutionResult)) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	current, err := sm.LoadStatus()
	if err != nil {
		current = &models.ExecutionResult{Status: models.StatusIdle}
	}
	current.Environment = sm.environment
	current.OwnerID = sm.ownerID

	fn(current)
	current.UpdatedAt = sm.now().UTC()

	return sm.SaveStatus(current)
}

// MarkIdle records a started worker that has not run yet. Earlier run
// history is kept.
func (sm *StatusManager) MarkIdle() error {
	return sm.update(func(r *models.ExecutionResult) {
		if r.RunCount == 0 {
			r.Status = models.StatusIdle
		}
	})
}

func (sm *StatusManager) MarkRunning() error {
	return sm.update(func(r *models.ExecutionResult) {
		r.Status = models.StatusRunning
		r.ErrorMessage = ""
	})
}

// RecordRun stores a finished report. Plan failures degrade the status
// without failing the run.
func (sm *StatusManager) RecordRun(report *models.GenerationReport) error {
	return sm.update(func(r *models.ExecutionResult) {
		r.RunCount++
		r.LastRun = report
		r.ErrorMessage = ""

		if len(report.Failures) > 0 {
			r.Status = models.StatusDegraded
			return
		}
		r.Status = models.StatusCompleted
		finished := report.FinishedAt
		r.LastSuccess = &finished
	})
}

// MarkFailed records a run that could not complete at all.
func (sm *StatusManager) MarkFailed(runErr error) error {
	return sm.update(func(r *models.ExecutionResult) {
		r.RunCount++
		r.Status = models.StatusFailed
		r.ErrorMessage = runErr.Error()
	})
}
