package worker

import (
	"context"
	"fmt"

	"fieldops-scheduler/models"
)

// RunOnce performs one generation pass immediately, bounded by the run
// timeout, and records the outcome in the status file.
func (w *Worker) RunOnce(ctx context.Context) (*models.GenerationReport, error) {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, w.config.RunTimeout)
	defer cancel()

	if err := w.status.MarkRunning(); err != nil {
		w.logger.Warnf("Failed to write worker status: %v", err)
	}

	report, err := w.runGuarded(ctx)
	if err != nil {
		w.logger.Errorf("Generation run failed: %v", err)
		if serr := w.status.MarkFailed(err); serr != nil {
			w.logger.Warnf("Failed to write worker status: %v", serr)
		}
		return nil, err
	}

	if err := w.status.RecordRun(report); err != nil {
		w.logger.Warnf("Failed to write worker status: %v", err)
	}
	return report, nil
}

// runGuarded turns a panic in the generator into a failed run.
func (w *Worker) runGuarded(ctx context.Context) (report *models.GenerationReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			report, err = nil, fmt.Errorf("generation run panicked: %v", r)
		}
	}()
	return w.generator.RunDue(ctx, w.now())
}

// scheduledRun is the cron entry point.
func (w *Worker) scheduledRun() {
	w.mu.Lock()
	ctx := w.ctx
	w.mu.Unlock()

	if ctx == nil || ctx.Err() != nil {
		w.logger.Info("Worker is stopping, skipping scheduled run")
		return
	}

	report, err := w.RunOnce(ctx)
	if err != nil {
		return
	}
	w.logger.Infof("Scheduled generation run created %d jobs (%d failures)", report.JobsCreated, len(report.Failures))
}
