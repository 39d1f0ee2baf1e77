package services

import (
	"time"

	"fieldops-scheduler/models"
)

type transition struct {
	from []models.JobStatus
	to   models.JobStatus
}

var transitions = map[models.JobAction]transition{
	models.JobActionConfirm:  {from: []models.JobStatus{models.JobStatusDraft}, to: models.JobStatusScheduled},
	models.JobActionStart:    {from: []models.JobStatus{models.JobStatusScheduled}, to: models.JobStatusInProgress},
	models.JobActionPause:    {from: []models.JobStatus{models.JobStatusInProgress}, to: models.JobStatusPaused},
	models.JobActionResume:   {from: []models.JobStatus{models.JobStatusPaused}, to: models.JobStatusInProgress},
	models.JobActionComplete: {from: []models.JobStatus{models.JobStatusInProgress}, to: models.JobStatusCompleted},
	models.JobActionCancel: {
		from: []models.JobStatus{
			models.JobStatusDraft,
			models.JobStatusScheduled,
			models.JobStatusInProgress,
			models.JobStatusPaused,
		},
		to: models.JobStatusCancelled,
	},
}

// CanApply reports whether action is legal from status.
func CanApply(status models.JobStatus, action models.JobAction) bool {
	t, ok := transitions[action]
	if !ok {
		return false
	}
	for _, s := range t.from {
		if s == status {
			return true
		}
	}
	return false
}

// ApplyTransition moves job to the action's target status and stamps the
// matching schedule timestamp. The job is left untouched on error.
func ApplyTransition(job *models.OperationJob, action models.JobAction, now time.Time) error {
	if !CanApply(job.Status, action) {
		return &models.TransitionError{From: job.Status, Action: action}
	}

	at := now.UTC()
	switch action {
	case models.JobActionStart:
		job.Schedule.StartedAt = &at
	case models.JobActionPause:
		job.Schedule.PausedAt = &at
	case models.JobActionResume:
		job.Schedule.ResumedAt = &at
	case models.JobActionComplete:
		job.Schedule.CompletedAt = &at
	case models.JobActionCancel:
		job.Schedule.CancelledAt = &at
	}

	job.Status = transitions[action].to
	if action == models.JobActionComplete {
		job.OnTime = DeriveOnTime(job)
		job.ActualDurationMinutes = DeriveActualDuration(job)
	}
	return nil
}
