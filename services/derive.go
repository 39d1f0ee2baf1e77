package services

import (
	"fieldops-scheduler/models"
)

// DeriveOnTime reports whether the job finished by its due time. It is nil
// until both timestamps exist.
func DeriveOnTime(job *models.OperationJob) *bool {
	if job.Schedule.CompletedAt == nil || job.Schedule.DueAt == nil {
		return nil
	}
	onTime := !job.Schedule.CompletedAt.After(*job.Schedule.DueAt)
	return &onTime
}

// DeriveActualDuration sums step minutes unless a duration was supplied
// explicitly. Jobs without steps keep whatever they had, so a job completed
// with no steps and no explicit duration reports nil, not 0.
func DeriveActualDuration(job *models.OperationJob) *int {
	if job.ActualDurationExplicit || len(job.Steps) == 0 {
		return job.ActualDurationMinutes
	}
	total := 0
	for _, s := range job.Steps {
		total += s.ActualMinutes
	}
	return &total
}

// ValidateSchedule checks plannedStart < plannedEnd when both are set.
func ValidateSchedule(s models.JobSchedule) error {
	if s.PlannedStart != nil && s.PlannedEnd != nil && !s.PlannedStart.Before(*s.PlannedEnd) {
		return models.NewValidationError("schedule.plannedEnd", "plannedStart must be before plannedEnd")
	}
	return nil
}

// prepareSave runs before every job write: validation first, then the
// derived fields of completed jobs.
func prepareSave(job *models.OperationJob) error {
	if err := ValidateSchedule(job.Schedule); err != nil {
		return err
	}
	if err := validateAssignments(job.Assignments); err != nil {
		return err
	}

	for i := range job.Materials {
		m := &job.Materials[i]
		if m.TotalCost == 0 {
			m.TotalCost = m.Quantity * m.UnitCost
		}
	}

	if job.Status == models.JobStatusCompleted {
		job.OnTime = DeriveOnTime(job)
		job.ActualDurationMinutes = DeriveActualDuration(job)
	}
	return nil
}

func validateAssignments(assignments []models.Assignment) error {
	seen := make(map[models.EmployeeRef]bool, len(assignments))
	leads := 0
	for _, a := range assignments {
		if seen[a.Employee] {
			return models.NewValidationError("assignments", "employee "+a.Employee.String()+" is assigned twice")
		}
		seen[a.Employee] = true
		if a.Role == models.AssignmentRoleLead {
			leads++
		}
	}
	if leads > 1 {
		return models.NewValidationError("assignments", "at most one lead per job")
	}
	return nil
}
