package models

import "time"

// WorkerStatus represents the current status of the generation worker
type WorkerStatus string

const (
	StatusIdle      WorkerStatus = "idle"
	StatusRunning   WorkerStatus = "running"
	StatusCompleted WorkerStatus = "completed"
	StatusDegraded  WorkerStatus = "degraded"
	StatusFailed    WorkerStatus = "failed"
)

// PlanFailure records a plan whose generation failed during a run. Other
// plans in the same run are unaffected.
type PlanFailure struct {
	Tenant     TenantID   `json:"tenant"`
	PlanCode   string     `json:"planCode"`
	Occurrence *time.Time `json:"occurrence,omitempty"`
	Error      string     `json:"error"`
}

// GenerationReport summarises one pass of the job generation service.
type GenerationReport struct {
	StartedAt      time.Time     `json:"startedAt"`
	FinishedAt     time.Time     `json:"finishedAt"`
	PlansScanned   int           `json:"plansScanned"`
	PlansDue       int           `json:"plansDue"`
	PlansSkipped   int           `json:"plansSkipped"`
	JobsCreated    int           `json:"jobsCreated"`
	Duplicates     int           `json:"duplicates"`
	StaffingFlags  int           `json:"staffingFlags"`
	CreatedJobRefs []JobRef      `json:"createdJobRefs,omitempty"`
	Failures       []PlanFailure `json:"failures,omitempty"`
}

// Merge folds a per-plan report into the run report.
func (r *GenerationReport) Merge(o PlanOutcome) {
	r.JobsCreated += len(o.Created)
	r.CreatedJobRefs = append(r.CreatedJobRefs, o.Created...)
	r.Duplicates += o.Duplicates
	r.StaffingFlags += o.StaffingFlags
	if o.Skipped {
		r.PlansSkipped++
	}
	if o.Failure != nil {
		r.Failures = append(r.Failures, *o.Failure)
	}
}

// PlanOutcome is the result of generating one plan.
type PlanOutcome struct {
	Created       []JobRef
	Duplicates    int
	StaffingFlags int
	Skipped       bool
	Failure       *PlanFailure
}

// ExecutionResult is the persisted status of the generation worker.
type ExecutionResult struct {
	Status       WorkerStatus      `json:"status"`
	Environment  string            `json:"environment"`
	OwnerID      string            `json:"ownerID"`
	RunCount     int               `json:"runCount"`
	LastRun      *GenerationReport `json:"lastRun,omitempty"`
	LastSuccess  *time.Time        `json:"lastSuccess,omitempty"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// WorkerConfig holds configuration for the generation worker
type WorkerConfig struct {
	CronSchedule    string        `json:"cron_schedule"`
	Parallelism     int           `json:"parallelism"`
	LeaseTTL        time.Duration `json:"lease_ttl"`
	RunTimeout      time.Duration `json:"run_timeout"`
	StatusFilePath  string        `json:"status_file_path"`
	Environment     string        `json:"environment"`
	RunOnStart      bool          `json:"run_on_start"`
	BootstrapTables bool          `json:"bootstrap_tables"`
}

// LeaseInfo describes a held generation lease.
type LeaseInfo struct {
	Key        string    `json:"key"`
	Owner      string    `json:"owner"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// TableStatus reports the outcome of table bootstrap.
type TableStatus struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CheckedAt time.Time `json:"checked_at"`
}
