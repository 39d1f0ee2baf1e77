package models

import (
	"fmt"
	"strings"
	"time"
)

type JobStatus string

const (
	JobStatusDraft      JobStatus = "draft"
	JobStatusScheduled  JobStatus = "scheduled"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusPaused     JobStatus = "paused"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether no further transition is accepted.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

type JobSource string

const (
	JobSourceManual     JobSource = "manual"
	JobSourceRecurrence JobSource = "recurrence"
	JobSourceContract   JobSource = "contract"
	JobSourceAdhoc      JobSource = "adhoc"
)

// JobAction is a lifecycle trigger applied to an OperationJob.
type JobAction string

const (
	JobActionConfirm  JobAction = "confirm"
	JobActionStart    JobAction = "start"
	JobActionPause    JobAction = "pause"
	JobActionResume   JobAction = "resume"
	JobActionComplete JobAction = "complete"
	JobActionCancel   JobAction = "cancel"
)

type JobPriority string

const (
	JobPriorityLow    JobPriority = "low"
	JobPriorityNormal JobPriority = "normal"
	JobPriorityHigh   JobPriority = "high"
	JobPriorityUrgent JobPriority = "urgent"
)

type AssignmentRole string

const (
	AssignmentRoleLead   AssignmentRole = "lead"
	AssignmentRoleMember AssignmentRole = "member"
)

type ChargeTo string

const (
	ChargeToExpense  ChargeTo = "expense"
	ChargeToCustomer ChargeTo = "customer"
	ChargeToInternal ChargeTo = "internal"
)

type JobSchedule struct {
	PlannedStart *time.Time `json:"plannedStart,omitempty" dynamodbav:"plannedStart,omitempty"`
	PlannedEnd   *time.Time `json:"plannedEnd,omitempty" dynamodbav:"plannedEnd,omitempty"`
	DueAt        *time.Time `json:"dueAt,omitempty" dynamodbav:"dueAt,omitempty"`
	StartedAt    *time.Time `json:"startedAt,omitempty" dynamodbav:"startedAt,omitempty"`
	PausedAt     *time.Time `json:"pausedAt,omitempty" dynamodbav:"pausedAt,omitempty"`
	ResumedAt    *time.Time `json:"resumedAt,omitempty" dynamodbav:"resumedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty" dynamodbav:"completedAt,omitempty"`
	CancelledAt  *time.Time `json:"cancelledAt,omitempty" dynamodbav:"cancelledAt,omitempty"`
}

// Assignment is a denormalized snapshot of who worked on the job. The
// time-tracking module stays authoritative for actual minutes.
type Assignment struct {
	Employee       EmployeeRef    `json:"employee" dynamodbav:"employee" validate:"required"`
	Role           AssignmentRole `json:"role" dynamodbav:"role" validate:"required,oneof=lead member"`
	PlannedMinutes int            `json:"plannedMinutes" dynamodbav:"plannedMinutes" validate:"min=0"`
	ActualMinutes  int            `json:"actualMinutes" dynamodbav:"actualMinutes" validate:"min=0"`
	TimeEntryRefs  []TimeEntryRef `json:"timeEntryRefs,omitempty" dynamodbav:"timeEntryRefs,omitempty"`
}

type ChecklistItem struct {
	Label   string `json:"label" dynamodbav:"label"`
	Checked bool   `json:"checked" dynamodbav:"checked"`
	Note    string `json:"note,omitempty" dynamodbav:"note,omitempty"`
}

type QualityResult struct {
	Criterion string `json:"criterion" dynamodbav:"criterion"`
	Passed    bool   `json:"passed" dynamodbav:"passed"`
	Score     int    `json:"score,omitempty" dynamodbav:"score,omitempty"`
	Note      string `json:"note,omitempty" dynamodbav:"note,omitempty"`
}

// JobStepResult carries a snapshot of the template step plus what was done.
// Completed on a step never completes the job.
type JobStepResult struct {
	StepCode         string          `json:"stepCode" dynamodbav:"stepCode" validate:"required"`
	Title            LocalizedText   `json:"title,omitempty" dynamodbav:"title,omitempty"`
	Instruction      LocalizedText   `json:"instruction,omitempty" dynamodbav:"instruction,omitempty"`
	Type             string          `json:"type,omitempty" dynamodbav:"type,omitempty"`
	EstimatedMinutes int             `json:"estimatedMinutes" dynamodbav:"estimatedMinutes" validate:"min=0"`
	ActualMinutes    int             `json:"actualMinutes" dynamodbav:"actualMinutes" validate:"min=0"`
	Checklist        []ChecklistItem `json:"checklist,omitempty" dynamodbav:"checklist,omitempty"`
	Quality          []QualityResult `json:"quality,omitempty" dynamodbav:"quality,omitempty"`
	Completed        bool            `json:"completed" dynamodbav:"completed"`
	Photos           []string        `json:"photos,omitempty" dynamodbav:"photos,omitempty"`
}

// MaterialUsage is consumed by the inventory and billing pipelines.
type MaterialUsage struct {
	Item      MaterialRef `json:"item" dynamodbav:"item" validate:"required"`
	Name      string      `json:"name,omitempty" dynamodbav:"name,omitempty"`
	Quantity  float64     `json:"quantity" dynamodbav:"quantity" validate:"gt=0"`
	Unit      string      `json:"unit,omitempty" dynamodbav:"unit,omitempty"`
	UnitCost  float64     `json:"unitCost" dynamodbav:"unitCost" validate:"min=0"`
	TotalCost float64     `json:"totalCost" dynamodbav:"totalCost"`
	ChargeTo  ChargeTo    `json:"chargeTo" dynamodbav:"chargeTo" validate:"required,oneof=expense customer internal"`
}

type Deliverables struct {
	Photos            []string `json:"photos,omitempty" dynamodbav:"photos,omitempty"`
	Documents         []string `json:"documents,omitempty" dynamodbav:"documents,omitempty"`
	Notes             string   `json:"notes,omitempty" dynamodbav:"notes,omitempty" validate:"omitempty,max=2000"`
	CustomerSignature string   `json:"customerSignature,omitempty" dynamodbav:"customerSignature,omitempty"`
}

// FinanceSnapshot is read asynchronously by invoicing; nothing here is computed.
type FinanceSnapshot struct {
	Billable bool    `json:"billable" dynamodbav:"billable"`
	Currency string  `json:"currency,omitempty" dynamodbav:"currency,omitempty" validate:"omitempty,len=3"`
	Revenue  float64 `json:"revenue" dynamodbav:"revenue" validate:"min=0"`
	Cost     float64 `json:"cost" dynamodbav:"cost" validate:"min=0"`
}

type OperationJob struct {
	JobKey      string        `json:"-" dynamodbav:"jobKey"`
	JobID       string        `json:"jobID" dynamodbav:"jobID"`
	Tenant      TenantID      `json:"tenant" dynamodbav:"tenant"`
	Code        string        `json:"code" dynamodbav:"code"`
	Title       LocalizedText `json:"title" dynamodbav:"title"`
	Description LocalizedText `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Source      JobSource     `json:"source" dynamodbav:"source"`

	// Set only for source=recurrence: "<tenant>#<planCode>#<YYYY-MM-DD>".
	GenerationKey string `json:"generationKey,omitempty" dynamodbav:"generationKey,omitempty"`
	PlanCode      string `json:"planCode,omitempty" dynamodbav:"planCode,omitempty"`

	Template  TemplateRef  `json:"template,omitempty" dynamodbav:"template,omitempty"`
	Service   ServiceRef   `json:"service,omitempty" dynamodbav:"service,omitempty"`
	Contract  ContractRef  `json:"contract,omitempty" dynamodbav:"contract,omitempty"`
	Apartment ApartmentRef `json:"apartment" dynamodbav:"apartment"`
	Category  CategoryRef  `json:"category,omitempty" dynamodbav:"category,omitempty"`

	Status   JobStatus   `json:"status" dynamodbav:"status"`
	Schedule JobSchedule `json:"schedule" dynamodbav:"schedule"`

	ExpectedDurationMinutes int  `json:"expectedDurationMinutes" dynamodbav:"expectedDurationMinutes"`
	ActualDurationMinutes   *int `json:"actualDurationMinutes,omitempty" dynamodbav:"actualDurationMinutes,omitempty"`
	// ActualDurationExplicit keeps a supplied duration from being replaced by the step roll-up.
	ActualDurationExplicit bool  `json:"actualDurationExplicit,omitempty" dynamodbav:"actualDurationExplicit,omitempty"`
	OnTime                 *bool `json:"onTime,omitempty" dynamodbav:"onTime,omitempty"`

	Assignments   []Assignment    `json:"assignments" dynamodbav:"assignments"`
	NeedsStaffing bool            `json:"needsStaffing" dynamodbav:"needsStaffing"`
	StaffingNote  string          `json:"staffingNote,omitempty" dynamodbav:"staffingNote,omitempty"`
	Steps         []JobStepResult `json:"steps" dynamodbav:"steps"`
	Materials     []MaterialUsage `json:"materials" dynamodbav:"materials"`
	Deliverables  Deliverables    `json:"deliverables" dynamodbav:"deliverables"`
	Finance       FinanceSnapshot `json:"finance" dynamodbav:"finance"`

	Priority           JobPriority `json:"priority" dynamodbav:"priority"`
	Tags               []string    `json:"tags,omitempty" dynamodbav:"tags,omitempty"`
	IsActive           bool        `json:"isActive" dynamodbav:"isActive"`
	CancellationReason string      `json:"cancellationReason,omitempty" dynamodbav:"cancellationReason,omitempty"`

	// Version increases on every save and guards compare-and-swap updates.
	Version   int       `json:"version" dynamodbav:"version"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" dynamodbav:"updatedAt"`
	CreatedBy string    `json:"createdBy,omitempty" dynamodbav:"createdBy,omitempty"`
	UpdatedBy string    `json:"updatedBy,omitempty" dynamodbav:"updatedBy,omitempty"`
}

// JobKey is the storage key that makes job codes unique per tenant.
func JobKey(tenant TenantID, code string) string {
	return fmt.Sprintf("%s#%s", tenant, code)
}

// GenerationKey is the de-duplication key of one plan occurrence.
func GenerationKey(tenant TenantID, planCode string, occurrence time.Time) string {
	return fmt.Sprintf("%s#%s#%s", tenant, planCode, occurrence.Format("2006-01-02"))
}

// RecurrenceJobCode derives the deterministic job code of a plan occurrence.
func RecurrenceJobCode(planCode string, occurrence time.Time) string {
	return fmt.Sprintf("%s-%s", planCode, occurrence.Format("20060102"))
}

// IsRecurrenceJobCode reports whether code has the shape of a generated job
// code: a prefix, a dash and a valid YYYYMMDD date.
func IsRecurrenceJobCode(code string) bool {
	i := strings.LastIndexByte(code, '-')
	if i < 1 || len(code)-i-1 != 8 {
		return false
	}
	_, err := time.Parse("20060102", code[i+1:])
	return err == nil
}

type CreateJobRequest struct {
	Code                    string          `json:"code" validate:"required,min=2,max=80"`
	Title                   LocalizedText   `json:"title" validate:"required,min=1"`
	Description             LocalizedText   `json:"description,omitempty"`
	Source                  JobSource       `json:"source" validate:"required,oneof=manual contract adhoc"`
	Template                TemplateRef     `json:"template,omitempty"`
	Service                 ServiceRef      `json:"service,omitempty"`
	Contract                ContractRef     `json:"contract,omitempty"`
	Apartment               ApartmentRef    `json:"apartment" validate:"required"`
	Category                CategoryRef     `json:"category,omitempty"`
	PlannedStart            *time.Time      `json:"plannedStart,omitempty"`
	PlannedEnd              *time.Time      `json:"plannedEnd,omitempty"`
	DueAt                   *time.Time      `json:"dueAt,omitempty"`
	ExpectedDurationMinutes int             `json:"expectedDurationMinutes" validate:"min=0"`
	Assignments             []Assignment    `json:"assignments,omitempty" validate:"omitempty,dive"`
	Steps                   []JobStepResult `json:"steps,omitempty" validate:"omitempty,dive"`
	Finance                 FinanceSnapshot `json:"finance"`
	Priority                JobPriority     `json:"priority,omitempty" validate:"omitempty,oneof=low normal high urgent"`
	Tags                    []string        `json:"tags,omitempty"`
}

type CompleteJobRequest struct {
	// ActualDurationMinutes overrides the roll-up from steps when set.
	ActualDurationMinutes *int `json:"actualDurationMinutes,omitempty" validate:"omitempty,min=0"`
}

type CancelJobRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type AssignCrewRequest struct {
	Assignments []Assignment `json:"assignments" validate:"required,min=1,dive"`
}

type UpdateAssignmentRequest struct {
	ActualMinutes int            `json:"actualMinutes" validate:"min=0"`
	TimeEntryRefs []TimeEntryRef `json:"timeEntryRefs,omitempty"`
}

type JobFilter struct {
	Tenant   TenantID  `json:"tenant,omitempty"`
	Status   JobStatus `json:"status,omitempty"`
	PlanCode string    `json:"planCode,omitempty"`
	FromDate time.Time `json:"fromDate,omitempty"`
	ToDate   time.Time `json:"toDate,omitempty"`
}
