package models

// APIResponse is the envelope of every HTTP response.
type APIResponse struct {
	Status  string      `json:"status"` // success, error, warning, info or in_progress
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError classifies a failed request. Field is set for validation failures.
type APIError struct {
	Type    string `json:"type,omitempty"`
	Details string `json:"details,omitempty"`
	Field   string `json:"field,omitempty"`
}

// APIError types.
const (
	ErrorTypeValidation = "ValidationError"
	ErrorTypeNotFound   = "NotFoundError"
	ErrorTypeTransition = "TransitionError"
	ErrorTypeConflict   = "ConflictError"
	ErrorTypeScheduling = "SchedulingError"
	ErrorTypeTenant     = "TenantError"
	ErrorTypeWorker     = "WorkerError"
	ErrorTypeInternal   = "InternalError"
)
