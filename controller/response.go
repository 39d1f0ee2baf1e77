package controller

import (
	"errors"
	"net/http"

	"fieldops-scheduler/middelware"
	"fieldops-scheduler/models"
	"fieldops-scheduler/utils/logger"

	"github.com/gin-gonic/gin"
)

// errorStatus maps a domain error onto an HTTP status and an APIError type.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, models.ErrorTypeValidation
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, models.ErrorTypeNotFound
	case errors.Is(err, models.ErrInvalidTransition):
		return http.StatusConflict, models.ErrorTypeTransition
	case errors.Is(err, models.ErrConflict), errors.Is(err, models.ErrDuplicateGeneration):
		return http.StatusConflict, models.ErrorTypeConflict
	case errors.Is(err, models.ErrRecurrenceExhausted), errors.Is(err, models.ErrStaffingUnavailable):
		return http.StatusUnprocessableEntity, models.ErrorTypeScheduling
	default:
		return http.StatusInternalServerError, models.ErrorTypeInternal
	}
}

func respondError(c *gin.Context, log logger.Logger, message string, err error) {
	code, kind := errorStatus(err)
	apiErr := &models.APIError{Type: kind, Details: err.Error()}

	var verr *models.ValidationError
	if errors.As(err, &verr) {
		apiErr.Field = verr.Field
	}

	if code >= http.StatusInternalServerError {
		log.Errorf("%s: %v", message, err)
	} else {
		log.Warnf("%s: %v", message, err)
	}

	c.JSON(code, models.APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		Error:   apiErr,
	})
}

func respondSuccess(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, models.APIResponse{
		Status:  "success",
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// bindJSON decodes the body into req and answers 400 on malformed input.
func bindJSON(c *gin.Context, log logger.Logger, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		log.Warnf("Failed to bind JSON: %v", err)
		c.JSON(http.StatusBadRequest, models.APIResponse{
			Status:  "error",
			Code:    http.StatusBadRequest,
			Message: "Invalid request",
			Error: &models.APIError{
				Type:    models.ErrorTypeValidation,
				Details: err.Error(),
			},
		})
		return false
	}
	return true
}

func tenantOf(c *gin.Context) models.TenantID {
	return middelware.TenantFrom(c)
}

func actorOf(c *gin.Context) string {
	return middelware.ActorFrom(c)
}
