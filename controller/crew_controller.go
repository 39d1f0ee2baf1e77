package controller

import (
	"net/http"
	"strconv"

	"fieldops-scheduler/models"
	"fieldops-scheduler/services"
	"fieldops-scheduler/utils/logger"

	"github.com/gin-gonic/gin"
)

// CrewController manages the standing crews the generator staffs jobs from.
type CrewController struct {
	crewService services.CrewServiceInterface
	logger      logger.Logger
}

func NewCrewController(crewService services.CrewServiceInterface, logger logger.Logger) *CrewController {
	return &CrewController{
		crewService: crewService,
		logger:      logger,
	}
}

// CreateCrew handles POST /crews
// @Summary Create a new crew
// @Tags Crews
// @Param request body models.CreateCrewRequest true "Create crew request"
// @Success 201 {object} models.APIResponse "Crew created successfully"
// @Failure 400 {object} models.APIResponse "Bad Request - Invalid crew data"
// @Router /crews [post]
func (h *CrewController) CreateCrew(c *gin.Context) {
	var req models.CreateCrewRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	crew, err := h.crewService.CreateCrew(c.Request.Context(), tenantOf(c), &req)
	if err != nil {
		respondError(c, h.logger, "Failed to create crew", err)
		return
	}

	respondSuccess(c, http.StatusCreated, "Crew created successfully", crew)
}

// GetCrews handles GET /crews
// @Param isActive query boolean false "Filter by active status"
// @Router /crews [get]
func (h *CrewController) GetCrews(c *gin.Context) {
	filter := &models.CrewFilter{Tenant: tenantOf(c)}

	if isActiveStr := c.Query("isActive"); isActiveStr != "" {
		isActive, err := strconv.ParseBool(isActiveStr)
		if err != nil {
			respondError(c, h.logger, "Invalid query", models.NewValidationError("isActive", "must be true or false"))
			return
		}
		filter.IsActive = &isActive
	}

	crews, err := h.crewService.GetCrews(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, "Failed to retrieve crews", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Crews retrieved successfully", crews)
}

// GetCrew handles GET /crews/:id
func (h *CrewController) GetCrew(c *gin.Context) {
	crew, err := h.crewService.GetCrewByID(c.Request.Context(), tenantOf(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "Failed to retrieve crew", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Crew retrieved successfully", crew)
}

// UpdateCrew handles PATCH /crews/:id
func (h *CrewController) UpdateCrew(c *gin.Context) {
	var req models.UpdateCrewRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	crew, err := h.crewService.UpdateCrew(c.Request.Context(), tenantOf(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, h.logger, "Failed to update crew", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Crew updated successfully", crew)
}

// DeleteCrew handles DELETE /crews/:id
func (h *CrewController) DeleteCrew(c *gin.Context) {
	if err := h.crewService.DeleteCrew(c.Request.Context(), tenantOf(c), c.Param("id")); err != nil {
		respondError(c, h.logger, "Failed to delete crew", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Crew deleted successfully", nil)
}

// AddMember handles POST /crews/:id/members
func (h *CrewController) AddMember(c *gin.Context) {
	var req models.CrewMemberRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	crew, err := h.crewService.AddMemberToCrew(c.Request.Context(), tenantOf(c), c.Param("id"), req.Member)
	if err != nil {
		respondError(c, h.logger, "Failed to add crew member", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Member added to crew", crew)
}

// RemoveMember handles DELETE /crews/:id/members/:member
func (h *CrewController) RemoveMember(c *gin.Context) {
	member := models.EmployeeRef(c.Param("member"))
	crew, err := h.crewService.RemoveMemberFromCrew(c.Request.Context(), tenantOf(c), c.Param("id"), member)
	if err != nil {
		respondError(c, h.logger, "Failed to remove crew member", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Member removed from crew", crew)
}
