package services

import (
	"context"
	"fmt"

	"fieldops-scheduler/models"
	"fieldops-scheduler/repository"
	"fieldops-scheduler/utils/logger"
)

// CrewServiceInterface manages the standing crews the staffing directory draws from
type CrewServiceInterface interface {
	CreateCrew(ctx context.Context, tenant models.TenantID, req *models.CreateCrewRequest) (*models.Crew, error)
	GetCrews(ctx context.Context, filter *models.CrewFilter) ([]*models.Crew, error)
	GetCrewByID(ctx context.Context, tenant models.TenantID, id string) (*models.Crew, error)
	UpdateCrew(ctx context.Context, tenant models.TenantID, id string, req *models.UpdateCrewRequest) (*models.Crew, error)
	DeleteCrew(ctx context.Context, tenant models.TenantID, id string) error
	AddMemberToCrew(ctx context.Context, tenant models.TenantID, crewID string, member models.EmployeeRef) (*models.Crew, error)
	RemoveMemberFromCrew(ctx context.Context, tenant models.TenantID, crewID string, member models.EmployeeRef) (*models.Crew, error)
}

type CrewService struct {
	crewRepo repository.CrewRepositoryInterface
	logger   logger.Logger
}

func NewCrewService(crewRepo repository.CrewRepositoryInterface, logger logger.Logger) *CrewService {
	return &CrewService{
		crewRepo: crewRepo,
		logger:   logger,
	}
}

func (s *CrewService) CreateCrew(ctx context.Context, tenant models.TenantID, req *models.CreateCrewRequest) (*models.Crew, error) {
	if tenant == "" {
		return nil, models.NewValidationError("tenant", "tenant is required")
	}
	if req == nil {
		return nil, models.NewValidationError("", "crew request is required")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	crew := &models.Crew{
		Tenant:     tenant,
		Name:       req.Name,
		Lead:       req.Lead,
		Members:    orEmpty(req.Members),
		Skills:     orEmpty(req.Skills),
		Apartments: req.Apartments,
	}

	return s.crewRepo.CreateCrew(ctx, crew)
}

func (s *CrewService) GetCrews(ctx context.Context, filter *models.CrewFilter) ([]*models.Crew, error) {
	if filter == nil || filter.Tenant == "" {
		return nil, models.NewValidationError("tenant", "tenant is required")
	}
	return s.crewRepo.GetCrewsByFilter(ctx, filter)
}

// GetCrewByID hides crews of other tenants behind ErrNotFound.
func (s *CrewService) GetCrewByID(ctx context.Context, tenant models.TenantID, id string) (*models.Crew, error) {
	crew, err := s.crewRepo.GetCrew(ctx, id)
	if err != nil {
		return nil, err
	}
	if crew.Tenant != tenant {
		return nil, fmt.Errorf("%w: crew %s", models.ErrNotFound, id)
	}
	return crew, nil
}

func (s *CrewService) UpdateCrew(ctx context.Context, tenant models.TenantID, id string, req *models.UpdateCrewRequest) (*models.Crew, error) {
	if req == nil {
		return nil, models.NewValidationError("", "update request is required")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	existing, err := s.GetCrewByID(ctx, tenant, id)
	if err != nil {
		return nil, err
	}

	updatedCrew := *existing

	if req.Name != "" {
		updatedCrew.Name = req.Name
	}
	if req.Lead != "" {
		updatedCrew.Lead = req.Lead
	}
	if req.Members != nil {
		updatedCrew.Members = req.Members
	}
	if req.Skills != nil {
		updatedCrew.Skills = req.Skills
	}
	if req.Apartments != nil {
		updatedCrew.Apartments = req.Apartments
	}
	if req.IsActive != nil {
		updatedCrew.IsActive = *req.IsActive
	}

	return s.crewRepo.UpdateCrew(ctx, id, &updatedCrew)
}

func (s *CrewService) DeleteCrew(ctx context.Context, tenant models.TenantID, id string) error {
	if _, err := s.GetCrewByID(ctx, tenant, id); err != nil {
		return err
	}
	return s.crewRepo.DeleteCrew(ctx, id)
}

func (s *CrewService) AddMemberToCrew(ctx context.Context, tenant models.TenantID, crewID string, member models.EmployeeRef) (*models.Crew, error) {
	if member == "" {
		return nil, models.NewValidationError("member", "member is required")
	}

	crew, err := s.GetCrewByID(ctx, tenant, crewID)
	if err != nil {
		return nil, err
	}

	for _, existingMember := range crew.Members {
		if existingMember == member {
			return nil, fmt.Errorf("%w: %s is already a member of crew %s", models.ErrConflict, member, crewID)
		}
	}

	crew.Members = append(crew.Members, member)
	return s.crewRepo.UpdateCrew(ctx, crewID, crew)
}

func (s *CrewService) RemoveMemberFromCrew(ctx context.Context, tenant models.TenantID, crewID string, member models.EmployeeRef) (*models.Crew, error) {
	crew, err := s.GetCrewByID(ctx, tenant, crewID)
	if err != nil {
		return nil, err
	}

	updatedMembers := []models.EmployeeRef{}
	memberFound := false
	for _, existingMember := range crew.Members {
		if existingMember != member {
			updatedMembers = append(updatedMembers, existingMember)
		} else {
			memberFound = true
		}
	}

	if !memberFound {
		return nil, fmt.Errorf("%w: %s is not a member of crew %s", models.ErrNotFound, member, crewID)
	}

	crew.Members = updatedMembers
	return s.crewRepo.UpdateCrew(ctx, crewID, crew)
}
