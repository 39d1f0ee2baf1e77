package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldops-scheduler/dal"
	"fieldops-scheduler/models"
	"fieldops-scheduler/utils"
	"fieldops-scheduler/utils/logger"
)

type CrewRepository struct {
	db     dal.DatabaseClientInterface
	config *models.Config
	logger logger.Logger
}

func NewCrewRepository(db dal.DatabaseClientInterface, cfg *models.Config, log logger.Logger) *CrewRepository {
	return &CrewRepository{
		db:     db,
		config: cfg,
		logger: log,
	}
}

func (r *CrewRepository) table() string {
	return r.config.TableName(models.TableCrews)
}

func (r *CrewRepository) CreateCrew(ctx context.Context, crew *models.Crew) (*models.Crew, error) {
	r.logger.Infof("Creating crew: %s", crew.Name)

	now := time.Now().UTC()
	crew.CrewID = "crew_" + utils.GenerateUUID()
	crew.CreatedAt = now
	crew.UpdatedAt = now
	crew.IsActive = true

	if err := r.db.PutItem(ctx, r.table(), crew); err != nil {
		r.logger.Errorf("Failed to create crew: %v", err)
		return nil, err
	}

	r.logger.Infof("Crew created successfully: %s", crew.CrewID)
	return crew, nil
}

func (r *CrewRepository) GetCrew(ctx context.Context, id string) (*models.Crew, error) {
	if id == "" {
		return nil, models.NewValidationError("crewID", "crew ID is required")
	}

	var crew models.Crew
	err := r.db.GetItem(ctx, models.QueryConfig{
		TableName: r.table(),
		KeyName:   "crewID",
		KeyValue:  id,
	}, &crew)
	if errors.Is(err, dal.ErrItemNotFound) {
		return nil, fmt.Errorf("%w: crew %s", models.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Errorf("Failed to get crew %s: %v", id, err)
		return nil, fmt.Errorf("failed to get crew: %w", err)
	}

	return &crew, nil
}

func (r *CrewRepository) GetCrewsByFilter(ctx context.Context, filter *models.CrewFilter) ([]*models.Crew, error) {
	if filter == nil || filter.Tenant == "" {
		return nil, models.NewValidationError("tenant", "tenant is required")
	}

	var crews []*models.Crew
	if err := r.db.QueryByIndex(ctx, r.table(), "tenant-index", "tenant", string(filter.Tenant), &crews); err != nil {
		r.logger.Errorf("Failed to get crews: %v", err)
		return nil, err
	}

	if filter.IsActive == nil {
		return crews, nil
	}

	var filtered []*models.Crew
	for _, c := range crews {
		if c.IsActive == *filter.IsActive {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

func (r *CrewRepository) UpdateCrew(ctx context.Context, id string, crew *models.Crew) (*models.Crew, error) {
	r.logger.Infof("Updating crew: %s", id)

	existing, err := r.GetCrew(ctx, id)
	if err != nil {
		return nil, err
	}

	crew.CrewID = id
	crew.Tenant = existing.Tenant
	crew.CreatedAt = existing.CreatedAt
	crew.UpdatedAt = time.Now().UTC()

	if err := r.db.PutItem(ctx, r.table(), crew); err != nil {
		r.logger.Errorf("Failed to update crew: %v", err)
		return nil, err
	}

	return crew, nil
}

func (r *CrewRepository) DeleteCrew(ctx context.Context, id string) error {
	r.logger.Infof("Deleting crew: %s", id)

	if id == "" {
		return models.NewValidationError("crewID", "crew ID is required")
	}

	if err := r.db.DeleteItem(ctx, r.table(), "crewID", id); err != nil {
		r.logger.Errorf("Failed to delete crew: %v", err)
		return err
	}
	return nil
}
