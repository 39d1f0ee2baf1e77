package repository

import (
	"fieldops-scheduler/dal"
	"fieldops-scheduler/models"
	"fieldops-scheduler/utils/logger"
)

// RepositoryContainer holds all repositories
type RepositoryContainer struct {
	planRepo SchedulePlanRepositoryInterface
	jobRepo  OperationJobRepositoryInterface
	crewRepo CrewRepositoryInterface
}

func NewRepositoryContainer(db dal.DatabaseClientInterface, cfg *models.Config, log logger.Logger) *RepositoryContainer {
	return &RepositoryContainer{
		planRepo: NewSchedulePlanRepository(db, cfg, log),
		jobRepo:  NewOperationJobRepository(db, cfg, log),
		crewRepo: NewCrewRepository(db, cfg, log),
	}
}

func (c *RepositoryContainer) GetSchedulePlanRepository() SchedulePlanRepositoryInterface {
	return c.planRepo
}

func (c *RepositoryContainer) GetOperationJobRepository() OperationJobRepositoryInterface {
	return c.jobRepo
}

func (c *RepositoryContainer) GetCrewRepository() CrewRepositoryInterface {
	return c.crewRepo
}
