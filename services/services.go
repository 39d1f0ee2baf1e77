package services

import (
	"fieldops-scheduler/models"
	"fieldops-scheduler/repository"
	"fieldops-scheduler/utils/logger"
)

// Service implements ServiceContainerInterface
type Service struct {
	schedulePlanService   SchedulePlanServiceInterface
	operationJobService   OperationJobServiceInterface
	jobGenerationService  JobGenerationServiceInterface
	infrastructureService InfrastructureServiceInterface
	crewService           CrewServiceInterface
}

// NewService creates a new service container with all dependencies injected.
// leaser may be nil when no lease store is configured.
func NewService(
	repoContainer repository.RepositoryContainerInterface,
	leaser PlanLeaser,
	logger logger.Logger,
	config *models.Config,
) ServiceContainerInterface {
	directory := NewCrewDirectory(repoContainer.GetCrewRepository(), logger)

	return &Service{
		schedulePlanService: NewSchedulePlanService(repoContainer.GetSchedulePlanRepository(), logger),
		operationJobService: NewOperationJobService(repoContainer.GetOperationJobRepository(), logger),
		jobGenerationService: NewJobGenerationService(
			repoContainer.GetSchedulePlanRepository(),
			repoContainer.GetOperationJobRepository(),
			directory,
			leaser,
			config.SchedulerParallelism,
			logger,
		),
		infrastructureService: NewInfrastructureService(logger, config),
		crewService:           NewCrewService(repoContainer.GetCrewRepository(), logger),
	}
}

// GetSchedulePlanService returns the schedule plan service interface
func (s *Service) GetSchedulePlanService() SchedulePlanServiceInterface {
	return s.schedulePlanService
}

// GetOperationJobService returns the operation job service interface
func (s *Service) GetOperationJobService() OperationJobServiceInterface {
	return s.operationJobService
}

// GetJobGenerationService returns the job generation service interface
func (s *Service) GetJobGenerationService() JobGenerationServiceInterface {
	return s.jobGenerationService
}

// GetInfrastructureService returns the infrastructure service interface
func (s *Service) GetInfrastructureService() InfrastructureServiceInterface {
	return s.infrastructureService
}

// GetCrewService returns the crew service interface
func (s *Service) GetCrewService() CrewServiceInterface {
	return s.crewService
}
