package services

import (
	"context"
	"fmt"

	"fieldops-scheduler/models"
	"fieldops-scheduler/repository"
	"fieldops-scheduler/utils/logger"
)

// CrewDirectory suggests employees from the tenant's active crews that cover
// the apartment. Preferred employees come first.
type CrewDirectory struct {
	crewRepo repository.CrewRepositoryInterface
	logger   logger.Logger
}

func NewCrewDirectory(crewRepo repository.CrewRepositoryInterface, logger logger.Logger) *CrewDirectory {
	return &CrewDirectory{
		crewRepo: crewRepo,
		logger:   logger,
	}
}

func (d *CrewDirectory) SuggestCrew(ctx context.Context, req models.CrewRequest) ([]models.EmployeeRef, error) {
	active := true
	crews, err := d.crewRepo.GetCrewsByFilter(ctx, &models.CrewFilter{Tenant: req.Tenant, IsActive: &active})
	if err != nil {
		return nil, fmt.Errorf("failed to load crews: %w", err)
	}

	var pool []models.EmployeeRef
	for _, c := range crews {
		if c.Tenant != req.Tenant || !c.Covers(req.Apartment) {
			continue
		}
		pool = append(pool, c.Roster()...)
	}

	candidates := dedupe(append(append([]models.EmployeeRef(nil), req.Preferred...), pool...))
	d.logger.Debugf("Crew directory found %d candidates for %s/%s", len(candidates), req.Tenant, req.Apartment)
	return candidates, nil
}

// SelectCrew turns ordered candidates into assignments. The first candidate
// leads. maxSize 0 means no upper bound. Fewer than max(1, minSize)
// candidates is ErrStaffingUnavailable.
func SelectCrew(candidates []models.EmployeeRef, minSize, maxSize, plannedMinutes int) ([]models.Assignment, error) {
	candidates = dedupe(candidates)

	required := minSize
	if required < 1 {
		required = 1
	}
	if len(candidates) < required {
		return nil, fmt.Errorf("%w: need %d employees, found %d", models.ErrStaffingUnavailable, required, len(candidates))
	}
	if maxSize > 0 && len(candidates) > maxSize {
		candidates = candidates[:maxSize]
	}

	assignments := make([]models.Assignment, 0, len(candidates))
	for i, e := range candidates {
		role := models.AssignmentRoleMember
		if i == 0 {
			role = models.AssignmentRoleLead
		}
		assignments = append(assignments, models.Assignment{
			Employee:       e,
			Role:           role,
			PlannedMinutes: plannedMinutes,
		})
	}
	return assignments, nil
}

func dedupe(refs []models.EmployeeRef) []models.EmployeeRef {
	seen := make(map[models.EmployeeRef]bool, len(refs))
	out := make([]models.EmployeeRef, 0, len(refs))
	for _, r := range refs {
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
