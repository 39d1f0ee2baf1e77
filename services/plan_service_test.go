package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fieldops-scheduler/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SchedulePlanServiceTestSuite struct {
	suite.Suite
	repo    *fakePlanRepo
	service *SchedulePlanService
	ctx     context.Context
	now     time.Time
}

func (suite *SchedulePlanServiceTestSuite) SetupTest() {
	suite.repo = newFakePlanRepo()
	suite.service = NewSchedulePlanService(suite.repo, newMockLogger())
	// Sunday
	suite.now = time.Date(2024, 5, 5, 10, 0, 0, 0, time.UTC)
	suite.service.now = func() time.Time { return suite.now }
	suite.ctx = context.Background()
}

func monWed() models.RecurrenceRule {
	return models.RuleFor(models.WeeklyPattern{Every: 1, DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday}})
}

func planRequest() *models.CreateSchedulePlanRequest {
	return &models.CreateSchedulePlanRequest{
		Code:      "STAIRS",
		Title:     models.LocalizedText{"en": "Stairwell cleaning"},
		Anchor:    models.PlanAnchor{Apartment: "apt-1", Service: "svc-clean", Template: "tpl-stairs"},
		Pattern:   monWed(),
		Window:    models.PlanWindow{StartTime: "08:00", EndTime: "12:00"},
		Policy:    models.PlanPolicy{LockAheadPeriods: 1},
		StartDate: date(2024, 5, 1),
	}
}

func (suite *SchedulePlanServiceTestSuite) create(req *models.CreateSchedulePlanRequest) *models.SchedulePlan {
	plan, err := suite.service.CreatePlan(suite.ctx, "t1", req, "operator-1")
	require.NoError(suite.T(), err)
	return plan
}

func (suite *SchedulePlanServiceTestSuite) TestCreatePlan_ComputesNextRunFromToday() {
	plan := suite.create(planRequest())

	assert.Equal(suite.T(), models.PlanStatusActive, plan.Status)
	require.NotNil(suite.T(), plan.NextRunAt)
	assert.True(suite.T(), plan.NextRunAt.Equal(date(2024, 5, 6)), "got %s", plan.NextRunAt)
	assert.Equal(suite.T(), 1, plan.Version)
	assert.Equal(suite.T(), "operator-1", plan.CreatedBy)
}

func (suite *SchedulePlanServiceTestSuite) TestCreatePlan_StartDateIsEligible() {
	req := planRequest()
	req.StartDate = date(2024, 5, 8)

	plan := suite.create(req)

	assert.True(suite.T(), plan.NextRunAt.Equal(date(2024, 5, 8)), "got %s", plan.NextRunAt)
}

func (suite *SchedulePlanServiceTestSuite) TestCreatePlan_Timezone() {
	req := planRequest()
	req.Timezone = "America/New_York"

	plan := suite.create(req)

	// Monday midnight in New York (EDT).
	assert.True(suite.T(), plan.NextRunAt.Equal(time.Date(2024, 5, 6, 4, 0, 0, 0, time.UTC)), "got %s", plan.NextRunAt.UTC())
}

func (suite *SchedulePlanServiceTestSuite) TestCreatePlan_PausedHasNoNextRun() {
	req := planRequest()
	req.Status = models.PlanStatusPaused

	plan := suite.create(req)

	assert.Nil(suite.T(), plan.NextRunAt)
}

func (suite *SchedulePlanServiceTestSuite) TestCreatePlan_EndDateBeforeFirstOccurrence() {
	req := planRequest()
	req.EndDate = timePtr(date(2024, 5, 5))

	plan := suite.create(req)

	assert.Nil(suite.T(), plan.NextRunAt)
}

func (suite *SchedulePlanServiceTestSuite) TestCreatePlan_SkipDateMovesFirstRun() {
	req := planRequest()
	req.SkipDates = []time.Time{date(2024, 5, 6)}

	plan := suite.create(req)

	assert.True(suite.T(), plan.NextRunAt.Equal(date(2024, 5, 7)), "got %s", plan.NextRunAt)
}

func (suite *SchedulePlanServiceTestSuite) TestCreatePlan_Exhausted() {
	req := planRequest()
	req.Blackouts = []models.Blackout{{From: date(2024, 5, 1), To: timePtr(date(2027, 5, 1)), Reason: "renovation"}}

	_, err := suite.service.CreatePlan(suite.ctx, "t1", req, "operator-1")

	assert.True(suite.T(), errors.Is(err, models.ErrRecurrenceExhausted))
}

func (suite *SchedulePlanServiceTestSuite) TestCreatePlan_ValidationErrors() {
	testCases := []struct {
		name   string
		mutate func(*models.CreateSchedulePlanRequest)
	}{
		{"two pattern variants", func(r *models.CreateSchedulePlanRequest) {
			r.Pattern.Yearly = &models.YearlyPattern{Month: time.March, Day: 1}
		}},
		{"no pattern", func(r *models.CreateSchedulePlanRequest) { r.Pattern = models.RecurrenceRule{} }},
		{"weekly without days", func(r *models.CreateSchedulePlanRequest) {
			r.Pattern = models.RuleFor(models.WeeklyPattern{Every: 1})
		}},
		{"unknown timezone", func(r *models.CreateSchedulePlanRequest) { r.Timezone = "Mars/Olympus" }},
		{"missing apartment", func(r *models.CreateSchedulePlanRequest) { r.Anchor.Apartment = "" }},
		{"bad start time", func(r *models.CreateSchedulePlanRequest) { r.Window.StartTime = "25:00" }},
		{"no end or duration", func(r *models.CreateSchedulePlanRequest) { r.Window.EndTime = "" }},
		{"empty window", func(r *models.CreateSchedulePlanRequest) { r.Window.EndTime = "08:00" }},
		{"end before start", func(r *models.CreateSchedulePlanRequest) { r.EndDate = timePtr(date(2024, 4, 1)) }},
		{"max crew below min", func(r *models.CreateSchedulePlanRequest) {
			r.Policy.MinCrewSize = 3
			r.Policy.MaxCrewSize = 2
		}},
		{"negative lead time", func(r *models.CreateSchedulePlanRequest) { r.Policy.LeadTimeDays = -1 }},
		{"missing code", func(r *models.CreateSchedulePlanRequest) { r.Code = "" }},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			req := planRequest()
			tc.mutate(req)
			_, err := suite.service.CreatePlan(suite.ctx, "t1", req, "operator-1")
			assert.True(suite.T(), errors.Is(err, models.ErrValidation), "got %v", err)
		})
	}
}

func (suite *SchedulePlanServiceTestSuite) TestCreatePlan_DurationWindow() {
	req := planRequest()
	req.Window = models.PlanWindow{StartTime: "22:00", DurationMinutes: 180}

	plan := suite.create(req)

	assert.Equal(suite.T(), 180, plan.Window.DurationMinutes)
}

func (suite *SchedulePlanServiceTestSuite) TestCreatePlan_DuplicateCode() {
	suite.create(planRequest())

	_, err := suite.service.CreatePlan(suite.ctx, "t1", planRequest(), "operator-1")
	assert.True(suite.T(), errors.Is(err, models.ErrConflict))

	_, err = suite.service.CreatePlan(suite.ctx, "t2", planRequest(), "operator-1")
	assert.NoError(suite.T(), err, "codes are unique per tenant")
}

func (suite *SchedulePlanServiceTestSuite) TestPauseResume() {
	suite.create(planRequest())

	plan, err := suite.service.PausePlan(suite.ctx, "t1", "STAIRS", "operator-1")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.PlanStatusPaused, plan.Status)

	_, err = suite.service.PausePlan(suite.ctx, "t1", "STAIRS", "operator-1")
	assert.True(suite.T(), errors.Is(err, models.ErrInvalidTransition))

	// Two weeks later the stored next run is in the past and is not back-filled.
	suite.now = time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
	plan, err = suite.service.ResumePlan(suite.ctx, "t1", "STAIRS", "operator-1")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.PlanStatusActive, plan.Status)
	assert.True(suite.T(), plan.NextRunAt.Equal(date(2024, 5, 22)), "got %s", plan.NextRunAt)

	_, err = suite.service.ResumePlan(suite.ctx, "t1", "STAIRS", "operator-1")
	assert.True(suite.T(), errors.Is(err, models.ErrInvalidTransition))
}

func (suite *SchedulePlanServiceTestSuite) TestResume_KeepsFutureNextRun() {
	suite.create(planRequest())
	_, err := suite.service.SetNextRun(suite.ctx, "t1", "STAIRS", date(2024, 5, 9), "operator-1")
	require.NoError(suite.T(), err)
	_, err = suite.service.PausePlan(suite.ctx, "t1", "STAIRS", "operator-1")
	require.NoError(suite.T(), err)

	plan, err := suite.service.ResumePlan(suite.ctx, "t1", "STAIRS", "operator-1")

	require.NoError(suite.T(), err)
	assert.True(suite.T(), plan.NextRunAt.Equal(date(2024, 5, 9)))
}

func (suite *SchedulePlanServiceTestSuite) TestArchive() {
	suite.create(planRequest())

	plan, err := suite.service.ArchivePlan(suite.ctx, "t1", "STAIRS", "operator-1")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.PlanStatusArchived, plan.Status)

	_, err = suite.service.ArchivePlan(suite.ctx, "t1", "STAIRS", "operator-1")
	assert.NoError(suite.T(), err)

	_, err = suite.service.UpdatePlan(suite.ctx, "t1", "STAIRS", &models.UpdateSchedulePlanRequest{Tags: []string{"x"}}, "operator-1")
	assert.True(suite.T(), errors.Is(err, models.ErrValidation))

	_, err = suite.service.ResumePlan(suite.ctx, "t1", "STAIRS", "operator-1")
	assert.True(suite.T(), errors.Is(err, models.ErrValidation))
}

func (suite *SchedulePlanServiceTestSuite) TestUpdatePlan_UnrelatedEditKeepsOverride() {
	suite.create(planRequest())
	_, err := suite.service.SetNextRun(suite.ctx, "t1", "STAIRS", date(2024, 5, 9), "operator-1")
	require.NoError(suite.T(), err)

	plan, err := suite.service.UpdatePlan(suite.ctx, "t1", "STAIRS", &models.UpdateSchedulePlanRequest{
		Title: models.LocalizedText{"en": "Stairwell deep clean"},
	}, "operator-2")

	require.NoError(suite.T(), err)
	assert.True(suite.T(), plan.NextRunAt.Equal(date(2024, 5, 9)))
	assert.Equal(suite.T(), "Stairwell deep clean", plan.Title.Default())
	assert.Equal(suite.T(), "operator-2", plan.UpdatedBy)
}

func (suite *SchedulePlanServiceTestSuite) TestUpdatePlan_PatternChangeRecomputes() {
	suite.create(planRequest())

	tuesdays := models.RuleFor(models.WeeklyPattern{Every: 1, DaysOfWeek: []time.Weekday{time.Tuesday}})
	plan, err := suite.service.UpdatePlan(suite.ctx, "t1", "STAIRS", &models.UpdateSchedulePlanRequest{Pattern: &tuesdays}, "operator-1")

	require.NoError(suite.T(), err)
	assert.True(suite.T(), plan.NextRunAt.Equal(date(2024, 5, 7)), "got %s", plan.NextRunAt)
	assert.Equal(suite.T(), 2, suite.repo.stored("t1", "STAIRS").Version)
}

func (suite *SchedulePlanServiceTestSuite) TestUpdatePlan_RecomputeNeverRepeatsGeneratedDates() {
	plan := suite.create(planRequest())
	stored := suite.repo.stored("t1", "STAIRS")
	stored.LastRunAt = timePtr(date(2024, 5, 8))
	stored.NextRunAt = timePtr(date(2024, 5, 13))
	_, err := suite.repo.UpdatePlan(suite.ctx, stored, plan.Version)
	require.NoError(suite.T(), err)

	updated, err := suite.service.UpdatePlan(suite.ctx, "t1", "STAIRS", &models.UpdateSchedulePlanRequest{
		SkipDates: []time.Time{date(2024, 5, 13)},
	}, "operator-1")

	require.NoError(suite.T(), err)
	assert.True(suite.T(), updated.NextRunAt.Equal(date(2024, 5, 14)), "got %s", updated.NextRunAt)
}

func (suite *SchedulePlanServiceTestSuite) TestUpdatePlan_EndDateCutsNextRun() {
	suite.create(planRequest())

	plan, err := suite.service.UpdatePlan(suite.ctx, "t1", "STAIRS", &models.UpdateSchedulePlanRequest{
		EndDate: timePtr(date(2024, 5, 5)),
	}, "operator-1")

	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), plan.NextRunAt)
}

func (suite *SchedulePlanServiceTestSuite) TestUpdatePlan_StaleVersionConflicts() {
	suite.create(planRequest())
	stored := suite.repo.stored("t1", "STAIRS")
	_, err := suite.repo.UpdatePlan(suite.ctx, stored, 1)
	require.NoError(suite.T(), err)

	_, err = suite.service.UpdatePlan(suite.ctx, "t1", "STAIRS", &models.UpdateSchedulePlanRequest{Tags: []string{"x"}}, "operator-1")
	assert.NoError(suite.T(), err, "service reads the fresh version")

	_, err = suite.repo.UpdatePlan(suite.ctx, stored, 1)
	assert.True(suite.T(), errors.Is(err, models.ErrConflict))
}

func (suite *SchedulePlanServiceTestSuite) TestSetNextRun_Validation() {
	req := planRequest()
	req.SkipDates = []time.Time{date(2024, 5, 20)}
	req.EndDate = timePtr(date(2024, 6, 30))
	plan := suite.create(req)

	stored := suite.repo.stored("t1", "STAIRS")
	stored.LastRunAt = timePtr(date(2024, 5, 8))
	_, err := suite.repo.UpdatePlan(suite.ctx, stored, plan.Version)
	require.NoError(suite.T(), err)

	testCases := []struct {
		name string
		at   time.Time
	}{
		{"zero", time.Time{}},
		{"on last run", date(2024, 5, 8)},
		{"before last run", date(2024, 5, 1)},
		{"skip date", date(2024, 5, 20)},
		{"after end date", date(2024, 7, 1)},
	}
	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			_, err := suite.service.SetNextRun(suite.ctx, "t1", "STAIRS", tc.at, "operator-1")
			assert.True(suite.T(), errors.Is(err, models.ErrValidation), "got %v", err)
		})
	}

	updated, err := suite.service.SetNextRun(suite.ctx, "t1", "STAIRS", date(2024, 5, 9), "operator-1")
	require.NoError(suite.T(), err)
	assert.True(suite.T(), updated.NextRunAt.Equal(date(2024, 5, 9)))
}

func (suite *SchedulePlanServiceTestSuite) TestPreviewOccurrences() {
	suite.create(planRequest())

	dates, err := suite.service.PreviewOccurrences(suite.ctx, "t1", "STAIRS", 4)

	require.NoError(suite.T(), err)
	require.Len(suite.T(), dates, 4)
	for i, want := range []time.Time{date(2024, 5, 6), date(2024, 5, 8), date(2024, 5, 13), date(2024, 5, 15)} {
		assert.True(suite.T(), dates[i].Equal(want), "index %d: got %s", i, dates[i])
	}

	stored := suite.repo.stored("t1", "STAIRS")
	assert.True(suite.T(), stored.NextRunAt.Equal(date(2024, 5, 6)), "preview does not mutate the plan")
}

func (suite *SchedulePlanServiceTestSuite) TestPreviewOccurrences_Bounds() {
	req := planRequest()
	suite.create(req)

	_, err := suite.service.PreviewOccurrences(suite.ctx, "t1", "STAIRS", 0)
	assert.True(suite.T(), errors.Is(err, models.ErrValidation))

	dates, err := suite.service.PreviewOccurrences(suite.ctx, "t1", "STAIRS", 500)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), dates, MaxPreviewOccurrences)

	ended := planRequest()
	ended.Code = "ENDING"
	ended.EndDate = timePtr(date(2024, 5, 10))
	suite.create(ended)
	dates, err = suite.service.PreviewOccurrences(suite.ctx, "t1", "ENDING", 10)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), dates, 2)

	paused := planRequest()
	paused.Code = "PAUSED"
	paused.Status = models.PlanStatusPaused
	suite.create(paused)
	dates, err = suite.service.PreviewOccurrences(suite.ctx, "t1", "PAUSED", 10)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), dates)
}

func (suite *SchedulePlanServiceTestSuite) TestListPlans() {
	suite.create(planRequest())
	other := planRequest()
	other.Code = "WINDOWS"
	other.Status = models.PlanStatusPaused
	suite.create(other)

	all, err := suite.service.ListPlans(suite.ctx, &models.SchedulePlanFilter{Tenant: "t1"})
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), all, 2)

	paused, err := suite.service.ListPlans(suite.ctx, &models.SchedulePlanFilter{Tenant: "t1", Status: models.PlanStatusPaused})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), paused, 1)
	assert.Equal(suite.T(), "WINDOWS", paused[0].Code)

	_, err = suite.service.ListPlans(suite.ctx, nil)
	assert.True(suite.T(), errors.Is(err, models.ErrValidation))
}

func TestSchedulePlanServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SchedulePlanServiceTestSuite))
}
