package stats

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testboard/engine/internal/models"
)

func TestProjectSummaryScopesFeatures(t *testing.T) {
	project := models.Project{ID: uuid.New(), Name: "Storefront"}
	other := uuid.New()
	features := []models.Feature{
		{ID: f1, ProjectID: &project.ID, Name: "Login"},
		{ID: f2, ProjectID: &other, Name: "Admin"},
		{ID: uuid.New(), Name: "Orphan"},
	}

	s := ProjectSummary(project, features, scenario())
	require.Len(t, s.Features, 1)
	assert.Equal(t, "Login", s.Features[0].Name)
	assert.Equal(t, Counts{Passed: 1, Failed: 1, Total: 2}, s.Totals)
	assert.Equal(t, Percentages{Passed: 50, Failed: 50}, s.Percentages)
}

func TestProjectSummaryEmpty(t *testing.T) {
	s := ProjectSummary(models.Project{ID: uuid.New()}, nil, nil)
	assert.Empty(t, s.Features)
	assert.Equal(t, Counts{}, s.Totals)
}

func TestOverview(t *testing.T) {
	tcs := scenario()
	tcs[0].Priority = models.PriorityHigh
	tcs[1].Priority = models.PriorityHigh
	tcs[2].Priority = "Urgent"

	o := Overview(make([]models.Project, 2), make([]models.Feature, 3), tcs)
	assert.Equal(t, 2, o.Projects)
	assert.Equal(t, 3, o.Features)
	assert.Equal(t, 3, o.TestCases.Total)
	assert.Equal(t, 33, o.PassRate)
	assert.Equal(t, map[string]int{"High": 2, "Medium": 0, "Low": 0}, o.ByPriority)
}
