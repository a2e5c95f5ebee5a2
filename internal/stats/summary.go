package stats

import (
	"github.com/testboard/engine/internal/models"
)

// ProjectStats is the per-project view: its features with counts plus the
// project-wide roll-up.
type ProjectStats struct {
	Project     models.Project      `json:"project"`
	Features    []FeatureWithCounts `json:"features"`
	Totals      Counts              `json:"totals"`
	Percentages Percentages         `json:"percentages"`
}

// ProjectSummary scopes features to project and rolls their counts up.
// Test cases whose feature is outside the project do not contribute.
func ProjectSummary(project models.Project, features []models.Feature, tcs []models.TestCase) ProjectStats {
	scoped := make([]models.Feature, 0, len(features))
	for _, f := range features {
		if f.BelongsTo(project.ID) {
			scoped = append(scoped, f)
		}
	}
	withCounts := AttachCounts(scoped, tcs)

	var totals Counts
	for _, f := range withCounts {
		totals.add(f.TestCounts)
	}
	return ProjectStats{
		Project:     project,
		Features:    withCounts,
		Totals:      totals,
		Percentages: totals.Percentages(),
	}
}

// SystemStats is the dashboard overview across every collection.
type SystemStats struct {
	Projects    int         `json:"projects"`
	Features    int         `json:"features"`
	TestCases   Counts      `json:"test_cases"`
	Percentages Percentages `json:"percentages"`
	PassRate    int         `json:"pass_rate"`
	// ByPriority counts test cases per priority; unknown priorities are omitted.
	ByPriority map[string]int `json:"by_priority"`
}

// Overview computes whole-system statistics.
func Overview(projects []models.Project, features []models.Feature, tcs []models.TestCase) SystemStats {
	c := CountByStatus(tcs)
	byPriority := make(map[string]int, len(models.Priorities))
	for _, p := range models.Priorities {
		byPriority[p] = 0
	}
	for _, tc := range tcs {
		if _, ok := byPriority[tc.Priority]; ok {
			byPriority[tc.Priority]++
		}
	}
	return SystemStats{
		Projects:    len(projects),
		Features:    len(features),
		TestCases:   c,
		Percentages: c.Percentages(),
		PassRate:    c.PassRate(),
		ByPriority:  byPriority,
	}
}
