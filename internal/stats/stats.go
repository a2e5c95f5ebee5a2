// Package stats derives pass/fail/pending statistics from test case
// snapshots. Every function is pure: callers pass the current collections and
// get freshly computed values back, so results never go stale when the
// underlying store changes.
package stats

import (
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/testboard/engine/internal/models"
)

// Counts tallies test cases by status. Total is the number of records seen,
// including those whose status is not recognised.
type Counts struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
	Total   int `json:"total"`
}

// Other is the number of records whose status was not recognised.
func (c Counts) Other() int {
	return c.Total - c.Passed - c.Failed - c.Pending
}

// Percentages is the share of Total held by each status, rounded to whole percent.
type Percentages struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
}

// Percentages derives the per-status share of c.Total.
func (c Counts) Percentages() Percentages {
	return Percentages{
		Passed:  Percent(c.Passed, c.Total),
		Failed:  Percent(c.Failed, c.Total),
		Pending: Percent(c.Pending, c.Total),
	}
}

// PassRate is the passed share of Total.
func (c Counts) PassRate() int { return Percent(c.Passed, c.Total) }

func (c *Counts) add(o Counts) {
	c.Passed += o.Passed
	c.Failed += o.Failed
	c.Pending += o.Pending
	c.Total += o.Total
}

// Percent returns count/total as a rounded whole percentage, or 0 when total
// is not positive.
func Percent(count, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}

// CountByStatus tallies tcs by status. Status matching ignores case and
// surrounding whitespace.
func CountByStatus(tcs []models.TestCase) Counts {
	c := Counts{Total: len(tcs)}
	for _, tc := range tcs {
		switch strings.ToLower(strings.TrimSpace(tc.Status)) {
		case "pass":
			c.Passed++
		case "fail":
			c.Failed++
		case "pending":
			c.Pending++
		}
	}
	return c
}

// ByFeature groups counts by feature id in a single pass. Records without a
// feature reference are skipped.
func ByFeature(tcs []models.TestCase) map[uuid.UUID]Counts {
	grouped := make(map[uuid.UUID][]models.TestCase)
	for _, tc := range tcs {
		if tc.FeatureID == uuid.Nil {
			continue
		}
		grouped[tc.FeatureID] = append(grouped[tc.FeatureID], tc)
	}
	out := make(map[uuid.UUID]Counts, len(grouped))
	for id, list := range grouped {
		out[id] = CountByStatus(list)
	}
	return out
}

// FeatureWithCounts is a feature decorated with its derived test counts.
type FeatureWithCounts struct {
	models.Feature
	TestCounts  Counts      `json:"test_counts"`
	Percentages Percentages `json:"percentages"`
}

// AttachCounts decorates each feature with the counts of the test cases that
// reference it. Output order follows features.
func AttachCounts(features []models.Feature, tcs []models.TestCase) []FeatureWithCounts {
	byFeature := ByFeature(tcs)
	out := make([]FeatureWithCounts, 0, len(features))
	for _, f := range features {
		c := byFeature[f.ID]
		out = append(out, FeatureWithCounts{Feature: f, TestCounts: c, Percentages: c.Percentages()})
	}
	return out
}

// ForFeature counts the test cases of a single feature.
func ForFeature(featureID uuid.UUID, tcs []models.TestCase) Counts {
	if featureID == uuid.Nil {
		return Counts{}
	}
	return ByFeature(tcs)[featureID]
}
