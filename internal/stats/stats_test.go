package stats

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/testboard/engine/internal/models"
)

var (
	f1 = uuid.MustParse("00000000-0000-0000-0000-0000000000f1")
	f2 = uuid.MustParse("00000000-0000-0000-0000-0000000000f2")
)

func scenario() []models.TestCase {
	return []models.TestCase{
		{CaseID: "TC_01", Status: models.StatusPass, FeatureID: f1},
		{CaseID: "TC_02", Status: models.StatusFail, FeatureID: f1},
		{CaseID: "TC_03", Status: models.StatusPending, FeatureID: f2},
	}
}

func byFeatureID(tcs []models.TestCase, id uuid.UUID) []models.TestCase {
	var out []models.TestCase
	for _, tc := range tcs {
		if tc.FeatureID == id {
			out = append(out, tc)
		}
	}
	return out
}

func TestCountByStatusScenario(t *testing.T) {
	c := CountByStatus(byFeatureID(scenario(), f1))
	assert.Equal(t, Counts{Passed: 1, Failed: 1, Pending: 0, Total: 2}, c)
	assert.Equal(t, 50, c.Percentages().Passed)
	assert.Equal(t, 50, c.PassRate())
}

func TestCountByStatusEmpty(t *testing.T) {
	c := CountByStatus(nil)
	assert.Equal(t, Counts{}, c)
	assert.Equal(t, Percentages{}, c.Percentages())
}

func TestCountByStatusUnrecognised(t *testing.T) {
	tcs := []models.TestCase{
		{Status: "pass"},
		{Status: " FAIL "},
		{Status: "Blocked"},
		{},
	}
	c := CountByStatus(tcs)
	assert.Equal(t, Counts{Passed: 1, Failed: 1, Total: 4}, c)
	assert.Equal(t, 2, c.Other())
	assert.Equal(t, 25, c.Percentages().Failed)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(0, 0))
	assert.Equal(t, 0, Percent(3, 0))
	assert.Equal(t, 33, Percent(1, 3))
	assert.Equal(t, 67, Percent(2, 3))
	assert.Equal(t, 100, Percent(4, 4))
}

func TestAttachCountsKeepsOrderAndZeroFills(t *testing.T) {
	empty := uuid.New()
	features := []models.Feature{{ID: f2, Name: "Checkout"}, {ID: empty, Name: "Search"}, {ID: f1, Name: "Login"}}
	got := AttachCounts(features, scenario())

	require.Len(t, got, 3)
	assert.Equal(t, "Checkout", got[0].Name)
	assert.Equal(t, Counts{Pending: 1, Total: 1}, got[0].TestCounts)
	assert.Equal(t, Counts{}, got[1].TestCounts)
	assert.Equal(t, Counts{Passed: 1, Failed: 1, Total: 2}, got[2].TestCounts)
	assert.Equal(t, 100, got[0].Percentages.Pending)
}

func TestForFeatureIgnoresMissingReference(t *testing.T) {
	tcs := append(scenario(), models.TestCase{CaseID: "TC_09", Status: models.StatusPass})
	assert.Equal(t, Counts{}, ForFeature(uuid.Nil, tcs))
	assert.Equal(t, 2, ForFeature(f1, tcs).Total)
}

func genTestCases(t *rapid.T, features []uuid.UUID) []models.TestCase {
	statuses := append([]string{"", "Blocked", "pass"}, models.Statuses...)
	return rapid.SliceOf(rapid.Custom(func(t *rapid.T) models.TestCase {
		return models.TestCase{
			CaseID:    "TC_" + rapid.StringMatching(`[0-9]{1,3}`).Draw(t, "num"),
			Status:    rapid.SampledFrom(statuses).Draw(t, "status"),
			Priority:  rapid.SampledFrom(models.Priorities).Draw(t, "priority"),
			FeatureID: rapid.SampledFrom(features).Draw(t, "feature"),
		}
	})).Draw(t, "testCases")
}

func TestCountByStatusProperties(t *testing.T) {
	features := []uuid.UUID{f1, f2, uuid.Nil}
	rapid.Check(t, func(t *rapid.T) {
		tcs := genTestCases(t, features)
		c := CountByStatus(tcs)
		if c.Total != len(tcs) {
			t.Fatalf("total %d != len %d", c.Total, len(tcs))
		}
		recognised := 0
		for _, tc := range tcs {
			switch tc.Status {
			case "Pass", "pass", "Fail", "Pending":
				recognised++
			}
		}
		if sum := c.Passed + c.Failed + c.Pending; sum != recognised || sum > len(tcs) {
			t.Fatalf("sum %d, recognised %d, len %d", sum, recognised, len(tcs))
		}
	})
}

func TestAttachCountsMatchesScopedCount(t *testing.T) {
	ids := []uuid.UUID{f1, f2, uuid.New()}
	rapid.Check(t, func(t *rapid.T) {
		tcs := genTestCases(t, ids)
		features := []models.Feature{{ID: ids[0]}, {ID: ids[1]}, {ID: ids[2]}}
		for i, f := range AttachCounts(features, tcs) {
			want := CountByStatus(byFeatureID(tcs, features[i].ID))
			if f.TestCounts != want {
				t.Fatalf("feature %d: got %+v want %+v", i, f.TestCounts, want)
			}
		}
	})
}
