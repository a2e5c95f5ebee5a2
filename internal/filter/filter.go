// Package filter narrows collection snapshots by free text, status and
// feature scope. Filters never reorder their input.
package filter

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/testboard/engine/internal/models"
)

// StatusAll is the status selector that matches every record.
const StatusAll = "All"

// Query selects test cases. A nil FeatureScope is the global view.
type Query struct {
	Text         string
	Status       string
	FeatureScope *string
}

// IsZero reports whether q matches everything.
func (q Query) IsZero() bool {
	return q.Text == "" && isAll(q.Status) && q.FeatureScope == nil
}

// ParseStatus validates a status selector. The empty string means All.
func ParseStatus(s string) (string, error) {
	if isAll(s) {
		return StatusAll, nil
	}
	for _, st := range models.Statuses {
		if s == st {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown status filter %q", s)
}

func isAll(s string) bool { return s == "" || s == StatusAll }

// contains is a case-insensitive substring match. An empty needle matches.
func contains(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), needle)
}

// Match reports whether tc satisfies all three predicates of q.
func (q Query) Match(tc models.TestCase) bool {
	needle := strings.ToLower(q.Text)
	return q.matchText(tc, needle) && q.matchStatus(tc) && q.matchScope(tc)
}

func (q Query) matchText(tc models.TestCase, needle string) bool {
	return contains(tc.CaseID, needle) || contains(tc.Description, needle)
}

func (q Query) matchStatus(tc models.TestCase) bool {
	return isAll(q.Status) || tc.Status == q.Status
}

func (q Query) matchScope(tc models.TestCase) bool {
	if q.FeatureScope == nil {
		return true
	}
	// A record without a feature reference never falls inside a scope.
	if tc.FeatureID == uuid.Nil {
		return false
	}
	return tc.FeatureID.String() == *q.FeatureScope
}

// TestCases returns the records of tcs matching q, in input order. When q
// matches everything the input slice is returned as is.
func TestCases(tcs []models.TestCase, q Query) []models.TestCase {
	if q.IsZero() {
		return tcs
	}
	needle := strings.ToLower(q.Text)
	out := make([]models.TestCase, 0, len(tcs))
	for _, tc := range tcs {
		if q.matchText(tc, needle) && q.matchStatus(tc) && q.matchScope(tc) {
			out = append(out, tc)
		}
	}
	return out
}

// Projects keeps projects whose name or description contains text.
func Projects(ps []models.Project, text string) []models.Project {
	if text == "" {
		return ps
	}
	needle := strings.ToLower(text)
	out := make([]models.Project, 0, len(ps))
	for _, p := range ps {
		if contains(p.Name, needle) || contains(p.Description, needle) {
			out = append(out, p)
		}
	}
	return out
}

// Features keeps features whose name or description contains text.
func Features(fs []models.Feature, text string) []models.Feature {
	if text == "" {
		return fs
	}
	needle := strings.ToLower(text)
	out := make([]models.Feature, 0, len(fs))
	for _, f := range fs {
		if contains(f.Name, needle) || contains(f.Description, needle) {
			out = append(out, f)
		}
	}
	return out
}
