package services

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/testboard/engine/internal/export"
	"github.com/testboard/engine/internal/filter"
	"github.com/testboard/engine/internal/models"
	"github.com/testboard/engine/internal/realtime"
	"github.com/testboard/engine/internal/records"
	"github.com/testboard/engine/internal/repository"
	"github.com/testboard/engine/internal/testutil"
	appErr "github.com/testboard/engine/pkg/errors"
)

type recordingNotifier struct {
	mu      sync.Mutex
	changed []realtime.Collection
}

func (n *recordingNotifier) Changed(_ context.Context, cs ...realtime.Collection) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, cs...)
}

type env struct {
	db       *gorm.DB
	fx       testutil.Fixture
	notify   *recordingNotifier
	projects ProjectService
	features FeatureService
	cases    TestCaseService
	imports  ImportService
	stats    StatsService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	pr := repository.NewProjectRepository(db)
	fr := repository.NewFeatureRepository(db)
	tr := repository.NewTestCaseRepository(db)
	n := &recordingNotifier{}
	return &env{
		db:       db,
		fx:       fx,
		notify:   n,
		projects: NewProjectService(db, pr, fr, tr, n),
		features: NewFeatureService(db, pr, fr, tr, n),
		cases:    NewTestCaseService(fr, tr, n),
		imports:  NewImportService(db, pr, fr, tr, n),
		stats:    NewStatsService(pr, fr, tr),
	}
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var ae *appErr.AppError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, appErr.CodeInvalid, ae.Code)
	return ae.Fields
}

func TestCreateProjectValidation(t *testing.T) {
	e := newEnv(t)
	_, err := e.projects.CreateProject(context.Background(), &ProjectInput{Name: "ab", Description: "short", Icon: ""})
	fields := fieldsOf(t, err)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "description")
	assert.Contains(t, fields, "icon")
	assert.Empty(t, e.notify.changed)
}

func TestProjectLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p, err := e.projects.CreateProject(ctx, &ProjectInput{Name: "Backoffice", Description: "Internal admin console", Icon: "🧰"})
	require.NoError(t, err)

	list, err := e.projects.ListProjects(ctx, "admin")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].ID)

	replaced, err := e.projects.ReplaceProject(ctx, p.ID, &ProjectInput{Name: "Back office", Description: "Internal admin console v2", Requirement: "SSO only", Icon: "🧰"})
	require.NoError(t, err)
	assert.Equal(t, "SSO only", replaced.Requirement)

	_, err = e.projects.ReplaceProject(ctx, uuid.New(), &ProjectInput{Name: "Nobody", Description: "Does not exist at all", Icon: "❓"})
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	assert.Equal(t, []realtime.Collection{realtime.Projects, realtime.Projects}, e.notify.changed)
}

func TestDeleteProjectCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.projects.DeleteProject(ctx, e.fx.Project.ID))
	assert.Zero(t, countRows(t, e.db, &models.Project{}))
	assert.Zero(t, countRows(t, e.db, &models.Feature{}))
	assert.Zero(t, countRows(t, e.db, &models.TestCase{}))

	err := e.projects.DeleteProject(ctx, e.fx.Project.ID)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestProjectSummary(t *testing.T) {
	e := newEnv(t)
	sum, err := e.projects.ProjectSummary(context.Background(), e.fx.Project.ID)
	require.NoError(t, err)
	require.Len(t, sum.Features, 2)
	assert.Equal(t, 3, sum.Totals.Total)
	assert.Equal(t, 1, sum.Totals.Passed)
	assert.Equal(t, 33, sum.Percentages.Passed)
}

func TestFeatureCountsFollowTestCases(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	f, err := e.features.GetFeature(ctx, e.fx.Login.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.TestCounts.Passed)
	assert.Equal(t, 1, f.TestCounts.Failed)
	assert.Equal(t, 0, f.TestCounts.Pending)
	assert.Equal(t, 2, f.TestCounts.Total)

	tc := e.fx.Cases[1]
	_, err = e.cases.ReplaceTestCase(ctx, tc.ID, &TestCaseInput{
		CaseID: tc.CaseID, Description: tc.Description, FeatureID: tc.FeatureID,
		Priority: tc.Priority, Status: models.StatusPass,
	})
	require.NoError(t, err)

	f, err = e.features.GetFeature(ctx, e.fx.Login.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, f.TestCounts.Passed)
	assert.Equal(t, 0, f.TestCounts.Failed)
	assert.Equal(t, 100, f.Percentages.Passed)
}

func TestListFeaturesByProjectAndText(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	all, err := e.features.ListFeatures(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pid := e.fx.Project.ID
	scoped, err := e.features.ListFeatures(ctx, &FeatureFilters{ProjectID: &pid, Query: "payment"})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "Checkout", scoped[0].Name)
	assert.Equal(t, 1, scoped[0].TestCounts.Pending)

	other := uuid.New()
	none, err := e.features.ListFeatures(ctx, &FeatureFilters{ProjectID: &other})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreateFeatureUnknownProject(t *testing.T) {
	e := newEnv(t)
	missing := uuid.New()
	_, err := e.features.CreateFeature(context.Background(), &FeatureInput{ProjectID: &missing, Name: "Search", Description: "Full text product search"})
	assert.Contains(t, fieldsOf(t, err), "project_id")
}

func TestDeleteFeatureCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.features.DeleteFeature(ctx, e.fx.Login.ID))
	assert.Equal(t, int64(1), countRows(t, e.db, &models.Feature{}))
	assert.Equal(t, int64(1), countRows(t, e.db, &models.TestCase{}))
	assert.Equal(t, []realtime.Collection{realtime.Features, realtime.TestCases}, e.notify.changed)
}

func TestCreateTestCaseValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.cases.CreateTestCase(ctx, &TestCaseInput{
		CaseID: "CASE-1", Description: "too short", FeatureID: e.fx.Login.ID, Priority: "Urgent", Status: "Pass",
	})
	fields := fieldsOf(t, err)
	assert.Equal(t, `ID must start with "TC_" followed by numbers (e.g., TC_01)`, fields["test_case_id"])
	assert.Contains(t, fields, "description")
	assert.Contains(t, fields, "priority")

	_, err = e.cases.CreateTestCase(ctx, &TestCaseInput{
		CaseID: "TC_10", Description: "Reset password by email", FeatureID: uuid.New(), Priority: "High", Status: "Pending",
	})
	assert.Contains(t, fieldsOf(t, err), "feature_id")

	tc, err := e.cases.CreateTestCase(ctx, &TestCaseInput{
		CaseID: "TC_10", Description: "Reset password by email", FeatureID: e.fx.Login.ID, Priority: "High", Status: "Pending",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, tc.ID)
}

func TestListTestCasesFilters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	scope := e.fx.Login.ID.String()
	got, err := e.cases.ListTestCases(ctx, filter.Query{Text: "login", Status: models.StatusFail, FeatureScope: &scope})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "TC_02", got[0].CaseID)

	bogus := "not-a-uuid"
	got, err = e.cases.ListTestCases(ctx, filter.Query{FeatureScope: &bogus})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = e.cases.ListTestCases(ctx, filter.Query{Status: filter.StatusAll})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestFeatureScopeIgnoresCase(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	scope := strings.ToUpper(e.fx.Login.ID.String())
	q := filter.Query{FeatureScope: &scope}
	got, err := e.cases.ListTestCases(ctx, q)
	require.NoError(t, err)

	f, err := e.features.GetFeature(ctx, e.fx.Login.ID)
	require.NoError(t, err)
	assert.Len(t, got, f.TestCounts.Total)
	assert.NotEmpty(t, got)

	var buf bytes.Buffer
	require.NoError(t, e.cases.ExportTestCases(ctx, &buf, q, export.FormatCSV))
	assert.Contains(t, buf.String(), got[0].CaseID)
}

func TestExportTestCases(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	scope := e.fx.Checkout.ID.String()
	title, err := e.cases.ExportTitle(ctx, filter.Query{FeatureScope: &scope})
	require.NoError(t, err)
	assert.Equal(t, "TEST CASES FOR CHECKOUT", title)

	title, err = e.cases.ExportTitle(ctx, filter.Query{})
	require.NoError(t, err)
	assert.Equal(t, "ALL TEST CASES", title)

	var buf bytes.Buffer
	require.NoError(t, e.cases.ExportTestCases(ctx, &buf, filter.Query{FeatureScope: &scope}, export.FormatCSV))
	assert.Contains(t, buf.String(), "TC_03")
	assert.NotContains(t, buf.String(), "TC_01")
}

func TestImportIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	payload := []byte(`{
		"features": {"-Nf1": {"name": "Search", "description": "Full text product search", "projectId": "` + e.fx.Project.ID.String() + `"}},
		"testCases": {
			"-Nt1": {"id": "TC_20", "description": "Search by exact title", "feature": "-Nf1", "priority": "high", "status": "pass"},
			"-Nt2": {"id": "TC_21", "description": "Search with a typo", "featureId": "-Nf1", "priority": "Low", "status": "Fail"}
		}
	}`)
	batch, err := records.DecodeBatch(payload)
	require.NoError(t, err)

	res, err := e.imports.Import(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, &ImportResult{Features: 1, TestCases: 2}, res)

	batch, err = records.DecodeBatch(payload)
	require.NoError(t, err)
	_, err = e.imports.Import(ctx, batch)
	require.NoError(t, err)

	assert.Equal(t, int64(3), countRows(t, e.db, &models.Feature{}))
	assert.Equal(t, int64(5), countRows(t, e.db, &models.TestCase{}))

	f, err := e.features.GetFeature(ctx, records.StorageID("-Nf1"))
	require.NoError(t, err)
	assert.Equal(t, 1, f.TestCounts.Passed)
	assert.Equal(t, 1, f.TestCounts.Failed)
}

func TestImportRejectsDanglingFeature(t *testing.T) {
	e := newEnv(t)
	batch := records.Batch{TestCases: []models.TestCase{{
		CaseID: "TC_30", Description: "Orphaned record here", FeatureID: uuid.New(), Priority: "Low", Status: "Pass",
	}}}
	_, err := e.imports.Import(context.Background(), batch)
	assert.Contains(t, fieldsOf(t, err), "testCases[0].feature_id")
	assert.Equal(t, int64(3), countRows(t, e.db, &models.TestCase{}))
}

func TestImportRejectsFeatureWithoutProject(t *testing.T) {
	e := newEnv(t)
	ghost := uuid.New()
	batch := records.Batch{Features: []models.Feature{{
		ProjectID: &ghost, Name: "Payments", Description: "Card and wallet payments",
	}}}
	_, err := e.imports.Import(context.Background(), batch)
	assert.Contains(t, fieldsOf(t, err), "features[0].project_id")
	assert.Equal(t, int64(2), countRows(t, e.db, &models.Feature{}))

	// The same project in the batch satisfies the reference.
	batch.Projects = []models.Project{{ID: ghost, Name: "Payments", Description: "Payments project scope", Icon: "💳"}}
	_, err = e.imports.Import(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, int64(3), countRows(t, e.db, &models.Feature{}))
}

func TestImportRejectsInvalidRecord(t *testing.T) {
	e := newEnv(t)
	batch := records.Batch{TestCases: []models.TestCase{{
		CaseID: "X1", Description: "Bad business identifier", FeatureID: e.fx.Login.ID, Priority: "Low", Status: "Pass",
	}}}
	_, err := e.imports.Import(context.Background(), batch)
	assert.Contains(t, fieldsOf(t, err), "testCases[0].test_case_id")

	_, err = e.imports.Import(context.Background(), records.Batch{})
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}

func TestStatsOverview(t *testing.T) {
	e := newEnv(t)
	o, err := e.stats.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, o.Projects)
	assert.Equal(t, 2, o.Features)
	assert.Equal(t, 3, o.TestCases.Total)
	assert.Equal(t, 33, o.PassRate)
	assert.Equal(t, 1, o.ByPriority[models.PriorityHigh])
}

func TestHubNotifierPublishesSnapshots(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.Seed(t, db)
	pr := repository.NewProjectRepository(db)
	fr := repository.NewFeatureRepository(db)
	tr := repository.NewTestCaseRepository(db)

	hub := realtime.NewHub()
	n := NewHubNotifier(hub, pr, fr, tr)
	sub := hub.Subscribe()
	defer sub.Close()

	svc := NewProjectService(db, pr, fr, tr, n)
	_, err := svc.CreateProject(context.Background(), &ProjectInput{Name: "Mobile app", Description: "iOS and Android clients", Icon: "📱"})
	require.NoError(t, err)

	snaps, err := sub.Next(context.Background())
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, realtime.Projects, snaps[0].Collection)
	items, ok := snaps[0].Items.([]models.Project)
	require.True(t, ok)
	assert.Len(t, items, 2)

	initial, err := n.Initial(context.Background())
	require.NoError(t, err)
	assert.Len(t, initial, 3)
}
