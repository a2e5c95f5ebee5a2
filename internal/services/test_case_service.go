package services

import (
	"context"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/testboard/engine/internal/api/validators"
	"github.com/testboard/engine/internal/export"
	"github.com/testboard/engine/internal/filter"
	"github.com/testboard/engine/internal/models"
	"github.com/testboard/engine/internal/realtime"
	"github.com/testboard/engine/internal/repository"
	appErr "github.com/testboard/engine/pkg/errors"
	"github.com/testboard/engine/pkg/logger"
)

type TestCaseService interface {
	CreateTestCase(ctx context.Context, input *TestCaseInput) (*models.TestCase, error)
	GetTestCase(ctx context.Context, id uuid.UUID) (*models.TestCase, error)
	ListTestCases(ctx context.Context, q filter.Query) ([]models.TestCase, error)
	ReplaceTestCase(ctx context.Context, id uuid.UUID, input *TestCaseInput) (*models.TestCase, error)
	DeleteTestCase(ctx context.Context, id uuid.UUID) error
	// ExportTestCases writes the test cases matching q in the given format.
	ExportTestCases(ctx context.Context, w io.Writer, q filter.Query, format export.Format) error
	// ExportTitle names an export after the feature in scope.
	ExportTitle(ctx context.Context, q filter.Query) (string, error)
}

// TestCaseInput is the create/replace form for a test case. Status and
// priority may change freely between any of their values.
type TestCaseInput struct {
	CaseID      string    `json:"test_case_id" validate:"required,tcid"`
	Description string    `json:"description" validate:"required,min=10"`
	FeatureID   uuid.UUID `json:"feature_id" validate:"required"`
	Priority    string    `json:"priority" validate:"required,oneof=High Medium Low"`
	Status      string    `json:"status" validate:"required,oneof=Pass Fail Pending"`
}

func (in *TestCaseInput) apply(tc *models.TestCase) {
	tc.CaseID = in.CaseID
	tc.Description = in.Description
	tc.FeatureID = in.FeatureID
	tc.Priority = in.Priority
	tc.Status = in.Status
}

type testCaseService struct {
	features repository.FeatureRepository
	cases    repository.TestCaseRepository
	notify   Notifier
}

func NewTestCaseService(features repository.FeatureRepository, cases repository.TestCaseRepository, notify Notifier) TestCaseService {
	if notify == nil {
		notify = NopNotifier
	}
	return &testCaseService{features: features, cases: cases, notify: notify}
}

var _ TestCaseService = (*testCaseService)(nil)

func (s *testCaseService) checkFeature(ctx context.Context, featureID uuid.UUID) (*models.Feature, error) {
	var f models.Feature
	if err := s.features.GetByID(ctx, featureID, &f); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return nil, appErr.New(appErr.CodeInvalid, "validation failed").WithField("feature_id", "feature does not exist")
		}
		return nil, err
	}
	return &f, nil
}

func (s *testCaseService) CreateTestCase(ctx context.Context, input *TestCaseInput) (*models.TestCase, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	if _, err := s.checkFeature(ctx, input.FeatureID); err != nil {
		return nil, err
	}
	var tc models.TestCase
	input.apply(&tc)
	if err := s.cases.Create(ctx, &tc); err != nil {
		return nil, err
	}
	logger.L().Info("test case created",
		zap.String("id", tc.ID.String()),
		zap.String("test_case_id", tc.CaseID),
		zap.String("feature_id", tc.FeatureID.String()),
	)
	s.notify.Changed(ctx, realtime.TestCases)
	return &tc, nil
}

func (s *testCaseService) GetTestCase(ctx context.Context, id uuid.UUID) (*models.TestCase, error) {
	var tc models.TestCase
	if err := s.cases.GetByID(ctx, id, &tc); err != nil {
		return nil, err
	}
	return &tc, nil
}

func (s *testCaseService) ListTestCases(ctx context.Context, q filter.Query) ([]models.TestCase, error) {
	var (
		tcs []models.TestCase
		err error
	)
	if q.FeatureScope != nil {
		id, perr := uuid.Parse(*q.FeatureScope)
		if perr != nil {
			return []models.TestCase{}, nil
		}
		// The filter compares against FeatureID.String(), which is lowercase.
		scope := id.String()
		q.FeatureScope = &scope
		tcs, err = s.cases.ListByFeature(ctx, id)
	} else {
		tcs, err = s.cases.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	return filter.TestCases(tcs, q), nil
}

func (s *testCaseService) ReplaceTestCase(ctx context.Context, id uuid.UUID, input *TestCaseInput) (*models.TestCase, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	if _, err := s.checkFeature(ctx, input.FeatureID); err != nil {
		return nil, err
	}
	var tc models.TestCase
	if err := s.cases.GetByID(ctx, id, &tc); err != nil {
		return nil, err
	}
	from := tc.Status
	input.apply(&tc)
	if err := s.cases.Update(ctx, &tc); err != nil {
		return nil, err
	}
	logger.L().Info("test case replaced",
		zap.String("id", id.String()),
		zap.String("status_from", from),
		zap.String("status_to", tc.Status),
	)
	s.notify.Changed(ctx, realtime.TestCases)
	return &tc, nil
}

func (s *testCaseService) DeleteTestCase(ctx context.Context, id uuid.UUID) error {
	if err := s.cases.Delete(ctx, id); err != nil {
		return err
	}
	logger.L().Info("test case deleted", zap.String("id", id.String()))
	s.notify.Changed(ctx, realtime.TestCases)
	return nil
}

func (s *testCaseService) ExportTitle(ctx context.Context, q filter.Query) (string, error) {
	if q.FeatureScope == nil {
		return export.Title(""), nil
	}
	name := "Unknown Feature"
	if id, err := uuid.Parse(*q.FeatureScope); err == nil {
		var f models.Feature
		err := s.features.GetByID(ctx, id, &f)
		switch {
		case err == nil:
			name = f.Name
		case !appErr.IsCode(err, appErr.CodeNotFound):
			return "", err
		}
	}
	return export.Title(name), nil
}

func (s *testCaseService) ExportTestCases(ctx context.Context, w io.Writer, q filter.Query, format export.Format) error {
	title, err := s.ExportTitle(ctx, q)
	if err != nil {
		return err
	}
	tcs, err := s.ListTestCases(ctx, q)
	if err != nil {
		return err
	}
	if err := export.Write(w, format, title, tcs); err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "export failed")
	}
	logger.L().Info("test cases exported", zap.String("format", string(format)), zap.Int("rows", len(tcs)))
	return nil
}
