package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/testboard/engine/internal/api/validators"
	"github.com/testboard/engine/internal/filter"
	"github.com/testboard/engine/internal/models"
	"github.com/testboard/engine/internal/realtime"
	"github.com/testboard/engine/internal/repository"
	"github.com/testboard/engine/internal/stats"
	appErr "github.com/testboard/engine/pkg/errors"
	"github.com/testboard/engine/pkg/logger"
)

type FeatureService interface {
	CreateFeature(ctx context.Context, input *FeatureInput) (*stats.FeatureWithCounts, error)
	GetFeature(ctx context.Context, featureID uuid.UUID) (*stats.FeatureWithCounts, error)
	ListFeatures(ctx context.Context, filters *FeatureFilters) ([]stats.FeatureWithCounts, error)
	ReplaceFeature(ctx context.Context, featureID uuid.UUID, input *FeatureInput) (*stats.FeatureWithCounts, error)
	// DeleteFeature removes the feature and every test case that references it.
	DeleteFeature(ctx context.Context, featureID uuid.UUID) error
}

// FeatureInput is the create/replace form for a feature.
type FeatureInput struct {
	ProjectID   *uuid.UUID `json:"project_id"`
	Name        string     `json:"name" validate:"required,min=3"`
	Description string     `json:"description" validate:"required,min=10"`
	Icon        string     `json:"icon" validate:"omitempty,icon"`
}

func (in *FeatureInput) apply(f *models.Feature) {
	f.ProjectID = in.ProjectID
	f.Name = in.Name
	f.Description = in.Description
	f.Icon = in.Icon
}

type FeatureFilters struct {
	Query     string
	ProjectID *uuid.UUID
}

type featureService struct {
	db       *gorm.DB
	projects repository.ProjectRepository
	features repository.FeatureRepository
	cases    repository.TestCaseRepository
	notify   Notifier
}

func NewFeatureService(db *gorm.DB, projects repository.ProjectRepository, features repository.FeatureRepository, cases repository.TestCaseRepository, notify Notifier) FeatureService {
	if notify == nil {
		notify = NopNotifier
	}
	return &featureService{db: db, projects: projects, features: features, cases: cases, notify: notify}
}

var _ FeatureService = (*featureService)(nil)

func (s *featureService) checkProject(ctx context.Context, projectID *uuid.UUID) error {
	if projectID == nil {
		return nil
	}
	var p models.Project
	if err := s.projects.GetByID(ctx, *projectID, &p); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return appErr.New(appErr.CodeInvalid, "validation failed").WithField("project_id", "project does not exist")
		}
		return err
	}
	return nil
}

// withCounts derives the counts of a single feature from its test cases.
func (s *featureService) withCounts(ctx context.Context, f models.Feature) (*stats.FeatureWithCounts, error) {
	tcs, err := s.cases.ListByFeature(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	out := stats.AttachCounts([]models.Feature{f}, tcs)[0]
	return &out, nil
}

func (s *featureService) CreateFeature(ctx context.Context, input *FeatureInput) (*stats.FeatureWithCounts, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	if err := s.checkProject(ctx, input.ProjectID); err != nil {
		return nil, err
	}
	var f models.Feature
	input.apply(&f)
	if err := s.features.Create(ctx, &f); err != nil {
		return nil, err
	}
	logger.L().Info("feature created", zap.String("feature_id", f.ID.String()), zap.String("name", f.Name))
	s.notify.Changed(ctx, realtime.Features)
	return &stats.FeatureWithCounts{Feature: f}, nil
}

func (s *featureService) GetFeature(ctx context.Context, featureID uuid.UUID) (*stats.FeatureWithCounts, error) {
	var f models.Feature
	if err := s.features.GetByID(ctx, featureID, &f); err != nil {
		return nil, err
	}
	return s.withCounts(ctx, f)
}

func (s *featureService) ListFeatures(ctx context.Context, filters *FeatureFilters) ([]stats.FeatureWithCounts, error) {
	if filters == nil {
		filters = &FeatureFilters{}
	}
	var (
		features []models.Feature
		tcs      []models.TestCase
		err      error
	)
	if filters.ProjectID != nil {
		features, err = s.features.ListByProject(ctx, *filters.ProjectID)
	} else {
		features, err = s.features.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	features = filter.Features(features, filters.Query)

	if filters.ProjectID != nil {
		ids := make([]uuid.UUID, 0, len(features))
		for _, f := range features {
			ids = append(ids, f.ID)
		}
		tcs, err = s.cases.ListByFeatures(ctx, ids)
	} else {
		tcs, err = s.cases.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	return stats.AttachCounts(features, tcs), nil
}

func (s *featureService) ReplaceFeature(ctx context.Context, featureID uuid.UUID, input *FeatureInput) (*stats.FeatureWithCounts, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	if err := s.checkProject(ctx, input.ProjectID); err != nil {
		return nil, err
	}
	var f models.Feature
	if err := s.features.GetByID(ctx, featureID, &f); err != nil {
		return nil, err
	}
	input.apply(&f)
	if err := s.features.Update(ctx, &f); err != nil {
		return nil, err
	}
	logger.L().Info("feature replaced", zap.String("feature_id", featureID.String()))
	s.notify.Changed(ctx, realtime.Features)
	return s.withCounts(ctx, f)
}

func (s *featureService) DeleteFeature(ctx context.Context, featureID uuid.UUID) error {
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.features.WithTx(tx).Delete(ctx, featureID); err != nil {
			return err
		}
		var err error
		removed, err = s.cases.WithTx(tx).DeleteByFeatures(ctx, []uuid.UUID{featureID})
		return err
	})
	if err != nil {
		return err
	}
	logger.L().Info("feature deleted", zap.String("feature_id", featureID.String()), zap.Int64("test_cases_removed", removed))
	s.notify.Changed(ctx, realtime.Features, realtime.TestCases)
	return nil
}
