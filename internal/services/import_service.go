package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/testboard/engine/internal/api/validators"
	"github.com/testboard/engine/internal/models"
	"github.com/testboard/engine/internal/realtime"
	"github.com/testboard/engine/internal/records"
	"github.com/testboard/engine/internal/repository"
	appErr "github.com/testboard/engine/pkg/errors"
	"github.com/testboard/engine/pkg/logger"
)

// ImportService loads externally shaped collections (earlier REST exports,
// realtime store snapshots) after normalizing them through records.
type ImportService interface {
	Import(ctx context.Context, batch records.Batch) (*ImportResult, error)
}

type ImportResult struct {
	Projects  int `json:"projects"`
	Features  int `json:"features"`
	TestCases int `json:"test_cases"`
}

type importService struct {
	db       *gorm.DB
	projects repository.ProjectRepository
	features repository.FeatureRepository
	cases    repository.TestCaseRepository
	notify   Notifier
}

func NewImportService(db *gorm.DB, projects repository.ProjectRepository, features repository.FeatureRepository, cases repository.TestCaseRepository, notify Notifier) ImportService {
	if notify == nil {
		notify = NopNotifier
	}
	return &importService{db: db, projects: projects, features: features, cases: cases, notify: notify}
}

// validateBatch checks every record; the first failure rejects the whole
// batch with the offending collection and position in the field names.
func validateBatch(b records.Batch) error {
	for i := range b.Projects {
		if err := validators.Struct(&b.Projects[i]); err != nil {
			return prefixFields(err, fmt.Sprintf("projects[%d]", i))
		}
	}
	for i := range b.Features {
		if err := validators.Struct(&b.Features[i]); err != nil {
			return prefixFields(err, fmt.Sprintf("features[%d]", i))
		}
	}
	for i := range b.TestCases {
		if err := validators.Struct(&b.TestCases[i]); err != nil {
			return prefixFields(err, fmt.Sprintf("testCases[%d]", i))
		}
	}
	return nil
}

func prefixFields(err error, prefix string) error {
	ae, ok := err.(*appErr.AppError)
	if !ok {
		return err
	}
	out := appErr.New(ae.Code, ae.Message)
	for k, v := range ae.Fields {
		out.WithField(prefix+"."+k, v)
	}
	return out
}

// checkFeatureRefs rejects test cases whose feature is neither stored nor
// part of the same batch. Features are upserted first, so one lookup per
// distinct id covers both.
func checkFeatureRefs(ctx context.Context, features repository.FeatureRepository, tcs []models.TestCase) error {
	seen := make(map[uuid.UUID]bool)
	for i, tc := range tcs {
		ok, checked := seen[tc.FeatureID]
		if !checked {
			var f models.Feature
			err := features.GetByID(ctx, tc.FeatureID, &f)
			switch {
			case err == nil:
				ok = true
			case !appErr.IsCode(err, appErr.CodeNotFound):
				return err
			}
			seen[tc.FeatureID] = ok
		}
		if !ok {
			return appErr.New(appErr.CodeInvalid, "validation failed").
				WithField(fmt.Sprintf("testCases[%d].feature_id", i), "feature does not exist")
		}
	}
	return nil
}

// checkProjectRefs rejects features pointing at a project that is neither
// stored nor part of the same batch. Projects are upserted first.
func checkProjectRefs(ctx context.Context, projects repository.ProjectRepository, fs []models.Feature) error {
	seen := make(map[uuid.UUID]bool)
	for i, f := range fs {
		if f.ProjectID == nil {
			continue
		}
		id := *f.ProjectID
		ok, checked := seen[id]
		if !checked {
			var p models.Project
			err := projects.GetByID(ctx, id, &p)
			switch {
			case err == nil:
				ok = true
			case !appErr.IsCode(err, appErr.CodeNotFound):
				return err
			}
			seen[id] = ok
		}
		if !ok {
			return appErr.New(appErr.CodeInvalid, "validation failed").
				WithField(fmt.Sprintf("features[%d].project_id", i), "project does not exist")
		}
	}
	return nil
}

func (s *importService) Import(ctx context.Context, b records.Batch) (*ImportResult, error) {
	if b.Len() == 0 {
		return nil, appErr.New(appErr.CodeInvalid, "nothing to import")
	}
	if err := validateBatch(b); err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		projects := s.projects.WithTx(tx)
		if err := projects.Upsert(ctx, b.Projects); err != nil {
			return err
		}
		if err := checkProjectRefs(ctx, projects, b.Features); err != nil {
			return err
		}
		features := s.features.WithTx(tx)
		if err := features.Upsert(ctx, b.Features); err != nil {
			return err
		}
		if err := checkFeatureRefs(ctx, features, b.TestCases); err != nil {
			return err
		}
		return s.cases.WithTx(tx).Upsert(ctx, b.TestCases)
	})
	if err != nil {
		return nil, err
	}
	res := &ImportResult{Projects: len(b.Projects), Features: len(b.Features), TestCases: len(b.TestCases)}
	logger.L().Info("import completed",
		zap.Int("projects", res.Projects),
		zap.Int("features", res.Features),
		zap.Int("test_cases", res.TestCases),
	)
	var changed []realtime.Collection
	if res.Projects > 0 {
		changed = append(changed, realtime.Projects)
	}
	if res.Features > 0 {
		changed = append(changed, realtime.Features)
	}
	if res.TestCases > 0 {
		changed = append(changed, realtime.TestCases)
	}
	s.notify.Changed(ctx, changed...)
	return res, nil
}
