package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/testboard/engine/internal/models"
	appErr "github.com/testboard/engine/pkg/errors"
	"gorm.io/gorm"
)

type TestCaseRepository interface {
	BaseRepository[models.TestCase]
	ListByFeature(ctx context.Context, featureID uuid.UUID) ([]models.TestCase, error)
	ListByFeatures(ctx context.Context, featureIDs []uuid.UUID) ([]models.TestCase, error)
	DeleteByFeatures(ctx context.Context, featureIDs []uuid.UUID) (int64, error)
	WithTx(tx *gorm.DB) TestCaseRepository
}

type testCaseRepository struct {
	BaseRepository[models.TestCase]
	db *gorm.DB
}

func NewTestCaseRepository(db *gorm.DB) TestCaseRepository {
	return &testCaseRepository{BaseRepository: NewBaseRepository[models.TestCase](db, "test case", "created_at ASC"), db: db}
}

func (r *testCaseRepository) WithTx(tx *gorm.DB) TestCaseRepository {
	return NewTestCaseRepository(tx)
}

func (r *testCaseRepository) ListByFeature(ctx context.Context, featureID uuid.UUID) ([]models.TestCase, error) {
	return r.ListByFeatures(ctx, []uuid.UUID{featureID})
}

func (r *testCaseRepository) ListByFeatures(ctx context.Context, featureIDs []uuid.UUID) ([]models.TestCase, error) {
	out := []models.TestCase{}
	if len(featureIDs) == 0 {
		return out, nil
	}
	if err := r.db.WithContext(ctx).Where("feature_id IN ?", featureIDs).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list test cases by feature failed")
	}
	return out, nil
}

func (r *testCaseRepository) DeleteByFeatures(ctx context.Context, featureIDs []uuid.UUID) (int64, error) {
	if len(featureIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("feature_id IN ?", featureIDs).Delete(&models.TestCase{})
	if res.Error != nil {
		return 0, appErr.Wrap(res.Error, appErr.CodeInternal, "delete feature test cases failed")
	}
	return res.RowsAffected, nil
}
