package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/testboard/engine/internal/models"
	appErr "github.com/testboard/engine/pkg/errors"
	"gorm.io/gorm"
)

type FeatureRepository interface {
	BaseRepository[models.Feature]
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Feature, error)
	// DeleteByProject removes every feature of a project and returns their ids.
	DeleteByProject(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error)
	WithTx(tx *gorm.DB) FeatureRepository
}

type featureRepository struct {
	BaseRepository[models.Feature]
	db *gorm.DB
}

func NewFeatureRepository(db *gorm.DB) FeatureRepository {
	return &featureRepository{BaseRepository: NewBaseRepository[models.Feature](db, "feature", "created_at ASC"), db: db}
}

func (r *featureRepository) WithTx(tx *gorm.DB) FeatureRepository {
	return NewFeatureRepository(tx)
}

func (r *featureRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Feature, error) {
	out := []models.Feature{}
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list features by project failed")
	}
	return out, nil
}

func (r *featureRepository) DeleteByProject(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.Feature{}).Where("project_id = ?", projectID).Pluck("id", &ids).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list project features failed")
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Feature{}).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "delete project features failed")
	}
	return ids, nil
}
