package repository

import (
	"github.com/testboard/engine/internal/models"
	"gorm.io/gorm"
)

type ProjectRepository interface {
	BaseRepository[models.Project]
	WithTx(tx *gorm.DB) ProjectRepository
}

type projectRepository struct {
	BaseRepository[models.Project]
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{BaseRepository: NewBaseRepository[models.Project](db, "project", "created_at DESC")}
}

func (r *projectRepository) WithTx(tx *gorm.DB) ProjectRepository {
	return NewProjectRepository(tx)
}
