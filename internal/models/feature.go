package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Feature groups test cases inside a project. Test counts are derived on read
// and never stored.
type Feature struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`
	Name        string     `gorm:"not null;index" json:"name" validate:"required,min=3"`
	Description string     `gorm:"type:text;not null" json:"description" validate:"required,min=10"`
	Icon        string     `gorm:"type:varchar(16)" json:"icon" validate:"omitempty,icon"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (f *Feature) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// BelongsTo reports whether the feature references the given project.
func (f Feature) BelongsTo(projectID uuid.UUID) bool {
	return f.ProjectID != nil && *f.ProjectID == projectID
}
