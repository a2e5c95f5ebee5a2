package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project is the top-level container for features and their test cases.
type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null;index" json:"name" validate:"required,min=3"`
	Description string    `gorm:"type:text;not null" json:"description" validate:"required,min=10"`
	Requirement string    `gorm:"type:text" json:"requirement" validate:"omitempty,min=5"`
	Icon        string    `gorm:"type:varchar(16);not null" json:"icon" validate:"required,icon"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *Project) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
