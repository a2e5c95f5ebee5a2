package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPass    = "Pass"
	StatusFail    = "Fail"
	StatusPending = "Pending"

	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Statuses lists the recognised test case statuses in display order.
var Statuses = []string{StatusPass, StatusFail, StatusPending}

// Priorities lists the recognised priorities, highest first.
var Priorities = []string{PriorityHigh, PriorityMedium, PriorityLow}

// TestCase is a single manual test record. CaseID is the business identifier
// shown to users (TC_01); ID is the storage key.
type TestCase struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID      string    `gorm:"column:test_case_id;type:varchar(64);not null;index" json:"test_case_id" validate:"required,tcid"`
	Description string    `gorm:"type:text;not null" json:"description" validate:"required,min=10"`
	FeatureID   uuid.UUID `gorm:"type:uuid;not null;index" json:"feature_id" validate:"required"`
	Priority    string    `gorm:"type:varchar(16);not null" json:"priority" validate:"required,oneof=High Medium Low"`
	Status      string    `gorm:"type:varchar(16);not null;index" json:"status" validate:"required,oneof=Pass Fail Pending"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (t *TestCase) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
