// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/testboard/engine/internal/models"
	"github.com/testboard/engine/pkg/database"
)

// NewDB returns a migrated, isolated in-memory SQLite database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(context.Background(), sqlite.Open(dsn), database.Options{MaxRetries: 1})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Fixture is a small project/feature/test-case tree.
type Fixture struct {
	Project  models.Project
	Login    models.Feature
	Checkout models.Feature
	Cases    []models.TestCase
}

// Seed inserts one project with two features: Login holds a passing and a
// failing case, Checkout holds a pending one.
func Seed(t *testing.T, db *gorm.DB) Fixture {
	t.Helper()
	f := Fixture{
		Project: models.Project{Name: "Storefront", Description: "Customer facing web shop", Icon: "🛒"},
	}
	require.NoError(t, db.Create(&f.Project).Error)

	f.Login = models.Feature{ProjectID: &f.Project.ID, Name: "Login flow", Description: "Sign in and sign out", Icon: "🔐"}
	f.Checkout = models.Feature{ProjectID: &f.Project.ID, Name: "Checkout", Description: "Cart to payment confirmation", Icon: "💳"}
	require.NoError(t, db.Create(&f.Login).Error)
	require.NoError(t, db.Create(&f.Checkout).Error)

	f.Cases = []models.TestCase{
		{CaseID: "TC_01", Description: "Login with valid credentials", FeatureID: f.Login.ID, Priority: models.PriorityHigh, Status: models.StatusPass},
		{CaseID: "TC_02", Description: "Login with a wrong password", FeatureID: f.Login.ID, Priority: models.PriorityMedium, Status: models.StatusFail},
		{CaseID: "TC_03", Description: "Pay with a saved credit card", FeatureID: f.Checkout.ID, Priority: models.PriorityLow, Status: models.StatusPending},
	}
	for i := range f.Cases {
		require.NoError(t, db.Create(&f.Cases[i]).Error)
	}
	return f
}
