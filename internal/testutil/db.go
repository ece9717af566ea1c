// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/triumph-atlantic/matrix-api/internal/database"
	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Organization names used across tests
const (
	Oversight = "Triumph Atlantic"
	Guercio   = "Guercio Energy Group"
	Myers     = "Myers Industrial Services"
)

// NewTestDB opens a private in-memory sqlite database with the schema applied
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Date parses a YYYY-MM-DD date and panics on bad input
func Date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

// Seed inserts a small two-company fixture: Acme is assigned to Guercio for
// electrical work, Globex to Myers for mechanical work.
func Seed(t *testing.T, db *gorm.DB) {
	t.Helper()

	companies := []domain.Company{
		{Slug: "acme", Name: "Acme", Tier: domain.CompanyTierLarge, Status: domain.CompanyStatusActive, HQState: "NJ",
			Contractors: domain.ContractorAssignments{domain.TradeElectrical: Guercio}},
		{Slug: "globex", Name: "Globex", Tier: domain.CompanyTierMid, Status: domain.CompanyStatusActive, HQState: "PA",
			Contractors: domain.ContractorAssignments{domain.TradeMechanical: Myers}},
	}
	require.NoError(t, db.Create(&companies).Error)

	locations := []domain.Location{
		{CompanySlug: "acme", Name: "L1", City: "Newark", State: "NJ"},
		{CompanySlug: "acme", Name: "L2", City: "Trenton", State: "NJ"},
		{CompanySlug: "globex", Name: "G1", City: "Erie", State: "PA"},
	}
	require.NoError(t, db.Create(&locations).Error)

	contacts := []domain.Contact{
		{Email: "pat@acme.com", CompanySlug: "acme", Name: "Pat", CadenceDays: 30},
		{Email: "lee@globex.com", CompanySlug: "globex", Name: "Lee", CadenceDays: 30, LastContacted: Date("2099-01-01")},
	}
	require.NoError(t, db.Create(&contacts).Error)

	projects := []domain.Project{
		{CompanyName: "Acme", LocationName: "L1", Trade: "electrical", PerformedBy: Guercio, PerformedOn: Date("2024-01-10"), Valuation: "$125,000"},
		{CompanyName: "Acme", LocationName: "L2", Trade: "mechanical", PerformedBy: Myers, PerformedOn: Date("2024-02-10"), Valuation: "$1.2M"},
		{CompanyName: "Globex", LocationName: "G1", JobDescription: "Chiller overhaul", PerformedBy: Myers},
	}
	require.NoError(t, db.Create(&projects).Error)

	require.NoError(t, db.Create(&[]domain.Gift{
		{ContactEmail: "pat@acme.com", Description: "Tickets", Value: "$200", SentBy: Guercio},
		{ContactEmail: "lee@globex.com", Description: "Wine", Value: "$80", SentBy: Myers},
	}).Error)
	require.NoError(t, db.Create(&[]domain.Referral{
		{ContactEmail: "pat@acme.com", ReferredTo: Myers, Status: "open"},
	}).Error)
	require.NoError(t, db.Create(&[]domain.Opportunity{
		{CompanyName: "Globex", LocationName: "G1", Trade: "electrical", Description: "Panel upgrade", Stage: "lead"},
	}).Error)
}
