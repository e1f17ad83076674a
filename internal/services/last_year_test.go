package services_test

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/conservetrack/conservedb/internal/models"
	"github.com/conservetrack/conservedb/internal/services"
	"github.com/conservetrack/conservedb/tests/helpers"
)

func flaggedYears(t *testing.T, db *gorm.DB) []int {
	t.Helper()
	var years []int
	if err := db.Model(&models.ProtectionCoverageStat{}).
		Where("is_last_year = ?", true).
		Pluck("year", &years).Error; err != nil {
		t.Fatalf("Failed to load flagged years: %v", err)
	}
	return years
}

func TestLastYearBackfillStaysUnflagged(t *testing.T) {
	db := setupTestDB(t)
	helpers.CreateTestLocation(t, db, "BRA", "Brazil", "country")

	for _, year := range []int{2020, 2021, 2022} {
		if _, err := services.UpsertProtectionCoverageStats(db, year, []services.ProtectionCoverageInput{
			{Location: "BRA", Environment: "marine", ProtectedArea: float64(year - 2019)},
		}); err != nil {
			t.Fatalf("Backfill %d failed: %v", year, err)
		}
	}

	if years := flaggedYears(t, db); len(years) != 0 {
		t.Errorf("Backfilled history must not hold the pointer, got %v", years)
	}
}

func TestLastYearCurrentYearStartsPointer(t *testing.T) {
	db := setupTestDB(t)
	helpers.CreateTestLocation(t, db, "BRA", "Brazil", "country")
	currentYear := time.Now().Year()

	if _, err := services.UpsertProtectionCoverageStats(db, currentYear, []services.ProtectionCoverageInput{
		{Location: "BRA", Environment: "marine", ProtectedArea: 10},
	}); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	years := flaggedYears(t, db)
	if len(years) != 1 || years[0] != currentYear {
		t.Fatalf("Expected the current year row flagged, got %v", years)
	}

	// An older year arriving later does not steal the pointer
	if _, err := services.UpsertProtectionCoverageStats(db, currentYear-1, []services.ProtectionCoverageInput{
		{Location: "BRA", Environment: "marine", ProtectedArea: 8},
	}); err != nil {
		t.Fatalf("Older import failed: %v", err)
	}
	years = flaggedYears(t, db)
	if len(years) != 1 || years[0] != currentYear {
		t.Errorf("Pointer must stay on the newest year, got %v", years)
	}

	// A newer year moves it
	if _, err := services.UpsertProtectionCoverageStats(db, currentYear+1, []services.ProtectionCoverageInput{
		{Location: "BRA", Environment: "marine", ProtectedArea: 12},
	}); err != nil {
		t.Fatalf("Newer import failed: %v", err)
	}
	years = flaggedYears(t, db)
	if len(years) != 1 || years[0] != currentYear+1 {
		t.Errorf("Pointer must move to the newer year, got %v", years)
	}
}

func TestLastYearPointerIsPerPair(t *testing.T) {
	db := setupTestDB(t)
	helpers.CreateTestLocation(t, db, "BRA", "Brazil", "country")
	currentYear := time.Now().Year()

	if _, err := services.UpsertProtectionCoverageStats(db, currentYear, []services.ProtectionCoverageInput{
		{Location: "BRA", Environment: "marine", ProtectedArea: 10},
		{Location: "BRA", Environment: "terrestrial", ProtectedArea: 20},
	}); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if years := flaggedYears(t, db); len(years) != 2 {
		t.Errorf("Expected one pointer per (location, environment), got %v", years)
	}
}

func TestLastYearCorruptionReportedNotRepaired(t *testing.T) {
	db := setupTestDB(t)
	loc := helpers.CreateTestLocation(t, db, "BRA", "Brazil", "country")

	var env models.Environment
	if err := db.Where("slug = ?", "marine").First(&env).Error; err != nil {
		t.Fatalf("Failed to load environment: %v", err)
	}

	// Two flagged rows for the same pair, as left by a historical bug
	for _, year := range []int{2021, 2022} {
		stat := models.ProtectionCoverageStat{
			LocationID:    loc.ID,
			EnvironmentID: env.ID,
			Year:          year,
			IsLastYear:    true,
		}
		if err := db.Create(&stat).Error; err != nil {
			t.Fatalf("Failed to create flagged row: %v", err)
		}
	}

	result, err := services.UpsertProtectionCoverageStats(db, time.Now().Year(), []services.ProtectionCoverageInput{
		{Location: "BRA", Environment: "marine", ProtectedArea: 10},
	})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("Row must still be created, got %+v", result)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Expected the corruption reported as a warning, got %+v", result)
	}

	// The existing flags are left untouched
	if years := flaggedYears(t, db); len(years) != 2 {
		t.Errorf("Expected the corrupt flags left in place, got %v", years)
	}
}
