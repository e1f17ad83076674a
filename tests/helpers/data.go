package helpers

import (
	"testing"

	"gorm.io/gorm"

	"github.com/conservetrack/conservedb/internal/models"
)

// SeedReferenceData inserts the reference rows bulk imports resolve against.
func SeedReferenceData(t *testing.T, db *gorm.DB) {
	t.Helper()

	environments := []models.Environment{
		{Slug: "marine", Name: "Marine"},
		{Slug: "terrestrial", Name: "Terrestrial"},
	}
	if err := db.Create(&environments).Error; err != nil {
		t.Fatalf("Failed to seed environments: %v", err)
	}

	habitats := []models.Habitat{
		{Slug: "seagrasses", Name: "Seagrasses"},
		{Slug: "mangroves", Name: "Mangroves"},
		{Slug: "warm-water-corals", Name: "Warm-water corals"},
	}
	if err := db.Create(&habitats).Error; err != nil {
		t.Fatalf("Failed to seed habitats: %v", err)
	}

	mpaaLevels := []models.MpaaProtectionLevel{
		{Slug: "fully-highly-protected", Name: "Fully or highly protected"},
		{Slug: "less-protected-unknown", Name: "Less protected or unknown"},
	}
	if err := db.Create(&mpaaLevels).Error; err != nil {
		t.Fatalf("Failed to seed mpaa protection levels: %v", err)
	}

	fishingLevels := []models.FishingProtectionLevel{
		{Slug: "highly", Name: "Highly protected from fishing"},
		{Slug: "moderately", Name: "Moderately protected from fishing"},
		{Slug: "less", Name: "Less protected from fishing"},
	}
	if err := db.Create(&fishingLevels).Error; err != nil {
		t.Fatalf("Failed to seed fishing protection levels: %v", err)
	}

	statuses := []models.ProtectionStatus{
		{Slug: "designated", Name: "Designated"},
		{Slug: "implemented", Name: "Implemented"},
	}
	if err := db.Create(&statuses).Error; err != nil {
		t.Fatalf("Failed to seed protection statuses: %v", err)
	}

	categories := []models.IucnCategory{
		{Slug: "ii", Name: "II"},
		{Slug: "iv", Name: "IV"},
	}
	if err := db.Create(&categories).Error; err != nil {
		t.Fatalf("Failed to seed iucn categories: %v", err)
	}

	stages := []models.MpaaEstablishmentStage{
		{Slug: "designated", Name: "Designated"},
		{Slug: "actively-managed", Name: "Actively managed"},
	}
	if err := db.Create(&stages).Error; err != nil {
		t.Fatalf("Failed to seed mpaa establishment stages: %v", err)
	}

	sources := []models.DataSource{
		{Slug: "protected-planet", Title: "Protected Planet"},
		{Slug: "mpatlas", Title: "MPA Atlas"},
	}
	if err := db.Create(&sources).Error; err != nil {
		t.Fatalf("Failed to seed data sources: %v", err)
	}
}

// CreateTestLocation creates a location for tests to key statistics on.
func CreateTestLocation(t *testing.T, db *gorm.DB, code, name, locType string) models.Location {
	t.Helper()

	loc := models.Location{
		Code: code,
		Name: name,
		Type: locType,
	}
	if err := db.Create(&loc).Error; err != nil {
		t.Fatalf("Failed to create location %s: %v", code, err)
	}
	return loc
}
