package services_test

import (
	"errors"
	"testing"

	"github.com/conservetrack/conservedb/internal/services"
	"github.com/conservetrack/conservedb/internal/types"
	"github.com/conservetrack/conservedb/tests/helpers"
)

func TestAggregateStatsSumsBeforeDividing(t *testing.T) {
	db := setupTestDB(t)
	helpers.CreateTestLocation(t, db, "BRA", "Brazil", "country")
	helpers.CreateTestLocation(t, db, "ARG", "Argentina", "country")

	// BRA protects 10 of 1000 (1%), ARG protects 25 of 50 (50%). The
	// correct combined coverage is 35/1050, nowhere near the 25.5% a
	// percentage average would give.
	if _, err := services.UpsertProtectionCoverageStats(db, 2023, []services.ProtectionCoverageInput{
		{Location: "BRA", Environment: "marine", ProtectedArea: 10, Coverage: 1, TotalArea: floatPtr(1000)},
		{Location: "ARG", Environment: "marine", ProtectedArea: 25, Coverage: 50, TotalArea: floatPtr(50)},
	}); err != nil {
		t.Fatalf("Setup import failed: %v", err)
	}

	result, err := services.AggregateStats(db, []string{"BRA", "ARG"}, services.StatsProtectionCoverage, "marine", 2023)
	if err != nil {
		t.Fatalf("AggregateStats failed: %v", err)
	}

	stats := result[services.StatsProtectionCoverage]
	if len(stats) != 1 {
		t.Fatalf("Expected one group, got %d", len(stats))
	}
	s := stats[0]
	if s.ProtectedArea != 35 || s.TotalArea != 1050 {
		t.Errorf("Expected summed areas 35/1050, got %v/%v", s.ProtectedArea, s.TotalArea)
	}
	want := 35.0 / 1050.0 * 100
	if s.Coverage != want {
		t.Errorf("Expected coverage %v, got %v", want, s.Coverage)
	}
	if s.Year != 2023 || s.Environment != "marine" {
		t.Errorf("Unexpected group labels: year %d environment %q", s.Year, s.Environment)
	}
}

func TestAggregateStatsDerivesMissingTotal(t *testing.T) {
	db := setupTestDB(t)
	helpers.CreateTestLocation(t, db, "BRA", "Brazil", "country")

	// 500 protected at 25% coverage with no stored total: the total is
	// derived as 500 * 100 / 25 = 2000
	if _, err := services.UpsertProtectionCoverageStats(db, 2023, []services.ProtectionCoverageInput{
		{Location: "BRA", Environment: "marine", ProtectedArea: 500, Coverage: 25},
	}); err != nil {
		t.Fatalf("Setup import failed: %v", err)
	}

	result, err := services.AggregateStats(db, []string{"BRA"}, services.StatsProtectionCoverage, "", 0)
	if err != nil {
		t.Fatalf("AggregateStats failed: %v", err)
	}

	stats := result[services.StatsProtectionCoverage]
	if len(stats) != 1 {
		t.Fatalf("Expected one group, got %d", len(stats))
	}
	if stats[0].TotalArea != 2000 {
		t.Errorf("Expected derived total 2000, got %v", stats[0].TotalArea)
	}
	if stats[0].Coverage != 25 {
		t.Errorf("Expected coverage 25, got %v", stats[0].Coverage)
	}
}

func TestAggregateStatsContributingLocationsOnly(t *testing.T) {
	db := setupTestDB(t)
	helpers.CreateTestLocation(t, db, "BRA", "Brazil", "country")
	helpers.CreateTestLocation(t, db, "ARG", "Argentina", "country")

	if _, err := services.UpsertProtectionCoverageStats(db, 2023, []services.ProtectionCoverageInput{
		{Location: "BRA", Environment: "marine", ProtectedArea: 10, TotalArea: floatPtr(100)},
	}); err != nil {
		t.Fatalf("Setup import failed: %v", err)
	}

	// ARG is requested but has no data; the group lists only BRA so the
	// caller can tell the difference
	result, err := services.AggregateStats(db, []string{"BRA", "ARG"}, services.StatsProtectionCoverage, "", 0)
	if err != nil {
		t.Fatalf("AggregateStats failed: %v", err)
	}
	stats := result[services.StatsProtectionCoverage]
	if len(stats) != 1 {
		t.Fatalf("Expected one group, got %d", len(stats))
	}
	if len(stats[0].Locations) != 1 || stats[0].Locations[0] != "BRA" {
		t.Errorf("Expected only contributing locations listed, got %v", stats[0].Locations)
	}
}

func TestAggregateStatsGroupsAndFilters(t *testing.T) {
	db := setupTestDB(t)
	helpers.CreateTestLocation(t, db, "BRA", "Brazil", "country")

	if _, err := services.UpsertProtectionCoverageStats(db, 2022, []services.ProtectionCoverageInput{
		{Location: "BRA", Environment: "marine", ProtectedArea: 8, TotalArea: floatPtr(100)},
		{Location: "BRA", Environment: "terrestrial", ProtectedArea: 4, TotalArea: floatPtr(100)},
	}); err != nil {
		t.Fatalf("2022 import failed: %v", err)
	}
	if _, err := services.UpsertProtectionCoverageStats(db, 2023, []services.ProtectionCoverageInput{
		{Location: "BRA", Environment: "marine", ProtectedArea: 10, TotalArea: floatPtr(100)},
	}); err != nil {
		t.Fatalf("2023 import failed: %v", err)
	}

	// No filters: one group per (year, environment), sorted
	result, err := services.AggregateStats(db, []string{"BRA"}, services.StatsProtectionCoverage, "", 0)
	if err != nil {
		t.Fatalf("AggregateStats failed: %v", err)
	}
	stats := result[services.StatsProtectionCoverage]
	if len(stats) != 3 {
		t.Fatalf("Expected 3 groups, got %d", len(stats))
	}
	if stats[0].Year != 2022 || stats[0].Environment != "marine" {
		t.Errorf("Unexpected first group: %+v", stats[0])
	}
	if stats[2].Year != 2023 {
		t.Errorf("Expected groups sorted by year, got %+v", stats[2])
	}

	// Environment filter drops the terrestrial group
	result, err = services.AggregateStats(db, []string{"BRA"}, services.StatsProtectionCoverage, "marine", 0)
	if err != nil {
		t.Fatalf("AggregateStats failed: %v", err)
	}
	if len(result[services.StatsProtectionCoverage]) != 2 {
		t.Errorf("Expected 2 marine groups, got %d", len(result[services.StatsProtectionCoverage]))
	}
}

func TestAggregateStatsAllCategories(t *testing.T) {
	db := setupTestDB(t)
	helpers.CreateTestLocation(t, db, "BRA", "Brazil", "country")

	if _, err := services.UpsertHabitatStats(db, 2023, []services.HabitatStatInput{
		{Location: "BRA", Environment: "marine", Habitat: "seagrasses", ProtectedArea: 5, TotalArea: floatPtr(50)},
	}); err != nil {
		t.Fatalf("Habitat import failed: %v", err)
	}
	if _, err := services.UpsertMpaaProtectionLevelStats(db, []services.MpaaProtectionLevelInput{
		{Location: "BRA", MpaaProtectionLevel: "fully-highly-protected", Area: 10, TotalArea: floatPtr(100), Percentage: 10},
	}); err != nil {
		t.Fatalf("Mpaa import failed: %v", err)
	}
	if _, err := services.UpsertFishingProtectionLevelStats(db, []services.FishingProtectionLevelInput{
		{Location: "BRA", FishingProtectionLevel: "highly", Area: 2, TotalArea: floatPtr(20), Percentage: 10},
	}); err != nil {
		t.Fatalf("Fishing import failed: %v", err)
	}

	// No category filter returns every category, empty ones included
	result, err := services.AggregateStats(db, []string{"BRA"}, "", "", 0)
	if err != nil {
		t.Fatalf("AggregateStats failed: %v", err)
	}
	if len(result) != 4 {
		t.Fatalf("Expected all 4 categories present, got %d", len(result))
	}
	if len(result[services.StatsProtectionCoverage]) != 0 {
		t.Errorf("Expected no protection coverage groups, got %d", len(result[services.StatsProtectionCoverage]))
	}

	habitat := result[services.StatsHabitatCoverage]
	if len(habitat) != 1 || habitat[0].Category != "seagrasses" {
		t.Fatalf("Unexpected habitat groups: %+v", habitat)
	}

	mpaa := result[services.StatsMpaaProtectionLevel]
	if len(mpaa) != 1 || mpaa[0].Category != "fully-highly-protected" {
		t.Fatalf("Unexpected mpaa groups: %+v", mpaa)
	}
	if mpaa[0].Coverage != 10 {
		t.Errorf("Expected recomputed mpaa coverage 10, got %v", mpaa[0].Coverage)
	}

	fishing := result[services.StatsFishingProtectionLevel]
	if len(fishing) != 1 || fishing[0].Category != "highly" {
		t.Fatalf("Unexpected fishing groups: %+v", fishing)
	}
}

func TestAggregateStatsUnknownCategory(t *testing.T) {
	db := setupTestDB(t)

	_, err := services.AggregateStats(db, []string{"BRA"}, "bogus-category", "", 0)
	if err == nil {
		t.Fatal("Expected an error for an unknown category")
	}
	var ce *types.CustomError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected a typed validation error, got %v", err)
	}
	if ce.Code != 400 || ce.Message != "unknown stats category: bogus-category" {
		t.Errorf("Unexpected error: %v", err)
	}
}
