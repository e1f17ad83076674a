package integration_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/conservetrack/conservedb/internal/config"
	"github.com/conservetrack/conservedb/internal/database"
	"github.com/conservetrack/conservedb/internal/services"
	"github.com/conservetrack/conservedb/tests/helpers"
)

// TestWithMariaDB tests the service with a real MariaDB container
func TestWithMariaDB(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	dbImage := os.Getenv("DB_IMAGE")
	if dbImage == "" {
		dbImage = "mariadb:11"
	}

	// Start MariaDB container
	mariadbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        dbImage,
			ExposedPorts: []string{"3306/tcp"},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": "rootpass",
				"MYSQL_DATABASE":      "testdb",
				"MYSQL_USER":          "testuser",
				"MYSQL_PASSWORD":      "testpass",
			},
			WaitingFor: wait.ForLog("ready for connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start MariaDB container: %v", err)
	}
	defer func() {
		if err := mariadbContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate MariaDB container: %v", err)
		}
	}()

	// Get container host and port
	host, err := mariadbContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := mariadbContainer.MappedPort(ctx, "3306")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	// Create config
	cfg := &config.Config{
		DBType:            "mysql",
		DBHost:            host,
		DBPort:            port.Port(),
		DBDatabase:        "testdb",
		DBUser:            "testuser",
		DBPassword:        "testpass",
		DBConnectionLimit: 5,
	}

	// Wait for database to be ready
	time.Sleep(5 * time.Second)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	runScenarios(t, db)
}

// TestWithPostgreSQL tests the service with a real PostgreSQL container
func TestWithPostgreSQL(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	dbImage := os.Getenv("POSTGRES_IMAGE")
	if dbImage == "" {
		dbImage = "postgres:17"
	}

	// Start PostgreSQL container
	postgresContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        dbImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_PASSWORD": "testpass",
				"POSTGRES_USER":     "testuser",
				"POSTGRES_DB":       "testdb",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}()

	// Get container host and port
	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgresContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	// Create config
	cfg := &config.Config{
		DBType:            "postgres",
		DBHost:            host,
		DBPort:            port.Port(),
		DBDatabase:        "testdb",
		DBUser:            "testuser",
		DBPassword:        "testpass",
		DBConnectionLimit: 5,
	}

	// Wait for database to be ready
	time.Sleep(2 * time.Second)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	runScenarios(t, db)
}

func runScenarios(t *testing.T, db *gorm.DB) {
	helpers.SeedReferenceData(t, db)

	t.Run("LocationsAndCoverage", func(t *testing.T) {
		testLocationsAndCoverage(t, db)
	})

	t.Run("ProtectedAreaRelations", func(t *testing.T) {
		testProtectedAreaRelations(t, db)
	})

	t.Run("AggregatedStats", func(t *testing.T) {
		testAggregatedStats(t, db)
	})
}

// testLocationsAndCoverage imports locations, then coverage stats across
// two years, and checks the upsert and last-year semantics end to end.
func testLocationsAndCoverage(t *testing.T, db *gorm.DB) {
	locResult, err := services.UpsertLocations(db, []services.LocationInput{
		{Code: "GLOB", Name: "Global", Type: "worldwide"},
		{Code: "BRA", Name: "Brazil", Type: "country", Groups: []string{"GLOB"}},
		{Code: "ARG", Name: "Argentina", Type: "country", Groups: []string{"GLOB"}},
	})
	if err != nil {
		t.Fatalf("UpsertLocations failed: %v", err)
	}
	if locResult.Created != 3 || len(locResult.Errors) != 0 {
		t.Fatalf("Expected 3 created locations, got %+v", locResult)
	}

	total := 100.0
	result, err := services.UpsertProtectionCoverageStats(db, 2023, []services.ProtectionCoverageInput{
		{Location: "BRA", Environment: "marine", ProtectedArea: 10, ProtectedAreasCount: 4, Coverage: 10, TotalArea: &total},
		{Location: "ARG", Environment: "marine", ProtectedArea: 20, ProtectedAreasCount: 2, Coverage: 20, TotalArea: &total},
		{Location: "XXX", Environment: "marine", ProtectedArea: 5},
	})
	if err != nil {
		t.Fatalf("UpsertProtectionCoverageStats failed: %v", err)
	}
	if result.Created != 2 || len(result.Errors) != 1 {
		t.Fatalf("Expected 2 created with 1 soft error, got %+v", result)
	}

	// Reimport the same year updates in place
	result, err = services.UpsertProtectionCoverageStats(db, 2023, []services.ProtectionCoverageInput{
		{Location: "BRA", Environment: "marine", ProtectedArea: 12, ProtectedAreasCount: 5, Coverage: 12, TotalArea: &total},
	})
	if err != nil {
		t.Fatalf("Reimport failed: %v", err)
	}
	if result.Updated != 1 || result.Created != 0 {
		t.Fatalf("Expected 1 updated, got %+v", result)
	}

	// Backfilled history never starts a last-year pointer
	var flagged int64
	if err := db.Table("protection_coverage_stats").Where("is_last_year = ?", true).Count(&flagged).Error; err != nil {
		t.Fatalf("Failed to count flagged rows: %v", err)
	}
	if flagged != 0 {
		t.Errorf("Expected no flagged rows after backfill, got %d", flagged)
	}

	// Data for the present calendar year starts the pointer
	currentYear := time.Now().Year()
	result, err = services.UpsertProtectionCoverageStats(db, currentYear, []services.ProtectionCoverageInput{
		{Location: "BRA", Environment: "marine", ProtectedArea: 15, ProtectedAreasCount: 5, Coverage: 15, TotalArea: &total},
	})
	if err != nil {
		t.Fatalf("Current year import failed: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("Expected 1 created, got %+v", result)
	}

	var flaggedYears []int
	if err := db.Table("protection_coverage_stats").Where("is_last_year = ?", true).
		Pluck("year", &flaggedYears).Error; err != nil {
		t.Fatalf("Failed to load flagged years: %v", err)
	}
	if len(flaggedYears) != 1 || flaggedYears[0] != currentYear {
		t.Errorf("Expected the current year row to hold the pointer, got %v", flaggedYears)
	}

	// A newer year takes the pointer over
	if _, err = services.UpsertProtectionCoverageStats(db, currentYear+1, []services.ProtectionCoverageInput{
		{Location: "BRA", Environment: "marine", ProtectedArea: 18, ProtectedAreasCount: 6, Coverage: 18, TotalArea: &total},
	}); err != nil {
		t.Fatalf("Next year import failed: %v", err)
	}
	flaggedYears = nil
	if err := db.Table("protection_coverage_stats").Where("is_last_year = ?", true).
		Pluck("year", &flaggedYears).Error; err != nil {
		t.Fatalf("Failed to load flagged years: %v", err)
	}
	if len(flaggedYears) != 1 || flaggedYears[0] != currentYear+1 {
		t.Errorf("Expected the pointer to move to the newer year, got %v", flaggedYears)
	}
}

// testProtectedAreaRelations imports a parent and a zone that references it
// by natural key before it exists, then deletes both.
func testProtectedAreaRelations(t *testing.T, db *gorm.DB) {
	result, err := services.UpsertProtectedAreas(db, []services.ProtectedAreaInput{
		{
			Name: "Noronha Zone A", WdpaID: 555, ZoneID: 2,
			Location: "BRA", Environment: "marine",
			Parent: &services.ProtectedAreaRef{WdpaID: 555, ZoneID: 1},
		},
		{
			Name: "Fernando de Noronha", WdpaID: 555, ZoneID: 1,
			Location: "BRA", Environment: "marine",
			DataSource: "protected-planet", ProtectionStatus: "designated",
		},
	})
	if err != nil {
		t.Fatalf("UpsertProtectedAreas failed: %v", err)
	}
	if result.Created != 2 || len(result.Errors) != 0 {
		t.Fatalf("Expected 2 created without errors, got %+v", result)
	}

	type row struct {
		ID       uint64
		ParentID *uint64
	}
	var zone row
	if err := db.Table("protected_areas").Select("id", "parent_id").
		Where("wdpa_id = ? AND zone_id = ?", 555, 2).Scan(&zone).Error; err != nil {
		t.Fatalf("Failed to load zone: %v", err)
	}
	if zone.ParentID == nil {
		t.Fatal("Expected zone to be linked to its parent created later in the batch")
	}

	var parent row
	if err := db.Table("protected_areas").Select("id", "parent_id").
		Where("wdpa_id = ? AND zone_id = ?", 555, 1).Scan(&parent).Error; err != nil {
		t.Fatalf("Failed to load parent: %v", err)
	}

	deleted, failed, err := services.DeleteProtectedAreas(db, []uint64{parent.ID, zone.ID, 999999})
	if err != nil {
		t.Fatalf("DeleteProtectedAreas failed: %v", err)
	}
	if len(deleted) != 2 || len(failed) != 1 {
		t.Fatalf("Expected 2 deleted and 1 failed, got %v / %v", deleted, failed)
	}
}

// testAggregatedStats sums the coverage stats imported above across two
// locations and checks the recomputed percentage.
func testAggregatedStats(t *testing.T, db *gorm.DB) {
	result, err := services.AggregateStats(db, []string{"BRA", "ARG"}, services.StatsProtectionCoverage, "marine", 2023)
	if err != nil {
		t.Fatalf("AggregateStats failed: %v", err)
	}

	stats := result[services.StatsProtectionCoverage]
	if len(stats) != 1 {
		t.Fatalf("Expected one aggregated group, got %d", len(stats))
	}
	s := stats[0]
	if s.ProtectedArea != 32 || s.TotalArea != 200 {
		t.Errorf("Expected summed areas 32/200, got %v/%v", s.ProtectedArea, s.TotalArea)
	}
	if s.Coverage != 16 {
		t.Errorf("Expected recomputed coverage 16, got %v", s.Coverage)
	}
	if s.RecordCount != 2 {
		t.Errorf("Expected 2 records in the group, got %d", s.RecordCount)
	}
}
