package models

import "time"

// ProtectionCoverageStat holds one imported year of protection coverage for
// a (location, environment) pair. IsLastYear flags the single most recent
// year per pair so the frontend can show current figures without a year
// filter.
type ProtectionCoverageStat struct {
	ID                  uint64 `gorm:"primaryKey;autoIncrement"`
	LocationID          uint64 `gorm:"not null;index:idx_coverage_stats_group"`
	EnvironmentID       uint64 `gorm:"not null;index:idx_coverage_stats_group"`
	Year                int    `gorm:"not null;index"`
	ProtectedArea       float64
	ProtectedAreasCount int
	Coverage            float64
	TotalArea           float64
	IsLastYear          bool `gorm:"not null;default:false"`
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Location    Location
	Environment Environment
}

// HabitatStat holds one imported year of habitat protection coverage for a
// (location, environment, habitat) triple.
type HabitatStat struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	LocationID    uint64 `gorm:"not null;index:idx_habitat_stats_group"`
	EnvironmentID uint64 `gorm:"not null;index:idx_habitat_stats_group"`
	HabitatID     uint64 `gorm:"not null;index:idx_habitat_stats_group"`
	Year          int    `gorm:"not null;index"`
	ProtectedArea float64
	TotalArea     float64
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Location    Location
	Environment Environment
	Habitat     Habitat
}

// MpaaProtectionLevelStat holds the protected area per MPAA protection
// level for a location. There is no year axis; imports replace the numeric
// fields in place.
type MpaaProtectionLevelStat struct {
	ID                    uint64 `gorm:"primaryKey;autoIncrement"`
	LocationID            uint64 `gorm:"not null;index:idx_mpaa_level_stats_group"`
	MpaaProtectionLevelID uint64 `gorm:"not null;index:idx_mpaa_level_stats_group"`
	Area                  float64
	TotalArea             float64
	Percentage            float64
	CreatedAt             time.Time
	UpdatedAt             time.Time

	Location            Location
	MpaaProtectionLevel MpaaProtectionLevel
}

// FishingProtectionLevelStat holds the protected area per fishing
// protection level for a location. No year axis.
type FishingProtectionLevelStat struct {
	ID                       uint64 `gorm:"primaryKey;autoIncrement"`
	LocationID               uint64 `gorm:"not null;index:idx_fishing_level_stats_group"`
	FishingProtectionLevelID uint64 `gorm:"not null;index:idx_fishing_level_stats_group"`
	Area                     float64
	TotalArea                float64
	Percentage               float64
	CreatedAt                time.Time
	UpdatedAt                time.Time

	Location               Location
	FishingProtectionLevel FishingProtectionLevel
}
