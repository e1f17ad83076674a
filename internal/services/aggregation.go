package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/conservetrack/conservedb/internal/models"
	"github.com/conservetrack/conservedb/internal/types"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/hints"
)

// Stats categories served by the aggregation reader.
const (
	StatsProtectionCoverage     = "protection-coverage"
	StatsHabitatCoverage        = "habitat-coverage"
	StatsMpaaProtectionLevel    = "mpaa-protection-level"
	StatsFishingProtectionLevel = "fishing-protection-level"
)

// AggregatedStat is one rollup group summed across the requested
// locations. Coverage is recomputed from the summed areas, never averaged
// from per-record percentages, so locations with many records do not skew
// the ratio. Locations lists the codes that actually contributed; callers
// diff it against their request to find locations with no data.
type AggregatedStat struct {
	Coverage      float64   `json:"coverage"`
	ProtectedArea float64   `json:"protected_area"`
	TotalArea     float64   `json:"total_area"`
	Locations     []string  `json:"locations"`
	Environment   string    `json:"environment,omitempty"`
	Category      string    `json:"category,omitempty"`
	Year          int       `json:"year,omitempty"`
	RecordCount   int       `json:"record_count"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// AggregateStats sums stored statistics across a set of location codes,
// optionally restricted to one stats category, an environment and a year.
// The result maps category name to its rollup groups.
func AggregateStats(db *gorm.DB, locationCodes []string, statsFilter, environment string, year int) (map[string][]AggregatedStat, error) {
	result := make(map[string][]AggregatedStat)

	want := func(category string) bool {
		return statsFilter == "" || statsFilter == category
	}
	if statsFilter != "" && !want(StatsProtectionCoverage) && !want(StatsHabitatCoverage) &&
		!want(StatsMpaaProtectionLevel) && !want(StatsFishingProtectionLevel) {
		return nil, &types.CustomError{
			Code:    fiber.StatusBadRequest,
			Message: fmt.Sprintf("unknown stats category: %s", statsFilter),
			Type:    "aggregated.validation.stats",
		}
	}

	if want(StatsProtectionCoverage) {
		stats, err := aggregateProtectionCoverage(db, locationCodes, environment, year)
		if err != nil {
			return nil, err
		}
		result[StatsProtectionCoverage] = stats
	}
	if want(StatsHabitatCoverage) {
		stats, err := aggregateHabitatCoverage(db, locationCodes, environment, year)
		if err != nil {
			return nil, err
		}
		result[StatsHabitatCoverage] = stats
	}
	if want(StatsMpaaProtectionLevel) {
		stats, err := aggregateMpaaProtectionLevels(db, locationCodes)
		if err != nil {
			return nil, err
		}
		result[StatsMpaaProtectionLevel] = stats
	}
	if want(StatsFishingProtectionLevel) {
		stats, err := aggregateFishingProtectionLevels(db, locationCodes)
		if err != nil {
			return nil, err
		}
		result[StatsFishingProtectionLevel] = stats
	}

	return result, nil
}

// statAccumulator sums one rollup group. Records with an absent total fall
// back to the inverse of the percentage formula so the group denominator
// stays meaningful.
type statAccumulator struct {
	protected float64
	total     float64
	locations map[string]struct{}
	count     int
	updatedAt time.Time
}

func newStatAccumulator() *statAccumulator {
	return &statAccumulator{locations: make(map[string]struct{})}
}

func (a *statAccumulator) add(code string, protected, total, coverage float64, updatedAt time.Time) {
	if total == 0 && coverage > 0 {
		total = protected * 100 / coverage
	}
	a.protected += protected
	a.total += total
	a.locations[code] = struct{}{}
	a.count++
	if updatedAt.After(a.updatedAt) {
		a.updatedAt = updatedAt
	}
}

func (a *statAccumulator) stat() AggregatedStat {
	s := AggregatedStat{
		ProtectedArea: a.protected,
		TotalArea:     a.total,
		RecordCount:   a.count,
		UpdatedAt:     a.updatedAt,
	}
	if a.total > 0 {
		s.Coverage = a.protected / a.total * 100
	}
	s.Locations = make([]string, 0, len(a.locations))
	for code := range a.locations {
		s.Locations = append(s.Locations, code)
	}
	sort.Strings(s.Locations)
	return s
}

func aggregateProtectionCoverage(db *gorm.DB, codes []string, environment string, year int) ([]AggregatedStat, error) {
	q := db.Model(&models.ProtectionCoverageStat{}).
		Select("protection_coverage_stats.*").
		Preload("Location").Preload("Environment").
		Joins("JOIN locations ON locations.id = protection_coverage_stats.location_id").
		Where("locations.code IN ?", codes)
	if db.Dialector.Name() == "mysql" {
		q = q.Clauses(hints.UseIndex("idx_coverage_stats_group"))
	}
	if environment != "" {
		q = q.Joins("JOIN environments ON environments.id = protection_coverage_stats.environment_id").
			Where("environments.slug = ?", environment)
	}
	if year != 0 {
		q = q.Where("protection_coverage_stats.year = ?", year)
	}

	var rows []models.ProtectionCoverageStat
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	type groupKey struct {
		year int
		env  string
	}
	groups := make(map[groupKey]*statAccumulator)
	for _, r := range rows {
		key := groupKey{year: r.Year, env: r.Environment.Slug}
		acc, ok := groups[key]
		if !ok {
			acc = newStatAccumulator()
			groups[key] = acc
		}
		acc.add(r.Location.Code, r.ProtectedArea, r.TotalArea, r.Coverage, r.UpdatedAt)
	}

	stats := make([]AggregatedStat, 0, len(groups))
	for key, acc := range groups {
		s := acc.stat()
		s.Year = key.year
		s.Environment = key.env
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Year != stats[j].Year {
			return stats[i].Year < stats[j].Year
		}
		return stats[i].Environment < stats[j].Environment
	})
	return stats, nil
}

func aggregateHabitatCoverage(db *gorm.DB, codes []string, environment string, year int) ([]AggregatedStat, error) {
	q := db.Model(&models.HabitatStat{}).
		Select("habitat_stats.*").
		Preload("Location").Preload("Environment").Preload("Habitat").
		Joins("JOIN locations ON locations.id = habitat_stats.location_id").
		Where("locations.code IN ?", codes)
	if environment != "" {
		q = q.Joins("JOIN environments ON environments.id = habitat_stats.environment_id").
			Where("environments.slug = ?", environment)
	}
	if year != 0 {
		q = q.Where("habitat_stats.year = ?", year)
	}

	var rows []models.HabitatStat
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	type groupKey struct {
		year    int
		habitat string
	}
	groups := make(map[groupKey]*statAccumulator)
	for _, r := range rows {
		key := groupKey{year: r.Year, habitat: r.Habitat.Slug}
		acc, ok := groups[key]
		if !ok {
			acc = newStatAccumulator()
			groups[key] = acc
		}
		// Habitat rows carry no stored percentage, so a zero total stays
		// zero instead of being derived.
		acc.add(r.Location.Code, r.ProtectedArea, r.TotalArea, 0, r.UpdatedAt)
	}

	stats := make([]AggregatedStat, 0, len(groups))
	for key, acc := range groups {
		s := acc.stat()
		s.Year = key.year
		s.Category = key.habitat
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Year != stats[j].Year {
			return stats[i].Year < stats[j].Year
		}
		return stats[i].Category < stats[j].Category
	})
	return stats, nil
}

func aggregateMpaaProtectionLevels(db *gorm.DB, codes []string) ([]AggregatedStat, error) {
	var rows []models.MpaaProtectionLevelStat
	if err := db.Model(&models.MpaaProtectionLevelStat{}).
		Select("mpaa_protection_level_stats.*").
		Preload("Location").Preload("MpaaProtectionLevel").
		Joins("JOIN locations ON locations.id = mpaa_protection_level_stats.location_id").
		Where("locations.code IN ?", codes).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	groups := make(map[string]*statAccumulator)
	for _, r := range rows {
		slug := r.MpaaProtectionLevel.Slug
		acc, ok := groups[slug]
		if !ok {
			acc = newStatAccumulator()
			groups[slug] = acc
		}
		acc.add(r.Location.Code, r.Area, r.TotalArea, r.Percentage, r.UpdatedAt)
	}

	return levelStats(groups), nil
}

func aggregateFishingProtectionLevels(db *gorm.DB, codes []string) ([]AggregatedStat, error) {
	var rows []models.FishingProtectionLevelStat
	if err := db.Model(&models.FishingProtectionLevelStat{}).
		Select("fishing_protection_level_stats.*").
		Preload("Location").Preload("FishingProtectionLevel").
		Joins("JOIN locations ON locations.id = fishing_protection_level_stats.location_id").
		Where("locations.code IN ?", codes).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	groups := make(map[string]*statAccumulator)
	for _, r := range rows {
		slug := r.FishingProtectionLevel.Slug
		acc, ok := groups[slug]
		if !ok {
			acc = newStatAccumulator()
			groups[slug] = acc
		}
		acc.add(r.Location.Code, r.Area, r.TotalArea, r.Percentage, r.UpdatedAt)
	}

	return levelStats(groups), nil
}

// levelStats flattens slug-keyed accumulators for the year-less stat types.
func levelStats(groups map[string]*statAccumulator) []AggregatedStat {
	stats := make([]AggregatedStat, 0, len(groups))
	for slug, acc := range groups {
		s := acc.stat()
		s.Category = slug
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Category < stats[j].Category
	})
	return stats
}
