package services

import (
	"github.com/conservetrack/conservedb/internal/models"
	"gorm.io/gorm"
)

// ProtectionCoverageInput is one imported protection coverage record, keyed
// by location code and environment slug.
type ProtectionCoverageInput struct {
	Location            string   `json:"location"`
	Environment         string   `json:"environment"`
	ProtectedArea       float64  `json:"protected_area"`
	ProtectedAreasCount int      `json:"protected_areas_count"`
	Coverage            float64  `json:"coverage"`
	TotalArea           *float64 `json:"total_area"`
}

// UpsertProtectionCoverageStats reconciles a batch of imported coverage
// records for one year against the stored rows. Records whose natural keys
// resolve to an existing (location, environment, year) row update its
// numeric fields in place; the rest insert new rows and run the last-year
// pointer transition. Reference resolution failures are soft errors; any
// storage failure rolls back the whole batch.
func UpsertProtectionCoverageStats(db *gorm.DB, year int, records []ProtectionCoverageInput) (BulkResult, error) {
	var result BulkResult

	err := db.Transaction(func(tx *gorm.DB) error {
		locations, err := BuildLocationIndex(tx)
		if err != nil {
			return err
		}
		environments, err := BuildSlugIndex(tx, &models.Environment{})
		if err != nil {
			return err
		}
		index, err := coverageStatIndex(tx, year, locations, environments)
		if err != nil {
			return err
		}

		for i := range records {
			rec := records[i]

			locationID, ok := locations[rec.Location]
			if !ok {
				result.addError(rec, "Location '%s' not found", rec.Location)
				continue
			}
			environmentID, ok := environments[rec.Environment]
			if !ok {
				result.addError(rec, "Environment '%s' not found", rec.Environment)
				continue
			}

			key := rec.Location + "-" + rec.Environment
			if id, ok := index[key]; ok {
				// Numeric fields only; foreign keys are not re-resolved on
				// update.
				updates := map[string]interface{}{
					"protected_area":        rec.ProtectedArea,
					"protected_areas_count": rec.ProtectedAreasCount,
					"coverage":              rec.Coverage,
				}
				if rec.TotalArea != nil {
					updates["total_area"] = *rec.TotalArea
				}
				if err := tx.Model(&models.ProtectionCoverageStat{}).
					Where("id = ?", id).Updates(updates).Error; err != nil {
					return err
				}
				result.Updated++
				continue
			}

			stat := models.ProtectionCoverageStat{
				LocationID:          locationID,
				EnvironmentID:       environmentID,
				Year:                year,
				ProtectedArea:       rec.ProtectedArea,
				ProtectedAreasCount: rec.ProtectedAreasCount,
				Coverage:            rec.Coverage,
			}
			if rec.TotalArea != nil {
				stat.TotalArea = *rec.TotalArea
			}
			if err := tx.Create(&stat).Error; err != nil {
				return err
			}
			// Later records in the batch must see this row, or a duplicate
			// composite key would insert twice.
			index[key] = stat.ID
			result.Created++

			warning, err := maintainLastYear(tx, locationID, environmentID, stat.ID, year)
			if err != nil {
				return err
			}
			if warning != "" {
				result.addError(rec, "%s", warning)
			}
		}

		return nil
	})

	return result, err
}

// coverageStatIndex maps "location_code-environment_slug" composite keys to
// the stored stat id for the given year.
func coverageStatIndex(tx *gorm.DB, year int, locations, environments map[string]uint64) (map[string]uint64, error) {
	codes := invertIndex(locations)
	slugs := invertIndex(environments)

	type row struct {
		ID            uint64
		LocationID    uint64
		EnvironmentID uint64
	}
	var rows []row
	if err := tx.Model(&models.ProtectionCoverageStat{}).
		Select("id", "location_id", "environment_id").
		Where("year = ?", year).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	index := make(map[string]uint64, len(rows))
	for _, r := range rows {
		index[codes[r.LocationID]+"-"+slugs[r.EnvironmentID]] = r.ID
	}
	return index, nil
}
