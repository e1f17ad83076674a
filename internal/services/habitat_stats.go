package services

import (
	"github.com/conservetrack/conservedb/internal/models"
	"gorm.io/gorm"
)

// HabitatStatInput is one imported habitat coverage record, keyed by
// location code, environment slug and habitat slug.
type HabitatStatInput struct {
	Location      string   `json:"location"`
	Environment   string   `json:"environment"`
	Habitat       string   `json:"habitat"`
	ProtectedArea float64  `json:"protected_area"`
	TotalArea     *float64 `json:"total_area"`
}

// UpsertHabitatStats reconciles a batch of imported habitat coverage
// records for one year. Same upsert semantics as the protection coverage
// batch, with the habitat slug as a third natural-key axis and no
// last-year pointer.
func UpsertHabitatStats(db *gorm.DB, year int, records []HabitatStatInput) (BulkResult, error) {
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
		habitats, err := BuildSlugIndex(tx, &models.Habitat{})
		if err != nil {
			return err
		}
		index, err := habitatStatIndex(tx, year, locations, environments, habitats)
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
			habitatID, ok := habitats[rec.Habitat]
			if !ok {
				result.addError(rec, "Habitat '%s' not found", rec.Habitat)
				continue
			}

			key := rec.Location + "-" + rec.Environment + "-" + rec.Habitat
			if id, ok := index[key]; ok {
				updates := map[string]interface{}{
					"protected_area": rec.ProtectedArea,
				}
				if rec.TotalArea != nil {
					updates["total_area"] = *rec.TotalArea
				}
				if err := tx.Model(&models.HabitatStat{}).
					Where("id = ?", id).Updates(updates).Error; err != nil {
					return err
				}
				result.Updated++
				continue
			}

			stat := models.HabitatStat{
				LocationID:    locationID,
				EnvironmentID: environmentID,
				HabitatID:     habitatID,
				Year:          year,
				ProtectedArea: rec.ProtectedArea,
			}
			if rec.TotalArea != nil {
				stat.TotalArea = *rec.TotalArea
			}
			if err := tx.Create(&stat).Error; err != nil {
				return err
			}
			index[key] = stat.ID
			result.Created++
		}

		return nil
	})

	return result, err
}

// habitatStatIndex maps "location-environment-habitat" composite keys to
// the stored stat id for the given year.
func habitatStatIndex(tx *gorm.DB, year int, locations, environments, habitats map[string]uint64) (map[string]uint64, error) {
	codes := invertIndex(locations)
	envSlugs := invertIndex(environments)
	habitatSlugs := invertIndex(habitats)

	type row struct {
		ID            uint64
		LocationID    uint64
		EnvironmentID uint64
		HabitatID     uint64
	}
	var rows []row
	if err := tx.Model(&models.HabitatStat{}).
		Select("id", "location_id", "environment_id", "habitat_id").
		Where("year = ?", year).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	index := make(map[string]uint64, len(rows))
	for _, r := range rows {
		index[codes[r.LocationID]+"-"+envSlugs[r.EnvironmentID]+"-"+habitatSlugs[r.HabitatID]] = r.ID
	}
	return index, nil
}
