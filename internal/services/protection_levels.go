package services

import (
	"github.com/conservetrack/conservedb/internal/models"
	"gorm.io/gorm"
)

// MpaaProtectionLevelInput is one imported MPAA protection level record.
// These stats carry no year axis; reimports replace the numeric fields.
type MpaaProtectionLevelInput struct {
	Location            string   `json:"location"`
	MpaaProtectionLevel string   `json:"mpaa_protection_level"`
	Area                float64  `json:"area"`
	TotalArea           *float64 `json:"total_area"`
	Percentage          float64  `json:"percentage"`
}

// FishingProtectionLevelInput is one imported fishing protection level
// record. No year axis.
type FishingProtectionLevelInput struct {
	Location               string   `json:"location"`
	FishingProtectionLevel string   `json:"fishing_protection_level"`
	Area                   float64  `json:"area"`
	TotalArea              *float64 `json:"total_area"`
	Percentage             float64  `json:"percentage"`
}

// UpsertMpaaProtectionLevelStats reconciles a batch of MPAA protection
// level records against the stored (location, level) rows.
func UpsertMpaaProtectionLevelStats(db *gorm.DB, records []MpaaProtectionLevelInput) (BulkResult, error) {
	var result BulkResult

	err := db.Transaction(func(tx *gorm.DB) error {
		locations, err := BuildLocationIndex(tx)
		if err != nil {
			return err
		}
		levels, err := BuildSlugIndex(tx, &models.MpaaProtectionLevel{})
		if err != nil {
			return err
		}

		codes := invertIndex(locations)
		slugs := invertIndex(levels)

		type row struct {
			ID                    uint64
			LocationID            uint64
			MpaaProtectionLevelID uint64
		}
		var rows []row
		if err := tx.Model(&models.MpaaProtectionLevelStat{}).
			Select("id", "location_id", "mpaa_protection_level_id").
			Find(&rows).Error; err != nil {
			return err
		}
		index := make(map[string]uint64, len(rows))
		for _, r := range rows {
			index[codes[r.LocationID]+"-"+slugs[r.MpaaProtectionLevelID]] = r.ID
		}

		for i := range records {
			rec := records[i]

			locationID, ok := locations[rec.Location]
			if !ok {
				result.addError(rec, "Location '%s' not found", rec.Location)
				continue
			}
			levelID, ok := levels[rec.MpaaProtectionLevel]
			if !ok {
				result.addError(rec, "Mpaa protection level '%s' not found", rec.MpaaProtectionLevel)
				continue
			}

			key := rec.Location + "-" + rec.MpaaProtectionLevel
			if id, ok := index[key]; ok {
				updates := map[string]interface{}{
					"area":       rec.Area,
					"percentage": rec.Percentage,
				}
				if rec.TotalArea != nil {
					updates["total_area"] = *rec.TotalArea
				}
				if err := tx.Model(&models.MpaaProtectionLevelStat{}).
					Where("id = ?", id).Updates(updates).Error; err != nil {
					return err
				}
				result.Updated++
				continue
			}

			stat := models.MpaaProtectionLevelStat{
				LocationID:            locationID,
				MpaaProtectionLevelID: levelID,
				Area:                  rec.Area,
				Percentage:            rec.Percentage,
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

// UpsertFishingProtectionLevelStats reconciles a batch of fishing
// protection level records against the stored (location, level) rows.
func UpsertFishingProtectionLevelStats(db *gorm.DB, records []FishingProtectionLevelInput) (BulkResult, error) {
	var result BulkResult

	err := db.Transaction(func(tx *gorm.DB) error {
		locations, err := BuildLocationIndex(tx)
		if err != nil {
			return err
		}
		levels, err := BuildSlugIndex(tx, &models.FishingProtectionLevel{})
		if err != nil {
			return err
		}

		codes := invertIndex(locations)
		slugs := invertIndex(levels)

		type row struct {
			ID                       uint64
			LocationID               uint64
			FishingProtectionLevelID uint64
		}
		var rows []row
		if err := tx.Model(&models.FishingProtectionLevelStat{}).
			Select("id", "location_id", "fishing_protection_level_id").
			Find(&rows).Error; err != nil {
			return err
		}
		index := make(map[string]uint64, len(rows))
		for _, r := range rows {
			index[codes[r.LocationID]+"-"+slugs[r.FishingProtectionLevelID]] = r.ID
		}

		for i := range records {
			rec := records[i]

			locationID, ok := locations[rec.Location]
			if !ok {
				result.addError(rec, "Location '%s' not found", rec.Location)
				continue
			}
			levelID, ok := levels[rec.FishingProtectionLevel]
			if !ok {
				result.addError(rec, "Fishing protection level '%s' not found", rec.FishingProtectionLevel)
				continue
			}

			key := rec.Location + "-" + rec.FishingProtectionLevel
			if id, ok := index[key]; ok {
				updates := map[string]interface{}{
					"area":       rec.Area,
					"percentage": rec.Percentage,
				}
				if rec.TotalArea != nil {
					updates["total_area"] = *rec.TotalArea
				}
				if err := tx.Model(&models.FishingProtectionLevelStat{}).
					Where("id = ?", id).Updates(updates).Error; err != nil {
					return err
				}
				result.Updated++
				continue
			}

			stat := models.FishingProtectionLevelStat{
				LocationID:               locationID,
				FishingProtectionLevelID: levelID,
				Area:                     rec.Area,
				Percentage:               rec.Percentage,
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
