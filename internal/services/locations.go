package services

import (
	"github.com/conservetrack/conservedb/internal/models"
	"gorm.io/gorm"
)

// LocationInput is one imported location. Group membership is expressed by
// the codes of the containing locations (regions, global entries); the
// member side of the relation is the inverse and is never written directly.
type LocationInput struct {
	Code                 string   `json:"code"`
	Name                 string   `json:"name"`
	NameEs               string   `json:"name_es"`
	NameFr               string   `json:"name_fr"`
	Type                 string   `json:"type"`
	TotalMarineArea      float64  `json:"total_marine_area"`
	TotalTerrestrialArea float64  `json:"total_terrestrial_area"`
	Groups               []string `json:"groups"`
}

// UpsertLocations reconciles a batch of locations by code. Scalar fields
// are applied in a first pass so that every code in the batch has an id;
// group membership is wired in a second pass, which lets a country
// reference a region that appears later in the same batch.
func UpsertLocations(db *gorm.DB, records []LocationInput) (BulkResult, error) {
	var result BulkResult

	err := db.Transaction(func(tx *gorm.DB) error {
		index, err := BuildLocationIndex(tx)
		if err != nil {
			return err
		}

		type membership struct {
			id  uint64
			rec LocationInput
		}
		var pending []membership

		for i := range records {
			rec := records[i]

			if rec.Code == "" || rec.Name == "" {
				result.addError(rec, "Location code and name are required")
				continue
			}
			locationType := rec.Type
			if locationType == "" {
				locationType = "country"
			}

			if id, ok := index[rec.Code]; ok {
				updates := map[string]interface{}{
					"name":                   rec.Name,
					"name_es":                rec.NameEs,
					"name_fr":                rec.NameFr,
					"type":                   locationType,
					"total_marine_area":      rec.TotalMarineArea,
					"total_terrestrial_area": rec.TotalTerrestrialArea,
				}
				if err := tx.Model(&models.Location{}).
					Where("id = ?", id).Updates(updates).Error; err != nil {
					return err
				}
				result.Updated++
				if len(rec.Groups) > 0 {
					pending = append(pending, membership{id: id, rec: rec})
				}
				continue
			}

			location := models.Location{
				Code:                 rec.Code,
				Name:                 rec.Name,
				NameEs:               rec.NameEs,
				NameFr:               rec.NameFr,
				Type:                 locationType,
				TotalMarineArea:      rec.TotalMarineArea,
				TotalTerrestrialArea: rec.TotalTerrestrialArea,
			}
			if err := tx.Create(&location).Error; err != nil {
				return err
			}
			index[rec.Code] = location.ID
			result.Created++
			if len(rec.Groups) > 0 {
				pending = append(pending, membership{id: location.ID, rec: rec})
			}
		}

		// Second pass: every code created above is now in the index.
		for _, p := range pending {
			var groups []*models.Location
			for _, code := range p.rec.Groups {
				groupID, ok := index[code]
				if !ok {
					result.addError(p.rec, "Group '%s' not found", code)
					continue
				}
				groups = append(groups, &models.Location{ID: groupID})
			}
			location := models.Location{ID: p.id}
			if err := tx.Model(&location).Association("Groups").Replace(groups); err != nil {
				return err
			}
		}

		return nil
	})

	return result, err
}
