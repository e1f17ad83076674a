package services

import (
	"encoding/json"
	"log"
	"strconv"

	"github.com/conservetrack/conservedb/internal/models"
	"github.com/conservetrack/conservedb/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProtectedAreaRef identifies another protected area in a parent/children
// relation, either by stored id or by the upstream natural keys.
type ProtectedAreaRef struct {
	ID      uint64           `json:"id,omitempty"`
	WdpaID  types.FlexUint64 `json:"wdpaid,omitempty"`
	ZoneID  types.FlexUint64 `json:"zone_id,omitempty"`
	WdpaPID string           `json:"wdpa_pid,omitempty"`
	Name    string           `json:"name,omitempty"`
}

// ProtectedAreaInput is one imported protected area record. Taxonomy
// references are slugs; parent/children may point at areas created earlier
// or later in the same batch.
type ProtectedAreaInput struct {
	Name                   string             `json:"name"`
	Area                   float64            `json:"area"`
	BBox                   []float64          `json:"bbox"`
	Coverage               float64            `json:"coverage"`
	Year                   int                `json:"year"`
	WdpaID                 types.FlexUint64   `json:"wdpaid"`
	WdpaPID                string             `json:"wdpa_pid"`
	ZoneID                 types.FlexUint64   `json:"zone_id"`
	Location               string             `json:"location"`
	Environment            string             `json:"environment"`
	DataSource             string             `json:"data_source"`
	ProtectionStatus       string             `json:"protection_status"`
	IucnCategory           string             `json:"iucn_category"`
	MpaaEstablishmentStage string             `json:"mpaa_establishment_stage"`
	MpaaProtectionLevel    string             `json:"mpaa_protection_level"`
	Parent                 *ProtectedAreaRef  `json:"parent,omitempty"`
	Children               []ProtectedAreaRef `json:"children,omitempty"`
}

// paRef is a resolved-or-pending reference to a protected area row: either
// id is set (persisted), or key holds the natural key of a row expected to
// exist once the whole batch has been applied. Keeping the two shapes in
// one type avoids mixing numeric ids and natural keys in a single string
// map.
type paRef struct {
	id  uint64
	key string
}

// paLink is one parent assignment deferred to the reconciliation step.
type paLink struct {
	child  paRef
	parent paRef
	rec    ProtectedAreaInput
}

// paRow is the slice of a stored protected area needed for natural-key
// matching.
type paRow struct {
	ID      uint64
	Name    string
	WdpaID  uint64
	ZoneID  uint64
	WdpaPID string
}

func paZoneKey(wdpaID, zoneID uint64) string {
	return strconv.FormatUint(wdpaID, 10) + "-" + strconv.FormatUint(zoneID, 10)
}

func paPIDKey(wdpaID uint64, wdpaPID string) string {
	return strconv.FormatUint(wdpaID, 10) + "-" + wdpaPID
}

// UpsertProtectedAreas reconciles a batch of protected areas against the
// stored rows, matching on wdpaid+zone_id (or wdpaid+wdpa_pid). Scalar
// fields and direct taxonomy references are applied record by record;
// parent/children relations are collected as links and resolved in a
// single reconciliation step after the loop, so a child may precede its
// parent in the batch. Ambiguous partial-key matches are skipped with a
// warning rather than guessed at.
func UpsertProtectedAreas(db *gorm.DB, records []ProtectedAreaInput) (BulkResult, error) {
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
		dataSources, err := BuildSlugIndex(tx, &models.DataSource{})
		if err != nil {
			return err
		}
		statuses, err := BuildSlugIndex(tx, &models.ProtectionStatus{})
		if err != nil {
			return err
		}
		iucnCategories, err := BuildSlugIndex(tx, &models.IucnCategory{})
		if err != nil {
			return err
		}
		stages, err := BuildSlugIndex(tx, &models.MpaaEstablishmentStage{})
		if err != nil {
			return err
		}
		levels, err := BuildSlugIndex(tx, &models.MpaaProtectionLevel{})
		if err != nil {
			return err
		}

		byZone, byPID, err := protectedAreaIndex(tx)
		if err != nil {
			return err
		}

		// ids assigned in this batch, by natural key
		batchIDs := make(map[string]uint64)
		var links []paLink

		for i := range records {
			rec := records[i]

			if rec.Name == "" || rec.WdpaID == 0 {
				result.addError(rec, "Protected area name and wdpaid are required")
				continue
			}

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
			dataSourceID, ok := resolveOptionalSlug(dataSources, rec.DataSource)
			if !ok {
				result.addError(rec, "Data source '%s' not found", rec.DataSource)
				continue
			}
			statusID, ok := resolveOptionalSlug(statuses, rec.ProtectionStatus)
			if !ok {
				result.addError(rec, "Protection status '%s' not found", rec.ProtectionStatus)
				continue
			}
			iucnID, ok := resolveOptionalSlug(iucnCategories, rec.IucnCategory)
			if !ok {
				result.addError(rec, "Iucn category '%s' not found", rec.IucnCategory)
				continue
			}
			stageID, ok := resolveOptionalSlug(stages, rec.MpaaEstablishmentStage)
			if !ok {
				result.addError(rec, "Mpaa establishment stage '%s' not found", rec.MpaaEstablishmentStage)
				continue
			}
			levelID, ok := resolveOptionalSlug(levels, rec.MpaaProtectionLevel)
			if !ok {
				result.addError(rec, "Mpaa protection level '%s' not found", rec.MpaaProtectionLevel)
				continue
			}

			key := paZoneKey(rec.WdpaID.Uint64(), rec.ZoneID.Uint64())

			id, ok := batchIDs[key]
			if !ok {
				var ambiguous bool
				id, ambiguous = matchProtectedArea(byZone[key], rec.Name)
				if ambiguous {
					log.Printf("warning: multiple protected areas match %s and name %q does not disambiguate, skipping", key, rec.Name)
					result.addError(rec, "Multiple entries match wdpaid %d zone %d", rec.WdpaID.Uint64(), rec.ZoneID.Uint64())
					continue
				}
			}

			var selfRef paRef
			if id != 0 {
				// Mutable scalars only; taxonomy references stay as
				// imported originally.
				updates := map[string]interface{}{
					"area":     rec.Area,
					"coverage": rec.Coverage,
					"year":     rec.Year,
				}
				if rec.BBox != nil {
					bbox, err := json.Marshal(rec.BBox)
					if err != nil {
						return err
					}
					updates["bbox"] = models.JSON{JSON: datatypes.JSON(bbox)}
				}
				if err := tx.Model(&models.ProtectedArea{}).
					Where("id = ?", id).Updates(updates).Error; err != nil {
					return err
				}
				result.Updated++
				selfRef = paRef{id: id}
			} else {
				pa := models.ProtectedArea{
					Name:                     rec.Name,
					Area:                     rec.Area,
					Coverage:                 rec.Coverage,
					Year:                     rec.Year,
					WdpaID:                   rec.WdpaID.Uint64(),
					WdpaPID:                  rec.WdpaPID,
					ZoneID:                   rec.ZoneID.Uint64(),
					LocationID:               locationID,
					EnvironmentID:            environmentID,
					DataSourceID:             dataSourceID,
					ProtectionStatusID:       statusID,
					IucnCategoryID:           iucnID,
					MpaaEstablishmentStageID: stageID,
					MpaaProtectionLevelID:    levelID,
				}
				if rec.BBox != nil {
					bbox, err := json.Marshal(rec.BBox)
					if err != nil {
						return err
					}
					pa.BBox = models.JSON{JSON: datatypes.JSON(bbox)}
				}
				if err := tx.Create(&pa).Error; err != nil {
					return err
				}
				batchIDs[key] = pa.ID
				if rec.WdpaPID != "" {
					batchIDs[paPIDKey(rec.WdpaID.Uint64(), rec.WdpaPID)] = pa.ID
				}
				result.Created++
				selfRef = paRef{id: pa.ID}
			}

			if rec.Parent != nil {
				parentRef, errMsg := resolvePARef(*rec.Parent, batchIDs, byZone, byPID)
				if errMsg != "" {
					result.addError(rec, "%s", errMsg)
				} else {
					links = append(links, paLink{child: selfRef, parent: parentRef, rec: rec})
				}
			}
			for _, child := range rec.Children {
				childRef, errMsg := resolvePARef(child, batchIDs, byZone, byPID)
				if errMsg != "" {
					result.addError(rec, "%s", errMsg)
				} else {
					links = append(links, paLink{child: childRef, parent: selfRef, rec: rec})
				}
			}
		}

		// Reconciliation: every row created in this batch now has an id, so
		// pending refs resolve through batchIDs regardless of input order.
		for _, link := range links {
			childID := link.child.id
			if childID == 0 {
				childID = batchIDs[link.child.key]
			}
			parentID := link.parent.id
			if parentID == 0 {
				parentID = batchIDs[link.parent.key]
			}
			if childID == 0 || parentID == 0 {
				result.addError(link.rec, "Related protected area '%s' not found", pendingKey(link))
				continue
			}
			if err := tx.Model(&models.ProtectedArea{}).
				Where("id = ?", childID).
				Update("parent_id", parentID).Error; err != nil {
				return err
			}
		}

		return nil
	})

	return result, err
}

// DeleteProtectedAreas removes the given ids, detaching children first so
// the self-referential foreign key does not block the delete. Ids that do
// not exist are reported back rather than failing the batch.
func DeleteProtectedAreas(db *gorm.DB, ids []uint64) (deleted, failed []uint64, err error) {
	err = db.Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			if err := tx.Model(&models.ProtectedArea{}).
				Where("parent_id = ?", id).
				Update("parent_id", nil).Error; err != nil {
				return err
			}
			res := tx.Delete(&models.ProtectedArea{}, id)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				failed = append(failed, id)
			} else {
				deleted = append(deleted, id)
			}
		}
		return nil
	})
	return deleted, failed, err
}

// protectedAreaIndex loads the natural-key slice of every stored protected
// area, keyed both by wdpaid-zone_id and wdpaid-wdpa_pid. Values are slices
// because partial keys can legitimately match several rows.
func protectedAreaIndex(tx *gorm.DB) (byZone, byPID map[string][]paRow, err error) {
	var rows []paRow
	if err := tx.Model(&models.ProtectedArea{}).
		Select("id", "name", "wdpa_id", "zone_id", "wdpa_p_id").
		Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	byZone = make(map[string][]paRow, len(rows))
	byPID = make(map[string][]paRow)
	for _, r := range rows {
		zoneKey := paZoneKey(r.WdpaID, r.ZoneID)
		byZone[zoneKey] = append(byZone[zoneKey], r)
		if r.WdpaPID != "" {
			pidKey := paPIDKey(r.WdpaID, r.WdpaPID)
			byPID[pidKey] = append(byPID[pidKey], r)
		}
	}
	return byZone, byPID, nil
}

// matchProtectedArea picks the stored row a record refers to. A single
// candidate wins outright; several candidates fall back to an exact name
// match, and anything still unresolved is ambiguous.
func matchProtectedArea(candidates []paRow, name string) (id uint64, ambiguous bool) {
	switch len(candidates) {
	case 0:
		return 0, false
	case 1:
		return candidates[0].ID, false
	}

	if name != "" {
		var matched uint64
		count := 0
		for _, c := range candidates {
			if c.Name == name {
				matched = c.ID
				count++
			}
		}
		if count == 1 {
			return matched, false
		}
	}
	return 0, true
}

// resolvePARef turns a wire-level reference into a paRef. References to
// rows that are neither stored nor created yet stay pending on their
// natural key for the reconciliation step.
func resolvePARef(ref ProtectedAreaRef, batchIDs map[string]uint64, byZone, byPID map[string][]paRow) (paRef, string) {
	if ref.ID != 0 {
		return paRef{id: ref.ID}, ""
	}

	wdpaID := ref.WdpaID.Uint64()
	if wdpaID == 0 {
		return paRef{}, "Protected area reference is missing identifiers"
	}

	var key string
	var candidates []paRow
	if zoneID := ref.ZoneID.Uint64(); zoneID != 0 {
		key = paZoneKey(wdpaID, zoneID)
		candidates = byZone[key]
	} else if ref.WdpaPID != "" {
		key = paPIDKey(wdpaID, ref.WdpaPID)
		candidates = byPID[key]
	} else {
		key = paZoneKey(wdpaID, 0)
		candidates = byZone[key]
	}

	if id, ok := batchIDs[key]; ok {
		return paRef{id: id}, ""
	}

	id, ambiguous := matchProtectedArea(candidates, ref.Name)
	if ambiguous {
		log.Printf("warning: multiple protected areas match reference %s, skipping relation", key)
		return paRef{}, "Multiple entries match protected area reference " + key
	}
	if id != 0 {
		return paRef{id: id}, ""
	}
	return paRef{key: key}, ""
}

func pendingKey(link paLink) string {
	if link.child.id == 0 {
		return link.child.key
	}
	return link.parent.key
}
