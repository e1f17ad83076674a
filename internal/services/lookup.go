package services

import (
	"github.com/conservetrack/conservedb/internal/models"
	"gorm.io/gorm"
)

// BuildLocationIndex maps location codes to their ids. Only the two columns
// are selected; reference tables can be large and the upserts never need
// the rest. The index is rebuilt per request since reference data may
// change between batches.
func BuildLocationIndex(db *gorm.DB) (map[string]uint64, error) {
	type row struct {
		ID   uint64
		Code string
	}
	var rows []row
	if err := db.Model(&models.Location{}).Select("id", "code").Find(&rows).Error; err != nil {
		return nil, err
	}

	index := make(map[string]uint64, len(rows))
	for _, r := range rows {
		index[r.Code] = r.ID
	}
	return index, nil
}

// BuildSlugIndex maps a slug-keyed reference table (environments, habitats,
// protection level and status taxonomies, data sources) to its ids.
func BuildSlugIndex(db *gorm.DB, model interface{}) (map[string]uint64, error) {
	type row struct {
		ID   uint64
		Slug string
	}
	var rows []row
	if err := db.Model(model).Select("id", "slug").Find(&rows).Error; err != nil {
		return nil, err
	}

	index := make(map[string]uint64, len(rows))
	for _, r := range rows {
		index[r.Slug] = r.ID
	}
	return index, nil
}

// invertIndex flips a natural-key index into an id-keyed one, used when
// composite keys must be reconstructed from stored foreign keys.
func invertIndex(index map[string]uint64) map[uint64]string {
	inverted := make(map[uint64]string, len(index))
	for key, id := range index {
		inverted[id] = key
	}
	return inverted
}

// resolveOptionalSlug resolves an optional taxonomy slug against its index.
// An empty slug is fine (the column stays NULL); a non-empty slug that is
// missing from the index reports ok=false so the caller can record a soft
// error.
func resolveOptionalSlug(index map[string]uint64, slug string) (*uint64, bool) {
	if slug == "" {
		return nil, true
	}
	id, ok := index[slug]
	if !ok {
		return nil, false
	}
	return &id, true
}
