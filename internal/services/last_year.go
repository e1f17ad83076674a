package services

import (
	"fmt"
	"log"
	"time"

	"github.com/conservetrack/conservedb/internal/models"
	"gorm.io/gorm"
)

// maintainLastYear keeps at most one coverage stat flagged current per
// (location, environment) pair. It runs after an INSERT only; updates
// preserve the existing flag.
//
// With no current row, only data for the present calendar year starts a
// pointer: backfilled history stays unflagged. With one current row, the
// flag moves only when the new year is strictly newer. More than one
// current row means prior corruption; the condition is logged and reported
// as a warning rather than guessing which row to unset.
func maintainLastYear(tx *gorm.DB, locationID, environmentID, newID uint64, year int) (string, error) {
	var current []models.ProtectionCoverageStat
	if err := tx.Select("id", "year").
		Where("location_id = ? AND environment_id = ? AND is_last_year = ? AND id <> ?",
			locationID, environmentID, true, newID).
		Find(&current).Error; err != nil {
		return "", err
	}

	switch len(current) {
	case 0:
		if year != time.Now().Year() {
			return "", nil
		}
		return "", setLastYear(tx, newID, true)

	case 1:
		if year <= current[0].Year {
			return "", nil
		}
		if err := setLastYear(tx, current[0].ID, false); err != nil {
			return "", err
		}
		return "", setLastYear(tx, newID, true)

	default:
		msg := fmt.Sprintf("found %d current-year rows for location %d environment %d, flag left untouched",
			len(current), locationID, environmentID)
		log.Printf("warning: %s", msg)
		return msg, nil
	}
}

func setLastYear(tx *gorm.DB, id uint64, flag bool) error {
	return tx.Model(&models.ProtectionCoverageStat{}).
		Where("id = ?", id).
		Update("is_last_year", flag).Error
}
