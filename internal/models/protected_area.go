package models

import "time"

// ProtectedArea is one imported protected area (or a zone of one). WdpaID,
// ZoneID and WdpaPID come from the upstream datasets and together form the
// natural keys bulk imports match on; ParentID links zones to their parent
// area within the same table.
type ProtectedArea struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	Name     string `gorm:"size:255;not null"`
	Area     float64
	BBox     JSON `gorm:"column:bbox"`
	Coverage float64
	Year     int
	WdpaID   uint64 `gorm:"index:idx_pas_wdpa"`
	WdpaPID  string `gorm:"size:64;index"`
	ZoneID   uint64 `gorm:"index:idx_pas_wdpa"`

	ParentID *uint64
	Parent   *ProtectedArea  `gorm:"foreignKey:ParentID"`
	Children []ProtectedArea `gorm:"foreignKey:ParentID"`

	LocationID               uint64 `gorm:"not null;index"`
	EnvironmentID            uint64 `gorm:"not null"`
	DataSourceID             *uint64
	ProtectionStatusID       *uint64
	IucnCategoryID           *uint64
	MpaaEstablishmentStageID *uint64
	MpaaProtectionLevelID    *uint64

	CreatedAt time.Time
	UpdatedAt time.Time

	Location    Location
	Environment Environment
}

// TableName overrides the table name for ProtectedArea.
func (ProtectedArea) TableName() string {
	return "protected_areas"
}
