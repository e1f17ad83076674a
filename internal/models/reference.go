package models

import "time"

// Location is the geographic unit statistics are keyed on. Code is the
// natural key used by bulk imports (ISO-style country code, region slug,
// or the special GLOB/ABNJ entries).
type Location struct {
	ID                   uint64 `gorm:"primaryKey;autoIncrement"`
	Code                 string `gorm:"uniqueIndex;size:32;not null"`
	Name                 string `gorm:"size:255;not null"`
	NameEs               string `gorm:"size:255"`
	NameFr               string `gorm:"size:255"`
	Type                 string `gorm:"size:32;not null"` // country, region, territory, worldwide, highseas
	TotalMarineArea      float64
	TotalTerrestrialArea float64
	CreatedAt            time.Time
	UpdatedAt            time.Time

	// Groups are the locations this location is a member of (e.g. a country
	// inside a region); Members is the inverse side of the same join table.
	Groups  []*Location `gorm:"many2many:location_groups;joinForeignKey:member_id;joinReferences:group_id"`
	Members []*Location `gorm:"many2many:location_groups;joinForeignKey:group_id;joinReferences:member_id"`
}

// Environment distinguishes the marine and terrestrial statistic axes.
type Environment struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Slug      string `gorm:"uniqueIndex;size:64;not null"`
	Name      string `gorm:"size:255;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Habitat is a habitat taxonomy entry (seagrasses, mangroves, ...).
type Habitat struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Slug      string `gorm:"uniqueIndex;size:64;not null"`
	Name      string `gorm:"size:255;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MpaaProtectionLevel is the MPA-Atlas protection level taxonomy.
type MpaaProtectionLevel struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Slug      string `gorm:"uniqueIndex;size:64;not null"`
	Name      string `gorm:"size:255;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FishingProtectionLevel is the fishing protection level taxonomy.
type FishingProtectionLevel struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Slug      string `gorm:"uniqueIndex;size:64;not null"`
	Name      string `gorm:"size:255;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProtectionStatus is the designation status taxonomy for protected areas.
type ProtectionStatus struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Slug      string `gorm:"uniqueIndex;size:64;not null"`
	Name      string `gorm:"size:255;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IucnCategory is the IUCN management category taxonomy.
type IucnCategory struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Slug      string `gorm:"uniqueIndex;size:64;not null"`
	Name      string `gorm:"size:255;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MpaaEstablishmentStage is the MPA-Atlas establishment stage taxonomy.
type MpaaEstablishmentStage struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Slug      string `gorm:"uniqueIndex;size:64;not null"`
	Name      string `gorm:"size:255;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DataSource identifies where imported records originate (protected planet,
// mpatlas, protected seas).
type DataSource struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Slug      string `gorm:"uniqueIndex;size:64;not null"`
	Title     string `gorm:"size:255;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the table name for ProtectionStatus, which GORM would
// otherwise pluralize as protection_status.
func (ProtectionStatus) TableName() string {
	return "protection_statuses"
}
