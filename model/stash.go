package model

import "time"

// StashSnapshot marks that a named snapshot has been persisted at least once,
// so an empty snapshot can be told apart from a missing one.
type StashSnapshot struct {
	Name      string    `gorm:"primaryKey;size:64" json:"name"`
	Entries   int       `json:"entries"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// StashEntry is one typeID=count line of a persisted snapshot.
type StashEntry struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Snapshot string `gorm:"index:idx_stash_entry_snapshot;size:64;not null" json:"snapshot"`
	Seq      int    `gorm:"not null" json:"seq"` // insertion order within the snapshot
	TypeID   int    `gorm:"not null" json:"type_id"`
	Count    int    `gorm:"not null" json:"count"`
}
