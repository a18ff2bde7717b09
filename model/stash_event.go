package model

import (
	"time"

	"gorm.io/datatypes"
)

// Stash event kinds recorded in the transition journal.
const (
	StashEventLoaded      = "loaded"
	StashEventRebuilt     = "rebuilt"
	StashEventPreserved   = "preserved"
	StashEventInvalidated = "invalidated"
	StashEventSaved       = "saved"
)

// StashEvent records one state transition of the storage snapshot.
type StashEvent struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID     string         `gorm:"index:idx_stash_event_run;size:36" json:"run_id"` // one per process
	Kind      string         `gorm:"size:32;not null" json:"kind"`
	Source    string         `gorm:"size:128" json:"source"`
	Valid     bool           `json:"valid"`
	Entries   int            `json:"entries"`
	Detail    datatypes.JSON `json:"detail"`
	Error     string         `gorm:"type:text" json:"error"`
	CreatedAt time.Time      `gorm:"index:idx_stash_event_created;autoCreateTime:milli" json:"created_at"`
}
