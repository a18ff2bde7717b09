package stash

import (
	"context"
	"errors"
	"fmt"

	"github.com/kasuganosora/stashcount/model"
	"gorm.io/gorm"
)

// DBStore mirrors the snapshot into the stash_entries table.
type DBStore struct {
	db   *gorm.DB
	name string
}

// NewDBStore creates a DBStore for the snapshot called name.
func NewDBStore(db *gorm.DB, name string) *DBStore {
	return &DBStore{db: db, name: name}
}

func (s *DBStore) Name() string { return "database" }

// Save replaces the stored rows in one transaction.
func (s *DBStore) Save(ctx context.Context, entries []Entry) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("snapshot = ?", s.name).Delete(&model.StashEntry{}).Error; err != nil {
			return fmt.Errorf("stash: clear rows: %w", err)
		}
		if len(entries) > 0 {
			rows := make([]model.StashEntry, len(entries))
			for i, e := range entries {
				rows[i] = model.StashEntry{Snapshot: s.name, Seq: i, TypeID: e.TypeID, Count: e.Count}
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("stash: insert rows: %w", err)
			}
		}
		return tx.Save(&model.StashSnapshot{Name: s.name, Entries: len(entries)}).Error
	})
}

// Load returns the stored rows in insertion order.
func (s *DBStore) Load(ctx context.Context) ([]Entry, error) {
	db := s.db.WithContext(ctx)
	var hdr model.StashSnapshot
	if err := db.Where("name = ?", s.name).First(&hdr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}
	var rows []model.StashEntry
	if err := db.Where("snapshot = ?", s.name).Order("seq").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, Entry{TypeID: r.TypeID, Count: r.Count})
	}
	return out, nil
}
