package stash_test

import (
	"context"
	"testing"

	"github.com/kasuganosora/stashcount/game/stash"
	"github.com/kasuganosora/stashcount/model"
	"github.com/kasuganosora/stashcount/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBStore_LoadBeforeSave(t *testing.T) {
	s := stash.NewDBStore(testutil.SetupTestDB(t), "storage")
	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, stash.ErrNoSnapshot)
}

func TestDBStore_RoundTripKeepsOrder(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	s := stash.NewDBStore(db, "storage")

	require.NoError(t, s.Save(ctx, []stash.Entry{{TypeID: 20, Count: 7}, {TypeID: 10, Count: 4}}))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []stash.Entry{{TypeID: 20, Count: 7}, {TypeID: 10, Count: 4}}, got)

	// Overwrite replaces every row.
	require.NoError(t, s.Save(ctx, []stash.Entry{{TypeID: 1, Count: 1}}))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []stash.Entry{{TypeID: 1, Count: 1}}, got)

	var rows int64
	require.NoError(t, db.Model(&model.StashEntry{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestDBStore_EmptySnapshotIsNotMissing(t *testing.T) {
	ctx := context.Background()
	s := stash.NewDBStore(testutil.SetupTestDB(t), "storage")
	require.NoError(t, s.Save(ctx, nil))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDBStore_SnapshotsAreIsolatedByName(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	a := stash.NewDBStore(db, "a")
	b := stash.NewDBStore(db, "b")
	require.NoError(t, a.Save(ctx, []stash.Entry{{TypeID: 1, Count: 1}}))
	require.NoError(t, b.Save(ctx, []stash.Entry{{TypeID: 2, Count: 2}}))
	require.NoError(t, a.Save(ctx, []stash.Entry{{TypeID: 3, Count: 3}}))

	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []stash.Entry{{TypeID: 2, Count: 2}}, got)
}
