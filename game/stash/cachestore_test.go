package stash_test

import (
	"context"
	"testing"

	"github.com/kasuganosora/stashcount/game/stash"
	"github.com/kasuganosora/stashcount/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheStore_LoadBeforeSave(t *testing.T) {
	c, _ := testutil.SetupTestCache(t)
	_, err := stash.NewCacheStore(c, "stash:storage").Load(context.Background())
	assert.ErrorIs(t, err, stash.ErrNoSnapshot)
}

func TestCacheStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := testutil.SetupTestCache(t)
	s := stash.NewCacheStore(c, "stash:storage")

	require.NoError(t, s.Save(ctx, []stash.Entry{{TypeID: 20, Count: 7}, {TypeID: 10, Count: 4}}))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []stash.Entry{{TypeID: 20, Count: 7}, {TypeID: 10, Count: 4}}, got)

	require.NoError(t, s.Save(ctx, []stash.Entry{{TypeID: 5, Count: 1}}))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []stash.Entry{{TypeID: 5, Count: 1}}, got)

	all, err := c.HGetAll(ctx, "stash:storage")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"5": "1"}, all, "stale fields are removed")
}

func TestCacheStore_EmptySnapshot(t *testing.T) {
	ctx := context.Background()
	c, _ := testutil.SetupTestCache(t)
	s := stash.NewCacheStore(c, "stash:storage")
	require.NoError(t, s.Save(ctx, nil))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCacheStore_SkipsCorruptFields(t *testing.T) {
	ctx := context.Background()
	c, _ := testutil.SetupTestCache(t)
	s := stash.NewCacheStore(c, "stash:storage")
	require.NoError(t, s.Save(ctx, []stash.Entry{{TypeID: 1, Count: 1}, {TypeID: 2, Count: 2}}))
	require.NoError(t, c.HSet(ctx, "stash:storage", "2", "oops"))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []stash.Entry{{TypeID: 1, Count: 1}}, got)
}
