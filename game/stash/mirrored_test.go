package stash

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMirrored_Name(t *testing.T) {
	m := NewMirrored(nop(), NewFileStore(t.TempDir()), &memStore{})
	assert.Equal(t, "file+mem", m.Name())
}

func TestMirrored_SaveWritesEverywhere(t *testing.T) {
	primary, mirror := &memStore{}, &memStore{}
	m := NewMirrored(nop(), primary, mirror)
	require.NoError(t, m.Save(context.Background(), []Entry{{1, 1}}))
	assert.Equal(t, []Entry{{1, 1}}, primary.entries)
	assert.Equal(t, []Entry{{1, 1}}, mirror.entries)
}

func TestMirrored_MirrorFailureOnlyWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	primary := &memStore{}
	m := NewMirrored(zap.New(core), primary, &memStore{saveErr: errors.New("redis down")})

	require.NoError(t, m.Save(context.Background(), []Entry{{1, 1}}))
	assert.True(t, primary.saved)
	assert.Equal(t, 1, logs.FilterMessage("snapshot mirror save failed").Len())
}

func TestMirrored_PrimaryFailureIsReturned(t *testing.T) {
	mirror := &memStore{}
	m := NewMirrored(nop(), &memStore{saveErr: errors.New("disk full")}, mirror)
	assert.Error(t, m.Save(context.Background(), []Entry{{1, 1}}))
	assert.True(t, mirror.saved, "mirrors are still written")
}

func TestMirrored_LoadFallsBackToMirror(t *testing.T) {
	ctx := context.Background()
	mirror := &memStore{}
	require.NoError(t, mirror.Save(ctx, []Entry{{7, 7}}))

	m := NewMirrored(nop(), NewFileStore(t.TempDir()), &memStore{}, mirror)
	got, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{7, 7}}, got)
}

func TestMirrored_LoadPrefersPrimary(t *testing.T) {
	ctx := context.Background()
	primary, mirror := &memStore{}, &memStore{}
	require.NoError(t, primary.Save(ctx, []Entry{{1, 1}}))
	require.NoError(t, mirror.Save(ctx, []Entry{{2, 2}}))

	got, err := NewMirrored(nop(), primary, mirror).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{1, 1}}, got)
}

func TestMirrored_LoadNothingAnywhere(t *testing.T) {
	_, err := NewMirrored(nop(), &memStore{}, &memStore{}).Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}
