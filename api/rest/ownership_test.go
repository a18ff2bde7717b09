package rest_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCount(t *testing.T) {
	e := newEnv(t, false)
	w := e.get("/api/items/1/count")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, float64(1), resp["type_id"])
	assert.Equal(t, float64(2), resp["player"])
	assert.Equal(t, float64(7), resp["storage"])
	assert.Equal(t, float64(1), resp["companion"])
	assert.Equal(t, float64(10), resp["total"])
}

func TestCount_InvalidTypeID(t *testing.T) {
	e := newEnv(t, false)
	assert.Equal(t, http.StatusBadRequest, e.get("/api/items/abc/count").Code)
}

func TestCount_OutOfZoneUsesSnapshot(t *testing.T) {
	e := newEnv(t, false)
	require.Equal(t, http.StatusOK, e.get("/api/items/1/count").Code)

	require.Equal(t, http.StatusOK, e.post("/api/host/zone", `{"in_zone": false}`).Code)
	resp := decode(t, e.get("/api/items/1/count"))
	assert.Equal(t, float64(7), resp["storage"])
}

func TestStash(t *testing.T) {
	e := newEnv(t, false)
	resp := decode(t, e.get("/api/stash"))
	assert.Equal(t, false, resp["valid"])
	assert.Equal(t, "file", resp["store"])

	e.get("/api/items/1/count")
	resp = decode(t, e.get("/api/stash"))
	assert.Equal(t, true, resp["valid"])
	assert.Equal(t, "save-1", resp["source"])
	entries := resp["entries"].([]interface{})
	require.Len(t, entries, 1)
}

func TestHover_Idle(t *testing.T) {
	e := newEnv(t, false)
	resp := decode(t, e.get("/api/hover"))
	assert.Equal(t, false, resp["active"])
}

func TestHealth(t *testing.T) {
	e := newEnv(t, false)
	w := e.get("/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}
