package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	apirest "github.com/kasuganosora/stashcount/api/rest"
	"github.com/kasuganosora/stashcount/api/sse"
	"github.com/kasuganosora/stashcount/api/ws"
	"github.com/kasuganosora/stashcount/audit"
	"github.com/kasuganosora/stashcount/cache"
	"github.com/kasuganosora/stashcount/game/item"
	"github.com/kasuganosora/stashcount/game/ownership"
	"github.com/kasuganosora/stashcount/game/stash"
	mw "github.com/kasuganosora/stashcount/middleware"
	"github.com/kasuganosora/stashcount/plugin/hook"
	"github.com/kasuganosora/stashcount/resource"
	"github.com/kasuganosora/stashcount/scheduler"
	"github.com/kasuganosora/stashcount/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const AdminKey = "integration-admin-key"

// Backend is the state that outlives one server instance: the mod data
// directory, the database and the cache. Restarting a server over the same
// Backend simulates a game restart.
type Backend struct {
	DataDir   string
	WorldPath string
	DB        *gorm.DB
	Cache     cache.Cache
	PubSub    cache.PubSub
}

// NewBackend creates fresh persistent state with the given world fixture.
func NewBackend(t *testing.T, worldJSON string) *Backend {
	t.Helper()
	b := &Backend{
		DataDir:   t.TempDir(),
		WorldPath: filepath.Join(t.TempDir(), "world.json"),
		DB:        testutil.SetupTestDB(t),
	}
	b.Cache, b.PubSub = testutil.SetupTestCache(t)
	b.WriteWorld(t, worldJSON)
	return b
}

// WriteWorld replaces the world fixture on disk.
func (b *Backend) WriteWorld(t *testing.T, worldJSON string) {
	t.Helper()
	require.NoError(t, os.WriteFile(b.WorldPath, []byte(worldJSON), 0o644))
}

// TestServer wraps a real HTTP server with the ownership stack wired the way
// main.go wires it, with the database and cache mirrors and the journal on.
type TestServer struct {
	Backend *Backend
	Module  *ownership.Module
	Journal *audit.Service
	Sched   *scheduler.Scheduler
	Server  *httptest.Server
	URL     string

	cancel  context.CancelFunc
	stopped bool
}

// NewTestServer starts a server over b. It is stopped at test cleanup unless
// Stop was called first.
func NewTestServer(t *testing.T, b *Backend) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	ctx, cancel := context.WithCancel(context.Background())

	world := resource.NewWorld(b.WorldPath, logger)
	require.NoError(t, world.Load())

	journal := audit.New(b.DB, audit.Config{FlushInterval: 20 * time.Millisecond}, logger)
	store := stash.NewMirrored(logger,
		stash.NewFileStore(b.DataDir),
		stash.NewDBStore(b.DB, "storage"),
		stash.NewCacheStore(b.Cache, "stash:storage"),
	)
	counter := item.NewCounter(item.DefaultMaxDepth, logger)
	events := ownership.NewEventPublisher(b.PubSub, logger)
	snapshot := stash.NewSnapshot(store, logger, stash.WithCounter(counter),
		stash.WithObserver(journal.Observer()), stash.WithObserver(events.Observe))

	hover := &ownership.HoverState{}
	agg := ownership.NewAggregator(world.Resolvers(), snapshot, counter,
		ownership.Presenters{hover, events}, logger)
	hooks := hook.NewHookCenter()
	module := ownership.NewModule(agg, hooks, logger)
	require.NoError(t, module.Start(ctx))

	ready := make(chan struct{})
	go func() { _ = ownership.NewBridge(b.PubSub, hooks, logger).Run(ctx, ready) }()
	<-ready

	sched := scheduler.New(logger)
	require.NoError(t, sched.Every(ownership.FlushTask, time.Hour, module.Flush))

	wsRouter := ws.NewRouter(logger)
	ws.NewHostHandlers(b.PubSub, logger).RegisterHandlers(wsRouter)

	r := gin.New()
	r.Use(mw.TraceID(), mw.Recovery(logger))
	r.Use(mw.NewRateLimiter(rate.Limit(1000), 2000).Middleware())
	apirest.Handlers{
		Ownership: apirest.NewOwnershipHandler(agg, hover),
		Host:      apirest.NewHostHandler(world, b.PubSub, logger),
		Admin:     apirest.NewAdminHandler(module, sched, journal, logger),
		Events:    sse.NewHandler(b.PubSub, snapshot, logger),
		HostWS:    ws.NewHandler(wsRouter, nil, logger),
	}.Register(r, mw.AdminAuth(AdminKey))

	srv := httptest.NewServer(r)
	ts := &TestServer{
		Backend: b,
		Module:  module,
		Journal: journal,
		Sched:   sched,
		Server:  srv,
		URL:     srv.URL,
		cancel:  cancel,
	}
	t.Cleanup(ts.Stop)
	return ts
}

// Stop shuts the server down in main.go's order: HTTP, scheduler, module
// (final flush), bridge, journal.
func (ts *TestServer) Stop() {
	if ts.stopped {
		return
	}
	ts.stopped = true
	ts.Server.Close()
	ts.Sched.Stop()
	ts.Module.Stop(context.Background())
	ts.cancel()
	ts.Journal.Stop(context.Background())
}

// ---- HTTP helpers ----

func (ts *TestServer) do(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var rd io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(v)
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(mw.AdminKeyHeader, AdminKey)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

// Get performs an authenticated GET.
func (ts *TestServer) Get(t *testing.T, path string) (int, map[string]interface{}) {
	return ts.do(t, http.MethodGet, path, nil)
}

// Post performs an authenticated POST with a JSON body.
func (ts *TestServer) Post(t *testing.T, path string, body interface{}) (int, map[string]interface{}) {
	return ts.do(t, http.MethodPost, path, body)
}

// Count returns the per-role counts for typeID.
func (ts *TestServer) Count(t *testing.T, typeID int) (player, storage, companion int) {
	t.Helper()
	code, resp := ts.Get(t, "/api/items/"+strconv.Itoa(typeID)+"/count")
	require.Equal(t, http.StatusOK, code)
	return int(resp["player"].(float64)), int(resp["storage"].(float64)), int(resp["companion"].(float64))
}

// SetZone moves the player into or out of the storage zone.
func (ts *TestServer) SetZone(t *testing.T, in bool) {
	t.Helper()
	code, _ := ts.Post(t, "/api/host/zone", map[string]bool{"in_zone": in})
	require.Equal(t, http.StatusOK, code)
}

// DialHost opens the host WebSocket with the admin key.
func (ts *TestServer) DialHost(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/host"
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{mw.AdminKeyHeader: {AdminKey}})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}
