package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/stashcount/api/rest"
	"github.com/kasuganosora/stashcount/audit"
	"github.com/kasuganosora/stashcount/game/ownership"
	"github.com/kasuganosora/stashcount/game/stash"
	mw "github.com/kasuganosora/stashcount/middleware"
	"github.com/kasuganosora/stashcount/plugin/hook"
	"github.com/kasuganosora/stashcount/resource"
	"github.com/kasuganosora/stashcount/scheduler"
	"github.com/kasuganosora/stashcount/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const adminKey = "secret"

const worldJSON = `{
  "player": {"items": [{"type_id": 1, "stackable": true, "stack_count": 2}]},
  "companion": {"items": [{"type_id": 1}]},
  "storage": {"source": "save-1", "items": [{"type_id": 1, "stackable": true, "stack_count": 7}]},
  "in_zone": true
}`

type env struct {
	r         *gin.Engine
	world     *resource.World
	worldPath string
	dataDir   string
	module    *ownership.Module
	hover     *ownership.HoverState
	sched     *scheduler.Scheduler
	journal   *audit.Service
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newEnv(t *testing.T, withJournal bool) *env {
	t.Helper()
	log := zap.NewNop()
	e := &env{
		worldPath: filepath.Join(t.TempDir(), "world.json"),
		dataDir:   t.TempDir(),
		hover:     &ownership.HoverState{},
		sched:     scheduler.New(log),
	}
	t.Cleanup(e.sched.Stop)
	require.NoError(t, os.WriteFile(e.worldPath, []byte(worldJSON), 0o644))
	e.world = resource.NewWorld(e.worldPath, log)
	require.NoError(t, e.world.Load())

	var opts []stash.Option
	if withJournal {
		e.journal = audit.New(testutil.SetupTestDB(t), audit.Config{FlushInterval: 10 * time.Millisecond}, log)
		t.Cleanup(func() { e.journal.Stop(context.Background()) })
		opts = append(opts, stash.WithObserver(e.journal.Observer()))
	}
	snap := stash.NewSnapshot(stash.NewFileStore(e.dataDir), log, opts...)
	agg := ownership.NewAggregator(e.world.Resolvers(), snap, nil, e.hover, log)

	hc := hook.NewHookCenter()
	e.module = ownership.NewModule(agg, hc, log)
	require.NoError(t, e.module.Start(context.Background()))

	_, ps := testutil.SetupTestCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	go func() { _ = ownership.NewBridge(ps, hc, log).Run(ctx, ready) }()
	t.Cleanup(cancel)
	<-ready

	handlers := rest.Handlers{
		Ownership: rest.NewOwnershipHandler(agg, e.hover),
		Host:      rest.NewHostHandler(e.world, ps, log),
		Admin:     rest.NewAdminHandler(e.module, e.sched, e.journal, log),
	}
	r := gin.New()
	r.Use(mw.TraceID())
	handlers.Register(r, mw.AdminAuth(adminKey))
	e.r = r
	return e
}

func (e *env) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(mw.AdminKeyHeader, adminKey)
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func (e *env) post(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(mw.AdminKeyHeader, adminKey)
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
