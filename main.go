package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/stashcount/api/rest"
	"github.com/kasuganosora/stashcount/api/sse"
	"github.com/kasuganosora/stashcount/api/ws"
	"github.com/kasuganosora/stashcount/audit"
	"github.com/kasuganosora/stashcount/cache"
	"github.com/kasuganosora/stashcount/config"
	dbadapter "github.com/kasuganosora/stashcount/db"
	"github.com/kasuganosora/stashcount/game/item"
	"github.com/kasuganosora/stashcount/game/ownership"
	"github.com/kasuganosora/stashcount/game/stash"
	mw "github.com/kasuganosora/stashcount/middleware"
	"github.com/kasuganosora/stashcount/model"
	"github.com/kasuganosora/stashcount/plugin/hook"
	"github.com/kasuganosora/stashcount/resource"
	"github.com/kasuganosora/stashcount/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const (
	mirrorDatabase = "database"
	mirrorCache    = "cache"
	snapshotName   = "storage"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Database ----
	// Only opened when something persists to it.
	var db *gorm.DB
	if cfg.Journal.Enabled || slices.Contains(cfg.Stash.Mirrors, mirrorDatabase) {
		db, err = dbadapter.Open(cfg.Database)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		if err := model.AutoMigrate(db); err != nil {
			log.Fatalf("db migrate: %v", err)
		}
		logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))
	}

	// ---- Journal ----
	var journal *audit.Service
	if cfg.Journal.Enabled {
		journal = audit.New(db, audit.Config{
			FlushInterval: cfg.Journal.FlushInterval,
			BatchSize:     cfg.Journal.BatchSize,
		}, logger)
		defer journal.Stop(context.Background())
	}

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	defer c.Close()
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Host world ----
	world := resource.NewWorld(cfg.Host.WorldPath, logger)
	if err := world.Load(); err != nil {
		logger.Warn("world load failed; every container is unavailable until reload", zap.Error(err))
	}

	// ---- Storage snapshot ----
	var mirrors []stash.Store
	for _, name := range cfg.Stash.Mirrors {
		switch name {
		case mirrorDatabase:
			mirrors = append(mirrors, stash.NewDBStore(db, snapshotName))
		case mirrorCache:
			mirrors = append(mirrors, stash.NewCacheStore(c, "stash:"+snapshotName))
		default:
			logger.Warn("unknown stash mirror ignored", zap.String("mirror", name))
		}
	}
	var store stash.Store = stash.NewFileStore(cfg.Stash.DataDir)
	if len(mirrors) > 0 {
		store = stash.NewMirrored(logger, store, mirrors...)
	}

	counter := item.NewCounter(cfg.Stash.MaxDepth, logger)
	events := ownership.NewEventPublisher(pubsub, logger)
	snapOpts := []stash.Option{stash.WithCounter(counter), stash.WithObserver(events.Observe)}
	if journal != nil {
		snapOpts = append(snapOpts, stash.WithObserver(journal.Observer()))
	}
	snapshot := stash.NewSnapshot(store, logger, snapOpts...)

	// ---- Ownership module ----
	hover := &ownership.HoverState{}
	presenter := ownership.Presenters{hover, events, ownership.LogPresenter{Logger: logger}}
	agg := ownership.NewAggregator(world.Resolvers(), snapshot, counter, presenter, logger)

	hooks := hook.NewHookCenter()
	module := ownership.NewModule(agg, hooks, logger)
	if err := module.Start(ctx); err != nil {
		log.Fatalf("ownership module: %v", err)
	}
	defer module.Stop(context.Background())

	go func() {
		if err := ownership.NewBridge(pubsub, hooks, logger).Run(ctx, nil); err != nil {
			logger.Error("host event bridge stopped", zap.Error(err))
		}
	}()

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()
	if cfg.Stash.FlushInterval > 0 {
		if err := sched.Every(ownership.FlushTask, cfg.Stash.FlushInterval, module.Flush); err != nil {
			log.Fatalf("scheduler: %v", err)
		}
	}

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := mw.NewRateLimiter(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst)
	go limiter.Run(ctx, 5*time.Minute, 10*time.Minute)

	whitelist, err := mw.IPWhitelist(cfg.Server.AdminIPs)
	if err != nil {
		log.Fatalf("server.admin_ips: %v", err)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(limiter.Middleware())

	// ---- Host WebSocket ----
	wsRouter := ws.NewRouter(logger)
	ws.NewHostHandlers(pubsub, logger).RegisterHandlers(wsRouter)

	// ---- Routes ----
	apirest.Handlers{
		Ownership: apirest.NewOwnershipHandler(agg, hover),
		Host:      apirest.NewHostHandler(world, pubsub, logger),
		Admin:     apirest.NewAdminHandler(module, sched, journal, logger),
		Events:    sse.NewHandler(pubsub, snapshot, logger),
		HostWS:    ws.NewHandler(wsRouter, cfg.Server.AllowedOrigins, logger),
	}.Register(r, whitelist, mw.AdminAuth(cfg.Server.AdminKey))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
	}()

	logger.Info("Server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server", zap.Error(err))
	}
	logger.Info("shutting down")
}
