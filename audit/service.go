package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kasuganosora/stashcount/game/stash"
	"github.com/kasuganosora/stashcount/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const queueSize = 1024

// Config tunes the batch writer.
type Config struct {
	FlushInterval time.Duration
	BatchSize     int
}

// Service journals storage snapshot transitions to the stash_events table.
// Records are queued and written in batches by a background worker; when the
// queue is full new records are dropped with a warning.
type Service struct {
	db        *gorm.DB
	runID     string
	ch        chan *model.StashEvent
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	interval  time.Duration
	batchSize int
	logger    *zap.Logger
}

// New creates a Service and starts its background worker.
func New(db *gorm.DB, cfg Config, logger *zap.Logger) *Service {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	svc := &Service{
		db:        db,
		runID:     uuid.New().String(),
		ch:        make(chan *model.StashEvent, queueSize),
		stopCh:    make(chan struct{}),
		interval:  cfg.FlushInterval,
		batchSize: cfg.BatchSize,
		logger:    logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// RunID identifies the events written by this process.
func (svc *Service) RunID() string { return svc.runID }

// Observer returns a snapshot observer that records every transition.
func (svc *Service) Observer() stash.Observer {
	return svc.Record
}

// Record enqueues one transition.
func (svc *Service) Record(t stash.Transition) {
	detail, _ := json.Marshal(map[string]string{"store": t.Store})
	ev := &model.StashEvent{
		RunID:   svc.runID,
		Kind:    t.Kind,
		Source:  t.Source,
		Valid:   t.Valid,
		Entries: t.Entries,
		Detail:  datatypes.JSON(detail),
	}
	if t.Err != nil {
		ev.Error = t.Err.Error()
	}

	select {
	case <-svc.stopCh:
		return
	default:
	}
	select {
	case svc.ch <- ev:
	default:
		svc.logger.Warn("stash journal queue full, dropping event",
			zap.String("kind", t.Kind))
	}
}

// Recent returns up to limit events, newest first.
func (svc *Service) Recent(ctx context.Context, limit int) ([]model.StashEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []model.StashEvent
	err := svc.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}

// Stop flushes queued events and waits for the worker to exit.
func (svc *Service) Stop(_ context.Context) {
	svc.stopOnce.Do(func() { close(svc.stopCh) })
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(svc.interval)
	defer ticker.Stop()

	batch := make([]*model.StashEvent, 0, svc.batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("stash journal write failed",
				zap.Int("events", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case ev := <-svc.ch:
			batch = append(batch, ev)
			if len(batch) >= svc.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			for {
				select {
				case ev := <-svc.ch:
					batch = append(batch, ev)
				default:
					flush()
					return
				}
			}
		}
	}
}
