package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/nulzo/model-orchestrator/internal/store"
	"github.com/nulzo/model-orchestrator/internal/store/model"
	"go.uber.org/zap"
)

// Ingestor handles the asynchronous persistence of dispatch logs. Its worker
// is owned by the process lifecycle: Start spawns it, Stop drains it.
type Ingestor interface {
	Log(log *model.DispatchLog)
	Start(ctx context.Context)
	Stop()
}

type ingestor struct {
	logger    *zap.Logger
	repo      store.Repository
	logChan   chan *model.DispatchLog
	quit      chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
	batchSize int
	flushTime time.Duration
}

func NewIngestor(logger *zap.Logger, repo store.Repository) Ingestor {
	return &ingestor{
		logger:    logger,
		repo:      repo,
		logChan:   make(chan *model.DispatchLog, 10000),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		batchSize: 50,
		flushTime: 5 * time.Second,
	}
}

// Log enqueues one record without blocking the routing path. Records arriving
// after Stop, or while the buffer is full, are dropped.
func (i *ingestor) Log(log *model.DispatchLog) {
	select {
	case <-i.quit:
		return
	default:
	}

	select {
	case i.logChan <- log:
	default:
		i.logger.Warn("Analytics buffer full, dropping log", zap.String("request_id", log.ID))
	}
}

func (i *ingestor) Start(ctx context.Context) {
	go i.worker(ctx)
}

// Stop signals the worker and waits for it to drain the buffer. Safe to call
// more than once, and concurrent Log calls never panic on a closed channel.
func (i *ingestor) Stop() {
	i.stopOnce.Do(func() {
		close(i.quit)
		<-i.done
	})
}

func (i *ingestor) worker(ctx context.Context) {
	defer close(i.done)

	batch := make([]*model.DispatchLog, 0, i.batchSize)
	ticker := time.NewTicker(i.flushTime)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		for _, log := range batch {
			if err := i.repo.Dispatches().Log(context.Background(), log); err != nil {
				i.logger.Error("Failed to persist dispatch log", zap.String("id", log.ID), zap.Error(err))
			}
		}
		batch = batch[:0]
	}

	drain := func() {
		for {
			select {
			case log := <-i.logChan:
				batch = append(batch, log)
			default:
				flush()
				return
			}
		}
	}

	for {
		select {
		case log := <-i.logChan:
			batch = append(batch, log)
			if len(batch) >= i.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-i.quit:
			drain()
			return
		case <-ctx.Done():
			drain()
			return
		}
	}
}

// NopIngestor discards logs; used when persistence is disabled and in tests.
type NopIngestor struct{}

func (NopIngestor) Log(*model.DispatchLog) {}
func (NopIngestor) Start(context.Context)  {}
func (NopIngestor) Stop()                  {}
