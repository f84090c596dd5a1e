package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/devrev/timeline/internal/metrics"
	"github.com/devrev/timeline/internal/model"
	"github.com/devrev/timeline/internal/store"
	"github.com/devrev/timeline/internal/util/workerpool"
)

// RetentionService trims records whose start has aged past a configured
// horizon. Sweeps run on a ticker and fan out per scope through a worker
// pool. Trimming is a store-level range removal; no per-record change
// notifications are emitted.
type RetentionService struct {
	store    store.TimeOrderedStore
	scopes   []string
	maxAge   time.Duration
	interval time.Duration
	pool     *workerpool.WorkerPool
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewRetentionService creates a new retention service for the given scopes
func NewRetentionService(
	st store.TimeOrderedStore,
	scopes []string,
	maxAge time.Duration,
	interval time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *RetentionService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &RetentionService{
		store:    st,
		scopes:   scopes,
		maxAge:   maxAge,
		interval: interval,
		pool: workerpool.NewWorkerPool(&workerpool.Config{
			Name:       "retention",
			MaxWorkers: 4,
			QueueSize:  len(scopes)*2 + 1,
			Logger:     logger,
		}),
		metrics: m,
		logger:  logger,
	}
}

// Run sweeps on a ticker until the context is canceled
func (s *RetentionService) Run(ctx context.Context) {
	s.logger.Info("Starting retention sweeps",
		zap.Duration("max_age", s.maxAge),
		zap.Duration("interval", s.interval),
		zap.Int("scopes", len(s.scopes)))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Retention sweeps stopped")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("Retention sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep removes aged records from every configured scope, both record kinds,
// in parallel
func (s *RetentionService) Sweep(ctx context.Context) error {
	if s.maxAge <= 0 || len(s.scopes) == 0 {
		return nil
	}

	cutoff := time.Now().Add(-s.maxAge).Unix()
	if cutoff < 0 {
		return nil
	}

	var wg sync.WaitGroup
	for _, scope := range s.scopes {
		for _, namespace := range []string{model.SortedNamespace(scope), model.MetadataNamespace(scope)} {
			scope, namespace := scope, namespace
			wg.Add(1)
			task := workerpool.Task{
				ID: fmt.Sprintf("retention:%s", namespace),
				Fn: func(taskCtx context.Context) error {
					defer wg.Done()
					return s.sweepNamespace(taskCtx, scope, namespace, cutoff)
				},
			}
			if err := s.pool.SubmitWithContext(ctx, task); err != nil {
				wg.Done()
				wg.Wait()
				return fmt.Errorf("failed to submit retention task: %w", err)
			}
		}
	}
	wg.Wait()
	return nil
}

func (s *RetentionService) sweepNamespace(ctx context.Context, scope, namespace string, cutoff int64) error {
	removed, err := s.store.RemoveRange(ctx, namespace, 0, cutoff)
	if err != nil {
		return fmt.Errorf("failed to trim namespace %s: %w", namespace, err)
	}
	if removed > 0 {
		s.metrics.RecordRetention(scope, removed)
		s.logger.Info("Trimmed aged records",
			zap.String("scope", scope),
			zap.String("namespace", namespace),
			zap.Int64("cutoff", cutoff),
			zap.Int64("removed", removed))
	}
	return nil
}

// Stop stops the underlying worker pool
func (s *RetentionService) Stop(timeout time.Duration) error {
	return s.pool.Stop(timeout)
}
