package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/devrev/timeline/internal/metrics"
	"github.com/devrev/timeline/internal/store"
)

// ReplayService redelivers change events whose stream append failed. Events
// land in the pending queue when the lifecycle cannot reach the stream; the
// replay loop drains the queue in batches, re-enqueueing failures until the
// retry cap is reached.
type ReplayService struct {
	pending    store.PendingEventStore
	stream     store.EventStream
	metrics    *metrics.Metrics
	logger     *zap.Logger
	batchSize  int64
	interval   time.Duration
	maxRetries int
}

// NewReplayService creates a new notification replay service
func NewReplayService(
	pending store.PendingEventStore,
	stream store.EventStream,
	interval time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ReplayService {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &ReplayService{
		pending:    pending,
		stream:     stream,
		metrics:    m,
		logger:     logger,
		batchSize:  100,
		interval:   interval,
		maxRetries: 3,
	}
}

// Run drains the pending queue on a ticker until the context is canceled
func (s *ReplayService) Run(ctx context.Context) {
	s.logger.Info("Starting notification replay loop",
		zap.Duration("interval", s.interval),
		zap.Int64("batch_size", s.batchSize))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Notification replay loop stopped")
			return
		case <-ticker.C:
			if err := s.ReplayPending(ctx); err != nil {
				s.logger.Error("Failed to replay pending events", zap.Error(err))
			}
		}
	}
}

// ReplayPending redelivers one batch of queued events. Events that fail again
// go back to the queue with an incremented replay count; events past the
// retry cap are dropped with an error log.
func (s *ReplayService) ReplayPending(ctx context.Context) error {
	events, err := s.pending.Dequeue(ctx, s.batchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		s.metrics.UpdatePendingEvents(0)
		return nil
	}

	replayed := 0
	requeued := 0
	dropped := 0

	for _, event := range events {
		if err := s.stream.Append(ctx, &event.ChangeEvent); err == nil {
			replayed++
			s.metrics.RecordReplay("replayed")
			continue
		} else {
			s.logger.Warn("Failed to redeliver change event",
				zap.String("scope", event.Scope),
				zap.String("kind", event.Kind),
				zap.String("event_id", event.ID),
				zap.Int("replay_count", event.ReplayCount),
				zap.Error(err))
		}

		event.ReplayCount++
		if event.ReplayCount > s.maxRetries {
			dropped++
			s.metrics.RecordReplay("dropped")
			s.logger.Error("Change event exceeded max redelivery retries, dropping",
				zap.String("scope", event.Scope),
				zap.String("kind", event.Kind),
				zap.String("event_id", event.ID),
				zap.Int("replay_count", event.ReplayCount))
			continue
		}

		if err := s.pending.Enqueue(ctx, event); err != nil {
			dropped++
			s.metrics.RecordReplay("dropped")
			s.logger.Error("Failed to re-queue change event, dropping",
				zap.String("event_id", event.ID),
				zap.Error(err))
			continue
		}
		requeued++
		s.metrics.RecordReplay("requeued")
	}

	if count, err := s.pending.Count(ctx); err == nil {
		s.metrics.UpdatePendingEvents(count)
	}

	s.logger.Info("Replayed pending change events",
		zap.Int("batch", len(events)),
		zap.Int("replayed", replayed),
		zap.Int("requeued", requeued),
		zap.Int("dropped", dropped))

	return nil
}
