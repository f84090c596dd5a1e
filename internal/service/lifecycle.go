package service

import (
	"context"
	stderrors "errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devrev/timeline/internal/errors"
	"github.com/devrev/timeline/internal/metrics"
	"github.com/devrev/timeline/internal/model"
	"github.com/devrev/timeline/internal/store"
)

// lifecycle implements the mutation protocol shared by all record kinds:
// overlap-checked create, delete-then-insert update with a compensating
// rollback, destroy, and one change notification per successful mutation.
//
// The overlap check and the insert are atomic at the store (InsertUnique),
// so two concurrent creates for the same start cannot both win. The two
// store calls of an update are NOT atomic as a pair; on insert failure the
// pre-update entry is restored, and a rollback-failed error is surfaced if
// the restore also fails.
type lifecycle struct {
	store   store.TimeOrderedStore
	stream  store.EventStream
	pending store.PendingEventStore
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// create persists the payload at the start score and emits a created event.
// The store write happens first; no notification is emitted on write failure.
func (l *lifecycle) create(ctx context.Context, namespace, scope string, start int64, payload []byte) error {
	inserted, err := l.store.InsertUnique(ctx, namespace, start, payload)
	if err != nil {
		return errors.StoreFailed("failed to create record", err)
	}
	if !inserted {
		l.logger.Debug("Create rejected, start occupied",
			zap.String("scope", scope),
			zap.Int64("start", start))
		return errors.Overlap(scope, start)
	}

	l.logger.Info("Record created",
		zap.String("scope", scope),
		zap.String("namespace", namespace),
		zap.Int64("start", start))

	return l.notify(ctx, scope, model.KindCreated, payload, "")
}

// update moves the record from oldStart to newStart. The target slot is
// checked before the old entry is removed, so an overlapping move leaves the
// store untouched. A move onto the record's own slot never overlaps.
func (l *lifecycle) update(ctx context.Context, namespace, scope string, oldStart, newStart int64, payload []byte) error {
	if newStart != oldStart {
		if _, err := l.store.Get(ctx, namespace, newStart); err == nil {
			return errors.Overlap(scope, newStart)
		} else if !stderrors.Is(err, store.ErrNotFound) {
			return errors.StoreFailed("failed to check target slot", err)
		}
	}

	// Snapshot the old entry so it can be restored if the insert fails
	oldPayload, err := l.store.Get(ctx, namespace, oldStart)
	if err != nil && !stderrors.Is(err, store.ErrNotFound) {
		return errors.StoreFailed("failed to read record before update", err)
	}

	if _, err := l.store.RemoveAt(ctx, namespace, oldStart); err != nil {
		return errors.StoreFailed("failed to remove record before update", err)
	}

	inserted, err := l.store.InsertUnique(ctx, namespace, newStart, payload)
	if err != nil || !inserted {
		failure := err
		if failure == nil {
			failure = errors.Overlap(scope, newStart)
		}
		return l.rollback(ctx, namespace, scope, oldStart, newStart, oldPayload, failure)
	}

	l.logger.Info("Record updated",
		zap.String("scope", scope),
		zap.String("namespace", namespace),
		zap.Int64("old_start", oldStart),
		zap.Int64("new_start", newStart))

	return l.notify(ctx, scope, model.KindUpdated, payload, strconv.FormatInt(oldStart, 10))
}

// rollback restores the pre-update entry after a failed insert
func (l *lifecycle) rollback(ctx context.Context, namespace, scope string, oldStart, newStart int64, oldPayload []byte, cause error) error {
	if oldPayload == nil {
		// Nothing to restore; the record was not in the store to begin with
		return errors.StoreFailed("failed to insert updated record", cause)
	}

	restored, err := l.store.InsertUnique(ctx, namespace, oldStart, oldPayload)
	if err != nil || !restored {
		l.logger.Error("Update rollback failed, record lost from store",
			zap.String("scope", scope),
			zap.Int64("old_start", oldStart),
			zap.Int64("new_start", newStart),
			zap.NamedError("insert_error", cause),
			zap.NamedError("rollback_error", err))
		return errors.RollbackFailed(scope, oldStart, newStart, cause)
	}

	l.logger.Warn("Update rolled back",
		zap.String("scope", scope),
		zap.Int64("old_start", oldStart),
		zap.Int64("new_start", newStart),
		zap.Error(cause))

	if errors.IsOverlap(cause) {
		return cause
	}
	return errors.StoreFailed("failed to insert updated record", cause)
}

// destroy removes the record and emits a deleted event carrying its last
// serialized state
func (l *lifecycle) destroy(ctx context.Context, namespace, scope string, start int64, payload []byte) error {
	removed, err := l.store.RemoveAt(ctx, namespace, start)
	if err != nil {
		return errors.StoreFailed("failed to destroy record", err)
	}
	if removed == 0 {
		return errors.RecordNotFound(scope, start)
	}

	l.logger.Info("Record destroyed",
		zap.String("scope", scope),
		zap.String("namespace", namespace),
		zap.Int64("start", start))

	return l.notify(ctx, scope, model.KindDeleted, payload, "")
}

// notify appends one change event to the scope's stream. The store mutation
// has already committed when notify runs; on transport failure the event is
// queued for redelivery (best effort) and a notification error is returned
// so the caller knows stream and store may have diverged.
func (l *lifecycle) notify(ctx context.Context, scope, kind string, payload []byte, extra string) error {
	event := &model.ChangeEvent{
		ID:    uuid.New().String(),
		Scope: scope,
		Kind:  kind,
		Type:  model.EventType,
		Data:  string(payload),
		Extra: extra,
	}

	if err := l.stream.Append(ctx, event); err != nil {
		l.metrics.RecordNotificationFailure(kind)
		l.queueForRedelivery(ctx, event)
		return errors.NotificationFailed(scope, kind, err)
	}

	l.metrics.RecordNotification(kind)
	return nil
}

// queueForRedelivery enqueues a failed event for the replay loop
func (l *lifecycle) queueForRedelivery(ctx context.Context, event *model.ChangeEvent) {
	if l.pending == nil {
		return
	}
	pending := &model.PendingEvent{
		ChangeEvent: *event,
		CreatedAt:   time.Now(),
	}
	if err := l.pending.Enqueue(ctx, pending); err != nil {
		l.logger.Error("Failed to queue change event for redelivery",
			zap.String("scope", event.Scope),
			zap.String("kind", event.Kind),
			zap.String("event_id", event.ID),
			zap.Error(err))
		return
	}
	l.logger.Warn("Change event queued for redelivery",
		zap.String("scope", event.Scope),
		zap.String("kind", event.Kind),
		zap.String("event_id", event.ID))
}

// observe records operation metrics
func (l *lifecycle) observe(operation, recordType string, started time.Time, err error) {
	if err != nil {
		l.metrics.RecordError(operation, errorType(err))
		return
	}
	l.metrics.RecordOperation(operation, recordType, time.Since(started).Seconds())
}

// errorType maps an error to a low-cardinality metric label
func errorType(err error) string {
	switch errors.GetCode(err) {
	case errors.ErrCodeOverlap:
		return "overlap"
	case errors.ErrCodeInvalidStart, errors.ErrCodeInvalidColor, errors.ErrCodeInvalidMetadata:
		return "validation"
	case errors.ErrCodeInvalidRange:
		return "invalid_range"
	case errors.ErrCodeRecordNotFound:
		return "not_found"
	case errors.ErrCodeNotification:
		return "notification"
	case errors.ErrCodeRollbackFailed:
		return "rollback_failed"
	default:
		return "internal"
	}
}
