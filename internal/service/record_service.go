package service

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"github.com/devrev/timeline/internal/errors"
	"github.com/devrev/timeline/internal/metrics"
	"github.com/devrev/timeline/internal/model"
	"github.com/devrev/timeline/internal/store"
)

// RecordService manages the lifecycle of base records. Mutations emit exactly
// one change notification each; queries never notify.
type RecordService struct {
	lifecycle
}

// NewRecordService creates a new record service. pending may be nil to
// disable notification redelivery; m may be nil to disable metrics.
func NewRecordService(
	st store.TimeOrderedStore,
	stream store.EventStream,
	pending store.PendingEventStore,
	m *metrics.Metrics,
	logger *zap.Logger,
) *RecordService {
	return &RecordService{
		lifecycle: lifecycle{
			store:   st,
			stream:  stream,
			pending: pending,
			metrics: m,
			logger:  logger,
		},
	}
}

// Create persists the record and emits a created notification. Fails with an
// overlap error when the start is already occupied in the record's scope.
func (s *RecordService) Create(ctx context.Context, rec *model.Record) error {
	started := time.Now()
	err := s.createRecord(ctx, rec)
	s.observe("create", model.TypeSorted, started, err)
	return err
}

func (s *RecordService) createRecord(ctx context.Context, rec *model.Record) error {
	if err := model.ValidateStart(rec.Start); err != nil {
		return err
	}

	rec.UpdatedAt = time.Now().UnixNano()
	payload, err := rec.AsJSON()
	if err != nil {
		return errors.InternalError("failed to serialize record", err)
	}

	return s.create(ctx, rec.Namespace(), rec.Scope, rec.Start, payload)
}

// Update moves the record to newStart and emits an updated notification
// whose extra field carries the prior start. A move onto the record's own
// slot is not an overlap.
func (s *RecordService) Update(ctx context.Context, rec *model.Record, newStart int64) error {
	started := time.Now()
	err := s.updateRecord(ctx, rec, newStart)
	s.observe("update", model.TypeSorted, started, err)
	return err
}

func (s *RecordService) updateRecord(ctx context.Context, rec *model.Record, newStart int64) error {
	if err := model.ValidateStart(newStart); err != nil {
		return err
	}

	oldStart := rec.Start
	oldUpdatedAt := rec.UpdatedAt

	rec.Start = newStart
	rec.UpdatedAt = time.Now().UnixNano()
	payload, err := rec.AsJSON()
	if err != nil {
		rec.Start = oldStart
		rec.UpdatedAt = oldUpdatedAt
		return errors.InternalError("failed to serialize record", err)
	}

	err = s.update(ctx, rec.Namespace(), rec.Scope, oldStart, newStart, payload)
	if err != nil && !errors.IsNotification(err) {
		// The store still holds the old entry (or nothing); keep the
		// in-memory record in sync with it
		rec.Start = oldStart
		rec.UpdatedAt = oldUpdatedAt
	}
	return err
}

// Destroy removes the record and emits a deleted notification carrying its
// last state
func (s *RecordService) Destroy(ctx context.Context, rec *model.Record) error {
	started := time.Now()
	err := s.destroyRecord(ctx, rec)
	s.observe("destroy", model.TypeSorted, started, err)
	return err
}

func (s *RecordService) destroyRecord(ctx context.Context, rec *model.Record) error {
	payload, err := rec.AsJSON()
	if err != nil {
		return errors.InternalError("failed to serialize record", err)
	}
	return s.destroy(ctx, rec.Namespace(), rec.Scope, rec.Start, payload)
}

// Get returns the record at the exact start, or nil when absent
func (s *RecordService) Get(ctx context.Context, scope string, start int64) (*model.Record, error) {
	payload, err := s.store.Get(ctx, model.SortedNamespace(scope), start)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.StoreFailed("failed to get record", err)
	}
	return model.RecordFromJSON(payload)
}

// All returns up to limit records in ascending start order
func (s *RecordService) All(ctx context.Context, scope string, limit int64) ([]*model.Record, error) {
	payloads, err := s.store.All(ctx, model.SortedNamespace(scope), limit)
	if err != nil {
		return nil, errors.StoreFailed("failed to list records", err)
	}
	return decodeRecords(payloads)
}

// CurrentValue returns the record with the greatest start at or before the
// current time, or nil when no such record exists
func (s *RecordService) CurrentValue(ctx context.Context, scope string) (*model.Record, error) {
	payload, err := s.store.CurrentValue(ctx, model.SortedNamespace(scope), time.Now().Unix())
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.StoreFailed("failed to get current record", err)
	}
	return model.RecordFromJSON(payload)
}

// Range returns up to limit records with start <= score <= stop in ascending
// order. start > stop is a caller error.
func (s *RecordService) Range(ctx context.Context, scope string, start, stop, limit int64) ([]*model.Record, error) {
	payloads, err := s.store.Range(ctx, model.SortedNamespace(scope), start, stop, limit)
	if err != nil {
		if errors.IsInvalidRange(err) {
			return nil, err
		}
		return nil, errors.StoreFailed("failed to range records", err)
	}
	return decodeRecords(payloads)
}

// Count returns the number of records in the scope
func (s *RecordService) Count(ctx context.Context, scope string) (int64, error) {
	count, err := s.store.Count(ctx, model.SortedNamespace(scope))
	if err != nil {
		return 0, errors.StoreFailed("failed to count records", err)
	}
	return count, nil
}

// DestroyAt removes the entry at the exact start without emitting a
// notification. Returns the number of entries removed (0 or 1).
func (s *RecordService) DestroyAt(ctx context.Context, scope string, start int64) (int64, error) {
	removed, err := s.store.RemoveAt(ctx, model.SortedNamespace(scope), start)
	if err != nil {
		return 0, errors.StoreFailed("failed to destroy record entry", err)
	}
	return removed, nil
}

// DestroyRange removes all entries with start <= score <= stop without
// emitting notifications. Returns the number of entries removed.
func (s *RecordService) DestroyRange(ctx context.Context, scope string, start, stop int64) (int64, error) {
	removed, err := s.store.RemoveRange(ctx, model.SortedNamespace(scope), start, stop)
	if err != nil {
		if errors.IsInvalidRange(err) {
			return 0, err
		}
		return 0, errors.StoreFailed("failed to destroy record range", err)
	}
	return removed, nil
}

func decodeRecords(payloads [][]byte) ([]*model.Record, error) {
	records := make([]*model.Record, 0, len(payloads))
	for _, p := range payloads {
		rec, err := model.RecordFromJSON(p)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
