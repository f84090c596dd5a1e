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

// MetadataService manages the lifecycle of metadata records. It shares the
// base mutation protocol and additionally revalidates color and metadata on
// update.
type MetadataService struct {
	lifecycle
}

// NewMetadataService creates a new metadata record service. pending may be
// nil to disable notification redelivery; m may be nil to disable metrics.
func NewMetadataService(
	st store.TimeOrderedStore,
	stream store.EventStream,
	pending store.PendingEventStore,
	m *metrics.Metrics,
	logger *zap.Logger,
) *MetadataService {
	return &MetadataService{
		lifecycle: lifecycle{
			store:   st,
			stream:  stream,
			pending: pending,
			metrics: m,
			logger:  logger,
		},
	}
}

// Create persists the record and emits a created notification
func (s *MetadataService) Create(ctx context.Context, rec *model.MetadataRecord) error {
	started := time.Now()
	err := s.createRecord(ctx, rec)
	s.observe("create", model.TypeMetadata, started, err)
	return err
}

func (s *MetadataService) createRecord(ctx context.Context, rec *model.MetadataRecord) error {
	if err := model.ValidateStart(rec.Start); err != nil {
		return err
	}
	if err := model.ValidateMetadata(rec.Metadata); err != nil {
		return err
	}

	rec.UpdatedAt = time.Now().UnixNano()
	payload, err := rec.AsJSON()
	if err != nil {
		return errors.InternalError("failed to serialize metadata record", err)
	}

	return s.create(ctx, rec.Namespace(), rec.Scope, rec.Start, payload)
}

// Update revalidates start, color and metadata together, then moves the
// record to newStart with the new field values. An empty color yields a
// fresh random one.
func (s *MetadataService) Update(ctx context.Context, rec *model.MetadataRecord, newStart int64, color string, metadata map[string]interface{}) error {
	started := time.Now()
	err := s.updateRecord(ctx, rec, newStart, color, metadata)
	s.observe("update", model.TypeMetadata, started, err)
	return err
}

func (s *MetadataService) updateRecord(ctx context.Context, rec *model.MetadataRecord, newStart int64, color string, metadata map[string]interface{}) error {
	if err := model.ValidateStart(newStart); err != nil {
		return err
	}
	normalized, err := model.ValidateColor(color)
	if err != nil {
		return err
	}
	if err := model.ValidateMetadata(metadata); err != nil {
		return err
	}

	oldStart := rec.Start
	oldUpdatedAt := rec.UpdatedAt
	oldColor := rec.Color
	oldMetadata := rec.Metadata

	rec.Start = newStart
	rec.UpdatedAt = time.Now().UnixNano()
	rec.Color = normalized
	rec.Metadata = metadata

	payload, merr := rec.AsJSON()
	if merr != nil {
		rec.Start = oldStart
		rec.UpdatedAt = oldUpdatedAt
		rec.Color = oldColor
		rec.Metadata = oldMetadata
		return errors.InternalError("failed to serialize metadata record", merr)
	}

	uerr := s.update(ctx, rec.Namespace(), rec.Scope, oldStart, newStart, payload)
	if uerr != nil && !errors.IsNotification(uerr) {
		rec.Start = oldStart
		rec.UpdatedAt = oldUpdatedAt
		rec.Color = oldColor
		rec.Metadata = oldMetadata
	}
	return uerr
}

// Destroy removes the record and emits a deleted notification carrying its
// last state
func (s *MetadataService) Destroy(ctx context.Context, rec *model.MetadataRecord) error {
	started := time.Now()
	err := s.destroyRecord(ctx, rec)
	s.observe("destroy", model.TypeMetadata, started, err)
	return err
}

func (s *MetadataService) destroyRecord(ctx context.Context, rec *model.MetadataRecord) error {
	payload, err := rec.AsJSON()
	if err != nil {
		return errors.InternalError("failed to serialize metadata record", err)
	}
	return s.destroy(ctx, rec.Namespace(), rec.Scope, rec.Start, payload)
}

// Get returns the record at the exact start, or nil when absent
func (s *MetadataService) Get(ctx context.Context, scope string, start int64) (*model.MetadataRecord, error) {
	payload, err := s.store.Get(ctx, model.MetadataNamespace(scope), start)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.StoreFailed("failed to get metadata record", err)
	}
	return model.MetadataRecordFromJSON(payload)
}

// All returns up to limit records in ascending start order
func (s *MetadataService) All(ctx context.Context, scope string, limit int64) ([]*model.MetadataRecord, error) {
	payloads, err := s.store.All(ctx, model.MetadataNamespace(scope), limit)
	if err != nil {
		return nil, errors.StoreFailed("failed to list metadata records", err)
	}
	return decodeMetadataRecords(payloads)
}

// CurrentValue returns the record with the greatest start at or before the
// current time, or nil when no such record exists
func (s *MetadataService) CurrentValue(ctx context.Context, scope string) (*model.MetadataRecord, error) {
	payload, err := s.store.CurrentValue(ctx, model.MetadataNamespace(scope), time.Now().Unix())
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.StoreFailed("failed to get current metadata record", err)
	}
	return model.MetadataRecordFromJSON(payload)
}

// Range returns up to limit records with start <= score <= stop in ascending
// order. start > stop is a caller error.
func (s *MetadataService) Range(ctx context.Context, scope string, start, stop, limit int64) ([]*model.MetadataRecord, error) {
	payloads, err := s.store.Range(ctx, model.MetadataNamespace(scope), start, stop, limit)
	if err != nil {
		if errors.IsInvalidRange(err) {
			return nil, err
		}
		return nil, errors.StoreFailed("failed to range metadata records", err)
	}
	return decodeMetadataRecords(payloads)
}

// Count returns the number of records in the scope
func (s *MetadataService) Count(ctx context.Context, scope string) (int64, error) {
	count, err := s.store.Count(ctx, model.MetadataNamespace(scope))
	if err != nil {
		return 0, errors.StoreFailed("failed to count metadata records", err)
	}
	return count, nil
}

// DestroyAt removes the entry at the exact start without emitting a
// notification
func (s *MetadataService) DestroyAt(ctx context.Context, scope string, start int64) (int64, error) {
	removed, err := s.store.RemoveAt(ctx, model.MetadataNamespace(scope), start)
	if err != nil {
		return 0, errors.StoreFailed("failed to destroy metadata record entry", err)
	}
	return removed, nil
}

// DestroyRange removes all entries with start <= score <= stop without
// emitting notifications
func (s *MetadataService) DestroyRange(ctx context.Context, scope string, start, stop int64) (int64, error) {
	removed, err := s.store.RemoveRange(ctx, model.MetadataNamespace(scope), start, stop)
	if err != nil {
		if errors.IsInvalidRange(err) {
			return 0, err
		}
		return 0, errors.StoreFailed("failed to destroy metadata record range", err)
	}
	return removed, nil
}

func decodeMetadataRecords(payloads [][]byte) ([]*model.MetadataRecord, error) {
	records := make([]*model.MetadataRecord, 0, len(payloads))
	for _, p := range payloads {
		rec, err := model.MetadataRecordFromJSON(p)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
