package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/devrev/timeline/internal/model"
)

// MockTimeOrderedStore is a mock implementation of store.TimeOrderedStore
type MockTimeOrderedStore struct {
	mock.Mock
}

func (m *MockTimeOrderedStore) InsertUnique(ctx context.Context, namespace string, score int64, payload []byte) (bool, error) {
	args := m.Called(ctx, namespace, score, payload)
	return args.Bool(0), args.Error(1)
}

func (m *MockTimeOrderedStore) Get(ctx context.Context, namespace string, score int64) ([]byte, error) {
	args := m.Called(ctx, namespace, score)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockTimeOrderedStore) All(ctx context.Context, namespace string, limit int64) ([][]byte, error) {
	args := m.Called(ctx, namespace, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]byte), args.Error(1)
}

func (m *MockTimeOrderedStore) CurrentValue(ctx context.Context, namespace string, now int64) ([]byte, error) {
	args := m.Called(ctx, namespace, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockTimeOrderedStore) Range(ctx context.Context, namespace string, start, stop, limit int64) ([][]byte, error) {
	args := m.Called(ctx, namespace, start, stop, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]byte), args.Error(1)
}

func (m *MockTimeOrderedStore) Count(ctx context.Context, namespace string) (int64, error) {
	args := m.Called(ctx, namespace)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTimeOrderedStore) RemoveAt(ctx context.Context, namespace string, score int64) (int64, error) {
	args := m.Called(ctx, namespace, score)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTimeOrderedStore) RemoveRange(ctx context.Context, namespace string, start, stop int64) (int64, error) {
	args := m.Called(ctx, namespace, start, stop)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTimeOrderedStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTimeOrderedStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockEventStream is a mock implementation of store.EventStream
type MockEventStream struct {
	mock.Mock
}

func (m *MockEventStream) Append(ctx context.Context, event *model.ChangeEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventStream) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockEventStream) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockPendingEventStore is a mock implementation of store.PendingEventStore
type MockPendingEventStore struct {
	mock.Mock
}

func (m *MockPendingEventStore) Enqueue(ctx context.Context, event *model.PendingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPendingEventStore) Dequeue(ctx context.Context, limit int64) ([]*model.PendingEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PendingEvent), args.Error(1)
}

func (m *MockPendingEventStore) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPendingEventStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPendingEventStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
