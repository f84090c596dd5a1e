package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devrev/timeline/internal/errors"
)

func newTestStore() TimeOrderedStore {
	return NewInMemorySortedStore(zap.NewNop())
}

func seed(t *testing.T, s TimeOrderedStore, namespace string, scores ...int64) {
	t.Helper()
	for _, score := range scores {
		inserted, err := s.InsertUnique(context.Background(), namespace, score, []byte(fmt.Sprintf("rec-%d", score)))
		require.NoError(t, err)
		require.True(t, inserted)
	}
}

func TestInsertUnique(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	inserted, err := s.InsertUnique(ctx, "ns", 10, []byte("a"))
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same score is rejected without mutation, even with a different payload
	inserted, err = s.InsertUnique(ctx, "ns", 10, []byte("b"))
	require.NoError(t, err)
	assert.False(t, inserted)

	payload, err := s.Get(ctx, "ns", 10)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), payload)

	count, err := s.Count(ctx, "ns")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestInsertUnique_NamespacesAreDisjoint(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	inserted, err := s.InsertUnique(ctx, "scope-a__SORTED", 10, []byte("a"))
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same score in a different sub-collection does not conflict
	inserted, err = s.InsertUnique(ctx, "scope-a__METADATA", 10, []byte("b"))
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore()

	payload, err := s.Get(context.Background(), "ns", 99)

	assert.Nil(t, payload)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAll_AscendingOrder(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	seed(t, s, "ns", 30, 10, 20)

	payloads, err := s.All(ctx, "ns", 0)
	require.NoError(t, err)
	require.Len(t, payloads, 3)
	assert.Equal(t, []byte("rec-10"), payloads[0])
	assert.Equal(t, []byte("rec-20"), payloads[1])
	assert.Equal(t, []byte("rec-30"), payloads[2])
}

func TestAll_Limit(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	seed(t, s, "ns", 10, 20, 30)

	payloads, err := s.All(ctx, "ns", 2)
	require.NoError(t, err)
	require.Len(t, payloads, 2)
	assert.Equal(t, []byte("rec-10"), payloads[0])
	assert.Equal(t, []byte("rec-20"), payloads[1])
}

func TestCurrentValue(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	seed(t, s, "ns", 10, 20, 30)

	tests := []struct {
		name string
		now  int64
		want []byte
	}{
		{"between entries", 25, []byte("rec-20")},
		{"exactly at entry", 20, []byte("rec-20")},
		{"after all entries", 99, []byte("rec-30")},
		{"at first entry", 10, []byte("rec-10")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := s.CurrentValue(ctx, "ns", tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, payload)
		})
	}
}

func TestCurrentValue_NothingStartedYet(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	seed(t, s, "ns", 10, 20)

	payload, err := s.CurrentValue(ctx, "ns", 5)

	assert.Nil(t, payload)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCurrentValue_EmptyNamespace(t *testing.T) {
	s := newTestStore()

	payload, err := s.CurrentValue(context.Background(), "ns", 100)

	assert.Nil(t, payload)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRange(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	seed(t, s, "ns", 10, 20, 30, 40)

	// Bounds are inclusive on both ends
	payloads, err := s.Range(ctx, "ns", 20, 30, 0)
	require.NoError(t, err)
	require.Len(t, payloads, 2)
	assert.Equal(t, []byte("rec-20"), payloads[0])
	assert.Equal(t, []byte("rec-30"), payloads[1])
}

func TestRange_SingleScore(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	seed(t, s, "ns", 10, 20)

	payloads, err := s.Range(ctx, "ns", 20, 20, 0)
	require.NoError(t, err)
	require.Len(t, payloads, 1)
	assert.Equal(t, []byte("rec-20"), payloads[0])
}

func TestRange_EmptyWindow(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	seed(t, s, "ns", 10, 40)

	payloads, err := s.Range(ctx, "ns", 15, 35, 0)
	require.NoError(t, err)
	assert.Empty(t, payloads)
}

func TestRange_InvertedBounds(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	seed(t, s, "ns", 10, 20)

	payloads, err := s.Range(ctx, "ns", 30, 20, 0)

	assert.Nil(t, payloads)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRange(err))
}

func TestRange_Limit(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	seed(t, s, "ns", 10, 20, 30, 40)

	payloads, err := s.Range(ctx, "ns", 10, 40, 3)
	require.NoError(t, err)
	assert.Len(t, payloads, 3)
}

func TestRemoveAt(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	seed(t, s, "ns", 10, 20)

	removed, err := s.RemoveAt(ctx, "ns", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = s.Get(ctx, "ns", 10)
	assert.ErrorIs(t, err, ErrNotFound)

	// Removing an absent score reports zero
	removed, err = s.RemoveAt(ctx, "ns", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)
}

func TestRemoveRange(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	seed(t, s, "ns", 10, 20, 30, 40)

	removed, err := s.RemoveRange(ctx, "ns", 15, 35)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	payloads, err := s.All(ctx, "ns", 0)
	require.NoError(t, err)
	require.Len(t, payloads, 2)
	assert.Equal(t, []byte("rec-10"), payloads[0])
	assert.Equal(t, []byte("rec-40"), payloads[1])
}

func TestRemoveRange_InvertedBounds(t *testing.T) {
	s := newTestStore()

	removed, err := s.RemoveRange(context.Background(), "ns", 30, 20)

	assert.Equal(t, int64(0), removed)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRange(err))
}

func TestReinsertAfterRemove(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	seed(t, s, "ns", 10)

	removed, err := s.RemoveAt(ctx, "ns", 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	inserted, err := s.InsertUnique(ctx, "ns", 10, []byte("fresh"))
	require.NoError(t, err)
	assert.True(t, inserted)

	payload, err := s.Get(ctx, "ns", 10)
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), payload)
}
