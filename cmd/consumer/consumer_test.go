package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shiftboard/internal/events"
	"github.com/example/shiftboard/internal/models"
)

// fakeUpdater implements CountUpdater for tests
type fakeUpdater struct {
	fail   int // number of calls to fail before succeeding
	calls  int
	counts map[string]int
}

func (f *fakeUpdater) Set(_ context.Context, slug string, n int) error {
	f.calls++
	if f.calls <= f.fail {
		return errors.New("set fail")
	}
	if f.counts == nil {
		f.counts = map[string]int{}
	}
	f.counts[slug] = n
	return nil
}

func event(t events.Type, received int) events.Event {
	return events.Event{Type: t, Recommendation: models.Recommendation{ID: "r1", FromPerson: "ben", ToPerson: "alice"}, Received: received}
}

func TestApplyCountsApprovalsOnly(t *testing.T) {
	f := &fakeUpdater{}
	ctx := context.Background()

	updated, err := apply(ctx, f, event(events.RecommendationCreated, 0), 3, time.Millisecond)
	require.NoError(t, err)
	assert.False(t, updated)
	assert.Zero(t, f.calls)

	updated, err = apply(ctx, f, event(events.RecommendationApproved, 3), 3, time.Millisecond)
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, 3, f.counts["alice"])
}

func TestApplyRedeliveredApprovalKeepsTotal(t *testing.T) {
	f := &fakeUpdater{}
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := apply(ctx, f, event(events.RecommendationApproved, 3), 3, time.Millisecond)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, f.counts["alice"])
}

func TestApplyRejectsApprovalWithoutTotal(t *testing.T) {
	f := &fakeUpdater{}
	_, err := apply(context.Background(), f, event(events.RecommendationApproved, 0), 3, time.Millisecond)
	require.Error(t, err)
	assert.Zero(t, f.calls)
}

func TestSetWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := &fakeUpdater{fail: 2}
	start := time.Now()
	require.NoError(t, setWithRetry(context.Background(), f, "alice", 4, 3, 10*time.Millisecond))
	assert.Equal(t, 3, f.calls)
	assert.Equal(t, 4, f.counts["alice"])
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond, "expected doubling backoff")
}

func TestSetWithRetry_FailsWhenExhausted(t *testing.T) {
	f := &fakeUpdater{fail: 5}
	err := setWithRetry(context.Background(), f, "alice", 1, 3, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, f.calls)
}

func TestSetWithRetry_StopsOnCancel(t *testing.T) {
	f := &fakeUpdater{fail: 5}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := setWithRetry(ctx, f, "alice", 1, 3, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.calls)
}
