package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/folio-studio/folio/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu    sync.Mutex
	fixed []int64
	calls int
	err   error
}

func (s *fakeStore) ReconcileLikeCounts(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	if len(s.fixed) == 0 {
		return 0, nil
	}
	n := s.fixed[0]
	s.fixed = s.fixed[1:]
	return n, nil
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeLocker struct {
	held     bool
	released int
}

func (l *fakeLocker) AcquireLock(ctx context.Context, resource string, ttl time.Duration) (bool, error) {
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *fakeLocker) ReleaseLock(ctx context.Context, resource string) error {
	l.held = false
	l.released++
	return nil
}

func TestRunOnce(t *testing.T) {
	store := &fakeStore{fixed: []int64{3}}
	locker := &fakeLocker{}
	r := New(store, locker, time.Minute, nil)

	before := testutil.ToFloat64(metrics.LikeCountFixesTotal)

	fixed, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), fixed)
	assert.Equal(t, 1, locker.released)
	assert.False(t, locker.held)
	assert.Equal(t, before+3, testutil.ToFloat64(metrics.LikeCountFixesTotal))
}

func TestRunOnceSkipsWhenLocked(t *testing.T) {
	store := &fakeStore{}
	locker := &fakeLocker{held: true}
	r := New(store, locker, time.Minute, nil)

	fixed, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, fixed)
	assert.Zero(t, store.callCount())
	assert.Zero(t, locker.released)
}

func TestRunOnceStoreError(t *testing.T) {
	locker := &fakeLocker{}
	r := New(&fakeStore{err: errors.New("db down")}, locker, time.Minute, nil)

	_, err := r.RunOnce(context.Background())
	assert.Error(t, err)
	assert.False(t, locker.held)
}

func TestStartRunsImmediately(t *testing.T) {
	store := &fakeStore{}
	r := New(store, nil, time.Hour, nil)

	r.Start()
	assert.Eventually(t, func() bool { return store.callCount() == 1 }, time.Second, 5*time.Millisecond)
	r.Stop()

	assert.Equal(t, 1, store.callCount())
}
