package client

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/folio-studio/folio/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduceToggleRequested(t *testing.T) {
	tests := []struct {
		name string
		from LikeState
		want LikeState
	}{
		{"like", LikeState{Liked: false, Count: 4}, LikeState{Liked: true, Count: 5}},
		{"unlike", LikeState{Liked: true, Count: 4}, LikeState{Liked: false, Count: 3}},
		{"unlike at zero stays at zero", LikeState{Liked: true, Count: 0}, LikeState{Liked: false, Count: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Reduce(LikeModel{Current: tt.from}, ToggleRequested{})
			assert.Equal(t, tt.want, m.Current)
			require.NotNil(t, m.Rollback)
			assert.Equal(t, tt.from, *m.Rollback)
		})
	}
}

func TestReduceIgnoresSecondRequest(t *testing.T) {
	m := Reduce(LikeModel{Current: LikeState{Count: 1}}, ToggleRequested{})
	again := Reduce(m, ToggleRequested{})
	assert.Equal(t, m, again)
}

func TestReduceFailedRestoresExactly(t *testing.T) {
	start := LikeModel{Current: LikeState{Liked: true, Count: 0}}
	m := Reduce(start, ToggleRequested{})
	m = Reduce(m, ToggleFailed{})
	assert.Equal(t, start, m)

	// A stray failure with nothing pending changes nothing.
	assert.Equal(t, start, Reduce(start, ToggleFailed{}))
}

func TestReduceSucceededAdoptsServerState(t *testing.T) {
	m := Reduce(LikeModel{Current: LikeState{Count: 4}}, ToggleRequested{})
	m = Reduce(m, ToggleSucceeded{Synced: LikeState{Liked: true, Count: 9}})
	assert.Equal(t, LikeModel{Current: LikeState{Liked: true, Count: 9}}, m)
}

type fakeRemote struct {
	mu        sync.Mutex
	liked     bool
	count     int64
	toggleErr error
	checkErr  error
	gate      chan struct{}
	entered   chan struct{}
}

func (f *fakeRemote) ToggleLike(ctx context.Context, workID int64, fingerprint string) (bool, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.toggleErr != nil {
		return false, f.toggleErr
	}
	f.liked = !f.liked
	if f.liked {
		f.count++
	} else {
		f.count--
	}
	return f.liked, nil
}

func (f *fakeRemote) CheckLike(ctx context.Context, workID int64, fingerprint string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.checkErr != nil {
		return false, f.checkErr
	}
	return f.liked, nil
}

func (f *fakeRemote) GetWork(ctx context.Context, workID int64) (*models.Work, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.Work{ID: workID, LikeCount: f.count}, nil
}

func TestLikeControllerToggle(t *testing.T) {
	remote := &fakeRemote{count: 7}
	lc, err := NewLikeController(context.Background(), remote, 1, "fp")
	require.NoError(t, err)
	assert.Equal(t, LikeState{Liked: false, Count: 7}, lc.State())

	state, err := lc.Toggle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LikeState{Liked: true, Count: 8}, state)
	assert.False(t, lc.Pending())

	state, err = lc.Toggle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LikeState{Liked: false, Count: 7}, state)
}

func TestLikeControllerResyncsWithServer(t *testing.T) {
	remote := &fakeRemote{count: 7}
	lc, err := NewLikeController(context.Background(), remote, 1, "fp")
	require.NoError(t, err)

	// Another viewer likes the work in the meantime.
	remote.mu.Lock()
	remote.count = 20
	remote.mu.Unlock()

	state, err := lc.Toggle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LikeState{Liked: true, Count: 21}, state)
}

func TestLikeControllerRollback(t *testing.T) {
	remote := &fakeRemote{liked: true, count: 3}
	lc, err := NewLikeController(context.Background(), remote, 1, "fp")
	require.NoError(t, err)

	remote.toggleErr = &APIError{Status: 429, Code: "TOO_MANY_REQUESTS"}

	state, err := lc.Toggle(context.Background())
	require.Error(t, err)
	assert.True(t, IsCode(err, "TOO_MANY_REQUESTS"))
	assert.Equal(t, LikeState{Liked: true, Count: 3}, state)
	assert.Equal(t, LikeState{Liked: true, Count: 3}, lc.State())
	assert.False(t, lc.Pending())
}

func TestLikeControllerDropsConcurrentToggle(t *testing.T) {
	remote := &fakeRemote{count: 2, gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	lc, err := NewLikeController(context.Background(), remote, 1, "fp")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := lc.Toggle(context.Background())
		done <- err
	}()

	<-remote.entered
	assert.True(t, lc.Pending())
	assert.Equal(t, LikeState{Liked: true, Count: 3}, lc.State())

	_, err = lc.Toggle(context.Background())
	assert.ErrorIs(t, err, ErrToggleInFlight)

	close(remote.gate)
	require.NoError(t, <-done)
	assert.Equal(t, LikeState{Liked: true, Count: 3}, lc.State())
}

func TestLikeControllerKeepsPredictionWhenResyncFails(t *testing.T) {
	remote := &fakeRemote{count: 5}
	lc, err := NewLikeController(context.Background(), remote, 1, "fp")
	require.NoError(t, err)

	remote.checkErr = errors.New("network")

	state, err := lc.Toggle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LikeState{Liked: true, Count: 6}, state)
	assert.False(t, lc.Pending())
}

func TestNewLikeControllerSeedFailure(t *testing.T) {
	_, err := NewLikeController(context.Background(), &fakeRemote{checkErr: errors.New("down")}, 1, "fp")
	assert.Error(t, err)
}
