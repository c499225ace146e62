package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/folio-studio/folio/pkg/models"
)

// ErrToggleInFlight is returned when a toggle is requested while another one
// for the same work has not settled. The request is dropped, not queued.
var ErrToggleInFlight = errors.New("like toggle already in flight")

// LikeState is what a like control displays
type LikeState struct {
	Liked bool
	Count int64
}

// LikeModel is the displayed state plus the snapshot to restore if the
// pending toggle fails. Rollback is non-nil exactly while a toggle is in flight.
type LikeModel struct {
	Current  LikeState
	Rollback *LikeState
}

// InFlight reports whether a toggle is awaiting its outcome
func (m LikeModel) InFlight() bool {
	return m.Rollback != nil
}

// LikeEvent drives Reduce
type LikeEvent interface {
	isLikeEvent()
}

// ToggleRequested applies the optimistic prediction
type ToggleRequested struct{}

// ToggleSucceeded replaces the prediction with server state
type ToggleSucceeded struct {
	Synced LikeState
}

// ToggleFailed restores the pre-toggle snapshot
type ToggleFailed struct{}

func (ToggleRequested) isLikeEvent() {}
func (ToggleSucceeded) isLikeEvent() {}
func (ToggleFailed) isLikeEvent()    {}

// Reduce is the pure transition function of the like control
func Reduce(m LikeModel, ev LikeEvent) LikeModel {
	switch e := ev.(type) {
	case ToggleRequested:
		if m.InFlight() {
			return m
		}
		prev := m.Current
		next := LikeState{Liked: !prev.Liked, Count: prev.Count + 1}
		if prev.Liked {
			next.Count = prev.Count - 1
			if next.Count < 0 {
				next.Count = 0
			}
		}
		return LikeModel{Current: next, Rollback: &prev}

	case ToggleSucceeded:
		synced := e.Synced
		if synced.Count < 0 {
			synced.Count = 0
		}
		return LikeModel{Current: synced}

	case ToggleFailed:
		if !m.InFlight() {
			return m
		}
		return LikeModel{Current: *m.Rollback}
	}
	return m
}

// Remote is the server surface a LikeController needs; *Client implements it
type Remote interface {
	ToggleLike(ctx context.Context, workID int64, fingerprint string) (bool, error)
	CheckLike(ctx context.Context, workID int64, fingerprint string) (bool, error)
	GetWork(ctx context.Context, workID int64) (*models.Work, error)
}

// LikeController owns the like state of one work for one viewer
type LikeController struct {
	remote      Remote
	workID      int64
	fingerprint string

	mu    sync.Mutex
	model LikeModel
}

// NewLikeController seeds the controller from the server
func NewLikeController(ctx context.Context, remote Remote, workID int64, fingerprint string) (*LikeController, error) {
	lc := &LikeController{
		remote:      remote,
		workID:      workID,
		fingerprint: fingerprint,
	}

	state, err := lc.fetch(ctx)
	if err != nil {
		return nil, err
	}
	lc.model = LikeModel{Current: state}

	return lc, nil
}

// State returns what the control should display now
func (lc *LikeController) State() LikeState {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.model.Current
}

// Pending reports whether a toggle is in flight
func (lc *LikeController) Pending() bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.model.InFlight()
}

// Toggle flips the like optimistically and settles it against the server.
// On failure the previous state is restored exactly and the error returned.
// If the toggle lands but the follow-up fetch fails, the prediction is kept
// with the liked value the server reported.
func (lc *LikeController) Toggle(ctx context.Context) (LikeState, error) {
	lc.mu.Lock()
	if lc.model.InFlight() {
		lc.mu.Unlock()
		return LikeState{}, ErrToggleInFlight
	}
	lc.model = Reduce(lc.model, ToggleRequested{})
	predicted := lc.model.Current
	lc.mu.Unlock()

	liked, err := lc.remote.ToggleLike(ctx, lc.workID, lc.fingerprint)
	if err != nil {
		lc.mu.Lock()
		lc.model = Reduce(lc.model, ToggleFailed{})
		state := lc.model.Current
		lc.mu.Unlock()
		return state, err
	}

	synced, fetchErr := lc.fetch(ctx)
	if fetchErr != nil {
		synced = LikeState{Liked: liked, Count: predicted.Count}
	}

	lc.mu.Lock()
	lc.model = Reduce(lc.model, ToggleSucceeded{Synced: synced})
	state := lc.model.Current
	lc.mu.Unlock()

	return state, nil
}

// fetch reads the authoritative liked flag and count
func (lc *LikeController) fetch(ctx context.Context) (LikeState, error) {
	liked, err := lc.remote.CheckLike(ctx, lc.workID, lc.fingerprint)
	if err != nil {
		return LikeState{}, fmt.Errorf("failed to check like: %w", err)
	}
	work, err := lc.remote.GetWork(ctx, lc.workID)
	if err != nil {
		return LikeState{}, fmt.Errorf("failed to get work: %w", err)
	}
	return LikeState{Liked: liked, Count: work.LikeCount}, nil
}
