package reaction

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/uninspired/inspire-wall/backend/internal/metrics"
	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
	"github.com/uninspired/inspire-wall/backend/internal/service/events"
)

// ErrUnknownReaction rejects kinds outside the fixed reaction set.
var ErrUnknownReaction = errors.New("reaction: unknown kind")

const defaultTimeout = 10 * time.Second

// Updater is the remote half of a reaction.
type Updater interface {
	UpdateReactions(ctx context.Context, threadID string, kind thread.ReactionKind) error
}

// Reloader replaces the store wholesale from the remote source.
type Reloader interface {
	Reload(ctx context.Context) error
}

// ReloaderFunc adapts a function to Reloader.
type ReloaderFunc func(ctx context.Context) error

func (f ReloaderFunc) Reload(ctx context.Context) error { return f(ctx) }

// Outcome describes how a reaction settled.
type Outcome struct {
	Confirmed bool
	Reloaded  bool
	// Err is the remote failure that triggered the reload, if any.
	Err error
	// ReloadErr is set when the compensating reload failed too.
	ReloadErr error
}

// Pending tracks one in-flight confirmation.
type Pending struct {
	// Thread is the optimistic state right after the local increment.
	Thread  thread.Thread
	done    chan struct{}
	outcome Outcome
}

// Done is closed once the confirmation and any reload have finished.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the reaction settles.
func (p *Pending) Wait() Outcome {
	<-p.done
	return p.outcome
}

// Config tunes a Synchronizer.
type Config struct {
	Timeout time.Duration
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	// Hub, when set, receives a reaction event for every local increment.
	Hub *events.Hub
}

// Event is the payload of a reaction event on the hub.
type Event struct {
	ThreadID       string              `json:"threadId"`
	Kind           thread.ReactionKind `json:"kind"`
	Count          int                 `json:"count"`
	TotalReactions int                 `json:"totalReactions"`
}

// Synchronizer applies reactions locally first and confirms them remotely in
// the background. A failed confirmation is compensated by one full reload
// instead of a targeted undo.
type Synchronizer struct {
	store    *thread.Store
	remote   Updater
	reloader Reloader
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
	hub      *events.Hub

	wg sync.WaitGroup
}

// New wires a Synchronizer.
func New(store *thread.Store, remote Updater, reloader Reloader, cfg Config) *Synchronizer {
	s := &Synchronizer{
		store:    store,
		remote:   remote,
		reloader: reloader,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		hub:      cfg.Hub,
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("reaction")
	return s
}

// React increments the thread's counter in the store and starts the remote
// confirmation. It returns nil, nil when the thread is not loaded. The
// increment is visible to readers before React returns.
func (s *Synchronizer) React(ctx context.Context, threadID string, kind thread.ReactionKind) (*Pending, error) {
	if !kind.Valid() {
		return nil, ErrUnknownReaction
	}

	updated, ok := s.store.Increment(threadID, kind)
	if !ok {
		s.logger.Debug("reaction on unloaded thread ignored", zap.String("thread", threadID))
		return nil, nil
	}

	if s.hub != nil {
		s.hub.Publish(events.Event{Type: events.TypeReaction, Data: Event{
			ThreadID:       updated.ID,
			Kind:           kind,
			Count:          updated.Reactions.Get(kind),
			TotalReactions: thread.TotalReactions(updated),
		}})
	}

	p := &Pending{Thread: updated, done: make(chan struct{})}
	// The confirmation outlives the request that caused it.
	base := context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(p.done)
		p.outcome = s.confirm(base, threadID, kind)
	}()
	return p, nil
}

// Wait blocks until every in-flight confirmation has settled.
func (s *Synchronizer) Wait() {
	s.wg.Wait()
}

func (s *Synchronizer) confirm(base context.Context, threadID string, kind thread.ReactionKind) Outcome {
	ctx, cancel := context.WithTimeout(base, s.timeout)
	err := s.remote.UpdateReactions(ctx, threadID, kind)
	cancel()

	if err == nil {
		s.metrics.ObserveReaction(string(kind), "confirmed")
		return Outcome{Confirmed: true}
	}

	s.metrics.ObserveReaction(string(kind), "failed")
	s.logger.Warn("reaction not confirmed, reloading",
		zap.String("thread", threadID),
		zap.String("kind", string(kind)),
		zap.Error(err))

	out := Outcome{Err: err, Reloaded: true}
	if s.reloader == nil {
		out.Reloaded = false
		return out
	}

	reloadCtx, cancelReload := context.WithTimeout(base, s.timeout)
	defer cancelReload()
	if rerr := s.reloader.Reload(reloadCtx); rerr != nil {
		s.logger.Error("reload after failed reaction", zap.Error(rerr))
		out.ReloadErr = rerr
	}
	return out
}
