package wall

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/uninspired/inspire-wall/backend/internal/cache"
	"github.com/uninspired/inspire-wall/backend/internal/gateway"
	"github.com/uninspired/inspire-wall/backend/internal/metrics"
	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
	"github.com/uninspired/inspire-wall/backend/internal/service/events"
	"github.com/uninspired/inspire-wall/backend/internal/service/layout"
)

const (
	defaultCapacity    = 150
	defaultReloadDelay = 2 * time.Second
)

// SnapshotCache persists the last successful reload.
type SnapshotCache interface {
	Save(drop thread.Drop, threads []thread.Thread, at time.Time) error
	Latest() (cache.Entry, error)
}

// Config 描述墙面服务的依赖项。
type Config struct {
	Capacity int
	Seed     int64
	// ReloadDelay is how long after a successful submission the wall reloads.
	ReloadDelay time.Duration
	Cache       SnapshotCache
	Hub         *events.Hub
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	Now         func() time.Time
}

// ReloadEvent is published after every reload, successful or not.
type ReloadEvent struct {
	Source  thread.Source `json:"source"`
	Threads int           `json:"threads"`
	DropID  string        `json:"dropId"`
	Error   string        `json:"error,omitempty"`
}

// Service 负责墙面数据的加载、布局缓存与投稿。
type Service struct {
	store   *thread.Store
	remote  gateway.Gateway
	engine  *layout.Engine
	cache   SnapshotCache
	hub     *events.Hub
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time

	capacity    int
	seed        int64
	reloadDelay time.Duration

	layoutMu      sync.Mutex
	layout        layout.Layout
	layoutVersion uint64
	layoutReady   bool

	timersMu sync.Mutex
	timers   map[*time.Timer]struct{}
	closed   bool
	wg       sync.WaitGroup
}

// New 创建墙面服务。
func New(store *thread.Store, remote gateway.Gateway, engine *layout.Engine, cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	delay := cfg.ReloadDelay
	if delay <= 0 {
		delay = defaultReloadDelay
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		store:       store,
		remote:      remote,
		engine:      engine,
		cache:       cfg.Cache,
		hub:         cfg.Hub,
		metrics:     cfg.Metrics,
		logger:      logger.Named("wall"),
		now:         now,
		capacity:    capacity,
		seed:        cfg.Seed,
		reloadDelay: delay,
		timers:      make(map[*time.Timer]struct{}),
	}
}

// Store exposes the backing thread store.
func (s *Service) Store() *thread.Store {
	return s.store
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// Reload replaces the store with the remote drop and threads. When the
// remote fetch fails the wall falls back so that it always stays renderable;
// the remote error is still returned.
func (s *Service) Reload(ctx context.Context) error {
	drop := thread.DefaultDrop()
	current, err := s.remote.CurrentDrop(ctx)
	switch {
	case err != nil:
		s.logger.Warn("current drop unavailable, using default", zap.Error(err))
	case current != nil:
		drop = *current
	}

	threads, err := s.remote.Threads(ctx, drop.ID)
	if err != nil {
		s.fallback(drop, err)
		return err
	}

	s.store.Replace(drop, threads, thread.SourceRemote)
	s.metrics.ObserveReload(string(thread.SourceRemote), len(threads))
	if s.cache != nil {
		if err := s.cache.Save(drop, threads, s.now()); err != nil {
			s.logger.Warn("save snapshot failed", zap.Error(err))
		}
	}
	s.logger.Debug("wall reloaded", zap.String("drop", drop.ID), zap.Int("threads", len(threads)))
	s.publishReload(nil)
	return nil
}

func (s *Service) fallback(drop thread.Drop, cause error) {
	s.logger.Warn("thread fetch failed, falling back", zap.Error(cause))

	if s.store.Source() == thread.SourceRemote && s.store.Len() > 0 {
		// Resident remote data is fresher than anything on disk.
		s.metrics.ObserveReload("stale", s.store.Len())
		s.publishReload(cause)
		return
	}

	if s.cache != nil {
		entry, err := s.cache.Latest()
		switch {
		case err == nil:
			s.store.Replace(entry.Drop, entry.Threads, thread.SourceCache)
			s.metrics.ObserveReload(string(thread.SourceCache), len(entry.Threads))
			s.publishReload(cause)
			return
		case !errors.Is(err, cache.ErrNotFound):
			s.logger.Warn("read snapshot failed", zap.Error(err))
		}
	}

	if s.store.Source() == thread.SourceCache && s.store.Len() > 0 {
		s.metrics.ObserveReload("stale", s.store.Len())
		s.publishReload(cause)
		return
	}

	sample := thread.Sample()
	s.store.Replace(drop, sample, thread.SourceSample)
	s.metrics.ObserveReload(string(thread.SourceSample), len(sample))
	s.publishReload(cause)
}

func (s *Service) publishReload(cause error) {
	if s.hub == nil {
		return
	}
	snap := s.store.Snapshot()
	ev := ReloadEvent{Source: snap.Source, Threads: len(snap.Threads), DropID: snap.Drop.ID}
	if cause != nil {
		ev.Error = cause.Error()
	}
	s.hub.Publish(events.Event{Type: events.TypeReload, Data: ev, At: s.now()})
}

// Layout returns the layout for the current store contents. It is
// recomputed only when the store changed since the last call.
func (s *Service) Layout() layout.Layout {
	snap := s.store.Snapshot()

	s.layoutMu.Lock()
	defer s.layoutMu.Unlock()
	if s.layoutReady && s.layoutVersion == snap.Version {
		return s.layout
	}

	s.layout = s.engine.Compute(snap.Threads, s.seed+int64(snap.Generation))
	s.layoutVersion = snap.Version
	s.layoutReady = true
	return s.layout
}

// Find looks up a resident thread.
func (s *Service) Find(id string) (thread.Thread, bool) {
	return s.store.Find(id)
}

// Snapshot returns a copy of the resident state.
func (s *Service) Snapshot() thread.Snapshot {
	return s.store.Snapshot()
}

// Featured returns up to n threads ordered by total reactions. Ties keep
// store order and the store itself is not reordered.
func (s *Service) Featured(n int) []thread.Thread {
	items := s.store.List()
	sort.SliceStable(items, func(i, j int) bool {
		return thread.TotalReactions(items[i]) > thread.TotalReactions(items[j])
	})
	if n >= 0 && len(items) > n {
		items = items[:n]
	}
	return items
}

// Stats summarizes the resident set.
func (s *Service) Stats() Stats {
	return ComputeStats(s.store.Snapshot(), s.capacity, s.now())
}

// Ticker returns the ticker lines for the resident set.
func (s *Service) Ticker() []string {
	snap := s.store.Snapshot()
	now := s.now()
	return TickerItems(ComputeStats(snap, s.capacity, now), snap.Drop, now)
}

// Countdown formats the time left in the current drop.
func (s *Service) Countdown() string {
	return Countdown(s.store.Drop().CloseAt, s.now())
}

// Close cancels scheduled post-submission reloads and waits for running ones.
func (s *Service) Close() {
	s.timersMu.Lock()
	s.closed = true
	for t := range s.timers {
		if t.Stop() {
			s.wg.Done()
		}
		delete(s.timers, t)
	}
	s.timersMu.Unlock()
	s.wg.Wait()
}

func (s *Service) scheduleReload() {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if s.closed {
		return
	}

	s.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(s.reloadDelay, func() {
		defer s.wg.Done()
		s.timersMu.Lock()
		delete(s.timers, t)
		s.timersMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Reload(ctx); err != nil {
			s.logger.Warn("post-submit reload failed", zap.Error(err))
		}
	})
	s.timers[t] = struct{}{}
}
