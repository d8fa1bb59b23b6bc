package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/uninspired/inspire-wall/backend/internal/service/events"
	"github.com/uninspired/inspire-wall/backend/internal/service/wall"
)

// ErrAlreadyRunning is returned by Start on a running scheduler.
var ErrAlreadyRunning = errors.New("scheduler: already running")

// Wall is what the scheduler drives.
type Wall interface {
	Reload(ctx context.Context) error
	Countdown() string
	Ticker() []string
}

// Config 描述定时任务的间隔。
type Config struct {
	CountdownInterval time.Duration
	ReloadInterval    time.Duration
	// ReloadCron overrides ReloadInterval when set.
	ReloadCron     string
	TickerInterval time.Duration
	ReloadTimeout  time.Duration
	Hub            *events.Hub
	Logger         *zap.Logger
}

// TickerEvent is the payload of a ticker rotation.
type TickerEvent struct {
	Items  []string `json:"items"`
	Offset int      `json:"offset"`
}

// Scheduler owns the countdown, reload and ticker loops.
type Scheduler struct {
	wall   Wall
	cfg    Config
	logger *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	group   *errgroup.Group
	running bool

	tickerMu     sync.Mutex
	tickerOffset int
	tickerItems  []string
	countdown    string
}

// New validates cfg and returns a stopped scheduler.
func New(w Wall, cfg Config) (*Scheduler, error) {
	if cfg.CountdownInterval <= 0 {
		cfg.CountdownInterval = time.Second
	}
	if cfg.ReloadInterval <= 0 {
		cfg.ReloadInterval = 30 * time.Second
	}
	if cfg.TickerInterval <= 0 {
		cfg.TickerInterval = 20 * time.Second
	}
	if cfg.ReloadTimeout <= 0 {
		cfg.ReloadTimeout = 20 * time.Second
	}
	if cfg.ReloadCron != "" && !gronx.IsValid(cfg.ReloadCron) {
		return nil, fmt.Errorf("invalid reload cron expression: %s", cfg.ReloadCron)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{wall: w, cfg: cfg, logger: logger.Named("scheduler")}, nil
}

// Start launches the loops. They run until ctx is cancelled or Stop is
// called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	s.cancel = cancel
	s.group = g
	s.running = true

	s.countdownTick()
	s.tickerTick()

	g.Go(func() error {
		s.every(gctx, s.cfg.CountdownInterval, s.countdownTick)
		return nil
	})
	g.Go(func() error {
		s.every(gctx, s.cfg.TickerInterval, s.tickerTick)
		return nil
	})
	g.Go(func() error {
		if s.cfg.ReloadCron != "" {
			s.cronLoop(gctx, g)
			return nil
		}
		s.every(gctx, s.cfg.ReloadInterval, func() { s.spawnReload(gctx, g) })
		return nil
	})

	s.logger.Info("scheduler started",
		zap.Duration("countdown", s.cfg.CountdownInterval),
		zap.Duration("reload", s.cfg.ReloadInterval),
		zap.String("cron", s.cfg.ReloadCron),
		zap.Duration("ticker", s.cfg.TickerInterval),
	)
	return nil
}

// Stop cancels the loops and waits for them, including in-flight reloads.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, g := s.cancel, s.group
	s.running = false
	s.mu.Unlock()

	cancel()
	_ = g.Wait()
	s.logger.Info("scheduler stopped")
}

// Countdown returns the last published countdown label.
func (s *Scheduler) Countdown() string {
	s.tickerMu.Lock()
	defer s.tickerMu.Unlock()
	return s.countdown
}

// Ticker returns the ticker items in their current rotation.
func (s *Scheduler) Ticker() TickerEvent {
	s.tickerMu.Lock()
	defer s.tickerMu.Unlock()
	return TickerEvent{Items: append([]string(nil), s.tickerItems...), Offset: s.tickerOffset}
}

func (s *Scheduler) every(ctx context.Context, interval time.Duration, fn func()) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn()
		}
	}
}

func (s *Scheduler) cronLoop(ctx context.Context, g *errgroup.Group) {
	for {
		next, err := gronx.NextTickAfter(s.cfg.ReloadCron, time.Now(), false)
		wait := time.Until(next)
		if err != nil {
			s.logger.Error("next cron tick failed", zap.String("cron", s.cfg.ReloadCron), zap.Error(err))
			wait = s.cfg.ReloadInterval
		}

		timer := time.NewTimer(max(wait, 0))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err == nil {
				s.spawnReload(ctx, g)
			}
		}
	}
}

// spawnReload does not wait for the previous reload; the last one to
// finish wins.
func (s *Scheduler) spawnReload(ctx context.Context, g *errgroup.Group) {
	g.Go(func() error {
		rctx, cancel := context.WithTimeout(ctx, s.cfg.ReloadTimeout)
		defer cancel()
		if err := s.wall.Reload(rctx); err != nil {
			s.logger.Warn("scheduled reload failed", zap.Error(err))
		}
		return nil
	})
}

func (s *Scheduler) countdownTick() {
	label := s.wall.Countdown()

	s.tickerMu.Lock()
	frozen := s.countdown == wall.ClosedLabel && label == wall.ClosedLabel
	s.countdown = label
	s.tickerMu.Unlock()

	if frozen {
		return
	}
	s.publish(events.TypeCountdown, label)
}

func (s *Scheduler) tickerTick() {
	items := s.wall.Ticker()

	s.tickerMu.Lock()
	if s.tickerItems != nil {
		s.tickerOffset++
	}
	if len(items) > 0 {
		s.tickerOffset %= len(items)
	}
	s.tickerItems = wall.Rotate(items, s.tickerOffset)
	ev := TickerEvent{Items: append([]string(nil), s.tickerItems...), Offset: s.tickerOffset}
	s.tickerMu.Unlock()

	s.publish(events.TypeTicker, ev)
}

func (s *Scheduler) publish(kind string, data any) {
	if s.cfg.Hub == nil {
		return
	}
	s.cfg.Hub.Publish(events.Event{Type: kind, Data: data})
}
