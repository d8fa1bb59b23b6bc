package app

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"go.uber.org/zap"

	"github.com/uninspired/inspire-wall/backend/internal/cache"
	"github.com/uninspired/inspire-wall/backend/internal/config"
	"github.com/uninspired/inspire-wall/backend/internal/gateway"
	"github.com/uninspired/inspire-wall/backend/internal/metrics"
	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
	emotionservice "github.com/uninspired/inspire-wall/backend/internal/service/emotion"
	"github.com/uninspired/inspire-wall/backend/internal/service/events"
	"github.com/uninspired/inspire-wall/backend/internal/service/layout"
	"github.com/uninspired/inspire-wall/backend/internal/service/reaction"
	"github.com/uninspired/inspire-wall/backend/internal/service/scheduler"
	"github.com/uninspired/inspire-wall/backend/internal/service/wall"
)

// App 持有一个完整装配好的墙面实例。
type App struct {
	Store     *thread.Store
	Gateway   gateway.Gateway
	Snapshots *cache.Snapshots
	Hub       *events.Hub
	Metrics   *metrics.Metrics
	Wall      *wall.Service
	Reactions *reaction.Synchronizer
	Emotion   *emotionservice.Service
	Scheduler *scheduler.Scheduler
	logger    *zap.Logger
}

// Build 按配置装配所有服务。远端凭证缺失时使用内存网关。
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{
		Hub:     events.NewHub(32),
		Metrics: metrics.New(),
		logger:  logger,
	}

	if cfg.Gateway.Enabled() {
		a.Gateway = gateway.NewAirtable(cfg.Gateway, logger, a.Metrics)
		logger.Info("remote gateway enabled", zap.String("base", cfg.Gateway.BaseID))
	} else {
		drop := thread.DefaultDrop()
		a.Gateway = gateway.NewMemory(&drop, thread.Sample())
		logger.Info("Airtable 凭证未配置，使用内存数据")
	}

	var snapshots wall.SnapshotCache
	if cfg.Wall.CacheDir != "" {
		s, err := cache.Open(cfg.Wall.CacheDir)
		if err != nil {
			return nil, err
		}
		a.Snapshots = s
		snapshots = s
	}

	layoutCfg, err := layout.LoadConfig(cfg.Wall.LayoutFile)
	if err != nil {
		a.Close()
		return nil, err
	}
	layoutCfg.Binding = layout.ZoneBinding(cfg.Wall.ZoneBinding)
	engine, err := layout.NewEngine(layoutCfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("layout engine: %w", err)
	}

	// The wall starts on the sample set so the first render never waits on
	// the network.
	a.Store = thread.NewStore(thread.DefaultDrop(), thread.Sample(), thread.SourceSample)
	a.Wall = wall.New(a.Store, a.Gateway, engine, wall.Config{
		Capacity: cfg.Wall.Capacity,
		Seed:     cfg.Wall.Seed,
		Cache:    snapshots,
		Hub:      a.Hub,
		Metrics:  a.Metrics,
		Logger:   logger,
	})
	a.Reactions = reaction.New(a.Store, a.Gateway, a.Wall, reaction.Config{
		Timeout: cfg.Gateway.Timeout,
		Logger:  logger,
		Metrics: a.Metrics,
		Hub:     a.Hub,
	})

	var chatModel model.ChatModel
	if cfg.AI.Ready() {
		chatModel, err = cfg.AI.NewChatModel(ctx)
		if err != nil {
			logger.Warn("failed to initialize chat model, emotion suggestions use keywords", zap.Error(err))
			chatModel = nil
		}
	}
	a.Emotion, err = emotionservice.NewService(ctx, chatModel, emotionservice.Config{
		Enabled: cfg.AI.Enabled,
		Logger:  logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	switch {
	case a.Emotion.Enabled():
		logger.Info("emotion classifier service enabled")
	case cfg.AI.Enabled:
		logger.Info("emotion classifier requested but chat model unavailable, falling back to heuristics")
	}

	a.Scheduler, err = scheduler.New(a.Wall, scheduler.Config{
		CountdownInterval: cfg.Wall.CountdownInterval,
		ReloadInterval:    cfg.Wall.ReloadInterval,
		ReloadCron:        cfg.Wall.ReloadCron,
		TickerInterval:    cfg.Wall.TickerInterval,
		ReloadTimeout:     2 * cfg.Gateway.Timeout,
		Hub:               a.Hub,
		Logger:            logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// Close 停止后台任务并释放资源，可重复调用。
func (a *App) Close() {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Reactions != nil {
		a.Reactions.Wait()
	}
	if a.Wall != nil {
		a.Wall.Close()
	}
	if a.Snapshots != nil {
		if err := a.Snapshots.Close(); err != nil {
			a.logger.Warn("close snapshot cache failed", zap.Error(err))
		}
		a.Snapshots = nil
	}
}
