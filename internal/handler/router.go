package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	emotionHandler "github.com/uninspired/inspire-wall/backend/internal/handler/emotion"
	"github.com/uninspired/inspire-wall/backend/internal/handler/threads"
	wallHandler "github.com/uninspired/inspire-wall/backend/internal/handler/wall"
	"github.com/uninspired/inspire-wall/backend/internal/metrics"
	middlewarePkg "github.com/uninspired/inspire-wall/backend/internal/middleware"
	"github.com/uninspired/inspire-wall/backend/internal/service/emotion"
	"github.com/uninspired/inspire-wall/backend/internal/service/events"
	"github.com/uninspired/inspire-wall/backend/internal/service/reaction"
	"github.com/uninspired/inspire-wall/backend/internal/service/wall"
	"github.com/uninspired/inspire-wall/backend/pkg/utils"
)

// Dependencies 汇总路由需要的服务。
type Dependencies struct {
	Wall      *wall.Service
	Reactions *reaction.Synchronizer
	Emotion   *emotion.Service
	Hub       *events.Hub
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		snap := deps.Wall.Snapshot()
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"source":  snap.Source,
			"threads": len(snap.Threads),
		})
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		// Threads, reactions, stats
		threads.New(deps.Wall, deps.Reactions).RegisterRoutes(api)

		// Layout, SVG, event stream and pointer overlay
		wallHandler.New(deps.Wall, deps.Reactions, deps.Hub, deps.Metrics, deps.Logger).RegisterRoutes(api)

		if deps.Emotion != nil {
			emotionHandler.New(deps.Emotion).RegisterRoutes(api)
		}
	})

	return r
}
