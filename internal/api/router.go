package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/factline/internal/api/handlers"
	mw "github.com/Harshitk-cp/factline/internal/api/middleware"
	"github.com/Harshitk-cp/factline/internal/archive"
	"github.com/Harshitk-cp/factline/internal/domain"
	"github.com/Harshitk-cp/factline/internal/service"
)

// Deps is everything the read API and the operator endpoints serve from.
type Deps struct {
	Stories     domain.StoryStore
	Corrections domain.CorrectionStore
	Reliability *service.ReliabilityService
	Queue       *service.Queue
	State       *service.State

	// Ping reports backing store health. Nil means always healthy.
	Ping func(ctx context.Context) error

	Feed         archive.FeedMeta
	FeedLookback time.Duration

	KillSwitchPath string
	AdminToken     string
	RateLimitRPS   float64
	RateLimitBurst int
}

// App holds the router and request counters.
type App struct {
	Router    *chi.Mux
	metrics   *mw.Metrics
	startTime time.Time
}

func NewApp(deps Deps, logger *zap.Logger) *App {
	storyHandler := handlers.NewStoryHandler(deps.Stories)
	correctionHandler := handlers.NewCorrectionHandler(deps.Corrections)
	sourceHandler := handlers.NewSourceHandler(deps.Reliability)
	queueHandler := handlers.NewQueueHandler(deps.Queue)
	feedHandler := handlers.NewFeedHandler(deps.Stories, deps.Corrections, deps.Feed, deps.FeedLookback)
	statusHandler := handlers.NewStatusHandler(deps.State, deps.Queue, deps.KillSwitchPath, logger)

	r := chi.NewRouter()
	app := &App{
		Router:    r,
		metrics:   &mw.Metrics{},
		startTime: time.Now(),
	}

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.metrics.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	if deps.RateLimitRPS > 0 {
		r.Use(mw.RateLimit(deps.RateLimitRPS, deps.RateLimitBurst))
	}

	r.Get("/health", healthHandler(deps.Ping))
	r.Get("/metrics", app.metricsHandler())
	r.Get("/feed.xml", feedHandler.RSS)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/stories", func(r chi.Router) {
			r.Get("/", storyHandler.List)
			r.Get("/{id}", storyHandler.GetByID)
		})
		r.Get("/corrections", correctionHandler.List)
		r.Get("/sources", sourceHandler.List)
		r.Get("/queue", queueHandler.List)
		r.Get("/status", statusHandler.Get)

		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.AdminToken(deps.AdminToken))
			r.Post("/kill", statusHandler.Kill)
			r.Delete("/kill", statusHandler.Resume)
		})
	})

	return app
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)
		counts := app.metrics.Snapshot()

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  counts["requests"],
			"client_errors":  counts["client_errors"],
			"server_errors":  counts["server_errors"],
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}
