package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"golang.org/x/time/rate"

	"geekhub/api"
	"geekhub/config"
	"geekhub/handlers"
	"geekhub/internal/database"
	"geekhub/internal/logging"
	"geekhub/internal/metrics"
	"geekhub/services/activity"
	"geekhub/services/catalog"
	"geekhub/services/invitations"
	"geekhub/services/library"
	"geekhub/services/scheduler"
	"geekhub/services/stats"
	"geekhub/utils"
)

func main() {
	if err := run(); err != nil {
		logging.Default().Error("geekhub exited", "error", err)
		logging.Close()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.Init(cfg.Logging)
	defer logging.Close()
	log.Info("geekhub starting", "version", handlers.GetBackendVersion(), "addr", cfg.Server.Addr())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	activitySvc := activity.NewService(db.Activity, db.Groups)
	librarySvc := library.NewService(db.Library, activitySvc)
	invitationsSvc := invitations.NewService(db.Invitations, db.Groups, activitySvc)
	statsSvc := stats.NewService(db.Library, db.Groups, cfg.Stats.Locale, cfg.Stats.TopRatedLimit)

	p := cfg.Providers
	catalogSvc := catalog.NewService(catalog.Config{
		RAWGAPIKey:       p.RAWGAPIKey,
		RAWGBaseURL:      p.RAWGBaseURL,
		TMDBAPIKey:       p.TMDBAPIKey,
		TMDBReadToken:    p.TMDBReadToken,
		TMDBBaseURL:      p.TMDBBaseURL,
		Language:         p.Language,
		Timeout:          p.Timeout,
		PageSize:         p.PageSize,
		CacheDir:         p.CacheDir,
		CacheTTL:         p.CacheTTL,
		SearchCacheTTL:   p.SearchCacheTTL,
		BatchConcurrency: p.BatchConcurrency,
		Breaker: catalog.BreakerConfig{
			FailureThreshold: p.BreakerFailures,
			OpenTimeout:      p.BreakerTimeout,
		},
	}, afero.NewOsFs(), &http.Client{Timeout: p.Timeout})

	sched := scheduler.NewService()
	if cfg.Scheduler.Enabled {
		cleanup := scheduler.InvitationCleanupTask(invitationsSvc, cfg.Scheduler.InvitationGrace, func(n int) {
			metrics.InvitationsCleaned.Add(float64(n))
		})
		for _, task := range []scheduler.Task{cleanup, scheduler.CachePruneTask(catalogSvc)} {
			if err := sched.Register(task); err != nil {
				return err
			}
		}
		if err := sched.Start(ctx); err != nil {
			return err
		}
	}

	var searchLimiter *api.IPRateLimiter
	if cfg.Server.SearchRatePerMinute > 0 {
		searchLimiter = api.NewIPRateLimiter(rate.Every(time.Minute/time.Duration(cfg.Server.SearchRatePerMinute)), cfg.Server.SearchBurst)
	}

	router := utils.NewRouter(utils.CORSPolicy{
		Origins:      cfg.Server.CORSOrigins,
		AllowPrivate: cfg.Server.CORSAllowPrivate,
	})
	router.Use(api.RequestMiddleware())
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	handlers.Routes{
		Stats:         handlers.NewStatsHandler(statsSvc),
		Catalog:       handlers.NewCatalogHandler(catalogSvc),
		Library:       handlers.NewLibraryHandler(librarySvc),
		Groups:        handlers.NewGroupsHandler(invitationsSvc),
		Activity:      handlers.NewActivityHandler(activitySvc),
		Version:       handlers.NewVersionHandler(),
		Tasks:         handlers.NewTasksHandler(sched, cfg.Auth.AdminUserIDs),
		Auth:          api.AuthMiddleware(api.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Audience, cfg.Auth.Issuer), db.Profiles),
		SearchLimiter: searchLimiter,
	}.Register(router)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		log.Warn("scheduler stop failed", "error", err)
	}
	return server.Shutdown(shutdownCtx)
}
