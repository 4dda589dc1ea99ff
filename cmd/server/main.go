package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/d60-Lab/trustcircle/config"
	"github.com/d60-Lab/trustcircle/internal/api/handler"
	"github.com/d60-Lab/trustcircle/internal/api/router"
	"github.com/d60-Lab/trustcircle/internal/cache"
	"github.com/d60-Lab/trustcircle/internal/repository"
	"github.com/d60-Lab/trustcircle/internal/service"
	"github.com/d60-Lab/trustcircle/pkg/database"
	"github.com/d60-Lab/trustcircle/pkg/logger"
	"github.com/d60-Lab/trustcircle/pkg/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Sentry.Environment}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	contextCache, closeCache, err := cache.Open(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer func() { _ = closeCache() }()

	limits := service.PageLimits{Default: cfg.Feed.DefaultPerPage, Max: cfg.Feed.MaxPerPage}
	peerRepo := repository.NewPeerLinkRepository(db)
	communityRepo := repository.NewCommunityRepository(db)
	conversationRepo := repository.NewConversationRepository(db)

	graph := service.NewCircleService(peerRepo, contextCache, cfg.Circle.MaxHops)
	refresher := service.NewCircleRefresher(graph, cfg.Circle.RefreshQueue)
	stopRefresher := refresher.Start(cfg.Circle.RefreshWorkers)
	links := service.NewLinkService(peerRepo, contextCache, refresher)

	h := handler.New(
		links,
		graph,
		service.NewScopeService(graph, communityRepo, limits),
		service.NewFeedService(graph, communityRepo, conversationRepo, repository.NewUserRepository(db), limits),
		service.NewConversationService(conversationRepo, communityRepo, repository.NewEventRepository(db), links),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router.Setup(cfg, db, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr),
			zap.String("cache_backend", cfg.Circle.CacheBackend), zap.Int("max_hops", cfg.Circle.MaxHops))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := stopRefresher(shutdownCtx); err != nil {
		logger.Warn("refresher did not drain", zap.Error(err))
	}
	return nil
}
