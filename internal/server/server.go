// Package server собирает HTTP сервер синхронизации: хранилище, hub live канала,
// обработчики и middleware.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iudanet/notesync/internal/config"
	"github.com/iudanet/notesync/internal/server/handlers"
	"github.com/iudanet/notesync/internal/server/hub"
	"github.com/iudanet/notesync/internal/server/jwt"
	"github.com/iudanet/notesync/internal/server/middleware"
	"github.com/iudanet/notesync/internal/server/storage/sqlite"
)

const (
	shutdownTimeout   = 10 * time.Second
	memoryBrokerQueue = 256
)

// Server HTTP сервер синхронизации
type Server struct {
	cfg     *config.Server
	logger  *slog.Logger
	store   *sqlite.Storage
	broker  hub.Broker
	hub     *hub.Hub
	jwt     *jwt.Service
	limiter *middleware.Limiter
	version string
}

// New открывает хранилище (с миграциями) и брокер событий.
// При заданном NatsURL live обновления расходятся между инстансами через JetStream,
// иначе используется in-process брокер.
func New(ctx context.Context, cfg *config.Server, logger *slog.Logger, version string) (*Server, error) {
	store, err := sqlite.New(ctx, cfg.DatabasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	var broker hub.Broker
	if cfg.NatsURL != "" {
		broker, err = hub.NewNatsBroker(ctx, cfg.NatsURL, logger)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to connect to nats: %w", err)
		}
		logger.Info("using nats broker", slog.String("url", cfg.NatsURL))
	} else {
		broker = hub.NewMemoryBroker(memoryBrokerQueue)
	}

	rl := cfg.RateLimit
	limiter := middleware.NewLimiter(logger,
		middleware.Rule{Prefix: "/api/v1/auth/register", Rate: rl.Auth, Window: rl.Window},
		middleware.Rule{Prefix: "/api/v1/auth/login", Rate: rl.Auth, Window: rl.Window},
		middleware.Rule{Prefix: "/api/", Rate: rl.Default, Window: rl.Window},
		middleware.Rule{Prefix: "/sync/", Rate: rl.Default, Window: rl.Window},
	)

	return &Server{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		broker:  broker,
		hub:     hub.New(broker, logger),
		jwt:     jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL),
		limiter: limiter,
		version: version,
	}, nil
}

// Handler возвращает корневой http.Handler со всеми маршрутами
func (s *Server) Handler() http.Handler {
	authHandler := handlers.NewAuthHandler(s.logger, s.store, s.store, s.jwt)
	syncHandler := handlers.NewSyncHandler(s.logger, s.store, s.hub)
	liveHandler := handlers.NewLiveHandler(s.logger, s.store, s.hub, s.cfg.OriginPatterns)
	healthHandler := handlers.NewHealthHandler(s.logger, s.store, s.version)

	requireAuth := middleware.AuthMiddleware(s.logger, s.jwt)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Health)

	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", authHandler.Refresh)
	mux.Handle("POST /api/v1/auth/logout", requireAuth(http.HandlerFunc(authHandler.Logout)))

	mux.Handle("POST /sync/begin", requireAuth(http.HandlerFunc(syncHandler.Begin)))
	mux.Handle("POST /sync/request", requireAuth(http.HandlerFunc(syncHandler.Request)))
	mux.Handle("POST /sync/update", requireAuth(http.HandlerFunc(syncHandler.Update)))
	mux.Handle("GET /sync/live", requireAuth(http.HandlerFunc(liveHandler.Serve)))

	var h http.Handler = mux
	h = s.limiter.Middleware(h)
	h = middleware.Recovery(s.logger)(h)
	h = middleware.AccessLog(s.logger, "/health")(h)
	h = middleware.RequestID(h)
	return h
}

// Run запускает HTTP сервер, раздачу событий hub и очистку просроченных refresh tokens.
// Возвращается после отмены ctx и graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server listening", slog.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return s.hub.Run(gctx)
	})

	g.Go(func() error {
		s.sweepTokens(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// sweepTokens периодически удаляет просроченные refresh tokens
func (s *Server) sweepTokens(ctx context.Context) {
	if s.cfg.TokenSweep <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.TokenSweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			deleted, err := s.store.DeleteExpiredTokens(ctx, now)
			if err != nil {
				s.logger.Warn("failed to delete expired tokens", slog.Any("error", err))
				continue
			}
			if deleted > 0 {
				s.logger.Info("expired refresh tokens removed", slog.Int("count", deleted))
			}
		}
	}
}

// Close освобождает брокер и хранилище
func (s *Server) Close() error {
	s.limiter.Stop()
	return errors.Join(s.broker.Close(), s.store.Close())
}
