package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yelpcamp/apiserver/config"
	"github.com/yelpcamp/apiserver/internal/db"
	"github.com/yelpcamp/apiserver/internal/handlers"
	"github.com/yelpcamp/apiserver/internal/mq"
	"github.com/yelpcamp/apiserver/internal/services"
	"github.com/yelpcamp/apiserver/internal/session"
	"github.com/yelpcamp/apiserver/internal/storage"
	"github.com/yelpcamp/apiserver/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	sweeper    *session.Sweeper
	closers    []func() error
	logger     *slog.Logger
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if strings.TrimSpace(cfg.Session.Secret) == "" {
		return nil, errors.New("SESSION_SECRET is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	srv := &Server{db: dbConn, logger: logger}
	srv.closers = append(srv.closers, dbConn.Close)

	sessionStore, closeSessions, err := OpenSessionStore(ctx, cfg, dbConn)
	if err != nil {
		srv.close()
		return nil, err
	}
	srv.closers = append(srv.closers, closeSessions)

	userRepo := store.NewUserRepository(dbConn)
	campgroundRepo := store.NewCampgroundRepository(dbConn)
	reviewRepo := store.NewReviewRepository(dbConn)

	userService := services.NewUserService(userRepo)
	campgroundService := services.NewCampgroundService(campgroundRepo, userRepo, reviewRepo, logger)
	reviewService := services.NewReviewService(reviewRepo, campgroundRepo, logger)
	campgroundService.OnDelete(services.NewReviewCascade(reviewRepo))

	images, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		srv.close()
		return nil, fmt.Errorf("image storage: %w", err)
	}
	if images != nil {
		campgroundService.SetImageStore(images)
	}

	broker, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		srv.close()
		return nil, err
	}
	if broker != nil {
		srv.closers = append(srv.closers, broker.Close)
		campgroundService.OnDelete(services.NewEventPublisher(broker, logger))
	}

	views := handlers.NewViews(userService, logger)
	sessions := session.NewManager(sessionStore, cfg.Session.Secret, session.Options{
		TTL:          cfg.Session.TTL,
		TouchAfter:   cfg.Session.TouchAfter,
		Secure:       cfg.Session.SecureCookie,
		ErrorHandler: views.SessionError,
	}, logger)
	gate := handlers.NewGate(campgroundService, reviewService, views)
	srv.sweeper = session.NewSweeper(sessionStore, cfg.Session.SweepInterval, logger)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		handlers.MethodOverride,
	)
	router.Get("/healthz", handlers.Healthz)
	router.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)
		r.Get("/", views.Home)
		handlers.AuthRouter(r, userService, sessions, views, gate)
		r.Route("/campgrounds", func(r chi.Router) {
			handlers.CampgroundRouter(r, campgroundService, reviewService, views, gate)
		})
	})
	router.NotFound(handlers.NotFound)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	srv.router = router
	srv.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv, nil
}

// OpenSessionStore connects the session backend named by
// cfg.Session.Store. The returned func releases its connection.
func OpenSessionStore(ctx context.Context, cfg config.Config, dbConn *sql.DB) (session.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Session.Store {
	case config.SessionStorePostgres, "":
		return store.NewSessionRepository(dbConn), noop, nil
	case config.SessionStoreRedis:
		client, err := session.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStore(client), client.Close, nil
	case config.SessionStoreMongo:
		client, err := session.NewMongoClient(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		mongoStore, err := session.NewMongoStore(ctx, client, cfg.Mongo, cfg.Session.Secret)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return mongoStore, func() error { return client.Disconnect(context.Background()) }, nil
	case config.SessionStoreMemory:
		return session.NewMemoryStore(), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server and the session sweeper until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	sweepCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.sweeper.Run(sweepCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown stops accepting requests, waits for in-flight ones and closes
// every backend connection.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.close()
	return err
}

func (s *Server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("close backend", "error", err)
		}
	}
	s.closers = nil
}
