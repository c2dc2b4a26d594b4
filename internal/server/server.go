// Package server is the composition root: it opens the store, seeds the
// catalog, builds the identity resolver once, wires handlers to routes and
// runs the HTTP server until a shutdown signal.
//
// DEPENDENCY FLOW:
//
//	config.Config → Store (sqlite | mongo) → services → handlers → chi routes
//	             → Resolver (jwt | userinfo) → auth.RequireAuth
//	             → Redis (optional) → cache.Cache → middleware.Cache
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/sakif/college-tracker/internal/auth"
	"github.com/sakif/college-tracker/internal/cache"
	"github.com/sakif/college-tracker/internal/catalog"
	"github.com/sakif/college-tracker/internal/config"
	"github.com/sakif/college-tracker/internal/handler"
	"github.com/sakif/college-tracker/internal/middleware"
	"github.com/sakif/college-tracker/internal/repository"
	mongoRepo "github.com/sakif/college-tracker/internal/repository/mongo"
	sqliteRepo "github.com/sakif/college-tracker/internal/repository/sqlite"
	"github.com/sakif/college-tracker/internal/service"
)

// cachePrefix namespaces catalog response keys in Redis.
const cachePrefix = "college-tracker:catalog"

// Deps is everything the router needs. Tests build it by hand around an
// in-memory store.
type Deps struct {
	Store       repository.Store
	Resolver    auth.Resolver
	Admin       *auth.AdminGuard
	Cache       *cache.Cache
	CORSOrigins []string
	Logger      *slog.Logger
}

// Server owns the store and Redis connections and closes them on shutdown.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   repository.Store
	rdb     *redis.Client
	handler http.Handler
}

// New opens every backing service named in cfg and builds the router.
// On error, anything already opened is closed again.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *Server, err error) {
	s := &Server{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	s.store, err = openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s.rdb, err = cache.NewClient(ctx, cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		// The API is correct without the cache, only slower.
		logger.Warn("redis unavailable, catalog cache disabled", slog.String("error", err.Error()))
		s.rdb = nil
	}
	respCache := cache.New(s.rdb, cachePrefix, cfg.CacheTTL, logger)

	resolver, err := auth.NewResolver(auth.Config{
		Mode:        cfg.AuthMode,
		JWTSecret:   cfg.AuthJWTSecret,
		Issuer:      cfg.AuthIssuer,
		Audience:    cfg.AuthAudience,
		UserInfoURL: cfg.AuthUserInfoURL,
	}, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("building identity resolver: %w", err)
	}

	if cfg.AdminKeyHash == "" {
		logger.Warn("ADMIN_KEY_HASH not set, catalog mutations are disabled")
	}

	deps := Deps{
		Store:       s.store,
		Resolver:    resolver,
		Admin:       auth.NewAdminGuard(cfg.AdminKeyHash, logger),
		Cache:       respCache,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	}
	if err := seedCatalog(ctx, service.NewCollegeService(s.store, respCache, logger), cfg.SeedFile); err != nil {
		return nil, err
	}

	s.handler = NewRouter(deps)
	return s, nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		store, err := mongoRepo.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("opening mongo store: %w", err)
		}
		return store, nil
	default:
		if cfg.DBPath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return db, nil
	}
}

// seedCatalog loads the catalog on first boot. Later boots find it
// non-empty and skip.
func seedCatalog(ctx context.Context, colleges *service.CollegeService, seedFile string) error {
	var r io.Reader = catalog.DefaultSeed()
	if seedFile != "" {
		f, err := os.Open(seedFile)
		if err != nil {
			return fmt.Errorf("opening seed file: %w", err)
		}
		defer f.Close()
		r = f
	}
	if _, err := colleges.Seed(ctx, r); err != nil {
		return fmt.Errorf("seeding catalog: %w", err)
	}
	return nil
}

// NewRouter wires every route.
//
// ROUTES:
//
//	GET    /healthz
//	GET    /api/colleges                   browse, ?q=&letter=&limit=
//	GET    /api/colleges/search            ?q= (empty q → empty list)
//	GET    /api/colleges/suggestions       ?q=
//	GET    /api/colleges/{id}
//	POST   /api/colleges                   auth + X-Admin-Key
//	PUT    /api/colleges/{id}              auth + X-Admin-Key
//	DELETE /api/colleges/{id}              auth + X-Admin-Key
//	GET    /api/saved                      auth
//	POST   /api/saved                      auth
//	GET    /api/saved/check/{name}         auth
//	GET    /api/saved/{id}                 auth
//	PUT    /api/saved/{id}                 auth
//	DELETE /api/saved/{id}                 auth
//	POST   /api/users/sync                 auth
//	GET    /api/users/{uid}                auth, self only
//	PUT    /api/users/{uid}                auth, self only
//	DELETE /api/users/{uid}                auth, self only
//
// Middleware order matters: the request id must exist before the logger
// reads it, and CORS must answer preflights before auth rejects them.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger

	savedSvc := service.NewSavedService(d.Store, logger)
	collegeSvc := service.NewCollegeService(d.Store, d.Cache, logger)
	userSvc := service.NewUserService(d.Store, logger)

	saved := handler.NewSavedHandler(savedSvc, logger)
	colleges := handler.NewCollegeHandler(collegeSvc, logger)
	users := handler.NewUserHandler(userSvc, logger)
	health := handler.NewHealthHandler(d.Store, logger)

	requireAuth := auth.RequireAuth(d.Resolver, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", auth.HeaderAuthorization, auth.HeaderIDToken, auth.HeaderAdminKey},
		ExposedHeaders: []string{middleware.HeaderCache},
		MaxAge:         300,
	}))

	r.Get("/healthz", health.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/colleges", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.Cache(d.Cache, logger))
				r.Get("/", colleges.HandleBrowse)
				r.Get("/search", colleges.HandleSearch)
				r.Get("/suggestions", colleges.HandleSuggest)
				r.Get("/{id}", colleges.HandleGet)
			})
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Use(d.Admin.Require)
				r.Post("/", colleges.HandleCreate)
				r.Put("/{id}", colleges.HandleUpdate)
				r.Delete("/{id}", colleges.HandleDelete)
			})
		})

		r.Route("/saved", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", saved.HandleList)
			r.Post("/", saved.HandleCreate)
			r.Get("/check/{name}", saved.HandleCheck)
			r.Get("/{id}", saved.HandleGet)
			r.Put("/{id}", saved.HandleUpdate)
			r.Delete("/{id}", saved.HandleDelete)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/sync", users.HandleSync)
			r.Get("/{uid}", users.HandleGet)
			r.Put("/{uid}", users.HandleUpdate)
			r.Delete("/{uid}", users.HandleDelete)
		})
	})

	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to 30 seconds and closes the store and Redis.
func (s *Server) Start() error {
	defer s.close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("store", s.cfg.StoreDriver),
			slog.String("auth", s.cfg.AuthMode),
			slog.Bool("cache", s.rdb != nil),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

func (s *Server) close() {
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			s.logger.Warn("closing redis", slog.String("error", err.Error()))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("closing store", slog.String("error", err.Error()))
		}
	}
}
