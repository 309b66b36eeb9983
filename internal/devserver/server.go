// Package devserver is a self-contained stand-in for the storefront platform
// API. It serves the same routes, bodies, and error contract the hosted
// platform does, backed by a local database and a seeded catalog, so the
// client and CLI can be exercised without network access.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/threadlane/storefront-go/pkg/config"
	"github.com/threadlane/storefront-go/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Server owns the router and database of the local platform fake.
type Server struct {
	cfg  config.DevServerConfig
	db   *gorm.DB
	logg *logger.Logger
	now  func() time.Time
}

// New opens the database, migrates the schema, optionally seeds fixtures,
// and returns a ready server.
func New(cfg config.DevServerConfig, logg *logger.Logger) (*Server, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&userRecord{},
		&productRecord{},
		&orderRecord{},
		&reviewRecord{},
		&subscriberRecord{},
		&returnRecord{},
	); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	s := &Server{cfg: cfg, db: db, logg: logg, now: time.Now}
	if cfg.Seed {
		if err := s.seed(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func openDB(cfg config.DevServerConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	switch cfg.Driver {
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		db, err := gorm.Open(sqlite.Open(dsn), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		return db, nil
	case "postgres":
		if cfg.DSN == "" {
			return nil, errors.New("postgres driver requires a dsn")
		}
		db, err := gorm.Open(postgres.Open(cfg.DSN), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// Handler assembles the chi router serving the platform contract under /api.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.CORSAllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Idempotency-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/auth/profile", s.handleProfile)
			r.Put("/auth/profile", s.handleUpdateProfile)
			r.Put("/auth/change-password", s.handleChangePassword)
		})

		r.Get("/products", s.handleListProducts)
		r.Get("/products/featured", s.handleFeaturedProducts)
		r.Get("/products/categories", s.handleCategories)
		r.Get("/products/brands", s.handleBrands)
		r.Get("/products/{id}", s.handleGetProduct)
		r.Get("/products/{id}/related", s.handleRelatedProducts)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/orders", s.handleCreateOrder)
			r.Get("/orders", s.handleListOrders)
			r.Get("/orders/{id}", s.handleGetOrder)
			r.Put("/orders/{id}/cancel", s.handleCancelOrder)
		})

		r.Get("/reviews/product/{id}", s.handleProductReviews)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/reviews", s.handleCreateReview)
			r.Put("/reviews/{id}", s.handleUpdateReview)
			r.Delete("/reviews/{id}", s.handleDeleteReview)
			r.Post("/reviews/{id}/helpful", s.handleMarkHelpful)
		})

		r.Get("/flash-sales/active", s.handleActiveFlashSales)
		r.Get("/flash-sales/upcoming", s.handleUpcomingFlashSales)
		r.Get("/flash-sales/product/{id}/price", s.handleFlashSalePrice)
		r.Get("/flash-sales/{id}", s.handleGetFlashSale)

		r.Post("/newsletter/subscribe", s.handleNewsletterSubscribe)
		r.Post("/newsletter/unsubscribe", s.handleNewsletterUnsubscribe)
		r.Put("/newsletter/preferences", s.handleNewsletterPreferences)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/returns", s.handleCreateReturn)
			r.Get("/returns", s.handleListReturns)
			r.Get("/returns/{id}", s.handleGetReturn)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then drains within the shutdown grace.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if s.logg != nil {
			s.logg.Info(ctx, "dev server listening on :"+s.cfg.Port)
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
