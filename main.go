package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/junaidrashid-git/storefront-api/cart"
	"github.com/junaidrashid-git/storefront-api/config"
	adminController "github.com/junaidrashid-git/storefront-api/controllers/admin"
	cartControllers "github.com/junaidrashid-git/storefront-api/controllers/cart"
	"github.com/junaidrashid-git/storefront-api/events"
	"github.com/junaidrashid-git/storefront-api/metrics"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/routes"
	"github.com/junaidrashid-git/storefront-api/settings"
	"github.com/junaidrashid-git/storefront-api/stock"
	"github.com/junaidrashid-git/storefront-api/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet: fall back to a bare production one.
		zap.Must(zap.NewProduction()).Fatal("invalid configuration", zap.Error(err))
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting storefront api", zap.String("env", cfg.Env), zap.String("port", cfg.Port))

	// Init DB
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}

	// Auto-migrate all tables
	if err := db.AutoMigrate(
		&models.Product{},
		&models.Variant{},
		&models.VariantPrice{},
		&models.InventoryLevel{},
		&models.VariantOptionValue{},
		&models.Cart{},
		&models.CartItem{},
		&models.ShippingZone{},
		&models.VATSettings{},
		&models.PromotionApplication{},
	); err != nil {
		logger.Fatal("AutoMigrate failed", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	cache := settings.NewConfigCache(1024, cfg.SettingsCacheTTL)
	cache.OnHit = m.CacheHit
	cache.OnMiss = m.CacheMiss
	provider := settings.NewProvider(store.NewSettingsSource(db), cache, cfg.SettingsCacheTTL, logger)

	hub := cartControllers.NewHub(cfg.AllowedOrigins, logger)
	notifiers := []cart.Notifier{hub}
	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	if publisher != nil {
		publisher.OnResult = m.EventPublished
		notifiers = append(notifiers, publisher)
		defer publisher.Close()
	}

	svc := cart.NewService(store.NewCartStore(db), store.NewCatalog(db), stock.NewResolver(cfg.MaxLineQuantity), provider, cart.Options{
		DefaultCurrency: cfg.DefaultCurrency,
		UnknownPolicy:   cfg.UnknownStock,
		Notifiers:       notifiers,
		Observer:        m,
		Logger:          logger,
	})

	// Gin setup
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.Metrics(m))

	// CORS settings; credentials need explicit origins
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	session := middleware.SessionOptions{
		JWTSecret:     cfg.JWTSecret,
		CookieName:    cfg.CookieName,
		LegacyCookies: cfg.LegacyCookieNames,
		MaxAge:        cfg.CookieMaxAge,
		Secure:        cfg.CookieSecure,
		Domain:        cfg.CookieDomain,
		Logger:        logger,
	}

	// Setup routes
	routes.SetupRoutes(r, routes.Deps{
		DB: db,
		Cart: cartControllers.Deps{
			Service:  svc,
			Currency: cfg.DefaultCurrency,
			Session:  session,
			Logger:   logger,
		},
		Admin: adminController.Deps{
			Service:  svc,
			Settings: provider,
			Currency: cfg.DefaultCurrency,
			Logger:   logger,
		},
		Hub:     hub,
		Metrics: m,
		APIKey:  cfg.APIKey,
		Timeout: cfg.RequestTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Abandon idle carts once a day
	go startDailySweepAtFixedTime(ctx, svc, cfg.AbandonAfter, cfg.SweepHour, cfg.SweepMinute, logger)

	// Start server
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("server running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(cfg config.Config) *zap.Logger {
	if cfg.Development() {
		return zap.Must(zap.NewDevelopment())
	}
	return zap.Must(zap.NewProduction())
}

// sweeper is the part of the cart service the daily job needs.
type sweeper interface {
	SweepAbandoned(ctx context.Context, idle time.Duration) (int64, error)
}

// startDailySweepAtFixedTime marks idle carts abandoned every day at hour:min
// until ctx is done.
func startDailySweepAtFixedTime(ctx context.Context, s sweeper, idle time.Duration, hour, min int, log *zap.Logger) {
	for {
		next := nextRun(time.Now(), hour, min)
		log.Info("next abandoned-cart sweep scheduled", zap.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		sweepOnce(ctx, s, idle, log)
	}
}

func sweepOnce(ctx context.Context, s sweeper, idle time.Duration, log *zap.Logger) {
	n, err := s.SweepAbandoned(ctx, idle)
	if err != nil {
		log.Error("abandoned-cart sweep failed", zap.Error(err))
		return
	}
	log.Info("abandoned-cart sweep done", zap.Int64("carts", n))
}

// nextRun returns the first hour:min strictly after now.
func nextRun(now time.Time, hour, min int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
