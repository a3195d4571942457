package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/experience-booking/internal/config"
	"github.com/iliyamo/experience-booking/internal/database"
	"github.com/iliyamo/experience-booking/internal/handler"
	"github.com/iliyamo/experience-booking/internal/logger"
	"github.com/iliyamo/experience-booking/internal/metrics"
	"github.com/iliyamo/experience-booking/internal/middleware"
	"github.com/iliyamo/experience-booking/internal/queue"
	"github.com/iliyamo/experience-booking/internal/repository"
	"github.com/iliyamo/experience-booking/internal/router"
	"github.com/iliyamo/experience-booking/internal/seed"
	"github.com/iliyamo/experience-booking/internal/service"
)

func main() {
	cfg := config.Load()
	lg := logger.New(cfg.LogLevel, cfg.LogFormat)

	user, pass, host, port, name := cfg.DSNParts()
	db, err := database.Open(user, pass, host, port, name, database.Options{
		Attempts: cfg.DBConnectAttempts,
		Delay:    cfg.DBConnectDelay,
		MaxDelay: cfg.DBConnectMaxDelay,
		Log:      lg,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("database: %v", err)
	}

	experienceRepo := repository.NewExperienceRepo(db)
	promoRepo := repository.NewPromoRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	committer := repository.NewBookingCommitter(db, experienceRepo, promoRepo, bookingRepo)

	catalog := service.NewCatalogService(experienceRepo, lg)
	promos := service.NewPromoService(promoRepo, lg)

	if cfg.SeedOnStart {
		seeder := &seed.Seeder{Catalog: catalog, Resetter: experienceRepo, Promos: promoRepo, Log: lg}
		if _, err := seeder.Run(ctx, seed.Options{Reset: cfg.SeedReset}); err != nil {
			log.Fatalf("seed: %v", err)
		}
	}

	// Redis is optional; a nil client turns caching and rate limiting off.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		lg.Warn("redis unavailable: response cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}
	cacheCfg, err := config.LoadCacheConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	cache := middleware.NewResponseCache(cacheCfg, rdb, lg)

	deps := service.BookingDeps{
		Experiences: experienceRepo,
		Bookings:    bookingRepo,
		Committer:   committer,
		Promos:      promos,
		Cache:       cache,
		Log:         lg,
	}
	if cfg.EventsEnabled {
		pub := queue.NewPublisher(cfg.RabbitURL, cfg.BookingQueue, lg)
		defer pub.Close()
		deps.Events = pub
	}
	bookings := service.NewBookingService(deps, service.BookingOptions{
		PricingMode: cfg.PricingMode,
		TaxRate:     cfg.TaxRate,
		RedeemPromo: cfg.RedeemPromoOnBooking,
	})

	if cfg.MetricsEnabled {
		metrics.Register()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(lg))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))

	router.RegisterRoutes(e, router.Handlers{
		Experiences: handler.NewExperienceHandler(catalog),
		Bookings:    handler.NewBookingHandler(bookings),
		Promos:      handler.NewPromoHandler(promos),
		Cache:       cache.Middleware(),
		RateLimit:   middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, lg),
		Metrics:     cfg.MetricsEnabled,
	})

	addr := ":" + cfg.Port
	lg.Infof("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.WithError(err).Error("shutdown")
	}
}
