// Command server runs the signup gate HTTP API together with its retention
// scheduler.
//
// @title                      Signup Gate API
// @version                    1.0
// @description                Membership requests with administrator approval.
// @BasePath                   /api/v1
// @securityDefinitions.apikey AdminKey
// @in                         header
// @name                       X-Admin-Key
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-signup-gate/docs"
	"github.com/tbourn/go-signup-gate/internal/config"
	httpapi "github.com/tbourn/go-signup-gate/internal/http"
	"github.com/tbourn/go-signup-gate/internal/http/handlers"
	"github.com/tbourn/go-signup-gate/internal/notify"
	"github.com/tbourn/go-signup-gate/internal/observability"
	"github.com/tbourn/go-signup-gate/internal/repo"
	"github.com/tbourn/go-signup-gate/internal/scheduler"
	"github.com/tbourn/go-signup-gate/internal/services"
	"github.com/tbourn/go-signup-gate/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func setupLogging(cfg config.Config) {
	log.Logger = sysutil.NewLogger(sysutil.LogOptions{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: sysutil.FirstNonEmpty(cfg.OTEL.ServiceName, "go-signup-gate"),
		Version: version,
	})
	zerolog.DefaultContextLogger = &log.Logger
}

func run(ctx context.Context, cfg config.Config) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}

	rates, err := newRateBackend(ctx, cfg.RateStore, db)
	if err != nil {
		return err
	}
	issuer, err := newIdentity(ctx, cfg.Identity)
	if err != nil {
		return err
	}

	if len(cfg.Admin.Emails) == 0 {
		log.Warn().Msg("ADMIN_EMAILS is empty; new requests will not be announced")
	}
	if cfg.Admin.APIKey == "" {
		log.Warn().Msg("ADMIN_API_KEY is empty; admin routes refuse every request")
	}

	mailer := notify.NewMailer(newTransport(cfg.Email), cfg.Signup.ProductName, cfg.Admin.Emails)
	dispatch := services.NewDispatcher(cfg.Signup.NotifyTimeout)
	store := repo.NewSignupStore(db)

	guard := services.NewRateGuard(rates.store)
	guard.IPLimit = cfg.Signup.IPLimit
	guard.EmailLimit = cfg.Signup.EmailLimit

	submit := services.NewSubmissionService(store, issuer, guard, mailer,
		services.LinkBuilder{Base: cfg.Signup.ReviewURL}, dispatch)
	review := services.NewReviewService(store, issuer, mailer, dispatch)
	review.TokenTTL = cfg.Signup.TokenTTL
	query := services.NewQueryService(store)

	idem := &repo.IdempotencyStore{DB: db, TTL: cfg.IdempotencyTTL}
	h := handlers.New(submit, review, query, store.Stats, idem)

	sched, err := newScheduler(cfg, db, store, rates)
	if err != nil {
		return err
	}
	sched.Start()

	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		Config:      cfg,
		Handlers:    h,
		Idempotency: idem,
		Ready:       readyCheck(db, rates),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	sched.Stop(shutdownCtx)
	dispatch.Wait()
	if rates.closeFn != nil {
		if err := rates.closeFn(); err != nil {
			log.Warn().Err(err).Msg("rate store close")
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown")
	}
	log.Info().Msg("server stopped")
	return serveErr
}

// newScheduler registers the retention purge (when enabled) and the hourly
// cleanup of expired idempotency records.
func newScheduler(cfg config.Config, db *gorm.DB, store services.SignupStore, rates rateBackend) (*scheduler.Scheduler, error) {
	s := scheduler.New(cfg.Retention.Timeout)

	if cfg.Retention.Days > 0 {
		ret := &services.RetentionService{Store: store, Rates: rates.purger, Days: cfg.Retention.Days}
		err := s.Register("retention", cfg.Retention.Schedule, func(ctx context.Context) error {
			_, err := ret.Purge(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
	} else {
		log.Info().Msg("retention purge disabled")
	}

	err := s.Register("idempotency-cleanup", "0 15 * * * *", func(ctx context.Context) error {
		n, err := repo.DeleteExpiredIdempotency(ctx, db, time.Now().UTC())
		if err == nil && n > 0 {
			log.Info().Int64("deleted", n).Msg("expired idempotency records removed")
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func readyCheck(db *gorm.DB, rates rateBackend) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return err
		}
		if rates.ping != nil {
			return rates.ping(ctx)
		}
		return nil
	}
}
