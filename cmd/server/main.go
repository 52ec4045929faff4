package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-ticket-portal/internal/apiclient"
	"github.com/iliyamo/cinema-ticket-portal/internal/booking"
	"github.com/iliyamo/cinema-ticket-portal/internal/config"
	"github.com/iliyamo/cinema-ticket-portal/internal/database"
	"github.com/iliyamo/cinema-ticket-portal/internal/handler"
	"github.com/iliyamo/cinema-ticket-portal/internal/middleware"
	"github.com/iliyamo/cinema-ticket-portal/internal/payment"
	"github.com/iliyamo/cinema-ticket-portal/internal/router"
	"github.com/iliyamo/cinema-ticket-portal/internal/service"
	"github.com/iliyamo/cinema-ticket-portal/internal/txlog"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	config.LoadDotEnv()
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := apiclient.New(cfg.UpstreamBaseURL, cfg.UpstreamTimeout)
	if err != nil {
		logger.Error("invalid upstream url", "error", err)
		os.Exit(1)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable; using in-process stores, cache and rate limit disabled")
	} else {
		defer rdb.Close()
	}

	drafts, sweeper := newDraftStore(cfg, rdb, logger)
	if sweeper != nil {
		defer func() { _ = sweeper.Shutdown() }()
	}

	txStore, closeTx := newTxStore(ctx, cfg, rdb, logger)
	defer closeTx()
	history := txlog.NewHistory(txStore, logger)

	var publisher service.Publisher = service.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		publisher = service.AMQPPublisher{URL: cfg.RabbitMQURL}
	}

	bridge := payment.NewBridge()
	handoff := payment.NewHandoff(payment.Options{
		Provider:       bridge,
		Recorder:       history,
		Drafts:         drafts,
		Publisher:      publisher,
		PaymentTimeout: cfg.PaymentTimeout,
		ConfirmTimeout: cfg.ConfirmTimeout,
		SuccessPath:    cfg.SuccessPath,
		Logger:         logger,
	})

	sessCfg := middleware.SessionConfig{
		Secret:     cfg.SessionSecret,
		CookieName: cfg.SessionCookie,
		TTL:        cfg.SessionTTL,
		Secure:     cfg.IsProd(),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency.String(), "request_id", v.RequestID}
			if v.Error != nil {
				logger.Error("request", append(attrs, "error", v.Error.Error())...)
				return nil
			}
			logger.Info("request", attrs...)
			return nil
		},
	}))

	router.Register(e, router.Handlers{
		Browse:   &handler.BrowseHandler{Log: logger},
		Booking:  &handler.BookingHandler{Drafts: drafts, Log: logger},
		Checkout: &handler.CheckoutHandler{Drafts: drafts, Handoff: handoff, Reporter: bridge, Log: logger},
		Account:  &handler.AccountHandler{Session: sessCfg, History: history},
	}, router.Guards{
		Upstream:  middleware.Upstream(client, cfg.SessionCookie),
		Session:   middleware.Authenticate(sessCfg),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env, "upstream", client.BaseURL(), "txlog", cfg.TxLogDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
}

// newDraftStore picks Redis when available, otherwise an in-memory store
// swept by a background job.
func newDraftStore(cfg config.Config, rdb *redis.Client, logger *slog.Logger) (booking.Store, gocron.Scheduler) {
	if rdb != nil {
		return booking.NewRedisStore(rdb, "", cfg.DraftTTL), nil
	}
	mem := booking.NewMemoryStore(cfg.DraftTTL)
	s, err := booking.StartSweeper(mem, time.Minute)
	if err != nil {
		logger.Error("draft sweeper not started", "error", err)
		return mem, nil
	}
	return mem, s
}

// newTxStore builds the transaction log backend named by TXLOG_DRIVER.
// A redis driver without a reachable Redis falls back to memory.
func newTxStore(ctx context.Context, cfg config.Config, rdb *redis.Client, logger *slog.Logger) (txlog.Store, func()) {
	switch cfg.TxLogDriver {
	case config.TxLogMySQL:
		db, err := database.Open(database.Options{
			User: cfg.DBUser,
			Pass: cfg.DBPass,
			Host: cfg.DBHost,
			Port: cfg.DBPort,
			Name: cfg.DBName,
		})
		if err != nil {
			logger.Error("mysql connect failed", "error", err)
			os.Exit(1)
		}
		store := txlog.NewMySQLStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Error("mysql schema failed", "error", err)
			os.Exit(1)
		}
		return store, func() { _ = db.Close() }
	case config.TxLogRedis:
		if rdb != nil {
			return txlog.NewRedisStore(rdb, ""), func() {}
		}
		logger.Warn("txlog: redis unavailable, using memory")
	}
	return txlog.NewMemoryStore(), func() {}
}
