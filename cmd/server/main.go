package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/concertify/internal/catalog"
	"github.com/iliyamo/concertify/internal/chat"
	"github.com/iliyamo/concertify/internal/config"
	"github.com/iliyamo/concertify/internal/database"
	"github.com/iliyamo/concertify/internal/handler"
	"github.com/iliyamo/concertify/internal/log"
	"github.com/iliyamo/concertify/internal/notify"
	"github.com/iliyamo/concertify/internal/paypal"
	"github.com/iliyamo/concertify/internal/queue"
	"github.com/iliyamo/concertify/internal/repository"
	"github.com/iliyamo/concertify/internal/router"
	"github.com/iliyamo/concertify/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log.Init(cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	db := openDatabase(ctx, cfg.DB)
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		logrus.WithError(err).Error("migrations failed; continuing")
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	} else {
		logrus.Info("redis not configured; rate limiting and caching disabled")
	}

	outbound := &http.Client{Timeout: cfg.OutboundTimeout}
	discord := chat.NewClient(cfg.DiscordWebhookURL, outbound)
	messenger := notify.NewClient(notify.ClientOptions{
		BaseURL:      cfg.Notification.BaseURL,
		ClientID:     cfg.Notification.ClientID,
		ClientSecret: cfg.Notification.ClientSecret,
		Type:         cfg.Notification.Type,
		HTTPClient:   outbound,
	})
	processor := notify.NewProcessor(messenger, discord)

	var (
		dispatcher notify.Dispatcher
		async      *notify.AsyncDispatcher
		consumer   *queue.Consumer
	)
	if url := cfg.BrokerURL(); url != "" {
		dispatcher = queue.NewPublisher(url)
		consumer = queue.NewConsumer(url, processor)
		logrus.WithField("queue", queue.NotificationQueue).Info("notifications routed through broker")
	} else {
		async = notify.NewAsyncDispatcher(processor, 3*cfg.OutboundTimeout)
		dispatcher = async
	}

	verifier := paypal.NewClient(paypal.Options{
		BaseURL:      cfg.PayPal.BaseURL(),
		ClientID:     cfg.PayPal.ClientID,
		ClientSecret: cfg.PayPal.ClientSecret,
		WebhookID:    cfg.PayPal.WebhookID,
		SkipVerify:   cfg.PayPal.SkipVerify,
		HTTPClient:   outbound,
	})

	reservations := repository.NewReservationRepo(db)
	payments := repository.NewPaymentRepo(db)
	webhook := handler.NewWebhookHandler(
		service.NewWebhook(verifier, discord, payments),
		cfg.PayPal.WebhookAck == "async",
		3*cfg.OutboundTimeout,
	)

	hs := router.Handlers{
		Health:       handler.NewHealthHandler(db),
		Reservations: handler.NewReservationHandler(reservations, dispatcher),
		Payments:     handler.NewPaymentHandler(payments, dispatcher),
		Webhook:      webhook,
		Events: handler.NewEventHandler(
			catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.APIKey, outbound),
			reservations,
		),
	}
	if cfg.AuthEnabled() {
		hs.Auth = handler.NewAuthHandler(cfg.Auth, repository.NewUserRepo(db), repository.NewTokenRepo(db))
	} else {
		logrus.Warn("JWT_SECRET not set; auth routes disabled")
	}
	e := router.New(hs, router.Options{
		JWTSecret:             cfg.Auth.JWTSecret,
		RequireAdminForStatus: cfg.Auth.RequireAdminForStatus,
		RateLimit:             config.LoadRateLimitConfig(),
		Cache:                 config.LoadCacheConfig(),
		Redis:                 rdb,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		logrus.WithField("addr", addr).WithField("env", cfg.Env).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	if consumer != nil {
		g.Go(func() error { return consumer.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(sctx); err != nil {
			logrus.WithError(err).Warn("http shutdown")
		}
		if err := webhook.Wait(sctx); err != nil {
			logrus.WithError(err).Warn("webhook verifications still running")
		}
		if async != nil {
			if err := async.Wait(sctx); err != nil {
				logrus.WithError(err).Warn("notifications still running")
			}
		}
		return nil
	})
	return g.Wait()
}

// openDatabase returns a handle even when MySQL is unavailable, so the API
// can serve catalog and health routes in a degraded mode.
func openDatabase(ctx context.Context, c config.DBConfig) *database.DB {
	if !c.Configured() {
		logrus.Warn("database not configured; persistence disabled")
		return database.New(nil)
	}
	pool, err := database.Open(ctx, database.Settings{
		URL:          c.URL(),
		Host:         c.Host,
		User:         c.User,
		Password:     c.Password,
		Name:         c.Name,
		Port:         c.Port,
		MaxOpenConns: c.MaxOpenConns,
	})
	if err != nil {
		logrus.WithError(err).Error("database unavailable; persistence disabled")
		return database.New(nil)
	}
	logrus.Info("database connected")
	return database.New(pool)
}
