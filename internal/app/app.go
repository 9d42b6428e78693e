// Package app wires the service together with fx.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"venue-backend/config"
	"venue-backend/database"
	adminapi "venue-backend/internal/api/admin"
	billingapi "venue-backend/internal/api/billing"
	bookingsapi "venue-backend/internal/api/bookings"
	giftcardsapi "venue-backend/internal/api/giftcards"
	ordersapi "venue-backend/internal/api/orders"
	registrationsapi "venue-backend/internal/api/registrations"
	stripewebhooks "venue-backend/internal/api/stripewebhook"
	routes "venue-backend/internal/app/http"
	"venue-backend/internal/app/http/middleware"
	"venue-backend/internal/infra/notify"
	"venue-backend/internal/infra/realtime"
	"venue-backend/internal/infra/stripeclient"
	"venue-backend/internal/logging"
	"venue-backend/internal/repository"
	"venue-backend/internal/service/announce"
	bookingsvc "venue-backend/internal/service/booking"
	"venue-backend/internal/service/entities"
	giftsvc "venue-backend/internal/service/giftcards"
	ordersvc "venue-backend/internal/service/orders"
	"venue-backend/internal/service/payments"
	"venue-backend/internal/service/reconcile"
	regsvc "venue-backend/internal/service/registrations"
)

var InfraModule = fx.Module("infra",
	fx.Provide(
		config.Load,
		provideLogger,
		provideDB,
		provideBroadcaster,
		provideDispatcher,
		provideStripe,
	),
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		fx.Annotate(repository.NewBookingRepo, fx.As(new(bookingsvc.Repository))),
		fx.Annotate(repository.NewOrderRepo, fx.As(new(ordersvc.Repository))),
		fx.Annotate(repository.NewPaymentRepo, fx.As(new(payments.Repository))),
		fx.Annotate(repository.NewEntityReader, fx.As(new(entities.Reader))),
		fx.Annotate(repository.NewWebhookStore, fx.As(new(reconcile.Store))),
		fx.Annotate(repository.NewRegistrationRepo, fx.As(new(regsvc.Repository))),
		fx.Annotate(repository.NewGiftCardRepo, fx.As(new(giftsvc.Repository))),
	),
)

var ServiceModule = fx.Module("service",
	fx.Provide(
		announce.New,
		bookingsvc.NewService,
		ordersvc.NewService,
		regsvc.NewService,
		giftsvc.NewService,
		providePayments,
		provideReconciler,
	),
)

var HTTPModule = fx.Module("http",
	fx.Provide(
		func(s *bookingsvc.Service) *bookingsapi.Handler { return bookingsapi.NewHandler(s) },
		func(s *ordersvc.Service) *ordersapi.Handler { return ordersapi.NewHandler(s) },
		func(s *payments.Service) *billingapi.Handler { return billingapi.NewHandler(s) },
		func(s *payments.Service) *adminapi.Handler { return adminapi.NewHandler(s) },
		func(r *reconcile.Reconciler) *stripewebhooks.Handler { return stripewebhooks.NewHandler(r) },
		func(s *regsvc.Service) *registrationsapi.Handler { return registrationsapi.NewHandler(s) },
		func(s *giftsvc.Service) *giftcardsapi.Handler { return giftcardsapi.NewHandler(s) },
		provideRouter,
	),
	fx.Invoke(startServer),
)

// Options is the whole API process.
func Options() fx.Option {
	return fx.Options(InfraModule, RepositoryModule, ServiceModule, HTTPModule)
}

func provideLogger(cfg *config.Config) *logrus.Logger {
	return logging.New(cfg.LogLevel, cfg.AppEnv)
}

func provideDB(lc fx.Lifecycle, cfg *config.Config, log *logrus.Logger) (*gorm.DB, error) {
	db, err := database.Open(cfg.DBURL, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}

// provideBroadcaster falls back to a no-op when Redis is not configured.
func provideBroadcaster(lc fx.Lifecycle, cfg *config.Config, log *logrus.Logger) realtime.Broadcaster {
	if cfg.RedisAddr == "" {
		log.Warn("REDIS_ADDR not set, real-time broadcasts disabled")
		return realtime.Nop{}
	}
	client := realtime.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.WithError(err).Warn("redis unreachable, broadcasts will be dropped until it recovers")
			}
			return nil
		},
		OnStop: func(context.Context) error { return client.Close() },
	})
	return realtime.NewRedisBroadcaster(client, "venue")
}

func provideDispatcher(lc fx.Lifecycle, cfg *config.Config, log *logrus.Logger) notify.Dispatcher {
	if len(cfg.KafkaBrokers) == 0 {
		log.Warn("KAFKA_BROKERS not set, notifications are only logged")
		return notify.LogDispatcher{Log: log}
	}
	d := notify.NewKafkaDispatcher(cfg.KafkaBrokers, cfg.NotificationsTopic)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return d.Close() },
	})
	return d
}

func provideStripe(cfg *config.Config) payments.Provider {
	return stripeclient.New(cfg.StripeSecretKey)
}

func providePayments(p payments.Provider, repo payments.Repository, reader entities.Reader, cfg *config.Config, log *logrus.Logger) *payments.Service {
	return payments.NewService(p, repo, reader, payments.Config{
		Currency:           cfg.Currency,
		PlatformFeePercent: cfg.PlatformFeePercent,
		AppURL:             cfg.AppURL,
	}, log)
}

func provideReconciler(store reconcile.Store, cfg *config.Config, a *announce.Announcer, log *logrus.Logger) *reconcile.Reconciler {
	return reconcile.New(store, cfg.StripeWebhookSecret, a, log)
}

func provideRouter(cfg *config.Config, log *logrus.Logger, h routes.Handlers) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.TraceID(log),
		middleware.RequestLogger(),
		middleware.ErrorDetails(cfg.ExposeErrorDetails),
	)

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature", middleware.TraceHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.TraceHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, h, cfg.JWTSecret)
	return r
}

func startServer(lc fx.Lifecycle, cfg *config.Config, log *logrus.Logger, engine *gin.Engine) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.WithField("addr", srv.Addr).Info("starting HTTP server")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.WithError(err).Fatal("HTTP server stopped")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}
