// Package app wires configuration into running services.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"crown_back_end/internal/auth"
	"crown_back_end/internal/catalog"
	"crown_back_end/internal/config"
	"crown_back_end/internal/database"
	"crown_back_end/internal/events"
	"crown_back_end/internal/handlers"
	"crown_back_end/internal/media"
	"crown_back_end/internal/middleware"
	"crown_back_end/internal/notify"
	"crown_back_end/internal/orders"
	"crown_back_end/internal/recommend"
	"crown_back_end/internal/routes"
	"crown_back_end/internal/store"
	"crown_back_end/internal/telemetry"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const ServiceName = "crown-back-end"

type App struct {
	Config *config.Config
	Logger *zap.Logger
	Store  store.Client

	Tokens  *auth.TokenIssuer
	Auth    *auth.Service
	Catalog *catalog.Service
	Cart    *catalog.CartService
	Orders  *orders.Manager
	Engine  *recommend.Engine

	google  *auth.GoogleVerifier
	counter middleware.Counter
	closers []func(context.Context) error
}

// NewLogger returns a development logger when ENVIRONMENT=development.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Build connects every configured backend. Optional backends (Redis, MinIO,
// SMTP, Kafka, Jaeger) are skipped when their settings are empty.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}
	if err := a.build(ctx); err != nil {
		a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg, logger := a.Config, a.Logger

	shutdown, err := telemetry.InitTracing(ServiceName, cfg.JaegerEndpoint)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	a.closers = append(a.closers, shutdown)

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	a.Store = st

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}
	a.Tokens = tokens
	a.google = auth.NewGoogleVerifier(auth.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		CallbackURL:  cfg.GoogleCallbackURL,
	})
	if cfg.GoogleClientID == "" {
		logger.Warn("⚠️ GOOGLE_CLIENT_ID not set, Google sign in will reject every token")
	}
	a.Auth = auth.NewService(st, a.google, tokens, logger)

	var catalogOpts []catalog.Option
	if cfg.MinioEndpoint != "" {
		mcfg := media.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		}
		client, err := media.NewMinioClient(ctx, mcfg, logger)
		if err != nil {
			return err
		}
		catalogOpts = append(catalogOpts, catalog.WithUploader(media.NewMinioUploader(client, mcfg, logger)))
	} else {
		logger.Warn("⚠️ MINIO_ENDPOINT not set, image uploads are disabled")
	}
	a.Catalog = catalog.NewService(st, logger, catalogOpts...)
	a.Engine = recommend.NewEngine(st, logger)
	a.Cart = catalog.NewCartService(st, a.Engine, logger)

	var sender notify.Sender
	if cfg.SMTPHost != "" {
		sender = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, logger)
	} else {
		logger.Warn("⚠️ SMTP_HOST not set, emails are only logged")
		sender = notify.NewLogSender(logger)
	}
	notifier := notify.NewNotifier(sender, notify.Contact{
		StoreName: cfg.StoreName,
		Email:     cfg.BusinessEmail,
		Phone:     cfg.BusinessPhone,
		WhatsApp:  cfg.BusinessWhatsApp,
	})

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := events.NewSyncProducer(cfg.KafkaBrokers, logger)
		if err != nil {
			return err
		}
		kp := events.NewKafkaPublisher(producer, cfg.KafkaOrderTopic, logger)
		a.closers = append(a.closers, func(context.Context) error { return kp.Close() })
		publisher = kp
	}

	a.Orders = orders.NewManager(st, notifier, logger,
		orders.WithStrictTransitions(cfg.OrdersStrictTransitions),
		orders.WithPublisher(publisher),
	)
	return nil
}

func (a *App) openStore(ctx context.Context) (store.Client, error) {
	cfg, logger := a.Config, a.Logger

	var st store.Client
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("⚠️ using the in-memory store, data is lost on restart")
		st = store.NewMemoryClient()
	case config.DriverScylla:
		session, err := database.ConnectScylla(database.ScyllaConfig{
			Hosts:    cfg.ScyllaHosts,
			Keyspace: cfg.ScyllaKeyspace,
			Username: cfg.ScyllaUsername,
			Password: cfg.ScyllaPassword,
		}, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { session.Close(); return nil })
		sc := store.NewScyllaClient(session)
		if err := sc.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		st = sc
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	if cfg.RedisHost == "" {
		return st, nil
	}
	rdb, err := database.ConnectRedis(ctx, database.RedisConfig{
		Addr:     cfg.RedisHost,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
	a.counter = middleware.NewRedisCounter(rdb)
	return store.NewCachedClient(st, rdb, cfg.ProductCacheTTL, logger), nil
}

// Router builds the HTTP surface over the services.
func (a *App) Router() *gin.Engine {
	var urls handlers.AuthURLer
	if a.Config.GoogleClientID != "" {
		urls = a.google
	}
	states := handlers.NewOAuthStateStore(a.Config.JWTSecret, strings.HasPrefix(a.Config.BaseURL, "https://"))
	r := gin.New()
	routes.RegisterRoutes(r, routes.Deps{
		Service:         ServiceName,
		Logger:          a.Logger,
		Tokens:          a.Tokens,
		Counter:         a.counter,
		RateLimit:       a.Config.APIRateLimit,
		CORSOrigins:     a.Config.CORSOrigins,
		Auth:            handlers.NewAuthHandler(a.Auth, urls, states, a.Logger),
		Products:        handlers.NewProductHandler(a.Catalog, a.Logger),
		Cart:            handlers.NewCartHandler(a.Cart, a.Logger),
		Orders:          handlers.NewOrderHandler(a.Orders, a.Logger),
		Recommendations: handlers.NewRecommendationHandler(a.Engine, a.Logger),
	})
	return r
}

// Close releases the backends in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
