// Package app assembles the stores, clients and services shared by the HTTP
// server and the operator CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"coffeereg/internal/audit"
	compservice "coffeereg/internal/competition/service"
	compstore "coffeereg/internal/competition/store"
	"coffeereg/internal/notification"
	"coffeereg/internal/notification/mailer"
	notifmetrics "coffeereg/internal/notification/metrics"
	"coffeereg/internal/payment/deliveries"
	"coffeereg/internal/payment/gateway"
	paymetrics "coffeereg/internal/payment/metrics"
	payservice "coffeereg/internal/payment/service"
	"coffeereg/internal/platform/config"
	"coffeereg/internal/platform/health"
	"coffeereg/internal/platform/kafka/producer"
	"coffeereg/internal/platform/metrics"
	"coffeereg/internal/platform/mongodb"
	redisplatform "coffeereg/internal/platform/redis"
	"coffeereg/internal/platform/tracer"
	"coffeereg/internal/registration/attachment"
	regmetrics "coffeereg/internal/registration/metrics"
	regmodels "coffeereg/internal/registration/models"
	regservice "coffeereg/internal/registration/service"
	regstore "coffeereg/internal/registration/store"
	"coffeereg/internal/seeder"
	"coffeereg/pkg/platform/circuit"
)

const (
	auditBuffer          = 256
	producerCloseTimeout = 5 * time.Second
)

// App holds the wired services. Close releases every client it opened.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Mongo    *mongodb.Handle
	Redis    *redisplatform.Client
	Producer *producer.Producer

	Audit         *audit.Publisher
	Breaker       *circuit.Breaker
	Gateway       *gateway.Client
	Competitions  *compservice.Service
	Registrations *regservice.Service
	Payments      *payservice.Service
	Notifications *notification.Dispatcher

	closers []func(context.Context) error
}

type buildOptions struct {
	registerer  prometheus.Registerer
	gatewayDoer gateway.HTTPDoer
	mailer      notification.Mailer
}

type Option func(*buildOptions)

// WithRegisterer registers collectors on reg instead of the default
// registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *buildOptions) {
		o.registerer = reg
	}
}

// WithGatewayClient replaces the HTTP client used for Razorpay calls.
func WithGatewayClient(doer gateway.HTTPDoer) Option {
	return func(o *buildOptions) {
		o.gatewayDoer = doer
	}
}

// WithMailer replaces the configured mail transport.
func WithMailer(m notification.Mailer) Option {
	return func(o *buildOptions) {
		o.mailer = m
	}
}

// New connects the configured backends and builds the services. Backends
// without configuration fall back to in-process implementations.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (_ *App, err error) {
	o := &buildOptions{registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background()) //nolint:errcheck // best-effort cleanup on init failure
		}
	}()

	storeMetrics := metrics.NewWithRegistry(o.registerer)

	compStore, regStore, err := a.openStores(ctx, storeMetrics)
	if err != nil {
		return nil, err
	}
	a.Competitions = compservice.New(compStore, logger)

	attachments, err := a.openAttachments()
	if err != nil {
		return nil, err
	}

	auditStore, err := a.openAuditSink()
	if err != nil {
		return nil, err
	}
	a.Audit = audit.NewPublisher(auditStore,
		audit.WithAsyncBuffer(auditBuffer),
		audit.WithPublisherLogger(logger),
	)
	a.closers = append(a.closers, func(context.Context) error {
		a.Audit.Close()
		return nil
	})

	dedupe, err := a.openDeliveries(o.registerer)
	if err != nil {
		return nil, err
	}

	a.Registrations = regservice.New(regStore, a.Competitions,
		regservice.WithLogger(logger),
		regservice.WithMetrics(regmetrics.NewWithRegistry(o.registerer)),
		regservice.WithAuditPublisher(a.Audit),
		regservice.WithAttachments(attachments),
		regservice.WithIDGenerator(regmodels.NewIDGenerator(cfg.Registration.IDPrefix)),
	)

	mail := o.mailer
	if mail == nil {
		if mail, err = newMailer(cfg.Mail, logger); err != nil {
			return nil, err
		}
	}
	a.Notifications = notification.New(mail,
		notification.WithEventName(cfg.Registration.EventName),
		notification.WithLogger(logger),
		notification.WithMetrics(notifmetrics.NewWithRegistry(o.registerer)),
	)

	payMetrics := paymetrics.NewWithRegistry(o.registerer)
	spans := tracer.NewOTel()
	a.Breaker = circuit.New("razorpay",
		circuit.WithFailureThreshold(cfg.Gateway.FailureThreshold),
		circuit.WithCooldown(cfg.Gateway.Cooldown),
	)
	a.Gateway = gateway.New(gateway.Config{
		BaseURL:    cfg.Gateway.BaseURL,
		KeyID:      cfg.Gateway.KeyID,
		KeySecret:  cfg.Gateway.KeySecret,
		Timeout:    cfg.Gateway.Timeout,
		HTTPClient: o.gatewayDoer,
		Breaker:    a.Breaker,
		Metrics:    payMetrics,
		Tracer:     spans,
	})
	if cfg.Gateway.KeyID == "" || cfg.Gateway.KeySecret == "" {
		logger.Warn("razorpay credentials not configured, payment calls will fail")
	}

	a.Payments = payservice.New(a.Registrations, a.Gateway, cfg.Gateway.KeySecret,
		payservice.WithLogger(logger),
		payservice.WithMetrics(payMetrics),
		payservice.WithTracer(spans),
		payservice.WithAuditPublisher(a.Audit),
		payservice.WithNotifier(a.Notifications),
		payservice.WithNotifyTimeout(cfg.Mail.Timeout),
		payservice.WithWebhookSecret(cfg.Gateway.WebhookSecret),
		payservice.WithDeliveries(dedupe),
		payservice.WithAckUnknownWebhooks(cfg.Gateway.AckUnknownWebhooks),
	)

	if a.Mongo == nil {
		// An empty in-memory catalog would reject every submission.
		if _, err := a.SeedCatalog(ctx, cfg.Registration.CatalogFile); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *App) openStores(ctx context.Context, m *metrics.Metrics) (compservice.Store, regservice.Store, error) {
	a.Mongo = mongodb.New(mongodb.Config{
		URI:            a.Config.Mongo.URI,
		Database:       a.Config.Mongo.Database,
		ConnectTimeout: a.Config.Mongo.ConnectTimeout,
	})
	if a.Mongo == nil {
		a.Logger.Warn("MONGODB_URI not set, using in-memory stores")
		return compstore.NewInMemory(), regstore.NewInMemory(), nil
	}
	a.closers = append(a.closers, a.Mongo.Close)

	if err := a.Mongo.EnsureIndexes(ctx); err != nil {
		return nil, nil, err
	}
	regColl, err := a.Mongo.Collection(mongodb.RegistrationsCollection)
	if err != nil {
		return nil, nil, err
	}
	compColl, err := a.Mongo.Collection(mongodb.CompetitionsCollection)
	if err != nil {
		return nil, nil, err
	}
	return compstore.NewMongo(compColl, m), regstore.NewMongo(regColl, m), nil
}

func (a *App) openAttachments() (regservice.Attachments, error) {
	if a.Config.Registration.AttachmentBackend == "gridfs" {
		db, err := a.Mongo.Database()
		if err != nil {
			return nil, err
		}
		return attachment.NewGridFSStore(db), nil
	}
	fs, err := attachment.NewFileStore(a.Config.Registration.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("open upload dir: %w", err)
	}
	return fs, nil
}

func (a *App) openAuditSink() (audit.Store, error) {
	if a.Config.Kafka.Brokers == "" {
		return audit.NewInMemoryStore(), nil
	}
	p, err := producer.New(producer.Config{
		Brokers:         a.Config.Kafka.Brokers,
		Retries:         3,
		DeliveryTimeout: 10 * time.Second,
	}, a.Logger)
	if err != nil {
		return nil, err
	}
	a.Producer = p
	a.closers = append(a.closers, func(context.Context) error {
		return p.Close(producerCloseTimeout)
	})
	return audit.NewKafkaStore(p, a.Config.Kafka.AuditTopic), nil
}

func (a *App) openDeliveries(reg prometheus.Registerer) (payservice.Deliveries, error) {
	rc, err := redisplatform.New(a.Config.Redis, redisplatform.WithRegisterer(reg))
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return deliveries.NewInMemory(a.Config.Redis.DeliveryTTL), nil
	}
	a.Redis = rc
	a.closers = append(a.closers, func(context.Context) error {
		return rc.Close()
	})
	return deliveries.NewRedis(rc.Client, a.Config.Redis.DeliveryTTL), nil
}

func newMailer(cfg config.MailConfig, logger *slog.Logger) (notification.Mailer, error) {
	if cfg.Token == "" {
		logger.Warn("ZEPTOMAIL_TOKEN not set, confirmation mails are logged only")
		return mailer.NewLogMailer(logger), nil
	}
	return mailer.NewZeptoMail(mailer.ZeptoConfig{
		URL:      cfg.APIURL,
		Token:    cfg.Token,
		From:     cfg.From,
		FromName: cfg.FromName,
		Timeout:  cfg.Timeout,
	})
}

// SeedCatalog upserts the catalog from path, or the built-in line-up when
// path is empty.
func (a *App) SeedCatalog(ctx context.Context, path string) (int, error) {
	return seeder.New(a.Competitions, a.Logger).SeedFromFile(ctx, path)
}

// RegisterHealthChecks adds a readiness check per connected backend.
func (a *App) RegisterHealthChecks(h *health.Handler) {
	if a.Mongo != nil {
		h.RegisterCheck("mongodb", a.Mongo.Health)
	}
	if a.Redis != nil {
		h.RegisterCheck("redis", a.Redis.Health)
	}
	if a.Producer != nil {
		h.RegisterCheck("kafka", a.Producer.Health)
	}
	h.RegisterCheck("razorpay", func(context.Context) error {
		if a.Breaker.IsOpen() {
			return errors.New("circuit open")
		}
		return nil
	})
}

// Close releases clients in reverse order of creation.
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
