package cmd

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-connector/app/events"
	"github.com/vibast-solutions/ms-go-connector/app/factory"
	"github.com/vibast-solutions/ms-go-connector/app/ledger"
	"github.com/vibast-solutions/ms-go-connector/app/notify"
	"github.com/vibast-solutions/ms-go-connector/app/provider"
	"github.com/vibast-solutions/ms-go-connector/app/provider/epdq"
	"github.com/vibast-solutions/ms-go-connector/app/provider/sandbox"
	"github.com/vibast-solutions/ms-go-connector/app/provider/stripe"
	"github.com/vibast-solutions/ms-go-connector/app/provider/worldpay"
	"github.com/vibast-solutions/ms-go-connector/app/repository"
	"github.com/vibast-solutions/ms-go-connector/app/service"
	"github.com/vibast-solutions/ms-go-connector/config"
)

type application struct {
	cfg           *config.Config
	providers     *provider.Registry
	charges       *service.ChargeService
	refunds       *service.RefundService
	notifications *service.NotificationService
}

func mustCreateApplication() (*application, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	txManager := repository.NewTxManager(db)
	accountRepo := repository.NewGatewayAccountRepository(db)
	chargeRepo := repository.NewChargeRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	eventRepo := repository.NewChargeEventRepository(db)
	notificationLogRepo := repository.NewNotificationLogRepository(db)

	gatewayClient := provider.NewGatewayClient(&http.Client{}, cfg.Gateway.DefaultTimeout, factory.NewModuleLogger("gateway-client"))
	providerRegistry := provider.NewRegistry(
		worldpay.New(worldpay.Config{
			TestURL:            cfg.Worldpay.TestURL,
			LiveURL:            cfg.Worldpay.LiveURL,
			NotificationDomain: cfg.Worldpay.NotificationDomain,
			NotificationCIDRs:  cfg.Worldpay.NotificationCIDRs,
		}, gatewayClient, nil),
		epdq.New(epdq.Config{
			TestURL: cfg.Epdq.TestURL,
			LiveURL: cfg.Epdq.LiveURL,
		}, gatewayClient),
		stripe.New(stripe.Config{
			BaseURL:                   cfg.Stripe.BaseURL,
			SignatureToleranceSeconds: cfg.Stripe.SignatureToleranceSeconds,
		}, gatewayClient),
		sandbox.New(),
	)
	logrus.WithField("providers", providerRegistry.Names()).Info("Payment providers registered")

	var publisher events.Publisher
	var kafkaPublisher *events.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, factory.NewModuleLogger("events"))
		publisher = kafkaPublisher
	} else {
		logrus.Warn("KAFKA_BROKERS not set, domain events are only logged")
		publisher = events.NewLogPublisher(factory.NewModuleLogger("events"))
	}

	ledgerClient := ledger.NewClient(cfg.InternalEndpoints.LedgerURL, cfg.App.APIKey, cfg.InternalEndpoints.HTTPTimeout)
	refundNotifier := notify.NewRefundNotifier(cfg.InternalEndpoints.NotificationsURL, cfg.App.APIKey, cfg.InternalEndpoints.HTTPTimeout)

	chargeDriver := service.NewChargeStatusDriver(txManager, chargeRepo, eventRepo, publisher)
	refundDriver := service.NewRefundStatusDriver(txManager, refundRepo, eventRepo, publisher, refundNotifier)

	app := &application{
		cfg:       cfg,
		providers: providerRegistry,
		charges:   service.NewChargeService(accountRepo, chargeRepo, providerRegistry, chargeDriver, cfg.Charges),
		refunds: service.NewRefundService(
			txManager,
			accountRepo,
			chargeRepo,
			refundRepo,
			providerRegistry,
			ledgerClient,
			refundDriver,
		),
		notifications: service.NewNotificationService(
			accountRepo,
			chargeRepo,
			refundRepo,
			providerRegistry,
			notificationLogRepo,
			chargeDriver,
			refundDriver,
		),
	}

	cleanup := func() {
		if kafkaPublisher != nil {
			if err := kafkaPublisher.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to close event publisher")
			}
		}
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}

	return app, cleanup
}
