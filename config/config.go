package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App               AppConfig
	HTTP              ServerConfig
	GRPC              ServerConfig
	MySQL             MySQLConfig
	Log               LogConfig
	InternalEndpoints InternalEndpointsConfig
	Gateway           GatewayConfig
	Worldpay          WorldpayConfig
	Epdq              EpdqConfig
	Stripe            StripeConfig
	Kafka             KafkaConfig
	Charges           ChargesConfig
	Jobs              JobsConfig
}

type AppConfig struct {
	ServiceName string
	APIKey      string
}

type ServerConfig struct {
	Host              string
	Port              string
	TrustedProxyCIDRs []string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

type InternalEndpointsConfig struct {
	AuthGRPCAddr     string
	LedgerURL        string
	NotificationsURL string
	HTTPTimeout      time.Duration
}

type GatewayConfig struct {
	DefaultTimeout time.Duration
}

type WorldpayConfig struct {
	TestURL            string
	LiveURL            string
	NotificationDomain string
	NotificationCIDRs  []string
}

type EpdqConfig struct {
	TestURL string
	LiveURL string
}

type StripeConfig struct {
	BaseURL                   string
	SignatureToleranceSeconds int64
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type ChargesConfig struct {
	CaptureMaxAttempts    int32
	UnauthorisedExpiry    time.Duration
	AwaitingCaptureExpiry time.Duration
	JobBatchSize          int32
}

type JobsConfig struct {
	CaptureInterval time.Duration
	ExpireInterval  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "connector-service"),
			APIKey:      getEnv("APP_API_KEY", ""),
		},
		HTTP: ServerConfig{
			Host:              getEnv("HTTP_HOST", "0.0.0.0"),
			Port:              getEnv("HTTP_PORT", "8080"),
			TrustedProxyCIDRs: getListEnv("HTTP_TRUSTED_PROXY_CIDRS", nil),
		},
		GRPC: ServerConfig{
			Host: getEnv("GRPC_HOST", "0.0.0.0"),
			Port: getEnv("GRPC_PORT", "9090"),
		},
		MySQL: MySQLConfig{
			DSN:             mysqlDSN,
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getMinutesEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		InternalEndpoints: InternalEndpointsConfig{
			AuthGRPCAddr:     getEnv("AUTH_SERVICE_GRPC_ADDR", "localhost:9090"),
			LedgerURL:        getEnv("LEDGER_URL", ""),
			NotificationsURL: getEnv("NOTIFICATIONS_URL", ""),
			HTTPTimeout:      getSecondsEnv("INTERNAL_HTTP_TIMEOUT_SECONDS", 5*time.Second),
		},
		Gateway: GatewayConfig{
			DefaultTimeout: getSecondsEnv("GATEWAY_TIMEOUT_SECONDS", 20*time.Second),
		},
		Worldpay: WorldpayConfig{
			TestURL:            getEnv("WORLDPAY_TEST_URL", "https://secure-test.worldpay.com/jsp/merchant/xml/paymentService.jsp"),
			LiveURL:            getEnv("WORLDPAY_LIVE_URL", "https://secure.worldpay.com/jsp/merchant/xml/paymentService.jsp"),
			NotificationDomain: getEnv("WORLDPAY_NOTIFICATION_DOMAIN", ".worldpay.com"),
			NotificationCIDRs:  getListEnv("WORLDPAY_NOTIFICATION_CIDRS", nil),
		},
		Epdq: EpdqConfig{
			TestURL: getEnv("EPDQ_TEST_URL", "https://mdepayments.epdq.co.uk/ncol/test"),
			LiveURL: getEnv("EPDQ_LIVE_URL", "https://payments.epdq.co.uk/ncol/prod"),
		},
		Stripe: StripeConfig{
			BaseURL:                   getEnv("STRIPE_BASE_URL", "https://api.stripe.com"),
			SignatureToleranceSeconds: int64(getIntEnv("STRIPE_SIGNATURE_TOLERANCE_SECONDS", 300)),
		},
		Kafka: KafkaConfig{
			Brokers: getListEnv("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_EVENTS_TOPIC", "card-payment-events"),
		},
		Charges: ChargesConfig{
			CaptureMaxAttempts:    int32(getIntEnv("CHARGES_CAPTURE_MAX_ATTEMPTS", 48)),
			UnauthorisedExpiry:    getMinutesEnv("CHARGES_UNAUTHORISED_EXPIRY_MINUTES", 90*time.Minute),
			AwaitingCaptureExpiry: getMinutesEnv("CHARGES_AWAITING_CAPTURE_EXPIRY_MINUTES", 120*time.Hour),
			JobBatchSize:          int32(getIntEnv("CHARGES_JOB_BATCH_SIZE", 100)),
		},
		Jobs: JobsConfig{
			CaptureInterval: getMinutesEnv("CHARGES_CAPTURE_INTERVAL_MINUTES", time.Minute),
			ExpireInterval:  getMinutesEnv("CHARGES_EXPIRE_INTERVAL_MINUTES", 5*time.Minute),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

// getListEnv reads a comma separated list, dropping empty items.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
