package config

import (
	"os"
	"testing"
	"time"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("setenv %s failed: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	_ = os.Unsetenv(key)
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		}
	})
}

func TestLoadRequiresMySQLDSN(t *testing.T) {
	unsetEnv(t, "MYSQL_DSN")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing MYSQL_DSN")
	}
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/connector?parseTime=true")
	setEnv(t, "APP_SERVICE_NAME", "connector-test")
	setEnv(t, "HTTP_PORT", "8181")
	setEnv(t, "GRPC_PORT", "9191")
	setEnv(t, "MYSQL_MAX_OPEN_CONNS", "20")
	setEnv(t, "MYSQL_MAX_IDLE_CONNS", "8")
	setEnv(t, "MYSQL_CONN_MAX_LIFETIME_MINUTES", "40")
	setEnv(t, "GATEWAY_TIMEOUT_SECONDS", "7")
	setEnv(t, "CHARGES_CAPTURE_MAX_ATTEMPTS", "5")
	setEnv(t, "CHARGES_UNAUTHORISED_EXPIRY_MINUTES", "11")
	setEnv(t, "CHARGES_JOB_BATCH_SIZE", "99")
	setEnv(t, "KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	setEnv(t, "WORLDPAY_NOTIFICATION_CIDRS", "195.35.90.0/23")
	setEnv(t, "HTTP_TRUSTED_PROXY_CIDRS", "10.0.0.0/8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.App.ServiceName != "connector-test" {
		t.Fatalf("unexpected app service name: %s", cfg.App.ServiceName)
	}
	if cfg.HTTP.Port != "8181" || cfg.GRPC.Port != "9191" {
		t.Fatalf("unexpected ports: http=%s grpc=%s", cfg.HTTP.Port, cfg.GRPC.Port)
	}
	if len(cfg.HTTP.TrustedProxyCIDRs) != 1 || cfg.HTTP.TrustedProxyCIDRs[0] != "10.0.0.0/8" {
		t.Fatalf("unexpected trusted proxies: %v", cfg.HTTP.TrustedProxyCIDRs)
	}
	if cfg.MySQL.MaxOpenConns != 20 || cfg.MySQL.MaxIdleConns != 8 {
		t.Fatalf("unexpected mysql pool config: %+v", cfg.MySQL)
	}
	if cfg.MySQL.ConnMaxLifetime != 40*time.Minute {
		t.Fatalf("unexpected mysql lifetime: %v", cfg.MySQL.ConnMaxLifetime)
	}
	if cfg.Gateway.DefaultTimeout != 7*time.Second {
		t.Fatalf("unexpected gateway timeout: %v", cfg.Gateway.DefaultTimeout)
	}
	if cfg.Charges.CaptureMaxAttempts != 5 {
		t.Fatalf("unexpected capture max attempts: %d", cfg.Charges.CaptureMaxAttempts)
	}
	if cfg.Charges.UnauthorisedExpiry != 11*time.Minute {
		t.Fatalf("unexpected unauthorised expiry: %v", cfg.Charges.UnauthorisedExpiry)
	}
	if cfg.Charges.JobBatchSize != 99 {
		t.Fatalf("unexpected job batch size: %d", cfg.Charges.JobBatchSize)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Fatalf("unexpected kafka brokers: %v", cfg.Kafka.Brokers)
	}
	if cfg.Kafka.Topic != "card-payment-events" {
		t.Fatalf("unexpected kafka topic: %s", cfg.Kafka.Topic)
	}
	if len(cfg.Worldpay.NotificationCIDRs) != 1 {
		t.Fatalf("unexpected worldpay cidrs: %v", cfg.Worldpay.NotificationCIDRs)
	}
}
