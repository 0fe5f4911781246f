package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

type Config struct {
	Port string
	Env  string

	DBSource string

	KafkaBrokers  []string
	EventsTopic   string
	ResultsTopic  string
	ConsumerGroup string

	AccountServiceURL  string
	AccountServiceUser string
	AccountServicePass string

	// MinTransferAmount is a policy constant, not a currency rule.
	MinTransferAmount decimal.Decimal
}

func Load() (*Config, error) {
	dbSource := os.Getenv("DB_SOURCE")
	if dbSource == "" {
		return nil, fmt.Errorf("DB_SOURCE environment variable is required")
	}

	accountURL := os.Getenv("ACCOUNT_SERVICE_URL")
	if accountURL == "" {
		return nil, fmt.Errorf("ACCOUNT_SERVICE_URL environment variable is required")
	}

	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}

	minAmount, err := decimal.NewFromString(envOr("MIN_TRANSFER_AMOUNT", "1000.00"))
	if err != nil {
		return nil, fmt.Errorf("invalid MIN_TRANSFER_AMOUNT: %w", err)
	}

	return &Config{
		Port:               envOr("SERVER_PORT", "8080"),
		Env:                envOr("ENVIRONMENT", "development"),
		DBSource:           dbSource,
		KafkaBrokers:       strings.Split(brokers, ","),
		EventsTopic:        envOr("KAFKA_TOPIC_TRANSACTION_EVENTS", "transaction-events"),
		ResultsTopic:       envOr("KAFKA_TOPIC_TRANSACTION_RESULTS", "transaction-results"),
		ConsumerGroup:      envOr("KAFKA_CONSUMER_GROUP", "transaction-service"),
		AccountServiceURL:  strings.TrimRight(accountURL, "/"),
		AccountServiceUser: envOr("ACCOUNT_SERVICE_USER", "admin"),
		AccountServicePass: envOr("ACCOUNT_SERVICE_PASS", "password"),
		MinTransferAmount:  minAmount,
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
