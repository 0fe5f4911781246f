package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bankdemo/transaction-service/internal/api"
	"github.com/bankdemo/transaction-service/internal/config"
	"github.com/bankdemo/transaction-service/internal/events"
	"github.com/bankdemo/transaction-service/internal/gateway"
	"github.com/bankdemo/transaction-service/internal/resilience"
	"github.com/bankdemo/transaction-service/internal/service"
	"github.com/bankdemo/transaction-service/internal/store"
)

func main() {
	// Optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Unable to build logger: %v", err)
	}
	defer logger.Sync()

	txStore, err := store.NewPostgresStore(cfg.DBSource)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer txStore.Close()

	accounts := gateway.NewClient(
		cfg.AccountServiceURL,
		cfg.AccountServiceUser,
		cfg.AccountServicePass,
		resilience.AccountServicePolicy(),
		logger,
	)

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.EventsTopic, logger)
	defer publisher.Close()

	txService := service.NewTransactionService(txStore, accounts, publisher, cfg.MinTransferAmount, logger)
	handler := api.NewHandler(txService)

	// The reconciler runs for the lifetime of the process; SIGTERM stops it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.ResultsTopic, cfg.ConsumerGroup, txStore, logger)
	defer consumer.Close()
	go consumer.Run(ctx)

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", handler.HealthCheckHandler).Methods("GET")

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/transactions", handler.CreateTransactionHandler).Methods("POST")
	apiV1.HandleFunc("/transactions/{id:[0-9]+}", handler.GetTransactionHandler).Methods("GET")
	apiV1.HandleFunc("/transactions/account/{accountId:[0-9]+}", handler.ListTransactionsByAccountHandler).Methods("GET")

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
