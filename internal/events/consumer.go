package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/bankdemo/transaction-service/internal/models"
	"github.com/bankdemo/transaction-service/internal/store"
)

// Consumer applies downstream transaction outcomes to the store. Every
// message is acknowledged exactly once regardless of handling outcome: a
// poison message must not crash the consumer or cause redelivery storms, so
// handling errors are logged and swallowed at the message boundary.
type Consumer struct {
	reader *kafka.Reader
	store  store.TransactionStore
	logger *zap.Logger
}

func NewConsumer(brokers []string, topic, groupID string, st store.TransactionStore, logger *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	return &Consumer{reader: reader, store: st, logger: logger}
}

// Run consumes until ctx is cancelled. Partition assignment keeps updates to
// any one transaction ordered; different transactions may apply concurrently
// across consumer instances.
func (c *Consumer) Run(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("fetching result message", zap.Error(err))
			continue
		}

		c.process(ctx, msg.Value)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("committing result message", zap.Error(err))
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// process applies one result notification. Never returns an error and never
// panics out: the transport layer must not see handling failures.
func (c *Consumer) process(ctx context.Context, value []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic handling result message", zap.Any("panic", r))
		}
	}()

	var result models.TransactionResult
	if err := json.Unmarshal(value, &result); err != nil {
		c.logger.Error("malformed result message, dropping",
			zap.ByteString("payload", value), zap.Error(err))
		return
	}

	outcome := models.Status(result.Status)
	if !outcome.Terminal() {
		c.logger.Warn("result message with non-terminal status, dropping",
			zap.Int64("transaction", result.ID), zap.String("status", result.Status))
		return
	}

	// Re-applying the outcome the record already has is a no-op in the store,
	// which makes duplicated deliveries harmless.
	err := c.store.UpdateStatus(ctx, result.ID,
		[]models.Status{models.StatusProcessing}, outcome, result.ErrorMessage)
	switch {
	case err == nil:
		c.logger.Info("transaction outcome applied",
			zap.Int64("transaction", result.ID), zap.String("status", result.Status))
	case errors.Is(err, store.ErrNotFound):
		c.logger.Warn("result for unknown transaction, dropping",
			zap.Int64("transaction", result.ID))
	case errors.Is(err, store.ErrStaleTransition):
		c.logger.Warn("result rejected, transaction not in PROCESSING",
			zap.Int64("transaction", result.ID), zap.Error(err))
	default:
		c.logger.Error("applying transaction outcome",
			zap.Int64("transaction", result.ID), zap.Error(err))
	}
}
