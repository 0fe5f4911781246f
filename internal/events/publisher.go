package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/bankdemo/transaction-service/internal/models"
)

// Publisher emits transaction snapshots for the downstream processor.
// Messages are keyed by transaction id, so events for one transaction land
// on one partition in order; there is no ordering across transactions.
//
// The writer runs in async mode: Publish returns once the message is handed
// to the transport. Delivery failures observed afterwards are logged and
// nothing else — a transaction whose event is lost after enqueue stays in
// PROCESSING (known gap, no reconciliation sweep exists).
type Publisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewPublisher(brokers []string, topic string, logger *zap.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
		Async:    true,
		Completion: func(messages []kafka.Message, err error) {
			for _, m := range messages {
				if err != nil {
					logger.Error("transaction event delivery failed",
						zap.ByteString("key", m.Key), zap.Error(err))
				} else {
					logger.Info("transaction event delivered",
						zap.ByteString("key", m.Key),
						zap.Int("partition", m.Partition))
				}
			}
		},
	}
	return &Publisher{writer: writer, logger: logger}
}

// Publish serializes the transaction and enqueues it. Only synchronous
// faults (serialization, enqueue) are returned; they are the caller's cue to
// mark the transaction FAILED.
func (p *Publisher) Publish(ctx context.Context, tx *models.Transaction) error {
	payload, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("serializing transaction %d: %w", tx.ID, err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(tx.ID, 10)),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("enqueueing event for transaction %d: %w", tx.ID, err)
	}

	p.logger.Info("transaction event queued", zap.Int64("transaction", tx.ID))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
