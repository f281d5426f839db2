// Package kafka consumes sensor-generation events and triggers ranking
// snapshot rebuilds, so the materialized leaderboard tracks fresh sensor
// data without polling.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/canopyrisk/compliance-engine/internal/config"
)

// Rebuilder recomputes and persists the ranking snapshots.
// It is implemented by ranking.Service.
type Rebuilder interface {
	RebuildSnapshots(ctx context.Context, source string) (int, error)
}

// GenerationEvent announces that a batch of sensor readings was written
// for a business.
type GenerationEvent struct {
	BusinessID   int64     `json:"business_id"`
	ReadingCount int       `json:"reading_count"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Consumer reads generation events from a consumer group and triggers a
// snapshot rebuild per event.
type Consumer struct {
	reader    *kafkago.Reader
	rebuilder Rebuilder
	logger    *slog.Logger
}

// NewConsumer creates a consumer-group reader for the configured topic.
func NewConsumer(cfg *config.Config, rebuilder Rebuilder, logger *slog.Logger) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})
	return &Consumer{reader: reader, rebuilder: rebuilder, logger: logger}
}

// Run consumes until the context is cancelled. Fetch errors back off
// exponentially; a rebuild failure leaves the message uncommitted so it
// is redelivered.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("rebuild consumer started", "topic", c.reader.Config().Topic)

	// Start at 200ms, double each retry, cap at 5s. Keeps retry storms
	// short while avoiding tight loops during Kafka outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.logger.Info("rebuild consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("fetch generation event", "error", err, "backoff", backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = 200 * time.Millisecond

		if err := c.handleMessage(ctx, msg); err != nil {
			c.logger.Error("handle generation event", "error", err,
				"partition", msg.Partition, "offset", msg.Offset)
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("commit generation event", "error", err)
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	event, err := decodeGenerationEvent(msg.Value)
	if err != nil {
		// Malformed messages are dropped, not retried; redelivery cannot
		// fix them.
		c.logger.Warn("dropping undecodable generation event",
			"partition", msg.Partition, "offset", msg.Offset, "error", err)
		return nil
	}

	count, err := c.rebuilder.RebuildSnapshots(ctx, "kafka")
	if err != nil {
		return fmt.Errorf("rebuild snapshots for business %d: %w", event.BusinessID, err)
	}
	c.logger.Info("rankings rebuilt",
		"trigger_business_id", event.BusinessID,
		"snapshots", count)
	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// decodeGenerationEvent unmarshals a generation event and validates the
// business reference.
func decodeGenerationEvent(value []byte) (GenerationEvent, error) {
	var event GenerationEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return GenerationEvent{}, fmt.Errorf("decode generation event: %w", err)
	}
	if event.BusinessID == 0 {
		return GenerationEvent{}, errors.New("generation event missing business_id")
	}
	return event, nil
}
