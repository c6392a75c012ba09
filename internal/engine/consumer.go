package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/foogaro/kinexis/config"
	"github.com/foogaro/kinexis/envelope"
	"github.com/foogaro/kinexis/logger"
)

// Consumer is the stream consumer bound to one (entity, target store)
// pair: it establishes the consumer group idempotently,
// then delivers entries in stream order to an Orchestrator.
type Consumer[E any, ID comparable] struct {
	client      *redis.Client
	stream      string
	group       string
	consumer    string
	pollTimeout time.Duration
	batchSize   int64
	logger      logger.Logger
	orchestrate func(ctx context.Context, id string, fields envelope.Fields) error
}

// NewConsumer returns a Consumer for the (entity, storeName) pair.
func NewConsumer[E any, ID comparable](client *redis.Client, entity, storeName string, cfg config.Config, log logger.Logger, orchestrate func(ctx context.Context, id string, fields envelope.Fields) error) *Consumer[E, ID] {
	return &Consumer[E, ID]{
		client:      client,
		stream:      envelope.StreamName(entity),
		group:       envelope.GroupName(storeName),
		consumer:    envelope.ConsumerName(entity, storeName),
		pollTimeout: cfg.PollTimeout,
		batchSize:   cfg.StreamBatchSize,
		logger:      log.With(map[string]interface{}{"stream": envelope.StreamName(entity), "group": envelope.GroupName(storeName)}),
		orchestrate: orchestrate,
	}
}

// ensureGroup establishes the consumer group idempotently: create the
// group at offset 0; tolerate BUSYGROUP; if the stream itself doesn't
// exist yet, bootstrap it with an init marker and create the group at
// the last-consumed offset ("$") instead.
func (c *Consumer[E, ID]) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreate(ctx, c.stream, c.group, "0").Err()
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "BUSYGROUP") {
		return nil
	}
	if strings.Contains(msg, "NOGROUP") || strings.Contains(msg, "requires the key to exist") {
		if _, err := c.client.XAdd(ctx, &redis.XAddArgs{
			Stream: c.stream,
			Values: map[string]interface{}{envelope.FieldInit: "true"},
		}).Result(); err != nil {
			return fmt.Errorf("bootstrap stream %s: %w", c.stream, err)
		}
		if err := c.client.XGroupCreate(ctx, c.stream, c.group, "$").Err(); err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("create group %s at last-consumed: %w", c.group, err)
		}
		return nil
	}
	return fmt.Errorf("create group %s: %w", c.group, err)
}

// Run establishes the group then loops reading and dispatching batches
// until ctx is done. Delivery is cooperative: the next poll does not
// start until the current batch's callbacks have all returned.
func (c *Consumer[E, ID]) Run(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}
	c.logger.Info("consumer %s started", c.consumer)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.consumer,
			Streams:  []string{c.stream, ">"},
			Count:    c.batchSize,
			Block:    c.pollTimeout,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			c.logger.Warn("poll failed: %s", err)
			continue
		}
		for _, s := range streams {
			for _, m := range s.Messages {
				fields := envelope.FromValues(m.Values)
				if err := c.orchestrate(ctx, m.ID, fields); err != nil {
					c.logger.Error("orchestrate %s failed, entry remains pending: %s", m.ID, err)
				}
			}
		}
	}
}
