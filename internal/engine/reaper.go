package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/foogaro/kinexis/config"
	"github.com/foogaro/kinexis/envelope"
	"github.com/foogaro/kinexis/kerrors"
	"github.com/foogaro/kinexis/logger"
)

// Reaper is the pending-entry reaper: on a fixed
// schedule it scans a consumer group's pending list, re-drives
// unacknowledged entries through the processor, tracks attempts per
// entry and routes exhausted entries to the DLQ.
type Reaper[E any, ID comparable] struct {
	client    *redis.Client
	stream    string
	dlqStream string
	group     string
	consumer  string
	processor *Processor[E, ID]
	cfg       config.Config
	logger    logger.Logger
}

// NewReaper returns a Reaper for the (entity, target store) pair's group.
func NewReaper[E any, ID comparable](client *redis.Client, entity, storeName string, processor *Processor[E, ID], cfg config.Config, log logger.Logger) *Reaper[E, ID] {
	return &Reaper[E, ID]{
		client:    client,
		stream:    envelope.StreamName(entity),
		dlqStream: envelope.DLQName(entity),
		group:     envelope.GroupName(storeName),
		consumer:  envelope.ConsumerName(entity, storeName),
		processor: processor,
		cfg:       cfg,
		logger:    log.With(map[string]interface{}{"stream": envelope.StreamName(entity), "group": envelope.GroupName(storeName)}),
	}
}

// Run ticks on cfg.FixedDelay until ctx is done. Concurrent ticks never
// overlap: the loop body runs a tick to completion before the next
// select, so a shutdown signal is only observed between ticks — an
// in-flight tick always finishes.
func (r *Reaper[E, ID]) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.FixedDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Tick(ctx); err != nil {
				r.logger.Error("reaper tick failed: %s", err)
			}
		}
	}
}

// Tick runs one pass of the reap algorithm. It returns the first error
// surfaced by a batch entry that exhausted MAX_ATTEMPTS and was routed
// to the DLQ, after which it stops processing the rest of the batch.
func (r *Reaper[E, ID]) Tick(ctx context.Context) error {
	summary, err := r.client.XPending(ctx, r.stream, r.group).Result()
	if err != nil {
		return fmt.Errorf("xpending summary %s/%s: %w", r.stream, r.group, err)
	}
	if summary.Count == 0 {
		return nil
	}

	entries, err := r.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: r.stream,
		Group:  r.group,
		Start:  "-",
		End:    "+",
		Count:  int64(r.cfg.BatchSize),
	}).Result()
	if err != nil {
		return fmt.Errorf("xpending extended %s/%s: %w", r.stream, r.group, err)
	}

	for _, pe := range entries {
		dlq, err := r.reapOne(ctx, pe.ID)
		if err != nil {
			r.logger.Error("reap %s failed: %s", pe.ID, err)
		}
		if dlq {
			return err
		}
	}
	return nil
}

// reapOne runs the reap steps for one pending entry id. The bool
// return reports whether the entry was routed to the DLQ, signaling the
// caller to stop the rest of the batch.
func (r *Reaper[E, ID]) reapOne(ctx context.Context, id string) (bool, error) {
	counterKey := envelope.RetryCounterKey(r.stream, id)
	n, err := r.client.Incr(ctx, counterKey).Result()
	if err != nil {
		return false, fmt.Errorf("incr retry counter %s: %w", counterKey, err)
	}
	r.client.Expire(ctx, counterKey, r.cfg.MaxRetention)

	msgs, err := r.client.XRange(ctx, r.stream, id, id).Result()
	if err != nil {
		return false, fmt.Errorf("read entry %s: %w", id, err)
	}
	if len(msgs) == 0 {
		// Entry vanished from the stream (trimmed) but is still pending;
		// nothing left to replay. Ack it to drop it from the pending set.
		r.client.Del(ctx, counterKey)
		r.client.XAck(ctx, r.stream, r.group, id)
		return false, nil
	}
	fields := envelope.FromValues(msgs[0].Values)

	procErr := r.processor.Process(ctx, fields)
	if procErr == nil {
		if ackErr := r.client.XAck(ctx, r.stream, r.group, id).Err(); ackErr != nil {
			return r.handleFailure(ctx, id, fields, n, counterKey, "Long lasting message", &kerrors.AcknowledgeMessageError{Err: ackErr})
		}
		r.client.Del(ctx, counterKey)
		return false, nil
	}
	return r.handleFailure(ctx, id, fields, n, counterKey, "Too many attempts", procErr)
}

func (r *Reaper[E, ID]) handleFailure(ctx context.Context, id string, fields envelope.Fields, n int64, counterKey, dlqReason string, cause error) (bool, error) {
	if n < int64(r.cfg.MaxAttempts) {
		return false, nil
	}
	if err := r.toDLQ(ctx, id, fields, dlqReason, cause); err != nil {
		return false, err
	}
	r.client.Del(ctx, counterKey)
	return true, cause
}

// toDLQ copies the original fields plus the diagnostic context required
// by the dead-letter record, appends it to the DLQ stream, then
// acknowledges the original entry so it leaves the live pending set —
// it is never both live and in DLQ as "active".
func (r *Reaper[E, ID]) toDLQ(ctx context.Context, id string, fields envelope.Fields, reason string, cause error) error {
	rec := make(map[string]interface{}, len(fields)+6)
	for k, v := range fields {
		rec[k] = v
	}
	rec["reason"] = reason
	rec["error"] = cause.Error()
	rec["streamKey"] = r.stream
	rec["streamID"] = id
	rec["consumer"] = r.consumer
	rec["group"] = r.group

	if err := r.client.XAdd(ctx, &redis.XAddArgs{Stream: r.dlqStream, Values: rec}).Err(); err != nil {
		return fmt.Errorf("dlq append %s: %w", r.dlqStream, err)
	}
	if err := r.client.XAck(ctx, r.stream, r.group, id).Err(); err != nil {
		return fmt.Errorf("ack after dlq %s: %w", id, err)
	}
	r.logger.Warn("entry %s routed to dlq: %s", id, reason)
	return nil
}
