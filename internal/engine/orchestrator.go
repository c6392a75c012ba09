package engine

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/foogaro/kinexis/envelope"
	"github.com/foogaro/kinexis/kerrors"
	"github.com/foogaro/kinexis/logger"
)

// Orchestrator runs process-then-acknowledge for one (entity, target
// store) consumer group. On failure
// it surfaces the error to the consumer, which logs and continues — the
// entry remains pending for the reaper.
type Orchestrator[E any, ID comparable] struct {
	client    *redis.Client
	stream    string
	group     string
	processor *Processor[E, ID]
	logger    logger.Logger
}

// NewOrchestrator returns an Orchestrator acknowledging against group on stream.
func NewOrchestrator[E any, ID comparable](client *redis.Client, stream, group string, processor *Processor[E, ID], log logger.Logger) *Orchestrator[E, ID] {
	return &Orchestrator[E, ID]{client: client, stream: stream, group: group, processor: processor, logger: log}
}

// Orchestrate processes entry id/fields then acknowledges it on success.
func (o *Orchestrator[E, ID]) Orchestrate(ctx context.Context, id string, fields envelope.Fields) error {
	if err := o.processor.Process(ctx, fields); err != nil {
		return err
	}
	if err := o.client.XAck(ctx, o.stream, o.group, id).Err(); err != nil {
		return &kerrors.AcknowledgeMessageError{Err: err}
	}
	return nil
}
