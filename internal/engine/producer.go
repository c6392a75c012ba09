package engine

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/foogaro/kinexis/envelope"
	"github.com/foogaro/kinexis/kerrors"
	"github.com/foogaro/kinexis/policy"
)

// Producer is the stream producer: it appends
// create/update/delete intents to the entity's stream and never talks
// to any target store directly.
type Producer[E any, ID comparable] struct {
	client *redis.Client
	stream string
	format policy.Format
}

// NewProducer returns a Producer appending to wb:stream:entity:<entity>.
func NewProducer[E any, ID comparable](client *redis.Client, entity string, format policy.Format) *Producer[E, ID] {
	return &Producer[E, ID]{client: client, stream: envelope.StreamName(entity), format: format}
}

// Stream returns the name of the entity stream this producer appends to.
func (p *Producer[E, ID]) Stream() string { return p.stream }

// AppendSave encodes e per the entity's format and appends a CREATE/UPDATE
// intent, returning the server-generated entry id.
func (p *Producer[E, ID]) AppendSave(ctx context.Context, e E) (string, error) {
	ctx, span := tracer.Start(ctx, "Producer.AppendSave", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()

	fields, err := envelope.EncodeCreateOrUpdate(e, p.format)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", kerrors.WrapBadPayload(err, "encode entity for "+p.stream)
	}
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{Stream: p.stream, Values: fields.ToValues()}).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", kerrors.WrapStoreUnavailable(err, "xadd "+p.stream)
	}
	span.SetStatus(codes.Ok, "appended")
	return id, nil
}

// AppendDelete appends a DELETE intent carrying the textual id.
func (p *Producer[E, ID]) AppendDelete(ctx context.Context, id ID, formatID func(ID) string) (string, error) {
	ctx, span := tracer.Start(ctx, "Producer.AppendDelete", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()

	fields := envelope.Fields{
		envelope.FieldContent:   formatID(id),
		envelope.FieldOperation: string(envelope.OpDelete),
	}
	entryID, err := p.client.XAdd(ctx, &redis.XAddArgs{Stream: p.stream, Values: fields.ToValues()}).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", kerrors.WrapStoreUnavailable(err, "xadd "+p.stream)
	}
	span.SetStatus(codes.Ok, "appended")
	return entryID, nil
}
