package engine

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"

	"github.com/foogaro/kinexis/envelope"
	"github.com/foogaro/kinexis/kerrors"
	"github.com/foogaro/kinexis/policy"
	"github.com/foogaro/kinexis/store"
)

// Processor decodes an intent and applies it to every bound store. Each
// (E, R) consumer/reaper stack for E gets its own Processor over the same
// store list: each stack's processor fans out to every store bound to the
// entity, not only the one tied to its own consumer group.
type Processor[E any, ID comparable] struct {
	format  policy.Format
	parseID func(string) (ID, error)
	stores  []store.Named[E, ID]
}

// NewProcessor returns a Processor applying decoded intents to every store in stores.
func NewProcessor[E any, ID comparable](format policy.Format, parseID func(string) (ID, error), stores []store.Named[E, ID]) *Processor[E, ID] {
	return &Processor[E, ID]{format: format, parseID: parseID, stores: stores}
}

// Process applies fields to every bound store. A record lacking content
// (the init bootstrap marker) is a no-op. DELETE parses content as an id
// and deletes from every store; any other operation is treated as
// CREATE/UPDATE, decoding content into E and saving to every store.
func (p *Processor[E, ID]) Process(ctx context.Context, fields envelope.Fields) error {
	ctx, span := tracer.Start(ctx, "Processor.Process")
	defer span.End()

	if !fields.HasContent() {
		span.SetStatus(codes.Ok, "no-op: no content field")
		return nil
	}

	if fields.Operation() == envelope.OpDelete {
		idStr := fields[envelope.FieldContent]
		id, err := p.parseID(idStr)
		if err != nil {
			err = kerrors.WrapBadPayload(err, "parse id "+idStr)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		var errs []error
		for _, s := range p.stores {
			if err := s.Store.DeleteByID(ctx, id); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			}
		}
		if len(errs) > 0 {
			pmErr := &kerrors.ProcessMessageError{Errs: errs}
			span.RecordError(pmErr)
			span.SetStatus(codes.Error, pmErr.Error())
			return pmErr
		}
		return nil
	}

	e, err := envelope.DecodeCreateOrUpdate[E](fields, p.format)
	if err != nil {
		err = kerrors.WrapBadPayload(err, "decode entity")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	var errs []error
	for _, s := range p.stores {
		if _, err := s.Store.Save(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	if len(errs) > 0 {
		pmErr := &kerrors.ProcessMessageError{Errs: errs}
		span.RecordError(pmErr)
		span.SetStatus(codes.Error, pmErr.Error())
		return pmErr
	}
	return nil
}
