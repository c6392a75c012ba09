package kerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapMarksSentinel(t *testing.T) {
	cause := errors.New("boom")
	err := WrapBadPayload(cause, "decode entity")
	assert.ErrorIs(t, err, ErrBadPayload)
	assert.Contains(t, err.Error(), "decode entity")
}

func TestProcessMessageErrorAggregates(t *testing.T) {
	e1 := errors.New("primary down")
	e2 := errors.New("secondary down")
	pmErr := &ProcessMessageError{Errs: []error{e1, e2}}
	assert.Contains(t, pmErr.Error(), "primary down")
	assert.Contains(t, pmErr.Error(), "secondary down")
	assert.ErrorIs(t, pmErr, e1)
	assert.ErrorIs(t, pmErr, e2)
}

func TestAcknowledgeMessageErrorUnwraps(t *testing.T) {
	cause := errors.New("xack failed")
	ackErr := &AcknowledgeMessageError{Err: cause}
	assert.ErrorIs(t, ackErr, cause)
}
