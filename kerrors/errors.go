// Package kerrors implements the error-kind table of the write-behind
// pipeline's error handling design: a set of sentinel kinds every
// component marks its errors with, plus the two aggregate kinds the
// processor and orchestrator raise.
package kerrors

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Sentinel kinds. Components mark wrapped errors with these so callers
// can test with errors.Is (the standard library's or cockroachdb's)
// across package boundaries, e.g. on the error Reaper.Tick returns after
// routing an entry to the DLQ.
var (
	ErrBadPayload          = errors.New("kinexis: bad payload")
	ErrStoreUnavailable    = errors.New("kinexis: store unavailable")
	ErrCacheUnavailable    = errors.New("kinexis: cache unavailable")
	ErrPolicyMisconfigured = errors.New("kinexis: policy misconfigured")
)

// WrapBadPayload wraps err, marking it ErrBadPayload. Raised by facade
// encode and processor decode failures; fatal for the entry it concerns.
func WrapBadPayload(err error, msg string) error {
	return mark(err, msg, ErrBadPayload)
}

// WrapStoreUnavailable wraps err, marking it ErrStoreUnavailable.
func WrapStoreUnavailable(err error, msg string) error {
	return mark(err, msg, ErrStoreUnavailable)
}

// WrapCacheUnavailable wraps err, marking it ErrCacheUnavailable.
func WrapCacheUnavailable(err error, msg string) error {
	return mark(err, msg, ErrCacheUnavailable)
}

// markedError carries kind for the standard library's errors.Is, which
// does not see marks applied with cockroachdb's errors.Mark.
type markedError struct {
	error
	kind error
}

func (m *markedError) Is(target error) bool { return target == m.kind }

func (m *markedError) Unwrap() error { return m.error }

func mark(err error, msg string, kind error) error {
	return &markedError{error: errors.Mark(errors.Wrapf(err, "%s", msg), kind), kind: kind}
}

// ProcessMessageError aggregates one failure per store that rejected an
// apply attempt. All bound stores are attempted before this is raised.
type ProcessMessageError struct {
	Errs []error
}

func (e *ProcessMessageError) Error() string {
	parts := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		parts[i] = err.Error()
	}
	return "process message: " + strings.Join(parts, "; ")
}

func (e *ProcessMessageError) Unwrap() []error { return e.Errs }

// AcknowledgeMessageError wraps a failure to acknowledge an entry whose
// process step otherwise succeeded.
type AcknowledgeMessageError struct {
	Err error
}

func (e *AcknowledgeMessageError) Error() string {
	return "acknowledge message: " + e.Err.Error()
}

func (e *AcknowledgeMessageError) Unwrap() error { return e.Err }
