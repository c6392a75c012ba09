// Package envelope implements the stream wire format: the
// flat field map carried by every stream entry, the stable naming
// scheme for streams/groups/consumers/retry counters, and the codec
// that turns an entity into that field map and back.
package envelope

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/foogaro/kinexis/policy"
)

// Recognized field names on a stream entry.
const (
	FieldContent   = "content"
	FieldOperation = "operation"
	// FieldInit marks the bootstrap record appended to a freshly created
	// stream so a consumer group can be created against it. It carries
	// no content and is always a no-op for the processor.
	FieldInit = "init"
)

// Operation is the mutation kind carried by an intent record.
type Operation string

const (
	OpCreate Operation = "CREATE"
	OpRead   Operation = "READ"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// ParseOperation maps the wire string to an Operation. An absent or
// unrecognized value is treated as CREATE/UPDATE.
func ParseOperation(s string) Operation {
	switch Operation(strings.ToUpper(s)) {
	case OpCreate, OpRead, OpUpdate, OpDelete:
		return Operation(strings.ToUpper(s))
	default:
		return OpCreate
	}
}

// Fields is the flat string-to-string map that is the unit exchanged
// over the stream.
type Fields map[string]string

// FromValues converts a go-redis XReadGroup/XRange Values map (whose
// values are typically strings already) into Fields.
func FromValues(values map[string]interface{}) Fields {
	f := make(Fields, len(values))
	for k, v := range values {
		if s, ok := v.(string); ok {
			f[k] = s
		} else {
			f[k] = fmt.Sprint(v)
		}
	}
	return f
}

// ToValues converts Fields into the map[string]interface{} shape go-redis'
// XAddArgs.Values expects.
func (f Fields) ToValues() map[string]interface{} {
	v := make(map[string]interface{}, len(f))
	for k, val := range f {
		v[k] = val
	}
	return v
}

// HasContent reports whether f carries the content field. A record
// lacking it (the init bootstrap marker, or any malformed record) is
// always a processor no-op.
func (f Fields) HasContent() bool {
	_, ok := f[FieldContent]
	return ok
}

// Operation returns the parsed operation field, defaulting to CREATE.
func (f Fields) Operation() Operation {
	v, ok := f[FieldOperation]
	if !ok {
		return OpCreate
	}
	return ParseOperation(v)
}

// ErrMissingContent is returned by DecodeCreateOrUpdate when the field
// map has no content field to decode.
var ErrMissingContent = fmt.Errorf("envelope: missing content field")

// EncodeCreateOrUpdate serializes e into the content field per format:
// JSON text for policy.JSON, or JSON-encoded field-map text for
// policy.HASH (the cache store re-expands that text into hash fields;
// the stream envelope itself always carries exactly one content string).
func EncodeCreateOrUpdate[E any](e E, format policy.Format) (Fields, error) {
	switch format {
	case policy.HASH:
		m, err := EncodeFieldMap(e)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(m)
		if err != nil {
			return nil, err
		}
		return Fields{FieldContent: string(b)}, nil
	default:
		b, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		return Fields{FieldContent: string(b)}, nil
	}
}

// DecodeCreateOrUpdate is the inverse of EncodeCreateOrUpdate.
func DecodeCreateOrUpdate[E any](f Fields, format policy.Format) (E, error) {
	var zero E
	content, ok := f[FieldContent]
	if !ok {
		return zero, ErrMissingContent
	}
	switch format {
	case policy.HASH:
		var m map[string]string
		if err := json.Unmarshal([]byte(content), &m); err != nil {
			return zero, err
		}
		return DecodeFieldMap[E](m)
	default:
		var e E
		err := json.Unmarshal([]byte(content), &e)
		return e, err
	}
}

// EncodeFieldMap flattens e into a map of raw JSON fragments, one per
// top-level JSON field. Used both for the HASH wire content above and
// directly by the Redis cache store adapter for its HASH-format layout.
func EncodeFieldMap[E any](e E) (map[string]string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = string(v)
	}
	return out, nil
}

// DecodeFieldMap is the inverse of EncodeFieldMap: each map value must be
// a valid JSON fragment (as EncodeFieldMap produces), so the round trip
// is lossless for any entity type.
func DecodeFieldMap[E any](m map[string]string) (E, error) {
	var e E
	raw := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		raw[k] = json.RawMessage(v)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return e, err
	}
	err = json.Unmarshal(b, &e)
	return e, err
}

// StreamName returns the entity stream name: wb:stream:entity:<lower-type>.
func StreamName(entity string) string {
	return "wb:stream:entity:" + strings.ToLower(entity)
}

// DLQName returns the dead-letter stream name for entity.
func DLQName(entity string) string {
	return StreamName(entity) + ":dlq"
}

// GroupName returns the consumer group name for a bound target store.
func GroupName(storeName string) string {
	return strings.ToLower(storeName) + "_group"
}

// ConsumerName returns the consumer name for an (entity, store) pair.
func ConsumerName(entity, storeName string) string {
	return strings.ToLower(entity) + "_" + strings.ToLower(storeName) + "_consumer"
}

// RetryCounterKey returns the key backing the per-entry attempt counter.
func RetryCounterKey(stream, entryID string) string {
	return stream + ":" + entryID
}
