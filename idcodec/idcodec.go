// Package idcodec supplies the parse/format pairs for the id types
// entities commonly key on: string, UUID, int and long (int64). A caller
// wires in its own pair for any other ID type — this replaces
// the single-string-constructor reflection fallback with an explicit
// function value, the idiomatic Go analogue.
package idcodec

import (
	"strconv"

	"github.com/google/uuid"
)

// Codec is the (parse, format) pair an EntityConfig needs for its ID type.
type Codec[ID any] struct {
	Parse  func(string) (ID, error)
	Format func(ID) string
}

// String is the identity codec for string ids.
func String() Codec[string] {
	return Codec[string]{
		Parse:  func(s string) (string, error) { return s, nil },
		Format: func(s string) string { return s },
	}
}

// UUID parses/formats google/uuid.UUID ids.
func UUID() Codec[uuid.UUID] {
	return Codec[uuid.UUID]{
		Parse:  uuid.Parse,
		Format: func(id uuid.UUID) string { return id.String() },
	}
}

// Int parses/formats int ids.
func Int() Codec[int] {
	return Codec[int]{
		Parse:  func(s string) (int, error) { return strconv.Atoi(s) },
		Format: func(id int) string { return strconv.Itoa(id) },
	}
}

// Int64 parses/formats int64 ("long") ids.
func Int64() Codec[int64] {
	return Codec[int64]{
		Parse:  func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) },
		Format: func(id int64) string { return strconv.FormatInt(id, 10) },
	}
}
