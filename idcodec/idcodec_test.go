package idcodec

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringCodec(t *testing.T) {
	c := String()
	id, err := c.Parse("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
	assert.Equal(t, "abc", c.Format(id))
}

func TestUUIDCodec(t *testing.T) {
	c := UUID()
	u := uuid.New()
	parsed, err := c.Parse(u.String())
	require.NoError(t, err)
	assert.Equal(t, u, parsed)
	assert.Equal(t, u.String(), c.Format(u))

	_, err = c.Parse("not-a-uuid")
	assert.Error(t, err)
}

func TestIntCodec(t *testing.T) {
	c := Int()
	id, err := c.Parse("42")
	require.NoError(t, err)
	assert.Equal(t, 42, id)
	assert.Equal(t, "42", c.Format(id))

	_, err = c.Parse("nope")
	assert.Error(t, err)
}

func TestInt64Codec(t *testing.T) {
	c := Int64()
	id, err := c.Parse("9007199254740993")
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), id)
	assert.Equal(t, "9007199254740993", c.Format(id))
}
