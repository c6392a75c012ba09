package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foogaro/kinexis/envelope"
	"github.com/foogaro/kinexis/idcodec"
	kerrs "github.com/foogaro/kinexis/kerrors"
	"github.com/foogaro/kinexis/policy"
	"github.com/foogaro/kinexis/store"
)

type good struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func namedStores(t *testing.T, names ...string) ([]store.Named[good, int], []*store.MemoryStore[good, int]) {
	t.Helper()
	identify := func(g good) int { return g.ID }
	var named []store.Named[good, int]
	var raw []*store.MemoryStore[good, int]
	for _, n := range names {
		ms := store.NewMemoryStore[good, int](identify)
		named = append(named, store.Named[good, int]{Name: n, Store: ms})
		raw = append(raw, ms)
	}
	return named, raw
}

func TestProcessorNoOpOnMissingContent(t *testing.T) {
	named, raw := namedStores(t, "primary")
	p := NewProcessor[good, int](policy.JSON, idcodec.Int().Parse, named)

	err := p.Process(context.Background(), envelope.Fields{envelope.FieldInit: "true"})
	require.NoError(t, err)
	assert.Equal(t, 0, raw[0].Len())
}

func TestProcessorFanOutSaveToAllStores(t *testing.T) {
	named, raw := namedStores(t, "a", "b")
	p := NewProcessor[good, int](policy.JSON, idcodec.Int().Parse, named)

	fields, err := envelope.EncodeCreateOrUpdate(good{ID: 1, Name: "x"}, policy.JSON)
	require.NoError(t, err)

	require.NoError(t, p.Process(context.Background(), fields))
	for _, ms := range raw {
		got, ok, err := ms.FindByID(context.Background(), 1)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "x", got.Name)
	}
}

func TestProcessorFanOutDeleteToAllStores(t *testing.T) {
	named, raw := namedStores(t, "a", "b")
	p := NewProcessor[good, int](policy.JSON, idcodec.Int().Parse, named)

	for _, ms := range raw {
		_, err := ms.Save(context.Background(), good{ID: 5, Name: "y"})
		require.NoError(t, err)
	}

	fields := envelope.Fields{
		envelope.FieldContent:   "5",
		envelope.FieldOperation: string(envelope.OpDelete),
	}
	require.NoError(t, p.Process(context.Background(), fields))
	for _, ms := range raw {
		_, ok, err := ms.FindByID(context.Background(), 5)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestProcessorAggregatesStoreFailures(t *testing.T) {
	named, raw := namedStores(t, "a", "b")
	raw[1].Fail = errors.New("boom")
	p := NewProcessor[good, int](policy.JSON, idcodec.Int().Parse, named)

	fields, err := envelope.EncodeCreateOrUpdate(good{ID: 1, Name: "x"}, policy.JSON)
	require.NoError(t, err)

	err = p.Process(context.Background(), fields)
	require.Error(t, err)
	var pmErr *kerrs.ProcessMessageError
	require.ErrorAs(t, err, &pmErr)
	assert.Len(t, pmErr.Errs, 1)
}

func TestProcessorBadPayloadOnDecodeFailure(t *testing.T) {
	named, _ := namedStores(t, "a")
	p := NewProcessor[good, int](policy.JSON, idcodec.Int().Parse, named)

	fields := envelope.Fields{envelope.FieldContent: "not json"}
	err := p.Process(context.Background(), fields)
	require.Error(t, err)
	assert.ErrorIs(t, err, kerrs.ErrBadPayload)
}

func TestProcessorBadPayloadOnDeleteParseFailure(t *testing.T) {
	named, _ := namedStores(t, "a")
	p := NewProcessor[good, int](policy.JSON, idcodec.Int().Parse, named)

	fields := envelope.Fields{
		envelope.FieldContent:   "not-an-int",
		envelope.FieldOperation: string(envelope.OpDelete),
	}
	err := p.Process(context.Background(), fields)
	require.Error(t, err)
	assert.ErrorIs(t, err, kerrs.ErrBadPayload)
}
