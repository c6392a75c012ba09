package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foogaro/kinexis/config"
	"github.com/foogaro/kinexis/envelope"
	"github.com/foogaro/kinexis/idcodec"
	"github.com/foogaro/kinexis/logger"
	"github.com/foogaro/kinexis/policy"
	"github.com/foogaro/kinexis/store"
)

func TestConsumerEnsureGroupBootstrapsMissingStream(t *testing.T) {
	_, client := newTestRedis(t)
	defer client.Close()
	ctx := context.Background()

	entity, storeName := "good", "primary"
	c := NewConsumer[good, int](client, entity, storeName, config.Default(), logger.NewTestLogger(),
		func(ctx context.Context, id string, fields envelope.Fields) error { return nil })

	require.NoError(t, c.ensureGroup(ctx))

	stream := envelope.StreamName(entity)
	msgs, err := client.XRange(ctx, stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "true", msgs[0].Values[envelope.FieldInit])

	groups, err := client.XInfoGroups(ctx, stream).Result()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, envelope.GroupName(storeName), groups[0].Name)

	// second call is idempotent (BUSYGROUP tolerated)
	require.NoError(t, c.ensureGroup(ctx))
}

func TestConsumerDeliversProducedEntry(t *testing.T) {
	_, client := newTestRedis(t)
	defer client.Close()

	entity, storeName := "good", "primary"
	ms := store.NewMemoryStore[good, int](func(g good) int { return g.ID })
	named := []store.Named[good, int]{{Name: storeName, Store: ms}}
	proc := NewProcessor[good, int](policy.JSON, idcodec.Int().Parse, named)
	orch := NewOrchestrator[good, int](client, envelope.StreamName(entity), envelope.GroupName(storeName), proc, logger.NewTestLogger())

	cfg := config.New(config.WithPollTimeout(50 * time.Millisecond))
	c := NewConsumer[good, int](client, entity, storeName, cfg, logger.NewTestLogger(), orch.Orchestrate)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = c.Run(ctx)
		close(done)
	}()

	// give ensureGroup a beat to establish the stream/group.
	time.Sleep(20 * time.Millisecond)

	producer := NewProducer[good, int](client, entity, policy.JSON)
	_, err := producer.AppendSave(context.Background(), good{ID: 7, Name: "delivered"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok, err := ms.FindByID(context.Background(), 7)
		return err == nil && ok
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
}
