package pubsub_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/brood-labs/broodd/internal/core/domain"
	"github.com/brood-labs/broodd/internal/infrastructure/pubsub"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	ps := pubsub.NewPubSub()
	defer ps.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := ps.Subscribe(ctx)
	require.NoError(t, err)

	var dna domain.DNA
	require.NoError(t, dna.FromString("000102030405060708090a0b0c0d0e0f"))

	event := domain.UnitCreated{Unit: dna, Owner: "alice"}
	require.NoError(t, ps.Publish(ctx, event))

	select {
	case msg := <-msgs:
		require.Equal(t, domain.EventKindUnitCreated, pubsub.EventKind(msg))

		var got domain.UnitCreated
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		require.Equal(t, event, got)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishMany(t *testing.T) {
	ps := pubsub.NewPubSub()
	defer ps.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := ps.Subscribe(ctx)
	require.NoError(t, err)

	var dna domain.DNA
	require.NoError(t, ps.Publish(ctx,
		domain.UnitCreated{Unit: dna, Owner: "alice"},
		domain.UnitPriceSet{Unit: dna, Owner: "alice", Price: 75},
	))

	kinds := make([]string, 0, 2)
	for range 2 {
		select {
		case msg := <-msgs:
			kinds = append(kinds, pubsub.EventKind(msg))
			msg.Ack()
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
	require.Equal(t, []string{
		domain.EventKindUnitCreated, domain.EventKindUnitPriceSet,
	}, kinds)
}
