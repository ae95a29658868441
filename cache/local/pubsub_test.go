package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubSub_Delivers(t *testing.T) {
	ps := NewPubSub(8)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "games")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.Publish(ctx, "games", "hello"))

	select {
	case msg := <-ch:
		assert.Equal(t, "games", msg.Channel)
		assert.Equal(t, "hello", msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
}

func TestPubSub_ChannelFilter(t *testing.T) {
	ps := NewPubSub(8)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "games")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.Publish(ctx, "other", "nope"))

	select {
	case msg := <-ch:
		t.Fatalf("unexpected message: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPubSub_CancelClosesChannel(t *testing.T) {
	ps := NewPubSub(8)
	ch, cancel, err := ps.Subscribe(context.Background(), "games")
	require.NoError(t, err)

	cancel()
	cancel() // second cancel is safe

	_, open := <-ch
	assert.False(t, open)
}

func TestPubSub_SlowSubscriberDrops(t *testing.T) {
	ps := NewPubSub(1)
	ctx := context.Background()
	ch, cancel, err := ps.Subscribe(ctx, "games")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.Publish(ctx, "games", "first"))
	require.NoError(t, ps.Publish(ctx, "games", "dropped"))

	msg := <-ch
	assert.Equal(t, "first", msg.Payload)
	select {
	case m := <-ch:
		t.Fatalf("expected drop, got %+v", m)
	default:
	}
}
