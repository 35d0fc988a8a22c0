//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/freeeve/playersync/internal/model"
	"github.com/freeeve/playersync/internal/testutil"
)

func setup(t *testing.T) *Client {
	t.Helper()
	rdb := testutil.SetupRedis(t)
	testutil.CleanupRedis(t, rdb)
	return NewClientFromPool(rdb, "test:"+t.Name())
}

func TestPublishSubscribeOrder(t *testing.T) {
	c := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan model.Event, 10)
	done := make(chan error, 1)
	subscribed := make(chan struct{})
	go func() {
		done <- c.Subscribe(ctx, func() { close(subscribed) }, func(e model.Event) { received <- e })
	}()

	// Publishes before confirmation would be discarded by Redis.
	select {
	case <-subscribed:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription never confirmed")
	}
	n, err := c.rdb.PubSubNumSub(ctx, c.channel).Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), n[c.channel])

	p := &model.Player{ID: "p1", Name: "Alice", Sport: "cricket"}
	events := []model.Event{model.PlayerCreated(p), model.StatsUpdated(p), model.PlayerDeleted("p1")}
	for _, e := range events {
		require.NoError(t, c.Publish(ctx, e))
	}

	for i, want := range events {
		select {
		case got := <-received:
			require.Equal(t, want.Kind, got.Kind, "event %d", i)
		case <-time.After(2 * time.Second):
			t.Fatalf("event %d not relayed", i)
		}
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop after cancel")
	}
}

func TestSubscribeSkipsGarbage(t *testing.T) {
	c := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan model.Event, 1)
	go c.Subscribe(ctx, nil, func(e model.Event) { received <- e })

	require.Eventually(t, func() bool {
		n, err := c.rdb.PubSubNumSub(ctx, c.channel).Result()
		return err == nil && n[c.channel] > 0
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.rdb.Publish(ctx, c.channel, "not json").Err())
	require.NoError(t, c.Publish(ctx, model.PlayerDeleted("p9")))

	select {
	case got := <-received:
		require.Equal(t, "p9", got.PlayerID)
	case <-time.After(2 * time.Second):
		t.Fatal("valid event after garbage was not relayed")
	}
}
