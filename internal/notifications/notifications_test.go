package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case msg := <-c.Send:
		var ev Event
		require.NoError(t, json.Unmarshal(msg, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHub_RegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()

	a, err := hub.Register(1, nil)
	require.NoError(t, err)
	b, err := hub.Register(1, nil)
	require.NoError(t, err)
	other, err := hub.Register(2, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, hub.ConnectionCount())

	hub.Broadcast(1, `{"type":"ping"}`)
	assert.Len(t, a.Send, 1)
	assert.Len(t, b.Send, 1)
	assert.Len(t, other.Send, 0)

	hub.UnregisterClient(a)
	hub.UnregisterClient(a)
	assert.True(t, hub.IsOnline(1))
	hub.UnregisterClient(b)
	assert.False(t, hub.IsOnline(1))
	assert.Equal(t, 1, hub.ConnectionCount())

	require.NoError(t, hub.Shutdown(context.Background()))
	_, err = hub.Register(3, nil)
	assert.ErrorIs(t, err, ErrServerFull)
}

func TestHub_PerUserLimit(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(7, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(7, nil)
	assert.ErrorIs(t, err, ErrUserFull)
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(9, nil)
	require.NoError(t, err)
	for i := 0; i < sendBuffer+5; i++ {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, c.Send, sendBuffer)

	hub.UnregisterClient(c)
	assert.NotPanics(t, func() { c.TrySend([]byte("after close")) })
}

func TestParseUserChannel(t *testing.T) {
	t.Parallel()
	id, ok := parseUserChannel(UserChannel(42))
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"notifications:user:", "notifications:user:abc", "chat:conv:1", "notifications:user:0"} {
		_, ok := parseUserChannel(bad)
		assert.False(t, ok, bad)
	}
}

func TestDispatcher_LocalWithoutRedis(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(5, nil)
	require.NoError(t, err)

	d := NewDispatcher(hub, NewNotifier(nil))
	d.PublishUserEvent(context.Background(), 5, EventNewFollower, map[string]any{"followerId": 3})

	ev := receive(t, c)
	assert.Equal(t, EventNewFollower, ev.Type)
	assert.Equal(t, float64(3), ev.Payload.(map[string]any)["followerId"])
}

func TestDispatcher_FansOutThroughRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Two instances share Redis; the event is published on one and delivered by the other.
	publisherHub := NewHub()
	subscriberHub := NewHub()
	notifier := NewNotifier(rdb)
	require.NoError(t, subscriberHub.StartWiring(ctx, notifier))

	c, err := subscriberHub.Register(11, nil)
	require.NoError(t, err)

	NewDispatcher(publisherHub, notifier).PublishUserEvent(ctx, 11, EventCommentCreated, map[string]any{"postId": 1})

	ev := receive(t, c)
	assert.Equal(t, EventCommentCreated, ev.Type)
}

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.False(t, n.Enabled())
	assert.NoError(t, n.PublishUser(context.Background(), 1, "payload"))
	assert.NoError(t, n.StartPatternSubscriber(context.Background(), func(string, string) {}))
}
