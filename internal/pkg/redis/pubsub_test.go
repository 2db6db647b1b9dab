package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPubSub(t *testing.T) (*PubSub, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewPubSub(rdb), mr
}

func TestPubSubNotify(t *testing.T) {
	ctx := context.Background()
	ps, _ := newTestPubSub(t)

	f, err := ps.Listen(ctx, "im:conversation:1_2")
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, ps.Notify(ctx, "im:conversation:1_2"))
	select {
	case <-f.C():
	case <-time.After(time.Second):
		t.Fatal("no notification received")
	}

	require.NoError(t, ps.Notify(ctx, "im:conversation:1_3"))
	select {
	case <-f.C():
		t.Fatal("notification from another channel")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPubSubCoalesce(t *testing.T) {
	ctx := context.Background()
	ps, mr := newTestPubSub(t)

	f, err := ps.Listen(ctx, "im:status:1_2")
	require.NoError(t, err)
	defer f.Close()

	for i := 0; i < 5; i++ {
		mr.Publish("im:status:1_2", "1")
	}
	select {
	case <-f.C():
	case <-time.After(time.Second):
		t.Fatal("no notification received")
	}
	assert.LessOrEqual(t, len(f.C()), 1)
}

func TestPubSubCloseEndsFeed(t *testing.T) {
	ctx := context.Background()
	ps, _ := newTestPubSub(t)

	f, err := ps.Listen(ctx, "im:status:1_2")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-f.C():
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
