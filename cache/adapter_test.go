package cache

import (
	"context"
	"testing"
	"time"

	"github.com/kasuganosora/stashcount/cache/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCache_LocalWithoutRedis(t *testing.T) {
	c, err := NewCache(CacheConfig{})
	require.NoError(t, err)
	defer c.Close()
	_, ok := c.(*local.LocalCache)
	assert.True(t, ok)

	ctx := context.Background()
	require.NoError(t, c.HSet(ctx, "h", "1", "2"))
	all, err := c.HGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "2"}, all)
}

func TestNewPubSub_LocalRoundTrip(t *testing.T) {
	ps, err := NewPubSub(CacheConfig{LocalPubSubBuf: 4})
	require.NoError(t, err)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "ownership:item_op")
	require.NoError(t, err)

	require.NoError(t, ps.Publish(ctx, "ownership:item_op", ""))
	select {
	case msg := <-ch:
		assert.Equal(t, "ownership:item_op", msg.Channel)
		assert.Equal(t, "", msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("message not forwarded")
	}

	cancel()
	_, open := <-ch
	assert.False(t, open, "adapter channel closes after cancel")
}
