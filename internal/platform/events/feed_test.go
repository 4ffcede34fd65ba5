package events

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"guardx/internal/domain/model"
	"guardx/internal/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func op(i int) model.Operation {
	return model.Operation{
		ID:                fmt.Sprintf("op-%d", i),
		OperationID:       model.NewOperationID(time.Date(2024, 1, 1, 0, 0, i, 0, time.UTC)),
		Operator:          "field_operator",
		TargetsIdentified: i,
		ThreatLevel:       model.ClassifyThreat(i),
		Source:            model.SourceUpload,
	}
}

func TestMemoryFeedNewestFirst(t *testing.T) {
	feed := NewMemoryFeed(3)
	ctx := context.Background()

	recent, err := feed.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)

	for i := 0; i < 2; i++ {
		require.NoError(t, feed.Push(ctx, op(i)))
	}
	recent, err = feed.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "op-1", recent[0].ID)
	assert.Equal(t, "op-0", recent[1].ID)
}

func TestMemoryFeedEvictsOldest(t *testing.T) {
	feed := NewMemoryFeed(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, feed.Push(ctx, op(i)))
	}

	recent, err := feed.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, []string{"op-4", "op-3", "op-2"}, []string{recent[0].ID, recent[1].ID, recent[2].ID})

	recent, err = feed.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "op-4", recent[0].ID)
}

// Runs only when a Redis server is available, e.g. REDIS_ADDR=localhost:6379.
func TestRedisFeed(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb, err := ConnectRedis(ctx, &config.Config{RedisAddr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { CloseRedis(rdb) })

	key := fmt.Sprintf("guardx:test:feed:%d", time.Now().UnixNano())
	t.Cleanup(func() { rdb.Del(ctx, key) })

	sub := rdb.Subscribe(ctx, key+":events")
	t.Cleanup(func() { sub.Close() })
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	feed := NewRedisFeed(rdb, key, key+":events", 2)
	for i := 0; i < 3; i++ {
		require.NoError(t, feed.Push(ctx, op(i)))
	}

	recent, err := feed.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "op-2", recent[0].ID)
	assert.Equal(t, model.ThreatHigh, recent[0].ThreatLevel)

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Contains(t, msg.Payload, "op-0")
}

func TestConnectRedisDisabled(t *testing.T) {
	rdb, err := ConnectRedis(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.Nil(t, rdb)
}
