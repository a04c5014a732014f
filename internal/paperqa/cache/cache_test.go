package cache

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/paperqa/internal/model"
)

// 辅助函数：创建测试用 Redis 客户端
func setupTestRedis(t *testing.T) *goredis.Client {
	client := goredis.NewClient(&goredis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis 不可用，跳过测试")
	}
	client.FlushDB(ctx)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestKeyNormalizesQuestion(t *testing.T) {
	c := New(nil, nil)
	assert.Equal(t, c.Key("a", "m", "What is  new?"), c.Key("a", "m", " what is new? "))
	assert.NotEqual(t, c.Key("a", "m", "q"), c.Key("b", "m", "q"))
	assert.NotEqual(t, c.Key("a", "m1", "q"), c.Key("a", "m2", "q"))
	assert.Contains(t, c.Key("a", "m", "q"), "paperqa:answer:a:")
}

func TestDisabledCache(t *testing.T) {
	c := New(nil, &Config{Enabled: true, TTL: time.Minute, KeyPrefix: "x:"})
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "a", "m", "q", &model.AskResponse{Response: "r"}))
	assert.Nil(t, c.Get(ctx, "a", "m", "q"))
	assert.NoError(t, c.Invalidate(ctx, "a"))
}

func TestAnswerCacheRoundTrip(t *testing.T) {
	client := setupTestRedis(t)
	c := New(client, &Config{Enabled: true, TTL: time.Minute, KeyPrefix: "test:answer:"})
	ctx := context.Background()

	assert.Nil(t, c.Get(ctx, "a", "m", "q"))

	resp := &model.AskResponse{ReportID: "01H", Response: "r", ToolsUsed: []string{"llm_generation"}}
	require.NoError(t, c.Set(ctx, "a", "m", "q", resp))
	assert.Equal(t, resp, c.Get(ctx, "a", "m", "Q"))

	require.NoError(t, c.Invalidate(ctx, "a"))
	assert.Nil(t, c.Get(ctx, "a", "m", "q"))
}

func TestAnswerCacheDropsCorruptEntry(t *testing.T) {
	client := setupTestRedis(t)
	c := New(client, &Config{Enabled: true, TTL: time.Minute, KeyPrefix: "test:answer:"})
	ctx := context.Background()

	key := c.Key("a", "m", "q")
	require.NoError(t, client.Set(ctx, key, "{not json", time.Minute).Err())
	assert.Nil(t, c.Get(ctx, "a", "m", "q"))
	assert.Equal(t, int64(0), client.Exists(ctx, key).Val())
}
