// Package cache stores answered questions in redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/paperqa/internal/model"
	"github.com/kart-io/paperqa/pkg/utils/json"
)

// Config 答案缓存配置。
type Config struct {
	// Enabled 是否启用缓存。
	Enabled bool
	// TTL 缓存过期时间。
	TTL time.Duration
	// KeyPrefix 缓存键前缀。
	KeyPrefix string
}

// DefaultConfig returns a disabled cache config.
func DefaultConfig() *Config {
	return &Config{
		Enabled:   false,
		TTL:       time.Hour,
		KeyPrefix: "paperqa:answer:",
	}
}

// AnswerCache caches answers per article, model and question.
type AnswerCache struct {
	redis  goredis.Cmdable
	config *Config
}

// New 创建答案缓存。redis 为 nil 时缓存不生效。
func New(redis goredis.Cmdable, config *Config) *AnswerCache {
	if config == nil {
		config = DefaultConfig()
	}
	return &AnswerCache{redis: redis, config: config}
}

func (c *AnswerCache) enabled() bool {
	return c != nil && c.config.Enabled && c.redis != nil
}

// Key 生成缓存键，问题先做大小写与空白归一化。
func (c *AnswerCache) Key(articleID, modelName, question string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(question), " "))
	sum := sha256.Sum256([]byte(articleID + "\x00" + modelName + "\x00" + normalized))
	return c.config.KeyPrefix + articleID + ":" + hex.EncodeToString(sum[:])
}

// Get returns the cached answer, or nil on a miss. Redis failures are logged
// and reported as a miss.
func (c *AnswerCache) Get(ctx context.Context, articleID, modelName, question string) *model.AskResponse {
	if !c.enabled() {
		return nil
	}

	key := c.Key(articleID, modelName, question)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			logger.Warnw("failed to get from answer cache", "error", err.Error(), "key", key)
		}
		return nil
	}

	var resp model.AskResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		logger.Warnw("failed to unmarshal cached answer", "error", err.Error(), "key", key)
		// 删除损坏的缓存
		_ = c.redis.Del(ctx, key).Err()
		return nil
	}
	logger.Debugw("answer cache hit", "article_id", articleID, "key", key)
	return &resp
}

// Set stores resp.
func (c *AnswerCache) Set(ctx context.Context, articleID, modelName, question string, resp *model.AskResponse) error {
	if !c.enabled() {
		return nil
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	key := c.Key(articleID, modelName, question)
	if err := c.redis.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
		logger.Warnw("failed to set answer cache", "error", err.Error(), "key", key)
		return err
	}
	return nil
}

// Invalidate drops every cached answer of an article.
func (c *AnswerCache) Invalidate(ctx context.Context, articleID string) error {
	if !c.enabled() {
		return nil
	}

	iter := c.redis.Scan(ctx, 0, c.config.KeyPrefix+articleID+":*", 0).Iterator()
	deleted := 0
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warnw("failed to delete cache key", "error", err.Error(), "key", iter.Val())
			continue
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return err
	}
	logger.Debugw("invalidated answer cache", "article_id", articleID, "deleted", deleted)
	return nil
}
