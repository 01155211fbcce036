package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache 定义通用缓存接口
type Cache interface {
	// Set 设置缓存
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Add 仅当 key 不存在时写入，返回是否写入成功 (SETNX 语义)
	Add(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	// Get 获取缓存，并将结果 Unmarshal 到 target 中；不存在时返回 ErrCacheMiss
	Get(ctx context.Context, key string, target interface{}) error
	// Delete 删除缓存
	Delete(ctx context.Context, key string) error
}
