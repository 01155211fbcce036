package cache

import (
	"context"
	"time"
)

// MultiLevelCache 多级缓存 (L1: Memory, L2: Redis)，L2 为权威数据
type MultiLevelCache struct {
	local  Cache
	remote Cache
}

func NewMultiLevelCache(local, remote Cache) *MultiLevelCache {
	return &MultiLevelCache{local: local, remote: remote}
}

// Set L1 的 TTL 取 L2 的一半，减少脏数据停留时间
func (m *MultiLevelCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	_ = m.local.Set(ctx, key, value, ttl/2)
	return m.remote.Set(ctx, key, value, ttl)
}

// Add 以 L2 的结果为准，成功后回写 L1
func (m *MultiLevelCache) Add(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	ok, err := m.remote.Add(ctx, key, value, ttl)
	if err != nil || !ok {
		return ok, err
	}
	_ = m.local.Set(ctx, key, value, ttl/2)
	return true, nil
}

func (m *MultiLevelCache) Get(ctx context.Context, key string, target interface{}) error {
	if err := m.local.Get(ctx, key, target); err == nil {
		return nil
	}
	if err := m.remote.Get(ctx, key, target); err != nil {
		return err
	}
	// L2 命中回写 L1，TTL 较短
	_ = m.local.Set(ctx, key, target, time.Minute)
	return nil
}

func (m *MultiLevelCache) Delete(ctx context.Context, key string) error {
	_ = m.local.Delete(ctx, key)
	return m.remote.Delete(ctx, key)
}
