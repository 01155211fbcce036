package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistributedLock 定义分布式锁接口
type DistributedLock interface {
	// Acquire 尝试获取锁，不等待
	// key: 锁的唯一标识
	// ttl: 锁的过期时间，防止持有者崩溃后永久占用
	// 返回: (是否成功, error)
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release 释放锁
	Release(ctx context.Context, key string) error
}

// RedisLock 基于 Redis SETNX 的实现，多实例部署时使用
type RedisLock struct {
	client *redis.Client
}

func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	// SET lock:<key> 1 NX EX ttl
	return l.client.SetNX(ctx, "lock:"+key, "1", ttl).Result()
}

// Release 直接删除 key。持有者校验需要 Lua 脚本，这里锁只用于同一账户的设备调用串行化
func (l *RedisLock) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, "lock:"+key).Err()
}
