package lock

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// LocalLock 单实例部署使用的进程内锁，语义与 RedisLock 相同
type LocalLock struct {
	c *gocache.Cache
}

func NewLocalLock() *LocalLock {
	return &LocalLock{c: gocache.New(gocache.NoExpiration, time.Minute)}
}

func (l *LocalLock) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if err := l.c.Add("lock:"+key, struct{}{}, ttl); err != nil {
		return false, nil
	}
	return true, nil
}

func (l *LocalLock) Release(_ context.Context, key string) error {
	l.c.Delete("lock:" + key)
	return nil
}
