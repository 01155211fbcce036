package device

import (
	"context"
	"sync"
)

// ButtonRequest 设备等待用户物理确认
type ButtonRequest struct {
	Code   string `json:"code"`
	Device string `json:"device,omitempty"`
}

// WithButtonRequests 在 call 执行期间把 button request 事件交给 handle。
// 订阅在 call 之前建立，call 返回后 (包括 panic) 取消，并等待处理协程退出，
// 因此返回后 handle 不会再被调用。
func WithButtonRequests[T any](ctx context.Context, c Client, handle func(ButtonRequest), call func(context.Context) T) T {
	ch := make(chan ButtonRequest)
	sub := c.SubscribeButtonRequests(ch)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case ev := <-ch:
				handle(ev)
			case <-sub.Err():
				return
			case <-done:
				return
			}
		}
	}()
	defer func() {
		sub.Unsubscribe()
		close(done)
		wg.Wait()
	}()

	return call(ctx)
}
