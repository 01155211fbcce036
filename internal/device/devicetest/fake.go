// Package devicetest provides a scripted device.Client for tests.
package devicetest

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/event"

	"wallet-suite/internal/device"
)

// Call 一次设备调用记录
type Call struct {
	Method  string
	Address *device.AddressParams
	Sign    *device.SignParams
	Push    *device.PushParams
}

// Fake 按脚本返回结果的设备客户端。地址调用期间依次发出 ButtonRequests 中的事件
type Fake struct {
	mu   sync.Mutex
	feed event.Feed

	ButtonRequests []string
	Address        *device.Response[device.AddressPayload]
	Sign           *device.Response[device.SignPayload]
	Push           *device.Response[device.PushPayload]

	calls         []Call
	cancelReasons []string
	delivered     []int
}

func New() *Fake {
	return &Fake{}
}

func (f *Fake) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *Fake) address(method string, p device.AddressParams) device.Response[device.AddressPayload] {
	f.record(Call{Method: method, Address: &p})
	for _, code := range f.ButtonRequests {
		f.Emit(code, p.Device)
	}
	if f.Address != nil {
		return *f.Address
	}
	return device.Ok(device.AddressPayload{Address: p.Address, Path: p.Path})
}

func (f *Fake) GetAddress(_ context.Context, p device.AddressParams) device.Response[device.AddressPayload] {
	return f.address(device.MethodGetAddress, p)
}

func (f *Fake) EthereumGetAddress(_ context.Context, p device.AddressParams) device.Response[device.AddressPayload] {
	return f.address(device.MethodEthereumGetAddress, p)
}

func (f *Fake) RippleGetAddress(_ context.Context, p device.AddressParams) device.Response[device.AddressPayload] {
	return f.address(device.MethodRippleGetAddress, p)
}

func (f *Fake) SignTransaction(_ context.Context, p device.SignParams) device.Response[device.SignPayload] {
	f.record(Call{Method: device.MethodSignTransaction, Sign: &p})
	if f.Sign != nil {
		return *f.Sign
	}
	return device.Ok(device.SignPayload{Serialized: "0xdeadbeef", Txid: "0xfeed"})
}

func (f *Fake) PushTransaction(_ context.Context, p device.PushParams) device.Response[device.PushPayload] {
	f.record(Call{Method: device.MethodPushTransaction, Push: &p})
	if f.Push != nil {
		return *f.Push
	}
	return device.Ok(device.PushPayload{Txid: "txid-" + p.Tx})
}

func (f *Fake) Cancel(_ context.Context, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelReasons = append(f.cancelReasons, reason)
}

func (f *Fake) SubscribeButtonRequests(ch chan<- device.ButtonRequest) event.Subscription {
	return f.feed.Subscribe(ch)
}

// Emit 向当前订阅者发送事件，返回送达的订阅者数量
func (f *Fake) Emit(code, dev string) int {
	n := f.feed.Send(device.ButtonRequest{Code: code, Device: dev})
	f.mu.Lock()
	f.delivered = append(f.delivered, n)
	f.mu.Unlock()
	return n
}

// Calls 返回调用记录的副本
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

func (f *Fake) CancelReasons() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cancelReasons...)
}

// Delivered 每次 Emit 送达的订阅者数量
func (f *Fake) Delivered() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.delivered...)
}
