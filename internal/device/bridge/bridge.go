// Package bridge talks to a device bridge daemon: RPC calls are JSON over HTTP and
// button request events arrive on a websocket stream.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"wallet-suite/internal/device"
	"wallet-suite/pkg/logger"
)

const (
	defaultTimeout  = 5 * time.Minute // 用户在设备上确认可能很久
	eventTypeButton = "button"
)

// Client device.Client 的 bridge 实现
type Client struct {
	http      *resty.Client
	eventsURL string
	feed      event.Feed

	mu   sync.Mutex
	conn *websocket.Conn
	wg   sync.WaitGroup

	log *zap.Logger
}

// New baseURL 为 RPC 地址，eventsURL 为 websocket 事件地址 (可为空，表示不接收事件)
func New(baseURL, eventsURL string) *Client {
	return &Client{
		http: resty.New().
			SetHostURL(baseURL).
			SetTimeout(defaultTimeout).
			SetHeader("Content-Type", "application/json"),
		eventsURL: eventsURL,
		log:       logger.Named("bridge"),
	}
}

// Start 连接事件流并在后台转发 button request
func (c *Client) Start(ctx context.Context) error {
	if c.eventsURL == "" {
		return nil
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.eventsURL, nil)
	if err != nil {
		return fmt.Errorf("连接设备事件流失败: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.wg.Add(1)
	go c.readEvents(conn)
	return nil
}

// Close 关闭事件流并等待读协程退出
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	err := conn.Close()
	c.wg.Wait()
	return err
}

type wireEvent struct {
	Type   string `json:"type"`
	Code   string `json:"code"`
	Device string `json:"device,omitempty"`
}

func (c *Client) readEvents(conn *websocket.Conn) {
	defer c.wg.Done()
	for {
		var ev wireEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && !errors.Is(err, websocket.ErrCloseSent) {
				c.log.Debug("event stream closed", zap.Error(err))
			}
			return
		}
		if ev.Type != eventTypeButton {
			continue
		}
		c.feed.Send(device.ButtonRequest{Code: ev.Code, Device: ev.Device})
	}
}

func (c *Client) SubscribeButtonRequests(ch chan<- device.ButtonRequest) event.Subscription {
	return c.feed.Subscribe(ch)
}

func call[T any](ctx context.Context, c *Client, method string, params any) device.Response[T] {
	var out device.Response[T]
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(params).
		SetResult(&out).
		Post("/" + method)
	if err != nil {
		c.log.Warn("bridge call failed", zap.String("method", method), zap.Error(err))
		return device.Fail[T](err.Error(), device.CodeTransport)
	}
	if resp.IsError() {
		return device.Fail[T](fmt.Sprintf("bridge %s returned %s", method, resp.Status()), device.CodeTransport)
	}
	return out
}

func (c *Client) GetAddress(ctx context.Context, p device.AddressParams) device.Response[device.AddressPayload] {
	return call[device.AddressPayload](ctx, c, device.MethodGetAddress, p)
}

func (c *Client) EthereumGetAddress(ctx context.Context, p device.AddressParams) device.Response[device.AddressPayload] {
	return call[device.AddressPayload](ctx, c, device.MethodEthereumGetAddress, p)
}

func (c *Client) RippleGetAddress(ctx context.Context, p device.AddressParams) device.Response[device.AddressPayload] {
	return call[device.AddressPayload](ctx, c, device.MethodRippleGetAddress, p)
}

func (c *Client) SignTransaction(ctx context.Context, p device.SignParams) device.Response[device.SignPayload] {
	return call[device.SignPayload](ctx, c, device.MethodSignTransaction, p)
}

func (c *Client) PushTransaction(ctx context.Context, p device.PushParams) device.Response[device.PushPayload] {
	return call[device.PushPayload](ctx, c, device.MethodPushTransaction, p)
}

type cancelParams struct {
	Reason string `json:"reason"`
}

func (c *Client) Cancel(ctx context.Context, reason string) {
	resp, err := c.http.R().SetContext(ctx).SetBody(cancelParams{Reason: reason}).Post("/cancel")
	if err != nil {
		c.log.Warn("bridge cancel failed", zap.String("reason", reason), zap.Error(err))
		return
	}
	if resp.IsError() {
		c.log.Warn("bridge cancel rejected", zap.String("reason", reason), zap.String("status", resp.Status()))
	}
}
