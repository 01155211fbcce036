package mq

import (
	"context"
	"strconv"
	"sync"
)

// MemoryBroker 进程内的 Producer + Consumer，用于 mq_type=none 和测试
// Publish 同步调用所有订阅者的 handler
type MemoryBroker struct {
	mu       sync.RWMutex
	seq      int
	handlers map[string][]func(*Message) error
	messages []Message
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{handlers: make(map[string][]func(*Message) error)}
}

func (b *MemoryBroker) Publish(_ context.Context, topic string, key string, payload []byte) error {
	b.mu.Lock()
	b.seq++
	msg := Message{ID: strconv.Itoa(b.seq), Topic: topic, Key: key, Payload: append([]byte(nil), payload...)}
	b.messages = append(b.messages, msg)
	handlers := append([]func(*Message) error(nil), b.handlers[topic]...)
	b.mu.Unlock()

	for _, h := range handlers {
		m := msg
		_ = h(&m)
	}
	return nil
}

func (b *MemoryBroker) Subscribe(_ context.Context, topic string, handler func(msg *Message) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}

func (b *MemoryBroker) Close() error {
	return nil
}

// Messages 返回某个主题已发布的消息
func (b *MemoryBroker) Messages(topic string) []Message {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Message
	for _, m := range b.messages {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}
