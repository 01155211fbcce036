package effect

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"wallet-suite/internal/service/mq"
)

// Topics 各类意图的消息主题
type Topics struct {
	Notification string
	Modal        string
	Action       string
}

// Envelope 发布到消息队列的格式
type Envelope struct {
	Kind IntentKind      `json:"kind"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Publisher 把意图发布给外部渲染方；发布失败只记录日志
type Publisher struct {
	producer mq.Producer
	topics   Topics
	log      *zap.Logger
	now      func() time.Time
}

func NewPublisher(producer mq.Producer, topics Topics, log *zap.Logger) *Publisher {
	return &Publisher{producer: producer, topics: topics, log: log, now: time.Now}
}

func (p *Publisher) publish(ctx context.Context, topic, key string, kind IntentKind, data any) {
	env := Envelope{Kind: kind, At: p.now().UTC()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			p.log.Error("marshal intent failed", zap.String("kind", string(kind)), zap.Error(err))
			return
		}
		env.Data = raw
	}
	payload, err := json.Marshal(env)
	if err != nil {
		p.log.Error("marshal envelope failed", zap.Error(err))
		return
	}
	if err := p.producer.Publish(ctx, topic, key, payload); err != nil {
		p.log.Warn("publish intent failed", zap.String("topic", topic), zap.Error(err))
	}
}

func (p *Publisher) Notify(ctx context.Context, n Notification) {
	p.publish(ctx, p.topics.Notification, n.Descriptor, KindNotification, n)
}

func (p *Publisher) OpenModal(ctx context.Context, m Modal) {
	p.publish(ctx, p.topics.Modal, m.Device, KindModal, m)
}

func (p *Publisher) CloseModal(ctx context.Context) {
	p.publish(ctx, p.topics.Modal, "", KindCloseModal, nil)
}

func (p *Publisher) Dispatch(ctx context.Context, a Action) {
	p.publish(ctx, p.topics.Action, "", KindAction, a)
}
