package effect

import (
	"context"
	"sync"
)

type IntentKind string

const (
	KindNotification IntentKind = "notification"
	KindModal        IntentKind = "modal"
	KindCloseModal   IntentKind = "close-modal"
	KindAction       IntentKind = "action"
)

// Intent 一条已发出的意图
type Intent struct {
	Kind         IntentKind    `json:"kind"`
	Notification *Notification `json:"notification,omitempty"`
	Modal        *Modal        `json:"modal,omitempty"`
	Action       *Action       `json:"action,omitempty"`
}

// Recorder 按顺序记录意图，并发安全
type Recorder struct {
	mu      sync.Mutex
	intents []Intent
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(i Intent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = append(r.intents, i)
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.add(Intent{Kind: KindNotification, Notification: &n})
}

func (r *Recorder) OpenModal(_ context.Context, m Modal) {
	r.add(Intent{Kind: KindModal, Modal: &m})
}

func (r *Recorder) CloseModal(context.Context) {
	r.add(Intent{Kind: KindCloseModal})
}

func (r *Recorder) Dispatch(_ context.Context, a Action) {
	r.add(Intent{Kind: KindAction, Action: &a})
}

// Intents 返回全部意图的副本
func (r *Recorder) Intents() []Intent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Intent(nil), r.intents...)
}

func (r *Recorder) Notifications() []Notification {
	var out []Notification
	for _, i := range r.Intents() {
		if i.Kind == KindNotification {
			out = append(out, *i.Notification)
		}
	}
	return out
}

func (r *Recorder) Modals() []Modal {
	var out []Modal
	for _, i := range r.Intents() {
		if i.Kind == KindModal {
			out = append(out, *i.Modal)
		}
	}
	return out
}

func (r *Recorder) Actions() []Action {
	var out []Action
	for _, i := range r.Intents() {
		if i.Kind == KindAction {
			out = append(out, *i.Action)
		}
	}
	return out
}

// ModalCloses CloseModal 被调用的次数
func (r *Recorder) ModalCloses() int {
	n := 0
	for _, i := range r.Intents() {
		if i.Kind == KindCloseModal {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = nil
}

type captureKey struct{}

// Capture 返回携带新 Recorder 的 ctx；配合 Captured sink 收集一次请求内发出的意图
func Capture(ctx context.Context) (context.Context, *Recorder) {
	rec := NewRecorder()
	return context.WithValue(ctx, captureKey{}, rec), rec
}

// Captured 把意图写入 ctx 中的 Recorder (若存在)
type Captured struct{}

func recorderFrom(ctx context.Context) *Recorder {
	rec, _ := ctx.Value(captureKey{}).(*Recorder)
	return rec
}

func (Captured) Notify(ctx context.Context, n Notification) {
	if rec := recorderFrom(ctx); rec != nil {
		rec.Notify(ctx, n)
	}
}

func (Captured) OpenModal(ctx context.Context, m Modal) {
	if rec := recorderFrom(ctx); rec != nil {
		rec.OpenModal(ctx, m)
	}
}

func (Captured) CloseModal(ctx context.Context) {
	if rec := recorderFrom(ctx); rec != nil {
		rec.CloseModal(ctx)
	}
}

func (Captured) Dispatch(ctx context.Context, a Action) {
	if rec := recorderFrom(ctx); rec != nil {
		rec.Dispatch(ctx, a)
	}
}
