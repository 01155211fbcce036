package transaction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wallet-suite/internal/device"
	"wallet-suite/internal/effect"
	"wallet-suite/internal/model"
	"wallet-suite/internal/store"
	"wallet-suite/pkg/errno"
	"wallet-suite/pkg/logger"
	"wallet-suite/pkg/monitor"
)

// Composer compose.Dispatcher 的抽象
type Composer interface {
	ComposeTransaction(ctx context.Context, req *model.ComposeRequest) (*model.PrecomposedTransaction, error)
}

// SessionRecorder 持久化结束的会话
type SessionRecorder interface {
	Record(ctx context.Context, s *model.TxSession) error
}

// NopRecorder 不持久化
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, *model.TxSession) error { return nil }

// Manager 每个账户 descriptor 同时最多一个未结束的会话
type Manager struct {
	mu           sync.Mutex
	sessions     map[string]*Session // id -> session
	byDescriptor map[string]string   // descriptor -> id

	composer Composer
	client   device.Client
	state    store.Provider
	sink     effect.Sink
	pipeline *Pipeline
	recorder SessionRecorder
	log      *zap.Logger
}

func NewManager(composer Composer, client device.Client, state store.Provider, sink effect.Sink, pipeline *Pipeline, recorder SessionRecorder) *Manager {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Manager{
		sessions:     make(map[string]*Session),
		byDescriptor: make(map[string]string),
		composer:     composer,
		client:       client,
		state:        state,
		sink:         sink,
		pipeline:     pipeline,
		recorder:     recorder,
		log:          logger.Named("session"),
	}
}

// Compose 组装交易并打开会话。账户已有 composed 状态的会话时复用 (表单变更后重新组装)，
// 已进入签名流程时返回 ErrSessionExists。组装失败的原因包装在 ErrComposeFailed 中返回
func (m *Manager) Compose(ctx context.Context, req *model.ComposeRequest) (*Session, error) {
	if req == nil || req.Account.Descriptor == "" {
		return nil, errno.ErrAccountNotSelected
	}
	descriptor := req.Account.Descriptor

	m.mu.Lock()
	if id, ok := m.byDescriptor[descriptor]; ok && m.sessions[id].State != StateComposed {
		m.mu.Unlock()
		return nil, errno.ErrSessionExists
	}
	m.mu.Unlock()

	tx, err := m.composer.ComposeTransaction(ctx, req)
	if err != nil {
		return nil, err
	}
	if !tx.IsFinal() {
		return nil, fmt.Errorf("%w: %s", errno.ErrComposeFailed, tx.Error)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if id, ok := m.byDescriptor[descriptor]; ok {
		s := m.sessions[id]
		if err := s.transition(StateComposed); err != nil {
			// 组装期间会话已进入签名流程
			return nil, errno.ErrSessionExists
		}
		s.Request, s.Precomposed = req, tx
		return s.snapshot(), nil
	}

	s := &Session{
		ID:          uuid.NewString(),
		Descriptor:  descriptor,
		Symbol:      req.Account.Symbol,
		State:       StateComposed,
		Request:     req,
		Precomposed: tx,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.sessions[s.ID] = s
	m.byDescriptor[descriptor] = s.ID
	monitor.SessionOpened()
	m.log.Info("session opened", zap.String("id", s.ID), zap.String("descriptor", descriptor))
	return s.snapshot(), nil
}

// Get 返回会话快照
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, errno.ErrSessionNotFound
	}
	return s.snapshot(), nil
}

// Review 保存交易信息供用户核对，进入等待签名状态
func (m *Manager) Review(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return nil, errno.ErrSessionNotFound
	}
	if err := s.transition(StateReviewing); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	info, snap := s.Precomposed, s.snapshot()
	m.mu.Unlock()

	m.sink.Dispatch(ctx, store.SaveTransactionInfo(info))
	return snap, nil
}

// Sign 在设备上签名。调用会阻塞到用户确认；期间 Cancel 会中止设备操作，签名结果被丢弃。
// 会话在设备调用前进入 signing，同一会话的第二个 Sign 返回 ErrDeviceBusy
func (m *Manager) Sign(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return nil, errno.ErrSessionNotFound
	}
	if s.State == StateSigning {
		m.mu.Unlock()
		return nil, errno.ErrDeviceBusy
	}
	if s.State != StateReviewing {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot sign in state %s", errno.ErrInvalidTransition, s.State)
	}
	_ = s.transition(StateSigning)
	req, tx := s.Request, s.Precomposed
	m.mu.Unlock()

	var devicePath string
	useEmpty := true
	if dev := m.state.Device(); dev != nil {
		devicePath, useEmpty = dev.Path, dev.UseEmptyPassphrase
	}

	start := time.Now()
	res := m.client.SignTransaction(ctx, device.SignParams{
		Device:             devicePath,
		Coin:               req.Account.Symbol,
		Transaction:        tx.Transaction,
		UseEmptyPassphrase: useEmpty,
	})
	monitor.ObserveDeviceCall(device.MethodSignTransaction, start)

	m.mu.Lock()
	if s.State != StateSigning {
		// 签名期间会话已被取消
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: session %s", errno.ErrInvalidTransition, s.State)
	}

	if !res.Success {
		failure := res.Err()
		s.Error = failure.Error
		_ = s.transition(StateCancelled)
		snap := m.closeLocked(s)
		m.mu.Unlock()

		if failure.Code != device.CodeActionCancelled {
			m.sink.Notify(ctx, effect.Notification{Type: effect.NotifySignTxError, Error: failure.Error})
		}
		m.finish(ctx, snap)
		return snap, fmt.Errorf("%w: %s", errno.ErrSignFailed, failure.Error)
	}

	s.Signed = &model.SignedTransaction{
		Tx:          res.Payload.Serialized,
		Coin:        req.Account.Symbol,
		Descriptor:  s.Descriptor,
		NetworkType: req.Account.NetworkType,
		Txid:        res.Payload.Txid,
	}
	_ = s.transition(StateSigned)
	signed, snap := s.Signed, s.snapshot()
	m.mu.Unlock()

	m.sink.Dispatch(ctx, store.SaveSignedTx(signed))
	return snap, nil
}

// Push 推送已签名交易。无论成功与否会话都结束
func (m *Manager) Push(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return nil, errno.ErrSessionNotFound
	}
	if s.State != StateSigned {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot push in state %s", errno.ErrInvalidTransition, s.State)
	}
	if s.pushing {
		m.mu.Unlock()
		return nil, errno.ErrDeviceBusy
	}
	s.pushing = true
	review := ReviewData{SignedTx: s.Signed, TransactionInfo: s.Precomposed}
	m.mu.Unlock()

	res, err := m.pipeline.Push(ctx, review)

	m.mu.Lock()
	s.pushing = false
	if err != nil {
		// 前置条件不满足，会话保持 signed，可以重试
		m.mu.Unlock()
		return nil, err
	}
	s.Result = res
	s.Error = res.Error
	if res.Success {
		_ = s.transition(StatePushedSuccess)
	} else {
		_ = s.transition(StatePushedFailure)
	}
	snap := m.closeLocked(s)
	m.mu.Unlock()

	m.finish(ctx, snap)
	return snap, nil
}

// Cancel 结束 reviewing / signing / signed 的会话。尚无签名结果时取消设备操作，
// 已签名时只关闭弹窗；广播进行中返回 ErrDeviceBusy
func (m *Manager) Cancel(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return nil, errno.ErrSessionNotFound
	}
	if s.pushing {
		m.mu.Unlock()
		return nil, errno.ErrDeviceBusy
	}
	if err := s.transition(StateCancelled); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	signed := s.Signed
	snap := m.closeLocked(s)
	m.mu.Unlock()

	m.pipeline.CancelSignTx(ctx, signed)
	m.finish(ctx, snap)
	return snap, nil
}

// Discard 丢弃只组装过的会话：没有设备操作，也不写审计记录
func (m *Manager) Discard(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return errno.ErrSessionNotFound
	}
	if s.State != StateComposed {
		return fmt.Errorf("%w: cannot discard in state %s", errno.ErrInvalidTransition, s.State)
	}
	m.closeLocked(s)
	m.log.Info("session discarded", zap.String("id", id), zap.String("descriptor", s.Descriptor))
	return nil
}

// closeLocked 移除已结束的会话，调用方持有 m.mu
func (m *Manager) closeLocked(s *Session) *Session {
	delete(m.sessions, s.ID)
	if m.byDescriptor[s.Descriptor] == s.ID {
		delete(m.byDescriptor, s.Descriptor)
	}
	monitor.SessionClosed()
	return s.snapshot()
}

// finish 清空 store 中的签名交易并记录审计
func (m *Manager) finish(ctx context.Context, s *Session) {
	if s.Signed != nil {
		m.sink.Dispatch(ctx, store.SaveSignedTx(nil))
	}
	if err := m.recorder.Record(context.WithoutCancel(ctx), s.audit()); err != nil {
		m.log.Error("record session failed", zap.String("id", s.ID), zap.Error(err))
		return
	}
	m.log.Info("session closed", zap.String("id", s.ID), zap.String("state", string(s.State)))
}

// IsComposeFailure 组装失败 (业务原因) 而不是请求错误
func IsComposeFailure(err error) bool {
	return errors.Is(err, errno.ErrComposeFailed)
}
