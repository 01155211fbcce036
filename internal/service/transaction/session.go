package transaction

import (
	"fmt"
	"time"

	"wallet-suite/internal/model"
	"wallet-suite/pkg/errno"
)

// State 交易会话状态
type State string

const (
	StateComposed      State = "composed"
	StateReviewing     State = "reviewing" // 交易信息已保存，等待设备签名
	StateSigning       State = "signing"   // 设备签名请求进行中
	StateSigned        State = "signed"
	StatePushedSuccess State = "pushed-success"
	StatePushedFailure State = "pushed-failure"
	StateCancelled     State = "cancelled"
)

// cancelled 只能从 reviewing / signing / signed 到达；composed 的会话只能丢弃
var transitions = map[State][]State{
	StateComposed:  {StateComposed, StateReviewing},
	StateReviewing: {StateSigning, StateCancelled},
	StateSigning:   {StateSigned, StateCancelled},
	StateSigned:    {StatePushedSuccess, StatePushedFailure, StateCancelled},
}

// CanTransition 终态没有出边
func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s State) Terminal() bool {
	return s == StatePushedSuccess || s == StatePushedFailure || s == StateCancelled
}

// Session 一个账户上正在进行的交易
type Session struct {
	ID          string                        `json:"id"`
	Descriptor  string                        `json:"descriptor"`
	Symbol      string                        `json:"symbol"`
	State       State                         `json:"state"`
	Request     *model.ComposeRequest         `json:"-"`
	Precomposed *model.PrecomposedTransaction `json:"precomposed"`
	Signed      *model.SignedTransaction      `json:"signed,omitempty"`
	Result      *PushResult                   `json:"result,omitempty"`
	Error       string                        `json:"error,omitempty"`
	CreatedAt   time.Time                     `json:"createdAt"`
	UpdatedAt   time.Time                     `json:"updatedAt"`

	pushing bool // 广播进行中，期间不能再次推送或取消
}

func (s *Session) transition(to State) error {
	if !s.State.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", errno.ErrInvalidTransition, s.State, to)
	}
	s.State = to
	s.UpdatedAt = time.Now()
	return nil
}

// snapshot 返回给调用方的副本，避免外部修改会话
func (s *Session) snapshot() *Session {
	c := *s
	return &c
}

// audit 结束时写入审计表的记录
func (s *Session) audit() *model.TxSession {
	rec := &model.TxSession{
		SessionID:  s.ID,
		Descriptor: s.Descriptor,
		Symbol:     s.Symbol,
		State:      string(s.State),
		Error:      s.Error,
	}
	if s.Result != nil {
		rec.Txid = s.Result.Txid
		rec.Fingerprint = s.Result.Fingerprint
		rec.FormattedAmount = s.Result.FormattedAmount
	}
	return rec
}
