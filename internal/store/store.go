// Package store is the reducer style application state the wallet core reads its
// selected account and connected device from, and dispatches actions into.
package store

import (
	"context"
	"sync"

	"wallet-suite/internal/effect"
	"wallet-suite/internal/model"
)

// State 应用状态快照
type State struct {
	SelectedAccount *model.Account                `json:"selectedAccount,omitempty"`
	Device          *model.Device                 `json:"device,omitempty"`
	SignedTx        *model.SignedTransaction      `json:"signedTx,omitempty"`
	TransactionInfo *model.PrecomposedTransaction `json:"transactionInfo,omitempty"`

	BuyAddressVerified      string `json:"buyAddressVerified,omitempty"`
	ExchangeAddressVerified string `json:"exchangeAddressVerified,omitempty"`
}

// Reduce 纯函数；未知 action 或 payload 类型不符时原样返回
func Reduce(s State, a effect.Action) State {
	switch a.Type {
	case ActionSaveSignedTx:
		if tx, ok := a.Payload.(*model.SignedTransaction); ok {
			s.SignedTx = tx
		}
	case ActionSaveTransactionInfo:
		if info, ok := a.Payload.(*model.PrecomposedTransaction); ok {
			s.TransactionInfo = info
		}
	case ActionBuyVerifyAddress:
		if addr, ok := a.Payload.(string); ok {
			s.BuyAddressVerified = addr
		}
	case ActionExchangeVerifyAddress:
		if addr, ok := a.Payload.(string); ok {
			s.ExchangeAddressVerified = addr
		}
	}
	return s
}

// Provider 核心在每次操作开始时读取的外部状态
type Provider interface {
	SelectedAccount() *model.Account
	Device() *model.Device
}

// Store 并发安全的状态容器，同时实现 effect.Sink 以接收 Dispatch
type Store struct {
	mu    sync.RWMutex
	state State
}

var (
	_ Provider    = (*Store)(nil)
	_ effect.Sink = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) SelectedAccount() *model.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SelectedAccount
}

func (s *Store) Device() *model.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Device
}

// SelectAccount 由账户子系统调用；nil 表示未选择
func (s *Store) SelectAccount(a *model.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SelectedAccount = a
}

// SetDevice 由设备管理子系统调用；nil 表示无设备
func (s *Store) SetDevice(d *model.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Device = d
}

func (s *Store) Dispatch(_ context.Context, a effect.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
}

func (s *Store) Notify(context.Context, effect.Notification) {}
func (s *Store) OpenModal(context.Context, effect.Modal)     {}
func (s *Store) CloseModal(context.Context)                  {}
