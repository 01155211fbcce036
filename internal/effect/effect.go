// Package effect carries the intents the wallet core emits: toast notifications,
// modal open/close requests and state store actions. The core never renders or
// stores anything itself; it only calls a Sink.
package effect

import (
	"context"

	"wallet-suite/internal/network"
)

type NotificationType string

const (
	NotifyVerifyAddressError NotificationType = "verify-address-error"
	NotifyTxSent             NotificationType = "tx-sent"
	NotifySignTxError        NotificationType = "sign-tx-error"
)

// Notification toast 意图
type Notification struct {
	Type            NotificationType `json:"type"`
	Error           string           `json:"error,omitempty"`
	FormattedAmount string           `json:"formattedAmount,omitempty"`
	Device          string           `json:"device,omitempty"`
	Descriptor      string           `json:"descriptor,omitempty"`
	Symbol          string           `json:"symbol,omitempty"`
	Txid            string           `json:"txid,omitempty"`
}

type ModalType string

const (
	ModalUnverifiedAddress ModalType = "unverified-address"
	ModalAddress           ModalType = "address"
)

// Modal 弹窗意图
type Modal struct {
	Type        ModalType    `json:"type"`
	Device      string       `json:"device"`
	Address     string       `json:"address"`
	NetworkType network.Type `json:"networkType"`
	Symbol      string       `json:"symbol"`
	AddressPath string       `json:"addressPath"`
}

// Action reducer 风格的状态更新
type Action struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Sink 意图的接收方
type Sink interface {
	Notify(ctx context.Context, n Notification)
	OpenModal(ctx context.Context, m Modal)
	CloseModal(ctx context.Context)
	Dispatch(ctx context.Context, a Action)
}

// Fanout 依次转发给多个 Sink
type Fanout []Sink

func (f Fanout) Notify(ctx context.Context, n Notification) {
	for _, s := range f {
		s.Notify(ctx, n)
	}
}

func (f Fanout) OpenModal(ctx context.Context, m Modal) {
	for _, s := range f {
		s.OpenModal(ctx, m)
	}
}

func (f Fanout) CloseModal(ctx context.Context) {
	for _, s := range f {
		s.CloseModal(ctx)
	}
}

func (f Fanout) Dispatch(ctx context.Context, a Action) {
	for _, s := range f {
		s.Dispatch(ctx, a)
	}
}
