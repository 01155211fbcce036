package model

import (
	"wallet-suite/internal/network"
	"wallet-suite/pkg/wallet/types"
)

// ComposeOutput 用户输入的收款方
type ComposeOutput struct {
	Address string `json:"address"`
	Amount  string `json:"amount"` // 最小单位 (satoshi / wei / drops / token units)
	SetMax  bool   `json:"setMax,omitempty"`
}

// FeeLevel FeePerUnit: sat/vB, wei per gas 或 drops；FeeLimit 仅 ethereum 使用 (gas limit)
type FeeLevel struct {
	FeePerUnit string `json:"feePerUnit"`
	FeeLimit   uint64 `json:"feeLimit,omitempty"`
}

// ComposeRequest 组装交易的不可变输入
type ComposeRequest struct {
	Account        Account         `json:"account"`
	Outputs        []ComposeOutput `json:"outputs"`
	FeeLevel       FeeLevel        `json:"feeLevel"`
	Token          string          `json:"token,omitempty"`          // ethereum: ERC-20 合约地址
	DestinationTag *uint32         `json:"destinationTag,omitempty"` // ripple
}

type PrecomposedType string

const (
	PrecomposedFinal PrecomposedType = "final"
	PrecomposedError PrecomposedType = "error"
)

// Composer failure reasons
const (
	ErrNotEnoughFunds   = "NOT-ENOUGH-FUNDS"
	ErrInvalidAddress   = "INVALID-ADDRESS"
	ErrIncorrectFeeRate = "INCORRECT-FEE-RATE"
	ErrAmountTooLow     = "AMOUNT-IS-TOO-LOW"
	ErrInvalidAmount    = "INVALID-AMOUNT"
	ErrTokenNotFound    = "TOKEN-NOT-FOUND"
	ErrSameAddress      = "SAME-ADDRESS"
	ErrNoChangeAddress  = "CHANGE-ADDRESS-MISSING"
)

// PrecomposedTransaction 与网络无关的组装结果。金额均为最小单位十进制字符串；
// Token 非空时 TotalSpent 以代币最小单位计
type PrecomposedTransaction struct {
	Type        PrecomposedType            `json:"type"`
	Error       string                     `json:"error,omitempty"`
	NetworkType network.Type               `json:"networkType,omitempty"`
	TotalSpent  string                     `json:"totalSpent,omitempty"`
	Fee         string                     `json:"fee,omitempty"`
	FeePerByte  string                     `json:"feePerByte,omitempty"`
	Bytes       int                        `json:"bytes,omitempty"`
	Max         string                     `json:"max,omitempty"`
	Token       *TokenInfo                 `json:"token,omitempty"`
	Transaction *types.UnsignedTransaction `json:"transaction,omitempty"`
}

// Failed 构造失败结果
func Failed(reason string) *PrecomposedTransaction {
	return &PrecomposedTransaction{Type: PrecomposedError, Error: reason}
}

// IsFinal 可交给设备签名
func (p *PrecomposedTransaction) IsFinal() bool {
	return p != nil && p.Type == PrecomposedFinal
}

// SignedTransaction 设备签名结果，推送后即被消费
type SignedTransaction struct {
	Tx          string       `json:"tx"` // 序列化后的 hex
	Coin        string       `json:"coin"`
	Descriptor  string       `json:"descriptor"`
	NetworkType network.Type `json:"networkType"`
	Txid        string       `json:"txid,omitempty"`
}
