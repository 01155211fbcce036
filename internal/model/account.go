package model

import (
	"strings"

	"wallet-suite/internal/network"
)

// Address 账户地址池中的一项
type Address struct {
	Address   string `json:"address"`
	Path      string `json:"path"`
	Transfers int    `json:"transfers"`
}

// AccountAddresses bitcoin 家族账户的地址池
type AccountAddresses struct {
	Used   []Address `json:"used"`
	Unused []Address `json:"unused"`
	Change []Address `json:"change"`
}

// UTXO 账户可花费输出
type UTXO struct {
	Txid          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Amount        string `json:"amount"` // satoshi
	Address       string `json:"address"`
	Path          string `json:"path"`
	Confirmations int    `json:"confirmations"`
}

// TokenInfo ERC-20 代币信息
type TokenInfo struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name,omitempty"`
	Decimals int32  `json:"decimals"`
	Balance  string `json:"balance,omitempty"` // 代币最小单位
}

// AccountMisc 家族相关的账户附加信息
type AccountMisc struct {
	Nonce    uint64 `json:"nonce,omitempty"`    // ethereum
	Sequence uint32 `json:"sequence,omitempty"` // ripple
	Reserve  string `json:"reserve,omitempty"`  // ripple, drops
}

// Account 由外部账户子系统持有，核心只读引用
type Account struct {
	Symbol      string            `json:"symbol" binding:"required"`
	NetworkType network.Type      `json:"networkType"`
	Descriptor  string            `json:"descriptor" binding:"required"`
	Path        string            `json:"path"`
	Index       int               `json:"index"`
	Balance     string            `json:"balance"`
	Addresses   *AccountAddresses `json:"addresses,omitempty"`
	UTXO        []UTXO            `json:"utxo,omitempty"`
	Tokens      []TokenInfo       `json:"tokens,omitempty"`
	Misc        AccountMisc       `json:"misc"`
}

// Token 按合约地址查找账户持有的代币
func (a *Account) Token(contract string) (TokenInfo, bool) {
	for _, t := range a.Tokens {
		if strings.EqualFold(t.Address, contract) {
			return t, true
		}
	}
	return TokenInfo{}, false
}

// UnusedAddress 待校验地址
type UnusedAddress struct {
	Path    string `json:"path"`
	Address string `json:"address"`
}

// UnusedAddressFromAccount 每次校验都重新选取:
// bitcoin 取地址池中第一个未使用地址，ethereum / ripple 使用账户 descriptor 和 path。
// 取不到时返回 false
func UnusedAddressFromAccount(a *Account) (UnusedAddress, bool) {
	if a == nil {
		return UnusedAddress{}, false
	}
	var u UnusedAddress
	switch a.NetworkType {
	case network.Bitcoin:
		if a.Addresses == nil || len(a.Addresses.Unused) == 0 {
			return UnusedAddress{}, false
		}
		first := a.Addresses.Unused[0]
		u = UnusedAddress{Path: first.Path, Address: first.Address}
	default:
		// account based 家族以及未知家族: descriptor 即地址，未知家族交给设备调用层报错
		u = UnusedAddress{Path: a.Path, Address: a.Descriptor}
	}
	if u.Path == "" || u.Address == "" {
		return UnusedAddress{}, false
	}
	return u, true
}
