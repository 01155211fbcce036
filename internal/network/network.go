// Package network describes the networks the wallet can sign for and groups them
// into the three structural families that decide composition and address derivation.
package network

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"

	"wallet-suite/pkg/errno"
)

// Type 网络家族
type Type string

const (
	Bitcoin  Type = "bitcoin"  // UTXO
	Ethereum Type = "ethereum" // account based
	Ripple   Type = "ripple"   // ledger based
)

// Network 单个网络的静态描述
type Network struct {
	Symbol   string
	Name     string
	Type     Type
	Decimals int32
	Testnet  bool

	// bitcoin 家族
	Params *chaincfg.Params
	// ethereum 家族
	ChainID int64
}

var registry = map[string]Network{
	"btc":     {Symbol: "btc", Name: "Bitcoin", Type: Bitcoin, Decimals: 8, Params: &chaincfg.MainNetParams},
	"test":    {Symbol: "test", Name: "Bitcoin Testnet", Type: Bitcoin, Decimals: 8, Testnet: true, Params: &chaincfg.TestNet3Params},
	"regtest": {Symbol: "regtest", Name: "Bitcoin Regtest", Type: Bitcoin, Decimals: 8, Testnet: true, Params: &chaincfg.RegressionNetParams},
	"eth":     {Symbol: "eth", Name: "Ethereum", Type: Ethereum, Decimals: 18, ChainID: 1},
	"etc":     {Symbol: "etc", Name: "Ethereum Classic", Type: Ethereum, Decimals: 18, ChainID: 61},
	"tsep":    {Symbol: "tsep", Name: "Ethereum Sepolia", Type: Ethereum, Decimals: 18, Testnet: true, ChainID: 11155111},
	"xrp":     {Symbol: "xrp", Name: "XRP", Type: Ripple, Decimals: 6},
	"txrp":    {Symbol: "txrp", Name: "XRP Testnet", Type: Ripple, Decimals: 6, Testnet: true},
}

// Lookup 按符号查找网络，大小写不敏感
func Lookup(symbol string) (Network, bool) {
	n, ok := registry[strings.ToLower(symbol)]
	return n, ok
}

// MustLookup 查找失败返回错误 (包装 ErrUnsupportedNetwork)
func MustLookup(symbol string) (Network, error) {
	n, ok := Lookup(symbol)
	if !ok {
		return Network{}, fmt.Errorf("%w: symbol %q", errno.ErrUnsupportedNetwork, symbol)
	}
	return n, nil
}

// Symbols 返回所有已注册网络符号
func Symbols() []string {
	out := make([]string, 0, len(registry))
	for s := range registry {
		out = append(out, s)
	}
	return out
}
