package network

import (
	"strings"

	"wallet-suite/pkg/amount"
)

// FormatAmount 按给定精度格式化最小单位金额
func FormatAmount(value string, decimals int32) string {
	return amount.MustFormat(value, decimals)
}

// FormatNetworkAmount 按网络精度格式化金额，withSymbol 时追加大写网络符号
// 未知网络按 0 位精度处理
func FormatNetworkAmount(value, symbol string, withSymbol bool) string {
	var decimals int32
	if n, ok := Lookup(symbol); ok {
		decimals = n.Decimals
	}
	formatted := amount.MustFormat(value, decimals)
	if withSymbol {
		return formatted + " " + strings.ToUpper(symbol)
	}
	return formatted
}
