// Package amount converts integer base-unit amounts (satoshi, wei, drops, token units)
// to and from human readable decimal strings without floating point.
package amount

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Format 将最小单位金额按精度转换为十进制字符串，例如 Format("150000000", 8) == "1.5"
// 无法解析的输入原样返回空串和错误
func Format(value string, decimals int32) (string, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return d.Shift(-decimals).String(), nil
}

// MustFormat 同 Format，解析失败时返回 "0"
func MustFormat(value string, decimals int32) string {
	s, err := Format(value, decimals)
	if err != nil {
		return "0"
	}
	return s
}

// ToBaseUnits 将十进制金额转换为最小单位整数字符串，多余的小数位被截断
func ToBaseUnits(value string, decimals int32) (string, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return d.Shift(decimals).Truncate(0).String(), nil
}

// Sub 返回 a - b，两个参数均为十进制字符串
func Sub(a, b string) (string, error) {
	da, err := decimal.NewFromString(a)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q: %w", a, err)
	}
	db, err := decimal.NewFromString(b)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q: %w", b, err)
	}
	return da.Sub(db).String(), nil
}
