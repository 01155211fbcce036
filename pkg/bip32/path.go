package bip32

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

var (
	ErrInvalidSeed = errors.New("无效的种子")
	ErrInvalidPath = errors.New("无效的派生路径")
)

// ParsePath 解析 "m/44'/0'/0'/0/0" 或 "m/44h/0h/0h/0/0" 形式的路径
func ParsePath(path string) ([]uint32, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "m" {
		return nil, nil
	}
	if !strings.HasPrefix(path, "m/") {
		return nil, fmt.Errorf("%w: %q 必须以 m/ 开头", ErrInvalidPath, path)
	}

	segments := strings.Split(path[2:], "/")
	indices := make([]uint32, 0, len(segments))
	for _, segment := range segments {
		hardened := false
		if strings.HasSuffix(segment, "'") || strings.HasSuffix(segment, "h") {
			hardened = true
			segment = segment[:len(segment)-1]
		}

		val, err := strconv.ParseUint(segment, 10, 31)
		if err != nil {
			return nil, fmt.Errorf("%w: 路径段 %q: %v", ErrInvalidPath, segment, err)
		}
		index := uint32(val)
		if hardened {
			index += hdkeychain.HardenedKeyStart
		}
		indices = append(indices, index)
	}
	return indices, nil
}

// CoinType 返回 BIP-44 路径中的 coin_type (去掉 hardened 标记)
func CoinType(path string) (uint32, error) {
	indices, err := ParsePath(path)
	if err != nil {
		return 0, err
	}
	if len(indices) < 2 {
		return 0, fmt.Errorf("%w: %q 缺少 coin_type", ErrInvalidPath, path)
	}
	return indices[1] &^ hdkeychain.HardenedKeyStart, nil
}

// Purpose 返回路径的 purpose 字段，例如 44 / 49 / 84
func Purpose(path string) (uint32, error) {
	indices, err := ParsePath(path)
	if err != nil {
		return 0, err
	}
	if len(indices) == 0 {
		return 0, fmt.Errorf("%w: %q 缺少 purpose", ErrInvalidPath, path)
	}
	return indices[0] &^ hdkeychain.HardenedKeyStart, nil
}
