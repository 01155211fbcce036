package address

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ETHGenerator 以太坊地址生成器
type ETHGenerator struct{}

func NewETHGenerator() *ETHGenerator {
	return &ETHGenerator{}
}

// PubKeyToAddress 将公钥字节 (非压缩格式, 65 bytes, 0x04...) 转换为 EIP-55 地址
func (g *ETHGenerator) PubKeyToAddress(pubKeyBytes []byte) (string, error) {
	pub, err := crypto.UnmarshalPubkey(pubKeyBytes)
	if err != nil {
		return "", fmt.Errorf("invalid public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}

// ValidateETH 校验 hex 地址；混合大小写时还要求 EIP-55 校验和正确
func ValidateETH(addr string) error {
	if !common.IsHexAddress(addr) {
		return fmt.Errorf("invalid ethereum address %q", addr)
	}
	if hasMixedCase(addr) && common.HexToAddress(addr).Hex() != addr {
		return fmt.Errorf("ethereum address %q has bad checksum", addr)
	}
	return nil
}

func hasMixedCase(addr string) bool {
	var lower, upper bool
	for _, c := range addr[2:] {
		switch {
		case c >= 'a' && c <= 'f':
			lower = true
		case c >= 'A' && c <= 'F':
			upper = true
		}
	}
	return lower && upper
}
