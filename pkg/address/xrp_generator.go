package address

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/mr-tron/base58"
)

// rippleAlphabet XRP Ledger 使用的 base58 字母表 ('r' 对应 0)
var rippleAlphabet = base58.NewAlphabet("rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz")

const rippleAccountPrefix = 0x00

// XRPGenerator classic address 生成器
type XRPGenerator struct{}

func NewXRPGenerator() *XRPGenerator {
	return &XRPGenerator{}
}

// PubKeyToAddress 压缩公钥 -> AccountID (hash160) -> base58check
func (g *XRPGenerator) PubKeyToAddress(pubKeyBytes []byte) (string, error) {
	if len(pubKeyBytes) != 33 {
		return "", fmt.Errorf("expected 33 byte compressed public key, got %d", len(pubKeyBytes))
	}
	payload := append([]byte{rippleAccountPrefix}, btcutil.Hash160(pubKeyBytes)...)
	checksum := chainhash.DoubleHashB(payload)[:4]
	return base58.EncodeAlphabet(append(payload, checksum...), rippleAlphabet), nil
}

// ValidateXRP 校验 classic address 的前缀、长度和校验和
func ValidateXRP(addr string) error {
	if addr == "" || addr[0] != 'r' {
		return fmt.Errorf("invalid ripple address %q", addr)
	}
	decoded, err := base58.DecodeAlphabet(addr, rippleAlphabet)
	if err != nil {
		return fmt.Errorf("invalid ripple address %q: %w", addr, err)
	}
	if len(decoded) != 25 || decoded[0] != rippleAccountPrefix {
		return fmt.Errorf("invalid ripple address %q: bad length or prefix", addr)
	}
	checksum := chainhash.DoubleHashB(decoded[:21])[:4]
	if !bytes.Equal(checksum, decoded[21:]) {
		return fmt.Errorf("invalid ripple address %q: bad checksum", addr)
	}
	return nil
}
