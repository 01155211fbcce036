package bip39

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

var ErrInvalidMnemonic = errors.New("助记词无效")

// Generate 生成随机助记词，bitSize 为 128 (12 词) 或 256 (24 词)
func Generate(bitSize int) (string, error) {
	entropy, err := bip39.NewEntropy(bitSize)
	if err != nil {
		return "", fmt.Errorf("生成熵失败: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("生成助记词失败: %w", err)
	}
	return mnemonic, nil
}

// Valid 校验助记词 (单词表 + 校验位)
func Valid(mnemonic string) bool {
	return bip39.IsMnemonicValid(normalize(mnemonic))
}

// SeedSource 设备侧的种子来源
// 同一助记词在 "空 passphrase" 与 "设备 passphrase" 下会派生出两套完全不同的钱包
type SeedSource struct {
	mnemonic   string
	passphrase string
}

// NewSeedSource 校验助记词后构建种子来源
func NewSeedSource(mnemonic, passphrase string) (*SeedSource, error) {
	mnemonic = normalize(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	return &SeedSource{mnemonic: mnemonic, passphrase: passphrase}, nil
}

// Seed 返回 BIP-39 种子；useEmptyPassphrase 为 true 时忽略设备 passphrase
func (s *SeedSource) Seed(useEmptyPassphrase bool) []byte {
	if useEmptyPassphrase {
		return bip39.NewSeed(s.mnemonic, "")
	}
	return bip39.NewSeed(s.mnemonic, s.passphrase)
}

// HasPassphrase 设备是否设置了隐藏钱包密码
func (s *SeedSource) HasPassphrase() bool {
	return s.passphrase != ""
}

func normalize(mnemonic string) string {
	return strings.Join(strings.Fields(strings.ToLower(mnemonic)), " ")
}
