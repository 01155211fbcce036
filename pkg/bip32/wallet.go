package bip32

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

// Wallet 分层确定性钱包，模拟设备用它从种子派生各网络的地址和签名密钥
type Wallet struct {
	master  *hdkeychain.ExtendedKey
	network *chaincfg.Params
}

// NewMasterKeyFromSeed 使用 BIP-39 种子生成主密钥
// network 仅影响 xprv/xpub 的版本前缀，默认为 chaincfg.MainNetParams
func NewMasterKeyFromSeed(seed []byte, network *chaincfg.Params) (*Wallet, error) {
	if len(seed) < hdkeychain.MinSeedBytes || len(seed) > hdkeychain.MaxSeedBytes {
		return nil, ErrInvalidSeed
	}
	if network == nil {
		network = &chaincfg.MainNetParams
	}

	master, err := hdkeychain.NewMaster(seed, network)
	if err != nil {
		return nil, fmt.Errorf("生成主密钥失败: %w", err)
	}
	return &Wallet{master: master, network: network}, nil
}

// MasterKey 返回 Base58 编码的主私钥 (xprv...)
func (w *Wallet) MasterKey() string {
	return w.master.String()
}

// DerivePath 按路径派生扩展密钥
func (w *Wallet) DerivePath(path string) (*hdkeychain.ExtendedKey, error) {
	indices, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	key := w.master
	for _, index := range indices {
		// Derive 遵循 BIP-32 规范 (不同于 DeriveNonStandard)
		key, err = key.Derive(index)
		if err != nil {
			return nil, fmt.Errorf("派生子密钥失败 (%s): %w", path, err)
		}
	}
	return key, nil
}

// PrivateKey 派生路径对应的 EC 私钥
func (w *Wallet) PrivateKey(path string) (*btcec.PrivateKey, error) {
	key, err := w.DerivePath(path)
	if err != nil {
		return nil, err
	}
	return key.ECPrivKey()
}

// PublicKey 派生路径对应的 EC 公钥
func (w *Wallet) PublicKey(path string) (*btcec.PublicKey, error) {
	key, err := w.DerivePath(path)
	if err != nil {
		return nil, err
	}
	return key.ECPubKey()
}

// AccountXPub 返回账户级扩展公钥，例如 m/44'/0'/0'
func (w *Wallet) AccountXPub(path string) (string, error) {
	key, err := w.DerivePath(path)
	if err != nil {
		return "", err
	}
	pub, err := key.Neuter()
	if err != nil {
		return "", fmt.Errorf("转换公钥失败: %w", err)
	}
	return pub.String(), nil
}
