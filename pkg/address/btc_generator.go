package address

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// BTCGenerator 比特币地址生成器
type BTCGenerator struct {
	network *chaincfg.Params
}

func NewBTCGenerator(network *chaincfg.Params) *BTCGenerator {
	if network == nil {
		network = &chaincfg.MainNetParams
	}
	return &BTCGenerator{network: network}
}

// PubKeyToAddress 将公钥字节 (压缩格式) 转换为 P2PKH 地址
func (g *BTCGenerator) PubKeyToAddress(pubKeyBytes []byte) (string, error) {
	addr, err := btcutil.NewAddressPubKey(pubKeyBytes, g.network)
	if err != nil {
		return "", err
	}
	return addr.AddressPubKeyHash().EncodeAddress(), nil
}

// PubKeyToWitnessAddress 压缩公钥转换为原生隔离见证 (P2WPKH, bech32) 地址
func (g *BTCGenerator) PubKeyToWitnessAddress(pubKeyBytes []byte) (string, error) {
	addr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pubKeyBytes), g.network)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}

// ValidateBTC 校验地址格式以及是否属于给定网络 (P2PKH / P2SH / segwit 均可)
func ValidateBTC(addr string, network *chaincfg.Params) error {
	decoded, err := btcutil.DecodeAddress(addr, network)
	if err != nil {
		return fmt.Errorf("invalid bitcoin address %q: %w", addr, err)
	}
	if !decoded.IsForNet(network) {
		return fmt.Errorf("address %q is not for network %s", addr, network.Name)
	}
	return nil
}
