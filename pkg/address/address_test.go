package address

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 私钥 = 1，公钥即 secp256k1 生成元 G
const keyOne = "0000000000000000000000000000000000000000000000000000000000000001"

func TestETHGenerator(t *testing.T) {
	key, err := crypto.HexToECDSA(keyOne)
	require.NoError(t, err)

	addr, err := NewETHGenerator().PubKeyToAddress(crypto.FromECDSAPub(&key.PublicKey))
	require.NoError(t, err)
	assert.Equal(t, "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf", addr)
	assert.NoError(t, ValidateETH(addr))
}

func TestValidateETH(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"EIP-55 checksum", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", false},
		{"All lower case", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", false},
		{"Bad checksum", "0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", true},
		{"Too short", "0x5aAeb6053F3E94C9b9A09f", true},
		{"Not hex", "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateETH(tt.addr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBTCGenerator(t *testing.T) {
	key, err := crypto.HexToECDSA(keyOne)
	require.NoError(t, err)

	addr, err := NewBTCGenerator(&chaincfg.MainNetParams).PubKeyToAddress(crypto.CompressPubkey(&key.PublicKey))
	require.NoError(t, err)
	assert.Equal(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", addr)
	assert.NoError(t, ValidateBTC(addr, &chaincfg.MainNetParams))

	segwit, err := NewBTCGenerator(&chaincfg.MainNetParams).PubKeyToWitnessAddress(crypto.CompressPubkey(&key.PublicKey))
	require.NoError(t, err)
	assert.Equal(t, "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", segwit)
}

func TestValidateBTC(t *testing.T) {
	assert.NoError(t, ValidateBTC("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", &chaincfg.MainNetParams))
	assert.Error(t, ValidateBTC("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", &chaincfg.TestNet3Params))
	assert.Error(t, ValidateBTC("not-an-address", &chaincfg.MainNetParams))
}

func TestXRPGenerator(t *testing.T) {
	key, err := crypto.HexToECDSA(keyOne)
	require.NoError(t, err)

	addr, err := NewXRPGenerator().PubKeyToAddress(crypto.CompressPubkey(&key.PublicKey))
	require.NoError(t, err)
	assert.Equal(t, byte('r'), addr[0])
	assert.NoError(t, ValidateXRP(addr))

	_, err = NewXRPGenerator().PubKeyToAddress(crypto.FromECDSAPub(&key.PublicKey))
	assert.Error(t, err)
}

func TestValidateXRP(t *testing.T) {
	assert.NoError(t, ValidateXRP("rrrrrrrrrrrrrrrrrrrrrhoLvTp"))
	assert.NoError(t, ValidateXRP("rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"))
	assert.Error(t, ValidateXRP("rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTa"))
	assert.Error(t, ValidateXRP("0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"))
	assert.Error(t, ValidateXRP(""))
}
