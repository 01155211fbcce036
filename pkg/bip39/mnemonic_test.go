package bip39

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const abandonAbout = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestGenerate(t *testing.T) {
	for _, bits := range []int{128, 256} {
		mnemonic, err := Generate(bits)
		require.NoError(t, err)
		assert.True(t, Valid(mnemonic))
		assert.Len(t, strings.Fields(mnemonic), bits/32*3)
	}

	_, err := Generate(100)
	assert.Error(t, err)
}

func TestSeedSource(t *testing.T) {
	// BIP-39 测试向量，passphrase 为空
	src, err := NewSeedSource("  Abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon ABOUT ", "TREZOR")
	require.NoError(t, err)
	assert.True(t, src.HasPassphrase())

	assert.Equal(t,
		"5eb00bbddcf069084889a8ab9155568165f5c453ccb85e70811aaed6f6da5fc19a5ac40b389cd370d086206dec8aa6c43daea6690f20ad3d8d48b2d2ce9e38e4",
		hex.EncodeToString(src.Seed(true)))
	assert.NotEqual(t, src.Seed(true), src.Seed(false))
}

func TestSeedSource_Invalid(t *testing.T) {
	_, err := NewSeedSource("hello world invalid mnemonic phrase designed to fail validation check", "")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
	assert.False(t, Valid(strings.Replace(abandonAbout, "about", "abandon", 1)))
}
