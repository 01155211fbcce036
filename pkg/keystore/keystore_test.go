package keystore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = DeviceSecret{
	Label:      "emulator",
	Mnemonic:   "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about",
	Passphrase: "hidden",
}

func TestSealOpen(t *testing.T) {
	keyJSON, err := Seal(secret, "secure-password", LightScrypt)
	require.NoError(t, err)
	assert.Equal(t, "aes-256-gcm", keyJSON.Crypto.Cipher)
	assert.Equal(t, "emulator", keyJSON.Label)
	assert.NotEmpty(t, keyJSON.Id)

	got, err := Open(keyJSON, "secure-password")
	require.NoError(t, err)
	assert.Equal(t, secret, *got)

	_, err = Open(keyJSON, "wrong-password")
	assert.ErrorIs(t, err, ErrMACMismatch)
}

func TestOpen_Tampered(t *testing.T) {
	keyJSON, err := Seal(secret, "pw", LightScrypt)
	require.NoError(t, err)

	flipped := "00"
	if keyJSON.Crypto.CipherText[:2] == flipped {
		flipped = "ff"
	}
	keyJSON.Crypto.CipherText = flipped + keyJSON.Crypto.CipherText[2:]
	_, err = Open(keyJSON, "pw")
	assert.Error(t, err)

	keyJSON.Crypto.KDF = "pbkdf2"
	_, err = Open(keyJSON, "pw")
	assert.Error(t, err)
}

func TestFileSaveLoad(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "device.json")

	keyJSON, err := Seal(secret, "123456", LightScrypt)
	require.NoError(t, err)
	require.NoError(t, keyJSON.SaveToFile(filename))

	loaded, err := LoadFromFile(filename)
	require.NoError(t, err)
	assert.Equal(t, keyJSON.Crypto, loaded.Crypto)

	got, err := Open(loaded, "123456")
	require.NoError(t, err)
	assert.Equal(t, secret.Mnemonic, got.Mnemonic)
}
