package crypto_util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	a := Fingerprint("btc", "0100")
	assert.Len(t, a, 64)
	assert.Equal(t, a, Fingerprint("btc", "0100"))
	assert.NotEqual(t, a, Fingerprint("btc", "0101"))
	assert.NotEqual(t, Fingerprint("ab", "c"), Fingerprint("a", "bc"))
}
