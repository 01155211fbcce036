package crypto_util

import (
	"encoding/binary"
	"encoding/hex"

	"lukechampine.com/blake3"
)

// Fingerprint 计算若干字段的 Blake3 指纹，每个字段带长度前缀，
// 因此 ("ab","c") 与 ("a","bc") 的指纹不同
func Fingerprint(parts ...string) string {
	h := blake3.New(32, nil)
	var size [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(size[:], uint64(len(p)))
		h.Write(size[:])
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
