package common

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateRandByteArray returns size bytes from the OS CSPRNG.
// It panics if the random source fails, which is not recoverable anyway.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// MakeRandURLSafeString generates a random URL-safe string carrying
// size bytes of entropy (unpadded base64url encoding).
func MakeRandURLSafeString(size int) string {
	return base64.RawURLEncoding.EncodeToString(GenerateRandByteArray(size))
}
