// Package cryptox holds the credential primitives: password hashing with
// argon2id and generation of opaque device bearer tokens.
package cryptox

import (
	"crypto/subtle"

	"golang.org/x/crypto/argon2"

	"github.com/beamit-app/beamit-server/internal/common"
)

// argon2id parameters
const (
	hashTime    = 1
	hashMemory  = 64 * 1024
	hashThreads = 4
	hashKeyLen  = 32

	saltLen = 16 // 128 bits, fresh per call
)

// HashPassword derives an argon2id hash of password under a newly
// generated random salt. Both values are meant to be stored and later fed
// to VerifyPassword.
func HashPassword(password string) (salt []byte, hash []byte) {
	salt = common.GenerateRandByteArray(saltLen)
	hash = argon2.IDKey([]byte(password), salt, hashTime, hashMemory, hashThreads, hashKeyLen)
	return salt, hash
}

// VerifyPassword recomputes the hash of candidate under salt and compares
// it with the stored hash in constant time.
func VerifyPassword(salt []byte, hash []byte, candidate string) bool {
	recomputed := argon2.IDKey([]byte(candidate), salt, hashTime, hashMemory, hashThreads, hashKeyLen)
	return subtle.ConstantTimeCompare(hash, recomputed) == 1
}
