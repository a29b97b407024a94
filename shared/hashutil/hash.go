// Package hashutil includes all hash-function related helpers for the
// simulator.
package hashutil

import (
	"github.com/minio/sha256-simd"
	"golang.org/x/crypto/blake2b"
)

// Hash defines a function that returns the sha256 checksum of the data passed in.
func Hash(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// HashBlake2b returns the first 32 bytes of the blake2b-512 checksum of the
// data passed in.
func HashBlake2b(data []byte) [32]byte {
	var hash [32]byte
	h := blake2b.Sum512(data)
	copy(hash[:], h[:32])
	return hash
}
