package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// CalculateSHA256 computes the hex SHA-256 digest of data.
// Used to fingerprint serialized catalogs so identical runs can be compared.
func CalculateSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
