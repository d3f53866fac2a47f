package serialization

import "crypto/sha256"

// ComputeChecksum returns the SHA-256 digest of the data section.
func ComputeChecksum(data []byte) [ChecksumSize]byte {
	return sha256.Sum256(data)
}
