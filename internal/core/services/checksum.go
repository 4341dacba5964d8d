package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// DefaultChecksumChunkSize bounds the hashing buffer.
const DefaultChecksumChunkSize = 64 * 1024

// ChecksumFile computes the SHA-256 hex digest of a file by streaming
// it in bounded chunks; the whole file is never held in memory. The
// digest is byte-exact and platform-independent, and is the single
// source of content identity for deduplication.
func ChecksumFile(path string, chunkSize int) (string, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChecksumChunkSize
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
