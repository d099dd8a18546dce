package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// DefaultChunkSize is the read buffer size used when streaming file
// content through the digest.
const DefaultChunkSize = 4096

const (
	AlgSHA256 = "sha256"
	AlgBLAKE3 = "blake3"
)

// Hasher computes a stable content digest for a file. Identical bytes
// always produce the identical digest, regardless of path or metadata.
type Hasher interface {
	// File streams the file at path through the digest and returns the
	// hex-encoded result.
	File(path string) (string, error)
	Algorithm() string
}

// New returns a Hasher for the given algorithm. A chunkSize <= 0 falls
// back to DefaultChunkSize.
func New(algorithm string, chunkSize int) (Hasher, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	switch algorithm {
	case "", AlgSHA256:
		return &streamHasher{algorithm: AlgSHA256, newHash: sha256.New, chunkSize: chunkSize}, nil
	case AlgBLAKE3:
		return &streamHasher{algorithm: AlgBLAKE3, newHash: func() hash.Hash { return blake3.New() }, chunkSize: chunkSize}, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", algorithm)
	}
}

type streamHasher struct {
	algorithm string
	newHash   func() hash.Hash
	chunkSize int
}

func (s *streamHasher) Algorithm() string { return s.algorithm }

func (s *streamHasher) File(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	digest := s.newHash()
	buf := make([]byte, s.chunkSize)
	for {
		n, err := file.Read(buf)
		if n > 0 {
			digest.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}
