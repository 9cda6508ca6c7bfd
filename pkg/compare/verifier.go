// Package compare checks rewritten files against the bytes that were
// meant to be written.
package compare

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"github.com/sdejongh/textnorris/pkg/storage"
)

// Result represents the outcome of a verification
type Result string

const (
	// Same indicates the stored file matches the expected bytes
	Same Result = "same"
	// Different indicates the stored file differs
	Different Result = "different"
)

// Verification holds the result of checking one file
type Verification struct {
	Path     string
	Result   Result
	Reason   string
	Expected string // hex SHA-256
	Actual   string // hex SHA-256, empty when sizes already differ
}

// ReaderWrapper wraps file readers, e.g. for rate limiting
type ReaderWrapper func(io.ReadCloser) io.ReadCloser

// HashVerifier compares a stored file with expected content by SHA-256
type HashVerifier struct {
	bufferPool    *sync.Pool
	readerWrapper ReaderWrapper
}

// NewHashVerifier creates a verifier reading with bufferSize chunks
func NewHashVerifier(bufferSize int) *HashVerifier {
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	return &HashVerifier{
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}
}

// SetReaderWrapper sets a function to wrap readers (e.g., for rate limiting)
func (v *HashVerifier) SetReaderWrapper(wrapper ReaderWrapper) {
	v.readerWrapper = wrapper
}

// Verify reads path back from backend and compares it with expected
func (v *HashVerifier) Verify(ctx context.Context, backend storage.Backend, path string, expected []byte) (*Verification, error) {
	sum := sha256.Sum256(expected)
	result := &Verification{Path: path, Expected: hex.EncodeToString(sum[:])}

	// Sizes first (quick check)
	info, err := backend.Stat(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size != int64(len(expected)) {
		result.Result = Different
		result.Reason = fmt.Sprintf("size is %d, expected %d", info.Size, len(expected))
		return result, nil
	}

	actual, err := v.computeHash(ctx, backend, path)
	if err != nil {
		return nil, err
	}
	result.Actual = actual

	if actual != result.Expected {
		result.Result = Different
		result.Reason = "file hashes differ"
		return result, nil
	}

	result.Result = Same
	result.Reason = "file hashes match"
	return result, nil
}

// computeHash computes SHA-256 hash of a file using streaming
func (v *HashVerifier) computeHash(ctx context.Context, backend storage.Backend, path string) (string, error) {
	reader, err := backend.Read(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	if v.readerWrapper != nil {
		reader = v.readerWrapper(reader)
	}
	defer reader.Close()

	hasher := sha256.New()

	// Get buffer from pool
	bufPtr := v.bufferPool.Get().(*[]byte)
	buffer := *bufPtr
	defer v.bufferPool.Put(bufPtr)

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, err := reader.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
