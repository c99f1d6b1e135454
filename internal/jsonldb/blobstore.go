// Content-addressed storage for batch artifacts.

package jsonldb

import (
	"crypto/sha256"
	"encoding/base32"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// base32Enc uses base32 "Extended Hex" alphabet (0-9A-V) which is ASCII-sorted
// and case-insensitive safe for filesystems.
var base32Enc = base32.HexEncoding.WithPadding(base32.NoPadding)

const (
	blobRefPrefix = "sha256:"
	tmpDirName    = "tmp"

	// emptyBlobRef is the ref for empty content (SHA-256 of nothing with size
	// 0). Avoids file I/O for empty artifacts.
	emptyBlobRef = BlobRef("sha256:SEOC8GKOVGE196NRUJ49IRTP4GJQSGF4CIDP6J54IMCHMU2IN1AG-0")
)

var (
	errInvalidBlobRef = errors.New("invalid blob ref")
	errUnsetBlobRef   = errors.New("blob ref is unset")
)

// BlobRef is a content-addressed blob reference in format
// "sha256:<BASE32>-<size>".
type BlobRef string

// Validate checks if the blob reference is well-formed. An empty ref is
// valid (unset).
func (r BlobRef) Validate() error {
	if r == "" {
		return nil
	}
	// "sha256:" (7) + 52 base32 + "-" + at least 1 digit = 61 minimum.
	if len(r) < 61 || r[:7] != blobRefPrefix || r[59] != '-' {
		return errInvalidBlobRef
	}
	for i := 7; i < 59; i++ {
		if !isBase32HexChar(r[i]) {
			return errInvalidBlobRef
		}
	}
	for i := 60; i < len(r); i++ {
		if r[i] < '0' || r[i] > '9' {
			return errInvalidBlobRef
		}
	}
	return nil
}

// IsZero returns true if the blob reference is unset.
func (r BlobRef) IsZero() bool {
	return r == ""
}

// Store manages content-addressed files in a directory.
//
// Files are organized with 256-way fan-out: <dir>/<ref[:2]>/<ref[2:]>.
// Temporary files during write live in <dir>/tmp/<random>.tmp.
type Store struct {
	dir string
}

// NewStore creates a blob store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Put streams r into the store and returns the content-addressed ref.
// Writing the same content twice returns the same ref without rewriting.
func (s *Store) Put(r io.Reader) (BlobRef, error) {
	if err := os.MkdirAll(filepath.Join(s.dir, tmpDirName), 0o750); err != nil {
		return "", fmt.Errorf("failed to create tmp directory: %w", err)
	}
	f, err := os.CreateTemp(filepath.Join(s.dir, tmpDirName), "*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := f.Name()

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(f, hasher), r)
	if err2 := f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return "", errors.Join(fmt.Errorf("failed to write blob: %w", err), os.Remove(tmpPath))
	}

	// Empty blob optimization: hardcoded ref, no file kept.
	if size == 0 {
		if err := os.Remove(tmpPath); err != nil {
			return "", fmt.Errorf("failed to remove temp file: %w", err)
		}
		return emptyBlobRef, nil
	}

	ref := BlobRef(fmt.Sprintf("%s%s-%d", blobRefPrefix, base32Enc.EncodeToString(hasher.Sum(nil)), size))

	// Fan-out by first 2 base32 chars of the hash.
	if err := os.MkdirAll(filepath.Join(s.dir, string(ref)[7:9]), 0o750); err != nil {
		return "", errors.Join(fmt.Errorf("failed to create blob subdirectory: %w", err), os.Remove(tmpPath))
	}

	targetPath := s.pathForRef(ref)
	if _, err := os.Stat(targetPath); err == nil {
		// Same content already stored.
		if err := os.Remove(tmpPath); err != nil {
			return "", fmt.Errorf("failed to remove temp file: %w", err)
		}
		return ref, nil
	}
	if err := os.Rename(tmpPath, targetPath); err != nil {
		return "", errors.Join(fmt.Errorf("failed to rename blob to final location: %w", err), os.Remove(tmpPath))
	}
	return ref, nil
}

// Open returns a ReadCloser for the blob with the given ref.
func (s *Store) Open(ref BlobRef) (io.ReadCloser, error) {
	if ref.IsZero() {
		return nil, errUnsetBlobRef
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if ref == emptyBlobRef {
		return io.NopCloser(strings.NewReader("")), nil
	}
	f, err := os.Open(s.pathForRef(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

// pathForRef returns the file path for a blob ref, splitting the hash for
// the fan-out directory structure.
func (s *Store) pathForRef(ref BlobRef) string {
	hashPart := string(ref)[7:]
	return filepath.Join(s.dir, hashPart[:2], hashPart[2:])
}

func isBase32HexChar(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'V')
}
