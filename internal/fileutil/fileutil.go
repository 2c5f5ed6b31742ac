package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ChunkSize is the read size used when hashing files.
const ChunkSize = 64 * 1024

// ChecksumSuffix is appended to a file path to name its digest sidecar.
const ChecksumSuffix = ".sha256"

// HashFile returns the lowercase hex SHA-256 digest of the file at path,
// reading it in ChunkSize pieces.
func HashFile(path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()

	hasher := sha256.New()
	buf := make([]byte, ChunkSize)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			hasher.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// ChecksumFile hashes path and writes the digest, with no trailing newline,
// to path+ChecksumSuffix. The digest is returned.
func ChecksumFile(path string) (string, error) {
	digest, err := HashFile(path)
	if err != nil {
		return "", err
	}
	if err := WriteFileAtomic(path+ChecksumSuffix, []byte(digest), 0o644); err != nil {
		return "", err
	}
	return digest, nil
}

// WriteFileAtomic writes data to a temp file next to dst and renames it into
// place so readers never observe a partial sidecar.
func WriteFileAtomic(dst string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", dst, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", dst, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", dst, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		cleanup()
		return fmt.Errorf("rename into %s: %w", dst, err)
	}
	return nil
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
