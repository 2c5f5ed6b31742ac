package fileutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

const emptyDigest = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func TestChecksumFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.warc.gz")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	digest, err := ChecksumFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if digest != emptyDigest {
		t.Fatalf("digest = %q, want %q", digest, emptyDigest)
	}

	sidecar, err := os.ReadFile(path + ChecksumSuffix)
	if err != nil {
		t.Fatal(err)
	}
	if string(sidecar) != emptyDigest {
		t.Fatalf("sidecar = %q, want exactly the digest", sidecar)
	}
}

func TestChecksumFileIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.warc.gz")
	// Spans several chunks with a ragged tail.
	content := bytes.Repeat([]byte("warc"), ChunkSize/2+17)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	first, err := ChecksumFile(path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := ChecksumFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("digests differ: %q vs %q", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
}

func TestHashFileKnownValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.txt")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Fatalf("HashFile = %q, want %q", got, want)
	}
}

func TestChecksumFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing")
	if _, err := ChecksumFile(path); err == nil {
		t.Fatal("expected error for missing file")
	}
	if FileExists(path + ChecksumSuffix) {
		t.Fatal("sidecar must not be written on failure")
	}
}

func TestWriteFileAtomicReplaces(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.txt")
	if err := WriteFileAtomic(dst, []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(dst, []byte("two"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "two" {
		t.Fatalf("content = %q", got)
	}
	entries, err := os.ReadDir(filepath.Dir(dst))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files cleaned up, found %d entries", len(entries))
	}
}
