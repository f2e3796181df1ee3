package hasher

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestChecksum_Stable(t *testing.T) {
	a := Checksum([]byte("corpus"))
	if len(a) != 16 {
		t.Fatalf("length: got %d, want 16", len(a))
	}
	if a != Checksum([]byte("corpus")) {
		t.Fatal("checksum not deterministic")
	}
	if a == Checksum([]byte("corpuS")) {
		t.Fatal("different input, same checksum")
	}
}

func TestChecksum_KnownValue(t *testing.T) {
	// xxHash64 of the empty input with seed 0.
	if got := Checksum(nil); got != "ef46db3751d8e999" {
		t.Errorf("empty input: got %s", got)
	}
}

func TestChecksumReaderMatches(t *testing.T) {
	data := bytes.Repeat([]byte{1, 2, 3, 4}, 10000)
	got, err := ChecksumReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if got != Checksum(data) {
		t.Errorf("reader %s != bytes %s", got, Checksum(data))
	}

	path := filepath.Join(t.TempDir(), "blob")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	fromFile, err := ChecksumFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if fromFile != got {
		t.Errorf("file %s != reader %s", fromFile, got)
	}
}
