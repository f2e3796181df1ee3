// Package hasher computes the content checksums recorded for every image
// written to a corpus.
package hasher

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// Checksum returns the xxHash64 of data as 16 lowercase hex chars.
func Checksum(data []byte) string {
	return format(xxhash.Sum64(data))
}

// ChecksumReader streams r through xxHash64.
func ChecksumReader(r io.Reader) (string, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return format(h.Sum64()), nil
}

// ChecksumFile hashes the file at path.
func ChecksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return ChecksumReader(f)
}

func format(v uint64) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return hex.EncodeToString(b[:])
}
