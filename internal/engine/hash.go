package engine

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"

	"github.com/ninecopy/ninecopy/internal/platform"
)

// HashFile computes the BLAKE3 digest of the file at path, hex-encoded.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	digest, err := HashReader(f)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return digest, nil
}

// HashReader computes the BLAKE3 digest of everything r yields, hex-encoded.
func HashReader(r io.Reader) (string, error) {
	bufp := platform.GetBuffer()
	defer platform.PutBuffer(bufp)

	h := blake3.New()
	if _, err := io.CopyBuffer(h, r, *bufp); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
