package cache

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// ContentKey returns the memo key for file content: its hex SHA-256
func ContentKey(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// FileDigest returns the hex MD5 digest of a file's raw bytes. MD5 is only
// used to notice edits between runs.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotHashable, err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotHashable, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
