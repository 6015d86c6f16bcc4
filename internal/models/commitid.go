package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// GenerateCommitHash generates a content-addressable commit hash.
// Message and timestamp identify the commit; parents and a digest of the
// snapshot are mixed in so two commits made in the same instant with the same
// message still get distinct hashes.
func GenerateCommitHash(message string, timestamp time.Time, parents []string, files Snapshot) string {
	data := fmt.Sprintf("%s|%s|%s|%s",
		message, timestamp.Format(time.RFC3339Nano), strings.Join(parents, ","), ComputeSnapshotHash(files))
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeSnapshotHash hashes the sorted "path digest" pairs of a snapshot.
// An empty snapshot hashes to "".
func ComputeSnapshotHash(files Snapshot) string {
	if len(files) == 0 {
		return ""
	}

	h := sha256.New()
	for _, p := range files.Paths() {
		fmt.Fprintf(h, "%s\x00%s\n", p, files[p])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// HashContent returns the blob digest of content: lowercase hex SHA-256.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
