package store

import (
	"fmt"
	"os"
	"regexp"

	"github.com/kilupskalvis/minigit/internal/models"
	"go.uber.org/zap"
)

// validDigest matches a lowercase hex-encoded SHA256 digest (64 characters).
var validDigest = regexp.MustCompile(`^[0-9a-f]{64}$`)

// PutBlob stores content under its digest and returns the digest.
// Idempotent: if the blob exists, this is a no-op beyond the existence check.
func (s *Store) PutBlob(content []byte) (string, error) {
	digest := models.HashContent(content)
	blobPath := s.path(ObjectsDir, digest)

	if _, err := os.Stat(blobPath); err == nil {
		return digest, nil
	} else if !isNotExist(err) {
		return "", fmt.Errorf("stat blob %s: %w", digest, err)
	}

	if err := safeWrite(blobPath, content, 0644); err != nil {
		return "", fmt.Errorf("write blob %s: %w", digest, err)
	}

	s.logger.Debug("stored blob", zap.String("digest", digest), zap.Int("size", len(content)))
	return digest, nil
}

// GetBlob returns the content stored under digest.
func (s *Store) GetBlob(digest string) ([]byte, error) {
	if !validDigest.MatchString(digest) {
		return nil, fmt.Errorf("blob %q: %w", digest, models.ErrNotFound)
	}

	data, err := os.ReadFile(s.path(ObjectsDir, digest))
	if isNotExist(err) {
		return nil, fmt.Errorf("blob %s: %w", digest, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", digest, err)
	}
	return data, nil
}

// HasBlob checks whether a blob exists.
func (s *Store) HasBlob(digest string) (bool, error) {
	if !validDigest.MatchString(digest) {
		return false, nil
	}
	_, err := os.Stat(s.path(ObjectsDir, digest))
	if isNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat blob %s: %w", digest, err)
	}
	return true, nil
}

// CountBlobs returns the number of stored blobs.
func (s *Store) CountBlobs() (int, error) {
	entries, err := os.ReadDir(s.path(ObjectsDir))
	if err != nil {
		return 0, fmt.Errorf("list objects: %w", err)
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() && validDigest.MatchString(e.Name()) {
			count++
		}
	}
	return count, nil
}
