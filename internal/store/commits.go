package store

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/kilupskalvis/minigit/internal/models"
)

const commitExt = ".txt"

var validCommitHash = regexp.MustCompile(`^[0-9a-f]{64}$`)

// EncodeCommit renders a commit record in the text format stored under commits/.
// Snapshot entries are written in path order.
func EncodeCommit(c *models.Commit) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "message: %s\n", c.Message)
	fmt.Fprintf(&b, "timestamp: %s\n", c.Timestamp.UTC().Format(time.RFC3339Nano))
	if len(c.Parents) == 0 {
		fmt.Fprintf(&b, "parent: %s\n", models.NullHash)
	}
	for _, p := range c.Parents {
		fmt.Fprintf(&b, "parent: %s\n", p)
	}
	b.WriteString("files:\n")
	for _, p := range c.Files.Paths() {
		fmt.Fprintf(&b, " %s -> %s\n", p, c.Files[p])
	}
	return b.Bytes()
}

// DecodeCommit parses a commit record. hash is taken from the record's file name.
func DecodeCommit(hash string, data []byte) (*models.Commit, error) {
	c := &models.Commit{Hash: hash, Files: models.Snapshot{}}
	malformed := func(format string, args ...any) error {
		return fmt.Errorf("commit %s: %s: %w", hash, fmt.Sprintf(format, args...), models.ErrCorruptHistory)
	}

	var sawMessage, sawTimestamp, inFiles bool
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if inFiles {
			if line == "" {
				continue
			}
			entry, ok := strings.CutPrefix(line, " ")
			if !ok {
				return nil, malformed("unexpected line %q in files section", line)
			}
			path, digest, ok := strings.Cut(entry, " -> ")
			if !ok || path == "" || digest == "" {
				return nil, malformed("bad file entry %q", line)
			}
			c.Files[path] = digest
			continue
		}

		switch {
		case strings.HasPrefix(line, "message:"):
			c.Message = strings.TrimPrefix(strings.TrimPrefix(line, "message:"), " ")
			sawMessage = true
		case strings.HasPrefix(line, "timestamp:"):
			ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(strings.TrimPrefix(line, "timestamp:")))
			if err != nil {
				return nil, malformed("bad timestamp: %v", err)
			}
			c.Timestamp = ts
			sawTimestamp = true
		case strings.HasPrefix(line, "parent:"):
			parent := strings.TrimSpace(strings.TrimPrefix(line, "parent:"))
			if parent != models.NullHash && parent != "" {
				c.Parents = append(c.Parents, parent)
			}
		case line == "files:":
			inFiles = true
		case line == "":
		default:
			return nil, malformed("unexpected line %q", line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read commit %s: %w", hash, err)
	}
	if !sawMessage || !sawTimestamp {
		return nil, malformed("missing message or timestamp")
	}

	return c, nil
}

// CreateCommit writes a commit record. Records are immutable: writing a hash
// that already exists is a no-op.
func (s *Store) CreateCommit(c *models.Commit) error {
	if !validCommitHash.MatchString(c.Hash) {
		return fmt.Errorf("commit hash %q: %w", c.Hash, models.ErrInvalidArgument)
	}

	path := s.commitPath(c.Hash)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := safeWrite(path, EncodeCommit(c), 0644); err != nil {
		return fmt.Errorf("write commit %s: %w", c.Hash, err)
	}
	return nil
}

// GetCommit retrieves a commit by hash
func (s *Store) GetCommit(hash string) (*models.Commit, error) {
	if !validCommitHash.MatchString(hash) {
		return nil, fmt.Errorf("commit %q: %w", hash, models.ErrNotFound)
	}

	data, err := os.ReadFile(s.commitPath(hash))
	if isNotExist(err) {
		return nil, fmt.Errorf("commit %s: %w", hash, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", hash, err)
	}

	return DecodeCommit(hash, data)
}

// HasCommit checks if a commit record exists.
func (s *Store) HasCommit(hash string) (bool, error) {
	if !validCommitHash.MatchString(hash) {
		return false, nil
	}
	_, err := os.Stat(s.commitPath(hash))
	if isNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat commit %s: %w", hash, err)
	}
	return true, nil
}

// FindCommitsByPrefix returns the sorted hashes of all commits starting with prefix.
func (s *Store) FindCommitsByPrefix(prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.path(CommitsDir))
	if err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}

	var hashes []string
	for _, e := range entries {
		hash, ok := strings.CutSuffix(e.Name(), commitExt)
		if !ok || e.IsDir() || !validCommitHash.MatchString(hash) {
			continue
		}
		if strings.HasPrefix(hash, prefix) {
			hashes = append(hashes, hash)
		}
	}
	sort.Strings(hashes)
	return hashes, nil
}

func (s *Store) commitPath(hash string) string {
	return s.path(CommitsDir, hash+commitExt)
}
