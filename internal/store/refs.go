package store

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/kilupskalvis/minigit/internal/models"
)

const headRefPrefix = "ref: " + RefsDir + "/"

// ValidateBranchName rejects names that cannot live as a single file under refs/.
func ValidateBranchName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("branch name cannot be empty: %w", models.ErrInvalidArgument)
	case name == HeadFile:
		return fmt.Errorf("branch name %q is reserved: %w", name, models.ErrInvalidArgument)
	case strings.HasPrefix(name, "-"), strings.HasPrefix(name, "."):
		return fmt.Errorf("branch name %q cannot start with %q: %w", name, name[:1], models.ErrInvalidArgument)
	case strings.ContainsAny(name, `/\:`), strings.Contains(name, ".."):
		return fmt.Errorf("branch name %q contains an invalid sequence: %w", name, models.ErrInvalidArgument)
	case strings.IndexFunc(name, unicode.IsSpace) >= 0:
		return fmt.Errorf("branch name %q contains whitespace: %w", name, models.ErrInvalidArgument)
	}
	return nil
}

// RefName returns the reflog key for a branch.
func RefName(branch string) string {
	return RefsDir + "/" + branch
}

func encodeRef(commitHash string) []byte {
	if commitHash == "" {
		return []byte(models.NullHash)
	}
	return []byte(commitHash)
}

func decodeRef(data []byte) string {
	hash := strings.TrimSpace(string(data))
	if hash == models.NullHash {
		return ""
	}
	return hash
}

// CreateBranch stores a new branch pointing at commitHash ("" for unborn).
func (s *Store) CreateBranch(name, commitHash string) error {
	if err := ValidateBranchName(name); err != nil {
		return err
	}

	f, err := os.OpenFile(s.path(RefsDir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if os.IsExist(err) {
		return fmt.Errorf("branch '%s': %w", name, models.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("create branch %s: %w", name, err)
	}
	defer f.Close()

	if _, err := f.Write(encodeRef(commitHash)); err != nil {
		return fmt.Errorf("write branch %s: %w", name, err)
	}
	return f.Sync()
}

// GetBranch retrieves a branch by name. Returns (nil, nil) if not found.
func (s *Store) GetBranch(name string) (*models.Branch, error) {
	if ValidateBranchName(name) != nil {
		return nil, nil
	}

	data, err := os.ReadFile(s.path(RefsDir, name))
	if isNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read branch %s: %w", name, err)
	}

	return &models.Branch{Name: name, CommitHash: decodeRef(data)}, nil
}

// ListBranches returns all branches sorted by name.
func (s *Store) ListBranches() ([]*models.Branch, error) {
	entries, err := os.ReadDir(s.path(RefsDir))
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}

	var branches []*models.Branch
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		branch, err := s.GetBranch(e.Name())
		if err != nil {
			return nil, err
		}
		if branch != nil {
			branches = append(branches, branch)
		}
	}

	sort.Slice(branches, func(i, j int) bool {
		return branches[i].Name < branches[j].Name
	})

	return branches, nil
}

// UpdateBranch updates an existing branch's commit hash.
func (s *Store) UpdateBranch(name, commitHash string) error {
	exists, err := s.BranchExists(name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("branch '%s': %w", name, models.ErrBranchNotFound)
	}

	return safeWrite(s.path(RefsDir, name), encodeRef(commitHash), 0644)
}

// DeleteBranch removes a branch ref. Commits it pointed at are untouched.
func (s *Store) DeleteBranch(name string) error {
	exists, err := s.BranchExists(name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("branch '%s': %w", name, models.ErrBranchNotFound)
	}

	return os.Remove(s.path(RefsDir, name))
}

// BranchExists checks if a branch with the given name exists.
func (s *Store) BranchExists(name string) (bool, error) {
	branch, err := s.GetBranch(name)
	if err != nil {
		return false, err
	}
	return branch != nil, nil
}

// GetHEAD returns the name of the branch HEAD points at.
func (s *Store) GetHEAD() (string, error) {
	data, err := os.ReadFile(s.path(HeadFile))
	if err != nil {
		return "", fmt.Errorf("read HEAD: %w", err)
	}

	line := strings.TrimSpace(string(data))
	name, ok := strings.CutPrefix(line, headRefPrefix)
	if !ok || name == "" {
		return "", fmt.Errorf("malformed HEAD %q: %w", line, models.ErrCorruptHistory)
	}
	return name, nil
}

// SetHEAD points HEAD at the named branch.
func (s *Store) SetHEAD(branch string) error {
	if err := ValidateBranchName(branch); err != nil {
		return err
	}
	return safeWrite(s.path(HeadFile), []byte(headRefPrefix+branch+"\n"), 0644)
}

// Head resolves HEAD to its branch and tip commit.
func (s *Store) Head() (*models.HeadState, error) {
	name, err := s.GetHEAD()
	if err != nil {
		return nil, err
	}

	branch, err := s.GetBranch(name)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, fmt.Errorf("HEAD points at missing branch '%s': %w", name, models.ErrCorruptHistory)
	}

	return &models.HeadState{BranchName: name, CommitHash: branch.CommitHash}, nil
}
