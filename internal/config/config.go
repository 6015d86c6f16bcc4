// Package config manages minigit configuration and the .minigit directory structure.
// It handles loading, saving, and initializing the repository configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kilupskalvis/minigit/internal/models"
	"github.com/pelletier/go-toml/v2"
)

const (
	RepoDir    = ".minigit"
	ConfigFile = "config"
)

// Diff algorithms.
const (
	DiffMyers      = "myers"
	DiffPositional = "positional"
)

// Config represents the minigit configuration
type Config struct {
	Core  CoreConfig  `toml:"core"`
	Merge MergeConfig `toml:"merge"`
	Diff  DiffConfig  `toml:"diff"`
	Log   LogConfig   `toml:"log"`
	path  string      // path to .minigit directory
}

type CoreConfig struct {
	DefaultBranch string `toml:"default_branch"`
}

type MergeConfig struct {
	ConflictPolicy string `toml:"conflict_policy"`
	FastForward    bool   `toml:"fast_forward"`
}

type DiffConfig struct {
	Algorithm string `toml:"algorithm"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used for keys missing from the file.
func Default() *Config {
	return &Config{
		Core:  CoreConfig{DefaultBranch: "main"},
		Merge: MergeConfig{ConflictPolicy: string(models.ConflictOurs)},
		Diff:  DiffConfig{Algorithm: DiffMyers},
		Log:   LogConfig{Level: "warn"},
	}
}

// FindRoot finds the .minigit directory by walking up from dir
func FindRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for {
		repoPath := filepath.Join(dir, RepoDir)
		if info, err := os.Stat(repoPath); err == nil && info.IsDir() {
			return repoPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not a minigit repository (or any parent up to root)")
		}
		dir = parent
	}
}

// Load loads the configuration of the repository containing the current directory
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	repoPath, err := FindRoot(cwd)
	if err != nil {
		return nil, err
	}
	return LoadFrom(repoPath)
}

// LoadFrom loads the configuration from the given .minigit directory.
// A missing config file yields the defaults.
func LoadFrom(repoPath string) (*Config, error) {
	cfg := Default()
	cfg.path = repoPath

	data, err := os.ReadFile(filepath.Join(repoPath, ConfigFile))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that enumerated keys hold known values.
func (c *Config) Validate() error {
	if c.Core.DefaultBranch == "" {
		return fmt.Errorf("core.default_branch must not be empty: %w", models.ErrInvalidArgument)
	}
	if _, err := models.ParseConflictPolicy(c.Merge.ConflictPolicy); err != nil {
		return fmt.Errorf("merge.conflict_policy: %w", err)
	}
	switch c.Diff.Algorithm {
	case DiffMyers, DiffPositional:
	default:
		return fmt.Errorf("diff.algorithm: unknown algorithm %q: %w", c.Diff.Algorithm, models.ErrInvalidArgument)
	}
	return nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	configPath := filepath.Join(c.path, ConfigFile)
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// RepoPath returns the path to the .minigit directory
func (c *Config) RepoPath() string {
	return c.path
}

// WorkTree returns the directory that contains .minigit
func (c *Config) WorkTree() string {
	return filepath.Dir(c.path)
}

// ConflictPolicy returns the configured merge conflict policy
func (c *Config) ConflictPolicy() models.ConflictPolicy {
	p, err := models.ParseConflictPolicy(c.Merge.ConflictPolicy)
	if err != nil {
		return models.ConflictOurs
	}
	return p
}

// Initialize creates a new .minigit directory under dir with an initial configuration
func Initialize(dir, defaultBranch string) (*Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	repoPath := filepath.Join(dir, RepoDir)

	// Check if already initialized
	if _, err := os.Stat(repoPath); err == nil {
		return nil, fmt.Errorf("minigit repository in %s: %w", dir, models.ErrAlreadyExists)
	}

	if err := os.MkdirAll(repoPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", RepoDir, err)
	}

	cfg := Default()
	cfg.path = repoPath
	if defaultBranch != "" {
		cfg.Core.DefaultBranch = defaultBranch
	}

	if err := cfg.Save(); err != nil {
		// Cleanup on failure
		os.RemoveAll(repoPath)
		return nil, err
	}

	return cfg, nil
}
