// Package config resolves the filesystem locations used by confman.
//
// The repository root holds the configs/ tree that is deployed and the
// .config-backups/ directory that receives backups. The root defaults to the
// current working directory and can be overridden with CONFMAN_ROOT or the
// --root flag. Destination paths in the catalog may start with "~", which is
// expanded against the user's home directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// RootEnvVar overrides the repository root.
	RootEnvVar = "CONFMAN_ROOT"

	// ConfigsDirName is the directory under the root holding deployable files.
	ConfigsDirName = "configs"

	// BackupDirName is the directory under the root receiving backups.
	BackupDirName = ".config-backups"

	// StateFileName is the backup reference file inside the backup directory.
	StateFileName = "state.json"
)

// Paths contains all the filesystem paths used by confman.
type Paths struct {
	// Root is the repository root
	Root string

	// Configs is the directory containing the source configuration files
	Configs string

	// Backups is the flat directory receiving backup files
	Backups string

	// State is the path to the persisted backup references
	State string

	// Home is the directory "~" expands to
	Home string
}

// NewPaths builds Paths for an explicit repository root.
func NewPaths(root, home string) *Paths {
	backups := filepath.Join(root, BackupDirName)
	return &Paths{
		Root:    root,
		Configs: filepath.Join(root, ConfigsDirName),
		Backups: backups,
		State:   filepath.Join(backups, StateFileName),
		Home:    home,
	}
}

// DefaultPaths returns the paths for the given root override.
// Resolution order for the root:
// - override (the --root flag)
// - CONFMAN_ROOT
// - the current working directory
func DefaultPaths(override string) (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	root := override
	if root == "" {
		root = os.Getenv(RootEnvVar)
	}
	if root == "" {
		root, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
	}

	root, err = filepath.Abs(ExpandHome(root, home))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", root, err)
	}

	return NewPaths(root, home), nil
}

// ExpandHome replaces a leading "~" with home.
// Paths like "~user/x" are returned unchanged.
func ExpandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// Source returns the absolute path of a catalog source file.
func (p *Paths) Source(rel string) string {
	return filepath.Join(p.Configs, rel)
}

// Destination returns the expanded destination path.
func (p *Paths) Destination(dest string) string {
	return ExpandHome(dest, p.Home)
}
