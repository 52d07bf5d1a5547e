// Package backup manages the flat directory of timestamped backup files.
//
// A backup is a byte-for-byte copy of a destination file, taken immediately
// before it is overwritten, named {basename}.{YYYYMMDD_HHMMSS}.bak. Two
// backups of the same file within one second share a name and the later one
// wins. Pruning keeps the most recently modified files across the whole
// directory, not per source file, and cannot be undone.
package backup

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/danieljhkim/macsetup/internal/clock"
	"github.com/danieljhkim/macsetup/internal/fsops"
	"github.com/danieljhkim/macsetup/internal/logging"
)

const (
	// Suffix is the extension every backup file carries.
	Suffix = ".bak"

	// StampLayout is the timestamp format embedded in backup names.
	StampLayout = "20060102_150405"

	// DefaultKeep is the retention count used by prune.
	DefaultKeep = 10
)

// ErrNoBackup indicates there is no backup to restore from.
var ErrNoBackup = errors.New("no backup found")

// Entry describes one backup file.
type Entry struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// Store is the backup directory.
type Store struct {
	dir   string
	fs    fsops.FS
	clock clock.Clock
}

// NewStore creates a Store rooted at dir. The directory is created lazily.
func NewStore(dir string, fs fsops.FS, clk clock.Clock) *Store {
	return &Store{dir: dir, fs: fs, clock: clk}
}

// Dir returns the backup directory.
func (s *Store) Dir() string {
	return s.dir
}

// Name derives the backup filename for dest at time t.
func Name(dest string, t time.Time) string {
	return fmt.Sprintf("%s.%s%s", filepath.Base(dest), t.Format(StampLayout), Suffix)
}

// Create copies dest into the store and returns the backup path.
// When dest does not exist nothing is written and the returned path is "".
func (s *Store) Create(dest string) (string, error) {
	exists, err := s.fs.Exists(dest)
	if err != nil {
		return "", fmt.Errorf("failed to check %s: %w", dest, err)
	}
	if !exists {
		return "", nil
	}

	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	backupPath := filepath.Join(s.dir, Name(dest, s.clock.Now()))
	if err := s.fs.CopyFile(dest, backupPath); err != nil {
		return "", fmt.Errorf("failed to backup %s: %w", dest, err)
	}

	logging.Debug("Backup", "backed up %s to %s", dest, backupPath)
	return backupPath, nil
}

// Restore overwrites dest with the content of backupPath.
func (s *Store) Restore(backupPath, dest string) error {
	if backupPath == "" {
		return ErrNoBackup
	}
	exists, err := s.fs.Exists(backupPath)
	if err != nil {
		return fmt.Errorf("failed to check backup %s: %w", backupPath, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s no longer exists", ErrNoBackup, backupPath)
	}

	if err := s.fs.CopyFile(backupPath, dest); err != nil {
		return fmt.Errorf("failed to restore %s: %w", dest, err)
	}

	logging.Debug("Backup", "restored %s from %s", dest, backupPath)
	return nil
}

// List returns all backup files ordered by modification time, oldest first.
// A missing directory yields no entries.
func (s *Store) List() ([]Entry, error) {
	exists, err := s.fs.Exists(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to check backup directory: %w", err)
	}
	if !exists {
		return nil, nil
	}

	dirEntries, err := s.fs.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), Suffix) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", de.Name(), err)
		}
		entries = append(entries, Entry{
			Name:    de.Name(),
			Path:    filepath.Join(s.dir, de.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ModTime.Before(entries[j].ModTime)
	})
	return entries, nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}
	recent := make([]Entry, 0, n)
	for i := len(entries) - 1; i >= 0 && len(recent) < n; i-- {
		recent = append(recent, entries[i])
	}
	return recent, nil
}

// Prunable returns the entries Prune(keep) would delete, oldest first.
func (s *Store) Prunable(keep int) ([]Entry, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(entries) <= keep {
		return nil, nil
	}
	return entries[:len(entries)-keep], nil
}

// Prune deletes all but the keep most recently modified backups and returns
// the deleted entries.
func (s *Store) Prune(keep int) ([]Entry, error) {
	doomed, err := s.Prunable(keep)
	if err != nil {
		return nil, err
	}

	for i, entry := range doomed {
		if err := s.fs.Remove(entry.Path); err != nil {
			return doomed[:i], fmt.Errorf("failed to delete %s: %w", entry.Name, err)
		}
		logging.Debug("Backup", "pruned %s", entry.Name)
	}
	return doomed, nil
}
