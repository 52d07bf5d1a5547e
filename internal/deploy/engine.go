// Package deploy copies catalog items into place.
//
// The Engine is the only code that writes to destination paths. It takes a
// backup before overwriting anything, refuses to copy when that backup fails,
// and refreshes the item's installed flag after every successful copy.
// Requirement checks are the caller's job for single deploys; DeployBatch
// runs them itself before each item.
//
// Key components:
//   - Deploy/Backup/Restore: single-item operations
//   - DeployBatch: selected items in catalog order with a success/failure tally
//   - Status: installed and drift information for listings
package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danieljhkim/macsetup/internal/backup"
	"github.com/danieljhkim/macsetup/internal/catalog"
	"github.com/danieljhkim/macsetup/internal/clock"
	"github.com/danieljhkim/macsetup/internal/fsops"
	"github.com/danieljhkim/macsetup/internal/hash"
	"github.com/danieljhkim/macsetup/internal/logging"
	"github.com/danieljhkim/macsetup/internal/planner"
	"github.com/danieljhkim/macsetup/internal/requirements"
	"github.com/danieljhkim/macsetup/internal/state"
)

// Engine deploys, backs up and restores catalog items.
type Engine struct {
	registry   *catalog.Registry
	fs         fsops.FS
	backups    *backup.Store
	checker    *requirements.Checker
	hasher     hash.Hasher
	stateStore state.StateStore
	clock      clock.Clock
}

// New creates an Engine. stateStore may be nil, in which case backup
// references live only for the session.
func New(
	registry *catalog.Registry,
	fs fsops.FS,
	backups *backup.Store,
	checker *requirements.Checker,
	hasher hash.Hasher,
	stateStore state.StateStore,
	clk clock.Clock,
) *Engine {
	return &Engine{
		registry:   registry,
		fs:         fs,
		backups:    backups,
		checker:    checker,
		hasher:     hasher,
		stateStore: stateStore,
		clock:      clk,
	}
}

// Registry returns the catalog the engine operates on.
func (e *Engine) Registry() *catalog.Registry {
	return e.registry
}

// Backups returns the backup store.
func (e *Engine) Backups() *backup.Store {
	return e.backups
}

// CheckRequirements queries the tool oracle for every tool the item requires.
func (e *Engine) CheckRequirements(item *catalog.Item) requirements.Result {
	return e.checker.Check(item.Requires)
}

// Plan previews deploying items without touching the filesystem.
func (e *Engine) Plan(items []*catalog.Item) (*planner.DeployPlan, error) {
	return planner.BuildDeployPlan(e.registry, e.checker, e.fs, items)
}

// Deploy copies the item's source over its destination.
// The caller is expected to have checked requirements.
func (e *Engine) Deploy(ctx context.Context, item *catalog.Item) (*DeployResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInterrupted, err)
	}

	src := e.registry.SourcePath(item)
	dest := e.registry.DestPath(item)
	result := &DeployResult{Item: item, Destination: dest}

	if err := e.fs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return nil, fmt.Errorf("failed to create parent directory for %s: %w", item.Name, err)
	}

	exists, err := e.fs.Exists(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to check destination for %s: %w", item.Name, err)
	}
	if exists {
		if err := e.checkDistinct(src, dest); err != nil {
			return nil, fmt.Errorf("failed to deploy %s: %w", item.Name, err)
		}
		backupPath, err := e.Backup(ctx, item)
		if err != nil {
			return nil, err
		}
		result.Overwrote = true
		result.BackupPath = backupPath
	}

	logging.Debug("Deploy", "copying %s -> %s", src, dest)
	if err := e.fs.CopyFile(src, dest); err != nil {
		return nil, fmt.Errorf("failed to deploy %s: %w", item.Name, err)
	}

	e.registry.RefreshInstalled(item)
	return result, nil
}

// checkDistinct rejects a destination that resolves to the repository source,
// which a copy would truncate.
func (e *Engine) checkDistinct(src, dest string) error {
	srcInfo, err := e.fs.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}
	destInfo, err := e.fs.Stat(dest)
	if err != nil {
		return fmt.Errorf("failed to stat destination: %w", err)
	}
	if os.SameFile(srcInfo, destInfo) {
		return fmt.Errorf("%w: %s", fsops.ErrSameFile, dest)
	}
	return nil
}

// Backup copies the item's current destination into the backup store and
// records the reference. A missing destination is not an error and yields "".
func (e *Engine) Backup(ctx context.Context, item *catalog.Item) (string, error) {
	dest := e.registry.DestPath(item)

	backupPath, err := e.backups.Create(dest)
	if err != nil {
		return "", fmt.Errorf("%w for %s: %v", ErrBackupFailed, item.Name, err)
	}
	if backupPath == "" {
		return "", nil
	}

	e.registry.RecordBackup(item, backupPath)
	e.persistBackup(item, backupPath, dest)
	return backupPath, nil
}

func (e *Engine) persistBackup(item *catalog.Item, backupPath, dest string) {
	if e.stateStore == nil {
		return
	}
	st, err := e.stateStore.Load()
	if err != nil {
		logging.Warn("Deploy", "cannot load backup state: %v", err)
		return
	}
	st.Record(item.Key(), state.BackupRecord{
		Path:        backupPath,
		Destination: dest,
		CreatedAt:   e.clock.Now(),
	})
	if err := e.stateStore.Save(st); err != nil {
		logging.Warn("Deploy", "cannot save backup state: %v", err)
	}
}

// Restore overwrites the item's destination with its most recent backup.
// Returns backup.ErrNoBackup when there is nothing to restore.
func (e *Engine) Restore(ctx context.Context, item *catalog.Item) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInterrupted, err)
	}

	dest := e.registry.DestPath(item)
	if err := e.backups.Restore(item.BackupPath(), dest); err != nil {
		return fmt.Errorf("cannot restore %s: %w", item.Name, err)
	}

	e.registry.RefreshInstalled(item)
	return nil
}

// LoadBackupState attaches backup references saved by earlier runs to the
// registry's items. Unknown keys are ignored.
func (e *Engine) LoadBackupState() error {
	if e.stateStore == nil {
		return nil
	}
	st, err := e.stateStore.Load()
	if err != nil {
		return err
	}
	for key, rec := range st.Backups {
		if item, ok := e.registry.FindKey(key); ok {
			e.registry.RecordBackup(item, rec.Path)
		}
	}
	return nil
}

// Status reports whether the item is installed and whether the installed
// copy differs from the repository.
func (e *Engine) Status(item *catalog.Item) ItemStatus {
	status := ItemStatus{Item: item, Installed: e.registry.RefreshInstalled(item)}
	if !status.Installed {
		return status
	}

	same, err := hash.Same(e.hasher, e.registry.SourcePath(item), e.registry.DestPath(item))
	if err != nil {
		logging.Warn("Deploy", "cannot compare %s: %v", item.Name, err)
		return status
	}
	status.Modified = !same
	return status
}
