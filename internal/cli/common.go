package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/danieljhkim/macsetup/internal/backup"
	"github.com/danieljhkim/macsetup/internal/catalog"
	"github.com/danieljhkim/macsetup/internal/clock"
	"github.com/danieljhkim/macsetup/internal/config"
	"github.com/danieljhkim/macsetup/internal/deploy"
	"github.com/danieljhkim/macsetup/internal/fsops"
	"github.com/danieljhkim/macsetup/internal/hash"
	"github.com/danieljhkim/macsetup/internal/logging"
	"github.com/danieljhkim/macsetup/internal/requirements"
	"github.com/danieljhkim/macsetup/internal/state"
)

// newEngine loads the catalog and wires an engine with real implementations
// of all dependencies except the tool oracle.
func newEngine(rootOverride, catalogFile string, oracle requirements.Oracle) (*deploy.Engine, error) {
	paths, err := config.DefaultPaths(rootOverride)
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}
	logging.Debug("CLI", "repository root %s", paths.Root)

	defs, err := loadDefinitions(catalogFile)
	if err != nil {
		return nil, err
	}

	fs := fsops.NewRealFS()
	registry, err := catalog.Load(defs, fs, paths)
	if err != nil {
		return nil, err
	}

	clk := &clock.RealClock{}
	eng := deploy.New(
		registry,
		fs,
		backup.NewStore(paths.Backups, fs, clk),
		requirements.NewChecker(oracle),
		hash.NewSHA256Hasher(),
		state.NewFileStateStore(fs, paths.State),
		clk,
	)
	if err := eng.LoadBackupState(); err != nil {
		logging.Warn("CLI", "ignoring backup state: %v", err)
	}
	return eng, nil
}

func loadDefinitions(catalogFile string) (*catalog.Definitions, error) {
	if catalogFile != "" {
		return catalog.LoadDefinitionsFile(catalogFile)
	}
	return catalog.DefaultDefinitions()
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
