// Package integration exercises confman end to end against a real temporary
// filesystem: the embedded catalog, the deployment engine, the backup store
// and the persisted backup state.
package integration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danieljhkim/macsetup/internal/backup"
	"github.com/danieljhkim/macsetup/internal/catalog"
	"github.com/danieljhkim/macsetup/internal/clock"
	"github.com/danieljhkim/macsetup/internal/config"
	"github.com/danieljhkim/macsetup/internal/deploy"
	"github.com/danieljhkim/macsetup/internal/fsops"
	"github.com/danieljhkim/macsetup/internal/hash"
	"github.com/danieljhkim/macsetup/internal/requirements"
	"github.com/danieljhkim/macsetup/internal/state"
)

// repoSources are the configs/ files present in the test repository. Every
// other catalog item is skipped at load time.
var repoSources = map[string]string{
	"shell/zshrc":          "export EDITOR=nvim\n",
	"shell/starship.toml":  "add_newline = false\n",
	"git/gitconfig":        "[user]\n\tname = dev\n",
	"git/gitignore_global": ".DS_Store\n",
}

// testEnv is one confman "session" over a shared root and home.
type testEnv struct {
	paths  *config.Paths
	fs     *fsops.RealFS
	clk    *clock.FakeClock
	tools  map[string]bool
	engine *deploy.Engine
}

// newTestEnv creates a repository root and home directory and opens the
// first session.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	paths := config.NewPaths(t.TempDir(), t.TempDir())
	for rel, content := range repoSources {
		writeFile(t, paths.Source(rel), content)
	}

	env := &testEnv{
		paths: paths,
		fs:    fsops.NewRealFS(),
		clk:   clock.NewFakeClock(time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)),
		tools: map[string]bool{"zsh": true, "starship": true, "git": true},
	}
	env.reopen(t)
	return env
}

// reopen starts a fresh session: a new registry and engine reading the same
// files, as a second invocation of the binary would.
func (e *testEnv) reopen(t *testing.T) {
	t.Helper()

	defs, err := catalog.DefaultDefinitions()
	if err != nil {
		t.Fatalf("failed to load default catalog: %v", err)
	}
	reg, err := catalog.Load(defs, e.fs, e.paths)
	if err != nil {
		t.Fatalf("failed to load registry: %v", err)
	}

	checker := requirements.NewChecker(requirements.OracleFunc(func(tool string) bool { return e.tools[tool] }))
	e.engine = deploy.New(
		reg,
		e.fs,
		backup.NewStore(e.paths.Backups, e.fs, e.clk),
		checker,
		hash.NewSHA256Hasher(),
		state.NewFileStateStore(e.fs, e.paths.State),
		e.clk,
	)
	if err := e.engine.LoadBackupState(); err != nil {
		t.Fatalf("failed to load backup state: %v", err)
	}
}

func (e *testEnv) item(t *testing.T, name string) *catalog.Item {
	t.Helper()
	item, err := e.engine.Registry().Find(name)
	if err != nil {
		t.Fatalf("item %q not found: %v", name, err)
	}
	return item
}

func (e *testEnv) dest(item *catalog.Item) string {
	return e.engine.Registry().DestPath(item)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}
