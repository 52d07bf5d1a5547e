package menu

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

// scriptedReader replays lines, then returns end (io.EOF by default).
type scriptedReader struct {
	lines   []string
	end     error
	prompts []string
}

func (r *scriptedReader) ReadLine(prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	if len(r.lines) == 0 {
		if r.end != nil {
			return "", r.end
		}
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) Close() error { return nil }

type fixture struct {
	paths  *config.Paths
	reg    *catalog.Registry
	engine *deploy.Engine
	out    *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	paths := config.NewPaths(t.TempDir(), t.TempDir())
	defs := &catalog.Definitions{Categories: []catalog.CategoryDefinition{
		{Name: "shell", Items: []catalog.ItemDefinition{
			{Name: "Zsh Configuration", Source: "shell/zshrc", Dest: "~/.zshrc", Requires: []string{"zsh"}},
		}},
		{Name: "dev-tools", Items: []catalog.ItemDefinition{
			{Name: "Git", Source: "git/gitconfig", Dest: "~/.gitconfig", Requires: []string{"git"}},
			{Name: "Lazygit", Source: "dev-tools/lazygit.yml", Dest: "~/.config/lazygit/config.yml", Requires: []string{"lazygit"}},
		}},
	}}
	for _, cat := range defs.Categories {
		for _, def := range cat.Items {
			writeFile(t, paths.Source(def.Source), "repo "+def.Name+"\n")
		}
	}

	fs := fsops.NewRealFS()
	reg, err := catalog.Load(defs, fs, paths)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2024, 5, 17, 9, 41, 3, 0, time.Local))
	checker := requirements.NewChecker(requirements.OracleFunc(func(tool string) bool {
		return tool != "lazygit"
	}))
	engine := deploy.New(reg, fs, backup.NewStore(paths.Backups, fs, clk), checker,
		hash.NewSHA256Hasher(), state.NewFileStateStore(fs, paths.State), clk)

	return &fixture{paths: paths, reg: reg, engine: engine, out: &bytes.Buffer{}}
}

func (f *fixture) run(t *testing.T, lines ...string) (*Controller, error) {
	t.Helper()
	c := NewController(f.engine, &scriptedReader{lines: lines}, f.out)
	err := c.Run(context.Background())
	return c, err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestRun_Quit(t *testing.T) {
	f := newFixture(t)

	c, err := f.run(t, "q")
	require.NoError(t, err)
	assert.Equal(t, StateExit, c.State())
	assert.Contains(t, f.out.String(), "Configuration Categories")
	assert.Contains(t, f.out.String(), "Dev Tools")
	assert.Contains(t, f.out.String(), "Done. 0 of 3 configurations installed.")
}

func TestRun_EndOfInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t)
	require.NoError(t, err)
	assert.Contains(t, f.out.String(), "Done. 0 of 3 configurations installed.")
}

func TestRun_Interrupt(t *testing.T) {
	f := newFixture(t)
	c := NewController(f.engine, &scriptedReader{lines: []string{"j"}, end: ErrInterrupt}, f.out)

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, f.out.String(), "Interrupted. 0 of 3 configurations installed.")
}

func TestRun_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewController(f.engine, &scriptedReader{lines: []string{"q"}}, f.out)

	require.NoError(t, c.Run(ctx))
	assert.Contains(t, f.out.String(), "Interrupted.")
}

func TestRun_ReaderError(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("terminal gone")
	c := NewController(f.engine, &scriptedReader{end: boom}, f.out)

	err := c.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, f.out.String(), "Stopped: terminal gone.")
}

func TestRun_DeployFromCategory(t *testing.T) {
	f := newFixture(t)

	// Down to dev-tools, open it, toggle Git, deploy, confirm, back, quit.
	_, err := f.run(t, "j", "", " ", "d", "y", "", "q")
	require.NoError(t, err)

	out := f.out.String()
	assert.Contains(t, out, "Dev Tools Configurations")
	assert.Contains(t, out, "Ready to deploy 1 configurations from dev-tools:")
	assert.Contains(t, out, "Git (New)")
	assert.NotContains(t, out, "will be backed up first")
	assert.NotContains(t, out, "will be skipped")
	assert.Contains(t, out, "Success: 1")
	assert.Contains(t, out, "Done. 1 of 3 configurations installed.")

	data, err := os.ReadFile(filepath.Join(f.paths.Home, ".gitconfig"))
	require.NoError(t, err)
	assert.Equal(t, "repo Git\n", string(data))

	git, err := f.reg.Find("git")
	require.NoError(t, err)
	assert.False(t, git.Selected())
	assert.True(t, git.Installed())
}

func TestRun_GlobalDeployContinuesPastMissingTools(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.paths.Home, ".zshrc"), "mine\n")

	_, err := f.run(t, "a", "d", "yes", "q")
	require.NoError(t, err)

	out := f.out.String()
	assert.Contains(t, out, "Selected 3 configurations")
	assert.Contains(t, out, "Zsh Configuration (Will overwrite)")
	assert.Contains(t, out, "Lazygit (missing: lazygit)")
	assert.Contains(t, out, "1 existing files will be backed up first")
	assert.Contains(t, out, "1 configurations will be skipped until their tools are installed")
	assert.Contains(t, out, "Lazygit - missing requirements: lazygit")
	assert.Contains(t, out, "Success: 2")
	assert.Contains(t, out, "Failed: 1")

	lazygit, err := f.reg.Find("lazygit")
	require.NoError(t, err)
	assert.True(t, lazygit.Selected())

	zsh, err := f.reg.Find("Zsh Configuration")
	require.NoError(t, err)
	assert.NotEmpty(t, zsh.BackupPath())
}

func TestRun_DeclinedDeploy(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, "a", "d", "", "q")
	require.NoError(t, err)

	assert.NotContains(t, f.out.String(), "Deployment complete")
	assert.Len(t, f.reg.Selected(""), 3)
	_, err = os.Stat(filepath.Join(f.paths.Home, ".zshrc"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_DeployNothingSelected(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, "d", "", "d", "", "q")
	require.NoError(t, err)
	assert.Contains(t, f.out.String(), "No configurations selected!")
	assert.Contains(t, f.out.String(), "No configurations selected in this category!")
}

func TestRun_CategorySelectionIsScoped(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, "j", "", "a", "", "q")
	require.NoError(t, err)

	var selected []string
	for _, item := range f.reg.Selected("") {
		selected = append(selected, item.Name)
	}
	assert.Equal(t, []string{"Git", "Lazygit"}, selected)
}

func TestRun_CheckRequirements(t *testing.T) {
	f := newFixture(t)

	// dev-tools, move to Lazygit, check.
	_, err := f.run(t, "j", "", "j", "c", "k", "c", "", "q")
	require.NoError(t, err)

	out := f.out.String()
	assert.Contains(t, out, "Checking requirements for Lazygit...")
	assert.Contains(t, out, "Install with: brew install lazygit")
	assert.Contains(t, out, "Checking requirements for Git...")
	assert.Contains(t, out, "All requirements satisfied!")
}

func TestRun_BackupAllAndRestore(t *testing.T) {
	f := newFixture(t)
	dest := filepath.Join(f.paths.Home, ".zshrc")
	writeFile(t, dest, "original\n")
	f.reg.RefreshInstalled(f.reg.Items()[0])

	_, err := f.run(t, "b", "1", "q")
	require.NoError(t, err)
	assert.Contains(t, f.out.String(), "Backed up Zsh Configuration")
	assert.Contains(t, f.out.String(), "Created 1 backups")

	writeFile(t, dest, "clobbered\n")
	f.out.Reset()

	_, err = f.run(t, "b", "2", "1", "q")
	require.NoError(t, err)
	assert.Contains(t, f.out.String(), ".zshrc.20240517_094103.bak")
	assert.Contains(t, f.out.String(), "Restored Zsh Configuration")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "original\n", string(data))
}

func TestRun_RestoreWithoutBackups(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, "b", "2", "q")
	require.NoError(t, err)
	assert.Contains(t, f.out.String(), "No recorded backups to restore")
}

func TestRun_Prune(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(f.paths.Backups, 0755))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		p := filepath.Join(f.paths.Backups, fmt.Sprintf("file%02d.20240101_000000.bak", i))
		writeFile(t, p, "x")
		mt := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(p, mt, mt))
	}

	_, err := f.run(t, "b", "3", "y", "q")
	require.NoError(t, err)
	assert.Contains(t, f.out.String(), "Recent Backups")
	assert.Contains(t, f.out.String(), "Will delete 2 old backups")
	assert.Contains(t, f.out.String(), "Deleted 2 old backups")

	entries, err := f.engine.Backups().List()
	require.NoError(t, err)
	assert.Len(t, entries, 10)
	assert.Equal(t, "file02.20240101_000000.bak", entries[0].Name)
}

func TestRun_PruneNothingToDo(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, "b", "3", "q")
	require.NoError(t, err)
	assert.Contains(t, f.out.String(), "No backups found")
	assert.Contains(t, f.out.String(), "nothing to clean")
}

func TestRun_CursorWraps(t *testing.T) {
	f := newFixture(t)
	c := NewController(f.engine, &scriptedReader{lines: []string{"k"}}, f.out)
	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, 1, c.catIdx, "moving up from the first category wraps to the last")
}
