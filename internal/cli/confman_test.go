package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/macsetup/internal/catalog"
	"github.com/danieljhkim/macsetup/internal/config"
	"github.com/danieljhkim/macsetup/internal/menu"
	"github.com/danieljhkim/macsetup/internal/requirements"
)

const testCatalog = `categories:
  - name: shell
    items:
      - name: Zsh Configuration
        source: shell/zshrc
        dest: ~/.zshrc
        description: Zsh shell configuration
        requires: [zsh]
  - name: dev-tools
    items:
      - name: Git
        source: git/gitconfig
        dest: ~/.gitconfig
        requires: [git]
      - name: Lazygit
        source: dev-tools/lazygit.yml
        dest: ~/.config/lazygit/config.yml
        requires: [lazygit]
  - name: security
    items:
      - name: GPG Agent
        source: security/gpg-agent.conf
        dest: ~/.gnupg/gpg-agent.conf
`

type testRepo struct {
	root    string
	home    string
	catalog string
}

// setupRepo lays out a repository with a small catalog and points HOME at
// a temporary directory. The GPG Agent source is left out on purpose.
func setupRepo(t *testing.T) *testRepo {
	t.Helper()
	repo := &testRepo{root: t.TempDir(), home: t.TempDir()}
	t.Setenv("HOME", repo.home)
	t.Setenv(config.RootEnvVar, "")

	for _, rel := range []string{"shell/zshrc", "git/gitconfig", "dev-tools/lazygit.yml"} {
		writeTestFile(t, filepath.Join(repo.root, config.ConfigsDirName, rel), "repo "+rel+"\n")
	}
	repo.catalog = filepath.Join(repo.root, "catalog.yaml")
	writeTestFile(t, repo.catalog, testCatalog)
	return repo
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readTestFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

type lineScript struct{ lines []string }

func (s *lineScript) ReadLine(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *lineScript) Close() error { return nil }

func testDeps(lines ...string) confmanDeps {
	return confmanDeps{
		oracle: requirements.OracleFunc(func(tool string) bool { return tool != "lazygit" }),
		openReader: func() (menu.LineReader, error) {
			return &lineScript{lines: lines}, nil
		},
	}
}

func (r *testRepo) confman(t *testing.T, deps confmanDeps, args ...string) (string, error) {
	t.Helper()
	cmd := newConfmanCommand(deps)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--root", r.root, "--catalog", r.catalog}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func assertExitCode(t *testing.T, err error, code int) {
	t.Helper()
	var exitErr *exitError
	require.True(t, errors.As(err, &exitErr), "expected exitError, got %v", err)
	assert.Equal(t, code, exitErr.code)
}

func TestConfman_ListJSON(t *testing.T) {
	repo := setupRepo(t)
	writeTestFile(t, filepath.Join(repo.home, ".gitconfig"), "repo git/gitconfig\n")
	writeTestFile(t, filepath.Join(repo.home, ".zshrc"), "local\n")

	out, err := repo.confman(t, testDeps(), "--list", "--json")
	require.NoError(t, err)

	var entries []listEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 3, "GPG Agent has no source and is skipped")

	byName := make(map[string]listEntry)
	for _, e := range entries {
		byName[e.Name] = e
	}
	assert.True(t, byName["Git"].Installed)
	assert.False(t, byName["Git"].Modified)
	assert.True(t, byName["Zsh Configuration"].Installed)
	assert.True(t, byName["Zsh Configuration"].Modified)
	assert.False(t, byName["Lazygit"].Installed)
	assert.Equal(t, "dev-tools", byName["Lazygit"].Category)
	assert.Equal(t, []string{"lazygit"}, byName["Lazygit"].Requires)
}

func TestConfman_ListTable(t *testing.T) {
	repo := setupRepo(t)
	writeTestFile(t, filepath.Join(repo.home, ".gitconfig"), "repo git/gitconfig\n")

	out, err := repo.confman(t, testDeps(), "--list")
	require.NoError(t, err)

	assert.Contains(t, out, "Dev Tools")
	assert.Contains(t, out, "Installed")
	assert.Contains(t, out, "Not installed")
	assert.Contains(t, out, "~/.config/lazygit/config.yml")
	assert.NotContains(t, out, "Security", "empty categories are not listed")
}

func TestConfman_DeployOne(t *testing.T) {
	repo := setupRepo(t)

	out, err := repo.confman(t, testDeps(), "--deploy", "GIT")
	require.NoError(t, err)
	assert.Contains(t, out, "Deployed Git")
	assert.Equal(t, "repo git/gitconfig\n", readTestFile(t, filepath.Join(repo.home, ".gitconfig")))
}

func TestConfman_DeployOneBacksUp(t *testing.T) {
	repo := setupRepo(t)
	writeTestFile(t, filepath.Join(repo.home, ".zshrc"), "local\n")

	out, err := repo.confman(t, testDeps(), "--deploy", "zsh configuration")
	require.NoError(t, err)
	assert.Contains(t, out, "Backup:")

	entries, err := os.ReadDir(filepath.Join(repo.root, config.BackupDirName))
	require.NoError(t, err)
	var backups int
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".bak" {
			backups++
		}
	}
	assert.Equal(t, 1, backups)
}

func TestConfman_DeployUnknown(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.confman(t, testDeps(), "--deploy", "emacs")
	assert.True(t, errors.Is(err, catalog.ErrUnknownItem))
}

func TestConfman_DeployMissingRequirements(t *testing.T) {
	repo := setupRepo(t)

	out, err := repo.confman(t, testDeps(), "--deploy", "lazygit")
	assertExitCode(t, err, 1)
	assert.Contains(t, out, "Missing requirements: lazygit")
	assert.Contains(t, out, "brew install lazygit")

	_, statErr := os.Stat(filepath.Join(repo.home, ".config", "lazygit", "config.yml"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestConfman_DeployCategory(t *testing.T) {
	repo := setupRepo(t)

	out, err := repo.confman(t, testDeps(), "--category", "dev-tools")
	assertExitCode(t, err, 1)
	assert.Contains(t, out, "Deployed Git")
	assert.Contains(t, out, "Lazygit - missing: lazygit")
	assert.Contains(t, out, "Deployed: 1 configuration")
	assert.Contains(t, out, "Failed: 1 configuration")
}

func TestConfman_DeployCategoryAllGood(t *testing.T) {
	repo := setupRepo(t)

	out, err := repo.confman(t, testDeps(), "--category", "shell")
	require.NoError(t, err)
	assert.Contains(t, out, "Deployed Zsh Configuration")
}

func TestConfman_DeployUnknownCategory(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.confman(t, testDeps(), "--category", "Shell")
	assert.True(t, errors.Is(err, catalog.ErrUnknownCategory))
}

func TestConfman_Check(t *testing.T) {
	repo := setupRepo(t)

	out, err := repo.confman(t, testDeps(), "--check")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Git")
	assert.Contains(t, out, "✗ Lazygit: lazygit")
	assert.Contains(t, out, "Install missing tools with:")
	assert.Contains(t, out, "brew install lazygit")
}

func TestConfman_Restore(t *testing.T) {
	repo := setupRepo(t)
	dest := filepath.Join(repo.home, ".gitconfig")

	out, err := repo.confman(t, testDeps(), "--restore", "git")
	assertExitCode(t, err, 1)
	assert.Contains(t, out, "No backup found for Git")

	writeTestFile(t, dest, "[user]\n\tname = me\n")
	_, err = repo.confman(t, testDeps(), "--deploy", "git")
	require.NoError(t, err)
	require.Equal(t, "repo git/gitconfig\n", readTestFile(t, dest))

	// A fresh process finds the backup through the state file.
	out, err = repo.confman(t, testDeps(), "--restore", "git")
	require.NoError(t, err)
	assert.Contains(t, out, "Restored Git from backup")
	assert.Equal(t, "[user]\n\tname = me\n", readTestFile(t, dest))
}

func TestConfman_Prune(t *testing.T) {
	repo := setupRepo(t)
	dir := filepath.Join(repo.root, config.BackupDirName)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		p := filepath.Join(dir, fmt.Sprintf(".zshrc.202401%02d_000000.bak", i+1))
		writeTestFile(t, p, "x")
		mt := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(p, mt, mt))
	}

	out, err := repo.confman(t, testDeps(), "--prune", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Would delete 2 old backups:")
	assert.Contains(t, out, ".zshrc.20240101_000000.bak")
	assert.Contains(t, out, ".zshrc.20240102_000000.bak")

	out, err = repo.confman(t, testDeps(), "--prune")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 2 old backups")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 10)

	out, err = repo.confman(t, testDeps(), "--prune")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to clean")
}

func TestConfman_Interactive(t *testing.T) {
	repo := setupRepo(t)

	out, err := repo.confman(t, testDeps("j", "", "t", "d", "y", "", "q"))
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration Categories")
	assert.Contains(t, out, "Success: 1")
	assert.Contains(t, out, "1 of 3 configurations installed.")
	assert.Equal(t, "repo git/gitconfig\n", readTestFile(t, filepath.Join(repo.home, ".gitconfig")))
}

func TestConfman_InteractiveReaderFailure(t *testing.T) {
	repo := setupRepo(t)
	deps := testDeps()
	deps.openReader = func() (menu.LineReader, error) {
		return nil, errors.New("not a terminal")
	}

	_, err := repo.confman(t, deps)
	assert.EqualError(t, err, "not a terminal")
}

func TestConfman_FlagsAreExclusive(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.confman(t, testDeps(), "--list", "--check")
	assert.Error(t, err)
}

func TestConfman_BadCatalog(t *testing.T) {
	repo := setupRepo(t)
	writeTestFile(t, repo.catalog, "categories:\n  - name: shell\n    items:\n      - name: Bad\n        source: ../outside\n        dest: ~/.bad\n")

	_, err := repo.confman(t, testDeps(), "--list")
	assert.True(t, errors.Is(err, catalog.ErrInvalidCatalog))
}
