package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDefinitions(t *testing.T) {
	defs, err := DefaultDefinitions()
	require.NoError(t, err)

	var keys []string
	total := 0
	for _, cat := range defs.Categories {
		keys = append(keys, cat.Name)
		total += len(cat.Items)
	}
	assert.Equal(t, []string{
		"shell", "terminal", "editors", "dev-tools", "languages",
		"database", "cloud", "monitoring", "system", "security",
	}, keys)
	assert.Equal(t, 41, total)

	first := defs.Categories[0].Items[0]
	assert.Equal(t, "Starship Prompt", first.Name)
	assert.Equal(t, "shell/starship.toml", first.Source)
	assert.Equal(t, "~/.config/starship.toml", first.Dest)
	assert.Equal(t, []string{"starship"}, first.Requires)
}

func TestParseDefinitions_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "malformed yaml",
			yaml: "categories: [",
		},
		{
			name: "empty category name",
			yaml: "categories:\n  - name: \"\"\n",
		},
		{
			name: "duplicate category",
			yaml: "categories:\n  - name: shell\n  - name: shell\n",
		},
		{
			name: "item without name",
			yaml: "categories:\n  - name: shell\n    items:\n      - source: a\n        dest: ~/.a\n",
		},
		{
			name: "item without destination",
			yaml: "categories:\n  - name: shell\n    items:\n      - name: A\n        source: a\n",
		},
		{
			name: "absolute source",
			yaml: "categories:\n  - name: shell\n    items:\n      - name: A\n        source: /etc/passwd\n        dest: ~/.a\n",
		},
		{
			name: "escaping source",
			yaml: "categories:\n  - name: shell\n    items:\n      - name: A\n        source: ../secrets\n        dest: ~/.a\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDefinitions([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCatalog), "got %v", err)
		})
	}
}

func TestLoadDefinitionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`categories:
  - name: editors
    items:
      - name: Vim
        source: editors/vimrc
        dest: ~/.vimrc
        requires: [vim]
`), 0644))

	defs, err := LoadDefinitionsFile(path)
	require.NoError(t, err)
	require.Len(t, defs.Categories, 1)
	assert.Equal(t, "Vim", defs.Categories[0].Items[0].Name)

	_, err = LoadDefinitionsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
