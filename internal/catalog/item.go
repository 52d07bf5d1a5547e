package catalog

import "strings"

// Item is one deployable configuration file and its runtime state.
//
// Definition fields are fixed after load. The selected, installed and backup
// fields change only through Registry methods.
type Item struct {
	Name        string
	Category    string
	Source      string
	Dest        string
	Description string
	Requires    []string

	selected   bool
	installed  bool
	backupPath string
}

// Selected reports whether the item is marked for deployment.
func (i *Item) Selected() bool { return i.selected }

// Installed reports whether the destination existed at the last check.
func (i *Item) Installed() bool { return i.installed }

// BackupPath is the most recent backup taken for the item, or "".
func (i *Item) BackupPath() string { return i.backupPath }

// Category is an ordered group of items.
type Category struct {
	Name  string
	Items []*Item
}

// Title renders the category key for display: "dev-tools" -> "Dev Tools".
func (c *Category) Title() string {
	return Title(c.Name)
}

// InstalledCount counts items whose destination exists.
func (c *Category) InstalledCount() int {
	n := 0
	for _, item := range c.Items {
		if item.installed {
			n++
		}
	}
	return n
}

// Title renders a category key for display.
func Title(key string) string {
	words := strings.Split(key, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Key identifies the item across runs. Names are only unique within a category.
func (i *Item) Key() string {
	return i.Category + "/" + i.Name
}
