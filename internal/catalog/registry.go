// Package catalog holds the registry of deployable configuration items.
//
// A Registry is built once from Definitions. Items whose source file is
// absent from the configs directory are left out entirely, so everything in
// the registry is eligible for deployment. Categories keep their definition
// order, which is the display order.
//
// All runtime mutation (selection, installed status, backup references) goes
// through Registry methods; there is no package-level state.
package catalog

import (
	"fmt"
	"strings"

	"github.com/danieljhkim/macsetup/internal/config"
	"github.com/danieljhkim/macsetup/internal/fsops"
	"github.com/danieljhkim/macsetup/internal/logging"
)

// Registry is the loaded catalog plus per-item state.
type Registry struct {
	fs         fsops.FS
	paths      *config.Paths
	categories []*Category
}

// Load builds a registry from defs, skipping items whose source is missing and
// computing each remaining item's installed flag.
func Load(defs *Definitions, fs fsops.FS, paths *config.Paths) (*Registry, error) {
	r := &Registry{fs: fs, paths: paths}

	for _, catDef := range defs.Categories {
		cat := &Category{Name: catDef.Name}
		for _, def := range catDef.Items {
			exists, err := fs.Exists(paths.Source(def.Source))
			if err != nil {
				return nil, fmt.Errorf("failed to check source for %s: %w", def.Name, err)
			}
			if !exists {
				logging.Debug("Catalog", "skipping %s: %s not in repository", def.Name, def.Source)
				continue
			}

			item := &Item{
				Name:        def.Name,
				Category:    catDef.Name,
				Source:      def.Source,
				Dest:        def.Dest,
				Description: def.Description,
				Requires:    append([]string(nil), def.Requires...),
			}
			r.RefreshInstalled(item)
			cat.Items = append(cat.Items, item)
		}
		r.categories = append(r.categories, cat)
	}

	return r, nil
}

// Paths returns the paths the registry resolves items against.
func (r *Registry) Paths() *config.Paths {
	return r.paths
}

// Categories returns all categories in display order, including empty ones.
func (r *Registry) Categories() []*Category {
	return r.categories
}

// Category looks up a category by key.
func (r *Registry) Category(name string) (*Category, error) {
	for _, cat := range r.categories {
		if cat.Name == name {
			return cat, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// Items returns every item in catalog order.
func (r *Registry) Items() []*Item {
	var items []*Item
	for _, cat := range r.categories {
		items = append(items, cat.Items...)
	}
	return items
}

// Find returns the first item whose name matches case-insensitively.
func (r *Registry) Find(name string) (*Item, error) {
	for _, item := range r.Items() {
		if strings.EqualFold(item.Name, name) {
			return item, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownItem, name)
}

// FindKey returns the item with the given Key.
func (r *Registry) FindKey(key string) (*Item, bool) {
	for _, item := range r.Items() {
		if item.Key() == key {
			return item, true
		}
	}
	return nil, false
}

// SourcePath is the absolute path of the item's file in the repository.
func (r *Registry) SourcePath(item *Item) string {
	return r.paths.Source(item.Source)
}

// DestPath is the item's destination with "~" expanded.
func (r *Registry) DestPath(item *Item) string {
	return r.paths.Destination(item.Dest)
}

// RefreshInstalled re-checks destination existence and stores the result.
// A failed check counts as not installed.
func (r *Registry) RefreshInstalled(item *Item) bool {
	exists, err := r.fs.Exists(r.DestPath(item))
	if err != nil {
		logging.Warn("Catalog", "cannot check %s: %v", r.DestPath(item), err)
		exists = false
	}
	item.installed = exists
	return exists
}

// SetSelected marks or unmarks an item for deployment.
func (r *Registry) SetSelected(item *Item, selected bool) {
	item.selected = selected
}

// Toggle flips an item's selection.
func (r *Registry) Toggle(item *Item) {
	item.selected = !item.selected
}

// SelectAll selects every item in scope and returns how many changed.
// An empty category means the whole catalog.
func (r *Registry) SelectAll(category string) int {
	return r.setScope(category, true)
}

// SelectNone deselects every item in scope and returns how many changed.
func (r *Registry) SelectNone(category string) int {
	return r.setScope(category, false)
}

func (r *Registry) setScope(category string, selected bool) int {
	changed := 0
	for _, item := range r.scope(category) {
		if item.selected != selected {
			item.selected = selected
			changed++
		}
	}
	return changed
}

// Selected returns the selected items in scope, in catalog order.
func (r *Registry) Selected(category string) []*Item {
	var selected []*Item
	for _, item := range r.scope(category) {
		if item.selected {
			selected = append(selected, item)
		}
	}
	return selected
}

func (r *Registry) scope(category string) []*Item {
	if category == "" {
		return r.Items()
	}
	cat, err := r.Category(category)
	if err != nil {
		return nil
	}
	return cat.Items
}

// RecordBackup remembers path as the item's latest backup. Empty paths are
// ignored so a reference, once set, is never cleared.
func (r *Registry) RecordBackup(item *Item, path string) {
	if path == "" {
		return
	}
	item.backupPath = path
}
