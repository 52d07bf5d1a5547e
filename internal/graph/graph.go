// Package graph reads tool records from the setup knowledge graph.
//
// Each Tool node carries a command string such as "brew install --cask iterm2".
// The package name a tool contributes is taken from that command; tools
// installed some other way contribute nothing to the Brewfile comparison.
package graph

import (
	"context"
	"regexp"
)

// DefaultProjectID is the project whose tools are compared.
const DefaultProjectID = "macbook-m4-max-setup"

var brewInstall = regexp.MustCompile(`brew\s+install\s+(?:--cask\s+)?(\S+)`)

// Record is one Tool node.
type Record struct {
	Key     string
	Name    string
	Command string
}

// Source provides tool records.
type Source interface {
	Tools(ctx context.Context) ([]Record, error)
}

// ExtractPackage returns the package installed by a brew command.
func ExtractPackage(command string) (string, bool) {
	match := brewInstall.FindStringSubmatch(command)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// PackageMap maps tool key to package name, dropping records without a
// brew install command.
func PackageMap(records []Record) map[string]string {
	packages := make(map[string]string, len(records))
	for _, rec := range records {
		if pkg, ok := ExtractPackage(rec.Command); ok {
			packages[rec.Key] = pkg
		}
	}
	return packages
}

// StaticSource serves a fixed set of records.
type StaticSource []Record

// Tools returns the records.
func (s StaticSource) Tools(ctx context.Context) ([]Record, error) {
	return []Record(s), nil
}
