// Package manifest parses Homebrew Brewfiles.
//
// Only `brew "name"` and `cask "name"` lines are recognised. Taps, mas
// entries, options after the name and anything else are ignored, so the
// parser never fails on content, only on I/O.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
)

// ErrNotFound indicates the Brewfile does not exist.
var ErrNotFound = errors.New("brewfile not found")

var (
	formulaLine = regexp.MustCompile(`^brew\s+"([^"]+)"`)
	caskLine    = regexp.MustCompile(`^cask\s+"([^"]+)"`)
)

// Set is a set of package names.
type Set map[string]struct{}

// Add inserts name.
func (s Set) Add(name string) {
	s[name] = struct{}{}
}

// Has reports whether name is in the set.
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in lexical order.
func (s Set) Sorted() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Manifest is a parsed Brewfile.
type Manifest struct {
	Formulas Set
	Casks    Set
}

// Names returns the union of formulas and casks.
func (m *Manifest) Names() Set {
	all := make(Set, len(m.Formulas)+len(m.Casks))
	for name := range m.Formulas {
		all.Add(name)
	}
	for name := range m.Casks {
		all.Add(name)
	}
	return all
}

// Parse reads a Brewfile.
func Parse(r io.Reader) (*Manifest, error) {
	m := &Manifest{Formulas: make(Set), Casks: make(Set)}

	br := bufio.NewReader(r)
	for {
		raw, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read brewfile: %w", err)
		}
		m.addLine(raw)
		if err != nil {
			break
		}
	}
	return m, nil
}

// addLine records a formula or cask line. Blank, comment and unrecognised
// lines are ignored.
func (m *Manifest) addLine(raw string) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	if match := formulaLine.FindStringSubmatch(line); match != nil {
		m.Formulas.Add(match[1])
		return
	}
	if match := caskLine.FindStringSubmatch(line); match != nil {
		m.Casks.Add(match[1])
	}
}

// ParseFile reads the Brewfile at path.
func ParseFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open brewfile: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Parse(f)
}
