// Package requirements checks whether the tools a configuration needs are
// installed.
//
// The check asks an Oracle about each tool name on every call; nothing is
// cached, so installing a tool mid-session is picked up immediately.
package requirements

import (
	"os/exec"
	"strings"

	"github.com/danieljhkim/macsetup/internal/logging"
)

// Oracle answers "is executable X on the search path?".
type Oracle interface {
	Present(tool string) bool
}

// PathOracle looks tools up with exec.LookPath.
type PathOracle struct{}

// Present reports whether tool resolves on PATH.
func (PathOracle) Present(tool string) bool {
	path, err := exec.LookPath(tool)
	if err != nil {
		logging.Debug("Requirements", "%s not found: %v", tool, err)
		return false
	}
	logging.Debug("Requirements", "%s found at %s", tool, path)
	return true
}

// OracleFunc adapts a function to Oracle.
type OracleFunc func(tool string) bool

// Present calls f.
func (f OracleFunc) Present(tool string) bool { return f(tool) }

// Result is the outcome of a requirement check.
type Result struct {
	// Missing lists absent tools in declaration order
	Missing []string
}

// OK reports whether every required tool is present.
func (r Result) OK() bool {
	return len(r.Missing) == 0
}

// Checker runs requirement checks against an Oracle.
type Checker struct {
	oracle Oracle
}

// NewChecker creates a Checker.
func NewChecker(oracle Oracle) *Checker {
	return &Checker{oracle: oracle}
}

// Check queries every tool in requires.
func (c *Checker) Check(requires []string) Result {
	var result Result
	for _, tool := range requires {
		if !c.oracle.Present(tool) {
			result.Missing = append(result.Missing, tool)
		}
	}
	return result
}

// InstallHint renders the brew command that installs the missing tools.
func InstallHint(missing []string) string {
	if len(missing) == 0 {
		return ""
	}
	return "brew install " + strings.Join(missing, " ")
}
