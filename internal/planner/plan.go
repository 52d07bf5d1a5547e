package planner

import (
	"fmt"

	"github.com/danieljhkim/macsetup/internal/catalog"
	"github.com/danieljhkim/macsetup/internal/fsops"
	"github.com/danieljhkim/macsetup/internal/requirements"
)

// Operation type constants
const (
	OpCreate    = "create"
	OpOverwrite = "overwrite"
)

// DeployPlan represents the expected effect of deploying a set of items.
type DeployPlan struct {
	// Operations is the ordered list of copies that would run
	Operations []Operation

	// Blocked lists items that would be skipped for missing tools
	Blocked []Blocked
}

// Operation represents a single planned copy.
type Operation struct {
	// Type is OpCreate or OpOverwrite
	Type string

	Item *catalog.Item

	// SourcePath is the absolute repository path
	SourcePath string

	// DestPath is the expanded destination
	DestPath string
}

// Blocked represents an item whose required tools are missing.
type Blocked struct {
	Item    *catalog.Item
	Missing []string
}

// NewDeployPlan creates a new empty DeployPlan.
func NewDeployPlan() *DeployPlan {
	return &DeployPlan{
		Operations: []Operation{},
		Blocked:    []Blocked{},
	}
}

// HasBlocked returns true if any item would be skipped.
func (p *DeployPlan) HasBlocked() bool {
	return len(p.Blocked) > 0
}

// Overwrites counts operations replacing an existing file.
func (p *DeployPlan) Overwrites() int {
	n := 0
	for _, op := range p.Operations {
		if op.Type == OpOverwrite {
			n++
		}
	}
	return n
}

// AddOperation adds an operation to the plan.
func (p *DeployPlan) AddOperation(op Operation) {
	p.Operations = append(p.Operations, op)
}

// AddBlocked adds a blocked item to the plan.
func (p *DeployPlan) AddBlocked(b Blocked) {
	p.Blocked = append(p.Blocked, b)
}

// BuildDeployPlan plans the deployment of items in the given order.
func BuildDeployPlan(
	registry *catalog.Registry,
	checker *requirements.Checker,
	fs fsops.FS,
	items []*catalog.Item,
) (*DeployPlan, error) {
	plan := NewDeployPlan()

	for _, item := range items {
		if check := checker.Check(item.Requires); !check.OK() {
			plan.AddBlocked(Blocked{Item: item, Missing: check.Missing})
			continue
		}

		dest := registry.DestPath(item)
		exists, err := fs.Exists(dest)
		if err != nil {
			return nil, fmt.Errorf("failed to check destination %s: %w", dest, err)
		}

		opType := OpCreate
		if exists {
			opType = OpOverwrite
		}
		plan.AddOperation(Operation{
			Type:       opType,
			Item:       item,
			SourcePath: registry.SourcePath(item),
			DestPath:   dest,
		})
	}

	return plan, nil
}
