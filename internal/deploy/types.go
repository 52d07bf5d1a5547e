package deploy

import "github.com/danieljhkim/macsetup/internal/catalog"

// DeployResult represents the result of deploying one item.
type DeployResult struct {
	// Item is the deployed item
	Item *catalog.Item

	// Destination is the expanded destination path
	Destination string

	// Overwrote is true when an existing file was replaced
	Overwrote bool

	// BackupPath is the backup taken before overwriting, if any
	BackupPath string
}

// Outcome is one item's result within a batch.
type Outcome struct {
	Item *catalog.Item

	// Missing lists required tools that were not found; the item was not deployed
	Missing []string

	// BackupPath is set when an existing file was backed up
	BackupPath string

	// Err is nil on success
	Err error
}

// Succeeded reports whether the item was deployed.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// BatchResult represents the result of deploying several items.
type BatchResult struct {
	// Outcomes are in the order the items were attempted
	Outcomes []Outcome

	// Succeeded is the number of items deployed
	Succeeded int

	// Failed is the number of items that failed or were skipped
	Failed int

	// Interrupted is true when the context was cancelled before every item ran
	Interrupted bool
}

// Total is the number of items attempted.
func (r *BatchResult) Total() int {
	return r.Succeeded + r.Failed
}

// ItemStatus is an item's installed and drift state.
type ItemStatus struct {
	Item *catalog.Item

	// Installed is true when the destination exists
	Installed bool

	// Modified is true when the installed copy differs from the repository
	Modified bool
}
