package deploy

import (
	"context"
	"fmt"

	"github.com/danieljhkim/macsetup/internal/catalog"
	"github.com/danieljhkim/macsetup/internal/logging"
)

// ProgressFunc is called after each item in a batch.
type ProgressFunc func(done, total int, outcome Outcome)

// DeployBatch deploys items in order. Each item's requirements are checked
// first; an item with missing tools is recorded as failed and not deployed.
// Successful items are deselected. A failure never stops the batch; a
// cancelled context does.
func (e *Engine) DeployBatch(ctx context.Context, items []*catalog.Item, progress ProgressFunc) *BatchResult {
	result := &BatchResult{}

	for i, item := range items {
		if ctx.Err() != nil {
			result.Interrupted = true
			logging.Info("Deploy", "batch interrupted after %d of %d items", i, len(items))
			break
		}

		outcome := e.deployOne(ctx, item)
		if outcome.Succeeded() {
			result.Succeeded++
		} else {
			result.Failed++
		}
		result.Outcomes = append(result.Outcomes, outcome)

		if progress != nil {
			progress(i+1, len(items), outcome)
		}
	}

	return result
}

func (e *Engine) deployOne(ctx context.Context, item *catalog.Item) Outcome {
	outcome := Outcome{Item: item}

	check := e.CheckRequirements(item)
	if !check.OK() {
		outcome.Missing = check.Missing
		outcome.Err = fmt.Errorf("%w: %v", ErrMissingRequirements, check.Missing)
		return outcome
	}

	res, err := e.Deploy(ctx, item)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	outcome.BackupPath = res.BackupPath
	e.registry.SetSelected(item, false)
	return outcome
}

// BackupInstalled backs up every installed item. Items whose destination has
// disappeared since load are skipped.
func (e *Engine) BackupInstalled(ctx context.Context) *BatchResult {
	result := &BatchResult{}

	for _, item := range e.registry.Items() {
		if ctx.Err() != nil {
			result.Interrupted = true
			break
		}
		if !e.registry.RefreshInstalled(item) {
			continue
		}

		path, err := e.Backup(ctx, item)
		outcome := Outcome{Item: item, BackupPath: path, Err: err}
		if err != nil {
			result.Failed++
		} else {
			result.Succeeded++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	return result
}
