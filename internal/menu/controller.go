// Package menu is the interactive front end of confman.
//
// Navigation is a finite state machine: Transition maps a state and an input
// line to an action and the next state, and the Controller performs the
// action against the deploy engine. Rendering and input are separate from
// the table so every transition can be tested without a terminal.
package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"

	"github.com/danieljhkim/macsetup/internal/backup"
	"github.com/danieljhkim/macsetup/internal/catalog"
	"github.com/danieljhkim/macsetup/internal/deploy"
	"github.com/danieljhkim/macsetup/internal/logging"
	"github.com/danieljhkim/macsetup/internal/planner"
	"github.com/danieljhkim/macsetup/internal/requirements"
)

const (
	commandPrompt = "Command> "
	recentBackups = 10
)

// Controller runs the menu loop.
type Controller struct {
	engine   *deploy.Engine
	registry *catalog.Registry
	in       LineReader
	out      io.Writer

	state   State
	catIdx  int
	itemIdx int
}

// NewController creates a Controller starting at the main menu.
func NewController(engine *deploy.Engine, in LineReader, out io.Writer) *Controller {
	return &Controller{
		engine:   engine,
		registry: engine.Registry(),
		in:       in,
		out:      out,
		state:    StateMain,
	}
}

// State returns the current menu state.
func (c *Controller) State() State {
	return c.state
}

// Run reads commands until the user quits, input ends, the user interrupts,
// or an action fails. A final status line is printed in every case. Quit,
// end of input and interrupt return nil.
func (c *Controller) Run(ctx context.Context) error {
	for c.state != StateExit {
		if ctx.Err() != nil {
			c.finish(warningColor.Sprint("⚠ Interrupted."))
			return nil
		}

		c.render()
		line, err := c.in.ReadLine(commandPrompt)
		if err != nil {
			return c.stop(ctx, err)
		}

		action, next := Transition(c.state, line)
		logging.Debug("Menu", "%s %q -> %s, %s", c.state, line, action, next)

		if err := c.perform(ctx, action); err != nil {
			return c.stop(ctx, err)
		}
		c.state = next
	}

	c.finish(successColor.Sprint("✓ Done."))
	return nil
}

func (c *Controller) stop(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, io.EOF):
		c.finish(successColor.Sprint("✓ Done."))
		return nil
	case errors.Is(err, ErrInterrupt), ctx.Err() != nil:
		c.finish(warningColor.Sprint("⚠ Interrupted."))
		return nil
	default:
		c.finish(errorColor.Sprintf("✗ Stopped: %v.", err))
		return err
	}
}

// finish prints the final status line.
func (c *Controller) finish(prefix string) {
	total, installed := 0, 0
	for _, item := range c.registry.Items() {
		total++
		if item.Installed() {
			installed++
		}
	}
	fmt.Fprintf(c.out, "\n%s %d of %d configurations installed.\n", prefix, installed, total)
	c.state = StateExit
}

func (c *Controller) perform(ctx context.Context, action Action) error {
	switch action {
	case ActionMoveDown:
		c.move(1)
	case ActionMoveUp:
		c.move(-1)
	case ActionOpenCategory:
		c.itemIdx = 0
	case ActionToggle:
		if item := c.currentItem(); item != nil {
			c.registry.Toggle(item)
		}
	case ActionSelectAll:
		n := c.registry.SelectAll(c.scope())
		fmt.Fprintln(c.out, successColor.Sprintf("Selected %d configurations", n))
	case ActionSelectNone:
		n := c.registry.SelectNone(c.scope())
		fmt.Fprintln(c.out, warningColor.Sprintf("Deselected %d configurations", n))
	case ActionDeploy:
		return c.deploySelected(ctx)
	case ActionCheckRequirements:
		if item := c.currentItem(); item != nil {
			c.checkRequirements(item)
		}
	case ActionBackupAll:
		c.backupAll(ctx)
	case ActionRestore:
		return c.restore(ctx)
	case ActionPrune:
		return c.prune()
	}
	return nil
}

// scope is the category key for category-scoped actions, "" on the main menu.
func (c *Controller) scope() string {
	if c.state == StateCategory {
		if cat := c.currentCategory(); cat != nil {
			return cat.Name
		}
	}
	return ""
}

func (c *Controller) move(delta int) {
	switch c.state {
	case StateMain:
		c.catIdx = wrap(c.catIdx+delta, len(c.registry.Categories()))
	case StateCategory:
		if cat := c.currentCategory(); cat != nil {
			c.itemIdx = wrap(c.itemIdx+delta, len(cat.Items))
		}
	}
}

func wrap(i, n int) int {
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}

func (c *Controller) currentCategory() *catalog.Category {
	cats := c.registry.Categories()
	if c.catIdx < 0 || c.catIdx >= len(cats) {
		return nil
	}
	return cats[c.catIdx]
}

func (c *Controller) currentItem() *catalog.Item {
	cat := c.currentCategory()
	if cat == nil || c.itemIdx < 0 || c.itemIdx >= len(cat.Items) {
		return nil
	}
	return cat.Items[c.itemIdx]
}

func (c *Controller) checkRequirements(item *catalog.Item) {
	fmt.Fprintf(c.out, "\nChecking requirements for %s...\n", item.Name)
	result := c.engine.CheckRequirements(item)
	if result.OK() {
		fmt.Fprintln(c.out, successColor.Sprint("✓ All requirements satisfied!"))
		return
	}
	fmt.Fprintln(c.out, errorColor.Sprint("✗ Missing requirements:"))
	for _, tool := range result.Missing {
		fmt.Fprintf(c.out, "  - %s\n", tool)
	}
	fmt.Fprintln(c.out, warningColor.Sprintf("\nInstall with: %s", requirements.InstallHint(result.Missing)))
}

func (c *Controller) deploySelected(ctx context.Context) error {
	scope := c.scope()
	items := c.registry.Selected(scope)
	if len(items) == 0 {
		if scope != "" {
			fmt.Fprintln(c.out, warningColor.Sprint("No configurations selected in this category!"))
		} else {
			fmt.Fprintln(c.out, warningColor.Sprint("No configurations selected!"))
		}
		return nil
	}

	plan, err := c.engine.Plan(items)
	if err != nil {
		return err
	}
	c.renderPlan(plan, scope)

	ok, err := c.confirm("Proceed with deployment?")
	if err != nil || !ok {
		return err
	}

	fmt.Fprintln(c.out, "\nDeploying configurations...")
	s := c.startSpinner(" Deploying...")
	result := c.engine.DeployBatch(ctx, items, func(done, total int, o deploy.Outcome) {
		if s != nil {
			s.Lock()
			s.Suffix = fmt.Sprintf(" Deployed %d/%d", done, total)
			s.Unlock()
		}
	})
	if s != nil {
		s.Stop()
	}

	for _, o := range result.Outcomes {
		switch {
		case o.Succeeded():
			fmt.Fprintln(c.out, successColor.Sprintf("✓ %s", o.Item.Name))
		case len(o.Missing) > 0:
			fmt.Fprintln(c.out, errorColor.Sprintf("✗ %s - missing requirements: %s", o.Item.Name, strings.Join(o.Missing, ", ")))
		default:
			fmt.Fprintln(c.out, errorColor.Sprintf("✗ %s - %v", o.Item.Name, o.Err))
		}
	}

	fmt.Fprintln(c.out, "\nDeployment complete!")
	fmt.Fprintln(c.out, successColor.Sprintf("✓ Success: %d", result.Succeeded))
	if result.Failed > 0 {
		fmt.Fprintln(c.out, errorColor.Sprintf("✗ Failed: %d", result.Failed))
	}
	return nil
}

func (c *Controller) renderPlan(plan *planner.DeployPlan, scope string) {
	total := len(plan.Operations) + len(plan.Blocked)
	if scope != "" {
		fmt.Fprintf(c.out, "\nReady to deploy %d configurations from %s:\n", total, scope)
	} else {
		fmt.Fprintf(c.out, "\nReady to deploy %d configurations:\n", total)
	}
	for _, op := range plan.Operations {
		status := successColor.Sprint("New")
		if op.Type == planner.OpOverwrite {
			status = warningColor.Sprint("Will overwrite")
		}
		fmt.Fprintf(c.out, "  • %s (%s)\n", op.Item.Name, status)
	}
	for _, b := range plan.Blocked {
		fmt.Fprintf(c.out, "  • %s (%s)\n", b.Item.Name, errorColor.Sprintf("missing: %s", strings.Join(b.Missing, ", ")))
	}

	if n := plan.Overwrites(); n > 0 {
		fmt.Fprintln(c.out, dimColor.Sprintf("\n%d existing files will be backed up first", n))
	}
	if plan.HasBlocked() {
		fmt.Fprintln(c.out, warningColor.Sprintf("%d configurations will be skipped until their tools are installed", len(plan.Blocked)))
	}
}

func (c *Controller) backupAll(ctx context.Context) {
	fmt.Fprintln(c.out, "\nCreating backups...")
	result := c.engine.BackupInstalled(ctx)
	for _, o := range result.Outcomes {
		if o.Succeeded() {
			fmt.Fprintln(c.out, successColor.Sprintf("✓ Backed up %s", o.Item.Name))
		} else {
			fmt.Fprintln(c.out, errorColor.Sprintf("✗ %s - %v", o.Item.Name, o.Err))
		}
	}
	fmt.Fprintln(c.out, successColor.Sprintf("\nCreated %d backups", result.Succeeded))
}

func (c *Controller) restore(ctx context.Context) error {
	var candidates []*catalog.Item
	for _, item := range c.registry.Items() {
		if item.BackupPath() != "" {
			candidates = append(candidates, item)
		}
	}
	if len(candidates) == 0 {
		fmt.Fprintln(c.out, warningColor.Sprint("No recorded backups to restore"))
		return nil
	}

	fmt.Fprintln(c.out, "\nConfigurations with a backup:")
	for i, item := range candidates {
		fmt.Fprintf(c.out, "  %d. %s (%s)\n", i+1, item.Name, dimColor.Sprint(item.BackupPath()))
	}

	line, err := c.in.ReadLine("Restore which? (blank to cancel) ")
	if err != nil {
		return err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	n, convErr := strconv.Atoi(line)
	if convErr != nil || n < 1 || n > len(candidates) {
		fmt.Fprintln(c.out, warningColor.Sprintf("Invalid choice %q", line))
		return nil
	}

	item := candidates[n-1]
	if err := c.engine.Restore(ctx, item); err != nil {
		fmt.Fprintln(c.out, errorColor.Sprintf("✗ %v", err))
		return nil
	}
	fmt.Fprintln(c.out, successColor.Sprintf("✓ Restored %s", item.Name))
	return nil
}

func (c *Controller) prune() error {
	doomed, err := c.engine.Backups().Prunable(backup.DefaultKeep)
	if err != nil {
		return err
	}
	if len(doomed) == 0 {
		fmt.Fprintln(c.out, warningColor.Sprintf("%d or fewer backups found, nothing to clean", backup.DefaultKeep))
		return nil
	}

	fmt.Fprintf(c.out, "Will delete %d old backups\n", len(doomed))
	ok, err := c.confirm("Proceed?")
	if err != nil || !ok {
		return err
	}

	deleted, err := c.engine.Backups().Prune(backup.DefaultKeep)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, successColor.Sprintf("Deleted %d old backups", len(deleted)))
	return nil
}

// startSpinner returns nil unless output goes to a file such as stdout.
func (c *Controller) startSpinner(suffix string) *spinner.Spinner {
	f, ok := c.out.(*os.File)
	if !ok {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(f))
	s.Suffix = suffix
	s.Start()
	return s
}

// confirm asks a yes/no question; anything but y or yes declines.
func (c *Controller) confirm(question string) (bool, error) {
	line, err := c.in.ReadLine(fmt.Sprintf("%s [y/N]: ", strings.TrimSpace(question)))
	if err != nil {
		return false, err
	}
	ans := strings.TrimSpace(strings.ToLower(line))
	return ans == "y" || ans == "yes", nil
}
