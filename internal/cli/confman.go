package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/danieljhkim/macsetup/internal/backup"
	"github.com/danieljhkim/macsetup/internal/config"
	"github.com/danieljhkim/macsetup/internal/deploy"
	"github.com/danieljhkim/macsetup/internal/menu"
	"github.com/danieljhkim/macsetup/internal/requirements"
)

type confmanOptions struct {
	list        bool
	check       bool
	prune       bool
	dryRun      bool
	jsonOutput  bool
	verbose     bool
	deploy      string
	category    string
	restore     string
	root        string
	catalogFile string
}

// confmanDeps are the pieces of the environment tests replace.
type confmanDeps struct {
	oracle     requirements.Oracle
	openReader func() (menu.LineReader, error)
}

// NewConfmanCommand returns the confman root command.
func NewConfmanCommand() *cobra.Command {
	return newConfmanCommand(confmanDeps{
		oracle: requirements.PathOracle{},
		openReader: func() (menu.LineReader, error) {
			r, err := menu.NewReadlineReader()
			if err != nil {
				return nil, err
			}
			return r, nil
		},
	})
}

func newConfmanCommand(deps confmanDeps) *cobra.Command {
	opts := &confmanOptions{}

	cmd := newRootCommand("confman", "Mac setup configuration manager",
		`confman deploys configuration files from the repository's configs/ tree
into their locations under your home directory.

Existing files are backed up to .config-backups/ before being overwritten.
Without flags an interactive menu is started.`)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		initLogging(cmd, opts.verbose)

		eng, err := newEngine(opts.root, opts.catalogFile, deps.oracle)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		switch {
		case opts.list:
			return runList(out, eng, opts.jsonOutput)
		case opts.deploy != "":
			return runDeployOne(ctx, out, eng, opts.deploy)
		case opts.category != "":
			return runDeployCategory(ctx, out, eng, opts.category)
		case opts.check:
			return runCheck(out, eng)
		case opts.restore != "":
			return runRestore(ctx, out, eng, opts.restore)
		case opts.prune:
			return runPrune(out, eng, opts.dryRun)
		default:
			return runMenu(ctx, out, eng, deps.openReader)
		}
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.list, "list", false, "List all configurations and their status")
	flags.StringVar(&opts.deploy, "deploy", "", "Deploy one configuration by name (case-insensitive)")
	flags.StringVar(&opts.category, "category", "", "Deploy every configuration in a category")
	flags.BoolVar(&opts.check, "check", false, "Check the tools required by every configuration")
	flags.StringVar(&opts.restore, "restore", "", "Restore a configuration from its latest recorded backup")
	flags.BoolVar(&opts.prune, "prune", false, fmt.Sprintf("Delete all but the %d most recent backups", backup.DefaultKeep))
	flags.BoolVar(&opts.dryRun, "dry-run", false, "With --prune, show what would be deleted")
	flags.BoolVar(&opts.jsonOutput, "json", false, "With --list, output JSON")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&opts.root, "root", "", fmt.Sprintf("Repository root (default $%s or the current directory)", config.RootEnvVar))
	flags.StringVar(&opts.catalogFile, "catalog", "", "YAML catalog replacing the built-in one")
	cmd.MarkFlagsMutuallyExclusive("list", "deploy", "category", "check", "restore", "prune")

	return cmd
}

// listEntry is the --list --json representation of an item.
type listEntry struct {
	Category    string   `json:"category"`
	Name        string   `json:"name"`
	Source      string   `json:"source"`
	Destination string   `json:"destination"`
	Description string   `json:"description,omitempty"`
	Requires    []string `json:"requires"`
	Installed   bool     `json:"installed"`
	Modified    bool     `json:"modified"`
	Backup      string   `json:"backup,omitempty"`
}

func runList(out io.Writer, eng *deploy.Engine, jsonOutput bool) error {
	reg := eng.Registry()

	if jsonOutput {
		entries := []listEntry{}
		for _, item := range reg.Items() {
			st := eng.Status(item)
			requires := item.Requires
			if requires == nil {
				requires = []string{}
			}
			entries = append(entries, listEntry{
				Category:    item.Category,
				Name:        item.Name,
				Source:      item.Source,
				Destination: item.Dest,
				Description: item.Description,
				Requires:    requires,
				Installed:   st.Installed,
				Modified:    st.Modified,
				Backup:      item.BackupPath(),
			})
		}
		return outputJSON(out, entries)
	}

	if len(reg.Items()) == 0 {
		printEmptyState(out, "No configurations found in "+reg.Paths().Configs)
		return nil
	}

	for _, cat := range reg.Categories() {
		if len(cat.Items) == 0 {
			continue
		}
		printSection(out, cat.Title())
		t := newTable(out)
		t.AppendHeader(table.Row{"", "Configuration", "Status", "Destination"})
		for _, item := range cat.Items {
			st := eng.Status(item)
			mark, status := failureMark(), dimColor.Sprint("Not installed")
			switch {
			case st.Modified:
				mark, status = successMark(), warningColor.Sprint("Modified")
			case st.Installed:
				mark, status = successMark(), successColor.Sprint("Installed")
			}
			t.AppendRow(table.Row{mark, item.Name, status, item.Dest})
		}
		t.Render()
	}
	return nil
}

func successMark() string { return successColor.Sprint("✓") }
func failureMark() string { return errorColor.Sprint("✗") }

func runDeployOne(ctx context.Context, out io.Writer, eng *deploy.Engine, name string) error {
	item, err := eng.Registry().Find(name)
	if err != nil {
		return err
	}

	if check := eng.CheckRequirements(item); !check.OK() {
		printFailure(out, "Missing requirements: "+strings.Join(check.Missing, ", "))
		printWarning(out, "Install with: "+requirements.InstallHint(check.Missing))
		return &exitError{code: 1}
	}

	res, err := eng.Deploy(ctx, item)
	if err != nil {
		printFailure(out, fmt.Sprintf("Failed to deploy %s: %v", item.Name, err))
		return &exitError{code: 1}
	}

	printSuccess(out, "Deployed "+item.Name)
	if res.BackupPath != "" {
		printLabelValue(out, "Backup", res.BackupPath)
	}
	return nil
}

func runDeployCategory(ctx context.Context, out io.Writer, eng *deploy.Engine, name string) error {
	cat, err := eng.Registry().Category(name)
	if err != nil {
		return err
	}
	if len(cat.Items) == 0 {
		printEmptyState(out, fmt.Sprintf("No configurations available in %s", name))
		return nil
	}

	result := eng.DeployBatch(ctx, cat.Items, nil)
	printOutcomes(out, result)

	printSection(out, "Summary")
	printLabelValue(out, "Deployed", pluralize(result.Succeeded, "configuration", "configurations"))
	if result.Failed > 0 {
		printLabelValue(out, "Failed", pluralize(result.Failed, "configuration", "configurations"))
		return &exitError{code: 1}
	}
	if result.Interrupted {
		return ctx.Err()
	}
	return nil
}

func printOutcomes(out io.Writer, result *deploy.BatchResult) {
	for _, o := range result.Outcomes {
		switch {
		case o.Succeeded():
			printSuccess(out, "Deployed "+o.Item.Name)
		case len(o.Missing) > 0:
			printFailure(out, fmt.Sprintf("%s - missing: %s", o.Item.Name, strings.Join(o.Missing, ", ")))
		default:
			printFailure(out, fmt.Sprintf("%s - %v", o.Item.Name, o.Err))
		}
	}
}

func runCheck(out io.Writer, eng *deploy.Engine) error {
	printSection(out, "Checking all requirements")

	allMissing := make(map[string]bool)
	for _, cat := range eng.Registry().Categories() {
		if len(cat.Items) == 0 {
			continue
		}
		_, _ = labelColor.Fprintf(out, "%s:\n", cat.Name)
		for _, item := range cat.Items {
			check := eng.CheckRequirements(item)
			if check.OK() {
				fmt.Fprintf(out, "  %s %s\n", successMark(), item.Name)
				continue
			}
			fmt.Fprintf(out, "  %s %s: %s\n", failureMark(), item.Name, strings.Join(check.Missing, ", "))
			for _, tool := range check.Missing {
				allMissing[tool] = true
			}
		}
	}

	if len(allMissing) > 0 {
		missing := make([]string, 0, len(allMissing))
		for tool := range allMissing {
			missing = append(missing, tool)
		}
		sort.Strings(missing)
		fmt.Fprintln(out)
		printWarning(out, "Install missing tools with:")
		printInfo(out, requirements.InstallHint(missing))
	}
	return nil
}

func runRestore(ctx context.Context, out io.Writer, eng *deploy.Engine, name string) error {
	item, err := eng.Registry().Find(name)
	if err != nil {
		return err
	}

	if err := eng.Restore(ctx, item); err != nil {
		if errors.Is(err, backup.ErrNoBackup) {
			printWarning(out, "No backup found for "+item.Name)
			return &exitError{code: 1}
		}
		return err
	}

	printSuccess(out, fmt.Sprintf("Restored %s from backup", item.Name))
	printLabelValue(out, "Backup", item.BackupPath())
	return nil
}

func runPrune(out io.Writer, eng *deploy.Engine, dryRun bool) error {
	store := eng.Backups()
	doomed, err := store.Prunable(backup.DefaultKeep)
	if err != nil {
		return err
	}

	if len(doomed) == 0 {
		printSection(out, "Prune Backups")
		printEmptyState(out, fmt.Sprintf("%d or fewer backups found, nothing to clean.", backup.DefaultKeep))
		return nil
	}

	names := make([]string, len(doomed))
	for i, e := range doomed {
		names[i] = e.Name
	}

	if dryRun {
		printSection(out, "Dry Run")
		printInfo(out, fmt.Sprintf("Would delete %s:", pluralize(len(doomed), "old backup", "old backups")))
		printList(out, names, 1)
		return nil
	}

	deleted, err := store.Prune(backup.DefaultKeep)
	if err != nil {
		return err
	}
	printSuccess(out, fmt.Sprintf("Deleted %s", pluralize(len(deleted), "old backup", "old backups")))
	return nil
}

func runMenu(ctx context.Context, out io.Writer, eng *deploy.Engine, open func() (menu.LineReader, error)) error {
	reader, err := open()
	if err != nil {
		return err
	}
	defer func() {
		_ = reader.Close()
	}()

	return menu.NewController(eng, reader, out).Run(ctx)
}
