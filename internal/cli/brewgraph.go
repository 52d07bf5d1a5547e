package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/danieljhkim/macsetup/internal/diff"
	"github.com/danieljhkim/macsetup/internal/graph"
	"github.com/danieljhkim/macsetup/internal/manifest"
)

// PasswordEnvVar supplies the Neo4j password when --neo4j-password is unset.
const PasswordEnvVar = "NEO4J_PASSWORD"

type brewgraphOptions struct {
	brewfile  string
	uri       string
	user      string
	password  string
	database  string
	skipGraph bool
	verbose   bool
}

// sourceOpener connects to the graph. The returned func releases it.
type sourceOpener func(ctx context.Context, cfg graph.Neo4jConfig) (graph.Source, func(), error)

// NewBrewgraphCommand returns the brewgraph root command.
func NewBrewgraphCommand() *cobra.Command {
	return newBrewgraphCommand(openNeo4j)
}

func openNeo4j(ctx context.Context, cfg graph.Neo4jConfig) (graph.Source, func(), error) {
	src, err := graph.NewNeo4jSource(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return src, func() {
		_ = src.Close(context.Background())
	}, nil
}

func newBrewgraphCommand(open sourceOpener) *cobra.Command {
	opts := &brewgraphOptions{}

	cmd := newRootCommand("brewgraph", "Validate a Brewfile against the knowledge graph",
		`brewgraph compares the packages in a Brewfile with the tools recorded in the
Neo4j knowledge graph for project `+graph.DefaultProjectID+`.

It exits with status 1 when either side has packages the other lacks or when
the graph cannot be queried.`)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		initLogging(cmd, opts.verbose)
		if opts.password == "" {
			opts.password = os.Getenv(PasswordEnvVar)
		}
		return runBrewgraph(cmd.Context(), cmd.OutOrStdout(), opts, open)
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.brewfile, "brewfile", "Brewfile", "Path to Brewfile")
	flags.StringVar(&opts.uri, "neo4j-uri", "bolt://localhost:7687", "Neo4j URI")
	flags.StringVar(&opts.user, "neo4j-user", "neo4j", "Neo4j username")
	flags.StringVar(&opts.password, "neo4j-password", "", fmt.Sprintf("Neo4j password (or set %s)", PasswordEnvVar))
	flags.StringVar(&opts.database, "neo4j-database", "", "Neo4j database (default: server default)")
	flags.BoolVar(&opts.skipGraph, "skip-graph", false, "Skip knowledge graph validation")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func runBrewgraph(ctx context.Context, out io.Writer, opts *brewgraphOptions, open sourceOpener) error {
	printInfo(out, "Parsing Brewfile at: "+opts.brewfile)
	m, err := manifest.ParseFile(opts.brewfile)
	if err != nil {
		return err
	}
	names := m.Names()
	printInfo(out, fmt.Sprintf("Found %d tools in Brewfile", len(names)))

	if opts.skipGraph || opts.password == "" {
		fmt.Fprintln(out)
		if opts.skipGraph {
			printWarning(out, "Skipping knowledge graph validation (--skip-graph specified)")
		} else {
			printWarning(out, "Skipping knowledge graph validation (no password provided)")
			printInfo(out, fmt.Sprintf("Set %s environment variable or use --neo4j-password", PasswordEnvVar))
		}

		printSection(out, "Brewfile Summary")
		printLabelValue(out, "Formulas", fmt.Sprint(len(m.Formulas)))
		printLabelValue(out, "Casks", fmt.Sprint(len(m.Casks)))
		printLabelValue(out, "Total", fmt.Sprint(len(names)))
		return nil
	}

	printInfo(out, "\nConnecting to Neo4j knowledge graph...")
	packages, err := fetchPackages(ctx, out, opts, open)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		printFailure(out, fmt.Sprintf("Error validating knowledge graph: %v", err))
		return &exitError{code: 1}
	}
	printInfo(out, fmt.Sprintf("Found %d tools in knowledge graph", len(packages)))

	report := diff.Compare(names, packages)
	report.Render(out)
	if report.HasMismatches() {
		return &exitError{code: 1}
	}
	return nil
}

func fetchPackages(ctx context.Context, out io.Writer, opts *brewgraphOptions, open sourceOpener) (map[string]string, error) {
	s := startSpinner(out, " Querying "+opts.uri+"...")
	if s != nil {
		defer s.Stop()
	}

	src, release, err := open(ctx, graph.Neo4jConfig{
		URI:       opts.uri,
		User:      opts.user,
		Password:  opts.password,
		Database:  opts.database,
		ProjectID: graph.DefaultProjectID,
	})
	if err != nil {
		return nil, err
	}
	defer release()

	records, err := src.Tools(ctx)
	if err != nil {
		return nil, err
	}
	return graph.PackageMap(records), nil
}

// startSpinner returns nil unless out is a file such as stdout.
func startSpinner(out io.Writer, suffix string) *spinner.Spinner {
	f, ok := out.(*os.File)
	if !ok {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(f))
	s.Suffix = suffix
	s.Start()
	return s
}
