package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/danieljhkim/macsetup/internal/logging"
)

// ErrNoPassword indicates no Neo4j password was configured.
var ErrNoPassword = errors.New("no neo4j password provided")

const toolsQuery = `MATCH (p:Project {id: $project})-[:HAS_CATEGORY]->(cat:Category)-[:CONTAINS]->(tool:Tool)
RETURN tool.tool_key AS key, tool.name AS name, tool.command AS command`

// Neo4jConfig holds connection settings.
type Neo4jConfig struct {
	URI      string
	User     string
	Password string

	// Database is optional; empty uses the server default
	Database string

	// ProjectID defaults to DefaultProjectID
	ProjectID string
}

// Neo4jSource reads tool records over Bolt.
type Neo4jSource struct {
	driver  neo4j.DriverWithContext
	config  Neo4jConfig
	project string
}

// NewNeo4jSource opens a driver and verifies the server is reachable.
func NewNeo4jSource(ctx context.Context, cfg Neo4jConfig) (*Neo4jSource, error) {
	if cfg.Password == "" {
		return nil, ErrNoPassword
	}
	project := cfg.ProjectID
	if project == "" {
		project = DefaultProjectID
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.URI, err)
	}

	logging.Debug("Graph", "connected to %s as %s", cfg.URI, cfg.User)
	return &Neo4jSource{driver: driver, config: cfg, project: project}, nil
}

// Tools runs the project tool query.
func (s *Neo4jSource) Tools(ctx context.Context) ([]Record, error) {
	opts := []neo4j.ExecuteQueryConfigurationOption{neo4j.ExecuteQueryWithReadersRouting()}
	if s.config.Database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(s.config.Database))
	}

	result, err := neo4j.ExecuteQuery(ctx, s.driver, toolsQuery,
		map[string]any{"project": s.project},
		neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tools: %w", err)
	}

	records, err := fromNeo4j(result.Records)
	if err != nil {
		return nil, err
	}
	logging.Debug("Graph", "project %s has %d tools", s.project, len(records))
	return records, nil
}

// Close releases the driver.
func (s *Neo4jSource) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func fromNeo4j(rows []*neo4j.Record) ([]Record, error) {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		var rec Record
		var err error
		if rec.Key, err = stringValue(row, "key"); err != nil {
			return nil, err
		}
		if rec.Name, err = stringValue(row, "name"); err != nil {
			return nil, err
		}
		if rec.Command, err = stringValue(row, "command"); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// stringValue reads a string column, treating null as "".
func stringValue(row *neo4j.Record, key string) (string, error) {
	val, _, err := neo4j.GetRecordValue[string](row, key)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return val, nil
}
