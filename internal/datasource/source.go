// Package datasource provides the graphs a viewer session loads.
// Sources are injected; a missing graph is reported as ErrNoData.
package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/schemascope/core/internal/models"
)

// ErrNoData means the source has no graph for the connection. Callers show
// an empty graph instead of substituting sample data.
var ErrNoData = errors.New("no graph data for connection")

type Source interface {
	Fetch(ctx context.Context, connectionID string) (models.GraphData, error)
}

// GraphClient is the part of the upstream client Remote needs.
type GraphClient interface {
	GetConnection(ctx context.Context, id string) (models.Connection, error)
	SchemaGraph(ctx context.Context, cfg models.ConnectionConfig, q models.GraphQuery) (models.GraphData, error)
}

// PasswordFunc supplies the database password for a connection.
type PasswordFunc func(connectionID string) string

// Remote fetches schema graphs from the discovery service.
type Remote struct {
	client   GraphClient
	query    models.GraphQuery
	password PasswordFunc
}

func NewRemote(client GraphClient, query models.GraphQuery, password PasswordFunc) *Remote {
	if password == nil {
		password = func(string) string { return "" }
	}
	return &Remote{client: client, query: query, password: password}
}

func (r *Remote) Fetch(ctx context.Context, connectionID string) (models.GraphData, error) {
	conn, err := r.client.GetConnection(ctx, connectionID)
	if err != nil {
		return models.GraphData{}, fmt.Errorf("failed to look up connection %s: %w", connectionID, err)
	}

	graph, err := r.client.SchemaGraph(ctx, models.ConfigFor(conn, r.password(connectionID)), r.query)
	if err != nil {
		return models.GraphData{}, fmt.Errorf("failed to fetch graph for %s: %w", connectionID, err)
	}
	if len(graph.Nodes) == 0 {
		return models.GraphData{}, fmt.Errorf("connection %s: %w", connectionID, ErrNoData)
	}
	return graph, nil
}

// Static serves graphs held in memory.
type Static struct {
	graphs   map[string]models.GraphData
	fallback *models.GraphData
}

func NewStatic(graphs map[string]models.GraphData) *Static {
	if graphs == nil {
		graphs = map[string]models.GraphData{}
	}
	return &Static{graphs: graphs}
}

// WithFallback serves g for connections without their own graph.
func (s *Static) WithFallback(g models.GraphData) *Static {
	s.fallback = &g
	return s
}

func (s *Static) Fetch(ctx context.Context, connectionID string) (models.GraphData, error) {
	if err := ctx.Err(); err != nil {
		return models.GraphData{}, err
	}
	if g, ok := s.graphs[connectionID]; ok {
		return g, nil
	}
	if s.fallback != nil {
		return *s.fallback, nil
	}
	return models.GraphData{}, fmt.Errorf("connection %s: %w", connectionID, ErrNoData)
}

// SampleGraph is a small HR schema used by the static source when it is
// configured to serve sample data.
func SampleGraph() models.GraphData {
	return models.GraphData{
		Nodes: []models.GraphNode{
			{ID: "schema-1", Label: "HR Schema", Type: models.NodeSchema,
				Metadata: map[string]any{"connectionId": "sample", "type": "Oracle Schema"}},
			{ID: "table-1", Label: "EMPLOYEES", Type: models.NodeTable,
				Metadata: map[string]any{"owner": "HR", "tableName": "EMPLOYEES", "type": "Oracle Table"}},
			{ID: "column-1", Label: "EMPLOYEE_ID", Type: models.NodeColumn,
				Metadata: map[string]any{"owner": "HR", "tableName": "EMPLOYEES", "columnName": "EMPLOYEE_ID", "dataType": "NUMBER"}},
			{ID: "column-2", Label: "FIRST_NAME", Type: models.NodeColumn,
				Metadata: map[string]any{"owner": "HR", "tableName": "EMPLOYEES", "columnName": "FIRST_NAME", "dataType": "VARCHAR2"}},
		},
		Edges: []models.GraphEdge{
			{ID: "edge-1", Source: "schema-1", Target: "table-1", Type: models.EdgeContains,
				Metadata: map[string]any{"relationship": "schema contains table"}},
			{ID: "edge-2", Source: "table-1", Target: "column-1", Type: models.EdgeContains,
				Metadata: map[string]any{"relationship": "table contains column"}},
			{ID: "edge-3", Source: "table-1", Target: "column-2", Type: models.EdgeContains,
				Metadata: map[string]any{"relationship": "table contains column"}},
		},
	}
}
