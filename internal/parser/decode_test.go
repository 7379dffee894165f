// Package parser provides utilities for parsing and transforming input data.
// It handles data normalization, validation, and conversion between formats.
package parser

import (
	"errors"
	"testing"

	"github.com/schemascope/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGraph_Bare(t *testing.T) {
	input := []byte(`{
		"nodes": [
			{"id": "t1", "label": "EMPLOYEES", "type": "table", "metadata": {"owner": "HR"}}
		],
		"edges": []
	}`)

	graph, err := ParseGraph(input)

	require.NoError(t, err)
	assert.Len(t, graph.Nodes, 1)
	assert.Equal(t, models.NodeTable, graph.Nodes[0].Type)
	assert.NotNil(t, graph.Edges)
}

func TestParseGraph_Envelope(t *testing.T) {
	input := []byte(`{
		"success": true,
		"message": "Graph generated",
		"data": {
			"nodes": [{"id": "s1", "label": "HR", "type": "schema", "metadata": {}}]
		}
	}`)

	graph, err := ParseGraph(input)

	require.NoError(t, err)
	assert.Len(t, graph.Nodes, 1)
	assert.NotNil(t, graph.Edges)
}

func TestParseGraph_FailedEnvelope(t *testing.T) {
	input := []byte(`{"success": false, "message": "discovery failed", "errorCode": "DISCOVERY_ERROR", "data": null}`)

	_, err := ParseGraph(input)

	var apiErr *models.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "discovery failed", apiErr.Message)
}

func TestParseGraph_EnvelopeWithoutData(t *testing.T) {
	_, err := ParseGraph([]byte(`{"success": true, "message": "ok"}`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing data field")
}

func TestParseGraph_Empty(t *testing.T) {
	_, err := ParseGraph([]byte{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty graph data")
}

func TestParseGraph_InvalidJSON(t *testing.T) {
	_, err := ParseGraph([]byte(`{invalid json`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal")
}

func TestParseGraph_MissingFields(t *testing.T) {
	_, err := ParseGraph([]byte(`{"vertices": []}`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing nodes and edges")
}

func TestParseEnvelope(t *testing.T) {
	t.Run("unwraps data", func(t *testing.T) {
		result, err := ParseEnvelope[models.ConnectionTestResult]([]byte(`{
			"success": true,
			"message": "ok",
			"data": {"connectionValid": true, "connectionId": "c1", "testedAt": "2024-01-01T00:00:00Z"}
		}`))

		require.NoError(t, err)
		assert.True(t, result.ConnectionValid)
		assert.Equal(t, "c1", result.ConnectionID)
	})

	t.Run("reports failure", func(t *testing.T) {
		_, err := ParseEnvelope[[]models.Connection]([]byte(`{"success":false,"message":"boom","data":null}`))
		assert.EqualError(t, err, "boom")
	})

	t.Run("rejects empty body", func(t *testing.T) {
		_, err := ParseEnvelope[any](nil)
		assert.Error(t, err)
	})
}
