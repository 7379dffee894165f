// Package detail projects a selected node or edge into categorized,
// human-readable property groups for the detail panel.
package detail

import (
	"encoding/json"
	"testing"

	"github.com/schemascope/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func names(cats []Category) []string {
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, c.Name)
	}
	return out
}

func TestCategorize(t *testing.T) {
	t.Run("mixed metadata", func(t *testing.T) {
		cats := Categorize(map[string]any{"owner": "HR", "dataType": "NUMBER", "randomKey": "x"})

		require.Equal(t, []string{"Database Info", "Schema Info", "Other"}, names(cats))
		owner, ok := cats[0].Get("owner")
		require.True(t, ok)
		assert.Equal(t, "HR", owner.Value)
		assert.Len(t, cats[0].Properties, 1)
		assert.Equal(t, "dataType", cats[1].Properties[0].Key)
		assert.Equal(t, "randomKey", cats[2].Properties[0].Key)
	})

	t.Run("single key yields one category", func(t *testing.T) {
		cats := Categorize(map[string]any{"owner": "HR"})
		assert.Equal(t, []string{"Database Info"}, names(cats))
	})

	t.Run("empty metadata yields nothing", func(t *testing.T) {
		assert.Empty(t, Categorize(nil))
	})

	t.Run("first bucket wins", func(t *testing.T) {
		// "schemaName" contains both "name" and "schema"; Basic Info is checked first.
		assert.Equal(t, "Basic Info", CategoryFor("schemaName"))
		assert.Equal(t, "Basic Info", CategoryFor("columnType"))
	})

	t.Run("a key equal to a keyword goes to that keyword's bucket", func(t *testing.T) {
		// "datatype" also contains "type" but names the Schema Info keyword exactly.
		assert.Equal(t, "Schema Info", CategoryFor("dataType"))
		assert.Equal(t, "Performance", CategoryFor("SIZE"))
	})

	t.Run("substring keywords", func(t *testing.T) {
		assert.Equal(t, "Database Info", CategoryFor("TABLESPACE"))
		assert.Equal(t, "Schema Info", CategoryFor("nullable"))
		assert.Equal(t, "Performance", CategoryFor("numRows"))
		assert.Equal(t, "Performance", CategoryFor("avgRowLen"))
		assert.Equal(t, "Security", CategoryFor("grantee"))
		assert.Equal(t, OtherCategory, CategoryFor("comments"))
	})

	t.Run("properties are sorted by key", func(t *testing.T) {
		cats := Categorize(map[string]any{"scale": 2, "precision": 10, "length": 22})

		require.Len(t, cats, 1)
		assert.Equal(t, "length", cats[0].Properties[0].Key)
		assert.Equal(t, "precision", cats[0].Properties[1].Key)
		assert.Equal(t, "scale", cats[0].Properties[2].Key)
	})

	t.Run("display text is formatted", func(t *testing.T) {
		cats := Categorize(map[string]any{"numRows": 1234567, "nullable": false})

		rows, _ := cats[1].Get("numRows")
		nullable, _ := cats[0].Get("nullable")
		assert.Equal(t, "1,234,567", rows.Display)
		assert.Equal(t, "No", nullable.Display)
	})
}

func TestFormatMetadataValue(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Equal(t, "N/A", FormatMetadataValue("x", nil))
	})

	t.Run("booleans", func(t *testing.T) {
		assert.Equal(t, "Yes", FormatMetadataValue("x", true))
		assert.Equal(t, "No", FormatMetadataValue("x", false))
	})

	t.Run("numbers use grouping", func(t *testing.T) {
		assert.Equal(t, "1,234,567", FormatMetadataValue("x", 1234567))
		assert.Equal(t, "1,234,567", FormatMetadataValue("x", float64(1234567)))
		assert.Equal(t, "42", FormatMetadataValue("x", int64(42)))
		assert.Equal(t, "1,234,567", FormatMetadataValue("x", json.Number("1234567")))
	})

	t.Run("strings are unchanged", func(t *testing.T) {
		assert.Equal(t, "VARCHAR2", FormatMetadataValue("x", "VARCHAR2"))
		assert.Equal(t, "", FormatMetadataValue("x", ""))
	})

	t.Run("structured values become indented json", func(t *testing.T) {
		out := FormatMetadataValue("x", map[string]any{"a": 1})
		assert.Equal(t, "{\n  \"a\": 1\n}", out)

		list := FormatMetadataValue("x", []any{"PK", "FK"})
		assert.Equal(t, "[\n  \"PK\",\n  \"FK\"\n]", list)
	})

	t.Run("language is configurable", func(t *testing.T) {
		de := NewFormatter(language.German)
		assert.Equal(t, "1.234.567", de.Format("x", 1234567))
	})

	t.Run("unknown language falls back to english", func(t *testing.T) {
		assert.Equal(t, language.English, ParseLanguage("not a tag!"))
	})
}

func TestProjectNode(t *testing.T) {
	t.Run("type is always in basic info", func(t *testing.T) {
		d := ProjectNode(models.GraphNode{
			ID: "t1", Label: "EMPLOYEES", Type: models.NodeTable,
			Metadata: map[string]any{"owner": "HR", "numRows": 107},
		})

		basic, ok := d.Category("Basic Info")
		require.True(t, ok)
		typ, ok := basic.Get("type")
		require.True(t, ok)
		assert.Equal(t, "table", typ.Display)
		assert.Equal(t, "table", d.Type)
		assert.Equal(t, models.KindNode, d.Kind)
	})

	t.Run("metadata type wins over the element type", func(t *testing.T) {
		d := ProjectNode(models.GraphNode{ID: "t", Type: models.NodeTable, Metadata: map[string]any{"type": "IOT"}})

		basic, _ := d.Category("Basic Info")
		typ, _ := basic.Get("type")
		assert.Equal(t, "IOT", typ.Display)
	})

	t.Run("key properties", func(t *testing.T) {
		d := ProjectNode(models.GraphNode{
			ID: "c1", Label: "SALARY", Type: models.NodeColumn,
			Metadata: map[string]any{"owner": "HR", "tableName": "EMPLOYEES", "dataType": "NUMBER"},
		})

		assert.Equal(t, []KeyProperty{
			{Label: "Type", Value: "column"},
			{Label: "Owner", Value: "HR"},
			{Label: "Table", Value: "EMPLOYEES"},
			{Label: "Data Type", Value: "NUMBER"},
		}, d.KeyProperties)
	})

	t.Run("description and full name", func(t *testing.T) {
		d := ProjectNode(models.GraphNode{
			ID: "t", Label: "EMPLOYEES", Type: models.NodeTable,
			Metadata: map[string]any{"description": "Staff", "fullName": "HR.EMPLOYEES"},
		})
		same := ProjectNode(models.GraphNode{
			ID: "t", Label: "HR.EMPLOYEES", Type: models.NodeTable,
			Metadata: map[string]any{"fullName": "HR.EMPLOYEES"},
		})

		assert.Equal(t, "Staff", d.Description)
		assert.Equal(t, "HR.EMPLOYEES", d.FullName)
		assert.Empty(t, same.FullName)
	})

	t.Run("raw view", func(t *testing.T) {
		d := ProjectNode(models.GraphNode{ID: "t", Label: "T", Type: models.NodeTable})

		var doc map[string]any
		require.NoError(t, json.Unmarshal([]byte(d.Raw), &doc))
		assert.Equal(t, "t", doc["id"])
		assert.Equal(t, map[string]any{}, doc["metadata"])
		assert.NotContains(t, doc, "source")
	})
}

func TestProjectEdge(t *testing.T) {
	d := ProjectEdge(models.GraphEdge{
		ID: "fk1", Source: "t1", Target: "t2", Type: models.EdgeForeignKey,
		Metadata: map[string]any{"constraintName": "EMP_DEPT_FK"},
	})

	assert.Equal(t, models.KindEdge, d.Kind)
	assert.Equal(t, []KeyProperty{
		{Label: "Edge Type", Value: "foreign_key"},
		{Label: "Source", Value: "t1"},
		{Label: "Target", Value: "t2"},
	}, d.KeyProperties)
	assert.Contains(t, d.Raw, `"source": "t1"`)
	basic, ok := d.Category("Basic Info")
	require.True(t, ok)
	assert.Len(t, basic.Properties, 2)
}
