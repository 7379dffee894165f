// Package detail projects a selected node or edge into categorized,
// human-readable property groups for the detail panel.
package detail

import (
	"encoding/json"
	"maps"

	"github.com/schemascope/core/internal/models"
)

type KeyProperty struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Detail is everything the detail panel shows for one element.
type Detail struct {
	Kind          models.ElementKind `json:"kind"`
	ID            string             `json:"id"`
	Label         string             `json:"label"`
	Type          string             `json:"type"`
	Description   string             `json:"description,omitempty"`
	FullName      string             `json:"fullName,omitempty"`
	KeyProperties []KeyProperty      `json:"keyProperties"`
	Categories    []Category         `json:"categories"`
	Raw           string             `json:"raw"`
}

// Category returns the named category.
func (d Detail) Category(name string) (Category, bool) {
	for _, c := range d.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

type rawItem struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Type     string         `json:"type"`
	Metadata map[string]any `json:"metadata"`
	Source   string         `json:"source,omitempty"`
	Target   string         `json:"target,omitempty"`
}

func ProjectNode(n models.GraphNode) Detail { return defaultFormatter.ProjectNode(n) }

func ProjectEdge(e models.GraphEdge) Detail { return defaultFormatter.ProjectEdge(e) }

func (f *Formatter) ProjectNode(n models.GraphNode) Detail {
	d := f.base(models.KindNode, n.ID, n.Label, string(n.Type), n.Metadata)
	d.KeyProperties = []KeyProperty{{Label: "Type", Value: string(n.Type)}}
	for _, kp := range []struct{ label, key string }{
		{"Owner", "owner"},
		{"Table", "tableName"},
		{"Data Type", "dataType"},
	} {
		if v, ok := n.Metadata[kp.key]; ok && present(v) {
			d.KeyProperties = append(d.KeyProperties, KeyProperty{Label: kp.label, Value: f.Format(kp.key, v)})
		}
	}
	d.Raw = raw(rawItem{ID: n.ID, Label: n.Label, Type: string(n.Type), Metadata: n.Metadata})
	return d
}

func (f *Formatter) ProjectEdge(e models.GraphEdge) Detail {
	d := f.base(models.KindEdge, e.ID, e.Label, string(e.Type), e.Metadata)
	d.KeyProperties = []KeyProperty{
		{Label: "Edge Type", Value: string(e.Type)},
		{Label: "Source", Value: e.Source},
		{Label: "Target", Value: e.Target},
	}
	d.Raw = raw(rawItem{
		ID: e.ID, Label: e.Label, Type: string(e.Type), Metadata: e.Metadata,
		Source: e.Source, Target: e.Target,
	})
	return d
}

// base categorizes the metadata together with the element's own type, which
// always lands in Basic Info unless the metadata carries its own "type".
func (f *Formatter) base(kind models.ElementKind, id, label, typ string, metadata map[string]any) Detail {
	bag := make(map[string]any, len(metadata)+1)
	maps.Copy(bag, metadata)
	if _, ok := bag["type"]; !ok {
		bag["type"] = typ
	}

	d := Detail{
		Kind:       kind,
		ID:         id,
		Label:      label,
		Type:       typ,
		Categories: f.Categorize(bag),
	}
	if desc, ok := metadata["description"].(string); ok {
		d.Description = desc
	}
	if full, ok := metadata["fullName"].(string); ok && full != label {
		d.FullName = full
	}
	return d
}

// present mirrors a truthiness check: nil, false, "" and 0 are absent.
func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case int:
		return x != 0
	}
	return true
}

func raw(item rawItem) string {
	if item.Metadata == nil {
		item.Metadata = map[string]any{}
	}
	out, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return ""
	}
	return string(out)
}
