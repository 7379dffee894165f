// Package detail projects a selected node or edge into categorized,
// human-readable property groups for the detail panel.
package detail

import (
	"slices"
	"strings"
)

const OtherCategory = "Other"

// buckets are checked in order. A lower-cased key equal to a keyword goes to
// that keyword's bucket; otherwise it lands in the first bucket with a keyword
// contained in the key.
var buckets = []struct {
	name     string
	keywords []string
}{
	{"Basic Info", []string{"id", "name", "label", "type", "fullname"}},
	{"Database Info", []string{"owner", "schema", "database", "tablespace"}},
	{"Schema Info", []string{"datatype", "length", "precision", "scale", "nullable"}},
	{"Performance", []string{"rows", "blocks", "size", "avgrowlen"}},
	{"Security", []string{"privilege", "grant", "security"}},
}

type Property struct {
	Key     string `json:"key"`
	Value   any    `json:"value"`
	Display string `json:"display"`
}

type Category struct {
	Name       string     `json:"name"`
	Properties []Property `json:"properties"`
}

// Get returns the property with key.
func (c Category) Get(key string) (Property, bool) {
	for _, p := range c.Properties {
		if p.Key == key {
			return p, true
		}
	}
	return Property{}, false
}

// CategoryFor names the bucket metadata key belongs to.
func CategoryFor(key string) string {
	lower := strings.ToLower(key)
	for _, b := range buckets {
		if slices.Contains(b.keywords, lower) {
			return b.name
		}
	}
	for _, b := range buckets {
		for _, kw := range b.keywords {
			if strings.Contains(lower, kw) {
				return b.name
			}
		}
	}
	return OtherCategory
}

// Categorize groups metadata in fixed bucket order with English formatting.
func Categorize(metadata map[string]any) []Category {
	return defaultFormatter.Categorize(metadata)
}

// Categorize groups metadata into the fixed buckets. Empty buckets are
// omitted and properties are sorted by key.
func (f *Formatter) Categorize(metadata map[string]any) []Category {
	grouped := make(map[string][]Property)
	for key, value := range metadata {
		name := CategoryFor(key)
		grouped[name] = append(grouped[name], Property{Key: key, Value: value, Display: f.Format(key, value)})
	}

	order := make([]string, 0, len(buckets)+1)
	for _, b := range buckets {
		order = append(order, b.name)
	}
	order = append(order, OtherCategory)

	out := []Category{}
	for _, name := range order {
		props := grouped[name]
		if len(props) == 0 {
			continue
		}
		slices.SortFunc(props, func(a, b Property) int { return strings.Compare(a.Key, b.Key) })
		out = append(out, Category{Name: name, Properties: props})
	}
	return out
}
