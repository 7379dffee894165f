// Package interaction maps engine tap and selection events back to graph
// records and keeps the single-selection state.
package interaction

import (
	"math/rand/v2"
	"testing"

	"github.com/schemascope/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graph() models.GraphData {
	return models.GraphData{
		Nodes: []models.GraphNode{
			{ID: "s1", Label: "HR", Type: models.NodeSchema},
			{ID: "t1", Label: "EMPLOYEES", Type: models.NodeTable},
			{ID: "c1", Label: "EMPLOYEE_ID", Type: models.NodeColumn},
		},
		Edges: []models.GraphEdge{
			{ID: "e1", Source: "s1", Target: "t1", Type: models.EdgeContains},
			{ID: "e2", Source: "t1", Target: "c1", Type: models.EdgeContains},
		},
	}
}

func nodeRef(id string) models.ElementRef { return models.ElementRef{Kind: models.KindNode, ID: id} }
func edgeRef(id string) models.ElementRef { return models.ElementRef{Kind: models.KindEdge, ID: id} }

type recorder struct {
	nodes      []string
	edges      []string
	selections []Selection
	details    []string
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnNodeTapped:       func(n models.GraphNode) { r.nodes = append(r.nodes, n.ID) },
		OnEdgeTapped:       func(e models.GraphEdge) { r.edges = append(r.edges, e.ID) },
		OnSelectionChanged: func(s Selection) { r.selections = append(r.selections, s) },
		OnDetailOpen:       func(e Entity) { r.details = append(r.details, e.ID()) },
	}
}

func TestController_Tap(t *testing.T) {
	t.Run("node tap resolves and opens detail", func(t *testing.T) {
		rec := &recorder{}
		c := NewController(graph(), rec.callbacks())

		ent, ok := c.OnElementTapped(nodeRef("t1"))

		require.True(t, ok)
		assert.Equal(t, "EMPLOYEES", ent.Node.Label)
		assert.Equal(t, []string{"t1"}, rec.nodes)
		assert.Equal(t, []string{"t1"}, rec.details)
		require.Len(t, rec.selections, 1)
		assert.Equal(t, "t1", rec.selections[0].Node.ID)
		detail, open := c.Detail()
		require.True(t, open)
		assert.Equal(t, "t1", detail.ID())
	})

	t.Run("edge tap clears node selection", func(t *testing.T) {
		rec := &recorder{}
		c := NewController(graph(), rec.callbacks())
		c.OnElementTapped(nodeRef("t1"))

		c.OnElementTapped(edgeRef("e1"))

		sel := c.Selection()
		assert.Nil(t, sel.Node)
		require.NotNil(t, sel.Edge)
		assert.Equal(t, "e1", sel.Edge.ID)
		assert.Equal(t, []string{"e1"}, rec.edges)
	})

	t.Run("stale ref changes nothing", func(t *testing.T) {
		rec := &recorder{}
		c := NewController(graph(), rec.callbacks())
		c.OnElementTapped(nodeRef("t1"))
		before := *rec

		_, ok := c.OnElementTapped(nodeRef("gone"))
		_, okEdge := c.OnElementTapped(models.ElementRef{Kind: models.KindNode, ID: "e1"})

		assert.False(t, ok)
		assert.False(t, okEdge)
		assert.Equal(t, before, *rec)
		assert.Equal(t, "t1", c.Selection().Node.ID)
	})

	t.Run("same tap twice reports selection once", func(t *testing.T) {
		rec := &recorder{}
		c := NewController(graph(), rec.callbacks())

		c.OnElementTapped(nodeRef("t1"))
		c.OnElementTapped(nodeRef("t1"))

		assert.Len(t, rec.nodes, 2)
		assert.Len(t, rec.selections, 1)
	})

	t.Run("nil callbacks are allowed", func(t *testing.T) {
		c := NewController(graph(), Callbacks{})
		assert.NotPanics(t, func() {
			c.OnElementTapped(nodeRef("t1"))
			c.OnSelectionChanged([]models.ElementRef{edgeRef("e1")})
			c.Clear()
		})
	})
}

func TestController_MutualExclusion(t *testing.T) {
	c := NewController(graph(), Callbacks{})
	refs := []models.ElementRef{
		nodeRef("s1"), nodeRef("t1"), nodeRef("c1"), edgeRef("e1"), edgeRef("e2"), nodeRef("ghost"),
	}
	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 500; i++ {
		ref := refs[rng.IntN(len(refs))]
		c.OnElementTapped(ref)

		sel := c.Selection()
		assert.False(t, sel.Node != nil && sel.Edge != nil, "step %d", i)
		if ref.ID == "ghost" {
			continue
		}
		if ref.Kind == models.KindNode {
			assert.Nil(t, sel.Edge)
			assert.Equal(t, ref.ID, sel.Node.ID)
		} else {
			assert.Nil(t, sel.Node)
			assert.Equal(t, ref.ID, sel.Edge.ID)
		}
	}
}

func TestController_SelectionChanged(t *testing.T) {
	t.Run("node branch wins when both are selected", func(t *testing.T) {
		c := NewController(graph(), Callbacks{})

		sel := c.OnSelectionChanged([]models.ElementRef{edgeRef("e1"), nodeRef("c1"), nodeRef("t1")})

		require.NotNil(t, sel.Node)
		assert.Equal(t, "c1", sel.Node.ID)
		assert.Nil(t, sel.Edge)
	})

	t.Run("edges only", func(t *testing.T) {
		c := NewController(graph(), Callbacks{})

		sel := c.OnSelectionChanged([]models.ElementRef{edgeRef("e2"), edgeRef("e1")})

		assert.Nil(t, sel.Node)
		assert.Equal(t, "e2", sel.Edge.ID)
	})

	t.Run("stale refs are skipped", func(t *testing.T) {
		c := NewController(graph(), Callbacks{})

		sel := c.OnSelectionChanged([]models.ElementRef{nodeRef("gone"), edgeRef("e1")})

		assert.Nil(t, sel.Node)
		assert.Equal(t, "e1", sel.Edge.ID)
	})

	t.Run("empty set clears", func(t *testing.T) {
		rec := &recorder{}
		c := NewController(graph(), rec.callbacks())
		c.OnSelectionChanged([]models.ElementRef{nodeRef("t1")})

		sel := c.OnSelectionChanged(nil)

		assert.True(t, sel.Empty())
		assert.Len(t, rec.selections, 2)
	})

	t.Run("reduce is pure", func(t *testing.T) {
		rec := &recorder{}
		c := NewController(graph(), rec.callbacks())

		sel := c.Reduce([]models.ElementRef{nodeRef("t1")})

		assert.Equal(t, "t1", sel.Node.ID)
		assert.True(t, c.Selection().Empty())
		assert.Empty(t, rec.selections)
	})
}

func TestController_ClearAndSetData(t *testing.T) {
	t.Run("clear closes detail", func(t *testing.T) {
		rec := &recorder{}
		c := NewController(graph(), rec.callbacks())
		c.OnElementTapped(nodeRef("t1"))

		c.Clear()

		_, open := c.Detail()
		assert.False(t, open)
		assert.True(t, c.Selection().Empty())
		assert.True(t, rec.selections[len(rec.selections)-1].Empty())
	})

	t.Run("new data resets state and resolution", func(t *testing.T) {
		c := NewController(graph(), Callbacks{})
		c.OnElementTapped(nodeRef("t1"))

		c.SetData(models.GraphData{Nodes: []models.GraphNode{{ID: "x", Type: models.NodeTable}}})

		assert.True(t, c.Selection().Empty())
		_, ok := c.Resolve(nodeRef("t1"))
		assert.False(t, ok)
		_, ok = c.Resolve(nodeRef("x"))
		assert.True(t, ok)
	})
}
