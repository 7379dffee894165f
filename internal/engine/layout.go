// Package engine is the headless render engine behind the render adapter.
// It keeps element state, runs the force-directed layout and publishes frames.
package engine

import (
	"context"

	"gonum.org/v1/gonum/graph/layout"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/schemascope/core/internal/models"
	"github.com/schemascope/core/internal/render"
)

// layoutScale converts Eades model units to canvas pixels.
const layoutScale = 120.0

// frameEvery is how many optimizer steps pass between animation frames.
const frameEvery = 10

// eadesLayout positions nodes with gonum's Eades force-directed optimizer.
// With animation on, intermediate positions are passed to progress. It
// returns false when ctx was cancelled first.
func eadesLayout(
	ctx context.Context,
	nodes, edges []models.Element,
	cfg render.LayoutConfig,
	progress func(map[string]models.Position),
) (map[string]models.Position, bool) {
	g := simple.NewUndirectedGraph()
	ids := make(map[string]int64, len(nodes))
	for i, n := range nodes {
		id := int64(i)
		ids[n.Data.ID] = id
		g.AddNode(simple.Node(id))
	}
	for _, e := range edges {
		from, okFrom := ids[e.Data.Source]
		to, okTo := ids[e.Data.Target]
		// simple graphs reject self loops and keep one edge per pair.
		if !okFrom || !okTo || from == to || g.HasEdgeBetween(from, to) {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
	}

	iterations := cfg.Iterations
	if iterations <= 0 {
		iterations = 200
	}
	eades := layout.EadesR2{Repulsion: 1, Rate: 0.05, Updates: iterations, Theta: 0.2}
	optimizer := layout.NewOptimizerR2(g, eades.Update)

	collect := func() map[string]models.Position {
		out := make(map[string]models.Position, len(ids))
		for name, id := range ids {
			v := optimizer.Coord2(id)
			out[name] = models.Position{X: v.X * layoutScale, Y: v.Y * layoutScale}
		}
		return out
	}

	for step := 1; optimizer.Update(); step++ {
		if ctx.Err() != nil {
			return nil, false
		}
		if cfg.Animate && progress != nil && step%frameEvery == 0 {
			progress(collect())
		}
	}
	if ctx.Err() != nil {
		return nil, false
	}
	return collect(), true
}
