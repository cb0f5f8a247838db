// Package router implements per-net global/detailed routing (spec §4.5):
// a Prim MST over each net's pins with A* pathfinding on a layered
// occupancy grid per edge, followed by a rip-up-and-reroute pass that
// resolves pairwise net overlaps in ascending wirelength order.
package router

import (
	"math"
	"sort"

	"github.com/siliconforge/edacore/pkg/ecconfig"
	"github.com/siliconforge/edacore/pkg/model"
	"github.com/siliconforge/edacore/pkg/util"
)

// PassFunc reports one rip-up-and-reroute pass's outcome: its 1-based
// index, the configured pass budget, and how many net pairs were ripped
// up and rerouted in that pass (spec §12's CLI progress surface).
type PassFunc func(pass, max, ripped int)

// Route routes every net in sm.Nets against sm.Grid, in place, then runs
// rip-up-and-reroute across the whole net list (spec §4.5.1-3). onPass
// may be nil.
func Route(sm *model.SubModule, cfg *ecconfig.Config, onPass PassFunc) {
	if sm.Grid == nil || len(sm.Nets) == 0 {
		return
	}

	for _, n := range sm.Nets {
		routeNet(sm.Grid, n, cfg)
		apply(sm.Grid, n)
	}

	ripUpAndReroute(sm, cfg, onPass)
}

// routeNet builds the net's MST over its pins and fills in Segments/Vias.
// It does not touch the grid's occupancy; the caller applies the result.
func routeNet(g *model.RoutingGrid, n *model.Net, cfg *ecconfig.Config) {
	n.Segments = nil
	n.Vias = nil
	n.Incomplete = false

	if len(n.Pins) < 2 {
		return
	}

	owned := ownedStates(n)
	edges := primMST(g, n.Pins, owned, cfg)
	if len(edges) < len(n.Pins)-1 {
		n.Incomplete = true
		util.WithFields(map[string]interface{}{"net": n.Name}).
			Warn("router: some pins unreachable from the MST's growing tree, net left incomplete")
	}

	viaSeen := make(map[model.Via]bool)
	for _, e := range edges {
		path := astar(g, pinState(n.Pins[e.from]), pinState(n.Pins[e.to]), owned, cfg)
		if path == nil {
			n.Incomplete = true
			util.WithFields(map[string]interface{}{"net": n.Name}).
				Warn("router: no path found for MST edge, net left incomplete")
			continue
		}
		appendPath(n, path, viaSeen)
	}
}

type mstEdge struct{ from, to int }

// primMST grows a minimum spanning tree over pins starting at index 0,
// using A* path cost as the edge weight, ties broken by lower pin index
// (spec §4.5.1).
func primMST(g *model.RoutingGrid, pins []model.Pin, owned map[state]bool, cfg *ecconfig.Config) []mstEdge {
	n := len(pins)
	inTree := make([]bool, n)
	dist := make([]float64, n)
	parent := make([]int, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		parent[i] = -1
	}
	dist[0] = 0
	inTree[0] = true

	var edges []mstEdge
	for added := 1; added < n; added++ {
		updateDistances(g, pins, owned, cfg, inTree, dist, parent, edges)

		next := pickNext(inTree, dist)
		if next < 0 {
			break
		}
		inTree[next] = true
		edges = append(edges, mstEdge{from: parent[next], to: next})
	}
	return edges
}

func updateDistances(g *model.RoutingGrid, pins []model.Pin, owned map[state]bool, cfg *ecconfig.Config, inTree []bool, dist []float64, parent []int, _ []mstEdge) {
	for i := range pins {
		if inTree[i] {
			continue
		}
		for j := range pins {
			if !inTree[j] {
				continue
			}
			d := pathCost(g, pinState(pins[j]), pinState(pins[i]), owned, cfg)
			if d < dist[i] {
				dist[i] = d
				parent[i] = j
			}
		}
	}
}

// pickNext selects the lowest-distance, not-yet-in-tree pin, breaking
// ties by lower index (spec §4.5.1).
func pickNext(inTree []bool, dist []float64) int {
	best := -1
	for i, in := range inTree {
		if in {
			continue
		}
		if best < 0 || dist[i] < dist[best] {
			best = i
		}
	}
	if best >= 0 && math.IsInf(dist[best], 1) {
		return -1
	}
	return best
}

// pathCost returns the A* cost between two pin states, or +Inf if
// unreachable.
func pathCost(g *model.RoutingGrid, a, b state, owned map[state]bool, cfg *ecconfig.Config) float64 {
	path := astar(g, a, b, owned, cfg)
	if path == nil {
		return math.Inf(1)
	}
	cost := 0.0
	for i := 1; i < len(path); i++ {
		cost += moveCost(path[i-1], path[i], cfg)
	}
	return cost
}

func pinState(p model.Pin) state {
	return state{x: p.Pos.X, y: p.Pos.Y, layer: p.Layer}
}

// ownedStates marks a net's own pin cells as self-accessible, so A* may
// route through/into them without treating them as obstacles (spec
// §4.5.2).
func ownedStates(n *model.Net) map[state]bool {
	owned := make(map[state]bool, len(n.Pins))
	for _, p := range n.Pins {
		owned[pinState(p)] = true
		// Layer -1 keys the via cell at the pin (see neighbors).
		owned[state{x: p.Pos.X, y: p.Pos.Y, layer: -1}] = true
	}
	return owned
}

// appendPath converts a cell path into axis-aligned segments and vias,
// coalescing consecutive same-layer, same-direction cells into one
// segment (spec §4.5.1).
func appendPath(n *model.Net, path []state, viaSeen map[model.Via]bool) {
	if len(path) == 0 {
		return
	}
	segStart := path[0]
	prev := path[0]
	for i := 1; i < len(path); i++ {
		cur := path[i]
		if cur.layer != prev.layer {
			n.Segments = append(n.Segments, model.Segment{
				Start: model.Point{X: segStart.x, Y: segStart.y},
				End:   model.Point{X: prev.x, Y: prev.y},
				Layer: prev.layer,
			})
			v := model.Via{X: prev.x, Y: prev.y}
			if !viaSeen[v] {
				viaSeen[v] = true
				n.Vias = append(n.Vias, v)
			}
			segStart = cur
		}
		prev = cur
	}
	n.Segments = append(n.Segments, model.Segment{
		Start: model.Point{X: segStart.x, Y: segStart.y},
		End:   model.Point{X: prev.x, Y: prev.y},
		Layer: prev.layer,
	})
}

// apply marks a net's routed geometry as occupied on the grid.
func apply(g *model.RoutingGrid, n *model.Net) {
	for _, seg := range n.Segments {
		walkSegment(seg, func(x, y int) {
			g.Mark(x, y, seg.Layer)
		})
	}
	for _, v := range n.Vias {
		g.MarkVia(v.X, v.Y)
	}
}

// unapply clears a net's routed geometry from the grid, the inverse of
// apply; used before re-running A* for a ripped-up net.
func unapply(g *model.RoutingGrid, n *model.Net) {
	for _, seg := range n.Segments {
		walkSegment(seg, func(x, y int) {
			g.Unmark(x, y, seg.Layer)
		})
	}
	for _, v := range n.Vias {
		g.UnmarkVia(v.X, v.Y)
	}
}

func walkSegment(seg model.Segment, fn func(x, y int)) {
	if seg.Horizontal() {
		x0, x1 := seg.Start.X, seg.End.X
		if x0 > x1 {
			x0, x1 = x1, x0
		}
		for x := x0; x <= x1; x++ {
			fn(x, seg.Start.Y)
		}
		return
	}
	y0, y1 := seg.Start.Y, seg.End.Y
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		fn(seg.Start.X, y)
	}
}

// ripUpAndReroute resolves pairwise net overlaps in ascending total
// wirelength order, up to RipUpPasses passes (spec §4.5.3).
func ripUpAndReroute(sm *model.SubModule, cfg *ecconfig.Config, onPass PassFunc) {
	sorted := append([]*model.Net{}, sm.Nets...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalLength() < sorted[j].TotalLength()
	})

	for pass := 0; pass < cfg.RipUpPasses; pass++ {
		conflicts := 0
		for i := 0; i < len(sorted); i++ {
			for j := i + 1; j < len(sorted); j++ {
				ni, nj := sorted[i], sorted[j]
				if !overlaps(ni, nj) {
					continue
				}
				conflicts++
				unapply(sm.Grid, nj)
				routeNet(sm.Grid, nj, cfg)
				apply(sm.Grid, nj)
			}
		}
		if onPass != nil {
			onPass(pass+1, cfg.RipUpPasses, conflicts)
		}
		if conflicts == 0 {
			clearConflictDiagnostics(sorted)
			return
		}
	}

	recordResidualConflicts(sorted)
}

// overlaps implements spec §4.5.3's overlap test: two segments overlap
// iff they share a layer and their co-linear projections on the shared
// axis intersect (inclusive endpoints); two vias overlap iff identical
// (x, y).
func overlaps(a, b *model.Net) bool {
	for _, sa := range a.Segments {
		for _, sb := range b.Segments {
			if segmentsOverlap(sa, sb) {
				return true
			}
		}
	}
	for _, va := range a.Vias {
		for _, vb := range b.Vias {
			if va == vb {
				return true
			}
		}
	}
	return false
}

func segmentsOverlap(a, b model.Segment) bool {
	if a.Layer != b.Layer {
		return false
	}
	if a.Horizontal() != b.Horizontal() {
		return false
	}
	if a.Horizontal() {
		if a.Start.Y != b.Start.Y {
			return false
		}
		return intervalsOverlap(a.Start.X, a.End.X, b.Start.X, b.End.X)
	}
	if a.Start.X != b.Start.X {
		return false
	}
	return intervalsOverlap(a.Start.Y, a.End.Y, b.Start.Y, b.End.Y)
}

func intervalsOverlap(a0, a1, b0, b1 int) bool {
	if a0 > a1 {
		a0, a1 = a1, a0
	}
	if b0 > b1 {
		b0, b1 = b1, b0
	}
	return a0 <= b1 && b0 <= a1
}

// recordResidualConflicts names, on each net, the other nets it still
// overlaps with after the rip-up budget is exhausted (spec §7.3).
func recordResidualConflicts(nets []*model.Net) {
	for _, n := range nets {
		n.Conflicts = nil
	}
	for i := 0; i < len(nets); i++ {
		for j := i + 1; j < len(nets); j++ {
			if overlaps(nets[i], nets[j]) {
				nets[i].Conflicts = append(nets[i].Conflicts, nets[j].Name)
				nets[j].Conflicts = append(nets[j].Conflicts, nets[i].Name)
				util.WithFields(map[string]interface{}{"net_a": nets[i].Name, "net_b": nets[j].Name}).
					Warn("router: residual overlap after exhausting rip-up passes")
			}
		}
	}
}

func clearConflictDiagnostics(nets []*model.Net) {
	for _, n := range nets {
		n.Conflicts = nil
	}
}
