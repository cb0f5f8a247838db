package router

import (
	"container/heap"

	"github.com/siliconforge/edacore/pkg/ecconfig"
	"github.com/siliconforge/edacore/pkg/model"
)

// state is an A* search node: a grid cell on a specific layer (spec §4.5.2).
type state struct {
	x, y, layer int
}

// astar finds a path from start to goal on g, treating cells already
// marked as self-owned (the net's own pin cells and their via cells) as
// passable. It returns the full cell path including both
// endpoints, or nil if no path exists.
func astar(g *model.RoutingGrid, start, goal state, owned map[state]bool, cfg *ecconfig.Config) []state {
	open := &priorityQueue{}
	heap.Init(open)
	heap.Push(open, &pqItem{s: start, f: heuristic(start, goal, cfg)})

	gScore := map[state]float64{start: 0}
	cameFrom := map[state]state{}

	for open.Len() > 0 {
		cur := heap.Pop(open).(*pqItem).s

		if cur == goal {
			return reconstruct(cameFrom, cur)
		}

		for _, next := range neighbors(g, cur, owned) {
			stepCost := moveCost(cur, next, cfg)
			tentative := gScore[cur] + stepCost
			if existing, ok := gScore[next]; !ok || tentative < existing {
				gScore[next] = tentative
				cameFrom[next] = cur
				heap.Push(open, &pqItem{s: next, f: tentative + heuristic(next, goal, cfg)})
			}
		}
	}
	return nil
}

// neighbors lists the reachable adjacent states from cur: one in-layer
// move along the layer's preferred axis, and a layer change up and down
// (spec §4.5.2).
func neighbors(g *model.RoutingGrid, cur state, owned map[state]bool) []state {
	var out []state

	horiz := model.IsHorizontal(cur.layer)
	deltas := [][2]int{{1, 0}, {-1, 0}}
	if !horiz {
		deltas = [][2]int{{0, 1}, {0, -1}}
	}
	for _, d := range deltas {
		nx, ny := cur.x+d[0], cur.y+d[1]
		next := state{nx, ny, cur.layer}
		if g.Free(nx, ny, cur.layer) || owned[next] {
			out = append(out, next)
		}
	}

	for _, dl := range []int{1, -1} {
		nl := cur.layer + dl
		if nl < 0 || nl >= len(g.Layers) {
			continue
		}
		next := state{cur.x, cur.y, nl}
		viaOK := g.ViaFree(cur.x, cur.y) || owned[state{cur.x, cur.y, -1}]
		destOK := g.Free(cur.x, cur.y, nl) || owned[next]
		if viaOK && destOK {
			out = append(out, next)
		}
	}
	return out
}

// moveCost is 1 for an in-layer move, VIA_COST for a layer change.
func moveCost(a, b state, cfg *ecconfig.Config) float64 {
	if a.layer != b.layer {
		return float64(cfg.ViaCost)
	}
	return 1
}

// heuristic is the (intentionally inadmissible, spec §9) A* heuristic:
// Manhattan distance plus a heavy layer-change penalty that biases search
// to stay near the goal's layer.
func heuristic(a, b state, cfg *ecconfig.Config) float64 {
	dx := abs(a.x - b.x)
	dy := abs(a.y - b.y)
	dl := abs(a.layer - b.layer)
	return float64(dx+dy) + float64(cfg.ViaCost+cfg.LayerCost)*float64(dl)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func reconstruct(cameFrom map[state]state, cur state) []state {
	path := []state{cur}
	for {
		prev, ok := cameFrom[cur]
		if !ok {
			break
		}
		path = append(path, prev)
		cur = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type pqItem struct {
	s state
	f float64
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].f < pq[j].f }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(*pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
