package model

// MetalLayer is one routable layer of the grid: a boolean occupancy matrix
// plus a fixed preferred direction. Even-indexed layers are horizontal,
// odd-indexed are vertical (§3).
type MetalLayer struct {
	Occupied   [][]bool // [y][x]
	Horizontal bool
}

// RoutingGrid is a SubModule's shared multi-layer occupancy plane, allocated
// after the module's final placement. ViaSpace is a single plane shared by
// every layer transition at a given (x, y) — a via at (x,y) blocks every
// other net from transitioning layers at that same cell, regardless of
// which two layers it connects.
type RoutingGrid struct {
	Width, Height int
	Layers        []*MetalLayer
	ViaSpace      [][]bool // [y][x]
}

// IsHorizontal reports the preferred direction of a layer index.
func IsHorizontal(layer int) bool {
	return layer%2 == 0
}

// NewRoutingGrid allocates a grid of the given size with numLayers metal
// layers, alternating preferred direction starting with horizontal.
func NewRoutingGrid(width, height, numLayers int) *RoutingGrid {
	g := &RoutingGrid{
		Width:    width,
		Height:   height,
		Layers:   make([]*MetalLayer, numLayers),
		ViaSpace: newBoolGrid(width, height),
	}
	for i := 0; i < numLayers; i++ {
		g.Layers[i] = &MetalLayer{
			Occupied:   newBoolGrid(width, height),
			Horizontal: IsHorizontal(i),
		}
	}
	return g
}

func newBoolGrid(width, height int) [][]bool {
	rows := make([][]bool, height)
	for y := range rows {
		rows[y] = make([]bool, width)
	}
	return rows
}

// InBounds reports whether (x, y) lies within the grid.
func (g *RoutingGrid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// Free reports whether (x, y) on layer is unoccupied. Out-of-bounds cells
// are never free.
func (g *RoutingGrid) Free(x, y, layer int) bool {
	if !g.InBounds(x, y) || layer < 0 || layer >= len(g.Layers) {
		return false
	}
	return !g.Layers[layer].Occupied[y][x]
}

// ViaFree reports whether (x, y) is free of any via occupancy.
func (g *RoutingGrid) ViaFree(x, y int) bool {
	if !g.InBounds(x, y) {
		return false
	}
	return !g.ViaSpace[y][x]
}

// Mark sets occupancy at (x, y) on layer.
func (g *RoutingGrid) Mark(x, y, layer int) {
	if g.InBounds(x, y) && layer >= 0 && layer < len(g.Layers) {
		g.Layers[layer].Occupied[y][x] = true
	}
}

// Unmark clears occupancy at (x, y) on layer.
func (g *RoutingGrid) Unmark(x, y, layer int) {
	if g.InBounds(x, y) && layer >= 0 && layer < len(g.Layers) {
		g.Layers[layer].Occupied[y][x] = false
	}
}

// MarkVia sets via occupancy at (x, y).
func (g *RoutingGrid) MarkVia(x, y int) {
	if g.InBounds(x, y) {
		g.ViaSpace[y][x] = true
	}
}

// UnmarkVia clears via occupancy at (x, y).
func (g *RoutingGrid) UnmarkVia(x, y int) {
	if g.InBounds(x, y) {
		g.ViaSpace[y][x] = false
	}
}

// ProjectObstacle ORs a child grid's occupancy into this grid at the given
// offset, so that the parent router treats the child's interior as
// obstacles (§4.4). Cells that fall outside the parent's bounds are
// silently dropped — the parent is always sized to contain its children.
func (g *RoutingGrid) ProjectObstacle(child *RoutingGrid, offsetX, offsetY int) {
	for layer, ml := range child.Layers {
		if layer >= len(g.Layers) {
			break
		}
		for y, row := range ml.Occupied {
			for x, occ := range row {
				if occ {
					g.Mark(offsetX+x, offsetY+y, layer)
				}
			}
		}
	}
	for y, row := range child.ViaSpace {
		for x, occ := range row {
			if occ {
				g.MarkVia(offsetX+x, offsetY+y)
			}
		}
	}
}
