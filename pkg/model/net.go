package model

// Point is an integer grid coordinate.
type Point struct {
	X, Y int
}

// Pin is a typed anchor a net must reach: a geometric position on a layer,
// derived from a component and its role in the net (§4.4).
type Pin struct {
	Pos   Point
	Layer int
}

// Segment is an axis-aligned wire run on a single layer. Horizontal
// segments must lie on even layers, vertical on odd (§3 invariants).
type Segment struct {
	Start, End Point
	Layer      int
}

// Horizontal reports whether the segment runs along the X axis.
func (s Segment) Horizontal() bool {
	return s.Start.Y == s.End.Y
}

// Via is a layer transition at (X, Y).
type Via struct {
	X, Y int
}

// Net is a signal: the pins it must connect, and the routed geometry once
// the router has run. Incomplete and Conflicts are router diagnostics —
// router.Route never aborts, so a net with residual problems is still
// emitted (§7.3).
type Net struct {
	Name     string
	Pins     []Pin
	Segments []Segment
	Vias     []Via

	// Incomplete is set when at least one MST edge failed to find a path.
	Incomplete bool
	// Conflicts lists the names of other nets this net still overlaps with
	// after the rip-up-and-reroute loop exhausted its pass budget.
	Conflicts []string
}

// TotalLength returns the Manhattan sum of every segment's length, used to
// order nets for rip-up-and-reroute (§4.5.3).
func (n *Net) TotalLength() int {
	total := 0
	for _, seg := range n.Segments {
		dx := seg.End.X - seg.Start.X
		if dx < 0 {
			dx = -dx
		}
		dy := seg.End.Y - seg.Start.Y
		if dy < 0 {
			dy = -dy
		}
		total += dx + dy
	}
	return total
}
