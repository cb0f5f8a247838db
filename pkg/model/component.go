// Package model defines the hierarchical layout data model shared by the
// normalizer, placer, annealer, net builder and router: components, their
// owning SubModule arenas, the per-module routing grid, and the pins,
// segments, vias and nets produced once placement stabilizes.
package model

// Kind identifies what a Component represents. For a sub-module instance,
// Kind is KindSubModule and Component.ModuleName names the instantiated type.
type Kind string

const (
	KindInput     Kind = "input"
	KindOutput    Kind = "output"
	KindPower     Kind = "power"
	KindWire      Kind = "wire"
	KindNMOS      Kind = "nmos"
	KindPMOS      Kind = "pmos"
	KindSubModule Kind = "submodule"
)

// DefaultDims returns the table-driven default (width, height) for a kind.
// Sub-module dimensions are computed from the child layout instead and are
// not covered by this table.
func DefaultDims(k Kind) (w, h int) {
	switch k {
	case KindInput, KindOutput, KindPower:
		return 2, 2
	case KindWire:
		return 0, 0
	case KindNMOS, KindPMOS:
		return 6, 4
	default:
		return 0, 0
	}
}

// SentinelX and SentinelY are the parked coordinates for wires: wires carry
// no geometry and are excluded from placement, cost and obstacle computation.
const (
	SentinelX = -10000
	SentinelY = -10000
)

// MOSPayload names the three ports a MOS device references.
type MOSPayload struct {
	Drain  string
	Source string
	Gate   string
}

// SubModulePayload is the owned child SubModule plus the offset at which its
// local coordinate space is translated into the parent's.
type SubModulePayload struct {
	Module  *SubModule
	OffsetX int
	OffsetY int
}

// Component is a placed entity: a port, a wire, a MOS device, or a
// sub-module instance. Only one of MOS / Sub is populated, matching Kind.
type Component struct {
	Name   string
	Kind   Kind
	X, Y   int
	Layer  int
	Width  int
	Height int

	// ModuleName names the instantiated type when Kind == KindSubModule.
	ModuleName string

	MOS *MOSPayload
	Sub *SubModulePayload
}

// NewPrimitive builds a Component of a primitive kind (not a sub-module)
// with table-driven default dimensions.
func NewPrimitive(name string, kind Kind) *Component {
	w, h := DefaultDims(kind)
	return &Component{Name: name, Kind: kind, Width: w, Height: h}
}

// Center returns the geometric center of the component's bounding box.
func (c *Component) Center() (float64, float64) {
	return float64(c.X) + float64(c.Width)/2, float64(c.Y) + float64(c.Height)/2
}

// Parked reports whether the component is a wire parked at the sentinel
// position and therefore excluded from overlap and cost computation.
func (c *Component) Parked() bool {
	return c.Kind == KindWire
}

// Movable reports whether the annealer is allowed to translate or swap this
// component. Ports of kind input/output/power/wire are fixed in place.
func (c *Component) Movable() bool {
	switch c.Kind {
	case KindInput, KindOutput, KindPower, KindWire:
		return false
	default:
		return true
	}
}

// Overlaps reports whether two components' bounding boxes intersect,
// as a pure geometric test with no kind-based exemptions.
func (c *Component) Overlaps(o *Component) bool {
	if c.X+c.Width <= o.X || o.X+o.Width <= c.X {
		return false
	}
	if c.Y+c.Height <= o.Y || o.Y+o.Height <= c.Y {
		return false
	}
	return true
}

// Conflicts reports whether two components overlap in a way that the
// placement search must reject. Wires and outputs are exempt: a wire
// carries no geometry, and an output's bounding box is allowed to be
// crossed during the search per spec.
func (c *Component) Conflicts(o *Component) bool {
	if c.Kind == KindWire || o.Kind == KindWire {
		return false
	}
	if c.Kind == KindOutput || o.Kind == KindOutput {
		return false
	}
	return c.Overlaps(o)
}
