// Package emit renders a laid-out model.SubModule tree into the two
// language-neutral output documents spec §4.6 describes: a Layout
// document (component geometry, recursively nested) and a Routes
// document (net geometry, recursively nested), both in absolute
// root-coordinates.
package emit

import (
	"encoding/json"
	"sort"

	"github.com/siliconforge/edacore/pkg/model"
)

// LayoutNode is one node of the recursive layout tree.
type LayoutNode struct {
	Type   string              `json:"type"`
	Name   string              `json:"name"`
	Layout NodeGeom            `json:"layout"`
	Ports  map[string]NodeGeom `json:"ports,omitempty"`

	Mosfets     map[string]MosfetGeom  `json:"mosfets,omitempty"`
	SubModules  map[string]*LayoutNode `json:"subModules,omitempty"`
	InputPorts  []string               `json:"inputPorts,omitempty"`
	OutputPorts []string               `json:"outputPorts,omitempty"`
	IsVCC       bool                   `json:"isvcc"`
	IsGND       bool                   `json:"isgnd"`
}

// NodeGeom is a component's absolute placement.
type NodeGeom struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
	Layer  int `json:"layer"`
}

// MosfetGeom is a MOS device's absolute placement plus its terminal
// names, for a consumer that wants device-level detail without walking
// the ports map.
type MosfetGeom struct {
	NodeGeom
	Drain  string `json:"drain"`
	Source string `json:"source"`
	Gate   string `json:"gate"`
}

// Layout builds the recursive layout document for root, with every
// descendant's coordinates translated into root's coordinate space
// (spec §4.6: "summing parent offsets while descending").
func Layout(root *model.SubModule) *LayoutNode {
	return layoutNode(root, "", 0, 0)
}

func layoutNode(sm *model.SubModule, instanceName string, offsetX, offsetY int) *LayoutNode {
	node := &LayoutNode{
		Type:        sm.ModuleName,
		Name:        instanceName,
		Layout:      NodeGeom{X: offsetX, Y: offsetY},
		Ports:       portGeoms(sm, offsetX, offsetY),
		Mosfets:     mosfetGeoms(sm, offsetX, offsetY),
		InputPorts:  sm.InputPorts,
		OutputPorts: sm.OutputPorts,
		IsVCC:       sm.IsVCC,
		IsGND:       sm.IsGND,
	}

	if w, h, ok := moduleExtent(sm); ok {
		node.Layout.Width, node.Layout.Height = w, h
	}

	if len(sm.SubInstances()) > 0 {
		node.SubModules = make(map[string]*LayoutNode)
		for _, name := range sortedNames(sm) {
			c := sm.Components[name]
			if c.Kind != model.KindSubModule {
				continue
			}
			node.SubModules[name] = layoutNode(c.Sub.Module, name, offsetX+c.X, offsetY+c.Y)
		}
	}

	return node
}

func portGeoms(sm *model.SubModule, offsetX, offsetY int) map[string]NodeGeom {
	out := make(map[string]NodeGeom)
	for _, name := range sortedNames(sm) {
		c := sm.Components[name]
		switch c.Kind {
		case model.KindInput, model.KindOutput, model.KindPower, model.KindWire:
			out[name] = NodeGeom{X: offsetX + c.X, Y: offsetY + c.Y, Width: c.Width, Height: c.Height, Layer: c.Layer}
		}
	}
	return out
}

func mosfetGeoms(sm *model.SubModule, offsetX, offsetY int) map[string]MosfetGeom {
	if len(sm.Mosfets) == 0 {
		return nil
	}
	out := make(map[string]MosfetGeom, len(sm.Mosfets))
	for _, name := range sm.Mosfets {
		c, ok := sm.Get(name)
		if !ok || c.MOS == nil {
			continue
		}
		out[name] = MosfetGeom{
			NodeGeom: NodeGeom{X: offsetX + c.X, Y: offsetY + c.Y, Width: c.Width, Height: c.Height, Layer: c.Layer},
			Drain:    c.MOS.Drain,
			Source:   c.MOS.Source,
			Gate:     c.MOS.Gate,
		}
	}
	return out
}

// moduleExtent returns the module's own bounding box (over non-parked
// primitives and sub-instances). This is the uninflated extent: the
// engine's instance dimensions add a further 10% margin on top of it.
func moduleExtent(sm *model.SubModule) (width, height int, ok bool) {
	maxX, maxY := 0, 0
	for _, c := range sm.Components {
		if c.Parked() {
			continue
		}
		ok = true
		if right := c.X + c.Width; right > maxX {
			maxX = right
		}
		if bottom := c.Y + c.Height; bottom > maxY {
			maxY = bottom
		}
	}
	return maxX, maxY, ok
}

func sortedNames(sm *model.SubModule) []string {
	names := make([]string, 0, len(sm.Components))
	for n := range sm.Components {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RouteNode is one node of the recursive routes tree.
type RouteNode struct {
	Nets       []NetGeom             `json:"nets"`
	SubModules map[string]*RouteNode `json:"subModules,omitempty"`
}

// NetGeom is one net's routed geometry in absolute coordinates.
type NetGeom struct {
	Name     string          `json:"name"`
	Pins     []model.Pin     `json:"pins"`
	Segments []model.Segment `json:"segments"`
	Vias     []model.Via     `json:"vias"`
}

// Routes builds the recursive routes document for root.
func Routes(root *model.SubModule) *RouteNode {
	return routeNode(root, 0, 0)
}

func routeNode(sm *model.SubModule, offsetX, offsetY int) *RouteNode {
	node := &RouteNode{Nets: netGeoms(sm, offsetX, offsetY)}

	if len(sm.SubInstances()) > 0 {
		node.SubModules = make(map[string]*RouteNode)
		for _, name := range sortedNames(sm) {
			c := sm.Components[name]
			if c.Kind != model.KindSubModule {
				continue
			}
			node.SubModules[name] = routeNode(c.Sub.Module, offsetX+c.X, offsetY+c.Y)
		}
	}

	return node
}

func netGeoms(sm *model.SubModule, offsetX, offsetY int) []NetGeom {
	out := make([]NetGeom, 0, len(sm.Nets))
	for _, n := range sm.Nets {
		g := NetGeom{Name: n.Name}
		for _, p := range n.Pins {
			g.Pins = append(g.Pins, model.Pin{Pos: model.Point{X: p.Pos.X + offsetX, Y: p.Pos.Y + offsetY}, Layer: p.Layer})
		}
		for _, s := range n.Segments {
			g.Segments = append(g.Segments, model.Segment{
				Start: model.Point{X: s.Start.X + offsetX, Y: s.Start.Y + offsetY},
				End:   model.Point{X: s.End.X + offsetX, Y: s.End.Y + offsetY},
				Layer: s.Layer,
			})
		}
		for _, v := range n.Vias {
			g.Vias = append(g.Vias, model.Via{X: v.X + offsetX, Y: v.Y + offsetY})
		}
		out = append(out, g)
	}
	return out
}

// MarshalLayout renders the layout document as indented JSON.
func MarshalLayout(root *model.SubModule) ([]byte, error) {
	return json.MarshalIndent(Layout(root), "", "  ")
}

// MarshalRoutes renders the routes document as indented JSON.
func MarshalRoutes(root *model.SubModule) ([]byte, error) {
	return json.MarshalIndent(Routes(root), "", "  ")
}
