// Package netbuild materializes model.Net objects from a placed SubModule
// hierarchy (spec §4.4): it derives typed pins for every net endpoint and
// OR-projects child occupancy into the parent grid before routing.
package netbuild

import (
	"sort"

	"github.com/siliconforge/edacore/pkg/model"
	"github.com/siliconforge/edacore/pkg/util"
)

// Build walks sm's hierarchy post-order (children before parents, per
// spec §5's ordering guarantee) and materializes nets for every level.
// gridLayers sizes each level's RoutingGrid.
//
// onLevelBuilt, if non-nil, is called with sm immediately after its own
// nets are assigned, before Build returns to the parent. A caller that
// routes from onLevelBuilt (as pkg/layout does) guarantees every child is
// fully routed before its parent OR-projects the child's occupancy,
// since the callback runs inside the recursive call, not after it — this
// keeps pkg/netbuild free of a router import while still sequencing the
// two stages correctly per level (spec §5).
func Build(sm *model.SubModule, gridLayers int, onLevelBuilt func(*model.SubModule)) {
	if sm.Nets != nil {
		// Already built (and, via onLevelBuilt, routed) as another
		// instance's shared child — the normalizer hands out one
		// *SubModule per type, so this is the common case for any type
		// instantiated more than once.
		return
	}

	for _, name := range sortedSubInstances(sm) {
		inst := sm.Components[name]
		Build(inst.Sub.Module, gridLayers, onLevelBuilt)
	}

	allocateGrid(sm, gridLayers)
	projectChildObstacles(sm)
	sm.Nets = buildNets(sm)

	if onLevelBuilt != nil {
		onLevelBuilt(sm)
	}
}

func sortedSubInstances(sm *model.SubModule) []string {
	var names []string
	for name, c := range sm.Components {
		if c.Kind == model.KindSubModule {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// allocateGrid sizes sm's RoutingGrid to contain every non-parked
// primitive plus every sub-module instance's own grid.
func allocateGrid(sm *model.SubModule, gridLayers int) {
	maxX, maxY := 1, 1
	for _, c := range sm.Components {
		if c.Parked() {
			continue
		}
		right, bottom := c.X+c.Width, c.Y+c.Height
		if c.Kind == model.KindSubModule && c.Sub.Module.Grid != nil {
			right = c.X + c.Sub.Module.Grid.Width
			bottom = c.Y + c.Sub.Module.Grid.Height
		}
		if right > maxX {
			maxX = right
		}
		if bottom > maxY {
			maxY = bottom
		}
	}
	sm.Grid = model.NewRoutingGrid(maxX, maxY, gridLayers)
}

// projectChildObstacles OR-projects every sub-module instance's occupancy
// into sm's grid at the instance's offset (spec §4.4).
func projectChildObstacles(sm *model.SubModule) {
	for _, name := range sortedSubInstances(sm) {
		inst := sm.Components[name]
		child := inst.Sub.Module
		if child.Grid == nil {
			continue
		}
		sm.Grid.ProjectObstacle(child.Grid, inst.X, inst.Y)
	}
}

// buildNets derives one Net per distinct signal name appearing as a key in
// NetInMap or NetOutMap, with pins for every endpoint those maps list.
// NetInMap/NetOutMap (unlike InMap/OutMap, which the cost function reads
// collapsed to component-level adjacency) preserve dotted "instance.pin"
// endpoints across a sub-module boundary, which PinFor needs to reach the
// actual pin instead of stopping at the instance component.
func buildNets(sm *model.SubModule) []*model.Net {
	netNames := make(map[string]bool)
	for name := range sm.NetInMap {
		if isPortLike(sm, name) {
			netNames[name] = true
		}
	}
	for name := range sm.NetOutMap {
		if isPortLike(sm, name) {
			netNames[name] = true
		}
	}

	names := make([]string, 0, len(netNames))
	for n := range netNames {
		names = append(names, n)
	}
	sort.Strings(names)

	nets := make([]*model.Net, 0, len(names))
	for _, name := range names {
		pins := derivePins(sm, name)
		if len(pins) == 0 {
			continue
		}
		nets = append(nets, &model.Net{Name: name, Pins: pins})
	}
	return nets
}

// isPortLike reports whether name identifies a net-worthy signal rather
// than a consuming component: a port component (input/output/power) in
// this SubModule, or a pure net name with no local component at all (an
// inter-instance parameter binding such as "mid"). MOS and sub-module
// instance names appear as NetInMap/NetOutMap keys too (they have their
// own drivers/sinks) but are not themselves nets — they surface only as
// endpoints of the nets that drive or read them.
func isPortLike(sm *model.SubModule, name string) bool {
	c, ok := sm.Get(name)
	if !ok {
		return true
	}
	switch c.Kind {
	case model.KindInput, model.KindOutput, model.KindPower:
		return true
	default:
		return false
	}
}

// derivePins collects the pin for name itself (when name is itself a
// local component) plus every driver/sink endpoint connected to it via
// NetInMap/NetOutMap, deduplicating by position+layer.
func derivePins(sm *model.SubModule, name string) []model.Pin {
	seen := make(map[model.Pin]bool)
	var pins []model.Pin

	add := func(endpoint string) {
		pin, ok := PinFor(sm, endpoint, name)
		if !ok {
			util.WithFields(map[string]interface{}{"net": name, "endpoint": endpoint}).
				Warn("netbuild: unknown pin kind, endpoint omitted")
			return
		}
		if !seen[pin] {
			seen[pin] = true
			pins = append(pins, pin)
			markPin(sm.Grid, pin)
		}
	}

	if _, ok := sm.Get(name); ok {
		add(name)
	}
	for _, d := range sm.NetInMap[name] {
		add(d)
	}
	for _, s := range sm.NetOutMap[name] {
		add(s)
	}

	return pins
}

// PinFor derives the pin geometry for endpoint as seen from net netName
// (netName distinguishes VCC from GND rail geometry on a shared MOS
// terminal). endpoint is either a local component name or a dotted
// "instance.pin" reference.
func PinFor(sm *model.SubModule, endpoint, netName string) (model.Pin, bool) {
	if dotIdx := indexOfDot(endpoint); dotIdx >= 0 {
		instName, pinName := endpoint[:dotIdx], endpoint[dotIdx+1:]
		inst, ok := sm.Get(instName)
		if !ok || inst.Kind != model.KindSubModule {
			return model.Pin{}, false
		}
		child := inst.Sub.Module
		childPin, ok := PinFor(child, pinName, netName)
		if !ok {
			return model.Pin{}, false
		}
		childPin.Pos.X += inst.X
		childPin.Pos.Y += inst.Y
		return childPin, true
	}

	c, ok := sm.Get(endpoint)
	if !ok {
		return model.Pin{}, false
	}
	return componentPin(c, netName)
}

func componentPin(c *model.Component, netName string) (model.Pin, bool) {
	switch c.Kind {
	case model.KindInput, model.KindOutput:
		cx, cy := c.Center()
		return model.Pin{Pos: model.Point{X: int(cx), Y: int(cy)}, Layer: c.Layer}, true
	case model.KindPower:
		// VCC pins sit at h-1 but GND pins at h; the asymmetry is kept as is.
		if c.Name == "VCC" {
			return model.Pin{Pos: model.Point{X: c.X + c.Width/4, Y: c.Y + c.Height - 1}, Layer: c.Layer}, true
		}
		if c.Name == "GND" {
			return model.Pin{Pos: model.Point{X: c.X + c.Width/4, Y: c.Y + c.Height}, Layer: c.Layer}, true
		}
		cx, cy := c.Center()
		return model.Pin{Pos: model.Point{X: int(cx), Y: int(cy)}, Layer: c.Layer}, true
	case model.KindNMOS, model.KindPMOS:
		return mosPin(c, netName)
	default:
		return model.Pin{}, false
	}
}

// mosPin derives the pin offset for whichever MOS terminal netName names
// (spec §4.4: gate consumer vs. source/drain consumer geometry).
func mosPin(c *model.Component, netName string) (model.Pin, bool) {
	switch netName {
	case c.MOS.Gate:
		return model.Pin{Pos: model.Point{X: c.X + c.Width/2, Y: c.Y + 3*c.Height/4}, Layer: c.Layer}, true
	case c.MOS.Drain, c.MOS.Source:
		return model.Pin{Pos: model.Point{X: c.X + c.Width/4, Y: c.Y + c.Height/2}, Layer: c.Layer}, true
	default:
		return model.Pin{}, false
	}
}

func markPin(g *model.RoutingGrid, pin model.Pin) {
	if g == nil {
		return
	}
	g.Mark(pin.Pos.X, pin.Pos.Y, pin.Layer)
	g.MarkVia(pin.Pos.X, pin.Pos.Y)
}

func indexOfDot(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}
