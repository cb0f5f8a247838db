// Package fixtures provides shared netlist and model builders for the
// package-level and end-to-end test suites, matching the teacher's
// internal/testutil convention of centralizing reusable test inputs
// instead of duplicating them per _test.go file.
package fixtures

import (
	"github.com/siliconforge/edacore/pkg/model"
	"github.com/siliconforge/edacore/pkg/netlist"
)

// EmptyModule is spec §8 scenario 1: a module with only VCC/GND and no
// MOS devices.
func EmptyModule() netlist.Document {
	return netlist.Document{
		"empty": &netlist.Module{
			Ports: map[string]*netlist.Port{
				"VCC": {Type: "power"},
				"GND": {Type: "power"},
			},
		},
	}
}

// Inverter is spec §8 scenario 2: one nmos and one pmos behind
// {A:input, Y:output, VCC:power, GND:power}.
func Inverter() netlist.Document {
	return netlist.Document{
		"inv": &netlist.Module{
			Ports: map[string]*netlist.Port{
				"A":   {Type: "input"},
				"Y":   {Type: "output"},
				"VCC": {Type: "power"},
				"GND": {Type: "power"},
			},
			Mosfets: map[string]*netlist.Mosfet{
				"n1": {Type: "nmos", Drain: "Y", Source: "GND", Gate: "A"},
				"p1": {Type: "pmos", Drain: "Y", Source: "VCC", Gate: "A"},
			},
		},
	}
}

// StackedInverters is spec §8 scenario 3: a parent module instantiating
// two inverters in series, "top" having its own {A:input, Y:output}.
// Requires cfg.MinMosNum <= 2 so the two instances aren't inlined.
func StackedInverters() netlist.Document {
	doc := Inverter()
	doc["top"] = &netlist.Module{
		Ports: map[string]*netlist.Port{
			"A": {Type: "input"},
			"Y": {Type: "output"},
		},
		SubModules: map[string]*netlist.Instance{
			"inv1": {Module: "inv", Parameters: []string{"A", "mid"}},
			"inv2": {Module: "inv", Parameters: []string{"mid", "Y"}},
		},
	}
	return doc
}

// Adder20Mos is spec §8 scenario 6: a flat 20-MOS fixture with adder
// ports, wired as one chain of ten nmos/pmos pairs rather than a real
// full adder, large enough to exercise real placement and annealing cost
// reduction. The SUM port is declared but not connected.
func Adder20Mos() netlist.Document {
	mod := &netlist.Module{
		Ports: map[string]*netlist.Port{
			"A":   {Type: "input"},
			"B":   {Type: "input"},
			"CIN": {Type: "input"},
			"SUM": {Type: "output"},
			"COUT": {Type: "output"},
			"VCC": {Type: "power"},
			"GND": {Type: "power"},
		},
		Mosfets: map[string]*netlist.Mosfet{},
	}
	// Ten nmos/pmos pairs (20 devices total): pair i is gated by nets[i]
	// and drains into nets[i+1], and the last pair drains into COUT. The
	// names n0..n6 are also transistor names, so those terminals resolve
	// to the transistors themselves. Enough transistors to clear any
	// reasonable MinMosNum and to give the annealer real area to improve on.
	nets := []string{"A", "B", "CIN", "n0", "n1", "n2", "n3", "n4", "n5", "n6"}
	for i := 0; i < 10; i++ {
		gate := nets[i%len(nets)]
		drain := "SUM"
		if i < 9 {
			drain = nets[(i+1)%len(nets)]
		}
		mod.Mosfets["n"+suffix(i)] = &netlist.Mosfet{Type: "nmos", Drain: drain, Source: "GND", Gate: gate}
		mod.Mosfets["p"+suffix(i)] = &netlist.Mosfet{Type: "pmos", Drain: drain, Source: "VCC", Gate: gate}
	}
	mod.Mosfets["n9"].Drain = "COUT"
	mod.Mosfets["p9"].Drain = "COUT"
	return netlist.Document{"adder": mod}
}

func suffix(i int) string {
	return string(rune('0' + i))
}

// UnreachablePairSubModule is spec §8 scenario 5: a placed, net-built
// SubModule whose grid walls off one pin of a two-pin net on every side
// so A* must return no path.
func UnreachablePairSubModule() *model.SubModule {
	sm := model.NewSubModule("", "walled")
	sm.Add(&model.Component{Name: "A", Kind: model.KindInput, X: 0, Y: 5, Width: 2, Height: 2})
	sm.Add(&model.Component{Name: "B", Kind: model.KindOutput, X: 10, Y: 5, Width: 2, Height: 2})
	sm.AddSymmetric("A", "B")
	sm.Grid = model.NewRoutingGrid(20, 20, 2)
	for y := 0; y < 20; y++ {
		sm.Grid.Mark(5, y, 0)
		sm.Grid.Mark(5, y, 1)
		sm.Grid.MarkVia(5, y)
	}
	sm.Nets = []*model.Net{{
		Name: "AB",
		Pins: []model.Pin{
			{Pos: model.Point{X: 1, Y: 6}, Layer: 0},
			{Pos: model.Point{X: 11, Y: 6}, Layer: 0},
		},
	}}
	return sm
}

// CongestedNetsSubModule is spec §8 scenario 4: three nets whose pins all
// straddle a single narrow gap in an obstacle wall, so whichever net
// Route picks first claims the gap and the rest must be resolved by
// rip-up-and-reroute rather than each finding an independent path.
func CongestedNetsSubModule() *model.SubModule {
	sm := model.NewSubModule("", "crossed")
	sm.Grid = model.NewRoutingGrid(20, 20, 2)
	for y := 0; y < 20; y++ {
		if y == 10 {
			continue // the single gap every net must route through
		}
		sm.Grid.Mark(9, y, 0)
		sm.Grid.Mark(9, y, 1)
		sm.Grid.MarkVia(9, y)
	}
	sm.Nets = []*model.Net{
		{Name: "netA", Pins: []model.Pin{
			{Pos: model.Point{X: 2, Y: 10}, Layer: 0},
			{Pos: model.Point{X: 16, Y: 10}, Layer: 0},
		}},
		{Name: "netB", Pins: []model.Pin{
			{Pos: model.Point{X: 2, Y: 8}, Layer: 0},
			{Pos: model.Point{X: 16, Y: 8}, Layer: 0},
		}},
		{Name: "netC", Pins: []model.Pin{
			{Pos: model.Point{X: 2, Y: 12}, Layer: 0},
			{Pos: model.Point{X: 16, Y: 12}, Layer: 0},
		}},
	}
	return sm
}
