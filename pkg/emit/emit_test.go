package emit

import (
	"encoding/json"
	"testing"

	"github.com/siliconforge/edacore/pkg/ecconfig"
	"github.com/siliconforge/edacore/pkg/layout"
	"github.com/siliconforge/edacore/pkg/netlist"
)

func chainedBufDoc() netlist.Document {
	inv := &netlist.Module{
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
	}
	buf := &netlist.Module{
		Ports: map[string]*netlist.Port{
			"IN":  {Type: "input"},
			"OUT": {Type: "output"},
		},
		SubModules: map[string]*netlist.Instance{
			"u1": {Module: "inv", Parameters: []string{"IN", "mid"}},
			"u2": {Module: "inv", Parameters: []string{"mid", "OUT"}},
		},
	}
	return netlist.Document{"inv": inv, "buf": buf}
}

func laidOutBuf(t *testing.T) *layout.Engine {
	t.Helper()
	cfg := ecconfig.Default()
	cfg.MinMosNum = 1
	cfg.InitTemp = 100
	cfg.SAStepsPerT = 5
	return layout.NewEngine(cfg, 1, nil)
}

func TestLayout_NestedCoordinatesAreAbsolute(t *testing.T) {
	e := laidOutBuf(t)
	top, err := e.Layout(chainedBufDoc(), "buf")
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}

	doc := Layout(top)
	u1Node, ok := doc.SubModules["u1"]
	if !ok {
		t.Fatal("expected u1 in layout document's subModules")
	}

	u1Component := top.Components["u1"]
	aPort, ok := u1Node.Ports["A"]
	if !ok {
		t.Fatal("expected port A in u1's layout node")
	}

	childA := u1Component.Sub.Module.Components["A"]
	wantX := u1Component.X + childA.X
	if aPort.X != wantX {
		t.Errorf("absolute X for u1.A = %d, want %d", aPort.X, wantX)
	}
}

func TestMarshalLayout_ValidJSON(t *testing.T) {
	e := laidOutBuf(t)
	top, err := e.Layout(chainedBufDoc(), "buf")
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}

	data, err := MarshalLayout(top)
	if err != nil {
		t.Fatalf("MarshalLayout() error = %v", err)
	}
	var v map[string]interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("MarshalLayout produced invalid JSON: %v", err)
	}
	if v["type"] != "buf" {
		t.Errorf("top-level type = %v, want buf", v["type"])
	}
}

func TestRoutes_NestedNetsHaveAbsoluteCoordinates(t *testing.T) {
	e := laidOutBuf(t)
	top, err := e.Layout(chainedBufDoc(), "buf")
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}

	doc := Routes(top)
	u1Route, ok := doc.SubModules["u1"]
	if !ok {
		t.Fatal("expected u1 in routes document's subModules")
	}
	if len(u1Route.Nets) == 0 {
		t.Fatal("expected u1's nets to be present in routes document")
	}

	u1Component := top.Components["u1"]
	childNet := u1Component.Sub.Module.Nets[0]
	if len(childNet.Pins) == 0 {
		t.Skip("fixture net unexpectedly has no pins")
	}

	var found bool
	for _, n := range u1Route.Nets {
		if n.Name != childNet.Name {
			continue
		}
		for i, p := range n.Pins {
			want := childNet.Pins[i].Pos.X + u1Component.X
			if p.Pos.X != want {
				t.Errorf("net %q pin %d absolute X = %d, want %d", n.Name, i, p.Pos.X, want)
			}
		}
		found = true
	}
	if !found {
		t.Errorf("net %q not found in routes document", childNet.Name)
	}
}

func TestMarshalRoutes_ValidJSON(t *testing.T) {
	e := laidOutBuf(t)
	top, err := e.Layout(chainedBufDoc(), "buf")
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}

	data, err := MarshalRoutes(top)
	if err != nil {
		t.Fatalf("MarshalRoutes() error = %v", err)
	}
	var v map[string]interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("MarshalRoutes produced invalid JSON: %v", err)
	}
}
