// Package e2e_test drives the full normalize -> place -> anneal ->
// build-nets -> route -> emit pipeline end to end against spec §8's
// concrete seed scenarios. Unlike the teacher's own e2e suite (which
// gates on a live device lab via a build tag), every scenario here runs
// entirely in-process and deterministically under a fixed seed, so
// there is nothing to skip and no build tag is needed.
package e2e_test

import (
	"math/rand"
	"testing"

	"github.com/siliconforge/edacore/internal/fixtures"
	"github.com/siliconforge/edacore/pkg/anneal"
	"github.com/siliconforge/edacore/pkg/ecconfig"
	"github.com/siliconforge/edacore/pkg/emit"
	"github.com/siliconforge/edacore/pkg/layout"
	"github.com/siliconforge/edacore/pkg/model"
	"github.com/siliconforge/edacore/pkg/normalize"
	"github.com/siliconforge/edacore/pkg/placer"
	"github.com/siliconforge/edacore/pkg/router"
)

func smallCfg() *ecconfig.Config {
	cfg := ecconfig.Default()
	cfg.InitTemp = 200
	cfg.SAStepsPerT = 20
	cfg.MinMosNum = 1
	return cfg
}

// Scenario 1: empty module.
func TestEmptyModule(t *testing.T) {
	e := layout.NewEngine(smallCfg(), 1, nil)
	top, err := e.Layout(fixtures.EmptyModule(), "empty")
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if len(top.Nets) != 0 {
		t.Errorf("expected zero nets for a power-only module, got %d", len(top.Nets))
	}

	doc := emit.Layout(top)
	if _, ok := doc.Ports["VCC"]; !ok {
		t.Error("expected a VCC port in the layout document")
	}
	if _, ok := doc.Ports["GND"]; !ok {
		t.Error("expected a GND port in the layout document")
	}

	routes := emit.Routes(top)
	if len(routes.Nets) != 0 {
		t.Errorf("expected zero nets in the routes document, got %d", len(routes.Nets))
	}

	for _, c := range top.Components {
		for _, o := range top.Components {
			if c == o {
				continue
			}
			if c.Kind != model.KindWire && o.Kind != model.KindWire && c.Conflicts(o) {
				t.Errorf("components %q and %q overlap", c.Name, o.Name)
			}
		}
	}
}

// Scenario 2: single inverter.
func TestSingleInverter(t *testing.T) {
	e := layout.NewEngine(smallCfg(), 7, nil)
	top, err := e.Layout(fixtures.Inverter(), "inv")
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}

	assertNoOverlap(t, top)

	want := map[string]bool{"A": true, "Y": true, "VCC": true, "GND": true}
	for _, n := range top.Nets {
		if !want[n.Name] {
			continue
		}
		delete(want, n.Name)
		if len(n.Pins) < 2 {
			t.Errorf("net %q has fewer than 2 pins", n.Name)
		}
		assertLayerDiscipline(t, n)
	}
	for missing := range want {
		t.Errorf("expected net %q, not found", missing)
	}

	if _, err := emit.MarshalLayout(top); err != nil {
		t.Fatalf("MarshalLayout() error = %v", err)
	}
	if _, err := emit.MarshalRoutes(top); err != nil {
		t.Fatalf("MarshalRoutes() error = %v", err)
	}
}

// Scenario 3: two stacked inverters as sub-modules of a parent.
func TestStackedInverters(t *testing.T) {
	e := layout.NewEngine(smallCfg(), 3, nil)
	top, err := e.Layout(fixtures.StackedInverters(), "top")
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}

	inv1, ok := top.Components["inv1"]
	if !ok || inv1.Kind != model.KindSubModule {
		t.Fatal("expected inv1 to be a sub-module instance, not inlined")
	}
	inv2, ok := top.Components["inv2"]
	if !ok || inv2.Kind != model.KindSubModule {
		t.Fatal("expected inv2 to be a sub-module instance")
	}

	doc := emit.Layout(top)
	if _, ok := doc.SubModules["inv1"]; !ok {
		t.Fatal("expected inv1 in the layout document")
	}
	if _, ok := doc.SubModules["inv2"]; !ok {
		t.Fatal("expected inv2 in the layout document")
	}

	wantChain := map[string]bool{"A": false, "mid": false, "Y": false}
	for _, n := range top.Nets {
		if _, ok := wantChain[n.Name]; ok {
			wantChain[n.Name] = len(n.Pins) >= 2
		}
	}
	for name, routed := range wantChain {
		if !routed {
			t.Errorf("expected chain net %q with >= 2 pins and routing", name)
		}
	}

	inv1Node := doc.SubModules["inv1"]
	childA := inv1.Sub.Module.Components["A"]
	want := inv1.X + childA.X
	if got := inv1Node.Ports["A"].X; got != want {
		t.Errorf("inv1.A absolute X = %d, want %d (offset %d + local %d)", got, want, inv1.X, childA.X)
	}
}

// Scenario 4: congestion forces multiple nets through the same narrow
// gap; rip-up-and-reroute must leave conflicts non-increasing and the
// engine must still emit output.
func TestCongestedNetsRipUp(t *testing.T) {
	sm := fixtures.CongestedNetsSubModule()
	cfg := ecconfig.Default()

	var passCounts []int
	router.Route(sm, cfg, func(pass, max, ripped int) {
		passCounts = append(passCounts, ripped)
	})

	for i := 1; i < len(passCounts); i++ {
		if passCounts[i] > passCounts[i-1] {
			t.Errorf("rip-up conflict count increased across passes: %v", passCounts)
			break
		}
	}

	if _, err := emit.MarshalRoutes(sm); err != nil {
		t.Fatalf("MarshalRoutes() error = %v", err)
	}
}

// Scenario 5: a pin pair walled off on every side leaves the net
// incomplete without aborting the router.
func TestUnreachablePair(t *testing.T) {
	sm := fixtures.UnreachablePairSubModule()
	cfg := ecconfig.Default()

	router.Route(sm, cfg, nil)

	if len(sm.Nets) != 1 {
		t.Fatalf("expected exactly one net, got %d", len(sm.Nets))
	}
	if !sm.Nets[0].Incomplete {
		t.Error("expected the walled-off net to be marked incomplete")
	}

	if _, err := emit.MarshalRoutes(sm); err != nil {
		t.Fatalf("router must still allow emission on an incomplete net: %v", err)
	}
}

// Scenario 6: placement regression — annealing must not increase area
// relative to the initial row-packed placement, on a 20-MOS fixture.
func TestAdderPlacementRegression(t *testing.T) {
	cfg := ecconfig.Default()
	norm := normalize.New(fixtures.Adder20Mos(), cfg)
	sm, err := norm.Normalize("adder")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	placer.Place(sm)
	initialArea := boundingArea(sm)

	cfg.InitTemp = 200
	cfg.SAStepsPerT = 50
	anneal.Anneal(sm, cfg, rand.New(rand.NewSource(42)), nil)
	annealedArea := boundingArea(sm)

	if annealedArea > initialArea {
		t.Errorf("post-anneal area %d exceeds post-initial-placement area %d", annealedArea, initialArea)
	}
	assertNoOverlap(t, sm)
}

func boundingArea(sm *model.SubModule) int {
	maxX, maxY := 0, 0
	for _, c := range sm.Components {
		if c.Parked() {
			continue
		}
		if right := c.X + c.Width; right > maxX {
			maxX = right
		}
		if bottom := c.Y + c.Height; bottom > maxY {
			maxY = bottom
		}
	}
	return maxX * maxY
}

func assertNoOverlap(t *testing.T, sm *model.SubModule) {
	t.Helper()
	prims := sm.Primitives()
	for i := 0; i < len(prims); i++ {
		for j := i + 1; j < len(prims); j++ {
			if prims[i].Conflicts(prims[j]) {
				t.Errorf("components %q and %q overlap", prims[i].Name, prims[j].Name)
			}
		}
	}
}

func assertLayerDiscipline(t *testing.T, n *model.Net) {
	t.Helper()
	for _, seg := range n.Segments {
		horiz := seg.Horizontal()
		if horiz != model.IsHorizontal(seg.Layer) {
			t.Errorf("net %q segment on layer %d has direction mismatch (horizontal=%v)", n.Name, seg.Layer, horiz)
		}
	}
}

