package placer

import (
	"testing"

	"github.com/siliconforge/edacore/pkg/model"
)

func inverterSubModule() *model.SubModule {
	sm := model.NewSubModule("", "inverter")
	sm.Add(model.NewPrimitive("A", model.KindInput))
	sm.Add(model.NewPrimitive("Y", model.KindOutput))
	sm.Add(model.NewPrimitive("VCC", model.KindPower))
	sm.Add(model.NewPrimitive("GND", model.KindPower))
	n1 := model.NewPrimitive("n1", model.KindNMOS)
	n1.MOS = &model.MOSPayload{Drain: "Y", Source: "GND", Gate: "A"}
	p1 := model.NewPrimitive("p1", model.KindPMOS)
	p1.MOS = &model.MOSPayload{Drain: "Y", Source: "VCC", Gate: "A"}
	sm.Add(n1)
	sm.Add(p1)
	return sm
}

func TestPlace_NoOverlap(t *testing.T) {
	sm := inverterSubModule()
	Place(sm)

	prims := sm.Primitives()
	for i, a := range prims {
		for j, b := range prims {
			if i >= j {
				continue
			}
			if a.Conflicts(b) {
				t.Errorf("components %q and %q overlap after initial placement", a.Name, b.Name)
			}
		}
	}
}

func TestPlace_Deterministic(t *testing.T) {
	a := inverterSubModule()
	b := inverterSubModule()
	Place(a)
	Place(b)

	for name, ca := range a.Components {
		cb, ok := b.Components[name]
		if !ok {
			t.Fatalf("component %q missing in second run", name)
		}
		if ca.X != cb.X || ca.Y != cb.Y {
			t.Errorf("component %q placement not deterministic: (%d,%d) vs (%d,%d)", name, ca.X, ca.Y, cb.X, cb.Y)
		}
	}
}

func TestPlace_WiresParked(t *testing.T) {
	sm := model.NewSubModule("", "m")
	w := model.NewPrimitive("w1", model.KindWire)
	sm.Add(w)
	sm.Add(model.NewPrimitive("A", model.KindInput))

	Place(sm)

	if w.X != model.SentinelX || w.Y != model.SentinelY {
		t.Errorf("wire should be parked at sentinel, got (%d,%d)", w.X, w.Y)
	}
}

func TestPlace_Empty(t *testing.T) {
	sm := model.NewSubModule("", "empty")
	sm.Add(model.NewPrimitive("VCC", model.KindPower))
	sm.Add(model.NewPrimitive("GND", model.KindPower))

	Place(sm)

	if sm.Components["VCC"].Conflicts(sm.Components["GND"]) {
		t.Error("VCC and GND should not overlap")
	}
}
