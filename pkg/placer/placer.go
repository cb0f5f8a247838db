// Package placer implements the initial row-packing placement (spec §4.2):
// a fast, non-overlapping starting point for the annealer, ordered in three
// left-to-right bands (input/power, mos/sub-module, output).
package placer

import (
	"math"
	"sort"

	"github.com/siliconforge/edacore/pkg/model"
)

// Place assigns an initial (x, y) to every primitive and sub-module
// instance directly owned by sm, leaving wires parked at the sentinel
// position. Components already carrying non-zero Width/Height (ports,
// MOS, or sub-module instances sized from their child layout) are used
// as-is; callers must size sub-module components before calling Place.
func Place(sm *model.SubModule) {
	names := sortedNames(sm.Components)

	var inputs, mid, outputs, wires []*model.Component
	var total int
	var widthSum float64
	for _, name := range names {
		c := sm.Components[name]
		switch c.Kind {
		case model.KindWire:
			wires = append(wires, c)
			continue
		case model.KindInput, model.KindPower:
			inputs = append(inputs, c)
		case model.KindOutput:
			outputs = append(outputs, c)
		default:
			mid = append(mid, c)
		}
		total++
		widthSum += float64(c.Width)
	}

	for _, w := range wires {
		w.X, w.Y = model.SentinelX, model.SentinelY
	}

	if total == 0 {
		return
	}
	avgWidth := widthSum / float64(total)
	maxWidth := 1.5 * math.Sqrt(float64(total)) * avgWidth

	placed := make([]*model.Component, 0, total)
	x := 0
	for _, band := range [][]*model.Component{inputs, mid, outputs} {
		if len(band) == 0 {
			continue
		}
		x = placeBand(band, placed, x, maxWidth)
		placed = append(placed, band...)
	}
}

// placeBand places one band of components starting at x = startX,
// returning the x coordinate where the next band should start.
func placeBand(band []*model.Component, placed []*model.Component, startX int, maxWidth float64) int {
	x, y, lineWidth := startX, 0, 0
	soFar := append([]*model.Component{}, placed...)

	for _, c := range band {
		c.X, c.Y = x, y
		for overlapsAny(c, soFar) {
			y += c.Height + 1
			c.Y = y
			if float64(y) > maxWidth {
				y = 0
				x += lineWidth + 1
				lineWidth = 0
				c.X, c.Y = x, y
			}
		}
		soFar = append(soFar, c)
		if c.Height > lineWidth {
			lineWidth = c.Height
		}
		y += c.Height + 1
		if float64(y) > maxWidth {
			y = 0
			x += lineWidth + 1
			lineWidth = 0
		}
	}
	return x + lineWidth + 1
}

func overlapsAny(c *model.Component, others []*model.Component) bool {
	for _, o := range others {
		if o == c {
			continue
		}
		if c.Conflicts(o) {
			return true
		}
	}
	return false
}

func sortedNames(m map[string]*model.Component) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
