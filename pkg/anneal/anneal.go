// Package anneal implements the simulated-annealing placement refinement
// (spec §4.3): a wirelength+area cost function, translate/swap move
// proposals, and a geometric cooling schedule.
package anneal

import (
	"math"
	"math/rand"
	"sort"

	"github.com/siliconforge/edacore/pkg/ecconfig"
	"github.com/siliconforge/edacore/pkg/model"
	"github.com/siliconforge/edacore/pkg/util"
)

// ProgressFunc receives percent-complete (0-100) and the current
// temperature once per outer iteration (spec §12).
type ProgressFunc func(percent int, temp float64)

// Anneal refines the positions of sm's movable components in place,
// using rng for every random decision so that a fixed seed reproduces
// bit-exact placement (spec §8, "Placement determinism under fixed seed").
func Anneal(sm *model.SubModule, cfg *ecconfig.Config, rng *rand.Rand, onProgress ProgressFunc) {
	movable := movableComponents(sm)
	if len(movable) < 2 {
		return
	}

	stepMax0 := stepBudget(sm)
	logRatio := math.Log(cfg.MinTemp / cfg.InitTemp)

	temp := cfg.InitTemp
	outer := 0
	for temp >= cfg.MinTemp {
		if cfg.OuterIters > 0 && outer >= cfg.OuterIters {
			break
		}
		p := temperatureProgress(temp, cfg.InitTemp)
		step := annealStep(p, stepMax0)

		for i := 0; i < cfg.SAStepsPerT; i++ {
			innerStep(sm, movable, rng, temp, p, step, cfg)
		}

		if onProgress != nil {
			pct := int(100 * math.Log(temp/cfg.InitTemp) / logRatio)
			if pct < 0 {
				pct = 0
			}
			if pct > 100 {
				pct = 100
			}
			onProgress(pct, temp)
		}

		temp *= cfg.CoolingRate
		outer++
	}

	alignBands(sm)
}

// temperatureProgress returns p = T/T0 clamped to [0,1].
func temperatureProgress(temp, initTemp float64) float64 {
	p := temp / initTemp
	if p > 1 {
		p = 1
	}
	if p < 0 {
		p = 0
	}
	return p
}

// annealStep computes the current step size: p^2 * stepMax0, floored at
// stepMax0/4 (spec §4.3).
func annealStep(p, stepMax0 float64) float64 {
	s := p * p * stepMax0
	floor := stepMax0 / 4
	if s < floor {
		s = floor
	}
	return s
}

// stepBudget computes step_max0 = avg_side * (1 + ln|C|), floored at the
// nmos width (spec §4.3).
func stepBudget(sm *model.SubModule) float64 {
	prims := sm.Primitives()
	var sumArea float64
	n := 0
	for _, c := range prims {
		if c.Parked() {
			continue
		}
		sumArea += float64(c.Width * c.Height)
		n++
	}
	if n == 0 {
		n = 1
	}
	avgSide := math.Sqrt(sumArea / float64(n))
	nmosW, _ := model.DefaultDims(model.KindNMOS)
	stepMax0 := avgSide * (1 + math.Log(float64(n)))
	if stepMax0 < float64(nmosW) {
		stepMax0 = float64(nmosW)
	}
	return stepMax0
}

// movableComponents returns every component the annealer may translate or
// swap (spec §4.3: ports are fixed).
func movableComponents(sm *model.SubModule) []*model.Component {
	var out []*model.Component
	for _, name := range sortedNames(sm) {
		c := sm.Components[name]
		if c.Movable() {
			out = append(out, c)
		}
	}
	return out
}

func sortedNames(sm *model.SubModule) []string {
	names := make([]string, 0, len(sm.Components))
	for k := range sm.Components {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func innerStep(sm *model.SubModule, movable []*model.Component, rng *rand.Rand, temp, p, step float64, cfg *ecconfig.Config) {
	before := cost(sm, movable, cfg)

	if rng.Float64() < 0.5 {
		proposeTranslate(sm, movable, rng, step)
	} else {
		proposeSwap(sm, movable, rng)
	}

	after := cost(sm, movable, cfg)

	delta := (after.wirelength - before.wirelength) + sizeWeighted(cfg, p, after.area-before.area)

	if delta < 0 || rng.Float64() < math.Exp(-delta/temp) {
		return // accept — mutation stays
	}

	// reject — undo
	restore(movable, before.positions)
}

// sizeWeighted applies spec §4.3's singularity-guarded area term:
// SIZE_WEIGHT * (1/(1-p) - 1) * deltaArea, with 1/(1-p) capped at 1000
// once p > 0.999 and the resulting multiplier floored at 0.01.
func sizeWeighted(cfg *ecconfig.Config, p, deltaArea float64) float64 {
	inv := 1.0
	if p <= 0.999 {
		inv = 1 / (1 - p)
	} else {
		inv = 1000
	}
	mult := cfg.SizeWeight * (inv - 1)
	if mult < 0.01 {
		mult = 0.01
	}
	return mult * deltaArea
}

type costSnapshot struct {
	wirelength float64
	area       float64
	positions  map[*model.Component][2]int
}

// cost computes wirelength (weighted Euclidean driver/sink distance) and
// area (bounding box of non-port primitives), and snapshots current
// positions for cheap rollback on reject (spec §4.3).
func cost(sm *model.SubModule, movable []*model.Component, cfg *ecconfig.Config) costSnapshot {
	snap := costSnapshot{positions: make(map[*model.Component][2]int, len(movable))}
	for _, c := range movable {
		snap.positions[c] = [2]int{c.X, c.Y}
	}

	for name, drivers := range sm.InMap {
		c, ok := sm.Get(name)
		if !ok || c.Parked() {
			continue
		}
		cx, cy := c.Center()
		for _, d := range drivers {
			dc, ok := sm.Get(d)
			if !ok {
				util.WithFields(map[string]interface{}{"component": name, "driver": d}).
					Warn("anneal: unresolved driver name, skipping contribution")
				continue
			}
			if dc.Parked() {
				continue
			}
			dx, dy := dc.Center()
			w := 1.0
			if dc.Kind == model.KindInput || dc.Kind == model.KindPower {
				w = cfg.InMatter
			}
			snap.wirelength += w * euclidean(cx, cy, dx, dy)
		}
	}
	for name, sinks := range sm.OutMap {
		c, ok := sm.Get(name)
		if !ok || c.Parked() {
			continue
		}
		cx, cy := c.Center()
		for _, s := range sinks {
			sc, ok := sm.Get(s)
			if !ok {
				util.WithFields(map[string]interface{}{"component": name, "sink": s}).
					Warn("anneal: unresolved sink name, skipping contribution")
				continue
			}
			if sc.Parked() {
				continue
			}
			sx, sy := sc.Center()
			w := 1.0
			if sc.Kind == model.KindOutput || sc.Kind == model.KindPower {
				w = cfg.OutMatter
			}
			snap.wirelength += w * euclidean(cx, cy, sx, sy)
		}
	}

	minX, minY, maxX, maxY := boundingBox(sm)
	snap.area = float64(maxX-minX) * float64(maxY-minY)

	return snap
}

func euclidean(x1, y1, x2, y2 float64) float64 {
	dx, dy := x2-x1, y2-y1
	return math.Sqrt(dx*dx + dy*dy)
}

// boundingBox computes the bounding box over non-(input/output/power/wire)
// primitives — i.e. MOS devices and sub-module instances.
func boundingBox(sm *model.SubModule) (minX, minY, maxX, maxY int) {
	first := true
	for _, c := range sm.Components {
		switch c.Kind {
		case model.KindInput, model.KindOutput, model.KindPower, model.KindWire:
			continue
		}
		if first {
			minX, minY, maxX, maxY = c.X, c.Y, c.X+c.Width, c.Y+c.Height
			first = false
			continue
		}
		if c.X < minX {
			minX = c.X
		}
		if c.Y < minY {
			minY = c.Y
		}
		if c.X+c.Width > maxX {
			maxX = c.X + c.Width
		}
		if c.Y+c.Height > maxY {
			maxY = c.Y + c.Height
		}
	}
	return
}

func restore(movable []*model.Component, positions map[*model.Component][2]int) {
	for _, c := range movable {
		if pos, ok := positions[c]; ok {
			c.X, c.Y = pos[0], pos[1]
		}
	}
}

// proposeTranslate moves a random movable component by (dx, dy) uniformly
// sampled in [-step, step]^2, clamped to the existing bounding rectangle,
// and rejects immediately on conflict with any non-output, non-wire
// primitive (spec §4.3).
func proposeTranslate(sm *model.SubModule, movable []*model.Component, rng *rand.Rand, step float64) {
	if len(movable) == 0 {
		return
	}
	c := movable[rng.Intn(len(movable))]
	minX, minY, maxX, maxY := boundingBox(sm)

	dx := int(rng.Float64()*2*step - step)
	dy := int(rng.Float64()*2*step - step)

	newX, newY := c.X+dx, c.Y+dy
	newX = clamp(newX, minX, maxX)
	newY = clamp(newY, minY, maxY)

	oldX, oldY := c.X, c.Y
	c.X, c.Y = newX, newY

	if conflictsWithAny(sm, c) {
		c.X, c.Y = oldX, oldY
	}
}

// proposeSwap exchanges two random movable components' positions,
// rejecting immediately on conflict with any non-output, non-wire
// primitive (spec §4.3).
func proposeSwap(sm *model.SubModule, movable []*model.Component, rng *rand.Rand) {
	if len(movable) < 2 {
		return
	}
	i := rng.Intn(len(movable))
	j := rng.Intn(len(movable))
	if i == j {
		return
	}
	a, b := movable[i], movable[j]
	oldAX, oldAY := a.X, a.Y
	oldBX, oldBY := b.X, b.Y
	a.X, b.X = b.X, a.X
	a.Y, b.Y = b.Y, a.Y

	if conflictsWithAny(sm, a) || conflictsWithAny(sm, b) {
		a.X, a.Y = oldAX, oldAY
		b.X, b.Y = oldBX, oldBY
	}
}

func conflictsWithAny(sm *model.SubModule, c *model.Component) bool {
	for _, o := range sm.Components {
		if o == c {
			continue
		}
		if c.Conflicts(o) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// alignBands implements the post-SA alignment pass (spec §4.3): inputs and
// power are left-aligned and stacked, outputs are right-aligned and
// stacked, and the module is translated so its bounding box starts at the
// origin.
func alignBands(sm *model.SubModule) {
	minX, minY, maxX, _ := boundingBox(sm)

	inY, outY := 0, 0
	for _, name := range sortedNames(sm) {
		c := sm.Components[name]
		switch c.Kind {
		case model.KindInput, model.KindPower:
			c.X = minX - c.Width
			c.Y = inY
			inY += c.Height + 1
		case model.KindOutput:
			c.X = maxX
			c.Y = outY
			outY += c.Height + 1
		}
	}

	minX, minY, _, _ = boundingBox(sm)
	for _, c := range sm.Components {
		if c.Kind == model.KindInput || c.Kind == model.KindPower {
			if c.X < minX {
				minX = c.X
			}
		}
	}
	var translateMinY int
	first := true
	for _, c := range sm.Components {
		if c.Parked() {
			continue
		}
		if first {
			translateMinY = c.Y
			first = false
			continue
		}
		if c.Y < translateMinY {
			translateMinY = c.Y
		}
	}

	for _, c := range sm.Components {
		if c.Parked() {
			continue
		}
		c.X -= minX
		c.Y -= translateMinY
	}
}
