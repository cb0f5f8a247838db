// Package layout is the top-level orchestrator: it normalizes a netlist
// document, places and anneals every sub-module type bottom-up, builds
// nets and routes each level, and hands back a fully laid-out tree ready
// for pkg/emit (spec §4, §5).
package layout

import (
	"hash/fnv"
	"math"
	"math/rand"
	"sort"

	"github.com/siliconforge/edacore/pkg/anneal"
	"github.com/siliconforge/edacore/pkg/ecconfig"
	"github.com/siliconforge/edacore/pkg/model"
	"github.com/siliconforge/edacore/pkg/netbuild"
	"github.com/siliconforge/edacore/pkg/netlist"
	"github.com/siliconforge/edacore/pkg/normalize"
	"github.com/siliconforge/edacore/pkg/placer"
	"github.com/siliconforge/edacore/pkg/router"
	"github.com/siliconforge/edacore/pkg/util"
)

// dimensionInflation is the margin applied to a placed module's bounding
// box before it's used as a sub-module instance's size in its parent
// (spec §4.3, "resulting module dimensions (inflated 10%)").
const dimensionInflation = 1.10

// Engine carries the pipeline's shared configuration and the
// memoization state spec §5 calls LayoutedModules: each distinct
// SubModule (shared by pointer across every instantiation site of the
// same type, per pkg/normalize) is placed exactly once.
type Engine struct {
	cfg   *ecconfig.Config
	seed  int64
	cache Cache

	dims map[*model.SubModule][2]int

	OnProgress anneal.ProgressFunc
	OnPass     router.PassFunc
	OnRouting  func(moduleName string)
}

// NewEngine builds an Engine. cache may be nil, in which case placement
// is memoized only within this process (via SubModule pointer sharing).
func NewEngine(cfg *ecconfig.Config, seed int64, cache Cache) *Engine {
	if cache == nil {
		cache = NullCache{}
	}
	return &Engine{
		cfg:   cfg,
		seed:  seed,
		cache: cache,
		dims:  make(map[*model.SubModule][2]int),
	}
}

// Layout runs the full pipeline for topModule within doc and returns the
// laid-out, routed root SubModule.
func (e *Engine) Layout(doc netlist.Document, topModule string) (*model.SubModule, error) {
	norm := normalize.New(doc, e.cfg)
	top, err := norm.Normalize(topModule)
	if err != nil {
		return nil, err
	}

	if err := e.placeRecursive(top, make(map[*model.SubModule]bool)); err != nil {
		return nil, err
	}

	netbuild.Build(top, e.cfg.MaxMetalLayer, func(sm *model.SubModule) {
		if e.OnRouting != nil {
			e.OnRouting(sm.ModuleName)
		}
		router.Route(sm, e.cfg, e.OnPass)
	})

	return top, nil
}

// placeRecursive places every distinct SubModule type reachable from sm,
// children before parents (spec §5's ordering guarantee), sizing each
// sub-module instance component from its child's placed dimensions
// before sm itself is placed.
func (e *Engine) placeRecursive(sm *model.SubModule, visited map[*model.SubModule]bool) error {
	if visited[sm] {
		return nil
	}
	visited[sm] = true

	for _, name := range sortedSubInstanceNames(sm) {
		inst := sm.Components[name]
		if err := e.placeRecursive(inst.Sub.Module, visited); err != nil {
			return err
		}
		w, h := e.dims[inst.Sub.Module]
		inst.Width, inst.Height = w, h
	}

	hash := ContentHash(sm)
	if cp, ok := e.cache.Load(hash); ok {
		cp.Apply(sm)
		e.dims[sm] = [2]int{cp.Width, cp.Height}
		util.WithFields(map[string]interface{}{"module": sm.ModuleName, "hash": hash}).
			Debug("layout: reused cached placement")
		return nil
	}

	placer.Place(sm)
	anneal.Anneal(sm, e.cfg, rand.New(rand.NewSource(moduleSeed(e.seed, sm.ModuleName))), e.OnProgress)

	width, height := inflatedBounds(sm)
	e.dims[sm] = [2]int{width, height}
	e.cache.Store(hash, SnapshotPlacement(sm, width, height))
	return nil
}

func sortedSubInstanceNames(sm *model.SubModule) []string {
	var names []string
	for name, c := range sm.Components {
		if c.Kind == model.KindSubModule {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// inflatedBounds computes the bounding box over every non-parked
// primitive and sub-module instance (components are aligned to the
// origin by anneal.Anneal's post-processing pass, so min is always 0)
// and inflates it per dimensionInflation.
func inflatedBounds(sm *model.SubModule) (width, height int) {
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
	return int(math.Ceil(float64(maxX) * dimensionInflation)), int(math.Ceil(float64(maxY) * dimensionInflation))
}

// moduleSeed derives a per-module-type RNG seed from the engine's base
// seed and the module name, so that every type anneals from an
// independent but still fully deterministic random sequence (spec §8,
// "placement determinism under fixed seed").
func moduleSeed(base int64, moduleName string) int64 {
	h := fnv.New64a()
	h.Write([]byte(moduleName))
	return base ^ int64(h.Sum64())
}
