// Package normalize implements the first pipeline stage (spec §4.1): it
// turns a raw netlist document into a tree of model.SubModule nodes, each
// owning only its own direct primitives, with adjacency maps rebuilt to
// reflect signal direction after one level of hierarchy unwrapping.
//
// Normalization is purely structural — no positions are assigned here —
// and is memoized per module *type*: every instance of the same module
// type shares one canonical *model.SubModule, matching the LayoutedModules
// sharing model described in spec §3/§5/§9 (placement, which mutates
// positions, happens later and only once per type).
package normalize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/siliconforge/edacore/pkg/ecconfig"
	"github.com/siliconforge/edacore/pkg/ecerr"
	"github.com/siliconforge/edacore/pkg/model"
	"github.com/siliconforge/edacore/pkg/netlist"
	"github.com/siliconforge/edacore/pkg/util"
)

// Normalizer recursively normalizes module types, bottom-up, memoizing the
// canonical shape of each type it has already built.
type Normalizer struct {
	cfg   *ecconfig.Config
	doc   netlist.Document
	cache map[string]*model.SubModule
}

// New creates a Normalizer bound to a netlist document and configuration.
func New(doc netlist.Document, cfg *ecconfig.Config) *Normalizer {
	return &Normalizer{cfg: cfg, doc: doc, cache: make(map[string]*model.SubModule)}
}

// Normalize returns the canonical normalized SubModule for moduleName,
// building it (and every module type it transitively instantiates) on
// first use and serving the cached value thereafter.
func (n *Normalizer) Normalize(moduleName string) (*model.SubModule, error) {
	if sm, ok := n.cache[moduleName]; ok {
		if sm == nil {
			return nil, ecerr.NewStructuralError(moduleName, "resolving module type (recursive instantiation)", ecerr.ErrModuleNotFound)
		}
		return sm, nil
	}
	mod, ok := n.doc[moduleName]
	if !ok {
		return nil, ecerr.NewStructuralError(moduleName, "resolving module type", ecerr.ErrModuleNotFound)
	}

	sm := model.NewSubModule("", moduleName)
	// Nil placeholder in the cache before recursing, so a module that
	// (incorrectly) instantiates itself fails as "not found" on the
	// recursive lookup rather than looping forever.
	n.cache[moduleName] = nil

	if err := n.populatePorts(sm, mod); err != nil {
		return nil, err
	}
	if err := n.populateMosfets(sm, mod); err != nil {
		return nil, err
	}
	if err := n.populateInstances(sm, mod); err != nil {
		return nil, err
	}

	sm.IsVCC = hasComponent(sm, "VCC")
	sm.IsGND = hasComponent(sm, "GND")

	// buildNetMaps must run while InMap/OutMap still carry the dotted
	// "instance.port" endpoints populateInstances wrote: collapsing those
	// down to bare instance names (next) is exactly the detail net
	// building needs to keep.
	if err := n.buildNetMaps(sm); err != nil {
		return nil, err
	}
	n.collapseToInstanceNames(sm)
	n.closeSymmetry(sm)

	n.cache[moduleName] = sm
	return sm, nil
}

func hasComponent(sm *model.SubModule, name string) bool {
	_, ok := sm.Get(name)
	return ok
}

// sortedKeys returns map keys sorted ascending, giving deterministic
// "declaration order" for a document whose ports/mosfets/instances are
// JSON objects (unordered) rather than arrays.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (n *Normalizer) populatePorts(sm *model.SubModule, mod *netlist.Module) error {
	for _, name := range sortedKeys(mod.Ports) {
		p := mod.Ports[name]
		var kind model.Kind
		switch p.Type {
		case "input":
			kind = model.KindInput
			sm.InputPorts = append(sm.InputPorts, name)
		case "output":
			kind = model.KindOutput
			sm.OutputPorts = append(sm.OutputPorts, name)
		case "wire":
			kind = model.KindWire
			sm.WirePorts = append(sm.WirePorts, name)
		case "power":
			kind = model.KindPower
		default:
			return ecerr.NewStructuralError(sm.ModuleName, "port "+name, fmt.Errorf("%w: unknown port type %q", ecerr.ErrMalformedInput, p.Type))
		}
		c := model.NewPrimitive(name, kind)
		sm.Add(c)
		for _, src := range p.In {
			appendUniqueStr(sm.InMap, name, src)
		}
		for _, dst := range p.Out {
			appendUniqueStr(sm.OutMap, name, dst)
		}
	}
	return nil
}

func (n *Normalizer) populateMosfets(sm *model.SubModule, mod *netlist.Module) error {
	for _, name := range sortedKeys(mod.Mosfets) {
		m := mod.Mosfets[name]
		kind := model.KindNMOS
		if m.Type == "pmos" {
			kind = model.KindPMOS
		}
		c := model.NewPrimitive(name, kind)
		c.MOS = &model.MOSPayload{Drain: m.Drain, Source: m.Source, Gate: m.Gate}
		sm.Add(c)
		sm.Mosfets = append(sm.Mosfets, name)

		appendUniqueStr(sm.InMap, name, m.Gate)
		appendUniqueStr(sm.InMap, name, m.Source)
		appendUniqueStr(sm.OutMap, name, m.Drain)
		appendUniqueStr(sm.OutMap, m.Gate, name)
		appendUniqueStr(sm.OutMap, m.Source, name)
		appendUniqueStr(sm.InMap, m.Drain, name)
	}
	return nil
}

func (n *Normalizer) populateInstances(sm *model.SubModule, mod *netlist.Module) error {
	for _, name := range sortedKeys(mod.SubModules) {
		inst := mod.SubModules[name]
		child, err := n.Normalize(inst.Module)
		if err != nil {
			return ecerr.NewStructuralError(sm.ModuleName, "instance "+name, err)
		}

		combined := combinedPorts(child)
		if len(inst.Parameters) != len(combined) {
			return ecerr.NewStructuralError(sm.ModuleName, "instance "+name,
				fmt.Errorf("%w: %d parameters given, %d input+output ports expected", ecerr.ErrMalformedInput, len(inst.Parameters), len(combined)))
		}

		if countMOS(child) < n.cfg.MinMosNum {
			inlineInstance(sm, name, child, inst.Parameters, combined)
			continue
		}

		c := &model.Component{
			Name:       name,
			Kind:       model.KindSubModule,
			ModuleName: inst.Module,
			Sub:        &model.SubModulePayload{Module: child},
		}
		sm.Add(c)

		for i, netName := range inst.Parameters {
			// endpoint names the instance's specific boundary pin, not just
			// the instance as a whole — buildNetMaps/netbuild need the pin
			// to route to, and collapseToInstanceNames flattens this back
			// down to the bare instance name for the cost-function graph.
			endpoint := name + "." + combined[i]
			if i < len(child.InputPorts) {
				appendUniqueStr(sm.OutMap, netName, endpoint)
				appendUniqueStr(sm.InMap, endpoint, netName)
			} else {
				appendUniqueStr(sm.InMap, netName, endpoint)
				appendUniqueStr(sm.OutMap, endpoint, netName)
			}
		}
	}
	return nil
}

// combinedPorts is a child module's input ports followed by its output
// ports, in the normalizer's deterministic (sorted) declaration order —
// the order spec §6 says instance parameters bind to positionally.
func combinedPorts(child *model.SubModule) []string {
	out := make([]string, 0, len(child.InputPorts)+len(child.OutputPorts))
	out = append(out, child.InputPorts...)
	out = append(out, child.OutputPorts...)
	return out
}

// countMOS recursively counts the total transistors a module type owns,
// including those inside its own non-inlined sub-module instances. This
// gates the -n / MinMosNum inlining decision (spec §6, §12).
func countMOS(sm *model.SubModule) int {
	total := len(sm.Mosfets)
	for _, c := range sm.SubInstances() {
		if c.Sub != nil {
			total += countMOS(c.Sub.Module)
		}
	}
	return total
}

// inlineInstance splices a child module's primitives directly into the
// parent under a "instance." name prefix, renaming its boundary (input and
// output) ports to the parent-level net names bound positionally by the
// instantiation's parameters. This implements the MIN_MOS_NUM inlining
// threshold (spec §6): small sub-modules never become a nested SubModule
// node at all.
func inlineInstance(sm *model.SubModule, instanceName string, child *model.SubModule, params, combined []string) {
	rename := make(map[string]string, len(combined))
	for i, local := range combined {
		rename[local] = params[i]
	}
	apply := func(name string) string {
		if r, ok := rename[name]; ok {
			return r
		}
		return instanceName + "." + name
	}

	for _, localName := range sortedKeys(child.Components) {
		src := child.Components[localName]
		newName := apply(localName)
		c := &model.Component{
			Name:       newName,
			Kind:       src.Kind,
			ModuleName: src.ModuleName,
			Width:      src.Width,
			Height:     src.Height,
		}
		if src.MOS != nil {
			c.MOS = &model.MOSPayload{
				Drain:  apply(src.MOS.Drain),
				Source: apply(src.MOS.Source),
				Gate:   apply(src.MOS.Gate),
			}
		}
		if src.Sub != nil {
			// A non-inlined grandchild instance keeps its own canonical
			// child pointer; only its wrapping name is renamed.
			c.Sub = &model.SubModulePayload{Module: src.Sub.Module}
		}
		if c.Kind == model.KindNMOS || c.Kind == model.KindPMOS {
			sm.Mosfets = append(sm.Mosfets, newName)
		}
		sm.Add(c)
	}
	for _, k := range sortedKeys(child.InMap) {
		newKey := apply(k)
		for _, v := range child.InMap[k] {
			appendUniqueStr(sm.InMap, newKey, apply(v))
		}
	}
	for _, k := range sortedKeys(child.OutMap) {
		newKey := apply(k)
		for _, v := range child.OutMap[k] {
			appendUniqueStr(sm.OutMap, newKey, apply(v))
		}
	}
}

// collapseToInstanceNames implements spec §4.1 step 6: any dotted name in
// an in/out list — as a key or as a value — whose prefix names a
// (non-inlined) sub-module instance of this SubModule is replaced by the
// bare instance name, since the cost function only needs component-level,
// not pin-level, adjacency.
func (n *Normalizer) collapseToInstanceNames(sm *model.SubModule) {
	instances := make(map[string]bool)
	for _, c := range sm.SubInstances() {
		instances[c.Name] = true
	}
	toInstance := func(name string) string {
		if prefix, _, ok := strings.Cut(name, "."); ok && instances[prefix] {
			return prefix
		}
		return name
	}
	collapse := func(m map[string][]string) {
		merged := make(map[string][]string)
		for _, k := range sortedKeys(m) {
			key := toInstance(k)
			for _, v := range m[k] {
				v = toInstance(v)
				if v == key {
					continue
				}
				appendUniqueStr(merged, key, v)
			}
		}
		for k := range m {
			delete(m, k)
		}
		for k, v := range merged {
			m[k] = v
		}
	}
	collapse(sm.InMap)
	collapse(sm.OutMap)
}

// closeSymmetry implements spec §4.1 step 7: if A is in in[B], B must be in
// out[A], and vice versa.
func (n *Normalizer) closeSymmetry(sm *model.SubModule) {
	for _, comp := range sortedKeys(sm.InMap) {
		for _, driver := range sm.InMap[comp] {
			appendUniqueStr(sm.OutMap, driver, comp)
		}
	}
	for _, comp := range sortedKeys(sm.OutMap) {
		for _, sink := range sm.OutMap[comp] {
			appendUniqueStr(sm.InMap, sink, comp)
		}
	}
}

// buildNetMaps implements spec §4.1 steps 3-4: net_in_map / net_out_map,
// forwarding endpoints through one level of sub-module boundary.
func (n *Normalizer) buildNetMaps(sm *model.SubModule) error {
	childOf := func(name string) (*model.SubModule, bool) {
		c, ok := sm.Get(name)
		if !ok || c.Sub == nil {
			return nil, false
		}
		return c.Sub.Module, true
	}
	// isPortLike admits any name worth a net of its own: one of this
	// module's own port components, or a pure net name with no local
	// component at all (e.g. an inter-instance parameter binding like
	// "mid" that only ever appears as an InMap/OutMap key). MOS devices,
	// sub-module instances, and dotted "instance.pin" references are
	// consumers/endpoints, never net keys themselves.
	isPortLike := func(name string) bool {
		if strings.Contains(name, ".") {
			return false
		}
		c, ok := sm.Get(name)
		if !ok {
			return true
		}
		switch c.Kind {
		case model.KindInput, model.KindOutput, model.KindWire, model.KindPower:
			return true
		default:
			return false
		}
	}
	isPowerNet := func(name string) bool {
		return name == "VCC" || name == "GND"
	}

	for _, comp := range sortedKeys(sm.InMap) {
		if !isPortLike(comp) {
			continue
		}
		seen := make(map[string]bool)
		for _, raw := range sm.InMap[comp] {
			resolved := resolveInSource(raw, childOf)
			if resolved == comp || seen[resolved] {
				continue
			}
			seen[resolved] = true
			sm.NetInMap[comp] = append(sm.NetInMap[comp], resolved)
		}
	}
	for _, comp := range sortedKeys(sm.OutMap) {
		if !isPortLike(comp) {
			continue
		}
		seen := make(map[string]bool)
		for _, raw := range sm.OutMap[comp] {
			resolved, err := resolveOutTarget(raw, childOf, isPowerNet(comp))
			if err != nil {
				return ecerr.NewStructuralError(sm.ModuleName, "net "+comp, err)
			}
			if resolved == comp || seen[resolved] {
				continue
			}
			seen[resolved] = true
			sm.NetOutMap[comp] = append(sm.NetOutMap[comp], resolved)
		}
	}
	return nil
}

// resolveInSource implements the step-3 one-hop unwrap: a dotted
// "instance.mos" source is replaced by "instance.<mos drain>", the
// signal-producing terminal. A dotted reference to a plain child port is
// left as-is — it already names a usable pin.
func resolveInSource(raw string, childOf func(string) (*model.SubModule, bool)) string {
	instance, suffix, ok := strings.Cut(raw, ".")
	if !ok {
		return raw
	}
	child, ok := childOf(instance)
	if !ok {
		return raw
	}
	mos, ok := child.Get(suffix)
	if !ok || (mos.Kind != model.KindNMOS && mos.Kind != model.KindPMOS) {
		return raw
	}
	return instance + "." + mos.MOS.Drain
}

// resolveOutTarget implements the step-4 symmetric unwrap: a dotted
// "instance.mos" target is replaced by whichever of the MOS's source/gate
// terminal is kind=input in the child (kind=power also accepted for
// VCC/GND nets). Neither being a valid consumer terminal is a fatal model
// error per spec §4.1 step 4.
func resolveOutTarget(raw string, childOf func(string) (*model.SubModule, bool), powerNet bool) (string, error) {
	instance, suffix, ok := strings.Cut(raw, ".")
	if !ok {
		return raw, nil
	}
	child, ok := childOf(instance)
	if !ok {
		return raw, nil
	}
	mos, ok := child.Get(suffix)
	if !ok || (mos.Kind != model.KindNMOS && mos.Kind != model.KindPMOS) {
		return raw, nil
	}
	accepts := func(portName string) bool {
		p, ok := child.Get(portName)
		if !ok {
			return false
		}
		if p.Kind == model.KindInput {
			return true
		}
		return powerNet && p.Kind == model.KindPower
	}
	switch {
	case accepts(mos.MOS.Source):
		return instance + "." + mos.MOS.Source, nil
	case accepts(mos.MOS.Gate):
		return instance + "." + mos.MOS.Gate, nil
	default:
		return "", fmt.Errorf("%w: %s.%s source=%s gate=%s", ecerr.ErrBadForward, instance, suffix, mos.MOS.Source, mos.MOS.Gate)
	}
}

func appendUniqueStr(m map[string][]string, key, val string) {
	if val == "" {
		return
	}
	for _, v := range m[key] {
		if v == val {
			return
		}
	}
	m[key] = append(m[key], val)
}

// WarnUnresolved logs (but does not fail on) a driver/sink name that could
// not be found in a SubModule's component arena — spec §7.2's recoverable
// warning class. Nothing in this repository calls it: pkg/anneal and
// pkg/netbuild log their unresolved names through util.WithFields.
func WarnUnresolved(moduleName, context, name string) {
	util.Logger.WithFields(map[string]interface{}{
		"module":  moduleName,
		"context": context,
	}).Warnf("unresolved reference %q", name)
}
