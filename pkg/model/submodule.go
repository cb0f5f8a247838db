package model

// SubModule is a container node in the hierarchy: an instantiated module
// type holding its own primitives, its own sub-module instances, and the
// adjacency and net-forwarding maps the normalizer derives for it.
//
// All cross-references inside a SubModule — MOS terminal names, in/out
// adjacency, net endpoint strings — are name lookups into Components, never
// pointers. This keeps the arena (Components) the single owner and avoids
// the reference cycles the raw netlist naturally has between a component
// and the ports it drives.
type SubModule struct {
	Name       string // instance name ("" for the root)
	ModuleName string // type name

	InputPorts  []string
	OutputPorts []string
	WirePorts   []string
	Mosfets     []string

	// Components is the owning arena: every primitive and sub-module
	// instance directly inside this SubModule, keyed by name.
	Components map[string]*Component

	// InMap[c] / OutMap[c] list the names of components that drive c / that
	// c drives, after one level of hierarchy unwrapping (§4.1 step 6-7).
	InMap  map[string][]string
	OutMap map[string][]string

	// NetInMap[net] / NetOutMap[net] list external-visible endpoint names
	// for a net, forwarded through sub-module boundaries. An endpoint is
	// either a local primitive name or a dotted "instance.pin" string.
	NetInMap  map[string][]string
	NetOutMap map[string][]string

	Grid *RoutingGrid
	Nets []*Net

	IsVCC bool
	IsGND bool
}

// NewSubModule creates an empty SubModule arena.
func NewSubModule(name, moduleName string) *SubModule {
	return &SubModule{
		Name:       name,
		ModuleName: moduleName,
		Components: make(map[string]*Component),
		InMap:      make(map[string][]string),
		OutMap:     make(map[string][]string),
		NetInMap:   make(map[string][]string),
		NetOutMap:  make(map[string][]string),
	}
}

// Add inserts a component into the arena, indexed by name.
func (s *SubModule) Add(c *Component) {
	s.Components[c.Name] = c
}

// Get looks up a component by name.
func (s *SubModule) Get(name string) (*Component, bool) {
	c, ok := s.Components[name]
	return c, ok
}

// Primitives returns every direct component that is not a sub-module
// instance, in map order (callers that need determinism should sort by
// name themselves).
func (s *SubModule) Primitives() []*Component {
	out := make([]*Component, 0, len(s.Components))
	for _, c := range s.Components {
		if c.Kind != KindSubModule {
			out = append(out, c)
		}
	}
	return out
}

// SubInstances returns every direct sub-module instance component.
func (s *SubModule) SubInstances() []*Component {
	out := make([]*Component, 0)
	for _, c := range s.Components {
		if c.Kind == KindSubModule {
			out = append(out, c)
		}
	}
	return out
}

// AddSymmetric records that driver drives sink (driver -> sink), and closes
// the relation under symmetry: sink appears in OutMap[driver] and driver
// appears in InMap[sink], per §4.1 step 7. It also records the same edge in
// NetInMap/NetOutMap: a direct AddSymmetric call has no hierarchy boundary
// to preserve a dotted endpoint across, so the net-level and cost-level
// adjacency coincide.
func (s *SubModule) AddSymmetric(driver, sink string) {
	appendUnique(s.OutMap, driver, sink)
	appendUnique(s.InMap, sink, driver)
	appendUnique(s.NetOutMap, driver, sink)
	appendUnique(s.NetInMap, sink, driver)
}

func appendUnique(m map[string][]string, key, val string) {
	for _, v := range m[key] {
		if v == val {
			return
		}
	}
	m[key] = append(m[key], val)
}
