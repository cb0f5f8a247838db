// Package netlist defines the input netlist document (spec §6): the
// language-neutral JSON document produced by the external Verilog-like
// lexer/parser and consumed by the normalizer. Parsing that source
// language is out of scope (spec §1) — this package only models and loads
// its already-parsed output.
package netlist

// Document is the top-level input keyed by module name.
type Document map[string]*Module

// Module describes one netlist module: its ports, its MOS devices, and the
// sub-module instances it contains.
type Module struct {
	Ports      map[string]*Port      `json:"ports"`
	Mosfets    map[string]*Mosfet    `json:"mosfets"`
	SubModules map[string]*Instance  `json:"subModules"`
}

// Port's Type is one of "input", "output", "wire", "power". In/Out list the
// raw driver/sink names as produced by the parser, including dotted
// "instance.pin" references into sub-module instances.
type Port struct {
	Type string   `json:"type"`
	In   []string `json:"in,omitempty"`
	Out  []string `json:"out,omitempty"`
}

// Mosfet's Type is "nmos" or "pmos". Drain/Source/Gate name ports within
// the same module.
type Mosfet struct {
	Type   string `json:"type"`
	Drain  string `json:"drain"`
	Source string `json:"source"`
	Gate   string `json:"gate"`
}

// Instance is a sub-module instantiation. Parameters map positionally to
// the referenced module's input+output ports in declaration order.
type Instance struct {
	Module     string   `json:"module"`
	Parameters []string `json:"parameters"`
}
