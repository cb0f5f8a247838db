package netlist

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/siliconforge/edacore/pkg/ecerr"
)

// Load reads and validates a netlist document from path, matching spec
// §7.1's "unreadable or malformed input" fatal class. An unreadable file
// is returned as a wrapped read error and malformed JSON as an
// ecerr.StructuralError wrapping ecerr.ErrMalformedInput; per-entry
// problems (an empty module, port, mosfet or instance definition, an
// unknown port or mosfet type, a missing terminal name, an instance with
// no module reference) are reported together as one
// ecerr.ValidationError. A module with no ports is accepted.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading netlist %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates netlist JSON already read into memory.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, ecerr.NewStructuralError("netlist", "decoding document", fmt.Errorf("%w: %v", ecerr.ErrMalformedInput, err))
	}

	var v ecerr.ValidationBuilder
	for name, mod := range doc {
		v.Addf(mod != nil, "module %q: empty definition", name)
		if mod == nil {
			continue
		}
		for pname, p := range mod.Ports {
			v.Addf(p != nil, "module %q: port %q: empty definition", name, pname)
			if p == nil {
				continue
			}
			switch p.Type {
			case "input", "output", "wire", "power":
			default:
				v.Addf(false, "module %q: port %q: unknown type %q", name, pname, p.Type)
			}
		}
		for mname, m := range mod.Mosfets {
			v.Addf(m != nil, "module %q: mosfet %q: empty definition", name, mname)
			if m == nil {
				continue
			}
			v.Addf(m.Type == "nmos" || m.Type == "pmos", "module %q: mosfet %q: unknown type %q", name, mname, m.Type)
			v.Addf(m.Drain != "" && m.Source != "" && m.Gate != "", "module %q: mosfet %q: missing terminal name", name, mname)
		}
		for iname, inst := range mod.SubModules {
			v.Addf(inst != nil, "module %q: instance %q: empty definition", name, iname)
			if inst == nil {
				continue
			}
			v.Addf(inst.Module != "", "module %q: instance %q: missing module reference", name, iname)
		}
	}
	if v.HasErrors() {
		return nil, v.Build()
	}
	return doc, nil
}
