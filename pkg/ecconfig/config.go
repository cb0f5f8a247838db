// Package ecconfig holds the pipeline's tunable constants as a single
// explicit value, replacing the original implementation's process-wide
// mutable globals (spec §9, "Global mutable defaults"). A *Config is
// created once by cmd/edacore and threaded through every stage; nothing in
// this repository reads a package-level variable for these constants.
package ecconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries every compile-time constant named in spec §6, plus the
// run-size knobs exposed on the CLI (spec §6's -n/-t/-c/-i flags).
type Config struct {
	MaxLayer      int     `yaml:"max_layer"`
	MaxMetalLayer int     `yaml:"max_metal_layer"`
	MinMosNum     int     `yaml:"min_mos_num"`
	MaxPerLayer   int     `yaml:"max_per_layer"` // retained, unenforced (spec §9)
	CoolingRate   float64 `yaml:"cooling_rate"`
	MinTemp       float64 `yaml:"min_temp"`
	InitTemp      float64 `yaml:"init_temp"`
	SAStepsPerT   int     `yaml:"sa_steps"`
	OuterIters    int     `yaml:"outer_iters"` // cap on outer cooling iterations (0 = unbounded, run until MinTemp)
	SizeWeight    float64 `yaml:"size_weight"`
	InMatter      float64 `yaml:"in_matter"`
	OutMatter     float64 `yaml:"out_matter"`
	ViaCost       int     `yaml:"via_cost"`
	LayerCost     int     `yaml:"layer_cost"`
	RipUpPasses   int     `yaml:"rip_up_passes"`
}

// Default returns the compile-time defaults from spec §6.
func Default() *Config {
	return &Config{
		MaxLayer:      3,
		MaxMetalLayer: 10,
		MinMosNum:     20,
		MaxPerLayer:   100,
		CoolingRate:   0.98,
		MinTemp:       1e-5,
		InitTemp:      1e5,
		SAStepsPerT:   1000,
		OuterIters:    0,
		SizeWeight:    1e6,
		InMatter:      1.5,
		OutMatter:     0.1,
		ViaCost:       100,
		LayerCost:     10000,
		RipUpPasses:   10,
	}
}

// Load reads a YAML file of overrides on top of Default. A missing file is
// not an error — it returns the defaults unchanged, matching the settings
// package's "absent means defaults" convention.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
