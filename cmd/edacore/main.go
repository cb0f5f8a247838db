// edacore places and routes a flattened transistor-level netlist into an
// absolute-coordinate layout and a set of routed nets.
//
// Usage:
//
//	edacore -f netlist.json -m top_module [-n min_mos] [-t sa_steps] \
//	        [-c outer_iters] [-i init_temp] [-l layout.json] [-r routes.json]
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/siliconforge/edacore/pkg/cli"
	"github.com/siliconforge/edacore/pkg/ecconfig"
	"github.com/siliconforge/edacore/pkg/emit"
	"github.com/siliconforge/edacore/pkg/layout"
	"github.com/siliconforge/edacore/pkg/netlist"
	"github.com/siliconforge/edacore/pkg/settings"
	"github.com/siliconforge/edacore/pkg/util"
	"github.com/siliconforge/edacore/pkg/version"
)

// flags holds the raw -f/-m/-n/-t/-c/-i/-l/-r values (spec §6).
type flags struct {
	file       string
	module     string
	minMos     int
	saSteps    int
	outerIters int
	initTemp   float64
	layoutOut  string
	routesOut  string
	verbose    bool
	quiet      bool
}

func main() {
	f := &flags{}

	root := &cobra.Command{
		Use:           "edacore",
		Short:         "Place and route a flattened transistor-level netlist",
		Version:       fmt.Sprintf("%s (%s)", version.Version, version.GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f)
		},
	}

	root.Flags().StringVarP(&f.file, "file", "f", "", "input netlist JSON document (required)")
	root.Flags().StringVarP(&f.module, "module", "m", "", "top-level module name to place and route (required)")
	root.Flags().IntVarP(&f.minMos, "min-mos", "n", 0, "sub-modules with fewer MOS devices are inlined rather than instantiated")
	root.Flags().IntVarP(&f.saSteps, "sa-steps", "t", 0, "simulated-annealing inner steps per outer cooling iteration")
	root.Flags().IntVarP(&f.outerIters, "outer-iters", "c", 0, "cap on outer cooling iterations (0 = unbounded, run until MIN_TEMP)")
	root.Flags().Float64VarP(&f.initTemp, "init-temp", "i", 0, "starting annealing temperature")
	root.Flags().StringVarP(&f.layoutOut, "layout-out", "l", "", "output path for the layout document")
	root.Flags().StringVarP(&f.routesOut, "routes-out", "r", "", "output path for the routes document")
	root.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "enable debug-level logging")
	root.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "suppress the annealing progress bar")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.Red("error:"), err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, f *flags) error {
	if f.verbose {
		if err := util.SetLogLevel("debug"); err != nil {
			return fmt.Errorf("setting log level: %w", err)
		}
	}

	if f.file == "" || f.module == "" {
		return fmt.Errorf("-f and -m are both required (see -h)")
	}

	sett, err := settings.Load()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	cfg, err := ecconfig.Load(filepath.Join(sett.GetConfigDir(), "config.yaml"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applySettingsDefaults(cfg, sett)
	applyFlagOverrides(cmd, f, cfg)

	doc, err := netlist.Load(f.file)
	if err != nil {
		return fmt.Errorf("loading netlist: %w", err)
	}

	bar := cli.NewProgressBar(f.module)
	if f.quiet {
		bar.Quiet()
	}

	engine := layout.NewEngine(cfg, 1, nil)
	engine.OnProgress = func(percent int, temp float64) {
		bar.Tick(percent, temp)
	}
	engine.OnRouting = func(moduleName string) {
		cli.Phase(os.Stdout, moduleName)
	}
	engine.OnPass = func(pass, max, ripped int) {
		cli.Pass(os.Stdout, pass, max, ripped)
	}

	top, err := engine.Layout(doc, f.module)
	if err != nil {
		return fmt.Errorf("%s: %w", f.module, err)
	}
	bar.Done()

	layoutPath := outputPath(f.layoutOut, sett.DefaultOutDir, "layout.json")
	routesPath := outputPath(f.routesOut, sett.DefaultOutDir, "routes.json")

	layoutData, err := emit.MarshalLayout(top)
	if err != nil {
		return fmt.Errorf("rendering layout document: %w", err)
	}
	if err := os.WriteFile(layoutPath, layoutData, 0644); err != nil {
		return fmt.Errorf("writing layout document: %w", err)
	}

	routesData, err := emit.MarshalRoutes(top)
	if err != nil {
		return fmt.Errorf("rendering routes document: %w", err)
	}
	if err := os.WriteFile(routesPath, routesData, 0644); err != nil {
		return fmt.Errorf("writing routes document: %w", err)
	}

	fmt.Printf("%s layout  %s\n", cli.Green("wrote"), layoutPath)
	fmt.Printf("%s routes  %s\n", cli.Green("wrote"), routesPath)
	return nil
}

// applySettingsDefaults layers the user's persistent preferences over
// the compile-time/config-file defaults, below CLI flags (spec §6,
// §10.4's layering order).
func applySettingsDefaults(cfg *ecconfig.Config, sett *settings.Settings) {
	if sett.DefaultSASteps > 0 {
		cfg.SAStepsPerT = sett.DefaultSASteps
	}
	if sett.DefaultInitTemp > 0 {
		cfg.InitTemp = sett.DefaultInitTemp
	}
	if sett.DefaultMinMos > 0 {
		cfg.MinMosNum = sett.DefaultMinMos
	}
}

// applyFlagOverrides applies only the flags the user actually passed, so
// an unset flag falls through to the settings/config-file layer instead
// of silently resetting it to the zero value.
func applyFlagOverrides(cmd *cobra.Command, f *flags, cfg *ecconfig.Config) {
	changed := cmd.Flags().Changed
	if changed("min-mos") {
		cfg.MinMosNum = f.minMos
	}
	if changed("sa-steps") {
		cfg.SAStepsPerT = f.saSteps
	}
	if changed("outer-iters") {
		cfg.OuterIters = f.outerIters
	}
	if changed("init-temp") {
		cfg.InitTemp = f.initTemp
	}
}

func outputPath(flagValue, defaultDir, filename string) string {
	if flagValue != "" {
		return flagValue
	}
	if defaultDir != "" {
		return filepath.Join(defaultDir, filename)
	}
	return filename
}
