package config

import (
	"flag"
	"io"
)

// Flags holds command-line overrides. Zero values mean "not set".
type Flags struct {
	Config string
	Input  string
	Output string
	Budget int
	Slots  int
	Debug  bool
}

// ParseFlags parses args with a dedicated flag set.
func ParseFlags(name string, args []string, output io.Writer) (*Flags, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.StringVar(&f.Input, "input", "", "Input glTF/GLB model")
	fs.StringVar(&f.Output, "output", "", "Output directory for tiles and tileset")
	fs.IntVar(&f.Budget, "budget", 0, "Maximum polygons per terminal tile")
	fs.IntVar(&f.Slots, "slots", 0, "Concurrent LOD tasks")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if f.Input == "" && fs.NArg() > 0 {
		f.Input = fs.Arg(0)
	}
	return f, nil
}

// ConfigPath returns the explicit config path, if any.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return f.Config
}

// applyFlags applies CLI overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Input != "" {
		cfg.Output.Input = f.Input
	}
	if f.Output != "" {
		cfg.Output.Dir = f.Output
	}
	if f.Budget > 0 {
		cfg.Tiling.PolygonBudget = f.Budget
	}
	if f.Slots > 0 {
		cfg.Scheduler.Slots = f.Slots
	}
}
