package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/plus3/swarm/internal/config"
)

// flagFields copies the value of a flag from the parsed flag set into the
// loaded config. Only flags given on the command line override the file and
// environment.
var flagFields = map[string]func(dst *config.Config, src config.Config){
	"grid-width":       func(d *config.Config, s config.Config) { d.GridWidth = s.GridWidth },
	"grid-height":      func(d *config.Config, s config.Config) { d.GridHeight = s.GridHeight },
	"grid-spacing":     func(d *config.Config, s config.Config) { d.GridSpacing = s.GridSpacing },
	"grid-gap":         func(d *config.Config, s config.Config) { d.GridGap = s.GridGap },
	"step":             func(d *config.Config, s config.Config) { d.StepRate = s.StepRate },
	"capacity":         func(d *config.Config, s config.Config) { d.InstanceCapacity = s.InstanceCapacity },
	"width":            func(d *config.Config, s config.Config) { d.WindowWidth = s.WindowWidth },
	"height":           func(d *config.Config, s config.Config) { d.WindowHeight = s.WindowHeight },
	"surface":          func(d *config.Config, s config.Config) { d.Surface = s.Surface },
	"pipelined":        func(d *config.Config, s config.Config) { d.Pipelined = s.Pipelined },
	"debug-ui":         func(d *config.Config, s config.Config) { d.DebugUI = s.DebugUI },
	"frames":           func(d *config.Config, s config.Config) { d.Frames = s.Frames },
	"report-window-ms": func(d *config.Config, s config.Config) { d.ReportWindowMs = s.ReportWindowMs },
	"log-level":        func(d *config.Config, s config.Config) { d.LogLevel = s.LogLevel },
	"log-format":       func(d *config.Config, s config.Config) { d.LogFormat = s.LogFormat },
	"profile":          func(d *config.Config, s config.Config) { d.Profile = s.Profile },
}

// settings are the config flags shared by every command.
type settings struct {
	path    string
	flagged config.Config
}

func newSettings(f *pflag.FlagSet) *settings {
	s := &settings{flagged: config.Default()}
	c := &s.flagged
	f.StringVar(&s.path, "config", "", "KEY=VALUE settings file")
	f.IntVar(&c.GridWidth, "grid-width", c.GridWidth, "entities per grid row")
	f.IntVar(&c.GridHeight, "grid-height", c.GridHeight, "grid rows")
	f.Float64Var(&c.GridSpacing, "grid-spacing", c.GridSpacing, "distance between grid targets")
	f.Float64Var(&c.GridGap, "grid-gap", c.GridGap, "extra space between grid targets")
	f.Float64Var(&c.StepRate, "step", c.StepRate, "distance an entity moves per frame")
	f.IntVar(&c.InstanceCapacity, "capacity", c.InstanceCapacity, "instances drawn per frame")
	f.IntVar(&c.WindowWidth, "width", c.WindowWidth, "window width")
	f.IntVar(&c.WindowHeight, "height", c.WindowHeight, "window height")
	f.StringVar(&c.Surface, "surface", c.Surface, "ebiten, terminal or headless")
	f.BoolVar(&c.Pipelined, "pipelined", c.Pipelined, "present on a second goroutine")
	f.BoolVar(&c.DebugUI, "debug-ui", c.DebugUI, "show the ImGui debug overlay")
	f.IntVar(&c.Frames, "frames", c.Frames, "stop after this many frames, 0 runs until quit")
	f.IntVar(&c.ReportWindowMs, "report-window-ms", c.ReportWindowMs, "frame statistics window")
	f.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	f.StringVar(&c.LogFormat, "log-format", c.LogFormat, "text or json")
	f.StringVar(&c.Profile, "profile", c.Profile, "write a cpu or mem profile to the working directory")
	return s
}

// load reads the config file and environment, then applies the flags given
// to cmd.
func (s *settings) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(s.path)
	if err != nil {
		return cfg, err
	}
	for name, set := range flagFields {
		if cmd.Flags().Changed(name) {
			set(&cfg, s.flagged)
		}
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	var s *settings

	cmd := &cobra.Command{
		Use:   "swarm",
		Short: "Animate a grid of cubes converging on their targets",
		Long: `swarm seeds a grid of entities and moves each one a fixed step toward its
target every frame. Frames are recorded into a double-buffered pipeline and
presented by the selected surface.

Settings come from defaults, then --config, then SWARM_* environment
variables, then flags.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := s.load(cmd)
			if err == nil {
				err = cfg.Validate()
			}
			if err == nil {
				err = run(cmd.Context(), cfg, cmd.ErrOrStderr())
			}
			if err != nil {
				cmd.PrintErrln("swarm:", err)
			}
			return err
		},
	}

	s = newSettings(cmd.PersistentFlags())
	cmd.AddCommand(newBenchCmd(s))
	return cmd
}
