// Package config holds the runtime settings of the swarm command.
package config

import (
	"os"
	"slices"
	"time"

	jlconfig "github.com/JeremyLoy/config"
	"github.com/pkg/errors"

	"github.com/plus3/swarm/swarm"
)

// Surfaces a frame loop can present to.
const (
	SurfaceEbiten   = "ebiten"
	SurfaceTerminal = "terminal"
	SurfaceHeadless = "headless"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is loaded from defaults, then a KEY=VALUE file, then the environment.
// Every field can be set with the environment variable named in its tag.
type Config struct {
	GridWidth   int     `config:"SWARM_GRID_WIDTH"`
	GridHeight  int     `config:"SWARM_GRID_HEIGHT"`
	GridSpacing float64 `config:"SWARM_GRID_SPACING"`
	GridGap     float64 `config:"SWARM_GRID_GAP"`
	GridZ       float64 `config:"SWARM_GRID_Z"`
	StepRate    float64 `config:"SWARM_STEP_RATE"`

	// InstanceCapacity bounds the number of entities drawn per frame.
	InstanceCapacity int `config:"SWARM_INSTANCE_CAPACITY"`

	WindowWidth  int    `config:"SWARM_WINDOW_WIDTH"`
	WindowHeight int    `config:"SWARM_WINDOW_HEIGHT"`
	Surface      string `config:"SWARM_SURFACE"`
	Pipelined    bool   `config:"SWARM_PIPELINED"`
	DebugUI      bool   `config:"SWARM_DEBUG_UI"`

	// Frames stops the loop after that many ticks; zero runs until quit.
	Frames         int `config:"SWARM_FRAMES"`
	ReportWindowMs int `config:"SWARM_REPORT_WINDOW_MS"`

	LogLevel  string `config:"SWARM_LOG_LEVEL"`
	LogFormat string `config:"SWARM_LOG_FORMAT"`
	Profile   string `config:"SWARM_PROFILE"`
}

// Default returns the settings of the stock 100x100 swarm.
func Default() Config {
	grid := swarm.DefaultGrid()
	return Config{
		GridWidth:        grid.Width,
		GridHeight:       grid.Height,
		GridSpacing:      float64(grid.Spacing),
		GridGap:          float64(grid.Gap),
		GridZ:            float64(grid.Z),
		StepRate:         float64(grid.Step),
		InstanceCapacity: 1000 * 1000,
		WindowWidth:      1024,
		WindowHeight:     768,
		Surface:          SurfaceEbiten,
		ReportWindowMs:   1000,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Load overlays path (when not empty) and then the environment onto Default.
func Load(path string) (Config, error) {
	cfg := Default()

	var builder *jlconfig.Builder
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return cfg, errors.Wrapf(err, "config file %s", path)
		}
		builder = jlconfig.From(path).FromEnv()
	} else {
		builder = jlconfig.FromEnv()
	}

	if err := builder.To(&cfg); err != nil {
		return cfg, errors.Wrap(err, "load config")
	}
	return cfg, nil
}

// Validate checks that the settings describe a runnable swarm.
func (c Config) Validate() error {
	switch {
	case c.GridWidth <= 0 || c.GridHeight <= 0:
		return errors.Wrapf(ErrInvalid, "grid %dx%d", c.GridWidth, c.GridHeight)
	case c.GridSpacing < 0 || c.GridGap < 0:
		return errors.Wrapf(ErrInvalid, "grid spacing %v gap %v", c.GridSpacing, c.GridGap)
	case c.StepRate <= 0:
		return errors.Wrapf(ErrInvalid, "step rate %v", c.StepRate)
	case c.InstanceCapacity <= 0:
		return errors.Wrapf(ErrInvalid, "instance capacity %d", c.InstanceCapacity)
	case c.WindowWidth <= 0 || c.WindowHeight <= 0:
		return errors.Wrapf(ErrInvalid, "window %dx%d", c.WindowWidth, c.WindowHeight)
	case !slices.Contains([]string{SurfaceEbiten, SurfaceTerminal, SurfaceHeadless}, c.Surface):
		return errors.Wrapf(ErrInvalid, "surface %q", c.Surface)
	case c.Frames < 0:
		return errors.Wrapf(ErrInvalid, "frames %d", c.Frames)
	case c.ReportWindowMs <= 0:
		return errors.Wrapf(ErrInvalid, "report window %dms", c.ReportWindowMs)
	case c.Profile != "" && c.Profile != "cpu" && c.Profile != "mem":
		return errors.Wrapf(ErrInvalid, "profile %q", c.Profile)
	case c.DebugUI && c.Surface != SurfaceEbiten:
		return errors.Wrapf(ErrInvalid, "debug ui needs the %s surface", SurfaceEbiten)
	}
	return nil
}

// Grid returns the grid layout described by the settings.
func (c Config) Grid() swarm.GridConfig {
	return swarm.GridConfig{
		Width:   c.GridWidth,
		Height:  c.GridHeight,
		Spacing: float32(c.GridSpacing),
		Gap:     float32(c.GridGap),
		Z:       float32(c.GridZ),
		Step:    float32(c.StepRate),
	}
}

// ReportWindow returns the frame clock window.
func (c Config) ReportWindow() time.Duration {
	return time.Duration(c.ReportWindowMs) * time.Millisecond
}

// Aspect returns the window aspect ratio.
func (c Config) Aspect() float32 {
	return float32(c.WindowWidth) / float32(c.WindowHeight)
}
