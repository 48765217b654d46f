// Package logging builds the process logger.
package logging

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/plus3/swarm/ecs"
)

// Logger is a zerolog logger that also knows how to describe the entity
// storage and the scheduled systems.
type Logger struct {
	*zerolog.Logger
}

// New returns a logger writing to w. format is "text" or "json"; level is one
// of trace, debug, info, warn or error.
func New(w io.Writer, format, level string) (*Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		return nil, errors.Errorf("log level %q", level)
	}

	switch strings.ToLower(format) {
	case "", "text":
		w = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "15:04:05.000"}
	case "json":
	default:
		return nil, errors.Errorf("unknown log format %q", format)
	}

	zl := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return &Logger{&zl}, nil
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	zl := zerolog.Nop()
	return &Logger{&zl}
}

// WithRun returns a child logger carrying the run id on every line.
func (l *Logger) WithRun(runID string) *Logger {
	zl := l.Logger.With().Str("run_id", runID).Logger()
	return &Logger{&zl}
}

// LogStorage logs the archetypes and singletons held by a storage.
func (l *Logger) LogStorage(level zerolog.Level, msg string, stats ecs.StorageStats) {
	archetypes := zerolog.Arr()
	for _, arch := range stats.ArchetypeBreakdown {
		archetypes = archetypes.Dict(zerolog.Dict().
			Uint32("archetype_id", arch.ID).
			Strs("components", arch.ComponentTypes).
			Int("entities", arch.EntityCount))
	}
	l.WithLevel(level).
		Int("total_entities", stats.TotalEntityCount).
		Array("archetypes", archetypes).
		Strs("singletons", stats.SingletonTypes).
		Msg(msg)
}

// LogSystems logs the registered systems and the phase each runs in.
func (l *Logger) LogSystems(level zerolog.Level, msg string, stats *ecs.SchedulerStats) {
	systems := zerolog.Arr()
	for _, s := range stats.Systems {
		systems = systems.Dict(zerolog.Dict().
			Str("name", s.Name).
			Stringer("phase", s.Phase))
	}
	l.WithLevel(level).
		Int("total_systems", stats.SystemCount).
		Array("systems", systems).
		Msg(msg)
}
