package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/swarm/ecs"
	"github.com/plus3/swarm/internal/logging"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "json", "warn")
	require.NoError(t, err)

	logger.Info().Msg("dropped")
	logger.Warn().Int("frames", 3).Msg("kept")

	line := decode(t, &buf)
	assert.Equal(t, "kept", line[zerolog.MessageFieldName])
	assert.Equal(t, "warn", line[zerolog.LevelFieldName])
	assert.Equal(t, float64(3), line["frames"])

	buf.Reset()
	logger, err = logging.New(&buf, "text", "DEBUG")
	require.NoError(t, err)
	logger.Debug().Str("surface", "headless").Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "surface=headless")
	assert.NotContains(t, buf.String(), "{")

	_, err = logging.New(&buf, "xml", "info")
	assert.Error(t, err)
	_, err = logging.New(&buf, "text", "loud")
	assert.Error(t, err)
	_, err = logging.New(&buf, "text", "")
	assert.Error(t, err)
}

func TestWithRun(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "json", "info")
	require.NoError(t, err)

	logger.WithRun("run-1").Info().Msg("tagged")
	assert.Equal(t, "run-1", decode(t, &buf)["run_id"])

	buf.Reset()
	logger.Info().Msg("untagged")
	assert.NotContains(t, decode(t, &buf), "run_id")
}

func TestDiscard(t *testing.T) {
	logger := logging.Discard()
	assert.NotPanics(t, func() {
		logger.Error().Msg("nowhere")
		logger.WithRun("x").Info().Msg("nowhere")
		logger.LogSystems(zerolog.InfoLevel, "nowhere", &ecs.SchedulerStats{})
	})
}

func TestLogStorageAndSystems(t *testing.T) {
	type Position struct{ X float32 }

	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	storage := ecs.NewStorage(registry)
	storage.Spawn(Position{X: 1})
	storage.Spawn(Position{X: 2})

	var buf bytes.Buffer
	logger, err := logging.New(&buf, "json", "debug")
	require.NoError(t, err)

	logger.LogStorage(zerolog.DebugLevel, "layout", storage.CollectStats())
	line := decode(t, &buf)
	assert.Equal(t, "layout", line[zerolog.MessageFieldName])
	assert.Equal(t, float64(2), line["total_entities"])
	archetypes := line["archetypes"].([]any)
	require.Len(t, archetypes, 1)
	arch := archetypes[0].(map[string]any)
	assert.Equal(t, float64(0), arch["archetype_id"])
	assert.Equal(t, float64(2), arch["entities"])

	buf.Reset()
	scheduler := ecs.NewScheduler(storage)
	require.NoError(t, scheduler.Register(ecs.System{
		Name:  "noop",
		Phase: ecs.Present,
		Run:   func(*ecs.UpdateFrame) error { return nil },
	}))
	logger.LogSystems(zerolog.InfoLevel, "systems", scheduler.GetStats())
	line = decode(t, &buf)
	assert.Equal(t, float64(1), line["total_systems"])
	system := line["systems"].([]any)[0].(map[string]any)
	assert.Equal(t, "noop", system["name"])
	assert.Equal(t, "present", system["phase"])
}
