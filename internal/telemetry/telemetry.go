// Package telemetry keeps frame metrics in memory.
package telemetry

import (
	"time"

	metrics "github.com/armon/go-metrics"
)

// Metric keys, without the service prefix.
var (
	KeyFrames    = []string{"frames"}
	KeyFrameMs   = []string{"frame_ms"}
	KeyInstances = []string{"instances"}
	KeyDropped   = []string{"instances", "dropped"}
)

// Telemetry is a go-metrics instance backed by an in-memory sink.
type Telemetry struct {
	*metrics.Metrics
	service string
	sink    *metrics.InmemSink
}

// New creates metrics for service. Intervals of the given length are kept for
// retain before being discarded.
func New(service string, interval, retain time.Duration) (*Telemetry, error) {
	sink := metrics.NewInmemSink(interval, retain)

	cfg := metrics.DefaultConfig(service)
	cfg.EnableHostname = false
	cfg.EnableRuntimeMetrics = false

	m, err := metrics.New(cfg, sink)
	if err != nil {
		return nil, err
	}
	return &Telemetry{Metrics: m, service: service, sink: sink}, nil
}

// Snapshot is the aggregate of the retained intervals.
type Snapshot struct {
	Frames      int
	FrameMs     metrics.AggregateSample
	Instances   float32
	Dropped     float32
	IntervalCnt int
}

// Snapshot sums counters and samples over all retained intervals. Gauges hold
// their most recent value.
func (t *Telemetry) Snapshot() Snapshot {
	var snap Snapshot
	frames := t.name(KeyFrames)
	frameMs := t.name(KeyFrameMs)
	instances := t.name(KeyInstances)
	dropped := t.name(KeyDropped)

	for _, interval := range t.sink.Data() {
		snap.IntervalCnt++
		interval.RLock()
		if c, ok := interval.Counters[frames]; ok {
			snap.Frames += c.Count
		}
		if s, ok := interval.Samples[frameMs]; ok {
			merge(&snap.FrameMs, s.AggregateSample)
		}
		if g, ok := interval.Gauges[instances]; ok {
			snap.Instances = g.Value
		}
		if g, ok := interval.Gauges[dropped]; ok {
			snap.Dropped = g.Value
		}
		interval.RUnlock()
	}
	return snap
}

func (t *Telemetry) name(key []string) string {
	full := append([]string{t.service}, key...)
	name := full[0]
	for _, part := range full[1:] {
		name += "." + part
	}
	return name
}

func merge(into *metrics.AggregateSample, from *metrics.AggregateSample) {
	if from == nil || from.Count == 0 {
		return
	}
	if into.Count == 0 {
		into.Min, into.Max = from.Min, from.Max
	} else {
		into.Min = min(into.Min, from.Min)
		into.Max = max(into.Max, from.Max)
	}
	into.Count += from.Count
	into.Sum += from.Sum
	into.SumSq += from.SumSq
	if from.LastUpdated.After(into.LastUpdated) {
		into.LastUpdated = from.LastUpdated
	}
}
