// Package frameclock aggregates frame times over fixed windows.
package frameclock

import (
	"fmt"
	"time"
)

// DefaultWindow is the accumulated frame time after which a report is produced.
const DefaultWindow = time.Second

// Report summarizes the frames of one window.
type Report struct {
	Frames   int
	Total    time.Duration
	Min      time.Duration
	Max      time.Duration
	Mean     time.Duration
	Variance float64 // population variance, in milliseconds squared
}

// FPS returns the average frame rate over the window.
func (r Report) FPS() float64 {
	if r.Total <= 0 {
		return 0
	}
	return float64(r.Frames) / r.Total.Seconds()
}

func (r Report) String() string {
	return fmt.Sprintf("frames: %d fps: %.1f min: %v max: %v avg: %v var: %.3fms²",
		r.Frames, r.FPS(), r.Min, r.Max, r.Mean, r.Variance)
}

// Clock accumulates frame durations. It is not safe for concurrent use.
type Clock struct {
	window  time.Duration
	accum   time.Duration
	history []time.Duration
}

// New returns a clock reporting every window of accumulated frame time. A
// non-positive window selects DefaultWindow.
func New(window time.Duration) *Clock {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Clock{
		window:  window,
		history: make([]time.Duration, 0, 128),
	}
}

// Window returns the report window.
func (c *Clock) Window() time.Duration {
	return c.window
}

// Pending returns the frame time accumulated since the last report.
func (c *Clock) Pending() time.Duration {
	return c.accum
}

// Samples returns the number of frames since the last report.
func (c *Clock) Samples() int {
	return len(c.history)
}

// Frame records one frame. Once the accumulated time reaches the window it
// returns the window's report and starts a new window.
func (c *Clock) Frame(elapsed time.Duration) (Report, bool) {
	c.accum += elapsed
	c.history = append(c.history, elapsed)

	if c.accum < c.window {
		return Report{}, false
	}

	report := summarize(c.history, c.accum)
	c.accum = 0
	c.history = c.history[:0]
	return report, true
}

func summarize(samples []time.Duration, total time.Duration) Report {
	r := Report{
		Frames: len(samples),
		Total:  total,
		Min:    samples[0],
		Max:    samples[0],
	}
	for _, s := range samples[1:] {
		r.Min = min(r.Min, s)
		r.Max = max(r.Max, s)
	}
	r.Mean = total / time.Duration(len(samples))

	mean := float64(total) / float64(len(samples)) / float64(time.Millisecond)
	var sum float64
	for _, s := range samples {
		d := float64(s)/float64(time.Millisecond) - mean
		sum += d * d
	}
	// Divided by n. Reports that print the bare sum of squared deviations
	// read n times larger for the same frames.
	r.Variance = sum / float64(len(samples))
	return r
}
