package gpu

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// HeadlessSurface executes commands without drawing anything. It keeps the
// state of the last submitted frame for inspection and is safe to read from
// another goroutine while frames are being submitted.
type HeadlessSurface struct {
	mu    sync.Mutex
	stats HeadlessStats

	pending []InstanceRecord
}

// HeadlessStats is a snapshot of what a HeadlessSurface has executed.
type HeadlessStats struct {
	Submits   int
	Swaps     int
	Cleanups  int
	Draws     int
	Clear     Color
	Depth     float32
	Transform mgl32.Mat4
	Instances []InstanceRecord
	Commands  []CommandKind
}

// NewHeadlessSurface creates an empty headless surface.
func NewHeadlessSurface() *HeadlessSurface {
	return &HeadlessSurface{}
}

// Submit replays rc.
func (s *HeadlessSurface) Submit(rc *RecordingContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Submits++
	s.stats.Commands = s.stats.Commands[:0]
	for _, cmd := range rc.Commands() {
		s.stats.Commands = append(s.stats.Commands, cmd.Kind)
	}
	return rc.Replay(s)
}

func (s *HeadlessSurface) Swap() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Swaps++
	return nil
}

func (s *HeadlessSurface) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Cleanups++
	s.pending = s.pending[:0]
}

// Stats returns a copy of the surface's state.
func (s *HeadlessSurface) Stats() HeadlessStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.stats
	stats.Instances = append([]InstanceRecord(nil), s.stats.Instances...)
	stats.Commands = append([]CommandKind(nil), s.stats.Commands...)
	return stats
}

// The Backend methods are called from Submit with the lock held.

func (s *HeadlessSurface) ClearColor(c Color) {
	s.stats.Clear = c
}

func (s *HeadlessSurface) ClearDepth(depth float32) {
	s.stats.Depth = depth
}

func (s *HeadlessSurface) SetTransform(m mgl32.Mat4) {
	s.stats.Transform = m
}

func (s *HeadlessSurface) SetInstances(instances []InstanceRecord) {
	s.pending = append(s.pending[:0], instances...)
}

func (s *HeadlessSurface) DrawInstanced(count int) error {
	if count > len(s.pending) {
		return errors.Wrapf(ErrInstanceOverflow, "draw of %d instances, %d uploaded", count, len(s.pending))
	}
	s.stats.Draws++
	s.stats.Instances = append(s.stats.Instances[:0], s.pending[:count]...)
	return nil
}
