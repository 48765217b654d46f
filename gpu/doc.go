// Package gpu models the presentation side of a frame: command-recording
// contexts, the bounded two-context pipeline that hands them between the
// goroutine recording a frame and the goroutine submitting it, and the
// Surface contract implemented by concrete presentation backends.
package gpu
