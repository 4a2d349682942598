// Package frame defines the labelled data product of one acquisition
// cycle.
package frame

import (
	"time"

	"github.com/gencam-project/gencam-go/pkg/pixel"
)

// Frame is the immutable result of one successful acquisition cycle:
// the decoded pixel array with explicit coordinate labels plus metadata
// sampled at decode time. Frames are produced fresh per call and never
// cached.
type Frame struct {
	// Pixels is the decoded array, a private copy of the raw buffer.
	Pixels *pixel.Array

	// PixelFormat is the format identifier the array was decoded from.
	PixelFormat string

	// Timestamp is the host-side acquisition time.
	Timestamp time.Time

	// X and Y are the pixel-center coordinates along each spatial axis,
	// i.e. column index + 0.5 and row index + 0.5.
	X []float64
	Y []float64

	// Channels labels the component axis for multi-component formats.
	// Nil for single-component data.
	Channels []string

	// ValidRange is the static valid sample range of the pixel format.
	ValidRange pixel.ValidRange

	// Meta holds feature values sampled when the frame was decoded,
	// e.g. exposure time and gain.
	Meta map[string]any
}

// New assembles a frame around a decoded array, computing the
// pixel-center coordinates.
func New(arr *pixel.Array, format string, vr pixel.ValidRange, channels []string, ts time.Time) *Frame {
	f := &Frame{
		Pixels:      arr,
		PixelFormat: format,
		Timestamp:   ts,
		ValidRange:  vr,
		Meta:        make(map[string]any),
	}
	if len(channels) > 0 {
		f.Channels = append([]string(nil), channels...)
	}
	f.X = make([]float64, arr.Width)
	for i := range f.X {
		f.X[i] = float64(i) + 0.5
	}
	f.Y = make([]float64, arr.Height)
	for i := range f.Y {
		f.Y[i] = float64(i) + 0.5
	}
	return f
}
