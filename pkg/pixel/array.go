// Package pixel decodes raw acquisition buffers into dense pixel arrays.
//
// Pixel-format identifiers map to a fixed but extensible registry of
// decoders with their valid sample ranges. Decoding always produces a
// private copy: the source buffer is about to be re-queued to the device
// and overwritten.
package pixel

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat means no decoder is registered for the pixel
// format. There is no fallback interpretation.
var ErrUnsupportedFormat = errors.New("unsupported pixel format")

// ValidRange is the inclusive range of valid sample values for a format,
// e.g. [0, 4095] for 12-bit data in 16-bit containers.
type ValidRange struct {
	Min int
	Max int
}

// Array is a dense pixel array of shape (Height, Width, Components) in
// row-major order. Exactly one of U8 and U16 is populated, depending on
// the sample container width.
type Array struct {
	// Height and Width are the spatial dimensions in pixels.
	Height int
	Width  int

	// Components is the number of samples per pixel: 1 for mono and raw
	// Bayer data, 3 for packed colour formats.
	Components int

	// Bits is the number of significant bits per sample.
	Bits int

	// U8 holds the samples for 8-bit formats.
	U8 []uint8

	// U16 holds the samples for formats deeper than 8 bits.
	U16 []uint16
}

// At returns the sample at (y, x, c) regardless of container width.
func (a *Array) At(y, x, c int) int {
	i := (y*a.Width+x)*a.Components + c
	if a.U8 != nil {
		return int(a.U8[i])
	}
	return int(a.U16[i])
}

// Len returns the total number of samples.
func (a *Array) Len() int {
	return a.Height * a.Width * a.Components
}

// Clone returns a deep copy of the array.
func (a *Array) Clone() *Array {
	out := *a
	if a.U8 != nil {
		out.U8 = make([]uint8, len(a.U8))
		copy(out.U8, a.U8)
	}
	if a.U16 != nil {
		out.U16 = make([]uint16, len(a.U16))
		copy(out.U16, a.U16)
	}
	return &out
}

// shortBufferError reports a raw buffer smaller than the decoded shape
// requires. Extra trailing bytes (chunk data) are tolerated.
func shortBufferError(format string, need, have int) error {
	return fmt.Errorf("decoding %s: buffer too small: need %d bytes, have %d", format, need, have)
}
