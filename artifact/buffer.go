// Package artifact classifies and neutralizes watermark, color cast and
// background tint pixels in raw interleaved RGB or RGBA buffers.
//
// Every operation is a pointwise map over pixels: the first three samples of a
// pixel are read as R, G, B and the fourth, when present, is alpha and is never
// read nor written. Results do not depend on the order pixels are visited in.
package artifact

import "fmt"

const (
	RGB  = 3
	RGBA = 4
)

// InvalidBufferError reports a buffer whose length is not a whole number of
// pixels, or an unsupported channel count.
type InvalidBufferError struct {
	Len      int
	Channels int
}

func (e *InvalidBufferError) Error() string {
	if e.Channels != RGB && e.Channels != RGBA {
		return fmt.Sprintf("invalid pixel buffer: unsupported channel count %d", e.Channels)
	}
	return fmt.Sprintf("invalid pixel buffer: length %d is not a multiple of %d channels", e.Len, e.Channels)
}

// Validate checks the buffer geometry. An empty buffer is valid.
func Validate(buf []byte, channels int) error {
	if (channels != RGB && channels != RGBA) || len(buf)%channels != 0 {
		return &InvalidBufferError{Len: len(buf), Channels: channels}
	}
	return nil
}

// Threshold parameterizes the threshold policy. Only B takes part in the
// match; R and G describe the target color for callers and reports. A zero
// Tolerance means DefaultThreshold.Tolerance, since an empty band matches
// nothing.
type Threshold struct {
	R, G, B   uint8
	Tolerance uint
}

// DefaultThreshold targets semi-transparent blue watermarks.
var DefaultThreshold = Threshold{R: 100, G: 100, B: 200, Tolerance: 50}

func (t Threshold) String() string {
	return fmt.Sprintf("#%02x%02x%02x~%d", t.R, t.G, t.B, t.Tolerance)
}
