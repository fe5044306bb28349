// based on:
// https://bottosson.github.io/posts/oklab/

package okcolor

import "math"

type Lab struct {
	L float64 // perceived lightness
	A float64 // how green/red the color is
	B float64 // how blue/yellow the color is
}

func (lc LinearRGB) Lab() Lab {
	l := math.Cbrt(0.4122214708*lc.R + 0.5363325363*lc.G + 0.0514459929*lc.B)
	m := math.Cbrt(0.2119034982*lc.R + 0.6806995451*lc.G + 0.1073969566*lc.B)
	s := math.Cbrt(0.0883024619*lc.R + 0.2817188376*lc.G + 0.6299787005*lc.B)

	return Lab{
		L: 0.2104542553*l + 0.7936177850*m - 0.0040720468*s,
		A: 1.9779984951*l - 2.4285922050*m + 0.4505937099*s,
		B: 0.0259040371*l + 0.7827717662*m - 0.8086757660*s,
	}
}

func FromRGB8(r, g, b uint8) Lab {
	return LinearFromRGB8(r, g, b).Lab()
}

// Chroma is the distance from the neutral axis.
func (lc Lab) Chroma() float64 {
	return math.Sqrt(lc.A*lc.A + lc.B*lc.B)
}

// Summary aggregates perceived lightness and chroma over a pixel buffer.
type Summary struct {
	Pixels     int
	MeanL      float64
	MeanChroma float64
}

// Summarize reads the first three samples of every pixel in an interleaved
// buffer. Trailing partial pixels are ignored.
func Summarize(pix []uint8, channels int) Summary {
	if channels < 3 {
		return Summary{}
	}

	var sumL, sumC float64
	n := len(pix) / channels
	for off := 0; off+channels <= len(pix); off += channels {
		lc := FromRGB8(pix[off], pix[off+1], pix[off+2])
		sumL += lc.L
		sumC += lc.Chroma()
	}
	if n == 0 {
		return Summary{}
	}
	return Summary{Pixels: n, MeanL: sumL / float64(n), MeanChroma: sumC / float64(n)}
}

// Shift reports how much a cleaning pass raised lightness and removed chroma,
// on average.
type Shift struct {
	Lightness float64
	Chroma    float64
}

func Compare(before, after Summary) Shift {
	return Shift{
		Lightness: after.MeanL - before.MeanL,
		Chroma:    before.MeanChroma - after.MeanChroma,
	}
}
