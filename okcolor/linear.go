package okcolor

import "math"

// linear8 maps every 8-bit sRGB sample to linear light.
var linear8 = func() (t [256]float64) {
	for i := range t {
		t[i] = toLinear(float64(i) / 255)
	}
	return t
}()

func toLinear(x float64) float64 {
	if x >= 0.04045 {
		return math.Pow((x+0.055)/1.055, 2.4)
	} else {
		return x / 12.92
	}
}

// LinearRGB holds linear-light sRGB components in [0, 1].
type LinearRGB struct {
	R float64
	G float64
	B float64
}

func LinearFromRGB8(r, g, b uint8) LinearRGB {
	return LinearRGB{R: linear8[r], G: linear8[g], B: linear8[b]}
}
