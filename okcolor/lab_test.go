package okcolor

import (
	"math"
	"testing"
)

func near(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func TestFromRGB8(t *testing.T) {
	cases := []struct {
		name    string
		r, g, b uint8
		l       float64
		chroma  float64
	}{
		{"black", 0, 0, 0, 0, 0},
		{"white", 255, 255, 255, 1, 0},
		{"blue", 0, 0, 255, 0.452, 0.313},
		{"red", 255, 0, 0, 0.628, 0.258},
	}
	for _, tc := range cases {
		lc := FromRGB8(tc.r, tc.g, tc.b)
		if !near(lc.L, tc.l, 0.002) {
			t.Errorf("%s: L = %.4f, want %.3f", tc.name, lc.L, tc.l)
		}
		if !near(lc.Chroma(), tc.chroma, 0.002) {
			t.Errorf("%s: chroma = %.4f, want %.3f", tc.name, lc.Chroma(), tc.chroma)
		}
	}
}

func TestSummarize(t *testing.T) {
	pix := []uint8{
		0, 0, 0, 10,
		255, 255, 255, 20,
	}
	s := Summarize(pix, 4)
	if s.Pixels != 2 {
		t.Fatalf("expected 2 pixels, got %d", s.Pixels)
	}
	if !near(s.MeanL, 0.5, 1e-3) {
		t.Errorf("MeanL = %.4f, want 0.5", s.MeanL)
	}
	if !near(s.MeanChroma, 0, 1e-3) {
		t.Errorf("MeanChroma = %.4f, want 0", s.MeanChroma)
	}

	if got := Summarize(nil, 3); got.Pixels != 0 {
		t.Errorf("expected no pixels for an empty buffer, got %d", got.Pixels)
	}
}

func TestCompare(t *testing.T) {
	before := Summarize([]uint8{0, 0, 255}, 3)
	after := Summarize([]uint8{20, 20, 0}, 3)
	shift := Compare(before, after)
	if shift.Chroma <= 0 {
		t.Errorf("expected chroma to drop, got %.4f", shift.Chroma)
	}
	if shift.Lightness >= 0 {
		t.Errorf("expected lightness to drop for saturated blue to dark olive, got %.4f", shift.Lightness)
	}
}
