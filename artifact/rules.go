package artifact

import "math"

// Rule is one classify-and-replace step. Channels are passed as int so sums and
// differences never wrap. Replace results above 255 are clamped by the caller.
type Rule struct {
	Name    string
	Match   func(r, g, b int) bool
	Replace func(r, g, b int) (int, int, int)
}

// Averages are computed in floating point and rounded half to even.
func avg2(a, b int) int {
	return int(math.RoundToEven(float64(a+b) / 2))
}

func avg3(a, b, c int) int {
	return int(math.RoundToEven(float64(a+b+c) / 3))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func clamp(x int) uint8 {
	if x > 255 {
		return 255
	}
	if x < 0 {
		return 0
	}
	return uint8(x)
}

// greyUp replaces the pixel with its average brightness lifted by lift.
func greyUp(lift int) func(r, g, b int) (int, int, int) {
	return func(r, g, b int) (int, int, int) {
		v := avg3(r, g, b) + lift
		return v, v, v
	}
}

func white(r, g, b int) (int, int, int) {
	return 255, 255, 255
}

// dominant reports whether c exceeds both others by more than 30 and is above 150.
func dominant(c, o1, o2 int) bool {
	return c > o1+30 && c > o2+30 && c > 150
}

var (
	blueRule = Rule{
		Name: "blue",
		Match: func(r, g, b int) bool {
			return dominant(b, r, g)
		},
		Replace: func(r, g, b int) (int, int, int) {
			return r + 20, g + 20, avg2(r, g)
		},
	}

	redRule = Rule{
		Name: "red",
		Match: func(r, g, b int) bool {
			return dominant(r, g, b)
		},
		Replace: func(r, g, b int) (int, int, int) {
			return avg2(g, b), g + 20, b + 20
		},
	}

	greenRule = Rule{
		Name: "green",
		Match: func(r, g, b int) bool {
			return dominant(g, r, b)
		},
		Replace: func(r, g, b int) (int, int, int) {
			return r + 20, avg2(r, b), b + 20
		},
	}

	yellowRule = Rule{
		Name: "yellow",
		Match: func(r, g, b int) bool {
			return r > 150 && g > 150 && b < 100 && abs(r-g) < 50
		},
		Replace: greyUp(30),
	}

	cyanRule = Rule{
		Name: "cyan",
		Match: func(r, g, b int) bool {
			return g > 150 && b > 150 && r < 100 && abs(g-b) < 50
		},
		Replace: greyUp(30),
	}

	magentaRule = Rule{
		Name: "magenta",
		Match: func(r, g, b int) bool {
			return r > 150 && b > 150 && g < 100 && abs(r-b) < 50
		},
		Replace: greyUp(30),
	}

	lightTintRule = Rule{
		Name:  "light-tint",
		Match: isLightBackgroundTint,
		Replace: func(r, g, b int) (int, int, int) {
			if max(r, g, b) > 200 {
				return white(r, g, b)
			}
			return greyUp(40)(r, g, b)
		},
	}

	overlayRule = Rule{
		Name: "overlay",
		Match: func(r, g, b int) bool {
			if r <= 120 && g <= 120 && b <= 120 {
				return false
			}
			hi, lo := max(r, g, b), min(r, g, b)
			return hi-lo > 40 && hi > 160
		},
		Replace: greyUp(20),
	}

	backgroundTintRule = Rule{
		Name:    "background-tint",
		Match:   isBackgroundTint,
		Replace: white,
	}
)

func isLightBackgroundTint(r, g, b int) bool {
	lightYellow := r > 200 && g > 200 && b < 180 && abs(r-g) < 30
	lightBeige := r > 180 && g > 180 && b > 150 && r > b+20 && g > b+20
	lightCream := r > 220 && g > 220 && b > 200 && abs(r-g) < 20 && abs(g-b) < 30
	veryLight := (r > 200 || g > 200 || b > 200) && abs(r-g) < 40 && abs(g-b) < 40 && abs(r-b) < 40
	return lightYellow || lightBeige || lightCream || veryLight
}

func isBackgroundTint(r, g, b int) bool {
	veryLight := r > 240 && g > 240 && b > 240
	lightTint := (r > 200 && g > 200 && b < 200) || (r > 180 && g > 180 && b > 150 && r > b+10 && g > b+10)
	creamTint := r > 220 && g > 220 && b > 200 && abs(r-g) < 30 && abs(g-b) < 40
	return veryLight || lightTint || creamTint
}

func thresholdRule(th Threshold) Rule {
	if th.Tolerance == 0 {
		th.Tolerance = DefaultThreshold.Tolerance
	}
	tol := int(min(th.Tolerance, math.MaxInt32))
	target := int(th.B)
	return Rule{
		Name: "threshold",
		Match: func(r, g, b int) bool {
			return abs(b-target) < tol && b > r+30 && b > g+30
		},
		Replace: greyUp(30),
	}
}
