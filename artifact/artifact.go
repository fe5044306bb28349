package artifact

// RemoveBlueWatermark desaturates semi-transparent blue overlays: blue is pulled
// to the red/green average while red and green are lifted by 20.
func RemoveBlueWatermark(buf []byte, channels int) ([]byte, error) {
	out, _, err := BlueWatermark.Apply(buf, channels)
	return out, err
}

// RemoveAnyColorWatermark tries, in order, blue, red and green dominance, yellow,
// cyan and magenta casts, light background tints, and finally a generic
// semi-transparent overlay test.
func RemoveAnyColorWatermark(buf []byte, channels int) ([]byte, error) {
	out, _, err := AnyColorWatermark.Apply(buf, channels)
	return out, err
}

// RemoveWatermarkAdvanced greys out blue-dominant pixels whose blue channel lies
// strictly within th.Tolerance of th.B. A nil th means DefaultThreshold.
func RemoveWatermarkAdvanced(buf []byte, channels int, th *Threshold) ([]byte, error) {
	t := DefaultThreshold
	if th != nil {
		t = *th
	}
	out, _, err := ThresholdWatermark(t).Apply(buf, channels)
	return out, err
}

// RemoveBackgroundTints forces light, cream and yellowish background pixels to
// pure white. Applying it twice gives the same result as applying it once.
func RemoveBackgroundTints(buf []byte, channels int) ([]byte, error) {
	out, _, err := BackgroundTints.Apply(buf, channels)
	return out, err
}
