package parallel

// Range is a half-open interval [Start, End).
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int {
	return r.End - r.Start
}

// Split divides [0, n) into at most parts contiguous ranges of near equal size.
// Ranges shorter than minLen are merged so that no range, except a lone one, is
// below minLen.
func Split(n, parts, minLen int) []Range {
	if n <= 0 {
		return nil
	}
	if minLen < 1 {
		minLen = 1
	}
	if parts < 1 {
		parts = 1
	}
	if most := n / minLen; parts > most {
		parts = max(most, 1)
	}

	size := (n + parts - 1) / parts
	res := make([]Range, 0, parts)
	for start := 0; start < n; start += size {
		res = append(res, Range{Start: start, End: min(start+size, n)})
	}
	return res
}
