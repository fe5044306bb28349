package artifact

import (
	"fmt"
	"strings"
	"sync"

	"pixclean/parallel"
)

// Below this many pixels a buffer is always processed on the calling goroutine.
const minChunkPixels = 1 << 14

// Policy is an ordered rule chain. A pixel is rewritten by the first rule that
// matches it and left untouched when none does.
type Policy struct {
	name  string
	rules []Rule
}

func NewPolicy(name string, rules ...Rule) Policy {
	return Policy{name: name, rules: rules}
}

var (
	BlueWatermark     = NewPolicy("blue", blueRule)
	AnyColorWatermark = NewPolicy("any-color",
		blueRule, redRule, greenRule, yellowRule, cyanRule, magentaRule, lightTintRule, overlayRule)
	BackgroundTints = NewPolicy("background-tint", backgroundTintRule)
)

func ThresholdWatermark(th Threshold) Policy {
	return NewPolicy("threshold", thresholdRule(th))
}

// Names lists the policy names accepted by Lookup.
var Names = []string{"blue", "any-color", "threshold", "background-tint"}

// Lookup returns the named policy; th only applies to "threshold".
func Lookup(name string, th Threshold) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "blue":
		return BlueWatermark, nil
	case "any-color":
		return AnyColorWatermark, nil
	case "threshold":
		return ThresholdWatermark(th), nil
	case "background-tint":
		return BackgroundTints, nil
	}
	return Policy{}, fmt.Errorf("unknown policy %q, expected one of %s", name, strings.Join(Names, ", "))
}

func (p Policy) Name() string {
	return p.name
}

// RuleNames returns the rule names in evaluation order.
func (p Policy) RuleNames() []string {
	names := make([]string, len(p.rules))
	for i, r := range p.rules {
		names[i] = r.Name
	}
	return names
}

// Classify returns the index of the first matching rule, or -1.
func (p Policy) Classify(r, g, b uint8) int {
	ri, gi, bi := int(r), int(g), int(b)
	for i, rule := range p.rules {
		if rule.Match(ri, gi, bi) {
			return i
		}
	}
	return -1
}

// Stats counts pixels per matching rule.
type Stats struct {
	Policy  string
	Pixels  int
	Rules   []string
	Matched []int
}

func (s Stats) Rewritten() int {
	var n int
	for _, m := range s.Matched {
		n += m
	}
	return n
}

// ByRule returns the non-zero counts keyed by rule name.
func (s Stats) ByRule() map[string]int {
	res := make(map[string]int, len(s.Rules))
	for i, m := range s.Matched {
		if m > 0 {
			res[s.Rules[i]] = m
		}
	}
	return res
}

type options struct {
	workers int
	inPlace bool
	limiter Limiter
}

// Limiter caps chunk goroutines shared by concurrent Apply calls.
// *semaphore.Weighted from golang.org/x/sync satisfies it.
type Limiter interface {
	TryAcquire(n int64) bool
	Release(n int64)
}

type Option func(*options)

// WithWorkers processes the buffer as up to n contiguous chunks concurrently.
// Output is identical for every n.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithLimiter only starts a chunk goroutine when l grants a slot. Chunks that
// get none run on the calling goroutine.
func WithLimiter(l Limiter) Option {
	return func(o *options) {
		o.limiter = l
	}
}

// InPlace rewrites the source buffer instead of a copy. The returned slice is
// then the source itself.
func InPlace() Option {
	return func(o *options) {
		o.inPlace = true
	}
}

// Apply runs the policy over buf. Unless InPlace is given buf is left untouched
// and a new buffer is returned. A malformed buffer fails with
// *InvalidBufferError before any pixel is written.
func (p Policy) Apply(buf []byte, channels int, opts ...Option) ([]byte, Stats, error) {
	stats := Stats{Policy: p.name, Rules: p.RuleNames(), Matched: make([]int, len(p.rules))}
	if err := Validate(buf, channels); err != nil {
		return nil, stats, err
	}

	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}

	dst := buf
	if !o.inPlace {
		dst = make([]byte, len(buf))
		copy(dst, buf)
	}

	pixels := len(buf) / channels
	stats.Pixels = pixels

	chunks := parallel.Split(pixels, o.workers, minChunkPixels)
	if len(chunks) <= 1 {
		p.rewrite(dst, channels, parallel.Range{Start: 0, End: pixels}, stats.Matched)
		return dst, stats, nil
	}

	counts := make([][]int, len(chunks))
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		counts[i] = make([]int, len(p.rules))
		if o.limiter != nil && !o.limiter.TryAcquire(1) {
			p.rewrite(dst, channels, chunk, counts[i])
			continue
		}
		wg.Go(func() {
			if o.limiter != nil {
				defer o.limiter.Release(1)
			}
			p.rewrite(dst, channels, chunk, counts[i])
		})
	}
	wg.Wait()

	for _, c := range counts {
		for i, n := range c {
			stats.Matched[i] += n
		}
	}
	return dst, stats, nil
}

func (p Policy) rewrite(pix []byte, channels int, span parallel.Range, matched []int) {
	for off, end := span.Start*channels, span.End*channels; off < end; off += channels {
		px := pix[off : off+3 : off+3]
		r, g, b := int(px[0]), int(px[1]), int(px[2])
		for i, rule := range p.rules {
			if !rule.Match(r, g, b) {
				continue
			}
			nr, ng, nb := rule.Replace(r, g, b)
			px[0], px[1], px[2] = clamp(nr), clamp(ng), clamp(nb)
			matched[i]++
			break
		}
	}
}
