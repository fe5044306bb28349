package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"pixclean/artifact"
	"pixclean/raster"
)

var ErrEmpty = errors.New("pipeline has no steps")

// Pipeline applies policies one after another, each over the output of the
// previous one.
type Pipeline struct {
	steps []artifact.Policy
}

func New(steps ...artifact.Policy) Pipeline {
	return Pipeline{steps: steps}
}

// Default removes any-color watermarks and then flattens background tints.
func Default() Pipeline {
	return New(artifact.AnyColorWatermark, artifact.BackgroundTints)
}

func (p Pipeline) Len() int {
	return len(p.steps)
}

func (p Pipeline) String() string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}
	return strings.Join(names, " > ")
}

// Run returns a cleaned copy of bm and the stats of every step. On error no
// output is returned and bm is untouched.
func (p Pipeline) Run(bm *raster.Bitmap, opts ...artifact.Option) (*raster.Bitmap, []artifact.Stats, error) {
	if len(p.steps) == 0 {
		return nil, nil, ErrEmpty
	}
	if err := bm.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid bitmap: %w", err)
	}

	pix, stats, err := p.steps[0].Apply(bm.Pix, bm.Channels, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("step 1 (%s): %w", p.steps[0].Name(), err)
	}
	all := []artifact.Stats{stats}

	// later steps own the buffer produced by the first one
	inPlace := append(append([]artifact.Option(nil), opts...), artifact.InPlace())
	for i, step := range p.steps[1:] {
		if pix, stats, err = step.Apply(pix, bm.Channels, inPlace...); err != nil {
			return nil, nil, fmt.Errorf("step %d (%s): %w", i+2, step.Name(), err)
		}
		all = append(all, stats)
	}

	return bm.WithPix(pix), all, nil
}

// Clean runs the pipeline and falls back to the original bitmap when it fails.
// The failure is logged; ok reports whether the result was cleaned.
func (p Pipeline) Clean(logger *slog.Logger, bm *raster.Bitmap, opts ...artifact.Option) (res *raster.Bitmap, stats []artifact.Stats, ok bool) {
	res, stats, err := p.Run(bm, opts...)
	if err != nil {
		logger.Warn("artifact removal failed, keeping original", "pipeline", p.String(), "error", err)
		return bm, nil, false
	}
	return res, stats, true
}
