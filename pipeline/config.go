package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"pixclean/artifact"

	"gopkg.in/yaml.v3"
)

type Color struct {
	R uint8 `yaml:"r"`
	G uint8 `yaml:"g"`
	B uint8 `yaml:"b"`
}

type Step struct {
	Policy    string `yaml:"policy"`
	Target    *Color `yaml:"target,omitempty"`
	Tolerance *uint  `yaml:"tolerance,omitempty"`
}

// Config is the YAML form of a pipeline:
//
//	steps:
//	  - policy: threshold
//	    target: {r: 90, g: 90, b: 210}
//	    tolerance: 40
//	  - policy: background-tint
type Config struct {
	Steps []Step `yaml:"steps"`
}

func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not read pipeline %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid pipeline %q: %w", path, err)
	}
	return cfg, nil
}

func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("could not parse pipeline: %w", err)
	}
	return cfg, nil
}

// Threshold returns the threshold parameters of a step, filling the blanks
// from artifact.DefaultThreshold. A zero tolerance also gets the default.
func (s Step) Threshold() artifact.Threshold {
	th := artifact.DefaultThreshold
	if s.Target != nil {
		th.R, th.G, th.B = s.Target.R, s.Target.G, s.Target.B
	}
	if s.Tolerance != nil {
		th.Tolerance = *s.Tolerance
	}
	return th
}

func (c Config) Build() (Pipeline, error) {
	if len(c.Steps) == 0 {
		return Pipeline{}, ErrEmpty
	}

	steps := make([]artifact.Policy, 0, len(c.Steps))
	for i, s := range c.Steps {
		p, err := artifact.Lookup(s.Policy, s.Threshold())
		if err != nil {
			return Pipeline{}, fmt.Errorf("step %d: %w", i+1, err)
		}
		if p.Name() != "threshold" && (s.Target != nil || s.Tolerance != nil) {
			return Pipeline{}, fmt.Errorf("step %d: target and tolerance only apply to the threshold policy", i+1)
		}
		steps = append(steps, p)
	}
	return New(steps...), nil
}
