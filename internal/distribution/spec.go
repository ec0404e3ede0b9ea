package distribution

import (
	"fmt"

	"github.com/jeffutter/protofaker/internal/optionlang"
)

// FromSpec builds the Source named by a parsed distribution= hint. Uniform
// is returned wrapping rng (rng may be nil); the other kinds ignore rng (see
// NewNormal et al.) and construct their own gonum-backed source.
func FromSpec(spec optionlang.Distribution, rng *Uniform) (Source, error) {
	switch spec.Kind {
	case optionlang.DistUniform:
		if rng == nil {
			return NewUniform(nil), nil
		}
		return rng, nil
	case optionlang.DistNormal:
		return NewNormal(spec.Param1, spec.Param2)
	case optionlang.DistLogNormal:
		return NewLogNormal(spec.Param1, spec.Param2)
	case optionlang.DistPareto:
		return NewPareto(spec.Param1, spec.Param2)
	default:
		return nil, fmt.Errorf("unknown distribution kind %d", spec.Kind)
	}
}
