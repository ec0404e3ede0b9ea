// Package distribution implements the biased samplers that back
// "distribution=" hints: each wraps an underlying uniform source and
// exposes the same shape as a standard random-number generator (Float64,
// Uint64, Read) so it can be dropped in anywhere a uniform source is
// expected, while what comes out is skewed by the chosen distribution.
package distribution

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Source is a biased random source. Normalized maps the underlying
// distribution's unbounded or heavy-tailed support monotonically into
// [0,1) so that callers (index pickers, range selectors, name fakers) can
// treat every Source the same way regardless of its distribution.
type Source interface {
	// Sample draws one value directly from the underlying distribution.
	Sample() float64
	// Float64 is an alias for Sample, matching the method name of a
	// math/rand/v2 generator.
	Float64() float64
	// Normalized draws one value and maps it into [0,1).
	Normalized() float64
	// Uint64 draws a uniform-looking 64-bit value derived from Normalized,
	// scaled across the full range.
	Uint64() uint64
	// Read fills p with bytes derived from repeated Uint64 draws,
	// little-endian, 8 bytes at a time, truncating the tail to len(p).
	Read(p []byte) (int, error)
}

// fillBytes is shared by every Source implementation: it is the one piece
// of behavior a biased source has in common with a uniform one.
func fillBytes(s Source, p []byte) (int, error) {
	i := 0
	for i < len(p) {
		v := s.Uint64()
		var buf [8]byte
		for j := 0; j < 8; j++ {
			buf[j] = byte(v >> (8 * j))
		}
		n := copy(p[i:], buf[:])
		i += n
	}
	return len(p), nil
}

func uint64FromUnit(u01 float64) uint64 {
	if u01 < 0 {
		u01 = 0
	}
	if u01 >= 1 {
		u01 = math.Nextafter(1, 0)
	}
	return uint64(u01 * float64(math.MaxUint64))
}

// Uniform draws directly from [0,1) with no transformation.
type Uniform struct {
	rng *rand.Rand
}

// NewUniform creates a Uniform source drawing from rng. If rng is nil, a new
// PCG generator seeded from the package-level math/rand/v2 source is used.
func NewUniform(rng *rand.Rand) *Uniform {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Uniform{rng: rng}
}

func (u *Uniform) Sample() float64     { return u.rng.Float64() }
func (u *Uniform) Normalized() float64 { return u.Sample() }
func (u *Uniform) Uint64() uint64      { return uint64FromUnit(u.Normalized()) }
func (u *Uniform) Read(p []byte) (int, error) {
	return fillBytes(u, p)
}

// Float64 draws a float in [0,1), satisfying the math/rand/v2-shaped
// interface used elsewhere in the generator for uniform draws.
func (u *Uniform) Float64() float64 { return u.rng.Float64() }

// IntN draws a uniform integer in [0,n).
func (u *Uniform) IntN(n int) int { return u.rng.IntN(n) }

// Normal is a biased source whose raw samples follow N(mu, sigma) and whose
// normalized output is the logistic sigmoid of the raw sample.
type Normal struct {
	dist distuv.Normal
}

// NewNormal constructs a Normal sampler. Construction fails if sigma <= 0.
// Samples are drawn from gonum's global source; distuv has no minimal
// source interface compatible with math/rand/v2, so distribution-backed
// sources fall back to gonum's own (internally synchronized) default rather
// than threading a per-goroutine source through, unlike Uniform.
func NewNormal(mu, sigma float64) (*Normal, error) {
	if sigma <= 0 {
		return nil, fmt.Errorf("normal distribution: sigma must be positive, got %g", sigma)
	}
	return &Normal{dist: distuv.Normal{Mu: mu, Sigma: sigma}}, nil
}

func (n *Normal) Sample() float64  { return n.dist.Rand() }
func (n *Normal) Float64() float64 { return n.Sample() }
func (n *Normal) Normalized() float64 {
	x := n.Sample()
	return 1 / (1 + math.Exp(-x))
}
func (n *Normal) Uint64() uint64 { return uint64FromUnit(n.Normalized()) }
func (n *Normal) Read(p []byte) (int, error) {
	return fillBytes(n, p)
}

// LogNormal is a biased source whose raw samples follow a log-normal
// distribution and whose normalized output is x/(x+1).
type LogNormal struct {
	dist distuv.LogNormal
}

// NewLogNormal constructs a LogNormal sampler. Construction fails if sigma <= 0.
func NewLogNormal(mu, sigma float64) (*LogNormal, error) {
	if sigma <= 0 {
		return nil, fmt.Errorf("log-normal distribution: sigma must be positive, got %g", sigma)
	}
	return &LogNormal{dist: distuv.LogNormal{Mu: mu, Sigma: sigma}}, nil
}

func (l *LogNormal) Sample() float64  { return l.dist.Rand() }
func (l *LogNormal) Float64() float64 { return l.Sample() }
func (l *LogNormal) Normalized() float64 {
	x := l.Sample()
	return x / (x + 1)
}
func (l *LogNormal) Uint64() uint64 { return uint64FromUnit(l.Normalized()) }
func (l *LogNormal) Read(p []byte) (int, error) {
	return fillBytes(l, p)
}

// Pareto is a biased source whose raw samples follow a Pareto distribution
// (scale = Xm, shape = Alpha) and whose normalized output is x/(x+1).
type Pareto struct {
	dist distuv.Pareto
}

// NewPareto constructs a Pareto sampler. Construction fails if scale <= 0 or
// shape <= 0.
func NewPareto(scale, shape float64) (*Pareto, error) {
	if scale <= 0 || shape <= 0 {
		return nil, fmt.Errorf("pareto distribution: scale and shape must be positive, got scale=%g shape=%g", scale, shape)
	}
	return &Pareto{dist: distuv.Pareto{Xm: scale, Alpha: shape}}, nil
}

func (p *Pareto) Sample() float64  { return p.dist.Rand() }
func (p *Pareto) Float64() float64 { return p.Sample() }
func (p *Pareto) Normalized() float64 {
	x := p.Sample()
	return x / (x + 1)
}
func (p *Pareto) Uint64() uint64 { return uint64FromUnit(p.Normalized()) }
func (p *Pareto) Read(b []byte) (int, error) {
	return fillBytes(p, b)
}
