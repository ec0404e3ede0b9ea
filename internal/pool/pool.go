// Package pool builds and holds the named value pools that "pool=" hints
// draw from: fixed-size, pre-materialized collections of a single scalar
// type, built once at startup and immutable thereafter.
package pool

import (
	"fmt"
	"math/rand/v2"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/jeffutter/protofaker/internal/optionlang"
	"github.com/jeffutter/protofaker/internal/protovalue"
)

// Config describes one pool to build: its name, element count, and element
// type, as parsed from a "--pools name:items:type" CLI flag.
type Config struct {
	Name  string
	Items int
	Type  optionlang.ElementType
}

// Pool is a fixed, immutable collection of same-typed values.
type Pool struct {
	name   string
	typ    optionlang.ElementType
	values []protovalue.Value
}

// Name returns the pool's name, as referenced by "pool=" hints.
func (p *Pool) Name() string { return p.name }

// Type returns the scalar element type every value in the pool shares.
func (p *Pool) Type() optionlang.ElementType { return p.typ }

// Len returns the number of materialized values in the pool.
func (p *Pool) Len() int { return len(p.values) }

// Choose returns a uniformly random element from the pool. It panics if the
// pool is empty; Build never constructs an empty pool.
func (p *Pool) Choose(rng *rand.Rand) protovalue.Value {
	return p.values[rng.IntN(len(p.values))]
}

// At returns the element at index i. Callers index a pool directly (rather
// than through Choose) when the index itself must come from a biased
// distribution.Source, so that a "pool=" pick reflects that field's
// "distribution=" hint instead of always drawing uniformly.
func (p *Pool) At(i int) protovalue.Value {
	return p.values[i]
}

// Registry holds every named pool built for one generation run, keyed by
// name for "pool=" hint lookups.
type Registry struct {
	pools map[string]*Pool
}

// Build materializes one Pool per Config, generating each pool's elements
// up front via gofakeit (for string) or google/uuid (for uuid), and
// uniform integer/float/byte draws otherwise. The returned Registry is read-only
// from the caller's perspective.
func Build(configs []Config) (*Registry, error) {
	reg := &Registry{pools: make(map[string]*Pool, len(configs))}
	for _, cfg := range configs {
		if cfg.Items <= 0 {
			return nil, fmt.Errorf("pool %q: items must be positive, got %d", cfg.Name, cfg.Items)
		}
		values, err := populate(cfg)
		if err != nil {
			return nil, fmt.Errorf("pool %q: %w", cfg.Name, err)
		}
		reg.pools[cfg.Name] = &Pool{name: cfg.Name, typ: cfg.Type, values: values}
	}
	return reg, nil
}

// Lookup returns the named pool, or false if no such pool was built.
func (r *Registry) Lookup(name string) (*Pool, bool) {
	if r == nil {
		return nil, false
	}
	p, ok := r.pools[name]
	return p, ok
}

func populate(cfg Config) ([]protovalue.Value, error) {
	values := make([]protovalue.Value, cfg.Items)
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))

	switch cfg.Type {
	case optionlang.ElemI32:
		for i := range values {
			values[i] = protovalue.I32(int32(rng.Int64N(1<<32) - (1 << 31)))
		}
	case optionlang.ElemI64:
		for i := range values {
			values[i] = protovalue.I64(rng.Int64())
		}
	case optionlang.ElemU32:
		for i := range values {
			values[i] = protovalue.U32(rng.Uint32())
		}
	case optionlang.ElemU64:
		for i := range values {
			values[i] = protovalue.U64(rng.Uint64())
		}
	case optionlang.ElemF32:
		for i := range values {
			values[i] = protovalue.F32(float32(rng.Float64()))
		}
	case optionlang.ElemF64:
		for i := range values {
			values[i] = protovalue.F64(rng.Float64())
		}
	case optionlang.ElemString:
		for i := range values {
			values[i] = protovalue.String(gofakeit.SentenceSimple())
		}
	case optionlang.ElemBytes:
		for i := range values {
			n := 4 + rng.IntN(16)
			b := make([]byte, n)
			for j := range b {
				b[j] = byte(rng.IntN(256))
			}
			values[i] = protovalue.Bytes(b)
		}
	case optionlang.ElemUuid:
		for i := range values {
			values[i] = protovalue.String(uuid.New().String())
		}
	default:
		return nil, fmt.Errorf("unsupported element type %v", cfg.Type)
	}
	return values, nil
}
