package distribution

import (
	"math"
	"math/rand/v2"
	"testing"
)

func newRng() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestUniformNormalizedIdentity(t *testing.T) {
	u := NewUniform(newRng())
	for i := 0; i < 1000; i++ {
		v := u.Normalized()
		if v < 0 || v >= 1 {
			t.Fatalf("uniform normalized out of range: %v", v)
		}
	}
}

func TestUniformMeanWithinTolerance(t *testing.T) {
	u := NewUniform(newRng())
	const n = 20000
	var sum float64
	for i := 0; i < n; i++ {
		sum += u.Normalized()
	}
	mean := sum / n
	if math.Abs(mean-0.5) > 0.02 {
		t.Fatalf("uniform mean drifted too far from 0.5: %v", mean)
	}
}

func TestNormalNormalizedInUnitRange(t *testing.T) {
	n, err := NewNormal(0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 1000; i++ {
		v := n.Normalized()
		if v < 0 || v >= 1 {
			t.Fatalf("normal normalized out of range: %v", v)
		}
	}
}

func TestNormalRejectsNonPositiveSigma(t *testing.T) {
	if _, err := NewNormal(0, 0); err == nil {
		t.Fatal("expected error for sigma=0")
	}
	if _, err := NewNormal(0, -1); err == nil {
		t.Fatal("expected error for negative sigma")
	}
}

func TestLogNormalNormalizedInUnitRange(t *testing.T) {
	l, err := NewLogNormal(0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 1000; i++ {
		v := l.Normalized()
		if v < 0 || v >= 1 {
			t.Fatalf("log-normal normalized out of range: %v", v)
		}
	}
}

func TestParetoNormalizedInUnitRange(t *testing.T) {
	p, err := NewPareto(1.0, 1.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 1000; i++ {
		v := p.Normalized()
		if v < 0 || v >= 1 {
			t.Fatalf("pareto normalized out of range: %v", v)
		}
	}
}

func TestParetoRejectsNonPositiveParams(t *testing.T) {
	if _, err := NewPareto(0, 1); err == nil {
		t.Fatal("expected error for scale=0")
	}
	if _, err := NewPareto(1, 0); err == nil {
		t.Fatal("expected error for shape=0")
	}
}

func TestReadFillsFullBuffer(t *testing.T) {
	u := NewUniform(newRng())
	for _, size := range []int{0, 1, 7, 8, 9, 100} {
		buf := make([]byte, size)
		n, err := u.Read(buf)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != size {
			t.Fatalf("expected %d bytes, got %d", size, n)
		}
	}
}
