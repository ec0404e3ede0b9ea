package pool

import (
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"

	"github.com/jeffutter/protofaker/internal/optionlang"
	"github.com/jeffutter/protofaker/internal/protovalue"
)

func TestBuildPopulatesRequestedCount(t *testing.T) {
	reg, err := Build([]Config{{Name: "ids", Items: 20, Type: optionlang.ElemUuid}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, ok := reg.Lookup("ids")
	if !ok {
		t.Fatal("expected pool \"ids\" to exist")
	}
	if p.Len() != 20 {
		t.Fatalf("expected 20 items, got %d", p.Len())
	}
}

func TestBuildUuidElementsAreValidUUIDs(t *testing.T) {
	reg, err := Build([]Config{{Name: "ids", Items: 5, Type: optionlang.ElemUuid}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, _ := reg.Lookup("ids")
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 5; i++ {
		v := p.Choose(rng)
		if v.Kind != protovalue.KindString {
			t.Fatalf("expected string-kind value, got %v", v.Kind)
		}
		if _, err := uuid.Parse(v.String); err != nil {
			t.Fatalf("not a valid uuid: %q: %v", v.String, err)
		}
	}
}

func TestBuildRejectsNonPositiveItems(t *testing.T) {
	_, err := Build([]Config{{Name: "bad", Items: 0, Type: optionlang.ElemI32}})
	if err == nil {
		t.Fatal("expected error for items=0")
	}
}

func TestLookupMissingPool(t *testing.T) {
	reg, err := Build(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := reg.Lookup("nope"); ok {
		t.Fatal("expected lookup of nonexistent pool to fail")
	}
}

func TestLookupOnNilRegistry(t *testing.T) {
	var reg *Registry
	if _, ok := reg.Lookup("anything"); ok {
		t.Fatal("expected lookup on nil registry to fail")
	}
}

func TestChooseReturnsTypedValues(t *testing.T) {
	reg, err := Build([]Config{{Name: "nums", Items: 10, Type: optionlang.ElemI64}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, _ := reg.Lookup("nums")
	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 10; i++ {
		v := p.Choose(rng)
		if v.Kind != protovalue.KindI64 {
			t.Fatalf("expected i64-kind value, got %v", v.Kind)
		}
	}
}
