// Package optionlang parses the hint language embedded in proto field
// comments: a free-form string of key=value pairs (plus arbitrary noise)
// that steers message generation, e.g.
//
//	count=1..3 distribution=pareto(1.0,1.5] pool=user_ids
package optionlang

import "fmt"

// Kind identifies which variant of Value is populated.
type Kind int

const (
	KindInt Kind = iota
	KindStr
	KindBool
	KindListInt
	KindListStr
	KindListBool
	KindRange
	KindDistribution
)

// DistributionKind identifies which statistical distribution a
// "distribution=" hint names.
type DistributionKind int

const (
	DistUniform DistributionKind = iota
	DistNormal
	DistLogNormal
	DistPareto
)

// Distribution is the parsed form of a distribution=... hint value.
// Param1/Param2 are only meaningful when Kind != DistUniform: (mu, sigma)
// for Normal/LogNormal, (scale, shape) for Pareto.
type Distribution struct {
	Kind   DistributionKind
	Param1 float64
	Param2 float64
}

// Value is the tagged union of everything a hint's value can resolve to.
// Exactly one field is meaningful, selected by Kind.
type Value struct {
	Kind Kind

	Int  int64
	Str  string
	Bool bool

	ListInt  []int64
	ListStr  []string
	ListBool []bool

	RangeLo int64
	RangeHi int64

	Distribution Distribution
}

func IntValue(v int64) Value  { return Value{Kind: KindInt, Int: v} }
func StrValue(v string) Value { return Value{Kind: KindStr, Str: v} }
func BoolValue(v bool) Value  { return Value{Kind: KindBool, Bool: v} }
func RangeValue(lo, hi int64) Value {
	if hi < lo {
		lo, hi = hi, lo
	}
	return Value{Kind: KindRange, RangeLo: lo, RangeHi: hi}
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("Int(%d)", v.Int)
	case KindStr:
		return fmt.Sprintf("Str(%q)", v.Str)
	case KindBool:
		return fmt.Sprintf("Bool(%v)", v.Bool)
	case KindListInt:
		return fmt.Sprintf("ListInt(%v)", v.ListInt)
	case KindListStr:
		return fmt.Sprintf("ListStr(%v)", v.ListStr)
	case KindListBool:
		return fmt.Sprintf("ListBool(%v)", v.ListBool)
	case KindRange:
		return fmt.Sprintf("Range(%d,%d)", v.RangeLo, v.RangeHi)
	case KindDistribution:
		return fmt.Sprintf("Distribution(%v)", v.Distribution)
	default:
		return "<invalid>"
	}
}

// Options is the parsed set of key=value hints from one field's comment.
type Options map[string]Value
