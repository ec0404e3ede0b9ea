package optionlang

import (
	"testing"
)

func TestParseOptionsScenario1(t *testing.T) {
	input := `noise key1=42 other key2="hello world" key3=true key4=[false,true,false] key5=[1,2,3] key6=["a","b","c"] skip key7=unquoted`
	got := ParseOptions(input)

	want := Options{
		"key1": IntValue(42),
		"key2": StrValue("hello world"),
		"key3": BoolValue(true),
		"key4": {Kind: KindListBool, ListBool: []bool{false, true, false}},
		"key5": {Kind: KindListInt, ListInt: []int64{1, 2, 3}},
		"key6": {Kind: KindListStr, ListStr: []string{"a", "b", "c"}},
		"key7": StrValue("unquoted"),
	}
	assertOptionsEqual(t, got, want)
}

func TestParseOptionsScenario2Ranges(t *testing.T) {
	input := "range1=1..5 range2=10..20 not_range=5 mixed=1..10 text=hello"
	got := ParseOptions(input)

	want := Options{
		"range1":    RangeValue(1, 5),
		"range2":    RangeValue(10, 20),
		"not_range": IntValue(5),
		"mixed":     RangeValue(1, 10),
		"text":      StrValue("hello"),
	}
	assertOptionsEqual(t, got, want)
}

func TestParseOptionsSpacedRangeIsNotARange(t *testing.T) {
	got := ParseOptions("range3=1 .. 5")
	want := Options{"range3": IntValue(1)}
	assertOptionsEqual(t, got, want)
}

func TestParseOptionsMalformedSkipped(t *testing.T) {
	got := ParseOptions("key1=42 malformed= key2=true")
	want := Options{
		"key1": IntValue(42),
		"key2": BoolValue(true),
	}
	assertOptionsEqual(t, got, want)
}

func TestParseOptionsEmpty(t *testing.T) {
	if got := ParseOptions(""); len(got) != 0 {
		t.Fatalf("expected no options, got %v", got)
	}
	if got := ParseOptions("just some random text without key-value pairs"); len(got) != 0 {
		t.Fatalf("expected no options, got %v", got)
	}
}

func TestParseOptionsQuotedEscapes(t *testing.T) {
	input := `key1="quoted string with \"escaped quotes\""`
	got := ParseOptions(input)
	want := Options{"key1": StrValue(`quoted string with "escaped quotes"`)}
	assertOptionsEqual(t, got, want)
}

func TestParseOptionsDistribution(t *testing.T) {
	input := `distribution=pareto(1.0,1.5] other=normal(0,1] third=log_normal(2.5,0.75] fourth=uniform`
	got := ParseOptions(input)

	if got["distribution"].Kind != KindDistribution || got["distribution"].Distribution.Kind != DistPareto {
		t.Fatalf("distribution: got %v", got["distribution"])
	}
	if got["distribution"].Distribution.Param1 != 1.0 || got["distribution"].Distribution.Param2 != 1.5 {
		t.Fatalf("pareto params: got %v", got["distribution"].Distribution)
	}
	if got["other"].Distribution.Kind != DistNormal {
		t.Fatalf("expected normal, got %v", got["other"])
	}
	if got["third"].Distribution.Kind != DistLogNormal {
		t.Fatalf("expected log_normal, got %v", got["third"])
	}
	if got["fourth"].Distribution.Kind != DistUniform {
		t.Fatalf("expected uniform, got %v", got["fourth"])
	}
}

func TestParsePoolConfig(t *testing.T) {
	name, items, et, err := ParsePoolConfig("user_ids:20:uuid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "user_ids" || items != 20 || et != ElemUuid {
		t.Fatalf("got name=%q items=%d type=%v", name, items, et)
	}
}

func TestParsePoolConfigInvalid(t *testing.T) {
	for _, s := range []string{"bad", "name:x:i32", "name:5:notatype", "name:0:i32"} {
		if _, _, _, err := ParsePoolConfig(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func assertOptionsEqual(t *testing.T, got, want Options) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d (%v), want %d (%v)", len(got), got, len(want), want)
	}
	for k, wv := range want {
		gv, ok := got[k]
		if !ok {
			t.Fatalf("missing key %q", k)
		}
		if !valuesEqual(gv, wv) {
			t.Fatalf("key %q: got %v, want %v", k, gv, wv)
		}
	}
}

func valuesEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindInt:
		return a.Int == b.Int
	case KindStr:
		return a.Str == b.Str
	case KindBool:
		return a.Bool == b.Bool
	case KindRange:
		return a.RangeLo == b.RangeLo && a.RangeHi == b.RangeHi
	case KindListInt:
		return slicesEqual(a.ListInt, b.ListInt)
	case KindListStr:
		return slicesEqualStr(a.ListStr, b.ListStr)
	case KindListBool:
		return slicesEqualBool(a.ListBool, b.ListBool)
	case KindDistribution:
		return a.Distribution == b.Distribution
	default:
		return false
	}
}

func slicesEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func slicesEqualStr(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func slicesEqualBool(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
