package optionlang

import (
	"strconv"
	"strings"
)

// ParseOptions parses every key=value pair it can find in s, skipping over
// anything it cannot parse one character at a time. It never fails: garbage
// input simply yields fewer (or zero) pairs. Later occurrences of the same
// key overwrite earlier ones.
func ParseOptions(s string) Options {
	opts := Options{}
	cur := cursor{s: s}
	for !cur.atEnd() {
		start := cur.pos
		if key, val, ok := cur.tryKeyValue(); ok {
			opts[key] = val
			continue
		}
		cur.pos = start
		cur.advance()
	}
	return opts
}

// ParsePoolConfig parses a CLI pool flag value of the form
// "<name>:<items>:<type>", e.g. "user_ids:20:uuid".
func ParsePoolConfig(s string) (name string, items int, elemType ElementType, err error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return "", 0, 0, newPoolConfigError(s)
	}
	name = parts[0]
	n, convErr := strconv.Atoi(parts[1])
	if convErr != nil || n <= 0 {
		return "", 0, 0, newPoolConfigError(s)
	}
	et, ok := parseElementType(parts[2])
	if !ok {
		return "", 0, 0, newPoolConfigError(s)
	}
	return name, n, et, nil
}

// ElementType is the scalar type a value pool is declared to hold.
type ElementType int

const (
	ElemI32 ElementType = iota
	ElemI64
	ElemU32
	ElemU64
	ElemF32
	ElemF64
	ElemString
	ElemBytes
	ElemUuid
)

func (e ElementType) String() string {
	switch e {
	case ElemI32:
		return "i32"
	case ElemI64:
		return "i64"
	case ElemU32:
		return "u32"
	case ElemU64:
		return "u64"
	case ElemF32:
		return "f32"
	case ElemF64:
		return "f64"
	case ElemString:
		return "string"
	case ElemBytes:
		return "bytes"
	case ElemUuid:
		return "uuid"
	default:
		return "unknown"
	}
}

func parseElementType(s string) (ElementType, bool) {
	switch strings.ToLower(s) {
	case "i32":
		return ElemI32, true
	case "i64":
		return ElemI64, true
	case "u32":
		return ElemU32, true
	case "u64":
		return ElemU64, true
	case "f32":
		return ElemF32, true
	case "f64":
		return ElemF64, true
	case "string":
		return ElemString, true
	case "bytes":
		return ElemBytes, true
	case "uuid":
		return ElemUuid, true
	default:
		return 0, false
	}
}

type poolConfigError struct {
	input string
}

func newPoolConfigError(input string) error {
	return poolConfigError{input: input}
}

func (e poolConfigError) Error() string {
	return "invalid pool config " + strconv.Quote(e.input) + `: expected "<name>:<items>:<type>"`
}

// cursor is a small save/restore scanner over a string, in the same spirit
// as the proto lexer's rune reader: try an alternative, and rewind on
// failure instead of threading error values through every helper.
type cursor struct {
	s   string
	pos int
}

func (c *cursor) atEnd() bool {
	return c.pos >= len(c.s)
}

func (c *cursor) advance() {
	if c.pos < len(c.s) {
		c.pos++
	}
}

func (c *cursor) peek() (byte, bool) {
	if c.atEnd() {
		return 0, false
	}
	return c.s[c.pos], true
}

func (c *cursor) consumeLiteral(lit string) bool {
	if strings.HasPrefix(c.s[c.pos:], lit) {
		c.pos += len(lit)
		return true
	}
	return false
}

// consumeLiteralFold matches lit case-insensitively.
func (c *cursor) consumeLiteralFold(lit string) bool {
	rest := c.s[c.pos:]
	if len(rest) < len(lit) {
		return false
	}
	if strings.EqualFold(rest[:len(lit)], lit) {
		c.pos += len(lit)
		return true
	}
	return false
}

// tryKeyValue attempts key '=' value at the current position. On failure the
// cursor position is unspecified; callers must restore it themselves.
func (c *cursor) tryKeyValue() (string, Value, bool) {
	key, ok := c.tryKey()
	if !ok {
		return "", Value{}, false
	}
	if !c.consumeLiteral("=") {
		return "", Value{}, false
	}
	val, ok := c.tryValue()
	if !ok {
		return "", Value{}, false
	}
	return key, val, true
}

func (c *cursor) tryKey() (string, bool) {
	start := c.pos
	for !c.atEnd() {
		b, _ := c.peek()
		if isAlphaNumeric(b) || b == '_' {
			c.advance()
			continue
		}
		break
	}
	if c.pos == start {
		return "", false
	}
	return c.s[start:c.pos], true
}

func isAlphaNumeric(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// tryValue dispatches in the grammar's documented priority order:
// distribution, quoted string, list, bool, range, int, bare string.
func (c *cursor) tryValue() (Value, bool) {
	save := c.pos

	if d, ok := c.tryDistribution(); ok {
		return Value{Kind: KindDistribution, Distribution: d}, true
	}
	c.pos = save

	if s, ok := c.tryQuotedString(); ok {
		return StrValue(s), true
	}
	c.pos = save

	if v, ok := c.tryList(); ok {
		return v, true
	}
	c.pos = save

	if b, ok := c.tryBool(); ok {
		return BoolValue(b), true
	}
	c.pos = save

	if lo, hi, ok := c.tryRange(); ok {
		return RangeValue(lo, hi), true
	}
	c.pos = save

	if n, ok := c.tryInt(); ok {
		return IntValue(n), true
	}
	c.pos = save

	if s, ok := c.tryBareStr(); ok {
		return StrValue(s), true
	}
	return Value{}, false
}

func (c *cursor) tryQuotedString() (string, bool) {
	if !c.consumeLiteral(`"`) {
		return "", false
	}
	var b strings.Builder
	for {
		ch, ok := c.peek()
		if !ok {
			return "", false
		}
		if ch == '"' {
			c.advance()
			return b.String(), true
		}
		if ch == '\\' {
			c.advance()
			esc, ok := c.peek()
			if !ok {
				return "", false
			}
			switch esc {
			case '"':
				b.WriteByte('"')
			case 'n':
				b.WriteByte('\n')
			case '\\':
				b.WriteByte('\\')
			default:
				return "", false
			}
			c.advance()
			continue
		}
		b.WriteByte(ch)
		c.advance()
	}
}

func (c *cursor) tryInt() (int64, bool) {
	start := c.pos
	for !c.atEnd() {
		b, _ := c.peek()
		if !isDigit(b) {
			break
		}
		c.advance()
	}
	if c.pos == start {
		return 0, false
	}
	n, err := strconv.ParseInt(c.s[start:c.pos], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c *cursor) tryFloat() (float64, bool) {
	start := c.pos
	if b, ok := c.peek(); ok && (b == '+' || b == '-') {
		c.advance()
	}
	sawDigits := false
	for !c.atEnd() {
		b, _ := c.peek()
		if !isDigit(b) {
			break
		}
		c.advance()
		sawDigits = true
	}
	if b, ok := c.peek(); ok && b == '.' {
		c.advance()
		for !c.atEnd() {
			b, _ := c.peek()
			if !isDigit(b) {
				break
			}
			c.advance()
			sawDigits = true
		}
	}
	if !sawDigits {
		return 0, false
	}
	f, err := strconv.ParseFloat(c.s[start:c.pos], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// tryRange deliberately does not tolerate whitespace around "..": "1 .. 5"
// parses as the bare int 1, not a range, matching the reference parser this
// hint language was ported from.
func (c *cursor) tryRange() (int64, int64, bool) {
	lo, ok := c.tryInt()
	if !ok {
		return 0, 0, false
	}
	if !c.consumeLiteral("..") {
		return 0, 0, false
	}
	hi, ok := c.tryInt()
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}

func (c *cursor) tryBool() (bool, bool) {
	if c.consumeLiteral("true") {
		return true, true
	}
	if c.consumeLiteral("false") {
		return false, true
	}
	return false, false
}

func (c *cursor) tryBareStr() (string, bool) {
	start := c.pos
	for !c.atEnd() {
		b, _ := c.peek()
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == ',' || b == ']' || b == '=' {
			break
		}
		c.advance()
	}
	if c.pos == start {
		return "", false
	}
	return c.s[start:c.pos], true
}

// tryList parses "[" elem ("," elem)* "]" where elem is homogeneously bool,
// int, or a quoted string — tried in that order, matching the grammar.
func (c *cursor) tryList() (Value, bool) {
	if !c.consumeLiteral("[") {
		return Value{}, false
	}
	if bs, ok := c.tryBoolList(); ok {
		if !c.consumeLiteral("]") {
			return Value{}, false
		}
		return Value{Kind: KindListBool, ListBool: bs}, true
	}
	if is, ok := c.tryIntList(); ok {
		if !c.consumeLiteral("]") {
			return Value{}, false
		}
		return Value{Kind: KindListInt, ListInt: is}, true
	}
	if ss, ok := c.tryStrList(); ok {
		if !c.consumeLiteral("]") {
			return Value{}, false
		}
		return Value{Kind: KindListStr, ListStr: ss}, true
	}
	return Value{}, false
}

func (c *cursor) tryBoolList() ([]bool, bool) {
	save := c.pos
	var out []bool
	for {
		b, ok := c.tryBool()
		if !ok {
			c.pos = save
			return nil, false
		}
		out = append(out, b)
		if !c.consumeLiteral(",") {
			return out, true
		}
	}
}

func (c *cursor) tryIntList() ([]int64, bool) {
	save := c.pos
	var out []int64
	for {
		n, ok := c.tryInt()
		if !ok {
			c.pos = save
			return nil, false
		}
		out = append(out, n)
		if !c.consumeLiteral(",") {
			return out, true
		}
	}
}

func (c *cursor) tryStrList() ([]string, bool) {
	save := c.pos
	var out []string
	for {
		s, ok := c.tryQuotedString()
		if !ok {
			c.pos = save
			return nil, false
		}
		out = append(out, s)
		if !c.consumeLiteral(",") {
			return out, true
		}
	}
}

// tryDistribution parses one of: uniform | pareto(f,f] | normal(f,f] |
// log_normal(f,f]. The asymmetric "(" ... "]" bracketing is the grammar as
// specified, not a typo.
func (c *cursor) tryDistribution() (Distribution, bool) {
	if c.consumeLiteralFold("uniform") {
		return Distribution{Kind: DistUniform}, true
	}
	for _, d := range []struct {
		name string
		kind DistributionKind
	}{
		{"pareto", DistPareto},
		{"log_normal", DistLogNormal},
		{"normal", DistNormal},
	} {
		save := c.pos
		if c.consumeLiteralFold(d.name) {
			if dist, ok := c.finishParamDistribution(d.kind); ok {
				return dist, true
			}
		}
		c.pos = save
	}
	return Distribution{}, false
}

func (c *cursor) finishParamDistribution(kind DistributionKind) (Distribution, bool) {
	if !c.consumeLiteral("(") {
		return Distribution{}, false
	}
	a, ok := c.tryFloat()
	if !ok {
		return Distribution{}, false
	}
	if !c.consumeLiteral(",") {
		return Distribution{}, false
	}
	b, ok := c.tryFloat()
	if !ok {
		return Distribution{}, false
	}
	if !c.consumeLiteral("]") {
		return Distribution{}, false
	}
	return Distribution{Kind: kind, Param1: a, Param2: b}, true
}
