// Package generator implements the recursive, descriptor-driven message
// generator: given a message descriptor, it walks each field, resolves its
// hint comment into options, and produces a value for it, recursing into
// nested message fields up to a bounded depth.
package generator

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/jeffutter/protofaker/internal/distribution"
	"github.com/jeffutter/protofaker/internal/logging"
	"github.com/jeffutter/protofaker/internal/optionlang"
	"github.com/jeffutter/protofaker/internal/pool"
	"github.com/jeffutter/protofaker/internal/protovalue"
)

// commentLookup is the subset of *descriptor.Loader the generator needs,
// so it can be unit-tested against a fake without compiling real .proto
// files.
type commentLookup interface {
	Comment(file, message, field string) (string, bool)
}

// Config controls generator behavior beyond the schema itself.
type Config struct {
	// Pools resolves "pool=" hints. May be nil if no pools were configured.
	Pools *pool.Registry
	// MaxDepth bounds Message-kind recursion. Zero means DefaultMaxDepth.
	MaxDepth int
	Logger   *slog.Logger
}

// DefaultMaxDepth is the recursion bound applied when Config.MaxDepth is 0.
const DefaultMaxDepth = 8

// Generator produces randomized dynamic messages for a loaded schema.
type Generator struct {
	loader   commentLookup
	pools    *pool.Registry
	maxDepth int
	logger   *slog.Logger
}

// New creates a Generator. loader supplies per-field hint comments; cfg may
// be the zero value to use defaults (no pools, DefaultMaxDepth, discarded
// logging).
func New(loader commentLookup, cfg Config) *Generator {
	depth := cfg.MaxDepth
	if depth <= 0 {
		depth = DefaultMaxDepth
	}
	logger := logging.Default(cfg.Logger).With("component", "generator")
	return &Generator{loader: loader, pools: cfg.Pools, maxDepth: depth, logger: logger}
}

// Generate builds one randomized dynamic message for the given descriptor.
func (g *Generator) Generate(md protoreflect.MessageDescriptor) (*dynamicpb.Message, error) {
	return g.generate(md, 0)
}

func (g *Generator) generate(md protoreflect.MessageDescriptor, depth int) (*dynamicpb.Message, error) {
	msg := dynamicpb.NewMessage(md)
	fields := md.Fields()

	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)

		opts := g.fieldOptions(md, fd)

		if fd.IsList() {
			values, err := g.generateList(fd, opts, depth)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", fd.Name(), err)
			}
			if len(values) > 0 {
				list := msg.NewField(fd).List()
				for _, v := range values {
					list.Append(v)
				}
				msg.Set(fd, protoreflect.ValueOfList(list))
			}
			continue
		}

		// 95% Bernoulli singular-field presence (spec's authoritative
		// policy; one reference variant unconditionally sets every field
		// instead, deliberately not reproduced here).
		if rand.Float64() >= 0.95 {
			continue
		}

		v, err := g.generateScalar(fd, opts, depth)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fd.Name(), err)
		}
		if v.IsValid() {
			msg.Set(fd, v)
		}
	}

	return msg, nil
}

func (g *Generator) fieldOptions(md protoreflect.MessageDescriptor, fd protoreflect.FieldDescriptor) optionlang.Options {
	comment, ok := g.loader.Comment(string(md.ParentFile().Path()), string(md.Name()), string(fd.Name()))
	if !ok {
		return optionlang.Options{}
	}
	return optionlang.ParseOptions(comment)
}

// generateList produces the elements of a repeated field. count is drawn
// per the "count=" hint: Int(i) means exactly i draws; Range(lo,hi) means a
// uniform draw in [lo,hi] inclusive; no hint defaults to exactly 1.
func (g *Generator) generateList(fd protoreflect.FieldDescriptor, opts optionlang.Options, depth int) ([]protoreflect.Value, error) {
	count, err := resolveCount(opts)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, nil
	}
	values := make([]protoreflect.Value, 0, count)
	for i := 0; i < count; i++ {
		v, err := g.generateScalar(fd, opts, depth)
		if err != nil {
			return nil, err
		}
		if v.IsValid() {
			values = append(values, v)
		}
	}
	return values, nil
}

func resolveCount(opts optionlang.Options) (int, error) {
	cv, ok := opts["count"]
	if !ok {
		return 1, nil
	}
	switch cv.Kind {
	case optionlang.KindInt:
		return int(cv.Int), nil
	case optionlang.KindRange:
		lo, hi := cv.RangeLo, cv.RangeHi
		if hi < lo {
			lo, hi = hi, lo
		}
		return int(lo + rand.Int64N(hi-lo+1)), nil
	default:
		return 0, fmt.Errorf("unsupported count= value %v", cv)
	}
}

// generateScalar produces a single value for fd (the repeated element type
// when fd.IsList()), dispatching on its protobuf kind.
func (g *Generator) generateScalar(fd protoreflect.FieldDescriptor, opts optionlang.Options, depth int) (protoreflect.Value, error) {
	src, err := g.sourceFor(opts)
	if err != nil {
		return protoreflect.Value{}, err
	}

	switch fd.Kind() {
	case protoreflect.DoubleKind:
		return protoreflect.ValueOfFloat64(uniformRange(src, -1000, 1000)), nil
	case protoreflect.FloatKind:
		return protoreflect.ValueOfFloat32(float32(uniformRange(src, -1000, 1000))), nil
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return protoreflect.ValueOfInt32(int32(uniformRangeInt(src, -10000, 10000))), nil
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return protoreflect.ValueOfInt64(uniformRangeInt(src, -10000, 10000)), nil
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return protoreflect.ValueOfUint32(uint32(uniformRangeInt(src, 0, 20000))), nil
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return protoreflect.ValueOfUint64(uint64(uniformRangeInt(src, 0, 20000))), nil
	case protoreflect.BoolKind:
		return protoreflect.ValueOfBool(src.Normalized() < 0.5), nil
	case protoreflect.StringKind:
		s, err := g.generateString(fd, opts, src)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfString(s), nil
	case protoreflect.BytesKind:
		n := 4 + int(uniformRangeInt(src, 0, 16))
		b := make([]byte, n)
		if _, err := src.Read(b); err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfBytes(b), nil
	case protoreflect.EnumKind:
		values := fd.Enum().Values()
		if values.Len() == 0 {
			return protoreflect.ValueOfEnum(0), nil
		}
		idx := int(uniformRangeInt(src, 0, int64(values.Len())))
		return protoreflect.ValueOfEnum(values.Get(idx).Number()), nil
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return g.generateMessage(fd, depth)
	default:
		return protoreflect.Value{}, fmt.Errorf("unsupported field kind %v", fd.Kind())
	}
}

func (g *Generator) generateMessage(fd protoreflect.FieldDescriptor, depth int) (protoreflect.Value, error) {
	md := fd.Message()
	if md.FullName() == "google.protobuf.Timestamp" {
		return protoreflect.ValueOfMessage(g.generateTimestamp(md).ProtoReflect()), nil
	}

	if depth+1 >= g.maxDepth {
		g.logger.Debug("recursion depth exhausted, leaving field unset", "field", fd.FullName(), "depth", depth)
		return protoreflect.Value{}, nil
	}

	nested, err := g.generate(md, depth+1)
	if err != nil {
		return protoreflect.Value{}, err
	}
	return protoreflect.ValueOfMessage(nested), nil
}

// generateTimestamp special-cases google.protobuf.Timestamp: now, offset by
// up to +/- one day.
func (g *Generator) generateTimestamp(md protoreflect.MessageDescriptor) *dynamicpb.Message {
	msg := dynamicpb.NewMessage(md)
	offset := time.Duration(rand.Int64N(2*86400)-86400) * time.Second
	t := time.Now().Add(offset)

	if secsField := md.Fields().ByName("seconds"); secsField != nil {
		msg.Set(secsField, protoreflect.ValueOfInt64(t.Unix()))
	}
	if nanosField := md.Fields().ByName("nanos"); nanosField != nil {
		msg.Set(nanosField, protoreflect.ValueOfInt32(int32(rand.Int64N(999_999_999))))
	}
	return msg
}

// generateString resolves a string field's value with the priority order:
// pool= > words= > string=uuid / field named uuid|id > name/email/phone by
// field name > fallback one-to-two word sentence.
func (g *Generator) generateString(fd protoreflect.FieldDescriptor, opts optionlang.Options, src distribution.Source) (string, error) {
	if pv, ok := opts["pool"]; ok && pv.Kind == optionlang.KindStr {
		p, found := g.pools.Lookup(pv.Str)
		if !found {
			return "", fmt.Errorf("pool %q not found on field %s", pv.Str, fd.Name())
		}
		if p.Len() == 0 {
			return "", fmt.Errorf("pool %q is empty on field %s", pv.Str, fd.Name())
		}
		idx := int(uniformRangeInt(src, 0, int64(p.Len())))
		v := p.At(idx)
		if v.Kind != protovalue.KindString {
			return "", fmt.Errorf("pool %q has wrong type on field %s", pv.Str, fd.Name())
		}
		return v.String, nil
	}

	// faker is seeded from src rather than handed src directly: gofakeit's
	// New takes a uint64 seed, not an arbitrary random source, so the
	// distribution still governs which seed each field's faker starts
	// from, even though gofakeit does its own draws internally from there.
	faker := gofakeit.New(src.Uint64())

	if wv, ok := opts["words"]; ok {
		switch wv.Kind {
		case optionlang.KindInt:
			return faker.Sentence(int(wv.Int)), nil
		case optionlang.KindRange:
			// Half-open per spec.md §4.5/§8: word count drawn from [lo, hi).
			lo, hi := wv.RangeLo, wv.RangeHi
			if hi < lo {
				lo, hi = hi, lo
			}
			n := lo
			if hi > lo {
				n = lo + rand.Int64N(hi-lo)
			}
			return faker.Sentence(int(n)), nil
		case optionlang.KindListStr:
			if len(wv.ListStr) == 0 {
				return "", fmt.Errorf("words= list is empty on field %s", fd.Name())
			}
			idx := int(uniformRangeInt(src, 0, int64(len(wv.ListStr))))
			return wv.ListStr[idx], nil
		default:
			return "", fmt.Errorf("unsupported words= value on field %s", fd.Name())
		}
	}

	fieldName := strings.ToLower(string(fd.Name()))
	if sv, ok := opts["string"]; ok && sv.Kind == optionlang.KindStr && sv.Str == "uuid" {
		return newUUID(src), nil
	}
	if fieldName == "uuid" || fieldName == "id" {
		return newUUID(src), nil
	}

	switch {
	case strings.Contains(fieldName, "name"):
		return faker.Name(), nil
	case strings.Contains(fieldName, "email"):
		return faker.Email(), nil
	case strings.Contains(fieldName, "phone"), strings.Contains(fieldName, "number"):
		return faker.Phone(), nil
	default:
		// 1-2 word sentence, per spec.md §4.5.
		return faker.Sentence(1 + int(uniformRangeInt(src, 0, 2))), nil
	}
}

func newUUID(src distribution.Source) string {
	var b [16]byte
	_, _ = src.Read(b[:])
	id, err := uuid.FromBytes(b[:])
	if err != nil {
		return uuid.New().String()
	}
	// Force RFC 4122 version 4 variant bits so pool-free uuid fields still
	// look like standard v4 UUIDs even though the bytes came from src.
	id[6] = (id[6] & 0x0f) | 0x40
	id[8] = (id[8] & 0x3f) | 0x80
	return id.String()
}

func (g *Generator) sourceFor(opts optionlang.Options) (distribution.Source, error) {
	dv, ok := opts["distribution"]
	if !ok {
		return distribution.NewUniform(nil), nil
	}
	if dv.Kind != optionlang.KindDistribution {
		return distribution.NewUniform(nil), nil
	}
	return distribution.FromSpec(dv.Distribution, distribution.NewUniform(nil))
}

func uniformRange(src distribution.Source, lo, hi float64) float64 {
	return lo + src.Normalized()*(hi-lo)
}

func uniformRangeInt(src distribution.Source, lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	span := hi - lo
	return lo + int64(src.Normalized()*float64(span))
}
