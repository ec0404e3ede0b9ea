// Package protovalue defines the tagged Value union that flows between the
// pool registry, the samplers, and the message generator, independent of
// any one protobuf field's wire kind.
package protovalue

// Kind selects which field of a Value is populated.
type Kind int

const (
	KindI32 Kind = iota
	KindI64
	KindU32
	KindU64
	KindF32
	KindF64
	KindBool
	KindString
	KindBytes
	KindEnumNumber
	KindMessage
	KindList
)

// Value is a type-erased scalar, message, or list value ready to be set on
// a dynamic protobuf message field.
type Value struct {
	Kind Kind

	I32        int32
	I64        int64
	U32        uint32
	U64        uint64
	F32        float32
	F64        float64
	Bool       bool
	String     string
	Bytes      []byte
	EnumNumber int32
	Message    interface{} // *dynamicpb.Message; interface{} to avoid a protoreflect import here
	List       []Value
}

func I32(v int32) Value     { return Value{Kind: KindI32, I32: v} }
func I64(v int64) Value     { return Value{Kind: KindI64, I64: v} }
func U32(v uint32) Value    { return Value{Kind: KindU32, U32: v} }
func U64(v uint64) Value    { return Value{Kind: KindU64, U64: v} }
func F32(v float32) Value   { return Value{Kind: KindF32, F32: v} }
func F64(v float64) Value   { return Value{Kind: KindF64, F64: v} }
func Bool(v bool) Value     { return Value{Kind: KindBool, Bool: v} }
func String(v string) Value { return Value{Kind: KindString, String: v} }
func Bytes(v []byte) Value  { return Value{Kind: KindBytes, Bytes: v} }
func EnumNumber(v int32) Value {
	return Value{Kind: KindEnumNumber, EnumNumber: v}
}
func Message(v interface{}) Value { return Value{Kind: KindMessage, Message: v} }
func List(v []Value) Value        { return Value{Kind: KindList, List: v} }
