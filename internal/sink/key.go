// Package sink holds the logic shared by the kafka and archive sink
// adapters: extracting a message's routing/partition key from a
// configurable field.
package sink

import (
	"fmt"
	"strconv"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// ExtractKey reads the named field off msg and renders it as text. Only
// String, Int32/Sint32/Sfixed32, Int64/Sint64/Sfixed64, and Bool field
// kinds are supported; any other kind, or a missing field, is an error.
func ExtractKey(msg *dynamicpb.Message, keyField string) ([]byte, error) {
	md := msg.Descriptor()
	fd := md.Fields().ByName(protoreflect.Name(keyField))
	if fd == nil {
		return nil, fmt.Errorf("key field %q not found on message %s", keyField, md.FullName())
	}

	v := msg.Get(fd)
	switch fd.Kind() {
	case protoreflect.StringKind:
		return []byte(v.String()), nil
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return []byte(strconv.FormatInt(v.Int(), 10)), nil
	case protoreflect.BoolKind:
		return []byte(strconv.FormatBool(v.Bool())), nil
	default:
		return nil, fmt.Errorf("key field %q has unsupported kind %v", keyField, fd.Kind())
	}
}
