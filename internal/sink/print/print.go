// Package print implements the print sink: a human-readable field-by-field
// dump of each generated message to an io.Writer.
package print

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Printer writes generated messages to w as tab-aligned key:value dumps,
// one message per block.
type Printer struct {
	w io.Writer
}

// New creates a Printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print writes one message's fields, in descriptor field order, to the
// underlying writer. Enum fields resolve to their declared name, falling
// back to "ENUM_VALUE(<n>)" if the number has no matching declaration.
func (p *Printer) Print(msg *dynamicpb.Message) error {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fields := msg.Descriptor().Fields()
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		if !msg.Has(fd) {
			continue
		}
		if _, err := fmt.Fprintf(tw, "%s:\t%s\n", fd.Name(), p.renderValue(fd, msg.Get(fd))); err != nil {
			return fmt.Errorf("print field %s: %w", fd.Name(), err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush printed message: %w", err)
	}
	_, err := fmt.Fprintln(p.w)
	return err
}

func (p *Printer) renderValue(fd protoreflect.FieldDescriptor, v protoreflect.Value) string {
	if fd.IsList() {
		list := v.List()
		parts := make([]string, list.Len())
		for i := 0; i < list.Len(); i++ {
			parts[i] = p.renderScalar(fd, list.Get(i))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return p.renderScalar(fd, v)
}

func (p *Printer) renderScalar(fd protoreflect.FieldDescriptor, v protoreflect.Value) string {
	switch fd.Kind() {
	case protoreflect.EnumKind:
		num := v.Enum()
		if ev := fd.Enum().Values().ByNumber(num); ev != nil {
			return string(ev.Name())
		}
		return fmt.Sprintf("ENUM_VALUE(%d)", num)
	case protoreflect.MessageKind, protoreflect.GroupKind:
		nested, ok := v.Message().Interface().(*dynamicpb.Message)
		if !ok {
			return protojson.Format(v.Message().Interface())
		}
		return renderNested(nested)
	case protoreflect.BytesKind:
		return fmt.Sprintf("%x", v.Bytes())
	default:
		return v.String()
	}
}

func renderNested(msg *dynamicpb.Message) string {
	var b strings.Builder
	fields := msg.Descriptor().Fields()
	b.WriteString("{")
	first := true
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		if !msg.Has(fd) {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(string(fd.Name()))
		b.WriteString("=")
		b.WriteString(fmt.Sprintf("%v", msg.Get(fd).Interface()))
	}
	b.WriteString("}")
	return b.String()
}
