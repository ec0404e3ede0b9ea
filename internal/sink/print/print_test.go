package print

import (
	"strings"
	"testing"

	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

func strp(s string) *string { return &s }
func i32p(i int32) *int32   { return &i }
func typep(t descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto_Type {
	return &t
}

func buildWidgetDescriptor(t *testing.T) protoreflect.MessageDescriptor {
	t.Helper()
	label := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	fdProto := &descriptorpb.FileDescriptorProto{
		Name:    strp("widget.proto"),
		Package: strp("widget"),
		Syntax:  strp("proto3"),
		EnumType: []*descriptorpb.EnumDescriptorProto{
			{
				Name: strp("Color"),
				Value: []*descriptorpb.EnumValueDescriptorProto{
					{Name: strp("RED"), Number: i32p(0)},
					{Name: strp("BLUE"), Number: i32p(1)},
				},
			},
		},
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: strp("Widget"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{Name: strp("name"), Number: i32p(1), Label: &label, Type: typep(descriptorpb.FieldDescriptorProto_TYPE_STRING)},
					{Name: strp("color"), Number: i32p(2), Label: &label, Type: typep(descriptorpb.FieldDescriptorProto_TYPE_ENUM), TypeName: strp(".widget.Color")},
				},
			},
		},
	}
	fd, err := protodesc.NewFile(fdProto, nil)
	if err != nil {
		t.Fatalf("build file descriptor: %v", err)
	}
	return fd.Messages().Get(0)
}

func TestPrintRendersFieldsAndEnumName(t *testing.T) {
	md := buildWidgetDescriptor(t)
	msg := dynamicpb.NewMessage(md)
	msg.Set(md.Fields().ByName("name"), protoreflect.ValueOfString("gadget"))
	msg.Set(md.Fields().ByName("color"), protoreflect.ValueOfEnum(1))

	var buf strings.Builder
	p := New(&buf)
	if err := p.Print(msg); err != nil {
		t.Fatalf("print: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "gadget") {
		t.Fatalf("expected output to contain field value, got %q", out)
	}
	if !strings.Contains(out, "BLUE") {
		t.Fatalf("expected enum to render by name, got %q", out)
	}
}

func TestPrintSkipsUnsetFields(t *testing.T) {
	md := buildWidgetDescriptor(t)
	msg := dynamicpb.NewMessage(md)

	var buf strings.Builder
	p := New(&buf)
	if err := p.Print(msg); err != nil {
		t.Fatalf("print: %v", err)
	}
	if strings.Contains(buf.String(), "name:") {
		t.Fatalf("expected unset field to be skipped, got %q", buf.String())
	}
}
