package generator

import (
	"testing"

	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/jeffutter/protofaker/internal/optionlang"
	"github.com/jeffutter/protofaker/internal/pool"
)

// fakeComments implements commentLookup directly from a map, so generator
// tests don't need a real compiled .proto file.
type fakeComments map[string]string

func (f fakeComments) Comment(file, message, field string) (string, bool) {
	c, ok := f[message+"."+field]
	return c, ok
}

func strp(s string) *string { return &s }
func i32p(i int32) *int32   { return &i }

func buildPersonDescriptor(t *testing.T) protoreflect.MessageDescriptor {
	t.Helper()

	label := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	repeated := descriptorpb.FieldDescriptorProto_LABEL_REPEATED

	fdProto := &descriptorpb.FileDescriptorProto{
		Name:    strp("person.proto"),
		Package: strp("person"),
		Syntax:  strp("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: strp("Person"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{Name: strp("uuid"), Number: i32p(1), Label: &label, Type: typep(descriptorpb.FieldDescriptorProto_TYPE_STRING)},
					{Name: strp("name"), Number: i32p(2), Label: &label, Type: typep(descriptorpb.FieldDescriptorProto_TYPE_STRING)},
					{Name: strp("age"), Number: i32p(3), Label: &label, Type: typep(descriptorpb.FieldDescriptorProto_TYPE_INT32)},
					{Name: strp("tags"), Number: i32p(4), Label: &repeated, Type: typep(descriptorpb.FieldDescriptorProto_TYPE_STRING)},
				},
			},
		},
	}

	fd, err := protodesc.NewFile(fdProto, nil)
	if err != nil {
		t.Fatalf("build file descriptor: %v", err)
	}
	md := fd.Messages().Get(0)
	return md
}

func typep(t descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto_Type {
	return &t
}

func TestGenerateProducesValidMessage(t *testing.T) {
	md := buildPersonDescriptor(t)
	comments := fakeComments{
		"Person.tags": "count=2",
	}
	g := New(comments, Config{})

	msg, err := g.Generate(md)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg == nil {
		t.Fatal("expected non-nil message")
	}
}

func TestGenerateRepeatedFieldRespectsCount(t *testing.T) {
	md := buildPersonDescriptor(t)
	comments := fakeComments{
		"Person.tags": "count=3",
	}
	g := New(comments, Config{})

	tagsField := md.Fields().ByName("tags")
	for i := 0; i < 10; i++ {
		msg, err := g.Generate(md)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		list := msg.Get(tagsField).List()
		if list.Len() != 3 {
			t.Fatalf("expected exactly 3 tags, got %d", list.Len())
		}
	}
}

func TestGenerateUuidFieldIsValidUuid(t *testing.T) {
	md := buildPersonDescriptor(t)
	g := New(fakeComments{}, Config{})
	uuidField := md.Fields().ByName("uuid")

	found := false
	for i := 0; i < 50 && !found; i++ {
		msg, err := g.Generate(md)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg.Has(uuidField) {
			found = true
			v := msg.Get(uuidField).String()
			if len(v) != 36 {
				t.Fatalf("expected a 36-character uuid string, got %q", v)
			}
		}
	}
	if !found {
		t.Fatal("uuid field was never populated across 50 attempts (0.95 presence probability)")
	}
}

func TestGeneratePoolHintUsesPool(t *testing.T) {
	md := buildPersonDescriptor(t)
	reg, err := pool.Build([]pool.Config{{Name: "names", Items: 3, Type: optionlang.ElemString}})
	if err != nil {
		t.Fatalf("unexpected error building pool: %v", err)
	}
	comments := fakeComments{"Person.name": `pool=names`}
	g := New(comments, Config{Pools: reg})

	p, ok := reg.Lookup("names")
	if !ok {
		t.Fatal("pool \"names\" was not built")
	}
	members := make(map[string]bool, p.Len())
	for i := 0; i < p.Len(); i++ {
		members[p.At(i).String] = true
	}

	nameField := md.Fields().ByName("name")
	for i := 0; i < 20; i++ {
		msg, err := g.Generate(md)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg.Has(nameField) {
			if v := msg.Get(nameField).String(); !members[v] {
				t.Fatalf("name %q is not an element of pool \"names\"", v)
			}
		}
	}
}

func TestGenerateUnknownPoolErrors(t *testing.T) {
	md := buildPersonDescriptor(t)
	comments := fakeComments{"Person.name": `pool=missing`}
	g := New(comments, Config{})

	for i := 0; i < 50; i++ {
		if _, err := g.Generate(md); err != nil {
			return
		}
	}
	t.Fatal("expected an error referencing a missing pool within 50 attempts")
}
