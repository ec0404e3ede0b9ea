// Package descriptor loads a .proto file and its transitive imports into
// linked descriptors, and exposes the two things the generator needs from
// them: a message descriptor by fully-qualified name, and the hint comment
// attached to a top-level message's field (if any).
package descriptor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/jeffutter/protofaker/internal/logging"
	"github.com/jeffutter/protofaker/reporter"

	protocompile "github.com/jeffutter/protofaker"
)

// Loader compiles a single entry-point .proto file, along with whatever it
// imports from the same directory tree, and keeps the resulting descriptors
// around for lookup.
type Loader struct {
	logger *slog.Logger

	entryPath  string
	sourceText string
	files      protocompile.CompileResult
}

// New creates a Loader. logger may be nil, in which case log output is
// discarded.
func New(logger *slog.Logger) *Loader {
	logger = logging.Default(logger)
	return &Loader{logger: logger.With("component", "descriptor.Loader")}
}

// Load compiles the .proto file at path, resolving imports relative to its
// containing directory. It must be called before Lookup, Comment, or
// DescriptorSet.
func (l *Loader) Load(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve proto file path %q: %w", path, err)
	}
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("proto file %q: %w", path, err)
	}
	dir := filepath.Dir(absPath)
	name := filepath.Base(absPath)

	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			ImportPaths: []string{dir},
		}),
		SourceInfoMode: protocompile.SourceInfoStandard,
		Reporter: reporter.NewReporter(func(err reporter.ErrorWithPos) error {
			l.logger.Error("proto compile error", "error", err.Error())
			return err
		}, func(warn reporter.ErrorWithPos) {
			l.logger.Warn("proto compile warning", "warning", warn.Error())
		}),
	}

	result, err := compiler.Compile(ctx, protocompile.ResolvedPath(name))
	if err != nil {
		return fmt.Errorf("compile proto file %q: %w", path, err)
	}

	l.entryPath = name
	l.sourceText = string(raw)
	l.files = result
	l.logger.Debug("compiled proto file", "path", path, "files", len(result.Files))
	return nil
}

// Lookup resolves a fully-qualified message name (e.g. "mypkg.MyMessage")
// against the compiled entry-point file and its imports.
func (l *Loader) Lookup(fqn string) (protoreflect.MessageDescriptor, error) {
	for _, f := range l.files.Files {
		d := f.FindDescriptorByName(protoreflect.FullName(fqn))
		if d == nil {
			continue
		}
		md, ok := d.(protoreflect.MessageDescriptor)
		if !ok {
			return nil, fmt.Errorf("%s is not a message type", fqn)
		}
		return md, nil
	}
	return nil, fmt.Errorf("message type not found: %s", fqn)
}

// Comment returns the comment attached to the named field of the named
// top-level message in the named file, if any: the leading comment, the
// trailing comment, or both joined by a space when both are present. This
// deliberately only resolves fields of top-level messages: the source-code-info
// path it walks is [4, msg_idx, 2, field_idx], the fixed "file.message_type[i].field[j]"
// shape, which has no analogue for a field nested two or more messages deep.
// A field of a nested message type simply never receives a hint.
func (l *Loader) Comment(file, message, field string) (string, bool) {
	fd := l.files.Files.FindFileByPath(file)
	if fd == nil {
		return "", false
	}
	fdProto := protoFileDescriptorProto(fd)
	if fdProto == nil || fdProto.SourceCodeInfo == nil {
		return "", false
	}

	msgIdx := -1
	var msgProto *descriptorpb.DescriptorProto
	for i, m := range fdProto.MessageType {
		if m.GetName() == message {
			msgIdx = i
			msgProto = m
			break
		}
	}
	if msgIdx < 0 {
		return "", false
	}

	fieldIdx := -1
	for j, f := range msgProto.Field {
		if f.GetName() == field {
			fieldIdx = j
			break
		}
	}
	if fieldIdx < 0 {
		return "", false
	}

	target := []int32{4, int32(msgIdx), 2, int32(fieldIdx)}
	for _, loc := range fdProto.SourceCodeInfo.Location {
		if pathsEqual(loc.Path, target) {
			leading := loc.GetLeadingComments()
			trailing := loc.GetTrailingComments()
			switch {
			case leading != "" && trailing != "":
				return leading + " " + trailing, true
			case leading != "":
				return leading, true
			case trailing != "":
				return trailing, true
			default:
				return "", false
			}
		}
	}
	return "", false
}

// DescriptorSet marshals every compiled file (entry point plus transitive
// imports) into a FileDescriptorSet, suitable for attaching to a Kafka
// message or an archive so downstream consumers can decode without the
// original .proto on disk.
func (l *Loader) DescriptorSet() ([]byte, error) {
	set := &descriptorpb.FileDescriptorSet{}
	for _, f := range l.files.Files {
		fdProto := protoFileDescriptorProto(f)
		if fdProto == nil {
			return nil, fmt.Errorf("file %q has no descriptor proto", f.Path())
		}
		set.File = append(set.File, fdProto)
	}
	b, err := proto.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("marshal descriptor set: %w", err)
	}
	return b, nil
}

// EntryPath returns the resolved path (relative to the proto file's
// directory) used as the compiler's top-level compile target.
func (l *Loader) EntryPath() string {
	return l.entryPath
}

// SourceText returns the raw .proto source text of the entry-point file,
// as loaded from disk. Used to register a schema with the schema registry
// when publishing.
func (l *Loader) SourceText() string {
	return l.sourceText
}

func pathsEqual(a []int32, b []int32) bool {
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

// protoFileDescriptorProtoer is implemented by linker results (parser.Result)
// that can hand back their canonical descriptor proto, source-code-info
// included.
type protoFileDescriptorProtoer interface {
	FileDescriptorProto() *descriptorpb.FileDescriptorProto
}

func protoFileDescriptorProto(f protocompile.File) *descriptorpb.FileDescriptorProto {
	if p, ok := f.(protoFileDescriptorProtoer); ok {
		return p.FileDescriptorProto()
	}
	return nil
}
