package cli

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/jeffutter/protofaker/internal/descriptor"
	"github.com/jeffutter/protofaker/internal/generator"
	"github.com/jeffutter/protofaker/internal/optionlang"
	"github.com/jeffutter/protofaker/internal/pool"
)

// schemaFlags holds the flags common to every subcommand: which schema to
// compile, which message to generate, how many, with which pools, and which
// field is the routing key.
type schemaFlags struct {
	protoFile   string
	messageType string
	count       int
	pools       []string
	key         string
}

func readSchemaFlags(cmd *cobra.Command) (schemaFlags, error) {
	protoFile, _ := cmd.Flags().GetString("proto-file")
	messageType, _ := cmd.Flags().GetString("message-type")
	count, _ := cmd.Flags().GetInt("count")
	pools, _ := cmd.Flags().GetStringArray("pools")
	key, _ := cmd.Flags().GetString("key")

	if protoFile == "" {
		return schemaFlags{}, fmt.Errorf("--proto-file is required")
	}
	if messageType == "" {
		return schemaFlags{}, fmt.Errorf("--message-type is required")
	}
	if count <= 0 {
		count = 1
	}
	return schemaFlags{
		protoFile:   protoFile,
		messageType: messageType,
		count:       count,
		pools:       pools,
		key:         key,
	}, nil
}

// loadSchema compiles flags.protoFile and resolves flags.messageType against
// the result.
func loadSchema(ctx context.Context, logger *slog.Logger, flags schemaFlags) (*descriptor.Loader, protoreflect.MessageDescriptor, error) {
	loader := descriptor.New(logger)
	if err := loader.Load(ctx, flags.protoFile); err != nil {
		return nil, nil, err
	}
	md, err := loader.Lookup(flags.messageType)
	if err != nil {
		return nil, nil, err
	}
	return loader, md, nil
}

// buildPools parses each "name:items:type" --pools value and materializes
// the resulting registry.
func buildPools(specs []string) (*pool.Registry, error) {
	configs := make([]pool.Config, 0, len(specs))
	for _, s := range specs {
		name, items, elemType, err := optionlang.ParsePoolConfig(s)
		if err != nil {
			return nil, fmt.Errorf("--pools %q: %w", s, err)
		}
		configs = append(configs, pool.Config{Name: name, Items: items, Type: elemType})
	}
	return pool.Build(configs)
}

// buildGenerator assembles a generator.Generator from the loaded schema and
// pool registry.
func buildGenerator(loader *descriptor.Loader, pools *pool.Registry, logger *slog.Logger) *generator.Generator {
	return generator.New(loader, generator.Config{Pools: pools, Logger: logger})
}

// generateAll runs count generations across a bounded worker pool feeding a
// handoff queue of capacity 100, then returns the results in generation
// index order: the print and write sinks consume strictly in order, per spec.md
// §5, even though generation itself is unordered across workers.
func generateAll(ctx context.Context, gen *generator.Generator, md protoreflect.MessageDescriptor, count int) ([]*dynamicpb.Message, error) {
	type result struct {
		index int
		msg   *dynamicpb.Message
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > count {
		workers = count
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int, 100)
	results := make(chan result, 100)
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for idx := range jobs {
				msg, err := gen.Generate(md)
				if err != nil {
					return fmt.Errorf("generate message %d: %w", idx, err)
				}
				select {
				case results <- result{index: idx, msg: msg}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < count; i++ {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	ordered := make([]*dynamicpb.Message, count)
	collectDone := make(chan struct{})
	go func() {
		defer close(collectDone)
		for r := range results {
			ordered[r.index] = r.msg
		}
	}()

	err := g.Wait()
	close(results)
	<-collectDone
	if err != nil {
		return nil, err
	}
	return ordered, nil
}
