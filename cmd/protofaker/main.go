// Command protofaker generates randomized protobuf messages from a .proto
// schema's field-comment hints, and either prints them, publishes them to
// Kafka, or writes them to a compressed archive.
//
// Logging:
//   - Base logger is created here with output format and level
//   - Logger is passed to all components via dependency injection
//   - No global slog configuration (no slog.SetDefault)
//   - Components scope loggers with their own attributes
package main

import (
	"log/slog"
	"os"

	"github.com/jeffutter/protofaker/cmd/protofaker/cli"
	"github.com/jeffutter/protofaker/internal/logging"
)

func main() {
	baseHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug, // filtering is done by ComponentFilterHandler
	})
	filterHandler := logging.NewComponentFilterHandler(baseHandler, slog.LevelInfo)
	logger := slog.New(filterHandler)

	rootCmd := cli.NewRootCommand(logger)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
