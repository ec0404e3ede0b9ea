// Package cli implements protofaker's cobra command tree: "print", "publish",
// and "write", all sharing the schema/pool/count flags defined on the root
// command.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the "protofaker" command with every subcommand
// wired in. logger is injected into every subcommand and the components it
// constructs; no component ever calls slog.SetDefault.
func NewRootCommand(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "protofaker",
		Short: "Generate randomized protobuf messages from a schema's hint comments",
	}

	cmd.PersistentFlags().StringP("proto-file", "f", "", "path to the entry-point .proto file (required)")
	cmd.PersistentFlags().StringP("message-type", "m", "", "fully-qualified message type to generate (required)")
	cmd.PersistentFlags().IntP("count", "c", 1, "number of messages to generate")
	cmd.PersistentFlags().StringArrayP("pools", "p", nil, "value pool, repeatable: name:items:type")
	cmd.PersistentFlags().StringP("key", "k", "id", "field used as the routing key")

	cmd.AddCommand(
		newPrintCmd(logger),
		newPublishCmd(logger),
		newWriteCmd(logger),
	)

	return cmd
}
