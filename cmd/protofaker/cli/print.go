package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeffutter/protofaker/internal/sink/print"
)

func newPrintCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "print",
		Short: "Generate messages and print them as human-readable field dumps",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags, err := readSchemaFlags(cmd)
			if err != nil {
				return err
			}

			loader, md, err := loadSchema(cmd.Context(), logger, flags)
			if err != nil {
				return err
			}
			pools, err := buildPools(flags.pools)
			if err != nil {
				return err
			}
			gen := buildGenerator(loader, pools, logger)

			msgs, err := generateAll(cmd.Context(), gen, md, flags.count)
			if err != nil {
				return err
			}

			printer := print.New(os.Stdout)
			for _, msg := range msgs {
				if err := printer.Print(msg); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
