package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jeffutter/protofaker/internal/sink/archive"
)

func newWriteCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Generate messages and write them to a compressed archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags, err := readSchemaFlags(cmd)
			if err != nil {
				return err
			}
			outPath, _ := cmd.Flags().GetString("output")
			if outPath == "" {
				return fmt.Errorf("--output is required")
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

			descriptorSet, err := loader.DescriptorSet()
			if err != nil {
				return err
			}

			w, err := archive.Create(outPath, descriptorSet, flags.key)
			if err != nil {
				return err
			}
			for _, msg := range msgs {
				if err := w.Append(msg); err != nil {
					w.Close()
					return err
				}
			}
			if err := w.Close(); err != nil {
				return err
			}

			logger.Info("wrote archive", "path", outPath, "count", len(msgs))
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "archive output path (required)")
	return cmd
}
