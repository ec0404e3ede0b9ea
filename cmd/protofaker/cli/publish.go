package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jeffutter/protofaker/internal/sink/kafka"
)

func newPublishCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Generate messages and publish them to Kafka",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags, err := readSchemaFlags(cmd)
			if err != nil {
				return err
			}
			brokers, _ := cmd.Flags().GetStringArray("broker")
			topic, _ := cmd.Flags().GetString("topic")
			registryURL, _ := cmd.Flags().GetString("schema-registry")
			if len(brokers) == 0 {
				return fmt.Errorf("--broker is required")
			}
			if topic == "" {
				return fmt.Errorf("--topic is required")
			}
			if registryURL == "" {
				return fmt.Errorf("--schema-registry is required")
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

			publisher, err := kafka.New(kafka.Config{
				Brokers:           brokers,
				Topic:             topic,
				SchemaRegistryURL: registryURL,
				Subject:           string(md.FullName()),
				ProtoSource:       loader.SourceText(),
				KeyField:          flags.key,
				Logger:            logger,
			})
			if err != nil {
				return err
			}
			defer publisher.Close()

			if err := publisher.PublishAll(cmd.Context(), msgs); err != nil {
				return err
			}

			logger.Info("published messages", "topic", topic, "count", len(msgs))
			return nil
		},
	}

	cmd.Flags().StringArrayP("broker", "b", nil, "Kafka broker address, repeatable (required)")
	cmd.Flags().StringP("topic", "t", "", "Kafka topic (required)")
	cmd.Flags().StringP("schema-registry", "s", "", "schema registry URL (required)")
	return cmd
}
