// Package kafka implements the publish sink: each generated message is
// framed per the Confluent wire format (magic byte + big-endian schema ID
// + a single terminating message-index varint of 0, since every schema
// here has exactly one top-level message) and produced to a topic, with
// the schema registered or looked up under the message's fully-qualified
// name via the record-name subject strategy.
package kafka

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"github.com/riferrei/srclient"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/jeffutter/protofaker/internal/logging"
	"github.com/jeffutter/protofaker/internal/sink"
)

// sendTimeout bounds each individual Kafka produce, per spec.md §5.
const sendTimeout = 5 * time.Second

// Config configures a Publisher.
type Config struct {
	Brokers           []string
	Topic             string
	SchemaRegistryURL string
	// Subject is the schema registry subject name, typically the
	// message's fully-qualified name (record-name subject strategy).
	Subject string
	// ProtoSource is the raw .proto source text registered if no schema
	// already exists for Subject.
	ProtoSource string
	KeyField    string
	Logger      *slog.Logger
}

// Publisher publishes generated messages to Kafka with Confluent-framed,
// schema-registry-validated protobuf payloads.
type Publisher struct {
	client   *kgo.Client
	topic    string
	keyField string
	schemaID int
	logger   *slog.Logger
}

// New connects to Kafka and the schema registry, registering cfg.Subject's
// schema if it doesn't already exist.
func New(cfg Config) (*Publisher, error) {
	logger := logging.Default(cfg.Logger).With("component", "sink.kafka")

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID("protofaker"),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	schemaID, err := resolveSchemaID(cfg, logger)
	if err != nil {
		client.Close()
		return nil, err
	}

	return &Publisher{
		client:   client,
		topic:    cfg.Topic,
		keyField: cfg.KeyField,
		schemaID: schemaID,
		logger:   logger,
	}, nil
}

func resolveSchemaID(cfg Config, logger *slog.Logger) (int, error) {
	srClient := srclient.CreateSchemaRegistryClient(cfg.SchemaRegistryURL)

	schemaObj, err := srClient.GetLatestSchema(cfg.Subject)
	if err == nil {
		logger.Debug("using existing schema", "subject", cfg.Subject, "id", schemaObj.ID())
		return schemaObj.ID(), nil
	}

	logger.Debug("schema not found, registering new schema", "subject", cfg.Subject)
	schemaObj, err = srClient.CreateSchema(cfg.Subject, cfg.ProtoSource, srclient.Protobuf)
	if err != nil {
		return 0, fmt.Errorf("register schema for subject %q: %w", cfg.Subject, err)
	}
	return schemaObj.ID(), nil
}

// Close releases the underlying Kafka client.
func (p *Publisher) Close() {
	p.client.Close()
}

// PublishAll produces every message concurrently, one task per message; an
// error from any task cancels the remaining sends and is returned once all
// outstanding produces have settled.
func (p *Publisher) PublishAll(ctx context.Context, msgs []*dynamicpb.Message) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, msg := range msgs {
		msg := msg
		g.Go(func() error {
			return p.publishOne(gctx, msg)
		})
	}
	return g.Wait()
}

func (p *Publisher) publishOne(ctx context.Context, msg *dynamicpb.Message) error {
	key, err := sink.ExtractKey(msg, p.keyField)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	payload, err := proto.Marshal(msg)
	if err != nil {
		return fmt.Errorf("publish: marshal payload: %w", err)
	}

	framed := encodeConfluentWire(p.schemaID, payload)
	record := &kgo.Record{Topic: p.topic, Key: key, Value: framed}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	result := make(chan error, 1)
	p.client.Produce(sendCtx, record, func(_ *kgo.Record, err error) {
		result <- err
	})

	select {
	case err := <-result:
		if err != nil {
			return fmt.Errorf("publish to topic %q: %w", p.topic, err)
		}
		return nil
	case <-sendCtx.Done():
		return fmt.Errorf("publish to topic %q: %w", p.topic, sendCtx.Err())
	}
}

// encodeConfluentWire wraps payload in Confluent's wire format: a magic
// zero byte, the big-endian 4-byte schema ID, and a single terminating
// message-index varint of 0 (every schema here has exactly one top-level
// message, so the common single-message shorthand always applies).
func encodeConfluentWire(schemaID int, payload []byte) []byte {
	out := make([]byte, 0, 6+len(payload))
	out = append(out, 0x00)
	var idBytes [4]byte
	binary.BigEndian.PutUint32(idBytes[:], uint32(schemaID))
	out = append(out, idBytes[:]...)
	out = append(out, 0x00) // message-index varint(0)
	out = append(out, payload...)
	return out
}
