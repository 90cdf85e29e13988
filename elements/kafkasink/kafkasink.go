// Package kafkasink implements a sink element that publishes every
// received message's bytes to a Kafka topic, on this runtime's
// single-port byte-message contract.
package kafkasink

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
	"gopkg.in/yaml.v3"

	"github.com/elementio/elementio/pkg/element"
	"github.com/elementio/elementio/pkg/message"
)

// Name is this element's registered name.
const Name = "kafka-sink"

// kafkaKeyMetadata is the declared metadata id an upstream producer may
// set (as an Int64) to pin a message to a Kafka partition; absent it,
// the writer's configured Balancer picks the partition instead. None of
// the built-in elements sets it.
const kafkaKeyMetadata = "kafka.key"

type config struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	Compression  string        `yaml:"compression"`
	MaxAttempts  int           `yaml:"max_attempts"`
}

type instance struct {
	writer *kafka.Writer
	errs   int
}

type finalizer struct{ w *kafka.Writer }

func (f *finalizer) Finalize() error { return f.w.Close() }

// Descriptor returns this element's registration.
func Descriptor() element.Descriptor {
	return element.Descriptor{
		Name:        Name,
		Description: "publishes every received message to a Kafka topic",
		ConfigDoc:   "brokers: []string, topic: string, batch_size/batch_timeout/compression/max_attempts optional",
		RecvPorts:   []element.PortSpec{{}},
		MetadataIDs: []string{kafkaKeyMetadata},
		New:         newInstance,
	}
}

func newInstance(conf string) (element.Instance, error) {
	cfg := config{
		BatchSize:    100,
		BatchTimeout: 100 * time.Millisecond,
		Compression:  "snappy",
		MaxAttempts:  3,
	}
	if conf != "" {
		if err := yaml.Unmarshal([]byte(conf), &cfg); err != nil {
			return nil, err
		}
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka-sink: brokers is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka-sink: topic is required")
	}

	writerConfig := kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		MaxAttempts:  cfg.MaxAttempts,
		Async:        false,
	}
	switch cfg.Compression {
	case "none", "":
	case "gzip":
		writerConfig.CompressionCodec = compress.Gzip.Codec()
	case "snappy":
		writerConfig.CompressionCodec = compress.Snappy.Codec()
	case "lz4":
		writerConfig.CompressionCodec = compress.Lz4.Codec()
	default:
		return nil, fmt.Errorf("kafka-sink: invalid compression %q", cfg.Compression)
	}

	return &instance{writer: kafka.NewWriter(writerConfig)}, nil
}

func (i *instance) Next(pipe element.Pipeline, recv element.Receiver) element.Signal {
	msg, ok := recv.Recv(0)
	if !ok {
		return element.Close
	}
	defer msg.Free()

	kmsg := kafka.Message{Value: append([]byte(nil), msg.Data()...)}
	if id := pipe.GetMetadataID(kafkaKeyMetadata); id != 0 {
		if meta := msg.GetMetadata(id); meta.Type == message.Int64 {
			key := make([]byte, 8)
			binary.BigEndian.PutUint64(key, uint64(meta.Int))
			kmsg.Key = key
		}
	}

	if err := i.writer.WriteMessages(context.Background(), kmsg); err != nil {
		i.errs++
	}
	return element.Produced
}

func (i *instance) Free() {}

func (i *instance) CreateFinalizer() element.Finalizer {
	return &finalizer{w: i.writer}
}
