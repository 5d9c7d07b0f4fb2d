// Package kafka delivers domain event messages to a Kafka topic.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/eventmesh-lab/events-service/internal/messaging"
)

type Config struct {
	Brokers           []string
	Topic             string
	Partitions        int
	ReplicationFactor int
	// CreateTopic declares the topic on first use. An existing topic is fine.
	CreateTopic  bool
	WriteTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Transport implements messaging.Transport. The underlying writer is created
// on first use and shared by all callers; a writer found closed is dropped
// and re-created on the next Send.
type Transport struct {
	cfg    Config
	logger *zap.Logger

	mu     sync.Mutex
	writer messageWriter

	newWriter    func(Config) messageWriter
	declareTopic func(context.Context, Config) error
}

var _ messaging.Transport = (*Transport)(nil)

type Option func(*Transport)

func WithLogger(l *zap.Logger) Option {
	return func(t *Transport) {
		if l != nil {
			t.logger = l
		}
	}
}

func New(cfg Config, opts ...Option) (*Transport, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	if cfg.Partitions <= 0 {
		cfg.Partitions = 1
	}
	if cfg.ReplicationFactor <= 0 {
		cfg.ReplicationFactor = 1
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	t := &Transport{
		cfg:          cfg,
		logger:       zap.NewNop(),
		newWriter:    newKafkaWriter,
		declareTopic: declareTopic,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *Transport) Send(ctx context.Context, msg messaging.Message) error {
	w, err := t.acquire(ctx)
	if err != nil {
		return err
	}

	err = w.WriteMessages(ctx, toKafkaMessage(msg))
	if err == nil {
		return nil
	}
	if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
		t.drop(w)
	}
	return fmt.Errorf("kafka: write %s: %w", msg.Type, err)
}

// Close releases the cached writer. A later Send creates a new one.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.writer == nil {
		return nil
	}
	err := t.writer.Close()
	t.writer = nil
	return err
}

func (t *Transport) acquire(ctx context.Context) (messageWriter, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.writer != nil {
		return t.writer, nil
	}
	if t.cfg.CreateTopic {
		if err := t.declareTopic(ctx, t.cfg); err != nil {
			return nil, fmt.Errorf("kafka: declare topic %s: %w", t.cfg.Topic, err)
		}
	}
	t.writer = t.newWriter(t.cfg)
	t.logger.Info("kafka writer created",
		zap.Strings("brokers", t.cfg.Brokers),
		zap.String("topic", t.cfg.Topic),
	)
	return t.writer, nil
}

func (t *Transport) drop(w messageWriter) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.writer == w {
		t.writer = nil
		t.logger.Warn("kafka writer closed, will reconnect on next send")
	}
}

// toKafkaMessage keys by aggregate id so the hash balancer keeps every fact
// about one event on one partition, in order. Consumers route on the headers.
func toKafkaMessage(msg messaging.Message) kafkago.Message {
	return kafkago.Message{
		Key:   []byte(msg.AggregateID),
		Value: msg.Payload,
		Time:  msg.Timestamp,
		Headers: []kafkago.Header{
			{Key: "type", Value: []byte(msg.Type)},
			{Key: "routing-key", Value: []byte(msg.RoutingKey)},
			{Key: "timestamp", Value: []byte(strconv.FormatInt(msg.Timestamp.Unix(), 10))},
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
}

func newKafkaWriter(cfg Config) messageWriter {
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: !cfg.CreateTopic,
	}
}

// declareTopic creates the topic through the cluster controller.
func declareTopic(ctx context.Context, cfg Config) error {
	var dialer kafkago.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", cfg.Brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	ctrl, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer ctrl.Close()

	err = ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             cfg.Topic,
		NumPartitions:     cfg.Partitions,
		ReplicationFactor: cfg.ReplicationFactor,
	})
	if errors.Is(err, kafkago.TopicAlreadyExists) {
		return nil
	}
	return err
}
