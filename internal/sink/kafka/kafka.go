// internal/sink/kafka/kafka.go
package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"

	"github.com/strongtownslangley/devactivity-producer/internal/sink"
)

// HeaderFingerprint carries the snapshot digest next to the raw payload.
const HeaderFingerprint = "fingerprint"

// Config is the minimal runtime config the queue sink needs.
type Config struct {
	Brokers   []string
	Topic     string
	Partition int

	// ReadWait bounds the wait for the last message. Default: 5s.
	ReadWait time.Duration
	// DialTimeout bounds broker connections. Default: 10s.
	DialTimeout time.Duration
	// MaxMessageBytes bounds the last message read back. Default: 10MB.
	MaxMessageBytes int

	// SASL PLAIN credentials (optional).
	Username string
	Password string
}

func (c *Config) defaults() {
	if c.ReadWait <= 0 {
		c.ReadWait = 5 * time.Second
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.MaxMessageBytes <= 0 {
		c.MaxMessageBytes = 10 << 20
	}
}

// messageWriter is the producer contract the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// partitionConn is the subset of *kafkago.Conn used to read the last record.
type partitionConn interface {
	ReadOffsets() (first, last int64, err error)
	Seek(offset int64, whence int) (int64, error)
	SetReadDeadline(t time.Time) error
	ReadMessage(maxBytes int) (kafkago.Message, error)
	Close() error
}

type dialFunc func(ctx context.Context) (partitionConn, error)

// Sink publishes snapshots as single messages to one topic partition and
// reads the last one back by seeking to the high watermark.
type Sink struct {
	cfg    Config
	writer messageWriter
	dial   dialFunc
	now    func() time.Time
}

// New builds the producer and dialer. Both are owned by the sink.
func New(cfg Config) (*Sink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka sink: at least one broker required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka sink: topic required")
	}
	if cfg.Partition < 0 {
		return nil, errors.New("kafka sink: partition must be >= 0")
	}
	cfg.defaults()

	var mech sasl.Mechanism
	if cfg.Username != "" {
		mech = plain.Mechanism{Username: cfg.Username, Password: cfg.Password}
	}

	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     fixedPartition(cfg.Partition),
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    1,
	}
	if mech != nil {
		w.Transport = &kafkago.Transport{SASL: mech, DialTimeout: cfg.DialTimeout}
	}

	dialer := &kafkago.Dialer{
		Timeout:       cfg.DialTimeout,
		DualStack:     true,
		SASLMechanism: mech,
	}

	dial := func(ctx context.Context) (partitionConn, error) {
		var last error
		for _, b := range cfg.Brokers {
			conn, err := dialer.DialLeader(ctx, "tcp", b, cfg.Topic, cfg.Partition)
			if err == nil {
				return conn, nil
			}
			last = err
			if ctx.Err() != nil {
				break
			}
		}
		return nil, last
	}

	return newSink(cfg, w, dial), nil
}

func newSink(cfg Config, w messageWriter, dial dialFunc) *Sink {
	cfg.defaults()
	return &Sink{cfg: cfg, writer: w, dial: dial, now: time.Now}
}

// EnsureReady checks that the partition leader is reachable.
// Topics are pre-provisioned; a missing topic is not-ready.
func (s *Sink) EnsureReady(ctx context.Context) error {
	conn, err := s.dial(ctx)
	if err != nil {
		return classify(sink.OpEnsure, fmt.Errorf("dial %s/%d: %w", s.cfg.Topic, s.cfg.Partition, err))
	}
	return conn.Close()
}

// ReadLast consumes the message just below the high watermark.
// An empty partition returns nil.
func (s *Sink) ReadLast(ctx context.Context) (*sink.StoredRecord, error) {
	conn, err := s.dial(ctx)
	if err != nil {
		return nil, classify(sink.OpRead, fmt.Errorf("dial %s/%d: %w", s.cfg.Topic, s.cfg.Partition, err))
	}
	defer conn.Close()

	first, last, err := conn.ReadOffsets()
	if err != nil {
		return nil, classify(sink.OpRead, fmt.Errorf("read offsets: %w", err))
	}
	if last <= first {
		return nil, nil
	}

	if _, err := conn.Seek(last-1, kafkago.SeekAbsolute); err != nil {
		return nil, classify(sink.OpRead, fmt.Errorf("seek %d: %w", last-1, err))
	}

	deadline := s.now().Add(s.cfg.ReadWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, classify(sink.OpRead, err)
	}

	msg, err := conn.ReadMessage(s.cfg.MaxMessageBytes)
	if err != nil {
		// offsets say the partition is not empty: a timeout here is a failure
		return nil, classify(sink.OpRead, fmt.Errorf("read offset %d: %w", last-1, err))
	}

	payload := msg.Value
	if payload == nil {
		payload = []byte{}
	}

	return &sink.StoredRecord{
		ID:        messageID(s.cfg.Topic, s.cfg.Partition, msg.Offset),
		Timestamp: msg.Time,
		Payload:   payload,
	}, nil
}

// Write produces the raw payload as one message. Returns once the broker acks.
func (s *Sink) Write(ctx context.Context, rec sink.Record) (sink.Ack, error) {
	msg := kafkago.Message{
		Value: rec.Payload,
		Time:  rec.Timestamp,
		Headers: []kafkago.Header{
			{Key: HeaderFingerprint, Value: []byte(rec.Fingerprint)},
		},
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return sink.Ack{}, classify(sink.OpWrite, fmt.Errorf("produce to %s/%d: %w", s.cfg.Topic, s.cfg.Partition, err))
	}

	return sink.Ack{ID: fmt.Sprintf("%s/%d", s.cfg.Topic, s.cfg.Partition)}, nil
}

func (s *Sink) Close() error {
	return s.writer.Close()
}

// ---- helpers ----

// fixedPartition routes every message to the partition ReadLast reads from.
type fixedPartition int

func (p fixedPartition) Balance(_ kafkago.Message, partitions ...int) int {
	for _, id := range partitions {
		if id == int(p) {
			return id
		}
	}
	// partition not in metadata yet; the broker will reject it
	return int(p)
}

func messageID(topic string, partition int, offset int64) string {
	return fmt.Sprintf("%s/%d@%d", topic, partition, offset)
}

func classify(op string, err error) error {
	var werrs kafkago.WriteErrors
	if errors.As(err, &werrs) {
		for _, e := range werrs {
			if e != nil {
				return classifyWith(op, err, e)
			}
		}
	}
	return classifyWith(op, err, err)
}

func classifyWith(op string, err, cause error) error {
	var kerr kafkago.Error
	if errors.As(cause, &kerr) {
		switch {
		case kerr == kafkago.UnknownTopicOrPartition:
			return sink.NotReady(op, err)
		case kerr.Temporary():
			return sink.Transient(op, err)
		default:
			return sink.Structural(op, err)
		}
	}
	// unknown broker and network errors clear on their own more often than not
	return sink.Transient(op, err)
}
