// Package kafka publishes announcements to the ingestion message bus.
package kafka

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
)

// Config selects the brokers.
type Config struct {
	Brokers      []string
	ClientID     string
	WriteTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type dialFunc func(ctx context.Context, network, address string) (*kafka.Conn, error)

// Bus implements boundary.MessageBus.
type Bus struct {
	writer  messageWriter
	brokers []string
	dial    dialFunc
}

var _ boundary.MessageBus = (*Bus)(nil)

func New(cfg Config) (*Bus, error) {
	if len(cfg.Brokers) == 0 {
		return nil, boundary.Config("kafka", errors.New("no brokers configured"))
	}
	timeout := cfg.WriteTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	dialer := &kafka.Dialer{ClientID: cfg.ClientID, Timeout: timeout}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		WriteTimeout:           timeout,
		AllowAutoTopicCreation: false,
	}
	return &Bus{writer: w, brokers: cfg.Brokers, dial: dialer.DialContext}, nil
}

func (b *Bus) Publish(ctx context.Context, topic string, key, value []byte, headers map[string]string) error {
	msg := kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	}
	for k, v := range headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return classify("publish "+topic, b.writer.WriteMessages(ctx, msg))
}

// Ping dials the first reachable broker and reads the broker list.
func (b *Bus) Ping(ctx context.Context) error {
	var lastErr error
	for _, broker := range b.brokers {
		conn, err := b.dial(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		_, err = conn.Brokers()
		conn.Close()
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return classify("ping brokers", lastErr)
}

func (b *Bus) Close() error {
	return b.writer.Close()
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var kerr kafka.Error
	if errors.As(err, &kerr) {
		if kerr.Temporary() {
			return boundary.Transient(op, err)
		}
		return boundary.Logical(op, err)
	}
	var werrs kafka.WriteErrors
	if errors.As(err, &werrs) {
		for _, e := range werrs {
			if e != nil {
				return classify(op, e)
			}
		}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return boundary.Transient(op, err)
	}
	return boundary.Classify(op, err)
}
