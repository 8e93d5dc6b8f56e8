package repository

import (
	"context"
	"fmt"

	"gluco_watch/internal/models"

	"github.com/segmentio/kafka-go"
)

type KafkaOpts struct {
	Brokers []string
	Topic   string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaSink emits one message per record, keyed by identity so a user's
// readings stay ordered within a partition.
type KafkaSink struct {
	w     messageWriter
	close func() error
}

func NewKafkaSink(o KafkaOpts) *KafkaSink {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(o.Brokers...),
		Topic:                  o.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &KafkaSink{w: w, close: w.Close}
}

var _ Sink = (*KafkaSink)(nil)

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Persist(ctx context.Context, rec models.Record) error {
	body, err := rec.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	err = s.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(rec.Identity),
		Value: body,
		Time:  rec.FetchedAt,
	})
	if err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
