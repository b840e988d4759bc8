package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"healthadmin-backend/database"
	"healthadmin-backend/ledger"
)

// Writer is the subset of kafka.Writer the sink needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes events as JSON, keyed by aggregate id so one aggregate stays on one partition.
type KafkaSink struct {
	writer Writer
}

func NewKafkaSink(broker, topic string) *KafkaSink {
	return NewKafkaSinkWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	})
}

// NewKafkaSinkWithWriter allows injecting a test writer.
func NewKafkaSinkWithWriter(w Writer) *KafkaSink {
	return &KafkaSink{writer: w}
}

func (s *KafkaSink) Record(ctx context.Context, ev ledger.AuditEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(fmt.Sprint(ev.Meta["aggregate_id"])),
		Value: b,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(ev.Action)},
			{Key: "tenant", Value: []byte(database.SchemaFromContext(ctx))},
		},
	}
	return s.writer.WriteMessages(ctx, msg)
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
