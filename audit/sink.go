// Package audit delivers ledger audit events to a database table, Kafka, RabbitMQ or the log.
package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"healthadmin-backend/config"
	"healthadmin-backend/database"
	"healthadmin-backend/ledger"
	"healthadmin-backend/logger"
)

// Sink is a ledger.AuditSink that holds resources.
type Sink interface {
	ledger.AuditSink
	Close() error
}

// New builds the sink selected by cfg.AuditSink.
func New(cfg *config.Config, db *gorm.DB) (Sink, error) {
	switch cfg.AuditSink {
	case config.AuditSinkDB, "":
		return NewDBSink(db), nil
	case config.AuditSinkKafka:
		return NewKafkaSink(cfg.KafkaBroker, cfg.KafkaAuditTopic), nil
	case config.AuditSinkAMQP:
		client, err := DialAMQP(cfg.AMQPURL, cfg.AMQPAuditQueue)
		if err != nil {
			return nil, fmt.Errorf("amqp audit sink: %w", err)
		}
		return NewAMQPSink(client, cfg.AMQPAuditQueue), nil
	case config.AuditSinkLog:
		return NewLogSink(logger.WithComponent("audit")), nil
	}
	return nil, fmt.Errorf("unknown audit sink %q", cfg.AuditSink)
}

// LogSink writes each event as one structured log line.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Record(ctx context.Context, ev ledger.AuditEvent) error {
	s.log.Info().
		Str("action", ev.Action).
		Str("actor_id", ev.ActorID).
		Str("actor_type", ev.ActorType).
		Str("tenant", database.SchemaFromContext(ctx)).
		Fields(ev.Meta).
		Time("occurred_at", ev.OccurredAt).
		Msg(ev.Message)
	return nil
}

func (s *LogSink) Close() error { return nil }

// Multi fans an event out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Record(ctx context.Context, ev ledger.AuditEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
