package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/helixir/author-reconciliation-service/internal/config"
	"github.com/helixir/author-reconciliation-service/internal/domain"
)

// RunStarter starts a reconciliation run for a provider.
type RunStarter interface {
	StartRun(ctx context.Context, provider string) (workflowID string, err error)
}

// messageReader is the part of *kafka.Reader the listener uses.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Listener consumes run.requested events and starts runs.
type Listener struct {
	reader  messageReader
	starter RunStarter
	logger  zerolog.Logger
}

// NewListener creates a listener on cfg.RequestTopic.
func NewListener(cfg config.KafkaConfig, starter RunStarter, logger zerolog.Logger) *Listener {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.RequestTopic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  3 * time.Second,
	})
	return newListener(reader, starter, logger)
}

func newListener(r messageReader, starter RunStarter, logger zerolog.Logger) *Listener {
	return &Listener{
		reader:  r,
		starter: starter,
		logger:  logger.With().Str("component", "request_listener").Logger(),
	}
}

// Run reads messages until ctx is cancelled. Undecodable messages are
// logged and skipped.
func (l *Listener) Run(ctx context.Context) error {
	l.logger.Info().Msg("starting request listener")

	for {
		msg, err := l.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info().Msg("request listener stopped")
				return ctx.Err()
			}
			l.logger.Error().Err(err).Msg("failed to read message from Kafka")
			continue
		}

		if err := l.handle(ctx, msg); err != nil {
			l.logger.Error().Err(err).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("failed to handle run request")
		}
	}
}

// Close closes the reader.
func (l *Listener) Close() error {
	return l.reader.Close()
}

func (l *Listener) handle(ctx context.Context, msg kafka.Message) error {
	var ev domain.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return err
	}
	if ev.EventType != domain.EventTypeRunRequested {
		l.logger.Debug().Str("event_type", ev.EventType).Msg("ignoring event")
		return nil
	}

	var req domain.RunRequestedPayload
	if err := json.Unmarshal(ev.Payload, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	workflowID, err := l.starter.StartRun(ctx, req.Provider)
	if err != nil {
		return err
	}
	l.logger.Info().
		Str("provider", req.Provider).
		Str("workflow_id", workflowID).
		Msg("run started from request")
	return nil
}
