package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/justsurfingit/jobboard/internal/apperrors"
	"github.com/justsurfingit/jobboard/internal/telemetry"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const runSubjectPrefix = "ingest.run."

// RunEvent reports how one provider run ended.
type RunEvent struct {
	Outcome    string       `json:"outcome"` // succeeded, failed or aborted
	EventType  string       `json:"eventType"`
	ActorRunID string       `json:"actorRunId"`
	DatasetID  string       `json:"datasetId,omitempty"`
	RunStatus  string       `json:"runStatus,omitempty"`
	ConsoleURL string       `json:"consoleUrl,omitempty"`
	Result     *BatchResult `json:"result,omitempty"`
	At         time.Time    `json:"at"`
}

type RunNotifier interface {
	NotifyRun(ctx context.Context, ev RunEvent) error
	Close()
}

// LogNotifier writes run events to the log only.
type LogNotifier struct {
	Log *zap.Logger
}

func (n *LogNotifier) NotifyRun(_ context.Context, ev RunEvent) error {
	fields := []zap.Field{
		zap.String("outcome", ev.Outcome),
		zap.String("actor_run_id", ev.ActorRunID),
		zap.String("dataset_id", ev.DatasetID),
		zap.String("run_status", ev.RunStatus),
	}
	if ev.Result != nil {
		fields = append(fields,
			zap.Int("inserted", ev.Result.Inserted),
			zap.Int("skipped", ev.Result.Skipped),
			zap.Int("errored", ev.Result.Errored))
	}
	if ev.Outcome == "succeeded" {
		n.Log.Info("provider run processed", fields...)
	} else {
		n.Log.Warn("provider run did not succeed", fields...)
	}
	return nil
}

func (n *LogNotifier) Close() {}

// NATSNotifier publishes run events on ingest.run.<outcome>.
type NATSNotifier struct {
	conn *nats.Conn
	log  *zap.Logger
}

func NewNATSNotifier(natsURL string, log *zap.Logger) (*NATSNotifier, error) {
	opts := []nats.Option{
		nats.Name("jobboard-api"),
		nats.Timeout(10 * time.Second),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}
	conn, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, apperrors.Unavailable("connecting to NATS", err)
	}
	return &NATSNotifier{conn: conn, log: log}, nil
}

func (n *NATSNotifier) NotifyRun(ctx context.Context, ev RunEvent) error {
	_, span := tracer.Start(ctx, "NATSNotifier.NotifyRun")
	defer span.End()

	data, err := json.Marshal(ev)
	if err != nil {
		span.RecordError(err)
		return apperrors.Internal("marshaling run event", err)
	}
	subject := runSubjectPrefix + ev.Outcome
	span.SetAttributes(
		telemetry.String("nats.subject", subject),
		telemetry.Int("message.size", len(data)),
	)

	if err := n.conn.Publish(subject, data); err != nil {
		span.RecordError(err)
		n.log.Error("failed to publish run event",
			zap.String("actor_run_id", ev.ActorRunID),
			zap.Error(err))
		return apperrors.Unavailable("publishing to NATS", err)
	}
	n.log.Debug("published run event",
		zap.String("actor_run_id", ev.ActorRunID),
		zap.String("subject", subject))
	return nil
}

func (n *NATSNotifier) Close() {
	if n.conn != nil {
		n.conn.Drain()
	}
}
