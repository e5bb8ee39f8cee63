// Package kafka publishes human-review requests to a Kafka topic.
package kafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"riskflow/internal/review"
)

// DefaultTopic receives review requests unless overridden.
const DefaultTopic = "riskflow.review-requests"

// Producer is the subset of *kgo.Client used here.
type Producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// Requester produces one record per review request, keyed by case id so all
// requests for a case land on the same partition. Produce is asynchronous;
// delivery failures are reported through the logger.
type Requester struct {
	producer Producer
	topic    string
	logger   *slog.Logger
}

// Option configures the Requester.
type Option func(*Requester)

func WithTopic(topic string) Option {
	return func(r *Requester) {
		if topic != "" {
			r.topic = topic
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Requester) {
		r.logger = logger
	}
}

func New(producer Producer, opts ...Option) (*Requester, error) {
	if producer == nil {
		return nil, errors.New("kafka producer is required")
	}
	r := &Requester{
		producer: producer,
		topic:    DefaultTopic,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// RequestReview enqueues the request. Encoding errors are returned; broker
// errors arrive later and are only logged.
func (r *Requester) RequestReview(ctx context.Context, req review.Request) error {
	payload, err := req.Encode()
	if err != nil {
		return err
	}

	record := &kgo.Record{
		Topic: r.topic,
		Key:   []byte(req.CaseID),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "workflow", Value: []byte(req.Workflow)},
			{Key: "execution_id", Value: []byte(req.ExecutionID.String())},
		},
	}

	// Buffered records are dropped when their produce context ends, and the
	// caller's request context ends as soon as the decision is returned.
	logCtx := context.WithoutCancel(ctx)
	r.producer.Produce(logCtx, record, func(rec *kgo.Record, err error) {
		if err != nil {
			r.logger.ErrorContext(logCtx, "review request delivery failed",
				"case_id", string(rec.Key),
				"topic", rec.Topic,
				"error", err,
			)
			return
		}
		r.logger.DebugContext(logCtx, "review request delivered",
			"case_id", string(rec.Key),
			"partition", rec.Partition,
			"offset", rec.Offset,
		)
	})
	return nil
}
