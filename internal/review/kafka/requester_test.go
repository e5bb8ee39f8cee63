package kafka

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"riskflow/internal/review"
	"riskflow/pkg/domain"
)

type fakeProducer struct {
	records []*kgo.Record
	ctxs    []context.Context
	err     error
}

func (f *fakeProducer) Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	f.records = append(f.records, r)
	f.ctxs = append(f.ctxs, ctx)
	if promise != nil {
		promise(r, f.err)
	}
}

type RequesterSuite struct {
	suite.Suite
	producer *fakeProducer
	logs     *bytes.Buffer
	req      *Requester
}

func TestRequesterSuite(t *testing.T) {
	suite.Run(t, new(RequesterSuite))
}

func (s *RequesterSuite) SetupTest() {
	s.producer = &fakeProducer{}
	s.logs = &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(s.logs, nil))

	var err error
	s.req, err = New(s.producer, WithTopic("reviews"), WithLogger(logger))
	s.Require().NoError(err)
}

func (s *RequesterSuite) TestNew() {
	s.Run("nil producer returns error", func() {
		_, err := New(nil)
		s.Error(err)
		s.Contains(err.Error(), "kafka producer is required")
	})

	s.Run("default topic", func() {
		r, err := New(s.producer)
		s.Require().NoError(err)
		s.Equal(DefaultTopic, r.topic)
	})
}

func (s *RequesterSuite) TestRequestReview() {
	execID := domain.NewExecutionID()
	err := s.req.RequestReview(context.Background(), review.Request{
		CaseID:      "case-9",
		Workflow:    "fraud_triage",
		ExecutionID: execID,
		RiskScore:   4,
	})
	s.Require().NoError(err)
	s.Require().Len(s.producer.records, 1)

	rec := s.producer.records[0]
	s.Equal("reviews", rec.Topic)
	s.Equal("case-9", string(rec.Key))
	s.Equal("fraud_triage", string(rec.Headers[0].Value))
	s.Equal(execID.String(), string(rec.Headers[1].Value))

	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Value, &body))
	s.Equal("case-9", body["case_id"])
	s.InDelta(4, body["risk_score"], 0)
}

func (s *RequesterSuite) TestDeliveryFailureIsLoggedNotReturned() {
	s.producer.err = errors.New("broker unreachable")

	err := s.req.RequestReview(context.Background(), review.Request{CaseID: "case-10"})
	s.NoError(err)
	s.Contains(s.logs.String(), "review request delivery failed")
	s.Contains(s.logs.String(), "broker unreachable")
}

func (s *RequesterSuite) TestProduceOutlivesRequestContext() {
	ctx, cancel := context.WithCancel(context.Background())
	err := s.req.RequestReview(ctx, review.Request{CaseID: "case-11"})
	s.Require().NoError(err)
	cancel()

	s.Require().Len(s.producer.ctxs, 1)
	s.NoError(s.producer.ctxs[0].Err())
}
