package trace

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"riskflow/internal/signal"
	"riskflow/pkg/domain"
	"riskflow/pkg/platform/sentinel"
)

type RecorderSuite struct {
	suite.Suite
	clock    time.Time
	recorder *Recorder
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderSuite))
}

func (s *RecorderSuite) SetupTest() {
	s.clock = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.recorder = NewRecorder(WithClock(func() time.Time {
		s.clock = s.clock.Add(time.Millisecond)
		return s.clock
	}))
}

func (s *RecorderSuite) TestAgentInputSnapshotEncodes() {
	t := s.recorder.StartAgent(signal.PseudoAgent("fraud_score_agent"), "case-2", "fraud_risk",
		map[string]any{"fraud_score": math.NaN(), "amount": math.Inf(1)})

	s.Equal("NaN", t.Input["fraud_score"])
	s.Equal("+Inf", t.Input["amount"])
	_, err := json.Marshal(t)
	s.NoError(err)
}

func (s *RecorderSuite) TestAgentLifecycle() {
	input := map[string]any{"fraud_score": 95}
	t := s.recorder.StartAgent(signal.PseudoAgent("fraud_score_agent"), "case-1", "fraud_risk", input)

	s.Run("starts running with minted id and copied input", func() {
		s.Equal(StatusRunning, t.Status)
		s.False(t.ExecutionID.IsNil())
		s.Nil(t.EndedAt)
		s.Nil(t.Decision)
		input["fraud_score"] = 1
		s.Equal(95, t.Input["fraud_score"])
	})

	s.Run("finalize completes and freezes outputs", func() {
		conf := 1.0
		err := s.recorder.FinalizeAgent(t, AgentOutcome{
			Signals:    []signal.Signal{{Agent: "fraud_score_agent", Type: "fraud_risk", Level: signal.High}},
			Decision:   "HIGH",
			Reasoning:  "fraud_score 95 >= 80",
			Confidence: &conf,
		})
		s.Require().NoError(err)
		s.Equal(StatusCompleted, t.Status)
		s.Require().NotNil(t.EndedAt)
		s.True(t.EndedAt.After(t.StartedAt))
		s.Equal("HIGH", *t.Decision)
		conf = 0
		s.Equal(1.0, *t.Confidence, "confidence must be copied")
	})

	s.Run("second finalize is reported and last write wins", func() {
		err := s.recorder.FinalizeAgent(t, AgentOutcome{Decision: "LOW"})
		s.ErrorIs(err, sentinel.ErrInvalidState)
		s.Equal("LOW", *t.Decision)
	})
}

func (s *RecorderSuite) TestWorkflowLifecycle() {
	w := s.recorder.StartWorkflow(signal.PseudoAgent("fraud_triage"), "case-2")
	s.Equal("fraud_triage", w.WorkflowName)
	s.Equal(StatusRunning, w.Status)

	first := s.recorder.StartAgent(signal.PseudoAgent("a"), "case-2", "t", nil)
	second := s.recorder.StartAgent(signal.PseudoAgent("b"), "case-2", "t", nil)

	s.Run("rejects unfinished agent traces", func() {
		err := s.recorder.RecordInvocation(w, first)
		s.ErrorIs(err, sentinel.ErrInvalidState)
		s.Empty(w.AgentsInvoked)
	})

	s.Require().NoError(s.recorder.FinalizeAgent(first, AgentOutcome{Decision: "LOW"}))
	s.Require().NoError(s.recorder.FinalizeAgent(second, AgentOutcome{Decision: "HIGH"}))
	s.Require().NoError(s.recorder.RecordInvocation(w, first))
	s.Require().NoError(s.recorder.RecordInvocation(w, second))

	s.Run("keeps invocation order", func() {
		s.Require().Len(w.AgentsInvoked, 2)
		s.Equal("a", w.AgentsInvoked[0].AgentName)
		s.Equal(first.ExecutionID, w.AgentsInvoked[0].ExecutionID)
		s.Equal("b", w.AgentsInvoked[1].AgentName)
	})

	conf := 0.75
	weights := map[string]float64{"fraud_risk": 1}
	s.Require().NoError(s.recorder.FinalizeWorkflow(w, WorkflowOutcome{
		Decision:            "PENDING",
		Confidence:          &conf,
		HumanReviewRequired: true,
		Explainability:      Explainability{AggregationMethod: "weighted_mean", Weights: weights, RiskScore: 1},
	}))

	s.Run("finalize completes the trace", func() {
		s.Equal(StatusCompleted, w.Status)
		s.Equal("PENDING", *w.FinalDecision)
		s.True(w.HumanReviewRequired)
		weights["fraud_risk"] = 0
		s.Equal(1.0, w.Explainability.Weights["fraud_risk"])
	})

	s.Run("completed workflow accepts no more invocations", func() {
		err := s.recorder.RecordInvocation(w, first)
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("second finalize is reported", func() {
		err := s.recorder.FinalizeWorkflow(w, WorkflowOutcome{Decision: "CLOSE"})
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})
}

func (s *RecorderSuite) TestIDGenerator() {
	fixed := domain.NewExecutionID()
	rec := NewRecorder(WithIDGenerator(func() domain.ExecutionID { return fixed }))
	t := rec.StartAgent(signal.PseudoAgent("a"), "c", "t", nil)
	s.Equal(fixed, t.ExecutionID)
}
