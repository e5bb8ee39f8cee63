package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"riskflow/internal/confidence"
	"riskflow/internal/review"
	"riskflow/internal/signal"
	"riskflow/internal/trace"
	"riskflow/internal/workflow/metrics"
	"riskflow/internal/workflow/ports"
	"riskflow/pkg/domain"
	audit "riskflow/pkg/platform/audit"
	"riskflow/pkg/requestcontext"
)

const tracerName = "riskflow/internal/workflow"

// persistParallelism bounds concurrent trace writes for one case.
const persistParallelism = 4

// Orchestrator runs cases through one workflow Definition. It keeps no
// per-case state, so one Orchestrator serves concurrent cases.
type Orchestrator[F, A any] struct {
	def      Definition[F, A]
	traces   *trace.Writer
	auditor  ports.AuditPort
	reviewer ports.ReviewPort
	recorder *trace.Recorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   oteltrace.Tracer
}

type options struct {
	recorder *trace.Recorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   oteltrace.Tracer
}

// Option configures an Orchestrator.
type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithRecorder overrides the trace recorder, e.g. to pin clocks in tests.
func WithRecorder(r *trace.Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

func WithTracer(t oteltrace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// New builds an orchestrator. All three collaborators are required.
func New[F, A any](def Definition[F, A], traces ports.TraceStore, auditor ports.AuditPort, reviewer ports.ReviewPort, opts ...Option) (*Orchestrator[F, A], error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workflow definition: %w", err)
	}
	if traces == nil {
		return nil, errors.New("trace store is required")
	}
	if auditor == nil {
		return nil, errors.New("audit publisher is required")
	}
	if reviewer == nil {
		return nil, errors.New("review requester is required")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.recorder == nil {
		o.recorder = trace.NewRecorder()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}

	return &Orchestrator[F, A]{
		def:      def,
		traces:   trace.NewWriter(traces),
		auditor:  auditor,
		reviewer: reviewer,
		recorder: o.recorder,
		logger:   o.logger.With("workflow", def.Name),
		metrics:  o.metrics,
		tracer:   o.tracer,
	}, nil
}

// Name returns the workflow name.
func (o *Orchestrator[F, A]) Name() string { return o.def.Name }

// Labels returns the decision labels this workflow can produce.
func (o *Orchestrator[F, A]) Labels() []Label { return append([]Label(nil), o.def.Labels...) }

// Run decides one case. The only error is an invalid case id, reported before
// any evaluator runs. Trace, audit and review failures degrade the returned
// Decision instead.
func (o *Orchestrator[F, A]) Run(ctx context.Context, c Case) (*Decision, error) {
	caseID, err := domain.ParseCaseID(c.ID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, span := o.tracer.Start(ctx, "workflow.run", oteltrace.WithAttributes(
		attribute.String("workflow", o.def.Name),
		attribute.String("case_id", string(caseID)),
	))
	defer span.End()

	inputs := c.Inputs()
	facts := o.def.Facts(inputs)
	wf := o.recorder.StartWorkflow(signal.PseudoAgent(o.def.Name), caseID)

	signals := make([]signal.Signal, 0, len(o.def.Evaluators))
	agentTraces := make([]*trace.AgentTrace, 0, len(o.def.Evaluators))
	for _, ev := range o.def.Evaluators {
		sig, at := o.invoke(ctx, ev, caseID, facts, inputs)
		if err := o.recorder.RecordInvocation(wf, at); err != nil {
			o.logger.ErrorContext(ctx, "failed to record invocation", "agent", ev.Name(), "error", err)
		}
		signals = append(signals, sig)
		agentTraces = append(agentTraces, at)
	}

	analysis := o.def.Analyze(signals)
	rec := o.def.Decide(analysis)
	riskScore := additiveRiskScore(signals)
	conf, confOK := confidence.WeightedMean(o.weighted(signals))

	d := &Decision{
		CaseID:      caseID,
		Workflow:    o.def.Name,
		ExecutionID: wf.ExecutionID,
		Decision:    rec.Decision,
		Reason:      rec.Reason,
		Status:      o.def.AutoStatus,
		RiskScore:   riskScore,
		Signals:     signals,
		Analysis:    analysis,
	}
	if confOK {
		d.Confidence = &conf
	} else {
		d.Warnings = append(d.Warnings, "no confidence available")
	}

	d.HumanReviewRequired = o.def.RequiresHumanReview(analysis) || !confOK
	if d.HumanReviewRequired {
		d.Decision = LabelPending
		d.Status = StatusPendingHumanReview
		o.requestReview(ctx, d)
	}

	if err := o.recorder.FinalizeWorkflow(wf, trace.WorkflowOutcome{
		Decision:   string(d.Decision),
		Confidence: d.Confidence,
		Explainability: trace.Explainability{
			AggregationMethod: confidence.Method,
			Weights:           o.weightsByName(),
			RiskScore:         riskScore,
			ConfidenceMissing: !confOK,
			Recommendation:    string(rec.Decision),
			Reason:            rec.Reason,
		},
		HumanReviewRequired: d.HumanReviewRequired,
	}); err != nil {
		o.logger.ErrorContext(ctx, "failed to finalize workflow trace", "error", err)
	}

	tracesOK := true
	if err := o.persist(ctx, wf, agentTraces); err != nil {
		tracesOK = false
		o.metrics.IncrementPersistFailure(o.def.Name, "trace")
		d.Warnings = append(d.Warnings, "trace persistence failed: "+err.Error())
		o.logger.WarnContext(ctx, "trace persistence failed",
			"case_id", caseID,
			"execution_id", wf.ExecutionID.String(),
			"error", err,
		)
	}

	d.Explanation = Explain(d.Decision, d.Status, riskScore, signals)
	d.Audit = o.auditEntry(ctx, c, d)
	auditOK := true
	if err := o.auditor.Emit(ctx, d.Audit); err != nil {
		auditOK = false
		o.metrics.IncrementPersistFailure(o.def.Name, "audit")
		d.Warnings = append(d.Warnings, "audit append failed: "+err.Error())
		o.logger.WarnContext(ctx, "audit append failed", "case_id", caseID, "error", err)
	}
	d.AuditPersisted = tracesOK && auditOK

	if !d.AuditPersisted {
		span.SetStatus(codes.Error, "audit degraded")
	}
	span.SetAttributes(
		attribute.String("decision", string(d.Decision)),
		attribute.String("status", string(d.Status)),
		attribute.Int("risk_score", riskScore),
	)
	o.metrics.IncrementOutcome(o.def.Name, string(d.Decision), string(d.Status))
	o.metrics.ObserveRunLatency(o.def.Name, time.Since(start))

	o.logger.InfoContext(ctx, "case decided",
		"case_id", caseID,
		"execution_id", wf.ExecutionID.String(),
		"decision", d.Decision,
		"status", d.Status,
		"risk_score", riskScore,
		"audit_persisted", d.AuditPersisted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return d, nil
}

// invoke runs one evaluator under its own agent trace and span.
func (o *Orchestrator[F, A]) invoke(ctx context.Context, ev signal.Evaluator[F], caseID domain.CaseID, facts F, raw map[string]any) (signal.Signal, *trace.AgentTrace) {
	_, span := o.tracer.Start(ctx, "evaluator."+ev.Name(), oteltrace.WithAttributes(
		attribute.String("agent", ev.Name()),
		attribute.String("signal_type", string(ev.Type())),
	))
	defer span.End()

	at := o.recorder.StartAgent(ev, caseID, string(ev.Type()), raw)
	start := time.Now()
	sig := ev.Evaluate(facts)
	o.metrics.ObserveEvaluatorLatency(o.def.Name, ev.Name(), time.Since(start))

	c := sig.Confidence
	if err := o.recorder.FinalizeAgent(at, trace.AgentOutcome{
		Signals:    []signal.Signal{sig},
		Decision:   agentDecision(sig),
		Reasoning:  sig.Reason,
		Confidence: &c,
	}); err != nil {
		o.logger.ErrorContext(ctx, "failed to finalize agent trace", "agent", ev.Name(), "error", err)
	}

	span.SetAttributes(
		attribute.String("level", string(sig.Level)),
		attribute.Bool("defaulted", sig.Defaulted),
	)
	return sig, at
}

func (o *Orchestrator[F, A]) requestReview(ctx context.Context, d *Decision) {
	err := o.reviewer.RequestReview(ctx, review.Request{
		CaseID:      d.CaseID,
		Workflow:    o.def.Name,
		ExecutionID: d.ExecutionID,
		Reason:      d.Reason,
		RiskScore:   d.RiskScore,
		Analysis:    d.Analysis,
		Signals:     d.Signals,
		RequestedAt: time.Now(),
	})
	o.metrics.IncrementReviewRequest(o.def.Name, err == nil)
	if err != nil {
		o.logger.ErrorContext(ctx, "human review request failed",
			"case_id", d.CaseID,
			"error", err,
		)
	}
}

// persist writes every agent trace and then the workflow trace. Agent writes
// run concurrently; they target distinct keys. The workflow trace is written
// even when an agent write failed.
func (o *Orchestrator[F, A]) persist(ctx context.Context, wf *trace.WorkflowTrace, agents []*trace.AgentTrace) error {
	var g errgroup.Group
	g.SetLimit(persistParallelism)
	for _, at := range agents {
		g.Go(func() error {
			_, err := o.traces.WriteAgent(ctx, at)
			return err
		})
	}
	agentErr := g.Wait()
	_, wfErr := o.traces.WriteWorkflow(ctx, wf)
	return errors.Join(agentErr, wfErr)
}

func (o *Orchestrator[F, A]) auditEntry(ctx context.Context, c Case, d *Decision) audit.Entry {
	entry := audit.Entry{
		Action:      audit.ActionDecisionMade,
		CaseID:      d.CaseID,
		Workflow:    o.def.Name,
		ExecutionID: d.ExecutionID,
		Decision:    string(d.Decision),
		Reason:      d.Reason,
		Status:      string(d.Status),
		RiskScore:   d.RiskScore,
		Confidence:  d.Confidence,
		Facts:       signal.SanitizeInputs(c.Facts),
		Context:     signal.SanitizeInputs(c.Context),
		Analysis:    d.Analysis,
		Origin:      audit.OriginFromContext(ctx),
		RecordedAt:  requestcontext.Now(ctx),
	}
	if entry.Facts == nil {
		entry.Facts = map[string]any{}
	}
	digest, err := audit.Digest(entry.Facts, entry.Context)
	if err != nil {
		d.Warnings = append(d.Warnings, "inputs digest unavailable: "+err.Error())
	}
	entry.InputsDigest = digest
	return entry
}

func (o *Orchestrator[F, A]) weighted(signals []signal.Signal) []confidence.Weighted {
	out := make([]confidence.Weighted, 0, len(signals))
	for _, s := range signals {
		w, ok := o.def.Weights[s.Type]
		if !ok {
			continue
		}
		out = append(out, confidence.Weighted{Confidence: s.Confidence, Weight: w})
	}
	return out
}

func (o *Orchestrator[F, A]) weightsByName() map[string]float64 {
	out := make(map[string]float64, len(o.def.Weights))
	for t, w := range o.def.Weights {
		out[string(t)] = w
	}
	return out
}

// additiveRiskScore counts HIGH signals.
func additiveRiskScore(signals []signal.Signal) int {
	score := 0
	for _, s := range signals {
		if s.IsHigh() {
			score++
		}
	}
	return score
}

func agentDecision(s signal.Signal) string {
	if s.Flag != "" {
		return string(s.Flag)
	}
	return string(s.Level)
}
