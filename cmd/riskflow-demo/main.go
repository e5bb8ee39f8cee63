// Command riskflow-demo runs a fixed set of cases through the fraud and
// vendor workflows and prints each decision with its explanation.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"riskflow/internal/platform/logger"
	"riskflow/internal/review"
	tracefile "riskflow/internal/trace/store/file"
	"riskflow/internal/workflow"
	"riskflow/internal/workflow/fraud"
	"riskflow/internal/workflow/vendor"
	"riskflow/pkg/platform/audit/publisher"
	auditmemory "riskflow/pkg/platform/audit/store/memory"
)

type scenario struct {
	workflow string
	c        workflow.Case
}

var scenarios = []scenario{
	{fraud.Name, workflow.Case{ID: "alert-high-001", Facts: map[string]any{
		"fraud_score": 95, "historical_risk": 80, "regulated_transaction": true,
	}}},
	{fraud.Name, workflow.Case{ID: "alert-low-002", Facts: map[string]any{
		"fraud_score": 10, "historical_risk": 10, "regulated_transaction": false,
	}}},
	{fraud.Name, workflow.Case{ID: "alert-sparse-003", Facts: map[string]any{
		"fraud_score": "n/a",
	}}},
	{vendor.Name, workflow.Case{ID: "vendor-escalate-001", Facts: map[string]any{
		"base_risk_score": 80, "regulated": true, "fraud_signals": 0,
	}}},
	{vendor.Name, workflow.Case{ID: "vendor-approve-002", Facts: map[string]any{
		"base_risk_score": 20, "regulated": false, "fraud_signals": 0,
	}}},
	{vendor.Name, workflow.Case{ID: "vendor-reject-003", Facts: map[string]any{
		"base_risk_score": 70, "regulated": true, "fraud_signals": 3, "sanctions_hit": true,
	}}},
}

func main() {
	traceDir := flag.String("traces", "demo-traces", "directory for trace files")
	level := flag.String("log-level", "warn", "log level")
	parallel := flag.Int("parallel", 4, "cases run concurrently")
	flag.Parse()

	if err := run(context.Background(), *traceDir, *level, *parallel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, traceDir, level string, parallel int) error {
	log := logger.NewWithWriter(os.Stderr, level)

	traces, err := tracefile.New(traceDir)
	if err != nil {
		return err
	}
	pub, err := publisher.New(auditmemory.NewInMemoryStore(), publisher.WithLogger(log))
	if err != nil {
		return err
	}
	reviewer := review.NewLogRequester(log)

	fraudRun, err := workflow.New(fraud.Definition(nil), traces, pub, reviewer, workflow.WithLogger(log))
	if err != nil {
		return err
	}
	vendorRun, err := workflow.New(vendor.Definition(nil), traces, pub, reviewer, workflow.WithLogger(log))
	if err != nil {
		return err
	}
	registry, err := workflow.NewRegistry(fraudRun, vendorRun)
	if err != nil {
		return err
	}

	results := make([]*workflow.Decision, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallel, 1))
	for i, sc := range scenarios {
		g.Go(func() error {
			d, err := registry.Submit(gctx, sc.workflow, sc.c)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", sc.workflow, sc.c.ID, err)
			}
			results[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, d := range results {
		fmt.Printf("== %s %s (execution %s)\n", d.Workflow, d.CaseID, d.ExecutionID)
		fmt.Println(d.Explanation)
		for _, w := range d.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
		fmt.Println()
	}
	return nil
}
