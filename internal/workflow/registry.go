package workflow

import (
	"context"
	"fmt"
	"slices"
	"sort"

	dErrors "riskflow/pkg/domain-errors"
)

// Runner is a workflow with its type parameters erased, so workflows over
// different fact types can share one registry.
type Runner interface {
	Name() string
	Labels() []Label
	Run(ctx context.Context, c Case) (*Decision, error)
}

// Registry resolves workflows by name. It is immutable after construction.
type Registry struct {
	runners map[string]Runner
}

// NewRegistry registers runners under their names.
func NewRegistry(runners ...Runner) (*Registry, error) {
	r := &Registry{runners: make(map[string]Runner, len(runners))}
	for _, run := range runners {
		if run == nil {
			return nil, fmt.Errorf("nil workflow runner")
		}
		if _, dup := r.runners[run.Name()]; dup {
			return nil, fmt.Errorf("workflow %s registered twice", run.Name())
		}
		r.runners[run.Name()] = run
	}
	return r, nil
}

// Get returns the named workflow or a CodeNotFound error.
func (r *Registry) Get(name string) (Runner, error) {
	run, ok := r.runners[name]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("unknown workflow %q", name))
	}
	return run, nil
}

// Names lists registered workflows in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.runners))
	for name := range r.runners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Submit runs c through the named workflow.
func (r *Registry) Submit(ctx context.Context, workflow string, c Case) (*Decision, error) {
	run, err := r.Get(workflow)
	if err != nil {
		return nil, err
	}
	d, err := run.Run(ctx, c)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(run.Labels(), d.Decision) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("workflow %s produced unknown decision %s", workflow, d.Decision))
	}
	return d, nil
}
