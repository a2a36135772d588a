package annotate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mapr/cwnote/pkg/dashboard"
	"github.com/mapr/cwnote/pkg/store"
)

// Runner applies one annotation request across a set of dashboards. Each
// dashboard is processed independently and sequentially; one dashboard's
// failure never aborts its siblings, and there is no rollback across
// dashboards.
type Runner struct {
	store   store.Store
	merger  *Merger
	log     *slog.Logger
	metrics *Metrics

	// OnResolved, when set, is called once with the matched dashboard names
	// before a prefix/suffix batch is processed, so callers can show what a
	// multi-dashboard run is about to touch. It is not called for exact
	// targets or when nothing matched.
	OnResolved func(names []string)
}

// NewRunner creates a runner over the given store.
func NewRunner(s store.Store, logger *slog.Logger, metrics *Metrics) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:   s,
		merger:  NewMerger(),
		log:     logger,
		metrics: metrics,
	}
}

// Run resolves the target to dashboard names and annotates each one,
// returning one outcome per dashboard. A target that resolves to zero names
// yields a single batch-scoped NoMatch outcome. The whole batch always runs
// to completion.
func (r *Runner) Run(ctx context.Context, target Target, req Request, dryRun bool) []Outcome {
	names, err := r.resolve(ctx, target)
	if err != nil {
		// Batch-scoped: nothing was resolved, so no per-dashboard counter
		// moves here.
		return []Outcome{{Kind: OutcomeFailed, Err: err}}
	}
	if len(names) == 0 {
		return []Outcome{{Kind: OutcomeNoMatch}}
	}
	r.log.Debug("resolved dashboards", "target", target.String(), "count", len(names))
	if !target.IsExact() && r.OnResolved != nil {
		r.OnResolved(names)
	}

	outcomes := make([]Outcome, 0, len(names))
	for _, name := range names {
		outcome := r.runOne(ctx, name, req, dryRun)
		r.count(outcome)
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (r *Runner) resolve(ctx context.Context, target Target) ([]string, error) {
	if target.IsExact() {
		return []string{target.Name}, nil
	}
	known, err := r.store.ListNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dashboards: %w", err)
	}
	return SelectNames(target, known), nil
}

func (r *Runner) runOne(ctx context.Context, name string, req Request, dryRun bool) Outcome {
	failed := func(err error) Outcome {
		return Outcome{Kind: OutcomeFailed, Dashboard: name, Err: err}
	}

	body, err := r.store.Fetch(ctx, name)
	if err != nil {
		return failed(fmt.Errorf("failed to fetch dashboard: %w", err))
	}

	doc, err := dashboard.Parse(body)
	if err != nil {
		return failed(err)
	}

	indices := SelectWidgets(doc, req.WidgetTitleContains)
	r.log.Debug("selected widgets", "dashboard", name, "total", doc.WidgetCount(), "eligible", len(indices))
	if len(indices) == 0 {
		return Outcome{Kind: OutcomeNoOp, Dashboard: name}
	}

	merged, err := r.merger.Apply(doc, indices, req)
	if err != nil {
		return failed(err)
	}

	if dryRun {
		return Outcome{Kind: OutcomePreviewed, Dashboard: name, Widgets: len(indices)}
	}

	rendered, err := merged.Render()
	if err != nil {
		return failed(err)
	}
	if err := r.store.Persist(ctx, name, rendered); err != nil {
		return failed(fmt.Errorf("failed to persist dashboard: %w", err))
	}

	return Outcome{Kind: OutcomeAnnotated, Dashboard: name, Widgets: len(indices)}
}

func (r *Runner) count(o Outcome) {
	if r.metrics == nil {
		return
	}
	switch o.Kind {
	case OutcomeAnnotated:
		r.metrics.DashboardsAnnotated.Inc()
		r.metrics.WidgetsAnnotated.Add(float64(o.Widgets))
	case OutcomeFailed:
		r.metrics.DashboardsFailed.Inc()
	}
}
