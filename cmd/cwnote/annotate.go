package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mapr/cwnote/pkg/annotate"
	"github.com/mapr/cwnote/pkg/store"
	"github.com/mapr/cwnote/pkg/store/cloudwatch"
)

// makeStore builds the dashboard store. Swapped out by tests.
var makeStore = func(ctx context.Context, region string, logger *slog.Logger) (store.Store, error) {
	return cloudwatch.New(ctx, cloudwatch.Config{Region: region}, logger)
}

type annotateOptions struct {
	dashboard       string
	dashboardPrefix string
	dashboardSuffix string
	label           string
	value           string
	timeStr         string
	titleContains   string
	dryRun          bool
}

func newAnnotateCommand(root *rootOptions) *cobra.Command {
	opts := &annotateOptions{}

	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Add a vertical annotation to dashboard(s) / widget(s)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnotate(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.dashboard, "dashboard", "", "Single dashboard name to update")
	cmd.Flags().StringVar(&opts.dashboardPrefix, "dashboard-prefix", "", "Annotate all dashboards whose name starts with this prefix")
	cmd.Flags().StringVar(&opts.dashboardSuffix, "dashboard-suffix", "", "Annotate all dashboards whose name ends with this suffix")
	cmd.Flags().StringVar(&opts.label, "label", "version", `Annotation label, e.g. "version", "incident", "deploy"`)
	cmd.Flags().StringVar(&opts.value, "value", "", `Annotation value, e.g. "1.2.3" or "INC-1234"`)
	cmd.Flags().StringVar(&opts.timeStr, "time", "", "Annotation time (RFC3339); defaults to current UTC time")
	cmd.Flags().StringVar(&opts.titleContains, "widget-title-contains", "", "Only annotate widgets whose title contains this substring")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Show what would change without updating dashboards")

	cmd.MarkFlagsOneRequired("dashboard", "dashboard-prefix", "dashboard-suffix")
	cmd.MarkFlagsMutuallyExclusive("dashboard", "dashboard-prefix", "dashboard-suffix")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func runAnnotate(cmd *cobra.Command, root *rootOptions, opts *annotateOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := opts.toRequest()
	if err != nil {
		return err
	}
	target := opts.toTarget()

	logger := slog.Default()
	st, err := makeStore(ctx, root.region, logger)
	if err != nil {
		return err
	}

	metrics := annotate.NewMetrics(prometheus.NewRegistry())
	runner := annotate.NewRunner(st, logger, metrics)

	out := cmd.OutOrStdout()
	runner.OnResolved = func(names []string) {
		fmt.Fprintf(out, "%d dashboard(s) match %s:\n", len(names), target)
		for _, name := range names {
			fmt.Fprintf(out, "  - %s\n", name)
		}
	}

	outcomes := runner.Run(ctx, target, req, opts.dryRun)
	renderOutcomes(out, target, req, outcomes)

	if annotate.AnyFailed(outcomes) {
		return fmt.Errorf("%d of %d dashboard(s) failed", countFailed(outcomes), len(outcomes))
	}
	return nil
}

func (o *annotateOptions) toRequest() (annotate.Request, error) {
	ts := time.Now().UTC()
	if o.timeStr != "" {
		parsed, err := time.Parse(time.RFC3339, o.timeStr)
		if err != nil {
			return annotate.Request{}, fmt.Errorf("invalid --time %q: %w", o.timeStr, err)
		}
		ts = parsed
	}

	return annotate.Request{
		Label:               o.label,
		Value:               o.value,
		Time:                ts,
		WidgetTitleContains: o.titleContains,
	}, nil
}

func (o *annotateOptions) toTarget() annotate.Target {
	return annotate.Target{
		Name:   o.dashboard,
		Prefix: o.dashboardPrefix,
		Suffix: o.dashboardSuffix,
	}
}

func renderOutcomes(w io.Writer, target annotate.Target, req annotate.Request, outcomes []annotate.Outcome) {
	for _, o := range outcomes {
		switch o.Kind {
		case annotate.OutcomeNoMatch:
			fmt.Fprintf(w, "no dashboards matched %s\n", target)
		case annotate.OutcomeNoOp:
			fmt.Fprintf(w, "%s: no matching metric widgets found (nothing to annotate)\n", o.Dashboard)
		case annotate.OutcomePreviewed:
			fmt.Fprintf(w, "[dry-run] %s: would annotate %d widget(s) with %s %q\n", o.Dashboard, o.Widgets, req.Label, req.Value)
		case annotate.OutcomeAnnotated:
			fmt.Fprintf(w, "%s: annotated %d widget(s) with %s %q\n", o.Dashboard, o.Widgets, req.Label, req.Value)
		case annotate.OutcomeFailed:
			if o.Dashboard == "" {
				fmt.Fprintf(w, "failed: %v\n", o.Err)
			} else {
				fmt.Fprintf(w, "%s: failed: %v\n", o.Dashboard, o.Err)
			}
		}
	}
}

func countFailed(outcomes []annotate.Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Kind == annotate.OutcomeFailed {
			n++
		}
	}
	return n
}
