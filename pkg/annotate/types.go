package annotate

import (
	"fmt"
	"time"
)

// Target selects which dashboards to annotate: a single exact name, or every
// dashboard whose name begins with Prefix or ends with Suffix. Exactly one of
// the three fields is set.
type Target struct {
	Name   string
	Prefix string
	Suffix string
}

// IsExact reports whether the target names a single dashboard.
func (t Target) IsExact() bool {
	return t.Name != ""
}

func (t Target) String() string {
	switch {
	case t.Name != "":
		return fmt.Sprintf("dashboard %q", t.Name)
	case t.Prefix != "":
		return fmt.Sprintf("prefix %q", t.Prefix)
	default:
		return fmt.Sprintf("suffix %q", t.Suffix)
	}
}

// Request describes one annotation to insert. Time defaults to the current
// UTC time when the caller does not supply one.
type Request struct {
	Label               string
	Value               string
	Time                time.Time
	WidgetTitleContains string
}

// AnnotationLabel is the label rendered on the marker, e.g. "incident: INC-1234".
func (r Request) AnnotationLabel() string {
	return r.Label + ": " + r.Value
}

// AnnotationValue is the marker's position on the time axis, RFC3339 with a
// Z suffix for UTC. Sub-second precision is kept when the source time has it.
func (r Request) AnnotationValue() string {
	return r.Time.Format(time.RFC3339Nano)
}

// OutcomeKind classifies what happened to one dashboard in a batch.
type OutcomeKind string

const (
	// OutcomeAnnotated means the merged document was persisted.
	OutcomeAnnotated OutcomeKind = "annotated"
	// OutcomePreviewed means the merge was computed but not persisted (dry run).
	OutcomePreviewed OutcomeKind = "previewed"
	// OutcomeNoOp means no widget matched, so the dashboard was left alone.
	OutcomeNoOp OutcomeKind = "no-op"
	// OutcomeNoMatch means the target resolved to zero dashboards. It is
	// batch-scoped: the run yields this single outcome and nothing else.
	OutcomeNoMatch OutcomeKind = "no-match"
	// OutcomeFailed means this dashboard could not be annotated.
	OutcomeFailed OutcomeKind = "failed"
)

// Outcome is the per-dashboard result of a run.
type Outcome struct {
	Kind      OutcomeKind
	Dashboard string // empty for batch-scoped outcomes
	Widgets   int    // widgets annotated, for Annotated and Previewed
	Err       error  // reason, for Failed
}

// AnyFailed reports whether at least one outcome is a failure. NoMatch and
// NoOp are not failures.
func AnyFailed(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if o.Kind == OutcomeFailed {
			return true
		}
	}
	return false
}
