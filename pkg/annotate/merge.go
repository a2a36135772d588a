package annotate

import (
	"github.com/mapr/cwnote/pkg/dashboard"
)

// Merger inserts vertical annotations into selected dashboard widgets.
type Merger struct{}

// NewMerger creates a new merger
func NewMerger() *Merger {
	return &Merger{}
}

// Apply returns a copy of doc with one vertical annotation appended to each
// widget in indices, in insertion order. doc itself is left untouched so
// callers can diff against the pre-image (dry run). Widgets not in indices
// keep their serialized form byte-for-byte.
func (m *Merger) Apply(doc *dashboard.Document, indices []int, req Request) (*dashboard.Document, error) {
	merged := doc.Clone()
	label := req.AnnotationLabel()
	value := req.AnnotationValue()

	for _, i := range indices {
		if err := merged.AppendVerticalAnnotation(i, label, value); err != nil {
			return nil, err
		}
	}
	return merged, nil
}
