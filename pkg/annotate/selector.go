package annotate

import (
	"strings"

	"github.com/mapr/cwnote/pkg/dashboard"
)

// metricWidgetType is the only widget type CloudWatch renders vertical
// annotations on.
const metricWidgetType = "metric"

// SelectNames resolves a target against the store's dashboard list. An exact
// target passes through without an existence check; whether it exists
// surfaces later, at fetch time. Prefix and suffix targets filter known in
// listing order. An empty result is not an error.
func SelectNames(target Target, known []string) []string {
	if target.IsExact() {
		return []string{target.Name}
	}

	var names []string
	for _, name := range known {
		switch {
		case target.Prefix != "" && strings.HasPrefix(name, target.Prefix):
			names = append(names, name)
		case target.Suffix != "" && strings.HasSuffix(name, target.Suffix):
			names = append(names, name)
		}
	}
	return names
}

// SelectWidgets returns the indices of widgets eligible for annotation: metric
// widgets whose title contains titleFilter (case-sensitive). An empty filter
// matches every metric widget. Widgets without a title never match a
// non-empty filter.
func SelectWidgets(doc *dashboard.Document, titleFilter string) []int {
	var indices []int
	for i := 0; i < doc.WidgetCount(); i++ {
		if doc.WidgetType(i) != metricWidgetType {
			continue
		}
		if titleFilter != "" {
			title, ok := doc.WidgetTitle(i)
			if !ok || !strings.Contains(title, titleFilter) {
				continue
			}
		}
		indices = append(indices, i)
	}
	return indices
}
