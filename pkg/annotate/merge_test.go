package annotate

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapr/cwnote/pkg/dashboard"
)

type verticalAnnotation struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func verticalOf(t *testing.T, doc *dashboard.Document, widget int) []verticalAnnotation {
	t.Helper()
	var decoded struct {
		Properties struct {
			Annotations struct {
				Vertical []verticalAnnotation `json:"vertical"`
			} `json:"annotations"`
		} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(doc.RawWidget(widget), &decoded))
	return decoded.Properties.Annotations.Vertical
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func TestMergerApply(t *testing.T) {
	merger := NewMerger()

	t.Run("inserts annotation into matching widget", func(t *testing.T) {
		doc, err := dashboard.Parse([]byte(`{"widgets":[{"type":"metric","properties":{"title":"Overall Latency"}}]}`))
		require.NoError(t, err)

		req := Request{
			Label: "incident",
			Value: "INC-1234",
			Time:  mustTime(t, "2025-01-20T12:00:00Z"),
		}

		merged, err := merger.Apply(doc, SelectWidgets(doc, "Latency"), req)
		require.NoError(t, err)

		want := []verticalAnnotation{{Label: "incident: INC-1234", Value: "2025-01-20T12:00:00Z"}}
		if diff := cmp.Diff(want, verticalOf(t, merged, 0)); diff != "" {
			t.Errorf("unexpected vertical annotations (-want +got):\n%s", diff)
		}
	})

	t.Run("no matching widgets leaves the document unchanged", func(t *testing.T) {
		body := `{"widgets":[{"type":"metric","properties":{"title":"Overall Latency"}}]}`
		doc, err := dashboard.Parse([]byte(body))
		require.NoError(t, err)

		merged, err := merger.Apply(doc, SelectWidgets(doc, "CPU"), Request{Label: "l", Value: "v", Time: time.Now()})
		require.NoError(t, err)

		out, err := merged.Render()
		require.NoError(t, err)
		assert.JSONEq(t, body, string(out))
	})

	t.Run("untouched widgets survive byte-for-byte", func(t *testing.T) {
		doc, err := dashboard.Parse([]byte(`{"period":300,"widgets":[
			{"type":"metric","properties":{"title":"CPU","metrics":[["AWS/EC2","CPUUtilization"]],"yAxis":{"left":{"min":0.0}}}},
			{"type":"metric","properties":{"title":"Overall Latency"}}
		]}`))
		require.NoError(t, err)

		merged, err := merger.Apply(doc, SelectWidgets(doc, "Latency"), Request{
			Label: "deploy", Value: "1.2.3", Time: mustTime(t, "2025-01-20T12:00:00Z"),
		})
		require.NoError(t, err)

		assert.True(t, bytes.Equal(doc.RawWidget(0), merged.RawWidget(0)),
			"widget 0 was not selected and must keep its exact serialized form")
		assert.NotEqual(t, string(doc.RawWidget(1)), string(merged.RawWidget(1)))
	})

	t.Run("input document is not mutated", func(t *testing.T) {
		doc, err := dashboard.Parse([]byte(`{"widgets":[{"type":"metric","properties":{"title":"Latency"}}]}`))
		require.NoError(t, err)

		before, err := doc.Render()
		require.NoError(t, err)

		_, err = merger.Apply(doc, []int{0}, Request{Label: "l", Value: "v", Time: time.Now()})
		require.NoError(t, err)

		after, err := doc.Render()
		require.NoError(t, err)
		assert.Equal(t, string(before), string(after))
	})

	t.Run("sequential merges append in call order", func(t *testing.T) {
		doc, err := dashboard.Parse([]byte(`{"widgets":[{"type":"metric","properties":{"title":"Latency"}}]}`))
		require.NoError(t, err)

		values := []string{"1.0.0", "1.0.1", "1.0.2"}
		for _, v := range values {
			doc, err = merger.Apply(doc, SelectWidgets(doc, "Latency"), Request{
				Label: "deploy", Value: v, Time: mustTime(t, "2025-01-20T12:00:00Z"),
			})
			require.NoError(t, err)
		}

		vertical := verticalOf(t, doc, 0)
		require.Len(t, vertical, len(values))
		for i, v := range values {
			assert.Equal(t, "deploy: "+v, vertical[i].Label)
		}
	})

	t.Run("sub-second precision is kept", func(t *testing.T) {
		doc, err := dashboard.Parse([]byte(`{"widgets":[{"type":"metric"}]}`))
		require.NoError(t, err)

		merged, err := merger.Apply(doc, []int{0}, Request{
			Label: "deploy", Value: "1.2.3",
			Time: mustTime(t, "2025-01-20T12:00:00.250Z"),
		})
		require.NoError(t, err)

		vertical := verticalOf(t, merged, 0)
		require.Len(t, vertical, 1)
		assert.Equal(t, "2025-01-20T12:00:00.25Z", vertical[0].Value)
	})
}
