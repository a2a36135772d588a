package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed means the fetched body does not have the shape CloudWatch
// documents for dashboards: a JSON object with a "widgets" array.
var ErrMalformed = errors.New("malformed dashboard body")

// Document is a parsed dashboard body. Top-level fields are kept as raw JSON
// and widgets are split out positionally, so everything the merge does not
// touch round-trips byte-for-byte (modulo key order and whitespace, which
// CloudWatch does not care about).
type Document struct {
	fields  map[string]json.RawMessage
	widgets []json.RawMessage
}

// widgetProbe is the minimal decoded view needed for widget selection.
type widgetProbe struct {
	Type       string `json:"type"`
	Properties *struct {
		Title *string `json:"title"`
	} `json:"properties"`
}

// Parse parses a dashboard body. The body must be a JSON object with a
// "widgets" array; anything else is reported as ErrMalformed.
func Parse(body []byte) (*Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	raw, ok := fields["widgets"]
	if !ok {
		return nil, fmt.Errorf("%w: missing widgets field", ErrMalformed)
	}

	var widgets []json.RawMessage
	if err := json.Unmarshal(raw, &widgets); err != nil {
		return nil, fmt.Errorf("%w: widgets is not an array: %v", ErrMalformed, err)
	}

	return &Document{fields: fields, widgets: widgets}, nil
}

// WidgetCount returns the number of widgets in the document.
func (d *Document) WidgetCount() int {
	return len(d.widgets)
}

// WidgetType returns the "type" field of widget i, or "" if the widget is not
// an object or has no type.
func (d *Document) WidgetType(i int) string {
	var probe widgetProbe
	if err := json.Unmarshal(d.widgets[i], &probe); err != nil {
		return ""
	}
	return probe.Type
}

// WidgetTitle returns widget i's properties.title and whether it is present.
func (d *Document) WidgetTitle(i int) (string, bool) {
	var probe widgetProbe
	if err := json.Unmarshal(d.widgets[i], &probe); err != nil {
		return "", false
	}
	if probe.Properties == nil || probe.Properties.Title == nil {
		return "", false
	}
	return *probe.Properties.Title, true
}

// Clone returns a copy that can be modified without affecting the receiver.
// Raw widget entries are shared; AppendVerticalAnnotation replaces entries
// rather than mutating them in place, so sharing is safe.
func (d *Document) Clone() *Document {
	fields := make(map[string]json.RawMessage, len(d.fields))
	for k, v := range d.fields {
		fields[k] = v
	}
	widgets := make([]json.RawMessage, len(d.widgets))
	copy(widgets, d.widgets)
	return &Document{fields: fields, widgets: widgets}
}

// AppendVerticalAnnotation appends {label, value} to widget i's
// properties.annotations.vertical array, creating properties, annotations and
// vertical on the way if absent. Creating those containers is the only
// structural widening done; everything else in the widget is re-encoded as
// decoded. Number literals are preserved via json.Number.
func (d *Document) AppendVerticalAnnotation(i int, label, value string) error {
	dec := json.NewDecoder(bytes.NewReader(d.widgets[i]))
	dec.UseNumber()

	var widget map[string]any
	if err := dec.Decode(&widget); err != nil {
		return fmt.Errorf("%w: widget %d is not an object: %v", ErrMalformed, i, err)
	}

	props, err := objectField(widget, "properties")
	if err != nil {
		return fmt.Errorf("widget %d: %w", i, err)
	}
	anns, err := objectField(props, "annotations")
	if err != nil {
		return fmt.Errorf("widget %d: %w", i, err)
	}

	vertical, ok := anns["vertical"].([]any)
	if anns["vertical"] != nil && !ok {
		return fmt.Errorf("widget %d: %w: annotations.vertical is not an array", i, ErrMalformed)
	}

	anns["vertical"] = append(vertical, map[string]any{
		"label": label,
		"value": value,
	})

	encoded, err := json.Marshal(widget)
	if err != nil {
		return fmt.Errorf("failed to encode widget %d: %w", i, err)
	}
	d.widgets[i] = encoded
	return nil
}

// objectField returns parent[key] as an object, creating it if absent.
func objectField(parent map[string]any, key string) (map[string]any, error) {
	v, ok := parent[key]
	if !ok || v == nil {
		obj := map[string]any{}
		parent[key] = obj
		return obj, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an object", ErrMalformed, key)
	}
	return obj, nil
}

// Render serializes the document back to a dashboard body.
func (d *Document) Render() ([]byte, error) {
	widgets, err := json.Marshal(d.widgets)
	if err != nil {
		return nil, fmt.Errorf("failed to encode widgets: %w", err)
	}

	out := make(map[string]json.RawMessage, len(d.fields))
	for k, v := range d.fields {
		out[k] = v
	}
	out["widgets"] = widgets

	body, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode dashboard body: %w", err)
	}
	return body, nil
}

// RawWidget returns the serialized form of widget i. Used by tests to assert
// that untouched widgets survive a merge byte-for-byte.
func (d *Document) RawWidget(i int) json.RawMessage {
	return d.widgets[i]
}
