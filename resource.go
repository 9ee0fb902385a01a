package tinybird

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/tinybird-go/tinybird-go/internal/apierrors"
)

// timeLayouts are tried in order when decoding API timestamps. Fractional
// seconds are accepted by the first layout even though it does not name them.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Time is a timestamp as returned by the Tinybird API
// ("2024-01-15 10:30:00.123456"). Values that cannot be parsed decode to the
// zero Time instead of failing the whole resource.
type Time struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time = parseTime(s)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// MarshalYAML renders the timestamp for YAML encoders.
func (t Time) MarshalYAML() (any, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.UTC().Format(time.RFC3339Nano), nil
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// resource keeps the JSON a value was decoded from.
type resource struct {
	raw json.RawMessage
}

// RawJSON returns the response body the resource was decoded from, including
// fields the SDK does not map.
func (r *resource) RawJSON() json.RawMessage {
	return r.raw
}

func (r *resource) setRaw(data json.RawMessage) {
	r.raw = data
}

type rawHolder[T any] interface {
	*T
	setRaw(json.RawMessage)
}

// normalizer is implemented by resources that fix up fields after decoding,
// such as fallbacks between alternate field names.
type normalizer interface {
	normalize(raw map[string]json.RawMessage)
}

// decodeResource decodes data into a new T and records data as its raw JSON.
func decodeResource[T any, PT rawHolder[T]](data json.RawMessage) (*T, error) {
	v := new(T)
	if err := decodeInto(data, v); err != nil {
		return nil, err
	}
	PT(v).setRaw(data)
	return v, nil
}

// decodeInto unmarshals data into v and runs its normalize hook.
func decodeInto(data json.RawMessage, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &apierrors.ResponseDecodeError{StatusCode: 200, Body: data, Err: err}
	}
	if n, ok := v.(normalizer); ok {
		var fields map[string]json.RawMessage
		if json.Unmarshal(data, &fields) == nil {
			n.normalize(fields)
		}
	}
	return nil
}

// decodeList decodes the array under key of a JSON object. Each element
// keeps its own raw JSON. A missing key yields an empty list.
func decodeList[T any, PT rawHolder[T]](data json.RawMessage, key string) ([]*T, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, &apierrors.ResponseDecodeError{StatusCode: 200, Body: data, Err: err}
	}
	return decodeElements[T, PT](envelope[key])
}

func decodeElements[T any, PT rawHolder[T]](data json.RawMessage) ([]*T, error) {
	if len(data) == 0 || string(data) == "null" {
		return []*T{}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &apierrors.ResponseDecodeError{StatusCode: 200, Body: data, Err: err}
	}
	out := make([]*T, 0, len(items))
	for _, item := range items {
		v, err := decodeResource[T, PT](item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// stringOr returns the JSON string under key, or "" when it is absent or not
// a string.
func stringOr(fields map[string]json.RawMessage, key string) string {
	var s string
	if raw, ok := fields[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}
