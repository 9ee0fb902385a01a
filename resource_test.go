package tinybird

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTime_Unmarshal(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{`"2024-01-15 10:30:00"`, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{`"2024-01-15 10:30:00.5"`, time.Date(2024, 1, 15, 10, 30, 0, 500_000_000, time.UTC)},
		{`"2024-01-15T10:30:00Z"`, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{`"2024-01-15T10:30:00"`, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{`"2024-01-15"`, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{`"yesterday"`, time.Time{}},
		{`""`, time.Time{}},
		{`null`, time.Time{}},
		{`1705314600`, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var got Time
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &got))
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got.Time, tt.want)
		})
	}
}

func TestTime_Marshal(t *testing.T) {
	data, err := json.Marshal(Time{time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-15T10:30:00Z"`, string(data))

	data, err = json.Marshal(Time{})
	require.NoError(t, err)
	assert.Equal(t, `null`, string(data))

	out, err := yaml.Marshal(map[string]any{"at": Time{time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)}})
	require.NoError(t, err)
	assert.Contains(t, string(out), "2024-01-15T00:00:00Z")
}

func TestDecodeResource_KeepsRawJSON(t *testing.T) {
	raw := json.RawMessage(`{"name":"v","type":"secret","future":true}`)
	v, err := decodeResource[Variable](raw)
	require.NoError(t, err)
	assert.Equal(t, "v", v.Name)
	assert.JSONEq(t, string(raw), string(v.RawJSON()))
}

func TestDecodeResource_EmptyBody(t *testing.T) {
	v, err := decodeResource[DeleteResult](nil)
	require.NoError(t, err)
	assert.False(t, v.OK)
}

func TestDecodeResource_WrongShape(t *testing.T) {
	_, err := decodeResource[Pipe](json.RawMessage(`{"nodes":"not a list"}`))

	var decodeErr *ResponseDecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, 200, decodeErr.StatusCode)
}

func TestDecodeList(t *testing.T) {
	items, err := decodeList[Variable](json.RawMessage(`{"variables":[{"name":"a"},{"name":"b"}]}`), "variables")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.JSONEq(t, `{"name":"b"}`, string(items[1].RawJSON()))

	items, err = decodeList[Variable](json.RawMessage(`{"variables":null}`), "variables")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	_, err = decodeList[Variable](json.RawMessage(`[]`), "variables")
	assert.Error(t, err)
}
