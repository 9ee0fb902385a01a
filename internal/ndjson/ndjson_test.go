package ndjson

import (
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestMarshal(t *testing.T) {
	data, err := Marshal([]event{{1, "a"}, {2, "b"}})
	require.NoError(t, err)
	assert.Equal(t, "{\"id\":1,\"name\":\"a\"}\n{\"id\":2,\"name\":\"b\"}\n", string(data))

	empty, err := Marshal([]event{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMarshal_Error(t *testing.T) {
	_, err := Marshal([]any{math.Inf(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestUnmarshal(t *testing.T) {
	got, err := Unmarshal[event]([]byte("{\"id\":1,\"name\":\"a\"}\n\n  \n{\"id\":2,\"name\":\"b\"}"))
	require.NoError(t, err)
	assert.Equal(t, []event{{1, "a"}, {2, "b"}}, got)
}

func TestUnmarshal_BadLine(t *testing.T) {
	_, err := Unmarshal[event]([]byte("{\"id\":1}\nnot json\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestDecoder_EOF(t *testing.T) {
	dec := NewDecoder(strings.NewReader("{\"id\":7}\n"))

	var e event
	require.NoError(t, dec.Decode(&e))
	assert.Equal(t, 7, e.ID)
	assert.Equal(t, io.EOF, dec.Decode(&e))
}

func TestFirstLineIsObject(t *testing.T) {
	tests := []struct {
		name string
		data string
		want bool
	}{
		{"object", "{\"a\":1}\n{\"a\":2}", true},
		{"leading blank lines", "\n\n  {\"a\":1}", true},
		{"csv", "a,b\n1,2", false},
		{"array", "[1,2]", false},
		{"broken object", "{\"a\":", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FirstLineIsObject([]byte(tt.data)))
		})
	}
}
