package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a-b_c.d~e", "a-b_c.d~e"},
		{"SELECT * FROM t", "SELECT%20%2A%20FROM%20t"},
		{"a+b", "a%2Bb"},
		{"x=1&y=2", "x%3D1%26y%3D2"},
		{"ñ", "%C3%B1"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Escape(tt.in), tt.in)
	}
}

func TestEncode_PreservesOrderAndRepeats(t *testing.T) {
	var v Values
	v.Add("q", "SELECT 1")
	v.AddAll("scope", "DATASOURCES:READ:a", "PIPES:READ:b")
	v.Add("wait", "true")

	assert.Equal(t, "q=SELECT%201&scope=DATASOURCES%3AREAD%3Aa&scope=PIPES%3AREAD%3Ab&wait=true", v.Encode())
}

func TestParse_RoundTrip(t *testing.T) {
	var v Values
	v.Add("name", "my pipe")
	v.AddAll("tags", "a", "b c", "d+e")
	v.Add("empty", "")
	v.Add("unicode", "日本")

	parsed, err := Parse(v.Encode())
	require.NoError(t, err)
	assert.Equal(t, v, parsed)
	assert.Equal(t, []string{"a", "b c", "d+e"}, parsed.GetAll("tags"))
}

func TestParse(t *testing.T) {
	v, err := Parse("?a=1&&b&c=%20x")
	require.NoError(t, err)
	assert.Equal(t, Values{{"a", "1"}, {"b", ""}, {"c", " x"}}, v)

	empty, err := Parse("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = Parse("a=%zz")
	assert.Error(t, err)

	_, err = Parse("a=%4")
	assert.Error(t, err)
}

func TestSetAndDel(t *testing.T) {
	v := Values{{"a", "1"}, {"b", "2"}, {"a", "3"}}

	v.Set("a", "x")
	assert.Equal(t, Values{{"a", "x"}, {"b", "2"}}, v)

	v.Set("c", "y")
	assert.Equal(t, "y", v.Get("c"))

	v.Del("b")
	assert.False(t, v.Has("b"))
	assert.Equal(t, Values{{"a", "x"}, {"c", "y"}}, v)
	assert.Equal(t, "", v.Get("missing"))
}

func TestAppendToPath(t *testing.T) {
	var v Values
	v.Add("a", "1")

	assert.Equal(t, "/v0/pipes?a=1", AppendToPath("/v0/pipes", v))
	assert.Equal(t, "/v0/pipes?x=y&a=1", AppendToPath("/v0/pipes?x=y", v))
	assert.Equal(t, "/v0/pipes", AppendToPath("/v0/pipes", nil))
}

func TestMerge(t *testing.T) {
	v := Values{{"a", "1"}}
	v.Merge(Values{{"b", "2"}, {"a", "3"}})
	assert.Equal(t, "a=1&b=2&a=3", v.Encode())
}
