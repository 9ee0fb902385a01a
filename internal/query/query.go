// Package query builds and parses URL query strings with a stable key order
// and RFC 3986 percent-encoding.
//
// Unlike net/url.Values, insertion order is preserved, repeated keys are
// emitted once per value, and a space encodes as %20 rather than '+'.
package query

import (
	"fmt"
	"strings"
)

// Pair is a single key/value entry.
type Pair struct {
	Key   string
	Value string
}

// Values is an ordered multimap of query parameters.
type Values []Pair

// Add appends a value for key.
func (v *Values) Add(key, value string) {
	*v = append(*v, Pair{Key: key, Value: value})
}

// AddAll appends one entry per value, producing a repeated key.
func (v *Values) AddAll(key string, values ...string) {
	for _, value := range values {
		v.Add(key, value)
	}
}

// Set replaces every value of key with value. A new key is appended.
func (v *Values) Set(key, value string) {
	out := (*v)[:0]
	replaced := false
	for _, p := range *v {
		if p.Key != key {
			out = append(out, p)
			continue
		}
		if !replaced {
			out = append(out, Pair{Key: key, Value: value})
			replaced = true
		}
	}
	if !replaced {
		out = append(out, Pair{Key: key, Value: value})
	}
	*v = out
}

// Del removes every value of key.
func (v *Values) Del(key string) {
	out := (*v)[:0]
	for _, p := range *v {
		if p.Key != key {
			out = append(out, p)
		}
	}
	*v = out
}

// Get returns the first value of key, or "".
func (v Values) Get(key string) string {
	for _, p := range v {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// GetAll returns every value of key in order.
func (v Values) GetAll(key string) []string {
	var out []string
	for _, p := range v {
		if p.Key == key {
			out = append(out, p.Value)
		}
	}
	return out
}

// Has reports whether key is present.
func (v Values) Has(key string) bool {
	for _, p := range v {
		if p.Key == key {
			return true
		}
	}
	return false
}

// Merge appends every entry of other.
func (v *Values) Merge(other Values) {
	*v = append(*v, other...)
}

// Encode renders the values as key=value pairs joined by '&'.
func (v Values) Encode() string {
	if len(v) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range v {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(Escape(p.Key))
		b.WriteByte('=')
		b.WriteString(Escape(p.Value))
	}
	return b.String()
}

// Parse decodes a query string produced by Encode. A leading '?' is ignored.
func Parse(s string) (Values, error) {
	s = strings.TrimPrefix(s, "?")
	if s == "" {
		return nil, nil
	}
	var out Values
	for _, part := range strings.Split(s, "&") {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		k, err := Unescape(key)
		if err != nil {
			return nil, fmt.Errorf("invalid query key %q: %w", key, err)
		}
		val, err := Unescape(value)
		if err != nil {
			return nil, fmt.Errorf("invalid query value for %q: %w", k, err)
		}
		out.Add(k, val)
	}
	return out, nil
}

// AppendToPath appends the encoded values to path, using '&' when path
// already has a query component.
func AppendToPath(path string, v Values) string {
	encoded := v.Encode()
	if encoded == "" {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&" + encoded
	}
	return path + "?" + encoded
}

const upperhex = "0123456789ABCDEF"

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~':
		return true
	}
	return false
}

// Escape percent-encodes every byte outside the RFC 3986 unreserved set.
func Escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	buf := make([]byte, 0, len(s)+2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			buf = append(buf, c)
			continue
		}
		buf = append(buf, '%', upperhex[c>>4], upperhex[c&15])
	}
	return string(buf)
}

// Unescape reverses Escape. '+' is kept literally.
func Unescape(s string) (string, error) {
	if !strings.Contains(s, "%") {
		return s, nil
	}
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			buf = append(buf, s[i])
			continue
		}
		if i+2 >= len(s) {
			return "", fmt.Errorf("truncated escape at offset %d", i)
		}
		hi, ok1 := unhex(s[i+1])
		lo, ok2 := unhex(s[i+2])
		if !ok1 || !ok2 {
			return "", fmt.Errorf("bad escape %q", s[i:i+3])
		}
		buf = append(buf, hi<<4|lo)
		i += 2
	}
	return string(buf), nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
