// Package ndjson encodes and decodes newline-delimited JSON.
package ndjson

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// maxLineSize bounds a single decoded line.
const maxLineSize = 16 << 20

// Marshal encodes each value on its own line. The result ends with a newline
// unless values is empty.
func Marshal[T any](values []T) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeAll(NewEncoder(&buf), values); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes every non-blank line of data into a T.
func Unmarshal[T any](data []byte) ([]T, error) {
	var out []T
	dec := NewDecoder(bytes.NewReader(data))
	for {
		var v T
		err := dec.Decode(&v)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

// Encoder writes values as NDJSON.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes v followed by a newline.
func (e *Encoder) Encode(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("ndjson: encode: %w", err)
	}
	data = append(data, '\n')
	_, err = e.w.Write(data)
	return err
}

// EncodeAll writes every value in order.
func EncodeAll[T any](e *Encoder, values []T) error {
	for i, v := range values {
		if err := e.Encode(v); err != nil {
			return fmt.Errorf("ndjson: line %d: %w", i+1, err)
		}
	}
	return nil
}

// Decoder reads NDJSON values one line at a time.
type Decoder struct {
	scanner *bufio.Scanner
	line    int
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Decoder{scanner: scanner}
}

// Decode reads the next non-blank line into v. It returns io.EOF when the
// input is exhausted.
func (d *Decoder) Decode(v any) error {
	for d.scanner.Scan() {
		d.line++
		line := bytes.TrimSpace(d.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := json.Unmarshal(line, v); err != nil {
			return fmt.Errorf("ndjson: line %d: %w", d.line, err)
		}
		return nil
	}
	if err := d.scanner.Err(); err != nil {
		return fmt.Errorf("ndjson: read: %w", err)
	}
	return io.EOF
}

// FirstLineIsObject reports whether the first non-blank line of data is a
// JSON object.
func FirstLineIsObject(data []byte) bool {
	for len(data) > 0 {
		line, rest, _ := bytes.Cut(data, []byte("\n"))
		data = rest
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if line[0] != '{' {
			return false
		}
		var obj map[string]json.RawMessage
		return json.Unmarshal(line, &obj) == nil
	}
	return false
}
