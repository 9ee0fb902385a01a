// Package params encodes typed request parameter structs into query values.
//
// Exported fields are named by converting the Go field name to snake_case
// (PipeID becomes pipe_id) unless a `param:"name"` tag overrides it; a tag of
// "-" skips the field. Zero values are omitted, so a pointer is needed to
// send an explicit false or 0. Slices produce one entry per element.
package params

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/tinybird-go/tinybird-go/internal/query"
)

// TimeLayout is the layout used for time.Time parameters.
const TimeLayout = "2006-01-02T15:04:05-07:00"

var timeType = reflect.TypeOf(time.Time{})

// Encode appends the non-zero fields of v to a new Values. v may be a
// struct, a pointer to a struct, a map with string keys or nil.
func Encode(v any) (query.Values, error) {
	var out query.Values
	if err := AppendTo(&out, v); err != nil {
		return nil, err
	}
	return out, nil
}

// AppendTo is Encode writing into an existing Values.
func AppendTo(out *query.Values, v any) error {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		return encodeStruct(out, rv)
	case reflect.Map:
		return encodeMap(out, rv)
	default:
		return fmt.Errorf("params: cannot encode %s", rv.Type())
	}
}

func encodeStruct(out *query.Values, rv reflect.Value) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("param")
		if tag == "-" {
			continue
		}

		fv := rv.Field(i)
		if field.Anonymous && tag == "" && indirectType(field.Type).Kind() == reflect.Struct && indirectType(field.Type) != timeType {
			if fv.Kind() == reflect.Pointer && fv.IsNil() {
				continue
			}
			if err := encodeStruct(out, reflect.Indirect(fv)); err != nil {
				return err
			}
			continue
		}
		if !field.IsExported() {
			continue
		}

		name := tag
		if name == "" {
			name = SnakeCase(field.Name)
		}
		if err := encodeValue(out, name, fv, false); err != nil {
			return fmt.Errorf("params: field %s: %w", field.Name, err)
		}
	}
	return nil
}

func encodeMap(out *query.Values, rv reflect.Value) error {
	if rv.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("params: map key must be string, got %s", rv.Type().Key())
	}
	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}
	slices.Sort(keys)

	for _, k := range keys {
		value := rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key()))
		if err := encodeValue(out, k, value, true); err != nil {
			return fmt.Errorf("params: key %s: %w", k, err)
		}
	}
	return nil
}

// encodeValue adds fv under name. Map entries and non-nil pointers are
// explicit and keep their zero values.
func encodeValue(out *query.Values, name string, fv reflect.Value, explicit bool) error {
	for fv.Kind() == reflect.Pointer || fv.Kind() == reflect.Interface {
		if fv.IsNil() {
			return nil
		}
		if fv.Kind() == reflect.Pointer {
			explicit = true
		}
		fv = fv.Elem()
	}

	if fv.Kind() == reflect.Slice || fv.Kind() == reflect.Array {
		for j := 0; j < fv.Len(); j++ {
			s, ok, err := format(fv.Index(j), true)
			if err != nil {
				return err
			}
			if ok {
				out.Add(name, s)
			}
		}
		return nil
	}

	s, ok, err := format(fv, explicit)
	if err != nil || !ok {
		return err
	}
	out.Add(name, s)
	return nil
}

// format renders a scalar. Zero values are reported as absent unless
// explicit is set.
func format(v reflect.Value, explicit bool) (string, bool, error) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "", false, nil
		}
		v = v.Elem()
	}
	if !explicit && v.IsZero() {
		return "", false, nil
	}

	if v.Type() == timeType {
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return "", false, nil
		}
		return t.Format(TimeLayout), true, nil
	}

	switch v.Kind() {
	case reflect.String:
		if v.Len() == 0 {
			return "", false, nil
		}
		return v.String(), true, nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if d, ok := v.Interface().(time.Duration); ok {
			return strconv.FormatInt(int64(d/time.Second), 10), true, nil
		}
		return strconv.FormatInt(v.Int(), 10), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true, nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), true, nil
	}

	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String(), true, nil
	}
	return "", false, fmt.Errorf("unsupported type %s", v.Type())
}

func indirectType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// SnakeCase converts a Go identifier to snake_case, keeping acronyms
// together: PipeID becomes pipe_id and OutputFormatJSONQuote64bitIntegers
// becomes output_format_json_quote_64bit_integers.
func SnakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)

	for i, r := range runes {
		if i > 0 {
			prev := runes[i-1]
			switch {
			case unicode.IsUpper(r):
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			case unicode.IsDigit(r):
				if unicode.IsLetter(prev) {
					b.WriteByte('_')
				}
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
