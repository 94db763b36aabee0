package ocr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

var marshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()

// Normalize rebuilds v from plain JSON values: int64 (uint64 above
// MaxInt64), float64, string, bool, nil, []any and map[string]any.
// Sized integers and floats are widened, arrays and slices become lists,
// structs become maps keyed by their json tags. Values implementing
// json.Marshaler are passed through to the encoder. Anything else
// (complex numbers, channels, funcs, non-finite floats) is a
// SerializationError.
func Normalize(v any) (any, error) {
	return normalize(reflect.ValueOf(v))
}

// Marshal normalizes v and encodes it as JSON without HTML escaping.
func Marshal(v any) ([]byte, error) {
	n, err := Normalize(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(n); err != nil {
		return nil, &SerializationError{Type: fmt.Sprintf("%T", v), Cause: err}
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func normalize(rv reflect.Value) (any, error) {
	if !rv.IsValid() {
		return nil, nil
	}

	if rv.Type().Implements(marshalerType) {
		if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil() {
			return nil, nil
		}
		return rv.Interface(), nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u <= math.MaxInt64 {
			return int64(u), nil
		}
		return u, nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, &SerializationError{Type: rv.Type().String(), Cause: fmt.Errorf("unsupported value %v", f)}
		}
		return f, nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return normalize(rv.Elem())
	case reflect.Slice:
		if rv.IsNil() {
			return nil, nil
		}
		return normalizeList(rv)
	case reflect.Array:
		return normalizeList(rv)
	case reflect.Map:
		if rv.IsNil() {
			return nil, nil
		}
		return normalizeMap(rv)
	case reflect.Struct:
		out := make(map[string]any, rv.NumField())
		if err := normalizeStruct(rv, out); err != nil {
			return nil, err
		}
		return out, nil
	}

	return nil, &SerializationError{Type: rv.Type().String()}
}

func normalizeList(rv reflect.Value) (any, error) {
	out := make([]any, rv.Len())
	for i := range out {
		v, err := normalize(rv.Index(i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func normalizeMap(rv reflect.Value) (any, error) {
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key, err := mapKey(iter.Key())
		if err != nil {
			return nil, err
		}
		v, err := normalize(iter.Value())
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

func mapKey(k reflect.Value) (string, error) {
	switch k.Kind() {
	case reflect.String:
		return k.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	}
	return "", &SerializationError{Type: "map key " + k.Type().String()}
}

func normalizeStruct(rv reflect.Value, out map[string]any) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")

		fv := rv.Field(i)
		if field.Anonymous && name == "" && fv.Kind() == reflect.Struct {
			if err := normalizeStruct(fv, out); err != nil {
				return err
			}
			continue
		}
		if !field.IsExported() {
			continue
		}
		if name == "" {
			name = field.Name
		}
		if strings.Contains(opts, "omitempty") && isEmpty(fv) {
			continue
		}

		v, err := normalize(fv)
		if err != nil {
			return err
		}
		out[name] = v
	}
	return nil
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Struct:
		return false
	}
	return v.IsZero()
}
