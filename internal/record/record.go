// Package record gives uniform field access over the shapes provider records
// arrive in: decoded JSON objects (map[string]any) and typed structs.
package record

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var ErrConversionFailed = errors.New("record: cannot convert to mapping")

// Accessor reads a single named field from a record.
type Accessor interface {
	Get(name string) (any, bool)
}

// Mapper is implemented by records that know how to render themselves as a
// key/value mapping.
type Mapper interface {
	ToMap() map[string]any
}

type Map map[string]any

func (m Map) Get(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

type structAccessor struct {
	v reflect.Value
}

func (s structAccessor) Get(name string) (any, bool) {
	t := s.v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := strings.Split(f.Tag.Get("json"), ",")[0]
		if tag == "-" {
			continue
		}
		if tag == name || (tag == "" && strings.EqualFold(f.Name, name)) {
			return s.v.Field(i).Interface(), true
		}
	}
	return nil, false
}

type nopAccessor struct{}

func (nopAccessor) Get(string) (any, bool) { return nil, false }

// For returns the accessor matching the shape of rec.
func For(rec any) Accessor {
	switch r := rec.(type) {
	case nil:
		return nopAccessor{}
	case Accessor:
		return r
	case map[string]any:
		return Map(r)
	}

	v := reflect.ValueOf(rec)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nopAccessor{}
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct:
		return structAccessor{v: v}
	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String {
			m := make(map[string]any, v.Len())
			iter := v.MapRange()
			for iter.Next() {
				m[iter.Key().String()] = iter.Value().Interface()
			}
			return Map(m)
		}
	}
	return nopAccessor{}
}

// Field returns name from rec, or def when rec is nil or the field is absent or nil.
func Field(rec any, name string, def any) any {
	v, ok := For(rec).Get(name)
	if !ok || isNil(v) {
		return def
	}
	return v
}

// String returns the field as a string; scalars are formatted, anything
// missing yields "".
func String(rec any, name string) string {
	switch v := Field(rec, name, nil).(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int, int64, int32, bool:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

// Slice returns the field as a sequence of records, or nil.
func Slice(rec any, name string) []any {
	v := Field(rec, name, nil)
	if v == nil {
		return nil
	}
	if s, ok := v.([]any); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// ToMap converts rec into a key/value mapping, preferring its own ToMap.
func ToMap(rec any) (m map[string]any, err error) {
	switch r := rec.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return r, nil
	case Map:
		return map[string]any(r), nil
	case Mapper:
		return r.ToMap(), nil
	}

	defer func() {
		if p := recover(); p != nil {
			m, err = nil, fmt.Errorf("%w: %v", ErrConversionFailed, p)
		}
	}()

	out := map[string]any{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &out,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}
	if err := dec.Decode(rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}
	return out, nil
}

// Materialize is ToMap with conversion failure collapsed to an empty mapping.
func Materialize(rec any) map[string]any {
	m, err := ToMap(rec)
	if err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
