package cache

import (
	"bytes"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// msgpackKeySerializer digests the msgpack encoding of each argument. Keys
// are compact and stable across processes, which suits shared stores.
// Arguments msgpack cannot encode, such as functions, fall back to the
// reflection rendering.
type msgpackKeySerializer struct {
	fallback KeySerializer
}

// NewMsgpackKeySerializer creates a serializer producing "prefix::<digest>" keys.
func NewMsgpackKeySerializer() KeySerializer {
	return &msgpackKeySerializer{fallback: NewDefaultKeySerializer()}
}

func (s *msgpackKeySerializer) SerializeKey(prefix string, args ...any) string {
	if len(args) == 0 {
		return prefix
	}
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = s.SerializeValue(arg)
	}
	return prefix + KeySeparator + strings.Join(parts, ".")
}

func (s *msgpackKeySerializer) SerializeValue(v any) string {
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(s.canonical(v)); err != nil {
		return strconv.FormatUint(xxhash.Sum64String(s.fallback.SerializeValue(v)), 16)
	}
	return strconv.FormatUint(xxhash.Sum64(buf.Bytes()), 16)
}

// canonical rewrites every map reachable from v into a slice of key/value
// pairs sorted by rendered key, so map iteration order never reaches the
// encoder. Values holding no map are passed through untouched.
func (s *msgpackKeySerializer) canonical(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if !holdsMap(rv.Type(), map[reflect.Type]bool{}) {
		return v
	}
	return s.canonicalValue(rv)
}

type mapPair struct {
	_msgpack struct{} `msgpack:",as_array"`
	Key      any
	Value    any
}

func (s *msgpackKeySerializer) canonicalValue(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Invalid:
		return nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return s.canonicalValue(rv.Elem())
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		type rendered struct {
			sortKey string
			pair    mapPair
		}
		entries := make([]rendered, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			entries = append(entries, rendered{
				sortKey: iter.Key().Type().String() + ":" + s.fallback.SerializeValue(iter.Key().Interface()),
				pair:    mapPair{Key: s.canonicalValue(iter.Key()), Value: s.canonicalValue(iter.Value())},
			})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].sortKey < entries[j].sortKey })
		pairs := make([]mapPair, len(entries))
		for i, e := range entries {
			pairs[i] = e.pair
		}
		return pairs
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		if !holdsMap(rv.Type().Elem(), map[reflect.Type]bool{}) {
			return rv.Interface()
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = s.canonicalValue(rv.Index(i))
		}
		return out
	case reflect.Struct:
		if !holdsMap(rv.Type(), map[reflect.Type]bool{}) {
			return rv.Interface()
		}
		rt := rv.Type()
		out := make([]any, 0, 2*rv.NumField())
		for i := 0; i < rv.NumField(); i++ {
			if !rt.Field(i).IsExported() {
				continue
			}
			out = append(out, rt.Field(i).Name, s.canonicalValue(rv.Field(i)))
		}
		return out
	}
	if !rv.CanInterface() {
		return nil
	}
	return rv.Interface()
}

// holdsMap reports whether values of t can contain a map.
func holdsMap(t reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[t] {
		return false
	}
	seen[t] = true
	switch t.Kind() {
	case reflect.Map, reflect.Interface:
		return true
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return holdsMap(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).IsExported() && holdsMap(t.Field(i).Type, seen) {
				return true
			}
		}
	}
	return false
}
