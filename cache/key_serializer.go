package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// KeySerializer builds a cache key from a prefix and the call arguments.
// Equal arguments must produce equal keys.
type KeySerializer interface {
	SerializeKey(prefix string, args ...any) string
	SerializeValue(v any) string
}

// defaultKeySerializer renders arguments through reflection. Functions and
// channels are rendered by address, so their keys are only stable within a
// process.
type defaultKeySerializer struct {
	maxLength int
}

// NewDefaultKeySerializer creates the reflection-based key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// NewHashingKeySerializer is the reflection serializer with a length cap:
// keys longer than maxLength keep their prefix and replace the argument part
// with its xxhash digest.
func NewHashingKeySerializer(maxLength int) KeySerializer {
	return &defaultKeySerializer{maxLength: maxLength}
}

func (s *defaultKeySerializer) SerializeKey(prefix string, args ...any) string {
	if len(args) == 0 {
		return prefix
	}

	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = s.SerializeValue(arg)
	}
	return joinKey(prefix, strings.Join(parts, KeySeparator), s.maxLength)
}

func (s *defaultKeySerializer) SerializeValue(v any) string {
	if v == nil {
		return "nil"
	}
	return s.value(reflect.ValueOf(v))
}

func (s *defaultKeySerializer) value(rv reflect.Value) string {
	switch rv.Kind() {
	case reflect.Invalid:
		return "nil"
	case reflect.Func:
		if rv.IsNil() {
			return "func:nil"
		}
		return fmt.Sprintf("func:%#x", rv.Pointer())
	case reflect.Chan:
		if rv.IsNil() {
			return "chan:nil"
		}
		return fmt.Sprintf("chan:%#x", rv.Pointer())
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return s.value(rv.Elem())
	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil"
		}
		return "slice" + s.sequence(rv)
	case reflect.Array:
		return "array" + s.sequence(rv)
	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		return s.mapping(rv)
	case reflect.Struct:
		return s.structure(rv)
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return fmt.Sprint(rv.Interface())
	}
	return s.jsonFallback(rv)
}

func (s *defaultKeySerializer) sequence(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = s.value(rv.Index(i))
	}
	return fmt.Sprintf("[%d]:{%s}", len(parts), strings.Join(parts, ","))
}

// mapping sorts entries by their rendered key.
func (s *defaultKeySerializer) mapping(rv reflect.Value) string {
	pairs := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, s.value(iter.Key())+"="+s.value(iter.Value()))
	}
	sort.Strings(pairs)
	return fmt.Sprintf("map[%d]:{%s}", len(pairs), strings.Join(pairs, ","))
}

func (s *defaultKeySerializer) structure(rv reflect.Value) string {
	rt := rv.Type()
	parts := make([]string, 0, rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		parts = append(parts, field.Name+":"+s.value(rv.Field(i)))
	}
	return fmt.Sprintf("struct:{%s}", strings.Join(parts, ","))
}

func (s *defaultKeySerializer) jsonFallback(rv reflect.Value) string {
	if !rv.CanInterface() {
		return "fallback:" + rv.Type().String()
	}
	data, err := json.Marshal(rv.Interface())
	if err != nil {
		return "fallback:" + rv.Type().String()
	}
	return "json:" + string(data)
}

// joinKey appends the argument part to prefix, hashing it when the result
// would exceed maxLength. A maxLength of zero disables hashing.
func joinKey(prefix, args string, maxLength int) string {
	key := prefix + KeySeparator + args
	if maxLength <= 0 || len(key) <= maxLength {
		return key
	}
	return prefix + KeySeparator + "h:" + strconv.FormatUint(xxhash.Sum64String(args), 16)
}
