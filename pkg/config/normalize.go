package config

import (
	"reflect"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/zentry-ai/zentry/pkg/types"
)

// Validator is implemented by every base configuration type.
type Validator interface {
	Validate() error
}

// Dumper is implemented by structured configuration objects that can render
// themselves as a plain mapping.
type Dumper interface {
	Dump() (map[string]any, error)
}

// Normalize converts caller-supplied configuration into the typed configuration C.
//
// The accepted inputs are:
//   - C or *C: returned as-is, without validating again
//   - map[string]any: decoded over defaults() and validated
//   - Dumper: dumped to a map, then handled like a map
//   - nil: defaults(), validated
//
// Anything else is an *types.InvalidConfigError.
func Normalize[C Validator](in any, defaults func() C) (C, error) {
	var zero C

	switch v := in.(type) {
	case nil:
		return FromMap[C](nil, defaults)
	case C:
		return v, nil
	case *C:
		if v == nil {
			return FromMap[C](nil, defaults)
		}
		return *v, nil
	case map[string]any:
		return FromMap(v, defaults)
	case Dumper:
		m, err := v.Dump()
		if err != nil {
			return zero, types.NewInvalidConfigError("", "dump %T: %v", in, err)
		}
		return FromMap(m, defaults)
	default:
		return zero, types.NewInvalidConfigError("", "unsupported config type %T", in)
	}
}

// FromMap decodes raw over defaults() and validates the result. Keys must match
// the mapstructure tags of C exactly; unknown keys are rejected.
func FromMap[C Validator](raw map[string]any, defaults func() C) (C, error) {
	var zero C

	cfg := defaults()
	if err := decode(&cfg, raw); err != nil {
		return zero, err
	}
	if err := cfg.Validate(); err != nil {
		return zero, err
	}
	return cfg, nil
}

// DecodeKnown decodes the entries of raw that target's mapstructure tags name,
// with the rules FromMap uses, and ignores the rest. target must be a pointer
// to a struct. No validation is run.
func DecodeKnown(target any, raw map[string]any) error {
	fields := FieldNames(reflect.TypeOf(target).Elem())
	known := make(map[string]any, len(fields))
	for key, v := range raw {
		if _, ok := fields[key]; ok {
			known[key] = v
		}
	}
	return decode(target, known)
}

// decode applies raw key by key so that a failure names the offending field.
func decode(target any, raw map[string]any) error {
	fields := FieldNames(reflect.TypeOf(target).Elem())

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, ok := fields[key]; !ok {
			return types.NewInvalidConfigError(key, "unknown field")
		}

		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           target,
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		})
		if err != nil {
			return err
		}
		if err := decoder.Decode(map[string]any{key: raw[key]}); err != nil {
			return &types.InvalidConfigError{Field: key, Reason: reason(err)}
		}
	}
	return nil
}

// FieldNames returns the configuration keys accepted by struct type t, mapped to
// the Go field name.
func FieldNames(t reflect.Type) map[string]string {
	names := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := tagName(f.Tag.Get("mapstructure"))
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		names[name] = f.Name
	}
	return names
}

func tagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	return name
}

// reason strips the decoder's summary header and keeps the last line.
func reason(err error) string {
	msg := strings.TrimSpace(err.Error())
	if i := strings.LastIndex(msg, "\n"); i >= 0 {
		msg = strings.TrimSpace(msg[i+1:])
	}
	return strings.TrimPrefix(msg, "* ")
}

// Struct wraps a tagged struct so it can be passed where a Dumper is accepted.
// Fields are read through their mapstructure tags.
func Struct(v any) Dumper {
	return structDumper{v: v}
}

type structDumper struct {
	v any
}

func (d structDumper) Dump() (map[string]any, error) {
	var m map[string]any
	if err := mapstructure.Decode(d.v, &m); err != nil {
		return nil, err
	}
	return m, nil
}
