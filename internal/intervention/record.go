// Package intervention renders structured intervention records in their CCDL
// Name(payload) form.
package intervention

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"emodccdl/internal/ccdl"
)

// Field names shared by several intervention families.
const (
	FieldClass            = "class"
	FieldBroadcastEvent   = "Broadcast_Event"
	FieldActualConfig     = "Actual_IndividualIntervention_Config"
	FieldActualConfigs    = "Actual_IndividualIntervention_Configs"
	FieldInterventionList = "Intervention_List"
	FieldTriggers         = "Trigger_Condition_List"
	FieldDuration         = "Duration"
)

// Record is one intervention sub-record: its class tag plus its raw fields.
// Records are read-only views over the decoded campaign tree.
type Record struct {
	Class  string
	Fields map[string]any
}

// NewRecord wraps a decoded JSON object. The object must carry a string class.
func NewRecord(v any) (Record, error) {
	fields, ok := v.(map[string]any)
	if !ok {
		return Record{}, ccdl.Errorf(ccdl.FieldAccessError, describe(v), "intervention is %T, not an object", v)
	}
	class, ok := fields[FieldClass].(string)
	if !ok || class == "" {
		return Record{}, ccdl.Errorf(ccdl.FieldAccessError, describe(v), "intervention has no class")
	}
	return Record{Class: class, Fields: fields}, nil
}

// Has reports whether key is present.
func (r Record) Has(key string) bool {
	_, ok := r.Fields[key]
	return ok
}

func (r Record) missing(key string) error {
	return ccdl.Errorf(ccdl.FieldAccessError, r.Class, "%s has no field %q", r.Class, key)
}

// Scalar returns the field's text form, exactly as written in the source for numbers.
func (r Record) Scalar(key string) (string, error) {
	v, ok := r.Fields[key]
	if !ok {
		return "", r.missing(key)
	}
	return FormatScalar(v), nil
}

// Number returns a numeric field as float64.
func (r Record) Number(key string) (float64, error) {
	v, ok := r.Fields[key]
	if !ok {
		return 0, r.missing(key)
	}
	f, err := ToFloat(v)
	if err != nil {
		return 0, ccdl.Errorf(ccdl.FieldAccessError, r.Class, "%s.%s: %v", r.Class, key, err)
	}
	return f, nil
}

// Child returns a nested intervention record.
func (r Record) Child(key string) (Record, error) {
	v, ok := r.Fields[key]
	if !ok {
		return Record{}, r.missing(key)
	}
	return NewRecord(v)
}

// Children returns a list of nested intervention records.
func (r Record) Children(key string) ([]Record, error) {
	v, ok := r.Fields[key]
	if !ok {
		return nil, r.missing(key)
	}
	list, ok := v.([]any)
	if !ok {
		return nil, ccdl.Errorf(ccdl.FieldAccessError, r.Class, "%s.%s is %T, not a list", r.Class, key, v)
	}
	out := make([]Record, 0, len(list))
	for _, item := range list {
		child, err := NewRecord(item)
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}

// Strings returns a list field rendered element-wise with FormatScalar.
func (r Record) Strings(key string) ([]string, error) {
	v, ok := r.Fields[key]
	if !ok {
		return nil, r.missing(key)
	}
	list, ok := v.([]any)
	if !ok {
		return nil, ccdl.Errorf(ccdl.FieldAccessError, r.Class, "%s.%s is %T, not a list", r.Class, key, v)
	}
	out := make([]string, len(list))
	for i, item := range list {
		out[i] = FormatScalar(item)
	}
	return out, nil
}

// JSON renders the record compactly, for diagnostics.
func (r Record) JSON() string { return describe(r.Fields) }

// FormatScalar renders a decoded JSON value as CCDL payload text. Numbers keep
// their source spelling when decoded as json.Number; objects and lists are
// rendered as compact JSON with sorted keys.
func FormatScalar(v any) string {
	switch x := v.(type) {
	case json.Number:
		return x.String()
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case nil:
		return ccdl.NullSignal
	default:
		return describe(x)
	}
}

// ToFloat converts a decoded JSON number (or numeric string) to float64.
func ToFloat(v any) (float64, error) {
	switch x := v.(type) {
	case json.Number:
		return x.Float64()
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		return strconv.ParseFloat(x, 64)
	default:
		return 0, fmt.Errorf("%T is not a number", v)
	}
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func describe(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
