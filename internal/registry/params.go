// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind is the JSON type of a parameter.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
)

// Param declares one named argument of an operation.
type Param struct {
	Name        string
	Kind        Kind
	Description string
	Required    bool

	// Default is applied when the argument is absent.
	Default any

	// Enum restricts string values, or the items of a string array.
	Enum []string

	// Items is the element kind of an array parameter.
	Items Kind

	// Min, when non-zero, is the smallest accepted number.
	Min int

	// Properties are the nested parameters of an object parameter.
	Properties []Param

	// Aliases are alternative names accepted for this argument. The
	// canonical name wins when both are present.
	Aliases []string
}

// ValidationError reports an argument that does not match its declaration.
type ValidationError struct {
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Param + " " + e.Reason
}

// Args is a validated argument set: canonical names, defaults applied,
// numbers as int, string arrays as []string and objects as Args.
type Args map[string]any

// String returns the string argument name, or "".
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Int returns the numeric argument name, or 0.
func (a Args) Int(name string) int {
	n, _ := a[name].(int)
	return n
}

// Strings returns the string array argument name, or nil.
func (a Args) Strings(name string) []string {
	s, _ := a[name].([]string)
	return s
}

// Object returns the object argument name, or an empty Args.
func (a Args) Object(name string) Args {
	o, _ := a[name].(Args)
	if o == nil {
		return Args{}
	}
	return o
}

// Validate checks raw against params and returns the normalized arguments.
// Arguments that match no declared parameter are ignored.
func Validate(params []Param, raw map[string]any) (Args, error) {
	return validate("", params, raw)
}

func validate(prefix string, params []Param, raw map[string]any) (Args, error) {
	out := make(Args, len(params))
	for _, p := range params {
		name := prefix + p.Name
		v, ok := lookup(raw, p)
		if !ok {
			if p.Required {
				return nil, &ValidationError{Param: name, Reason: "is required"}
			}
			if p.Default != nil {
				out[p.Name] = p.Default
			}
			continue
		}
		cv, err := coerce(name, p, v)
		if err != nil {
			return nil, err
		}
		out[p.Name] = cv
	}
	return out, nil
}

// lookup finds the argument for p under its name or one of its aliases.
// JSON null counts as absent.
func lookup(raw map[string]any, p Param) (any, bool) {
	for _, key := range append([]string{p.Name}, p.Aliases...) {
		if v, ok := raw[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func coerce(name string, p Param, v any) (any, error) {
	switch p.Kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, &ValidationError{Param: name, Reason: "must be a string"}
		}
		if p.Required && strings.TrimSpace(s) == "" {
			return nil, &ValidationError{Param: name, Reason: "must not be empty"}
		}
		if len(p.Enum) > 0 && !slices.Contains(p.Enum, s) {
			return nil, &ValidationError{Param: name, Reason: "must be one of " + strings.Join(p.Enum, ", ")}
		}
		return s, nil

	case KindNumber:
		n, ok := toInt(v)
		if !ok {
			return nil, &ValidationError{Param: name, Reason: "must be a whole number"}
		}
		if p.Min != 0 && n < p.Min {
			return nil, &ValidationError{Param: name, Reason: fmt.Sprintf("must be at least %d", p.Min)}
		}
		return n, nil

	case KindArray:
		items, ok := toSlice(v)
		if !ok {
			return nil, &ValidationError{Param: name, Reason: "must be an array"}
		}
		if p.Items != KindString {
			return items, nil
		}
		out := make([]string, 0, len(items))
		for i, it := range items {
			s, ok := it.(string)
			if !ok {
				return nil, &ValidationError{Param: fmt.Sprintf("%s[%d]", name, i), Reason: "must be a string"}
			}
			if len(p.Enum) > 0 && !slices.Contains(p.Enum, s) {
				return nil, &ValidationError{
					Param:  fmt.Sprintf("%s[%d]", name, i),
					Reason: fmt.Sprintf("%q is not one of %s", s, strings.Join(p.Enum, ", ")),
				}
			}
			out = append(out, s)
		}
		return out, nil

	case KindObject:
		m, ok := toMap(v)
		if !ok {
			return nil, &ValidationError{Param: name, Reason: "must be an object"}
		}
		return validate(name+".", p.Properties, m)
	}
	return nil, &ValidationError{Param: name, Reason: fmt.Sprintf("has unsupported kind %q", p.Kind)}
}

// toInt accepts the numeric shapes produced by JSON decoding and by direct
// callers, plus numeric strings. Fractional values are rejected.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, true
	}
	return nil, false
}

func toMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Args:
		return m, true
	}
	return nil, false
}

// InputSchema renders params as a JSON Schema object.
func InputSchema(params []Param) json.RawMessage {
	b, err := json.Marshal(objectSchema(params))
	if err != nil {
		// Schemas are built from static declarations; marshaling cannot fail.
		panic(fmt.Sprintf("marshaling input schema: %v", err))
	}
	return b
}

func objectSchema(params []Param) map[string]any {
	props := make(map[string]any, len(params))
	var required []string
	for _, p := range params {
		props[p.Name] = paramSchema(p)
		if p.Required {
			required = append(required, p.Name)
		}
	}
	s := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func paramSchema(p Param) map[string]any {
	var s map[string]any
	if p.Kind == KindObject {
		s = objectSchema(p.Properties)
	} else {
		s = map[string]any{"type": string(p.Kind)}
	}
	if p.Description != "" {
		s["description"] = p.Description
	}
	if p.Default != nil {
		s["default"] = p.Default
	}
	if p.Min != 0 {
		s["minimum"] = p.Min
	}
	switch p.Kind {
	case KindArray:
		items := map[string]any{"type": string(p.Items)}
		if len(p.Enum) > 0 {
			items["enum"] = p.Enum
		}
		s["items"] = items
	case KindString:
		if len(p.Enum) > 0 {
			s["enum"] = p.Enum
		}
	}
	return s
}
