package element

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// PropKind is the declared type of a prop.
type PropKind int

const (
	KindString PropKind = iota
	KindNumber
	KindBool
	KindCallback
)

func (k PropKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindCallback:
		return "callback"
	default:
		return fmt.Sprintf("PropKind(%d)", int(k))
	}
}

// Prop declares one prop of an element.
type Prop struct {
	Name    string
	Kind    PropKind
	Default any
}

// Serializable reports whether the prop is mirrored to an attribute.
func (p Prop) Serializable() bool { return p.Kind != KindCallback }

// String declares a string prop.
func String(name, def string) Prop { return Prop{Name: name, Kind: KindString, Default: def} }

// Number declares a numeric prop. Values are held as float64.
func Number(name string, def float64) Prop { return Prop{Name: name, Kind: KindNumber, Default: def} }

// Bool declares a boolean prop.
func Bool(name string, def bool) Prop { return Prop{Name: name, Kind: KindBool, Default: def} }

// Callback declares a function prop. fn must be a func value or nil.
func Callback(name string, fn any) Prop { return Prop{Name: name, Kind: KindCallback, Default: fn} }

// zero is the value of a removed attribute.
func (p Prop) zero() any {
	switch p.Kind {
	case KindNumber:
		return float64(0)
	case KindBool:
		return false
	case KindString:
		return ""
	}
	return nil
}

// decode converts an attribute value to the prop type.
func (p Prop) decode(value string) (any, error) {
	switch p.Kind {
	case KindNumber:
		value = strings.TrimSpace(value)
		if value == "" {
			return 0.0, nil
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, err
		}
		return f, nil
	case KindBool:
		return true, nil
	default:
		return value, nil
	}
}

// encode converts a prop value to its attribute form. present is false for
// a value that removes the attribute.
func (p Prop) encode(value any) (attr string, present bool) {
	switch v := value.(type) {
	case bool:
		return "", v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case string:
		return v, true
	}
	return fmt.Sprint(value), true
}

// coerce checks value against the prop kind and normalizes numbers.
func (p Prop) coerce(value any) (any, bool) {
	switch p.Kind {
	case KindString:
		s, ok := value.(string)
		return s, ok
	case KindBool:
		b, ok := value.(bool)
		return b, ok
	case KindNumber:
		f, ok := toFloat(value)
		return f, ok
	case KindCallback:
		if value == nil {
			return nil, true
		}
		return value, reflect.TypeOf(value).Kind() == reflect.Func
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// sameValue compares decoded serializable values. NaN equals NaN so an
// unchanged "NaN" attribute does not re-render.
func sameValue(a, b any) bool {
	fa, aok := a.(float64)
	fb, bok := b.(float64)
	if aok && bok && math.IsNaN(fa) && math.IsNaN(fb) {
		return true
	}
	return a == b
}
