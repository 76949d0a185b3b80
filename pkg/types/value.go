// Package types defines the runtime values a search-space graph evaluates to:
// null, bool, int, double, string, list, and ordered map.
package types

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ValueType identifies the type of a Value.
type ValueType int

const (
	TypeNull   ValueType = iota
	TypeBool             // bool
	TypeInt              // int64
	TypeDouble           // float64
	TypeString           // string
	TypeList             // []Value
	TypeMap              // ordered string -> Value
)

// String returns the type name used in error messages and parameter
// declarations ("int", "double", ...).
func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeDouble:
		return "double"
	case TypeString:
		return "string"
	case TypeList:
		return "list"
	case TypeMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a tagged union over the supported runtime types. The zero Value
// is null.
type Value struct {
	typ       ValueType
	boolVal   bool
	intVal    int64
	doubleVal float64
	stringVal string
	listVal   []Value
	mapVal    *OrderedMap
}

// Null is the null value.
var Null = Value{typ: TypeNull}

// NewBool creates a boolean value.
func NewBool(v bool) Value {
	return Value{typ: TypeBool, boolVal: v}
}

// NewInt creates an integer value.
func NewInt(v int64) Value {
	return Value{typ: TypeInt, intVal: v}
}

// NewDouble creates a double value.
func NewDouble(v float64) Value {
	return Value{typ: TypeDouble, doubleVal: v}
}

// NewString creates a string value.
func NewString(v string) Value {
	return Value{typ: TypeString, stringVal: v}
}

// NewList creates a list value backed by the given slice.
func NewList(v []Value) Value {
	return Value{typ: TypeList, listVal: v}
}

// NewMap creates a map value backed by the given OrderedMap.
func NewMap(v *OrderedMap) Value {
	return Value{typ: TypeMap, mapVal: v}
}

// Type returns the value's type tag.
func (v Value) Type() ValueType {
	return v.typ
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.typ == TypeNull
}

// AsBool returns the boolean payload. Panics if the value is not a bool.
func (v Value) AsBool() bool {
	if v.typ != TypeBool {
		panic(fmt.Sprintf("AsBool called on %s value", v.typ))
	}
	return v.boolVal
}

// AsInt returns the integer payload. Panics if the value is not an int.
func (v Value) AsInt() int64 {
	if v.typ != TypeInt {
		panic(fmt.Sprintf("AsInt called on %s value", v.typ))
	}
	return v.intVal
}

// AsDouble returns the double payload. Panics if the value is not a double.
func (v Value) AsDouble() float64 {
	if v.typ != TypeDouble {
		panic(fmt.Sprintf("AsDouble called on %s value", v.typ))
	}
	return v.doubleVal
}

// AsString returns the string payload. Panics if the value is not a string.
func (v Value) AsString() string {
	if v.typ != TypeString {
		panic(fmt.Sprintf("AsString called on %s value", v.typ))
	}
	return v.stringVal
}

// AsList returns the list payload. Panics if the value is not a list.
func (v Value) AsList() []Value {
	if v.typ != TypeList {
		panic(fmt.Sprintf("AsList called on %s value", v.typ))
	}
	return v.listVal
}

// AsMap returns the map payload. Panics if the value is not a map.
func (v Value) AsMap() *OrderedMap {
	if v.typ != TypeMap {
		panic(fmt.Sprintf("AsMap called on %s value", v.typ))
	}
	return v.mapVal
}

// AsNumber returns the value as float64 for int and double types.
func (v Value) AsNumber() (float64, bool) {
	switch v.typ {
	case TypeInt:
		return float64(v.intVal), true
	case TypeDouble:
		return v.doubleVal, true
	default:
		return 0, false
	}
}

// Clone returns a deep copy. Scalars copy by value; lists and maps copy
// their backing storage.
func (v Value) Clone() Value {
	switch v.typ {
	case TypeList:
		items := make([]Value, len(v.listVal))
		for i, item := range v.listVal {
			items[i] = item.Clone()
		}
		return NewList(items)
	case TypeMap:
		return NewMap(v.mapVal.Clone())
	default:
		return v
	}
}

// Equal tests deep equality. Int and double compare numerically, so
// NewInt(2) equals NewDouble(2.0).
func (v Value) Equal(other Value) bool {
	if v.typ != other.typ {
		if a, ok := v.AsNumber(); ok {
			if b, ok := other.AsNumber(); ok {
				return a == b
			}
		}
		return false
	}
	switch v.typ {
	case TypeNull:
		return true
	case TypeBool:
		return v.boolVal == other.boolVal
	case TypeInt:
		return v.intVal == other.intVal
	case TypeDouble:
		return v.doubleVal == other.doubleVal
	case TypeString:
		return v.stringVal == other.stringVal
	case TypeList:
		if len(v.listVal) != len(other.listVal) {
			return false
		}
		for i := range v.listVal {
			if !v.listVal[i].Equal(other.listVal[i]) {
				return false
			}
		}
		return true
	case TypeMap:
		if v.mapVal.Len() != other.mapVal.Len() {
			return false
		}
		for _, k := range v.mapVal.Keys() {
			ov, ok := other.mapVal.Get(k)
			if !ok {
				return false
			}
			mv, _ := v.mapVal.Get(k)
			if !mv.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders the value for error messages and logs.
func (v Value) String() string {
	switch v.typ {
	case TypeNull:
		return "null"
	case TypeBool:
		if v.boolVal {
			return "true"
		}
		return "false"
	case TypeInt:
		return fmt.Sprintf("%d", v.intVal)
	case TypeDouble:
		if v.doubleVal == math.Trunc(v.doubleVal) && !math.IsInf(v.doubleVal, 0) {
			return fmt.Sprintf("%.1f", v.doubleVal)
		}
		return fmt.Sprintf("%g", v.doubleVal)
	case TypeString:
		return v.stringVal
	case TypeList:
		parts := make([]string, len(v.listVal))
		for i, item := range v.listVal {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case TypeMap:
		parts := make([]string, 0, v.mapVal.Len())
		for _, k := range v.mapVal.Keys() {
			val, _ := v.mapVal.Get(k)
			parts = append(parts, fmt.Sprintf("%s: %s", k, val.String()))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "<unknown>"
}

// MarshalJSON serializes the value, preserving map key order.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.typ {
	case TypeNull:
		return []byte("null"), nil
	case TypeBool:
		if v.boolVal {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case TypeInt:
		return json.Marshal(v.intVal)
	case TypeDouble:
		return json.Marshal(v.doubleVal)
	case TypeString:
		return json.Marshal(v.stringVal)
	case TypeList:
		items := make([]json.RawMessage, len(v.listVal))
		for i, item := range v.listVal {
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			items[i] = b
		}
		return json.Marshal(items)
	case TypeMap:
		buf := []byte{'{'}
		for i, k := range v.mapVal.Keys() {
			if i > 0 {
				buf = append(buf, ',')
			}
			keyBytes, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf = append(buf, keyBytes...)
			buf = append(buf, ':')
			val, _ := v.mapVal.Get(k)
			valBytes, err := val.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf = append(buf, valBytes...)
		}
		buf = append(buf, '}')
		return buf, nil
	}
	return nil, fmt.Errorf("cannot marshal unknown type %d", v.typ)
}

// FromGo converts a plain Go value (as produced by json.Unmarshal or
// yaml decoding) into a Value. Map keys are sorted for determinism since
// Go maps carry no order.
func FromGo(v interface{}) Value {
	if v == nil {
		return Null
	}
	switch val := v.(type) {
	case bool:
		return NewBool(val)
	case int:
		return NewInt(int64(val))
	case int64:
		return NewInt(val)
	case float64:
		if val == math.Trunc(val) && !math.IsInf(val, 0) && val >= math.MinInt64 && val <= math.MaxInt64 {
			return NewInt(int64(val))
		}
		return NewDouble(val)
	case string:
		return NewString(val)
	case []interface{}:
		items := make([]Value, len(val))
		for i, item := range val {
			items[i] = FromGo(item)
		}
		return NewList(items)
	case map[string]interface{}:
		m := NewOrderedMap()
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			m.Set(k, FromGo(val[k]))
		}
		return NewMap(m)
	case Value:
		return val
	default:
		return NewString(fmt.Sprintf("%v", val))
	}
}

// ToGo converts a Value to a plain Go value suitable for json marshaling
// by callers that do not understand Value.
func (v Value) ToGo() interface{} {
	switch v.typ {
	case TypeNull:
		return nil
	case TypeBool:
		return v.boolVal
	case TypeInt:
		return v.intVal
	case TypeDouble:
		return v.doubleVal
	case TypeString:
		return v.stringVal
	case TypeList:
		result := make([]interface{}, len(v.listVal))
		for i, item := range v.listVal {
			result[i] = item.ToGo()
		}
		return result
	case TypeMap:
		result := make(map[string]interface{}, v.mapVal.Len())
		for _, k := range v.mapVal.Keys() {
			val, _ := v.mapVal.Get(k)
			result[k] = val.ToGo()
		}
		return result
	}
	return nil
}
