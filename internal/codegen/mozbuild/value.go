package mozbuild

import (
	"strconv"
	"strings"
)

// Value is a runtime value of the dialect.
type Value interface {
	Type() string
}

// String is a string value.
type String string

// Int is an integer value. Integers only appear as literals and define
// values; there is no arithmetic.
type Int int64

// Bool is True or False.
type Bool bool

// NoneValue is the type of None.
type NoneValue struct{}

// None is the single NoneValue.
var None = NoneValue{}

// List is a mutable list. It is always handled by pointer so that the
// accumulator bindings are shared with the environment.
type List struct {
	Items []Value
}

// Tuple is an immutable sequence, used for percent-format arguments.
type Tuple []Value

// Dict is an insertion-ordered mapping with string keys. Reassigning an
// existing key keeps its original position.
type Dict struct {
	keys   []string
	values map[string]Value
}

func (String) Type() string    { return "str" }
func (Int) Type() string       { return "int" }
func (Bool) Type() string      { return "bool" }
func (NoneValue) Type() string { return "NoneType" }
func (*List) Type() string     { return "list" }
func (Tuple) Type() string     { return "tuple" }
func (*Dict) Type() string     { return "dict" }

// NewList returns a list holding a copy of items.
func NewList(items ...Value) *List {
	return &List{Items: append([]Value(nil), items...)}
}

// NewStringList returns a list of String values.
func NewStringList(items ...string) *List {
	l := &List{Items: make([]Value, 0, len(items))}
	for _, s := range items {
		l.Items = append(l.Items, String(s))
	}
	return l
}

// NewDict returns an empty mapping.
func NewDict() *Dict {
	return &Dict{values: map[string]Value{}}
}

// Set stores v under key.
func (d *Dict) Set(key string, v Value) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

// Get returns the value stored under key.
func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	return len(d.keys)
}

// Clone returns a shallow copy.
func (d *Dict) Clone() *Dict {
	out := NewDict()
	for _, k := range d.keys {
		out.Set(k, d.values[k])
	}
	return out
}

// Truthy follows Python truthiness for the supported types.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case String:
		return x != ""
	case Int:
		return x != 0
	case Bool:
		return bool(x)
	case NoneValue:
		return false
	case *List:
		return len(x.Items) > 0
	case Tuple:
		return len(x) > 0
	case *Dict:
		return x.Len() > 0
	default:
		return false
	}
}

// Equal reports structural equality.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Int:
		switch y := b.(type) {
		case Int:
			return x == y
		case Bool:
			return x == boolInt(y)
		}
		return false
	case Bool:
		switch y := b.(type) {
		case Bool:
			return x == y
		case Int:
			return boolInt(x) == y
		}
		return false
	case NoneValue:
		_, ok := b.(NoneValue)
		return ok
	case *List:
		y, ok := b.(*List)
		return ok && equalSeq(x.Items, y.Items)
	case Tuple:
		y, ok := b.(Tuple)
		return ok && equalSeq(x, y)
	case *Dict:
		y, ok := b.(*Dict)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, k := range x.keys {
			yv, ok := y.values[k]
			if !ok || !Equal(x.values[k], yv) {
				return false
			}
		}
		return true
	}
	return false
}

func boolInt(b Bool) Int {
	if b {
		return 1
	}
	return 0
}

func equalSeq(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Str renders v the way Python's str() does.
func Str(v Value) string {
	switch x := v.(type) {
	case String:
		return string(x)
	default:
		return Repr(v)
	}
}

// Repr renders v the way Python's repr() does.
func Repr(v Value) string {
	switch x := v.(type) {
	case String:
		return "'" + strings.ReplaceAll(strings.ReplaceAll(string(x), `\`, `\\`), "'", `\'`) + "'"
	case Int:
		return strconv.FormatInt(int64(x), 10)
	case Bool:
		if x {
			return "True"
		}
		return "False"
	case NoneValue:
		return "None"
	case *List:
		return "[" + joinRepr(x.Items) + "]"
	case Tuple:
		if len(x) == 1 {
			return "(" + Repr(x[0]) + ",)"
		}
		return "(" + joinRepr(x) + ")"
	case *Dict:
		parts := make([]string, 0, x.Len())
		for _, k := range x.keys {
			parts = append(parts, Repr(String(k))+": "+Repr(x.values[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "<unknown>"
}

func joinRepr(items []Value) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = Repr(it)
	}
	return strings.Join(parts, ", ")
}
