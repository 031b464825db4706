// Package mvalue implements the M-Token tagged-union value model: Int,
// Float, Bool, ArrayRef, StringRef, and OpaqueRef, plus the heap-allocated
// Array record that ArrayRef points to.
package mvalue

import "fmt"

// Tag identifies which arm of the Value union is populated.
type Tag uint8

const (
	TagInt Tag = iota
	TagFloat
	TagBool
	TagArrayRef
	TagStringRef
	TagOpaqueRef
)

func (t Tag) String() string {
	switch t {
	case TagInt:
		return "Int"
	case TagFloat:
		return "Float"
	case TagBool:
		return "Bool"
	case TagArrayRef:
		return "ArrayRef"
	case TagStringRef:
		return "StringRef"
	case TagOpaqueRef:
		return "OpaqueRef"
	default:
		return "Unknown"
	}
}

// Handle identifies a heap allocation (Array or opaque buffer). Handles are
// monotonically increasing per VM and never reused within a run.
type Handle uint64

// Value is the tagged union carried on the data stack, in locals, and in
// globals. Duplicating a Value duplicates the reference for ArrayRef/
// StringRef/OpaqueRef, never the payload - reference semantics throughout.
type Value struct {
	Tag Tag
	I   int64
	F   float64
	B   bool
	Ref Handle
}

// Int constructs an Int value.
func Int(i int64) Value { return Value{Tag: TagInt, I: i} }

// Float constructs a Float value.
func Float(f float64) Value { return Value{Tag: TagFloat, F: f} }

// Bool constructs a Bool value using the 0/non-zero convention at the
// storage layer; the Go bool field is the canonical truthiness carrier.
func Bool(b bool) Value { return Value{Tag: TagBool, B: b} }

// ArrayRef constructs a Value referencing a heap Array.
func ArrayRef(h Handle) Value { return Value{Tag: TagArrayRef, Ref: h} }

// StringRef constructs a Value referencing a heap string.
func StringRef(h Handle) Value { return Value{Tag: TagStringRef, Ref: h} }

// OpaqueRef constructs a Value referencing an ALLOC'd buffer.
func OpaqueRef(h Handle) Value { return Value{Tag: TagOpaqueRef, Ref: h} }

// Truthy applies the 0=false/non-zero=true convention uniformly across
// value kinds.
func (v Value) Truthy() bool {
	switch v.Tag {
	case TagInt:
		return v.I != 0
	case TagFloat:
		return v.F != 0
	case TagBool:
		return v.B
	case TagArrayRef, TagStringRef, TagOpaqueRef:
		return v.Ref != 0
	default:
		return false
	}
}

// AsInt coerces v to its canonical integer representation. Booleans map to
// 0/1; floats truncate toward zero. Refs are not coercible and return 0.
func (v Value) AsInt() int64 {
	switch v.Tag {
	case TagInt:
		return v.I
	case TagFloat:
		return int64(v.F)
	case TagBool:
		if v.B {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// SameType reports whether a and b carry the same Tag.
func SameType(a, b Value) bool { return a.Tag == b.Tag }

// Equal implements EQ/NEQ's "mixed types produce 0 without fault" rule.
func Equal(a, b Value) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case TagInt:
		return a.I == b.I
	case TagFloat:
		return a.F == b.F
	case TagBool:
		return a.B == b.B
	case TagArrayRef, TagStringRef, TagOpaqueRef:
		return a.Ref == b.Ref
	default:
		return false
	}
}

// String renders v for trace and disassembly output.
func (v Value) String() string {
	switch v.Tag {
	case TagInt:
		return fmt.Sprintf("%d", v.I)
	case TagFloat:
		return fmt.Sprintf("%g", v.F)
	case TagBool:
		return fmt.Sprintf("%t", v.B)
	case TagArrayRef:
		return fmt.Sprintf("array#%d", v.Ref)
	case TagStringRef:
		return fmt.Sprintf("str#%d", v.Ref)
	case TagOpaqueRef:
		return fmt.Sprintf("buf#%d", v.Ref)
	default:
		return "<invalid>"
	}
}

// Array is the heap record an ArrayRef points to. Arrays use reference
// semantics: copying a Value copies the Handle, never Elements.
type Array struct {
	Length   int
	Capacity int
	Elements []Value
}

// NewArray allocates an Array of the given length, zero-filled with Int(0).
func NewArray(length int) *Array {
	elems := make([]Value, length)
	return &Array{Length: length, Capacity: length, Elements: elems}
}
