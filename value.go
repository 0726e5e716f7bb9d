package jni

import (
	"fmt"
	"math"

	"github.com/feather-lang/jni/sys"
)

// Kind is the kind of a Value.
type Kind = sys.Kind

const (
	KindVoid    = sys.Void
	KindObject  = sys.Object
	KindBoolean = sys.Boolean
	KindByte    = sys.Byte
	KindChar    = sys.Char
	KindShort   = sys.Short
	KindInt     = sys.Int
	KindLong    = sys.Long
	KindFloat   = sys.Float
	KindDouble  = sys.Double
)

// Value is one argument or return value of a foreign call: an object or a
// primitive, or void. Exactly one kind is held, and the narrowing accessors
// fail with *WrongValueTypeError rather than coerce.
//
// The zero Value is void.
//
// Primitive payloads are kept in the calling-convention word ([sys.Jvalue])
// using a fixed encoding:
//
//	bool    low byte, 0 or 1
//	byte    low 8 bits, two's complement
//	char    low 16 bits, unsigned
//	short   low 16 bits, two's complement
//	int     low 32 bits, two's complement
//	long    all 64 bits
//	float   IEEE 754 single bits in the low 32 bits
//	double  IEEE 754 double bits
//	object  the raw reference
//	void    zero
//
// Unused high bits are zero.
type Value struct {
	kind Kind
	bits uint64
	obj  Object
}

// Primitive is the set of Go types that map one-to-one onto a primitive kind.
type Primitive interface {
	bool | int8 | uint16 | int16 | int32 | int64 | float32 | float64
}

// ValueOf converts a Go primitive or an Object. The Go type decides the
// kind: uint16 is char, int32 is int, int64 is long.
func ValueOf[T Primitive | Object](v T) Value {
	switch x := any(v).(type) {
	case Object:
		return ObjectValue(x)
	case bool:
		return BoolValue(x)
	case int8:
		return ByteValue(x)
	case uint16:
		return CharValue(x)
	case int16:
		return ShortValue(x)
	case int32:
		return IntValue(x)
	case int64:
		return LongValue(x)
	case float32:
		return FloatValue(x)
	case float64:
		return DoubleValue(x)
	}
	panic("unreachable")
}

// ObjectValue wraps a reference; the null reference is a valid object value.
func ObjectValue(o Object) Value { return Value{kind: KindObject, bits: uint64(o.raw), obj: o} }

// BoolValue returns a boolean value.
func BoolValue(b bool) Value {
	if b {
		return Value{kind: KindBoolean, bits: 1}
	}
	return Value{kind: KindBoolean}
}

// ByteValue returns a byte value.
func ByteValue(b int8) Value { return Value{kind: KindByte, bits: uint64(uint8(b))} }

// CharValue returns a char value holding one UTF-16 code unit.
func CharValue(c uint16) Value { return Value{kind: KindChar, bits: uint64(c)} }

// ShortValue returns a short value.
func ShortValue(s int16) Value { return Value{kind: KindShort, bits: uint64(uint16(s))} }

// IntValue returns an int value.
func IntValue(i int32) Value { return Value{kind: KindInt, bits: uint64(uint32(i))} }

// LongValue returns a long value.
func LongValue(l int64) Value { return Value{kind: KindLong, bits: uint64(l)} }

// FloatValue returns a float value.
func FloatValue(f float32) Value { return Value{kind: KindFloat, bits: uint64(math.Float32bits(f))} }

// DoubleValue returns a double value.
func DoubleValue(d float64) Value { return Value{kind: KindDouble, bits: math.Float64bits(d)} }

// VoidValue returns the result of a void method. It is also the zero Value.
func VoidValue() Value { return Value{} }

// ValueFromAny converts a host value. Besides the Primitive types it accepts
// int (as long), uint8 (as byte), Object, *AutoLocal, *GlobalRef and Value.
func ValueFromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return ObjectValue(Null()), nil
	case Value:
		return x, nil
	case Object:
		return ObjectValue(x), nil
	case *AutoLocal:
		if x == nil {
			return ObjectValue(Null()), nil
		}
		return ObjectValue(x.Object()), nil
	case *GlobalRef:
		if x == nil {
			return ObjectValue(Null()), nil
		}
		return ObjectValue(x.Object()), nil
	case bool:
		return BoolValue(x), nil
	case int8:
		return ByteValue(x), nil
	case uint8:
		return ByteValue(int8(x)), nil
	case uint16:
		return CharValue(x), nil
	case int16:
		return ShortValue(x), nil
	case int32:
		return IntValue(x), nil
	case int64:
		return LongValue(x), nil
	case int:
		return LongValue(int64(x)), nil
	case float32:
		return FloatValue(x), nil
	case float64:
		return DoubleValue(x), nil
	}
	return Value{}, fmt.Errorf("jni: cannot convert %T to a value", v)
}

// FromJNI decodes a calling-convention word of the given kind. For objects
// the reference is taken from obj, which callers issue from the word.
func FromJNI(kind Kind, word sys.Jvalue, obj Object) Value {
	w := uint64(word)
	switch kind {
	case KindObject:
		return ObjectValue(obj)
	case KindBoolean:
		return BoolValue(uint8(w) != 0)
	case KindByte:
		return ByteValue(int8(uint8(w)))
	case KindChar:
		return CharValue(uint16(w))
	case KindShort:
		return ShortValue(int16(uint16(w)))
	case KindInt:
		return IntValue(int32(uint32(w)))
	case KindLong:
		return LongValue(int64(w))
	case KindFloat:
		return FloatValue(math.Float32frombits(uint32(w)))
	case KindDouble:
		return DoubleValue(math.Float64frombits(w))
	}
	return VoidValue()
}

// ToJNI encodes v as a calling-convention word.
func (v Value) ToJNI() sys.Jvalue { return sys.Jvalue(v.bits) }

// Kind returns the active kind.
func (v Value) Kind() Kind { return v.kind }

// TypeName returns the name of the active kind.
func (v Value) TypeName() string { return v.kind.String() }

// PrimitiveKind returns the active kind and true, or false for objects.
// Void counts as primitive.
func (v Value) PrimitiveKind() (Kind, bool) {
	if v.kind == KindObject {
		return 0, false
	}
	return v.kind, true
}

func (v Value) mismatch(expected Kind) error {
	return &WrongValueTypeError{Expected: expected.String(), Actual: v.kind.String()}
}

// Object narrows to an object. A null object is returned as Null, not an error.
func (v Value) Object() (Object, error) {
	if v.kind != KindObject {
		return Object{}, v.mismatch(KindObject)
	}
	return v.obj, nil
}

// Bool narrows to a boolean.
func (v Value) Bool() (bool, error) {
	if v.kind != KindBoolean {
		return false, v.mismatch(KindBoolean)
	}
	return v.bits != 0, nil
}

// Byte narrows to a byte.
func (v Value) Byte() (int8, error) {
	if v.kind != KindByte {
		return 0, v.mismatch(KindByte)
	}
	return int8(uint8(v.bits)), nil
}

// Char narrows to a char.
func (v Value) Char() (uint16, error) {
	if v.kind != KindChar {
		return 0, v.mismatch(KindChar)
	}
	return uint16(v.bits), nil
}

// Short narrows to a short.
func (v Value) Short() (int16, error) {
	if v.kind != KindShort {
		return 0, v.mismatch(KindShort)
	}
	return int16(uint16(v.bits)), nil
}

// Int narrows to an int.
func (v Value) Int() (int32, error) {
	if v.kind != KindInt {
		return 0, v.mismatch(KindInt)
	}
	return int32(uint32(v.bits)), nil
}

// Long narrows to a long.
func (v Value) Long() (int64, error) {
	if v.kind != KindLong {
		return 0, v.mismatch(KindLong)
	}
	return int64(v.bits), nil
}

// Float narrows to a float.
func (v Value) Float() (float32, error) {
	if v.kind != KindFloat {
		return 0, v.mismatch(KindFloat)
	}
	return math.Float32frombits(uint32(v.bits)), nil
}

// Double narrows to a double.
func (v Value) Double() (float64, error) {
	if v.kind != KindDouble {
		return 0, v.mismatch(KindDouble)
	}
	return math.Float64frombits(v.bits), nil
}

// Void reports an error unless v is the result of a void method.
func (v Value) Void() error {
	if v.kind != KindVoid {
		return v.mismatch(KindVoid)
	}
	return nil
}

// String formats the value with its kind, for logs and error messages.
func (v Value) String() string {
	switch v.kind {
	case KindVoid:
		return "void"
	case KindObject:
		return "object(" + v.obj.String() + ")"
	case KindBoolean:
		return fmt.Sprintf("bool(%t)", v.bits != 0)
	case KindByte:
		return fmt.Sprintf("byte(%d)", int8(uint8(v.bits)))
	case KindChar:
		return fmt.Sprintf("char(%d)", uint16(v.bits))
	case KindShort:
		return fmt.Sprintf("short(%d)", int16(uint16(v.bits)))
	case KindInt:
		return fmt.Sprintf("int(%d)", int32(uint32(v.bits)))
	case KindLong:
		return fmt.Sprintf("long(%d)", int64(v.bits))
	case KindFloat:
		return fmt.Sprintf("float(%g)", math.Float32frombits(uint32(v.bits)))
	case KindDouble:
		return fmt.Sprintf("double(%g)", math.Float64frombits(v.bits))
	}
	return v.kind.String()
}
