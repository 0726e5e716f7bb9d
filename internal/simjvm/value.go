package simjvm

import (
	"fmt"
	"math"

	"github.com/feather-lang/jni/sys"
)

// Value is an argument, return value or field slot inside the runtime.
// Object slots use Obj; primitive slots use Bits with the same encoding as
// the calling-convention word.
type Value struct {
	Obj  *Object
	Bits uint64
}

// Slot constructors and accessors for the kinds method bodies use most.
func Obj(o *Object) Value       { return Value{Obj: o} }
func Int(i int32) Value         { return Value{Bits: uint64(uint32(i))} }
func Long(l int64) Value        { return Value{Bits: uint64(l)} }
func Double(d float64) Value    { return Value{Bits: math.Float64bits(d)} }
func Void() Value               { return Value{} }
func (v Value) Int() int32      { return int32(uint32(v.Bits)) }
func (v Value) Long() int64     { return int64(v.Bits) }
func (v Value) Double() float64 { return math.Float64frombits(v.Bits) }

func Bool(b bool) Value {
	if b {
		return Value{Bits: 1}
	}
	return Value{}
}

func (v Value) Bool() bool { return uint8(v.Bits) != 0 }

// Thrown is returned by a method implementation to raise an exception of
// the named class.
type Thrown struct {
	Class   string
	Message string
}

func (t *Thrown) Error() string {
	if t.Message == "" {
		return t.Class
	}
	return t.Class + ": " + t.Message
}

// Throwf returns a *Thrown for class with a formatted message.
func Throwf(class, format string, args ...any) error {
	return &Thrown{Class: class, Message: fmt.Sprintf(format, args...)}
}

// decodeWord converts a calling-convention word into a slot of kind k.
func (e *Env) decodeWord(k sys.Kind, w sys.Jvalue) Value {
	if k == sys.Object {
		return Obj(e.deref(sys.Jobject(w)))
	}
	return Value{Bits: narrow(k, uint64(w))}
}

// encodeWord converts a slot of kind k into a word, creating a local
// reference for objects.
func (e *Env) encodeWord(k sys.Kind, v Value) sys.Jvalue {
	if k == sys.Object {
		return sys.Jvalue(e.newLocal(v.Obj, false))
	}
	return sys.Jvalue(narrow(k, v.Bits))
}

// narrow clears the bits a kind does not use.
func narrow(k sys.Kind, bits uint64) uint64 {
	switch k {
	case sys.Boolean:
		if uint8(bits) != 0 {
			return 1
		}
		return 0
	case sys.Byte:
		return bits & 0xff
	case sys.Char, sys.Short:
		return bits & 0xffff
	case sys.Int, sys.Float:
		return bits & 0xffffffff
	case sys.Void:
		return 0
	}
	return bits
}
