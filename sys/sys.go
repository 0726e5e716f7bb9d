// Package sys declares the raw boundary between Go and a JVM-like foreign
// runtime: the opaque reference and identifier types, the calling-convention
// value word, and the function tables a runtime must provide.
//
// Nothing in this package performs validation. The types mirror the C
// interface closely so that a cgo binding or an in-process runtime can
// implement [Env] and [VM] directly; the safe layer lives in the parent
// package.
package sys

import "strconv"

// Jobject is an opaque reference to a foreign object. Zero is the foreign null.
type Jobject uintptr

// Jmethod identifies a resolved method. Zero means "not found".
type Jmethod uintptr

// Jfield identifies a resolved field. Zero means "not found".
type Jfield uintptr

// Jvalue is one argument or return slot of the foreign calling convention.
// The encoding of each Kind inside the word is fixed by the parent package's
// Value type.
type Jvalue uint64

// Version1_8 is the interface version requested by default.
const Version1_8 int32 = 0x00010008

// Kind is the kind of a value crossing the calling boundary.
type Kind uint8

const (
	Void Kind = iota
	Object
	Boolean
	Byte
	Char
	Short
	Int
	Long
	Float
	Double
)

var kindNames = [...]string{
	Void:    "void",
	Object:  "object",
	Boolean: "bool",
	Byte:    "byte",
	Char:    "char",
	Short:   "short",
	Int:     "int",
	Long:    "long",
	Float:   "float",
	Double:  "double",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Descriptor returns the single-character type descriptor for primitive kinds
// and 'L' for objects.
func (k Kind) Descriptor() byte {
	switch k {
	case Void:
		return 'V'
	case Object:
		return 'L'
	case Boolean:
		return 'Z'
	case Byte:
		return 'B'
	case Char:
		return 'C'
	case Short:
		return 'S'
	case Int:
		return 'I'
	case Long:
		return 'J'
	case Float:
		return 'F'
	case Double:
		return 'D'
	}
	return '?'
}

// RefType classifies a reference as reported by the runtime.
type RefType int

const (
	InvalidRefType RefType = iota
	LocalRefType
	GlobalRefType
	WeakGlobalRefType
)

func (t RefType) String() string {
	switch t {
	case LocalRefType:
		return "local"
	case GlobalRefType:
		return "global"
	case WeakGlobalRefType:
		return "weak-global"
	}
	return "invalid"
}

// Errno is a status code returned by runtime entry points.
// OK is not an error; use [Errno.Err] to convert.
type Errno int32

const (
	OK        Errno = 0
	ERR       Errno = -1
	EDETACHED Errno = -2
	EVERSION  Errno = -3
	ENOMEM    Errno = -4
	EEXIST    Errno = -5
	EINVAL    Errno = -6
)

func (e Errno) Error() string {
	switch e {
	case OK:
		return "ok"
	case ERR:
		return "unknown error"
	case EDETACHED:
		return "thread detached from the runtime"
	case EVERSION:
		return "interface version not supported"
	case ENOMEM:
		return "not enough memory"
	case EEXIST:
		return "runtime already created"
	case EINVAL:
		return "invalid arguments"
	}
	return "errno " + strconv.Itoa(int(e))
}

// Err returns nil for OK and e otherwise.
func (e Errno) Err() error {
	if e == OK {
		return nil
	}
	return e
}
