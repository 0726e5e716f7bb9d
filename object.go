package jni

import (
	"fmt"

	"github.com/feather-lang/jni/sys"
)

// Object is a non-owning view of a foreign object reference.
//
// Every Object carries the scope it was issued under. Objects returned by an
// [Env] belong to that Env's innermost scope and become stale once the scope
// closes; every Env operation rejects a stale Object with
// [ErrStaleReference]. Objects built with [FromRaw], owned by a [GlobalRef],
// or null carry no scope and are never checked.
//
// The zero Object is the foreign null. Null is a value, not an absence:
// APIs that can report "no object" return an extra ok flag instead.
type Object struct {
	raw   sys.Jobject
	scope *scope
}

// FromRaw wraps a raw reference. The caller guarantees raw is a valid
// reference for as long as the Object is used, or zero.
func FromRaw(raw sys.Jobject) Object {
	return Object{raw: raw}
}

// Null returns the foreign null.
func Null() Object {
	return Object{}
}

// Raw returns the underlying reference.
func (o Object) Raw() sys.Jobject { return o.raw }

// IsNull reports whether o is the foreign null.
func (o Object) IsNull() bool { return o.raw == 0 }

// Generation returns the generation of the scope o was issued under, or zero
// for untracked objects.
func (o Object) Generation() uint64 {
	if o.scope == nil {
		return 0
	}
	return o.scope.gen
}

func (o Object) String() string {
	if o.raw == 0 {
		return "null"
	}
	if o.scope == nil {
		return fmt.Sprintf("Object(%#x)", uintptr(o.raw))
	}
	return fmt.Sprintf("Object(%#x@%d)", uintptr(o.raw), o.scope.gen)
}
