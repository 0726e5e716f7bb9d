package jni

import "github.com/feather-lang/jni/sys"

// MethodID identifies an instance method or constructor.
//
// IDs are not tied to an Env and may be cached and shared across
// goroutines. They stay valid only while their class is loaded; holding a
// reference to the class (or to an instance) keeps it loaded.
type MethodID struct{ raw sys.Jmethod }

// StaticMethodID identifies a static method.
type StaticMethodID struct{ raw sys.Jmethod }

// FieldID identifies an instance field.
type FieldID struct{ raw sys.Jfield }

// StaticFieldID identifies a static field.
type StaticFieldID struct{ raw sys.Jfield }

// MethodIDFromRaw wraps an ID obtained from the raw table. The caller
// vouches that it names an instance method.
func MethodIDFromRaw(raw sys.Jmethod) MethodID { return MethodID{raw} }

// StaticMethodIDFromRaw wraps a raw ID that names a static method.
func StaticMethodIDFromRaw(raw sys.Jmethod) StaticMethodID { return StaticMethodID{raw} }

// FieldIDFromRaw wraps a raw ID that names an instance field.
func FieldIDFromRaw(raw sys.Jfield) FieldID { return FieldID{raw} }

// StaticFieldIDFromRaw wraps a raw ID that names a static field.
func StaticFieldIDFromRaw(raw sys.Jfield) StaticFieldID { return StaticFieldID{raw} }

// Raw returns the ID for use with the raw table.
func (id MethodID) Raw() sys.Jmethod { return id.raw }

// Raw returns the ID for use with the raw table.
func (id StaticMethodID) Raw() sys.Jmethod { return id.raw }

// Raw returns the ID for use with the raw table.
func (id FieldID) Raw() sys.Jfield { return id.raw }

// Raw returns the ID for use with the raw table.
func (id StaticFieldID) Raw() sys.Jfield { return id.raw }
