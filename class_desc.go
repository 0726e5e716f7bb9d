package jni

import (
	"errors"
	"fmt"
)

type classDescKind uint8

const (
	classNamed classDescKind = iota + 1
	classObject
	classGlobal
	classLocal
	classInstance
)

// ClassDesc names a class.
type ClassDesc struct {
	kind   classDescKind
	name   string
	obj    Object
	global *GlobalRef
	local  *AutoLocal
}

// ClassName names a class by its slash-separated binary name,
// e.g. "java/util/Map" or "java/util/Map$Entry".
func ClassName(name string) ClassDesc {
	return ClassDesc{kind: classNamed, name: name}
}

// ClassOf uses an existing reference to a class object.
func ClassOf(class Object) ClassDesc {
	return ClassDesc{kind: classObject, obj: class}
}

// ClassOfGlobal uses a global reference to a class object.
func ClassOfGlobal(class *GlobalRef) ClassDesc {
	return ClassDesc{kind: classGlobal, global: class}
}

// ClassOfLocal uses a guarded local reference to a class object.
func ClassOfLocal(class *AutoLocal) ClassDesc {
	return ClassDesc{kind: classLocal, local: class}
}

// ClassOfInstance names the runtime class of obj.
func ClassOfInstance(obj Object) ClassDesc {
	return ClassDesc{kind: classInstance, obj: obj}
}

// Resolved reports whether resolving d makes no foreign call.
func (d ClassDesc) Resolved() bool {
	return d.kind == classObject || d.kind == classGlobal || d.kind == classLocal
}

func (d ClassDesc) String() string {
	switch d.kind {
	case classNamed:
		return d.name
	case classObject:
		return d.obj.String()
	case classGlobal:
		return "global " + d.global.Object().String()
	case classLocal:
		return d.local.Object().String()
	case classInstance:
		return "class of " + d.obj.String()
	}
	return "<empty class descriptor>"
}

var errEmptyClassDesc = errors.New("jni: empty class descriptor")

// LookupClass resolves d. Named classes and instance classes yield an owned
// local reference; the other variants are returned as borrowed.
func (e *Env) LookupClass(d ClassDesc) (Lookup, error) {
	switch d.kind {
	case classNamed:
		cls, err := e.FindClass(d.name)
		if err != nil {
			return Lookup{}, err
		}
		return owned(e.AutoLocal(cls)), nil
	case classInstance:
		cls, err := e.GetObjectClass(d.obj)
		if err != nil {
			return Lookup{}, err
		}
		return owned(e.AutoLocal(cls)), nil
	case classObject:
		return e.borrowClass(d.obj)
	case classGlobal:
		return e.borrowClass(d.global.Object())
	case classLocal:
		return e.borrowClass(d.local.Object())
	}
	return Lookup{}, errEmptyClassDesc
}

func (e *Env) borrowClass(cls Object) (Lookup, error) {
	if err := e.check(cls); err != nil {
		return Lookup{}, err
	}
	if cls.IsNull() {
		return Lookup{}, fmt.Errorf("%w: class", ErrNullPointer)
	}
	return borrowed(cls), nil
}
