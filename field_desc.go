package jni

import "fmt"

// FieldDesc names an instance field.
type FieldDesc struct {
	id    FieldID
	named bool
	class ClassDesc
	name  string
	sig   string
}

// Field names an instance field by an already resolved ID.
func Field(id FieldID) FieldDesc {
	return FieldDesc{id: id}
}

// FieldByName names an instance field by class, name and type signature.
// The ID is looked up on use.
func FieldByName(class ClassDesc, name, sig string) FieldDesc {
	return FieldDesc{named: true, class: class, name: name, sig: sig}
}

// LookupField resolves d.
func (e *Env) LookupField(d FieldDesc) (FieldID, error) {
	if d.named {
		return e.GetFieldID(d.class, d.name, d.sig)
	}
	if d.id.raw == 0 {
		return FieldID{}, fmt.Errorf("%w: field id", ErrNullPointer)
	}
	return d.id, nil
}

// StaticFieldDesc names a static field.
type StaticFieldDesc struct {
	id    StaticFieldID
	named bool
	class ClassDesc
	name  string
	sig   string
}

// StaticField names a static field by an already resolved ID.
func StaticField(id StaticFieldID) StaticFieldDesc {
	return StaticFieldDesc{id: id}
}

// StaticFieldByName names a static field by class, name and type signature.
func StaticFieldByName(class ClassDesc, name, sig string) StaticFieldDesc {
	return StaticFieldDesc{named: true, class: class, name: name, sig: sig}
}

// LookupStaticField resolves d.
func (e *Env) LookupStaticField(d StaticFieldDesc) (StaticFieldID, error) {
	if d.named {
		return e.GetStaticFieldID(d.class, d.name, d.sig)
	}
	if d.id.raw == 0 {
		return StaticFieldID{}, fmt.Errorf("%w: static field id", ErrNullPointer)
	}
	return d.id, nil
}
